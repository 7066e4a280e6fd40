package restapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio_checker/internal/pkg/metrics"
)

// SetupRouter builds the gin engine serving the portfolio API and the metrics endpoint.
// An empty allowedOrigins list, or one containing "*", allows every origin.
func SetupRouter(portfolioHandler *PortfolioHandler, logger *zap.Logger, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || containsWildcard(allowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.Use(ZapLoggerMiddleware(logger))
	router.Use(MetricsMiddleware())
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/check/:address", portfolioHandler.CheckAddressHandler)
		api.GET("/check-chain/:address/:chain", portfolioHandler.CheckAddressOnChainHandler)
		api.GET("/health", portfolioHandler.HealthHandler)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
