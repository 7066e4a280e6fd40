package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portfolio_checker/internal/infrastructure/restapi"
)

const (
	preloadTimeout  = 2 * time.Minute
	shutdownTimeout = 5 * time.Second
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(*configPath)
			if err != nil {
				return err
			}
			defer app.close()
			return runServer(cmd.Context(), app)
		},
	}
}

func runServer(ctx context.Context, app *application) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if app.cfg.PriceOracle.PreloadOnStart {
		go func() {
			preloadCtx, cancel := context.WithTimeout(ctx, preloadTimeout)
			defer cancel()
			app.preloadPrices(preloadCtx)
		}()
	}

	if !strings.EqualFold(app.cfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := restapi.NewPortfolioHandler(app.portfolio, app.log)
	router := restapi.SetupRouter(handler, app.zapLogger, app.cfg.Server.AllowedOrigins)

	addr := app.cfg.Server.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(app.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(app.cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		app.zapLogger.Info("Server starting", zap.String("addr", addr), zap.Int("networks", len(app.registry.All())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	app.zapLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	app.zapLogger.Info("Server exiting")
	return nil
}
