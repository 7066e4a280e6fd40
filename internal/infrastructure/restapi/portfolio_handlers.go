package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/domain/entity"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string                        `json:"status"`
	Chains map[string]entity.ChainHealth `json:"chains"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PortfolioHandler serves the portfolio endpoints.
type PortfolioHandler struct {
	portfolioService port.PortfolioService
	logger           port.Logger
}

// NewPortfolioHandler creates a new instance of PortfolioHandler.
func NewPortfolioHandler(ps port.PortfolioService, l port.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: ps,
		logger:           l,
	}
}

// CheckAddressHandler returns the multi-chain snapshot of :address.
func (h *PortfolioHandler) CheckAddressHandler(c *gin.Context) {
	snapshot, err := h.portfolioService.CheckAddress(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// CheckAddressOnChainHandler returns the snapshot of :address on :chain.
func (h *PortfolioHandler) CheckAddressOnChainHandler(c *gin.Context) {
	snapshot, err := h.portfolioService.CheckAddressOnChain(c.Request.Context(), c.Param("address"), c.Param("chain"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// HealthHandler reports per-chain connectivity. It always answers 200; disconnected chains
// are visible in the body.
func (h *PortfolioHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Chains: h.portfolioService.Health(c.Request.Context()),
	})
}

func (h *PortfolioHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid Ethereum address"})
	case errors.Is(err, entity.ErrUnknownChain):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid chain: " + c.Param("chain")})
	default:
		h.logger.Error("Portfolio request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
