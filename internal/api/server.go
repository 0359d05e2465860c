package api

import (
	"net/http"
	"time"

	"frizo/binary_futures/internal/contract"
	"frizo/binary_futures/internal/ledger"
	"frizo/binary_futures/internal/logger"
	"frizo/binary_futures/internal/version"

	"github.com/gin-gonic/gin"
)

// Handler serves the HTTP surface of the settlement engine.
type Handler struct {
	manager *contract.Manager
	ledger  ledger.Ledger
	log     *logger.Logger
}

func NewHandler(manager *contract.Manager, l ledger.Ledger, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		manager: manager,
		ledger:  l,
		log:     log.With("component", "api"),
	}
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog)

	r.GET("/health", h.Health)
	r.GET("/version", h.Version)

	r.POST("/contracts", h.CreateContract)
	r.GET("/contracts", h.ListContracts)
	r.GET("/contracts/:id", h.GetContract)
	r.POST("/contracts/:id/positions", h.TakePosition)
	r.POST("/contracts/:id/execution", h.CheckExecution)

	r.GET("/accounts/:address/balance", h.Balance)
	r.POST("/accounts/:address/deposit", h.Deposit)
	r.GET("/accounts/:address/transfers", h.Transfers)

	if err := r.SetTrustedProxies(nil); err != nil {
		panic(err)
	}

	return r
}

func (h *Handler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"contracts": h.manager.Len(),
	})
}

func (h *Handler) Version(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, version.Get())
}

func (h *Handler) requestLog(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()

	h.log.Debug("request",
		"method", ctx.Request.Method,
		"path", ctx.FullPath(),
		"status", ctx.Writer.Status(),
		"duration", time.Since(start).String(),
	)
}
