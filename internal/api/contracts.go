package api

import (
	"fmt"
	"net/http"
	"strings"

	"frizo/binary_futures/internal/common"
	"frizo/binary_futures/internal/contract"
	"frizo/binary_futures/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateContractRequest carries a contract definition. target_price is the fixed-point
// integer (price × 10^8), the same unit snapshots report.
type CreateContractRequest struct {
	ID                      string `json:"id"`
	OracleReference         string `json:"oracle_reference" binding:"required"`
	DurationSeconds         int64  `json:"duration_seconds" binding:"min=0"`
	ExpirationBufferSeconds int64  `json:"expiration_buffer_seconds" binding:"min=0"`
	TargetPrice             string `json:"target_price" binding:"required,numeric"`
	RequiredCollateral      string `json:"required_collateral" binding:"required,numeric"`
	EnforceSettlementWindow bool   `json:"enforce_settlement_window"`
	TiePolicy               string `json:"tie_policy" binding:"omitempty,oneof=refund split long short"`
}

type TakePositionRequest struct {
	Side   string `json:"side" binding:"required,oneof=long short buy sell"`
	Payer  string `json:"payer" binding:"required,eth_addr"`
	Amount string `json:"amount" binding:"required,numeric"`
}

// ExecutionRequest triggers settlement. The caller supplies the settlement time;
// the server never substitutes its own clock.
type ExecutionRequest struct {
	Price     string `json:"price" binding:"required,numeric"`
	Timestamp int64  `json:"timestamp" binding:"required,min=1"`
}

func (h *Handler) CreateContract(ctx *gin.Context) {
	var req CreateContractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.fail(ctx, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	target, err := decimal.NewFromString(req.TargetPrice)
	if err != nil {
		h.fail(ctx, fmt.Errorf("%w: target_price: %v", errBadRequest, err))
		return
	}
	collateral, err := decimal.NewFromString(req.RequiredCollateral)
	if err != nil {
		h.fail(ctx, fmt.Errorf("%w: required_collateral: %v", errBadRequest, err))
		return
	}
	tie, err := contract.ParseTiePolicy(req.TiePolicy)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	cfg := contract.NewConfig(req.OracleReference, req.DurationSeconds, req.ExpirationBufferSeconds, target, collateral)
	cfg.EnforceSettlementWindow = req.EnforceSettlementWindow
	cfg.TiePolicy = tie

	var opts []contract.Option
	if req.ID != "" {
		opts = append(opts, contract.WithID(req.ID))
	}

	c, err := h.manager.Create(cfg, opts...)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, c.Snapshot())
}

func (h *Handler) ListContracts(ctx *gin.Context) {
	var statuses []contract.Status
	if raw := ctx.Query("status"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			s, err := contract.ParseStatus(name)
			if err != nil {
				h.fail(ctx, fmt.Errorf("%w: %v", errBadRequest, err))
				return
			}
			statuses = append(statuses, s)
		}
	}

	snapshots := utils.Map(h.manager.List(statuses...), func(c *contract.Contract) contract.Snapshot {
		return c.Snapshot()
	})

	ctx.JSON(http.StatusOK, snapshots)
}

func (h *Handler) GetContract(ctx *gin.Context) {
	c, err := h.manager.Get(ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, c.Snapshot())
}

func (h *Handler) TakePosition(ctx *gin.Context) {
	c, err := h.manager.Get(ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}

	var req TakePositionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.fail(ctx, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	side, err := contract.ParseSide(req.Side)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	payer, err := common.ParseAddress(req.Payer)
	if err != nil {
		h.fail(ctx, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.fail(ctx, fmt.Errorf("%w: amount: %v", errBadRequest, err))
		return
	}

	if err := c.TakePosition(ctx.Request.Context(), side, payer, amount); err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, c.Snapshot())
}

func (h *Handler) CheckExecution(ctx *gin.Context) {
	c, err := h.manager.Get(ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}

	var req ExecutionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.fail(ctx, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		h.fail(ctx, fmt.Errorf("%w: price: %v", errBadRequest, err))
		return
	}
	s, err := c.CheckExecution(ctx.Request.Context(), price, req.Timestamp)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, s)
}
