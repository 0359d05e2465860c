package api

import (
	"fmt"
	"net/http"

	"frizo/binary_futures/internal/common"
	"frizo/binary_futures/internal/contract"
	"frizo/binary_futures/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type DepositRequest struct {
	Amount string `json:"amount" binding:"required,numeric"`
}

func (h *Handler) Balance(ctx *gin.Context) {
	addr, err := common.ParseAddress(ctx.Param("address"))
	if err != nil {
		h.fail(ctx, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	balance, err := h.ledger.Balance(ctx.Request.Context(), addr)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"address": addr,
		"balance": balance,
	})
}

// Deposit credits an account. Only ledgers that accept external funds support it.
func (h *Handler) Deposit(ctx *gin.Context) {
	funder, ok := h.ledger.(ledger.Funder)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "ledger does not accept deposits"})
		return
	}

	addr, err := common.ParseAddress(ctx.Param("address"))
	if err != nil {
		h.fail(ctx, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if h.manager.IsEscrow(addr) {
		h.fail(ctx, fmt.Errorf("%w: %s", contract.ErrEscrowAccount, addr.Hex()))
		return
	}

	var req DepositRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.fail(ctx, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.fail(ctx, fmt.Errorf("%w: amount: %v", errBadRequest, err))
		return
	}

	if err := funder.Deposit(ctx.Request.Context(), addr, amount); err != nil {
		h.fail(ctx, err)
		return
	}

	balance, err := h.ledger.Balance(ctx.Request.Context(), addr)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"address": addr,
		"balance": balance,
	})
}

func (h *Handler) Transfers(ctx *gin.Context) {
	journal, ok := h.ledger.(ledger.Journal)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "ledger keeps no journal"})
		return
	}

	addr, err := common.ParseAddress(ctx.Param("address"))
	if err != nil {
		h.fail(ctx, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	entries, err := journal.Entries(ctx.Request.Context(), addr)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}

	ctx.JSON(http.StatusOK, entries)
}
