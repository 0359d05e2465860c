package api

import (
	"errors"
	"net/http"

	"frizo/binary_futures/internal/contract"
	"frizo/binary_futures/internal/ledger"

	"github.com/gin-gonic/gin"
)

var errBadRequest = errors.New("bad request")

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, contract.ErrInvalidCollateral),
		errors.Is(err, contract.ErrInvalidSide),
		errors.Is(err, contract.ErrInvalidPrice),
		errors.Is(err, contract.ErrInvalidConfig),
		errors.Is(err, contract.ErrSameParticipant),
		errors.Is(err, contract.ErrEscrowAccount),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, contract.ErrContractNotFound):
		return http.StatusNotFound
	case errors.Is(err, contract.ErrSideAlreadyTaken),
		errors.Is(err, contract.ErrContractNotOpen),
		errors.Is(err, contract.ErrContractNotActive):
		return http.StatusConflict
	case errors.Is(err, contract.ErrOutsideSettlementWindow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", ctx.FullPath(), "error", err)
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
