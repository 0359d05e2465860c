package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Payout is one leg of a transfer batch.
type Payout struct {
	To     common.Address  `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Entry is a journaled movement of funds.
type Entry struct {
	TransferID string          `json:"transfer_id"`
	From       common.Address  `json:"from"`
	To         common.Address  `json:"to"`
	Amount     decimal.Decimal `json:"amount"`
	At         time.Time       `json:"at"`
}

// Ledger is the value-transfer primitive the settlement engine debits and credits.
// A Transfer either moves every payout or none of them.
type Ledger interface {
	Transfer(ctx context.Context, from common.Address, payouts ...Payout) (string, error)
	Balance(ctx context.Context, addr common.Address) (decimal.Decimal, error)
}

// Funder credits an account from outside the system (wallet top up).
type Funder interface {
	Deposit(ctx context.Context, addr common.Address, amount decimal.Decimal) error
}

// Journal exposes the transfer history of an account.
type Journal interface {
	Entries(ctx context.Context, addr common.Address) ([]Entry, error)
}

// validatePayouts checks every leg and returns the batch total.
func validatePayouts(payouts []Payout) (decimal.Decimal, error) {
	if len(payouts) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty transfer", ErrInvalidAmount)
	}
	total := decimal.Zero
	for _, p := range payouts {
		if err := validateAmount(p.Amount); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(p.Amount)
	}
	return total, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, amount)
	}
	if !amount.IsInteger() {
		return fmt.Errorf("%w: %s is not an integral amount", ErrInvalidAmount, amount)
	}
	return nil
}
