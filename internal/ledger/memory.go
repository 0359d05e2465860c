package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"frizo/binary_futures/internal/common"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// MemoryLedger keeps balances in process memory.
type MemoryLedger struct {
	balances map[ethcommon.Address]decimal.Decimal
	entries  []Entry

	mu sync.RWMutex
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[ethcommon.Address]decimal.Decimal),
	}
}

// Deposit credits addr with amount and journals it from the zero address.
func (l *MemoryLedger) Deposit(_ context.Context, addr ethcommon.Address, amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[addr] = l.balances[addr].Add(amount)
	l.entries = append(l.entries, Entry{
		TransferID: common.GenerateTransferID(),
		To:         addr,
		Amount:     amount,
		At:         time.Now(),
	})
	return nil
}

// Transfer moves every payout out of from, or nothing.
func (l *MemoryLedger) Transfer(_ context.Context, from ethcommon.Address, payouts ...Payout) (string, error) {
	total, err := validatePayouts(payouts)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	available := l.balances[from]
	if available.LessThan(total) {
		return "", fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from.Hex(), available, total)
	}

	transferID := common.GenerateTransferID()
	now := time.Now()

	l.balances[from] = available.Sub(total)
	for _, p := range payouts {
		l.balances[p.To] = l.balances[p.To].Add(p.Amount)
		l.entries = append(l.entries, Entry{
			TransferID: transferID,
			From:       from,
			To:         p.To,
			Amount:     p.Amount,
			At:         now,
		})
	}

	return transferID, nil
}

func (l *MemoryLedger) Balance(_ context.Context, addr ethcommon.Address) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[addr], nil
}

// Entries returns every journal entry touching addr, oldest first.
func (l *MemoryLedger) Entries(_ context.Context, addr ethcommon.Address) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for _, e := range l.entries {
		if e.From == addr || e.To == addr {
			out = append(out, e)
		}
	}
	return out, nil
}
