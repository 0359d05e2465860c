package contract

import (
	"context"
	"fmt"

	"frizo/binary_futures/internal/ledger"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Settlement is the record of a disbursed pot.
type Settlement struct {
	ContractID     string             `json:"contract_id"`
	Outcome        Outcome            `json:"outcome"`
	Winner         *ethcommon.Address `json:"winner,omitempty"` // nil when a tie is refunded
	Payouts        []ledger.Payout    `json:"payouts"`
	ReferencePrice decimal.Decimal    `json:"reference_price"`
	TargetPrice    decimal.Decimal    `json:"target_price"`
	Timestamp      int64              `json:"timestamp"`
	Forced         bool               `json:"forced"` // settled outside the window
	TransferID     string             `json:"transfer_id"`
}

// CheckExecution settles an Active contract against referencePrice.
//
// now is supplied by the caller and is the only time input of settlement.
// The contract is marked settling before the payout leaves the escrow account,
// so any call made while the payout is in flight fails with ErrSettlementInProgress.
// Observers keep seeing the committed Active state until the payout succeeds;
// Settled, the zeroed escrow and the record are then committed together.
// A failed payout clears the marker and leaves the contract Active.
func (c *Contract) CheckExecution(ctx context.Context, referencePrice decimal.Decimal, now int64) (*Settlement, error) {
	c.mu.Lock()

	if c.settling {
		c.mu.Unlock()
		return nil, ErrSettlementInProgress
	}
	if c.status != StatusActive {
		status := c.status
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: contract is %s", ErrContractNotActive, status)
	}
	if !referencePrice.IsPositive() {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, referencePrice)
	}

	forced := !c.inWindow(now)
	if forced && c.Config.EnforceSettlementWindow {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %d not in [%d, %d]",
			ErrOutsideSettlementWindow, now, c.activationTimestamp, c.Deadline())
	}

	outcome, winner, payouts := c.decide(referencePrice)
	s := &Settlement{
		ContractID:     c.ID,
		Outcome:        outcome,
		Winner:         winner,
		Payouts:        payouts,
		ReferencePrice: referencePrice,
		TargetPrice:    c.Config.TargetPrice,
		Timestamp:      now,
		Forced:         forced,
	}
	c.settling = true
	c.mu.Unlock()

	transferID, err := c.ledger.Transfer(ctx, c.EscrowAccount, payouts...)

	c.mu.Lock()
	c.settling = false
	if err != nil {
		c.mu.Unlock()
		c.log.Error("settlement payout failed", "error", err)
		return nil, fmt.Errorf("pay out settlement: %w", err)
	}
	s.TransferID = transferID
	c.status = StatusSettled
	c.escrowedLong = decimal.Zero
	c.escrowedShort = decimal.Zero
	c.lastPrice = referencePrice
	c.settlement = s
	c.mu.Unlock()

	c.log.Info("contract settled",
		"outcome", outcome.String(),
		"reference_price", referencePrice.String(),
		"target_price", c.Config.TargetPrice.String(),
		"forced", forced,
		"transfer_id", transferID,
	)

	return s, nil
}

// Settlement returns the settlement record, nil until settled.
func (c *Contract) Settlement() *Settlement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settlement
}

// InWindow reports whether now lies inside the settlement window.
func (c *Contract) InWindow(now int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inWindow(now)
}

// --------------------------------------------------------------------------------------------
// private func
// --------------------------------------------------------------------------------------------

// inWindow: activation <= now <= creation + duration + buffer. Caller holds mu.
func (c *Contract) inWindow(now int64) bool {
	if c.status < StatusActive {
		return false
	}
	return now >= c.activationTimestamp && now <= c.Deadline()
}

// decide picks the outcome and the payouts from the current escrow. Caller holds mu.
func (c *Contract) decide(price decimal.Decimal) (Outcome, *ethcommon.Address, []ledger.Payout) {
	pot := c.escrowedLong.Add(c.escrowedShort)

	switch price.Cmp(c.Config.TargetPrice) {
	case 1:
		return OutcomeLongWins, copyAddress(c.long), []ledger.Payout{{To: *c.long, Amount: pot}}
	case -1:
		return OutcomeShortWins, copyAddress(c.short), []ledger.Payout{{To: *c.short, Amount: pot}}
	}

	switch c.Config.TiePolicy {
	case TieLong:
		return OutcomeTie, copyAddress(c.long), []ledger.Payout{{To: *c.long, Amount: pot}}
	case TieShort:
		return OutcomeTie, copyAddress(c.short), []ledger.Payout{{To: *c.short, Amount: pot}}
	default:
		return OutcomeTie, nil, []ledger.Payout{
			{To: *c.long, Amount: c.escrowedLong},
			{To: *c.short, Amount: c.escrowedShort},
		}
	}
}
