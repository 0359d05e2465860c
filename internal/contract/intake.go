package contract

import (
	"context"
	"fmt"

	"frizo/binary_futures/internal/ledger"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TakePosition records payer on side and escrows amount from payer's ledger account.
//
// The first filled side moves the contract to OneSideFilled, the second to Active.
// A failing ledger transfer leaves the contract untouched.
func (c *Contract) TakePosition(ctx context.Context, side Side, payer ethcommon.Address, amount decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.status.Open() {
		return fmt.Errorf("%w: contract is %s", ErrContractNotOpen, c.status)
	}
	if !side.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSide, side)
	}
	if !amount.Equal(c.Config.RequiredCollateral) {
		return fmt.Errorf("%w: attached %s, required %s", ErrInvalidCollateral, amount, c.Config.RequiredCollateral)
	}
	if c.slot(side) != nil {
		return fmt.Errorf("%w: %s position already taken", ErrSideAlreadyTaken, side)
	}
	if c.escrowPayer(payer) {
		return fmt.Errorf("%w: %s", ErrEscrowAccount, payer.Hex())
	}
	if other := c.slot(side.Opposite()); other != nil && *other == payer {
		return fmt.Errorf("%w: %s holds %s", ErrSameParticipant, payer.Hex(), side.Opposite())
	}

	if _, err := c.ledger.Transfer(ctx, payer, ledger.Payout{To: c.EscrowAccount, Amount: amount}); err != nil {
		return fmt.Errorf("escrow %s collateral: %w", side, err)
	}

	participant := payer
	switch side {
	case Long:
		c.long = &participant
		c.escrowedLong = amount
	case Short:
		c.short = &participant
		c.escrowedShort = amount
	}

	if c.status == StatusCreated {
		c.status = StatusOneSideFilled
	} else {
		c.status = StatusActive
		c.activationTimestamp = c.clock()
	}

	c.log.Info("position taken",
		"side", side.String(),
		"payer", payer.Hex(),
		"amount", amount.String(),
		"status", c.status.String(),
	)

	return nil
}
