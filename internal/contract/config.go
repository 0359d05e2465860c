package contract

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceDecimals is the fixed-point precision of target and reference prices (price × 10^8).
const PriceDecimals = 8

// Config is the immutable definition of one binary futures instrument.
type Config struct {
	OracleReference         string          `json:"oracle_reference"`
	DurationSeconds         int64           `json:"duration_seconds"`
	ExpirationBufferSeconds int64           `json:"expiration_buffer_seconds"`
	TargetPrice             decimal.Decimal `json:"target_price"`        // fixed-point, PriceDecimals
	RequiredCollateral      decimal.Decimal `json:"required_collateral"` // smallest currency unit

	// EnforceSettlementWindow rejects settlement outside the window instead of force-settling.
	EnforceSettlementWindow bool      `json:"enforce_settlement_window"`
	TiePolicy               TiePolicy `json:"tie_policy"`
}

// NewConfig builds a Config with the default policies: lenient window, refund on tie.
func NewConfig(oracleReference string, durationSeconds, expirationBufferSeconds int64, targetPrice, requiredCollateral decimal.Decimal) Config {
	return Config{
		OracleReference:         oracleReference,
		DurationSeconds:         durationSeconds,
		ExpirationBufferSeconds: expirationBufferSeconds,
		TargetPrice:             targetPrice,
		RequiredCollateral:      requiredCollateral,
		TiePolicy:               TieRefund,
	}
}

// Validate checks the construction preconditions.
func (c Config) Validate() error {
	if !c.TargetPrice.IsPositive() || !c.TargetPrice.IsInteger() {
		return fmt.Errorf("%w: target price %s must be a positive fixed-point integer", ErrInvalidConfig, c.TargetPrice)
	}
	if !c.RequiredCollateral.IsPositive() || !c.RequiredCollateral.IsInteger() {
		return fmt.Errorf("%w: required collateral %s must be a positive integer", ErrInvalidConfig, c.RequiredCollateral)
	}
	if c.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration %d must not be negative", ErrInvalidConfig, c.DurationSeconds)
	}
	if c.ExpirationBufferSeconds < 0 {
		return fmt.Errorf("%w: expiration buffer %d must not be negative", ErrInvalidConfig, c.ExpirationBufferSeconds)
	}
	switch c.TiePolicy {
	case TieRefund, TieLong, TieShort:
	default:
		return fmt.Errorf("%w: tie policy %d", ErrInvalidConfig, c.TiePolicy)
	}
	return nil
}

// Pot is the total escrow once both sides are filled.
func (c Config) Pot() decimal.Decimal {
	return c.RequiredCollateral.Mul(decimal.NewFromInt(2))
}
