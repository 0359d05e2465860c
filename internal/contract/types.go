package contract

import (
	"fmt"
	"strings"
)

// Side LONG or SHORT
type Side int

const (
	Long  Side = 1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

func (s Side) Valid() bool {
	return s == Long || s == Short
}

// Opposite returns the counterparty side.
func (s Side) Opposite() Side {
	return -s
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	side, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// ParseSide accepts "long"/"short" (also "buy"/"sell").
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// ========================================================

// Status Created OneSideFilled Active Settled
type Status int

const (
	StatusCreated       Status = iota // no side filled
	StatusOneSideFilled               // waiting for the counterparty
	StatusActive                      // both sides escrowed
	StatusSettled                     // pot disbursed, terminal
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusOneSideFilled:
		return "one_side_filled"
	case StatusActive:
		return "active"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Open reports whether positions may still be taken.
func (s Status) Open() bool {
	return s == StatusCreated || s == StatusOneSideFilled
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	status, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created":
		return StatusCreated, nil
	case "one_side_filled", "onesidefilled":
		return StatusOneSideFilled, nil
	case "active":
		return StatusActive, nil
	case "settled":
		return StatusSettled, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

// ========================================================

// TiePolicy decides the payout when the reference price equals the target.
type TiePolicy int

const (
	TieRefund TiePolicy = iota // each side gets its own collateral back
	TieLong                    // long takes the pot
	TieShort                   // short takes the pot
)

func (p TiePolicy) String() string {
	switch p {
	case TieRefund:
		return "refund"
	case TieLong:
		return "long"
	case TieShort:
		return "short"
	default:
		return "unknown"
	}
}

func (p TiePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *TiePolicy) UnmarshalText(b []byte) error {
	policy, err := ParseTiePolicy(string(b))
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// ParseTiePolicy maps a policy name; empty means TieRefund.
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "refund", "split":
		return TieRefund, nil
	case "long":
		return TieLong, nil
	case "short":
		return TieShort, nil
	default:
		return 0, fmt.Errorf("%w: unknown tie policy %q", ErrInvalidConfig, s)
	}
}

// ========================================================

// Outcome of a settlement.
type Outcome int

const (
	OutcomeLongWins Outcome = iota + 1
	OutcomeShortWins
	OutcomeTie
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLongWins:
		return "long_wins"
	case OutcomeShortWins:
		return "short_wins"
	case OutcomeTie:
		return "tie"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
