package contract

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCollateral       = errors.New("invalid collateral")
	ErrSideAlreadyTaken        = errors.New("side already taken")
	ErrContractNotOpen         = errors.New("contract not open")
	ErrContractNotActive       = errors.New("contract not active")
	ErrOutsideSettlementWindow = errors.New("outside settlement window")

	ErrInvalidSide      = errors.New("invalid side")
	ErrInvalidPrice     = errors.New("invalid reference price")
	ErrSameParticipant  = errors.New("participant already holds the opposite side")
	ErrInvalidConfig    = errors.New("invalid contract config")
	ErrContractNotFound = errors.New("contract not found")
	ErrEscrowAccount    = errors.New("escrow accounts cannot take positions or receive deposits")

	// ErrSettlementInProgress is returned while a payout is in flight. It matches ErrContractNotActive.
	ErrSettlementInProgress = fmt.Errorf("settlement in progress: %w", ErrContractNotActive)
)
