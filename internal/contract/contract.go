package contract

import (
	"fmt"
	"sync"
	"time"

	"frizo/binary_futures/internal/common"
	"frizo/binary_futures/internal/ledger"
	"frizo/binary_futures/internal/logger"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Clock returns the current unix time in seconds.
type Clock func() int64

// SystemClock reads the wall clock.
func SystemClock() int64 {
	return time.Now().Unix()
}

type options struct {
	clock    Clock
	log      *logger.Logger
	id       string
	isEscrow func(ethcommon.Address) bool
}

// Option tunes how a Contract (or every Contract of a Manager) is built.
type Option func(*options)

// WithClock sets the clock used for the creation and activation timestamps.
// Settlement never reads it: the caller passes the timestamp to CheckExecution.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithID overrides the generated contract id.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// withEscrowRegistry lets intake reject the escrow accounts of sibling contracts.
func withEscrowRegistry(isEscrow func(ethcommon.Address) bool) Option {
	return func(o *options) {
		o.isEscrow = isEscrow
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock: SystemClock,
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = common.GenerateContractID()
	}
	return o
}

// Contract is one binary futures instance: two slots, their escrow and the lifecycle state.
// All mutations are serialized by mu.
type Contract struct {
	ID            string
	Config        Config
	EscrowAccount ethcommon.Address // ledger account holding both collaterals

	status              Status
	long                *ethcommon.Address
	short               *ethcommon.Address
	escrowedLong        decimal.Decimal
	escrowedShort       decimal.Decimal
	creationTimestamp   int64
	activationTimestamp int64
	lastPrice           decimal.Decimal
	settlement          *Settlement
	settling            bool // payout in flight, committed state unchanged

	ledger   ledger.Ledger
	clock    Clock
	isEscrow func(ethcommon.Address) bool
	log      *logger.Logger

	mu sync.Mutex
}

// New creates a contract instance in the Created state.
func New(cfg Config, l ledger.Ledger, opts ...Option) (*Contract, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: nil ledger", ErrInvalidConfig)
	}

	o := buildOptions(opts)

	return &Contract{
		ID:                o.id,
		Config:            cfg,
		EscrowAccount:     common.EscrowAddress(o.id),
		status:            StatusCreated,
		escrowedLong:      decimal.Zero,
		escrowedShort:     decimal.Zero,
		creationTimestamp: o.clock(),
		lastPrice:         decimal.Zero,
		ledger:            l,
		clock:             o.clock,
		isEscrow:          o.isEscrow,
		log:               o.log.With("contract_id", o.id),
	}, nil
}

// =====================================================
// query surface
// =====================================================

func (c *Contract) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Long returns the long participant, nil while the slot is empty.
func (c *Contract) Long() *ethcommon.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyAddress(c.long)
}

// Short returns the short participant, nil while the slot is empty.
func (c *Contract) Short() *ethcommon.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyAddress(c.short)
}

func (c *Contract) EscrowedLong() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.escrowedLong
}

func (c *Contract) EscrowedShort() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.escrowedShort
}

// LastPrice is the reference price of the last successful settlement, zero before.
func (c *Contract) LastPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPrice
}

func (c *Contract) CreationTimestamp() int64 {
	return c.creationTimestamp
}

// ExpiresAt is the moment the contract becomes due for settlement.
func (c *Contract) ExpiresAt() int64 {
	return c.creationTimestamp + c.Config.DurationSeconds
}

// Deadline is the last second of the settlement window.
func (c *Contract) Deadline() int64 {
	return c.ExpiresAt() + c.Config.ExpirationBufferSeconds
}

// Settling reports whether a settlement payout is in flight.
func (c *Contract) Settling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settling
}

// Snapshot is a consistent read-only view of the committed state of a contract.
type Snapshot struct {
	ID                      string             `json:"id"`
	Status                  Status             `json:"status"`
	EscrowAccount           ethcommon.Address  `json:"escrow_account"`
	OracleReference         string             `json:"oracle_reference"`
	TargetPrice             decimal.Decimal    `json:"target_price"`
	RequiredCollateral      decimal.Decimal    `json:"required_collateral"`
	DurationSeconds         int64              `json:"duration_seconds"`
	ExpirationBufferSeconds int64              `json:"expiration_buffer_seconds"`
	EnforceSettlementWindow bool               `json:"enforce_settlement_window"`
	TiePolicy               TiePolicy          `json:"tie_policy"`
	Long                    *ethcommon.Address `json:"long,omitempty"`
	Short                   *ethcommon.Address `json:"short,omitempty"`
	EscrowedLong            decimal.Decimal    `json:"escrowed_long"`
	EscrowedShort           decimal.Decimal    `json:"escrowed_short"`
	CreationTimestamp       int64              `json:"creation_timestamp"`
	ActivationTimestamp     int64              `json:"activation_timestamp,omitempty"`
	ExpiresAt               int64              `json:"expires_at"`
	Deadline                int64              `json:"deadline"`
	LastPrice               decimal.Decimal    `json:"last_price"`
	Settlement              *Settlement        `json:"settlement,omitempty"`
	Settling                bool               `json:"settling,omitempty"`
}

func (c *Contract) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		ID:                      c.ID,
		Status:                  c.status,
		EscrowAccount:           c.EscrowAccount,
		OracleReference:         c.Config.OracleReference,
		TargetPrice:             c.Config.TargetPrice,
		RequiredCollateral:      c.Config.RequiredCollateral,
		DurationSeconds:         c.Config.DurationSeconds,
		ExpirationBufferSeconds: c.Config.ExpirationBufferSeconds,
		EnforceSettlementWindow: c.Config.EnforceSettlementWindow,
		TiePolicy:               c.Config.TiePolicy,
		Long:                    copyAddress(c.long),
		Short:                   copyAddress(c.short),
		EscrowedLong:            c.escrowedLong,
		EscrowedShort:           c.escrowedShort,
		CreationTimestamp:       c.creationTimestamp,
		ActivationTimestamp:     c.activationTimestamp,
		ExpiresAt:               c.ExpiresAt(),
		Deadline:                c.Deadline(),
		LastPrice:               c.lastPrice,
		Settlement:              c.settlement,
		Settling:                c.settling,
	}
}

// --------------------------------------------------------------------------------------------
// private func
// --------------------------------------------------------------------------------------------

func copyAddress(a *ethcommon.Address) *ethcommon.Address {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// escrowPayer reports whether payer is this or a sibling contract's escrow account.
func (c *Contract) escrowPayer(payer ethcommon.Address) bool {
	if payer == c.EscrowAccount {
		return true
	}
	return c.isEscrow != nil && c.isEscrow(payer)
}

// slot returns the participant of side, caller holds mu.
func (c *Contract) slot(side Side) *ethcommon.Address {
	if side == Long {
		return c.long
	}
	return c.short
}
