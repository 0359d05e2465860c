package oracle

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrNoPrice = errors.New("no price observed yet")

// Observation is one reference price reading, already in fixed-point form.
type Observation struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"` // unix seconds reported by the source
	Source    string          `json:"source"`
}

// PriceFeed supplies reference prices to whoever settles contracts.
type PriceFeed interface {
	LatestPrice(ctx context.Context) (Observation, error)
}

// ToFixedPoint scales a human price (121.5) to an integer with decimals places.
// Digits beyond the precision are truncated.
func ToFixedPoint(price decimal.Decimal, decimals int32) decimal.Decimal {
	return price.Shift(decimals).Truncate(0)
}

// StaticFeed always returns the last price set on it.
type StaticFeed struct {
	obs    Observation
	set    bool
	source string

	mu sync.RWMutex
}

func NewStaticFeed(source string) *StaticFeed {
	return &StaticFeed{source: source}
}

// Set stores a fixed-point price observed at timestamp.
func (f *StaticFeed) Set(price decimal.Decimal, timestamp int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.obs = Observation{Price: price, Timestamp: timestamp, Source: f.source}
	f.set = true
}

func (f *StaticFeed) LatestPrice(ctx context.Context) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.set {
		return Observation{}, ErrNoPrice
	}
	return f.obs, nil
}
