package keeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"frizo/binary_futures/internal/contract"
	"frizo/binary_futures/internal/logger"
	"frizo/binary_futures/internal/oracle"
	"frizo/binary_futures/pkg/utils"

	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 8
	defaultRetries     = 5
	defaultRetryDelay  = 200 * time.Millisecond
)

// Keeper settles contracts once they are due, using the latest feed price.
type Keeper struct {
	manager     *contract.Manager
	feed        oracle.PriceFeed
	interval    time.Duration
	concurrency int
	retries     int           // extra attempts while another payout is in flight
	retryDelay  time.Duration // pause between those attempts
	now         func() int64
	log         *logger.Logger
}

func New(manager *contract.Manager, feed oracle.PriceFeed, log *logger.Logger, interval time.Duration) *Keeper {
	if log == nil {
		log = logger.Default()
	}
	return &Keeper{
		manager:     manager,
		feed:        feed,
		interval:    interval,
		concurrency: defaultConcurrency,
		retries:     defaultRetries,
		retryDelay:  defaultRetryDelay,
		now:         contract.SystemClock,
		log:         log.With("component", "keeper"),
	}
}

// SettleDue settles every Active contract that has reached its expiry at now.
// One price observation serves the whole batch, and only contracts that expired
// at or before the moment the price was observed are settled with it. Contracts
// that fail are logged and their errors are returned joined, alongside the
// settlements that succeeded.
func (k *Keeper) SettleDue(ctx context.Context, now int64) ([]*contract.Settlement, error) {
	due := k.manager.Due(now)
	if len(due) == 0 {
		return nil, nil
	}

	obs, err := k.feed.LatestPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("read reference price: %w", err)
	}

	fresh := utils.Filter(due, func(c *contract.Contract) bool {
		return obs.Timestamp >= c.ExpiresAt()
	})
	if stale := len(due) - len(fresh); stale > 0 {
		k.log.Debug("price observed before expiry, waiting for a newer one",
			"contracts", stale,
			"observed_at", obs.Timestamp,
		)
	}

	var (
		mu      sync.Mutex
		settled []*contract.Settlement
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(k.concurrency)
	for _, c := range fresh {
		c := c
		g.Go(func() error {
			s, err := k.settle(gctx, c, obs, now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				settled = append(settled, s)
			case errors.Is(err, contract.ErrSettlementInProgress):
				k.log.Warn("settlement still in progress, next round retries", "contract_id", c.ID)
				errs = append(errs, fmt.Errorf("%s: %w", c.ID, err))
			case errors.Is(err, contract.ErrContractNotActive):
				// settled by someone else in the meantime
			default:
				k.log.Error("settlement failed", "contract_id", c.ID, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", c.ID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	k.log.Info("settlement round",
		"due", len(due),
		"fresh", len(fresh),
		"settled", len(settled),
		"failed", len(errs),
		"price", obs.Price.String(),
	)

	return settled, errors.Join(errs...)
}

// settle calls CheckExecution, retrying while another caller's payout is in flight.
func (k *Keeper) settle(ctx context.Context, c *contract.Contract, obs oracle.Observation, now int64) (*contract.Settlement, error) {
	for attempt := 0; ; attempt++ {
		s, err := c.CheckExecution(ctx, obs.Price, now)
		if !errors.Is(err, contract.ErrSettlementInProgress) || attempt >= k.retries {
			return s, err
		}

		k.log.Debug("settlement in progress, retrying", "contract_id", c.ID, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(k.retryDelay):
		}
	}
}

// Run calls SettleDue every interval until ctx is done.
func (k *Keeper) Run(ctx context.Context) error {
	if k.interval <= 0 {
		return fmt.Errorf("keeper interval must be positive, got %s", k.interval)
	}

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	k.log.Info("keeper started", "interval", k.interval.String())

	for {
		select {
		case <-ctx.Done():
			k.log.Info("keeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := k.SettleDue(ctx, k.now()); err != nil {
				if errors.Is(err, oracle.ErrNoPrice) {
					k.log.Debug("no reference price yet")
					continue
				}
				k.log.Warn("settlement round incomplete", "error", err)
			}
		}
	}
}
