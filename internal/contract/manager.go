package contract

import (
	"fmt"
	"sort"
	"sync"

	"frizo/binary_futures/internal/ledger"
	"frizo/binary_futures/pkg/utils"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Manager is the registry of contract instances. Instances never share state,
// so the registry lock only guards the maps. Escrow accounts are registered
// so no contract accepts another one's escrow as a payer.
type Manager struct {
	contracts map[string]*Contract         // contractID -> contract
	escrows   map[ethcommon.Address]string // escrow account -> contractID
	ledger    ledger.Ledger
	opts      []Option

	mu sync.RWMutex
}

// NewManager new. opts apply to every contract the manager creates.
func NewManager(l ledger.Ledger, opts ...Option) *Manager {
	return &Manager{
		contracts: make(map[string]*Contract),
		escrows:   make(map[ethcommon.Address]string),
		ledger:    l,
		opts:      opts,
	}
}

// Create validates cfg and registers a new contract.
func (m *Manager) Create(cfg Config, opts ...Option) (*Contract, error) {
	all := make([]Option, 0, len(m.opts)+len(opts)+1)
	all = append(all, m.opts...)
	all = append(all, opts...)
	all = append(all, withEscrowRegistry(m.IsEscrow))

	c, err := New(cfg, m.ledger, all...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.contracts[c.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate contract id %s", ErrInvalidConfig, c.ID)
	}
	if owner, taken := m.escrows[c.EscrowAccount]; taken {
		return nil, fmt.Errorf("%w: escrow %s already belongs to %s", ErrInvalidConfig, c.EscrowAccount.Hex(), owner)
	}
	m.contracts[c.ID] = c
	m.escrows[c.EscrowAccount] = c.ID

	c.log.Info("contract created",
		"target_price", cfg.TargetPrice.String(),
		"required_collateral", cfg.RequiredCollateral.String(),
		"duration_seconds", cfg.DurationSeconds,
		"expiration_buffer_seconds", cfg.ExpirationBufferSeconds,
	)

	return c, nil
}

func (m *Manager) Get(id string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if c, ok := m.contracts[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrContractNotFound, id)
}

// IsEscrow reports whether addr is the escrow account of a registered contract.
func (m *Manager) IsEscrow(addr ethcommon.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.escrows[addr]
	return ok
}

// List returns contracts in any of statuses (all when empty), oldest first.
func (m *Manager) List(statuses ...Status) []*Contract {
	m.mu.RLock()
	all := make([]*Contract, 0, len(m.contracts))
	for _, c := range m.contracts {
		all = append(all, c)
	}
	m.mu.RUnlock()

	if len(statuses) > 0 {
		all = utils.Filter(all, func(c *Contract) bool {
			return utils.Contains(statuses, c.Status())
		})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].creationTimestamp != all[j].creationTimestamp {
			return all[i].creationTimestamp < all[j].creationTimestamp
		}
		return all[i].ID < all[j].ID
	})
	return all
}

// Due returns Active contracts whose expiry has been reached at now.
func (m *Manager) Due(now int64) []*Contract {
	return utils.Filter(m.List(StatusActive), func(c *Contract) bool {
		return c.ExpiresAt() <= now
	})
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contracts)
}
