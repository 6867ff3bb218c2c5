package host

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/bitfsorg/lottery-go/lottery"
)

// Update is one balance change applied as part of an atomic batch.
type Update struct {
	Account lottery.Identity
	Credit  uint64
	Debit   uint64
}

// Balance pairs an account with its balance.
type Balance struct {
	Account lottery.Identity
	Amount  uint64
}

// Accounts stores account balances for the runtime.
type Accounts interface {
	// Balance returns the balance of id; unknown accounts hold zero.
	Balance(id lottery.Identity) (uint64, error)

	// Apply applies all updates or none of them. A debit larger than the
	// running balance fails with ErrInsufficientFunds.
	Apply(updates ...Update) error

	// List returns every non-empty account sorted by identity.
	List() ([]Balance, error)
}

// applyTo computes the balances resulting from updates against get.
func applyTo(get func(lottery.Identity) (uint64, error), updates []Update) (map[lottery.Identity]uint64, error) {
	next := make(map[lottery.Identity]uint64)
	for _, u := range updates {
		bal, ok := next[u.Account]
		if !ok {
			var err error
			if bal, err = get(u.Account); err != nil {
				return nil, err
			}
		}
		if u.Credit > math.MaxUint64-bal {
			return nil, fmt.Errorf("%w: %s", ErrBalanceOverflow, u.Account)
		}
		bal += u.Credit
		if u.Debit > bal {
			return nil, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, u.Account, bal, u.Debit)
		}
		bal -= u.Debit
		next[u.Account] = bal
	}
	return next, nil
}

func sortBalances(list []Balance) {
	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i].Account[:], list[j].Account[:]) < 0
	})
}

// MemAccounts is an in-memory implementation of Accounts.
type MemAccounts struct {
	mu       sync.RWMutex
	balances map[lottery.Identity]uint64
}

// Compile-time interface check.
var _ Accounts = (*MemAccounts)(nil)

// NewMemAccounts creates an empty in-memory account store.
func NewMemAccounts() *MemAccounts {
	return &MemAccounts{balances: make(map[lottery.Identity]uint64)}
}

// Balance returns the balance of id.
func (m *MemAccounts) Balance(id lottery.Identity) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[id], nil
}

// Apply applies updates atomically.
func (m *MemAccounts) Apply(updates ...Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := applyTo(func(id lottery.Identity) (uint64, error) {
		return m.balances[id], nil
	}, updates)
	if err != nil {
		return err
	}
	for id, bal := range next {
		if bal == 0 {
			delete(m.balances, id)
			continue
		}
		m.balances[id] = bal
	}
	return nil
}

// List returns all non-empty accounts.
func (m *MemAccounts) List() ([]Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Balance, 0, len(m.balances))
	for id, bal := range m.balances {
		result = append(result, Balance{Account: id, Amount: bal})
	}
	sortBalances(result)
	return result, nil
}
