package lottery

import (
	"context"
	"fmt"
	"math"
	"sync"

	logger "github.com/ElrondNetwork/elrond-go-logger"
)

var log = logger.GetOrCreate("lottery")

// EntropySource supplies bytes that entrants could not predict when they entered.
type EntropySource interface {
	Entropy(ctx context.Context) ([]byte, error)
}

// Payer moves funds held by the contract to a recipient. A recipient may
// refuse the funds, in which case Pay returns an error and nothing moved.
type Payer interface {
	Pay(ctx context.Context, from, to Identity, amount uint64) error
}

// EntropyFunc adapts a function to EntropySource.
type EntropyFunc func(ctx context.Context) ([]byte, error)

// Entropy calls f(ctx).
func (f EntropyFunc) Entropy(ctx context.Context) ([]byte, error) { return f(ctx) }

// PayerFunc adapts a function to Payer.
type PayerFunc func(ctx context.Context, from, to Identity, amount uint64) error

// Pay calls f(ctx, from, to, amount).
func (f PayerFunc) Pay(ctx context.Context, from, to Identity, amount uint64) error {
	return f(ctx, from, to, amount)
}

// Call carries the host-attributed caller and the value attached to an invocation.
type Call struct {
	Caller Identity
	Value  uint64
}

// Contract is a deployed lottery. Mutating operations are serialized; each
// one either commits fully or leaves the state untouched.
type Contract struct {
	mu       sync.Mutex
	store    Store
	entropy  EntropySource
	payer    Payer
	address  Identity
	manager  Identity
	minStake uint64
}

// Option configures a contract at deployment.
type Option func(*deployOptions)

type deployOptions struct {
	minStake    uint64
	minStakeSet bool
	address     Identity
	nonce       uint64
	entropy     EntropySource
	payer       Payer
}

// WithMinStake sets the minimum entry value in satoshis. When reattaching,
// it must match the stored value.
func WithMinStake(sats uint64) Option {
	return func(o *deployOptions) {
		o.minStake = sats
		o.minStakeSet = true
	}
}

// WithAddress fixes the contract identity instead of deriving it from the manager.
func WithAddress(id Identity) Option {
	return func(o *deployOptions) { o.address = id }
}

// WithNonce sets the deployment nonce used to derive the contract identity.
func WithNonce(nonce uint64) Option {
	return func(o *deployOptions) { o.nonce = nonce }
}

// WithEntropy sets the entropy source used by PickWinner.
func WithEntropy(src EntropySource) Option {
	return func(o *deployOptions) { o.entropy = src }
}

// WithPayer sets the transfer primitive used by PickWinner.
func WithPayer(p Payer) Option {
	return func(o *deployOptions) { o.payer = p }
}

// Deploy creates a contract managed by manager, or reattaches to the
// contract already held by store. Reattaching requires the same manager and,
// if WithMinStake is given, the same minimum stake.
func Deploy(ctx context.Context, store Store, manager Identity, opts ...Option) (*Contract, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	}
	if manager.IsZero() {
		return nil, fmt.Errorf("%w: zero manager", ErrInvalidIdentity)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := deployOptions{minStake: DefaultMinStake}
	for _, opt := range opts {
		opt(&o)
	}
	if o.entropy == nil {
		return nil, fmt.Errorf("%w: entropy source", ErrNilParam)
	}
	if o.payer == nil {
		return nil, fmt.Errorf("%w: payer", ErrNilParam)
	}
	if o.minStake == 0 {
		return nil, fmt.Errorf("%w: minimum stake must be positive", ErrInsufficientStake)
	}
	if o.address.IsZero() {
		o.address = ContractAddress(manager, o.nonce)
	}

	c := &Contract{
		store:   store,
		entropy: o.entropy,
		payer:   o.payer,
	}
	err := store.Update(func(s *State) error {
		if s.Deployed() {
			if s.Manager != manager {
				return fmt.Errorf("%w: contract %s is managed by %s", ErrUnauthorized, s.Address, s.Manager)
			}
			return nil
		}
		s.Address = o.address
		s.Manager = manager
		s.MinStake = o.minStake
		s.Players = nil
		s.Balance = 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = store.View(func(s *State) error {
		c.address = s.Address
		c.manager = s.Manager
		c.minStake = s.MinStake
		return nil
	})
	if err != nil {
		return nil, err
	}
	if o.minStakeSet && c.minStake != o.minStake {
		return nil, fmt.Errorf("%w: contract %s has %d, requested %d", ErrMinStakeMismatch, c.address, c.minStake, o.minStake)
	}

	log.Info("contract ready", "address", c.address, "manager", c.manager, "min_stake", c.minStake)
	return c, nil
}

// Address returns the contract identity.
func (c *Contract) Address() Identity { return c.address }

// Manager returns the identity allowed to resolve rounds.
func (c *Contract) Manager() Identity { return c.manager }

// MinStake returns the minimum entry value in satoshis.
func (c *Contract) MinStake() uint64 { return c.minStake }

// Enter records one entry for call.Caller with call.Value attached.
// The same caller may enter any number of times.
func (c *Contract) Enter(ctx context.Context, call Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if call.Caller.IsZero() {
		return fmt.Errorf("%w: zero caller", ErrInvalidIdentity)
	}
	if call.Value < c.minStake {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientStake, call.Value, c.minStake)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var entries int
	err := c.store.Update(func(s *State) error {
		if !s.Deployed() {
			return ErrNotDeployed
		}
		if s.Balance > math.MaxUint64-call.Value {
			return fmt.Errorf("%w: %d + %d", ErrBalanceOverflow, s.Balance, call.Value)
		}
		s.Players = append(s.Players, call.Caller)
		s.Balance += call.Value
		entries = len(s.Players)
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug("entry accepted", "player", call.Caller, "value", call.Value, "entries", entries)
	return nil
}

// PickWinner resolves the current round. Only the manager may call it.
// The whole pool goes to one pseudo-randomly selected entry; players and
// balance are cleared in the same commit. If the payout fails the round
// stays open exactly as it was.
func (c *Contract) PickWinner(ctx context.Context, caller Identity) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var res *Resolution
	err := c.store.Update(func(s *State) error {
		if !s.Deployed() {
			return ErrNotDeployed
		}
		if caller != s.Manager {
			return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
		}
		if len(s.Players) == 0 {
			return ErrEmptyPool
		}

		seed, err := c.entropy.Entropy(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEntropyUnavailable, err)
		}
		idx, err := SelectWinner(seed, s.Address, s.Round, s.Players)
		if err != nil {
			return err
		}
		winner := s.Players[idx]

		if err := c.payer.Pay(ctx, s.Address, winner, s.Balance); err != nil {
			return fmt.Errorf("%w: %d to %s: %w", ErrPayoutFailed, s.Balance, winner, err)
		}

		res = &Resolution{
			Round:   s.Round + 1,
			Winner:  winner,
			Index:   idx,
			Entries: len(s.Players),
			Amount:  s.Balance,
			Seed:    append([]byte(nil), seed...),
		}
		s.Players = nil
		s.Balance = 0
		s.Round = res.Round
		s.Last = res
		return nil
	})
	if err != nil {
		log.Warn("round not resolved", "caller", caller, "error", err)
		return nil, err
	}

	log.Info("round resolved", "round", res.Round, "winner", res.Winner, "amount", res.Amount, "entries", res.Entries)
	return res.Clone(), nil
}

// Players returns the entries of the current round in entry order.
func (c *Contract) Players(ctx context.Context) ([]Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var players []Identity
	err := c.store.View(func(s *State) error {
		players = make([]Identity, len(s.Players))
		copy(players, s.Players)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return players, nil
}

// Balance returns the pooled value of the current round.
func (c *Contract) Balance(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var bal uint64
	err := c.store.View(func(s *State) error {
		bal = s.Balance
		return nil
	})
	return bal, err
}

// Round returns the number of resolved rounds.
func (c *Contract) Round(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var round uint64
	err := c.store.View(func(s *State) error {
		round = s.Round
		return nil
	})
	return round, err
}

// LastResolution returns the most recent resolution, or nil before the first round closes.
func (c *Contract) LastResolution(ctx context.Context) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var last *Resolution
	err := c.store.View(func(s *State) error {
		if s.Last != nil {
			last = s.Last.Clone()
		}
		return nil
	})
	return last, err
}

// Rounds returns every resolved round, oldest first.
func (c *Contract) Rounds(ctx context.Context) ([]Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.store.Rounds()
}
