package host

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	logger "github.com/ElrondNetwork/elrond-go-logger"
	"golang.org/x/crypto/sha3"

	"github.com/bitfsorg/lottery-go/lottery"
)

var log = logger.GetOrCreate("lottery/host")

// DefaultCallFee is the flat execution fee charged per mutating call, in satoshis.
const DefaultCallFee uint64 = 500

// Runtime is an in-process host for one lottery contract. It attributes
// callers, moves attached value atomically with each call, charges a flat
// call fee, supplies block entropy and performs payouts. Calls are executed
// one at a time and each one mines a block.
type Runtime struct {
	mu       sync.Mutex
	accounts Accounts
	callFee  uint64
	clock    func() time.Time
	height   atomic.Uint64
	contract *lottery.Contract
	address  atomic.Pointer[lottery.Identity]

	rmu       sync.RWMutex
	rejecting map[lottery.Identity]bool
}

// Compile-time interface checks.
var (
	_ lottery.EntropySource = (*Runtime)(nil)
	_ lottery.Payer         = (*Runtime)(nil)
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithAccounts sets the account store. The default is in-memory.
func WithAccounts(a Accounts) Option {
	return func(r *Runtime) { r.accounts = a }
}

// WithCallFee sets the per-call execution fee in satoshis.
func WithCallFee(fee uint64) Option {
	return func(r *Runtime) { r.callFee = fee }
}

// WithClock sets the time source mixed into block entropy.
func WithClock(clock func() time.Time) Option {
	return func(r *Runtime) { r.clock = clock }
}

// New creates a runtime with no deployed contract.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		accounts:  NewMemAccounts(),
		callFee:   DefaultCallFee,
		clock:     time.Now,
		rejecting: make(map[lottery.Identity]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Height returns the number of blocks mined so far.
func (r *Runtime) Height() uint64 { return r.height.Load() }

// CallFee returns the per-call execution fee.
func (r *Runtime) CallFee() uint64 { return r.callFee }

// Contract returns the deployed contract, or nil.
func (r *Runtime) Contract() *lottery.Contract {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contract
}

// Fund credits amount to id out of thin air.
func (r *Runtime) Fund(id lottery.Identity, amount uint64) error {
	if id.IsZero() {
		return fmt.Errorf("%w: zero account", lottery.ErrInvalidIdentity)
	}
	return r.accounts.Apply(Update{Account: id, Credit: amount})
}

// Balance returns the balance of id.
func (r *Runtime) Balance(id lottery.Identity) (uint64, error) {
	return r.accounts.Balance(id)
}

// Accounts returns every funded account.
func (r *Runtime) Accounts() ([]Balance, error) {
	return r.accounts.List()
}

// Reject makes id refuse (or accept again) incoming payouts.
func (r *Runtime) Reject(id lottery.Identity, reject bool) {
	r.rmu.Lock()
	defer r.rmu.Unlock()
	if reject {
		r.rejecting[id] = true
		return
	}
	delete(r.rejecting, id)
}

func (r *Runtime) rejects(id lottery.Identity) bool {
	r.rmu.RLock()
	defer r.rmu.RUnlock()
	return r.rejecting[id]
}

// mine advances the chain by one block.
func (r *Runtime) mine() {
	h := r.height.Add(1)
	log.Trace("block mined", "height", h)
}

// chargeFee burns the call fee from the caller.
func (r *Runtime) chargeFee(from lottery.Identity) error {
	if r.callFee == 0 {
		return nil
	}
	return r.accounts.Apply(Update{Account: from, Debit: r.callFee})
}

// Deploy deploys the lottery with deployer as manager on store. If store
// already holds a contract it is reattached instead.
func (r *Runtime) Deploy(ctx context.Context, deployer lottery.Identity, store lottery.Store, opts ...lottery.Option) (*lottery.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.contract != nil {
		return nil, ErrAlreadyDeployed
	}
	if err := r.chargeFee(deployer); err != nil {
		return nil, err
	}
	defer r.mine()

	return r.bind(ctx, deployer, store, opts)
}

// Attach binds the runtime to the contract store already holds. No fee is
// charged and no block is mined.
func (r *Runtime) Attach(ctx context.Context, store lottery.Store, opts ...lottery.Option) (*lottery.Contract, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	}
	var manager lottery.Identity
	err := store.View(func(s *lottery.State) error {
		if !s.Deployed() {
			return ErrNotDeployed
		}
		manager = s.Manager
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.contract != nil {
		return nil, ErrAlreadyDeployed
	}
	return r.bind(ctx, manager, store, opts)
}

func (r *Runtime) bind(ctx context.Context, manager lottery.Identity, store lottery.Store, opts []lottery.Option) (*lottery.Contract, error) {
	opts = append([]lottery.Option{lottery.WithNonce(r.height.Load())}, opts...)
	opts = append(opts, lottery.WithEntropy(r), lottery.WithPayer(r))
	c, err := lottery.Deploy(ctx, store, manager, opts...)
	if err != nil {
		return nil, err
	}
	r.contract = c
	addr := c.Address()
	r.address.Store(&addr)
	return c, nil
}

func (r *Runtime) deployed() (*lottery.Contract, error) {
	if r.contract == nil {
		return nil, ErrNotDeployed
	}
	return r.contract, nil
}

// Enter calls the contract's Enter on behalf of from with value attached.
// The value leaves the caller's account only if the entry is accepted; the
// call fee is charged either way.
func (r *Runtime) Enter(ctx context.Context, from lottery.Identity, value uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.deployed()
	if err != nil {
		return err
	}
	if value > math.MaxUint64-r.callFee {
		return fmt.Errorf("%w: value %d", ErrInsufficientFunds, value)
	}

	err = r.accounts.Apply(
		Update{Account: from, Debit: value + r.callFee},
		Update{Account: c.Address(), Credit: value},
	)
	if err != nil {
		return err
	}
	defer r.mine()

	if err := c.Enter(ctx, lottery.Call{Caller: from, Value: value}); err != nil {
		refund := r.accounts.Apply(
			Update{Account: c.Address(), Debit: value},
			Update{Account: from, Credit: value},
		)
		if refund != nil {
			log.Error("refund of rejected entry failed", "player", from, "value", value, "error", refund)
			return fmt.Errorf("%w (refund failed: %v)", err, refund)
		}
		return err
	}
	return nil
}

// PickWinner calls the contract's PickWinner on behalf of from.
func (r *Runtime) PickWinner(ctx context.Context, from lottery.Identity) (*lottery.Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.deployed()
	if err != nil {
		return nil, err
	}
	if err := r.chargeFee(from); err != nil {
		return nil, err
	}
	defer r.mine()

	return c.PickWinner(ctx, from)
}

// Players returns the current entries. Reads are free.
func (r *Runtime) Players(ctx context.Context) ([]lottery.Identity, error) {
	r.mu.Lock()
	c, err := r.deployed()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Players(ctx)
}

// Entropy returns Keccak-256(height || timestamp || contract), the block
// entropy of the block being mined.
func (r *Runtime) Entropy(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], r.height.Load()+1)
	binary.BigEndian.PutUint64(buf[8:], uint64(r.clock().UnixNano()))

	h := sha3.NewLegacyKeccak256()
	h.Write(buf[:])
	if addr := r.address.Load(); addr != nil {
		h.Write(addr[:])
	}
	return h.Sum(nil), nil
}

// Pay transfers amount from the contract account to the recipient unless
// the recipient rejects funds.
func (r *Runtime) Pay(ctx context.Context, from, to lottery.Identity, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.rejects(to) {
		return fmt.Errorf("%w: %s", ErrRecipientRejected, to)
	}
	if err := r.accounts.Apply(
		Update{Account: from, Debit: amount},
		Update{Account: to, Credit: amount},
	); err != nil {
		return err
	}
	log.Debug("payout", "from", from, "to", to, "amount", amount)
	return nil
}
