package lottery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeIdentity(seed byte) Identity {
	var id Identity
	for i := range id {
		id[i] = seed
	}
	return id
}

type payment struct {
	from, to Identity
	amount   uint64
}

// recordingPayer records every payout and fails when err is set.
type recordingPayer struct {
	payments []payment
	err      error
}

func (p *recordingPayer) Pay(_ context.Context, from, to Identity, amount uint64) error {
	if p.err != nil {
		return p.err
	}
	p.payments = append(p.payments, payment{from, to, amount})
	return nil
}

func fixedEntropy(seed string) EntropySource {
	return EntropyFunc(func(context.Context) ([]byte, error) {
		return []byte(seed), nil
	})
}

var (
	manager = makeIdentity(0x01)
	alice   = makeIdentity(0xA1)
	bob     = makeIdentity(0xB2)
	carol   = makeIdentity(0xC3)
)

func deployTest(t *testing.T, store Store, payer Payer) *Contract {
	t.Helper()
	c, err := Deploy(context.Background(), store, manager,
		WithEntropy(fixedEntropy("block-entropy")), WithPayer(payer))
	require.NoError(t, err)
	return c
}

func TestDeploy_InitialState(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})

	assert.Equal(t, manager, c.Manager())
	assert.Equal(t, ContractAddress(manager, 0), c.Address())
	assert.Equal(t, DefaultMinStake, c.MinStake())

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Empty(t, players)

	bal, err := c.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestDeploy_MissingCollaborators(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		opts []Option
	}{
		{"no entropy", []Option{WithPayer(&recordingPayer{})}},
		{"no payer", []Option{WithEntropy(fixedEntropy("x"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deploy(ctx, NewMemStore(), manager, tt.opts...)
			assert.ErrorIs(t, err, ErrNilParam)
		})
	}

	_, err := Deploy(ctx, nil, manager)
	assert.ErrorIs(t, err, ErrNilParam)

	_, err = Deploy(ctx, NewMemStore(), Identity{}, WithEntropy(fixedEntropy("x")), WithPayer(&recordingPayer{}))
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestDeploy_ReattachRequiresSameManager(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	first := deployTest(t, store, &recordingPayer{})
	require.NoError(t, first.Enter(ctx, Call{Caller: alice, Value: DefaultMinStake}))

	again, err := Deploy(ctx, store, manager, WithEntropy(fixedEntropy("x")), WithPayer(&recordingPayer{}))
	require.NoError(t, err)
	assert.Equal(t, first.Address(), again.Address())
	players, err := again.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Identity{alice}, players)

	_, err = Deploy(ctx, store, bob, WithEntropy(fixedEntropy("x")), WithPayer(&recordingPayer{}))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDeploy_ReattachMinStake(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	opts := []Option{WithEntropy(fixedEntropy("x")), WithPayer(&recordingPayer{})}
	_, err := Deploy(ctx, store, manager, append(opts, WithMinStake(2*DefaultMinStake))...)
	require.NoError(t, err)

	// Without the option the stored value is kept.
	again, err := Deploy(ctx, store, manager, opts...)
	require.NoError(t, err)
	assert.Equal(t, 2*DefaultMinStake, again.MinStake())

	again, err = Deploy(ctx, store, manager, append(opts, WithMinStake(2*DefaultMinStake))...)
	require.NoError(t, err)
	assert.Equal(t, 2*DefaultMinStake, again.MinStake())

	_, err = Deploy(ctx, store, manager, append(opts, WithMinStake(DefaultMinStake))...)
	assert.ErrorIs(t, err, ErrMinStakeMismatch)
}

func TestEnter_OneAccount(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})

	stake, err := ParseAmount("0.02")
	require.NoError(t, err)
	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: stake}))

	players, err := c.Players(ctx)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, alice, players[0])
}

func TestEnter_MultipleAccountsKeepOrder(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})

	stake, err := ParseAmount("0.02")
	require.NoError(t, err)
	for _, id := range []Identity{alice, bob, carol} {
		require.NoError(t, c.Enter(ctx, Call{Caller: id, Value: stake}))
	}

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Identity{alice, bob, carol}, players)

	bal, err := c.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3*stake, bal)
}

func TestEnter_DuplicatesAllowed(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})

	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: DefaultMinStake}))
	require.NoError(t, c.Enter(ctx, Call{Caller: bob, Value: DefaultMinStake}))
	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: 2 * DefaultMinStake}))

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Identity{alice, bob, alice}, players)

	bal, err := c.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4*DefaultMinStake, bal)
}

func TestEnter_BelowMinimum(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})
	require.NoError(t, c.Enter(ctx, Call{Caller: bob, Value: DefaultMinStake}))

	for _, value := range []uint64{0, 1, DefaultMinStake - 1} {
		err := c.Enter(ctx, Call{Caller: alice, Value: value})
		assert.ErrorIs(t, err, ErrInsufficientStake, "value %d", value)
	}

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Identity{bob}, players)
	bal, err := c.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinStake, bal)
}

func TestEnter_ExactMinimumAccepted(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})
	assert.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: DefaultMinStake}))
}

func TestEnter_ZeroCaller(t *testing.T) {
	c := deployTest(t, NewMemStore(), &recordingPayer{})
	err := c.Enter(context.Background(), Call{Value: DefaultMinStake})
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestEnter_BalanceOverflow(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})
	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: ^uint64(0) - 10}))

	err := c.Enter(ctx, Call{Caller: bob, Value: DefaultMinStake})
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Identity{alice}, players)
}

func TestEnter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := deployTest(t, NewMemStore(), &recordingPayer{})
	cancel()
	assert.ErrorIs(t, c.Enter(ctx, Call{Caller: alice, Value: DefaultMinStake}), context.Canceled)
}

func TestPickWinner_OnlyManager(t *testing.T) {
	ctx := context.Background()
	payer := &recordingPayer{}
	c := deployTest(t, NewMemStore(), payer)
	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: DefaultMinStake}))

	_, err := c.PickWinner(ctx, bob)
	assert.ErrorIs(t, err, ErrUnauthorized)

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Identity{alice}, players)
	bal, err := c.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinStake, bal)
	assert.Empty(t, payer.payments)
}

func TestPickWinner_UnauthorizedBeforeEmptyPool(t *testing.T) {
	c := deployTest(t, NewMemStore(), &recordingPayer{})
	_, err := c.PickWinner(context.Background(), alice)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPickWinner_EmptyPool(t *testing.T) {
	payer := &recordingPayer{}
	c := deployTest(t, NewMemStore(), payer)
	_, err := c.PickWinner(context.Background(), manager)
	assert.ErrorIs(t, err, ErrEmptyPool)
	assert.Empty(t, payer.payments)
}

func TestPickWinner_PaysWholePoolAndResets(t *testing.T) {
	ctx := context.Background()
	payer := &recordingPayer{}
	c := deployTest(t, NewMemStore(), payer)

	one, err := ParseAmount("1")
	require.NoError(t, err)
	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: one}))

	res, err := c.PickWinner(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, alice, res.Winner)
	assert.Equal(t, one, res.Amount)
	assert.Equal(t, uint64(1), res.Round)

	require.Len(t, payer.payments, 1)
	assert.Equal(t, payment{c.Address(), alice, one}, payer.payments[0])

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Empty(t, players)
	bal, err := c.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestPickWinner_WinnerFromPreResetPlayers(t *testing.T) {
	ctx := context.Background()
	for n := 1; n <= 8; n++ {
		payer := &recordingPayer{}
		c := deployTest(t, NewMemStore(), payer)
		var entered []Identity
		for i := 0; i < n; i++ {
			id := makeIdentity(byte(0x10 + i))
			entered = append(entered, id)
			require.NoError(t, c.Enter(ctx, Call{Caller: id, Value: DefaultMinStake}))
		}

		res, err := c.PickWinner(ctx, manager)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Index, 0)
		require.Less(t, res.Index, n)
		assert.Equal(t, entered[res.Index], res.Winner)
		assert.Equal(t, n, res.Entries)
		assert.Equal(t, uint64(n)*DefaultMinStake, payer.payments[0].amount)
	}
}

func TestPickWinner_PayoutFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	payer := &recordingPayer{err: errors.New("recipient rejected funds")}
	c := deployTest(t, NewMemStore(), payer)
	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: DefaultMinStake}))
	require.NoError(t, c.Enter(ctx, Call{Caller: bob, Value: DefaultMinStake}))

	_, err := c.PickWinner(ctx, manager)
	require.ErrorIs(t, err, ErrPayoutFailed)
	assert.Contains(t, err.Error(), "recipient rejected funds")

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Identity{alice, bob}, players)
	bal, err := c.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2*DefaultMinStake, bal)
	round, err := c.Round(ctx)
	require.NoError(t, err)
	assert.Zero(t, round)

	// Once the payer recovers the same round resolves normally.
	payer.err = nil
	res, err := c.PickWinner(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, 2*DefaultMinStake, res.Amount)
}

func TestPickWinner_EntropyFailure(t *testing.T) {
	ctx := context.Background()
	c, err := Deploy(ctx, NewMemStore(), manager,
		WithEntropy(EntropyFunc(func(context.Context) ([]byte, error) {
			return nil, errors.New("no block")
		})),
		WithPayer(&recordingPayer{}))
	require.NoError(t, err)
	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: DefaultMinStake}))

	_, err = c.PickWinner(ctx, manager)
	assert.ErrorIs(t, err, ErrEntropyUnavailable)

	players, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestRounds_History(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})

	for round := 1; round <= 3; round++ {
		for i := 0; i < round; i++ {
			require.NoError(t, c.Enter(ctx, Call{Caller: makeIdentity(byte(i + 1)), Value: DefaultMinStake}))
		}
		_, err := c.PickWinner(ctx, manager)
		require.NoError(t, err)
	}

	rounds, err := c.Rounds(ctx)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	for i, r := range rounds {
		assert.Equal(t, uint64(i+1), r.Round)
		assert.Equal(t, i+1, r.Entries)
		assert.Equal(t, uint64(i+1)*DefaultMinStake, r.Amount)
	}

	last, err := c.LastResolution(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, uint64(3), last.Round)
}

func TestPlayers_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})
	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: DefaultMinStake}))

	players, err := c.Players(ctx)
	require.NoError(t, err)
	players[0] = bob

	again, err := c.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Identity{alice}, again)
}

func TestResolutionAccessors_ReturnCopies(t *testing.T) {
	ctx := context.Background()
	c := deployTest(t, NewMemStore(), &recordingPayer{})
	require.NoError(t, c.Enter(ctx, Call{Caller: alice, Value: DefaultMinStake}))

	res, err := c.PickWinner(ctx, manager)
	require.NoError(t, err)
	res.Seed[0] ^= 0xff

	last, err := c.LastResolution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("block-entropy"), last.Seed)
	last.Seed[0] ^= 0xff

	rounds, err := c.Rounds(ctx)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	rounds[0].Seed[1] ^= 0xff

	last, err = c.LastResolution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("block-entropy"), last.Seed)
	rounds, err = c.Rounds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("block-entropy"), rounds[0].Seed)
}

func TestMemStore_RoundsReturnsCopy(t *testing.T) {
	store := NewMemStore()
	c := deployTest(t, store, &recordingPayer{})
	require.NoError(t, c.Enter(context.Background(), Call{Caller: bob, Value: DefaultMinStake}))
	_, err := c.PickWinner(context.Background(), manager)
	require.NoError(t, err)

	rounds, err := store.Rounds()
	require.NoError(t, err)
	rounds[0].Seed[0] = 'X'
	rounds[0].Winner = carol

	again, err := store.Rounds()
	require.NoError(t, err)
	assert.Equal(t, bob, again[0].Winner)
	assert.Equal(t, []byte("block-entropy"), again[0].Seed)
}
