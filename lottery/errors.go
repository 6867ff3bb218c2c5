package lottery

import "errors"

var (
	// ErrInsufficientStake indicates the attached value is below the minimum stake.
	ErrInsufficientStake = errors.New("lottery: insufficient stake")

	// ErrUnauthorized indicates the caller is not the contract manager.
	ErrUnauthorized = errors.New("lottery: caller is not the manager")

	// ErrPayoutFailed indicates the transfer of the pool to the winner was rejected.
	ErrPayoutFailed = errors.New("lottery: payout failed")

	// ErrEmptyPool indicates a round cannot be resolved because nobody entered.
	ErrEmptyPool = errors.New("lottery: no players in the pool")

	// ErrInvalidIdentity indicates an identity is zero or cannot be parsed.
	ErrInvalidIdentity = errors.New("lottery: invalid identity")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("lottery: required parameter is nil")

	// ErrBalanceOverflow indicates an entry would overflow the pooled balance.
	ErrBalanceOverflow = errors.New("lottery: pool balance overflow")

	// ErrEntropyUnavailable indicates the entropy source could not supply a seed.
	ErrEntropyUnavailable = errors.New("lottery: entropy unavailable")

	// ErrInvalidState indicates stored contract state is malformed.
	ErrInvalidState = errors.New("lottery: invalid contract state")

	// ErrNotDeployed indicates the store holds no deployed contract.
	ErrNotDeployed = errors.New("lottery: contract not deployed")

	// ErrMinStakeMismatch indicates a reattach requested a minimum stake other than the stored one.
	ErrMinStakeMismatch = errors.New("lottery: minimum stake differs from deployed contract")

	// ErrInvalidAmount indicates a decimal coin amount cannot be parsed.
	ErrInvalidAmount = errors.New("lottery: invalid amount")
)
