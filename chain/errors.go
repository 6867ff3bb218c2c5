package chain

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("chain: required parameter is nil")

	// ErrInsufficientFunds indicates the pool outputs cannot cover the payout.
	ErrInsufficientFunds = errors.New("chain: insufficient funds")

	// ErrBelowDust indicates the payout after fees would be an unspendable dust output.
	ErrBelowDust = errors.New("chain: payout below dust limit")

	// ErrWrongPool indicates a payout was requested from an identity this payer does not hold keys for.
	ErrWrongPool = errors.New("chain: payer does not control source identity")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("chain: script build failed")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("chain: signing failed")

	// ErrHeaderMismatch indicates a node returned a header that does not hash to the requested block.
	ErrHeaderMismatch = errors.New("chain: block header does not match hash")
)
