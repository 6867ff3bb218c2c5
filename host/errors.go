package host

import "errors"

var (
	// ErrInsufficientFunds indicates an account cannot cover the value and call fee.
	ErrInsufficientFunds = errors.New("host: insufficient funds")

	// ErrRecipientRejected indicates the recipient refused an incoming transfer.
	ErrRecipientRejected = errors.New("host: recipient rejected funds")

	// ErrNotDeployed indicates no contract has been deployed on the runtime.
	ErrNotDeployed = errors.New("host: no contract deployed")

	// ErrAlreadyDeployed indicates the runtime already hosts a contract.
	ErrAlreadyDeployed = errors.New("host: contract already deployed")

	// ErrBalanceOverflow indicates a credit would overflow an account balance.
	ErrBalanceOverflow = errors.New("host: account balance overflow")

	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("host: invalid BIP39 mnemonic")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("host: key derivation failed")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("host: required parameter is nil")
)
