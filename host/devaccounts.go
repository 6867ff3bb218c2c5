package host

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	bip39 "github.com/bsv-blockchain/go-sdk/compat/bip39"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bitfsorg/lottery-go/lottery"
)

const (
	// DevMnemonic is the well-known development mnemonic. Never fund it on a real network.
	DevMnemonic = "test test test test test test test test test test test junk"

	hardened = 0x80000000

	purposeBIP44 = 44
	coinType     = 236
)

// DevAccount is a deterministic development account.
type DevAccount struct {
	Identity   lottery.Identity
	PrivateKey *ec.PrivateKey
	Path       string
}

// GenerateMnemonic creates a new 12-word BIP39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", fmt.Errorf("host: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("host: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// DevAccounts derives n accounts at m/44'/236'/0'/0/i from mnemonic.
func DevAccounts(mnemonic string, n int) ([]DevAccount, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMnemonic, err)
	}
	master, err := bip32.NewMaster(seed, &chaincfg.MainNet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	chain := master
	for _, idx := range []uint32{purposeBIP44 + hardened, coinType + hardened, hardened, 0} {
		if chain, err = chain.Child(idx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
		}
	}

	accounts := make([]DevAccount, n)
	for i := 0; i < n; i++ {
		child, err := chain.Child(uint32(i))
		if err != nil {
			return nil, fmt.Errorf("%w: index %d: %w", ErrDerivationFailed, i, err)
		}
		priv, err := child.ECPrivKey()
		if err != nil {
			return nil, fmt.Errorf("%w: index %d: %w", ErrDerivationFailed, i, err)
		}
		id, err := lottery.IdentityFromPublicKey(priv.PubKey())
		if err != nil {
			return nil, err
		}
		accounts[i] = DevAccount{
			Identity:   id,
			PrivateKey: priv,
			Path:       fmt.Sprintf("m/44'/236'/0'/0/%d", i),
		}
	}
	return accounts, nil
}
