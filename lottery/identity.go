package lottery

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
)

// IdentitySize is the length of an identity in bytes.
const IdentitySize = 20

// Identity is the P2PKH public key hash of an account: HASH160(compressed pubkey).
type Identity [IdentitySize]byte

// IdentityFromPublicKey derives the identity owning pub.
func IdentityFromPublicKey(pub *ec.PublicKey) (Identity, error) {
	var id Identity
	if pub == nil {
		return id, fmt.Errorf("%w: public key", ErrNilParam)
	}
	copy(id[:], bsvhash.Hash160(pub.Compressed()))
	return id, nil
}

// IdentityFromBytes copies a 20-byte public key hash into an Identity.
func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentitySize {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidIdentity, IdentitySize, len(b))
	}
	copy(id[:], b)
	if id.IsZero() {
		return id, fmt.Errorf("%w: zero hash", ErrInvalidIdentity)
	}
	return id, nil
}

// ParseIdentity decodes a Base58Check P2PKH address (mainnet or testnet)
// or a 40-character hex public key hash.
func ParseIdentity(s string) (Identity, error) {
	if len(s) == 2*IdentitySize {
		if b, err := hex.DecodeString(s); err == nil {
			return IdentityFromBytes(b)
		}
	}
	addr, err := script.NewAddressFromString(s)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %q: %w", ErrInvalidIdentity, s, err)
	}
	return IdentityFromBytes(addr.PublicKeyHash)
}

// ContractAddress derives the identity of the contract a deployer creates
// with the given deployment nonce: HASH160(deployer || nonce).
func ContractAddress(deployer Identity, nonce uint64) Identity {
	buf := make([]byte, IdentitySize+8)
	copy(buf, deployer[:])
	binary.BigEndian.PutUint64(buf[IdentitySize:], nonce)
	var id Identity
	copy(id[:], bsvhash.Hash160(buf))
	return id
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// Hex returns the hex encoding of the public key hash.
func (id Identity) Hex() string {
	return hex.EncodeToString(id[:])
}

// Address renders the identity as a Base58Check P2PKH address.
func (id Identity) Address(mainnet bool) string {
	addr, err := script.NewAddressFromPublicKeyHash(id[:], mainnet)
	if err != nil {
		return id.Hex()
	}
	return addr.AddressString
}

// String returns the mainnet address form.
func (id Identity) String() string {
	return id.Address(true)
}
