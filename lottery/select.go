package lottery

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// SelectionDigest hashes the selection inputs with Keccak-256:
// seed || contract || round (8 bytes, big-endian) || players...
func SelectionDigest(seed []byte, contract Identity, round uint64, players []Identity) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(seed)
	h.Write(contract[:])
	var rb [8]byte
	binary.BigEndian.PutUint64(rb[:], round)
	h.Write(rb[:])
	for _, p := range players {
		h.Write(p[:])
	}
	return h.Sum(nil)
}

// SelectWinner picks an index in [0, len(players)) from the selection digest.
// The result depends only on its inputs, so anyone holding the seed can
// recompute a past draw.
func SelectWinner(seed []byte, contract Identity, round uint64, players []Identity) (int, error) {
	if len(players) == 0 {
		return 0, ErrEmptyPool
	}
	if len(seed) == 0 {
		return 0, fmt.Errorf("%w: empty seed", ErrEntropyUnavailable)
	}
	digest := SelectionDigest(seed, contract, round, players)
	r := binary.LittleEndian.Uint64(digest[:8])
	return int(r % uint64(len(players))), nil
}
