package chain

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	logger "github.com/ElrondNetwork/elrond-go-logger"

	"github.com/bitfsorg/lottery-go/lottery"
	"github.com/bitfsorg/lottery-go/network"
)

var log = logger.GetOrCreate("lottery/chain")

// HeaderEntropy draws selection seeds from the chain tip. A seed is the raw
// 80-byte tip header followed by the tip height and the local time, both
// big-endian.
type HeaderEntropy struct {
	svc   network.BlockchainService
	clock func() time.Time
}

// Compile-time interface check.
var _ lottery.EntropySource = (*HeaderEntropy)(nil)

// NewHeaderEntropy returns an entropy source reading headers through svc.
// A nil clock means time.Now.
func NewHeaderEntropy(svc network.BlockchainService, clock func() time.Time) (*HeaderEntropy, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: blockchain service", ErrNilParam)
	}
	if clock == nil {
		clock = time.Now
	}
	return &HeaderEntropy{svc: svc, clock: clock}, nil
}

// Entropy fetches the tip header and checks that it hashes to the block
// hash the node reported for the tip height.
func (h *HeaderEntropy) Entropy(ctx context.Context) ([]byte, error) {
	height, err := h.svc.GetBestBlockHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: tip height: %w", err)
	}
	blockHash, err := h.svc.GetBlockHash(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("chain: block hash at %d: %w", height, err)
	}
	header, err := h.svc.GetBlockHeader(ctx, blockHash)
	if err != nil {
		return nil, fmt.Errorf("chain: header %s: %w", blockHash, err)
	}
	if got := chainhash.DoubleHashH(header); got.String() != blockHash {
		return nil, fmt.Errorf("%w: %s != %s", ErrHeaderMismatch, got.String(), blockHash)
	}

	seed := make([]byte, 0, len(header)+16)
	seed = append(seed, header...)
	seed = binary.BigEndian.AppendUint64(seed, height)
	seed = binary.BigEndian.AppendUint64(seed, uint64(h.clock().UnixNano()))

	log.Debug("entropy drawn", "height", height, "block", blockHash)
	return seed, nil
}
