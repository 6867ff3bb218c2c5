package network

import "context"

// MockBlockchainService is a test double for BlockchainService.
// Each method calls the matching function field, which must be set.
type MockBlockchainService struct {
	ListUnspentFn        func(ctx context.Context, address string) ([]*UTXO, error)
	BroadcastTxFn        func(ctx context.Context, rawTxHex string) (string, error)
	GetBestBlockHeightFn func(ctx context.Context) (uint64, error)
	GetBlockHashFn       func(ctx context.Context, height uint64) (string, error)
	GetBlockHeaderFn     func(ctx context.Context, blockHash string) ([]byte, error)
}

// Compile-time interface check.
var _ BlockchainService = (*MockBlockchainService)(nil)

func (m *MockBlockchainService) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	return m.ListUnspentFn(ctx, address)
}
func (m *MockBlockchainService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}
func (m *MockBlockchainService) GetBestBlockHeight(ctx context.Context) (uint64, error) {
	return m.GetBestBlockHeightFn(ctx)
}
func (m *MockBlockchainService) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	return m.GetBlockHashFn(ctx, height)
}
func (m *MockBlockchainService) GetBlockHeader(ctx context.Context, blockHash string) ([]byte, error) {
	return m.GetBlockHeaderFn(ctx, blockHash)
}
