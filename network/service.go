package network

import "context"

// BlockchainService is the node access the lottery's chain adapters need:
// the pool's spendable outputs, transaction broadcast, and the chain tip
// headers used as draw entropy.
type BlockchainService interface {
	// ListUnspent returns all unspent transaction outputs for the given address.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// BroadcastTx submits a raw transaction hex to the network and returns the txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// GetBestBlockHeight returns the height of the current chain tip.
	GetBestBlockHeight(ctx context.Context) (uint64, error)

	// GetBlockHash returns the hex hash of the block at height.
	GetBlockHash(ctx context.Context, height uint64) (string, error)

	// GetBlockHeader returns the raw 80-byte block header for the given block hash.
	GetBlockHeader(ctx context.Context, blockHash string) ([]byte, error)
}

// UTXO represents an unspent transaction output.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"`
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}
