package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	"github.com/bitfsorg/lottery-go/lottery"
	"github.com/bitfsorg/lottery-go/network"
)

const (
	// DustLimit is the smallest output the payer will create.
	DustLimit = uint64(546)

	// DefaultFeeRate is the fee rate in satoshis per kilobyte.
	DefaultFeeRate = uint64(50)
)

// EstimateFee returns ceil(txSizeBytes * feeRate / 1000).
func EstimateFee(txSizeBytes int, feeRate uint64) uint64 {
	if feeRate == 0 {
		feeRate = DefaultFeeRate
	}
	return (uint64(txSizeBytes)*feeRate + 999) / 1000
}

// EstimateTxSize estimates the size of a transaction spending numInputs
// P2PKH inputs into numOutputs P2PKH outputs.
func EstimateTxSize(numInputs, numOutputs int) int {
	// version + locktime + two count varints; 148 per signed input; 34 per output.
	return 10 + numInputs*148 + numOutputs*34
}

// Payer pays lottery pools out of a P2PKH key on chain. The pool's
// identity is the HASH160 of the key, so a contract paying through it must
// be deployed with that identity as its address.
type Payer struct {
	svc     network.BlockchainService
	key     *ec.PrivateKey
	pool    lottery.Identity
	feeRate uint64
	mainnet bool

	mu     sync.Mutex
	lastTx string
}

// Compile-time interface check.
var _ lottery.Payer = (*Payer)(nil)

// NewPayer returns a payer spending the outputs locked to key. feeRate is in
// satoshis per kilobyte; zero selects DefaultFeeRate.
func NewPayer(svc network.BlockchainService, key *ec.PrivateKey, feeRate uint64, mainnet bool) (*Payer, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: blockchain service", ErrNilParam)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: private key", ErrNilParam)
	}
	pool, err := lottery.IdentityFromPublicKey(key.PubKey())
	if err != nil {
		return nil, err
	}
	if feeRate == 0 {
		feeRate = DefaultFeeRate
	}
	return &Payer{svc: svc, key: key, pool: pool, feeRate: feeRate, mainnet: mainnet}, nil
}

// Pool returns the identity whose outputs this payer spends.
func (p *Payer) Pool() lottery.Identity { return p.pool }

// LastTxID returns the txid of the most recent broadcast payout.
func (p *Payer) LastTxID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTx
}

// Pay sends amount less the network fee to the winner. All pool outputs are
// spent; whatever exceeds amount returns to the pool as change. Nothing is
// broadcast unless the transaction was fully built and signed.
func (p *Payer) Pay(ctx context.Context, from, to lottery.Identity, amount uint64) error {
	if from != p.pool {
		return fmt.Errorf("%w: %s", ErrWrongPool, from)
	}
	if to.IsZero() {
		return fmt.Errorf("%w: zero recipient", lottery.ErrInvalidIdentity)
	}

	utxos, err := p.svc.ListUnspent(ctx, p.pool.Address(p.mainnet))
	if err != nil {
		return fmt.Errorf("chain: list pool outputs: %w", err)
	}
	rawTx, err := p.buildPayout(utxos, to, amount)
	if err != nil {
		return err
	}

	txid, err := p.svc.BroadcastTx(ctx, rawTx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.lastTx = txid
	p.mu.Unlock()
	log.Info("payout broadcast", "txid", txid, "winner", to, "amount", amount)
	return nil
}

func (p *Payer) buildPayout(utxos []*network.UTXO, to lottery.Identity, amount uint64) (string, error) {
	if len(utxos) == 0 {
		return "", fmt.Errorf("%w: pool has no outputs", ErrInsufficientFunds)
	}
	// Deterministic input order.
	utxos = slices.Clone(utxos)
	slices.SortFunc(utxos, func(a, b *network.UTXO) int {
		if a.TxID != b.TxID {
			if a.TxID < b.TxID {
				return -1
			}
			return 1
		}
		return int(a.Vout) - int(b.Vout)
	})

	var total uint64
	for _, u := range utxos {
		total += u.Amount
	}
	if total < amount {
		return "", fmt.Errorf("%w: need %d sat, have %d sat", ErrInsufficientFunds, amount, total)
	}

	change := total - amount
	numOutputs := 1
	if change > DustLimit {
		numOutputs = 2
	}
	fee := EstimateFee(EstimateTxSize(len(utxos), numOutputs), p.feeRate)
	if numOutputs == 1 {
		// Dust change is left to the miner instead of the winner's share.
		fee -= min(fee, change)
	}
	if amount <= fee || amount-fee < DustLimit {
		return "", fmt.Errorf("%w: %d sat after %d sat fee", ErrBelowDust, amount-min(amount, fee), fee)
	}

	sdkTx := transaction.NewTransaction()
	unlocker, err := p2pkh.Unlock(p.key, nil)
	if err != nil {
		return "", fmt.Errorf("%w: unlocker: %w", ErrSigningFailed, err)
	}
	for i, u := range utxos {
		txid, err := decodeTxID(u.TxID)
		if err != nil {
			return "", fmt.Errorf("%w: utxo[%d]: %w", ErrScriptBuild, i, err)
		}
		lockBytes, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil {
			return "", fmt.Errorf("%w: utxo[%d] script: %w", ErrScriptBuild, i, err)
		}
		sdkTx.AddInput(&transaction.TransactionInput{
			SourceTXID:              txid,
			SourceTxOutIndex:        u.Vout,
			SequenceNumber:          transaction.DefaultSequenceNumber,
			UnlockingScriptTemplate: unlocker,
		})
		sdkTx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      u.Amount,
			LockingScript: script.NewFromBytes(lockBytes),
		})
	}

	winnerOut, err := p2pkhOutput(to, amount-fee, p.mainnet)
	if err != nil {
		return "", err
	}
	sdkTx.Outputs = append(sdkTx.Outputs, winnerOut)
	if numOutputs == 2 {
		changeOut, err := p2pkhOutput(p.pool, change, p.mainnet)
		if err != nil {
			return "", err
		}
		sdkTx.Outputs = append(sdkTx.Outputs, changeOut)
	}

	if err := sdkTx.Sign(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return sdkTx.Hex(), nil
}

func p2pkhOutput(id lottery.Identity, satoshis uint64, mainnet bool) (*transaction.TransactionOutput, error) {
	addr, err := script.NewAddressFromPublicKeyHash(id[:], mainnet)
	if err != nil {
		return nil, fmt.Errorf("%w: address from hash: %w", ErrScriptBuild, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrScriptBuild, err)
	}
	return &transaction.TransactionOutput{Satoshis: satoshis, LockingScript: lockScript}, nil
}

// decodeTxID parses a txid in the node's display (byte-reversed) order.
func decodeTxID(s string) (*chainhash.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != chainhash.HashSize {
		return nil, fmt.Errorf("txid is %d bytes", len(b))
	}
	slices.Reverse(b)
	return chainhash.NewHash(b)
}
