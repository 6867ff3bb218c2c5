package host

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitfsorg/lottery-go/lottery"
	"go.etcd.io/bbolt"
)

var bucketAccounts = []byte("accounts")

// BoltAccounts persists account balances in a bbolt database.
// It must not share a database file with a lottery.BoltStore: payouts run
// inside the contract's write transaction and bbolt allows one writer.
type BoltAccounts struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Accounts = (*BoltAccounts)(nil)

// OpenBoltAccounts opens or creates the account database at dbPath.
func OpenBoltAccounts(dbPath string) (*BoltAccounts, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("host: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("host: open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAccounts)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("host: create accounts bucket: %w", err)
	}
	return &BoltAccounts{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltAccounts) Close() error { return s.db.Close() }

func decodeBalance(v []byte) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("host: corrupt balance record (%d bytes)", len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

// Balance returns the stored balance of id.
func (s *BoltAccounts) Balance(id lottery.Identity) (uint64, error) {
	var bal uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		bal, err = decodeBalance(tx.Bucket(bucketAccounts).Get(id[:]))
		return err
	})
	return bal, err
}

// Apply applies updates in a single write transaction.
func (s *BoltAccounts) Apply(updates ...Update) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAccounts)
		next, err := applyTo(func(id lottery.Identity) (uint64, error) {
			return decodeBalance(b.Get(id[:]))
		}, updates)
		if err != nil {
			return err
		}
		for id, bal := range next {
			key := id
			if bal == 0 {
				if err := b.Delete(key[:]); err != nil {
					return fmt.Errorf("host: delete account: %w", err)
				}
				continue
			}
			v := make([]byte, 8)
			binary.BigEndian.PutUint64(v, bal)
			if err := b.Put(key[:], v); err != nil {
				return fmt.Errorf("host: put account: %w", err)
			}
		}
		return nil
	})
}

// List returns all stored accounts; bbolt iterates keys in sorted order.
func (s *BoltAccounts) List() ([]Balance, error) {
	var result []Balance
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
			id, err := lottery.IdentityFromBytes(k)
			if err != nil {
				return err
			}
			bal, err := decodeBalance(v)
			if err != nil {
				return err
			}
			result = append(result, Balance{Account: id, Amount: bal})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
