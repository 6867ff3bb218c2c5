package lottery

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketContract = []byte("contract")
	bucketRounds   = []byte("rounds")

	keyState = []byte("state")
)

// BoltStore persists contract state and round history in a bbolt database.
// Each Update is a single bbolt write transaction: a callback error rolls
// back everything it did.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("lottery: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("lottery: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketContract, bucketRounds} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("lottery: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("lottery: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// roundKey encodes a round number as an 8-byte big-endian key for sorted storage.
func roundKey(r uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, r)
	return k
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func loadState(tx *bbolt.Tx) (*State, error) {
	data := tx.Bucket(bucketContract).Get(keyState)
	if data == nil {
		return &State{}, nil
	}
	var st State
	if err := decodeGob(data, &st); err != nil {
		return nil, fmt.Errorf("%w: decode state: %w", ErrInvalidState, err)
	}
	return &st, nil
}

// View runs fn against the stored state.
func (s *BoltStore) View(fn func(st *State) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		st, err := loadState(tx)
		if err != nil {
			return err
		}
		return fn(st)
	})
}

// Update runs fn against the stored state and writes the result back in the
// same transaction.
func (s *BoltStore) Update(fn func(st *State) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		st, err := loadState(tx)
		if err != nil {
			return err
		}
		prevRound := st.Round

		if err := fn(st); err != nil {
			return err
		}
		if err := st.validate(); err != nil {
			return err
		}

		data, err := encodeGob(st)
		if err != nil {
			return fmt.Errorf("lottery: encode state: %w", err)
		}
		if err := tx.Bucket(bucketContract).Put(keyState, data); err != nil {
			return fmt.Errorf("lottery: put state: %w", err)
		}

		if st.Round > prevRound && st.Last != nil {
			rdata, err := encodeGob(st.Last)
			if err != nil {
				return fmt.Errorf("lottery: encode round: %w", err)
			}
			if err := tx.Bucket(bucketRounds).Put(roundKey(st.Last.Round), rdata); err != nil {
				return fmt.Errorf("lottery: put round: %w", err)
			}
		}
		return nil
	})
}

// Rounds returns the resolved rounds in ascending order.
func (s *BoltStore) Rounds() ([]Resolution, error) {
	var rounds []Resolution
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRounds).ForEach(func(k, v []byte) error {
			var r Resolution
			if err := decodeGob(v, &r); err != nil {
				return fmt.Errorf("lottery: decode round %x: %w", k, err)
			}
			rounds = append(rounds, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rounds, nil
}
