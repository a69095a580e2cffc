package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	bolt "go.etcd.io/bbolt"
)

var (
	ledgerBucket = []byte("ledger")
	snapshotKey  = []byte("snapshot")
)

// Bolt represents the serialization implementation for reading and storing
// the snapshot inside a bbolt database file. This implements the
// database.Storage interface.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens or creates the bbolt database at the specified path.
func NewBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(ledgerBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Write replaces the stored snapshot.
func (b *Bolt) Write(snapshot database.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ledgerBucket).Put(snapshotKey, data)
	})
}

// Read loads the stored snapshot.
func (b *Bolt) Read() (database.Snapshot, error) {
	var snapshot database.Snapshot

	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ledgerBucket).Get(snapshotKey)
		if data == nil {
			return fmt.Errorf("%w: %s", database.ErrSnapshotNotFound, b.db.Path())
		}

		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("decoding snapshot: %w", err)
		}

		return nil
	})
	if err != nil {
		return database.Snapshot{}, err
	}

	return snapshot, nil
}
