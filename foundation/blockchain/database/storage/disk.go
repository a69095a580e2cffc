package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
)

// Disk represents the serialization implementation for reading and storing
// the snapshot as a single JSON file on disk. Each write overwrites the
// whole file. This implements the database.Storage interface.
type Disk struct {
	path string
}

// NewDisk constructs a Disk value for use. The folder holding the file is
// created if it doesn't exist.
func NewDisk(path string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	return &Disk{path: path}, nil
}

// Close in this implementation has nothing to do since the file is opened
// and closed on every write.
func (d *Disk) Close() error {
	return nil
}

// Write stores the snapshot on disk in a human readable format.
func (d *Disk) Write(snapshot database.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(d.path, data, 0600); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// Read loads the snapshot from disk.
func (d *Disk) Read() (database.Snapshot, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.Snapshot{}, fmt.Errorf("%w: %s", database.ErrSnapshotNotFound, d.path)
		}
		return database.Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot database.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return database.Snapshot{}, fmt.Errorf("decoding snapshot %s: %w", d.path, err)
	}

	return snapshot, nil
}
