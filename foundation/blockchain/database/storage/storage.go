// Package storage implements the database.Storage interface for persisting
// a node snapshot on disk.
package storage

import (
	"fmt"
	"path/filepath"
)

// FileName returns the name of the snapshot file for the node address.
func FileName(dbPath string, nodeAddress string, ext string) string {
	return filepath.Join(dbPath, fmt.Sprintf("blockchain_%s%s", nodeAddress, ext))
}
