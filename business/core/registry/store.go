package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vnetwork/vblockchain/foundation/blockchain/registry"
)

// File names of the registry documents.
const (
	nodesFile     = "nodes_registry.json"
	addressesFile = "addresses_registry.json"
)

// store keeps the registry documents on disk. Both documents are rewritten
// in full on every change.
type store struct {
	nodesPath     string
	addressesPath string
}

// newStore constructs a store in the specified folder, creating it when
// needed.
func newStore(dbPath string) (*store, error) {
	if dbPath != "" {
		if err := os.MkdirAll(dbPath, 0755); err != nil {
			return nil, fmt.Errorf("creating registry folder: %w", err)
		}
	}

	return &store{
		nodesPath:     filepath.Join(dbPath, nodesFile),
		addressesPath: filepath.Join(dbPath, addressesFile),
	}, nil
}

// read loads both documents. A missing document is empty.
func (s *store) read() ([]registry.Node, map[string]registry.AddressInfo, error) {
	nodes := []registry.Node{}
	if err := readJSON(s.nodesPath, &nodes); err != nil {
		return nil, nil, err
	}

	addresses := make(map[string]registry.AddressInfo)
	if err := readJSON(s.addressesPath, &addresses); err != nil {
		return nil, nil, err
	}

	// A document holding null decodes to nil.
	if nodes == nil {
		nodes = []registry.Node{}
	}
	if addresses == nil {
		addresses = make(map[string]registry.AddressInfo)
	}

	return nodes, addresses, nil
}

// write saves both documents.
func (s *store) write(nodes []registry.Node, addresses map[string]registry.AddressInfo) error {
	if err := writeJSON(s.nodesPath, nodes); err != nil {
		return err
	}

	return writeJSON(s.addressesPath, addresses)
}

// =============================================================================

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
