// Package nameservice reads the accounts folder and creates a name service
// lookup for the wallet addresses found there.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vnetwork/vblockchain/foundation/blockchain/wallet"
)

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	mu        sync.RWMutex
	addresses map[string]string
}

// New constructs a name service with the wallets from the accounts folder.
// A missing folder yields an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		addresses: make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil && fileName == root {
				return fs.SkipAll
			}
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != wallet.KeyExtension {
			return nil
		}

		w, err := wallet.Load(fileName)
		if err != nil {
			return err
		}

		ns.addresses[w.Address()] = strings.TrimSuffix(filepath.Base(fileName), wallet.KeyExtension)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Add records the name for the address, replacing any earlier name.
func (ns *NameService) Add(address string, name string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.addresses[address] = name
}

// Lookup returns the name for the specified address.
func (ns *NameService) Lookup(address string) string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	name, exists := ns.addresses[address]
	if !exists {
		return address
	}
	return name
}

// Copy returns a copy of the map of addresses and names.
func (ns *NameService) Copy() map[string]string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	cpy := make(map[string]string, len(ns.addresses))
	for address, name := range ns.addresses {
		cpy[address] = name
	}
	return cpy
}
