// Package wallet manages the key pair of an account and signs transactions
// on its behalf.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/signature"
)

// KeyExtension is the file extension of a saved private key.
const KeyExtension = ".ecdsa"

// Wallet represents a named account and its private key.
type Wallet struct {
	Name       string
	PrivateKey *ecdsa.PrivateKey
}

// Generate constructs a wallet with a new key pair.
func Generate(name string) (Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return Wallet{}, fmt.Errorf("generating key: %w", err)
	}

	return Wallet{Name: name, PrivateKey: privateKey}, nil
}

// Load reads the private key file. The wallet is named after the file.
func Load(path string) (Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return Wallet{}, fmt.Errorf("loading key %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), KeyExtension)

	return Wallet{Name: name, PrivateKey: privateKey}, nil
}

// LoadOrGenerate loads the private key file, creating and saving a new one
// when the file doesn't exist.
func LoadOrGenerate(path string) (Wallet, bool, error) {
	w, err := Load(path)
	if err == nil {
		return w, false, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return Wallet{}, false, err
	}

	w, err = Generate(strings.TrimSuffix(filepath.Base(path), KeyExtension))
	if err != nil {
		return Wallet{}, false, err
	}

	if err := w.Save(path); err != nil {
		return Wallet{}, false, err
	}

	return w, true, nil
}

// Save writes the private key file, creating the folder when needed.
func (w Wallet) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if err := crypto.SaveECDSA(path, w.PrivateKey); err != nil {
		return fmt.Errorf("saving key %s: %w", path, err)
	}

	return nil
}

// Address returns the account address of the wallet.
func (w Wallet) Address() string {
	return signature.PublicKeyToAddress(w.PrivateKey.PublicKey)
}

// PublicKey returns the encoded public key of the wallet.
func (w Wallet) PublicKey() string {
	return signature.EncodePublicKey(w.PrivateKey.PublicKey)
}

// NewTransaction constructs a transaction from the wallet to the receiver,
// signs it, and attaches the wallet's public key.
func (w Wallet) NewTransaction(receiver string, amount float64) (database.Tx, error) {
	tx, err := database.NewTx(w.Address(), receiver, amount)
	if err != nil {
		return database.Tx{}, err
	}

	if err := tx.Sign(w.PrivateKey); err != nil {
		return database.Tx{}, err
	}
	tx.PublicKey = w.PublicKey()

	return tx, nil
}
