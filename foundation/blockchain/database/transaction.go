package database

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vnetwork/vblockchain/foundation/blockchain/signature"
)

// validate holds the settings and caches for validating transaction input.
var validate = validator.New()

// =============================================================================

// Tx is a transfer of value between two addresses. The hash, signature and
// public key are only set once the transaction is signed.
type Tx struct {
	Sender    string  `json:"sender" validate:"required"`
	Receiver  string  `json:"receiver" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	Timestamp int64   `json:"timestamp"`
	Hash      string  `json:"hash,omitempty"`
	Signature string  `json:"signature,omitempty"`
	PublicKey string  `json:"publicKey,omitempty"`
}

// txData is the portion of a transaction that is hashed.
type txData struct {
	Sender    string  `json:"sender"`
	Receiver  string  `json:"receiver"`
	Amount    float64 `json:"amount"`
	Timestamp int64   `json:"timestamp"`
}

// NewTx constructs a new transaction timestamped with the current time.
func NewTx(sender string, receiver string, amount float64) (Tx, error) {
	tx := Tx{
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Timestamp: time.Now().UnixMilli(),
	}

	if err := validate.Struct(tx); err != nil {
		return Tx{}, fmt.Errorf("invalid transaction: %w", err)
	}

	return tx, nil
}

// NewMintingTx constructs a transaction that credits the receiver with new
// value.
func NewMintingTx(receiver string, amount float64) Tx {
	return Tx{
		Sender:    MintingID,
		Receiver:  receiver,
		Amount:    amount,
		Timestamp: time.Now().UnixMilli(),
	}
}

// IsMinting reports whether the transaction was created by the system.
func (tx Tx) IsMinting() bool {
	return tx.Sender == MintingID
}

// CalculateHash returns the hash of the sender, receiver, amount and
// timestamp of the transaction.
func (tx Tx) CalculateHash() string {
	return signature.Hash(txData{
		Sender:    tx.Sender,
		Receiver:  tx.Receiver,
		Amount:    tx.Amount,
		Timestamp: tx.Timestamp,
	})
}

// Sign records the hash of the transaction and signs it with the private key.
// The public key is not attached; the caller does that.
func (tx *Tx) Sign(privateKey *ecdsa.PrivateKey) error {
	hash := tx.CalculateHash()

	sig, err := signature.Sign(hash, privateKey)
	if err != nil {
		return fmt.Errorf("signing transaction: %w", err)
	}

	tx.Hash = hash
	tx.Signature = sig

	return nil
}

// IsValid reports whether the signature of the transaction verifies against
// the stored hash and the specified public key. Minting transactions are
// always valid. Any failure to verify is reported as invalid.
func (tx Tx) IsValid(publicKey string) bool {
	if tx.IsMinting() {
		return true
	}

	if tx.Signature == "" || tx.Hash == "" {
		return false
	}

	return signature.Verify(tx.Hash, tx.Signature, publicKey) == nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%v", tx.Sender, tx.Receiver, tx.Amount)
}
