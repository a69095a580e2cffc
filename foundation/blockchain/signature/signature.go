// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is returned when a value
// can't be marshaled for hashing.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// AddressPrefix is the leading character of every account address.
const AddressPrefix = "V"

// addressLength is the number of hex characters of the public key hash
// that make up an address.
const addressLength = 40

// =============================================================================

// Hash returns a unique string for the value. The string is the lowercase
// hex encoding of the sha256 of the JSON representation of the value, with
// no 0x prefix, so proof of work can be checked as a prefix of zeros.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Sign uses the specified private key to sign the hash string. The
// signature is returned in its 0x hex encoded 65 byte [R|S|V] form.
func Sign(hash string, privateKey *ecdsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", errors.New("private key is required")
	}

	// Prepare the data for signing.
	data := stamp(hash)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", errors.New("invalid signature")
	}

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced over the hash by the private key
// that matches the hex encoded public key.
func Verify(hash string, sig string, publicKey string) error {
	pubBytes, err := hexutil.Decode(publicKey)
	if err != nil {
		return fmt.Errorf("decoding public key: %w", err)
	}

	if _, err := crypto.UnmarshalPubkey(pubBytes); err != nil {
		return fmt.Errorf("parsing public key: %w", err)
	}

	sigBytes, err := hexutil.Decode(sig)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}

	if len(sigBytes) != crypto.SignatureLength {
		return fmt.Errorf("invalid signature length %d", len(sigBytes))
	}

	rs := sigBytes[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(pubBytes, stamp(hash), rs) {
		return errors.New("signature does not match public key")
	}

	return nil
}

// EncodePublicKey returns the 0x hex encoding of the uncompressed public key.
func EncodePublicKey(publicKey ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.FromECDSAPub(&publicKey))
}

// PublicKeyToAddress converts the public key to an account address. The
// address is the prefix followed by the first 40 uppercase hex characters
// of the sha256 of the encoded public key.
func PublicKeyToAddress(publicKey ecdsa.PublicKey) string {
	hash := sha256.Sum256([]byte(EncodePublicKey(publicKey)))
	return AddressPrefix + strings.ToUpper(hex.EncodeToString(hash[:])[:addressLength])
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the hash string with
// the V stamp embedded into the final hash.
func stamp(hash string) []byte {

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256([]byte(hash))

	// This stamp is used so signatures we produce when signing data
	// are always unique to the V blockchain.
	stamp := []byte("\x19V Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash)
}
