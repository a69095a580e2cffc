// Package database handles the core data model of the blockchain: the
// transactions, the blocks they are batched into, and the snapshot that is
// persisted for a node.
package database

import "errors"

// MintingID is the sender identifier used for transactions that create value,
// such as miner rewards and welcome balances. These transactions carry no
// signature and are always valid.
const MintingID = "SYSTEM"

// GenesisPrevHash is the previous hash recorded in the genesis block.
const GenesisPrevHash = "0"

// ErrSnapshotNotFound is returned by a Storage when no snapshot has been
// written yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// =============================================================================

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading a node snapshot.
type Storage interface {
	Write(snapshot Snapshot) error
	Read() (Snapshot, error)
	Close() error
}

// Snapshot is the full persisted state of a node's ledger. Every write
// overwrites the previous snapshot in full.
type Snapshot struct {
	NodeAddress         string             `json:"nodeAddress"`
	Difficulty          int                `json:"difficulty"`
	VoteThreshold       float64            `json:"voteThreshold"`
	MinerReward         float64            `json:"minerReward"`
	Chain               []Block            `json:"chain"`
	PendingTransactions []Tx               `json:"pendingTransactions"`
	VotingPower         map[string]float64 `json:"votingPower"`
}

// Normalize restores the invariants a decoded snapshot may have lost, such as
// nil vote maps and nil transaction lists.
func (s *Snapshot) Normalize() {
	for i := range s.Chain {
		s.Chain[i].normalize()
	}

	if s.PendingTransactions == nil {
		s.PendingTransactions = []Tx{}
	}

	if s.VotingPower == nil {
		s.VotingPower = make(map[string]float64)
	}
}
