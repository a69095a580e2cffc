// Package ledger is the core API for the blockchain and implements all the
// business rules for the chain, the pending queue, balances, and votes.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/genesis"
)

// Set of error variables for ledger operations.
var (
	ErrNoTransactions = errors.New("no transactions in the pending queue")
	ErrIndexMismatch  = errors.New("block index mismatch")
	ErrBlockNotFound  = errors.New("block not found")
	ErrChainNotLonger = errors.New("chain is not longer than the local chain")
	ErrInvalidChain   = errors.New("chain is not valid")
	ErrNoStorage      = errors.New("no storage configured")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a ledger.
type Config struct {
	NodeAddress string
	Genesis     genesis.Genesis
	Storage     database.Storage
	EvHandler   EventHandler
}

// Ledger manages the chain of blocks and the queue of pending transactions.
// All access is serialized through a single mutex.
type Ledger struct {
	nodeAddress   string
	difficulty    int
	voteThreshold float64
	minerReward   float64
	storage       database.Storage
	evHandler     EventHandler

	// pmu orders the snapshot writes so they never overlap and an older
	// snapshot never replaces a newer one.
	pmu sync.Mutex

	mu          sync.Mutex
	chain       []database.Block
	pending     []database.Tx
	votingPower map[string]float64
}

// New constructs a ledger holding a freshly mined genesis block.
func New(cfg Config) *Ledger {
	l := newLedger(cfg)

	l.evHandler("ledger: New: mining genesis block: difficulty[%d]", l.difficulty)
	l.chain = []database.Block{database.NewGenesisBlock(l.difficulty)}

	return l
}

// Load constructs a ledger from the snapshot held by the configured storage.
// The chain parameters recorded in the snapshot replace the configured ones.
func Load(cfg Config) (*Ledger, error) {
	if cfg.Storage == nil {
		return nil, ErrNoStorage
	}

	snapshot, err := cfg.Storage.Read()
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if len(snapshot.Chain) == 0 {
		return nil, fmt.Errorf("loading snapshot: %w: empty chain", ErrInvalidChain)
	}
	snapshot.Normalize()

	l := newLedger(cfg)
	if snapshot.NodeAddress != "" {
		l.nodeAddress = snapshot.NodeAddress
	}
	l.difficulty = snapshot.Difficulty
	l.voteThreshold = snapshot.VoteThreshold
	l.minerReward = snapshot.MinerReward
	l.chain = snapshot.Chain
	l.pending = snapshot.PendingTransactions
	l.votingPower = snapshot.VotingPower

	l.evHandler("ledger: Load: chain[%d] pending[%d]", len(l.chain), len(l.pending))

	return l, nil
}

func newLedger(cfg Config) *Ledger {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Ledger{
		nodeAddress:   cfg.NodeAddress,
		difficulty:    cfg.Genesis.Difficulty,
		voteThreshold: cfg.Genesis.VoteThreshold,
		minerReward:   cfg.Genesis.MinerReward,
		storage:       cfg.Storage,
		evHandler:     ev,
		pending:       []database.Tx{},
		votingPower:   make(map[string]float64),
	}
}

// =============================================================================

// Snapshot returns a copy of the full state of the ledger.
func (l *Ledger) Snapshot() database.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snapshot()
}

// Persist writes the current snapshot to the configured storage. Concurrent
// calls are serialized.
func (l *Ledger) Persist() error {
	if l.storage == nil {
		return ErrNoStorage
	}

	l.pmu.Lock()
	defer l.pmu.Unlock()

	snapshot := l.Snapshot()
	if err := l.storage.Write(snapshot); err != nil {
		return fmt.Errorf("persisting snapshot: %w", err)
	}

	return nil
}

func (l *Ledger) snapshot() database.Snapshot {
	votingPower := make(map[string]float64, len(l.votingPower))
	for voter, power := range l.votingPower {
		votingPower[voter] = power
	}

	return database.Snapshot{
		NodeAddress:         l.nodeAddress,
		Difficulty:          l.difficulty,
		VoteThreshold:       l.voteThreshold,
		MinerReward:         l.minerReward,
		Chain:               l.copyChain(),
		PendingTransactions: l.copyPending(),
		VotingPower:         votingPower,
	}
}

func (l *Ledger) copyChain() []database.Block {
	chain := make([]database.Block, len(l.chain))
	for i, block := range l.chain {
		chain[i] = block.Clone()
	}

	return chain
}

func (l *Ledger) copyPending() []database.Tx {
	pending := make([]database.Tx, len(l.pending))
	copy(pending, l.pending)

	return pending
}
