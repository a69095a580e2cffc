// Package worker implements mining, vote casting, and the application of
// peer messages for the blockchain.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/ledger"
	"github.com/vnetwork/vblockchain/foundation/blockchain/peer"
)

// DefaultMiningInterval represents the interval between mining attempts
// while mining is running.
const DefaultMiningInterval = 5 * time.Second

// ErrInvalidTransaction is returned when the ledger rejects a submitted
// transaction.
var ErrInvalidTransaction = errors.New("invalid transaction")

// =============================================================================

// Network interface represents the behavior the worker needs from the peer
// network.
type Network interface {
	BroadcastNewBlock(block database.Block)
	BroadcastNewTransaction(tx database.Tx)
	BroadcastVote(voter string, blockIndex uint64, approve bool)
	ConnectToPeer(ctx context.Context, p peer.Peer) error
	RequestSync(ctx context.Context, p peer.Peer) error
}

// OnMined is called with every block the worker mines.
type OnMined func(block database.Block)

// Config represents the configuration required to construct a worker.
type Config struct {
	MinerID   string
	Ledger    *ledger.Ledger
	Network   Network
	Interval  time.Duration
	EvHandler ledger.EventHandler
}

// Worker manages the mining workflow and applies peer messages to the
// ledger. Mining is either IDLE or RUNNING.
type Worker struct {
	minerID   string
	ledger    *ledger.Ledger
	network   Network
	interval  time.Duration
	evHandler ledger.EventHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// New constructs a worker with mining IDLE.
func New(cfg Config) *Worker {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultMiningInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		minerID:   cfg.MinerID,
		ledger:    cfg.Ledger,
		network:   cfg.Network,
		interval:  interval,
		evHandler: ev,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Shutdown stops mining and terminates the goroutines performing work. A
// block being mined is finished first.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop mining")
	w.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	w.cancel()
	w.wg.Wait()
}

// =============================================================================

// SubmitTransaction adds the transaction to the ledger and shares it with
// the peers.
func (w *Worker) SubmitTransaction(tx database.Tx) error {
	if !w.ledger.AddTransaction(tx) {
		return fmt.Errorf("%w: %s", ErrInvalidTransaction, tx)
	}

	w.persist("SubmitTransaction")

	if w.network != nil {
		w.network.BroadcastNewTransaction(tx)
	}

	return nil
}

// Stats represents the state of the node as seen by its miner.
type Stats struct {
	MinerAddress        string  `json:"minerAddress"`
	Balance             float64 `json:"balance"`
	ChainLength         int     `json:"chainLength"`
	PendingTransactions int     `json:"pendingTransactions"`
	IsChainValid        bool    `json:"isChainValid"`
	LatestBlockHash     string  `json:"latestBlockHash"`
	VoteThreshold       float64 `json:"voteThreshold"`
	Mining              bool    `json:"mining"`
}

// Stats returns the current state of the node.
func (w *Worker) Stats() Stats {
	return Stats{
		MinerAddress:        w.minerID,
		Balance:             w.ledger.Balance(w.minerID),
		ChainLength:         w.ledger.Length(),
		PendingTransactions: w.ledger.PendingCount(),
		IsChainValid:        w.ledger.IsChainValid(),
		LatestBlockHash:     w.ledger.LatestBlock().Hash(),
		VoteThreshold:       w.ledger.VoteThreshold(),
		Mining:              w.IsRunning(),
	}
}

// =============================================================================

// persist writes the ledger snapshot, logging any failure.
func (w *Worker) persist(op string) {
	if err := w.ledger.Persist(); err != nil {
		if errors.Is(err, ledger.ErrNoStorage) {
			return
		}
		w.evHandler("worker: %s: persist: ERROR: %s", op, err)
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.ctx.Done():
		return true
	default:
		return false
	}
}
