package worker

import (
	"errors"
	"time"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/ledger"
)

// Start moves mining to RUNNING. Every interval the pending transactions are
// mined into a block which is broadcast and handed to onMined. Calling Start
// while RUNNING does nothing and returns false.
func (w *Worker) Start(onMined OnMined) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		w.evHandler("worker: Start: mining already in progress")
		return false
	}

	if w.isShutdown() {
		w.evHandler("worker: Start: worker is shut down")
		return false
	}

	stop := make(chan struct{})
	w.running = true
	w.stop = stop

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.miningOperations(stop, onMined)
	}()

	w.evHandler("worker: Start: mining started: interval[%v]", w.interval)

	return true
}

// Stop moves mining to IDLE. A block already being mined is still finished,
// appended, and broadcast.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.running = false
	close(w.stop)

	w.evHandler("worker: Stop: mining stopped")
}

// IsRunning reports whether mining is RUNNING.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.running
}

// =============================================================================

// miningOperations handles mining until stopped.
func (w *Worker) miningOperations(stop chan struct{}, onMined OnMined) {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			w.runMiningOperation(onMined)

		case <-stop:
			return

		case <-w.ctx.Done():
			return
		}
	}
}

// runMiningOperation takes all the pending transactions and mines them
// into a new block.
func (w *Worker) runMiningOperation(onMined OnMined) {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	t := time.Now()
	block, err := w.ledger.MinePending(w.minerID)
	if err != nil {
		if errors.Is(err, ledger.ErrNoTransactions) {
			w.evHandler("worker: runMiningOperation: MINING: no transactions to mine")
			return
		}
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: mined block[%d] duration[%v]", block.Index, time.Since(t))

	w.persist("runMiningOperation")

	// WOW, we mined a block. Propose the new block to the network.
	if w.network != nil {
		w.network.BroadcastNewBlock(block)
	}

	if onMined != nil {
		onMined(block)
	}
}

// MineNow runs a single mining operation right away, whatever the mining
// state. It returns ledger.ErrNoTransactions when there is nothing to mine.
func (w *Worker) MineNow() (database.Block, error) {
	block, err := w.ledger.MinePending(w.minerID)
	if err != nil {
		return database.Block{}, err
	}

	w.persist("MineNow")

	if w.network != nil {
		w.network.BroadcastNewBlock(block)
	}

	return block, nil
}
