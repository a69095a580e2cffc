package worker

import "github.com/vnetwork/vblockchain/foundation/blockchain/database"

// applyTransaction adds a transaction shared by a peer to the pending
// queue. It is not shared again.
func (w *Worker) applyTransaction(from string, tx database.Tx) {
	if !w.ledger.AddTransaction(tx) {
		w.evHandler("worker: applyTransaction: from[%s]: rejected tx[%s]", from, tx)
		return
	}

	w.evHandler("worker: applyTransaction: from[%s]: added tx[%s]", from, tx)
	w.persist("applyTransaction")
}
