package ledger

import "github.com/vnetwork/vblockchain/foundation/blockchain/database"

// AddTransaction appends the transaction to the pending queue. A transaction
// not created by the system is rejected when it carries no public key or its
// signature doesn't verify. Duplicates and overspending are not checked.
func (l *Ledger) AddTransaction(tx database.Tx) bool {
	if !tx.IsMinting() {
		if tx.PublicKey == "" {
			l.evHandler("ledger: AddTransaction: rejected: missing public key: %s", tx)
			return false
		}

		if !tx.IsValid(tx.PublicKey) {
			l.evHandler("ledger: AddTransaction: rejected: invalid signature: %s", tx)
			return false
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = append(l.pending, tx)
	l.evHandler("ledger: AddTransaction: added: %s: pending[%d]", tx, len(l.pending))

	return true
}
