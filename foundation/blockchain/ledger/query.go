package ledger

import (
	"sort"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
)

// Balance returns the balance of the address as derived from every confirmed
// block. Pending transactions are not counted.
func (l *Ledger) Balance(address string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var balance float64
	for _, block := range l.chain {
		for _, tx := range block.Transactions {
			if tx.Sender == address {
				balance -= tx.Amount
			}
			if tx.Receiver == address {
				balance += tx.Amount
			}
		}
	}

	return balance
}

// IsChainValid checks the linkage and votes of the local chain.
func (l *Ledger) IsChainValid() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return validChain(l.chain, l.voteThreshold)
}

// Addresses returns every sender and receiver found in the confirmed blocks,
// sorted.
func (l *Ledger) Addresses() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	set := make(map[string]struct{})
	for _, block := range l.chain {
		for _, tx := range block.Transactions {
			set[tx.Sender] = struct{}{}
			set[tx.Receiver] = struct{}{}
		}
	}

	addresses := make([]string, 0, len(set))
	for address := range set {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	return addresses
}

// History returns every confirmed transaction the address took part in,
// in chain order.
func (l *Ledger) History(address string) []database.Tx {
	l.mu.Lock()
	defer l.mu.Unlock()

	var txs []database.Tx
	for _, block := range l.chain {
		for _, tx := range block.Transactions {
			if tx.Sender == address || tx.Receiver == address {
				txs = append(txs, tx)
			}
		}
	}

	return txs
}

// LatestBlock returns a copy of the last block of the chain.
func (l *Ledger) LatestBlock() database.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.chain[len(l.chain)-1].Clone()
}

// Block returns a copy of the block at the specified index.
func (l *Ledger) Block(index uint64) (database.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index >= uint64(len(l.chain)) {
		return database.Block{}, ErrBlockNotFound
	}

	return l.chain[index].Clone(), nil
}

// Chain returns a copy of the full chain.
func (l *Ledger) Chain() []database.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.copyChain()
}

// Length returns the number of blocks in the chain.
func (l *Ledger) Length() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.chain)
}

// Pending returns a copy of the pending queue.
func (l *Ledger) Pending() []database.Tx {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.copyPending()
}

// PendingCount returns the number of transactions in the pending queue.
func (l *Ledger) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.pending)
}

// NodeAddress returns the address of the node owning the ledger.
func (l *Ledger) NodeAddress() string {
	return l.nodeAddress
}

// Difficulty returns the number of leading zeros a mined hash must have.
func (l *Ledger) Difficulty() int {
	return l.difficulty
}

// VoteThreshold returns the percentage of approvals a voted block needs.
func (l *Ledger) VoteThreshold() float64 {
	return l.voteThreshold
}

// MinerReward returns the amount credited to the miner of each block.
func (l *Ledger) MinerReward() float64 {
	return l.minerReward
}
