package ledger

import (
	"time"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
)

// MinePendingTransactions appends the reward for the miner to the pending
// queue, mines a block holding the entire queue, appends it to the chain and
// clears the queue. The lock is held for the whole proof of work.
func (l *Ledger) MinePendingTransactions(minerID string) database.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.minePending(minerID)
}

// MinePending behaves like MinePendingTransactions but returns
// ErrNoTransactions, without mining, when the queue is empty.
func (l *Ledger) MinePending(minerID string) (database.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	return l.minePending(minerID), nil
}

func (l *Ledger) minePending(minerID string) database.Block {
	l.pending = append(l.pending, database.NewMintingTx(minerID, l.minerReward))

	prevBlock := l.chain[len(l.chain)-1]
	block := database.NewBlock(uint64(len(l.chain)), l.pending, prevBlock.Hash(), minerID)

	l.evHandler("ledger: MinePendingTransactions: MINING: started: block[%d] txs[%d] difficulty[%d]", block.Index, len(block.Transactions), l.difficulty)

	t := time.Now()
	hash := block.Mine(l.difficulty)

	l.evHandler("ledger: MinePendingTransactions: MINING: solved: block[%d] hash[%s] nonce[%d] duration[%v]", block.Index, hash, block.Nonce, time.Since(t))

	l.chain = append(l.chain, block)
	l.pending = []database.Tx{}

	return block.Clone()
}
