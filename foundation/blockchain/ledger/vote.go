package ledger

import (
	"fmt"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
)

// AddVoteToLatestBlock records the voter's approval on the last block of the
// chain and returns the block's new vote percentage.
func (l *Ledger) AddVoteToLatestBlock(voter string, approve bool) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	block := &l.chain[len(l.chain)-1]
	block.AddVote(voter, approve)

	pct := block.VotePercentage()
	l.evHandler("ledger: AddVoteToLatestBlock: block[%d] voter[%s] approve[%v] pct[%.2f]", block.Index, voter, approve, pct)

	return pct
}

// IsVoteApprovedForLatestBlock reports whether the last block of the chain
// meets the vote threshold.
func (l *Ledger) IsVoteApprovedForLatestBlock() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.chain[len(l.chain)-1].IsVoteApproved(l.voteThreshold)
}

// AddVote records the voter's approval on the block at the specified index.
// Votes received from peers are applied this way.
func (l *Ledger) AddVote(blockIndex uint64, voter string, approve bool) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if blockIndex >= uint64(len(l.chain)) {
		return 0, fmt.Errorf("%w: index[%d] length[%d]", ErrBlockNotFound, blockIndex, len(l.chain))
	}

	block := &l.chain[blockIndex]
	block.AddVote(voter, approve)

	pct := block.VotePercentage()
	l.evHandler("ledger: AddVote: block[%d] voter[%s] approve[%v] pct[%.2f]", blockIndex, voter, approve, pct)

	return pct, nil
}

// validChain checks linkage from the second block onward and, for blocks
// that carry votes, that the vote threshold is met. The proof of work is not
// verified again.
func validChain(chain []database.Block, threshold float64) bool {
	for i := 1; i < len(chain); i++ {
		current := chain[i]
		previous := chain[i-1]

		if current.Hash() == "" {
			return false
		}

		if current.PreviousHash != previous.Hash() {
			return false
		}

		if current.VoteCount() > 0 && !current.IsVoteApproved(threshold) {
			return false
		}
	}

	return true
}
