package ledger

import (
	"fmt"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
)

// AddRemoteBlock appends a block received from a peer. The block is accepted
// only when its index equals the current chain length. Nothing else about the
// block is verified and the pending queue is left untouched.
func (l *Ledger) AddRemoteBlock(block database.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if block.Index != uint64(len(l.chain)) {
		return fmt.Errorf("%w: got[%d] exp[%d]", ErrIndexMismatch, block.Index, len(l.chain))
	}

	block = block.Clone()
	l.chain = append(l.chain, block)

	l.evHandler("ledger: AddRemoteBlock: block[%d] miner[%s] hash[%s]", block.Index, block.Miner, block.Hash())

	return nil
}

// ReplaceChain adopts a chain received from a peer when it is strictly
// longer than the local chain and valid under the local vote threshold.
func (l *Ledger) ReplaceChain(chain []database.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(chain) <= len(l.chain) {
		return fmt.Errorf("%w: got[%d] have[%d]", ErrChainNotLonger, len(chain), len(l.chain))
	}

	candidate := make([]database.Block, len(chain))
	for i, block := range chain {
		candidate[i] = block.Clone()
	}

	if candidate[0].Index != 0 || !validChain(candidate, l.voteThreshold) {
		return ErrInvalidChain
	}

	l.chain = candidate
	l.evHandler("ledger: ReplaceChain: adopted chain[%d]", len(l.chain))

	return nil
}
