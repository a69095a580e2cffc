package worker

import (
	"context"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/p2p"
	"github.com/vnetwork/vblockchain/foundation/blockchain/peer"
)

// Run starts a goroutine that applies the peer events to the ledger until
// the channel is closed or the worker is shut down.
func (w *Worker) Run(events <-chan p2p.Event) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.eventOperations(events)
	}()
}

// eventOperations handles the peer events.
func (w *Worker) eventOperations(events <-chan p2p.Event) {
	w.evHandler("worker: eventOperations: G started")
	defer w.evHandler("worker: eventOperations: G completed")

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.ProcessEvent(ev)

		case <-w.ctx.Done():
			return
		}
	}
}

// ProcessEvent applies a single peer event to the ledger.
func (w *Worker) ProcessEvent(ev p2p.Event) {
	switch m := ev.Message.(type) {
	case p2p.NewBlock:
		w.applyBlock(ev.From, m.Block)

	case p2p.NewTransaction:
		w.applyTransaction(ev.From, m.Transaction)

	case p2p.Vote:
		w.applyVote(ev.From, m)

	case p2p.BlockchainData:
		w.applyChain(ev.From, m.Chain)

	case p2p.PeersList:
		w.applyPeers(ev.From, m.Peers)

	default:
		w.evHandler("worker: ProcessEvent: from[%s]: ignored message type[%T]", ev.From, ev.Message)
	}
}

// Sync asks each of the specified peers for its chain. The answers are
// applied as they arrive through the events.
func (w *Worker) Sync(ctx context.Context, peers []peer.Peer) int {
	w.evHandler("worker: Sync: started")
	defer w.evHandler("worker: Sync: completed")

	if w.network == nil {
		return 0
	}

	var requested int
	for _, p := range peers {
		if p.Match(w.minerID) {
			continue
		}

		if err := w.network.RequestSync(ctx, p); err != nil {
			w.evHandler("worker: Sync: %s: ERROR: %s", p.NodeID, err)
			continue
		}
		requested++
	}

	return requested
}

// =============================================================================

// applyBlock appends a block mined by a peer.
func (w *Worker) applyBlock(from string, block database.Block) {
	if err := w.ledger.AddRemoteBlock(block); err != nil {
		w.evHandler("worker: applyBlock: from[%s]: block[%d]: rejected: %s", from, block.Index, err)
		return
	}

	w.persist("applyBlock")
}

// applyChain adopts the chain of a peer when it is longer and valid.
func (w *Worker) applyChain(from string, chain []database.Block) {
	if err := w.ledger.ReplaceChain(chain); err != nil {
		w.evHandler("worker: applyChain: from[%s]: length[%d]: rejected: %s", from, len(chain), err)
		return
	}

	w.persist("applyChain")
}

// applyVote records a vote cast by a peer.
func (w *Worker) applyVote(from string, v p2p.Vote) {
	if _, err := w.ledger.AddVote(v.BlockIndex, v.Voter, v.VoteValue); err != nil {
		w.evHandler("worker: applyVote: from[%s]: voter[%s]: rejected: %s", from, v.Voter, err)
		return
	}

	w.persist("applyVote")
}
