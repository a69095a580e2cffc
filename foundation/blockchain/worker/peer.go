package worker

import "github.com/vnetwork/vblockchain/foundation/blockchain/peer"

// applyPeers connects to every peer in the list that isn't this node. A dial
// is only abandoned when the worker shuts down.
func (w *Worker) applyPeers(from string, peers []peer.Peer) {
	if w.network == nil {
		return
	}

	for _, p := range peers {
		if p.Match(w.minerID) {
			continue
		}

		if err := w.network.ConnectToPeer(w.ctx, p); err != nil {
			w.evHandler("worker: applyPeers: from[%s]: %s: ERROR: %s", from, p.NodeID, err)
			continue
		}
	}
}
