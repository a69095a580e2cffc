package p2p

import (
	"context"
	"time"
)

// discoveryOperations asks the registry for the network's nodes right away
// and then on every interval until the network is closed.
func (n *Network) discoveryOperations() {
	n.evHandler("p2p: discoveryOperations: G started")
	defer n.evHandler("p2p: discoveryOperations: G completed")

	n.DiscoverPeers(n.ctx)

	ticker := time.NewTicker(n.discoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.DiscoverPeers(n.ctx)
		case <-n.ctx.Done():
			return
		}
	}
}

// DiscoverPeers connects to every registered node that isn't this node and
// isn't already connected. It returns the number of new connections. When
// any were made, the known peers are shared with the network. Failures are
// logged and not retried until the next round.
func (n *Network) DiscoverPeers(ctx context.Context) int {
	if n.registry == nil {
		return 0
	}

	peers, err := n.registry.KnownPeers(ctx)
	if err != nil {
		n.evHandler("p2p: DiscoverPeers: registry: WARNING: %s", err)
		return 0
	}

	var connected int
	for _, p := range peers {
		if p.Match(n.nodeID) || n.isConnected(p.NodeID) {
			continue
		}

		if err := n.ConnectToPeer(ctx, p); err != nil {
			n.evHandler("p2p: DiscoverPeers: WARNING: %s", err)
			continue
		}
		connected++
	}

	n.evHandler("p2p: DiscoverPeers: registered[%d] connected[%d]", len(peers), connected)

	if connected > 0 {
		n.BroadcastPeers()
	}

	return connected
}
