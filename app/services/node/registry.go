package main

import (
	"context"
	"time"

	"github.com/vnetwork/vblockchain/foundation/blockchain/peer"
	"github.com/vnetwork/vblockchain/foundation/blockchain/registry"
	"github.com/vnetwork/vblockchain/foundation/blockchain/wallet"
	"go.uber.org/zap"
)

// registerNode registers the node and its wallet address with the registry.
// A node restarting with the same address is already registered, so
// failures are logged and startup continues.
func registerNode(log *zap.SugaredLogger, reg *registry.Client, self peer.Peer, w wallet.Wallet) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	node := registry.Node{
		NodeID:    self.NodeID,
		Host:      self.Host,
		Port:      self.Port,
		PublicKey: w.PublicKey(),
	}

	peers, err := reg.RegisterNode(ctx, node)
	if err != nil {
		log.Infow("startup", "status", "registry", "WARNING", err)
	} else {
		log.Infow("startup", "status", "registry", "registered", self.NodeID, "peers", len(peers))
	}

	info, err := reg.RegisterAddress(ctx, w.Address(), w.Name, w.PublicKey())
	if err != nil {
		log.Infow("startup", "status", "registry address", "WARNING", err)
		return
	}
	log.Infow("startup", "status", "registry address", "address", w.Address(), "balance", info.Balance)
}

// heartbeatOperations tells the registry the node is alive on every interval
// until the context is cancelled.
func heartbeatOperations(ctx context.Context, log *zap.SugaredLogger, reg *registry.Client, nodeID string, interval time.Duration) {
	log.Infow("heartbeat", "status", "G started")
	defer log.Infow("heartbeat", "status", "G completed")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := reg.Heartbeat(ctx, nodeID); err != nil {
				log.Infow("heartbeat", "nodeId", nodeID, "WARNING", err)
			}

		case <-ctx.Done():
			return
		}
	}
}
