// Package private maintains the group of handlers for operating the node.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vnetwork/vblockchain/business/web/errs"
	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/ledger"
	"github.com/vnetwork/vblockchain/foundation/blockchain/peer"
	"github.com/vnetwork/vblockchain/foundation/blockchain/worker"
	"github.com/vnetwork/vblockchain/foundation/events"
	"github.com/vnetwork/vblockchain/foundation/web"
	"go.uber.org/zap"
)

// Network provides what the operator endpoints need from the peer network.
type Network interface {
	Peers() []string
	KnownPeers() []peer.Peer
	DiscoverPeers(ctx context.Context) int
}

// Handlers manages the set of node operator endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	Worker *worker.Worker
	Net    Network
	Evts   *events.Events
}

// StartMining moves mining to RUNNING.
func (h Handlers) StartMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	onMined := func(block database.Block) {
		h.Log.Infow("block mined", "traceid", v.TraceID, "index", block.Index, "hash", block.Hash(), "txs", len(block.Transactions))
		h.Evts.Send(events.TopicBlock, block)
	}

	resp := mining{
		Success: h.Worker.Start(onMined),
		Mining:  true,
		Message: "Mining started",
	}
	if !resp.Success {
		resp.Message = "Mining already in progress"
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// StopMining moves mining to IDLE.
func (h Handlers) StopMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.Worker.Stop()

	resp := mining{
		Success: true,
		Mining:  false,
		Message: "Mining stopped",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// MineNow mines the pending transactions into a block right away.
func (h Handlers) MineNow(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.Worker.MineNow()
	if err != nil {
		if errors.Is(err, ledger.ErrNoTransactions) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("mine now: %w", err)
	}

	h.Evts.Send(events.TopicBlock, block)

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Vote records the miner's vote on the last block. The block index defaults
// to the last block when left out.
func (h Handlers) Vote(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req vote
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blockIndex := uint64(h.Ledger.Length() - 1)
	if req.BlockIndex != nil {
		blockIndex = *req.BlockIndex
	}

	result := h.Worker.CastVote(blockIndex, req.Approve)

	resp := voteResult{
		BlockIndex: blockIndex,
		Approved:   result.Approved,
		Percentage: result.Percentage,
		Threshold:  h.Ledger.VoteThreshold(),
	}

	h.Evts.Send(events.TopicVote, resp)

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Sync refreshes the peers from the registry and asks each of them for its
// chain. Longer valid chains are adopted as the answers arrive.
func (h Handlers) Sync(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := syncResult{
		Discovered: h.Net.DiscoverPeers(ctx),
	}
	resp.Requested = h.Worker.Sync(ctx, h.Net.KnownPeers())

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peers returns the connected and known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := peers{
		Connected: h.Net.Peers(),
		Known:     h.Net.KnownPeers(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
