// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vnetwork/vblockchain/business/sys/validate"
	"github.com/vnetwork/vblockchain/business/web/errs"
	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/ledger"
	"github.com/vnetwork/vblockchain/foundation/blockchain/worker"
	"github.com/vnetwork/vblockchain/foundation/events"
	"github.com/vnetwork/vblockchain/foundation/nameservice"
	"github.com/vnetwork/vblockchain/foundation/web"
	"go.uber.org/zap"
)

// Peers provides the node ids of the connected peers.
type Peers interface {
	Peers() []string
}

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	Worker *worker.Worker
	Net    Peers
	NS     *nameservice.NameService
	WS     websocket.Upgrader
	Evts   *events.Events
}

// Status returns the state of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := status{
		NodeID:      h.Ledger.NodeAddress(),
		Name:        h.NS.Lookup(h.Ledger.NodeAddress()),
		Difficulty:  h.Ledger.Difficulty(),
		MinerReward: h.Ledger.MinerReward(),
		Stats:       h.Worker.Stats(),
	}

	resp.ConnectedPeers = []string{}
	if h.Net != nil {
		resp.ConnectedPeers = h.Net.Peers()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the entire chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.Ledger.Chain()

	resp := chain{
		Length:  len(blocks),
		IsValid: h.Ledger.IsChainValid(),
		Chain:   blocks,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns the balance of the specified address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	resp := balance{
		Address: address,
		Name:    h.NS.Lookup(address),
		Balance: h.Ledger.Balance(address),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Addresses returns the balance of every address found on the chain.
func (h Handlers) Addresses(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addresses := h.Ledger.Addresses()

	resp := make([]balance, len(addresses))
	for i, address := range addresses {
		resp[i] = balance{
			Address: address,
			Name:    h.NS.Lookup(address),
			Balance: h.Ledger.Balance(address),
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Pending returns the transactions waiting to be mined.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.Ledger.Pending()

	resp := pending{
		Count:        len(txs),
		Transactions: txs,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// History returns the mined transactions the address took part in.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	resp := history{
		Address:      address,
		Name:         h.NS.Lookup(address),
		Transactions: h.Ledger.History(address),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransaction adds a signed wallet transaction to the pending queue
// and shares it with the peers.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(tx); err != nil {
		return err
	}

	// Minting is reserved for the node's own rewards.
	if tx.IsMinting() {
		return errs.NewTrusted(errors.New("minting transactions can't be submitted"), http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "sender", tx.Sender, "receiver", tx.Receiver, "amount", tx.Amount)

	if err := h.Worker.SubmitTransaction(tx); err != nil {
		if errors.Is(err, worker.ErrInvalidTransaction) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("submit transaction: %w", err)
	}

	resp := submitted{
		Success: true,
		Message: "Transaction added to pending queue",
		Hash:    tx.Hash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the blockchain.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the blockchain or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
