// Package registrygrp maintains the group of handlers for registry access.
package registrygrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vnetwork/vblockchain/business/core/registry"
	"github.com/vnetwork/vblockchain/business/web/errs"
	"github.com/vnetwork/vblockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of registry endpoints.
type Handlers struct {
	Log  *zap.SugaredLogger
	Core *registry.Core
}

// Index describes the registry and its endpoints.
func (h Handlers) Index(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := index{
		Name:      "V-Blockchain Network",
		Type:      "IP Registry & Boot Node Server",
		Version:   "1.0",
		Status:    "running",
		Endpoints: endpoints,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterNode adds a node to the network and returns its peers.
func (h Handlers) RegisterNode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nn registry.NewNode
	if err := web.Decode(r, &nn); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("register node", "traceid", v.TraceID, "nodeId", nn.NodeID, "host", nn.Host, "port", nn.Port)

	peers, err := h.Core.RegisterNode(nn)
	if err != nil {
		if errors.Is(err, registry.ErrNodeExists) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("register node[%s]: %w", nn.NodeID, err)
	}

	resp := registerNode{
		Success: true,
		Message: "Node registered successfully",
		Peers:   peers,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peers returns the nodes other than the one asking.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := peers{
		Peers: h.Core.Peers(web.Param(r, "nodeId")),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterAddress records a wallet address with the welcome balance.
func (h Handlers) RegisterAddress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var na registry.NewAddress
	if err := web.Decode(r, &na); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("register address", "traceid", v.TraceID, "address", na.Address, "username", na.Username)

	info, err := h.Core.RegisterAddress(na)
	if err != nil {
		if errors.Is(err, registry.ErrAddressExists) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("register address[%s]: %w", na.Address, err)
	}

	resp := registerAddress{
		Success: true,
		Message: fmt.Sprintf("Address registered with %v V welcome bonus", info.Balance),
		Data:    info,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddressInfo returns what is known about an address.
func (h Handlers) AddressInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	info, err := h.Core.AddressInfo(web.Param(r, "address"))
	if err != nil {
		if errors.Is(err, registry.ErrAddressNotFound) {
			return errs.NewTrusted(registry.ErrAddressNotFound, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Addresses returns every registered address.
func (h Handlers) Addresses(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Core.Addresses(), http.StatusOK)
}

// Nodes returns every registered node and whether it is active.
func (h Handlers) Nodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Core.Nodes(), http.StatusOK)
}

// Heartbeat marks the node as seen.
func (h Handlers) Heartbeat(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	nodeID := web.Param(r, "nodeId")

	if _, err := h.Core.Heartbeat(nodeID); err != nil {
		return fmt.Errorf("heartbeat[%s]: %w", nodeID, err)
	}

	resp := struct {
		Success bool `json:"success"`
	}{
		Success: true,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// NetworkStats returns the registry totals.
func (h Handlers) NetworkStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Core.NetworkStats(), http.StatusOK)
}

// Health returns the health report of the registry.
func (h Handlers) Health(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Core.Health(), http.StatusOK)
}
