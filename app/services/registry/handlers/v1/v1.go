// Package v1 contains the full set of handler functions and routes
// supported by the registry web api.
package v1

import (
	"net/http"

	"github.com/vnetwork/vblockchain/app/services/registry/handlers/v1/registrygrp"
	"github.com/vnetwork/vblockchain/business/core/registry"
	"github.com/vnetwork/vblockchain/foundation/web"
	"go.uber.org/zap"
)

// The registry routes are served at the root so existing nodes can reach
// them without a version element.
const version = ""

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log  *zap.SugaredLogger
	Core *registry.Core
}

// Routes binds all the registry routes.
func Routes(app *web.App, cfg Config) {
	rgh := registrygrp.Handlers{
		Log:  cfg.Log,
		Core: cfg.Core,
	}

	app.Handle(http.MethodGet, version, "/", rgh.Index)
	app.Handle(http.MethodPost, version, "/register-node", rgh.RegisterNode)
	app.Handle(http.MethodGet, version, "/get-peers/:nodeId", rgh.Peers)
	app.Handle(http.MethodPost, version, "/register-address", rgh.RegisterAddress)
	app.Handle(http.MethodGet, version, "/get-address-info/:address", rgh.AddressInfo)
	app.Handle(http.MethodGet, version, "/get-all-addresses", rgh.Addresses)
	app.Handle(http.MethodGet, version, "/get-all-nodes", rgh.Nodes)
	app.Handle(http.MethodPost, version, "/heartbeat/:nodeId", rgh.Heartbeat)
	app.Handle(http.MethodGet, version, "/network-stats", rgh.NetworkStats)
	app.Handle(http.MethodGet, version, "/health", rgh.Health)
}
