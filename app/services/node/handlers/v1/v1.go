// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/vnetwork/vblockchain/app/services/node/handlers/v1/private"
	"github.com/vnetwork/vblockchain/app/services/node/handlers/v1/public"
	"github.com/vnetwork/vblockchain/foundation/blockchain/ledger"
	"github.com/vnetwork/vblockchain/foundation/blockchain/worker"
	"github.com/vnetwork/vblockchain/foundation/events"
	"github.com/vnetwork/vblockchain/foundation/nameservice"
	"github.com/vnetwork/vblockchain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	Worker *worker.Worker
	Net    private.Network
	NS     *nameservice.NameService
	Evts   *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		Worker: cfg.Worker,
		Net:    cfg.Net,
		NS:     cfg.NS,
		WS:     websocket.Upgrader{},
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/status", pbl.Status)
	app.Handle(http.MethodGet, version, "/chain", pbl.Chain)
	app.Handle(http.MethodGet, version, "/balance/:address", pbl.Balance)
	app.Handle(http.MethodGet, version, "/addresses", pbl.Addresses)
	app.Handle(http.MethodGet, version, "/tx/pending", pbl.Pending)
	app.Handle(http.MethodGet, version, "/tx/history/:address", pbl.History)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
}

// PrivateRoutes binds all the version 1 operator routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		Worker: cfg.Worker,
		Net:    cfg.Net,
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodPost, version, "/mining/start", prv.StartMining)
	app.Handle(http.MethodPost, version, "/mining/stop", prv.StopMining)
	app.Handle(http.MethodPost, version, "/mining/mine", prv.MineNow)
	app.Handle(http.MethodPost, version, "/vote", prv.Vote)
	app.Handle(http.MethodPost, version, "/sync", prv.Sync)
	app.Handle(http.MethodGet, version, "/peers", prv.Peers)
}
