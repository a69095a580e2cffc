// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"net/http"
	"os"

	v1 "github.com/vnetwork/vblockchain/app/services/node/handlers/v1"
	"github.com/vnetwork/vblockchain/app/services/node/handlers/v1/private"
	"github.com/vnetwork/vblockchain/business/web/mid"
	"github.com/vnetwork/vblockchain/foundation/blockchain/ledger"
	"github.com/vnetwork/vblockchain/foundation/blockchain/worker"
	"github.com/vnetwork/vblockchain/foundation/events"
	"github.com/vnetwork/vblockchain/foundation/nameservice"
	"github.com/vnetwork/vblockchain/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	Ledger   *ledger.Ledger
	Worker   *worker.Worker
	Net      private.Network
	NS       *nameservice.NameService
	Evts     *events.Events
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors("*"),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests if config has been provided.
	// Don't forget to apply the CORS middleware to the routes that need it.
	// Example Config: `conf:"default:https://MY_DOMAIN.COM"`
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors("*"))

	// Load the v1 routes.
	v1.PublicRoutes(app, config(cfg))

	return app
}

// PrivateMux constructs a http.Handler with the node operator routes defined.
func PrivateMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	)

	// Load the v1 routes.
	v1.PrivateRoutes(app, config(cfg))

	return app
}

func config(cfg MuxConfig) v1.Config {
	return v1.Config{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		Worker: cfg.Worker,
		Net:    cfg.Net,
		NS:     cfg.NS,
		Evts:   cfg.Evts,
	}
}
