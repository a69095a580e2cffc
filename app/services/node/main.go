package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/vnetwork/vblockchain/app/services/node/handlers"
	"github.com/vnetwork/vblockchain/business/web/debug"
	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/database/storage"
	"github.com/vnetwork/vblockchain/foundation/blockchain/genesis"
	"github.com/vnetwork/vblockchain/foundation/blockchain/ledger"
	"github.com/vnetwork/vblockchain/foundation/blockchain/p2p"
	"github.com/vnetwork/vblockchain/foundation/blockchain/registry"
	"github.com/vnetwork/vblockchain/foundation/blockchain/wallet"
	"github.com/vnetwork/vblockchain/foundation/blockchain/worker"
	"github.com/vnetwork/vblockchain/foundation/events"
	"github.com/vnetwork/vblockchain/foundation/logger"
	"github.com/vnetwork/vblockchain/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
		}
		State struct {
			MinerName      string        `conf:"default:miner1"`
			DBPath         string        `conf:"default:zblock/"`
			Storage        string        `conf:"default:disk"`
			GenesisPath    string
			MiningInterval time.Duration `conf:"default:5s"`
			AutoMine       bool          `conf:"default:false"`
		}
		P2P struct {
			Host              string        `conf:"default:0.0.0.0"`
			Port              int           `conf:"default:6001"`
			AdvertiseHost     string        `conf:"default:localhost"`
			DiscoveryInterval time.Duration `conf:"default:10s"`
		}
		Registry struct {
			URL       string        `conf:"default:http://localhost:3000"`
			Timeout   time.Duration `conf:"default:5s"`
			Heartbeat time.Duration `conf:"default:30s"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "V network ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for wallet addresses.
	// The names come from the file names in the accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// =========================================================================
	// Wallet Support

	// The miner's wallet identifies the node on the network and is credited
	// with the mining rewards. It is created on first start.
	keyPath := filepath.Join(cfg.NameService.Folder, cfg.State.MinerName+wallet.KeyExtension)
	minerWallet, created, err := wallet.LoadOrGenerate(keyPath)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}
	nodeAddress := minerWallet.Address()
	ns.Add(nodeAddress, cfg.State.MinerName)

	log.Infow("startup", "status", "wallet", "name", cfg.State.MinerName, "address", nodeAddress, "created", created)

	// Logging the accounts for documentation in the logs.
	for address, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "address", address)
	}

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Log(v, args...)
	}

	gen := genesis.Default()
	if cfg.State.GenesisPath != "" {
		if gen, err = genesis.Load(cfg.State.GenesisPath); err != nil {
			return fmt.Errorf("unable to load genesis file: %w", err)
		}
	}

	strg, err := openStorage(cfg.State.Storage, cfg.State.DBPath, nodeAddress)
	if err != nil {
		return fmt.Errorf("unable to open storage: %w", err)
	}
	defer strg.Close()

	ldgCfg := ledger.Config{
		NodeAddress: nodeAddress,
		Genesis:     gen,
		Storage:     strg,
		EvHandler:   ev,
	}

	// Reload the node's ledger or start a new one. A new ledger credits the
	// node with the welcome bonus.
	ldg, err := ledger.Load(ldgCfg)
	switch {
	case err == nil:
		log.Infow("startup", "status", "ledger loaded", "length", ldg.Length(), "pending", ldg.PendingCount())

	case errors.Is(err, database.ErrSnapshotNotFound):
		ldg = ledger.New(ldgCfg)
		ldg.AddTransaction(database.NewMintingTx(nodeAddress, gen.WelcomeBonus))
		ldg.MinePendingTransactions(nodeAddress)

		if err := ldg.Persist(); err != nil {
			return fmt.Errorf("unable to persist new ledger: %w", err)
		}
		log.Infow("startup", "status", "ledger created", "welcomeBonus", gen.WelcomeBonus)

	default:
		return fmt.Errorf("unable to load ledger: %w", err)
	}

	// Write the final state of the ledger once everything using it has stopped.
	defer func() {
		if err := ldg.Persist(); err != nil {
			log.Errorw("shutdown", "status", "persist ledger", "ERROR", err)
		}
	}()

	// =========================================================================
	// Peer Network Support

	var reg *registry.Client
	var netReg p2p.Registry
	if cfg.Registry.URL != "" {
		reg = registry.NewClient(cfg.Registry.URL, cfg.Registry.Timeout)
		netReg = reg
	}

	network := p2p.New(p2p.Config{
		NodeID:            nodeAddress,
		Host:              cfg.P2P.Host,
		Port:              cfg.P2P.Port,
		AdvertiseHost:     cfg.P2P.AdvertiseHost,
		Chain:             ldg,
		Registry:          netReg,
		DiscoveryInterval: cfg.P2P.DiscoveryInterval,
		EvHandler:         ev,
	})

	if reg != nil {
		registerNode(log, reg, network.Self(), minerWallet)
	}

	if err := network.Start(); err != nil {
		return fmt.Errorf("unable to start peer network: %w", err)
	}
	defer network.Close()

	// The worker package implements mining and applies what the peers send to
	// the ledger.
	wrk := worker.New(worker.Config{
		MinerID:   nodeAddress,
		Ledger:    ldg,
		Network:   network,
		Interval:  cfg.State.MiningInterval,
		EvHandler: ev,
	})
	defer wrk.Shutdown()

	wrk.Run(network.Events())

	if cfg.State.AutoMine {
		wrk.Start(func(block database.Block) {
			evts.Send(events.TopicBlock, block)
		})
	}

	// Keep the registry informed that the node is alive.
	var hbWG sync.WaitGroup
	hbCtx, hbCancel := context.WithCancel(context.Background())
	defer func() {
		hbCancel()
		hbWG.Wait()
	}()

	if reg != nil {
		hbWG.Add(1)
		go func() {
			defer hbWG.Done()
			heartbeatOperations(hbCtx, log, reg, nodeAddress, cfg.Registry.Heartbeat)
		}()
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debug.Mux(build, log)); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	muxCfg := handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Ledger:   ldg,
		Worker:   wrk,
		Net:      network,
		NS:       ns,
		Evts:     evts,
	}

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      handlers.PublicMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      handlers.PrivateMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// =============================================================================

// openStorage constructs the configured snapshot storage for the node.
func openStorage(kind string, dbPath string, nodeAddress string) (database.Storage, error) {
	switch kind {
	case "bolt":
		bolt, err := storage.NewBolt(storage.FileName(dbPath, nodeAddress, ".db"))
		if err != nil {
			return nil, err
		}
		return bolt, nil

	case "disk":
		disk, err := storage.NewDisk(storage.FileName(dbPath, nodeAddress, ".json"))
		if err != nil {
			return nil, err
		}
		return disk, nil
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}
