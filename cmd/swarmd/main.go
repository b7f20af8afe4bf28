// Command swarmd is the headless swarm-trader daemon: it wires the wallet
// pool, coordinator, mirror engine, trigger scheduler, and webhook gateway
// together and runs until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
	"github.com/Jonaed13/swarm-trader/internal/builder"
	"github.com/Jonaed13/swarm-trader/internal/bundle"
	"github.com/Jonaed13/swarm-trader/internal/config"
	"github.com/Jonaed13/swarm-trader/internal/coordinator"
	"github.com/Jonaed13/swarm-trader/internal/events"
	"github.com/Jonaed13/swarm-trader/internal/gateway"
	"github.com/Jonaed13/swarm-trader/internal/health"
	"github.com/Jonaed13/swarm-trader/internal/jupiter"
	"github.com/Jonaed13/swarm-trader/internal/mirror"
	"github.com/Jonaed13/swarm-trader/internal/storage"
	"github.com/Jonaed13/swarm-trader/internal/stream"
	"github.com/Jonaed13/swarm-trader/internal/trigger"
	"github.com/Jonaed13/swarm-trader/internal/venue"
	"github.com/Jonaed13/swarm-trader/internal/walletpool"
)

type components struct {
	cfg        *config.Manager
	db         *storage.DB
	pool       *walletpool.Pool
	coord      *coordinator.Coordinator
	streamCli  *stream.Client
	mirrorEng  *mirror.Engine
	scheduler  *trigger.Scheduler
	gatewaySrv *gateway.Server
	healthChk  *health.Checker
	bus        *events.Bus
}

func main() {
	setupLogger()
	log.Info().Msg("swarmd starting")

	c := initComponents()

	if err := c.streamCli.Connect(); err != nil {
		log.Warn().Err(err).Msg("websocket connect failed, mirror engine will have no live feed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.healthChk.Start(ctx)
	c.scheduler.Start()

	go func() {
		ticker := time.NewTicker(c.cfg.GetBalanceRefresh())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.pool.RefreshBalances(context.Background()); err != nil {
					log.Warn().Err(err).Msg("balance refresh failed")
				}
			}
		}
	}()

	go func() {
		if err := c.gatewaySrv.Start(); err != nil {
			log.Error().Err(err).Msg("gateway server failed")
		}
	}()

	log.Info().
		Int("wallets", len(c.pool.List())).
		Str("baseMint", c.cfg.Get().Pool.BaseMint).
		Msg("swarmd ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()
	c.scheduler.Stop()
	_ = c.gatewaySrv.Shutdown()
	c.streamCli.Close()
	if c.db != nil {
		c.db.Close()
	}
	log.Info().Msg("swarmd stopped")
}

func initComponents() *components {
	cfg, err := config.NewManager("config/config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	poolCfg := cfg.Get().Pool

	var wallets []*blockchain.Wallet
	primaryKey := cfg.GetPrimaryKey()
	if primaryKey == "" {
		keyManager := blockchain.NewCachedKeyManager("./data", 10*time.Minute)
		wallet, err := keyManager.GetOrGenerate()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to generate primary wallet")
		}
		log.Warn().Str("address", wallet.Address()).Msg("using auto-generated primary wallet - fund this address to trade")
		wallets = append(wallets, wallet)
	} else {
		wallet, err := blockchain.NewWallet(primaryKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load primary wallet")
		}
		wallets = append(wallets, wallet)
	}

	for i := 1; i < poolCfg.Size; i++ {
		key := cfg.GetMirrorKey(i)
		if key == "" {
			log.Warn().Int("index", i).Msg("no key configured for pool slot, skipping")
			continue
		}
		wallet, err := blockchain.NewWallet(key)
		if err != nil {
			log.Error().Err(err).Int("index", i).Msg("failed to load pool wallet")
			continue
		}
		wallets = append(wallets, wallet)
	}

	rpc := blockchain.NewRPCClient(cfg.GetPrimaryRPCURL(), cfg.GetFallbackRPCURL(), cfg.GetPrimaryAPIKey())
	pool := walletpool.New(rpc, wallets)
	if err := pool.RefreshBalances(context.Background()); err != nil {
		log.Warn().Err(err).Msg("initial balance refresh failed")
	}

	builderCfg := cfg.Get().Builder
	jupiterClient := jupiter.NewClient(builderCfg.JupiterQuoteAPIURL, builderCfg.JupiterSlippageBps, time.Duration(builderCfg.JupiterTimeoutSeconds)*time.Second)
	venueClient := venue.NewClient(cfg.Get().Trigger.VenueAPIURL, 10*time.Second)

	registry := builder.NewRegistry(
		builder.NewJupiterBuilder(jupiterClient, poolCfg.BaseMint),
		builder.NewPumpFunBuilder(venueClient),
		builder.NewRaydiumBuilder(venueClient),
	)

	bundleClient := bundle.NewClient(cfg.Get().Bundle.ServiceURL)

	execCfg := cfg.Get().Execution
	coordCfg := coordinator.Config{
		BundleSizeLimit:      execCfg.BundleSizeLimit,
		BundlingEnabled:      execCfg.BundlingEnabled,
		AmountVariancePct:    execCfg.AmountVariancePct,
		StaggerDelay:         time.Duration(execCfg.StaggerDelayMs) * time.Millisecond,
		RateLimit:            time.Duration(execCfg.RateLimitMs) * time.Millisecond,
		ConfirmTimeout:       time.Duration(execCfg.ConfirmTimeoutMs) * time.Millisecond,
		PositionRefreshDelay: time.Duration(execCfg.PositionRefreshDelayMs) * time.Millisecond,
		DefaultSlippageBps:   builderCfg.JupiterSlippageBps,
		DefaultPriorityFee:   builderCfg.PriorityFeeLamports,
		PreflightSkip:        cfg.PreflightSkip(),
		MinReserveLamports:   uint64(poolCfg.MinReserveSOL * 1e9),
	}
	coord := coordinator.New(pool, registry, rpc, bundleClient, coordCfg, builder.VenueJupiter, poolCfg.BaseMint)

	db, err := storage.NewDB(cfg.Get().Storage.SQLitePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
	}

	bus := events.New()

	wsCfg := cfg.Get().WebSocket
	streamCli := stream.NewClient(cfg.GetWebSocketURL(), time.Duration(wsCfg.ReconnectDelayMs)*time.Millisecond, time.Duration(wsCfg.PingIntervalMs)*time.Millisecond)

	mirrorEng := mirror.New(rpc, streamCli, coord, bus, db)

	triggerCfg := cfg.Get().Trigger
	scheduler := trigger.New(coord, venueClient, bus, time.Duration(triggerCfg.PriceTickSeconds)*time.Second)

	gatewayCfg := cfg.Get().Gateway
	gatewaySrv := gateway.NewServer(gatewayCfg.ListenHost, gatewayCfg.ListenPort, coord)

	blockhashCache := blockchain.NewBlockhashCache(rpc, 100*time.Millisecond, 2*time.Second)
	if err := blockhashCache.Start(); err != nil {
		log.Warn().Err(err).Msg("blockhash cache failed to start")
	}

	healthChk := health.NewChecker(cfg.GetPrimaryRPCURL(), cfg.Get().Bundle.ServiceURL, cfg.Get().Trigger.VenueAPIURL)
	healthChk.SetBlockhashCache(blockhashCache)

	log.Info().
		Int("wallets", len(pool.List())).
		Msg("components initialized")

	return &components{
		cfg:        cfg,
		db:         db,
		pool:       pool,
		coord:      coord,
		streamCli:  streamCli,
		mirrorEng:  mirrorEng,
		scheduler:  scheduler,
		gatewaySrv: gatewaySrv,
		healthChk:  healthChk,
		bus:        bus,
	}
}

func setupLogger() {
	log.Logger = zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"},
	).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "1" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
