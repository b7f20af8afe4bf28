// Command swarmtui is the interactive swarm-trader dashboard: the same
// components as swarmd, wired instead to a bubbletea terminal UI.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Jonaed13/swarm-trader/internal/analytics"
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
	"github.com/Jonaed13/swarm-trader/internal/tui"
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

	c := initComponents()

	if err := c.streamCli.Connect(); err != nil {
		log.Warn().Err(err).Msg("websocket connect failed, mirror engine will have no live feed")
	}

	model := tui.NewModel(c.cfg)

	model.SetCallbacks(
		togglePauseFunc(c),
		forceCloseFunc(c),
		sellAllFunc(c),
		exportFunc(c),
	)

	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.healthChk.Start(ctx)
	c.scheduler.Start()

	go func() {
		if err := c.gatewaySrv.Start(); err != nil {
			log.Error().Err(err).Msg("gateway server failed")
		}
	}()

	go tailLog(p, "data/swarmtui.log")
	go forwardCopies(ctx, p, c.bus)
	go pollDetections(ctx, p, c.db)
	go pollPositionsAndStats(ctx, p, c)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	cancel()
	c.scheduler.Stop()
	_ = c.gatewaySrv.Shutdown()
	c.streamCli.Close()
	if c.db != nil {
		c.db.Close()
	}
}

// togglePauseFunc pauses the swarm by disabling every mirror target, rather
// than flipping a config flag — there is no single "auto trading" switch in
// a multi-target mirror setup.
func togglePauseFunc(c *components) func() {
	paused := false
	return func() {
		paused = !paused
		for _, t := range c.mirrorEng.Targets() {
			if paused {
				c.mirrorEng.Disable(t.Address)
			} else {
				_ = c.mirrorEng.Enable(t.Address)
			}
		}
	}
}

func forceCloseFunc(c *components) func(string) {
	return func(mint string) {
		go func() {
			_, err := c.coord.CoordinatedSell(context.Background(), coordinator.TradeIntent{
				Mint:   mint,
				Action: coordinator.ActionSell,
				Amount: coordinator.AmountSpec{PercentOfPosition: 100},
			})
			if err != nil {
				log.Error().Err(err).Str("mint", mint).Msg("force close failed")
			}
		}()
	}
}

// sellAllFunc is the panic-sell callback (F9): close every position the
// pool currently holds.
func sellAllFunc(c *components) func() {
	return func() {
		go func() {
			for _, pos := range c.pool.Positions() {
				_, err := c.coord.CoordinatedSell(context.Background(), coordinator.TradeIntent{
					Mint:   pos.Mint,
					Action: coordinator.ActionSell,
					Amount: coordinator.AmountSpec{PercentOfPosition: 100},
				})
				if err != nil {
					log.Error().Err(err).Str("mint", pos.Mint).Msg("panic sell failed")
				}
			}
		}()
	}
}

func exportFunc(c *components) func() {
	return func() {
		if c.db == nil {
			return
		}
		path := fmt.Sprintf("trades_%s.csv", time.Now().Format("20060102_150405"))
		if err := analytics.ExportTradesToCSV(c.db, path); err != nil {
			log.Error().Err(err).Msg("CSV export failed")
		} else {
			log.Info().Str("path", path).Msg("trades exported to CSV")
		}
	}
}

// forwardCopies relays TopicTradeCopied events straight to the TUI feed as
// confirmed copies.
func forwardCopies(ctx context.Context, p *tea.Program, bus *events.Bus) {
	ch := bus.Subscribe(events.TopicTradeCopied)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			result, ok := ev.Payload.(*coordinator.TradeResult)
			if !ok || result == nil {
				continue
			}
			tui.SendTrade(p, &tui.FeedEntry{
				Timestamp: time.Now().Unix(),
				Mint:      result.Mint,
				Action:    string(result.Action),
				AmountSOL: float64(result.TotalAmount) / 1e9,
				Copied:    result.SuccessCount > 0,
			})
		}
	}
}

// pollDetections tails the mirror_detections table for new rows and sends
// each one to the TUI feed as an initial (uncopied) detection — the
// forwardCopies goroutine marks matching mints copied once the coordinator
// confirms the dispatch.
func pollDetections(ctx context.Context, p *tea.Program, db *storage.DB) {
	if db == nil {
		return
	}
	var lastID int64
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rows, err := db.GetRecentMirrorDetections(20)
			if err != nil {
				continue
			}
			for i := len(rows) - 1; i >= 0; i-- {
				d := rows[i]
				if d.ID <= lastID {
					continue
				}
				tui.SendTrade(p, &tui.FeedEntry{
					Timestamp: d.Timestamp,
					Mint:      d.Mint,
					Action:    d.Action,
					AmountSOL: d.AmountBase,
					Copied:    d.Copied,
				})
			}
			if len(rows) > 0 && rows[0].ID > lastID {
				lastID = rows[0].ID
			}
		}
	}
}

// pollPositionsAndStats refreshes wallet balances, pooled positions, and
// aggregate trade stats on a fixed cadence.
func pollPositionsAndStats(ctx context.Context, p *tea.Program, c *components) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := c.pool.RefreshBalances(context.Background()); err != nil {
				log.Warn().Err(err).Msg("balance refresh failed")
			}
			latencyMs := time.Since(start).Milliseconds()

			var totalSOL float64
			for _, w := range c.pool.List() {
				totalSOL += w.BalanceSOL()
			}
			tui.SendBalance(p, totalSOL)
			tui.SendLatency(p, latencyMs)
			tui.SendPositions(p, c.pool.Positions())

			if c.db != nil {
				if trades, _, pnl, err := c.db.GetTradingStats(); err == nil {
					copied := 0
					if rows, err := c.db.GetRecentMirrorDetections(200); err == nil {
						for _, r := range rows {
							if r.Copied {
								copied++
							}
						}
					}
					tui.SendStats(p, trades, copied, pnl)
				}
			}
		}
	}
}

func tailLog(p *tea.Program, path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	file.Seek(0, 2)

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		line = strings.TrimSpace(line)
		if line != "" {
			tui.SendLogs(p, []string{line})
		}
	}
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
	logFile, err := os.OpenFile("data/swarmtui.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open log file: %v\n", err)
		log.Logger = zerolog.Nop()
		return
	}

	log.Logger = zerolog.New(logFile).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "1" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
