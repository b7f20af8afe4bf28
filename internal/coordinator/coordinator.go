package coordinator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
	"github.com/Jonaed13/swarm-trader/internal/builder"
	"github.com/Jonaed13/swarm-trader/internal/bundle"
	"github.com/Jonaed13/swarm-trader/internal/walletpool"
)

// maxParallelFanout bounds concurrent build/sign/submit work, matching
// walletpool's bounded-fanout discipline (spec.md §5 backpressure).
const maxParallelFanout = 20

// Config holds the tunables the execution modes read, sourced from
// internal/config.ExecutionConfig.
type Config struct {
	BundleSizeLimit      int
	BundlingEnabled      bool
	AmountVariancePct    float64
	StaggerDelay         time.Duration
	RateLimit            time.Duration
	ConfirmTimeout       time.Duration
	PositionRefreshDelay time.Duration
	DefaultSlippageBps   int
	DefaultPriorityFee   uint64
	PreflightSkip        bool
	MinReserveLamports   uint64 // buys: wallets below amountPerWallet+this are dropped, not attempted
}

// Coordinator dispatches TradeIntents across the wallet pool via one of
// four execution modes (spec.md §4.2/§4.3).
type Coordinator struct {
	pool     *walletpool.Pool
	registry *builder.Registry
	rpc      *blockchain.RPCClient
	bundle   *bundle.Client
	cfg      Config
	metrics  *Metrics

	defaultVenue builder.VenueTag
	baseMint     string

	rng *rand.Rand
}

// New constructs a Coordinator. preflightSkip is snapshotted into cfg once
// here, per spec.md §9's open-question decision — it is never re-read from
// the environment on the hot submit path.
func New(pool *walletpool.Pool, registry *builder.Registry, rpc *blockchain.RPCClient, bundleClient *bundle.Client, cfg Config, defaultVenue builder.VenueTag, baseMint string) *Coordinator {
	return &Coordinator{
		pool:         pool,
		registry:     registry,
		rpc:          rpc,
		bundle:       bundleClient,
		cfg:          cfg,
		metrics:      NewMetrics(),
		defaultVenue: defaultVenue,
		baseMint:     baseMint,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Metrics returns the coordinator's dispatch-latency tracker.
func (c *Coordinator) Metrics() *Metrics { return c.metrics }

// CoordinatedBuy builds, signs, and submits a buy across the selected
// wallets, dispatched through the auto-selected (or overridden) execution
// mode, then schedules a background position refresh.
func (c *Coordinator) CoordinatedBuy(ctx context.Context, intent TradeIntent) (*TradeResult, error) {
	intent.Action = ActionBuy
	return c.coordinate(ctx, intent)
}

// CoordinatedSell builds, signs, and submits a sell across the selected
// wallets, the same way CoordinatedBuy does for buys.
func (c *Coordinator) CoordinatedSell(ctx context.Context, intent TradeIntent) (*TradeResult, error) {
	intent.Action = ActionSell
	return c.coordinate(ctx, intent)
}

func (c *Coordinator) coordinate(ctx context.Context, intent TradeIntent) (*TradeResult, error) {
	timer := NewDispatchTimer()
	startedAt := time.Now()

	// Step 1: pre-refresh. A stale balance/position view would misprice
	// sells and risk over-committing buys.
	if err := c.pool.RefreshBalances(ctx); err != nil {
		log.Warn().Err(err).Msg("coordinator: balance pre-refresh failed, continuing with cached balances")
	}
	if intent.Action == ActionSell {
		if err := c.pool.RefreshPositions(ctx, intent.Mint); err != nil {
			log.Warn().Err(err).Msg("coordinator: position pre-refresh failed, continuing with cached positions")
		}
	}

	// Step 2: wallet selection/filtering.
	wallets, selectionErrors := c.selectWallets(intent)
	timer.MarkSelectDone()

	// Step 3: empty-check.
	if len(wallets) == 0 {
		return &TradeResult{
			Mint:      intent.Mint,
			Action:    intent.Action,
			Errors:    selectionErrors,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Error:     "no eligible wallets selected",
		}, fmt.Errorf("coordinator: no eligible wallets for %s", intent.Mint)
	}

	// Step 4: mode selection.
	mode := c.selectMode(intent, len(wallets))

	// Step 5: dispatch.
	results, bundleIDs, dispatchErrors, err := c.dispatch(ctx, mode, intent, wallets)
	timer.MarkSubmitDone()

	result := &TradeResult{
		Mint:          intent.Mint,
		Action:        intent.Action,
		Mode:          mode,
		WalletResults: results,
		BundleIDs:     bundleIDs,
		Errors:        append(selectionErrors, dispatchErrors...),
		StartedAt:     startedAt,
		Duration:      time.Since(startedAt),
	}
	for _, r := range results {
		if r.Success {
			result.Success = true
			result.SuccessCount++
			result.TotalAmount += r.AmountLamports
		}
	}
	// A dispatch-level failure (e.g. a rejected bundle) is recorded on the
	// result, not returned as a fatal error — callers read Success/Errors to
	// tell a partial dispatch from total failure, the same way a per-wallet
	// failure is recorded on its WalletResult rather than aborting the call.
	if err != nil {
		result.Error = err.Error()
		result.Errors = append(result.Errors, err.Error())
	}

	c.metrics.Record(result.Duration)

	// Step 6: background position refresh, so a fast caller doesn't block
	// on a second round-trip per wallet.
	go func() {
		time.Sleep(c.cfg.PositionRefreshDelay)
		bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.pool.RefreshPositions(bgCtx, intent.Mint); err != nil {
			log.Warn().Err(err).Str("mint", intent.Mint).Msg("coordinator: background position refresh failed")
		}
	}()

	return result, nil
}

// selectWallets applies the wallet-subset filter (if given) against the
// enabled set, otherwise uses every enabled wallet, then drops any wallet
// that cannot actually take part in this trade: a buy drops wallets whose
// cached balance can't cover the nominal per-wallet amount plus the
// configured reserve floor; a sell drops wallets with no cached position in
// the mint (spec.md §4.2 step 2). Each drop contributes one explanatory
// string to the returned slice instead of silently shrinking the roster, and
// the trade proceeds with whatever wallets survive.
func (c *Coordinator) selectWallets(intent TradeIntent) ([]*walletpool.WalletRecord, []string) {
	var candidates []*walletpool.WalletRecord
	if len(intent.WalletSubset) == 0 {
		candidates = c.pool.Enabled()
	} else {
		for _, id := range intent.WalletSubset {
			rec := c.pool.Get(id)
			if rec != nil && rec.Enabled() {
				candidates = append(candidates, rec)
			}
		}
	}

	out := make([]*walletpool.WalletRecord, 0, len(candidates))
	var errs []string
	for _, rec := range candidates {
		if intent.Action == ActionBuy {
			required := intent.Amount.FixedLamports + c.cfg.MinReserveLamports
			if rec.BalanceLamports() < required {
				errs = append(errs, fmt.Sprintf("%s: insufficient balance (%d < %d lamports required)", rec.ID(), rec.BalanceLamports(), required))
				continue
			}
		} else if rec.Holding(intent.Mint) == 0 {
			errs = append(errs, fmt.Sprintf("%s: no position in %s", rec.ID(), intent.Mint))
			continue
		}
		out = append(out, rec)
	}
	return out, errs
}

// selectMode applies spec.md §4.3's auto-selection rule: 1 wallet ->
// Parallel; 2..K -> Bundle; K+1..max -> Multi-bundle; bundling disabled ->
// Parallel regardless of count. An explicit ModeOverride always wins.
func (c *Coordinator) selectMode(intent TradeIntent, walletCount int) ExecutionMode {
	if intent.ModeOverride != nil {
		return *intent.ModeOverride
	}

	if !c.cfg.BundlingEnabled {
		return ModeParallel
	}

	switch {
	case walletCount <= 1:
		return ModeParallel
	case walletCount <= c.cfg.BundleSizeLimit:
		return ModeBundle
	default:
		return ModeMultiBundle
	}
}

// computeAmount returns the lamport amount to trade for one wallet: a buy
// takes the fixed amount plus uniform jitter of ± AmountVariancePct (so
// wallets don't all submit byte-identical amounts); a sell takes either a
// percentage of that wallet's cached position or a fixed amount.
func (c *Coordinator) computeAmount(intent TradeIntent, rec *walletpool.WalletRecord) uint64 {
	if intent.Action == ActionBuy {
		base := intent.Amount.FixedLamports
		if c.cfg.AmountVariancePct <= 0 {
			return base
		}
		variance := c.cfg.AmountVariancePct / 100.0
		jitter := (c.rng.Float64()*2 - 1) * variance // uniform in [-variance, +variance]
		adjusted := float64(base) * (1 + jitter)
		if adjusted < 0 {
			return 0
		}
		return uint64(adjusted)
	}

	// Sell.
	if intent.Amount.PercentOfPosition > 0 {
		held := rec.Holding(intent.Mint)
		return uint64(float64(held) * intent.Amount.PercentOfPosition / 100.0)
	}
	return intent.Amount.FixedLamports
}

func (c *Coordinator) slippageBps(intent TradeIntent) int {
	if intent.SlippageBps != nil {
		return *intent.SlippageBps
	}
	return c.cfg.DefaultSlippageBps
}

func (c *Coordinator) priorityFee(intent TradeIntent) uint64 {
	if intent.PriorityFeeLamports != nil {
		return *intent.PriorityFeeLamports
	}
	return c.cfg.DefaultPriorityFee
}

func (c *Coordinator) venueFor(intent TradeIntent) builder.VenueTag {
	if intent.VenueHint != nil {
		return *intent.VenueHint
	}
	return c.defaultVenue
}

// buildParamsFor assembles builder.BuildParams for one wallet's leg.
func (c *Coordinator) buildParamsFor(intent TradeIntent, rec *walletpool.WalletRecord, amount uint64) builder.BuildParams {
	return builder.BuildParams{
		Wallet:              rec.Wallet(),
		Mint:                intent.Mint,
		BaseMint:            c.baseMint,
		AmountLamports:      amount,
		SlippageBps:         c.slippageBps(intent),
		PriorityFeeLamports: c.priorityFee(intent),
		PoolAddress:         intent.PoolAddress,
	}
}

// buildAndSign builds and signs one wallet's leg of intent, without
// submitting it. Shared by every dispatch mode.
func (c *Coordinator) buildAndSign(ctx context.Context, intent TradeIntent, rec *walletpool.WalletRecord) (*builder.BuiltTx, uint64, error) {
	venue := c.venueFor(intent)
	b := c.registry.Get(venue)
	if b == nil {
		return nil, 0, fmt.Errorf("no builder registered for venue %q", venue)
	}

	amount := c.computeAmount(intent, rec)
	if amount == 0 {
		return nil, 0, fmt.Errorf("zero amount")
	}
	params := c.buildParamsFor(intent, rec, amount)

	var tx *builder.BuiltTx
	var err error
	if intent.Action == ActionBuy {
		tx, err = b.BuildBuy(ctx, params)
	} else {
		tx, err = b.BuildSell(ctx, params)
	}
	if err != nil {
		return nil, amount, fmt.Errorf("build: %w", err)
	}
	return tx, amount, nil
}

// dispatch routes to the mode-specific strategy. The second return value
// collects bundle ids (Bundle/Multi-bundle modes only); the third collects
// dispatch-level error strings that don't belong to any single WalletResult
// (e.g. a bundle chunk rejected and its fallback's own failure).
func (c *Coordinator) dispatch(ctx context.Context, mode ExecutionMode, intent TradeIntent, wallets []*walletpool.WalletRecord) ([]WalletResult, []string, []string, error) {
	switch mode {
	case ModeParallel:
		results, err := c.dispatchParallel(ctx, intent, wallets)
		return results, nil, nil, err
	case ModeBundle:
		return c.dispatchBundle(ctx, intent, wallets)
	case ModeMultiBundle:
		return c.dispatchMultiBundle(ctx, intent, wallets)
	case ModeSequential:
		results, err := c.dispatchSequential(ctx, intent, wallets)
		return results, nil, nil, err
	default:
		return nil, nil, nil, fmt.Errorf("unknown execution mode %q", mode)
	}
}

// CoordinatedQuote returns a quote for the given intent's mint/amount from
// the intent's venue (its VenueHint, else the default venue), provided that
// venue's builder implements Quoter. Other registered venues are not queried.
func (c *Coordinator) CoordinatedQuote(ctx context.Context, intent TradeIntent) (*QuoteBundle, error) {
	amount := intent.Amount.FixedLamports
	params := builder.BuildParams{
		Mint:           intent.Mint,
		BaseMint:       c.baseMint,
		AmountLamports: amount,
		SlippageBps:    c.slippageBps(intent),
		PoolAddress:    intent.PoolAddress,
	}

	venue := c.venueFor(intent)
	b := c.registry.Get(venue)
	if b == nil {
		return nil, fmt.Errorf("no builder registered for venue %q", venue)
	}

	q, err := builder.QuoteIfSupported(ctx, b, params)
	if err != nil {
		return nil, err
	}
	return &QuoteBundle{Mint: intent.Mint, Quotes: []builder.Quote{*q}}, nil
}

// Simulate builds (but never submits) every selected wallet's leg, useful
// for dry-running an intent before committing funds.
func (c *Coordinator) Simulate(ctx context.Context, intent TradeIntent) (*SimulationResult, error) {
	wallets, _ := c.selectWallets(intent)
	mode := c.selectMode(intent, len(wallets))

	result := &SimulationResult{Mint: intent.Mint, Action: intent.Action, Mode: mode}

	for _, rec := range wallets {
		tx, amount, err := c.buildAndSign(ctx, intent, rec)
		wr := WalletResult{WalletID: rec.ID(), Address: rec.Address(), AmountLamports: amount}
		if err != nil {
			wr.Error = err.Error()
		} else {
			wr.Success = true
			wr.Venue = tx.Venue
			result.TotalAmount += amount
		}
		result.WalletResults = append(result.WalletResults, wr)
	}

	return result, nil
}
