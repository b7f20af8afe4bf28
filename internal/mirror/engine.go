package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
	"github.com/Jonaed13/swarm-trader/internal/builder"
	"github.com/Jonaed13/swarm-trader/internal/coordinator"
	"github.com/Jonaed13/swarm-trader/internal/events"
	"github.com/Jonaed13/swarm-trader/internal/storage"
	"github.com/Jonaed13/swarm-trader/internal/stream"
)

// lamportsPerSOL converts between the RPC's lamport-denominated amounts and
// the UI float amounts the decode step works in.
const lamportsPerSOL = 1_000_000_000.0

// seenTTL is how long a processed transaction id is remembered before it
// can be reprocessed (spec.md §4.4 Dedup).
const seenTTL = 5 * time.Minute

// knownProgramIDs maps program account ids to the venue they belong to,
// used to derive a DetectedTrade's venue tag from the transaction's
// account-key list.
var knownProgramIDs = map[string]string{
	"JUP6LkbZbjS1jKKwapdHNy74zcPsH7bgZkQp3WSFcHSc": "jupiter",
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  "pumpfun",
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": "raydium",
}

// Engine watches a set of Targets and re-issues their detected trades
// through a Coordinator with scaled sizes (spec.md §4.4).
type Engine struct {
	rpc    *blockchain.RPCClient
	stream *stream.Client
	coord  *coordinator.Coordinator
	bus    *events.Bus
	db     *storage.DB

	mu      sync.RWMutex
	targets map[string]*Target // keyed by address
	subIDs  map[string]uint64

	seenMu sync.Mutex
	seen   map[string]time.Time // txid -> observed-at, per target scope via key "addr:txid"

	inFlightMu sync.Mutex
	inFlight   map[string]bool // addr -> currently processing

	rng *rand.Rand
}

// New constructs a mirror Engine. The stream client must already be
// connected; the engine only adds subscriptions to it.
func New(rpc *blockchain.RPCClient, streamClient *stream.Client, coord *coordinator.Coordinator, bus *events.Bus, db *storage.DB) *Engine {
	return &Engine{
		rpc:      rpc,
		stream:   streamClient,
		coord:    coord,
		bus:      bus,
		db:       db,
		targets:  make(map[string]*Target),
		subIDs:   make(map[string]uint64),
		seen:     make(map[string]time.Time),
		inFlight: make(map[string]bool),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddTarget registers a target and, if enabled, opens its subscription.
func (e *Engine) AddTarget(t *Target) error {
	e.mu.Lock()
	e.targets[t.Address] = t
	e.mu.Unlock()

	if t.Enabled {
		return e.subscribe(t)
	}
	return nil
}

// RemoveTarget tears down a target's subscription (if any) and forgets it.
func (e *Engine) RemoveTarget(address string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if subID, ok := e.subIDs[address]; ok {
		e.stream.Unsubscribe("logsUnsubscribe", subID)
		delete(e.subIDs, address)
	}
	delete(e.targets, address)
}

// Enable opens a subscription for an existing, currently-disabled target.
func (e *Engine) Enable(address string) error {
	e.mu.Lock()
	t, ok := e.targets[address]
	if ok {
		t.Enabled = true
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("mirror: unknown target %s", address)
	}
	return e.subscribe(t)
}

// Disable drops a target's subscription but keeps its entry and stats
// (spec.md §4.4: "disabled targets keep their entry but drop the
// subscription").
func (e *Engine) Disable(address string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.targets[address]; ok {
		t.Enabled = false
	}
	if subID, ok := e.subIDs[address]; ok {
		e.stream.Unsubscribe("logsUnsubscribe", subID)
		delete(e.subIDs, address)
	}
}

// Targets returns every registered target.
func (e *Engine) Targets() []*Target {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Target, 0, len(e.targets))
	for _, t := range e.targets {
		out = append(out, t)
	}
	return out
}

// logsNotification is the shape of a logsSubscribe notification result.
type logsNotification struct {
	Value struct {
		Signature string      `json:"signature"`
		Err       interface{} `json:"err"`
	} `json:"value"`
}

func (e *Engine) subscribe(t *Target) error {
	addr := t.Address
	subID, err := e.stream.LogsSubscribe(addr, func(raw json.RawMessage) {
		var note logsNotification
		if err := json.Unmarshal(raw, &note); err != nil {
			return
		}
		if note.Value.Err != nil || note.Value.Signature == "" {
			return // a failed transaction carries nothing the mirror should copy
		}
		e.OnNotification(context.Background(), addr, note.Value.Signature)
	})
	if err != nil {
		return fmt.Errorf("mirror: subscribe %s: %w", t.Address, err)
	}
	e.mu.Lock()
	e.subIDs[t.Address] = subID
	e.mu.Unlock()
	return nil
}

// OnNotification runs the full decode->dedup->filter->size->delay->submit
// pipeline for one signature observed on a target's subscription. Exposed
// standalone (not just as the internal subscribe callback) so tests can
// drive the pipeline directly without a live websocket.
func (e *Engine) OnNotification(ctx context.Context, targetAddr, signature string) {
	e.mu.RLock()
	t, ok := e.targets[targetAddr]
	e.mu.RUnlock()
	if !ok || !t.Enabled {
		return
	}

	key := targetAddr + ":" + signature
	if e.alreadySeen(key) {
		return
	}

	if !e.tryEnterInFlight(targetAddr) {
		// spec.md §5: a storm of notifications for one target is handled by
		// dedup/in-flight, not by queuing — drop rather than block.
		return
	}
	defer e.leaveInFlight(targetAddr)

	e.markSeen(key)

	trade, err := e.decode(ctx, t, signature)
	if err != nil {
		log.Info().Err(err).Str("target", t.Name).Str("signature", signature).Msg("mirror: decode skipped")
		return
	}
	if trade == nil {
		return // not a trade this engine cares about
	}

	e.process(ctx, t, trade)
}

func (e *Engine) alreadySeen(key string) bool {
	e.seenMu.Lock()
	defer e.seenMu.Unlock()
	e.expireSeenLocked()
	_, ok := e.seen[key]
	return ok
}

func (e *Engine) markSeen(key string) {
	e.seenMu.Lock()
	defer e.seenMu.Unlock()
	e.seen[key] = time.Now()
}

func (e *Engine) expireSeenLocked() {
	cutoff := time.Now().Add(-seenTTL)
	for k, at := range e.seen {
		if at.Before(cutoff) {
			delete(e.seen, k)
		}
	}
}

func (e *Engine) tryEnterInFlight(addr string) bool {
	e.inFlightMu.Lock()
	defer e.inFlightMu.Unlock()
	if e.inFlight[addr] {
		return false
	}
	e.inFlight[addr] = true
	return true
}

func (e *Engine) leaveInFlight(addr string) {
	e.inFlightMu.Lock()
	defer e.inFlightMu.Unlock()
	delete(e.inFlight, addr)
}

// decode fetches the parsed transaction and classifies it per spec.md
// §4.4's Decode rule: the non-base-currency mint whose quantity changed,
// with a base-delta sign test against the target's own balances.
func (e *Engine) decode(ctx context.Context, t *Target, signature string) (*DetectedTrade, error) {
	parsed, err := e.rpc.GetTransaction(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction: %w", err)
	}

	idx := indexOf(parsed.AccountKeys, t.Address)
	if idx < 0 {
		return nil, fmt.Errorf("target address not in account keys")
	}

	var baseDelta float64
	if idx < len(parsed.PreBalances) && idx < len(parsed.PostBalances) {
		baseDelta = (float64(parsed.PostBalances[idx]) - float64(parsed.PreBalances[idx])) / lamportsPerSOL
	}

	mint, tokenDelta := tokenDeltaForOwner(parsed, t.Address)
	if mint == "" {
		return nil, fmt.Errorf("no non-base token balance change for target")
	}

	trade := &DetectedTrade{Signature: signature, TargetAddr: t.Address, Mint: mint, Venue: builder.VenueTag(venueFromProgramIDs(parsed.ProgramIDs))}

	switch {
	case tokenDelta > 0 && baseDelta < -epsilon:
		trade.Action = coordinator.ActionBuy
		trade.BaseAmount = -baseDelta
		trade.TokenAmount = tokenDelta
	case tokenDelta < 0 && baseDelta > epsilon:
		trade.Action = coordinator.ActionSell
		trade.BaseAmount = baseDelta
		trade.TokenAmount = -tokenDelta
	default:
		return nil, nil // ignore: doesn't look like a trade
	}

	return trade, nil
}

func indexOf(keys []string, addr string) int {
	for i, k := range keys {
		if k == addr {
			return i
		}
	}
	return -1
}

// tokenDeltaForOwner returns the mint and signed quantity delta of the
// first non-zero-delta token balance owned by addr.
func tokenDeltaForOwner(parsed *blockchain.ParsedTransaction, addr string) (string, float64) {
	pre := make(map[string]float64)
	for _, b := range parsed.PreTokenBalances {
		if b.Owner == addr {
			pre[b.Mint] = b.UIAmount
		}
	}
	post := make(map[string]float64)
	for _, b := range parsed.PostTokenBalances {
		if b.Owner == addr {
			post[b.Mint] = b.UIAmount
		}
	}

	for mint, postAmt := range post {
		delta := postAmt - pre[mint]
		if delta != 0 {
			return mint, delta
		}
	}
	for mint, preAmt := range pre {
		if _, ok := post[mint]; !ok && preAmt != 0 {
			return mint, -preAmt
		}
	}
	return "", 0
}

func venueFromProgramIDs(ids []string) string {
	for _, id := range ids {
		if v, ok := knownProgramIDs[id]; ok {
			return v
		}
	}
	return ""
}

// process runs filter -> size -> delay -> submit for one decoded trade.
func (e *Engine) process(ctx context.Context, t *Target, trade *DetectedTrade) {
	if reason := e.filter(t, trade); reason != "" {
		e.recordSkip(t, trade, reason)
		return
	}

	copyAmount := clamp(trade.BaseAmount*t.Config.Multiplier, t.Config.MinPerTrade, t.Config.MaxPerTrade)

	delay := time.Duration(t.Config.DelayMs) * time.Millisecond
	if t.Config.DelayVarianceMs > 0 {
		delay += time.Duration(e.rng.Intn(t.Config.DelayVarianceMs)) * time.Millisecond
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	e.submit(ctx, t, trade, copyAmount)
}

// filter applies spec.md §4.4's Filter rule, returning a non-empty skip
// reason or "" if the trade should proceed.
func (e *Engine) filter(t *Target, trade *DetectedTrade) string {
	if trade.Action == coordinator.ActionBuy && !t.Config.CopyBuys {
		return "buy copying disabled"
	}
	if trade.Action == coordinator.ActionSell && !t.Config.CopySells {
		return "sell copying disabled"
	}
	if contains(t.Config.MintBlockList, trade.Mint) {
		return "mint on block list"
	}
	if len(t.Config.MintAllowList) > 0 && !contains(t.Config.MintAllowList, trade.Mint) {
		return "mint not on allow list"
	}
	if trade.BaseAmount < t.Config.MinTargetAmount {
		return "below minimum target amount"
	}

	e.rolloverDailyIfNeeded(t)
	if t.Config.DailyTradeCap > 0 && t.Stats.TodayCount >= t.Config.DailyTradeCap {
		return "daily trade cap reached"
	}
	if t.Config.DailyBaseCap > 0 && t.Stats.TodayVolume >= t.Config.DailyBaseCap {
		return "daily base-currency cap reached"
	}
	if t.Config.StopAfterLossPct > 0 && t.Stats.PnL < 0 {
		lossRatio := -t.Stats.PnL / maxFloat(t.Stats.VolumeIn, 1)
		if lossRatio*100 >= t.Config.StopAfterLossPct {
			return "loss cutoff exceeded"
		}
	}

	return ""
}

func (e *Engine) rolloverDailyIfNeeded(t *Target) {
	today := time.Now().Format("2006-01-02")
	if t.Stats.TodayDate != today {
		t.Stats.TodayDate = today
		t.Stats.TodayCount = 0
		t.Stats.TodayVolume = 0
	}
}

// submit re-issues the detected trade through the Coordinator with the
// target's sizing (spec.md §4.4 Submit). A copied sell is always a
// 100%-of-position intent, per spec.md §4.4/§E's decision to follow the
// source rather than scale sells by the target's own fraction.
func (e *Engine) submit(ctx context.Context, t *Target, trade *DetectedTrade, copyAmountSOL float64) {
	mode := t.Config.ExecutionMode
	venue := t.Config.Venue

	var result *coordinator.TradeResult
	var err error

	if trade.Action == coordinator.ActionBuy {
		result, err = e.coord.CoordinatedBuy(ctx, coordinator.TradeIntent{
			Mint:         trade.Mint,
			Amount:       coordinator.AmountSpec{FixedLamports: uint64(copyAmountSOL * lamportsPerSOL)},
			ModeOverride: &mode,
			VenueHint:    &venue,
		})
	} else {
		result, err = e.coord.CoordinatedSell(ctx, coordinator.TradeIntent{
			Mint:         trade.Mint,
			Amount:       coordinator.AmountSpec{PercentOfPosition: 100},
			ModeOverride: &mode,
			VenueHint:    &venue,
		})
	}

	e.mu.Lock()
	t.Stats.Count++
	t.Stats.TodayCount++
	t.Stats.TodayVolume += copyAmountSOL
	t.Stats.LastTradeAt = time.Now()
	if trade.Action == coordinator.ActionBuy {
		t.Stats.VolumeIn += copyAmountSOL
	} else {
		t.Stats.VolumeOut += copyAmountSOL
	}
	e.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Str("target", t.Name).Str("mint", trade.Mint).Msg("mirror: copy dispatch failed")
	}

	if e.db != nil {
		e.db.InsertMirrorDetection(&storage.MirrorDetection{
			Mint:         trade.Mint,
			SourceWallet: t.Address,
			Action:       string(trade.Action),
			AmountBase:   copyAmountSOL,
			VenueTag:     string(trade.Venue),
			Copied:       err == nil,
			Timestamp:    storage.Now(),
		})
	}

	if e.bus != nil {
		e.bus.Publish(events.Event{Topic: events.TopicTradeCopied, Payload: result})
	}
}

func (e *Engine) recordSkip(t *Target, trade *DetectedTrade, reason string) {
	log.Info().Str("target", t.Name).Str("mint", trade.Mint).Str("reason", reason).Msg("mirror: filter skip")
	if e.db != nil {
		e.db.InsertMirrorDetection(&storage.MirrorDetection{
			Mint:         trade.Mint,
			SourceWallet: t.Address,
			Action:       string(trade.Action),
			AmountBase:   trade.BaseAmount,
			VenueTag:     string(trade.Venue),
			Copied:       false,
			SkipReason:   reason,
			Timestamp:    storage.Now(),
		})
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
