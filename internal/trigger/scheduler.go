package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Jonaed13/swarm-trader/internal/builder"
	"github.com/Jonaed13/swarm-trader/internal/coordinator"
	"github.com/Jonaed13/swarm-trader/internal/events"
)

// defaultMonitorInterval is the price monitor loop's default tick period
// (spec.md §4.5: "default every 5 s").
const defaultMonitorInterval = 5 * time.Second

// PriceSource quotes the current price of a mint, used by the price
// monitor loop to evaluate stop-loss/take-profit conditions.
type PriceSource interface {
	CurrentPrice(ctx context.Context, mint string, venue builder.VenueTag) (float64, error)
}

// Scheduler drives stop-loss/take-profit exits via a single periodic price
// monitor loop, and DCA buys via one timer per record (spec.md §4.5).
type Scheduler struct {
	coord  *coordinator.Coordinator
	prices PriceSource
	bus    *events.Bus

	interval time.Duration

	mu          sync.RWMutex
	stopLosses  map[string]*StopLossRecord
	takeProfits map[string]*TakeProfitRecord
	dcas        map[string]*DCARecord

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Scheduler. interval <= 0 uses defaultMonitorInterval.
func New(coord *coordinator.Coordinator, prices PriceSource, bus *events.Bus, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	return &Scheduler{
		coord:       coord,
		prices:      prices,
		bus:         bus,
		interval:    interval,
		stopLosses:  make(map[string]*StopLossRecord),
		takeProfits: make(map[string]*TakeProfitRecord),
		dcas:        make(map[string]*DCARecord),
		stopCh:      make(chan struct{}),
	}
}

// Start launches the price monitor loop. DCA timers are started
// independently, one per ScheduleDCA call.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.monitorLoop()
}

// Stop halts the price monitor loop and every running DCA timer.
func (s *Scheduler) Stop() {
	close(s.stopCh)

	s.mu.RLock()
	dcas := make([]*DCARecord, 0, len(s.dcas))
	for _, d := range s.dcas {
		dcas = append(dcas, d)
	}
	s.mu.RUnlock()

	for _, d := range dcas {
		s.stopDCATimer(d)
	}

	s.wg.Wait()
}

// ScheduleStopLoss registers a new stop-loss record, enabled immediately.
func (s *Scheduler) ScheduleStopLoss(mint string, trigger, sellPercent float64, slippageBps int, walletSubset []string) *StopLossRecord {
	rec := &StopLossRecord{
		ID:           uuid.NewString(),
		Mint:         mint,
		Trigger:      trigger,
		SellPercent:  sellPercent,
		WalletSubset: walletSubset,
		SlippageBps:  slippageBps,
		Enabled:      true,
		CreatedAt:    time.Now(),
	}
	s.mu.Lock()
	s.stopLosses[rec.ID] = rec
	s.mu.Unlock()
	return rec
}

// ScheduleTakeProfit registers a new take-profit record, enabled immediately.
func (s *Scheduler) ScheduleTakeProfit(mint string, trigger, sellPercent float64, slippageBps int, walletSubset []string) *TakeProfitRecord {
	rec := &TakeProfitRecord{
		ID:           uuid.NewString(),
		Mint:         mint,
		Trigger:      trigger,
		SellPercent:  sellPercent,
		WalletSubset: walletSubset,
		SlippageBps:  slippageBps,
		Enabled:      true,
		CreatedAt:    time.Now(),
	}
	s.mu.Lock()
	s.takeProfits[rec.ID] = rec
	s.mu.Unlock()
	return rec
}

// CancelStopLoss removes a stop-loss record.
func (s *Scheduler) CancelStopLoss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stopLosses, id)
}

// CancelTakeProfit removes a take-profit record.
func (s *Scheduler) CancelTakeProfit(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.takeProfits, id)
}

// ListStopLosses returns every registered stop-loss record.
func (s *Scheduler) ListStopLosses() []*StopLossRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*StopLossRecord, 0, len(s.stopLosses))
	for _, r := range s.stopLosses {
		out = append(out, r)
	}
	return out
}

// ListTakeProfits returns every registered take-profit record.
func (s *Scheduler) ListTakeProfits() []*TakeProfitRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*TakeProfitRecord, 0, len(s.takeProfits))
	for _, r := range s.takeProfits {
		out = append(out, r)
	}
	return out
}

// monitorLoop is the single periodic actor evaluating every enabled
// stop-loss/take-profit record against the current price of its mint.
func (s *Scheduler) monitorLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.evaluateOnce()
		}
	}
}

func (s *Scheduler) evaluateOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	mints := s.unionMints()
	prices := make(map[string]float64, len(mints))
	for mint := range mints {
		price, err := s.prices.CurrentPrice(ctx, mint, builder.VenueJupiter)
		if err != nil {
			// spec.md §4.5: a single mint's price-endpoint failure is
			// swallowed; the next tick retries.
			log.Info().Err(err).Str("mint", mint).Msg("trigger: price tick failed, will retry")
			continue
		}
		prices[mint] = price
	}

	s.checkStopLosses(ctx, prices)
	s.checkTakeProfits(ctx, prices)
}

func (s *Scheduler) unionMints() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mints := make(map[string]struct{})
	for _, r := range s.stopLosses {
		if r.Enabled {
			mints[r.Mint] = struct{}{}
		}
	}
	for _, r := range s.takeProfits {
		if r.Enabled {
			mints[r.Mint] = struct{}{}
		}
	}
	return mints
}

func (s *Scheduler) checkStopLosses(ctx context.Context, prices map[string]float64) {
	s.mu.RLock()
	candidates := make([]*StopLossRecord, 0, len(s.stopLosses))
	for _, r := range s.stopLosses {
		if r.Enabled {
			candidates = append(candidates, r)
		}
	}
	s.mu.RUnlock()

	for _, r := range candidates {
		price, ok := prices[r.Mint]
		if !ok || price > r.Trigger {
			continue
		}

		s.mu.Lock()
		r.Enabled = false // one-shot
		s.mu.Unlock()

		slippage := r.SlippageBps
		result, err := s.coord.CoordinatedSell(ctx, coordinator.TradeIntent{
			Mint:         r.Mint,
			Amount:       coordinator.AmountSpec{PercentOfPosition: r.SellPercent},
			WalletSubset: r.WalletSubset,
			SlippageBps:  &slippage,
		})
		if err != nil {
			log.Warn().Err(err).Str("mint", r.Mint).Msg("trigger: stop-loss exit failed")
		}
		if s.bus != nil {
			s.bus.Publish(events.Event{Topic: events.TopicStopLossFired, Payload: result})
		}
	}
}

func (s *Scheduler) checkTakeProfits(ctx context.Context, prices map[string]float64) {
	s.mu.RLock()
	candidates := make([]*TakeProfitRecord, 0, len(s.takeProfits))
	for _, r := range s.takeProfits {
		if r.Enabled {
			candidates = append(candidates, r)
		}
	}
	s.mu.RUnlock()

	for _, r := range candidates {
		price, ok := prices[r.Mint]
		if !ok || price < r.Trigger {
			continue
		}

		s.mu.Lock()
		r.Enabled = false // one-shot
		s.mu.Unlock()

		slippage := r.SlippageBps
		result, err := s.coord.CoordinatedSell(ctx, coordinator.TradeIntent{
			Mint:         r.Mint,
			Amount:       coordinator.AmountSpec{PercentOfPosition: r.SellPercent},
			WalletSubset: r.WalletSubset,
			SlippageBps:  &slippage,
		})
		if err != nil {
			log.Warn().Err(err).Str("mint", r.Mint).Msg("trigger: take-profit exit failed")
		}
		if s.bus != nil {
			s.bus.Publish(events.Event{Topic: events.TopicTakeProfitFired, Payload: result})
		}
	}
}

// ScheduleDCA registers a new DCA record and starts its own periodic timer.
func (s *Scheduler) ScheduleDCA(mint string, amountPerInterval uint64, intervalMs, totalIntervals int, venue builder.VenueTag) *DCARecord {
	rec := &DCARecord{
		ID:                uuid.NewString(),
		Mint:              mint,
		AmountPerInterval: amountPerInterval,
		IntervalMs:        intervalMs,
		TotalIntervals:    totalIntervals,
		NextExecutionAt:   time.Now().Add(time.Duration(intervalMs) * time.Millisecond),
		Enabled:           true,
		Venue:             venue,
		CreatedAt:         time.Now(),
		stopCh:            make(chan struct{}),
	}

	s.mu.Lock()
	s.dcas[rec.ID] = rec
	s.mu.Unlock()

	s.startDCATimer(rec)
	return rec
}

func (s *Scheduler) startDCATimer(rec *DCARecord) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(time.Duration(rec.IntervalMs) * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-rec.stopCh:
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				if s.tickDCA(rec) {
					return
				}
			}
		}
	}()
}

// tickDCA executes one DCA interval and returns true if the record is now
// complete (and its timer should stop).
func (s *Scheduler) tickDCA(rec *DCARecord) bool {
	s.mu.RLock()
	enabled := rec.Enabled
	s.mu.RUnlock()
	if !enabled {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	venue := rec.Venue
	result, err := s.coord.CoordinatedBuy(ctx, coordinator.TradeIntent{
		Mint:      rec.Mint,
		Amount:    coordinator.AmountSpec{FixedLamports: rec.AmountPerInterval},
		VenueHint: &venue,
	})
	if err != nil {
		// An erroring tick is logged and does not disable the record — the
		// next tick retries. No event is published for a failed tick.
		log.Warn().Err(err).Str("mint", rec.Mint).Msg("trigger: dca tick failed")
		return false
	}

	s.mu.Lock()
	rec.CompletedIntervals++
	rec.NextExecutionAt = time.Now().Add(time.Duration(rec.IntervalMs) * time.Millisecond)
	done := rec.CompletedIntervals >= rec.TotalIntervals
	if done {
		rec.Enabled = false
	}
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.Event{Topic: events.TopicDCAExecuted, Payload: result})
		if done {
			s.bus.Publish(events.Event{Topic: events.TopicDCACompleted, Payload: rec.ID})
		}
	}

	return done
}

// PauseDCA stops a record's timer but preserves CompletedIntervals.
func (s *Scheduler) PauseDCA(id string) error {
	s.mu.Lock()
	rec, ok := s.dcas[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("trigger: unknown dca record %s", id)
	}
	s.stopDCATimer(rec)
	return nil
}

// ResumeDCA restarts a paused record's timer, with NextExecutionAt reset to
// now + interval.
func (s *Scheduler) ResumeDCA(id string) error {
	s.mu.Lock()
	rec, ok := s.dcas[id]
	if ok {
		rec.stopCh = make(chan struct{})
		rec.stopOnce = sync.Once{}
		rec.NextExecutionAt = time.Now().Add(time.Duration(rec.IntervalMs) * time.Millisecond)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("trigger: unknown dca record %s", id)
	}
	s.startDCATimer(rec)
	return nil
}

// CancelDCA stops a record's timer and forgets it entirely.
func (s *Scheduler) CancelDCA(id string) {
	s.mu.Lock()
	rec, ok := s.dcas[id]
	if ok {
		delete(s.dcas, id)
	}
	s.mu.Unlock()
	if ok {
		s.stopDCATimer(rec)
	}
}

func (s *Scheduler) stopDCATimer(rec *DCARecord) {
	rec.stopOnce.Do(func() { close(rec.stopCh) })
}

// ListDCAs returns every registered DCA record.
func (s *Scheduler) ListDCAs() []*DCARecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*DCARecord, 0, len(s.dcas))
	for _, r := range s.dcas {
		out = append(out, r)
	}
	return out
}
