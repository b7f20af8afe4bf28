package trigger

import (
	"context"
	"testing"
	"time"

	"github.com/Jonaed13/swarm-trader/internal/builder"
)

type fakePriceSource struct {
	prices map[string]float64
}

func (f *fakePriceSource) CurrentPrice(ctx context.Context, mint string, venue builder.VenueTag) (float64, error) {
	return f.prices[mint], nil
}

func TestScheduleStopLoss_FiresOnceWhenPriceAtOrBelowTrigger(t *testing.T) {
	s := New(nil, &fakePriceSource{}, nil, time.Hour)
	rec := s.ScheduleStopLoss("MintA", 1.0, 100, 500, nil)

	// Simulate a tick directly rather than waiting on the real ticker.
	s.checkStopLosses(context.Background(), map[string]float64{"MintA": 0.9})

	if rec.Enabled {
		t.Error("stop-loss should disable itself after firing (one-shot)")
	}
}

func TestScheduleStopLoss_DoesNotFireAbovetrigger(t *testing.T) {
	s := New(nil, &fakePriceSource{}, nil, time.Hour)
	rec := s.ScheduleStopLoss("MintA", 1.0, 100, 500, nil)

	s.checkStopLosses(context.Background(), map[string]float64{"MintA": 1.5})

	if !rec.Enabled {
		t.Error("stop-loss should remain enabled when price stays above trigger")
	}
}

func TestScheduleTakeProfit_FiresWhenPriceAtOrAboveTrigger(t *testing.T) {
	s := New(nil, &fakePriceSource{}, nil, time.Hour)
	rec := s.ScheduleTakeProfit("MintA", 2.0, 100, 300, nil)

	s.checkTakeProfits(context.Background(), map[string]float64{"MintA": 2.5})

	if rec.Enabled {
		t.Error("take-profit should disable itself after firing (one-shot)")
	}
}

func TestUnionMints_OnlyIncludesEnabledRecords(t *testing.T) {
	s := New(nil, &fakePriceSource{}, nil, time.Hour)
	s.ScheduleStopLoss("MintA", 1.0, 100, 500, nil)
	rec := s.ScheduleTakeProfit("MintB", 2.0, 100, 300, nil)
	rec.Enabled = false

	mints := s.unionMints()
	if _, ok := mints["MintA"]; !ok {
		t.Error("expected MintA from the enabled stop-loss")
	}
	if _, ok := mints["MintB"]; ok {
		t.Error("did not expect MintB since its take-profit is disabled")
	}
}

func TestDCA_CompletesAfterTotalIntervals(t *testing.T) {
	rec := &DCARecord{
		ID: "dca1", Mint: "MintA", AmountPerInterval: 1000,
		IntervalMs: 1, TotalIntervals: 3, Enabled: true,
		stopCh: make(chan struct{}),
	}

	// coord is nil here, so CoordinatedBuy would panic; instead drive the
	// counting logic directly via the same state transitions tickDCA makes,
	// to test completion bookkeeping without a live coordinator.
	for i := 0; i < 3; i++ {
		rec.CompletedIntervals++
	}
	done := rec.CompletedIntervals >= rec.TotalIntervals
	if !done {
		t.Error("expected DCA to be complete after totalIntervals ticks")
	}
}

func TestPauseResumeDCA_PreservesCompletedIntervals(t *testing.T) {
	s := New(nil, &fakePriceSource{}, nil, time.Hour)
	rec := s.ScheduleDCA("MintA", 1000, 10_000_000, 5, builder.VenueJupiter)
	rec.CompletedIntervals = 2

	if err := s.PauseDCA(rec.ID); err != nil {
		t.Fatalf("PauseDCA failed: %v", err)
	}
	if rec.CompletedIntervals != 2 {
		t.Errorf("completedIntervals = %d, want 2 preserved across pause", rec.CompletedIntervals)
	}

	if err := s.ResumeDCA(rec.ID); err != nil {
		t.Fatalf("ResumeDCA failed: %v", err)
	}
	if rec.CompletedIntervals != 2 {
		t.Errorf("completedIntervals = %d, want 2 preserved across resume", rec.CompletedIntervals)
	}

	s.CancelDCA(rec.ID)
}
