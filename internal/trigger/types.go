// Package trigger implements spec.md §4.5: price-conditional exits
// (stop-loss, take-profit) and time-based DCA buys, both driving the
// Coordinator the same way the mirror engine does.
package trigger

import (
	"sync"
	"time"

	"github.com/Jonaed13/swarm-trader/internal/builder"
	"github.com/Jonaed13/swarm-trader/internal/coordinator"
)

// StopLossRecord exits a position once price falls to or below Trigger.
type StopLossRecord struct {
	ID           string
	Mint         string
	Trigger      float64
	SellPercent  float64
	WalletSubset []string
	SlippageBps  int // widened slippage policy for the exit
	Enabled      bool
	CreatedAt    time.Time
}

// TakeProfitRecord exits a position once price rises to or above Trigger.
type TakeProfitRecord struct {
	ID           string
	Mint         string
	Trigger      float64
	SellPercent  float64
	WalletSubset []string
	SlippageBps  int // nominal slippage, unlike the stop-loss's widened policy
	Enabled      bool
	CreatedAt    time.Time
}

// DCARecord issues a recurring buy every IntervalMs until TotalIntervals
// buys have completed.
type DCARecord struct {
	ID                 string
	Mint               string
	AmountPerInterval  uint64
	IntervalMs         int
	TotalIntervals     int
	CompletedIntervals int
	NextExecutionAt    time.Time
	Enabled            bool
	Venue              builder.VenueTag
	CreatedAt          time.Time

	stopCh    chan struct{}
	stopOnce  sync.Once
}

// Action mirrors coordinator.Action for readability in this package.
type Action = coordinator.Action
