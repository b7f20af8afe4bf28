// Package coordinator implements spec.md §4.2/§4.3: the Coordinator that
// turns a TradeIntent into wallet-level build/sign/submit work, dispatched
// through one of four execution modes, and reports back a TradeResult with
// partial-credit WalletResults.
package coordinator

import (
	"time"

	"github.com/Jonaed13/swarm-trader/internal/builder"
)

// Action is the trade direction.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// ExecutionMode is one of the four dispatch strategies (spec.md §4.3).
type ExecutionMode string

const (
	ModeParallel    ExecutionMode = "parallel"
	ModeBundle      ExecutionMode = "bundle"
	ModeMultiBundle ExecutionMode = "multi-bundle"
	ModeSequential  ExecutionMode = "sequential"
)

// AmountSpec describes how much to trade, in one of two shapes depending on
// Action: a buy uses FixedLamports (with AmountVariancePct jitter per
// wallet); a sell uses either PercentOfPosition or FixedLamports.
type AmountSpec struct {
	FixedLamports     uint64
	PercentOfPosition float64 // sell only; 0 means "use FixedLamports instead"
}

// TradeIntent is one coordinated trade request (spec.md §3).
type TradeIntent struct {
	Mint                string
	Action              Action
	Amount              AmountSpec
	WalletSubset        []string // optional; empty means "every enabled wallet"
	ModeOverride        *ExecutionMode
	SlippageBps         *int
	PriorityFeeLamports *uint64
	VenueHint           *builder.VenueTag
	PoolAddress         string
}

// WalletResult is one wallet's outcome within a TradeResult.
type WalletResult struct {
	WalletID       string
	Address        string
	Success        bool
	TxSignature    string
	AmountLamports uint64
	Venue          builder.VenueTag
	Error          string
	DurationMs     int64
}

// TradeResult is the Coordinator's response to coordinatedBuy/coordinatedSell.
// Success is true iff at least one WalletResult succeeded — a dispatch with
// 3 of 5 wallets failing is still a successful TradeResult, just a partial
// one. BundleIDs and Errors both accumulate across every chunk a multi-bundle
// dispatch submits, so either can hold more than one entry.
type TradeResult struct {
	Mint          string
	Action        Action
	Mode          ExecutionMode
	WalletResults []WalletResult
	Success       bool
	SuccessCount  int
	TotalAmount   uint64
	BundleIDs     []string // one per bundle successfully submitted (Bundle/Multi-bundle modes)
	Errors        []string // accumulated dispatch-level failures (selection drops, bundle rejections)
	StartedAt     time.Time
	Duration      time.Duration
	Error         string // set when no wallet survived selection, or when the dispatch as a whole failed (e.g. a rejected bundle)
}

// QuoteBundle is the Coordinator's response to coordinatedQuote. It holds
// the single quote of the intent's venue; other venues are not quoted.
type QuoteBundle struct {
	Mint   string
	Quotes []builder.Quote
}

// SimulationResult is the Coordinator's response to simulate: the same
// shape as TradeResult but without any submission having occurred.
type SimulationResult struct {
	Mint          string
	Action        Action
	Mode          ExecutionMode
	WalletResults []WalletResult
	TotalAmount   uint64
}
