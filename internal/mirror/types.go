// Package mirror implements spec.md §4.4: the wallet-mirroring trade
// detector that watches external addresses, decodes their trades from the
// chain, and re-issues them through the Coordinator with scaled sizes.
package mirror

import (
	"time"

	"github.com/Jonaed13/swarm-trader/internal/builder"
	"github.com/Jonaed13/swarm-trader/internal/coordinator"
)

// MirrorConfig tunes how a Target's detected trades are filtered, sized,
// and re-submitted.
type MirrorConfig struct {
	Multiplier       float64
	MinPerTrade      float64 // base-currency units
	MaxPerTrade      float64
	DelayMs          int
	DelayVarianceMs  int
	CopyBuys         bool
	CopySells        bool
	MintAllowList    []string // empty means "allow all"
	MintBlockList    []string
	MinTargetAmount  float64
	DailyTradeCap    int
	DailyBaseCap     float64
	StopAfterLossPct float64 // 0 disables the loss cutoff
	ExecutionMode    coordinator.ExecutionMode
	Venue            builder.VenueTag
}

// Stats accumulates a Target's running totals, reset daily for the
// daily-cap fields.
type Stats struct {
	Count        int
	VolumeIn     float64 // total base-currency spent copying buys
	VolumeOut    float64 // total base-currency received copying sells
	PnL          float64
	TodayCount   int
	TodayVolume  float64
	TodayDate    string // YYYY-MM-DD, used to detect day rollover
	LastTradeAt  time.Time
}

// Target is one external address being watched.
type Target struct {
	Address string
	Name    string
	Enabled bool
	Config  MirrorConfig
	Stats   Stats
}

// Action classifies a decoded trade, mirroring coordinator.Action.
type Action = coordinator.Action

// DetectedTrade is the result of decoding one of a target's confirmed
// transactions (spec.md §4.4 Decode).
type DetectedTrade struct {
	Signature  string
	TargetAddr string
	Mint       string
	Action     Action
	BaseAmount float64
	TokenAmount float64
	Venue      builder.VenueTag
}

// epsilon is the minimum base-currency delta treated as a real trade rather
// than noise (fees, rent, dust).
const epsilon = 0.001
