// Package builder implements the per-venue transaction construction
// capability set described by spec.md §4.6: a small interface every venue
// implements (BuildBuy, BuildSell), with quoting as an optional extra
// capability rather than a required one — a venue without a live quote
// endpoint still builds trades, it just can't price them ahead of time.
//
// There is deliberately no base "Venue" type or embedding hierarchy here:
// each venue is a plain struct satisfying Builder, selected by VenueTag, the
// same variant-keyed-interface shape spec.md §9 calls for instead of
// inheritance.
package builder

import (
	"context"
	"fmt"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
)

// VenueTag identifies which on-chain venue a trade routes through.
type VenueTag string

const (
	VenueJupiter VenueTag = "jupiter" // venue A: aggregator across all DEXes
	VenuePumpFun VenueTag = "pumpfun" // venue B: bonding-curve launch venue
	VenueRaydium VenueTag = "raydium" // venue C: constant-product AMM
)

// BuildParams carries everything a venue needs to build one wallet's leg of
// a trade.
type BuildParams struct {
	Wallet              *blockchain.Wallet
	Mint                string
	BaseMint            string // the base currency mint, usually wrapped SOL
	AmountLamports      uint64 // buy: base currency spent; sell: raw token amount
	SlippageBps         int
	PriorityFeeLamports uint64
	PoolAddress         string // optional venue hint (spec.md §3 TradeIntent.poolAddress)
}

// BuiltTx is a signed, ready-to-submit transaction plus the venue that
// produced it (carried through to WalletResult for observability).
type BuiltTx struct {
	SignedTxBase64 string
	Venue          VenueTag
}

// Quote is a venue's estimate of trade output, used by coordinatedQuote and
// by the trigger scheduler's price checks.
type Quote struct {
	Venue          VenueTag
	InAmount       uint64
	OutAmount      uint64
	PriceImpactPct float64
}

// Builder is the capability set every venue implementation satisfies.
type Builder interface {
	Venue() VenueTag
	BuildBuy(ctx context.Context, p BuildParams) (*BuiltTx, error)
	BuildSell(ctx context.Context, p BuildParams) (*BuiltTx, error)
}

// Quoter is the optional extra capability: a venue that can price a trade
// without building it. Callers type-assert for it rather than requiring it
// on Builder (spec.md §4.6's "quote?" capability).
type Quoter interface {
	Quote(ctx context.Context, p BuildParams) (*Quote, error)
}

// ErrNoQuote is returned by venues that don't implement Quoter when a
// caller mistakenly tries to quote through the generic helper below.
var ErrNoQuote = fmt.Errorf("builder: venue does not support quoting")

// QuoteIfSupported type-asserts b to Quoter and calls it, or returns
// ErrNoQuote. This is the one place the optional capability is bridged back
// into a uniform call shape for the coordinator.
func QuoteIfSupported(ctx context.Context, b Builder, p BuildParams) (*Quote, error) {
	q, ok := b.(Quoter)
	if !ok {
		return nil, ErrNoQuote
	}
	return q.Quote(ctx, p)
}

// Registry resolves a VenueTag to its Builder implementation.
type Registry struct {
	builders map[VenueTag]Builder
}

// NewRegistry builds a venue registry from the given builders, keyed by
// their own Venue() tag.
func NewRegistry(builders ...Builder) *Registry {
	r := &Registry{builders: make(map[VenueTag]Builder, len(builders))}
	for _, b := range builders {
		r.builders[b.Venue()] = b
	}
	return r
}

// Get returns the builder for tag, or nil if no venue is registered under it.
func (r *Registry) Get(tag VenueTag) Builder {
	return r.builders[tag]
}

// PriceFromReserves returns the constant-product spot price (quote per
// base) given a pool's base and quote reserves, the same ratio used by both
// the PumpFun bonding-curve venue (virtual reserves) and the Raydium AMM
// venue (real reserves).
func PriceFromReserves(baseReserve, quoteReserve uint64) float64 {
	if baseReserve == 0 {
		return 0
	}
	return float64(quoteReserve) / float64(baseReserve)
}

// ConstantProductOut returns the output amount of a constant-product swap
// (x*y=k) given reserves and an input amount, before fees.
func ConstantProductOut(inReserve, outReserve, amountIn uint64) uint64 {
	if inReserve == 0 || outReserve == 0 || amountIn == 0 {
		return 0
	}
	k := float64(inReserve) * float64(outReserve)
	newIn := float64(inReserve) + float64(amountIn)
	newOut := k / newIn
	out := float64(outReserve) - newOut
	if out < 0 {
		return 0
	}
	return uint64(out)
}
