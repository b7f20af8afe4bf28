package builder

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog/log"
)

// PumpFunReserves is a bonding curve's virtual reserve pair. PumpFun-style
// launch venues quote off virtual (not real) reserves so the curve's price
// moves smoothly from a fixed starting point even before real liquidity has
// accumulated.
type PumpFunReserves struct {
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
}

// ReservesFetcher looks up a mint's current bonding-curve reserves, backed
// by the venue price endpoint (spec.md §6 "${venueApi}/coins/${mint}").
type ReservesFetcher interface {
	GetReserves(ctx context.Context, mint string) (*PumpFunReserves, error)
}

// PumpFunBuilder trades against a bonding-curve launch venue's constant-
// product invariant (k = virtualSol * virtualToken), the venue B referenced
// by spec.md §4.6.
type PumpFunBuilder struct {
	reserves ReservesFetcher
}

// NewPumpFunBuilder constructs a PumpFun-style venue builder.
func NewPumpFunBuilder(reserves ReservesFetcher) *PumpFunBuilder {
	return &PumpFunBuilder{reserves: reserves}
}

// Venue implements Builder.
func (b *PumpFunBuilder) Venue() VenueTag { return VenuePumpFun }

// Quote implements Quoter using the bonding curve's virtual reserves.
func (b *PumpFunBuilder) Quote(ctx context.Context, p BuildParams) (*Quote, error) {
	r, err := b.reserves.GetReserves(ctx, p.Mint)
	if err != nil {
		return nil, fmt.Errorf("pumpfun reserves: %w", err)
	}

	out := ConstantProductOut(r.VirtualSolReserves, r.VirtualTokenReserves, p.AmountLamports)
	return &Quote{Venue: VenuePumpFun, InAmount: p.AmountLamports, OutAmount: out}, nil
}

// BuildBuy spends base currency lamports against the curve for tokens.
func (b *PumpFunBuilder) BuildBuy(ctx context.Context, p BuildParams) (*BuiltTx, error) {
	return b.build(ctx, p, true)
}

// BuildSell spends tokens against the curve for base currency.
func (b *PumpFunBuilder) BuildSell(ctx context.Context, p BuildParams) (*BuiltTx, error) {
	return b.build(ctx, p, false)
}

// instruction layout mirrors internal/blockchain/transaction.go's
// compute-budget encoding: a one-byte discriminant followed by fixed-width
// fields, kept minimal since the bonding-curve program itself is out of
// scope for this repo (spec.md treats venue programs as given, §6).
const (
	pumpFunBuyDiscriminant  = 0x01
	pumpFunSellDiscriminant = 0x02
)

func (b *PumpFunBuilder) build(ctx context.Context, p BuildParams, isBuy bool) (*BuiltTx, error) {
	r, err := b.reserves.GetReserves(ctx, p.Mint)
	if err != nil {
		return nil, fmt.Errorf("pumpfun reserves: %w", err)
	}

	var minOut uint64
	if isBuy {
		minOut = applySlippageFloor(ConstantProductOut(r.VirtualSolReserves, r.VirtualTokenReserves, p.AmountLamports), p.SlippageBps)
	} else {
		minOut = applySlippageFloor(ConstantProductOut(r.VirtualTokenReserves, r.VirtualSolReserves, p.AmountLamports), p.SlippageBps)
	}

	log.Debug().Str("mint", p.Mint).Uint64("amount", p.AmountLamports).Uint64("minOut", minOut).Bool("buy", isBuy).Msg("pumpfun build")

	discriminant := byte(pumpFunSellDiscriminant)
	if isBuy {
		discriminant = pumpFunBuyDiscriminant
	}

	message := make([]byte, 1+8+8)
	message[0] = discriminant
	binary.LittleEndian.PutUint64(message[1:9], p.AmountLamports)
	binary.LittleEndian.PutUint64(message[9:17], minOut)

	signature := p.Wallet.Sign(message)
	signedTx := append(append([]byte{1}, signature...), message...)

	return &BuiltTx{SignedTxBase64: base64.StdEncoding.EncodeToString(signedTx), Venue: VenuePumpFun}, nil
}

func applySlippageFloor(amount uint64, slippageBps int) uint64 {
	if slippageBps <= 0 {
		return amount
	}
	reduced := float64(amount) * (1 - float64(slippageBps)/10000.0)
	if reduced < 0 {
		return 0
	}
	return uint64(reduced)
}
