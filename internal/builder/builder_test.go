package builder

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
)

func newTestWallet(t *testing.T) *blockchain.Wallet {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	w, err := blockchain.NewWallet(base58.Encode(priv))
	if err != nil {
		t.Fatalf("NewWallet failed: %v", err)
	}
	return w
}

func TestConstantProductOut(t *testing.T) {
	out := ConstantProductOut(1000, 1000, 100)
	if out == 0 || out >= 100 {
		t.Fatalf("expected a positive out less than naive 1:1, got %d", out)
	}
}

func TestPriceFromReserves(t *testing.T) {
	if got := PriceFromReserves(0, 100); got != 0 {
		t.Errorf("PriceFromReserves(0, 100) = %v, want 0", got)
	}
	if got := PriceFromReserves(100, 200); got != 2 {
		t.Errorf("PriceFromReserves(100, 200) = %v, want 2", got)
	}
}

type fakeReserves struct {
	r *PumpFunReserves
}

func (f *fakeReserves) GetReserves(ctx context.Context, mint string) (*PumpFunReserves, error) {
	return f.r, nil
}

func TestPumpFunBuilder_QuoteAndBuild(t *testing.T) {
	fr := &fakeReserves{r: &PumpFunReserves{VirtualSolReserves: 30_000_000_000, VirtualTokenReserves: 1_000_000_000_000}}
	b := NewPumpFunBuilder(fr)

	if b.Venue() != VenuePumpFun {
		t.Fatalf("Venue() = %q, want pumpfun", b.Venue())
	}

	q, err := b.Quote(context.Background(), BuildParams{Mint: "M", AmountLamports: 1_000_000_000})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if q.OutAmount == 0 {
		t.Fatal("expected nonzero OutAmount")
	}

	wallet := newTestWallet(t)
	tx, err := b.BuildBuy(context.Background(), BuildParams{Wallet: wallet, Mint: "M", AmountLamports: 1_000_000_000, SlippageBps: 500})
	if err != nil {
		t.Fatalf("BuildBuy failed: %v", err)
	}
	if tx.Venue != VenuePumpFun || tx.SignedTxBase64 == "" {
		t.Fatalf("unexpected built tx: %+v", tx)
	}
}

type fakePools struct {
	r *PoolReserves
}

func (f *fakePools) GetPoolReserves(ctx context.Context, poolAddress, mint string) (*PoolReserves, error) {
	return f.r, nil
}

func TestRaydiumBuilder_QuoteAndBuild(t *testing.T) {
	fp := &fakePools{r: &PoolReserves{BaseReserve: 500_000_000_000, QuoteReserve: 50_000_000_000}}
	b := NewRaydiumBuilder(fp)

	q, err := b.Quote(context.Background(), BuildParams{Mint: "M", PoolAddress: "Pool1", AmountLamports: 1_000_000_000})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if q.OutAmount == 0 {
		t.Fatal("expected nonzero OutAmount")
	}

	wallet := newTestWallet(t)
	tx, err := b.BuildSell(context.Background(), BuildParams{Wallet: wallet, Mint: "M", PoolAddress: "Pool1", AmountLamports: 2_000_000, SlippageBps: 300})
	if err != nil {
		t.Fatalf("BuildSell failed: %v", err)
	}
	if tx.Venue != VenueRaydium || tx.SignedTxBase64 == "" {
		t.Fatalf("unexpected built tx: %+v", tx)
	}
}

func TestRegistry_GetAndMissing(t *testing.T) {
	fr := &fakeReserves{r: &PumpFunReserves{VirtualSolReserves: 1, VirtualTokenReserves: 1}}
	fp := &fakePools{r: &PoolReserves{BaseReserve: 1, QuoteReserve: 1}}

	reg := NewRegistry(NewPumpFunBuilder(fr), NewRaydiumBuilder(fp))

	if reg.Get(VenuePumpFun) == nil {
		t.Fatal("expected pumpfun builder registered")
	}
	if reg.Get(VenueJupiter) != nil {
		t.Fatal("expected no jupiter builder registered")
	}
}

func TestQuoteIfSupported_Unsupported(t *testing.T) {
	var b Builder = &noQuoteBuilder{}
	_, err := QuoteIfSupported(context.Background(), b, BuildParams{})
	if err != ErrNoQuote {
		t.Fatalf("expected ErrNoQuote, got %v", err)
	}
}

type noQuoteBuilder struct{}

func (n *noQuoteBuilder) Venue() VenueTag { return VenueTag("none") }
func (n *noQuoteBuilder) BuildBuy(ctx context.Context, p BuildParams) (*BuiltTx, error) {
	return nil, nil
}
func (n *noQuoteBuilder) BuildSell(ctx context.Context, p BuildParams) (*BuiltTx, error) {
	return nil, nil
}
