package builder

import (
	"context"
	"fmt"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
	"github.com/Jonaed13/swarm-trader/internal/jupiter"
)

// JupiterBuilder routes trades through the Jupiter aggregator across every
// DEX it indexes, grounded on internal/jupiter.Client's quote/swap pair.
type JupiterBuilder struct {
	client   *jupiter.Client
	baseMint string
	txBuilders map[string]*blockchain.TransactionBuilder
}

// NewJupiterBuilder wraps an already-configured Jupiter client.
func NewJupiterBuilder(client *jupiter.Client, baseMint string) *JupiterBuilder {
	return &JupiterBuilder{client: client, baseMint: baseMint}
}

// Venue implements Builder.
func (b *JupiterBuilder) Venue() VenueTag { return VenueJupiter }

// Quote implements Quoter.
func (b *JupiterBuilder) Quote(ctx context.Context, p BuildParams) (*Quote, error) {
	inMint, outMint := b.baseMintOrDefault(p), p.Mint
	q, err := b.client.GetQuote(ctx, inMint, outMint, p.AmountLamports)
	if err != nil {
		return nil, fmt.Errorf("jupiter quote: %w", err)
	}

	out := Quote{Venue: VenueJupiter, InAmount: p.AmountLamports}
	fmt.Sscanf(q.OutAmount, "%d", &out.OutAmount)
	fmt.Sscanf(q.PriceImpactPct, "%f", &out.PriceImpactPct)
	return &out, nil
}

// BuildBuy spends BaseMint to acquire Mint.
func (b *JupiterBuilder) BuildBuy(ctx context.Context, p BuildParams) (*BuiltTx, error) {
	return b.build(ctx, p, b.baseMintOrDefault(p), p.Mint)
}

// BuildSell spends Mint to acquire BaseMint.
func (b *JupiterBuilder) BuildSell(ctx context.Context, p BuildParams) (*BuiltTx, error) {
	return b.build(ctx, p, p.Mint, b.baseMintOrDefault(p))
}

func (b *JupiterBuilder) baseMintOrDefault(p BuildParams) string {
	if p.BaseMint != "" {
		return p.BaseMint
	}
	return b.baseMint
}

func (b *JupiterBuilder) build(ctx context.Context, p BuildParams, inMint, outMint string) (*BuiltTx, error) {
	swapTxBase64, err := b.client.GetSwapTransaction(ctx, inMint, outMint, p.Wallet.Address(), p.AmountLamports)
	if err != nil {
		return nil, fmt.Errorf("jupiter build swap: %w", err)
	}

	// Jupiter returns an unsigned (or partially-signed) versioned
	// transaction; the wallet signs its own leg the same way the single-
	// wallet bot did.
	txBuilder := blockchain.NewTransactionBuilder(p.Wallet, nil, p.PriorityFeeLamports)
	signed, err := txBuilder.SignSerializedTransaction(swapTxBase64)
	if err != nil {
		return nil, fmt.Errorf("jupiter sign: %w", err)
	}

	return &BuiltTx{SignedTxBase64: signed, Venue: VenueJupiter}, nil
}
