package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
	"github.com/Jonaed13/swarm-trader/internal/walletpool"
)

// dispatchParallel builds, signs, and submits every wallet's leg
// concurrently (bounded to maxParallelFanout in flight), collecting
// per-wallet results independently so one wallet's failure never blocks
// another's (spec.md §4.3 Parallel mode). Confirmation is not awaited here:
// it happens in the background so the caller gets submission results fast.
func (c *Coordinator) dispatchParallel(ctx context.Context, intent TradeIntent, wallets []*walletpool.WalletRecord) ([]WalletResult, error) {
	results := make([]WalletResult, len(wallets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFanout)

	for i, rec := range wallets {
		i, rec := i, rec
		g.Go(func() error {
			results[i] = c.dispatchOne(gctx, intent, rec)
			return nil
		})
	}
	// errgroup's error is never propagated: a per-wallet failure is recorded
	// in its WalletResult, not treated as a fatal dispatch error.
	_ = g.Wait()

	return results, nil
}

// dispatchOne performs the build/sign/submit sequence for a single wallet
// and, on success, launches a background confirmation watcher. Shared by
// Parallel dispatch and Multi-bundle's per-chunk fallback to Parallel.
func (c *Coordinator) dispatchOne(ctx context.Context, intent TradeIntent, rec *walletpool.WalletRecord) WalletResult {
	start := time.Now()
	wr := WalletResult{WalletID: rec.ID(), Address: rec.Address()}

	tx, amount, err := c.buildAndSign(ctx, intent, rec)
	wr.AmountLamports = amount
	if err != nil {
		wr.Error = err.Error()
		wr.DurationMs = time.Since(start).Milliseconds()
		return wr
	}

	sig, err := c.rpc.SendTransaction(ctx, tx.SignedTxBase64, c.cfg.PreflightSkip)
	wr.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		wr.Error = blockchain.HumanErrorWithActionFor(rec.ID(), err)
		wr.Venue = tx.Venue
		return wr
	}

	wr.Success = true
	wr.TxSignature = sig
	wr.Venue = tx.Venue
	rec.MarkTraded(time.Now())

	c.watchConfirmation(sig)
	return wr
}

// watchConfirmation polls a submitted signature to completion in the
// background, purely for logging; dispatch never blocks on it.
func (c *Coordinator) watchConfirmation(signature string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConfirmTimeout)
		defer cancel()

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Warn().Str("signature", signature).Msg("coordinator: confirmation watch timed out")
				return
			case <-ticker.C:
				result, err := c.rpc.CheckTransaction(ctx, signature)
				if err != nil {
					continue
				}
				switch result.Status {
				case "SUCCESS":
					log.Info().Str("signature", signature).Msg("coordinator: transaction confirmed")
					return
				case "FAILED":
					log.Warn().Str("signature", signature).Str("error", blockchain.HumanError(errors.New(result.Message))).Msg("coordinator: transaction failed on-chain")
					return
				}
			}
		}
	}()
}
