package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
	"github.com/Jonaed13/swarm-trader/internal/bundle"
	"github.com/Jonaed13/swarm-trader/internal/walletpool"
)

// dispatchBundle builds and signs every wallet's leg, then submits all of
// them plus a tip transaction as one atomic bundle (spec.md §4.3 Bundle
// mode, §4.6/§6). A bundle either lands whole or not at all: on rejection,
// every wallet in the bundle is marked failed with the same error, there is
// no partial credit within a single bundle.
func (c *Coordinator) dispatchBundle(ctx context.Context, intent TradeIntent, wallets []*walletpool.WalletRecord) ([]WalletResult, []string, []string, error) {
	results, bundleID, err := c.submitAsBundle(ctx, intent, wallets)
	var bundleIDs, errs []string
	if bundleID != "" {
		bundleIDs = append(bundleIDs, bundleID)
	}
	if err != nil {
		errs = append(errs, err.Error())
	}
	return results, bundleIDs, errs, err
}

// dispatchMultiBundle chunks wallets into groups of at most
// cfg.BundleSizeLimit and submits each chunk as its own atomic bundle. A
// chunk whose bundle submission fails falls back to Parallel dispatch for
// just that chunk, rather than failing every wallet in it (spec.md §4.3's
// multi-bundle fallback rule). The chunk's bundle-rejection error is kept
// (not just logged) so the caller can see why that chunk fell back, even
// though the fallback itself may still have succeeded wallet-by-wallet.
func (c *Coordinator) dispatchMultiBundle(ctx context.Context, intent TradeIntent, wallets []*walletpool.WalletRecord) ([]WalletResult, []string, []string, error) {
	chunkSize := c.cfg.BundleSizeLimit
	if chunkSize <= 0 {
		chunkSize = len(wallets)
	}

	var all []WalletResult
	var bundleIDs, errs []string
	for start := 0; start < len(wallets); start += chunkSize {
		end := start + chunkSize
		if end > len(wallets) {
			end = len(wallets)
		}
		chunk := wallets[start:end]

		results, bundleID, err := c.submitAsBundle(ctx, intent, chunk)
		if err != nil {
			log.Warn().Err(err).Int("chunkSize", len(chunk)).Msg("coordinator: bundle chunk rejected, falling back to parallel")
			errs = append(errs, fmt.Sprintf("bundle chunk rejected: %s", err.Error()))
			results, err = c.dispatchParallel(ctx, intent, chunk)
			if err != nil {
				errs = append(errs, fmt.Sprintf("parallel fallback: %s", err.Error()))
			}
		} else if bundleID != "" {
			bundleIDs = append(bundleIDs, bundleID)
		}
		all = append(all, results...)
	}

	return all, bundleIDs, errs, nil
}

// submitAsBundle builds/signs every wallet's leg plus a tip transfer from
// the first wallet, then submits the whole set atomically. Returns a
// non-nil error only when the bundle service itself rejected submission
// (not for individual build failures, which are recorded per-wallet and
// simply excluded from the submitted set).
func (c *Coordinator) submitAsBundle(ctx context.Context, intent TradeIntent, wallets []*walletpool.WalletRecord) ([]WalletResult, string, error) {
	start := time.Now()
	results := make([]WalletResult, len(wallets))
	signedTxs := make([]string, 0, len(wallets)+1)
	built := make([]int, 0, len(wallets)) // index into wallets/results of each successfully built leg

	for i, rec := range wallets {
		results[i] = WalletResult{WalletID: rec.ID(), Address: rec.Address()}
		tx, amount, err := c.buildAndSign(ctx, intent, rec)
		results[i].AmountLamports = amount
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		results[i].Venue = tx.Venue
		signedTxs = append(signedTxs, tx.SignedTxBase64)
		built = append(built, i)
	}

	if len(signedTxs) == 0 {
		return results, "", nil
	}

	tipTx, err := blockchain.BuildTipTransfer(wallets[0].Wallet(), c.bundle.RandomTipAccount(), bundle.DefaultTipLamports)
	if err != nil {
		for _, idx := range built {
			results[idx].Error = fmt.Errorf("build tip leg: %w", err).Error()
		}
		return results, "", fmt.Errorf("build tip leg: %w", err)
	}
	signedTxs = append(signedTxs, tipTx)

	bundleID, err := c.bundle.SubmitBundle(ctx, signedTxs)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		for _, idx := range built {
			results[idx].Error = blockchain.HumanErrorWithActionFor(wallets[idx].ID(), err)
			results[idx].DurationMs = elapsed
		}
		return results, "", err
	}

	for _, idx := range built {
		results[idx].Success = true
		results[idx].TxSignature = bundleID
		results[idx].DurationMs = elapsed
		wallets[idx].MarkTraded(time.Now())
	}

	log.Info().Str("bundleId", bundleID).Int("legCount", len(signedTxs)).Msg("coordinator: bundle submitted")
	return results, bundleID, nil
}
