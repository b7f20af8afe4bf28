package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
	"github.com/Jonaed13/swarm-trader/internal/walletpool"
)

// dispatchSequential submits one wallet at a time, in the given order, each
// gated by that wallet's own time-since-last-trade and a randomized stagger
// delay between submissions, waiting for each to reach a terminal
// confirmation status (or time out) before moving to the next wallet
// (spec.md §4.3 Sequential mode — the only mode that confirms inline rather
// than in the background).
func (c *Coordinator) dispatchSequential(ctx context.Context, intent TradeIntent, wallets []*walletpool.WalletRecord) ([]WalletResult, error) {
	results := make([]WalletResult, 0, len(wallets))

	for i, rec := range wallets {
		if wait := c.walletRateWait(rec); wait > 0 {
			select {
			case <-ctx.Done():
				results = append(results, WalletResult{
					WalletID: rec.ID(),
					Address:  rec.Address(),
					Error:    ctx.Err().Error(),
				})
				continue
			case <-time.After(wait):
			}
		}

		wr := c.dispatchOneConfirmed(ctx, intent, rec)
		results = append(results, wr)

		if i < len(wallets)-1 && c.cfg.StaggerDelay > 0 {
			jitter := time.Duration(c.rng.Int63n(int64(c.cfg.StaggerDelay) + 1))
			select {
			case <-ctx.Done():
			case <-time.After(c.cfg.StaggerDelay + jitter):
			}
		}
	}

	return results, nil
}

// walletRateWait returns how long to wait before this wallet may submit
// again, based on its own LastTradeAt rather than a single shared gate — a
// wallet that hasn't traded in an hour submits immediately, while one that
// traded a second ago waits out the remainder of cfg.RateLimit.
func (c *Coordinator) walletRateWait(rec *walletpool.WalletRecord) time.Duration {
	if c.cfg.RateLimit <= 0 {
		return 0
	}
	last := rec.LastTradeAt()
	if last.IsZero() {
		return 0
	}
	elapsed := time.Since(last)
	if elapsed >= c.cfg.RateLimit {
		return 0
	}
	return c.cfg.RateLimit - elapsed
}

// dispatchOneConfirmed builds, signs, submits, and then polls a single
// wallet's leg to a terminal status before returning, bounded by
// cfg.ConfirmTimeout.
func (c *Coordinator) dispatchOneConfirmed(ctx context.Context, intent TradeIntent, rec *walletpool.WalletRecord) WalletResult {
	start := time.Now()
	wr := WalletResult{WalletID: rec.ID(), Address: rec.Address()}

	tx, amount, err := c.buildAndSign(ctx, intent, rec)
	wr.AmountLamports = amount
	if err != nil {
		wr.Error = err.Error()
		wr.DurationMs = time.Since(start).Milliseconds()
		return wr
	}
	wr.Venue = tx.Venue

	sig, err := c.rpc.SendTransaction(ctx, tx.SignedTxBase64, c.cfg.PreflightSkip)
	if err != nil {
		wr.Error = blockchain.HumanErrorWithActionFor(rec.ID(), err)
		wr.DurationMs = time.Since(start).Milliseconds()
		return wr
	}
	wr.TxSignature = sig

	confirmCtx, cancel := context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

confirmLoop:
	for {
		select {
		case <-confirmCtx.Done():
			wr.Error = "confirmation timed out"
			break confirmLoop
		case <-ticker.C:
			result, err := c.rpc.CheckTransaction(confirmCtx, sig)
			if err != nil {
				continue
			}
			switch result.Status {
			case "SUCCESS":
				wr.Success = true
				rec.MarkTraded(time.Now())
				break confirmLoop
			case "FAILED":
				wr.Error = blockchain.HumanErrorWithActionFor(rec.ID(), errors.New(result.Message))
				break confirmLoop
			}
		}
	}

	wr.DurationMs = time.Since(start).Milliseconds()
	return wr
}
