// Package walletpool maintains the swarm's wallet roster: up to PoolSize
// WalletRecords, each independently enableable, with balance and position
// caches refreshed by bounded concurrent fan-out against shared chain-access
// primitives (internal/blockchain.RPCClient is one client shared by every
// wallet; the blockhash cache is chain-global, not per-wallet).
package walletpool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
)

// maxConcurrentRefresh bounds the fan-out used by RefreshBalances/
// RefreshPositions, per spec.md §5's backpressure rule (bounded fan-out, no
// unbounded goroutine-per-wallet).
const maxConcurrentRefresh = 20

// WalletRecord is one swarm wallet: a signing key, its cached base-currency
// balance, its cached mint->holding map, and an enabled gate.
type WalletRecord struct {
	mu sync.RWMutex

	id             string
	wallet         *blockchain.Wallet
	balanceTracker *blockchain.BalanceTracker
	holdings       map[string]uint64 // mint -> raw token amount
	lastTradeAt    time.Time
	enabled        bool
}

// ID returns the wallet's pool-assigned identifier ("wallet_0", "wallet_1", ...).
func (r *WalletRecord) ID() string { return r.id }

// Address returns the wallet's base58 address.
func (r *WalletRecord) Address() string { return r.wallet.Address() }

// Wallet returns the underlying signing wallet.
func (r *WalletRecord) Wallet() *blockchain.Wallet { return r.wallet }

// BalanceLamports returns the last-refreshed base-currency balance.
func (r *WalletRecord) BalanceLamports() uint64 { return r.balanceTracker.BalanceLamports() }

// BalanceSOL returns the last-refreshed base-currency balance in whole units.
func (r *WalletRecord) BalanceSOL() float64 { return r.balanceTracker.BalanceSOL() }

// Holding returns the cached raw token amount held for mint.
func (r *WalletRecord) Holding(mint string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.holdings[mint]
}

// LastTradeAt returns the timestamp of this wallet's most recent dispatch
// participation (zero value if it has never traded).
func (r *WalletRecord) LastTradeAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastTradeAt
}

// MarkTraded records that this wallet just participated in a dispatch,
// consumed by Sequential mode's per-wallet rate limit.
func (r *WalletRecord) MarkTraded(at time.Time) {
	r.mu.Lock()
	r.lastTradeAt = at
	r.mu.Unlock()
}

// Enabled reports whether the wallet is eligible for coordinated trades.
func (r *WalletRecord) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

func (r *WalletRecord) setEnabled(v bool) {
	r.mu.Lock()
	r.enabled = v
	r.mu.Unlock()
}

func (r *WalletRecord) setHoldings(h map[string]uint64) {
	r.mu.Lock()
	r.holdings = h
	r.mu.Unlock()
}

// Position is the swarm-wide view of a holding across every pool wallet:
// total amount and a per-wallet breakdown (spec.md §3).
type Position struct {
	Mint        string
	Total       uint64
	ByWallet    map[string]uint64
	LastUpdated time.Time
}

// Snapshot returns a deep copy safe to hand to callers outside the pool's
// single-writer discipline.
func (p Position) Snapshot() Position {
	cp := Position{Mint: p.Mint, Total: p.Total, LastUpdated: p.LastUpdated, ByWallet: make(map[string]uint64, len(p.ByWallet))}
	for k, v := range p.ByWallet {
		cp.ByWallet[k] = v
	}
	return cp
}

// Pool is the single-writer owner of the wallet roster's balance and
// position caches. All reads go through its exported accessors; all writes
// happen inside RefreshBalances/RefreshPositions, Enable/Disable, and
// WalletRecord.MarkTraded, which the coordinator calls after a successful
// submission to stamp lastTradeAt.
type Pool struct {
	rpc *blockchain.RPCClient

	mu      sync.RWMutex
	records []*WalletRecord
	byID    map[string]*WalletRecord

	positionsMu sync.RWMutex
	positions   map[string]*Position // mint -> swarm position
}

// New builds a pool from already-constructed wallets, in the order given
// (wallet_0 is keys[0], etc). rpc is the shared chain-access client every
// wallet's balance/position refresh goes through.
func New(rpc *blockchain.RPCClient, wallets []*blockchain.Wallet) *Pool {
	p := &Pool{
		rpc:       rpc,
		byID:      make(map[string]*WalletRecord, len(wallets)),
		positions: make(map[string]*Position),
	}

	for i, w := range wallets {
		id := fmt.Sprintf("wallet_%d", i)
		w.SetLabel(id)
		rec := &WalletRecord{
			id:             id,
			wallet:         w,
			balanceTracker: blockchain.NewBalanceTracker(w, rpc),
			holdings:       make(map[string]uint64),
			enabled:        true,
		}
		p.records = append(p.records, rec)
		p.byID[id] = rec
	}

	return p
}

// List returns every wallet record in pool order.
func (p *Pool) List() []*WalletRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*WalletRecord, len(p.records))
	copy(out, p.records)
	return out
}

// Get returns the wallet record with the given id, or nil if not found.
func (p *Pool) Get(id string) *WalletRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byID[id]
}

// Enabled returns every wallet currently eligible for coordinated trades.
func (p *Pool) Enabled() []*WalletRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*WalletRecord, 0, len(p.records))
	for _, r := range p.records {
		if r.Enabled() {
			out = append(out, r)
		}
	}
	return out
}

// Enable flips the gate on, returning false if id is not in the pool.
func (p *Pool) Enable(id string) bool {
	rec := p.Get(id)
	if rec == nil {
		return false
	}
	rec.setEnabled(true)
	return true
}

// Disable flips the gate off, returning false if id is not in the pool.
func (p *Pool) Disable(id string) bool {
	rec := p.Get(id)
	if rec == nil {
		return false
	}
	rec.setEnabled(false)
	return true
}

// RefreshBalances refreshes every wallet's base-currency balance with
// bounded concurrent fan-out (at most maxConcurrentRefresh in flight), and
// returns the first error encountered, if any. Partial progress (wallets
// refreshed before the error) is kept.
func (p *Pool) RefreshBalances(ctx context.Context) error {
	records := p.List()
	if len(records) == 0 {
		return nil
	}

	sem := make(chan struct{}, maxConcurrentRefresh)
	var wg sync.WaitGroup
	errCh := make(chan error, len(records))

	for _, rec := range records {
		rec := rec
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := rec.balanceTracker.Refresh(ctx); err != nil {
				log.Warn().Str("wallet", rec.id).Err(err).Msg("balance refresh failed")
				errCh <- fmt.Errorf("%s: %w", rec.id, err)
			}
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

// RefreshPositions refreshes the swarm-wide Position for mint by querying
// every wallet's token account balance, with the same bounded fan-out as
// RefreshBalances. The resulting Position replaces any cached value for
// mint atomically with respect to readers of Positions/Position.
func (p *Pool) RefreshPositions(ctx context.Context, mint string) error {
	records := p.List()
	if len(records) == 0 {
		return nil
	}

	sem := make(chan struct{}, maxConcurrentRefresh)
	var wg sync.WaitGroup
	var mu sync.Mutex
	byWallet := make(map[string]uint64, len(records))
	errCh := make(chan error, len(records))

	for _, rec := range records {
		rec := rec
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			accounts, err := p.rpc.GetTokenAccountsByOwner(ctx, rec.Address(), mint)
			if err != nil {
				log.Warn().Str("wallet", rec.id).Str("mint", mint).Err(err).Msg("position refresh failed")
				errCh <- fmt.Errorf("%s: %w", rec.id, err)
				return
			}

			var amount uint64
			for _, a := range accounts {
				amount += a.Amount
			}

			rec.mu.Lock()
			if rec.holdings == nil {
				rec.holdings = make(map[string]uint64)
			}
			rec.holdings[mint] = amount
			rec.mu.Unlock()

			mu.Lock()
			byWallet[rec.id] = amount
			mu.Unlock()
		}()
	}

	wg.Wait()
	close(errCh)

	var total uint64
	for _, v := range byWallet {
		total += v
	}

	p.positionsMu.Lock()
	p.positions[mint] = &Position{
		Mint:        mint,
		Total:       total,
		ByWallet:    byWallet,
		LastUpdated: time.Now(),
	}
	p.positionsMu.Unlock()

	for err := range errCh {
		return err
	}
	return nil
}

// Position returns the cached swarm-wide position for mint, or the zero
// value with ok=false if it has never been refreshed.
func (p *Pool) Position(mint string) (Position, bool) {
	p.positionsMu.RLock()
	defer p.positionsMu.RUnlock()
	pos, ok := p.positions[mint]
	if !ok {
		return Position{}, false
	}
	return pos.Snapshot(), true
}

// Positions returns every cached swarm position, sorted by mint for
// deterministic iteration (TUI rendering, tests).
func (p *Pool) Positions() []Position {
	p.positionsMu.RLock()
	defer p.positionsMu.RUnlock()

	out := make([]Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mint < out[j].Mint })
	return out
}
