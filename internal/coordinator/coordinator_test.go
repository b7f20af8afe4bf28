package coordinator

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
	"github.com/Jonaed13/swarm-trader/internal/builder"
	"github.com/Jonaed13/swarm-trader/internal/bundle"
	"github.com/Jonaed13/swarm-trader/internal/walletpool"
)

// fakeBuilder is a minimal Builder stub that never touches the network:
// BuildBuy/BuildSell just stamp out a fixed payload keyed by wallet address.
type fakeBuilder struct {
	venue   builder.VenueTag
	failFor map[string]bool // address -> force a build error
}

func (f *fakeBuilder) Venue() builder.VenueTag { return f.venue }

func (f *fakeBuilder) BuildBuy(ctx context.Context, p builder.BuildParams) (*builder.BuiltTx, error) {
	return f.build(p)
}

func (f *fakeBuilder) BuildSell(ctx context.Context, p builder.BuildParams) (*builder.BuiltTx, error) {
	return f.build(p)
}

func (f *fakeBuilder) build(p builder.BuildParams) (*builder.BuiltTx, error) {
	if f.failFor != nil && f.failFor[p.Wallet.Address()] {
		return nil, errFakeBuild
	}
	return &builder.BuiltTx{SignedTxBase64: "signed-" + p.Wallet.Address(), Venue: f.venue}, nil
}

var errFakeBuild = &fakeBuildError{"fake build failure"}

type fakeBuildError struct{ msg string }

func (e *fakeBuildError) Error() string { return e.msg }

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

// newFakeRPCServer answers getBalance, sendTransaction, and
// getSignatureStatuses with canned success responses.
func newFakeRPCServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		var result interface{}
		switch req.Method {
		case "getBalance":
			result = map[string]interface{}{"value": 5_000_000_000}
		case "sendTransaction":
			result = "sig-" + base58.Encode([]byte(time.Now().Format(time.RFC3339Nano)))
		case "getSignatureStatuses":
			result = map[string]interface{}{
				"value": []interface{}{
					map[string]interface{}{"confirmationStatus": "finalized", "err": nil},
				},
			}
		default:
			result = map[string]interface{}{}
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
}

// newBalanceAwareRPCServer is like newFakeRPCServer but answers getBalance
// per-address from balances, defaulting to plenty of SOL for any address not
// listed, so selection-safety tests can starve exactly one wallet.
func newBalanceAwareRPCServer(t *testing.T, balances map[string]uint64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string        `json:"method"`
			ID     int           `json:"id"`
			Params []interface{} `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		var result interface{}
		switch req.Method {
		case "getBalance":
			balance := uint64(5_000_000_000)
			if len(req.Params) > 0 {
				if addr, ok := req.Params[0].(string); ok {
					if b, ok := balances[addr]; ok {
						balance = b
					}
				}
			}
			result = map[string]interface{}{"value": balance}
		case "sendTransaction":
			result = "sig-" + base58.Encode([]byte(time.Now().Format(time.RFC3339Nano)))
		case "getSignatureStatuses":
			result = map[string]interface{}{
				"value": []interface{}{
					map[string]interface{}{"confirmationStatus": "finalized", "err": nil},
				},
			}
		default:
			result = map[string]interface{}{}
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
}

func newFakeBundleServer(t *testing.T, reject bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reject {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0", "id": 1,
				"error": map[string]interface{}{"code": -32000, "message": "rejected"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": 1, "result": "bundle-xyz",
		})
	}))
}

func newTestCoordinator(t *testing.T, walletCount int, rpcURL, bundleURL string, cfg Config) (*Coordinator, *walletpool.Pool) {
	t.Helper()
	wallets := make([]*blockchain.Wallet, walletCount)
	for i := range wallets {
		wallets[i] = newTestWallet(t)
	}
	rpc := blockchain.NewRPCClient(rpcURL, rpcURL, "")
	pool := walletpool.New(rpc, wallets)
	reg := builder.NewRegistry(&fakeBuilder{venue: builder.VenueJupiter})
	bc := bundle.NewClient(bundleURL)

	if cfg.BundleSizeLimit == 0 {
		cfg.BundleSizeLimit = 5
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 2 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10 * time.Millisecond
	}

	c := New(pool, reg, rpc, bc, cfg, builder.VenueJupiter, "So11111111111111111111111111111111111111112")
	return c, pool
}

func TestCoordinatedBuy_SingleWalletUsesParallel(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 1, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true})

	result, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount: AmountSpec{FixedLamports: 1_000_000},
	})
	if err != nil {
		t.Fatalf("CoordinatedBuy failed: %v", err)
	}
	if result.Mode != ModeParallel {
		t.Errorf("mode = %q, want parallel for a single wallet", result.Mode)
	}
	if result.SuccessCount != 1 {
		t.Errorf("successCount = %d, want 1", result.SuccessCount)
	}
}

func TestCoordinatedBuy_MultiWalletUsesBundle(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 3, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, BundleSizeLimit: 5})

	result, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount: AmountSpec{FixedLamports: 1_000_000},
	})
	if err != nil {
		t.Fatalf("CoordinatedBuy failed: %v", err)
	}
	if result.Mode != ModeBundle {
		t.Errorf("mode = %q, want bundle for 3 wallets under limit 5", result.Mode)
	}
	if result.SuccessCount != 3 {
		t.Errorf("successCount = %d, want 3", result.SuccessCount)
	}
}

func TestCoordinatedBuy_ExceedsLimitUsesMultiBundle(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 7, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, BundleSizeLimit: 5})

	result, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount: AmountSpec{FixedLamports: 1_000_000},
	})
	if err != nil {
		t.Fatalf("CoordinatedBuy failed: %v", err)
	}
	if result.Mode != ModeMultiBundle {
		t.Errorf("mode = %q, want multi-bundle for 7 wallets over limit 5", result.Mode)
	}
	if result.SuccessCount != 7 {
		t.Errorf("successCount = %d, want 7 (all chunks should land)", result.SuccessCount)
	}
}

func TestCoordinatedBuy_BundleRejectionFailsWholeBundle(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, true) // every bundle submission is rejected
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 3, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, BundleSizeLimit: 5})

	result, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount: AmountSpec{FixedLamports: 1_000_000},
	})
	if err != nil {
		t.Fatalf("CoordinatedBuy failed: %v", err)
	}
	// Bundle mode (not multi-bundle, since 3 <= limit 5) rejects whole-bundle,
	// so every wallet should fail together rather than fall back.
	if result.SuccessCount != 0 {
		t.Errorf("successCount = %d, want 0 when the single bundle is rejected", result.SuccessCount)
	}
}

func TestCoordinatedBuy_MultiBundleChunkFallsBackToParallelOnRejection(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, true) // every bundle submission is rejected
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 7, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, BundleSizeLimit: 5})

	result, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount: AmountSpec{FixedLamports: 1_000_000},
	})
	if err != nil {
		t.Fatalf("CoordinatedBuy failed: %v", err)
	}
	// Multi-bundle mode falls each rejected chunk back to parallel dispatch,
	// which still lands against the fake RPC server, so every wallet succeeds.
	if result.Mode != ModeMultiBundle {
		t.Fatalf("mode = %q, want multi-bundle for 7 wallets", result.Mode)
	}
	if result.SuccessCount != 7 {
		t.Errorf("successCount = %d, want 7 (fallback to parallel should recover every chunk)", result.SuccessCount)
	}
}

func TestCoordinatedBuy_BundlingDisabledForcesParallel(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 4, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: false, BundleSizeLimit: 5})

	result, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount: AmountSpec{FixedLamports: 1_000_000},
	})
	if err != nil {
		t.Fatalf("CoordinatedBuy failed: %v", err)
	}
	if result.Mode != ModeParallel {
		t.Errorf("mode = %q, want parallel when bundling is disabled", result.Mode)
	}
}

func TestCoordinatedBuy_WalletSubsetFiltersToEnabled(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, pool := newTestCoordinator(t, 3, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, BundleSizeLimit: 5})
	pool.Disable("wallet_1")

	result, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:         "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount:       AmountSpec{FixedLamports: 1_000_000},
		WalletSubset: []string{"wallet_0", "wallet_1", "wallet_2"},
	})
	if err != nil {
		t.Fatalf("CoordinatedBuy failed: %v", err)
	}
	if len(result.WalletResults) != 2 {
		t.Fatalf("walletResults count = %d, want 2 (wallet_1 disabled)", len(result.WalletResults))
	}
}

func TestCoordinatedBuy_NoEligibleWalletsErrors(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, pool := newTestCoordinator(t, 2, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true})
	pool.Disable("wallet_0")
	pool.Disable("wallet_1")

	_, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount: AmountSpec{FixedLamports: 1_000_000},
	})
	if err == nil {
		t.Fatal("expected error when every wallet is disabled")
	}
}

func TestCoordinatedSell_PercentOfPositionComputesFixedAmount(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, pool := newTestCoordinator(t, 1, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true})
	rec := pool.Get("wallet_0")

	pct := 50.0
	amount := c.computeAmount(TradeIntent{
		Action: ActionSell,
		Amount: AmountSpec{PercentOfPosition: pct},
	}, rec)

	// With no position refreshed yet, holding is 0, so 50% of 0 is 0.
	if amount != 0 {
		t.Errorf("amount = %d, want 0 for an unrefreshed (zero) position", amount)
	}
}

func TestSimulate_NeverSubmits(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 2, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, BundleSizeLimit: 5})

	result, err := c.Simulate(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Action: ActionBuy,
		Amount: AmountSpec{FixedLamports: 2_000_000},
	})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	for _, wr := range result.WalletResults {
		if wr.TxSignature != "" {
			t.Errorf("simulate should never produce a tx signature, got %q", wr.TxSignature)
		}
	}
}

// buildTestWallets generates n wallets up front so their addresses are known
// before the RPC fixture (which needs to key responses by address) exists.
func buildTestWallets(t *testing.T, n int) []*blockchain.Wallet {
	t.Helper()
	wallets := make([]*blockchain.Wallet, n)
	for i := range wallets {
		wallets[i] = newTestWallet(t)
	}
	return wallets
}

func TestSelectWallets_DropsInsufficientBalanceWithReason(t *testing.T) {
	wallets := buildTestWallets(t, 2)
	starvedAddr := wallets[1].Address()

	rpcSrv := newBalanceAwareRPCServer(t, map[string]uint64{
		starvedAddr: 20_000_000, // 0.02 SOL, below the 0.1 SOL requested
	})
	defer rpcSrv.Close()

	rpc := blockchain.NewRPCClient(rpcSrv.URL, rpcSrv.URL, "")
	pool := walletpool.New(rpc, wallets)
	reg := builder.NewRegistry(&fakeBuilder{venue: builder.VenueJupiter})
	c := New(pool, reg, rpc, bundle.NewClient(""), Config{BundlingEnabled: true}, builder.VenueJupiter, "So11111111111111111111111111111111111111112")

	if err := pool.RefreshBalances(context.Background()); err != nil {
		t.Fatalf("RefreshBalances failed: %v", err)
	}

	wallets2, errs := c.selectWallets(TradeIntent{
		Action: ActionBuy,
		Amount: AmountSpec{FixedLamports: 100_000_000}, // 0.1 SOL
	})
	if len(wallets2) != 1 {
		t.Fatalf("wallets = %d, want 1 (starved wallet dropped)", len(wallets2))
	}
	if wallets2[0].Address() == starvedAddr {
		t.Fatalf("starved wallet %s should have been dropped, not selected", starvedAddr)
	}
	if len(errs) != 1 || !containsSubstring(errs[0], "insufficient balance") {
		t.Fatalf("errs = %v, want one entry mentioning insufficient balance", errs)
	}
}

// newHoldingsAwareRPCServer answers getTokenAccountsByOwner with one token
// account (amount 500) for holder, and none for anyone else.
func newHoldingsAwareRPCServer(t *testing.T, mint, holder string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string        `json:"method"`
			ID     int           `json:"id"`
			Params []interface{} `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		var value []interface{}
		if req.Method == "getTokenAccountsByOwner" {
			if owner, ok := req.Params[0].(string); ok && owner == holder {
				value = []interface{}{
					map[string]interface{}{
						"pubkey": "tokenAccount1",
						"account": map[string]interface{}{
							"data": map[string]interface{}{
								"parsed": map[string]interface{}{
									"info": map[string]interface{}{
										"mint":        mint,
										"tokenAmount": map[string]interface{}{"amount": "500", "decimals": 6},
									},
								},
							},
						},
					},
				}
			}
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": value},
		})
	}))
}

func TestSelectWallets_DropsZeroPositionOnSell(t *testing.T) {
	mint := "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	testWallets := buildTestWallets(t, 2)
	holder := testWallets[1].Address()

	rpcSrv := newHoldingsAwareRPCServer(t, mint, holder)
	defer rpcSrv.Close()

	rpc := blockchain.NewRPCClient(rpcSrv.URL, rpcSrv.URL, "")
	pool := walletpool.New(rpc, testWallets)
	reg := builder.NewRegistry(&fakeBuilder{venue: builder.VenueJupiter})
	c := New(pool, reg, rpc, bundle.NewClient(""), Config{BundlingEnabled: true}, builder.VenueJupiter, "So11111111111111111111111111111111111111112")

	if err := pool.RefreshPositions(context.Background(), mint); err != nil {
		t.Fatalf("RefreshPositions failed: %v", err)
	}

	wallets, errs := c.selectWallets(TradeIntent{
		Action: ActionSell,
		Mint:   mint,
		Amount: AmountSpec{PercentOfPosition: 100},
	})
	if len(wallets) != 1 || wallets[0].ID() != "wallet_1" {
		t.Fatalf("wallets = %+v, want only wallet_1 (wallet_0 has no position)", wallets)
	}
	if len(errs) != 1 || !containsSubstring(errs[0], "no position") {
		t.Fatalf("errs = %v, want one entry mentioning no position", errs)
	}
}

func TestComputeAmount_ZeroOrNegativeFailsWithoutBuild(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, pool := newTestCoordinator(t, 1, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, AmountVariancePct: 1000})
	rec := pool.Get("wallet_0")

	// A huge variance makes a zero/negative jittered amount likely over many
	// trials; computeAmount clamps negative results to 0 either way.
	var sawZero bool
	for i := 0; i < 200; i++ {
		if c.computeAmount(TradeIntent{Action: ActionBuy, Amount: AmountSpec{FixedLamports: 1}}, rec) == 0 {
			sawZero = true
			break
		}
	}
	if !sawZero {
		t.Skip("did not observe a zero-clamped amount in 200 trials, can't exercise the short-circuit")
	}

	_, _, err := c.buildAndSign(context.Background(), TradeIntent{
		Action: ActionBuy,
		Amount: AmountSpec{FixedLamports: 0},
	}, rec)
	if err == nil {
		t.Fatal("buildAndSign should fail on a zero computed amount")
	}
	if !containsSubstring(err.Error(), "zero amount") {
		t.Errorf("err = %q, want it to mention zero amount", err.Error())
	}
}

func TestCoordinatedBuy_BundleModeReturnsBundleID(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 3, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, BundleSizeLimit: 5})

	result, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount: AmountSpec{FixedLamports: 1_000_000},
	})
	if err != nil {
		t.Fatalf("CoordinatedBuy failed: %v", err)
	}
	if !result.Success {
		t.Error("Success should be true when at least one wallet result succeeded")
	}
	if len(result.BundleIDs) != 1 {
		t.Fatalf("BundleIDs = %v, want exactly one bundle id", result.BundleIDs)
	}
}

func TestCoordinatedBuy_BundleRejectionRecordsErrorString(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, true)
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 3, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, BundleSizeLimit: 5})

	result, err := c.CoordinatedBuy(context.Background(), TradeIntent{
		Mint:   "TokenMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Amount: AmountSpec{FixedLamports: 1_000_000},
	})
	if err != nil {
		t.Fatalf("CoordinatedBuy failed: %v", err)
	}
	if result.Success {
		t.Error("Success should be false when the whole bundle is rejected and no wallet succeeds")
	}
	if len(result.Errors) == 0 {
		t.Error("Errors should record the bundle rejection")
	}
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		func() bool {
			for i := 0; i+len(substr) <= len(s); i++ {
				if s[i:i+len(substr)] == substr {
					return true
				}
			}
			return false
		}())
}

func TestSelectMode_OverrideWins(t *testing.T) {
	rpcSrv := newFakeRPCServer(t)
	defer rpcSrv.Close()
	bundleSrv := newFakeBundleServer(t, false)
	defer bundleSrv.Close()

	c, _ := newTestCoordinator(t, 1, rpcSrv.URL, bundleSrv.URL, Config{BundlingEnabled: true, BundleSizeLimit: 5})

	override := ModeSequential
	mode := c.selectMode(TradeIntent{ModeOverride: &override}, 3)
	if mode != ModeSequential {
		t.Errorf("mode = %q, want sequential override", mode)
	}
}
