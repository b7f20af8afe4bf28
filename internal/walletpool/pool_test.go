package walletpool

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

func newBalanceServer(t *testing.T, lamports uint64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result": map[string]interface{}{
				"value": lamports,
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestPool_ListGetEnabledDisable(t *testing.T) {
	wallets := []*blockchain.Wallet{newTestWallet(t), newTestWallet(t), newTestWallet(t)}
	srv := newBalanceServer(t, 0)
	defer srv.Close()
	rpc := blockchain.NewRPCClient(srv.URL, srv.URL, "")

	p := New(rpc, wallets)

	if len(p.List()) != 3 {
		t.Fatalf("expected 3 wallets, got %d", len(p.List()))
	}
	if p.Get("wallet_1") == nil {
		t.Fatal("expected wallet_1 to exist")
	}
	if p.Get("wallet_99") != nil {
		t.Fatal("expected wallet_99 to not exist")
	}

	if len(p.Enabled()) != 3 {
		t.Fatalf("expected all 3 enabled initially, got %d", len(p.Enabled()))
	}

	if !p.Disable("wallet_1") {
		t.Fatal("Disable(wallet_1) should succeed")
	}
	if len(p.Enabled()) != 2 {
		t.Fatalf("expected 2 enabled after disable, got %d", len(p.Enabled()))
	}
	if p.Disable("wallet_missing") {
		t.Fatal("Disable of unknown id should fail")
	}

	if !p.Enable("wallet_1") {
		t.Fatal("Enable(wallet_1) should succeed")
	}
	if len(p.Enabled()) != 3 {
		t.Fatalf("expected 3 enabled after re-enable, got %d", len(p.Enabled()))
	}
}

func TestPool_RefreshBalances(t *testing.T) {
	wallets := []*blockchain.Wallet{newTestWallet(t), newTestWallet(t)}
	srv := newBalanceServer(t, 5_000_000_000)
	defer srv.Close()
	rpc := blockchain.NewRPCClient(srv.URL, srv.URL, "")

	p := New(rpc, wallets)

	if err := p.RefreshBalances(context.Background()); err != nil {
		t.Fatalf("RefreshBalances failed: %v", err)
	}

	for _, rec := range p.List() {
		if rec.BalanceLamports() != 5_000_000_000 {
			t.Errorf("%s: BalanceLamports = %d, want 5000000000", rec.ID(), rec.BalanceLamports())
		}
		if rec.BalanceSOL() != 5.0 {
			t.Errorf("%s: BalanceSOL = %v, want 5.0", rec.ID(), rec.BalanceSOL())
		}
	}
}

func TestPool_PositionBeforeRefresh(t *testing.T) {
	wallets := []*blockchain.Wallet{newTestWallet(t)}
	srv := newBalanceServer(t, 0)
	defer srv.Close()
	rpc := blockchain.NewRPCClient(srv.URL, srv.URL, "")

	p := New(rpc, wallets)

	if _, ok := p.Position("SomeMint"); ok {
		t.Fatal("expected no cached position before any refresh")
	}
	if len(p.Positions()) != 0 {
		t.Fatal("expected empty Positions() before any refresh")
	}
}

func TestPool_MarkTradedAndLastTradeAt(t *testing.T) {
	wallets := []*blockchain.Wallet{newTestWallet(t)}
	srv := newBalanceServer(t, 0)
	defer srv.Close()
	rpc := blockchain.NewRPCClient(srv.URL, srv.URL, "")

	p := New(rpc, wallets)
	rec := p.Get("wallet_0")
	if !rec.LastTradeAt().IsZero() {
		t.Fatal("expected zero LastTradeAt before any trade")
	}

	at := time.Now()
	rec.MarkTraded(at)
	if !rec.LastTradeAt().Equal(at) {
		t.Fatalf("LastTradeAt = %v, want %v", rec.LastTradeAt(), at)
	}
}
