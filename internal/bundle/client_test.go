package bundle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSubmitBundle_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  "bundle-abc123",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	id, err := c.SubmitBundle(context.Background(), []string{"tx1base64", "tx2base64"})
	if err != nil {
		t.Fatalf("SubmitBundle failed: %v", err)
	}
	if id != "bundle-abc123" {
		t.Errorf("bundle id = %q, want bundle-abc123", id)
	}
}

func TestSubmitBundle_JSONRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]interface{}{"code": -32000, "message": "bundle too large"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SubmitBundle(context.Background(), []string{"tx1"})
	if err == nil {
		t.Fatal("expected error for JSON-RPC error object")
	}
	if _, ok := err.(*ErrBundleRejected); !ok {
		t.Fatalf("expected *ErrBundleRejected, got %T: %v", err, err)
	}
}

func TestSubmitBundle_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SubmitBundle(context.Background(), []string{"tx1"})
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestSubmitBundle_Empty(t *testing.T) {
	c := NewClient("http://unused")
	_, err := c.SubmitBundle(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for empty tx list")
	}
}

func TestRandomTipAccount_PicksFromFixedSet(t *testing.T) {
	c := NewClient("http://unused")
	picked := make(map[string]bool)
	for i := 0; i < 50; i++ {
		picked[c.RandomTipAccount()] = true
	}
	for addr := range picked {
		found := false
		for _, known := range TipAccounts {
			if known == addr {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("RandomTipAccount returned unknown address %q", addr)
		}
	}
}
