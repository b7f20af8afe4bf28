package venue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jonaed13/swarm-trader/internal/builder"
)

func newFakeVenueServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/coins/MintA":
			_ = json.NewEncoder(w).Encode(coinResponse{VirtualSolReserves: 30_000_000_000, VirtualTokenReserves: 1_000_000_000_000})
		case r.URL.Path == "/pools/MintB":
			_ = json.NewEncoder(w).Encode(poolResponse{BaseReserve: 500_000_000, QuoteReserve: 50_000_000_000})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestGetReserves_ParsesBondingCurveResponse(t *testing.T) {
	srv := newFakeVenueServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	reserves, err := c.GetReserves(context.Background(), "MintA")
	if err != nil {
		t.Fatalf("GetReserves failed: %v", err)
	}
	if reserves.VirtualSolReserves != 30_000_000_000 || reserves.VirtualTokenReserves != 1_000_000_000_000 {
		t.Errorf("unexpected reserves: %+v", reserves)
	}
}

func TestGetPoolReserves_FallsBackToMintWhenPoolAddressEmpty(t *testing.T) {
	srv := newFakeVenueServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	reserves, err := c.GetPoolReserves(context.Background(), "", "MintB")
	if err != nil {
		t.Fatalf("GetPoolReserves failed: %v", err)
	}
	if reserves.BaseReserve != 500_000_000 {
		t.Errorf("BaseReserve = %d, want 500000000", reserves.BaseReserve)
	}
}

func TestCurrentPrice_ComputesFromReservesPerVenue(t *testing.T) {
	srv := newFakeVenueServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)

	price, err := c.CurrentPrice(context.Background(), "MintA", builder.VenuePumpFun)
	if err != nil {
		t.Fatalf("CurrentPrice failed: %v", err)
	}
	want := builder.PriceFromReserves(1_000_000_000_000, 30_000_000_000)
	if price != want {
		t.Errorf("price = %v, want %v", price, want)
	}
}

func TestGetReserves_ErrorsOnNon200(t *testing.T) {
	srv := newFakeVenueServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	if _, err := c.GetReserves(context.Background(), "Unknown"); err == nil {
		t.Error("expected an error for an unknown mint")
	}
}
