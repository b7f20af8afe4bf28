package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChecker_AllHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker(srv.URL, srv.URL, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	statuses := c.GetStatuses()
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("status %s: expected healthy, got error %q", s.Name, s.Error)
		}
	}
}

func TestChecker_UnreachableEndpoint(t *testing.T) {
	c := NewChecker("http://127.0.0.1:1", "http://127.0.0.1:1", "http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	statuses := c.GetStatuses()
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if s.Healthy {
			t.Errorf("status %s: expected unhealthy for unreachable endpoint", s.Name)
		}
		if s.Error == "" {
			t.Errorf("status %s: expected error message", s.Name)
		}
	}
}

func TestChecker_LatencyRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker(srv.URL, srv.URL, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	for _, s := range c.GetStatuses() {
		if s.Latency < 0 || s.Latency > time.Second {
			t.Errorf("status %s: unexpected latency %v", s.Name, s.Latency)
		}
	}
}
