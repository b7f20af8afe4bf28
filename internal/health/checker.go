package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Jonaed13/swarm-trader/internal/blockchain"
)

// Status represents the health status of a component.
type Status struct {
	Name    string
	Healthy bool
	Latency time.Duration
	Error   string
}

// Checker periodically checks health of the system's external dependencies:
// the chain RPC endpoint, the bundle service, and the venue price endpoint.
type Checker struct {
	mu             sync.RWMutex
	statuses       []Status
	rpcURL         string
	bundleURL      string
	venueURL       string
	blockhashCache *blockchain.BlockhashCache
}

// NewChecker creates a new health checker.
func NewChecker(rpcURL, bundleURL, venueURL string) *Checker {
	return &Checker{
		rpcURL:    rpcURL,
		bundleURL: bundleURL,
		venueURL:  venueURL,
	}
}

// Start begins periodic health checks on a 10s tick, plus an immediate check.
func (c *Checker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.check()
			}
		}
	}()

	c.check()
}

// SetBlockhashCache enables a fourth status reporting the shared blockhash
// cache's freshness. Optional: if never called, check() reports the
// original three statuses, so existing callers are unaffected.
func (c *Checker) SetBlockhashCache(cache *blockchain.BlockhashCache) {
	c.mu.Lock()
	c.blockhashCache = cache
	c.mu.Unlock()
}

func (c *Checker) check() {
	statuses := []Status{
		c.checkRPC(),
		c.checkBundleService(),
		c.checkVenue(),
	}

	c.mu.RLock()
	cache := c.blockhashCache
	c.mu.RUnlock()
	if cache != nil {
		statuses = append(statuses, c.checkBlockhashCache(cache))
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

func (c *Checker) checkBlockhashCache(cache *blockchain.BlockhashCache) Status {
	return Status{
		Name:    "BlockhashCache",
		Healthy: cache.Healthy(),
		Latency: cache.Age(),
	}
}

func (c *Checker) checkRPC() Status {
	start := time.Now()

	client := &http.Client{Timeout: 5 * time.Second}
	req, _ := http.NewRequest("POST", c.rpcURL, nil)
	req.Header.Set("Content-Type", "application/json")

	_, err := client.Do(req)
	latency := time.Since(start)

	status := Status{
		Name:    "RPC",
		Latency: latency,
		Healthy: err == nil,
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

func (c *Checker) checkBundleService() Status {
	start := time.Now()

	client := &http.Client{Timeout: 5 * time.Second}
	req, _ := http.NewRequest("POST", c.bundleURL, nil)
	req.Header.Set("Content-Type", "application/json")

	_, err := client.Do(req)
	latency := time.Since(start)

	status := Status{
		Name:    "BundleService",
		Latency: latency,
		Healthy: err == nil,
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

func (c *Checker) checkVenue() Status {
	start := time.Now()

	client := &http.Client{Timeout: 5 * time.Second}
	_, err := client.Get(c.venueURL)
	latency := time.Since(start)

	status := Status{
		Name:    "VenuePrice",
		Latency: latency,
		Healthy: err == nil,
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

// GetStatuses returns the most recent health statuses.
func (c *Checker) GetStatuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statuses
}
