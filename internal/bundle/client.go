// Package bundle implements the bundle-service client described in
// spec.md §4.6 and §6: an HTTPS JSON-RPC POST of signed transactions,
// packaged with a tip transfer to one of a handful of fixed tip accounts so
// the bundle is prioritized for atomic inclusion.
package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// TipAccounts are the fixed tip destinations a bundle's tip transfer is sent
// to, chosen uniformly at random per submission (spec.md §6).
var TipAccounts = []string{
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
	"HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe",
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
	"DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh",
	"ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt",
	"DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumK7CLjgh5",
	"3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT",
}

// DefaultTipLamports is the default tip transferred alongside a bundle when
// no override is given.
const DefaultTipLamports uint64 = 10_000

// ErrBundleRejected is returned when the bundle service responds with an
// HTTP error status or a JSON-RPC error object.
type ErrBundleRejected struct {
	StatusCode int
	Message    string
}

func (e *ErrBundleRejected) Error() string {
	return fmt.Sprintf("bundle rejected (status %d): %s", e.StatusCode, e.Message)
}

type sendBundleRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type sendBundleResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Result  string `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client submits atomic bundles of signed transactions to a block-engine
// style bundle service.
type Client struct {
	serviceURL string
	httpClient *http.Client
	rng        *rand.Rand
}

// NewClient creates a bundle-service client.
func NewClient(serviceURL string) *Client {
	return &Client{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RandomTipAccount picks one of the fixed tip accounts uniformly at random.
func (c *Client) RandomTipAccount() string {
	return TipAccounts[c.rng.Intn(len(TipAccounts))]
}

// SubmitBundle POSTs a list of base64-encoded signed transactions (which
// must already include the tip transfer leg) as a single atomic bundle and
// returns the bundle id. A non-2xx HTTP status or a JSON-RPC error object
// is always treated as failure, never partial success (spec.md §4.6).
func (c *Client) SubmitBundle(ctx context.Context, signedTxsBase64 []string) (string, error) {
	if len(signedTxsBase64) == 0 {
		return "", fmt.Errorf("bundle: no transactions to submit")
	}

	req := sendBundleRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sendBundle",
		Params:  []interface{}{signedTxsBase64},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal bundle request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.serviceURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create bundle request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("bundle submit: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ErrBundleRejected{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var parsed sendBundleResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode bundle response: %w", err)
	}

	if parsed.Error != nil {
		return "", &ErrBundleRejected{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}

	log.Info().Str("bundleId", parsed.Result).Int("txCount", len(signedTxsBase64)).Msg("bundle submitted")
	return parsed.Result, nil
}
