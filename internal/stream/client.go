// Package stream provides the websocket JSON-RPC subscription client shared
// by the mirror engine's log-notification watches and any push-based price
// tracking. The wire protocol follows the chain's standard subscribe/
// notify convention: a subscribe request gets a numeric subscription id back
// in its result, and subsequent notifications carry that id in
// params.subscription.
package stream

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client is a reconnecting websocket JSON-RPC client with a subscription
// registry keyed by subscription id.
type Client struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	connMu sync.Mutex
	conn   *websocket.Conn

	writeMu sync.Mutex

	nextReqID atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan subscribeResult

	handlersMu sync.RWMutex
	handlers   map[uint64]func(json.RawMessage)

	onConnect    func()
	onDisconnect func(error)

	stopCh chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool
}

type subscribeResult struct {
	subID uint64
	err   error
}

type rpcEnvelope struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Method string `json:"method"`
	Params struct {
		Subscription uint64          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// NewClient creates a websocket client that reconnects after reconnectDelay
// and pings every pingInterval to keep the connection alive.
func NewClient(url string, reconnectDelay, pingInterval time.Duration) *Client {
	return &Client{
		url:            url,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		pending:        make(map[uint64]chan subscribeResult),
		handlers:       make(map[uint64]func(json.RawMessage)),
		stopCh:         make(chan struct{}),
	}
}

// SetCallbacks registers connection lifecycle callbacks.
func (c *Client) SetCallbacks(onConnect func(), onDisconnect func(error)) {
	c.onConnect = onConnect
	c.onDisconnect = onDisconnect
}

// Connect dials the endpoint and starts the read/ping/reconnect loops.
func (c *Client) Connect() error {
	if err := c.dial(); err != nil {
		return err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return nil
}

func (c *Client) dial() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	if c.onConnect != nil {
		c.onConnect()
	}

	return nil
}

// Close stops all loops and closes the underlying connection.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	close(c.stopCh)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
}

func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			c.reconnect()
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			log.Warn().Err(err).Msg("stream read failed, reconnecting")
			if c.onDisconnect != nil {
				c.onDisconnect(err)
			}
			c.reconnect()
			continue
		}

		c.dispatch(message)
	}
}

func (c *Client) dispatch(message []byte) {
	var env rpcEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		log.Warn().Err(err).Msg("stream: malformed message")
		return
	}

	if env.ID != nil {
		c.pendingMu.Lock()
		ch, ok := c.pending[*env.ID]
		if ok {
			delete(c.pending, *env.ID)
		}
		c.pendingMu.Unlock()

		if !ok {
			return
		}

		if env.Error != nil {
			ch <- subscribeResult{err: fmt.Errorf("subscribe error %d: %s", env.Error.Code, env.Error.Message)}
			return
		}

		var subID uint64
		if err := json.Unmarshal(env.Result, &subID); err != nil {
			ch <- subscribeResult{err: fmt.Errorf("decode subscription id: %w", err)}
			return
		}
		ch <- subscribeResult{subID: subID}
		return
	}

	if env.Params.Subscription == 0 && env.Method == "" {
		return
	}

	c.handlersMu.RLock()
	handler, ok := c.handlers[env.Params.Subscription]
	c.handlersMu.RUnlock()

	if ok {
		handler(env.Params.Result)
	}
}

func (c *Client) reconnect() {
	select {
	case <-c.stopCh:
		return
	case <-time.After(c.reconnectDelay):
	}

	if err := c.dial(); err != nil {
		log.Warn().Err(err).Msg("stream reconnect failed")
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	if c.pingInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			c.connMu.Unlock()
			if conn == nil {
				continue
			}
			c.writeMu.Lock()
			_ = conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
		}
	}
}

func (c *Client) subscribe(method string, params []interface{}, handler func(json.RawMessage)) (uint64, error) {
	reqID := c.nextReqID.Add(1)

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      reqID,
		"method":  method,
		"params":  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("marshal subscribe request: %w", err)
	}

	resultCh := make(chan subscribeResult, 1)
	c.pendingMu.Lock()
	c.pending[reqID] = resultCh
	c.pendingMu.Unlock()

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return 0, fmt.Errorf("stream: not connected")
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, body)
	c.writeMu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			return 0, res.err
		}
		c.handlersMu.Lock()
		c.handlers[res.subID] = handler
		c.handlersMu.Unlock()
		return res.subID, nil
	case <-time.After(10 * time.Second):
		return 0, fmt.Errorf("subscribe %s timed out", method)
	}
}

// AccountSubscribe watches an account's lamport/data changes.
func (c *Client) AccountSubscribe(addr string, handler func(json.RawMessage)) (uint64, error) {
	return c.subscribe("accountSubscribe", []interface{}{
		addr,
		map[string]string{"commitment": "confirmed", "encoding": "jsonParsed"},
	}, handler)
}

// SignatureSubscribe watches a single transaction signature until it confirms.
func (c *Client) SignatureSubscribe(sig string, handler func(json.RawMessage)) (uint64, error) {
	return c.subscribe("signatureSubscribe", []interface{}{
		sig,
		map[string]string{"commitment": "confirmed"},
	}, handler)
}

// LogsSubscribe watches program log notifications mentioning address.
func (c *Client) LogsSubscribe(address string, handler func(json.RawMessage)) (uint64, error) {
	return c.subscribe("logsSubscribe", []interface{}{
		map[string]interface{}{"mentions": []string{address}},
		map[string]string{"commitment": "confirmed"},
	}, handler)
}

// Unsubscribe tears down a subscription. method is the *Unsubscribe RPC verb
// matching the original subscribe call (e.g. "logsUnsubscribe").
func (c *Client) Unsubscribe(method string, subID uint64) {
	c.handlersMu.Lock()
	delete(c.handlers, subID)
	c.handlersMu.Unlock()

	reqID := c.nextReqID.Add(1)
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      reqID,
		"method":  method,
		"params":  []interface{}{subID},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return
	}

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return
	}

	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.TextMessage, body)
	c.writeMu.Unlock()
}
