// Package gateway is a thin HTTP surface accepting external trade-intent
// webhooks and forwarding them to the Coordinator. The full front-end
// gateway (session management, auth, websocket push to clients) is out of
// scope; this package only implements the webhook intake the core needs to
// stay reachable from outside the process.
package gateway

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Jonaed13/swarm-trader/internal/builder"
	"github.com/Jonaed13/swarm-trader/internal/coordinator"
)

// intentRateLimit/intentRateBurst bound how fast external webhooks can push
// intents into the coordinator, independent of any per-wallet pacing the
// coordinator itself applies once a trade is accepted.
const (
	intentRateLimit = 5 // intents/sec
	intentRateBurst = 10
)

// IntentPayload is the external wire shape for a webhook-submitted trade
// intent, decoded into a coordinator.TradeIntent before dispatch.
type IntentPayload struct {
	Mint                string   `json:"mint"`
	Action              string   `json:"action"` // "buy" or "sell"
	FixedLamports       uint64   `json:"fixedLamports"`
	PercentOfPosition   float64  `json:"percentOfPosition"`
	WalletSubset        []string `json:"walletSubset"`
	Mode                string   `json:"mode"`
	Venue               string   `json:"venue"`
	SlippageBps         *int     `json:"slippageBps"`
	PriorityFeeLamports *uint64  `json:"priorityFeeLamports"`
}

// Server runs the HTTP surface that accepts IntentPayload webhooks and
// forwards them to a Coordinator.
type Server struct {
	app     *fiber.App
	coord   *coordinator.Coordinator
	host    string
	port    int
	limiter *rate.Limiter
}

// NewServer creates a webhook-intake server bound to host:port.
func NewServer(host string, port int, coord *coordinator.Coordinator) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
	})

	s := &Server{
		app:     app,
		coord:   coord,
		host:    host,
		port:    port,
		limiter: rate.NewLimiter(rate.Limit(intentRateLimit), intentRateBurst),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().Unix()})
	})

	s.app.Post("/intent", s.handleIntent)
}

func (s *Server) handleIntent(c *fiber.Ctx) error {
	if !s.limiter.Allow() {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "intent rate limit exceeded"})
	}

	var payload IntentPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Error().Err(err).Msg("gateway: failed to parse intent payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	intent := coordinator.TradeIntent{
		Mint: payload.Mint,
		Amount: coordinator.AmountSpec{
			FixedLamports:     payload.FixedLamports,
			PercentOfPosition: payload.PercentOfPosition,
		},
		WalletSubset:        payload.WalletSubset,
		SlippageBps:         payload.SlippageBps,
		PriorityFeeLamports: payload.PriorityFeeLamports,
	}
	if payload.Mode != "" {
		mode := coordinator.ExecutionMode(payload.Mode)
		intent.ModeOverride = &mode
	}
	if payload.Venue != "" {
		venue := builder.VenueTag(payload.Venue)
		intent.VenueHint = &venue
	}

	var result *coordinator.TradeResult
	var err error
	switch payload.Action {
	case "buy":
		result, err = s.coord.CoordinatedBuy(c.Context(), intent)
	case "sell":
		result, err = s.coord.CoordinatedSell(c.Context(), intent)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "action must be \"buy\" or \"sell\""})
	}

	if err != nil {
		log.Warn().Err(err).Str("mint", payload.Mint).Msg("gateway: intent dispatch failed")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error(), "result": result})
	}

	return c.JSON(fiber.Map{"status": "dispatched", "result": result})
}

// Start starts the HTTP server. Blocks until Shutdown is called or the
// server errors.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	log.Info().Str("addr", addr).Msg("gateway: starting webhook intake server")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
