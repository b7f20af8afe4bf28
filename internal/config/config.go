package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all swarm-trader configuration.
type Config struct {
	Pool       PoolConfig       `mapstructure:"pool"`
	RPC        RPCConfig        `mapstructure:"rpc"`
	Blockchain BlockchainConfig `mapstructure:"blockchain"`
	Execution  ExecutionConfig  `mapstructure:"execution"`
	Builder    BuilderConfig    `mapstructure:"builder"`
	Bundle     BundleConfig     `mapstructure:"bundle"`
	Mirror     MirrorConfig     `mapstructure:"mirror"`
	Trigger    TriggerConfig    `mapstructure:"trigger"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	TUI        TUIConfig        `mapstructure:"tui"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
}

// PoolConfig governs wallet-pool sizing and key sourcing.
type PoolConfig struct {
	PrimaryKeyEnv    string `mapstructure:"primary_key_env"`
	MirrorKeyEnvBase string `mapstructure:"mirror_key_env_base"` // e.g. WALLET_KEY_ -> WALLET_KEY_1..N
	Size             int    `mapstructure:"size"`                // up to 20
	BaseMint         string `mapstructure:"base_mint"`
	MinReserveSOL    float64 `mapstructure:"min_reserve_sol"`
}

// RPCConfig configures the chain access layer.
type RPCConfig struct {
	PrimaryURL        string `mapstructure:"primary_url"`
	PrimaryAPIKeyEnv  string `mapstructure:"primary_api_key_env"`
	FallbackURL       string `mapstructure:"fallback_url"`
	FallbackAPIKeyEnv string `mapstructure:"fallback_api_key_env"`
	PreflightSkip     bool   `mapstructure:"preflight_skip"`
}

// BlockchainConfig configures the shared blockhash cache and balance refresh cadence.
type BlockchainConfig struct {
	BlockhashRefreshMs    int `mapstructure:"blockhash_refresh_ms"`
	BlockhashTTLSeconds   int `mapstructure:"blockhash_ttl_seconds"`
	BalanceRefreshSeconds int `mapstructure:"balance_refresh_seconds"`
}

// ExecutionConfig governs mode selection and the four dispatch strategies.
type ExecutionConfig struct {
	BundleSizeLimit       int     `mapstructure:"bundle_size_limit"` // K
	BundlingEnabled       bool    `mapstructure:"bundling_enabled"`
	AmountVariancePct     float64 `mapstructure:"amount_variance_pct"`
	StaggerDelayMs        int     `mapstructure:"stagger_delay_ms"`
	RateLimitMs           int     `mapstructure:"rate_limit_ms"`
	ConfirmTimeoutMs      int     `mapstructure:"confirm_timeout_ms"`
	PositionRefreshDelayMs int    `mapstructure:"position_refresh_delay_ms"`
}

// BuilderConfig configures per-venue transaction construction.
type BuilderConfig struct {
	JupiterQuoteAPIURL    string `mapstructure:"jupiter_quote_api_url"`
	JupiterSlippageBps    int    `mapstructure:"jupiter_slippage_bps"`
	JupiterTimeoutSeconds int    `mapstructure:"jupiter_timeout_seconds"`
	VenueAPIKeyEnv        string `mapstructure:"venue_api_key_env"`
	PriorityFeeLamports   uint64 `mapstructure:"priority_fee_lamports"`
	ComputeUnitLimit      uint32 `mapstructure:"compute_unit_limit"`
}

// BundleConfig configures the bundle-service client.
type BundleConfig struct {
	ServiceURL       string  `mapstructure:"service_url"`
	DefaultTipLamports uint64 `mapstructure:"default_tip_lamports"`
}

// MirrorConfig holds the defaults applied to newly added mirror targets.
type MirrorConfig struct {
	Multiplier       float64 `mapstructure:"multiplier"`
	MaxPerTrade      float64 `mapstructure:"max_per_trade"`
	MinPerTrade      float64 `mapstructure:"min_per_trade"`
	DelayMs          int     `mapstructure:"delay_ms"`
	DelayVarianceMs  int     `mapstructure:"delay_variance_ms"`
	SellCopyPercent  float64 `mapstructure:"sell_copy_percent"` // see SPEC_FULL.md open question 1
	DailyTradeCap    int     `mapstructure:"daily_trade_cap"`
	DailyBaseCap     float64 `mapstructure:"daily_base_cap"`
	StopAfterLossPct float64 `mapstructure:"stop_after_loss_pct"`
}

// TriggerConfig configures the price-monitor loop cadence.
type TriggerConfig struct {
	PriceTickSeconds int    `mapstructure:"price_tick_seconds"`
	VenueAPIURL      string `mapstructure:"venue_api_url"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// GatewayConfig configures the out-of-scope webhook intake surface.
type GatewayConfig struct {
	ListenHost string `mapstructure:"listen_host"`
	ListenPort int    `mapstructure:"listen_port"`
}

// TUIConfig configures the out-of-scope terminal UI collaborator.
type TUIConfig struct {
	RefreshRateMs int `mapstructure:"refresh_rate_ms"`
	LogLines      int `mapstructure:"log_lines"`
}

// WebSocketConfig configures the shared stream client.
type WebSocketConfig struct {
	URL              string `mapstructure:"url"`
	ReconnectDelayMs int    `mapstructure:"reconnect_delay_ms"`
	PingIntervalMs   int    `mapstructure:"ping_interval_ms"`
}

// Manager handles config loading and hot-reload.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	viper    *viper.Viper
	onChange func(*Config)
}

// NewManager creates a new config manager.
func NewManager(configPath string) (*Manager, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Defaults.
	v.SetDefault("pool.primary_key_env", "WALLET_PRIVATE_KEY")
	v.SetDefault("pool.mirror_key_env_base", "WALLET_KEY_")
	v.SetDefault("pool.size", 5)
	v.SetDefault("pool.min_reserve_sol", 0.01)
	v.SetDefault("rpc.primary_api_key_env", "SHYFT_API_KEY")
	v.SetDefault("rpc.fallback_api_key_env", "HELIUS_API_KEY")
	v.SetDefault("rpc.fallback_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("blockchain.blockhash_refresh_ms", 100)
	v.SetDefault("blockchain.blockhash_ttl_seconds", 60)
	v.SetDefault("blockchain.balance_refresh_seconds", 5)
	v.SetDefault("execution.bundle_size_limit", 5)
	v.SetDefault("execution.bundling_enabled", true)
	v.SetDefault("execution.amount_variance_pct", 5.0)
	v.SetDefault("execution.stagger_delay_ms", 250)
	v.SetDefault("execution.rate_limit_ms", 1000)
	v.SetDefault("execution.confirm_timeout_ms", 30000)
	v.SetDefault("execution.position_refresh_delay_ms", 3000)
	v.SetDefault("builder.jupiter_quote_api_url", "https://quote-api.jup.ag/v6/quote")
	v.SetDefault("builder.jupiter_slippage_bps", 500)
	v.SetDefault("builder.jupiter_timeout_seconds", 10)
	v.SetDefault("builder.venue_api_key_env", "VENUE_API_KEY")
	v.SetDefault("builder.priority_fee_lamports", 100000)
	v.SetDefault("builder.compute_unit_limit", 400000)
	v.SetDefault("bundle.service_url", "https://mainnet.block-engine.example.com/api/v1/bundles")
	v.SetDefault("bundle.default_tip_lamports", 10000)
	v.SetDefault("mirror.multiplier", 1.0)
	v.SetDefault("mirror.max_per_trade", 1.0)
	v.SetDefault("mirror.min_per_trade", 0.01)
	v.SetDefault("mirror.delay_ms", 500)
	v.SetDefault("mirror.delay_variance_ms", 500)
	v.SetDefault("mirror.sell_copy_percent", 100.0)
	v.SetDefault("mirror.daily_trade_cap", 50)
	v.SetDefault("mirror.daily_base_cap", 10.0)
	v.SetDefault("mirror.stop_after_loss_pct", 50.0)
	v.SetDefault("trigger.price_tick_seconds", 5)
	v.SetDefault("trigger.venue_api_url", "https://frontend-api.example.com")
	v.SetDefault("storage.sqlite_path", "./data/swarm.db")
	v.SetDefault("gateway.listen_host", "0.0.0.0")
	v.SetDefault("gateway.listen_port", 8089)
	v.SetDefault("tui.refresh_rate_ms", 250)
	v.SetDefault("tui.log_lines", 100)
	v.SetDefault("websocket.reconnect_delay_ms", 2000)
	v.SetDefault("websocket.ping_interval_ms", 15000)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Builder.JupiterQuoteAPIURL == "" {
		cfg.Builder.JupiterQuoteAPIURL = "https://quote-api.jup.ag/v6/quote"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "./data/swarm.db"
	}

	m := &Manager{
		config: &cfg,
		viper:  v,
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("config file changed, reloading")
		m.reload()
	})

	return m, nil
}

// Get returns the current config (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetExecution returns execution config (most frequently accessed).
func (m *Manager) GetExecution() ExecutionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Execution
}

// SetOnChange registers a callback for config changes.
func (m *Manager) SetOnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Update modifies config values and saves to file.
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(m.config)

	m.viper.Set("execution.bundle_size_limit", m.config.Execution.BundleSizeLimit)
	m.viper.Set("execution.stagger_delay_ms", m.config.Execution.StaggerDelayMs)
	m.viper.Set("builder.priority_fee_lamports", m.config.Builder.PriorityFeeLamports)
	m.viper.Set("execution.bundling_enabled", m.config.Execution.BundlingEnabled)
	m.viper.Set("execution.amount_variance_pct", m.config.Execution.AmountVariancePct)
	m.viper.Set("mirror.multiplier", m.config.Mirror.Multiplier)
	m.viper.Set("mirror.max_per_trade", m.config.Mirror.MaxPerTrade)
	m.viper.Set("mirror.min_per_trade", m.config.Mirror.MinPerTrade)

	if err := m.viper.WriteConfig(); err != nil {
		return err
	}

	if m.onChange != nil {
		m.onChange(m.config)
	}

	return nil
}

func (m *Manager) reload() {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cfg Config
	if err := m.viper.Unmarshal(&cfg); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal config on reload")
		return
	}

	m.config = &cfg
	if m.onChange != nil {
		m.onChange(&cfg)
	}
}

// GetPrimaryKey loads the primary wallet's private key from the environment.
func (m *Manager) GetPrimaryKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return os.Getenv(m.config.Pool.PrimaryKeyEnv)
}

// GetMirrorKey loads the n-th additional wallet key (1-indexed) from the environment.
func (m *Manager) GetMirrorKey(n int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return os.Getenv(m.config.Pool.MirrorKeyEnvBase + itoa(n))
}

// GetPrimaryAPIKey loads the primary RPC API key from the environment.
func (m *Manager) GetPrimaryAPIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return os.Getenv(m.config.RPC.PrimaryAPIKeyEnv)
}

// GetFallbackAPIKey loads the fallback RPC API key from the environment.
func (m *Manager) GetFallbackAPIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return os.Getenv(m.config.RPC.FallbackAPIKeyEnv)
}

// GetPrimaryRPCURL returns the primary RPC URL with the API key injected.
func (m *Manager) GetPrimaryRPCURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url := m.config.RPC.PrimaryURL
	key := os.Getenv(m.config.RPC.PrimaryAPIKeyEnv)
	if key == "" {
		return url
	}

	if strings.Contains(url, "?") {
		return url + "&api_key=" + key
	}
	return url + "?api_key=" + key
}

// GetFallbackRPCURL returns the fallback RPC URL with the API key injected.
func (m *Manager) GetFallbackRPCURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url := m.config.RPC.FallbackURL
	key := os.Getenv(m.config.RPC.FallbackAPIKeyEnv)
	if key == "" {
		return url
	}

	param := "api_key"
	if strings.Contains(url, "helius") {
		param = "api-key"
	}

	if strings.Contains(url, "?") {
		return url + "&" + param + "=" + key
	}
	return url + "?" + param + "=" + key
}

// GetWebSocketURL returns the stream endpoint with the API key injected.
func (m *Manager) GetWebSocketURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url := m.config.WebSocket.URL
	key := os.Getenv(m.config.RPC.PrimaryAPIKeyEnv)
	if key == "" {
		return url
	}

	if strings.Contains(url, "?") {
		return url + "&api_key=" + key
	}
	return url + "?api_key=" + key
}

// GetBlockhashRefresh returns the blockhash refresh interval as a duration.
func (m *Manager) GetBlockhashRefresh() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Duration(m.config.Blockchain.BlockhashRefreshMs) * time.Millisecond
}

// GetBalanceRefresh returns the balance refresh interval as a duration.
func (m *Manager) GetBalanceRefresh() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Duration(m.config.Blockchain.BalanceRefreshSeconds) * time.Second
}

// PreflightSkip snapshots the env-driven preflight-skip flag once, per
// SPEC_FULL.md's open-question decision to decouple hot-path submits from
// live env reads.
func (m *Manager) PreflightSkip() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v := os.Getenv("PREFLIGHT_SKIP"); v != "" {
		return v == "1" || v == "true"
	}
	return m.config.RPC.PreflightSkip
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
