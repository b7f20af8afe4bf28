package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DB wraps the swarm's sqlite persistence: execution presets and trade/
// mirror-detection history.
type DB struct {
	db *sql.DB
}

// reservedPresetNames are built-in, read-only presets every user gets on
// first run (spec.md §6 persistence).
var reservedPresetNames = []string{"fast", "atomic", "stealth", "aggressive", "safe"}

// Preset is a saved execution configuration keyed by (userID, lowercased
// name). Reserved names are seeded on database init and cannot be deleted.
type Preset struct {
	UserID              string
	Name                string
	Mode                string // "parallel", "bundle", "multi-bundle", "sequential"
	AmountVariancePct   float64
	SlippageBps         int
	PriorityFeeLamports int64
	Reserved            bool
}

// TradeRecord is a logged swarm trade outcome, one row per coordinatedBuy/
// coordinatedSell dispatch.
type TradeRecord struct {
	ID            int64
	Mint          string
	Action        string // "buy" or "sell"
	Mode          string
	WalletCount   int
	SuccessCount  int
	TotalAmount   float64
	TotalPnL      float64
	TxSignatures  string // comma-joined
	Timestamp     int64
}

// MirrorDetection is a logged mirror-engine detection, copied or skipped.
type MirrorDetection struct {
	ID            int64
	Mint          string
	SourceWallet  string
	Action        string
	AmountBase    float64
	VenueTag      string
	Copied        bool
	SkipReason    string
	Timestamp     int64
}

// NewDB opens (creating if absent) the sqlite database at path, in WAL mode,
// and seeds the reserved presets for every known reserved name.
func NewDB(path string) (*DB, error) {
	dsn := path
	if !strings.Contains(path, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := createTables(sqlDB); err != nil {
		return nil, err
	}

	d := &DB{db: sqlDB}
	if err := d.seedReservedPresets(); err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Msg("database initialized")
	return d, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS presets (
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		mode TEXT NOT NULL,
		amount_variance_pct REAL NOT NULL DEFAULT 0,
		slippage_bps INTEGER NOT NULL DEFAULT 0,
		priority_fee_lamports INTEGER NOT NULL DEFAULT 0,
		reserved INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, name)
	);

	CREATE TABLE IF NOT EXISTS trade_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mint TEXT NOT NULL,
		action TEXT NOT NULL,
		mode TEXT NOT NULL,
		wallet_count INTEGER NOT NULL,
		success_count INTEGER NOT NULL,
		total_amount REAL NOT NULL,
		total_pnl REAL NOT NULL DEFAULT 0,
		tx_signatures TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS mirror_detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mint TEXT NOT NULL,
		source_wallet TEXT NOT NULL,
		action TEXT NOT NULL,
		amount_base REAL NOT NULL,
		venue_tag TEXT NOT NULL,
		copied INTEGER NOT NULL,
		skip_reason TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trade_records_timestamp ON trade_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_mirror_detections_timestamp ON mirror_detections(timestamp);
	`

	_, err := db.Exec(schema)
	return err
}

// presetDefaults mirrors the reserved preset names' intended behavior: fast
// favors Parallel with no variance, atomic forces Bundle, stealth uses
// Sequential with the widest amount variance (delay knobs are not part of a
// preset), aggressive raises priority fee, safe lowers slippage and priority
// fee.
var presetDefaults = map[string]Preset{
	"fast":       {Mode: "parallel", AmountVariancePct: 0, SlippageBps: 300, PriorityFeeLamports: 200000},
	"atomic":     {Mode: "bundle", AmountVariancePct: 0, SlippageBps: 500, PriorityFeeLamports: 150000},
	"stealth":    {Mode: "sequential", AmountVariancePct: 10, SlippageBps: 500, PriorityFeeLamports: 50000},
	"aggressive": {Mode: "multi-bundle", AmountVariancePct: 5, SlippageBps: 1000, PriorityFeeLamports: 500000},
	"safe":       {Mode: "sequential", AmountVariancePct: 2, SlippageBps: 100, PriorityFeeLamports: 50000},
}

func (d *DB) seedReservedPresets() error {
	for _, name := range reservedPresetNames {
		defaults := presetDefaults[name]
		_, err := d.db.Exec(`
			INSERT OR IGNORE INTO presets
			(user_id, name, mode, amount_variance_pct, slippage_bps, priority_fee_lamports, reserved)
			VALUES ('', ?, ?, ?, ?, ?, 1)`,
			name, defaults.Mode, defaults.AmountVariancePct, defaults.SlippageBps, defaults.PriorityFeeLamports)
		if err != nil {
			return fmt.Errorf("seed reserved preset %q: %w", name, err)
		}
	}
	return nil
}

func normalizePresetName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UpsertPreset saves a user's preset. A reserved name may be saved under a
// non-empty userID as that user's overlay; saving it under the empty userID,
// where the read-only reserved rows live, is rejected.
func (d *DB) UpsertPreset(p *Preset) error {
	name := normalizePresetName(p.Name)
	for _, r := range reservedPresetNames {
		if name == r && p.UserID == "" {
			return fmt.Errorf("preset %q is reserved and read-only", name)
		}
	}

	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO presets
		(user_id, name, mode, amount_variance_pct, slippage_bps, priority_fee_lamports, reserved)
		VALUES (?, ?, ?, ?, ?, ?, 0)`,
		p.UserID, name, p.Mode, p.AmountVariancePct, p.SlippageBps, p.PriorityFeeLamports)
	return err
}

// GetPreset looks up a preset by (userID, name), falling back to the
// reserved global preset of the same name if the user has none.
func (d *DB) GetPreset(userID, name string) (*Preset, error) {
	name = normalizePresetName(name)

	p, err := d.scanPreset(userID, name)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	return d.scanPreset("", name)
}

func (d *DB) scanPreset(userID, name string) (*Preset, error) {
	var p Preset
	var reserved int
	err := d.db.QueryRow(`
		SELECT user_id, name, mode, amount_variance_pct, slippage_bps, priority_fee_lamports, reserved
		FROM presets WHERE user_id = ? AND name = ?`, userID, name).Scan(
		&p.UserID, &p.Name, &p.Mode, &p.AmountVariancePct, &p.SlippageBps, &p.PriorityFeeLamports, &reserved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Reserved = reserved != 0
	return &p, nil
}

// ListPresets returns a user's own presets plus the reserved global ones.
func (d *DB) ListPresets(userID string) ([]*Preset, error) {
	rows, err := d.db.Query(`
		SELECT user_id, name, mode, amount_variance_pct, slippage_bps, priority_fee_lamports, reserved
		FROM presets WHERE user_id = ? OR user_id = ''
		ORDER BY reserved DESC, name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		var p Preset
		var reserved int
		if err := rows.Scan(&p.UserID, &p.Name, &p.Mode, &p.AmountVariancePct, &p.SlippageBps, &p.PriorityFeeLamports, &reserved); err != nil {
			return nil, err
		}
		p.Reserved = reserved != 0
		presets = append(presets, &p)
	}
	return presets, rows.Err()
}

// DeletePreset removes a user's preset. Reserved global presets cannot be
// deleted.
func (d *DB) DeletePreset(userID, name string) error {
	name = normalizePresetName(name)
	if userID == "" {
		return fmt.Errorf("preset %q is reserved and read-only", name)
	}
	_, err := d.db.Exec("DELETE FROM presets WHERE user_id = ? AND name = ?", userID, name)
	return err
}

// InsertTradeRecord logs a completed coordinator dispatch.
func (d *DB) InsertTradeRecord(t *TradeRecord) error {
	_, err := d.db.Exec(`
		INSERT INTO trade_records
		(mint, action, mode, wallet_count, success_count, total_amount, total_pnl, tx_signatures, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Mint, t.Action, t.Mode, t.WalletCount, t.SuccessCount, t.TotalAmount, t.TotalPnL, t.TxSignatures, t.Timestamp)
	return err
}

// GetRecentTradeRecords retrieves the most recent trade records.
func (d *DB) GetRecentTradeRecords(limit int) ([]*TradeRecord, error) {
	rows, err := d.db.Query(`
		SELECT id, mint, action, mode, wallet_count, success_count, total_amount, total_pnl, tx_signatures, timestamp
		FROM trade_records ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.ID, &t.Mint, &t.Action, &t.Mode, &t.WalletCount, &t.SuccessCount, &t.TotalAmount, &t.TotalPnL, &t.TxSignatures, &t.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, &t)
	}
	return records, rows.Err()
}

// InsertMirrorDetection logs a mirror-engine detection event, whether or not
// it was copied.
func (d *DB) InsertMirrorDetection(m *MirrorDetection) error {
	_, err := d.db.Exec(`
		INSERT INTO mirror_detections (mint, source_wallet, action, amount_base, venue_tag, copied, skip_reason, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Mint, m.SourceWallet, m.Action, m.AmountBase, m.VenueTag, m.Copied, m.SkipReason, m.Timestamp)
	return err
}

// GetRecentMirrorDetections retrieves the most recent mirror detections.
func (d *DB) GetRecentMirrorDetections(limit int) ([]*MirrorDetection, error) {
	rows, err := d.db.Query(`
		SELECT id, mint, source_wallet, action, amount_base, venue_tag, copied, skip_reason, timestamp
		FROM mirror_detections ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []*MirrorDetection
	for rows.Next() {
		var m MirrorDetection
		if err := rows.Scan(&m.ID, &m.Mint, &m.SourceWallet, &m.Action, &m.AmountBase, &m.VenueTag, &m.Copied, &m.SkipReason, &m.Timestamp); err != nil {
			return nil, err
		}
		detections = append(detections, &m)
	}
	return detections, rows.Err()
}

// GetTradingStats returns aggregate stats across all logged trade records.
func (d *DB) GetTradingStats() (totalTrades int, winRate float64, totalPnL float64, err error) {
	var wins int
	err = d.db.QueryRow(`
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN total_pnl > 0 THEN 1 ELSE 0 END) as wins,
			COALESCE(SUM(total_pnl), 0) as total_pnl
		FROM trade_records`).Scan(&totalTrades, &wins, &totalPnL)
	if err != nil {
		return
	}
	if totalTrades > 0 {
		winRate = float64(wins) / float64(totalTrades) * 100
	}
	return
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Now returns the current Unix timestamp.
func Now() int64 {
	return time.Now().Unix()
}
