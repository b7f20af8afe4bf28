package analytics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/Jonaed13/swarm-trader/internal/storage"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swarm.db")
	db, err := storage.NewDB(path)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestExportTradesToCSV_WritesOneRowPerRecord(t *testing.T) {
	db := newTestDB(t)

	if err := db.InsertTradeRecord(&storage.TradeRecord{
		Mint: "MintA", Action: "buy", Mode: "parallel",
		WalletCount: 3, SuccessCount: 3, TotalAmount: 0.5, TotalPnL: 0,
		TxSignatures: "sig1,sig2,sig3", Timestamp: 1700000000,
	}); err != nil {
		t.Fatalf("InsertTradeRecord failed: %v", err)
	}
	if err := db.InsertTradeRecord(&storage.TradeRecord{
		Mint: "MintB", Action: "sell", Mode: "bundle",
		WalletCount: 2, SuccessCount: 1, TotalAmount: 0.2, TotalPnL: 0.05,
		TxSignatures: "sig4", Timestamp: 1700000100,
	}); err != nil {
		t.Fatalf("InsertTradeRecord failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "trades.csv")
	if err := ExportTradesToCSV(db, path); err != nil {
		t.Fatalf("ExportTradesToCSV failed: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 { // header + 2 records
		t.Fatalf("expected 3 rows (header + 2 records), got %d", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("expected header row, got %v", rows[0])
	}
	// most recent record first (ORDER BY timestamp DESC)
	if rows[1][1] != "MintB" {
		t.Errorf("expected MintB first (most recent), got %v", rows[1])
	}
}

func TestExportMirrorDetectionsToCSV_WritesOneRowPerDetection(t *testing.T) {
	db := newTestDB(t)

	if err := db.InsertMirrorDetection(&storage.MirrorDetection{
		Mint: "MintA", SourceWallet: "Wallet1", Action: "buy",
		AmountBase: 0.1, VenueTag: "pumpfun", Copied: true, Timestamp: 1700000000,
	}); err != nil {
		t.Fatalf("InsertMirrorDetection failed: %v", err)
	}
	if err := db.InsertMirrorDetection(&storage.MirrorDetection{
		Mint: "MintC", SourceWallet: "Wallet1", Action: "buy",
		AmountBase: 0.01, VenueTag: "pumpfun", Copied: false, SkipReason: "minTargetAmount", Timestamp: 1700000200,
	}); err != nil {
		t.Fatalf("InsertMirrorDetection failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "mirrors.csv")
	if err := ExportMirrorDetectionsToCSV(db, path); err != nil {
		t.Fatalf("ExportMirrorDetectionsToCSV failed: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (header + 2 detections), got %d", len(rows))
	}
	if rows[1][7] != "minTargetAmount" {
		t.Errorf("expected skip reason in most recent row, got %v", rows[1])
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	return rows
}
