// Package analytics exports recorded trade history to CSV for offline
// review.
package analytics

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/Jonaed13/swarm-trader/internal/storage"
)

// ExportTradesToCSV writes every recorded trade in db to a CSV file at path,
// one row per coordinator dispatch.
func ExportTradesToCSV(db *storage.DB, path string) error {
	records, err := db.GetRecentTradeRecords(-1) // negative limit means "no limit" in sqlite
	if err != nil {
		return fmt.Errorf("fetching trade records: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"id", "mint", "action", "mode", "wallet_count", "success_count", "total_amount", "total_pnl", "tx_signatures", "timestamp"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, t := range records {
		row := []string{
			fmt.Sprintf("%d", t.ID),
			t.Mint,
			t.Action,
			t.Mode,
			fmt.Sprintf("%d", t.WalletCount),
			fmt.Sprintf("%d", t.SuccessCount),
			fmt.Sprintf("%.9f", t.TotalAmount),
			fmt.Sprintf("%.9f", t.TotalPnL),
			t.TxSignatures,
			time.Unix(t.Timestamp, 0).UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// ExportMirrorDetectionsToCSV writes every recorded mirror detection (copied
// or skipped) to a CSV file at path.
func ExportMirrorDetectionsToCSV(db *storage.DB, path string) error {
	detections, err := db.GetRecentMirrorDetections(-1)
	if err != nil {
		return fmt.Errorf("fetching mirror detections: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"id", "mint", "source_wallet", "action", "amount_base", "venue_tag", "copied", "skip_reason", "timestamp"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, m := range detections {
		row := []string{
			fmt.Sprintf("%d", m.ID),
			m.Mint,
			m.SourceWallet,
			m.Action,
			fmt.Sprintf("%.9f", m.AmountBase),
			m.VenueTag,
			fmt.Sprintf("%t", m.Copied),
			m.SkipReason,
			time.Unix(m.Timestamp, 0).UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
