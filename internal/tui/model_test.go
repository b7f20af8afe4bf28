package tui

import (
	"testing"

	"github.com/Jonaed13/swarm-trader/internal/config"
)

func TestNewConfigModal(t *testing.T) {
	// NewConfigModal doesn't touch the config manager during construction,
	// so a zero-value Manager is fine here.
	cfg := &config.Manager{}

	cm := NewConfigModal(cfg)

	if len(cm.Fields) != 6 {
		t.Errorf("Expected 6 fields, got %d", len(cm.Fields))
	}

	expected := []string{"BundleSize", "MirrorMult", "MaxPerTrade", "StaggerMs", "PrioFee", "Bundling"}
	for i, f := range expected {
		if cm.Fields[i] != f {
			t.Errorf("Fields[%d] = %q, want %q", i, cm.Fields[i], f)
		}
	}
}
