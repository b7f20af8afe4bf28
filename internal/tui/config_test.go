package tui

import (
	"os"
	"strings"
	"testing"

	"github.com/Jonaed13/swarm-trader/internal/config"
)

func TestConfigModal_RenderShowsCurrentValues(t *testing.T) {
	f, err := os.CreateTemp("", "config_modal_test_*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())

	content := []byte(`
execution:
  bundle_size_limit: 7
  bundling_enabled: true
mirror:
  multiplier: 1.5
  max_per_trade: 0.75
builder:
  priority_fee_lamports: 250000
`)
	if _, err := f.Write(content); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg, err := config.NewManager(f.Name())
	if err != nil {
		t.Fatal(err)
	}

	cm := NewConfigModal(cfg)
	out := cm.Render(60, 20)

	for _, want := range []string{"Bundle Size:  7", "Mirror Mult:  1.5x", "ON"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in:\n%s", want, out)
		}
	}
}
