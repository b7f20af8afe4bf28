package tui

import (
	"testing"
)

func TestConfigModal_GetDescription(t *testing.T) {
	// NewConfigModal doesn't touch the config manager, so nil is fine here.
	cm := NewConfigModal(nil)

	tests := []struct {
		selected int
		want     string
	}{
		{0, "Max wallets bundled into one Jito bundle"},
		{1, "Source trade size multiplier for mirrored copies"},
		{2, "Upper bound, in SOL, on a single mirrored trade"},
		{3, "Delay between staggered sequential dispatches, in ms"},
		{4, "Priority fee attached to builder-constructed transactions"},
		{5, "Master switch for Jito bundle dispatch"},
		{99, "Adjust settings"},
	}

	for _, tt := range tests {
		cm.Selected = tt.selected
		got := cm.GetDescription()
		if got != tt.want {
			t.Errorf("GetDescription() at index %d = %q, want %q", tt.selected, got, tt.want)
		}
	}
}
