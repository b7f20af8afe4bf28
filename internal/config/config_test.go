package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return configPath
}

func TestNewManager_Defaults(t *testing.T) {
	configPath := writeTestConfig(t, "pool:\n  size: 3\n")

	m, err := NewManager(configPath)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Pool.Size != 3 {
		t.Errorf("Pool.Size = %d, want 3", cfg.Pool.Size)
	}
	if cfg.Execution.BundleSizeLimit != 5 {
		t.Errorf("Execution.BundleSizeLimit default = %d, want 5", cfg.Execution.BundleSizeLimit)
	}
	if cfg.Execution.AmountVariancePct != 5.0 {
		t.Errorf("Execution.AmountVariancePct default = %v, want 5.0", cfg.Execution.AmountVariancePct)
	}
	if cfg.Bundle.DefaultTipLamports != 10000 {
		t.Errorf("Bundle.DefaultTipLamports default = %d, want 10000", cfg.Bundle.DefaultTipLamports)
	}
	if cfg.Mirror.SellCopyPercent != 100.0 {
		t.Errorf("Mirror.SellCopyPercent default = %v, want 100.0", cfg.Mirror.SellCopyPercent)
	}
	if cfg.Storage.SQLitePath != "./data/swarm.db" {
		t.Errorf("Storage.SQLitePath default = %q, want ./data/swarm.db", cfg.Storage.SQLitePath)
	}
}

func TestGetPrimaryKey(t *testing.T) {
	os.Setenv("TEST_PRIMARY_KEY", "abc123")
	defer os.Unsetenv("TEST_PRIMARY_KEY")

	configPath := writeTestConfig(t, "pool:\n  primary_key_env: TEST_PRIMARY_KEY\n")
	m, err := NewManager(configPath)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if got := m.GetPrimaryKey(); got != "abc123" {
		t.Errorf("GetPrimaryKey() = %q, want abc123", got)
	}
}

func TestGetMirrorKey(t *testing.T) {
	os.Setenv("TEST_MIRROR_3", "xyz")
	defer os.Unsetenv("TEST_MIRROR_3")

	configPath := writeTestConfig(t, "pool:\n  mirror_key_env_base: TEST_MIRROR_\n")
	m, err := NewManager(configPath)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if got := m.GetMirrorKey(3); got != "xyz" {
		t.Errorf("GetMirrorKey(3) = %q, want xyz", got)
	}
	if got := m.GetMirrorKey(4); got != "" {
		t.Errorf("GetMirrorKey(4) = %q, want empty", got)
	}
}

func TestPreflightSkip_EnvOverridesConfig(t *testing.T) {
	configPath := writeTestConfig(t, "rpc:\n  preflight_skip: false\n")
	m, err := NewManager(configPath)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if m.PreflightSkip() {
		t.Fatalf("expected PreflightSkip() false before env override")
	}

	os.Setenv("PREFLIGHT_SKIP", "true")
	defer os.Unsetenv("PREFLIGHT_SKIP")

	if !m.PreflightSkip() {
		t.Errorf("expected PreflightSkip() true once PREFLIGHT_SKIP=true is set")
	}
}

func TestUpdate_PersistsAndNotifies(t *testing.T) {
	configPath := writeTestConfig(t, "mirror:\n  multiplier: 1.0\n")
	m, err := NewManager(configPath)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	var notified *Config
	m.SetOnChange(func(c *Config) { notified = c })

	if err := m.Update(func(c *Config) {
		c.Mirror.Multiplier = 2.5
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if m.Get().Mirror.Multiplier != 2.5 {
		t.Errorf("Mirror.Multiplier after Update = %v, want 2.5", m.Get().Mirror.Multiplier)
	}
	if notified == nil || notified.Mirror.Multiplier != 2.5 {
		t.Errorf("onChange callback not invoked with updated config")
	}
}

func TestGetBlockhashRefresh(t *testing.T) {
	configPath := writeTestConfig(t, "blockchain:\n  blockhash_refresh_ms: 250\n")
	m, err := NewManager(configPath)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if got := m.GetBlockhashRefresh(); got.Milliseconds() != 250 {
		t.Errorf("GetBlockhashRefresh() = %v, want 250ms", got)
	}
}
