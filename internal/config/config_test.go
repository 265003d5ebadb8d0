package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Convert.AnchorStride != 1 {
		t.Errorf("AnchorStride = %d, want 1", cfg.Convert.AnchorStride)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Server.DebounceMs != 300 {
		t.Errorf("DebounceMs = %d, want 300", cfg.Server.DebounceMs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfig_FromPath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "preview.yaml", `
palette:
  accent: "#3366cc"
convert:
  anchorStride: 5
  highlightStyle: monokai
sync:
  dwellMs: 250
server:
  addr: "127.0.0.1:9000"
diagram:
  command: tikz-to-svg
  timeoutSec: 30
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Palette["accent"] != "#3366cc" {
		t.Errorf("palette.accent = %q", cfg.Palette["accent"])
	}
	if cfg.Convert.AnchorStride != 5 {
		t.Errorf("anchorStride = %d, want 5", cfg.Convert.AnchorStride)
	}
	if cfg.Sync.DwellMs != 250 {
		t.Errorf("dwellMs = %d, want 250", cfg.Sync.DwellMs)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Diagram.Command != "tikz-to-svg" {
		t.Errorf("diagram.command = %q", cfg.Diagram.Command)
	}
	// Untouched fields keep defaults.
	if cfg.Server.DebounceMs != 300 {
		t.Errorf("debounceMs = %d, want default 300", cfg.Server.DebounceMs)
	}
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "bad.yaml", "convert:\n  typo: 1\n")

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrConfigParse) {
		t.Fatalf("err = %v, want ErrConfigParse", err)
	}
}

func TestLoadConfig_NotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfig_EmptyName(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
		t.Fatalf("err = %v, want ErrEmptyConfigName", err)
	}
}

// Note: uses t.Chdir, so no t.Parallel.
func TestLoadConfig_NameResolvedInCurrentDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "preview.yaml", "server:\n  addr: \"127.0.0.1:8123\"\n")
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, err := LoadConfig("preview")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8123" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid palette entry",
			mutate:  func(c *Config) { c.Palette = map[string]string{"brand": "#A1b2C3"} },
			wantErr: nil,
		},
		{
			name:    "palette missing hash",
			mutate:  func(c *Config) { c.Palette = map[string]string{"brand": "a1b2c3"} },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "palette short form rejected",
			mutate:  func(c *Config) { c.Palette = map[string]string{"brand": "#abc"} },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "palette non-hex digit",
			mutate:  func(c *Config) { c.Palette = map[string]string{"brand": "#12345g"} },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative stride",
			mutate:  func(c *Config) { c.Convert.AnchorStride = -1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative dwell",
			mutate:  func(c *Config) { c.Sync.DwellMs = -5 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative diagram timeout",
			mutate:  func(c *Config) { c.Diagram.TimeoutSec = -1 },
			wantErr: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
