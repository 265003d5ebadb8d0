package main

import (
	"errors"
	"testing"
	"time"

	livetex "github.com/livetex/go-livetex"
	"github.com/livetex/go-livetex/internal/config"
)

func TestResolveExportTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flag    string
		cfgSec  int
		want    time.Duration
		wantErr bool
	}{
		{"flag wins", "45s", 10, 45 * time.Second, false},
		{"config fallback", "", 10, 10 * time.Second, false},
		{"default", "", 0, livetex.DefaultExportTimeout, false},
		{"garbage flag", "soon", 0, 0, true},
		{"negative flag", "-5s", 0, 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			cfg.Export.TimeoutSec = tt.cfgSec

			got, err := resolveExportTimeout(tt.flag, cfg)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeout) {
					t.Errorf("err = %v, want ErrInvalidTimeout", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("timeout = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildDiagramRenderer(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if buildDiagramRenderer(cfg) != nil {
		t.Error("expected nil renderer without a configured command")
	}

	cfg.Diagram.Command = "tectonic-svg"
	if buildDiagramRenderer(cfg) == nil {
		t.Error("expected renderer with a configured command")
	}
}

func TestSyncConfigFrom(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Sync.DwellMs = 150
	cfg.Sync.EchoWindowMs = 700

	sc := syncConfigFrom(cfg)
	if sc.Dwell != 150*time.Millisecond {
		t.Errorf("Dwell = %v", sc.Dwell)
	}
	if sc.EchoWindow != 700*time.Millisecond {
		t.Errorf("EchoWindow = %v", sc.EchoWindow)
	}
	// Unset windows stay zero; the protocol applies its own defaults.
	if sc.Suppress != 0 {
		t.Errorf("Suppress = %v, want 0", sc.Suppress)
	}
}

func TestLoadConfig_InvalidName(t *testing.T) {
	t.Parallel()

	if _, err := loadConfig("no-such-config-name"); !errors.Is(err, config.ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}
