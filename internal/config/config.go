// Package config loads livetex configuration from YAML files. A config is
// addressed by file path or by bare name resolved against the current
// directory and ~/.config/livetex/.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/livetex/go-livetex/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Config holds all configuration for the transpiler and preview server.
type Config struct {
	// Palette adds or overrides named colors used by callout boxes.
	// Values are #rrggbb hex; entries merge over the built-in palette.
	Palette map[string]string `yaml:"palette"`
	Convert ConvertConfig     `yaml:"convert"`
	Sync    SyncConfig        `yaml:"sync"`
	Server  ServerConfig      `yaml:"server"`
	Diagram DiagramConfig     `yaml:"diagram"`
	Export  ExportConfig      `yaml:"export"`
}

// ConvertConfig tunes the HTML conversion.
type ConvertConfig struct {
	// AnchorStride injects a line anchor every Nth source line (default 1).
	AnchorStride int `yaml:"anchorStride"`
	// HighlightStyle names the chroma style for code listings.
	HighlightStyle string `yaml:"highlightStyle"`
}

// SyncConfig tunes the scroll synchronization windows, in milliseconds.
// Zero values take the protocol defaults.
type SyncConfig struct {
	DwellMs        int `yaml:"dwellMs"`
	EchoWindowMs   int `yaml:"echoWindowMs"`
	SuppressMs     int `yaml:"suppressMs"`
	RepeatWindowMs int `yaml:"repeatWindowMs"`
}

// ServerConfig holds preview server settings.
type ServerConfig struct {
	// Addr is the listen address (default "127.0.0.1:7341").
	Addr string `yaml:"addr"`
	// DebounceMs delays re-transpilation after a text change (default 300).
	DebounceMs int `yaml:"debounceMs"`
}

// DiagramConfig points at the external diagram toolchain.
type DiagramConfig struct {
	// Command receives <input.tex> <output.svg> after Args. Empty disables
	// diagram rendering.
	Command    string   `yaml:"command"`
	Args       []string `yaml:"args"`
	TimeoutSec int      `yaml:"timeoutSec"`
}

// ExportConfig holds PDF export settings.
type ExportConfig struct {
	TimeoutSec int `yaml:"timeoutSec"`
}

// DefaultAddr is the preview server's default listen address.
const DefaultAddr = "127.0.0.1:7341"

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Convert: ConvertConfig{AnchorStride: 1, HighlightStyle: "github"},
		Server:  ServerConfig{Addr: DefaultAddr, DebounceMs: 300},
	}
}

// Validate rejects out-of-range values and malformed palette entries.
func (c *Config) Validate() error {
	for name, hex := range c.Palette {
		if !validHex(hex) {
			return fmt.Errorf("%w: palette.%s = %q (want #rrggbb)", ErrInvalidValue, name, hex)
		}
	}
	if c.Convert.AnchorStride < 0 {
		return fmt.Errorf("%w: convert.anchorStride must not be negative", ErrInvalidValue)
	}
	for field, v := range map[string]int{
		"sync.dwellMs":        c.Sync.DwellMs,
		"sync.echoWindowMs":   c.Sync.EchoWindowMs,
		"sync.suppressMs":     c.Sync.SuppressMs,
		"sync.repeatWindowMs": c.Sync.RepeatWindowMs,
		"server.debounceMs":   c.Server.DebounceMs,
		"diagram.timeoutSec":  c.Diagram.TimeoutSec,
		"export.timeoutSec":   c.Export.TimeoutSec,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, field)
		}
	}
	return nil
}

func validHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for i := 1; i < 7; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// LoadConfig loads configuration from a file path or config name. If
// nameOrPath contains a path separator, it's treated as a file path;
// otherwise it's searched in standard locations. Returns error if the file
// is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/livetex/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "livetex", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
