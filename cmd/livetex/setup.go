package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	livetex "github.com/livetex/go-livetex"
	"github.com/livetex/go-livetex/internal/config"
	"github.com/livetex/go-livetex/internal/diagram"
)

// ErrInvalidTimeout reports an unparseable --timeout value.
var ErrInvalidTimeout = errors.New("invalid timeout")

// loadConfig loads and validates the named config, or the defaults when no
// name is given.
func loadConfig(nameOrPath string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if nameOrPath != "" {
		var err error
		cfg, err = config.LoadConfig(nameOrPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildTranspiler assembles a Transpiler from config plus CLI overrides.
func buildTranspiler(cfg *config.Config, stride int, highlight, socketURL string, verbose io.Writer) *livetex.Transpiler {
	if stride == 0 {
		stride = cfg.Convert.AnchorStride
	}
	if highlight == "" {
		highlight = cfg.Convert.HighlightStyle
	}

	opts := []livetex.Option{
		livetex.WithAnchorStride(stride),
		livetex.WithHighlightStyle(highlight),
		livetex.WithPalette(cfg.Palette),
	}
	if socketURL != "" {
		opts = append(opts, livetex.WithSocketURL(socketURL))
	}
	if verbose != nil {
		opts = append(opts, livetex.WithVerbose(verbose))
	}
	if r := buildDiagramRenderer(cfg); r != nil {
		opts = append(opts, livetex.WithDiagramRenderer(r))
	}
	return livetex.NewTranspiler(opts...)
}

// buildDiagramRenderer returns nil when no toolchain is configured.
func buildDiagramRenderer(cfg *config.Config) *diagram.Renderer {
	if cfg.Diagram.Command == "" {
		return nil
	}
	var opts []diagram.Option
	if cfg.Diagram.TimeoutSec > 0 {
		opts = append(opts, diagram.WithTimeout(time.Duration(cfg.Diagram.TimeoutSec)*time.Second))
	}
	return diagram.New(&diagram.ExecRunner{
		Command: cfg.Diagram.Command,
		Args:    cfg.Diagram.Args,
	}, opts...)
}

// resolveExportTimeout prefers the CLI flag over config over the default.
func resolveExportTimeout(flagValue string, cfg *config.Config) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil || d <= 0 {
			return 0, fmt.Errorf("%w: %q (want e.g. 30s, 2m)", ErrInvalidTimeout, flagValue)
		}
		return d, nil
	}
	if cfg.Export.TimeoutSec > 0 {
		return time.Duration(cfg.Export.TimeoutSec) * time.Second, nil
	}
	return livetex.DefaultExportTimeout, nil
}
