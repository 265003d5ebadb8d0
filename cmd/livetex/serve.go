package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/livetex/go-livetex/internal/config"
	"github.com/livetex/go-livetex/internal/server"
	"github.com/livetex/go-livetex/internal/syncproto"
)

// runServe starts the live preview server for one document. The file is
// loaded once; afterwards the editor pushes changes over the socket.
func runServe(ctx context.Context, args []string, flags *serveFlags, env *Environment) error {
	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		return err
	}

	if len(args) != 1 {
		return fmt.Errorf("%w: livetex serve <file.tex>", ErrNoInput)
	}
	input := args[0]
	if err := validateInput(input); err != nil {
		return err
	}

	source, err := os.ReadFile(input) // #nosec G304 -- operator-supplied path
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadSource, err)
	}

	addr := flags.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if addr == "" {
		addr = config.DefaultAddr
	}

	title := flags.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	var verbose io.Writer
	if flags.common.verbose {
		verbose = env.Stderr
	}

	socketURL := "ws://" + addr + "/ws"
	tp := buildTranspiler(cfg, flags.stride, flags.highlight, socketURL, verbose)

	opts := []server.Option{
		server.WithTitle(title),
		server.WithBaseDir(filepath.Dir(input)),
		server.WithSyncConfig(syncConfigFrom(cfg)),
	}
	if cfg.Server.DebounceMs > 0 {
		opts = append(opts, server.WithDebounce(time.Duration(cfg.Server.DebounceMs)*time.Millisecond))
	}
	if r := buildDiagramRenderer(cfg); r != nil {
		opts = append(opts, server.WithDiagramRenderer(r))
	}
	if verbose != nil {
		opts = append(opts, server.WithVerbose(verbose))
	}

	srv := server.New(addr, tp, opts...)
	if err := srv.SetDocument(ctx, string(source)); err != nil {
		return err
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "previewing %s on http://%s\n", input, addr)
	}
	return srv.ListenAndServe(ctx)
}

// syncConfigFrom converts config milliseconds to protocol durations. Zero
// values take the protocol defaults.
func syncConfigFrom(cfg *config.Config) syncproto.Config {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return syncproto.Config{
		Dwell:        ms(cfg.Sync.DwellMs),
		EchoWindow:   ms(cfg.Sync.EchoWindowMs),
		Suppress:     ms(cfg.Sync.SuppressMs),
		RepeatWindow: ms(cfg.Sync.RepeatWindowMs),
	}
}
