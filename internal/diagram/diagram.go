// Package diagram renders TikZ-style diagram blocks to SVG through an
// external toolchain, with a content-addressed cache so unchanged diagrams
// never re-invoke the tool across preview refreshes.
package diagram

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"
)

// ErrTimeout reports that the external toolchain exceeded the render budget.
var ErrTimeout = errors.New("diagram render timed out")

// ErrNoRunner reports that no toolchain is configured.
var ErrNoRunner = errors.New("no diagram runner configured")

// Runner executes the external toolchain on one standalone document and
// returns the produced SVG.
type Runner interface {
	Run(ctx context.Context, document string) ([]byte, error)
}

// DefaultTimeout bounds a single render.
const DefaultTimeout = 15 * time.Second

// Renderer caches rendered diagrams by content hash. Concurrent requests
// for the same content share a single toolchain invocation.
type Renderer struct {
	runner  Runner
	timeout time.Duration

	mu    sync.Mutex
	cache map[string][]byte
	group singleflight.Group
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithTimeout overrides the per-render budget.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New returns a Renderer backed by the given toolchain runner.
func New(runner Runner, opts ...Option) *Renderer {
	r := &Renderer{
		runner:  runner,
		timeout: DefaultTimeout,
		cache:   make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the SVG for one diagram source, from cache when possible.
// The cache key is the hash of the full standalone document, so a template
// change invalidates naturally.
func (r *Renderer) Render(ctx context.Context, source string) ([]byte, error) {
	if r.runner == nil {
		return nil, ErrNoRunner
	}

	doc := standalone(source)
	key := Key(source)

	r.mu.Lock()
	if svg, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return svg, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		svg, err := r.runner.Run(rctx, doc)
		if err != nil {
			if rctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
			}
			return nil, fmt.Errorf("render diagram: %w", err)
		}

		r.mu.Lock()
		r.cache[key] = svg
		r.mu.Unlock()
		return svg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Clear drops every cached render. Called when switching documents.
func (r *Renderer) Clear() {
	r.mu.Lock()
	r.cache = make(map[string][]byte)
	r.mu.Unlock()
}

// Key returns the content-addressed cache key for one diagram source: the
// hash of the full standalone document, so a template change invalidates
// naturally.
func Key(source string) string {
	sum := blake3.Sum256([]byte(standalone(source)))
	return hex.EncodeToString(sum[:])
}

// standalone wraps a diagram body into a minimal compilable document.
func standalone(source string) string {
	return "\\documentclass[crop,tikz]{standalone}\n" +
		"\\begin{document}\n" +
		source + "\n" +
		"\\end{document}\n"
}
