package livetex

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one exporter is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ExporterPool manages a pool of Exporter instances for parallel PDF
// export. Each exporter has its own browser instance. Exporters are created
// lazily on first acquire to avoid startup delay.
type ExporterPool struct {
	size      int
	exporters []*Exporter
	sem       chan *Exporter
	mu        sync.Mutex
	created   int
	closed    bool

	// newExporter is swappable for tests.
	newExporter func() *Exporter
}

// NewExporterPool creates a pool with capacity for n Exporter instances.
func NewExporterPool(n int, opts ...ExportOption) *ExporterPool {
	if n < 1 {
		n = 1
	}

	return &ExporterPool{
		size:        n,
		exporters:   make([]*Exporter, 0, n),
		sem:         make(chan *Exporter, n),
		newExporter: func() *Exporter { return NewExporter(opts...) },
	}
}

// Acquire gets an exporter from the pool, creating one if needed.
// Blocks if all exporters are in use.
func (p *ExporterPool) Acquire() *Exporter {
	// Try to get an existing exporter (non-blocking)
	select {
	case e := <-p.sem:
		return e
	default:
	}

	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create outside the lock; browser launch is slow.
		e := p.newExporter()

		p.mu.Lock()
		p.exporters = append(p.exporters, e)
		p.mu.Unlock()

		return e
	}
	p.mu.Unlock()

	// All exporters created, wait for one to be released.
	return <-p.sem
}

// Release returns an exporter to the pool.
func (p *ExporterPool) Release(e *Exporter) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sem <- e
}

// Close releases all browser resources.
// Returns an aggregated error if multiple exporters fail to close.
func (p *ExporterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	exporters := p.exporters
	p.mu.Unlock()

	var errs []error
	for _, e := range exporters {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ExporterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size: explicit workers win, otherwise
// GOMAXPROCS-based (adjusted by automaxprocs in containers), clamped to
// [MinPoolSize, MaxPoolSize].
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
