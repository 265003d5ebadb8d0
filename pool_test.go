package livetex

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// poolFakeRenderer counts Close calls and can fail them.
type poolFakeRenderer struct {
	closed   atomic.Int32
	closeErr error
}

func (f *poolFakeRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

func (f *poolFakeRenderer) Close() error {
	f.closed.Add(1)
	return f.closeErr
}

func newFakePool(n int, closeErr error) (*ExporterPool, *atomic.Int32) {
	var created atomic.Int32
	p := NewExporterPool(n)
	p.newExporter = func() *Exporter {
		created.Add(1)
		return &Exporter{renderer: &poolFakeRenderer{closeErr: closeErr}, timeout: time.Second}
	}
	return p, &created
}

func TestExporterPool_LazyCreation(t *testing.T) {
	t.Parallel()

	p, created := newFakePool(3, nil)
	defer p.Close()

	if created.Load() != 0 {
		t.Fatalf("created = %d before any Acquire, want 0", created.Load())
	}

	e := p.Acquire()
	if created.Load() != 1 {
		t.Fatalf("created = %d after one Acquire, want 1", created.Load())
	}
	p.Release(e)

	// A released exporter is reused instead of creating a new one.
	e2 := p.Acquire()
	if created.Load() != 1 {
		t.Fatalf("created = %d after reuse, want 1", created.Load())
	}
	p.Release(e2)
}

func TestExporterPool_BlocksWhenExhausted(t *testing.T) {
	t.Parallel()

	p, _ := newFakePool(1, nil)
	defer p.Close()

	e := p.Acquire()

	acquired := make(chan *Exporter)
	go func() {
		acquired <- p.Acquire()
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire returned while pool exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release(e)

	select {
	case got := <-acquired:
		if got != e {
			t.Error("blocked Acquire did not receive the released exporter")
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire still blocked after Release")
	}
}

func TestExporterPool_ConcurrentAcquireRespectsSize(t *testing.T) {
	t.Parallel()

	const size = 2
	p, created := newFakePool(size, nil)
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := p.Acquire()
			time.Sleep(5 * time.Millisecond)
			p.Release(e)
		}()
	}
	wg.Wait()

	if n := created.Load(); n > size {
		t.Errorf("created = %d exporters, want at most %d", n, size)
	}
}

func TestExporterPool_CloseAggregatesErrors(t *testing.T) {
	t.Parallel()

	closeErr := errors.New("browser close failed")
	p, _ := newFakePool(2, closeErr)

	a := p.Acquire()
	b := p.Acquire()
	p.Release(a)
	p.Release(b)

	err := p.Close()
	if !errors.Is(err, closeErr) {
		t.Fatalf("Close() = %v, want wrapped %v", err, closeErr)
	}

	// Close is idempotent, Release after Close is a no-op.
	if err := p.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	p.Release(a)
}

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit wins", 5, 5},
		{"explicit one", 1, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolvePoolSize(tt.workers); got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}

	t.Run("auto stays in bounds", func(t *testing.T) {
		t.Parallel()

		got := ResolvePoolSize(0)
		if got < MinPoolSize || got > MaxPoolSize {
			t.Errorf("ResolvePoolSize(0) = %d, want within [%d, %d]", got, MinPoolSize, MaxPoolSize)
		}
		if want := runtime.GOMAXPROCS(0) / 2; want >= MinPoolSize && want <= MaxPoolSize && got != want {
			t.Errorf("ResolvePoolSize(0) = %d, want %d", got, want)
		}
	})
}
