package diagram

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRunner counts invocations and returns canned SVG.
type fakeRunner struct {
	calls atomic.Int32
	svg   []byte
	err   error
	block chan struct{} // when non-nil, Run waits until closed
}

func (f *fakeRunner) Run(ctx context.Context, document string) ([]byte, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.svg, nil
}

func TestRender_CachesByContent(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{svg: []byte("<svg>a</svg>")}
	r := New(fake)
	ctx := context.Background()

	first, err := r.Render(ctx, `\draw (0,0) -- (1,1);`)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Render(ctx, `\draw (0,0) -- (1,1);`)
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != "<svg>a</svg>" || string(second) != "<svg>a</svg>" {
		t.Errorf("unexpected SVG: %q / %q", first, second)
	}
	if got := fake.calls.Load(); got != 1 {
		t.Errorf("runner invoked %d times, want 1", got)
	}

	// Different content misses the cache.
	if _, err := r.Render(ctx, `\draw (0,0) circle (1);`); err != nil {
		t.Fatal(err)
	}
	if got := fake.calls.Load(); got != 2 {
		t.Errorf("runner invoked %d times, want 2", got)
	}
}

func TestRender_ClearDropsCache(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{svg: []byte("<svg/>")}
	r := New(fake)
	ctx := context.Background()

	if _, err := r.Render(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	r.Clear()
	if _, err := r.Render(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	if got := fake.calls.Load(); got != 2 {
		t.Errorf("runner invoked %d times after Clear, want 2", got)
	}
}

func TestRender_SingleFlight(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{svg: []byte("<svg/>"), block: make(chan struct{})}
	r := New(fake)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	results := make([][]byte, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Render(ctx, "same diagram")
		}(i)
	}

	// Give every goroutine time to reach the render.
	time.Sleep(50 * time.Millisecond)
	close(fake.block)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if string(results[i]) != "<svg/>" {
			t.Errorf("goroutine %d got %q", i, results[i])
		}
	}
	if got := fake.calls.Load(); got != 1 {
		t.Errorf("runner invoked %d times, want 1", got)
	}
}

func TestRender_Timeout(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{svg: []byte("<svg/>"), block: make(chan struct{})}
	r := New(fake, WithTimeout(20*time.Millisecond))

	_, err := r.Render(context.Background(), "slow diagram")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestRender_RunnerErrorNotCached(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{err: errors.New("tool exploded")}
	r := New(fake)
	ctx := context.Background()

	if _, err := r.Render(ctx, "bad"); err == nil {
		t.Fatal("want error")
	}
	fake.err = nil
	fake.svg = []byte("<svg/>")
	svg, err := r.Render(ctx, "bad")
	if err != nil {
		t.Fatal(err)
	}
	if string(svg) != "<svg/>" {
		t.Errorf("got %q", svg)
	}
	if got := fake.calls.Load(); got != 2 {
		t.Errorf("runner invoked %d times, want 2 (errors not cached)", got)
	}
}

func TestRender_NoRunner(t *testing.T) {
	t.Parallel()

	r := New(nil)
	if _, err := r.Render(context.Background(), "d"); !errors.Is(err, ErrNoRunner) {
		t.Fatalf("err = %v, want ErrNoRunner", err)
	}
}
