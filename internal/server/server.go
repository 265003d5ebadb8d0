// Package server hosts the live preview: an HTTP endpoint serving the
// rendered page and a WebSocket channel carrying document updates,
// scroll synchronization, and asynchronous diagram renders.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/gorilla/websocket"

	livetex "github.com/livetex/go-livetex"
	"github.com/livetex/go-livetex/internal/syncproto"
)

// ErrNoTranspiler reports that the server was built without a transpiler.
var ErrNoTranspiler = errors.New("no transpiler configured")

// Timing defaults.
const (
	// DefaultDebounce collapses keystroke bursts into one re-transpile.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultTickInterval drives dwell-timer completion between
	// visibility reports.
	DefaultTickInterval = 100 * time.Millisecond

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Server owns the document state, the synchronization machine, and the set
// of connected clients. All machine and state access is serialized through
// s.mu; the transpiler itself is safe for concurrent use.
type Server struct {
	addr       string
	transpiler *livetex.Transpiler
	diagrams   livetex.DiagramRenderer
	baseDir    string
	title      string
	tick       time.Duration
	verbose    io.Writer
	upgrader   websocket.Upgrader

	gen       atomic.Uint64
	debounced func(func())

	mu      sync.Mutex
	machine *syncproto.Machine
	text    string
	result  *livetex.Result
	clients map[*client]struct{}

	ctx context.Context
}

// Option customizes a Server.
type Option func(*Server)

// WithDebounce overrides the keystroke debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.debounced = debounce.New(d)
		}
	}
}

// WithTickInterval overrides the dwell-timer tick.
func WithTickInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithSyncConfig overrides the synchronization timing windows.
func WithSyncConfig(cfg syncproto.Config) Option {
	return func(s *Server) { s.machine = syncproto.New(cfg) }
}

// WithDiagramRenderer enables asynchronous diagram rendering over the
// socket. Without it, renderDiagram requests fail with an inline error.
func WithDiagramRenderer(r livetex.DiagramRenderer) Option {
	return func(s *Server) { s.diagrams = r }
}

// WithBaseDir resolves \input and \include paths against dir.
func WithBaseDir(dir string) Option {
	return func(s *Server) { s.baseDir = dir }
}

// WithTitle sets the preview page title.
func WithTitle(title string) Option {
	return func(s *Server) { s.title = title }
}

// WithVerbose writes connection and transpile progress to w.
func WithVerbose(w io.Writer) Option {
	return func(s *Server) { s.verbose = w }
}

// New creates a preview server bound to addr.
func New(addr string, t *livetex.Transpiler, opts ...Option) *Server {
	s := &Server{
		addr:       addr,
		transpiler: t,
		title:      "livetex",
		tick:       DefaultTickInterval,
		machine:    syncproto.New(syncproto.Config{}),
		clients:    make(map[*client]struct{}),
		debounced:  debounce.New(DefaultDebounce),
		ctx:        context.Background(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Preview and editor both run on this machine.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDocument replaces the document immediately, bypassing the debounce.
// Used for the initial load before any editor connects.
func (s *Server) SetDocument(ctx context.Context, text string) error {
	if s.transpiler == nil {
		return ErrNoTranspiler
	}
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	return s.retranspile(ctx, s.gen.Add(1), text)
}

// Handler returns the HTTP handler: the preview page at / and the
// WebSocket endpoint at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/ws", s.handleSocket)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.ctx = ctx

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.tickLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logf("preview listening on http://%s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleRoot serves the full preview page for the current document.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	result := s.result
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if result == nil {
		fmt.Fprint(w, "<!doctype html><title>livetex</title><p>waiting for document</p>")
		return
	}
	fmt.Fprint(w, result.HTML)
}

// handleSocket upgrades the connection and pumps messages both ways.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("upgrade: %v", err)
		return
	}

	c := newClient(conn)
	s.mu.Lock()
	s.clients[c] = struct{}{}
	gen := s.gen.Load()
	result := s.result
	s.mu.Unlock()

	s.logf("client connected: %s", conn.RemoteAddr())

	// Late joiners get the current preview right away.
	if result != nil {
		c.enqueue(previewMsg{
			Type:         "preview",
			HTML:         result.Body,
			Generation:   gen,
			OrigToMerged: result.OrigToMerged,
			MergedToOrig: result.MergedToOrig,
		})
	}

	go c.writePump()
	c.readPump(func(msg inbound) { s.dispatch(c, msg) })

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
	s.logf("client disconnected: %s", conn.RemoteAddr())
}

// dispatch routes one inbound message. Unknown types are dropped.
func (s *Server) dispatch(c *client, msg inbound) {
	switch msg.Type {
	case "textChanged":
		s.onTextChanged(msg.Text)
	case "visibility":
		s.onVisibility(msg.Samples)
	case "scrollTo":
		s.onScrollTo(msg.MarkID, msg.OriginalLine)
	case "renderDiagram":
		s.onRenderDiagram(c, msg.Key, msg.Source)
	default:
		s.logf("unknown message type %q", msg.Type)
	}
}

// onTextChanged stores the new text and schedules a debounced re-transpile.
// A generation counter abandons transpiles superseded by newer keystrokes,
// so a stale result is never applied over a fresh one.
func (s *Server) onTextChanged(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()

	s.debounced(func() {
		gen := s.gen.Add(1)
		s.mu.Lock()
		snapshot := s.text
		s.mu.Unlock()
		if err := s.retranspile(s.ctx, gen, snapshot); err != nil {
			s.logf("transpile: %v", err)
		}
	})
}

func (s *Server) retranspile(ctx context.Context, gen uint64, text string) error {
	result, err := s.transpiler.Transpile(ctx, livetex.Input{
		Source:  text,
		BaseDir: s.baseDir,
		Title:   s.title,
	})
	if err != nil {
		return err
	}
	if s.gen.Load() != gen {
		// A newer edit superseded this transpile; drop it whole.
		return nil
	}

	marks := make([]syncproto.Mark, 0, len(result.Marks))
	for i, m := range result.Marks {
		marks = append(marks, syncproto.Mark{ID: m.ID, Line: m.Line, Order: i})
	}

	s.mu.Lock()
	s.result = result
	s.machine.SetMarks(marks)
	s.mu.Unlock()

	s.broadcast(previewMsg{
		Type:         "preview",
		HTML:         result.Body,
		Generation:   gen,
		OrigToMerged: result.OrigToMerged,
		MergedToOrig: result.MergedToOrig,
	})
	return nil
}

// onVisibility feeds preview viewport samples into the machine and
// announces a new active position once a candidate survives its dwell.
func (s *Server) onVisibility(samples []visibilitySample) {
	in := make([]syncproto.Sample, 0, len(samples))
	for _, smp := range samples {
		in = append(in, syncproto.Sample{MarkID: smp.MarkID, Ratio: smp.Ratio})
	}

	s.mu.Lock()
	active := s.machine.Observe(in, time.Now())
	s.mu.Unlock()

	if active != nil {
		s.broadcast(activePositionMsg{
			Type:         "activePosition",
			MarkID:       active.MarkID,
			OriginalLine: active.Line,
		})
	}
}

// onScrollTo handles an editor navigation request. The machine decides
// whether it is an echo of our own announcement or a real jump.
func (s *Server) onScrollTo(markID string, originalLine int) {
	s.mu.Lock()
	scroll, ok := s.machine.RequestScroll(markID, originalLine, time.Now())
	s.mu.Unlock()

	if ok {
		s.broadcast(scrollMsg{Type: "scroll", MarkID: scroll.MarkID})
	}
}

// onRenderDiagram renders one diagram off the socket goroutine and answers
// the requesting client only.
func (s *Server) onRenderDiagram(c *client, key, source string) {
	if s.diagrams == nil {
		c.enqueue(diagramResultMsg{Type: "diagramResult", Key: key, Error: "diagram rendering is not configured"})
		return
	}

	go func() {
		svg, err := s.diagrams.Render(s.ctx, source)
		if err != nil {
			s.logf("diagram %s: %v", key, err)
			c.enqueue(diagramResultMsg{Type: "diagramResult", Key: key, Error: err.Error()})
			return
		}
		c.enqueue(diagramResultMsg{Type: "diagramResult", Key: key, OK: true, SVG: string(svg)})
	}()
}

// tickLoop completes dwell timers when the preview sits still and no new
// visibility reports arrive.
func (s *Server) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			active := s.machine.Tick(now)
			s.mu.Unlock()
			if active != nil {
				s.broadcast(activePositionMsg{
					Type:         "activePosition",
					MarkID:       active.MarkID,
					OriginalLine: active.Line,
				})
			}
		}
	}
}

// broadcast enqueues a message for every connected client. Slow clients
// drop messages rather than stall the server.
func (s *Server) broadcast(v any) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.enqueue(v)
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.verbose != nil {
		fmt.Fprintf(s.verbose, format+"\n", args...)
	}
}
