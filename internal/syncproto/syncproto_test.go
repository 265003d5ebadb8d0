package syncproto

import (
	"testing"
	"time"
)

var testCfg = Config{
	Dwell:        300 * time.Millisecond,
	EchoWindow:   600 * time.Millisecond,
	Suppress:     600 * time.Millisecond,
	RepeatWindow: 250 * time.Millisecond,
}

func testMarks() []Mark {
	return []Mark{
		{ID: "mark-intro", Line: 1, Order: 0},
		{ID: "mark-methods", Line: 20, Order: 1},
		{ID: "mark-results", Line: 50, Order: 2},
	}
}

func newTestMachine() (*Machine, time.Time) {
	m := New(testCfg)
	m.SetMarks(testMarks())
	return m, time.Unix(1000, 0)
}

func TestObserve_DwellBeforeAcceptance(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	if got := m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, t0); got != nil {
		t.Fatalf("accepted before dwell: %+v", got)
	}
	if got := m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, t0.Add(100*time.Millisecond)); got != nil {
		t.Fatalf("accepted before dwell: %+v", got)
	}

	got := m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, t0.Add(testCfg.Dwell))
	if got == nil {
		t.Fatal("no emission after dwell")
	}
	if got.MarkID != "mark-methods" || got.Line != 20 {
		t.Errorf("got %+v, want mark-methods line 20", got)
	}
}

func TestObserve_NewerCandidateCancelsDwell(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	m.Observe([]Sample{{MarkID: "mark-intro", Ratio: 1}}, t0)
	m.Observe([]Sample{{MarkID: "mark-results", Ratio: 1}}, t0.Add(100*time.Millisecond))

	// The original candidate's dwell no longer counts.
	if got := m.Observe([]Sample{{MarkID: "mark-results", Ratio: 1}}, t0.Add(testCfg.Dwell)); got != nil {
		t.Fatalf("accepted before the new candidate's dwell: %+v", got)
	}

	got := m.Observe([]Sample{{MarkID: "mark-results", Ratio: 1}}, t0.Add(100*time.Millisecond+testCfg.Dwell))
	if got == nil || got.MarkID != "mark-results" {
		t.Fatalf("got %+v, want mark-results", got)
	}
}

func TestObserve_SameMarkEmitsOnce(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	m.Observe([]Sample{{MarkID: "mark-intro", Ratio: 1}}, t0)
	first := m.Observe([]Sample{{MarkID: "mark-intro", Ratio: 1}}, t0.Add(testCfg.Dwell))
	if first == nil {
		t.Fatal("no first emission")
	}

	// A second dwell-stable observation of the same mark inside the echo
	// window must not produce a second message.
	second := m.Observe([]Sample{{MarkID: "mark-intro", Ratio: 1}}, t0.Add(testCfg.Dwell+200*time.Millisecond))
	if second != nil {
		t.Fatalf("duplicate emission: %+v", second)
	}
}

func TestObserve_TieBrokenByDocumentOrder(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	samples := []Sample{
		{MarkID: "mark-results", Ratio: 0.8},
		{MarkID: "mark-intro", Ratio: 0.8},
	}
	m.Observe(samples, t0)
	got := m.Observe(samples, t0.Add(testCfg.Dwell))
	if got == nil || got.MarkID != "mark-intro" {
		t.Fatalf("got %+v, want mark-intro (earlier in document order)", got)
	}
}

func TestObserve_HighestRatioWins(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	samples := []Sample{
		{MarkID: "mark-intro", Ratio: 0.3},
		{MarkID: "mark-results", Ratio: 0.9},
	}
	m.Observe(samples, t0)
	got := m.Observe(samples, t0.Add(testCfg.Dwell))
	if got == nil || got.MarkID != "mark-results" {
		t.Fatalf("got %+v, want mark-results", got)
	}
}

func TestTick_CompletesPendingDwell(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, t0)
	if got := m.Tick(t0.Add(testCfg.Dwell - time.Millisecond)); got != nil {
		t.Fatalf("tick accepted early: %+v", got)
	}
	got := m.Tick(t0.Add(testCfg.Dwell))
	if got == nil || got.MarkID != "mark-methods" {
		t.Fatalf("got %+v, want mark-methods", got)
	}
}

func TestRequestScroll_EchoWindowDropsJustEmittedMark(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, t0)
	if got := m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, t0.Add(testCfg.Dwell)); got == nil {
		t.Fatal("setup: no emission")
	}
	emitAt := t0.Add(testCfg.Dwell)

	// The editor reacting to the emission by scrolling to the same mark
	// is an echo and must be dropped.
	if _, ok := m.RequestScroll("mark-methods", 0, emitAt.Add(100*time.Millisecond)); ok {
		t.Error("echo scroll was honored")
	}

	// After the echo window the same request is legitimate again.
	if _, ok := m.RequestScroll("mark-methods", 0, emitAt.Add(testCfg.EchoWindow)); !ok {
		t.Error("scroll dropped after echo window expired")
	}
}

func TestRequestScroll_SuppressesVisibilityBounce(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	scroll, ok := m.RequestScroll("mark-results", 0, t0)
	if !ok || scroll.MarkID != "mark-results" || scroll.Line != 50 {
		t.Fatalf("scroll = %+v ok=%v", scroll, ok)
	}

	// The preview scrolling to the target makes other marks flash through
	// the focus band; none of that may be reported while suppressed.
	m.Observe([]Sample{{MarkID: "mark-intro", Ratio: 1}}, t0.Add(50*time.Millisecond))
	if got := m.Observe([]Sample{{MarkID: "mark-intro", Ratio: 1}}, t0.Add(50*time.Millisecond+testCfg.Dwell)); got != nil {
		t.Fatalf("emission during suppression: %+v", got)
	}

	// The candidate's dwell already elapsed, so the first observation after
	// the suppression deadline reports the new position.
	got := m.Observe([]Sample{{MarkID: "mark-intro", Ratio: 1}}, t0.Add(testCfg.Suppress))
	if got == nil || got.MarkID != "mark-intro" {
		t.Fatalf("got %+v, want mark-intro", got)
	}
}

func TestRequestScroll_RepeatedTargetCollapsed(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	if _, ok := m.RequestScroll("mark-intro", 0, t0); !ok {
		t.Fatal("first scroll dropped")
	}
	if _, ok := m.RequestScroll("mark-intro", 0, t0.Add(100*time.Millisecond)); ok {
		t.Error("repeat within window was honored")
	}
	if _, ok := m.RequestScroll("mark-intro", 0, t0.Add(testCfg.RepeatWindow)); !ok {
		t.Error("scroll dropped after repeat window")
	}
}

func TestRequestScroll_ByLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line int
		want string
	}{
		{"before first mark", 0, "mark-intro"},
		{"exactly on mark", 20, "mark-methods"},
		{"between marks", 35, "mark-methods"},
		{"past last mark", 999, "mark-results"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, t0 := newTestMachine()
			scroll, ok := m.RequestScroll("", tt.line, t0)
			if !ok {
				t.Fatal("scroll dropped")
			}
			if scroll.MarkID != tt.want {
				t.Errorf("line %d resolved to %s, want %s", tt.line, scroll.MarkID, tt.want)
			}
		})
	}
}

func TestRequestScroll_UnknownMark(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	if _, ok := m.RequestScroll("mark-ghost", 0, t0); ok {
		t.Error("unknown mark was honored")
	}
}

func TestIdle_NoMarks(t *testing.T) {
	t.Parallel()
	m := New(testCfg)
	m.SetMarks(nil)
	t0 := time.Unix(1000, 0)

	if m.State() != Idle {
		t.Fatalf("state = %v, want Idle", m.State())
	}
	if got := m.Observe([]Sample{{MarkID: "mark-intro", Ratio: 1}}, t0); got != nil {
		t.Errorf("idle machine emitted %+v", got)
	}
	if _, ok := m.RequestScroll("mark-intro", 0, t0); ok {
		t.Error("idle machine honored a scroll")
	}
}

func TestSetMarks_ActiveSurvivesRetranspile(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, t0)
	if got := m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, t0.Add(testCfg.Dwell)); got == nil {
		t.Fatal("setup: no emission")
	}

	// Same marks after a keystroke-triggered re-transpile: the unchanged
	// viewport must not re-announce the same position.
	m.SetMarks(testMarks())
	at := t0.Add(2 * time.Second)
	m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, at)
	if got := m.Observe([]Sample{{MarkID: "mark-methods", Ratio: 1}}, at.Add(testCfg.Dwell)); got != nil {
		t.Errorf("re-emitted after SetMarks: %+v", got)
	}

	// If the mark vanished, the slate is clean.
	m.SetMarks([]Mark{{ID: "mark-new", Line: 3, Order: 0}})
	at = at.Add(2 * time.Second)
	m.Observe([]Sample{{MarkID: "mark-new", Ratio: 1}}, at)
	got := m.Observe([]Sample{{MarkID: "mark-new", Ratio: 1}}, at.Add(testCfg.Dwell))
	if got == nil || got.MarkID != "mark-new" {
		t.Fatalf("got %+v, want mark-new", got)
	}
}

func TestObserve_UnknownSamplesIgnored(t *testing.T) {
	t.Parallel()
	m, t0 := newTestMachine()

	samples := []Sample{
		{MarkID: "mark-stale", Ratio: 1},
		{MarkID: "mark-intro", Ratio: 0.5},
	}
	m.Observe(samples, t0)
	got := m.Observe(samples, t0.Add(testCfg.Dwell))
	if got == nil || got.MarkID != "mark-intro" {
		t.Fatalf("got %+v, want mark-intro (stale sample ignored)", got)
	}
}
