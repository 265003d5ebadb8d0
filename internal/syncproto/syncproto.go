// Package syncproto implements the scroll synchronization protocol between
// the editor and the preview. The browser script only reports raw visibility
// samples and applies scroll commands; every decision about dwell, echo
// suppression, and duplicate filtering is made here, against an injected
// clock, so the protocol is unit-testable without a browser.
package syncproto

import "time"

// State is the machine's coarse phase, exposed for diagnostics.
type State int

const (
	// Idle means no document (no marks) is loaded.
	Idle State = iota
	// Observing means visibility samples are being accumulated.
	Observing
	// Emitting is the transient phase while an active-position change is
	// being reported; the machine returns to Observing immediately.
	Emitting
)

// Mark is a navigation target in the rendered document.
type Mark struct {
	ID    string
	Line  int // original source line
	Order int // document order
}

// Sample is one visibility report for a mark within the focus band.
type Sample struct {
	MarkID string
	Ratio  float64
}

// Active is an emitted active-position change.
type Active struct {
	MarkID string
	Line   int
}

// Scroll is a command for the preview to bring a mark into view.
type Scroll struct {
	MarkID string
	Line   int
}

// Config sets the protocol windows. Zero values take defaults.
type Config struct {
	// Dwell is how long a dominant mark must stay dominant before it is
	// accepted as the active position.
	Dwell time.Duration
	// EchoWindow is how long after emitting an active-position change
	// scroll requests targeting that same mark are treated as echoes.
	EchoWindow time.Duration
	// Suppress is how long after honoring a scroll request visibility
	// acceptance is muted, so the induced scroll does not bounce back.
	Suppress time.Duration
	// RepeatWindow collapses repeated same-target scroll requests.
	RepeatWindow time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Dwell <= 0 {
		out.Dwell = 300 * time.Millisecond
	}
	if out.EchoWindow <= 0 {
		out.EchoWindow = 600 * time.Millisecond
	}
	if out.Suppress <= 0 {
		out.Suppress = 600 * time.Millisecond
	}
	if out.RepeatWindow <= 0 {
		out.RepeatWindow = 250 * time.Millisecond
	}
	return out
}

// Machine is the synchronization state machine. It is not safe for
// concurrent use; the server serializes calls per session. Timers are
// modeled as deadlines checked on each event and on Tick, so callers drive
// time explicitly.
type Machine struct {
	cfg   Config
	state State

	marks []Mark
	line  map[string]int
	order map[string]int

	candidate      string
	candidateSince time.Time
	active         string

	echoUntil     map[string]time.Time
	suppressUntil time.Time

	lastScrollID string
	lastScrollAt time.Time
}

// New returns a machine in Idle state.
func New(cfg Config) *Machine {
	return &Machine{
		cfg:       cfg.withDefaults(),
		echoUntil: make(map[string]time.Time),
	}
}

// State returns the current phase.
func (m *Machine) State() State { return m.state }

// SetMarks loads the navigation targets of a freshly transpiled document and
// resets candidate tracking. The previous active mark survives if it still
// exists, so an unchanged viewport does not re-emit after every keystroke.
func (m *Machine) SetMarks(marks []Mark) {
	m.marks = marks
	m.line = make(map[string]int, len(marks))
	m.order = make(map[string]int, len(marks))
	for _, mk := range marks {
		m.line[mk.ID] = mk.Line
		m.order[mk.ID] = mk.Order
	}
	m.candidate = ""
	if _, ok := m.line[m.active]; !ok {
		m.active = ""
	}
	if len(marks) == 0 {
		m.state = Idle
		return
	}
	m.state = Observing
}

// Observe feeds one batch of visibility samples taken at the given instant.
// It returns a non-nil Active when the dominant mark has been stable for the
// dwell window and differs from the current active position.
func (m *Machine) Observe(samples []Sample, at time.Time) *Active {
	if m.state == Idle {
		return nil
	}
	dom := m.dominant(samples)
	if dom == "" {
		m.candidate = ""
		return nil
	}
	if dom != m.candidate {
		// A newer candidate cancels the pending dwell wait.
		m.candidate = dom
		m.candidateSince = at
		return nil
	}
	return m.maybeAccept(at)
}

// Tick re-checks pending deadlines without new samples. The server calls it
// on a coarse interval so a dwell that completes between samples still fires.
func (m *Machine) Tick(at time.Time) *Active {
	if m.state == Idle {
		return nil
	}
	return m.maybeAccept(at)
}

// RequestScroll asks the preview to navigate to a mark, or to the nearest
// mark at or above an original line when markID is empty. Outline jumps and
// scroll-to-line both funnel through here. The boolean is false when the
// request is dropped: unknown target, echo of a just-emitted position, or a
// repeat of the previous request within the repeat window.
func (m *Machine) RequestScroll(markID string, originalLine int, at time.Time) (Scroll, bool) {
	if m.state == Idle {
		return Scroll{}, false
	}
	if markID == "" {
		markID = m.ResolveLine(originalLine)
	}
	line, ok := m.line[markID]
	if !ok {
		return Scroll{}, false
	}
	if until, ok := m.echoUntil[markID]; ok && at.Before(until) {
		return Scroll{}, false
	}
	if markID == m.lastScrollID && at.Sub(m.lastScrollAt) < m.cfg.RepeatWindow {
		return Scroll{}, false
	}

	m.lastScrollID = markID
	m.lastScrollAt = at
	m.suppressUntil = at.Add(m.cfg.Suppress)
	// The induced viewport change must not report back as a user scroll.
	m.active = markID
	m.candidate = markID
	m.candidateSince = at
	return Scroll{MarkID: markID, Line: line}, true
}

// ResolveLine returns the last mark at or before the original line, or the
// first mark when the line precedes every mark. Empty if no marks exist.
func (m *Machine) ResolveLine(originalLine int) string {
	best := ""
	for _, mk := range m.marks {
		if mk.Line <= originalLine {
			best = mk.ID
		}
	}
	if best == "" && len(m.marks) > 0 {
		best = m.marks[0].ID
	}
	return best
}

func (m *Machine) maybeAccept(at time.Time) *Active {
	if m.candidate == "" || at.Sub(m.candidateSince) < m.cfg.Dwell {
		return nil
	}
	if at.Before(m.suppressUntil) {
		return nil
	}
	if m.candidate == m.active {
		return nil
	}

	m.state = Emitting
	m.active = m.candidate
	m.echoUntil[m.active] = at.Add(m.cfg.EchoWindow)
	m.state = Observing
	return &Active{MarkID: m.active, Line: m.line[m.active]}
}

// dominant picks the sample with the highest ratio, ties broken by document
// order. Samples naming unknown marks are ignored.
func (m *Machine) dominant(samples []Sample) string {
	best := ""
	bestRatio := -1.0
	bestOrder := 0
	for _, s := range samples {
		ord, ok := m.order[s.MarkID]
		if !ok {
			continue
		}
		if s.Ratio > bestRatio || (s.Ratio == bestRatio && ord < bestOrder) {
			best = s.MarkID
			bestRatio = s.Ratio
			bestOrder = ord
		}
	}
	return best
}
