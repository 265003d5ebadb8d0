package livetex

import (
	"context"
	"fmt"
	stdhtml "html"
	"io"
	"strings"

	"github.com/livetex/go-livetex/internal/convert"
	"github.com/livetex/go-livetex/internal/diagram"
	"github.com/livetex/go-livetex/internal/linemap"
	"github.com/livetex/go-livetex/internal/macros"
	"github.com/livetex/go-livetex/internal/scanner"
)

// DiagramRenderer renders one diagram source to SVG. Implemented by
// diagram.Renderer; fakes are used in tests.
type DiagramRenderer interface {
	Render(ctx context.Context, source string) ([]byte, error)
}

// Transpiler converts LaTeX-subset source to preview HTML. A Transpiler is
// immutable after construction and safe for concurrent use.
type Transpiler struct {
	stride    int
	palette   map[string]string
	highlight string
	title     string
	socketURL string
	verbose   io.Writer
	diagrams  DiagramRenderer
}

// Option customizes a Transpiler.
type Option func(*Transpiler)

// WithAnchorStride injects a line anchor every nth source line. Values
// below 1 are treated as 1.
func WithAnchorStride(n int) Option {
	return func(t *Transpiler) {
		if n >= 1 {
			t.stride = n
		}
	}
}

// WithPalette adds or overrides named colors for callout boxes.
func WithPalette(palette map[string]string) Option {
	return func(t *Transpiler) { t.palette = palette }
}

// WithHighlightStyle names the chroma style used for code listings.
func WithHighlightStyle(style string) Option {
	return func(t *Transpiler) {
		if style != "" {
			t.highlight = style
		}
	}
}

// WithDiagramRenderer renders diagram blocks inline during Transpile.
// Without it, diagrams stay as placeholders for asynchronous rendering.
func WithDiagramRenderer(r DiagramRenderer) Option {
	return func(t *Transpiler) { t.diagrams = r }
}

// WithSocketURL wires the preview synchronization script into the shell,
// connecting to the given WebSocket URL.
func WithSocketURL(url string) Option {
	return func(t *Transpiler) { t.socketURL = url }
}

// WithVerbose writes stage progress to w.
func WithVerbose(w io.Writer) Option {
	return func(t *Transpiler) { t.verbose = w }
}

// NewTranspiler creates a Transpiler with default configuration.
func NewTranspiler(opts ...Option) *Transpiler {
	t := &Transpiler{
		stride:    1,
		highlight: "github",
		title:     "livetex",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transpile converts one document. Malformed markup never fails the
// pipeline; the only error sources are context cancellation and internal
// panics, which are recovered and reported instead of crashing the host.
func (t *Transpiler) Transpile(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrTranspile, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	title := input.Title
	if title == "" {
		title = "livetex"
	}

	t.logf("inlining includes")
	inlined := linemap.Inline(input.Source, input.BaseDir)

	t.logf("stripping comments, building macro table")
	stripped := convert.StripComments(inlined.Merged)
	table := macros.Build(stripped)

	body := isolateBody(stripped)
	body, diagrams := extractDiagrams(body)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.logf("converting environments")
	html, convMarks := convert.Convert(body, convert.Options{
		Palette:        t.palette,
		HighlightStyle: t.highlight,
	})

	marks := make([]Mark, 0, len(convMarks))
	for _, m := range convMarks {
		marks = append(marks, Mark{
			ID:    m.ID,
			Title: m.Title,
			Level: m.Level,
			Line:  mapLine(inlined.MergedToOrig, m.Line),
		})
	}
	if len(marks) == 0 {
		// No headings: attach a synthetic mark so navigation has a target.
		html = `<span class="sync-mark" id="mark-top" data-line="1" data-synthetic="true"></span>` + html
		marks = append(marks, Mark{ID: "mark-top", Line: 1, Synthetic: true})
	}

	t.logf("injecting line anchors")
	html = linemap.InjectAnchors(html, t.stride)

	if t.diagrams != nil {
		html = t.renderDiagrams(ctx, html, diagrams)
	}

	page, err := t.assembleShell(title, html, table.MathJSON())
	if err != nil {
		return nil, err
	}

	return &Result{
		HTML:         page,
		Body:         html,
		OrigToMerged: inlined.OrigToMerged,
		MergedToOrig: inlined.MergedToOrig,
		Marks:        marks,
		Diagrams:     diagrams,
		MacroJSON:    table.MathJSON(),
	}, nil
}

func (t *Transpiler) logf(format string, args ...any) {
	if t.verbose != nil {
		fmt.Fprintf(t.verbose, format+"\n", args...)
	}
}

// isolateBody extracts the \begin{document} body, or returns the whole text
// when the document markers are absent. Dropped preamble lines are replaced
// by blank lines so body content keeps its merged line numbers.
func isolateBody(src string) string {
	begin := `\begin{document}`
	i := strings.Index(src, begin)
	if i < 0 {
		return src
	}
	bodyStart := i + len(begin)
	body := src[bodyStart:]
	if end := scanner.FindEnvEnd(src, "document", bodyStart); end != scanner.Unbalanced {
		body = src[bodyStart:end]
	}
	return strings.Repeat("\n", strings.Count(src[:bodyStart], "\n")) + body
}

// extractDiagrams replaces tikzpicture environments with placeholder
// elements keyed by content hash, preserving line counts. The placeholders
// are filled in either inline (one-shot mode) or over the preview channel.
func extractDiagrams(src string) (string, []Diagram) {
	var diagrams []Diagram
	begin := `\begin{tikzpicture}`
	from := 0
	for {
		i := strings.Index(src[from:], begin)
		if i < 0 {
			return src, diagrams
		}
		i += from
		end := scanner.FindEnvEnd(src, "tikzpicture", i+len(begin))
		if end == scanner.Unbalanced {
			from = i + len(begin)
			continue
		}
		after := end + len(`\end{tikzpicture}`)
		source := src[i:after]
		key := diagram.Key(source)
		diagrams = append(diagrams, Diagram{Key: key, Source: source})

		placeholder := fmt.Sprintf(`<div class="diagram" data-diagram="%s"></div>`, key) +
			strings.Repeat("\n", strings.Count(source, "\n"))
		src = src[:i] + placeholder + src[after:]
		from = i + len(placeholder)
	}
}

// renderDiagrams fills placeholders in one-shot mode. Failures degrade to
// an inline error message, matching the pipeline's no-crash contract.
func (t *Transpiler) renderDiagrams(ctx context.Context, html string, diagrams []Diagram) string {
	for _, d := range diagrams {
		slot := fmt.Sprintf(`data-diagram="%s"></div>`, d.Key)
		svg, err := t.diagrams.Render(ctx, d.Source)
		var filled string
		if err != nil {
			t.logf("diagram %s: %v", d.Key[:8], err)
			filled = fmt.Sprintf(`data-diagram=%q><span class="diagram-error">diagram failed: %s</span></div>`,
				d.Key, stdhtml.EscapeString(err.Error()))
		} else {
			filled = fmt.Sprintf(`data-diagram=%q>%s</div>`, d.Key, svg)
		}
		html = strings.Replace(html, slot, filled, 1)
	}
	return html
}

// mapLine translates a merged line to the nearest original line.
func mapLine(mergedToOrig []int, merged int) int {
	if merged < 1 || len(mergedToOrig) == 0 {
		return 1
	}
	if merged >= len(mergedToOrig) {
		merged = len(mergedToOrig) - 1
	}
	if merged < 1 {
		return 1
	}
	return mergedToOrig[merged]
}
