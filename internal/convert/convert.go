// Package convert implements the environment converter pipeline and the
// prose/math splitter. Each converter is a pure string transformation applied
// in a fixed order; converters are idempotent on input containing no matching
// environment and never alter content inside math regions they don't own.
// Malformed markup degrades to unconverted text, never an error.
package convert

// Options tunes converter behavior. Zero value uses compiled-in defaults.
type Options struct {
	// Palette maps color names to #rrggbb values for the callout
	// converter. Entries extend and override the built-in palette.
	Palette map[string]string

	// HighlightStyle is the chroma style name for code listings.
	// Empty means "github".
	HighlightStyle string
}

// Mark is a named, navigable anchor derived from a structural heading
// (real) or auto-inserted as a fallback (synthetic).
type Mark struct {
	ID        string
	Title     string
	Level     int // 1 = section .. 4 = paragraph
	Line      int // merged line of the heading's source position
	Synthetic bool
}

// Convert runs the full environment converter chain over merged,
// comment-stripped source and returns HTML body content plus the marks
// collected from headings. Order matters: verbatim regions are hidden first,
// boxes and figures run before the generic table converter, tables before
// lists, and sections before the inline pass.
func Convert(src string, opts Options) (string, []Mark) {
	out, stash := hideVerbatim(src, opts.HighlightStyle)

	out = normalizeLongtables(out)
	out = convertBoxes(out, opts.Palette)
	out = convertFigures(out, opts)
	out = convertTables(out)
	out = convertLists(out)
	out = convertTheorems(out)
	out, marks := convertSections(out)
	out = convertBibliography(out)
	out = convertMulticols(out)
	out = stripUnknownEnvs(out)

	out = stash.restore(out)
	out = SplitProse(out)
	return out, marks
}
