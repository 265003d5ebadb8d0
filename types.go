package livetex

// Input is one document to transpile.
type Input struct {
	// Source is the as-typed LaTeX-subset text.
	Source string
	// BaseDir resolves \input/\include references. Empty means the
	// current directory.
	BaseDir string
	// Title sets the HTML page title. Empty falls back to "livetex".
	Title string
}

// Mark is a navigation target extracted from a sectioning command.
type Mark struct {
	// ID is the anchor element id, e.g. "mark-introduction".
	ID string
	// Title is the heading text.
	Title string
	// Level is the sectioning depth, 1 for \section through 4 for
	// \paragraph.
	Level int
	// Line is the 1-based line in the original (as-typed) source.
	Line int
	// Synthetic marks are inserted when a document has no headings so
	// navigation still has a target; outline UIs should hide them.
	Synthetic bool
}

// Diagram is one extracted diagram block awaiting external rendering.
type Diagram struct {
	// Key is the content-addressed cache key.
	Key string
	// Source is the diagram body, e.g. a tikzpicture environment.
	Source string
}

// Result is the output of one transpilation.
type Result struct {
	// HTML is the complete page: shell, math renderer config, styles,
	// and the converted body.
	HTML string
	// Body is the converted document body alone, as pushed over the
	// preview channel on re-transpiles.
	Body string
	// OrigToMerged maps 1-based original lines to merged (include-
	// inlined) lines. Index 0 is unused.
	OrigToMerged []int
	// MergedToOrig is the reverse map; lines contributed by included
	// files map to the line of the include directive.
	MergedToOrig []int
	// Marks are the navigation targets in document order.
	Marks []Mark
	// Diagrams are the extracted diagram blocks, in document order.
	Diagrams []Diagram
	// MacroJSON is the macro table as a JSON object for the math
	// renderer configuration.
	MacroJSON string
}
