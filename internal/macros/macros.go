// Package macros extracts user macro definitions from LaTeX-subset source
// and merges them with built-in shims into a table the math renderer can
// consume as its macro configuration.
package macros

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

// Macro is one entry in the macro table.
type Macro struct {
	Name  string // control sequence name without the backslash
	Body  string // body template with positional placeholders #1..#9
	Arity int    // 0..9
}

// Table maps macro names to their definitions. Insertion order is preserved
// for deterministic serialization. Built-in entries are tracked separately
// so first-writer-wins forms are judged against user definitions only.
type Table struct {
	byName  map[string]Macro
	order   []string
	builtin map[string]bool
}

// NewTable returns a table pre-populated with the built-in shims. Built-ins
// provide common shorthand so typical documents render without the user
// redeclaring them; user definitions of the same name override them.
func NewTable() *Table {
	t := &Table{byName: make(map[string]Macro), builtin: make(map[string]bool)}
	for _, m := range builtins {
		t.byName[m.Name] = m
		t.order = append(t.order, m.Name)
		t.builtin[m.Name] = true
	}
	return t
}

// builtins are merged under user macros (user wins on name collision).
var builtins = []Macro{
	{Name: "dd", Body: `\mathrm{d}`, Arity: 0},
	{Name: "dv", Body: `\frac{\mathrm{d} #1}{\mathrm{d} #2}`, Arity: 2},
	{Name: "pdv", Body: `\frac{\partial #1}{\partial #2}`, Arity: 2},
	{Name: "abs", Body: `\left|#1\right|`, Arity: 1},
	{Name: "norm", Body: `\left\lVert #1\right\rVert`, Arity: 1},
	{Name: "unit", Body: `\,\mathrm{#1}`, Arity: 1},
	{Name: "vb", Body: `\mathbf{#1}`, Arity: 1},
}

// Defining-form openers. Bodies are resolved with the balanced-brace finder,
// not regex, so nested braces survive.
var (
	newcommandRe = regexp.MustCompile(`\\(newcommand|renewcommand|providecommand)\*?\s*\{?\\([a-zA-Z@]+)\}?\s*(\[([0-9])\])?\s*`)
	defRe        = regexp.MustCompile(`\\def\s*\\([a-zA-Z@]+)\s*`)
	operatorRe   = regexp.MustCompile(`\\DeclareMathOperator\*?\s*\{\\([a-zA-Z@]+)\}\s*`)
)

// Build scans the full source (preamble and body) for macro-defining forms
// and records them in first-seen order. Re-definitions replace the stored
// template (last writer wins), except \providecommand, \def, and
// \DeclareMathOperator, which only populate a name with no prior user
// definition (first writer wins) to avoid clobbering explicit user
// overrides. Built-in shims count as absent for this purpose, so any user
// form overrides a built-in of the same name. Malformed definitions
// (unbalanced bodies) are skipped, never fatal.
func Build(source string) *Table {
	t := NewTable()

	for _, loc := range newcommandRe.FindAllStringSubmatchIndex(source, -1) {
		form := source[loc[2]:loc[3]]
		name := source[loc[4]:loc[5]]
		arity := 0
		if loc[8] >= 0 {
			arity, _ = strconv.Atoi(source[loc[8]:loc[9]])
		}
		body, ok := braceBody(source, loc[1])
		if !ok {
			continue
		}
		m := Macro{Name: name, Body: body, Arity: arity}
		t.set(m, form != "providecommand")
	}

	for _, loc := range defRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[loc[2]:loc[3]]
		body, ok := braceBody(source, loc[1])
		if !ok {
			continue
		}
		t.set(Macro{Name: name, Body: body}, false)
	}

	for _, loc := range operatorRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[loc[2]:loc[3]]
		body, ok := braceBody(source, loc[1])
		if !ok {
			continue
		}
		t.set(Macro{Name: name, Body: `\operatorname{` + body + `}`}, false)
	}

	return t
}

// braceBody reads the balanced brace group starting at or after src[from].
func braceBody(src string, from int) (string, bool) {
	if from >= len(src) || src[from] != '{' {
		return "", false
	}
	close := scanner.FindBalanced(src, from)
	if close == scanner.Unbalanced {
		return "", false
	}
	return src[from+1 : close], true
}

// set records m as a user definition. overwrite false means first user
// writer wins; a built-in entry never blocks a user definition.
func (t *Table) set(m Macro, overwrite bool) {
	if _, exists := t.byName[m.Name]; exists {
		if !overwrite && !t.builtin[m.Name] {
			return
		}
		t.byName[m.Name] = m
		delete(t.builtin, m.Name)
		return
	}
	t.byName[m.Name] = m
	t.order = append(t.order, m.Name)
}

// Get returns the macro for name.
func (t *Table) Get(name string) (Macro, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.byName) }

// Names returns all macro names in first-seen order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// MathJSON serializes the table as the JSON object the math renderer expects
// for its macros option: {"\\name": "body", ...}. Keys are sorted so output
// is stable across runs.
func (t *Table) MathJSON() string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(`\` + name)
		val, _ := json.Marshal(t.byName[name].Body)
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}
