// Package scanner provides region classification and balanced-delimiter
// matching for LaTeX-subset source and the HTML produced from it.
//
// Every other stage of the pipeline is built on this package: converters use
// the balanced-brace finders to extract command arguments, the prose/math
// splitter uses the math-span finder, and the anchor injector replays the
// region state over the final HTML to find safe insertion points.
package scanner

import "strings"

// State classifies the scanner's cursor position. Exactly one state is active
// at any position; transitions are strictly delimiter-triggered.
type State int

const (
	// Plain is prose outside any math, tag, comment, or verbatim region.
	Plain State = iota
	// InlineMath is inside $...$.
	InlineMath
	// DisplayMathDouble is inside $$...$$.
	DisplayMathDouble
	// DisplayMathBracket is inside \[...\].
	DisplayMathBracket
	// DisplayMathParen is inside \(...\).
	DisplayMathParen
	// MathEnv is inside \begin{name}...\end{name} for an allow-listed
	// math environment. Nesting depth is tracked separately.
	MathEnv
	// HTMLTag is inside <...>, possibly with an open attribute quote.
	HTMLTag
	// HTMLComment is inside <!-- ... -->.
	HTMLComment
	// Verbatim is inside an HTML element whose content must never be
	// rewritten (pre, code, script, style).
	Verbatim
)

// Unbalanced is the sentinel index returned by the balanced-brace finders
// when no matching close exists. Callers must treat the command as malformed
// and skip it rather than abort the pass.
const Unbalanced = -1

// mathEnvs is the fixed allow-list of environment names whose content is
// math and must pass through the pipeline untouched.
var mathEnvs = map[string]bool{
	"equation": true, "align": true, "gather": true, "multline": true,
	"eqnarray": true, "alignat": true, "flalign": true, "split": true,
	"array": true, "cases": true, "matrix": true, "pmatrix": true,
	"bmatrix": true, "Bmatrix": true, "vmatrix": true, "Vmatrix": true,
	"smallmatrix": true, "aligned": true, "gathered": true, "darray": true,
}

// verbatimTags are HTML elements whose raw content suspends all other
// region recognition until the matching close tag.
var verbatimTags = map[string]bool{
	"pre": true, "code": true, "script": true, "style": true,
}

// IsMathEnv reports whether name (with an optional trailing star) is in the
// math environment allow-list.
func IsMathEnv(name string) bool {
	return mathEnvs[strings.TrimSuffix(name, "*")]
}

// Scanner tracks region state across a character walk. The zero value is a
// scanner in Plain state at depth zero.
type Scanner struct {
	state      State
	braceDepth int
	envDepth   int
	envName    string
	quote      byte
	verbTag    string
}

// New returns a scanner in Plain state.
func New() *Scanner { return &Scanner{} }

// State returns the current region state.
func (s *Scanner) State() State { return s.state }

// Depth returns the current brace nesting depth (tracked in Plain only).
func (s *Scanner) Depth() int { return s.braceDepth }

// CanBreak reports whether an anchor or paragraph break may be inserted at
// the current position: Plain state, zero brace depth, no open quote.
func (s *Scanner) CanBreak() bool {
	return s.state == Plain && s.braceDepth == 0 && s.quote == 0
}

// Step consumes the token starting at src[i] and returns the index of the
// next unconsumed byte. A token is one byte except for multi-byte delimiters
// ($$, \[, \begin{name}, <!--, close tags), which are consumed whole so a
// delimiter can never be half-entered.
func (s *Scanner) Step(src string, i int) int {
	switch s.state {
	case Plain:
		return s.stepPlain(src, i)
	case InlineMath:
		if src[i] == '\\' && i+1 < len(src) {
			return i + 2
		}
		if src[i] == '$' {
			s.state = Plain
		}
		return i + 1
	case DisplayMathDouble:
		if src[i] == '\\' && i+1 < len(src) {
			return i + 2
		}
		if src[i] == '$' && i+1 < len(src) && src[i+1] == '$' {
			s.state = Plain
			return i + 2
		}
		return i + 1
	case DisplayMathBracket, DisplayMathParen:
		if src[i] == '\\' && i+1 < len(src) {
			close := byte(']')
			if s.state == DisplayMathParen {
				close = ')'
			}
			if src[i+1] == close {
				s.state = Plain
			}
			return i + 2
		}
		return i + 1
	case MathEnv:
		return s.stepMathEnv(src, i)
	case HTMLTag:
		return s.stepHTMLTag(src, i)
	case HTMLComment:
		if strings.HasPrefix(src[i:], "-->") {
			s.state = Plain
			return i + 3
		}
		return i + 1
	case Verbatim:
		close := "</" + s.verbTag
		if strings.HasPrefix(src[i:], close) {
			if end := strings.IndexByte(src[i:], '>'); end >= 0 {
				s.state = Plain
				s.verbTag = ""
				return i + end + 1
			}
		}
		return i + 1
	}
	return i + 1
}

func (s *Scanner) stepPlain(src string, i int) int {
	switch src[i] {
	case '\\':
		if i+1 >= len(src) {
			return i + 1
		}
		switch src[i+1] {
		case '[':
			s.state = DisplayMathBracket
			return i + 2
		case '(':
			s.state = DisplayMathParen
			return i + 2
		}
		if name, after, ok := envDelimiter(src, i, `\begin{`); ok && IsMathEnv(name) {
			s.state = MathEnv
			s.envName = name
			s.envDepth = 1
			return after
		}
		// Escape: the next character never alters state or depth.
		return i + 2
	case '$':
		if i+1 < len(src) && src[i+1] == '$' {
			s.state = DisplayMathDouble
			return i + 2
		}
		s.state = InlineMath
		return i + 1
	case '{':
		s.braceDepth++
	case '}':
		if s.braceDepth > 0 {
			s.braceDepth--
		}
	case '<':
		if strings.HasPrefix(src[i:], "<!--") {
			s.state = HTMLComment
			return i + 4
		}
		if i+1 < len(src) && (isTagStart(src[i+1]) || src[i+1] == '/') {
			s.state = HTMLTag
			// Only opening tags can start a verbatim region.
			if src[i+1] != '/' {
				s.verbTag = tagName(src, i)
			} else {
				s.verbTag = ""
			}
			return i + 1
		}
	}
	return i + 1
}

func (s *Scanner) stepMathEnv(src string, i int) int {
	if src[i] != '\\' {
		return i + 1
	}
	if name, after, ok := envDelimiter(src, i, `\begin{`); ok && strings.TrimSuffix(name, "*") == strings.TrimSuffix(s.envName, "*") {
		s.envDepth++
		return after
	}
	if name, after, ok := envDelimiter(src, i, `\end{`); ok && strings.TrimSuffix(name, "*") == strings.TrimSuffix(s.envName, "*") {
		s.envDepth--
		if s.envDepth == 0 {
			s.state = Plain
			s.envName = ""
		}
		return after
	}
	if i+1 < len(src) {
		return i + 2
	}
	return i + 1
}

func (s *Scanner) stepHTMLTag(src string, i int) int {
	c := src[i]
	if s.quote != 0 {
		if c == s.quote {
			s.quote = 0
		}
		return i + 1
	}
	switch c {
	case '"', '\'':
		s.quote = c
	case '>':
		if verbatimTags[s.verbTag] {
			s.state = Verbatim
		} else {
			s.state = Plain
			s.verbTag = ""
		}
	}
	return i + 1
}

// envDelimiter matches prefix (either `\begin{` or `\end{`) at src[i] and
// returns the environment name and the index just past the closing brace.
func envDelimiter(src string, i int, prefix string) (name string, after int, ok bool) {
	if !strings.HasPrefix(src[i:], prefix) {
		return "", 0, false
	}
	start := i + len(prefix)
	end := strings.IndexByte(src[start:], '}')
	if end < 0 {
		return "", 0, false
	}
	return src[start : start+end], start + end + 1, true
}

// tagName extracts the element name from a `<` or `</` at src[i].
func tagName(src string, i int) string {
	j := i + 1
	if j < len(src) && src[j] == '/' {
		j++
	}
	start := j
	for j < len(src) && isTagChar(src[j]) {
		j++
	}
	return strings.ToLower(src[start:j])
}

func isTagStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '!'
}

func isTagChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}

// FindBalanced returns the index of the close brace matching the open brace
// at src[open], or Unbalanced if none exists. A backslash escapes the
// following character, protecting it from altering depth.
func FindBalanced(src string, open int) int {
	if open < 0 || open >= len(src) || src[open] != '{' {
		return Unbalanced
	}
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++ // escaped character
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return Unbalanced
}

// FindBalancedMathTolerant behaves like FindBalanced but skips over math
// spans inside the brace body, so captions and labels containing formulas
// with unmatched braces do not corrupt the depth count.
func FindBalancedMathTolerant(src string, open int) int {
	if open < 0 || open >= len(src) || src[open] != '{' {
		return Unbalanced
	}
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '\\':
			if i+1 < len(src) && (src[i+1] == '[' || src[i+1] == '(') {
				if end, ok := MathSpanEnd(src, i); ok {
					i = end - 1
					continue
				}
			}
			i++
		case '$':
			if end, ok := MathSpanEnd(src, i); ok {
				i = end - 1
				continue
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return Unbalanced
}

// MathSpanEnd returns the index just past the math span opening at src[i]
// ($, $$, \[, \(, or an allow-listed \begin{env}). ok is false if src[i]
// opens no math span or the span never closes.
func MathSpanEnd(src string, i int) (end int, ok bool) {
	s := New()
	next := s.Step(src, i)
	if s.state == Plain {
		return 0, false
	}
	for next < len(src) {
		next = s.Step(src, next)
		if s.state == Plain {
			return next, true
		}
	}
	return 0, false
}

// FindEnvEnd returns the index of the `\end{name}` matching the
// `\begin{name}` whose body starts at src[from], accounting for nested
// same-name environments. Returns Unbalanced if the environment never closes.
func FindEnvEnd(src, name string, from int) int {
	depth := 1
	begin := `\begin{` + name + `}`
	end := `\end{` + name + `}`
	for i := from; i < len(src); {
		switch {
		case strings.HasPrefix(src[i:], begin):
			depth++
			i += len(begin)
		case strings.HasPrefix(src[i:], end):
			depth--
			if depth == 0 {
				return i
			}
			i += len(end)
		default:
			i++
		}
	}
	return Unbalanced
}
