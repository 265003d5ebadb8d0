package convert

import (
	"html"
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

// formatCommands are single-argument formatting commands special-cased to
// recurse into their own content, so nested formatting and nested math
// inside formatting both resolve correctly.
var formatCommands = map[string]string{
	"textbf":    "strong",
	"textit":    "em",
	"emph":      "em",
	"underline": "u",
	"texttt":    "code",
}

// symbolCommands are zero-argument control sequences substituted in prose.
var symbolCommands = map[string]string{
	"ldots":         "…",
	"dots":          "…",
	"LaTeX":         "LaTeX",
	"TeX":           "TeX",
	"textbackslash": `\`,
	"quad":          "&emsp;",
	"qquad":         "&emsp;&emsp;",
	"textellipsis":  "…",
}

// droppedCommands are layout directives with no preview rendering. An
// optional brace argument is dropped with them.
var droppedCommands = map[string]bool{
	"noindent": true, "newpage": true, "clearpage": true,
	"centering": true, "vspace": true, "hspace": true,
	"vfill": true, "hfill": true, "medskip": true,
	"smallskip": true, "bigskip": true, "maketitle": true,
	"tableofcontents": true, "label": true, "pagebreak": true,
}

// SplitProse walks text left-to-right: math spans are copied through
// byte-identical (delimiters included), HTML regions produced by earlier
// converters are copied untouched, and everything else gets inline
// formatting, symbol substitution, and HTML escaping.
func SplitProse(src string) string {
	var b strings.Builder
	b.Grow(len(src) + len(src)/8)

	sc := scanner.New()
	i := 0
	for i < len(src) {
		if sc.State() != scanner.Plain {
			// Inside a tag, comment, or verbatim block: copy verbatim.
			next := sc.Step(src, i)
			b.WriteString(src[i:next])
			i = next
			continue
		}

		c := src[i]
		switch c {
		case '$':
			if end, ok := scanner.MathSpanEnd(src, i); ok {
				b.WriteString(src[i:end])
				i = end
				continue
			}
			// Unclosed math: degrade to literal text.
			b.WriteByte(c)
			i++
		case '\\':
			i = emitCommand(&b, src, i)
		case '<':
			next := sc.Step(src, i)
			if sc.State() != scanner.Plain {
				b.WriteString(src[i:next])
				i = next
				continue
			}
			b.WriteString("&lt;")
			i++
		case '>':
			b.WriteString("&gt;")
			i++
		case '&':
			if isEntityStart(src, i) {
				b.WriteByte(c)
			} else {
				b.WriteString("&amp;")
			}
			i++
		case '~':
			b.WriteString("&nbsp;")
			i++
		case '`':
			if i+1 < len(src) && src[i+1] == '`' {
				b.WriteString("“")
				i += 2
			} else {
				b.WriteString("‘")
				i++
			}
		case '\'':
			if i+1 < len(src) && src[i+1] == '\'' {
				b.WriteString("”")
				i += 2
			} else {
				b.WriteByte(c)
				i++
			}
		case '-':
			switch {
			case strings.HasPrefix(src[i:], "---"):
				b.WriteString("—")
				i += 3
			case strings.HasPrefix(src[i:], "--"):
				b.WriteString("–")
				i += 2
			default:
				b.WriteByte(c)
				i++
			}
		case '{', '}':
			// Bare group braces have no rendering.
			i++
		case '\n':
			if n, j := newlineRun(src, i); n >= 2 {
				// Blank line: paragraph gap. Emit exactly the
				// newlines found so line numbering is stable.
				b.WriteString("<br><br>")
				b.WriteString(strings.Repeat("\n", n))
				i = j
				continue
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// emitCommand handles a backslash at src[i] in Plain state and returns the
// next index. Unknown commands degrade to their literal text.
func emitCommand(b *strings.Builder, src string, i int) int {
	if i+1 >= len(src) {
		b.WriteByte('\\')
		return i + 1
	}
	next := src[i+1]

	// Escaped specials render as the literal character.
	switch next {
	case '%', '&', '_', '#', '$', '{', '}':
		if next == '&' {
			b.WriteString("&amp;")
		} else {
			b.WriteByte(next)
		}
		return i + 2
	case '\\':
		// Line break, with optional spacing like \\[4pt].
		j := i + 2
		if j < len(src) && src[j] == '[' {
			if end := strings.IndexByte(src[j:], ']'); end >= 0 {
				j += end + 1
			}
		}
		b.WriteString("<br>")
		return j
	case '[', '(':
		// Display math opener that never closed; degrade to literal.
		if end, ok := scanner.MathSpanEnd(src, i); ok {
			b.WriteString(src[i:end])
			return end
		}
		b.WriteString(html.EscapeString(src[i : i+2]))
		return i + 2
	}

	name, after := commandName(src, i)
	if name == "" {
		b.WriteString(html.EscapeString(src[i : i+2]))
		return i + 2
	}
	if after < len(src) && src[after] == '*' {
		after++ // starred forms behave like their base command
	}

	switch {
	case name == "begin":
		// A math environment is a math span; anything else here is
		// ordinary prose (unknown names were already unwrapped).
		if end, ok := scanner.MathSpanEnd(src, i); ok {
			b.WriteString(src[i:end])
			return end
		}
		b.WriteString(html.EscapeString(`\begin`))
		return after
	case name == "verb":
		if end, ok := verbSpanAt(src, i); ok {
			code := src[i+len(`\verb`)+1 : end-1]
			b.WriteString("<code>" + html.EscapeString(code) + "</code>")
			return end
		}
	case name == "href":
		if url, text, end, ok := twoBraceArgs(src, after); ok {
			b.WriteString(`<a href="` + html.EscapeString(url) + `">` + SplitProse(text) + `</a>`)
			return end
		}
	case name == "url":
		if arg, end, ok := oneBraceArg(src, after); ok {
			esc := html.EscapeString(arg)
			b.WriteString(`<a href="` + esc + `">` + esc + `</a>`)
			return end
		}
	}

	if tag, ok := formatCommands[name]; ok {
		if arg, end, ok := oneBraceArg(src, after); ok {
			b.WriteString("<" + tag + ">" + SplitProse(arg) + "</" + tag + ">")
			return end
		}
	}
	if sub, ok := symbolCommands[name]; ok {
		b.WriteString(sub)
		return after
	}
	if droppedCommands[name] {
		if _, end, ok := oneBraceArg(src, after); ok {
			return end
		}
		return after
	}

	// Unknown command: leave the fragment unconverted.
	b.WriteString(html.EscapeString(src[i:after]))
	return after
}

// commandName reads the letters after the backslash at src[i].
func commandName(src string, i int) (string, int) {
	j := i + 1
	for j < len(src) && isLetter(src[j]) {
		j++
	}
	if j == i+1 {
		return "", j
	}
	return src[i+1 : j], j
}

// oneBraceArg reads a balanced {arg} at or after src[from] (skipping spaces).
func oneBraceArg(src string, from int) (arg string, end int, ok bool) {
	for from < len(src) && (src[from] == ' ' || src[from] == '\t') {
		from++
	}
	if from >= len(src) || src[from] != '{' {
		return "", 0, false
	}
	close := scanner.FindBalancedMathTolerant(src, from)
	if close == scanner.Unbalanced {
		return "", 0, false
	}
	return src[from+1 : close], close + 1, true
}

// twoBraceArgs reads {a}{b} starting at src[from].
func twoBraceArgs(src string, from int) (a, b string, end int, ok bool) {
	a, mid, ok := oneBraceArg(src, from)
	if !ok {
		return "", "", 0, false
	}
	b, end, ok = oneBraceArg(src, mid)
	if !ok {
		return "", "", 0, false
	}
	return a, b, end, true
}

// newlineRun counts consecutive newlines (ignoring interleaved spaces)
// starting at src[i] and returns the count plus the index past the run.
func newlineRun(src string, i int) (n, end int) {
	for i < len(src) {
		switch src[i] {
		case '\n':
			n++
		case ' ', '\t', '\r':
		default:
			return n, i
		}
		i++
	}
	return n, i
}

// isEntityStart reports whether src[i] begins an HTML entity already emitted
// by an earlier pass, so escaping stays idempotent.
func isEntityStart(src string, i int) bool {
	end := i + 1
	if end < len(src) && src[end] == '#' {
		end++
		for end < len(src) && end < i+8 && src[end] >= '0' && src[end] <= '9' {
			end++
		}
	} else {
		for end < len(src) && end < i+10 && isLetter(src[end]) {
			end++
		}
	}
	return end > i+1 && end < len(src) && src[end] == ';'
}
