package convert

import "strings"

// StripComments removes % comments from source while preserving line
// structure: comment text is dropped but every newline is kept, so line
// numbering downstream is unaffected. An escaped \% is a literal percent and
// is left alone. Comments are not recognized inside verbatim-like
// environments or inline \verb spans, whose content must survive byte-for-byte.
func StripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	for i := 0; i < len(src); {
		// Verbatim environments suspend comment recognition entirely.
		if name, ok := verbatimEnvAt(src, i); ok {
			end := strings.Index(src[i:], `\end{`+name+`}`)
			if end < 0 {
				b.WriteString(src[i:])
				return b.String()
			}
			stop := i + end + len(`\end{`+name+`}`)
			b.WriteString(src[i:stop])
			i = stop
			continue
		}

		c := src[i]
		switch c {
		case '\\':
			if i+1 < len(src) {
				// Inline verb: copy delimiter-to-delimiter untouched.
				if rest, ok := verbSpanAt(src, i); ok {
					b.WriteString(src[i:rest])
					i = rest
					continue
				}
				b.WriteByte(c)
				b.WriteByte(src[i+1])
				i += 2
				continue
			}
			b.WriteByte(c)
			i++
		case '%':
			// Drop to end of line, keep the newline itself.
			for i < len(src) && src[i] != '\n' {
				i++
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// verbatimEnvNames are environments whose body is raw text.
var verbatimEnvNames = []string{"verbatim", "lstlisting", "Verbatim"}

// verbatimEnvAt reports whether src[i] starts \begin{name} for a verbatim
// environment, returning the name.
func verbatimEnvAt(src string, i int) (string, bool) {
	for _, name := range verbatimEnvNames {
		if strings.HasPrefix(src[i:], `\begin{`+name+`}`) {
			return name, true
		}
	}
	return "", false
}

// verbSpanAt matches \verb<delim>...<delim> at src[i] and returns the index
// just past the closing delimiter.
func verbSpanAt(src string, i int) (int, bool) {
	const verb = `\verb`
	if !strings.HasPrefix(src[i:], verb) {
		return 0, false
	}
	j := i + len(verb)
	if j >= len(src) {
		return 0, false
	}
	delim := src[j]
	if delim == ' ' || delim == '\n' || isLetter(delim) {
		return 0, false
	}
	end := strings.IndexByte(src[j+1:], delim)
	if end < 0 {
		return 0, false
	}
	return j + 1 + end + 1, true
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
