package convert

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/livetex/go-livetex/internal/scanner"
)

// verbStash holds converted verbatim blocks keyed by placeholder so later
// converters can never rewrite their content. Placeholders carry the same
// number of newlines as the block they replace, keeping line numbering
// stable for the anchor pass.
type verbStash struct {
	blocks []string
}

// placeholder returns the token for block index i.
func placeholder(i int) string {
	return fmt.Sprintf("\x00LTXV%d\x00", i)
}

// lstOptRe extracts a language from lstlisting options like
// [language=Python, caption=...].
var lstOptRe = regexp.MustCompile(`language\s*=\s*([A-Za-z0-9+#-]+)`)

// hideVerbatim converts verbatim and lstlisting environments to highlighted
// <pre> blocks and replaces them with placeholders until the rest of the
// chain has run. Unclosed environments are left as-is (malformed input
// degrades, never errors).
func hideVerbatim(src, style string) (string, *verbStash) {
	stash := &verbStash{}
	if style == "" {
		style = "github"
	}

	for _, env := range []string{"verbatim", "lstlisting"} {
		var b strings.Builder
		begin := `\begin{` + env + `}`
		for {
			i := strings.Index(src, begin)
			if i < 0 {
				break
			}
			bodyStart := i + len(begin)
			lang := ""
			if env == "lstlisting" && bodyStart < len(src) && src[bodyStart] == '[' {
				if optEnd := strings.IndexByte(src[bodyStart:], ']'); optEnd >= 0 {
					opts := src[bodyStart+1 : bodyStart+optEnd]
					if m := lstOptRe.FindStringSubmatch(opts); m != nil {
						lang = m[1]
					}
					bodyStart += optEnd + 1
				}
			}
			end := scanner.FindEnvEnd(src, env, bodyStart)
			if end == scanner.Unbalanced {
				break
			}
			body := strings.TrimPrefix(src[bodyStart:end], "\n")
			body = strings.TrimSuffix(body, "\n")

			block := renderListing(body, lang, style)
			idx := len(stash.blocks)
			stash.blocks = append(stash.blocks, block)

			b.WriteString(src[:i])
			b.WriteString(placeholder(idx))
			b.WriteString(strings.Repeat("\n", strings.Count(src[i:end], "\n")))
			src = src[end+len(`\end{`+env+`}`):]
		}
		b.WriteString(src)
		src = b.String()
	}
	return src, stash
}

// renderListing highlights code with chroma, falling back to an escaped
// <pre> when no lexer matches or highlighting fails.
func renderListing(code, lang, style string) string {
	if lang != "" {
		var hl strings.Builder
		if err := quick.Highlight(&hl, code, lang, "html", style); err == nil {
			return hl.String()
		}
	}
	return "<pre><code>" + html.EscapeString(code) + "</code></pre>"
}

// restore substitutes the stashed blocks back into out.
func (s *verbStash) restore(out string) string {
	for i, block := range s.blocks {
		out = strings.Replace(out, placeholder(i), block, 1)
	}
	return out
}
