package convert

import (
	"regexp"
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

var bibitemRe = regexp.MustCompile(`\\bibitem\s*\{([^}]*)\}`)

// convertBibliography renders thebibliography as a flat list of escaped
// entries split on citation-key markers. Entries are HTML-escaped but not
// further formatted; full bibliography styling is out of scope.
func convertBibliography(src string) string {
	for {
		i := strings.Index(src, `\begin{thebibliography}`)
		if i < 0 {
			return src
		}
		bodyStart := i + len(`\begin{thebibliography}`)
		// Widest-label argument, e.g. {99}.
		if bodyStart < len(src) && src[bodyStart] == '{' {
			if close := scanner.FindBalanced(src, bodyStart); close != scanner.Unbalanced {
				bodyStart = close + 1
			}
		}
		end := scanner.FindEnvEnd(src, "thebibliography", bodyStart)
		if end == scanner.Unbalanced {
			src = src[:i] + src[bodyStart:]
			continue
		}
		body := src[bodyStart:end]
		after := end + len(`\end{thebibliography}`)

		src = src[:i] + renderBibliography(body) + src[after:]
	}
}

func renderBibliography(body string) string {
	var b strings.Builder
	b.WriteString(`<div class="bibliography">`)

	locs := bibitemRe.FindAllStringSubmatchIndex(body, -1)
	for n, m := range locs {
		key := body[m[2]:m[3]]
		entryEnd := len(body)
		if n+1 < len(locs) {
			entryEnd = locs[n+1][0]
		}
		entry := strings.TrimSpace(body[m[1]:entryEnd])
		b.WriteString(`<p class="bibitem">[` + bibEscape(key) + `] ` + bibEscape(entry) + `</p>`)
	}

	b.WriteString(`</div>`)
	b.WriteString(strings.Repeat("\n", strings.Count(body, "\n")))
	return b.String()
}

// bibEscape HTML-escapes an entry and neutralizes backslashes so later
// passes cannot reinterpret leftover control sequences.
func bibEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`\`, "&#92;",
		"$", "&#36;",
	)
	return r.Replace(s)
}
