package convert

import (
	"regexp"
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

// normalizeLongtables rewrites every longtable environment into an
// equivalent table+tabular pair, so table handling downstream is a single
// code path. Header/footer directives specific to longtable are dropped.
var longtableHeadRe = regexp.MustCompile(`\\(endfirsthead|endhead|endfoot|endlastfoot)\b`)

func normalizeLongtables(src string) string {
	src = strings.ReplaceAll(src, `\begin{longtable}`, `\begin{table}\begin{tabular}`)
	src = strings.ReplaceAll(src, `\end{longtable}`, `\end{tabular}\end{table}`)
	return longtableHeadRe.ReplaceAllString(src, "")
}

// multicolsRe matches the opening of a multicols environment and captures
// the column count.
var multicolsRe = regexp.MustCompile(`\\begin\{multicols\}\{([0-9]+)\}`)

// convertMulticols renders multicols content in CSS columns.
func convertMulticols(src string) string {
	for {
		m := multicolsRe.FindStringSubmatchIndex(src)
		if m == nil {
			return src
		}
		cols := src[m[2]:m[3]]
		end := scanner.FindEnvEnd(src, "multicols", m[1])
		if end == scanner.Unbalanced {
			// Malformed: drop the opener, keep the content.
			return src[:m[0]] + src[m[1]:]
		}
		body := src[m[1]:end]
		after := end + len(`\end{multicols}`)
		src = src[:m[0]] + `<div style="column-count:` + cols + `">` + body + `</div>` + src[after:]
	}
}

// keepEnvs are environment names already handled by a dedicated converter;
// any other non-math environment left at this point is unknown and degrades
// to its literal content.
var keepEnvs = map[string]bool{
	"table": true, "tabular": true, "longtable": true,
	"figure": true, "itemize": true, "enumerate": true, "description": true,
	"theorem": true, "lemma": true, "proposition": true, "corollary": true,
	"definition": true, "remark": true, "identity": true, "tcolorbox": true,
	"thebibliography": true, "multicols": true, "verbatim": true,
	"lstlisting": true,
}

var beginAnyRe = regexp.MustCompile(`\\begin\{([a-zA-Z*]+)\}`)

// stripUnknownEnvs removes the open/close markers of environments that are
// neither math nor handled by name, leaving their content as plain text.
// Runs to a fixed point so nested unknown environments unwrap fully.
func stripUnknownEnvs(src string) string {
	for {
		changed := false
		locs := beginAnyRe.FindAllStringSubmatchIndex(src, -1)
		for _, m := range locs {
			name := src[m[2]:m[3]]
			base := strings.TrimSuffix(name, "*")
			if scanner.IsMathEnv(name) || keepEnvs[base] {
				continue
			}
			end := scanner.FindEnvEnd(src, name, m[1])
			if end == scanner.Unbalanced {
				// No matching close: drop the opener only.
				src = src[:m[0]] + src[m[1]:]
			} else {
				after := end + len(`\end{`+name+`}`)
				src = src[:m[0]] + src[m[1]:end] + src[after:]
			}
			changed = true
			break
		}
		if !changed {
			return src
		}
	}
}

// stripCommand removes every `\name{...}` (balanced) occurrence from src.
// Used for layout-only directives such as \centering and \label.
func stripCommand(src, name string) string {
	needle := `\` + name
	for {
		i := indexCommand(src, needle)
		if i < 0 {
			return src
		}
		j := i + len(needle)
		for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
			j++
		}
		if j < len(src) && src[j] == '{' {
			close := scanner.FindBalanced(src, j)
			if close == scanner.Unbalanced {
				// Malformed: drop the command token alone.
				src = src[:i] + src[i+len(needle):]
				continue
			}
			src = src[:i] + src[close+1:]
			continue
		}
		src = src[:i] + src[j:]
	}
}

// indexCommand finds `\name` not followed by another letter (so \label does
// not match \labelwidth).
func indexCommand(src, needle string) int {
	from := 0
	for {
		i := strings.Index(src[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		next := i + len(needle)
		if next >= len(src) || !isLetter(src[next]) {
			return i
		}
		from = next
	}
}
