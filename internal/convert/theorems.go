package convert

import (
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

// theoremEnvs are the theorem-like block environments, rendered as a bold
// label line followed by the converted body.
var theoremEnvs = []string{
	"theorem", "lemma", "proposition", "corollary",
	"definition", "remark", "identity",
}

func convertTheorems(src string) string {
	for _, env := range theoremEnvs {
		src = convertTheoremEnv(src, env)
	}
	return src
}

func convertTheoremEnv(src, env string) string {
	begin := `\begin{` + env + `}`
	label := strings.ToUpper(env[:1]) + env[1:]
	for {
		i := strings.Index(src, begin)
		if i < 0 {
			return src
		}
		bodyStart := i + len(begin)

		// Optional bracketed title suffixes the label.
		title := ""
		if bodyStart < len(src) && src[bodyStart] == '[' {
			if end := findOptionEnd(src, bodyStart); end >= 0 {
				title = src[bodyStart+1 : end]
				bodyStart = end + 1
			}
		}
		end := scanner.FindEnvEnd(src, env, bodyStart)
		if end == scanner.Unbalanced {
			src = src[:i] + src[bodyStart:]
			continue
		}
		body := src[bodyStart:end]
		after := end + len(`\end{`+env+`}`)

		head := label
		if title != "" {
			head += " (" + title + ")"
		}
		block := `<div class="` + env + `"><strong>` + head + `.</strong>` + body + `</div>`
		src = src[:i] + block + src[after:]
	}
}
