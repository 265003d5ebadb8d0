package convert

import (
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

// listEnvs maps list environment names to their HTML container.
var listEnvs = []struct {
	env string
	tag string
}{
	{"itemize", "ul"},
	{"enumerate", "ol"},
	{"description", "dl"},
}

// convertLists renders itemize, enumerate, and description environments.
// Bodies split on top-level \item boundaries; items with no content are
// dropped. Nested lists are handled by recursion on item content.
func convertLists(src string) string {
	for _, le := range listEnvs {
		src = convertListEnv(src, le.env, le.tag)
	}
	return src
}

func convertListEnv(src, env, tag string) string {
	begin := `\begin{` + env + `}`
	for {
		i := strings.Index(src, begin)
		if i < 0 {
			return src
		}
		bodyStart := i + len(begin)
		// Optional option group like [label=...] or [noitemsep].
		if bodyStart < len(src) && src[bodyStart] == '[' {
			if end := findOptionEnd(src, bodyStart); end >= 0 {
				bodyStart = end + 1
			}
		}
		end := scanner.FindEnvEnd(src, env, bodyStart)
		if end == scanner.Unbalanced {
			pad := strings.Repeat("\n", strings.Count(src[i:bodyStart], "\n"))
			src = src[:i] + pad + src[bodyStart:]
			continue
		}
		body := src[bodyStart:end]
		after := end + len(`\end{`+env+`}`)

		// Recurse so nested lists inside items resolve first.
		body = convertListEnv(body, env, tag)

		rendered := renderList(body, tag)
		if missing := strings.Count(src[i:after], "\n") - strings.Count(rendered, "\n"); missing > 0 {
			rendered += strings.Repeat("\n", missing)
		}
		src = src[:i] + rendered + src[after:]
	}
}

// renderList splits the body on top-level \item boundaries and emits the
// list container. For description lists an optional bracketed label becomes
// the <dt> term.
func renderList(body, tag string) string {
	items := splitItems(body)

	var b strings.Builder
	b.WriteString("<" + tag + ">")
	for _, item := range items {
		label, content := itemLabel(item)
		content = strings.TrimSpace(content)
		if content == "" && label == "" {
			continue // empty items are dropped
		}
		if tag == "dl" {
			b.WriteString("<dt>" + label + "</dt><dd>" + content + "</dd>")
			continue
		}
		b.WriteString("<li>" + content + "</li>")
	}
	b.WriteString("</" + tag + ">")
	return b.String()
}

// splitItems returns the content following each top-level \item. Text before
// the first \item is discarded (it can only be spacing directives).
func splitItems(body string) []string {
	var items []string
	depth, envDepth := 0, 0
	start := -1
	i := 0
	for i < len(body) {
		if strings.HasPrefix(body[i:], `\begin{`) {
			envDepth++
			i += len(`\begin{`)
			continue
		}
		if strings.HasPrefix(body[i:], `\end{`) {
			if envDepth > 0 {
				envDepth--
			}
			i += len(`\end{`)
			continue
		}
		if depth == 0 && envDepth == 0 && strings.HasPrefix(body[i:], `\item`) &&
			(i+len(`\item`) >= len(body) || !isLetter(body[i+len(`\item`)])) {
			if start >= 0 {
				items = append(items, body[start:i])
			}
			start = i + len(`\item`)
			i = start
			continue
		}
		switch body[i] {
		case '\\':
			i++ // escape
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		i++
	}
	if start >= 0 {
		items = append(items, body[start:])
	}
	return items
}

// itemLabel extracts an optional bracketed label directly after \item.
func itemLabel(item string) (label, content string) {
	trimmed := strings.TrimLeft(item, " \t")
	if !strings.HasPrefix(trimmed, "[") {
		return "", item
	}
	end := findOptionEnd(trimmed, 0)
	if end < 0 {
		return "", item
	}
	return strings.TrimSpace(trimmed[1:end]), trimmed[end+1:]
}
