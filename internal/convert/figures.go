package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

var includegraphicsRe = regexp.MustCompile(`\\includegraphics\s*(\[[^\]]*\])?\s*\{([^}]*)\}`)

// widthUnits maps a dimension control sequence to the fraction-of-line-width
// interpretation. The unit table is a configurable subset, not full TeX.
var widthUnits = []string{`\linewidth`, `\textwidth`, `\columnwidth`}

// convertFigures renders figure environments: the first image-inclusion
// command is extracted with its width option, the first balanced
// (math-tolerant) caption is extracted, the remaining body is recursively
// converted, and layout-only directives are dropped silently.
func convertFigures(src string, opts Options) string {
	for {
		i := strings.Index(src, `\begin{figure}`)
		if i < 0 {
			return src
		}
		bodyStart := i + len(`\begin{figure}`)
		// Optional placement spec like [htbp].
		if bodyStart < len(src) && src[bodyStart] == '[' {
			if end := strings.IndexByte(src[bodyStart:], ']'); end >= 0 {
				bodyStart += end + 1
			}
		}
		end := scanner.FindEnvEnd(src, "figure", bodyStart)
		if end == scanner.Unbalanced {
			return src[:i] + src[bodyStart:]
		}
		body := src[bodyStart:end]
		after := end + len(`\end{figure}`)

		src = src[:i] + renderFigure(body, opts) + src[after:]
	}
}

// renderFigure builds the <figure> element from a figure body.
func renderFigure(body string, opts Options) string {
	var img, style string
	if m := includegraphicsRe.FindStringSubmatchIndex(body); m != nil {
		optStr := ""
		if m[2] >= 0 {
			optStr = body[m[2]+1 : m[3]-1]
		}
		path := body[m[4]:m[5]]
		style = imageStyle(optStr)
		img = fmt.Sprintf(`<img src="%s"%s>`, path, style)
		body = body[:m[0]] + body[m[1]:]
	}

	caption := ""
	if ci := indexCommand(body, `\caption`); ci >= 0 {
		open := ci + len(`\caption`)
		for open < len(body) && (body[open] == ' ' || body[open] == '\t') {
			open++
		}
		if open < len(body) && body[open] == '{' {
			if close := scanner.FindBalancedMathTolerant(body, open); close != scanner.Unbalanced {
				caption = body[open+1 : close]
				body = body[:ci] + body[close+1:]
			}
		}
	}

	body = stripCommand(body, "centering")
	body = stripCommand(body, "label")
	rest, _ := Convert(body, opts)

	var b strings.Builder
	b.WriteString(`<figure>`)
	b.WriteString(img)
	// rest keeps the body's newlines so line numbering survives.
	b.WriteString(rest)
	if caption != "" {
		b.WriteString(`<figcaption>` + caption + `</figcaption>`)
	}
	b.WriteString(`</figure>`)
	return b.String()
}

// imageStyle translates includegraphics options into an inline style:
// width as a fraction of line width, an absolute unit, or a scale factor.
func imageStyle(optStr string) string {
	for _, part := range strings.Split(optStr, ",") {
		key, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "width":
			for _, unit := range widthUnits {
				if frac, ok := strings.CutSuffix(val, unit); ok {
					if pct, ok := fractionPercent(frac); ok {
						return fmt.Sprintf(` style="width:%s%%"`, pct)
					}
				}
			}
			// Absolute unit such as 5cm or 120px.
			if val != "" {
				return fmt.Sprintf(` style="width:%s"`, val)
			}
		case "scale":
			if f, err := strconv.ParseFloat(val, 64); err == nil && f > 0 {
				return fmt.Sprintf(` style="width:%d%%"`, int(f*100))
			}
		}
	}
	return ""
}

// fractionPercent converts "0.5" (or "" meaning 1.0) to "50".
func fractionPercent(frac string) (string, bool) {
	frac = strings.TrimSpace(frac)
	if frac == "" {
		return "100", true
	}
	f, err := strconv.ParseFloat(frac, 64)
	if err != nil || f <= 0 || f > 1 {
		return "", false
	}
	return strconv.Itoa(int(f*100 + 0.5)), true
}
