package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

// colSpec is one column's alignment plus an optional percentage width.
type colSpec struct {
	align string // "left", "center", "right"
	width string // percentage digits, or "" when unset
}

// ruleRe strips horizontal rule and row-spacing directives; they are not
// rendered.
var ruleRe = regexp.MustCompile(`\\(hline|toprule|midrule|bottomrule|cline\{[^}]*\}|arrayrulecolor\{[^}]*\}|rowcolor\{[^}]*\})`)

// spacerRe matches a bare vertical spacer token. A cell holding only one of
// these becomes a zero-content spacer cell and does not consume a data cell.
var spacerRe = regexp.MustCompile(`^\\(vspace\*?\{[^}]*\}|smallskip|medskip|bigskip)$`)

// convertTables renders table and tabular environments. longtable has
// already been normalized to table+tabular, so this is the single table
// code path.
func convertTables(src string) string {
	src = convertTabulars(src)

	// Unwrap table floats around the rendered grids: keep the caption,
	// drop placement and layout directives.
	for {
		i := strings.Index(src, `\begin{table}`)
		if i < 0 {
			return src
		}
		bodyStart := i + len(`\begin{table}`)
		if bodyStart < len(src) && src[bodyStart] == '[' {
			if end := strings.IndexByte(src[bodyStart:], ']'); end >= 0 {
				bodyStart += end + 1
			}
		}
		end := scanner.FindEnvEnd(src, "table", bodyStart)
		if end == scanner.Unbalanced {
			return src[:i] + src[bodyStart:]
		}
		body := src[bodyStart:end]
		after := end + len(`\end{table}`)

		caption := ""
		if ci := indexCommand(body, `\caption`); ci >= 0 {
			open := ci + len(`\caption`)
			if open < len(body) && body[open] == '{' {
				if close := scanner.FindBalancedMathTolerant(body, open); close != scanner.Unbalanced {
					caption = `<div class="table-caption">` + body[open+1:close] + `</div>`
					body = body[:ci] + body[close+1:]
				}
			}
		}
		body = stripCommand(body, "centering")
		body = stripCommand(body, "label")

		src = src[:i] + `<div class="table">` + body + caption + `</div>` + src[after:]
	}
}

// convertTabulars rewrites every tabular environment into an HTML table.
func convertTabulars(src string) string {
	for {
		i := strings.Index(src, `\begin{tabular}`)
		if i < 0 {
			return src
		}
		specStart := i + len(`\begin{tabular}`)
		if specStart < len(src) && src[specStart] == '[' {
			if end := strings.IndexByte(src[specStart:], ']'); end >= 0 {
				specStart += end + 1
			}
		}
		if specStart >= len(src) || src[specStart] != '{' {
			// No column spec: malformed, drop the opener.
			src = src[:i] + src[specStart:]
			continue
		}
		specEnd := scanner.FindBalanced(src, specStart)
		if specEnd == scanner.Unbalanced {
			src = src[:i] + src[specStart:]
			continue
		}
		cols := parseColSpec(src[specStart+1 : specEnd])

		end := scanner.FindEnvEnd(src, "tabular", specEnd+1)
		if end == scanner.Unbalanced {
			src = src[:i] + src[specEnd+1:]
			continue
		}
		body := src[specEnd+1 : end]
		after := end + len(`\end{tabular}`)

		table := renderTable(body, cols)
		// Preserve the newline count of the replaced span.
		if missing := strings.Count(src[i:after], "\n") - strings.Count(table, "\n"); missing > 0 {
			table += strings.Repeat("\n", missing)
		}
		src = src[:i] + table + src[after:]
	}
}

// parseColSpec walks the column spec token by token: l, c, r, and p{width}
// carry meaning; decorative tokens (|, @{...}, !{...}, spaces) are ignored.
func parseColSpec(spec string) []colSpec {
	var cols []colSpec
	for i := 0; i < len(spec); i++ {
		switch spec[i] {
		case 'l':
			cols = append(cols, colSpec{align: "left"})
		case 'c':
			cols = append(cols, colSpec{align: "center"})
		case 'r':
			cols = append(cols, colSpec{align: "right"})
		case 'p':
			width := ""
			if i+1 < len(spec) && spec[i+1] == '{' {
				close := scanner.FindBalanced(spec, i+1)
				if close != scanner.Unbalanced {
					width = parseColWidth(spec[i+2 : close])
					i = close
				}
			}
			cols = append(cols, colSpec{align: "left", width: width})
		case '@', '!':
			if i+1 < len(spec) && spec[i+1] == '{' {
				if close := scanner.FindBalanced(spec, i+1); close != scanner.Unbalanced {
					i = close
				}
			}
		}
	}
	return cols
}

// parseColWidth interprets a p-column width: a fraction of line width
// (0.3\linewidth) or an explicit percentage (30%). Anything else leaves the
// width unset.
func parseColWidth(w string) string {
	w = strings.TrimSpace(w)
	for _, unit := range widthUnits {
		if frac, ok := strings.CutSuffix(w, unit); ok {
			if pct, ok := fractionPercent(frac); ok {
				return pct
			}
			return ""
		}
	}
	if pct, ok := strings.CutSuffix(w, "%"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(pct)); err == nil && n > 0 && n <= 100 {
			return strconv.Itoa(n)
		}
	}
	return ""
}

// renderTable splits the body into rows on unescaped row breaks and cells on
// unescaped column separators, then emits the HTML grid.
func renderTable(body string, cols []colSpec) string {
	body = ruleRe.ReplaceAllString(body, "")

	var b strings.Builder
	b.WriteString("<table>")
	for _, row := range splitTopLevel(body, `\\`) {
		row = strings.TrimSpace(trimRowSpacing(row))
		if row == "" {
			continue
		}
		b.WriteString("<tr>")
		dataCell := 0
		for _, cell := range splitTopLevel(row, "&") {
			cell = strings.TrimSpace(cell)
			if spacerRe.MatchString(cell) {
				b.WriteString(`<td class="spacer"></td>`)
				continue
			}
			b.WriteString(cellTag(cell, dataCell, cols))
			dataCell++
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// trimRowSpacing drops a leading [4pt]-style spacing option left over from
// the row break that opened this row.
func trimRowSpacing(row string) string {
	trimmed := strings.TrimLeft(row, " \t\n")
	if strings.HasPrefix(trimmed, "[") {
		if end := strings.IndexByte(trimmed, ']'); end >= 0 {
			return trimmed[end+1:]
		}
	}
	return row
}

// cellTag renders one data cell with its column's alignment and width.
func cellTag(content string, idx int, cols []colSpec) string {
	var styles []string
	if idx < len(cols) {
		if cols[idx].align != "" && cols[idx].align != "left" {
			styles = append(styles, "text-align:"+cols[idx].align)
		}
		if cols[idx].width != "" {
			styles = append(styles, "width:"+cols[idx].width+"%")
		}
	}
	if len(styles) == 0 {
		return "<td>" + content + "</td>"
	}
	return fmt.Sprintf(`<td style="%s">%s</td>`, strings.Join(styles, ";"), content)
}

// splitTopLevel splits s on sep (`\\` or "&") occurrences at brace depth
// zero that are not escaped and not inside a nested environment.
func splitTopLevel(s, sep string) []string {
	var parts []string
	depth, envDepth := 0, 0
	start := 0
	i := 0
	for i < len(s) {
		if strings.HasPrefix(s[i:], `\begin{`) {
			envDepth++
			i += len(`\begin{`)
			continue
		}
		if strings.HasPrefix(s[i:], `\end{`) {
			if envDepth > 0 {
				envDepth--
			}
			i += len(`\end{`)
			continue
		}
		c := s[i]
		if c == '\\' {
			if sep == `\\` && i+1 < len(s) && s[i+1] == '\\' && depth == 0 && envDepth == 0 {
				parts = append(parts, s[start:i])
				i += 2
				start = i
				continue
			}
			i += 2 // escape protects the next char
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '&':
			if sep == "&" && depth == 0 && envDepth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
		i++
	}
	parts = append(parts, s[start:])
	return parts
}
