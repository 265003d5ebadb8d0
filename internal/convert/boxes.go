package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

// defaultPalette is the built-in named color table. The exact palette is a
// configurable lookup: Options.Palette entries extend and override it.
var defaultPalette = map[string]string{
	"red":     "#ff0000",
	"green":   "#00ff00",
	"blue":    "#0000ff",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"yellow":  "#ffff00",
	"black":   "#000000",
	"white":   "#ffffff",
	"gray":    "#808080",
	"grey":    "#808080",
	"orange":  "#ff8000",
	"purple":  "#800080",
	"violet":  "#8000ff",
	"brown":   "#804000",
	"pink":    "#ffc0cb",
	"teal":    "#008080",
	"olive":   "#808000",
	"lime":    "#bfff00",
}

// fallbackColor is used when a color expression cannot be resolved.
const fallbackColor = "#808080"

// convertBoxes renders tcolorbox environments as styled callout divs. The
// option string is parsed for title, colback, and colframe; everything else
// is ignored.
func convertBoxes(src string, palette map[string]string) string {
	for {
		i := strings.Index(src, `\begin{tcolorbox}`)
		if i < 0 {
			return src
		}
		bodyStart := i + len(`\begin{tcolorbox}`)
		var optStr string
		if bodyStart < len(src) && src[bodyStart] == '[' {
			if end := findOptionEnd(src, bodyStart); end >= 0 {
				optStr = src[bodyStart+1 : end]
				bodyStart = end + 1
			}
		}
		end := scanner.FindEnvEnd(src, "tcolorbox", bodyStart)
		if end == scanner.Unbalanced {
			// Malformed: drop the opener, keep the content. Newlines in the
			// dropped span stay so later lines keep their numbers.
			pad := strings.Repeat("\n", strings.Count(src[i:bodyStart], "\n"))
			return src[:i] + pad + src[bodyStart:]
		}
		body := src[bodyStart:end]
		after := end + len(`\end{tcolorbox}`)

		opts := parseOptions(optStr)
		back := resolveColor(opts["colback"], palette)
		frame := resolveColor(opts["colframe"], palette)

		var b strings.Builder
		fmt.Fprintf(&b, `<div class="callout" style="background-color:%s;border:1px solid %s">`, back, frame)
		if title := opts["title"]; title != "" {
			fmt.Fprintf(&b, `<div class="callout-title" style="background-color:%s">%s</div>`, frame, title)
		}
		b.WriteString(body)
		b.WriteString(`</div>`)

		// A multi-line option group contributes newlines to the replaced
		// span; pad so every line after the box keeps its number.
		rendered := b.String()
		if missing := strings.Count(src[i:after], "\n") - strings.Count(rendered, "\n"); missing > 0 {
			rendered += strings.Repeat("\n", missing)
		}
		src = src[:i] + rendered + src[after:]
	}
}

// findOptionEnd returns the index of the `]` closing the option group
// opening at src[open], respecting brace nesting, or -1.
func findOptionEnd(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		case ']':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseOptions splits a key=value option string on commas at depth zero.
// Values may be brace-delimited; braces are removed. Keys without a value
// map to the empty string.
func parseOptions(s string) map[string]string {
	opts := make(map[string]string)
	depth := 0
	start := 0
	flush := func(end int) {
		part := strings.TrimSpace(s[start:end])
		if part == "" {
			return
		}
		key, val, found := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !found {
			opts[key] = ""
			return
		}
		val = strings.TrimSpace(val)
		if len(val) >= 2 && val[0] == '{' && val[len(val)-1] == '}' {
			val = val[1 : len(val)-1]
		}
		opts[key] = val
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(s))
	return opts
}

// resolveColor maps a LaTeX color expression (name, or name!pct!name2 blend
// chain) to a hex triple. Unrecognized colors fall back to a fixed default.
func resolveColor(expr string, palette map[string]string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fallbackColor
	}
	lookup := func(name string) (string, bool) {
		if palette != nil {
			if hex, ok := palette[name]; ok {
				return hex, true
			}
		}
		hex, ok := defaultPalette[name]
		return hex, ok
	}

	parts := strings.Split(expr, "!")
	base, ok := lookup(parts[0])
	if !ok {
		return fallbackColor
	}
	// name!pct mixes toward white; name!pct!name2 mixes toward name2.
	for i := 1; i < len(parts); i += 2 {
		pct, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || pct < 0 || pct > 100 {
			return fallbackColor
		}
		other := "#ffffff"
		if i+1 < len(parts) {
			hex, ok := lookup(strings.TrimSpace(parts[i+1]))
			if !ok {
				return fallbackColor
			}
			other = hex
		}
		base = mixHex(base, other, pct)
	}
	return base
}

// mixHex blends pct% of a with (100-pct)% of b.
func mixHex(a, b string, pct int) string {
	ar, ag, ab := splitHex(a)
	br, bg, bb := splitHex(b)
	mix := func(x, y int) int { return (x*pct + y*(100-pct)) / 100 }
	return fmt.Sprintf("#%02x%02x%02x", mix(ar, br), mix(ag, bg), mix(ab, bb))
}

func splitHex(hex string) (r, g, b int) {
	if len(hex) != 7 {
		return 0, 0, 0
	}
	r64, _ := strconv.ParseInt(hex[1:3], 16, 32)
	g64, _ := strconv.ParseInt(hex[3:5], 16, 32)
	b64, _ := strconv.ParseInt(hex[5:7], 16, 32)
	return int(r64), int(g64), int(b64)
}
