package linemap

import (
	"fmt"
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

// InjectAnchors inserts invisible line anchors into converted HTML. An
// anchor is placed immediately before a newline only when the scanner
// reports a safe break point, never inside math spans, tags, comments, or
// verbatim blocks. The data-line value is the 1-based merged line number of
// the line the newline terminates; stride thins anchors to every Nth line.
func InjectAnchors(html string, stride int) string {
	if stride < 1 {
		stride = 1
	}

	var b strings.Builder
	b.Grow(len(html) + len(html)/4)

	sc := scanner.New()
	line := 1
	i := 0
	for i < len(html) {
		if html[i] == '\n' && sc.CanBreak() {
			if (line-1)%stride == 0 {
				fmt.Fprintf(&b, `<span class="sync-line" data-line="%d"></span>`, line)
			}
			b.WriteByte('\n')
			line++
			i++
			continue
		}
		next := sc.Step(html, i)
		b.WriteString(html[i:next])
		line += strings.Count(html[i:next], "\n")
		i = next
	}
	return b.String()
}
