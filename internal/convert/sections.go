package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/livetex/go-livetex/internal/scanner"
)

// sectionCommands maps each sectioning command to its heading level. h1 is
// reserved for the document shell.
var sectionCommands = []struct {
	cmd   string
	level int
	tag   string
}{
	{`\section`, 1, "h2"},
	{`\subsection`, 2, "h3"},
	{`\subsubsection`, 3, "h4"},
	{`\paragraph`, 4, "h5"},
}

// convertSections turns sectioning commands into headings tagged with a
// slugified id and a mark anchor carrying the merged line of the heading's
// source position. Marks are returned in document order.
func convertSections(src string) (string, []Mark) {
	var marks []Mark
	seen := make(map[string]int)

	// Longest command names first so \subsubsection is not consumed as
	// \subsection.
	for c := len(sectionCommands) - 1; c >= 0; c-- {
		sc := sectionCommands[c]
		from := 0
		for {
			i := indexCommand(src[from:], sc.cmd)
			if i < 0 {
				break
			}
			i += from
			open := i + len(sc.cmd)
			if open < len(src) && src[open] == '*' {
				open++
			}
			if open >= len(src) || src[open] != '{' {
				from = open
				continue
			}
			close := scanner.FindBalancedMathTolerant(src, open)
			if close == scanner.Unbalanced {
				from = open
				continue
			}
			title := src[open+1 : close]
			line := 1 + strings.Count(src[:i], "\n")
			id := uniqueSlug(slugify(title), seen)

			heading := fmt.Sprintf(
				`<%s id=%q><span class="sync-mark" id=%q data-line="%d"></span>%s</%s>`,
				sc.tag, id, "mark-"+id, line, title, sc.tag)
			src = src[:i] + heading + src[close+1:]
			from = i + len(heading)

			marks = append(marks, Mark{
				ID:    "mark-" + id,
				Title: strings.TrimSpace(title),
				Level: sc.level,
				Line:  line,
			})
		}
	}

	sortMarksByLine(marks)
	return src, marks
}

// sortMarksByLine restores document order after the per-command passes.
func sortMarksByLine(marks []Mark) {
	for i := 1; i < len(marks); i++ {
		for j := i; j > 0 && marks[j-1].Line > marks[j].Line; j-- {
			marks[j-1], marks[j] = marks[j], marks[j-1]
		}
	}
}

var (
	slugControlRe = regexp.MustCompile(`\\[a-zA-Z]+`)
	slugNonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
)

// slugify lower-cases the title, strips control sequences, collapses
// non-alphanumeric runs to single hyphens, and trims leading/trailing
// hyphens.
func slugify(title string) string {
	s := slugControlRe.ReplaceAllString(title, "")
	s = strings.ToLower(s)
	s = slugNonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "section"
	}
	return s
}

// uniqueSlug suffixes repeated slugs so ids stay unique.
func uniqueSlug(slug string, seen map[string]int) string {
	n := seen[slug]
	seen[slug] = n + 1
	if n == 0 {
		return slug
	}
	return fmt.Sprintf("%s-%d", slug, n)
}
