// Package linemap builds the bidirectional line correspondence between the
// user's as-typed source and the fully inlined document, and injects
// position anchors into the produced HTML at scan-safe points.
package linemap

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Result holds the merged source and the two line maps. Both maps are
// 1-based with index 0 unused, monotonically non-decreasing, and defined for
// every line index (no gaps); unmapped positions fall back to the nearest
// preceding mapped line.
type Result struct {
	Merged       string
	OrigToMerged []int
	MergedToOrig []int
}

var includeRe = regexp.MustCompile(`\\(?:input|include)\s*\{([^}]*)\}`)

// Inline resolves every \input/\include reference against baseDir and
// inlines it recursively. Missing files and include cycles are replaced with
// placeholder comments; inlining continues. The maps are computed over the
// result: original line i of src maps to the merged line where it landed,
// and every merged line maps back to the greatest original line at or above
// it.
func Inline(src, baseDir string) *Result {
	origLines := splitLines(src)
	visited := make(map[string]bool)

	var merged []string
	origToMerged := make([]int, len(origLines)+1)
	for i, line := range origLines {
		origToMerged[i+1] = len(merged) + 1
		merged = append(merged, expandLine(line, baseDir, visited)...)
	}

	mergedToOrig := make([]int, len(merged)+1)
	o := 1
	for m := 1; m <= len(merged); m++ {
		for o+1 < len(origToMerged) && origToMerged[o+1] <= m {
			o++
		}
		mergedToOrig[m] = o
	}

	return &Result{
		Merged:       strings.Join(merged, "\n"),
		OrigToMerged: origToMerged,
		MergedToOrig: mergedToOrig,
	}
}

// expandLine returns the merged lines one source line contributes: the line
// itself, or, when it carries an include command, the recursively inlined
// file content spliced between the text surrounding the command.
func expandLine(line, baseDir string, visited map[string]bool) []string {
	m := includeRe.FindStringSubmatchIndex(line)
	if m == nil {
		return []string{line}
	}
	pre := line[:m[0]]
	post := line[m[1]:]
	name := strings.TrimSpace(line[m[2]:m[3]])

	content := loadInclude(name, baseDir, visited)
	if len(content) == 0 {
		content = []string{""}
	}
	content[0] = pre + content[0]
	content[len(content)-1] += post
	return content
}

// loadInclude reads and recursively inlines one referenced file. The literal
// path is tried first, then the .tex suffix. visited tracks the current
// expansion stack for cycle detection.
func loadInclude(name, baseDir string, visited map[string]bool) []string {
	path, ok := resolveInclude(name, baseDir)
	if !ok {
		return []string{fmt.Sprintf("%% livetex: missing include %q", name)}
	}
	if visited[path] {
		return []string{fmt.Sprintf("%% livetex: skipped recursive include %q", name)}
	}
	data, err := os.ReadFile(path) // #nosec G304 -- include paths come from the user's own document
	if err != nil {
		return []string{fmt.Sprintf("%% livetex: missing include %q", name)}
	}

	visited[path] = true
	defer delete(visited, path)

	var out []string
	for _, line := range splitLines(string(data)) {
		out = append(out, expandLine(line, filepath.Dir(path), visited)...)
	}
	return out
}

// resolveInclude tries the literal path, then common suffixes.
func resolveInclude(name, baseDir string) (string, bool) {
	for _, candidate := range []string{name, name + ".tex"} {
		path := candidate
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, candidate)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// splitLines splits on \n after normalizing CRLF.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
