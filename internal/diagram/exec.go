package diagram

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/livetex/go-livetex/internal/process"
)

// ExecRunner renders diagrams by invoking an external command. The standalone
// document is written to a temp file; the command receives the file path and
// an output path as arguments and must write SVG to the output path.
type ExecRunner struct {
	// Command is the tool to invoke, e.g. "tectonic-svg" or a wrapper
	// script around latex + dvisvgm.
	Command string
	// Args precede the input and output paths.
	Args []string
}

// Run executes the toolchain for one document.
func (e *ExecRunner) Run(ctx context.Context, document string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "livetex-diagram-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "diagram.tex")
	outPath := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(inPath, []byte(document), 0o600); err != nil {
		return nil, fmt.Errorf("write diagram source: %w", err)
	}

	args := append(append([]string{}, e.Args...), inPath, outPath)
	cmd := exec.CommandContext(ctx, e.Command, args...) // #nosec G204 -- command comes from operator config
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		// Kill the whole tree; TeX toolchains fork helpers.
		process.KillProcessGroup(cmd.Process.Pid)
		return cmd.Process.Kill()
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w: %s", e.Command, err, firstLine(stderr.String()))
	}

	svg, err := os.ReadFile(outPath) // #nosec G304 -- path built above
	if err != nil {
		return nil, fmt.Errorf("read rendered SVG: %w", err)
	}
	return svg, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
