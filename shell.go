package livetex

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/livetex/go-livetex/internal/assets"
)

// shellTemplate is parsed once; the embedded shell is a build-time constant.
var shellTemplate = template.Must(template.New("shell").Parse(assets.Shell()))

type shellData struct {
	Title      string
	Style      template.CSS
	MacroJSON  template.JS
	SocketURL  string
	Body       template.HTML
	SyncScript template.HTML
}

// assembleShell wraps the converted body in the full preview page: math
// renderer config with the macro table, stylesheet, and, when a socket URL
// is set, the synchronization script.
func (t *Transpiler) assembleShell(title, body, macroJSON string) (string, error) {
	var sync template.HTML
	if t.socketURL != "" {
		sync = template.HTML("<script>\n" + assets.Script() + "</script>") // #nosec G203 -- embedded asset, not user input
	}

	var b strings.Builder
	err := shellTemplate.Execute(&b, shellData{
		Title:      title,
		Style:      template.CSS(assets.Style()), // #nosec G203 -- embedded asset
		MacroJSON:  template.JS(macroJSON),       // #nosec G203 -- built from parsed macro table
		SocketURL:  t.socketURL,
		Body:       template.HTML(body), // #nosec G203 -- produced by the converter, already escaped
		SyncScript: sync,
	})
	if err != nil {
		return "", fmt.Errorf("assembling shell: %w", err)
	}
	return b.String(), nil
}
