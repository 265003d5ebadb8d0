// Package livetex converts a LaTeX subset to HTML for live preview.
//
// # Quick Start
//
// Create a transpiler and convert a document:
//
//	tp := livetex.NewTranspiler()
//	result, err := tp.Transpile(ctx, livetex.Input{
//	    Source:  src,
//	    BaseDir: "/path/to/project",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("preview.html", []byte(result.HTML), 0644)
//
// The result carries the full HTML page (result.HTML), the converted body
// alone (result.Body), the line maps between the as-typed source and the
// include-inlined document, and the navigation marks extracted from
// sectioning commands.
//
// # Conversion Pipeline
//
// Transpile runs these stages:
//
//  1. Include inlining (\input/\include) with line-map construction
//  2. Comment stripping and macro table extraction
//  3. Environment conversion (tables, figures, lists, boxes, theorems,
//     sections, bibliographies, code listings via chroma)
//  4. Prose/math splitting: math spans pass through byte-identical for
//     client-side rendering, prose gets inline formatting and escaping
//  5. Line-anchor injection at scan-safe points
//  6. HTML shell assembly with the macro table wired into the math renderer
//
// Malformed input never fails the pipeline; unconvertible fragments degrade
// to visible text.
//
// # Live Preview
//
// The server subpackage hosts the preview over HTTP and a WebSocket channel:
// text changes re-transpile debounced, scroll positions synchronize in both
// directions, and diagram blocks render through an external toolchain with
// content-addressed caching.
//
// # PDF Export
//
// Exporter prints the preview HTML to PDF via headless Chrome. The go-rod
// library downloads a managed Chromium on first run; set ROD_BROWSER_BIN to
// use an existing binary and ROD_NO_SANDBOX=1 in containers.
package livetex
