package livetex

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/livetex/go-livetex/internal/fileutil"
	"github.com/livetex/go-livetex/internal/hints"
)

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing
// without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ pdfRenderer = (*rodRenderer)(nil)

// PDF page dimensions in inches (US Letter format).
const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
	marginInches      = 0.5
)

// DefaultExportTimeout bounds a single PDF render.
const DefaultExportTimeout = 2 * time.Minute

// Exporter prints preview HTML to PDF via headless Chrome. The browser is
// launched lazily on first export and reused until Close.
type Exporter struct {
	renderer pdfRenderer
	timeout  time.Duration
}

// ExportOption customizes an Exporter.
type ExportOption func(*Exporter)

// WithExportTimeout overrides the per-export budget.
func WithExportTimeout(d time.Duration) ExportOption {
	return func(e *Exporter) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExporter creates an Exporter with default configuration.
func NewExporter(opts ...ExportOption) *Exporter {
	e := &Exporter{timeout: DefaultExportTimeout}
	for _, opt := range opts {
		opt(e)
	}
	if e.renderer == nil {
		e.renderer = &rodRenderer{timeout: e.timeout}
	}
	return e
}

// ExportPDF renders the HTML page to PDF bytes.
func (e *Exporter) ExportPDF(ctx context.Context, html string) ([]byte, error) {
	if html == "" {
		return nil, ErrEmptyHTML
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return e.renderer.RenderFromFile(ctx, tmpPath)
}

// ExportFile renders the HTML page and writes the PDF to outputPath.
func (e *Exporter) ExportFile(ctx context.Context, html, outputPath string) error {
	pdf, err := e.ExportPDF(ctx, html)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, pdf, 0o600); err != nil {
		return fmt.Errorf("writing PDF: %w%s", err, hints.ForOutputDirectory())
	}
	return nil
}

// Close releases browser resources.
func (e *Exporter) Close() error {
	if e.renderer != nil {
		return e.renderer.Close()
	}
	return nil
}

// rodRenderer implements pdfRenderer using go-rod. Rod automatically
// downloads Chromium on first run if not found.
type rodRenderer struct {
	browser *rod.Browser
	timeout time.Duration
}

// ensureBrowser lazily connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}
	return nil
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// RenderFromFile opens a local HTML file in headless Chrome and renders it
// to PDF. Returns explicit errors instead of panicking when browser
// operations fail.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	// The shell renders math client-side, so wait for the page to settle,
	// not just for the load event.
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	if err := page.Timeout(timeout).WaitStable(300 * time.Millisecond); err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrPageLoad, err, hints.ForTimeout())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
