package livetex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureRenderer records the file it was asked to render.
type captureRenderer struct {
	pdf      []byte
	err      error
	gotPath  string
	gotHTML  string
	closed   bool
	closeErr error
}

func (c *captureRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	c.gotPath = filePath
	if data, err := os.ReadFile(filePath); err == nil {
		c.gotHTML = string(data)
	}
	return c.pdf, c.err
}

func (c *captureRenderer) Close() error {
	c.closed = true
	return c.closeErr
}

func TestExportPDF(t *testing.T) {
	t.Parallel()

	renderer := &captureRenderer{pdf: []byte("%PDF-1.4 fake")}
	e := &Exporter{renderer: renderer, timeout: DefaultExportTimeout}

	pdf, err := e.ExportPDF(context.Background(), "<html><body>doc</body></html>")
	if err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}
	if string(pdf) != "%PDF-1.4 fake" {
		t.Errorf("pdf = %q", pdf)
	}
	if !strings.Contains(renderer.gotHTML, "doc") {
		t.Errorf("renderer received %q, want the HTML page", renderer.gotHTML)
	}
	if _, err := os.Stat(renderer.gotPath); !os.IsNotExist(err) {
		t.Error("temp file not cleaned up after export")
	}
}

func TestExportPDF_EmptyHTML(t *testing.T) {
	t.Parallel()

	e := &Exporter{renderer: &captureRenderer{}}
	if _, err := e.ExportPDF(context.Background(), ""); !errors.Is(err, ErrEmptyHTML) {
		t.Fatalf("err = %v, want ErrEmptyHTML", err)
	}
}

func TestExportPDF_RendererError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("render boom")
	e := &Exporter{renderer: &captureRenderer{err: wantErr}}

	if _, err := e.ExportPDF(context.Background(), "<html></html>"); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestExportFile(t *testing.T) {
	t.Parallel()

	renderer := &captureRenderer{pdf: []byte("%PDF-out")}
	e := &Exporter{renderer: renderer, timeout: DefaultExportTimeout}

	out := filepath.Join(t.TempDir(), "preview.pdf")
	if err := e.ExportFile(context.Background(), "<html></html>", out); err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-out" {
		t.Errorf("written pdf = %q", data)
	}
}

func TestExportFile_BadOutputPath(t *testing.T) {
	t.Parallel()

	e := &Exporter{renderer: &captureRenderer{pdf: []byte("x")}}

	err := e.ExportFile(context.Background(), "<html></html>", filepath.Join(t.TempDir(), "missing", "out.pdf"))
	if err == nil {
		t.Fatal("expected error for unwritable output path")
	}
	if !strings.Contains(err.Error(), "hint:") {
		t.Errorf("err = %v, want an output directory hint", err)
	}
}

func TestExporterClose(t *testing.T) {
	t.Parallel()

	renderer := &captureRenderer{closeErr: errors.New("close boom")}
	e := &Exporter{renderer: renderer}

	if err := e.Close(); err == nil || !renderer.closed {
		t.Fatalf("Close() = %v, closed = %v", err, renderer.closed)
	}
}

func TestWithExportTimeout(t *testing.T) {
	t.Parallel()

	e := NewExporter(WithExportTimeout(0))
	if e.timeout != DefaultExportTimeout {
		t.Errorf("zero timeout should keep default, got %v", e.timeout)
	}
}
