package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedLoader_Load(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name         string
		asset        string
		wantContains string
	}{
		{"shell", ShellName, "renderMathInElement"},
		{"script", ScriptName, "IntersectionObserver"},
		{"style", StyleName, ".sync-mark"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			content, err := loader.Load(tt.asset)
			if err != nil {
				t.Fatalf("Load(%q) error = %v", tt.asset, err)
			}
			if !strings.Contains(content, tt.wantContains) {
				t.Errorf("Load(%q) missing %q", tt.asset, tt.wantContains)
			}
		})
	}
}

func TestEmbeddedLoader_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewEmbeddedLoader().Load("nope.html")
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("err = %v, want ErrAssetNotFound", err)
	}
}

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		asset   string
		wantErr bool
	}{
		{"simple name", "shell.html", false},
		{"empty", "", true},
		{"forward slash", "sub/shell.html", true},
		{"backslash", "sub\\shell.html", true},
		{"traversal", "..", true},
		{"hidden traversal", "foo..bar", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.asset)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetName(%q) = %v, wantErr %v", tt.asset, err, tt.wantErr)
			}
		})
	}
}

func TestFilesystemLoader_OverridesAndFallsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	custom := "body { background: black; }"
	if err := os.WriteFile(filepath.Join(dir, StyleName), []byte(custom), 0o600); err != nil {
		t.Fatal(err)
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	got, err := loader.Load(StyleName)
	if err != nil {
		t.Fatal(err)
	}
	if got != custom {
		t.Errorf("Load(style) = %q, want override", got)
	}

	// Names the directory doesn't carry fall back to the embedded copy.
	shell, err := loader.Load(ShellName)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(shell, "renderMathInElement") {
		t.Error("fallback did not return embedded shell")
	}
}

func TestFilesystemLoader_InvalidBasePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"nonexistent", "/nonexistent/livetex/assets"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewFilesystemLoader(tt.path); !errors.Is(err, ErrInvalidBasePath) {
				t.Errorf("err = %v, want ErrInvalidBasePath", err)
			}
		})
	}
}

func TestPackageLevelAccessors(t *testing.T) {
	t.Parallel()

	if !strings.Contains(Shell(), "{{.Body}}") {
		t.Error("Shell() missing body slot")
	}
	if !strings.Contains(Script(), "visibility") {
		t.Error("Script() missing visibility reporting")
	}
	if Style() == "" {
		t.Error("Style() empty")
	}
}
