// Package assets provides the embedded HTML shell, preview script, and
// preview stylesheet, with optional filesystem override for customization.
package assets

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for asset operations.
var (
	// ErrAssetNotFound indicates the requested asset does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidAssetName indicates the asset name contains path separators
	// or traversal sequences.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath indicates the configured base path is not a valid
	// directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrAssetRead indicates an I/O error occurred while reading an asset.
	ErrAssetRead = errors.New("failed to read asset")

	// ErrPathTraversal indicates an attempt to access files outside the
	// base path.
	ErrPathTraversal = errors.New("path traversal detected")
)

// Well-known asset names.
const (
	ShellName  = "shell.html"
	ScriptName = "preview.js"
	StyleName  = "preview.css"
)

// Loader loads named assets. Implementations may read from the embedded
// filesystem or from a directory on disk.
type Loader interface {
	// Load returns the asset content by name, e.g. "shell.html".
	// Returns ErrAssetNotFound if the asset doesn't exist and
	// ErrInvalidAssetName if the name contains invalid characters.
	Load(name string) (string, error)
}

// ValidateAssetName checks that an asset name is safe for use as a filename.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// defaultLoader is the package-level embedded loader.
var defaultLoader Loader = NewEmbeddedLoader()

// Shell returns the embedded HTML shell template source.
func Shell() string { return mustLoad(ShellName) }

// Script returns the embedded preview synchronization script.
func Script() string { return mustLoad(ScriptName) }

// Style returns the embedded preview stylesheet.
func Style() string { return mustLoad(StyleName) }

// mustLoad panics on a missing embedded asset; the embed directive makes
// that a build defect, not a runtime condition.
func mustLoad(name string) string {
	content, err := defaultLoader.Load(name)
	if err != nil {
		panic("assets: " + err.Error())
	}
	return content
}
