package assets

import (
	"embed"
	"fmt"
)

//go:embed files/*
var files embed.FS

// EmbeddedLoader loads assets from the embedded filesystem.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// Load returns an embedded asset by name.
func (e *EmbeddedLoader) Load(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := files.ReadFile("files/" + name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrAssetNotFound, name)
	}
	return string(content), nil
}

// Compile-time interface check.
var _ Loader = (*EmbeddedLoader)(nil)
