package livetex

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyHTML      = errors.New("html content cannot be empty")
	ErrTranspile      = errors.New("transpile failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
)
