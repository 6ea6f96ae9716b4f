package gemini

import "errors"

// Package-level sentinel errors.
var (
	// ErrEmptySourceText indicates a generation request with no source text.
	ErrEmptySourceText = errors.New("source text cannot be empty")
)
