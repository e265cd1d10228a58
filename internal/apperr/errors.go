// Package apperr holds the sentinel errors shared by services and transports.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidName       = errors.New("invalid name")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyDocument     = errors.New("document is empty")
	ErrQuotaExhausted    = errors.New("extraction quota exhausted")
	ErrExtractorDisabled = errors.New("extractor disabled")
)
