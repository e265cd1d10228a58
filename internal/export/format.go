// Package export serializes rendered plain text into PDF (page-oriented) and
// DOCX (paragraph-oriented) documents.
package export

import (
	"fmt"
	"strings"

	"github.com/starford/docfill/internal/apperr"
)

// Format is an output document format.
type Format string

const (
	PDF  Format = "pdf"
	DOCX Format = "docx"
)

// ParseFormat accepts "pdf" or "docx" in any case, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")) {
	case PDF:
		return PDF, nil
	case DOCX:
		return DOCX, nil
	}
	return "", fmt.Errorf("export: format %q: %w", s, apperr.ErrUnsupportedFormat)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the MIME type served for downloads.
func (f Format) ContentType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// lines splits text on "\n" and drops a trailing "\r" from each line.
// Empty segments are kept.
func lines(text string) []string {
	out := strings.Split(text, "\n")
	for i, l := range out {
		out[i] = strings.TrimSuffix(l, "\r")
	}
	return out
}
