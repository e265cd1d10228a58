package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/starford/docfill/internal/apperr"
	"github.com/starford/docfill/internal/export"
)

// Files extracts text from .txt, .docx and .pdf uploads.
type Files struct{}

// Text dispatches on the file extension.
func (Files) Text(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return string(data), nil
	case ".docx":
		text, err := export.DOCXText(data)
		if err != nil {
			return "", fmt.Errorf("extract: %s: %w", filename, err)
		}
		return text, nil
	case ".pdf":
		text, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("extract: %s: %w", filename, err)
		}
		return text, nil
	}
	return "", fmt.Errorf("extract: %s: %w", filename, apperr.ErrUnsupportedFormat)
}

// pdfText concatenates the plain text of every page. The reader panics on
// some malformed inputs, so panics become errors.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: malformed document: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: open: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf: page %d: %w", i, err)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}
