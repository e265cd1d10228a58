package export

import (
	"bytes"
	"fmt"

	"github.com/starford/docfill/internal/storage"
)

// Result describes one export attempt. Err is nil on success and carries a
// diagnostic message otherwise; a failed export never leaves a partial file.
type Result struct {
	Path       string `json:"path"`
	Format     Format `json:"format"`
	Size       int64  `json:"size"`
	Pages      int    `json:"pages,omitempty"`
	Paragraphs int    `json:"paragraphs,omitempty"`
	Err        error  `json:"-"`
}

// OK reports whether the document was written.
func (r Result) OK() bool { return r.Err == nil }

// WritePDF serializes text as a PDF at dst.
func WritePDF(text, dst string) Result { return Write(PDF, text, dst) }

// WriteDOCX serializes text as a DOCX at dst.
func WriteDOCX(text, dst string) Result { return Write(DOCX, text, dst) }

// Write encodes text in memory and then replaces dst atomically. Failures,
// including panics inside an encoder, are reported through Result.Err.
func Write(f Format, text, dst string) (res Result) {
	res = Result{Path: dst, Format: f}
	defer func() {
		if r := recover(); r != nil {
			res.Pages, res.Paragraphs, res.Size = 0, 0, 0
			res.Err = fmt.Errorf("export %s: panic: %v", f, r)
		}
	}()

	var (
		buf bytes.Buffer
		err error
	)
	switch f {
	case PDF:
		res.Pages, err = EncodePDF(&buf, text)
	case DOCX:
		res.Paragraphs, err = EncodeDOCX(&buf, text)
	default:
		_, err = ParseFormat(string(f))
	}
	if err != nil {
		res.Pages, res.Paragraphs = 0, 0
		res.Err = fmt.Errorf("export %s: %w", f, err)
		return res
	}

	if err := storage.WriteFileAtomic(dst, buf.Bytes(), 0o644); err != nil {
		res.Pages, res.Paragraphs = 0, 0
		res.Err = fmt.Errorf("export %s: %w", f, err)
		return res
	}
	res.Size = int64(buf.Len())
	return res
}
