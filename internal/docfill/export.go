package docfill

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/docfill/internal/apperr"
	"github.com/starford/docfill/internal/export"
	"github.com/starford/docfill/internal/models"
	"github.com/starford/docfill/internal/storage"
)

// ExportRequest asks for rendered text to be written as a document.
type ExportRequest struct {
	Template string
	Name     string
	Text     string
	Format   export.Format
}

// OutputName is the file name (without extension) an export is written to:
// Name when set, otherwise "<template>_filled", otherwise "document".
func (r ExportRequest) OutputName() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.Template != "":
		return r.Template + "_filled"
	}
	return "document"
}

// Export writes text as a PDF or DOCX under the export directory, records
// the attempt and publishes it. A write failure is reported in the Result
// rather than as an error.
func (s *Service) Export(_ context.Context, req ExportRequest) (export.Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return export.Result{}, fmt.Errorf("docfill: export: %w", apperr.ErrEmptyDocument)
	}
	format, err := export.ParseFormat(string(req.Format))
	if err != nil {
		return export.Result{}, err
	}
	name := req.OutputName()
	if !storage.ValidName(name) {
		return export.Result{}, fmt.Errorf("docfill: export name %q: %w", name, apperr.ErrInvalidName)
	}

	dst := filepath.Join(s.exportDir, name+format.Ext())
	res := export.Write(format, req.Text, dst)

	rec := models.ExportRecord{
		Template: req.Template,
		Format:   string(format),
		Path:     dst,
		Size:     res.Size,
		OK:       res.OK(),
	}
	if !res.OK() {
		rec.Error = res.Err.Error()
		s.logger.Error("export failed",
			slog.String("path", dst),
			slog.String("format", string(format)),
			slog.String("error", rec.Error))
	} else {
		s.logger.Info("export written",
			slog.String("path", dst),
			slog.String("format", string(format)),
			slog.Int64("size", res.Size))
	}

	rec, err = s.db.RecordExport(rec)
	if err != nil {
		s.logger.Warn("record export failed", slog.String("path", dst), slog.String("error", err.Error()))
	}
	if s.events != nil {
		s.events.PublishExport(rec)
	}
	return res, nil
}

// ExportPath resolves a file name from the export directory for download.
func (s *Service) ExportPath(file string) (string, error) {
	base := filepath.Base(file)
	if base != file || strings.HasPrefix(base, ".") {
		return "", fmt.Errorf("docfill: export file %q: %w", file, apperr.ErrInvalidName)
	}
	ext := filepath.Ext(base)
	if _, err := export.ParseFormat(ext); err != nil {
		return "", err
	}
	p := filepath.Join(s.exportDir, base)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("docfill: export file %s: %w", file, apperr.ErrNotFound)
	}
	return p, nil
}
