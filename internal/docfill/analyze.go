package docfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/docfill/internal/analysis"
	"github.com/starford/docfill/internal/apperr"
)

// Analysis failure kinds. An empty kind means the AI step succeeded.
const (
	FailureQuota    = "quota"
	FailureDisabled = "disabled"
	FailureFailed   = "failed"
)

// Analysis is the outcome of analysing an uploaded source document. When the
// AI step fails the extracted text is still returned and ErrorKind says why
// the analysis is missing.
type Analysis struct {
	Filename  string              `json:"filename"`
	Text      string              `json:"text"`
	Value     analysis.Value      `json:"-"`
	Table     *analysis.FlatTable `json:"table"`
	ErrorKind string              `json:"error_kind,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Analyze extracts text from an uploaded file and asks the analyzer for a
// structured analysis. Only extraction errors fail the call.
func (s *Service) Analyze(ctx context.Context, filename string, data []byte) (*Analysis, error) {
	text, err := s.extractor.Text(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("docfill: analyze %s: %w", filename, apperr.ErrEmptyDocument)
	}

	out := &Analysis{Filename: filename, Text: text}
	v, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		out.ErrorKind = failureKind(err)
		out.Error = err.Error()
		out.Table = analysis.NewFlatTable()
		s.logger.Warn("analysis unavailable",
			slog.String("filename", filename),
			slog.String("kind", out.ErrorKind),
			slog.String("error", err.Error()))
		return out, nil
	}
	out.Value = v
	out.Table = analysis.Flatten(v)
	return out, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, apperr.ErrQuotaExhausted):
		return FailureQuota
	case errors.Is(err, apperr.ErrExtractorDisabled):
		return FailureDisabled
	}
	return FailureFailed
}
