// Package docfill coordinates the template store, the catalog, text
// extraction and document export behind one service used by the HTTP API,
// the MCP server and the CLI.
package docfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/docfill/internal/apperr"
	"github.com/starford/docfill/internal/checksum"
	"github.com/starford/docfill/internal/extract"
	"github.com/starford/docfill/internal/index"
	"github.com/starford/docfill/internal/models"
	"github.com/starford/docfill/internal/placeholder"
	"github.com/starford/docfill/internal/storage"
)

// Publisher receives export notifications.
type Publisher interface {
	PublishExport(rec models.ExportRecord)
}

// Service coordinates storage, catalog, extraction and export operations.
type Service struct {
	store     storage.Provider
	db        index.Catalog
	extractor extract.TextExtractor
	analyzer  extract.Analyzer
	exportDir string
	events    Publisher
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAnalyzer sets the AI backend. Without it analysis reports "disabled".
func WithAnalyzer(a extract.Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithExtractor replaces the default file text extractor.
func WithExtractor(e extract.TextExtractor) Option {
	return func(s *Service) { s.extractor = e }
}

// WithPublisher sets the export event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new fill service. Exports are written under exportDir.
func NewService(store storage.Provider, db index.Catalog, exportDir string, opts ...Option) *Service {
	s := &Service{
		store:     store,
		db:        db,
		extractor: extract.Files{},
		analyzer:  extract.Disabled{},
		exportDir: exportDir,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTemplates returns the catalogued templates ordered by name.
func (s *Service) ListTemplates(_ context.Context) ([]index.TemplateRow, error) {
	return s.db.ListTemplates()
}

// GetTemplate reads a template with its scanned fields.
func (s *Service) GetTemplate(_ context.Context, name string) (*models.Template, error) {
	data, err := s.store.Read(name)
	if err != nil {
		return nil, err
	}
	return buildTemplate(name, data), nil
}

// PutTemplate creates or replaces a template and indexes it. A non-empty
// ifMatch must equal the checksum of the stored version. created reports
// whether the template did not exist before.
func (s *Service) PutTemplate(_ context.Context, name string, content []byte, ifMatch string) (tpl *models.Template, created bool, err error) {
	existing, err := s.store.Read(name)
	switch {
	case err == nil:
		if ifMatch != "" && ifMatch != checksum.Sum(existing) {
			return nil, false, fmt.Errorf("docfill: template %s: %w", name, apperr.ErrConflict)
		}
	case errors.Is(err, apperr.ErrNotFound):
		if ifMatch != "" {
			return nil, false, err
		}
		created = true
	default:
		return nil, false, err
	}

	if err := s.store.Write(name, content); err != nil {
		return nil, false, err
	}
	tpl = buildTemplate(name, content)
	if err := s.db.UpsertTemplate(index.TemplateRow{
		Name:      name,
		Checksum:  tpl.Checksum,
		Fields:    tpl.Fields,
		Size:      tpl.Size,
		UpdatedAt: tpl.UpdatedAt,
	}, tpl.Content); err != nil {
		return nil, false, err
	}
	return tpl, created, nil
}

// DeleteTemplate removes a template from storage and catalog.
func (s *Service) DeleteTemplate(_ context.Context, name string) error {
	if err := s.store.Delete(name); err != nil {
		return err
	}
	return s.db.DeleteTemplate(name)
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// ListExports returns the export history, newest first.
func (s *Service) ListExports(_ context.Context, limit int) ([]models.ExportRecord, error) {
	return s.db.ListExports(limit)
}

func buildTemplate(name string, data []byte) *models.Template {
	text := string(data)
	return &models.Template{
		TemplateMeta: models.TemplateMeta{
			Name:      name,
			Checksum:  checksum.Sum(data),
			Size:      int64(len(data)),
			UpdatedAt: time.Now(),
		},
		Content: text,
		Fields:  nonNilSlice(placeholder.Scan(text)),
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
