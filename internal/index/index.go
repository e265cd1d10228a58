package index

import "github.com/starford/docfill/internal/models"

// Catalog defines the template catalog and export history operations.
// Consumers should depend on this interface rather than the concrete *DB type.
type Catalog interface {
	UpsertTemplate(t TemplateRow, body string) error
	DeleteTemplate(name string) error
	GetChecksum(name string) (string, error)
	GetTemplate(name string) (*TemplateRow, error)
	ListTemplates() ([]TemplateRow, error)
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	RecordExport(rec models.ExportRecord) (models.ExportRecord, error)
	ListExports(limit int) ([]models.ExportRecord, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
