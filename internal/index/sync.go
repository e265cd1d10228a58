package index

import (
	"log/slog"
	"time"

	"github.com/starford/docfill/internal/checksum"
	"github.com/starford/docfill/internal/placeholder"
	"github.com/starford/docfill/internal/storage"
)

// Sync walks the template directory and brings the catalog up to date:
//   - new/changed templates are scanned and upserted
//   - templates removed from disk are deleted from the catalog
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Name] = struct{}{}

		if checksums[m.Name] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("template", m.Name), slog.String("error", err.Error()))
			continue
		}
		if err := indexTemplate(db, m.Name, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("template", m.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("template", m.Name))
		}
	}

	// Remove stale entries.
	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if err := db.DeleteTemplate(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("template", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("template", name))
			}
		}
	}

	return nil
}

// IndexTemplate scans data for fields and upserts it into the catalog.
func IndexTemplate(db *DB, name string, data []byte) error {
	return indexTemplate(db, name, data, time.Now())
}

func indexTemplate(db *DB, name string, data []byte, updated time.Time) error {
	body := string(data)
	row := TemplateRow{
		Name:      name,
		Checksum:  checksum.Sum(data),
		Fields:    placeholder.Scan(body),
		Size:      int64(len(data)),
		UpdatedAt: updated,
	}
	return db.UpsertTemplate(row, body)
}
