package index

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/docfill/internal/models"
)

// RecordExport appends an export attempt to the history. ID and CreatedAt are
// filled in when empty.
func (db *DB) RecordExport(rec models.ExportRecord) (models.ExportRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	_, err := db.conn.Exec(`
		INSERT INTO exports (id, template, format, path, size, ok, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Template, rec.Format, rec.Path, rec.Size, rec.OK, rec.Error, rec.CreatedAt)
	if err != nil {
		return rec, fmt.Errorf("index: record export: %w", err)
	}
	return rec, nil
}

// ListExports returns the most recent exports first.
func (db *DB) ListExports(limit int) ([]models.ExportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, template, format, path, size, ok, error, created_at
		FROM exports
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: list exports: %w", err)
	}
	defer rows.Close()

	out := []models.ExportRecord{}
	for rows.Next() {
		var r models.ExportRecord
		if err := rows.Scan(&r.ID, &r.Template, &r.Format, &r.Path, &r.Size, &r.OK, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("index: list exports: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
