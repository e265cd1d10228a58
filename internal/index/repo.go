package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/docfill/internal/apperr"
)

// TemplateRow represents a row in the templates table.
type TemplateRow struct {
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	Fields    []string  `json:"fields"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// UpsertTemplate inserts or replaces a template and its FTS entry within a transaction.
func (db *DB) UpsertTemplate(t TemplateRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if t.Fields == nil {
		t.Fields = []string{}
	}
	fieldsJSON, _ := json.Marshal(t.Fields)
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO templates (name, checksum, fields, body, size, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			checksum   = excluded.checksum,
			fields     = excluded.fields,
			body       = excluded.body,
			size       = excluded.size,
			updated_at = excluded.updated_at
	`, t.Name, t.Checksum, string(fieldsJSON), body, t.Size, t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert template: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, t.Name, body, t.Fields); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteTemplate removes a template and its FTS entry. Export history is kept.
func (db *DB) DeleteTemplate(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, name)
	if _, err := tx.Exec(`DELETE FROM templates WHERE name = ?`, name); err != nil {
		return fmt.Errorf("index: delete template: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a template, or empty string if not found.
func (db *DB) GetChecksum(name string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM templates WHERE name = ?`, name).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetTemplate returns one catalog row.
func (db *DB) GetTemplate(name string) (*TemplateRow, error) {
	row := db.conn.QueryRow(`
		SELECT name, checksum, fields, size, updated_at
		FROM templates WHERE name = ?
	`, name)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: template %s: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get template: %w", err)
	}
	return t, nil
}

// ListTemplates returns every catalogued template ordered by name.
func (db *DB) ListTemplates() ([]TemplateRow, error) {
	rows, err := db.conn.Query(`
		SELECT name, checksum, fields, size, updated_at
		FROM templates ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list templates: %w", err)
	}
	defer rows.Close()

	out := []TemplateRow{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("index: list templates: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// AllChecksums returns name → checksum for every catalogued template.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT name, checksum FROM templates`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(s scanner) (*TemplateRow, error) {
	var (
		t      TemplateRow
		fields string
	)
	if err := s.Scan(&t.Name, &t.Checksum, &fields, &t.Size, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &t.Fields); err != nil {
		return nil, fmt.Errorf("decode fields of %s: %w", t.Name, err)
	}
	return &t, nil
}
