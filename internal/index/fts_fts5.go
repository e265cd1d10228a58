//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS templates_fts USING fts5(
			name UNINDEXED,
			body,
			fields,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, name, body string, fields []string) error {
	_, _ = tx.Exec(`DELETE FROM templates_fts WHERE name = ?`, name)
	_, err := tx.Exec(`INSERT INTO templates_fts (name, body, fields) VALUES (?, ?, ?)`,
		name, body, strings.Join(fields, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, name string) {
	_, _ = tx.Exec(`DELETE FROM templates_fts WHERE name = ?`, name)
}

// Search performs an FTS5 full-text search and returns matching templates with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT name,
		       snippet(templates_fts, 1, '<b>', '</b>', '...', 64)
		FROM templates_fts
		WHERE templates_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
