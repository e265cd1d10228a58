// Package models defines the domain types shared across docfill packages.
package models

import "time"

// TemplateMeta describes a stored template without its content.
type TemplateMeta struct {
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Template is a stored template with its raw text.
type Template struct {
	TemplateMeta
	Content string   `json:"content"`
	Fields  []string `json:"fields"`
}

// ExportRecord is one row of the export history.
type ExportRecord struct {
	ID        string    `json:"id"`
	Template  string    `json:"template,omitempty"`
	Format    string    `json:"format"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
