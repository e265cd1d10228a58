// Package storage keeps templates as plain-text files in a directory.
package storage

import "github.com/starford/docfill/internal/models"

// Ext is the file extension of stored templates.
const Ext = ".txt"

// Provider is the interface for template file operations. Names are bare
// template names without the extension.
type Provider interface {
	// List returns metadata for every template in the store.
	List() ([]models.TemplateMeta, error)
	// Read returns the raw text of the named template.
	Read(name string) ([]byte, error)
	// Write atomically stores content under name.
	Write(name string, content []byte) error
	// Delete removes the named template.
	Delete(name string) error
	// Root returns the absolute directory holding the templates.
	Root() string
}
