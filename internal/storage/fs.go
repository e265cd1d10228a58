package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/docfill/internal/apperr"
	"github.com/starford/docfill/internal/checksum"
	"github.com/starford/docfill/internal/models"
)

// FS implements Provider backed by a flat directory of .txt files.
type FS struct {
	root string
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute template directory.
func (f *FS) Root() string { return f.root }

// ValidName reports whether name can be used as a template name: non-empty,
// no path separators, no "..", no leading dot.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// NameFromFile returns the template name for a file name, or false when the
// file is not a template.
func NameFromFile(file string) (string, bool) {
	base := filepath.Base(file)
	if !strings.HasSuffix(base, Ext) || strings.HasPrefix(base, ".") {
		return "", false
	}
	return strings.TrimSuffix(base, Ext), true
}

func (f *FS) path(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("storage: %q: %w", name, apperr.ErrInvalidName)
	}
	return filepath.Join(f.root, name+Ext), nil
}

// List returns metadata for every template, sorted by name.
func (f *FS) List() ([]models.TemplateMeta, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []models.TemplateMeta
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := NameFromFile(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		data, err := os.ReadFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		out = append(out, models.TemplateMeta{
			Name:      name,
			Checksum:  checksum.Sum(data),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Read returns the raw text of a template.
func (f *FS) Read(name string) ([]byte, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", name, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write atomically stores a template.
func (f *FS) Write(name string, content []byte) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	return WriteFileAtomic(p, content, 0o644)
}

// Delete removes a template.
func (f *FS) Delete(name string) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage: delete %s: %w", name, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}
