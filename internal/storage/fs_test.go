package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/docfill/internal/apperr"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempStore(t)
	content := []byte("Dear [NAME],\n")
	if err := s.Write("letter", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("letter")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "letter.txt")); err != nil {
		t.Errorf("expected letter.txt on disk: %v", err)
	}
}

func TestReadMissing(t *testing.T) {
	s := tempStore(t)
	_, err := s.Read("nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("bye", []byte("x"))
	if err := s.Delete("bye"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("bye"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("invoice", []byte("[AMOUNT]"))
	_ = s.Write("contract", []byte("[PARTY]"))
	_ = os.WriteFile(filepath.Join(s.Root(), "readme.md"), []byte("not a template"), 0o644)
	_ = os.Mkdir(filepath.Join(s.Root(), "sub.txt"), 0o755)

	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Name != "contract" || items[1].Name != "invoice" {
		t.Errorf("names = %q, %q", items[0].Name, items[1].Name)
	}
	if items[0].Checksum == "" || items[0].Size != int64(len("[PARTY]")) {
		t.Errorf("meta = %+v", items[0])
	}
}

func TestInvalidNamesRejected(t *testing.T) {
	s := tempStore(t)
	for _, name := range []string{"", "../escape", "a/b", `a\b`, ".hidden", "x..y"} {
		if _, err := s.Read(name); !errors.Is(err, apperr.ErrInvalidName) {
			t.Errorf("Read(%q) err = %v, want ErrInvalidName", name, err)
		}
		if err := s.Write(name, []byte("x")); !errors.Is(err, apperr.ErrInvalidName) {
			t.Errorf("Write(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("atomic", []byte("original"))
	if err := s.Write("atomic", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".docfill-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestWriteFileAtomic_UnwritableDir(t *testing.T) {
	f, _ := os.CreateTemp("", "docfill-file-*")
	_ = f.Close()
	defer os.Remove(f.Name())

	// A regular file used as a directory cannot hold the temp file.
	err := WriteFileAtomic(filepath.Join(f.Name(), "out.pdf"), []byte("x"), 0o644)
	if err == nil {
		t.Fatal("expected error writing beneath a regular file")
	}
}

func TestNameFromFile(t *testing.T) {
	cases := map[string]struct {
		name string
		ok   bool
	}{
		"letter.txt":         {"letter", true},
		"/a/b/invoice.txt":   {"invoice", true},
		"notes.md":           {"", false},
		".docfill-tmp-1.txt": {"", false},
		"archive.txt.bak":    {"", false},
	}
	for in, want := range cases {
		name, ok := NameFromFile(in)
		if name != want.name || ok != want.ok {
			t.Errorf("NameFromFile(%q) = %q, %v; want %q, %v", in, name, ok, want.name, want.ok)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	if _, err := NewFS("/tmp/docfill-does-not-exist-" + t.Name()); err == nil {
		t.Error("expected error for non-existent dir")
	}
}
