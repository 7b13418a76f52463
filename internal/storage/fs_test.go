package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("projects: []\n")
	if err := s.Write("week.yaml", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("week.yaml")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("2024/jan/records.yml", []byte("notes: []")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.Read("2024/jan/records.yml"); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestList_OnlyBundles(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("a.yaml", []byte("a"))
	_ = s.Write("sub/b.YML", []byte("b"))
	_ = s.Write("readme.md", []byte("not a bundle"))
	_ = os.WriteFile(filepath.Join(s.Root(), ".hidden.yaml"), []byte("x"), 0o644)

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	seen := map[string]string{}
	for _, it := range items {
		seen[it.Path] = it.Checksum
	}
	if seen["a.yaml"] != Checksum([]byte("a")) {
		t.Errorf("checksum for a.yaml = %q", seen["a.yaml"])
	}
	if _, ok := seen["sub/b.YML"]; !ok {
		t.Errorf("sub/b.YML missing: %v", seen)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)
	for _, p := range []string{"../../etc/passwd", "../outside.yaml", "/etc/shadow"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("atomic.yaml", []byte("original"))
	if err := s.Write("atomic.yaml", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.yaml")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".devflow-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_Errors(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for non-existent dir")
	}
	f, _ := os.CreateTemp("", "devflow-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestIsBundle(t *testing.T) {
	for name, want := range map[string]bool{
		"a.yaml": true, "a.YML": true, "a.yml": true, "a.json": false, "yaml": false,
	} {
		if got := IsBundle(name); got != want {
			t.Errorf("IsBundle(%q) = %v", name, got)
		}
	}
}
