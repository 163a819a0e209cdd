package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAssignsOpaqueName(t *testing.T) {
	u, err := NewUploads(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploads: %v", err)
	}

	name, size, err := u.Save("Report Final.PDF", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("content")) {
		t.Errorf("size = %d", size)
	}
	if strings.Contains(name, "Report") {
		t.Errorf("stored name leaks original name: %q", name)
	}
	if !strings.HasSuffix(name, ".pdf") {
		t.Errorf("stored name should keep a lowercased extension: %q", name)
	}

	abs, err := u.Path(name)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(abs)
	if err != nil || string(data) != "content" {
		t.Errorf("read back = %q, %v", data, err)
	}
}

func TestSaveUniqueNames(t *testing.T) {
	u, err := NewUploads(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a, _, err := u.Save("a.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := u.Save("a.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("two saves produced the same stored name %q", a)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	u, err := NewUploads(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", "../evil.txt", "a/b.txt", "..", "dir/../../x"} {
		if _, err := u.Path(name); err == nil {
			t.Errorf("Path(%q) accepted, want error", name)
		}
	}
}

func TestRemoveMissingFileIsFine(t *testing.T) {
	u, err := NewUploads(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Remove("never-existed.txt"); err != nil {
		t.Errorf("Remove missing = %v, want nil", err)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	u, err := NewUploads(dir)
	if err != nil {
		t.Fatal(err)
	}
	name, _, err := u.Save("doc.txt", strings.NewReader("bye"))
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Remove(name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Errorf("file still present after Remove")
	}
}
