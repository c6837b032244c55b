package mediastore

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func testFS(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestWriteAndList(t *testing.T) {
	fs := testFS(t)

	n, err := fs.Write("a.png", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Errorf("written = %d, want 5", n)
	}
	if _, err := fs.Write("b.mp4", strings.NewReader("world")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(fs.Root(), "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}

	names, err := fs.List()
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(names)
	want := []string{"a.png", "b.mp4"}
	if !slices.Equal(names, want) {
		t.Errorf("List = %v, want %v", names, want)
	}
}

func TestListSkipsDotfiles(t *testing.T) {
	fs := testFS(t)
	if err := os.WriteFile(filepath.Join(fs.Root(), ".hidden"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	names, err := fs.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("List = %v, want empty", names)
	}
}

func TestSafeNameRejectsTraversal(t *testing.T) {
	fs := testFS(t)
	for _, name := range []string{"", "..", "../etc/passwd", "a/b.png", "/abs.png"} {
		if _, err := fs.Write(name, strings.NewReader("x")); err == nil {
			t.Errorf("Write(%q) should fail", name)
		}
	}
}

type staticRefs map[string]struct{}

func (s staticRefs) MediaRefs(context.Context) (map[string]struct{}, error) {
	return s, nil
}

func TestOrphans(t *testing.T) {
	fs := testFS(t)
	for _, name := range []string{"kept.png", "lost.png"} {
		if _, err := fs.Write(name, strings.NewReader("x")); err != nil {
			t.Fatal(err)
		}
	}

	refs := staticRefs{"/uploads/kept.png": {}}
	orphans, err := Orphans(context.Background(), fs, refs)
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 1 || orphans[0] != "/uploads/lost.png" {
		t.Errorf("orphans = %v, want [/uploads/lost.png]", orphans)
	}
}

func TestOrphansEmptyDir(t *testing.T) {
	fs := testFS(t)
	orphans, err := Orphans(context.Background(), fs, staticRefs{})
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 0 {
		t.Errorf("orphans = %v, want none", orphans)
	}
}
