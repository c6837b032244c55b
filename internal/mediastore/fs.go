// Package mediastore manages the public uploads directory where media files
// referenced by nodes live, keyed by generated UUID-based filenames.
package mediastore

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// FS is a file store rooted at the uploads directory.
type FS struct {
	root string // absolute path to the uploads directory
}

// NewFS creates an FS rooted at the given directory, creating it on demand.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("mediastore: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("mediastore: create root: %w", err)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute uploads directory path.
func (f *FS) Root() string {
	return f.root
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the uploads dir.
func (f *FS) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("mediastore: filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("mediastore: invalid filename: %s", name)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("mediastore: path escapes uploads directory")
	}
	return abs, nil
}

// Write stores the content of r under filename: tmp file → fsync → rename.
func (f *FS) Write(filename string, r io.Reader) (int64, error) {
	abs, err := f.safeName(filename)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(f.root, ".iterviz-tmp-*")
	if err != nil {
		return 0, fmt.Errorf("mediastore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		return 0, fmt.Errorf("mediastore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("mediastore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("mediastore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return 0, fmt.Errorf("mediastore: rename: %w", err)
	}
	success = true
	return written, nil
}

// List returns the plain filenames of every stored file.
func (f *FS) List() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("mediastore: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// ServeFile handles GET /uploads/{filename}.
func (f *FS) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := f.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
