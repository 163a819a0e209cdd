// Package storage manages the uploads directory holding document files.
//
// Stored names are opaque and collision-resistant (uuid + original
// extension); the user-facing original name lives only in the database.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Uploads is a flat directory of uploaded document files.
type Uploads struct {
	root string // absolute path to the uploads directory
}

// NewUploads creates the uploads directory if needed and returns a handle
// rooted there.
func NewUploads(root string) (*Uploads, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create uploads dir: %w", err)
	}
	return &Uploads{root: abs}, nil
}

// Root returns the absolute uploads directory path.
func (u *Uploads) Root() string {
	return u.root
}

// Save streams content into a freshly named file and returns the stored name
// and byte count. The write is atomic: temp file, fsync, rename.
func (u *Uploads) Save(originalName string, content io.Reader) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	storedName := strings.ReplaceAll(uuid.NewString(), "-", "") + ext

	tmp, err := os.CreateTemp(u.root, ".upload-tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, content)
	if err != nil {
		return "", 0, fmt.Errorf("storage: write upload: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", 0, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(u.root, storedName)); err != nil {
		return "", 0, fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return storedName, written, nil
}

// Path resolves a stored name to its absolute path, rejecting anything that
// is not a plain file name inside the uploads directory.
func (u *Uploads) Path(storedName string) (string, error) {
	if storedName == "" {
		return "", fmt.Errorf("storage: empty stored name")
	}
	cleaned := filepath.Clean(storedName)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid stored name: %s", storedName)
	}
	return filepath.Join(u.root, cleaned), nil
}

// Remove deletes a stored file. A file already missing is not an error: the
// row is the source of truth and the deletion goal is met either way.
func (u *Uploads) Remove(storedName string) error {
	abs, err := u.Path(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", storedName, err)
	}
	return nil
}
