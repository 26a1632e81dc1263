package taskstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BlobStore persists attachment file contents. Paths returned by Save are
// opaque keys that Delete and Open accept back.
type BlobStore interface {
	// Save writes the blob and returns its storage path and byte size.
	Save(taskID uint, fileName string, r io.Reader) (path string, size int64, err error)

	// Open returns a reader over a stored blob.
	Open(path string) (io.ReadCloser, error)

	// Delete removes a stored blob. Deleting a missing blob is not an error.
	Delete(path string) error
}

// DiskStore is a BlobStore rooted at a local directory.
type DiskStore struct {
	Root string
}

// NewDiskStore creates a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("taskstore: disk store: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("taskstore: disk store: create %s: %w", dir, err)
	}
	return &DiskStore{Root: dir}, nil
}

// Save writes the blob under <root>/<taskID>/<timestamp>-<name>. The file
// name is sanitized to its base component to keep blobs inside the root.
func (d *DiskStore) Save(taskID uint, fileName string, r io.Reader) (string, int64, error) {
	name := filepath.Base(strings.TrimSpace(fileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "file"
	}
	rel := filepath.Join(fmt.Sprintf("%d", taskID), fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))
	full := filepath.Join(d.Root, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("taskstore: disk store: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("taskstore: disk store: create blob: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(full)
		return "", 0, fmt.Errorf("taskstore: disk store: write blob: %w", err)
	}
	return rel, n, nil
}

// Open returns a reader over the blob at path.
func (d *DiskStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.Root, path))
	if err != nil {
		return nil, fmt.Errorf("taskstore: disk store: open %s: %w", path, err)
	}
	return f, nil
}

// Delete removes the blob at path. A missing blob is ignored.
func (d *DiskStore) Delete(path string) error {
	err := os.Remove(filepath.Join(d.Root, path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("taskstore: disk store: delete %s: %w", path, err)
	}
	return nil
}
