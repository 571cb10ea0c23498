// Package storage defines the file storage abstraction backing the document
// store and generated-image uploads.
package storage

import "time"

// FileInfo describes one stored file.
type FileInfo struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for rooted file operations.
type Provider interface {
	// List returns metadata for every file under dir with the given
	// extension (relative to the root). An empty ext lists every file.
	List(dir, ext string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Create writes content to path only if no file exists there yet,
	// failing with an error matching fs.ErrExist otherwise.
	Create(path string, content []byte) error
	// Delete removes the file at path (relative to the root).
	Delete(path string) error
	// Root returns the absolute root directory.
	Root() string
}
