// Package storage defines the page image directory abstraction.
package storage

import "time"

// ImageMeta describes one page image file.
type ImageMeta struct {
	// Path is the image path, relative to the image directory, with
	// forward slashes.
	Path      string
	Size      int64
	UpdatedAt time.Time
}

// Provider is the interface for image directory operations.
type Provider interface {
	// List returns metadata for every JPEG file in the image directory.
	List() ([]ImageMeta, error)
	// Read returns the raw bytes of the image at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Exists reports whether an image exists at path.
	Exists(path string) bool
	// OSPath returns the absolute file-system path of an image path.
	OSPath(path string) (string, error)
}
