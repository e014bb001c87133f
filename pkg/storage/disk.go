// Package storage gives the CLI one way to read upload sources and write
// downloaded attachments, whether they live on the local filesystem or in an
// S3-compatible bucket.
//
// Two drivers are available:
//   - "local"  local filesystem rooted at STORAGE_LOCAL_ROOT (default ".")
//   - "s3"     S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
//	if err := storage.Connect(ctx); err != nil { ... }
//	disk, err := storage.Use("s3")
//	rc, err := disk.Open(ctx, "sheets/front.pdf")
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned when a path has no file.
var ErrNotExist = errors.New("storage: file does not exist")

// Disk is the filesystem driver interface.
type Disk interface {
	// Name is the driver name the disk was registered under.
	Name() string

	// Open returns a reader for the file at path. Caller must close it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Put writes r to path, creating parent directories as needed.
	Put(ctx context.Context, path string, r io.Reader) error

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// Files lists the files directly inside directory.
	Files(ctx context.Context, directory string) ([]string, error)

	// URL returns a URL for path (meaningful for public disks / S3).
	URL(path string) string
}
