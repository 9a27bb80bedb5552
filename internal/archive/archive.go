// Package archive persists downloaded attachment files outside the MCP
// response payload, so large binaries never travel through the stdio
// transport.
package archive

import (
	"context"
	"errors"

	"github.com/irisworks/jama-mcp/internal/config"
)

// ErrNotFound reports that no object exists under the requested key.
var ErrNotFound = errors.New("object not found")

// Info describes one archived object.
type Info struct {
	Key         string
	Size        int64
	ContentType string
}

// Store reads and writes attachment content in a durable location.
type Store interface {
	// Driver identifies the backend: "fs", "s3", or "memory".
	Driver() string

	// Put stores data under key and returns a user-facing location for
	// the stored file, a filesystem path or an s3:// URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Get returns the stored bytes and content type for key, or
	// ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, string, error)

	// Head returns metadata for key without fetching the content, or
	// ErrNotFound.
	Head(ctx context.Context, key string) (*Info, error)

	// Delete removes the object under key. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// List returns metadata for every object whose key starts with
	// prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
}

// Open picks the archive driver from cfg: S3 when a bucket is configured,
// the local filesystem when a directory is. With neither, archiving is
// disabled and Open returns a nil Store.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch {
	case cfg.ArchiveS3Bucket != "":
		return NewS3(ctx, S3Config{
			Bucket:    cfg.ArchiveS3Bucket,
			Prefix:    cfg.ArchiveS3Prefix,
			Region:    cfg.ArchiveS3Region,
			Endpoint:  cfg.ArchiveS3Endpoint,
			PathStyle: cfg.ArchiveS3PathStyle,
		})
	case cfg.ArchiveDir != "":
		return NewFS(cfg.ArchiveDir)
	default:
		return nil, nil
	}
}
