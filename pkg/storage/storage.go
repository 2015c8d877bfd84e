// Package storage writes generated files (order exports) to the local disk
// or to an S3-compatible bucket such as AWS S3 or MinIO.
//
//	disk, _ := storage.FromEnv(ctx)
//	_ = disk.Put(ctx, "reports/orders.csv", r, "text/csv")
//	url := disk.URL("reports/orders.csv")
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/shashiranjanraj/storefront/config"
)

// ErrNotFound is returned by Open for a missing object.
var ErrNotFound = errors.New("storage: object not found")

// Disk is a flat namespace of objects addressed by slash-separated keys.
type Disk interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL locates key for a human or another tool; it is not signed.
	URL(key string) string
}

// FromEnv builds the disk named by STORAGE_DISK ("local" or "s3").
func FromEnv(ctx context.Context) (Disk, error) {
	switch d := strings.ToLower(config.Get("STORAGE_DISK", "local")); d {
	case "local":
		return NewLocal(config.Get("STORAGE_LOCAL_ROOT", "storage")), nil
	case "s3":
		return NewS3(ctx, S3ConfigFromEnv())
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", d)
	}
}

// cleanKey rejects keys that would escape the disk root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + key)[1:]
	if k == "" || k != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return k, nil
}
