// Package storage abstracts the object store used for user uploads.
package storage

import (
	"context"
	"io"
)

// ObjectStore stores binary objects under a key and returns a public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}
