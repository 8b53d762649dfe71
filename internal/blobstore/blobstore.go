// Package blobstore stores clinical document bytes. The S3 implementation is
// used in production; the in-memory one backs tests.
package blobstore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// Store is the contract for document byte storage. Metadata lives in
// Postgres (clinical_documents); the store only sees opaque keys.
type Store interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
