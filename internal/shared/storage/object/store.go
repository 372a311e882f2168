package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving generated artifacts.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
