package domain

import (
	"context"
	"io"
)

// BlobWriter uploads archive objects. The archiver is its only caller;
// nothing on the trading path touches object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
