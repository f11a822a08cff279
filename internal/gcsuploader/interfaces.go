package gcsuploader

import (
	"context"
)

// ObjectStore is the subset of Cloud Storage the archive and corpus loader
// need. Client implements it; tests substitute a fake.
type ObjectStore interface {
	// UploadBytes writes data to bucket/object and returns its gs:// URI.
	UploadBytes(ctx context.Context, bucket, object string, data []byte, contentType string) (string, error)

	// Download returns the bytes stored at a gs:// URI.
	Download(ctx context.Context, uri string) ([]byte, error)

	// ListObjects returns the object names under prefix, in lexical order.
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

var _ ObjectStore = (*Client)(nil)
