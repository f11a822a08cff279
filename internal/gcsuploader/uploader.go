// Package gcsuploader stores raw statement uploads in Google Cloud Storage
// and reads knowledge documents from a gs:// location.
package gcsuploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const uploadTimeout = 2 * time.Minute

// Client wraps a shared storage client.
type Client struct {
	client *storage.Client
	log    zerolog.Logger
}

// NewClient creates a storage client. It uses Application Default
// Credentials unless credentialsFile is set.
func NewClient(ctx context.Context, credentialsFile string, log zerolog.Logger) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewClient: creating storage client: %w", err)
	}
	return &Client{client: client, log: log}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

// UploadBytes writes data to bucket/object.
func (c *Client) UploadBytes(ctx context.Context, bucket, object string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := c.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("UploadBytes: copying to %s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("UploadBytes: finalizing %s/%s: %w", bucket, object, err)
	}

	uri := "gs://" + bucket + "/" + object
	c.log.Debug().Str("uri", uri).Int("bytes", len(data)).Msg("Uploaded object")
	return uri, nil
}

// ParseURI splits gs://bucket/path into bucket and object path. The path may
// be empty, which names the whole bucket.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("ParseURI: invalid GCS URI: %s", uri)
	}
	bucket, object, _ = strings.Cut(strings.TrimPrefix(uri, "gs://"), "/")
	if bucket == "" {
		return "", "", errors.New("ParseURI: missing bucket in " + uri)
	}
	return bucket, object, nil
}

// IsURI reports whether location points at Cloud Storage.
func IsURI(location string) bool {
	return strings.HasPrefix(location, "gs://")
}

// FilenameFromURI returns the last path element of a gs:// URI.
// e.g., "gs://bucket/knowledge/80c.md" → "80c.md"
func FilenameFromURI(uri string) string {
	_, object, err := ParseURI(uri)
	if err != nil || object == "" {
		return strings.TrimPrefix(uri, "gs://")
	}
	return path.Base(object)
}
