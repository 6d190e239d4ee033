package gcs

import (
	"context"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

const contentType = "application/gzip"

// Client stores build artifacts in a Cloud Storage bucket
type Client struct {
	client *storage.Client
	bucket string
}

// New creates a Cloud Storage artifact store for bucket
func New(ctx context.Context, bucket string, opts ...option.ClientOption) (*Client, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &Client{client: client, bucket: bucket}, nil
}

// Put uploads body to key, replacing any existing object
func (c *Client) Put(ctx context.Context, key string, body io.Reader, metadata map[string]string) error {
	w := c.client.Bucket(c.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata

	n, err := io.Copy(w, body)
	if err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to upload object", goerr.V("bucket", c.bucket), goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize object", goerr.V("bucket", c.bucket), goerr.V("key", key))
	}

	logging.From(ctx).Debug("Uploaded object", "bucket", c.bucket, "key", key, "size", n)
	return nil
}

// URL returns the public URL of key
func (c *Client) URL(key string) string {
	return (&url.URL{
		Scheme: "https",
		Host:   "storage.googleapis.com",
		Path:   "/" + c.bucket + "/" + key,
	}).String()
}

// Close releases the underlying client
func (c *Client) Close() error {
	return c.client.Close()
}
