package domain

import (
	"context"
	"io"
)

// Delivery is how a resolved download reaches the client: either a signed URL
// to fetch from object storage, or a byte stream served by this process.
type Delivery struct {
	URL         string
	Filename    string
	ContentType string
	Body        io.ReadCloser
	Size        int64
}

// Redirect reports whether the client should fetch the file from URL itself.
func (d *Delivery) Redirect() bool {
	return d.URL != ""
}

// Close releases the stream, if any.
func (d *Delivery) Close() error {
	if d.Body == nil {
		return nil
	}
	return d.Body.Close()
}

// BlobStore is the storage backend holding material files. Exactly one
// implementation is selected at start-up.
type BlobStore interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Deliver prepares a download of key. It returns ErrBlobNotFound when
	// the key is absent from storage.
	Deliver(ctx context.Context, key, filename, contentType string) (*Delivery, error)
}
