// Package storage defines the artifact blob store contract. Uploaded
// submission files live behind it; the evaluation core only ever sees
// opaque URLs.
package storage

import (
	"context"
	"errors"
)

// Sentinel kinds for storage errors.
var (
	ErrUploadFailed = errors.New("artifact upload failed")
	ErrNotFound     = errors.New("artifact not found")
)

// Store uploads and deletes artifact blobs. Allowed file types and the
// size ceiling are the orchestrator's concern, not the store's.
type Store interface {
	// Upload writes data under folder/name and returns a retrievable URL.
	Upload(ctx context.Context, data []byte, folder, name string) (string, error)

	// Delete removes the blob behind url. Returns false when the blob
	// did not exist.
	Delete(ctx context.Context, url string) (bool, error)
}
