package store

import "context"

// BlobStore defines the interface for media byte storage (narration
// audio, cover images). Artifacts reference blobs by URL; the bytes
// themselves never pass through the artifact store.
// Version: 1.0
type BlobStore interface {
	// Put uploads the blob under the given key and returns its public URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
