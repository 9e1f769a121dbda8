// Package blobstore declares the content-addressed storage collaborator
// that behavior genomes are assumed to live behind. No implementation
// ships in this repository; callers inject a concrete Store (an IPFS
// client, a local cache, a test double) at construction.
package blobstore

import "context"

// Store puts and gets opaque byte blobs by content address. The address
// scheme itself (e.g. an IPFS CID string) is a concern of the concrete
// implementation, not of this interface.
type Store interface {
	Put(ctx context.Context, data []byte) (cid string, err error)
	Get(ctx context.Context, cid string) ([]byte, error)
}
