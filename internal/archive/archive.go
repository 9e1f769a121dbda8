// Package archive declares the durable-archive collaborator that genesis
// manifests and periodic state snapshots are assumed to be preservable
// through, mirroring the role Arweave plays in the original tooling. No
// implementation ships in this repository; this node never dials a real
// archive service.
package archive

import "context"

// Client durably archives and retrieves opaque byte payloads, keyed by
// whatever transaction identifier the concrete backend assigns.
type Client interface {
	Archive(ctx context.Context, payload []byte) (txID string, err error)
	Retrieve(ctx context.Context, txID string) ([]byte, error)
}
