// Package sector maps continuous 3-D positions onto the discrete lattice of
// sectors that partitions the manifold, and tracks which node owns each
// sector this node knows about.
package sector

import (
	"math"
	"sync"
)

// ID identifies a cubical cell of the spatial partition.
type ID uint64

const (
	hashX uint64 = 73856093
	hashY uint64 = 19349663
	hashZ uint64 = 83492791
)

// Map computes the sector id for a position, given the fixed sector size s.
// Coordinates are floored towards negative infinity on each axis, matching
// a regular integer lattice that extends in all directions. NaN or
// infinite coordinates are a contract violation by the caller and are not
// checked here — the caller must validate inputs before calling Map.
func Map(x, y, z float32, s float32) ID {
	gx := int64(math.Floor(float64(x / s)))
	gy := int64(math.Floor(float64(y / s)))
	gz := int64(math.Floor(float64(z / s)))

	h := (uint64(gx) * hashX) ^ (uint64(gy) * hashY) ^ (uint64(gz) * hashZ)
	return ID(h)
}

// OwnershipTable records which node owns each sector this node knows about,
// and which sectors this node itself owns.
type OwnershipTable struct {
	mu      sync.RWMutex
	size    float32
	owners  map[ID]string
	localID string
	local   map[ID]struct{}
}

// NewOwnershipTable creates a table for a node identified by localID, using
// sectorSize for Map. sectorSize must match across the network.
func NewOwnershipTable(localID string, sectorSize float32) *OwnershipTable {
	return &OwnershipTable{
		size:    sectorSize,
		owners:  make(map[ID]string),
		localID: localID,
		local:   make(map[ID]struct{}),
	}
}

// SectorSize returns the fixed sector size used for Map.
func (t *OwnershipTable) SectorSize() float32 { return t.size }

// LocalID returns the node identifier this table was constructed with.
func (t *OwnershipTable) LocalID() string { return t.localID }

// Map is a convenience wrapper around the package-level Map using this
// table's configured sector size.
func (t *OwnershipTable) Map(x, y, z float32) ID { return Map(x, y, z, t.size) }

// ClaimLocal marks sectorID as owned by this node.
func (t *OwnershipTable) ClaimLocal(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.local[id] = struct{}{}
	t.owners[id] = t.localID
}

// SetOwner records that a remote node owns id. Setting the owner to the
// local node id is equivalent to ClaimLocal.
func (t *OwnershipTable) SetOwner(id ID, nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owners[id] = nodeID
	if nodeID == t.localID {
		t.local[id] = struct{}{}
	} else {
		delete(t.local, id)
	}
}

// Owner returns the node id responsible for the sector, and whether it is
// known at all. An unknown sector is treated as remote with an unresolved
// destination.
func (t *OwnershipTable) Owner(id ID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	owner, ok := t.owners[id]
	return owner, ok
}

// IsLocal reports whether id is in the local-owned set.
func (t *OwnershipTable) IsLocal(id ID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.local[id]
	return ok
}

// LocalSectors returns a snapshot of sector ids owned by this node.
func (t *OwnershipTable) LocalSectors() []ID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ID, 0, len(t.local))
	for id := range t.local {
		out = append(out, id)
	}
	return out
}
