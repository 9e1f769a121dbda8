// Package agent defines the simulation's core data type and the local,
// per-node collection that holds the agents this node currently owns.
package agent

import "github.com/manifoldweb/node/internal/sector"

// Genome is a content-addressed behavior descriptor plus an evolvable byte
// vector of parameters. The behavior program itself lives behind the
// content address and is never interpreted by this package.
type Genome struct {
	CID        string
	Parameters []byte
}

// Vec3 is a 3-D single-precision vector used for position, velocity and
// acceleration.
type Vec3 struct {
	X, Y, Z float32
}

// Agent is an autonomous unit of simulation local to one node at a time.
type Agent struct {
	ID           string
	Behavior     Genome
	Energy       uint64
	Position     Vec3
	Velocity     Vec3
	Acceleration Vec3
	SectorID     sector.ID
	CreatedAtMS  int64
	Generation   uint32
}
