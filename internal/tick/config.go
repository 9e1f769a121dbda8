package tick

import "time"

// Config fixes the per-tick rules applied uniformly by Engine. It is
// immutable once an Engine is constructed.
type Config struct {
	// TickPeriod is the wall-clock interval the owning node's scheduler
	// drives Tick at. The engine itself is agnostic to real time between
	// calls; TickPeriod only feeds the kinematic integration step.
	TickPeriod time.Duration

	// SectorSize is the edge length of one cubical sector.
	SectorSize float32

	// CostTable fixes the energy debited for each action kind, independent
	// of whether the action succeeds. Kinds absent from the table cost
	// zero.
	CostTable map[ActionKind]uint64

	// MutationRate is the per-byte bit-flip probability applied to an
	// offspring's inherited parameter vector.
	MutationRate float64

	// ReplicationThreshold is the minimum energy a parent must hold before
	// a replicate action is honored.
	ReplicationThreshold uint64

	// ReplicationTax is subtracted from the sum of energy the parent(s)
	// contributed (each loses ReplicationThreshold) to arrive at the
	// offspring's starting energy.
	ReplicationTax uint64

	// SandboxFailurePenalty is the energy debited from an agent whose
	// sandboxed step returns an error, in lieu of applying any action.
	SandboxFailurePenalty uint64
}

// DefaultConfig returns the reference tuning used when a node's own
// configuration does not override a field.
func DefaultConfig() Config {
	return Config{
		TickPeriod: 100 * time.Millisecond,
		SectorSize: 16.0,
		CostTable: map[ActionKind]uint64{
			ActionMove:      1,
			ActionConsume:   0,
			ActionReplicate: 10,
			ActionBroadcast: 2,
			ActionPropose:   5,
			ActionVote:      1,
		},
		MutationRate:          0.01,
		ReplicationThreshold:  50,
		ReplicationTax:        20,
		SandboxFailurePenalty: 5,
	}
}

func (c Config) cost(k ActionKind) uint64 {
	if c.CostTable == nil {
		return 0
	}
	return c.CostTable[k]
}
