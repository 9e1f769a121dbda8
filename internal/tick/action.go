package tick

import "github.com/manifoldweb/node/internal/agent"

// ActionKind tags the closed set of effects an agent's sandboxed behavior
// program may request for one tick.
type ActionKind int

const (
	// ActionMove requests a new velocity target.
	ActionMove ActionKind = iota
	// ActionConsume requests consumption of a nearby resource for energy.
	ActionConsume
	// ActionReplicate requests asexual (PartnerID empty) or sexual
	// reproduction with another local agent.
	ActionReplicate
	// ActionBroadcast requests a gossip broadcast of an opaque payload.
	ActionBroadcast
	// ActionPropose requests a governance proposal be raised.
	ActionPropose
	// ActionVote requests a governance vote be cast.
	ActionVote
)

func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionConsume:
		return "consume"
	case ActionReplicate:
		return "replicate"
	case ActionBroadcast:
		return "broadcast"
	case ActionPropose:
		return "propose"
	case ActionVote:
		return "vote"
	default:
		return "unknown"
	}
}

// Action is the tagged variant an agent's sandboxed step returns. Only the
// fields relevant to Kind are meaningful.
type Action struct {
	Kind ActionKind

	// ActionMove
	TargetVelocity agent.Vec3

	// ActionConsume
	ResourceEnergy uint64

	// ActionReplicate
	PartnerID string

	// ActionBroadcast, ActionPropose, ActionVote
	Payload []byte
}

// Env is the per-tick context handed to the sandboxed behavior program. It
// deliberately carries nothing beyond what the core controls, since the
// sandbox's own state must not leak into the hashed simulation state (see
// spec §9's note on sandbox/core coupling).
type Env struct {
	Tick uint64
}

// Sandbox is the opaque, externally supplied behavior program. It is
// assumed deterministic given identical inputs; the engine treats a
// returned error as a sandbox failure (spec §7), not a fatal error.
type Sandbox func(a agent.Agent, env Env) ([]Action, error)
