// Package tick implements the node's local simulation step: executing each
// agent's sandboxed behavior program, applying its requested actions,
// integrating motion, detecting sector boundary crossings, and folding the
// resulting state into a single fingerprint for consensus.
package tick

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/manifoldweb/node/internal/agent"
	"github.com/manifoldweb/node/internal/handoff"
	"github.com/manifoldweb/node/internal/sector"
	"github.com/manifoldweb/node/internal/statehash"
	"github.com/sirupsen/logrus"
)

// Result summarizes one call to Engine.Tick: the resulting fingerprint and
// the work the caller's node-level wiring must still carry out (dispatch
// outbound handoffs, broadcast reproduced offspring is implicit since they
// are simply inserted into the local store).
type Result struct {
	Tick     uint64
	Hash     statehash.Hash
	Outbound []handoff.Message
}

// Engine owns one node's local agent store and sector ownership table and
// advances them by exactly one tick per call to Tick. It is not safe for
// concurrent use: the owning node's core event loop must be the only
// caller.
type Engine struct {
	store   *agent.Store
	table   *sector.OwnershipTable
	sandbox Sandbox
	cfg     Config
	log     *logrus.Logger
	rng     *rand.Rand

	tickCount uint64
}

// NewEngine constructs an Engine over an existing store and ownership
// table. rng seeds the reproduction mutation draws; pass rand.New with a
// fixed source for deterministic tests.
func NewEngine(store *agent.Store, table *sector.OwnershipTable, sandbox Sandbox, cfg Config, log *logrus.Logger, rng *rand.Rand) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Engine{
		store:   store,
		table:   table,
		sandbox: sandbox,
		cfg:     cfg,
		log:     log,
		rng:     rng,
	}
}

// TickCount returns the number of ticks this engine has executed.
func (e *Engine) TickCount() uint64 { return e.tickCount }

// Tick advances the simulation by exactly one step, in six fixed phases:
// execute each agent's sandboxed behavior, apply the actions it requested,
// integrate kinematics, detect sector boundary crossings, compute the
// resulting fingerprint, and return the outbound handoffs for the caller
// to dispatch.
func (e *Engine) Tick() Result {
	env := Env{Tick: e.tickCount}

	type pending struct {
		id      string
		actions []Action
	}
	var queue []pending

	e.store.IterSorted(func(a agent.Agent) bool {
		actions, err := e.sandbox(a, env)
		if err != nil {
			e.log.WithFields(logrus.Fields{"agent": a.ID, "tick": e.tickCount}).
				WithError(err).Warn("sandbox step failed, applying penalty")
			e.penalize(a.ID)
			return true
		}
		queue = append(queue, pending{id: a.ID, actions: actions})
		return true
	})

	var offspring []agent.Agent
	for _, p := range queue {
		offspring = append(offspring, e.applyActions(p.id, p.actions)...)
	}
	for _, child := range offspring {
		if err := e.store.Insert(child); err != nil {
			e.log.WithError(err).WithField("agent", child.ID).Warn("dropping offspring with colliding id")
		}
	}

	e.integrateKinematics()

	outbound := e.detectBoundaryCrossings()

	h := statehash.Compute(e.tickCount, e.store)

	result := Result{Tick: e.tickCount, Hash: h, Outbound: outbound}
	e.tickCount++
	return result
}

// penalize debits SandboxFailurePenalty from an agent whose sandbox step
// errored, removing it if that exhausts its energy.
func (e *Engine) penalize(id string) {
	a, ok := e.store.Get(id)
	if !ok {
		return
	}
	a.Energy = subtractSaturating(a.Energy, e.cfg.SandboxFailurePenalty)
	if a.Energy == 0 {
		e.store.Remove(id)
		return
	}
	e.store.Update(a)
}

// applyActions debits costs, credits consumed energy, updates velocity
// targets, and spawns offspring for one agent's batch of requested actions.
// It returns any offspring produced. Agents whose energy reaches zero are
// removed immediately and no further actions for that agent are applied.
func (e *Engine) applyActions(id string, actions []Action) []agent.Agent {
	var offspring []agent.Agent

	for _, act := range actions {
		a, ok := e.store.Get(id)
		if !ok {
			return offspring // removed by an earlier action in this batch
		}

		a.Energy = subtractSaturating(a.Energy, e.cfg.cost(act.Kind))

		switch act.Kind {
		case ActionMove:
			a.Velocity = act.TargetVelocity
			e.store.Update(a)

		case ActionConsume:
			a.Energy += act.ResourceEnergy
			e.store.Update(a)

		case ActionReplicate:
			if a.Energy < e.cfg.ReplicationThreshold {
				e.store.Update(a)
				break
			}
			a.Energy = subtractSaturating(a.Energy, e.cfg.ReplicationThreshold)
			e.store.Update(a)
			child, ok := e.reproduce(a, act.PartnerID)
			if ok {
				offspring = append(offspring, child)
			}

		case ActionBroadcast, ActionPropose, ActionVote:
			// Debited above; dispatch to the network layer is the owning
			// node's responsibility, not the engine's.
			e.store.Update(a)

		default:
			e.store.Update(a)
		}

		if a.Energy == 0 {
			e.store.Remove(id)
			return offspring
		}
	}

	return offspring
}

// reproduce builds one offspring from parent a, which has already been
// debited ReplicationThreshold. If partnerID is non-empty, resolves to a
// local agent, and that agent holds at least ReplicationThreshold energy,
// the partner is also debited ReplicationThreshold and crossed over with a
// (sexual reproduction); otherwise a's genome is cloned (with mutation)
// asexually. The offspring's energy is the sum of what the parent(s) lost
// to replication, minus a fixed tax.
func (e *Engine) reproduce(a agent.Agent, partnerID string) (agent.Agent, bool) {
	childGenome := agent.Genome{}
	generation := a.Generation + 1
	lost := e.cfg.ReplicationThreshold

	if partnerID != "" {
		if partner, ok := e.store.Get(partnerID); ok && partner.Energy >= e.cfg.ReplicationThreshold {
			partner.Energy = subtractSaturating(partner.Energy, e.cfg.ReplicationThreshold)
			e.store.Update(partner)
			lost += e.cfg.ReplicationThreshold

			childGenome = evolveOffspring(a.Behavior, partner.Behavior, e.rng, e.cfg.MutationRate, -1)
			if partner.Generation+1 > generation {
				generation = partner.Generation + 1
			}
		}
	}
	if childGenome.CID == "" {
		childGenome = cloneGenome(a.Behavior, e.rng, e.cfg.MutationRate)
	}

	childID := uuid.NewString()
	child := agent.Agent{
		ID:          childID,
		Behavior:    childGenome,
		Energy:      subtractSaturating(lost, e.cfg.ReplicationTax),
		Position:    a.Position,
		SectorID:    a.SectorID,
		CreatedAtMS: int64(e.tickCount),
		Generation:  generation,
	}
	return child, true
}

// integrateKinematics advances every agent's position and velocity by one
// tick period using simple Newtonian integration.
func (e *Engine) integrateKinematics() {
	dt := float32(e.cfg.TickPeriod.Seconds())
	if dt == 0 {
		dt = 0.1
	}

	var updated []agent.Agent
	e.store.IterSorted(func(a agent.Agent) bool {
		a.Position.X += a.Velocity.X*dt + 0.5*a.Acceleration.X*dt*dt
		a.Position.Y += a.Velocity.Y*dt + 0.5*a.Acceleration.Y*dt*dt
		a.Position.Z += a.Velocity.Z*dt + 0.5*a.Acceleration.Z*dt*dt

		a.Velocity.X += a.Acceleration.X * dt
		a.Velocity.Y += a.Acceleration.Y * dt
		a.Velocity.Z += a.Acceleration.Z * dt

		updated = append(updated, a)
		return true
	})
	for _, a := range updated {
		e.store.Update(a)
	}
}

// detectBoundaryCrossings recomputes each agent's sector against its
// current position. Agents that moved into a sector this node still owns
// are updated in place; agents that moved into a sector owned elsewhere
// (or unowned) are removed from the store and queued as outbound handoffs.
func (e *Engine) detectBoundaryCrossings() []handoff.Message {
	type crossing struct {
		agent     agent.Agent
		oldSector sector.ID
	}
	var crossed []crossing
	e.store.IterSorted(func(a agent.Agent) bool {
		newSector := e.table.Map(a.Position.X, a.Position.Y, a.Position.Z)
		if newSector != a.SectorID {
			oldSector := a.SectorID
			a.SectorID = newSector
			crossed = append(crossed, crossing{agent: a, oldSector: oldSector})
		}
		return true
	})

	var outbound []handoff.Message
	for _, c := range crossed {
		if e.table.IsLocal(c.agent.SectorID) {
			e.store.Update(c.agent)
			continue
		}
		removed, err := e.store.Remove(c.agent.ID)
		if err != nil {
			continue
		}
		outbound = append(outbound, handoff.Message{
			Agent:      removed,
			FromSector: c.oldSector,
			ToSector:   c.agent.SectorID,
			SourceNode: e.table.LocalID(),
		})
	}
	return outbound
}

func subtractSaturating(v, delta uint64) uint64 {
	if delta >= v {
		return 0
	}
	return v - delta
}
