package deadreckoning

import (
	"sync"
	"time"

	"github.com/manifoldweb/node/internal/agent"
)

// Registry is a keyed collection of PredictedAgent, one per agent an
// observer is currently tracking. A predicted agent is created the first
// time motion is observed for an id and is never explicitly destroyed;
// callers that want to drop stale entries should consult TimeSinceUpdate
// themselves and call Remove.
type Registry struct {
	mu     sync.RWMutex
	engine *Engine
	agents map[string]*PredictedAgent
}

// NewRegistry creates an empty registry driven by engine.
func NewRegistry(engine *Engine) *Registry {
	if engine == nil {
		engine = DefaultEngine()
	}
	return &Registry{engine: engine, agents: make(map[string]*PredictedAgent)}
}

// Observe records an authoritative update for id, creating a new
// PredictedAgent on first observation or blending into the existing one.
func (r *Registry) Observe(id string, position, velocity, acceleration agent.Vec3, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.agents[id]
	if !ok {
		r.agents[id] = r.engine.CreateAgent(position, velocity, acceleration, now)
		return
	}
	r.engine.UpdateAgent(p, position, velocity, acceleration, now)
}

// Predict advances id's prediction to now and returns it, or false if id
// has never been observed.
func (r *Registry) Predict(id string, now time.Time) (agent.Vec3, bool) {
	r.mu.RLock()
	p, ok := r.agents[id]
	r.mu.RUnlock()
	if !ok {
		return agent.Vec3{}, false
	}
	return r.engine.PredictPosition(p, now), true
}

// Display returns id's smoothed display position, or false if id has never
// been observed.
func (r *Registry) Display(id string) (agent.Vec3, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.agents[id]
	if !ok {
		return agent.Vec3{}, false
	}
	return r.engine.DisplayPosition(p), true
}

// TimeSinceUpdate reports how long it has been since id last received an
// authoritative update, or false if id has never been observed.
func (r *Registry) TimeSinceUpdate(id string, now time.Time) (time.Duration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.agents[id]
	if !ok {
		return 0, false
	}
	return r.engine.TimeSinceUpdate(p, now), true
}

// Remove discards a tracked agent, e.g. once an observer decides it is
// stale.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, id)
}

// Len returns the number of agents currently tracked.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
