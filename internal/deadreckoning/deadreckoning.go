// Package deadreckoning implements client-side kinematic prediction of
// agent motion between authoritative state updates, so an observer can
// render smooth movement despite network latency.
package deadreckoning

import (
	"math"
	"time"

	"github.com/manifoldweb/node/internal/agent"
)

func sqrt32(v float32) float32 { return float32(math.Sqrt(float64(v))) }

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b agent.Vec3, t float32) agent.Vec3 {
	return agent.Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

func distance(a, b agent.Vec3) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return sqrt32(dx*dx + dy*dy + dz*dz)
}

// PredictedAgent holds one agent's last authoritative state and the
// locally predicted/displayed state derived from it.
type PredictedAgent struct {
	AuthoritativePosition     agent.Vec3
	AuthoritativeVelocity     agent.Vec3
	AuthoritativeAcceleration agent.Vec3
	LastUpdate                time.Time

	PredictedPosition agent.Vec3
	PredictedVelocity agent.Vec3
}

// NewPredictedAgent creates a predicted agent from an initial authoritative
// state observed at now.
func NewPredictedAgent(position, velocity, acceleration agent.Vec3, now time.Time) *PredictedAgent {
	return &PredictedAgent{
		AuthoritativePosition:     position,
		AuthoritativeVelocity:     velocity,
		AuthoritativeAcceleration: acceleration,
		LastUpdate:                now,
		PredictedPosition:         position,
		PredictedVelocity:         velocity,
	}
}

// UpdateAuthoritative resets the prediction baseline to a newly received
// authoritative update, blending the previously predicted position toward
// it by blendFactor (0 keeps the prediction, 1 snaps fully to the new
// authoritative position) to avoid rubber-banding.
func (p *PredictedAgent) UpdateAuthoritative(position, velocity, acceleration agent.Vec3, blendFactor float32, now time.Time) {
	blendFactor = clamp32(blendFactor, 0, 1)
	p.PredictedPosition = lerp(p.PredictedPosition, position, blendFactor)

	p.AuthoritativePosition = position
	p.AuthoritativeVelocity = velocity
	p.AuthoritativeAcceleration = acceleration
	p.LastUpdate = now

	p.PredictedVelocity = velocity
}

// Predict advances the predicted position and velocity from the last
// authoritative state to now, using constant-acceleration kinematics.
func (p *PredictedAgent) Predict(now time.Time) agent.Vec3 {
	dt := float32(now.Sub(p.LastUpdate).Seconds())

	p.PredictedPosition = agent.Vec3{
		X: p.AuthoritativePosition.X + p.AuthoritativeVelocity.X*dt + 0.5*p.AuthoritativeAcceleration.X*dt*dt,
		Y: p.AuthoritativePosition.Y + p.AuthoritativeVelocity.Y*dt + 0.5*p.AuthoritativeAcceleration.Y*dt*dt,
		Z: p.AuthoritativePosition.Z + p.AuthoritativeVelocity.Z*dt + 0.5*p.AuthoritativeAcceleration.Z*dt*dt,
	}
	p.PredictedVelocity = agent.Vec3{
		X: p.AuthoritativeVelocity.X + p.AuthoritativeAcceleration.X*dt,
		Y: p.AuthoritativeVelocity.Y + p.AuthoritativeAcceleration.Y*dt,
		Z: p.AuthoritativeVelocity.Z + p.AuthoritativeAcceleration.Z*dt,
	}
	return p.PredictedPosition
}

// SmoothedPosition blends the predicted position toward the authoritative
// one by alpha, an additional exponential-smoothing layer applied only for
// display (it never feeds back into Predict).
func (p *PredictedAgent) SmoothedPosition(alpha float32) agent.Vec3 {
	return lerp(p.PredictedPosition, p.AuthoritativePosition, clamp32(alpha, 0, 1))
}

// PredictionError is the distance between the predicted and the last
// authoritative position.
func (p *PredictedAgent) PredictionError() float32 {
	return distance(p.PredictedPosition, p.AuthoritativePosition)
}

// NeedsCorrection reports whether the prediction has drifted beyond
// maxError, a sign of desync that warrants a forced snap.
func (p *PredictedAgent) NeedsCorrection(maxError float32) bool {
	return p.PredictionError() > maxError
}

// Engine holds the tuning parameters shared across all agents an observer
// tracks.
type Engine struct {
	blendFactor       float32
	smoothingAlpha    float32
	maxErrorThreshold float32
}

// DefaultEngine returns the reference tuning: 30% blend toward
// authoritative corrections, 20% display smoothing, snap correction past
// 10 units of drift.
func DefaultEngine() *Engine {
	return &Engine{blendFactor: 0.3, smoothingAlpha: 0.2, maxErrorThreshold: 10.0}
}

// NewEngine builds an Engine with explicit tuning, clamping each parameter
// into its valid range.
func NewEngine(blendFactor, smoothingAlpha, maxErrorThreshold float32) *Engine {
	return &Engine{
		blendFactor:       clamp32(blendFactor, 0, 1),
		smoothingAlpha:    clamp32(smoothingAlpha, 0, 1),
		maxErrorThreshold: maxFloat32(maxErrorThreshold, 0),
	}
}

func maxFloat32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// CreateAgent builds a new PredictedAgent from an initial authoritative
// state.
func (e *Engine) CreateAgent(position, velocity, acceleration agent.Vec3, now time.Time) *PredictedAgent {
	return NewPredictedAgent(position, velocity, acceleration, now)
}

// UpdateAgent applies a new authoritative update to p, forcing a full snap
// instead of the configured blend factor if the prediction has drifted
// past the error threshold from the arriving position.
func (e *Engine) UpdateAgent(p *PredictedAgent, position, velocity, acceleration agent.Vec3, now time.Time) {
	blend := e.blendFactor
	if distance(p.PredictedPosition, position) > e.maxErrorThreshold {
		blend = 1.0
	}
	p.UpdateAuthoritative(position, velocity, acceleration, blend, now)
}

// PredictPosition advances p's prediction to now.
func (e *Engine) PredictPosition(p *PredictedAgent, now time.Time) agent.Vec3 {
	return p.Predict(now)
}

// DisplayPosition returns p's smoothed position using this engine's
// configured smoothing alpha.
func (e *Engine) DisplayPosition(p *PredictedAgent) agent.Vec3 {
	return p.SmoothedPosition(e.smoothingAlpha)
}

// TimeSinceUpdate returns how long it has been since p last received an
// authoritative update.
func (e *Engine) TimeSinceUpdate(p *PredictedAgent, now time.Time) time.Duration {
	return now.Sub(p.LastUpdate)
}

// SetBlendFactor adjusts the blend factor at runtime.
func (e *Engine) SetBlendFactor(f float32) { e.blendFactor = clamp32(f, 0, 1) }

// SetSmoothingAlpha adjusts the smoothing alpha at runtime.
func (e *Engine) SetSmoothingAlpha(a float32) { e.smoothingAlpha = clamp32(a, 0, 1) }

// SetErrorThreshold adjusts the correction error threshold at runtime.
func (e *Engine) SetErrorThreshold(t float32) { e.maxErrorThreshold = maxFloat32(t, 0) }
