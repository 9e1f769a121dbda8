// Package consensus implements the round-based state-hash agreement
// protocol: deterministic round-robin leader election, proposal dispatch,
// vote tallying against a strict >2/3 threshold, and commit broadcast.
//
// A Coordinator is owned exclusively by one node's core event loop; it is
// not safe for concurrent use from multiple goroutines, by design — see
// spec §5's single cooperative task scheduler.
package consensus

import "github.com/manifoldweb/node/internal/statehash"

// Round describes one round's terminal parameters once proposed.
type Round struct {
	RoundID       uint64
	Tick          uint64
	Leader        string
	StateHash     statehash.Hash
	TimestampUnix int64
}

// Vote is a peer's reply to a round's proposal.
type Vote struct {
	RoundID   uint64
	VoterID   string
	Agree     bool
	VoterHash statehash.Hash
}

// Commit is the post-hoc announcement broadcast after an Achieved round.
type Commit struct {
	RoundID   uint64
	Tick      uint64
	StateHash statehash.Hash
	VoteCount int
}

// State is a round's place in the per-node state machine of spec §4.6.
type State int

const (
	// StateIdle is the non-leader's initial state, awaiting a proposal.
	StateIdle State = iota
	// StateProposing is the leader's initial state: it has sent a proposal
	// and is collecting votes.
	StateProposing
	// StateVoted is a non-leader's state after replying to a proposal.
	StateVoted
	// StateTallying is the leader's state while counting votes.
	StateTallying
	// StateCommitted is a terminal state: consensus achieved, commit sent.
	StateCommitted
	// StateAborted is a terminal state: consensus failed or timed out.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProposing:
		return "proposing"
	case StateVoted:
		return "voted"
	case StateTallying:
		return "tallying"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome is the terminal predicate's verdict for a round's vote tally.
type Outcome int

const (
	// Pending means fewer votes than required_peers have arrived so far.
	Pending Outcome = iota
	// Achieved means agree_count exceeds the strict >2/3 threshold.
	Achieved
	// Failed means all required votes are in (or the round timed out) and
	// the threshold was not met.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Achieved:
		return "achieved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
