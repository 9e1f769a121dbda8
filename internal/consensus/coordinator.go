package consensus

import (
	"github.com/manifoldweb/node/internal/statehash"
	"github.com/sirupsen/logrus"
)

// RequiredPeers returns the number of participants a round needs to reach a
// terminal verdict: the known peers plus self.
func RequiredPeers(peers []string) int { return len(peers) + 1 }

// Coordinator drives one node's per-round state machine. It is owned
// exclusively by the node's core event loop and must not be accessed
// concurrently.
type Coordinator struct {
	self string
	log  *logrus.Logger

	roundID uint64
	state   State
	votes   map[uint64][]Vote
}

// NewCoordinator creates a coordinator for a node identified by self.
func NewCoordinator(self string, log *logrus.Logger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		self:  self,
		log:   log,
		state: StateIdle,
		votes: make(map[uint64][]Vote),
	}
}

// RoundID returns the current round identifier.
func (c *Coordinator) RoundID() uint64 { return c.roundID }

// State returns the coordinator's current state.
func (c *Coordinator) State() State { return c.state }

// AdvanceRound increments round_id by exactly one. Call this after every
// terminal event (Achieved, Failed, or timeout) — never on the degenerate
// single-node skip.
func (c *Coordinator) AdvanceRound() {
	c.roundID++
	c.state = StateIdle
}

// Leader returns the deterministic leader for the current round given the
// known peer set.
func (c *Coordinator) Leader(peers []string) string {
	return LeaderFor(c.self, peers, c.roundID)
}

// BeginRound starts a new round for the current tick. If there are no known
// peers, the coordinator skips the round entirely and round_id does not
// advance (the single-node degenerate case); ok is false. Otherwise, when
// self is the leader, it returns the proposal to broadcast and registers
// self's own implicit agreeing vote (the leader trivially agrees with its
// own proposed hash). When self is not the leader, it returns ok=false and
// the caller should simply wait for an inbound proposal.
func (c *Coordinator) BeginRound(tick uint64, peers []string, localHash statehash.Hash, nowUnix int64) (proposal Round, ok bool) {
	if len(peers) == 0 {
		return Round{}, false
	}

	leader := c.Leader(peers)
	if leader != c.self {
		c.state = StateIdle
		return Round{}, false
	}

	proposal = Round{
		RoundID:       c.roundID,
		Tick:          tick,
		Leader:        c.self,
		StateHash:     localHash,
		TimestampUnix: nowUnix,
	}
	c.state = StateProposing
	c.votes[c.roundID] = []Vote{{
		RoundID:   c.roundID,
		VoterID:   c.self,
		Agree:     true,
		VoterHash: localHash,
	}}
	c.state = StateTallying
	return proposal, true
}

// HandleProposal is the non-leader response to an inbound StateProposal: it
// computes the local hash comparison and returns the vote to send back over
// the same request/response channel. Even a disagreeing vote carries
// voterHash for diagnostics.
func (c *Coordinator) HandleProposal(proposal Round, localHash statehash.Hash) Vote {
	c.state = StateVoted
	return Vote{
		RoundID:   proposal.RoundID,
		VoterID:   c.self,
		Agree:     localHash == proposal.StateHash,
		VoterHash: localHash,
	}
}

// RecordVote appends an arriving vote to the round's tally (votes are
// processed in arrival order) and re-evaluates the terminal predicate.
func (c *Coordinator) RecordVote(v Vote, peers []string) Outcome {
	c.votes[v.RoundID] = append(c.votes[v.RoundID], v)
	return c.evaluate(v.RoundID, RequiredPeers(peers))
}

// evaluate computes agree_count/total_count for roundID and applies
// CheckThreshold.
func (c *Coordinator) evaluate(roundID uint64, requiredPeers int) Outcome {
	votes := c.votes[roundID]
	agree := 0
	for _, v := range votes {
		if v.Agree {
			agree++
		}
	}
	return CheckThreshold(agree, len(votes), requiredPeers)
}

// ForceTimeout re-evaluates a round whose deadline has expired: missing
// votes are treated as non-votes, and the verdict is computed against
// however many votes actually arrived rather than waiting further.
func (c *Coordinator) ForceTimeout(roundID uint64) Outcome {
	votes := c.votes[roundID]
	agree := 0
	for _, v := range votes {
		if v.Agree {
			agree++
		}
	}
	// Using len(votes) as both the numerator base and the denominator means
	// the Pending branch of CheckThreshold can never fire — a timeout must
	// always produce a terminal verdict.
	return CheckThreshold(agree, len(votes), len(votes))
}

// VoteCount returns the number of votes recorded so far for roundID.
func (c *Coordinator) VoteCount(roundID uint64) int {
	return len(c.votes[roundID])
}

// Commit marks the round Committed and builds the Commit announcement.
func (c *Coordinator) Commit(proposal Round) Commit {
	c.state = StateCommitted
	return Commit{
		RoundID:   proposal.RoundID,
		Tick:      proposal.Tick,
		StateHash: proposal.StateHash,
		VoteCount: c.VoteCount(proposal.RoundID),
	}
}

// Abort marks the round Aborted; no commit is broadcast.
func (c *Coordinator) Abort() {
	c.state = StateAborted
}

// ClearRound discards the pending-vote tally for roundID. Call this after a
// terminal event, once any commit has been built.
func (c *Coordinator) ClearRound(roundID uint64) {
	delete(c.votes, roundID)
}
