package node

import (
	"context"
	"time"

	"github.com/manifoldweb/node/internal/consensus"
	"github.com/manifoldweb/node/internal/handoff"
	"github.com/manifoldweb/node/internal/wire"
	"golang.org/x/sync/errgroup"
)

// Run drives the node's core event loop until ctx is cancelled: a tick
// timer advances the simulation, dispatches outbound handoffs, and starts
// a consensus round once the node has known peers. A second goroutine
// pumps the actions topic's pubsub subscription into the same loop so both
// tick-driven and network-driven work stay on one logical scheduler,
// mirroring the single cooperative task scheduler the simulation assumes.
func (n *Node) Run(ctx context.Context, tickPeriod time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	commits := make(chan struct{})

	g.Go(func() error {
		return n.pumpCommits(ctx, commits)
	})

	g.Go(func() error {
		return n.coreLoop(ctx, tickPeriod, commits)
	})

	return g.Wait()
}

// coreLoop is the sole caller of Engine.Tick and the sole user of Coord.
// Every inbound consensus proposal is also decided here, off the
// n.proposals channel, rather than directly by the stream-handler goroutine
// that received it. Store and Table are not confined to this goroutine: the
// spawn and handoff stream handlers (protocols.go) insert agents and claim
// sectors from their own goroutines, relying on those types' internal locks.
func (n *Node) coreLoop(ctx context.Context, tickPeriod time.Duration, commits <-chan struct{}) error {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			n.onTick(ctx)

		case req := <-n.proposals:
			vote := decideVote(n.Coord, req.proposal, n.currentHash())
			select {
			case req.resp <- vote:
			default:
			}

		case <-commits:
			// Presence of activity on the actions topic is itself enough to
			// prompt peer-set bookkeeping in a fuller implementation; the
			// core state mutation for an inbound commit is out of scope
			// since this node does not currently reconcile against remote
			// fingerprints it did not itself propose or vote on.
		}
	}
}

// onTick runs one simulation step, dispatches outbound handoffs, and
// starts a consensus round if peers are known.
func (n *Node) onTick(ctx context.Context) {
	result := n.Engine.Tick()

	for _, msg := range result.Outbound {
		if _, err := handoff.Dispatch(ctx, n, n.Table, msg); err != nil {
			n.log.WithError(err).WithField("agent", msg.Agent.ID).Warn("dispatch handoff")
		}
	}

	peers := n.Peers()
	proposal, ok := n.Coord.BeginRound(result.Tick, peers, result.Hash, time.Now().Unix())
	if !ok {
		return
	}
	n.log.WithField("round_id", proposal.RoundID).WithField("tick", proposal.Tick).Debug("proposing round")

	outcome := n.broadcastProposal(ctx, proposal, peers)
	if outcome == consensus.Pending {
		outcome = n.Coord.ForceTimeout(proposal.RoundID)
	}
	switch outcome {
	case consensus.Achieved:
		commit := n.Coord.Commit(proposal)
		n.log.WithField("round_id", commit.RoundID).WithField("vote_count", commit.VoteCount).Info("consensus achieved")
		n.publishCommit(ctx, commit)
	case consensus.Failed:
		n.log.WithField("round_id", proposal.RoundID).WithField("tick", proposal.Tick).Warn("consensus failed")
		n.Coord.Abort()
	}
	n.Coord.ClearRound(proposal.RoundID)
	n.Coord.AdvanceRound()
}

// broadcastProposal sends proposal to every known peer over the consensus
// protocol and records each reply, returning the resulting outcome. Peers
// that fail to respond are simply not counted, consistent with the
// timeout semantics of spec §4.6.
func (n *Node) broadcastProposal(ctx context.Context, proposal consensus.Round, peers []string) consensus.Outcome {
	wp := wire.StateProposal{
		RoundID:   proposal.RoundID,
		Tick:      proposal.Tick,
		StateHash: proposal.StateHash,
		Leader:    proposal.Leader,
		Timestamp: proposal.TimestampUnix,
	}

	outcome := consensus.Pending
	for _, peerID := range peers {
		vote, err := n.requestVote(ctx, peerID, wp)
		if err != nil {
			n.log.WithError(err).WithField("peer", peerID).Warn("consensus vote request")
			continue
		}
		outcome = n.Coord.RecordVote(consensus.Vote{
			RoundID:   vote.RoundID,
			VoterID:   vote.VoterID,
			Agree:     vote.Agree,
			VoterHash: vote.VoterHash,
		}, peers)
	}
	return outcome
}

func (n *Node) publishCommit(ctx context.Context, commit consensus.Commit) {
	wc := wire.StateCommit{
		RoundID:   commit.RoundID,
		Tick:      commit.Tick,
		StateHash: commit.StateHash,
		VoteCount: commit.VoteCount,
	}
	payload, err := wire.Encode(wc)
	if err != nil {
		n.log.WithError(err).Warn("encode state commit")
		return
	}
	if err := n.topic.Publish(ctx, payload); err != nil {
		n.log.WithError(err).Warn("publish state commit")
	}
}

func (n *Node) pumpCommits(ctx context.Context, out chan<- struct{}) error {
	for {
		_, err := n.sub.Next(ctx)
		if err != nil {
			return err
		}
		select {
		case out <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
