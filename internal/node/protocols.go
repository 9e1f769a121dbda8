package node

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/manifoldweb/node/internal/agent"
	"github.com/manifoldweb/node/internal/consensus"
	"github.com/manifoldweb/node/internal/handoff"
	"github.com/manifoldweb/node/internal/sector"
	"github.com/manifoldweb/node/internal/statehash"
	"github.com/manifoldweb/node/internal/wire"
)

// registerStreamHandlers wires the three request/response protocols onto
// the host, each handler reading exactly one framed request and writing
// exactly one framed response before closing the stream.
func (n *Node) registerStreamHandlers() {
	n.host.SetStreamHandler(ProtocolSpawn, func(s network.Stream) {
		defer s.Close()
		resp := handleSpawnStream(s, n.Store, n.Table)
		_ = wire.WriteFrame(s, resp)
	})

	n.host.SetStreamHandler(ProtocolConsensus, func(s network.Stream) {
		defer s.Close()
		resp := handleConsensusStream(n.ctx, s, n.proposals)
		_ = wire.WriteFrame(s, resp)
	})

	n.host.SetStreamHandler(ProtocolHandoff, func(s network.Stream) {
		defer s.Close()
		resp := handleHandoffStream(s, n.Table, n.Store)
		_ = wire.WriteFrame(s, resp)
	})
}

// currentHash is a small seam so coreLoop can read the node's most
// recently computed fingerprint without reaching into Engine internals. It
// must only be called from coreLoop: Engine's tick counter is unguarded
// and assumes a single caller, same as Coord.
func (n *Node) currentHash() statehash.Hash {
	return statehash.Compute(n.Engine.TickCount(), n.Store)
}

// handleSpawnStream reads a SpawnRequest and inserts a fresh agent with a
// freshly minted identifier, the content address supplied by the caller,
// and no evolved parameters.
func handleSpawnStream(r io.Reader, store *agent.Store, table *sector.OwnershipTable) wire.SpawnResponse {
	var req wire.SpawnRequest
	if err := wire.ReadFrame(r, &req); err != nil {
		return wire.SpawnResponse{Success: false, Message: "malformed spawn request: " + err.Error()}
	}

	id := uuid.NewString()
	a := agent.Agent{
		ID:       id,
		Behavior: agent.Genome{CID: req.CID},
		Energy:   req.InitialEnergy,
		SectorID: table.Map(0, 0, 0),
	}
	if err := store.Insert(a); err != nil {
		return wire.SpawnResponse{Success: false, Message: err.Error()}
	}
	table.ClaimLocal(a.SectorID)

	return wire.SpawnResponse{Success: true, AgentID: &id, Message: "spawned"}
}

// consensusRequest carries one inbound proposal from a stream-handler
// goroutine to coreLoop, along with a channel to deliver the resulting
// vote back.
type consensusRequest struct {
	proposal consensus.Round
	resp     chan wire.StateVote
}

// decideVote is the core loop's decision step for an inbound proposal: the
// only place Coord.HandleProposal may be called, since Coordinator carries
// no internal synchronization and assumes a single caller. Kept separate
// from the channel hand-off in handleConsensusStream so it can be tested
// without any concurrency.
func decideVote(coord *consensus.Coordinator, proposal consensus.Round, localHash statehash.Hash) wire.StateVote {
	vote := coord.HandleProposal(proposal, localHash)
	return wire.StateVote{
		RoundID:   vote.RoundID,
		VoterID:   vote.VoterID,
		Agree:     vote.Agree,
		VoterHash: vote.VoterHash,
	}
}

// handleConsensusStream reads a StateProposal and forwards it to coreLoop
// over reqs, then blocks for the resulting vote. It never touches Coord
// itself: ctx cancellation (node shutdown) aborts the wait with a
// disagreeing vote rather than hanging the stream open.
func handleConsensusStream(ctx context.Context, r io.Reader, reqs chan<- consensusRequest) wire.StateVote {
	var wp wire.StateProposal
	if err := wire.ReadFrame(r, &wp); err != nil {
		return wire.StateVote{Agree: false}
	}
	proposal := consensus.Round{
		RoundID:       wp.RoundID,
		Tick:          wp.Tick,
		Leader:        wp.Leader,
		StateHash:     wp.StateHash,
		TimestampUnix: wp.Timestamp,
	}

	req := consensusRequest{proposal: proposal, resp: make(chan wire.StateVote, 1)}
	select {
	case reqs <- req:
	case <-ctx.Done():
		return wire.StateVote{Agree: false}
	}

	select {
	case vote := <-req.resp:
		return vote
	case <-ctx.Done():
		return wire.StateVote{Agree: false}
	}
}

// handleHandoffStream reads an AgentHandoffWire and applies it to the
// local store via handoff.Inbound.
func handleHandoffStream(r io.Reader, table *sector.OwnershipTable, store *agent.Store) wire.HandoffResponse {
	var aw wire.AgentHandoffWire
	if err := wire.ReadFrame(r, &aw); err != nil {
		return wire.HandoffResponse{Success: false, Message: "malformed handoff: " + err.Error()}
	}
	msg, err := handoff.Decode(aw)
	if err != nil {
		return wire.HandoffResponse{Success: false, Message: "decode handoff: " + err.Error()}
	}
	resp := handoff.Inbound(table, store, msg)
	return handoff.EncodeResponse(resp)
}
