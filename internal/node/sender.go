package node

import (
	"context"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/manifoldweb/node/internal/handoff"
	"github.com/manifoldweb/node/internal/wire"
)

// streamTimeout bounds how long a request/response round trip over a
// single stream may take before it is abandoned.
const streamTimeout = 5 * time.Second

// Sender adapts Node into handoff.Sender, opening a fresh stream per
// outbound handoff attempt.
func (n *Node) SendTo(ctx context.Context, nodeID string, msg handoff.Message) (handoff.Response, error) {
	pid, err := peer.Decode(nodeID)
	if err != nil {
		return handoff.Response{}, fmt.Errorf("decode peer id %s: %w", nodeID, err)
	}

	aw, err := handoff.Encode(msg)
	if err != nil {
		return handoff.Response{}, fmt.Errorf("encode handoff: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, streamTimeout)
	defer cancel()

	s, err := n.host.NewStream(ctx, pid, ProtocolHandoff)
	if err != nil {
		return handoff.Response{}, fmt.Errorf("open handoff stream: %w", err)
	}
	defer s.Close()

	if err := wire.WriteFrame(s, aw); err != nil {
		return handoff.Response{}, err
	}

	var resp wire.HandoffResponse
	if err := wire.ReadFrame(s, &resp); err != nil {
		return handoff.Response{}, err
	}
	return handoff.DecodeResponse(resp), nil
}

// Broadcast offers msg to each known peer in turn, since the destination
// sector's owner is unresolved, and returns the first accepting response.
// Peers that fail or reject the handoff do not end the search; if no peer
// accepts, the last rejection (or else the last error) is returned.
func (n *Node) Broadcast(ctx context.Context, msg handoff.Message) (handoff.Response, error) {
	var lastErr error
	var rejected *handoff.Response
	for _, peerID := range n.Peers() {
		resp, err := n.SendTo(ctx, peerID, msg)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Success {
			return resp, nil
		}
		rejected = &resp
	}
	if rejected != nil {
		return *rejected, nil
	}
	if lastErr != nil {
		return handoff.Response{}, lastErr
	}
	return handoff.Response{Success: false, Message: "no known peers to broadcast to"}, nil
}

var _ handoff.Sender = (*Node)(nil)

// requestVote sends a StateProposal to peerID over the consensus protocol
// and returns its reply.
func (n *Node) requestVote(ctx context.Context, peerID string, proposal wire.StateProposal) (wire.StateVote, error) {
	pid, err := peer.Decode(peerID)
	if err != nil {
		return wire.StateVote{}, fmt.Errorf("decode peer id %s: %w", peerID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, streamTimeout)
	defer cancel()

	s, err := n.host.NewStream(ctx, pid, ProtocolConsensus)
	if err != nil {
		return wire.StateVote{}, fmt.Errorf("open consensus stream: %w", err)
	}
	defer s.Close()

	if err := wire.WriteFrame(s, proposal); err != nil {
		return wire.StateVote{}, err
	}

	var vote wire.StateVote
	if err := wire.ReadFrame(s, &vote); err != nil {
		return wire.StateVote{}, err
	}
	return vote, nil
}
