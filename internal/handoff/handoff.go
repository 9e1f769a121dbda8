// Package handoff packages outbound agent transfers, dispatches them to the
// sector's owning node (or broadcasts when the owner is unknown), and
// validates inbound transfers against local sector ownership.
//
// Ownership transfer is not acknowledged end-to-end: the caller removes the
// agent from its store before calling Dispatch. If the send fails or the
// message is lost, the agent no longer exists anywhere on the network —
// this is the documented failure mode, not a bug to be fixed here.
package handoff

import (
	"context"
	"fmt"

	"github.com/manifoldweb/node/internal/agent"
	"github.com/manifoldweb/node/internal/sector"
)

// Message is a handoff in transit: the full agent record plus routing
// metadata.
type Message struct {
	Agent         agent.Agent
	FromSector    sector.ID
	ToSector      sector.ID
	SourceNode    string
	TimestampUnix int64
}

// Response is returned by both outbound dispatch and inbound handling.
type Response struct {
	Success bool
	Message string
}

// Sender delivers an outbound handoff over the network. SendTo targets a
// specific node; Broadcast is used when the destination sector's owner is
// unknown, per the best-effort contract.
type Sender interface {
	SendTo(ctx context.Context, nodeID string, msg Message) (Response, error)
	Broadcast(ctx context.Context, msg Message) (Response, error)
}

// Dispatch sends msg to the known owner of msg.ToSector, or hands it to
// sender.Broadcast if the owner is unresolved. The caller must have already
// removed the agent from its local store before calling Dispatch.
func Dispatch(ctx context.Context, sender Sender, table *sector.OwnershipTable, msg Message) (Response, error) {
	owner, ok := table.Owner(msg.ToSector)
	if !ok {
		return sender.Broadcast(ctx, msg)
	}
	return sender.SendTo(ctx, owner, msg)
}

// Inbound validates and applies an arriving handoff against the local
// sector ownership table and agent store. It rejects handoffs to sectors
// this node does not manage, and rejects duplicate agent ids; both are
// protocol violations reported back to the sender, never escalated to a
// Go error.
func Inbound(table *sector.OwnershipTable, store *agent.Store, msg Message) Response {
	if !table.IsLocal(msg.ToSector) {
		return Response{
			Success: false,
			Message: fmt.Sprintf("sector %d is not managed by this node", msg.ToSector),
		}
	}

	a := msg.Agent
	a.SectorID = msg.ToSector
	if err := store.Insert(a); err != nil {
		return Response{
			Success: false,
			Message: fmt.Sprintf("insert agent %s: %v", a.ID, err),
		}
	}
	return Response{Success: true, Message: "accepted"}
}
