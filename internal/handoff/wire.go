package handoff

import (
	"github.com/manifoldweb/node/internal/agent"
	"github.com/manifoldweb/node/internal/sector"
	"github.com/manifoldweb/node/internal/wire"
)

// agentToWire encodes an agent record into its canonical on-wire form.
func agentToWire(a agent.Agent) wire.AgentWire {
	return wire.AgentWire{
		ID:          a.ID,
		CID:         a.Behavior.CID,
		Parameters:  a.Behavior.Parameters,
		Energy:      a.Energy,
		PosX:        a.Position.X,
		PosY:        a.Position.Y,
		PosZ:        a.Position.Z,
		VelX:        a.Velocity.X,
		VelY:        a.Velocity.Y,
		VelZ:        a.Velocity.Z,
		AccX:        a.Acceleration.X,
		AccY:        a.Acceleration.Y,
		AccZ:        a.Acceleration.Z,
		SectorID:    uint64(a.SectorID),
		CreatedAtMS: a.CreatedAtMS,
		Generation:  a.Generation,
	}
}

func agentFromWire(w wire.AgentWire) agent.Agent {
	return agent.Agent{
		ID:           w.ID,
		Behavior:     agent.Genome{CID: w.CID, Parameters: w.Parameters},
		Energy:       w.Energy,
		Position:     agent.Vec3{X: w.PosX, Y: w.PosY, Z: w.PosZ},
		Velocity:     agent.Vec3{X: w.VelX, Y: w.VelY, Z: w.VelZ},
		Acceleration: agent.Vec3{X: w.AccX, Y: w.AccY, Z: w.AccZ},
		SectorID:     sector.ID(w.SectorID),
		CreatedAtMS:  w.CreatedAtMS,
		Generation:   w.Generation,
	}
}

// Encode converts a Message to its wire representation, CBOR-encoding the
// embedded agent record as an opaque blob.
func Encode(msg Message) (wire.AgentHandoffWire, error) {
	agentBytes, err := wire.Encode(agentToWire(msg.Agent))
	if err != nil {
		return wire.AgentHandoffWire{}, err
	}
	return wire.AgentHandoffWire{
		Agent:        agentBytes,
		FromSector:   uint64(msg.FromSector),
		ToSector:     uint64(msg.ToSector),
		SourceNode:   msg.SourceNode,
		TimestampSec: msg.TimestampUnix,
	}, nil
}

// Decode converts a wire.AgentHandoffWire back into a Message.
func Decode(w wire.AgentHandoffWire) (Message, error) {
	var aw wire.AgentWire
	if err := wire.Decode(w.Agent, &aw); err != nil {
		return Message{}, err
	}
	return Message{
		Agent:         agentFromWire(aw),
		FromSector:    sector.ID(w.FromSector),
		ToSector:      sector.ID(w.ToSector),
		SourceNode:    w.SourceNode,
		TimestampUnix: w.TimestampSec,
	}, nil
}

// EncodeResponse/DecodeResponse convert Response to/from the wire form.
func EncodeResponse(r Response) wire.HandoffResponse {
	return wire.HandoffResponse{Success: r.Success, Message: r.Message}
}

func DecodeResponse(w wire.HandoffResponse) Response {
	return Response{Success: w.Success, Message: w.Message}
}
