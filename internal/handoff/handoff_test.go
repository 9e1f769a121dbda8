package handoff

import (
	"context"
	"strings"
	"testing"

	"github.com/manifoldweb/node/internal/agent"
	"github.com/manifoldweb/node/internal/sector"
)

func TestInboundRejectsNonLocalSector(t *testing.T) {
	table := sector.NewOwnershipTable("node-a", 10)
	store := agent.NewStore()

	msg := Message{
		Agent:    agent.Agent{ID: "agent-1"},
		ToSector: 42,
	}

	resp := Inbound(table, store, msg)
	if resp.Success {
		t.Fatalf("expected rejection for non-local sector")
	}
	if !strings.Contains(resp.Message, "not managed") {
		t.Fatalf("expected message to mention 'not managed', got %q", resp.Message)
	}
	if store.Len() != 0 {
		t.Fatalf("local agent store must be unchanged after rejection")
	}
}

func TestInboundAcceptsLocalSector(t *testing.T) {
	table := sector.NewOwnershipTable("node-a", 10)
	table.ClaimLocal(42)
	store := agent.NewStore()

	msg := Message{
		Agent:    agent.Agent{ID: "agent-1"},
		ToSector: 42,
	}

	resp := Inbound(table, store, msg)
	if !resp.Success {
		t.Fatalf("expected acceptance, got message %q", resp.Message)
	}
	got, ok := store.Get("agent-1")
	if !ok {
		t.Fatalf("expected agent to be inserted into store")
	}
	if got.SectorID != 42 {
		t.Fatalf("expected sector id to be set to 42, got %d", got.SectorID)
	}
}

func TestInboundRejectsDuplicateID(t *testing.T) {
	table := sector.NewOwnershipTable("node-a", 10)
	table.ClaimLocal(1)
	store := agent.NewStore()
	_ = store.Insert(agent.Agent{ID: "agent-1"})

	resp := Inbound(table, store, Message{Agent: agent.Agent{ID: "agent-1"}, ToSector: 1})
	if resp.Success {
		t.Fatalf("expected rejection of duplicate id arrival")
	}
}

func TestDispatchBroadcastsWhenOwnerUnknown(t *testing.T) {
	table := sector.NewOwnershipTable("node-a", 10)
	sender := &fakeSender{}

	_, err := Dispatch(context.Background(), sender, table, Message{ToSector: 99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sender.broadcast {
		t.Fatalf("expected broadcast when destination owner is unknown")
	}
}

func TestDispatchSendsToKnownOwner(t *testing.T) {
	table := sector.NewOwnershipTable("node-a", 10)
	table.SetOwner(7, "node-b")
	sender := &fakeSender{}

	_, err := Dispatch(context.Background(), sender, table, Message{ToSector: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.sentTo != "node-b" {
		t.Fatalf("expected send to node-b, got %q", sender.sentTo)
	}
}

func TestMessageWireRoundTrip(t *testing.T) {
	msg := Message{
		Agent: agent.Agent{
			ID:       "agent-1",
			Energy:   50,
			Behavior: agent.Genome{CID: "Qm...", Parameters: []byte{1, 2, 3}},
		},
		FromSector:    1,
		ToSector:      2,
		SourceNode:    "node-a",
		TimestampUnix: 1000,
	}

	w, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(w)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Agent.ID != msg.Agent.ID || got.Agent.Energy != msg.Agent.Energy {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, msg)
	}
	if got.ToSector != msg.ToSector || got.SourceNode != msg.SourceNode {
		t.Fatalf("round trip metadata mismatch: got %+v want %+v", got, msg)
	}
}

type fakeSender struct {
	sentTo    string
	broadcast bool
}

func (f *fakeSender) SendTo(_ context.Context, nodeID string, _ Message) (Response, error) {
	f.sentTo = nodeID
	return Response{Success: true}, nil
}

func (f *fakeSender) Broadcast(_ context.Context, _ Message) (Response, error) {
	f.broadcast = true
	return Response{Success: true}, nil
}
