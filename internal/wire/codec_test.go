package wire

import (
	"bytes"
	"reflect"
	"testing"
)

func TestRoundTripStateProposal(t *testing.T) {
	want := StateProposal{
		RoundID:   1,
		Tick:      100,
		StateHash: [32]byte{1, 2, 3},
		Leader:    "P-a",
		Timestamp: 12345,
	}
	var got StateProposal
	roundTrip(t, &want, &got)
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch: want %+v got %+v", want, got)
	}
}

func TestRoundTripStateVote(t *testing.T) {
	want := StateVote{RoundID: 2, VoterID: "P-b", Agree: true, VoterHash: [32]byte{9}}
	var got StateVote
	roundTrip(t, &want, &got)
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch: want %+v got %+v", want, got)
	}
}

func TestRoundTripStateCommit(t *testing.T) {
	want := StateCommit{RoundID: 3, Tick: 7, StateHash: [32]byte{4, 5}, VoteCount: 4}
	var got StateCommit
	roundTrip(t, &want, &got)
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch: want %+v got %+v", want, got)
	}
}

func TestRoundTripHandoff(t *testing.T) {
	want := AgentHandoffWire{
		Agent:        []byte{0xAA, 0xBB},
		FromSector:   1,
		ToSector:     2,
		SourceNode:   "node-a",
		TimestampSec: 999,
	}
	var got AgentHandoffWire
	roundTrip(t, &want, &got)
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch: want %+v got %+v", want, got)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	want := SpawnRequest{CID: "Qm...", InitialEnergy: 100}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, want); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	var got SpawnRequest
	if err := ReadFrame(&buf, &got); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got != want {
		t.Fatalf("frame round trip mismatch: want %+v got %+v", want, got)
	}
}

func TestFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	var got SpawnRequest
	if err := ReadFrame(&buf, &got); err == nil {
		t.Fatalf("expected oversized frame length to be rejected")
	}
}

func roundTrip(t *testing.T, want, got any) {
	t.Helper()
	data, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := Decode(data, got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}
