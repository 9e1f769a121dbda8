// Package wire defines the four on-the-wire message families and their
// CBOR codec. Field names are spelled out via `cbor` struct tags so the
// over-the-wire keys never depend on Go identifier names.
package wire

// SpawnRequest asks a node to create a new agent from a content address.
type SpawnRequest struct {
	CID           string `cbor:"cid"`
	InitialEnergy uint64 `cbor:"initial_energy"`
}

// SpawnResponse answers a SpawnRequest.
type SpawnResponse struct {
	Success bool    `cbor:"success"`
	AgentID *string `cbor:"agent_id"`
	Message string  `cbor:"message"`
}

// StateProposal is sent by the round leader to every known peer.
type StateProposal struct {
	RoundID   uint64   `cbor:"round_id"`
	Tick      uint64   `cbor:"tick"`
	StateHash [32]byte `cbor:"state_hash"`
	Leader    string   `cbor:"leader"`
	Timestamp int64    `cbor:"timestamp"`
}

// StateVote is a peer's reply to a StateProposal.
type StateVote struct {
	RoundID   uint64   `cbor:"round_id"`
	VoterID   string   `cbor:"voter_id"`
	Agree     bool     `cbor:"agree"`
	VoterHash [32]byte `cbor:"voter_hash"`
}

// StateCommit is broadcast on the pubsub topic after an Achieved round.
type StateCommit struct {
	RoundID   uint64   `cbor:"round_id"`
	Tick      uint64   `cbor:"tick"`
	StateHash [32]byte `cbor:"state_hash"`
	VoteCount int      `cbor:"vote_count"`
}

// AgentHandoffWire is the on-wire form of a handoff.Message (internal/wire
// cannot import internal/handoff without a cycle, so the agent payload is
// carried as an opaque CBOR-encoded blob produced by internal/handoff).
type AgentHandoffWire struct {
	Agent        []byte `cbor:"agent"`
	FromSector   uint64 `cbor:"from_sector"`
	ToSector     uint64 `cbor:"to_sector"`
	SourceNode   string `cbor:"source_node"`
	TimestampSec int64  `cbor:"timestamp"`
}

// HandoffResponse answers an AgentHandoffWire.
type HandoffResponse struct {
	Success bool   `cbor:"success"`
	Message string `cbor:"message"`
}

// AgentWire is the on-wire encoding of an agent record, used as the
// payload inside AgentHandoffWire. The state fingerprint does not use it;
// internal/statehash reads the agent fields directly.
type AgentWire struct {
	ID           string  `cbor:"id"`
	CID          string  `cbor:"cid"`
	Parameters   []byte  `cbor:"parameters"`
	Energy       uint64  `cbor:"energy"`
	PosX         float32 `cbor:"pos_x"`
	PosY         float32 `cbor:"pos_y"`
	PosZ         float32 `cbor:"pos_z"`
	VelX         float32 `cbor:"vel_x"`
	VelY         float32 `cbor:"vel_y"`
	VelZ         float32 `cbor:"vel_z"`
	AccX         float32 `cbor:"acc_x"`
	AccY         float32 `cbor:"acc_y"`
	AccZ         float32 `cbor:"acc_z"`
	SectorID     uint64  `cbor:"sector_id"`
	CreatedAtMS  int64   `cbor:"created_at"`
	Generation   uint32  `cbor:"generation"`
}
