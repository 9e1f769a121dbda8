package tick

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/manifoldweb/node/internal/agent"
	"github.com/manifoldweb/node/internal/sector"
)

func newTestEngine(t *testing.T, sandbox Sandbox) (*Engine, *agent.Store, *sector.OwnershipTable) {
	t.Helper()
	store := agent.NewStore()
	table := sector.NewOwnershipTable("node-a", 16.0)
	cfg := DefaultConfig()
	cfg.TickPeriod = time.Second
	eng := NewEngine(store, table, sandbox, cfg, nil, rand.New(rand.NewSource(7)))
	return eng, store, table
}

func noopSandbox(agent.Agent, Env) ([]Action, error) { return nil, nil }

func TestTickIntegratesKinematics(t *testing.T) {
	eng, store, table := newTestEngine(t, noopSandbox)
	table.ClaimLocal(table.Map(0, 0, 0))

	store.Insert(agent.Agent{
		ID:       "a1",
		Energy:   100,
		Position: agent.Vec3{X: 0, Y: 0, Z: 0},
		Velocity: agent.Vec3{X: 1, Y: 0, Z: 0},
		SectorID: table.Map(0, 0, 0),
	})

	eng.Tick()

	got, ok := store.Get("a1")
	if !ok {
		t.Fatalf("agent must still exist after tick")
	}
	if got.Position.X != 1 {
		t.Fatalf("expected position.x = 1 after one second at velocity 1, got %v", got.Position.X)
	}
}

func TestTickDebitsActionCostAndAppliesConsume(t *testing.T) {
	sandbox := func(a agent.Agent, env Env) ([]Action, error) {
		return []Action{{Kind: ActionConsume, ResourceEnergy: 20}}, nil
	}
	eng, store, table := newTestEngine(t, sandbox)
	table.ClaimLocal(table.Map(0, 0, 0))
	store.Insert(agent.Agent{ID: "a1", Energy: 100, SectorID: table.Map(0, 0, 0)})

	eng.Tick()

	got, _ := store.Get("a1")
	// cost 0 for consume plus +20 credited.
	if got.Energy != 120 {
		t.Fatalf("expected energy 120, got %d", got.Energy)
	}
}

func TestTickRemovesAgentAtZeroEnergy(t *testing.T) {
	sandbox := func(a agent.Agent, env Env) ([]Action, error) {
		return []Action{{Kind: ActionBroadcast}}, nil
	}
	eng, store, table := newTestEngine(t, sandbox)
	table.ClaimLocal(table.Map(0, 0, 0))
	cost := eng.cfg.cost(ActionBroadcast)
	store.Insert(agent.Agent{ID: "a1", Energy: cost, SectorID: table.Map(0, 0, 0)})

	eng.Tick()

	if _, ok := store.Get("a1"); ok {
		t.Fatalf("agent with zero remaining energy must be removed")
	}
}

func TestTickSandboxFailureAppliesPenaltyNotRemoval(t *testing.T) {
	sandbox := func(a agent.Agent, env Env) ([]Action, error) {
		return nil, errors.New("boom")
	}
	eng, store, table := newTestEngine(t, sandbox)
	table.ClaimLocal(table.Map(0, 0, 0))
	store.Insert(agent.Agent{ID: "a1", Energy: 100, SectorID: table.Map(0, 0, 0)})

	eng.Tick()

	got, ok := store.Get("a1")
	if !ok {
		t.Fatalf("agent must survive a sandbox failure above the penalty amount")
	}
	if got.Energy != 100-eng.cfg.SandboxFailurePenalty {
		t.Fatalf("expected energy reduced by penalty, got %d", got.Energy)
	}
}

func TestTickProducesOutboundHandoffOnSectorCrossing(t *testing.T) {
	eng, store, table := newTestEngine(t, noopSandbox)
	localSector := table.Map(0, 0, 0)
	table.ClaimLocal(localSector)
	table.SetOwner(table.Map(100, 0, 0), "node-b")

	store.Insert(agent.Agent{
		ID:       "a1",
		Energy:   100,
		Position: agent.Vec3{X: 0, Y: 0, Z: 0},
		Velocity: agent.Vec3{X: 1000, Y: 0, Z: 0}, // guarantees a crossing within one tick
		SectorID: localSector,
	})

	result := eng.Tick()

	if _, ok := store.Get("a1"); ok {
		t.Fatalf("agent that crossed into a remote sector must leave the local store")
	}
	if len(result.Outbound) != 1 {
		t.Fatalf("expected exactly one outbound handoff, got %d", len(result.Outbound))
	}
	if result.Outbound[0].SourceNode != "node-a" {
		t.Fatalf("expected source node node-a, got %s", result.Outbound[0].SourceNode)
	}
}

func TestTickReplicationRespectsThreshold(t *testing.T) {
	sandbox := func(a agent.Agent, env Env) ([]Action, error) {
		return []Action{{Kind: ActionReplicate}}, nil
	}
	eng, store, table := newTestEngine(t, sandbox)
	table.ClaimLocal(table.Map(0, 0, 0))
	cfg := eng.cfg
	store.Insert(agent.Agent{
		ID:       "poor",
		Energy:   cfg.ReplicationThreshold - 1,
		Behavior: agent.Genome{CID: "cid", Parameters: []byte{1, 2, 3}},
		SectorID: table.Map(0, 0, 0),
	})

	eng.Tick()

	if store.Len() != 1 {
		t.Fatalf("expected no offspring below the replication threshold, store len = %d", store.Len())
	}
}

func TestTickReplicationProducesOffspringAboveThreshold(t *testing.T) {
	sandbox := func(a agent.Agent, env Env) ([]Action, error) {
		return []Action{{Kind: ActionReplicate}}, nil
	}
	eng, store, table := newTestEngine(t, sandbox)
	table.ClaimLocal(table.Map(0, 0, 0))
	store.Insert(agent.Agent{
		ID:       "rich",
		Energy:   1000,
		Behavior: agent.Genome{CID: "cid", Parameters: []byte{1, 2, 3}},
		SectorID: table.Map(0, 0, 0),
	})

	eng.Tick()

	if store.Len() != 2 {
		t.Fatalf("expected one offspring inserted alongside the parent, store len = %d", store.Len())
	}
}

func TestTickReplicationAsexualOffspringEnergyIsThresholdMinusTax(t *testing.T) {
	sandbox := func(a agent.Agent, env Env) ([]Action, error) {
		return []Action{{Kind: ActionReplicate}}, nil
	}
	eng, store, table := newTestEngine(t, sandbox)
	table.ClaimLocal(table.Map(0, 0, 0))
	cfg := eng.cfg
	store.Insert(agent.Agent{
		ID:       "rich",
		Energy:   1000,
		Behavior: agent.Genome{CID: "cid", Parameters: []byte{1, 2, 3}},
		SectorID: table.Map(0, 0, 0),
	})

	eng.Tick()

	parent, ok := store.Get("rich")
	if !ok {
		t.Fatalf("parent must still exist")
	}
	wantParentEnergy := uint64(1000) - cfg.cost(ActionReplicate) - cfg.ReplicationThreshold
	if parent.Energy != wantParentEnergy {
		t.Fatalf("expected parent energy %d, got %d", wantParentEnergy, parent.Energy)
	}

	var child agent.Agent
	store.IterSorted(func(a agent.Agent) bool {
		if a.ID != "rich" {
			child = a
		}
		return true
	})
	wantChildEnergy := cfg.ReplicationThreshold - cfg.ReplicationTax
	if child.Energy != wantChildEnergy {
		t.Fatalf("expected offspring energy %d, got %d", wantChildEnergy, child.Energy)
	}
}

func TestTickReplicationSexualDebitsBothParentsAndSumsOffspringEnergy(t *testing.T) {
	sandbox := func(a agent.Agent, env Env) ([]Action, error) {
		if a.ID != "rich" {
			return nil, nil
		}
		return []Action{{Kind: ActionReplicate, PartnerID: "partner"}}, nil
	}
	eng, store, table := newTestEngine(t, sandbox)
	table.ClaimLocal(table.Map(0, 0, 0))
	cfg := eng.cfg
	store.Insert(agent.Agent{
		ID:       "rich",
		Energy:   1000,
		Behavior: agent.Genome{CID: "cid-a", Parameters: []byte{1, 2, 3}},
		SectorID: table.Map(0, 0, 0),
	})
	store.Insert(agent.Agent{
		ID:       "partner",
		Energy:   1000,
		Behavior: agent.Genome{CID: "cid-b", Parameters: []byte{4, 5, 6}},
		SectorID: table.Map(0, 0, 0),
	})

	eng.Tick()

	partner, ok := store.Get("partner")
	if !ok {
		t.Fatalf("partner must still exist")
	}
	if partner.Energy != 1000-cfg.ReplicationThreshold {
		t.Fatalf("expected partner debited by the replication threshold, got %d", partner.Energy)
	}

	var child agent.Agent
	store.IterSorted(func(a agent.Agent) bool {
		if a.ID != "rich" && a.ID != "partner" {
			child = a
		}
		return true
	})
	wantChildEnergy := 2*cfg.ReplicationThreshold - cfg.ReplicationTax
	if child.Energy != wantChildEnergy {
		t.Fatalf("expected offspring energy %d (sum of both parents' loss minus tax), got %d", wantChildEnergy, child.Energy)
	}
}

func TestTickCountIncrementsAndHashIsDeterministic(t *testing.T) {
	eng1, store1, table1 := newTestEngine(t, noopSandbox)
	table1.ClaimLocal(table1.Map(0, 0, 0))
	store1.Insert(agent.Agent{ID: "a1", Energy: 10, SectorID: table1.Map(0, 0, 0)})

	eng2, store2, table2 := newTestEngine(t, noopSandbox)
	table2.ClaimLocal(table2.Map(0, 0, 0))
	store2.Insert(agent.Agent{ID: "a1", Energy: 10, SectorID: table2.Map(0, 0, 0)})

	r1 := eng1.Tick()
	r2 := eng2.Tick()

	if r1.Hash != r2.Hash {
		t.Fatalf("identical initial state must hash identically across engines")
	}
	if eng1.TickCount() != 1 || eng2.TickCount() != 1 {
		t.Fatalf("tick count must increment exactly once per Tick call")
	}
}
