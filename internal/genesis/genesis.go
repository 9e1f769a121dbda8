// Package genesis loads a genesis manifest describing the initial agent
// population and spawns it into a fresh agent store before the network
// starts, in place of the archival round-trip the original Rust tooling
// performed against Arweave.
package genesis

import (
	"fmt"
	"os"

	"github.com/manifoldweb/node/internal/agent"
	"github.com/manifoldweb/node/internal/errs"
	"github.com/manifoldweb/node/internal/sector"
	"gopkg.in/yaml.v3"
)

// Entry is one agent to spawn at genesis.
type Entry struct {
	ID       string     `yaml:"id"`
	CID      string     `yaml:"cid"`
	Energy   uint64     `yaml:"energy"`
	Position agent.Vec3 `yaml:"position"`
}

// Manifest is the full genesis manifest: a flat list of entries plus the
// sector size the world was authored against.
type Manifest struct {
	SectorSize float32 `yaml:"sector_size"`
	Agents     []Entry `yaml:"agents"`
}

// Load reads and parses a genesis manifest from path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, errs.Wrapf(err, "read genesis manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, errs.Wrapf(err, "parse genesis manifest %s", path)
	}
	return m, nil
}

// Spawn populates store with one agent per manifest entry, assigning each
// its sector id under table's configured sector size. It fails fast on the
// first duplicate identifier, since a genesis manifest is expected to list
// distinct agents.
func Spawn(m Manifest, store *agent.Store, table *sector.OwnershipTable) error {
	for _, e := range m.Agents {
		id := e.ID
		if id == "" {
			id = e.CID
		}
		sectorID := table.Map(e.Position.X, e.Position.Y, e.Position.Z)
		a := agent.Agent{
			ID:       id,
			Behavior: agent.Genome{CID: e.CID},
			Energy:   e.Energy,
			Position: e.Position,
			SectorID: sectorID,
		}
		if err := store.Insert(a); err != nil {
			return fmt.Errorf("genesis entry %s: %w", id, err)
		}
		if table.IsLocal(sectorID) || !hasKnownOwner(table, sectorID) {
			table.ClaimLocal(sectorID)
		}
	}
	return nil
}

func hasKnownOwner(table *sector.OwnershipTable, id sector.ID) bool {
	_, ok := table.Owner(id)
	return ok
}
