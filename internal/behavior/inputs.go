package behavior

import (
	"math/rand"

	"github.com/tilerealm/engine/internal/component"
	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/nav"
)

// Snapshot is what a behavior step may know about another agent.
type Snapshot struct {
	ID       ecs.EntityID
	Position geom.Vec2
	Factions []string
	Noise    component.NoiseLevel
}

// World resolves agent handles and answers proximity scans. Lookup fails for
// despawned agents.
type World interface {
	Lookup(id ecs.EntityID) (Snapshot, bool)
	Nearby(pos geom.Vec2, radius float64) []Snapshot
}

type Pathfinder interface {
	FindPath(from, to geom.Vec2) (*nav.Path, bool)
}

// Armory lists carried weapons.
type Armory interface {
	WeaponsOfKind(kinds ...component.ItemKind) []component.Item
}

// Sight filters scans by line of sight. Optional.
type Sight interface {
	LineOfSight(a, b geom.Vec2) bool
}

// Params are an agent's standing dispositions.
type Params struct {
	Aggression component.Aggression
	Home       *geom.Vec2
	Stationary bool
	OnGuard    bool
}

// Inputs is everything one behavior step reads.
type Inputs struct {
	Self      ecs.EntityID
	Position  geom.Vec2
	Stats     component.Stats
	Factions  []string
	Params    Params
	Attackers []ecs.EntityID
	Primary   *component.Ability
	Secondary *component.Ability
	Inventory Armory
	World     World
	Paths     Pathfinder
	Sight     Sight
	Rand      *rand.Rand
	TileSize  geom.Vec2
}

// Hostile reports whether s shares no faction with the agent.
func (in *Inputs) Hostile(s Snapshot) bool {
	return !component.SharesFaction(in.Factions, s.Factions)
}

// Visible reports whether p is in line of sight. Without a Sight everything is.
func (in *Inputs) Visible(p geom.Vec2) bool {
	return in.Sight == nil || in.Sight.LineOfSight(in.Position, p)
}
