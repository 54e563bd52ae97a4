// Package world is the live agent table: generational handles over the ECS
// stores, an AOI index for proximity scans, and the read-only level map.
package world

import (
	"iter"

	"github.com/tilerealm/engine/internal/behavior"
	"github.com/tilerealm/engine/internal/component"
	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/gridmap"
	"github.com/tilerealm/engine/internal/physics"
)

// aoiTiles is the AOI cell edge in tiles.
const aoiTiles = 8

// Spawn describes an agent entering the world.
type Spawn struct {
	Agent     component.Agent
	Position  geom.Vec2
	Collider  physics.Collider // local space
	Stats     component.Stats
	Inventory component.Inventory
	Combat    component.Combat
	Brain     *behavior.Brain // nil for player-controlled agents
}

// AgentState is the persisted view of one agent.
type AgentState struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Template string  `json:"template,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Mode     string  `json:"mode,omitempty"`
	Health   float64 `json:"health"`
}

// State tracks every agent in the level.
// Single-goroutine access only (tick loop).
type State struct {
	Map *gridmap.GridMap

	ecs         *ecs.World
	Agents      *ecs.PtrComponentStore[component.Agent]
	Bodies      *ecs.PtrComponentStore[component.Body]
	Stats       *ecs.PtrComponentStore[component.Stats]
	Combat      *ecs.PtrComponentStore[component.Combat]
	Inventories *ecs.PtrComponentStore[component.Inventory]
	Noise       *ecs.PtrComponentStore[component.Noise]
	Brains      *ecs.PtrComponentStore[behavior.Brain]

	aoi *AOIGrid

	// reusable AOI query buffer
	aoiBuf []ecs.EntityID
}

func NewState(m *gridmap.GridMap) *State {
	s := &State{
		Map:         m,
		ecs:         ecs.NewWorld(),
		Agents:      ecs.NewPtrComponentStore[component.Agent](),
		Bodies:      ecs.NewPtrComponentStore[component.Body](),
		Stats:       ecs.NewPtrComponentStore[component.Stats](),
		Combat:      ecs.NewPtrComponentStore[component.Combat](),
		Inventories: ecs.NewPtrComponentStore[component.Inventory](),
		Noise:       ecs.NewPtrComponentStore[component.Noise](),
		Brains:      ecs.NewPtrComponentStore[behavior.Brain](),
		aoi:         NewAOIGrid(m.TileSize.X * aoiTiles),
	}
	reg := s.ecs.Registry()
	reg.Register(s.Agents)
	reg.Register(s.Bodies)
	reg.Register(s.Stats)
	reg.Register(s.Combat)
	reg.Register(s.Inventories)
	reg.Register(s.Noise)
	reg.Register(s.Brains)
	s.ecs.OnDestroy(func(id ecs.EntityID) {
		if b, ok := s.Bodies.Get(id); ok {
			s.aoi.Remove(id, b.Position)
		}
	})
	return s
}

// ECS exposes the underlying entity world for the cleanup system.
func (s *State) ECS() *ecs.World { return s.ecs }

// Spawn creates an agent and returns its handle.
func (s *State) Spawn(sp Spawn) ecs.EntityID {
	id := s.ecs.CreateEntity()
	agent := sp.Agent
	stats := sp.Stats
	inv := sp.Inventory
	combat := sp.Combat
	if combat.Cooldowns == nil {
		combat.Cooldowns = make(map[string]int)
	}
	s.Agents.Set(id, &agent)
	s.Bodies.Set(id, &component.Body{Position: sp.Position, Collider: sp.Collider})
	s.Stats.Set(id, &stats)
	s.Combat.Set(id, &combat)
	s.Inventories.Set(id, &inv)
	s.Noise.Set(id, &component.Noise{})
	if sp.Brain != nil && !agent.Player {
		s.Brains.Set(id, sp.Brain)
	}
	s.aoi.Add(id, sp.Position)
	return id
}

// Despawn queues an agent for removal at the end of the tick. Its handle
// keeps resolving until then.
func (s *State) Despawn(id ecs.EntityID) {
	if s.ecs.Alive(id) {
		s.ecs.MarkForDestruction(id)
	}
}

// Alive reports whether the handle still names a live agent.
func (s *State) Alive(id ecs.EntityID) bool { return s.ecs.Alive(id) }

// Count returns the number of live agents.
func (s *State) Count() int { return s.Agents.Len() }

// MoveTo sets an agent's position and keeps the AOI index in step.
func (s *State) MoveTo(id ecs.EntityID, p geom.Vec2) {
	b, ok := s.Bodies.Get(id)
	if !ok {
		return
	}
	s.aoi.Move(id, b.Position, p)
	b.Position = p
}

// Lookup implements behavior.World.
func (s *State) Lookup(id ecs.EntityID) (behavior.Snapshot, bool) {
	if !s.ecs.Alive(id) {
		return behavior.Snapshot{}, false
	}
	return s.snapshot(id)
}

func (s *State) snapshot(id ecs.EntityID) (behavior.Snapshot, bool) {
	a, ok := s.Agents.Get(id)
	if !ok {
		return behavior.Snapshot{}, false
	}
	b, ok := s.Bodies.Get(id)
	if !ok {
		return behavior.Snapshot{}, false
	}
	snap := behavior.Snapshot{ID: id, Position: b.Position, Factions: a.Factions}
	if n, ok := s.Noise.Get(id); ok {
		snap.Noise = n.Level
	}
	return snap, true
}

// Nearby implements behavior.World. Results are in AOI cell order, then
// insertion order within a cell.
func (s *State) Nearby(pos geom.Vec2, radius float64) []behavior.Snapshot {
	s.aoiBuf = s.aoi.NearbyInto(pos, radius, s.aoiBuf)
	out := make([]behavior.Snapshot, 0, len(s.aoiBuf))
	for _, id := range s.aoiBuf {
		snap, ok := s.snapshot(id)
		if !ok || pos.Dist(snap.Position) > radius {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// Colliders yields every agent collider in world space. It implements
// physics.Bodies.
func (s *State) Colliders() iter.Seq2[ecs.EntityID, physics.Collider] {
	return func(yield func(ecs.EntityID, physics.Collider) bool) {
		for _, id := range s.Bodies.IDs() {
			b, _ := s.Bodies.Get(id)
			if !yield(id, b.WorldCollider()) {
				return
			}
		}
	}
}

// Blocking returns the first agent other than self whose collider overlaps c.
func (s *State) Blocking(self ecs.EntityID, c physics.Collider) (ecs.EntityID, bool) {
	bounds := c.Bounds()
	radius := bounds.Center().Dist(bounds.Max()) + s.Map.TileSize.X
	s.aoiBuf = s.aoi.NearbyInto(bounds.Center(), radius, s.aoiBuf)
	for _, id := range s.aoiBuf {
		if id == self {
			continue
		}
		b, ok := s.Bodies.Get(id)
		if ok && physics.Overlaps(c, b.WorldCollider()) {
			return id, true
		}
	}
	return 0, false
}

// States returns the persisted view of every agent in dense store order.
func (s *State) States() []AgentState {
	out := make([]AgentState, 0, s.Agents.Len())
	s.Agents.Each(func(id ecs.EntityID, a *component.Agent) {
		st := AgentState{ID: uint64(id), Name: a.Name, Template: a.TemplateID}
		if b, ok := s.Bodies.Get(id); ok {
			st.X, st.Y = b.Position.X, b.Position.Y
		}
		if br, ok := s.Brains.Get(id); ok {
			st.Mode = br.Mode.Kind.String()
		}
		if stats, ok := s.Stats.Get(id); ok {
			st.Health = stats.Health
		}
		out = append(out, st)
	})
	return out
}
