package world

import (
	"testing"

	"github.com/tilerealm/engine/internal/behavior"
	"github.com/tilerealm/engine/internal/component"
	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/gridmap"
	"github.com/tilerealm/engine/internal/physics"
)

func newState() *State {
	return NewState(gridmap.New(geom.Size{W: 64, H: 64}, geom.V(16, 16), geom.Vec2{}))
}

func spawnAt(s *State, name string, p geom.Vec2, factions ...string) ecs.EntityID {
	return s.Spawn(Spawn{
		Agent:    component.Agent{Name: name, Factions: factions},
		Position: p,
		Collider: physics.CircleCollider(0, 0, 6),
		Brain:    &behavior.Brain{SetID: behavior.DefaultHumanoidID},
	})
}

func TestLookupAndDespawn(t *testing.T) {
	s := newState()
	a := spawnAt(s, "a", geom.V(10, 10), "town")
	snap, ok := s.Lookup(a)
	if !ok || snap.Position != geom.V(10, 10) || snap.Factions[0] != "town" {
		t.Fatalf("lookup = %+v %v", snap, ok)
	}

	s.Despawn(a)
	if _, ok := s.Lookup(a); !ok {
		t.Fatalf("queued agent should resolve until the flush")
	}
	s.ECS().FlushDestroyQueue()
	if _, ok := s.Lookup(a); ok {
		t.Fatalf("despawned handle still resolves")
	}
	if s.aoi.Len() != 0 || s.Count() != 0 {
		t.Fatalf("despawn left state behind: aoi=%d count=%d", s.aoi.Len(), s.Count())
	}

	// a reused slot must not revive the stale handle
	b := spawnAt(s, "b", geom.V(10, 10))
	if b.Index() != a.Index() {
		t.Fatalf("expected slot reuse")
	}
	if _, ok := s.Lookup(a); ok {
		t.Fatalf("stale handle resolved to the new occupant")
	}
}

func TestNearbyFiltersByRadius(t *testing.T) {
	s := newState()
	a := spawnAt(s, "a", geom.V(100, 100))
	b := spawnAt(s, "b", geom.V(150, 100))
	spawnAt(s, "c", geom.V(400, 400))

	got := s.Nearby(geom.V(100, 100), 60)
	if len(got) != 2 || got[0].ID != a || got[1].ID != b {
		t.Fatalf("nearby = %+v", got)
	}
	if got := s.Nearby(geom.V(100, 100), 49); len(got) != 1 {
		t.Fatalf("radius 49 should only find self, got %+v", got)
	}
}

func TestMoveToUpdatesIndex(t *testing.T) {
	s := newState()
	a := spawnAt(s, "a", geom.V(10, 10))
	s.MoveTo(a, geom.V(900, 900))
	if got := s.Nearby(geom.V(10, 10), 50); len(got) != 0 {
		t.Fatalf("moved agent still indexed at its old cell")
	}
	if got := s.Nearby(geom.V(900, 900), 1); len(got) != 1 || got[0].ID != a {
		t.Fatalf("moved agent not found at its new cell: %+v", got)
	}
}

func TestBlockingAndColliders(t *testing.T) {
	s := newState()
	a := spawnAt(s, "a", geom.V(100, 100))
	b := spawnAt(s, "b", geom.V(110, 100))

	body, _ := s.Bodies.Get(a)
	if id, ok := s.Blocking(a, body.WorldCollider()); !ok || id != b {
		t.Fatalf("expected b to block a, got %v %v", id, ok)
	}
	if _, ok := s.Blocking(a, physics.CircleCollider(300, 300, 6)); ok {
		t.Fatalf("empty area reported blocked")
	}

	n := 0
	for range s.Colliders() {
		n++
	}
	if n != 2 {
		t.Fatalf("colliders yielded %d bodies", n)
	}
}

func TestStatesAndPlayers(t *testing.T) {
	s := newState()
	s.Spawn(Spawn{
		Agent:    component.Agent{Name: "hero", Player: true},
		Position: geom.V(5, 6),
		Brain:    &behavior.Brain{},
		Stats:    component.Stats{Health: 42},
	})
	spawnAt(s, "npc", geom.V(1, 2))

	if s.Brains.Len() != 1 {
		t.Fatalf("players must not get a brain")
	}
	states := s.States()
	if len(states) != 2 || states[0].Name != "hero" || states[0].X != 5 || states[0].Health != 42 {
		t.Fatalf("states = %+v", states)
	}
	if states[0].Mode != "" || states[1].Mode != "idle" {
		t.Fatalf("modes = %q %q", states[0].Mode, states[1].Mode)
	}
}

func TestAOINegativeCoordinates(t *testing.T) {
	g := NewAOIGrid(10)
	id := ecs.NewEntityID(0, 1)
	g.Add(id, geom.V(-1, -1))
	if got := g.NearbyInto(geom.V(-5, -5), 1, nil); len(got) != 1 {
		t.Fatalf("negative cell lookup failed: %v", got)
	}
	g.Remove(id, geom.V(-1, -1))
	if g.Len() != 0 {
		t.Fatalf("remove failed")
	}
}
