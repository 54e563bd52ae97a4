package behavior

import (
	"math"
	"math/rand"
	"testing"

	"github.com/tilerealm/engine/internal/component"
	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/gridmap"
	"github.com/tilerealm/engine/internal/nav"
)

type fakeWorld struct {
	order []ecs.EntityID
	byID  map[ecs.EntityID]Snapshot
}

func newFakeWorld(snaps ...Snapshot) *fakeWorld {
	w := &fakeWorld{byID: make(map[ecs.EntityID]Snapshot)}
	for _, s := range snaps {
		w.put(s)
	}
	return w
}

func (w *fakeWorld) put(s Snapshot) {
	if _, ok := w.byID[s.ID]; !ok {
		w.order = append(w.order, s.ID)
	}
	w.byID[s.ID] = s
}

func (w *fakeWorld) remove(id ecs.EntityID) { delete(w.byID, id) }

func (w *fakeWorld) Lookup(id ecs.EntityID) (Snapshot, bool) {
	s, ok := w.byID[id]
	return s, ok
}

func (w *fakeWorld) Nearby(pos geom.Vec2, radius float64) []Snapshot {
	var out []Snapshot
	for _, id := range w.order {
		if s, ok := w.byID[id]; ok && pos.Dist(s.Position) <= radius {
			out = append(out, s)
		}
	}
	return out
}

// noPaths fails every request and counts them.
type noPaths struct{ calls int }

func (p *noPaths) FindPath(from, to geom.Vec2) (*nav.Path, bool) {
	p.calls++
	return nil, false
}

// straightPaths returns a two-node path ending at the goal.
type straightPaths struct{ calls int }

func (p *straightPaths) FindPath(from, to geom.Vec2) (*nav.Path, bool) {
	p.calls++
	mid := from.Add(to).Half()
	return &nav.Path{Destination: to, Nodes: []geom.Vec2{mid, to}}, true
}

var (
	idA = ecs.NewEntityID(0, 1)
	idB = ecs.NewEntityID(1, 1)
	idC = ecs.NewEntityID(2, 1)
)

func baseInputs(w World, pos geom.Vec2, view float64) *Inputs {
	return &Inputs{
		Self:     idA,
		Position: pos,
		Stats:    component.Stats{ViewDistance: view},
		World:    w,
		Paths:    &noPaths{},
		Rand:     rand.New(rand.NewSource(1)),
		TileSize: geom.V(16, 16),
	}
}

func TestIdleToFlee(t *testing.T) {
	a := Snapshot{ID: idA, Position: geom.V(0, 0), Factions: []string{"wolves"}}
	b := Snapshot{ID: idB, Position: geom.V(50, 0), Factions: []string{"town"}}
	in := baseInputs(newFakeWorld(a, b), a.Position, 100)
	in.Factions = a.Factions
	in.Params.Aggression = component.Passive

	var ctrl Controller
	next := Step(IdleMode(), in, &ctrl)
	if next.Kind != Flee || next.Target != idB {
		t.Fatalf("expected Flee(B), got %v", next)
	}
	if ctrl.MoveDirection.Dot(b.Position.Sub(a.Position)) >= 0 {
		t.Fatalf("move direction %v does not point away from B", ctrl.MoveDirection)
	}
	if !ctrl.MoveDirection.Eq(geom.V(-1, 0), 1e-9) || !ctrl.ShouldSprint {
		t.Fatalf("controller = %+v", ctrl)
	}
}

func TestPassiveIgnoresOwnFaction(t *testing.T) {
	a := Snapshot{ID: idA, Position: geom.V(0, 0), Factions: []string{"wolves"}}
	b := Snapshot{ID: idB, Position: geom.V(20, 0), Factions: []string{"wild", "wolves"}}
	in := baseInputs(newFakeWorld(a, b), a.Position, 100)
	in.Factions = a.Factions
	in.Params.Aggression = component.Passive

	var ctrl Controller
	if next := Step(IdleMode(), in, &ctrl); next.Kind != Idle {
		t.Fatalf("passive agent fled from a faction mate: %v", next)
	}
}

func TestEquipWeaponScenario(t *testing.T) {
	target := Snapshot{ID: idB, Position: geom.V(30, 0)}
	in := baseInputs(newFakeWorld(target), geom.V(0, 0), 100)
	in.Inventory = &component.Inventory{Items: []component.Item{
		{ID: "bread", Kind: component.ItemConsumable},
		{ID: "greataxe", Kind: component.ItemTwoHandedWeapon},
	}}

	var ctrl Controller
	mode := Step(AttackMode(idB), in, &ctrl)
	if mode.Kind != EquipWeapon {
		t.Fatalf("unarmed attacker should switch to EquipWeapon, got %v", mode)
	}
	if ctrl.EquipWeapon != "" {
		t.Fatalf("equip requested a tick early")
	}

	ctrl.Reset()
	mode = Step(mode, in, &ctrl)
	if ctrl.EquipWeapon != "greataxe" {
		t.Fatalf("equip intent = %q", ctrl.EquipWeapon)
	}
	if mode.Kind != Idle {
		t.Fatalf("expected Idle after equipping, got %v", mode)
	}
}

func TestEquipWeaponWithoutWeapons(t *testing.T) {
	in := baseInputs(newFakeWorld(), geom.V(0, 0), 100)
	in.Inventory = &component.Inventory{}
	var ctrl Controller
	if mode := Step(EquipWeaponMode(), in, &ctrl); mode.Kind != Idle || ctrl.EquipWeapon != "" {
		t.Fatalf("mode=%v equip=%q", mode, ctrl.EquipWeapon)
	}
}

func TestAttackHysteresis(t *testing.T) {
	w := newFakeWorld(Snapshot{ID: idB, Position: geom.V(90, 0)})
	in := baseInputs(w, geom.V(0, 0), 500)
	in.Primary = &component.Ability{ID: "bite", Range: 100}
	paths := &straightPaths{}
	in.Paths = paths

	mode := AttackMode(idB)
	positions := []float64{90, 90.1, 90, 90, 90.1}
	wantPrimary := []bool{true, false, true, true, false}
	for i, x := range positions {
		w.put(Snapshot{ID: idB, Position: geom.V(x, 0)})
		var ctrl Controller
		mode = Step(mode, in, &ctrl)
		if mode.Kind != Attack || mode.Target != idB {
			t.Fatalf("step %d: left attack posture: %v", i, mode)
		}
		if ctrl.ShouldUsePrimary != wantPrimary[i] {
			t.Fatalf("step %d (x=%v): primary=%v, want %v", i, x, ctrl.ShouldUsePrimary, wantPrimary[i])
		}
		if wantPrimary[i] && mode.Path != nil {
			t.Fatalf("step %d: path kept while in range", i)
		}
		if !ctrl.AimDirection.Eq(geom.V(1, 0), 1e-9) || !ctrl.ShouldSprint {
			t.Fatalf("step %d: controller %+v", i, ctrl)
		}
	}
	if paths.calls == 0 {
		t.Fatalf("out-of-range steps should path toward the target")
	}
}

func TestAttackSecondaryAndTargetLoss(t *testing.T) {
	w := newFakeWorld(Snapshot{ID: idB, Position: geom.V(40, 0)})
	in := baseInputs(w, geom.V(0, 0), 500)
	in.Primary = &component.Ability{ID: "sword", Range: 20}
	in.Secondary = &component.Ability{ID: "bow", Range: 200}
	in.Paths = &straightPaths{}

	var ctrl Controller
	mode := Step(AttackMode(idB), in, &ctrl)
	if ctrl.ShouldUsePrimary || !ctrl.ShouldUseSecondary {
		t.Fatalf("expected secondary only, got %+v", ctrl)
	}
	if mode.Path == nil || ctrl.MoveDirection.IsZero() {
		t.Fatalf("expected to path toward the target")
	}

	w.remove(idB)
	ctrl.Reset()
	if mode = Step(mode, in, &ctrl); mode.Kind != Idle {
		t.Fatalf("lost target should idle, got %v", mode)
	}
}

func TestAttackKeepsRetryingFailedPaths(t *testing.T) {
	w := newFakeWorld(Snapshot{ID: idB, Position: geom.V(200, 0)})
	in := baseInputs(w, geom.V(0, 0), 500)
	in.Primary = &component.Ability{ID: "bite", Range: 10}
	paths := &noPaths{}
	in.Paths = paths

	mode := AttackMode(idB)
	for i := 0; i < 3; i++ {
		var ctrl Controller
		mode = Step(mode, in, &ctrl)
		if mode.Kind != Attack {
			t.Fatalf("attack gave up after a failed path: %v", mode)
		}
	}
	if paths.calls != 3 {
		t.Fatalf("expected one request per tick, got %d", paths.calls)
	}
}

func TestAggressivePicksNearestHostile(t *testing.T) {
	w := newFakeWorld(
		Snapshot{ID: idA, Position: geom.V(0, 0), Factions: []string{"bandits"}},
		Snapshot{ID: idB, Position: geom.V(60, 0), Factions: []string{"town"}},
		Snapshot{ID: idC, Position: geom.V(0, 30), Factions: []string{"town"}},
		Snapshot{ID: ecs.NewEntityID(3, 1), Position: geom.V(5, 0), Factions: []string{"bandits"}},
	)
	in := baseInputs(w, geom.V(0, 0), 100)
	in.Factions = []string{"bandits"}
	in.Params.Aggression = component.Aggressive
	in.Primary = &component.Ability{ID: "club", Range: 10}
	in.Paths = &straightPaths{}

	var ctrl Controller
	mode := Step(IdleMode(), in, &ctrl)
	if mode.Kind != Attack || mode.Target != idC {
		t.Fatalf("expected Attack(C), got %v", mode)
	}
}

func TestAttackersTakePriority(t *testing.T) {
	w := newFakeWorld(
		Snapshot{ID: idB, Position: geom.V(80, 0)},
		Snapshot{ID: idC, Position: geom.V(95, 0)},
	)
	in := baseInputs(w, geom.V(0, 0), 100)
	in.Attackers = []ecs.EntityID{idC, idB}
	in.Primary = &component.Ability{ID: "club", Range: 10}
	in.Paths = &straightPaths{}

	var ctrl Controller
	if mode := Step(IdleMode(), in, &ctrl); mode.Kind != Attack || mode.Target != idB {
		t.Fatalf("expected Attack(B) (C is beyond 90%% of view), got %v", mode)
	}

	in.Params.Aggression = component.Passive
	ctrl.Reset()
	if mode := Step(IdleMode(), in, &ctrl); mode.Kind != Flee || mode.Target != idB {
		t.Fatalf("passive victim should flee, got %v", mode)
	}
}

func TestOnGuardInvestigatesDistantNoise(t *testing.T) {
	w := newFakeWorld(
		Snapshot{ID: idB, Position: geom.V(50, 0), Noise: component.NoiseLoud},
		Snapshot{ID: idC, Position: geom.V(0, 95), Noise: component.NoiseModerate},
	)
	in := baseInputs(w, geom.V(0, 0), 100)
	in.Params = Params{OnGuard: true, Stationary: true}
	in.Paths = &straightPaths{}

	var ctrl Controller
	mode := Step(IdleMode(), in, &ctrl)
	if mode.Kind != Investigate || mode.Destination != geom.V(0, 95) {
		t.Fatalf("expected Investigate(0,95), got %v", mode)
	}
	if !ctrl.ShouldSprint {
		t.Fatalf("investigation should sprint")
	}

	// quiet noise is not heard
	w.put(Snapshot{ID: idC, Position: geom.V(0, 95), Noise: component.NoiseSilent})
	ctrl.Reset()
	if mode := Step(IdleMode(), in, &ctrl); mode.Kind != Idle {
		t.Fatalf("silent agent should not be heard, got %v", mode)
	}
}

func TestInvestigateArrives(t *testing.T) {
	in := baseInputs(newFakeWorld(), geom.V(0, 0), 100)
	in.Paths = &straightPaths{}
	var ctrl Controller
	if mode := Step(InvestigateMode(geom.V(89, 0)), in, &ctrl); mode.Kind != Idle {
		t.Fatalf("within 90%% of view should end the investigation, got %v", mode)
	}
	ctrl.Reset()
	mode := Step(InvestigateMode(geom.V(300, 0)), in, &ctrl)
	if mode.Kind != Investigate || mode.Path == nil {
		t.Fatalf("expected to keep investigating along a path, got %v", mode)
	}
}

func TestStationaryReturnsHome(t *testing.T) {
	home := geom.V(10, 0)
	in := baseInputs(newFakeWorld(), geom.V(0, 0), 100)
	in.Params = Params{Stationary: true, Home: &home}
	in.Paths = &straightPaths{}

	var ctrl Controller
	mode := Step(IdleMode(), in, &ctrl)
	if mode.Kind != GoTo || mode.Destination != home {
		t.Fatalf("expected GoTo(home), got %v", mode)
	}
	if ctrl.MoveDirection.X <= 0 {
		t.Fatalf("should head toward home, dir=%v", ctrl.MoveDirection)
	}

	in.Position = geom.V(9, 1)
	ctrl.Reset()
	if mode := Step(IdleMode(), in, &ctrl); mode.Kind != Idle {
		t.Fatalf("close to home should stay idle, got %v", mode)
	}
}

func TestWanderStaysWithinFiveTiles(t *testing.T) {
	in := baseInputs(newFakeWorld(), geom.V(100, 100), 100)
	for i := 0; i < 200; i++ {
		m := DecideIdle(in)
		if m.Kind != GoTo {
			t.Fatalf("wandering agent should GoTo, got %v", m)
		}
		d := m.Destination.Sub(in.Position)
		if math.Abs(d.X) > 5*16 || math.Abs(d.Y) > 5*16 {
			t.Fatalf("wander target %v too far from %v", m.Destination, in.Position)
		}
	}
}

func TestFleeEndsBeyondView(t *testing.T) {
	w := newFakeWorld(Snapshot{ID: idB, Position: geom.V(150, 0)})
	in := baseInputs(w, geom.V(0, 0), 100)
	var ctrl Controller
	if mode := Step(FleeMode(idB), in, &ctrl); mode.Kind != Idle {
		t.Fatalf("threat beyond view should end flight, got %v", mode)
	}
	w.remove(idB)
	if mode := Step(FleeMode(idB), in, &ctrl); mode.Kind != Idle {
		t.Fatalf("despawned threat should end flight, got %v", mode)
	}
}

func gridFor(t *testing.T) *gridmap.GridMap {
	t.Helper()
	m := gridmap.New(geom.Size{W: 8, H: 8}, geom.V(16, 16), geom.Vec2{})
	if err := m.AddTileset(&gridmap.Tileset{ID: "ts", FirstTileID: 1, TileCount: 1}); err != nil {
		t.Fatal(err)
	}
	walls := &gridmap.Layer{ID: "walls", Kind: gridmap.TileLayer, Collision: gridmap.CollisionSolid, Visible: true,
		Tiles: make([]*gridmap.Tile, 64)}
	walls.Tiles[3*8+7] = &gridmap.Tile{GlobalID: 1, TilesetID: "ts"}
	if err := m.AddLayer(walls); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestGoToFollowsPathUntilExhausted(t *testing.T) {
	m := gridFor(t)
	in := baseInputs(newFakeWorld(), m.CellCenter(0, 0), 100)
	in.Paths = nav.NewFinder(m)

	mode := GoToMode(m.CellCenter(3, 0))
	for tick := 0; tick < 500; tick++ {
		var ctrl Controller
		mode = Step(mode, in, &ctrl)
		if mode.Kind == Idle {
			if in.Position.Dist(m.CellCenter(3, 0)) > WaypointRadius {
				t.Fatalf("went idle at %v before reaching the goal", in.Position)
			}
			return
		}
		if mode.Path == nil {
			t.Fatalf("GoTo without a path at tick %d", tick)
		}
		in.Position = in.Position.Add(ctrl.MoveDirection)
	}
	t.Fatalf("never arrived; stuck at %v", in.Position)
}

func TestGoToUnreachableIdles(t *testing.T) {
	m := gridFor(t)
	in := baseInputs(newFakeWorld(), m.CellCenter(0, 0), 100)
	in.Paths = nav.NewFinder(m)
	var ctrl Controller
	if mode := Step(GoToMode(m.CellCenter(7, 3)), in, &ctrl); mode.Kind != Idle {
		t.Fatalf("unreachable goal should idle, got %v", mode)
	}
}

func TestGoToReplansWhenGoalChanges(t *testing.T) {
	paths := &straightPaths{}
	in := baseInputs(newFakeWorld(), geom.V(0, 0), 100)
	in.Paths = paths

	var ctrl Controller
	mode := Step(GoToMode(geom.V(100, 0)), in, &ctrl)
	mode = Step(mode, in, &ctrl)
	if paths.calls != 1 {
		t.Fatalf("cached path should be reused, calls=%d", paths.calls)
	}
	mode.Destination = geom.V(0, 100)
	mode = Step(mode, in, &ctrl)
	if paths.calls != 2 || mode.PathGoal != geom.V(0, 100) {
		t.Fatalf("changed goal should replan, calls=%d goal=%v", paths.calls, mode.PathGoal)
	}
}

type blindSight struct{}

func (blindSight) LineOfSight(a, b geom.Vec2) bool { return false }

func TestSightFiltersScans(t *testing.T) {
	w := newFakeWorld(Snapshot{ID: idB, Position: geom.V(20, 0), Factions: []string{"town"}})
	in := baseInputs(w, geom.V(0, 0), 100)
	in.Params.Aggression = component.Aggressive
	in.Sight = blindSight{}
	var ctrl Controller
	if mode := Step(IdleMode(), in, &ctrl); mode.Kind != Idle {
		t.Fatalf("unseen agent should not be attacked, got %v", mode)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get(DefaultHumanoidID); !ok {
		t.Fatalf("default set missing")
	}
	custom := SetFunc(func(m Mode, in *Inputs, c *Controller) Mode { return IdleMode() })
	if err := r.Register("custom", custom); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register("custom", custom); err == nil {
		t.Fatalf("duplicate register should fail")
	}
	if ids := r.IDs(); len(ids) != 2 || ids[0] != "custom" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestControllerReset(t *testing.T) {
	c := Controller{MoveDirection: geom.V(1, 0), ShouldSprint: true, EquipWeapon: "x"}
	c.Reset()
	if !c.Idle() {
		t.Fatalf("reset left intents: %+v", c)
	}
}
