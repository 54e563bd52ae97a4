package system

import (
	"math/rand"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/tilerealm/engine/internal/behavior"
	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/core/event"
	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/nav"
	"github.com/tilerealm/engine/internal/world"
)

// BehaviorSystem steps every brain once per tick and leaves intents in its
// controller. Phase 2 (Update).
type BehaviorSystem struct {
	world      *world.State
	bus        *event.Bus
	registry   *behavior.Registry
	defaultSet string
	paths      behavior.Pathfinder
	sight      behavior.Sight // nil = everything in range is visible
	rng        *rand.Rand
	log        *zap.Logger

	// set ids already reported as missing
	missing map[string]bool
}

// NewBehaviorSystem binds the registry to the level. sight may be nil.
func NewBehaviorSystem(ws *world.State, bus *event.Bus, reg *behavior.Registry, defaultSet string, sight behavior.Sight, rng *rand.Rand, log *zap.Logger) *BehaviorSystem {
	if defaultSet == "" {
		defaultSet = behavior.DefaultHumanoidID
	}
	return &BehaviorSystem{
		world:      ws,
		bus:        bus,
		registry:   reg,
		defaultSet: defaultSet,
		paths:      nav.NewFinder(ws.Map),
		sight:      sight,
		rng:        rng,
		log:        log,
		missing:    make(map[string]bool),
	}
}

func (s *BehaviorSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *BehaviorSystem) Update(_ time.Duration) {
	s.world.Brains.Each(func(id ecs.EntityID, br *behavior.Brain) {
		s.step(id, br)
	})
}

func (s *BehaviorSystem) step(id ecs.EntityID, br *behavior.Brain) {
	in, ok := s.inputs(id, br)
	if !ok {
		return
	}
	set := s.set(br.SetID)
	br.Controller.Reset()
	prev := br.Mode.Kind
	br.Mode = set.Step(br.Mode, in, &br.Controller)
	if br.Mode.Kind != prev {
		event.Emit(s.bus, event.ModeChanged{Agent: id, From: prev.String(), To: br.Mode.Kind.String()})
	}
}

func (s *BehaviorSystem) set(id string) behavior.Set {
	if set, ok := s.registry.Get(id); ok {
		return set
	}
	if !s.missing[id] {
		s.missing[id] = true
		s.log.Warn("unknown behavior set, using default", zap.String("set", id), zap.String("default", s.defaultSet))
	}
	if set, ok := s.registry.Get(s.defaultSet); ok {
		return set
	}
	return behavior.DefaultHumanoid
}

func (s *BehaviorSystem) inputs(id ecs.EntityID, br *behavior.Brain) (*behavior.Inputs, bool) {
	agent, ok := s.world.Agents.Get(id)
	if !ok {
		return nil, false
	}
	body, ok := s.world.Bodies.Get(id)
	if !ok {
		return nil, false
	}
	stats, _ := s.world.Stats.Get(id)
	combat, _ := s.world.Combat.Get(id)
	inv, _ := s.world.Inventories.Get(id)

	// Stale attacker handles are dropped here rather than on despawn.
	combat.Attackers = slices.DeleteFunc(combat.Attackers, func(a ecs.EntityID) bool {
		return !s.world.Alive(a)
	})

	return &behavior.Inputs{
		Self:      id,
		Position:  body.Position,
		Stats:     *stats,
		Factions:  agent.Factions,
		Params:    br.Params,
		Attackers: combat.Attackers,
		Primary:   combat.Primary,
		Secondary: combat.Secondary,
		Inventory: inv,
		World:     s.world,
		Paths:     s.paths,
		Sight:     s.sight,
		Rand:      s.rng,
		TileSize:  s.world.Map.TileSize,
	}, true
}
