package system

import (
	"time"

	"github.com/tilerealm/engine/internal/behavior"
	"github.com/tilerealm/engine/internal/component"
	"github.com/tilerealm/engine/internal/core/ecs"
	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/physics"
	"github.com/tilerealm/engine/internal/world"
)

const (
	SprintSpeedFactor     = 2.0
	SprintStaminaCost     = 10.0
	EncumberedSpeedFactor = 0.1
	// MoveNoiseTicks is how long footsteps stay audible.
	MoveNoiseTicks = 5
)

// MovementSystem integrates controller move intents into body positions.
// Move speed is in world units per tick. Phase 3 (PostUpdate).
type MovementSystem struct {
	world           *world.State
	agentCollisions bool
}

func NewMovementSystem(ws *world.State, agentCollisions bool) *MovementSystem {
	return &MovementSystem{world: ws, agentCollisions: agentCollisions}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *MovementSystem) Update(_ time.Duration) {
	s.world.Brains.Each(func(id ecs.EntityID, br *behavior.Brain) {
		s.move(id, &br.Controller)
	})
}

// Apply moves one agent by a controller. Player input goes through here too.
func (s *MovementSystem) Apply(id ecs.EntityID, ctrl *behavior.Controller) {
	s.move(id, ctrl)
}

func (s *MovementSystem) move(id ecs.EntityID, ctrl *behavior.Controller) {
	body, ok := s.world.Bodies.Get(id)
	if !ok {
		return
	}
	dir := ctrl.MoveDirection.Normalize()
	if dir.IsZero() {
		body.Velocity = dir
		return
	}
	stats, _ := s.world.Stats.Get(id)
	inv, _ := s.world.Inventories.Get(id)

	speed := stats.MoveSpeed
	noise := component.NoiseSilent
	switch {
	case stats.CarryCapacity > 0 && inv.Weight() >= stats.CarryCapacity:
		speed *= EncumberedSpeedFactor
	case ctrl.ShouldSprint && stats.Stamina >= SprintStaminaCost:
		stats.Stamina -= SprintStaminaCost
		speed *= SprintSpeedFactor
		noise = component.NoiseModerate
	}
	body.Velocity = dir.Scale(speed)

	next := body.Position.Add(body.Velocity)
	moved := body.Collider.Offset(next)
	if physics.Blocks(s.world.Map, moved, false) {
		return
	}
	if s.agentCollisions {
		if _, blocked := s.world.Blocking(id, moved); blocked {
			return
		}
	}
	s.world.MoveTo(id, next)
	if n, ok := s.world.Noise.Get(id); ok {
		n.Raise(noise, MoveNoiseTicks)
	}
}
