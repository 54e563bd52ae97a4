package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/tilerealm/engine/internal/behavior"
	"github.com/tilerealm/engine/internal/component"
	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/core/event"
	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/physics"
	"github.com/tilerealm/engine/internal/world"
)

// AttackNoiseTicks is how long an ability's noise stays audible.
const AttackNoiseTicks = 20

// CombatSystem applies equip and ability intents. An ability is a beam cast
// along the aim direction up to its range; the first agent it meets takes the
// damage. Barriers do not stop beams, solid tiles do. Phase 3 (PostUpdate),
// registered after movement.
type CombatSystem struct {
	world *world.State
	bus   *event.Bus
	ray   *physics.Raycaster
	log   *zap.Logger
}

func NewCombatSystem(ws *world.State, bus *event.Bus, ray *physics.Raycaster, log *zap.Logger) *CombatSystem {
	return &CombatSystem{world: ws, bus: bus, ray: ray, log: log}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *CombatSystem) Update(_ time.Duration) {
	s.world.Combat.Each(func(_ ecs.EntityID, c *component.Combat) {
		for id, left := range c.Cooldowns {
			if left > 0 {
				c.Cooldowns[id] = left - 1
			}
		}
	})
	s.world.Brains.Each(func(id ecs.EntityID, br *behavior.Brain) {
		s.Apply(id, &br.Controller)
	})
}

// Apply executes the equip and ability intents of one controller.
func (s *CombatSystem) Apply(id ecs.EntityID, ctrl *behavior.Controller) {
	c, ok := s.world.Combat.Get(id)
	if !ok {
		return
	}
	if ctrl.EquipWeapon != "" {
		s.equip(id, c, ctrl.EquipWeapon)
	}
	aim := ctrl.AimDirection.Normalize()
	if aim.IsZero() {
		return
	}
	if ctrl.ShouldUsePrimary {
		s.use(id, c, c.Primary, aim)
	}
	if ctrl.ShouldUseSecondary {
		s.use(id, c, c.Secondary, aim)
	}
}

func (s *CombatSystem) equip(id ecs.EntityID, c *component.Combat, itemID string) {
	inv, ok := s.world.Inventories.Get(id)
	if !ok {
		return
	}
	item, ok := inv.Find(itemID)
	if !ok || item.Ability == nil {
		s.log.Debug("equip intent ignored", zap.Stringer("agent", id), zap.String("item", itemID))
		return
	}
	inv.EquippedWeapon = item.ID
	c.Primary = item.Ability
	event.Emit(s.bus, event.WeaponEquipped{Agent: id, ItemID: item.ID})
}

func (s *CombatSystem) use(id ecs.EntityID, c *component.Combat, ab *component.Ability, aim geom.Vec2) {
	if ab == nil || c.Cooldowns[ab.ID] > 0 {
		return
	}
	body, ok := s.world.Bodies.Get(id)
	if !ok {
		return
	}
	c.Cooldowns[ab.ID] = ab.Cooldown
	if n, ok := s.world.Noise.Get(id); ok {
		n.Raise(ab.Noise, AttackNoiseTicks)
	}

	end := body.Position.Add(aim.Scale(ab.Range))
	hit, blocked := s.ray.Raycast(body.Position, end, true, false, id)
	if !blocked {
		return
	}
	victim, ok := s.world.Blocking(id, physics.CircleCollider(hit.X, hit.Y, 1))
	if !ok {
		return // wall
	}
	s.damage(id, victim, ab)
}

func (s *CombatSystem) damage(attacker, victim ecs.EntityID, ab *component.Ability) {
	stats, ok := s.world.Stats.Get(victim)
	if !ok || stats.Health <= 0 {
		return
	}
	stats.Health -= ab.Damage
	event.Emit(s.bus, event.AgentAttacked{Attacker: attacker, Victim: victim, Ability: ab.ID, Damage: ab.Damage})
	if stats.Health > 0 {
		return
	}
	s.world.Despawn(victim)
	event.Emit(s.bus, event.AgentDespawned{Agent: victim})
	s.log.Debug("agent killed",
		zap.Stringer("agent", victim),
		zap.Stringer("by", attacker),
		zap.String("ability", ab.ID),
	)
}
