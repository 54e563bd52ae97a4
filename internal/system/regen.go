package system

import (
	"time"

	"github.com/tilerealm/engine/internal/component"
	"github.com/tilerealm/engine/internal/core/ecs"
	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/world"
)

// RegenSystem regenerates health, stamina and energy and lets noise fade.
// Phase 3 (PostUpdate), after combat. Regeneration is applied once per second
// of simulated time; noise decays every tick.
type RegenSystem struct {
	world   *world.State
	elapsed time.Duration
}

func NewRegenSystem(ws *world.State) *RegenSystem {
	return &RegenSystem{world: ws}
}

func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RegenSystem) Update(dt time.Duration) {
	s.world.Noise.Each(func(_ ecs.EntityID, n *component.Noise) {
		n.Decay()
	})

	s.elapsed += dt
	if s.elapsed < time.Second {
		return
	}
	secs := s.elapsed.Seconds()
	s.elapsed = 0
	s.world.Stats.Each(func(_ ecs.EntityID, st *component.Stats) {
		if st.Health <= 0 {
			return
		}
		st.Regenerate(secs)
	})
}
