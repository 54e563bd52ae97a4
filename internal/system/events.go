package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/tilerealm/engine/internal/core/event"
	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/world"
)

// EventDispatchSystem delivers the events emitted during the previous tick.
// Phase 1 (PreUpdate), so behavior sees last tick's attacks.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus, ws *world.State, log *zap.Logger) *EventDispatchSystem {
	event.Subscribe(bus, func(ev event.AgentAttacked) {
		c, ok := ws.Combat.Get(ev.Victim)
		if !ok || !ws.Alive(ev.Attacker) {
			return
		}
		c.RecordAttacker(ev.Attacker)
	})
	event.Subscribe(bus, func(ev event.AgentDespawned) {
		log.Debug("agent despawned", zap.Stringer("agent", ev.Agent))
	})
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
