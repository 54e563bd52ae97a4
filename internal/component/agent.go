package component

import (
	"slices"

	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/physics"
)

// Agent identifies an actor in the world.
// Pure data: mutations happen in systems.
type Agent struct {
	Name       string
	TemplateID string
	Factions   []string
	Player     bool // player-controlled agents have no brain
}

// SharesFaction reports whether any faction string appears in both lists.
// Agents that share a faction are never hostile to each other.
func SharesFaction(a, b []string) bool {
	for _, f := range a {
		if slices.Contains(b, f) {
			return true
		}
	}
	return false
}

// Body is an agent's physical presence.
type Body struct {
	Position geom.Vec2
	Velocity geom.Vec2
	Collider physics.Collider // local space
}

// WorldCollider returns the collider moved to the body's position.
func (b *Body) WorldCollider() physics.Collider {
	return b.Collider.Offset(b.Position)
}

// Noise is the transient loudness of an agent. TicksLeft counts down to a
// reset to NoiseNone.
type Noise struct {
	Level     NoiseLevel
	TicksLeft int
}

// Raise sets the noise level for ticks ticks unless a louder noise is
// already active.
func (n *Noise) Raise(l NoiseLevel, ticks int) {
	if l < n.Level && n.TicksLeft > 0 {
		return
	}
	n.Level = l
	n.TicksLeft = ticks
}

// Decay counts down one tick and falls silent when the count runs out.
func (n *Noise) Decay() {
	if n.TicksLeft > 0 {
		n.TicksLeft--
	}
	if n.TicksLeft == 0 {
		n.Level = NoiseNone
	}
}
