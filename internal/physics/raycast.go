package physics

import (
	"iter"
	"slices"

	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/gridmap"
)

// probeRadius is the radius of the circle stepped along a ray.
const probeRadius = 1.0

// Bodies exposes the world-space colliders of every live agent.
type Bodies interface {
	Colliders() iter.Seq2[ecs.EntityID, Collider]
}

// Raycaster approximates line-of-sight by stepping a small circular probe
// along a segment. It is not an exact sweep: obstacles thinner than Step can
// be missed.
type Raycaster struct {
	Map    *gridmap.GridMap
	Agents Bodies // may be nil
	Step   float64
}

// NewRaycaster returns a raycaster over m. A step <= 0 selects one eighth of
// a tile width.
func NewRaycaster(m *gridmap.GridMap, agents Bodies, step float64) *Raycaster {
	if step <= 0 {
		step = m.TileSize.X / 8
	}
	return &Raycaster{Map: m, Agents: agents, Step: step}
}

// Raycast walks from origin toward end and returns the first point where the
// probe is blocked. Barriers are ignored when ignoreBarrier is set, and
// agents when ignoreAgents is set; skip lists agents that never block (the
// caster itself, usually). The second result is false when the segment is
// clear.
func (r *Raycaster) Raycast(origin, end geom.Vec2, ignoreBarrier, ignoreAgents bool, skip ...ecs.EntityID) (geom.Vec2, bool) {
	if origin.Dist(end) <= r.Step {
		return geom.Vec2{}, false
	}
	change := end.Sub(origin).Normalize().Scale(r.Step)
	probe := CircleCollider(0, 0, probeRadius)
	for cur := origin; cur.Dist(end) > r.Step; cur = cur.Add(change) {
		if Blocks(r.Map, probe.Offset(cur), ignoreBarrier) {
			return cur, true
		}
		if ignoreAgents || r.Agents == nil {
			continue
		}
		for id, c := range r.Agents.Colliders() {
			if slices.Contains(skip, id) {
				continue
			}
			if c.Contains(cur) {
				return cur, true
			}
		}
	}
	return geom.Vec2{}, false
}

// LineOfSight reports whether nothing solid lies between a and b.
// Barriers and agents do not block sight.
func (r *Raycaster) LineOfSight(a, b geom.Vec2) bool {
	_, hit := r.Raycast(a, b, true, true)
	return !hit
}
