package behavior

import (
	"sort"

	"github.com/tilerealm/engine/internal/component"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/nav"
)

const (
	// RangeFraction scales every range and view check so an agent sitting at
	// the edge does not flip between states on consecutive ticks.
	RangeFraction = 0.9
	// WaypointRadius is how close an agent must get before a waypoint is dropped.
	WaypointRadius = 2.0
	// HomeRadius is how far a stationary agent may stray before walking home.
	HomeRadius = 2.0
	// WanderTiles bounds a wander target, in tiles along each axis.
	WanderTiles = 5.0
)

// IdleDecider picks what an idle agent does next. Returning IdleMode keeps
// it idle.
type IdleDecider func(in *Inputs) Mode

// Step advances the default humanoid rules by one tick.
func Step(mode Mode, in *Inputs, ctrl *Controller) Mode {
	return Run(DecideIdle, mode, in, ctrl)
}

// Run advances mode by one tick, consulting decide while idle. A mode chosen
// from Idle acts in the same tick; a transition out of any other mode takes
// effect on the next one.
func Run(decide IdleDecider, mode Mode, in *Inputs, ctrl *Controller) Mode {
	if mode.Kind == Idle {
		next := decide(in)
		if next.Kind == Idle {
			return next
		}
		mode = next
	}
	switch mode.Kind {
	case GoTo:
		return stepGoTo(mode, in, ctrl)
	case Attack:
		return stepAttack(mode, in, ctrl)
	case Flee:
		return stepFlee(mode, in, ctrl)
	case Investigate:
		return stepInvestigate(mode, in, ctrl)
	case EquipWeapon:
		return stepEquipWeapon(in, ctrl)
	}
	return IdleMode()
}

// DecideIdle applies the default idle rules: react to attackers, then act on
// aggression, then listen for noise, then go home or wander.
func DecideIdle(in *Inputs) Mode {
	view := in.Stats.ViewDistance

	for _, id := range in.Attackers {
		a, ok := in.World.Lookup(id)
		if !ok || id == in.Self {
			continue
		}
		if in.Position.Dist(a.Position) <= view*RangeFraction {
			if in.Params.Aggression == component.Passive {
				return FleeMode(id)
			}
			return AttackMode(id)
		}
	}

	switch in.Params.Aggression {
	case component.Aggressive:
		if ns := in.Nearest(view, in.Hostile); len(ns) > 0 {
			return AttackMode(ns[0].ID)
		}
		return IdleMode()
	case component.Passive:
		if ns := in.Nearest(view, in.Hostile); len(ns) > 0 {
			return FleeMode(ns[0].ID)
		}
		return IdleMode()
	}

	if in.Params.OnGuard {
		heard := func(s Snapshot) bool {
			return s.Noise >= component.NoiseModerate && in.Position.Dist(s.Position) <= s.Noise.Radius()
		}
		for _, s := range in.Nearest(view, heard) {
			if in.Position.Dist(s.Position) >= view*RangeFraction {
				return InvestigateMode(s.Position)
			}
		}
	}

	if in.Params.Stationary {
		if home := in.Params.Home; home != nil && in.Position.Dist(*home) > HomeRadius {
			return GoToMode(*home)
		}
		return IdleMode()
	}
	return GoToMode(in.wanderTarget())
}

// Nearest returns other agents within radius that pass keep, closest first.
// Equal distances keep the order the world reported them in.
func (in *Inputs) Nearest(radius float64, keep func(Snapshot) bool) []Snapshot {
	var out []Snapshot
	for _, s := range in.World.Nearby(in.Position, radius) {
		if s.ID == in.Self || in.Position.Dist(s.Position) > radius || !keep(s) {
			continue
		}
		if !in.Visible(s.Position) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return in.Position.Dist(out[i].Position) < in.Position.Dist(out[j].Position)
	})
	return out
}

func (in *Inputs) wanderTarget() geom.Vec2 {
	dx := WanderTiles * in.TileSize.X
	dy := WanderTiles * in.TileSize.Y
	var rx, ry float64
	if in.Rand != nil {
		rx, ry = in.Rand.Float64(), in.Rand.Float64()
	}
	return geom.Vec2{
		X: in.Position.X - dx + rx*2*dx,
		Y: in.Position.Y - dy + ry*2*dy,
	}
}

func stepGoTo(m Mode, in *Inputs, ctrl *Controller) Mode {
	if m.Path == nil || m.PathGoal != m.Destination {
		p, ok := in.Paths.FindPath(in.Position, m.Destination)
		if !ok {
			return IdleMode()
		}
		m.Path, m.PathGoal = p, m.Destination
	}
	if !followPath(m.Path, in.Position, ctrl) {
		return IdleMode()
	}
	return m
}

func stepAttack(m Mode, in *Inputs, ctrl *Controller) Mode {
	target, ok := in.World.Lookup(m.Target)
	if !ok {
		return IdleMode()
	}
	if in.Primary == nil && in.Secondary == nil {
		return EquipWeaponMode()
	}

	dist := in.Position.Dist(target.Position)
	if in.Primary != nil && dist <= in.Primary.Range*RangeFraction {
		m.Path = nil
		ctrl.ShouldUsePrimary = true
	} else {
		m = chase(m, target.Position, in, ctrl)
	}
	if in.Secondary != nil && dist <= in.Secondary.Range*RangeFraction {
		ctrl.ShouldUseSecondary = true
	}
	ctrl.AimDirection = target.Position.Sub(in.Position).Normalize()
	ctrl.ShouldSprint = true
	return m
}

func stepFlee(m Mode, in *Inputs, ctrl *Controller) Mode {
	from, ok := in.World.Lookup(m.Target)
	if !ok || in.Position.Dist(from.Position) > in.Stats.ViewDistance {
		return IdleMode()
	}
	ctrl.MoveDirection = in.Position.Sub(from.Position).Normalize()
	ctrl.ShouldSprint = true
	return m
}

func stepInvestigate(m Mode, in *Inputs, ctrl *Controller) Mode {
	if in.Position.Dist(m.Destination) <= in.Stats.ViewDistance*RangeFraction {
		return IdleMode()
	}
	m = chase(m, m.Destination, in, ctrl)
	ctrl.ShouldSprint = true
	return m
}

func stepEquipWeapon(in *Inputs, ctrl *Controller) Mode {
	if in.Inventory != nil {
		if ws := in.Inventory.WeaponsOfKind(component.ItemTwoHandedWeapon, component.ItemOneHandedWeapon); len(ws) > 0 {
			ctrl.EquipWeapon = ws[0].ID
		}
	}
	return IdleMode()
}

// chase keeps a path toward goal, replanning when the goal has drifted more
// than a tile from where the path was planned to. A failed request leaves the
// mode pathless so the next tick asks again.
func chase(m Mode, goal geom.Vec2, in *Inputs, ctrl *Controller) Mode {
	if m.Path != nil && m.PathGoal.Dist(goal) > in.TileSize.X {
		m.Path = nil
	}
	if m.Path == nil {
		p, ok := in.Paths.FindPath(in.Position, goal)
		if !ok {
			return m
		}
		m.Path, m.PathGoal = p, goal
	}
	if !followPath(m.Path, in.Position, ctrl) {
		m.Path = nil
	}
	return m
}

// followPath steers toward the next waypoint, dropping it once within
// WaypointRadius. It returns false when the path is used up.
func followPath(p *nav.Path, pos geom.Vec2, ctrl *Controller) bool {
	next, ok := p.Next()
	if !ok {
		return false
	}
	if pos.Dist(next) <= WaypointRadius {
		p.Pop()
		if next, ok = p.Next(); !ok {
			return false
		}
	}
	ctrl.MoveDirection = next.Sub(pos).Normalize()
	return true
}
