// Package behavior is the per-agent state machine that turns world queries
// and paths into movement and combat intents.
package behavior

import (
	"fmt"

	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/nav"
)

type Kind uint8

const (
	Idle Kind = iota
	GoTo
	Attack
	Flee
	Investigate
	EquipWeapon
)

var kindNames = [...]string{"idle", "goto", "attack", "flee", "investigate", "equip_weapon"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a mode name back to its kind.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return Idle, false
}

// Mode is an agent's current behavior state. Which fields mean anything
// depends on Kind:
//
//	GoTo         Destination, Path
//	Attack       Target, Path
//	Flee         Target (the threat)
//	Investigate  Destination, Path
//
// A transition replaces the whole value.
type Mode struct {
	Kind        Kind
	Destination geom.Vec2
	Target      ecs.EntityID
	Path        *nav.Path
	// PathGoal is the point Path was requested for.
	PathGoal geom.Vec2
}

func IdleMode() Mode                      { return Mode{Kind: Idle} }
func GoToMode(dest geom.Vec2) Mode        { return Mode{Kind: GoTo, Destination: dest} }
func AttackMode(target ecs.EntityID) Mode { return Mode{Kind: Attack, Target: target} }
func FleeMode(from ecs.EntityID) Mode     { return Mode{Kind: Flee, Target: from} }
func InvestigateMode(at geom.Vec2) Mode   { return Mode{Kind: Investigate, Destination: at} }
func EquipWeaponMode() Mode               { return Mode{Kind: EquipWeapon} }

func (m Mode) String() string {
	switch m.Kind {
	case GoTo, Investigate:
		return fmt.Sprintf("%s(%.1f,%.1f)", m.Kind, m.Destination.X, m.Destination.Y)
	case Attack, Flee:
		return fmt.Sprintf("%s(%v)", m.Kind, m.Target)
	}
	return m.Kind.String()
}
