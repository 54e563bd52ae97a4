package event

import "github.com/tilerealm/engine/internal/core/ecs"

// AgentAttacked is emitted when an agent uses an ability on another. The
// victim records the attacker so its behavior can react next tick.
type AgentAttacked struct {
	Attacker ecs.EntityID
	Victim   ecs.EntityID
	Ability  string
	Damage   float64
}

// AgentDespawned is emitted when an agent is queued for destruction.
type AgentDespawned struct {
	Agent ecs.EntityID
}

// ModeChanged is emitted when an agent's behavior mode changes kind.
type ModeChanged struct {
	Agent ecs.EntityID
	From  string
	To    string
}

// WeaponEquipped is emitted when an equip intent is applied.
type WeaponEquipped struct {
	Agent  ecs.EntityID
	ItemID string
}
