package behavior

import "github.com/tilerealm/engine/internal/geom"

// Controller carries one tick of intents from a behavior step to the
// movement and combat integrator.
type Controller struct {
	MoveDirection      geom.Vec2 // unit vector or zero
	AimDirection       geom.Vec2 // unit vector or zero
	ShouldSprint       bool
	ShouldUsePrimary   bool
	ShouldUseSecondary bool
	EquipWeapon        string // item id, "" for none
}

// Reset clears every intent. Called before each behavior step.
func (c *Controller) Reset() {
	*c = Controller{}
}

// Idle reports whether the controller asks for nothing.
func (c *Controller) Idle() bool {
	return *c == Controller{}
}
