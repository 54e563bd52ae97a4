package scripting

import "github.com/tilerealm/engine/internal/behavior"

// SetID is the registry id of the scripted behavior set.
const SetID = "scripted"

// Set is the default humanoid with its idle decision delegated to Lua.
// When the script has no opinion the built-in idle rules apply.
type Set struct {
	engine *Engine
}

func NewSet(e *Engine) *Set {
	return &Set{engine: e}
}

func (s *Set) Step(mode behavior.Mode, in *behavior.Inputs, ctrl *behavior.Controller) behavior.Mode {
	return behavior.Run(s.decide, mode, in, ctrl)
}

func (s *Set) decide(in *behavior.Inputs) behavior.Mode {
	if m, ok := s.engine.DecideIdle(in); ok {
		return m
	}
	return behavior.DecideIdle(in)
}

// Register adds the scripted set to r.
func Register(r *behavior.Registry, e *Engine) error {
	return r.Register(SetID, NewSet(e))
}
