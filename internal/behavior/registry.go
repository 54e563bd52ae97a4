package behavior

import (
	"fmt"
	"sort"
)

// Set is a family of behavior rules an agent can be configured with.
type Set interface {
	Step(mode Mode, in *Inputs, ctrl *Controller) Mode
}

// SetFunc adapts a function to Set.
type SetFunc func(mode Mode, in *Inputs, ctrl *Controller) Mode

func (f SetFunc) Step(mode Mode, in *Inputs, ctrl *Controller) Mode { return f(mode, in, ctrl) }

const DefaultHumanoidID = "default_humanoid"

// DefaultHumanoid is the built-in rule set.
var DefaultHumanoid Set = SetFunc(Step)

// Registry maps behavior-set ids to sets. It is built at startup and passed
// to whatever needs it.
type Registry struct {
	sets map[string]Set
}

// NewRegistry returns a registry holding DefaultHumanoid.
func NewRegistry() *Registry {
	r := &Registry{sets: make(map[string]Set)}
	r.sets[DefaultHumanoidID] = DefaultHumanoid
	return r
}

func (r *Registry) Register(id string, s Set) error {
	if _, dup := r.sets[id]; dup {
		return fmt.Errorf("behavior set %q already registered", id)
	}
	r.sets[id] = s
	return nil
}

// Replace registers s under id, overwriting any existing set.
func (r *Registry) Replace(id string, s Set) {
	r.sets[id] = s
}

func (r *Registry) Get(id string) (Set, bool) {
	s, ok := r.sets[id]
	return s, ok
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.sets))
	for id := range r.sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Brain is the per-agent behavior component.
type Brain struct {
	SetID      string
	Mode       Mode
	Controller Controller
	Params     Params
}
