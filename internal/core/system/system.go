package system

import "time"

// Phase orders systems within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: apply script reloads and external commands
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: behavior decisions
	PhasePostUpdate              // 3: movement, combat, noise
	PhaseOutput                  // 4: snapshots
	PhasePersist                 // 5: state journal
	PhaseCleanup                 // 6: destroy queued entities
)

var phaseNames = [...]string{"input", "pre_update", "update", "post_update", "output", "persist", "cleanup"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
