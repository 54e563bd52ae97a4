package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/world"
)

// keepSaves is how many journal saves survive pruning.
const keepSaves = 10

// Journal stores agent states by tick. *persist.AgentRepo implements it.
type Journal interface {
	SaveStates(ctx context.Context, tick uint64, states []world.AgentState) error
	Prune(ctx context.Context, keepFrom uint64) (int64, error)
}

// PersistenceSystem periodically journals every agent's position, mode and
// health. Phase 5 (Persist).
type PersistenceSystem struct {
	world     *world.State
	journal   Journal
	log       *zap.Logger
	tick      uint64
	tickCount int
	interval  int // save every N ticks
}

func NewPersistenceSystem(ws *world.State, journal Journal, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		world:    ws,
		journal:  journal,
		log:      log,
		interval: max(intervalTicks, 1),
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tick++
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Save()
}

// Save journals the current tick immediately. Called on shutdown.
func (s *PersistenceSystem) Save() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	states := s.world.States()
	if err := s.journal.SaveStates(ctx, s.tick, states); err != nil {
		s.log.Error("agent journal save failed", zap.Uint64("tick", s.tick), zap.Error(err))
		return
	}
	window := uint64(s.interval * keepSaves)
	if s.tick > window {
		if n, err := s.journal.Prune(ctx, s.tick-window); err != nil {
			s.log.Warn("agent journal prune failed", zap.Error(err))
		} else if n > 0 {
			s.log.Debug("agent journal pruned", zap.Int64("rows", n))
		}
	}
	s.log.Debug("agent journal saved", zap.Uint64("tick", s.tick), zap.Int("agents", len(states)))
}
