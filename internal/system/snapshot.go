package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/persist"
	"github.com/tilerealm/engine/internal/world"
)

// SnapshotSystem writes a compressed agent snapshot every N ticks.
// Phase 4 (Output).
type SnapshotSystem struct {
	world    *world.State
	writer   *persist.SnapshotWriter
	level    string
	log      *zap.Logger
	tick     uint64
	interval uint64
}

func NewSnapshotSystem(ws *world.State, w *persist.SnapshotWriter, level string, log *zap.Logger, intervalTicks int) *SnapshotSystem {
	return &SnapshotSystem{
		world:    ws,
		writer:   w,
		level:    level,
		log:      log,
		interval: uint64(max(intervalTicks, 1)),
	}
}

func (s *SnapshotSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *SnapshotSystem) Update(_ time.Duration) {
	s.tick++
	if s.tick%s.interval != 0 {
		return
	}
	path, err := s.writer.Write(s.tick, s.level, s.world.States())
	if err != nil {
		s.log.Error("snapshot write failed", zap.Uint64("tick", s.tick), zap.Error(err))
		return
	}
	s.log.Debug("snapshot written", zap.String("path", path))
}
