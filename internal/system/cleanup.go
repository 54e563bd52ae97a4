package system

import (
	"time"

	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/world"
)

// CleanupSystem destroys the agents despawned during this tick, so handles
// stay resolvable until every other phase has run. Phase 6 (Cleanup).
type CleanupSystem struct {
	world   *world.State
	removed int
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{world: ws}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	e := s.world.ECS()
	s.removed += e.Pending()
	e.FlushDestroyQueue()
}

// Removed returns how many agents have been destroyed so far.
func (s *CleanupSystem) Removed() int { return s.removed }
