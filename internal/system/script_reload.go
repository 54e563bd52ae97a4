package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/scripting"
)

// ScriptReloadSystem swaps in freshly edited Lua scripts between ticks.
// Phase 0 (Input).
type ScriptReloadSystem struct {
	engine  *scripting.Engine
	watcher *scripting.Watcher
	log     *zap.Logger
}

func NewScriptReloadSystem(e *scripting.Engine, w *scripting.Watcher, log *zap.Logger) *ScriptReloadSystem {
	return &ScriptReloadSystem{engine: e, watcher: w, log: log}
}

func (s *ScriptReloadSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ScriptReloadSystem) Update(_ time.Duration) {
	if !s.watcher.Changed() {
		return
	}
	if err := s.engine.Reload(); err != nil {
		s.log.Error("lua reload failed, keeping previous scripts", zap.Error(err))
	}
}
