package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/tilerealm/engine/internal/behavior"
	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/geom"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// Engine wraps a single gopher-lua VM holding the idle-decision scripts.
// Single-goroutine access only (tick loop). Reload swaps in a fresh VM.
type Engine struct {
	vm  *lua.LState
	dir string
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every .lua file in dir.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{dir: dir, log: log}
	vm, err := e.newVM()
	if err != nil {
		return nil, err
	}
	e.vm = vm
	return e, nil
}

// Dir returns the scripts directory.
func (e *Engine) Dir() string { return e.dir }

func (e *Engine) newVM() (*lua.LState, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))
	vm.SetGlobal("distance", vm.NewFunction(luaDistance))
	if err := e.loadDir(vm); err != nil {
		vm.Close()
		return nil, err
	}
	return vm, nil
}

// loadDir loads all .lua files in the scripts directory, in name order.
func (e *Engine) loadDir(vm *lua.LState) error {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(e.dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Reload rebuilds the VM from disk. On failure the running scripts stay in
// place and the error is returned.
func (e *Engine) Reload() error {
	vm, err := e.newVM()
	if err != nil {
		return err
	}
	e.vm.Close()
	e.vm = vm
	e.log.Info("lua scripts reloaded", zap.String("dir", e.dir))
	return nil
}

// HasDecider reports whether a decide_idle function is defined.
func (e *Engine) HasDecider() bool {
	return e.vm.GetGlobal("decide_idle") != lua.LNil
}

// DecideIdle calls Lua decide_idle(ctx). The second result is false when the
// function is missing, errors, returns nil, or names an unusable mode; the
// caller then falls back to the built-in rules.
func (e *Engine) DecideIdle(in *behavior.Inputs) (behavior.Mode, bool) {
	fn := e.vm.GetGlobal("decide_idle")
	if fn == lua.LNil {
		return behavior.IdleMode(), false
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.context(in)); err != nil {
		e.log.Error("lua decide_idle error", zap.Error(err), zap.Stringer("agent", in.Self))
		return behavior.IdleMode(), false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return behavior.IdleMode(), false
	}
	m, err := parseDecision(rt, in)
	if err != nil {
		e.log.Warn("lua decide_idle returned an unusable decision", zap.Error(err), zap.Stringer("agent", in.Self))
		return behavior.IdleMode(), false
	}
	return m, true
}

// context packs what an idle agent knows into a Lua table:
//
//	ctx.self, ctx.x, ctx.y, ctx.view, ctx.tile
//	ctx.aggression ("neutral" | "passive" | "aggressive"), ctx.stationary, ctx.on_guard
//	ctx.home = {x, y} or nil
//	ctx.health, ctx.max_health, ctx.armed
//	ctx.attackers = { {id, x, y, dist}, ... }
//	ctx.nearby = { {id, x, y, dist, hostile, noise}, ... } within view, closest first
func (e *Engine) context(in *behavior.Inputs) *lua.LTable {
	L := e.vm
	t := L.NewTable()
	t.RawSetString("self", lua.LNumber(in.Self))
	t.RawSetString("x", lua.LNumber(in.Position.X))
	t.RawSetString("y", lua.LNumber(in.Position.Y))
	t.RawSetString("view", lua.LNumber(in.Stats.ViewDistance))
	t.RawSetString("tile", lua.LNumber(in.TileSize.X))
	t.RawSetString("aggression", lua.LString(in.Params.Aggression.String()))
	t.RawSetString("stationary", lua.LBool(in.Params.Stationary))
	t.RawSetString("on_guard", lua.LBool(in.Params.OnGuard))
	t.RawSetString("health", lua.LNumber(in.Stats.Health))
	t.RawSetString("max_health", lua.LNumber(in.Stats.MaxHealth))
	t.RawSetString("armed", lua.LBool(in.Primary != nil || in.Secondary != nil))
	if h := in.Params.Home; h != nil {
		home := L.NewTable()
		home.RawSetString("x", lua.LNumber(h.X))
		home.RawSetString("y", lua.LNumber(h.Y))
		t.RawSetString("home", home)
	}

	attackers := L.NewTable()
	for _, id := range in.Attackers {
		a, ok := in.World.Lookup(id)
		if !ok {
			continue
		}
		row := L.NewTable()
		row.RawSetString("id", lua.LNumber(id))
		row.RawSetString("x", lua.LNumber(a.Position.X))
		row.RawSetString("y", lua.LNumber(a.Position.Y))
		row.RawSetString("dist", lua.LNumber(in.Position.Dist(a.Position)))
		attackers.Append(row)
	}
	t.RawSetString("attackers", attackers)

	nearby := L.NewTable()
	for _, s := range in.Nearest(in.Stats.ViewDistance, func(behavior.Snapshot) bool { return true }) {
		row := L.NewTable()
		row.RawSetString("id", lua.LNumber(s.ID))
		row.RawSetString("x", lua.LNumber(s.Position.X))
		row.RawSetString("y", lua.LNumber(s.Position.Y))
		row.RawSetString("dist", lua.LNumber(in.Position.Dist(s.Position)))
		row.RawSetString("hostile", lua.LBool(in.Hostile(s)))
		row.RawSetString("noise", lua.LString(s.Noise.String()))
		nearby.Append(row)
	}
	t.RawSetString("nearby", nearby)
	return t
}

// parseDecision turns {mode=..., target=..., x=..., y=...} into a Mode.
func parseDecision(rt *lua.LTable, in *behavior.Inputs) (behavior.Mode, error) {
	name := lStr(rt, "mode")
	kind, ok := behavior.ParseKind(name)
	if !ok {
		return behavior.Mode{}, fmt.Errorf("unknown mode %q", name)
	}
	switch kind {
	case behavior.Idle:
		return behavior.IdleMode(), nil
	case behavior.EquipWeapon:
		return behavior.EquipWeaponMode(), nil
	case behavior.GoTo, behavior.Investigate:
		x, okX := rt.RawGetString("x").(lua.LNumber)
		y, okY := rt.RawGetString("y").(lua.LNumber)
		if !okX || !okY {
			return behavior.Mode{}, fmt.Errorf("mode %q needs numeric x and y", name)
		}
		p := geom.V(float64(x), float64(y))
		if kind == behavior.GoTo {
			return behavior.GoToMode(p), nil
		}
		return behavior.InvestigateMode(p), nil
	default:
		n, ok := rt.RawGetString("target").(lua.LNumber)
		if !ok {
			return behavior.Mode{}, fmt.Errorf("mode %q needs a target", name)
		}
		id := ecs.EntityID(uint64(n))
		if id == in.Self {
			return behavior.Mode{}, fmt.Errorf("mode %q cannot target self", name)
		}
		if _, ok := in.World.Lookup(id); !ok {
			return behavior.Mode{}, fmt.Errorf("target %s does not resolve", id)
		}
		if kind == behavior.Attack {
			return behavior.AttackMode(id), nil
		}
		return behavior.FleeMode(id), nil
	}
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

func luaDistance(L *lua.LState) int {
	a := geom.V(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))
	b := geom.V(float64(L.CheckNumber(3)), float64(L.CheckNumber(4)))
	L.Push(lua.LNumber(a.Dist(b)))
	return 1
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
