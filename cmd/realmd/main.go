package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tilerealm/engine/internal/behavior"
	"github.com/tilerealm/engine/internal/config"
	"github.com/tilerealm/engine/internal/core/event"
	coresys "github.com/tilerealm/engine/internal/core/system"
	"github.com/tilerealm/engine/internal/data"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/gridmap"
	"github.com/tilerealm/engine/internal/persist"
	"github.com/tilerealm/engine/internal/physics"
	"github.com/tilerealm/engine/internal/scripting"
	"github.com/tilerealm/engine/internal/system"
	"github.com/tilerealm/engine/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              tilerealm  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mrealm:\033[0m %s\n\n", name)
}

func printSection(title string) {
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", max(45-len(title), 3)))
}

func printStat(label string, count int) {
	num := fmt.Sprintf("%d", count)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", max(42-len(label)-len(num), 3)), num)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Simulation ─────────────────────────────────────────────────────

func run() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var db *persist.DB
	if cfg.Database.Enabled {
		printSection("database")
		db, err = persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")
		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		fmt.Println()
	}

	printSection("level")
	m, err := loadLevel(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("level: %w", err)
	}
	printStat("layers", len(m.Layers))
	printStat("tilesets", len(m.Tilesets))
	printStat("cells", m.GridSize.Cells())
	fmt.Println()

	printSection("data")
	agents, err := data.LoadAgentTable(cfg.Data.Agents)
	if err != nil {
		return fmt.Errorf("agents: %w", err)
	}
	printStat("agent templates", agents.Count())

	lua, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer lua.Close()
	registry := behavior.NewRegistry()
	if err := scripting.Register(registry, lua); err != nil {
		return fmt.Errorf("behavior sets: %w", err)
	}
	printOK(fmt.Sprintf("behavior sets: %s", strings.Join(registry.IDs(), ", ")))
	fmt.Println()

	seed := cfg.Server.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ws := world.NewState(m)
	spawned := spawnAgents(ws, agents, append(agents.Spawns(), data.MapSpawns(m)...), rng, log)

	printSection("world")
	printStat("agents spawned", spawned)
	fmt.Println()

	bus := event.NewBus()
	event.Subscribe(bus, func(ev event.ModeChanged) {
		log.Debug("mode changed", zap.Stringer("agent", ev.Agent), zap.String("from", ev.From), zap.String("to", ev.To))
	})
	event.Subscribe(bus, func(ev event.WeaponEquipped) {
		log.Debug("weapon equipped", zap.Stringer("agent", ev.Agent), zap.String("item", ev.ItemID))
	})

	ray := physics.NewRaycaster(m, ws, cfg.Physics.RaycastStep)
	var sight behavior.Sight
	if cfg.Behavior.RequireLineOfSight {
		sight = ray
	}

	runner := coresys.NewRunner()
	if cfg.Data.HotReload {
		watcher, err := scripting.NewWatcher(cfg.Data.ScriptsDir, log)
		if err != nil {
			return fmt.Errorf("script watcher: %w", err)
		}
		defer watcher.Close()
		runner.Register(system.NewScriptReloadSystem(lua, watcher, log))
	}
	runner.Register(system.NewEventDispatchSystem(bus, ws, log))
	runner.Register(system.NewBehaviorSystem(ws, bus, registry, cfg.Behavior.DefaultSet, sight, rng, log))
	runner.Register(system.NewMovementSystem(ws, cfg.Physics.AgentCollisions))
	runner.Register(system.NewCombatSystem(ws, bus, ray, log))
	runner.Register(system.NewRegenSystem(ws))

	levelName := cfg.Level.Name
	if levelName == "" {
		levelName = cfg.Level.Path
	}
	if cfg.Snapshot.Dir != "" {
		sw, err := persist.NewSnapshotWriter(cfg.Snapshot.Dir, cfg.Snapshot.Level, log)
		if err != nil {
			return fmt.Errorf("snapshots: %w", err)
		}
		runner.Register(system.NewSnapshotSystem(ws, sw, levelName, log, cfg.Snapshot.EveryTicks))
	}
	var persistSys *system.PersistenceSystem
	if db != nil {
		persistSys = system.NewPersistenceSystem(ws, persist.NewAgentRepo(db), log, cfg.Database.SaveEveryTicks)
		runner.Register(persistSys)
	}
	runner.Register(system.NewCleanupSystem(ws))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Server.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()), zap.Uint64("ticks", runner.Ticks()))
			if persistSys != nil {
				persistSys.Save()
			}
			log.Info("realm stopped")
			return nil
		}
	}
}

func loadLevel(ctx context.Context, cfg *config.Config, db *persist.DB) (*gridmap.GridMap, error) {
	if cfg.Level.Source == "db" {
		return persist.NewLevelRepo(db).Load(ctx, cfg.Level.Name)
	}
	return gridmap.Load(cfg.Level.Path)
}

// spawnAgents instantiates every spawn entry. Entries naming an unknown
// template are logged and skipped.
func spawnAgents(ws *world.State, table *data.AgentTable, spawns []data.SpawnEntry, rng *rand.Rand, log *zap.Logger) int {
	count := 0
	for _, sp := range spawns {
		for _, pos := range sp.Positions(rng) {
			var home *geom.Vec2
			if sp.Home {
				h := pos
				home = &h
			}
			spawn, err := table.Instantiate(sp.Template, pos, home)
			if err != nil {
				log.Warn("spawn skipped", zap.String("template", sp.Template), zap.Error(err))
				continue
			}
			ws.Spawn(spawn)
			count++
		}
	}
	return count
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
