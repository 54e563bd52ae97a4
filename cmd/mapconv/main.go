// mapconv converts a Tiled JSON export into the engine's map format.
//
// Usage:
//
//	go run ./cmd/mapconv [-decl decl.yaml] [-db dsn -name level] <tiled.json> <out.json>
//
// The declaration names the tilesets to keep (with their texture ids), the
// collision kind of tile layers, and the object kind of object layers. With
// -db the converted level is also stored in PostgreSQL under -name.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/tilerealm/engine/internal/config"
	"github.com/tilerealm/engine/internal/gridmap"
	"github.com/tilerealm/engine/internal/persist"
)

func main() {
	declPath := flag.String("decl", "", "YAML declaration of tilesets, collisions and object kinds")
	dsn := flag.String("db", "", "PostgreSQL DSN; also store the level in the database")
	name := flag.String("name", "", "level name when storing to the database")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: mapconv [-decl decl.yaml] [-db dsn -name level] <tiled.json> <out.json>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*declPath, *dsn, *name, flag.Arg(0), flag.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(declPath, dsn, name, in, out string) error {
	decl := &gridmap.TiledDeclaration{}
	if declPath != "" {
		d, err := gridmap.LoadTiledDeclaration(declPath)
		if err != nil {
			return err
		}
		decl = d
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	m, err := gridmap.FromTiled(raw, decl)
	if err != nil {
		return fmt.Errorf("convert %s: %w", in, err)
	}
	if err := gridmap.Save(m, out); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%dx%d cells, %d layers, %d tilesets)\n", out, m.GridSize.W, m.GridSize.H, len(m.Layers), len(m.Tilesets))

	if dsn == "" {
		return nil
	}
	if name == "" {
		return fmt.Errorf("-db needs -name")
	}
	return store(dsn, name, m)
}

func store(dsn, name string, m *gridmap.GridMap) error {
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxLifetime: time.Minute}, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := persist.NewLevelRepo(db).Save(ctx, name, m); err != nil {
		return err
	}
	fmt.Printf("stored level %q\n", name)
	return nil
}
