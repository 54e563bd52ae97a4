package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tilerealm/engine/internal/gridmap"
)

// ErrLevelNotFound is returned by LevelRepo.Load for an unknown name.
var ErrLevelNotFound = errors.New("level not found")

// LevelRepo stores levels as their persisted JSON document in a jsonb column.
type LevelRepo struct {
	db *DB
}

func NewLevelRepo(db *DB) *LevelRepo {
	return &LevelRepo{db: db}
}

// Save inserts or replaces the named level.
func (r *LevelRepo) Save(ctx context.Context, name string, m *gridmap.GridMap) error {
	doc, err := gridmap.Encode(m)
	if err != nil {
		return fmt.Errorf("encode level %s: %w", name, err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO levels (name, document) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`,
		name, doc,
	)
	if err != nil {
		return fmt.Errorf("save level %s: %w", name, err)
	}
	return nil
}

// Load fetches, validates and decodes the named level.
func (r *LevelRepo) Load(ctx context.Context, name string) (*gridmap.GridMap, error) {
	var doc []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT document FROM levels WHERE name = $1`, name,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load level %s: %w", name, err)
	}
	m, err := gridmap.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("decode level %s: %w", name, err)
	}
	return m, nil
}

// Names lists stored levels alphabetically.
func (r *LevelRepo) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT name FROM levels ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
