package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tilerealm/engine/internal/world"
)

// AgentRepo journals agent positions and modes by tick.
type AgentRepo struct {
	db *DB
}

func NewAgentRepo(db *DB) *AgentRepo {
	return &AgentRepo{db: db}
}

var agentStateColumns = []string{"tick", "agent_id", "name", "template", "x", "y", "mode", "health"}

// SaveStates writes one row per agent for tick. Rows for the same tick are
// replaced so a retried save does not conflict.
func (r *AgentRepo) SaveStates(ctx context.Context, tick uint64, states []world.AgentState) error {
	if len(states) == 0 {
		return nil
	}
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM agent_states WHERE tick = $1`, int64(tick)); err != nil {
			return fmt.Errorf("clear tick %d: %w", tick, err)
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"agent_states"}, agentStateColumns,
			pgx.CopyFromSlice(len(states), func(i int) ([]any, error) {
				s := states[i]
				return []any{int64(tick), int64(s.ID), s.Name, s.Template, s.X, s.Y, s.Mode, s.Health}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy agent states: %w", err)
		}
		return nil
	})
}

// LoadTick returns the states journaled for tick, ordered by agent id.
func (r *AgentRepo) LoadTick(ctx context.Context, tick uint64) ([]world.AgentState, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT agent_id, name, template, x, y, mode, health
		 FROM agent_states WHERE tick = $1 ORDER BY agent_id`, int64(tick),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []world.AgentState
	for rows.Next() {
		var (
			s  world.AgentState
			id int64
		)
		if err := rows.Scan(&id, &s.Name, &s.Template, &s.X, &s.Y, &s.Mode, &s.Health); err != nil {
			return nil, err
		}
		s.ID = uint64(id)
		result = append(result, s)
	}
	return result, rows.Err()
}

// Prune deletes journal rows older than keepFrom.
func (r *AgentRepo) Prune(ctx context.Context, keepFrom uint64) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM agent_states WHERE tick < $1`, int64(keepFrom))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
