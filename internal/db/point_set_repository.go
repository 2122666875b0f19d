package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/spawnpool/internal/model"
)

// ErrPointSetNotFound is returned when a named point set does not exist.
var ErrPointSetNotFound = errors.New("point set not found")

// PointSet is a named, ordered list of spawn candidates.
type PointSet struct {
	Name       string
	Sequential bool
	Points     []model.Location
}

// PointSetRepository stores spawn point sets.
type PointSetRepository struct {
	pool *pgxpool.Pool
}

// NewPointSetRepository creates a new point set repository
func NewPointSetRepository(pool *pgxpool.Pool) *PointSetRepository {
	return &PointSetRepository{pool: pool}
}

// LoadSet loads a point set with its points in insertion order.
func (r *PointSetRepository) LoadSet(ctx context.Context, name string) (PointSet, error) {
	set := PointSet{Name: name}

	err := r.pool.QueryRow(ctx,
		`SELECT sequential FROM spawn_point_sets WHERE name = $1`, name,
	).Scan(&set.Sequential)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return set, fmt.Errorf("loading point set %q: %w", name, ErrPointSetNotFound)
		}
		return set, fmt.Errorf("loading point set %q: %w", name, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT x, y, z, heading
		FROM spawn_points
		WHERE set_name = $1
		ORDER BY seq
	`, name)
	if err != nil {
		return set, fmt.Errorf("loading points of set %q: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, z, heading int32
		if err := rows.Scan(&x, &y, &z, &heading); err != nil {
			return set, fmt.Errorf("scanning point row: %w", err)
		}
		set.Points = append(set.Points, model.NewLocation(x, y, z, uint16(heading)))
	}
	if err := rows.Err(); err != nil {
		return set, fmt.Errorf("iterating point rows: %w", err)
	}

	return set, nil
}

// SaveSet creates or fully replaces a point set.
func (r *PointSetRepository) SaveSet(ctx context.Context, set PointSet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO spawn_point_sets (name, sequential, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET sequential = EXCLUDED.sequential, updated_at = EXCLUDED.updated_at
	`, set.Name, set.Sequential)
	if err != nil {
		return fmt.Errorf("upserting point set %q: %w", set.Name, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM spawn_points WHERE set_name = $1`, set.Name); err != nil {
		return fmt.Errorf("deleting old points of set %q: %w", set.Name, err)
	}

	if len(set.Points) > 0 {
		rows := make([][]any, 0, len(set.Points))
		for i, p := range set.Points {
			rows = append(rows, []any{set.Name, int32(i), p.X, p.Y, p.Z, int32(p.Heading)})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"spawn_points"},
			[]string{"set_name", "seq", "x", "y", "z", "heading"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("inserting points of set %q: %w", set.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit point set tx: %w", err)
	}

	slog.Debug("saved point set",
		"name", set.Name,
		"points", len(set.Points))
	return nil
}

// ListSets returns all point set names in alphabetical order.
func (r *PointSetRepository) ListSets(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM spawn_point_sets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing point sets: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting point set names: %w", err)
	}
	return names, nil
}

// DeleteSet removes a point set and its points.
func (r *PointSetRepository) DeleteSet(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM spawn_point_sets WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting point set %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting point set %q: %w", name, ErrPointSetNotFound)
	}
	return nil
}
