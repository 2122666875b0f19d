package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/spawnpool/internal/model"
	"github.com/udisondev/spawnpool/internal/testutil"
)

func TestPointSetRepository_RoundTrip(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := testutil.ContextWithTimeout(t, 30*time.Second)
	repo := NewPointSetRepository(pool)

	set := PointSet{
		Name:       "cave_entrance",
		Sequential: true,
		Points: []model.Location{
			model.NewLocation(-71000, 258000, -3100, 0),
			model.NewLocation(-70900, 258100, -3100, 16384),
			model.NewLocation(-70800, 258200, -3090, 65535),
		},
	}
	require.NoError(t, repo.SaveSet(ctx, set))

	got, err := repo.LoadSet(ctx, "cave_entrance")
	require.NoError(t, err)
	assert.Equal(t, set, got)

	// full replace
	set.Sequential = false
	set.Points = set.Points[:1]
	require.NoError(t, repo.SaveSet(ctx, set))

	got, err = repo.LoadSet(ctx, "cave_entrance")
	require.NoError(t, err)
	assert.False(t, got.Sequential)
	assert.Equal(t, set.Points, got.Points)
}

func TestPointSetRepository_NotFound(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := testutil.ContextWithTimeout(t, 30*time.Second)
	repo := NewPointSetRepository(pool)

	_, err := repo.LoadSet(ctx, "missing")
	assert.ErrorIs(t, err, ErrPointSetNotFound)
	assert.ErrorIs(t, repo.DeleteSet(ctx, "missing"), ErrPointSetNotFound)
}

func TestPointSetRepository_ListAndDelete(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := testutil.ContextWithTimeout(t, 30*time.Second)
	repo := NewPointSetRepository(pool)

	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, repo.SaveSet(ctx, PointSet{
			Name:   name,
			Points: []model.Location{model.NewLocation(1, 2, 3, 0)},
		}))
	}
	// empty sets are allowed; the spawner reports them
	require.NoError(t, repo.SaveSet(ctx, PointSet{Name: "empty"}))

	names, err := repo.ListSets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "empty"}, names)

	empty, err := repo.LoadSet(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, empty.Points)

	require.NoError(t, repo.DeleteSet(ctx, "b"))
	names, err = repo.ListSets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "empty"}, names)

	var orphans int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM spawn_points WHERE set_name = 'b'`).Scan(&orphans))
	assert.Zero(t, orphans, "points cascade with their set")
}
