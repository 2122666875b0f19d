package placement

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/spawnpool/internal/model"
)

// countingStrategy wraps a Strategy and counts samples.
type countingStrategy struct {
	Strategy
	samples int
}

func (c *countingStrategy) Sample(r *rand.Rand) (model.Location, bool) {
	c.samples++
	return c.Strategy.Sample(r)
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func testPoints() []model.Location {
	return []model.Location{
		model.NewLocation(0, 0, 0, 0),
		model.NewLocation(100, 0, 0, 16384),
		model.NewLocation(200, 0, 0, 32768),
	}
}

func TestSearch_NoCheckAcceptsFirst(t *testing.T) {
	s := &countingStrategy{Strategy: NewPointSet(testPoints())}

	res, err := Search(newRand(), s, nil, DefaultMaxAttempts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, s.samples)
	assert.Contains(t, testPoints(), res.Location)
}

func TestSearch_ExhaustedAfterExactlyMaxAttempts(t *testing.T) {
	for _, maxAttempts := range []int{1, 5, 12} {
		s := &countingStrategy{Strategy: NewPointSet(testPoints())}
		checks := 0
		blocked := func(model.Location) bool {
			checks++
			return false
		}

		res, err := Search(newRand(), s, blocked, maxAttempts)
		assert.ErrorIs(t, err, ErrExhausted)
		assert.Equal(t, maxAttempts, res.Attempts)
		assert.Equal(t, maxAttempts, s.samples, "samples")
		assert.Equal(t, maxAttempts, checks, "occupancy checks")
	}
}

func TestSearch_ClearOnLaterAttempt(t *testing.T) {
	s := NewSequentialPointSet(testPoints())
	onlyLast := func(at model.Location) bool { return at.X == 200 }

	res, err := Search(newRand(), s, onlyLast, DefaultMaxAttempts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, testPoints()[2], res.Location)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name        string
		strategy    Strategy
		maxAttempts int
		wantErr     error
	}{
		{"empty point set", NewPointSet(nil), 5, ErrNoCandidates},
		{"nil strategy", nil, 5, ErrNoCandidates},
		{"zero attempts", NewPointSet(testPoints()), 0, ErrInvalidAttempts},
		{"negative attempts", NewPointSet(testPoints()), -1, ErrInvalidAttempts},
		{
			name:        "invalid volume",
			strategy:    &Volume{Shape: model.Sphere(model.Location{}, -5)},
			maxAttempts: 5,
			wantErr:     model.ErrInvalidShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Search(newRand(), tt.strategy, nil, tt.maxAttempts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSearch_NilRandUsesFreshSource(t *testing.T) {
	res, err := Search(nil, NewPointSet(testPoints()), nil, 1)
	require.NoError(t, err)
	assert.Contains(t, testPoints(), res.Location)
}

func TestSearch_DeterministicForSeed(t *testing.T) {
	v := &Volume{Shape: model.Box(model.Location{}, model.Extents{X: 1000, Y: 1000, Z: 10})}
	first, err := Search(rand.New(rand.NewPCG(42, 42)), v, nil, 1)
	require.NoError(t, err)
	second, err := Search(rand.New(rand.NewPCG(42, 42)), v, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPointSet_SequentialKeepsPosition(t *testing.T) {
	s := NewSequentialPointSet(testPoints())
	r := newRand()

	var got []int32
	for range 4 {
		res, err := Search(r, s, nil, 1)
		require.NoError(t, err)
		got = append(got, res.Location.X)
	}
	assert.Equal(t, []int32{0, 100, 200, 0}, got)
	assert.True(t, s.Sequential())
}

func TestPointSet_RandomCoversAllPoints(t *testing.T) {
	s := NewPointSet(testPoints())
	r := newRand()

	hits := make(map[model.Location]int)
	for range 300 {
		loc, ok := s.Sample(r)
		require.True(t, ok)
		hits[loc]++
	}
	assert.Len(t, hits, 3)
	for loc, n := range hits {
		assert.Greater(t, n, 50, "point %+v sampled %d times", loc, n)
	}
}

func TestPointSet_CopiesInput(t *testing.T) {
	points := testPoints()
	s := NewPointSet(points)
	points[0] = model.NewLocation(-1, -1, -1, 0)

	for range 50 {
		loc, _ := s.Sample(newRand())
		assert.NotEqual(t, int32(-1), loc.X)
	}
	assert.Equal(t, 3, s.Len())
}

func TestVolume_SamplesInside(t *testing.T) {
	center := model.NewLocation(1000, -2000, 50, 0)
	tests := []struct {
		name  string
		shape model.Shape
	}{
		{"box", model.Box(center, model.Extents{X: 300, Y: 10, Z: 0})},
		{"sphere", model.Sphere(center, 250)},
		{"point sphere", model.Sphere(center, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Volume{Shape: tt.shape, Heading: 777}
			r := newRand()
			for range 500 {
				loc, ok := v.Sample(r)
				require.True(t, ok)
				require.True(t, tt.shape.Contains(loc), "sample %+v outside %s", loc, tt.shape.Kind)
				require.Equal(t, uint16(777), loc.Heading)
			}
		})
	}
}

func TestVolume_RandomHeading(t *testing.T) {
	v := &Volume{Shape: model.Sphere(model.Location{}, 10), RandomHeading: true}
	r := newRand()

	headings := make(map[uint16]bool)
	for range 20 {
		loc, _ := v.Sample(r)
		headings[loc.Heading] = true
	}
	assert.Greater(t, len(headings), 1)
}

func TestClearance_PassesSelf(t *testing.T) {
	var gotRadius int32
	var gotExclude model.ObjectID
	oracle := OracleFunc(func(at model.Location, radius int32, exclude model.ObjectID) bool {
		gotRadius, gotExclude = radius, exclude
		return at.X != 0
	})

	check := Clearance(oracle, 64, 7)
	assert.True(t, check(model.NewLocation(0, 0, 0, 0)))
	assert.False(t, check(model.NewLocation(5, 0, 0, 0)))
	assert.Equal(t, int32(64), gotRadius)
	assert.Equal(t, model.ObjectID(7), gotExclude)
}
