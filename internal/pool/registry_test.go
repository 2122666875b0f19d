package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	widgets, _ := widgetFactory()
	wp, err := New("widgets", widgets, WithCapacity[*widget](1))
	require.NoError(t, err)
	pp, err := New("plain", func() (*plain, error) { return &plain{}, nil })
	require.NoError(t, err)

	require.NoError(t, r.Register(wp))
	require.NoError(t, r.Register(pp))
	assert.Error(t, r.Register(wp), "duplicate name")

	assert.Equal(t, []string{"plain", "widgets"}, r.Names())

	got, err := Lookup[*widget](r, "widgets")
	require.NoError(t, err)
	assert.Same(t, wp, got)

	_, err = Lookup[*plain](r, "widgets")
	assert.Error(t, err, "type mismatch")
	assert.NotErrorIs(t, err, ErrNotRegistered)

	_, err = Lookup[*widget](r, "missing")
	assert.ErrorIs(t, err, ErrNotRegistered)

	m, err := r.Get("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", m.Name())

	r.Close()
	assert.True(t, wp.Closed())
	assert.True(t, pp.Closed())
}
