package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BUka228/musical-soul/common"
)

func TestHeadlessDeviceLifecycle(t *testing.T) {
	d := NewHeadlessDevice()

	h, err := d.CreateObject(common.GeometrySharp)
	require.NoError(t, err)
	require.NotEqual(t, NilHandle, h)
	assert.Equal(t, 1, d.Live())
	assert.Equal(t, 1, d.Created())

	t.Run("new objects start visible with unit scale", func(t *testing.T) {
		state, ok := d.State(h)
		require.True(t, ok)
		assert.Equal(t, common.GeometrySharp, state.Class)
		assert.Equal(t, [3]float32{1, 1, 1}, state.Scale)
		assert.True(t, state.Visible)
	})

	t.Run("writes are recorded", func(t *testing.T) {
		d.SetTransform(h, [3]float32{1, 2, 3}, [3]float32{2, 2, 2}, [3]float32{0, 0.5, 0})
		d.SetMaterialParams(h, "#8c0d2a", 0.4)
		d.SetVisible(h, false)

		state, ok := d.State(h)
		require.True(t, ok)
		assert.Equal(t, [3]float32{1, 2, 3}, state.Position)
		assert.Equal(t, [3]float32{2, 2, 2}, state.Scale)
		assert.Equal(t, "#8c0d2a", state.Color)
		assert.InDelta(t, 0.4, state.Emissive, 1e-6)
		assert.False(t, state.Visible)
	})

	t.Run("dispose frees the handle", func(t *testing.T) {
		d.Dispose(h)
		assert.Equal(t, 0, d.Live())
		assert.Equal(t, 1, d.Disposed())
		_, ok := d.State(h)
		assert.False(t, ok)
	})

	t.Run("double dispose panics", func(t *testing.T) {
		assert.Panics(t, func() { d.Dispose(h) })
	})

	t.Run("writes to a disposed handle panic", func(t *testing.T) {
		assert.Panics(t, func() { d.SetVisible(h, true) })
	})
}

func TestHeadlessDeviceObjectBudget(t *testing.T) {
	d := NewHeadlessDevice(WithObjectBudget(2))

	h1, err := d.CreateObject(common.GeometrySharp)
	require.NoError(t, err)
	_, err = d.CreateObject(common.GeometrySmooth)
	require.NoError(t, err)

	h3, err := d.CreateObject(common.GeometryRounded)
	assert.Error(t, err)
	assert.Equal(t, NilHandle, h3)

	// Disposing frees budget for new objects.
	d.Dispose(h1)
	_, err = d.CreateObject(common.GeometryRounded)
	assert.NoError(t, err)
}

func TestHeadlessDeviceHandlesAreUnique(t *testing.T) {
	d := NewHeadlessDevice()
	seen := make(map[Handle]struct{})
	for i := 0; i < 50; i++ {
		h, err := d.CreateObject(common.GeometrySharp)
		require.NoError(t, err)
		_, dup := seen[h]
		require.False(t, dup)
		seen[h] = struct{}{}
	}
}
