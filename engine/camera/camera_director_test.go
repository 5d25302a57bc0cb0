package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BUka228/musical-soul/config"
)

// The default controller rests at target (0,0,0), radius 150, elevation π/6:
// position (0, 75, ~129.9).
func restingFixture(t *testing.T) (Director, CameraController) {
	t.Helper()
	ctrl := NewCameraController()
	d := NewDirector(config.DefaultConfig(), ctrl)
	require.Equal(t, DirectorResting, d.State())
	return d, ctrl
}

func controllerPosition(ctrl CameraController) [3]float32 {
	x, y, z := ctrl.Position()
	return [3]float32{x, y, z}
}

func TestNewCameraControllerDefaults(t *testing.T) {
	ctrl := NewCameraController()
	pos := controllerPosition(ctrl)
	assert.InDelta(t, 0, pos[0], 1e-3)
	assert.InDelta(t, 75, pos[1], 1e-3)
	assert.InDelta(t, 129.904, pos[2], 1e-2)
}

func TestFocusTransition(t *testing.T) {
	d, ctrl := restingFixture(t)
	focusPos := [3]float32{10, 0, 0}

	d.FocusOn(42, focusPos, 2)
	assert.Equal(t, DirectorTransitioningTo, d.State())
	id, ok := d.TargetID()
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)

	// Transition duration is 1.2s; half a transition in.
	d.Update(0.6)
	assert.Equal(t, DirectorTransitioningTo, d.State())
	_, blur := d.DepthOfField()
	assert.InDelta(t, 0.5, blur, 1e-4)

	d.Update(0.6)
	assert.Equal(t, DirectorFocused, d.State())

	// The framing pose looks at the target from size*factor = 12 units away.
	tx, ty, tz := ctrl.Target()
	assert.InDelta(t, focusPos[0], tx, 1e-3)
	assert.InDelta(t, focusPos[1], ty, 1e-3)
	assert.InDelta(t, focusPos[2], tz, 1e-3)

	d.Update(0.1)
	focusDistance, blur := d.DepthOfField()
	assert.InDelta(t, 12, focusDistance, 1e-2)
	assert.InDelta(t, 1.0, blur, 1e-4)
}

func TestFocusDistanceFloor(t *testing.T) {
	d, _ := restingFixture(t)

	// A tiny crystal still gets framed from the minimum distance.
	d.FocusOn(1, [3]float32{0, 0, 0}, 0.5)
	for i := 0; i < 4; i++ {
		d.Update(0.5)
	}
	require.Equal(t, DirectorFocused, d.State())

	focusDistance, _ := d.DepthOfField()
	assert.InDelta(t, 8, focusDistance, 1e-2)
}

func TestRefocusSameTargetIsNoOp(t *testing.T) {
	d, ctrl := restingFixture(t)
	d.FocusOn(7, [3]float32{20, 0, 0}, 1)
	d.Update(0.6)
	mid := controllerPosition(ctrl)

	// Re-focusing the in-flight target must not restart the transition.
	d.FocusOn(7, [3]float32{20, 0, 0}, 1)
	d.Update(0)
	assert.Equal(t, mid, controllerPosition(ctrl))
	assert.Equal(t, DirectorTransitioningTo, d.State())
}

func TestRetargetMidFlightDoesNotSnap(t *testing.T) {
	d, ctrl := restingFixture(t)
	d.FocusOn(1, [3]float32{30, 0, 0}, 1)
	d.Update(0.3)
	mid := controllerPosition(ctrl)

	// A new selection mid-flight starts its transition from the current
	// interpolated pose.
	d.FocusOn(2, [3]float32{-30, 0, 0}, 1)
	d.Update(0)
	assert.Equal(t, mid, controllerPosition(ctrl))

	id, ok := d.TargetID()
	require.True(t, ok)
	assert.Equal(t, uint64(2), id)
}

func TestDefocusReturnsToRestPose(t *testing.T) {
	d, ctrl := restingFixture(t)
	rest := controllerPosition(ctrl)

	d.FocusOn(5, [3]float32{15, 5, 0}, 1.5)
	for i := 0; i < 4; i++ {
		d.Update(0.5)
	}
	require.Equal(t, DirectorFocused, d.State())

	d.Defocus()
	assert.Equal(t, DirectorTransitioningBack, d.State())
	_, ok := d.TargetID()
	assert.False(t, ok)

	d.Update(0.6)
	_, blur := d.DepthOfField()
	assert.InDelta(t, 0.5, blur, 1e-4)

	d.Update(0.6)
	assert.Equal(t, DirectorResting, d.State())

	got := controllerPosition(ctrl)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, rest[i], got[i], 1e-2)
	}

	d.Update(0.1)
	_, blur = d.DepthOfField()
	assert.Equal(t, float32(0), blur)

	t.Run("orbit input resumes from the restored pose", func(t *testing.T) {
		ctrl.OrbitRight()
		moved := controllerPosition(ctrl)
		assert.NotEqual(t, got, moved)
		// Still on the original orbit sphere around the rest target.
		assert.InDelta(t, 150, ctrl.Radius(), 1e-3)
	})
}

func TestDefocusMidFlight(t *testing.T) {
	d, ctrl := restingFixture(t)
	rest := controllerPosition(ctrl)

	d.FocusOn(9, [3]float32{25, 0, 0}, 1)
	d.Update(0.4)

	// Deselecting before arrival turns the camera around from wherever it is.
	d.Defocus()
	assert.Equal(t, DirectorTransitioningBack, d.State())
	for i := 0; i < 4; i++ {
		d.Update(0.5)
	}
	assert.Equal(t, DirectorResting, d.State())

	got := controllerPosition(ctrl)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, rest[i], got[i], 1e-2)
	}
}

func TestDefocusWhileRestingIsNoOp(t *testing.T) {
	d, _ := restingFixture(t)
	d.Defocus()
	assert.Equal(t, DirectorResting, d.State())
}

func TestDirectorStateString(t *testing.T) {
	assert.Equal(t, "resting", DirectorResting.String())
	assert.Equal(t, "transitioning_to", DirectorTransitioningTo.String())
	assert.Equal(t, "focused", DirectorFocused.String())
	assert.Equal(t, "transitioning_back", DirectorTransitioningBack.String())
}

func TestNewDirectorPanics(t *testing.T) {
	assert.Panics(t, func() { NewDirector(nil, NewCameraController()) })
	assert.Panics(t, func() { NewDirector(config.DefaultConfig(), nil) })
}
