package scene

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/config"
	"github.com/BUka228/musical-soul/engine/camera"
	"github.com/BUka228/musical-soul/engine/graphics"
)

func testRecord(i int, genre string) common.TrackRecord {
	return common.TrackRecord{
		ID:              fmt.Sprintf("track-%03d", i),
		Title:           fmt.Sprintf("Track %d", i),
		Artist:          fmt.Sprintf("Artist %d", i%10),
		Genre:           genre,
		DurationSeconds: 180 + i,
		Popularity:      (i * 13) % 101,
		Available:       true,
	}
}

func testCatalogue(n int) []common.TrackRecord {
	genres := []string{"metal", "rock", "jazz", "classical", "pop"}
	records := make([]common.TrackRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, testRecord(i, genres[i%len(genres)]))
	}
	return records
}

// projectToScreen maps a world position to screen pixels through the camera's
// view-projection matrix, inverting the RayFromScreen convention.
func projectToScreen(vp [16]float32, pos [3]float32, width, height int) (float32, float32) {
	cx := vp[0]*pos[0] + vp[4]*pos[1] + vp[8]*pos[2] + vp[12]
	cy := vp[1]*pos[0] + vp[5]*pos[1] + vp[9]*pos[2] + vp[13]
	cw := vp[3]*pos[0] + vp[7]*pos[1] + vp[11]*pos[2] + vp[15]
	ndcX := cx / cw
	ndcY := cy / cw
	return (ndcX + 1) / 2 * float32(width), (1 - ndcY) / 2 * float32(height)
}

func TestLoad(t *testing.T) {
	device := graphics.NewHeadlessDevice()
	s := NewScene("test", config.DefaultConfig(), device)

	records := []common.TrackRecord{
		testRecord(0, "metal"),
		testRecord(1, "jazz"),
		testRecord(2, "metal"),
	}
	require.NoError(t, s.Load(records))

	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 3, device.Created())
	assert.Equal(t, 3, device.Live())

	t.Run("objects are addressable by track and scene ID", func(t *testing.T) {
		id, ok := s.ByTrackID("track-001")
		require.True(t, ok)
		obj := s.Get(id)
		require.NotNil(t, obj)
		assert.Equal(t, "track-001", obj.TrackID())
		assert.Equal(t, common.GeometrySmooth, obj.Attributes().Geometry)
	})

	t.Run("renderables carry the mapped geometry class", func(t *testing.T) {
		id, ok := s.ByTrackID("track-000")
		require.True(t, ok)
		state, live := device.State(s.Get(id).Handle())
		require.True(t, live)
		assert.Equal(t, common.GeometrySharp, state.Class)
	})

	t.Run("pulse groups form at load", func(t *testing.T) {
		// Two metal tracks cluster, jazz stands apart.
		assert.Equal(t, 2, s.Pulse().GroupCount())
	})

	t.Run("shared resources are acquired per object", func(t *testing.T) {
		cache := s.Optimizer().Cache()
		assert.Equal(t, 2, cache.GeometryRefs(common.GeometrySharp))
		assert.Equal(t, 2, cache.GeometryCount())
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("load on a non-empty scene fails", func(t *testing.T) {
		s := NewScene("test", config.DefaultConfig(), graphics.NewHeadlessDevice())
		require.NoError(t, s.Load(testCatalogue(3)))
		assert.Error(t, s.Load(testCatalogue(3)))
	})

	t.Run("load after dispose fails", func(t *testing.T) {
		s := NewScene("test", config.DefaultConfig(), graphics.NewHeadlessDevice())
		s.Dispose()
		assert.Error(t, s.Load(testCatalogue(3)))
	})

	t.Run("duplicate track IDs in the catalogue panic", func(t *testing.T) {
		s := NewScene("test", config.DefaultConfig(), graphics.NewHeadlessDevice())
		records := []common.TrackRecord{testRecord(0, "metal"), testRecord(0, "jazz")}
		assert.Panics(t, func() { _ = s.Load(records) })
	})
}

func TestTick(t *testing.T) {
	device := graphics.NewHeadlessDevice()
	s := NewScene("test", config.DefaultConfig(), device)
	require.NoError(t, s.Load(testCatalogue(250)))

	pointer := common.PointerState{X: 640, Y: 360}
	report := s.Tick(1.0/60.0, pointer)

	assert.Equal(t, 250, report.Objects)
	assert.Greater(t, report.Visible, 0)
	assert.Greater(t, report.DrawCalls, 0)
	assert.Greater(t, report.Triangles, 0)

	t.Run("batching keeps draw calls below visible objects", func(t *testing.T) {
		assert.Less(t, report.DrawCalls, report.Visible)
	})

	t.Run("device transforms track the pulsating scale", func(t *testing.T) {
		id, ok := s.ByTrackID("track-000")
		require.True(t, ok)
		obj := s.Get(id)
		state, live := device.State(obj.Handle())
		require.True(t, live)
		assert.Equal(t, obj.Position(), state.Position)
		assert.InDelta(t, obj.CurrentScale(), state.Scale[0], 1e-5)
		assert.Equal(t, obj.Attributes().Color, state.Color)
	})

	t.Run("monitor records the frame", func(t *testing.T) {
		snap := s.Optimizer().Monitor().Snapshot()
		assert.Equal(t, report.DrawCalls, snap.DrawCalls)
		assert.Equal(t, report.Triangles, snap.Triangles)
		assert.Greater(t, snap.MemoryMB, 0.0)
	})
}

func TestAddIsDeferredToFrameBoundary(t *testing.T) {
	s := NewScene("test", config.DefaultConfig(), graphics.NewHeadlessDevice())
	require.NoError(t, s.Load(testCatalogue(3)))

	s.Add(testRecord(10, "metal"))
	assert.Equal(t, 3, s.Count())

	s.Tick(0, common.PointerState{})
	assert.Equal(t, 4, s.Count())

	id, ok := s.ByTrackID("track-010")
	require.True(t, ok)
	_, grouped := s.Pulse().GroupOf(id)
	assert.True(t, grouped)

	t.Run("records already in the scene are skipped", func(t *testing.T) {
		s.Add(testRecord(0, "metal"))
		s.Tick(0, common.PointerState{})
		assert.Equal(t, 4, s.Count())
	})

	t.Run("existing objects keep their placement", func(t *testing.T) {
		id, ok := s.ByTrackID("track-000")
		require.True(t, ok)
		before := s.Get(id).Position()

		s.Add(testRecord(11, "pop"), testRecord(12, "pop"))
		s.Tick(0, common.PointerState{})
		assert.Equal(t, before, s.Get(id).Position())
	})
}

func TestRemove(t *testing.T) {
	device := graphics.NewHeadlessDevice()
	s := NewScene("test", config.DefaultConfig(), device)
	require.NoError(t, s.Load(testCatalogue(3)))

	id, ok := s.ByTrackID("track-001")
	require.True(t, ok)
	geom := s.Get(id).Attributes().Geometry
	refsBefore := s.Optimizer().Cache().GeometryRefs(geom)

	s.Remove(id)
	assert.Equal(t, 3, s.Count(), "removal waits for the frame boundary")

	s.Tick(0, common.PointerState{})
	assert.Equal(t, 2, s.Count())
	assert.Nil(t, s.Get(id))
	_, ok = s.ByTrackID("track-001")
	assert.False(t, ok)
	assert.Equal(t, 1, device.Disposed())
	assert.Equal(t, refsBefore-1, s.Optimizer().Cache().GeometryRefs(geom))

	t.Run("removing an unknown ID is ignored", func(t *testing.T) {
		s.Remove(9999)
		s.Tick(0, common.PointerState{})
		assert.Equal(t, 2, s.Count())
	})
}

func TestSelectionDrivesCamera(t *testing.T) {
	device := graphics.NewHeadlessDevice()
	s := NewScene("test", config.DefaultConfig(), device)
	require.NoError(t, s.Load([]common.TrackRecord{testRecord(0, "metal")}))

	id, ok := s.ByTrackID("track-000")
	require.True(t, ok)
	obj := s.Get(id)

	// First frame establishes visibility, then a click on the object's
	// projected screen position selects it.
	s.Tick(1.0/60.0, common.PointerState{})
	require.True(t, obj.Visible())

	px, py := projectToScreen(s.Camera().ViewProjectionMatrix(), obj.Position(), 1280, 720)
	s.Tick(1.0/60.0, common.PointerState{X: px, Y: py, Clicked: true})

	selected, ok := s.Interaction().SelectedID()
	require.True(t, ok)
	assert.Equal(t, id, selected)
	assert.Equal(t, camera.DirectorTransitioningTo, s.Director().State())

	targetID, ok := s.Director().TargetID()
	require.True(t, ok)
	assert.Equal(t, id, targetID)

	t.Run("escape releases the focus", func(t *testing.T) {
		s.Tick(1.0/60.0, common.PointerState{X: 0, Y: 0, Escape: true})
		_, ok := s.Interaction().SelectedID()
		assert.False(t, ok)
		assert.Equal(t, camera.DirectorTransitioningBack, s.Director().State())
	})

	t.Run("removing the selected object clears the selection", func(t *testing.T) {
		// Let the return transition finish so the camera is static again,
		// then re-select and remove.
		for i := 0; i < 90; i++ {
			s.Tick(1.0/60.0, common.PointerState{})
		}
		require.Equal(t, camera.DirectorResting, s.Director().State())

		px, py := projectToScreen(s.Camera().ViewProjectionMatrix(), obj.Position(), 1280, 720)
		s.Tick(1.0/60.0, common.PointerState{X: px, Y: py, Clicked: true})
		_, ok := s.Interaction().SelectedID()
		require.True(t, ok)

		s.Remove(id)
		s.Tick(0, common.PointerState{})
		_, ok = s.Interaction().SelectedID()
		assert.False(t, ok)
	})
}

func TestExternalSelectionConsumer(t *testing.T) {
	device := graphics.NewHeadlessDevice()
	s := NewScene("test", config.DefaultConfig(), device)
	require.NoError(t, s.Load([]common.TrackRecord{testRecord(0, "metal")}))

	// An info-panel style consumer registered after scene construction must
	// coexist with the built-in selection-to-camera wiring.
	type event struct {
		id uint64
		ok bool
	}
	var events []event
	s.Interaction().OnSelectionChanged(func(id uint64, ok bool) {
		events = append(events, event{id, ok})
	})

	id, ok := s.ByTrackID("track-000")
	require.True(t, ok)
	obj := s.Get(id)

	s.Tick(1.0/60.0, common.PointerState{})
	require.True(t, obj.Visible())

	px, py := projectToScreen(s.Camera().ViewProjectionMatrix(), obj.Position(), 1280, 720)
	s.Tick(1.0/60.0, common.PointerState{X: px, Y: py, Clicked: true})

	assert.Equal(t, []event{{id, true}}, events)
	assert.Equal(t, camera.DirectorTransitioningTo, s.Director().State())

	s.Tick(1.0/60.0, common.PointerState{Escape: true})
	assert.Equal(t, []event{{id, true}, {0, false}}, events)
	assert.Equal(t, camera.DirectorTransitioningBack, s.Director().State())
}

func TestFieldOwnership(t *testing.T) {
	device := graphics.NewHeadlessDevice()
	s := NewScene("test", config.DefaultConfig(), device)
	require.NoError(t, s.Load([]common.TrackRecord{testRecord(0, "metal")}))

	id, ok := s.ByTrackID("track-000")
	require.True(t, ok)
	obj := s.Get(id)

	type pulseFields struct {
		phase, scale, emissive float32
		rotation               [3]float32
	}
	snapPulse := func() pulseFields {
		return pulseFields{obj.PulsePhase(), obj.CurrentScale(), obj.Emissive(), obj.Rotation()}
	}

	// Pointer parked in a corner: no hover, no click.
	miss := common.PointerState{X: 1, Y: 1}

	// Settle one frame so every subsystem has written its initial state.
	s.Tick(1.0/60.0, miss)
	require.True(t, obj.Visible())

	t.Run("pulse writes only pulsation fields", func(t *testing.T) {
		before := snapPulse()
		s.Tick(1.0/60.0, miss)

		assert.NotEqual(t, before.phase, obj.PulsePhase())
		assert.NotEqual(t, before.rotation, obj.Rotation())
		assert.False(t, obj.Hovered())
		assert.False(t, obj.Selected())
		assert.True(t, obj.Visible())
	})

	t.Run("interaction writes only hover and selection", func(t *testing.T) {
		// Freeze the pulse so any pulsation-field write would show.
		s.Pulse().SetEnabled(false)
		before := snapPulse()

		px, py := projectToScreen(s.Camera().ViewProjectionMatrix(), obj.Position(), 1280, 720)
		s.Tick(0, common.PointerState{X: px, Y: py})

		assert.True(t, obj.Hovered())
		assert.False(t, obj.Selected())
		assert.Equal(t, before, snapPulse())
		assert.True(t, obj.Visible())
	})

	t.Run("optimizer writes only visibility", func(t *testing.T) {
		// Clear the hover with the pointer away, then swing the camera so the
		// object leaves the frustum.
		s.Tick(0, miss)
		require.False(t, obj.Hovered())
		before := snapPulse()

		s.Camera().Controller().SetTarget(10000, 0, 0)
		s.Tick(0, miss)

		assert.False(t, obj.Visible())
		assert.False(t, obj.Hovered())
		assert.False(t, obj.Selected())
		assert.Equal(t, before, snapPulse())
	})
}

func TestRenderableBudgetExhaustion(t *testing.T) {
	device := graphics.NewHeadlessDevice(graphics.WithObjectBudget(2))
	s := NewScene("test", config.DefaultConfig(), device)
	require.NoError(t, s.Load(testCatalogue(3)))

	// All three tracks exist in the scene; only two got renderables.
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 2, device.Live())

	nilHandles := 0
	for _, obj := range s.Objects() {
		if obj.Handle() == graphics.NilHandle {
			nilHandles++
		}
	}
	assert.Equal(t, 1, nilHandles)

	// The frame pipeline skips handleless objects instead of failing.
	report := s.Tick(1.0/60.0, common.PointerState{})
	assert.Equal(t, 3, report.Objects)

	s.Dispose()
	assert.Equal(t, device.Created(), device.Disposed())
}

func TestDispose(t *testing.T) {
	device := graphics.NewHeadlessDevice()
	s := NewScene("test", config.DefaultConfig(), device)
	require.NoError(t, s.Load(testCatalogue(5)))

	s.Dispose()
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 0, device.Live())
	assert.Equal(t, device.Created(), device.Disposed())
	assert.Equal(t, 0, s.Optimizer().Cache().GeometryCount())
	assert.Equal(t, 0, s.Optimizer().Cache().MaterialCount())

	// Idempotent: a second Dispose must not double-free renderables.
	s.Dispose()
	assert.Equal(t, 5, device.Disposed())

	t.Run("tick after dispose is inert", func(t *testing.T) {
		report := s.Tick(1.0/60.0, common.PointerState{})
		assert.Equal(t, FrameReport{}, report)
	})
}

func TestNewScenePanics(t *testing.T) {
	assert.Panics(t, func() { NewScene("test", nil, graphics.NewHeadlessDevice()) })
	assert.Panics(t, func() { NewScene("test", config.DefaultConfig(), nil) })
}
