package render_optimizer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/config"
	"github.com/BUka228/musical-soul/engine/track_object"
)

// testViewProj is a camera at (0, 0, 100) looking at the origin with a 45
// degree square frustum. Objects near the origin are on screen; objects far
// off-axis or behind the camera are not.
func testViewProj() [16]float32 {
	var view, proj, vp [16]float32
	common.LookAt(view[:], 0, 0, 100, 0, 0, 0, 0, 1, 0)
	common.Perspective(proj[:], 0.785398, 1, 0.1, 2000)
	common.Mul4(vp[:], proj[:], view[:])
	return vp
}

func makeObject(id uint64, class common.GeometryClass, size float32, position [3]float32) track_object.TrackObject {
	return track_object.NewTrackObject(
		track_object.WithID(id),
		track_object.WithRecord(common.TrackRecord{ID: fmt.Sprintf("track-%03d", id)}),
		track_object.WithAttributes(common.VisualAttributes{
			Geometry: class,
			Size:     size,
			Position: position,
		}),
	)
}

func TestUpdateCulling(t *testing.T) {
	o := NewOptimizer(config.DefaultConfig())
	vp := testViewProj()

	onScreen := makeObject(1, common.GeometrySharp, 1, [3]float32{0, 0, 0})
	behind := makeObject(2, common.GeometrySharp, 1, [3]float32{0, 0, 300})
	offAxis := makeObject(3, common.GeometrySharp, 1, [3]float32{500, 0, 0})
	disabled := makeObject(4, common.GeometrySharp, 1, [3]float32{0, 0, 0})
	disabled.SetEnabled(false)

	o.Update(vp, []track_object.TrackObject{onScreen, behind, offAxis, disabled})

	assert.True(t, onScreen.Visible())
	assert.False(t, behind.Visible())
	assert.False(t, offAxis.Visible())
	assert.False(t, disabled.Visible())

	plan := o.Plan()
	assert.Equal(t, 1, plan.Visible)
	assert.Equal(t, 1, plan.DrawCalls)
	assert.Equal(t, 320, plan.Triangles)
}

func TestPlanBatching(t *testing.T) {
	o := NewOptimizer(config.DefaultConfig())
	vp := testViewProj()

	// Five sharp crystals in one size bucket, two smooth in another, and one
	// rounded singleton. With a batch minimum of 3 that is one instanced draw
	// plus three individual draws.
	objects := []track_object.TrackObject{
		makeObject(1, common.GeometrySharp, 1.0, [3]float32{0, 0, 0}),
		makeObject(2, common.GeometrySharp, 1.05, [3]float32{5, 0, 0}),
		makeObject(3, common.GeometrySharp, 0.95, [3]float32{-5, 0, 0}),
		makeObject(4, common.GeometrySharp, 1.1, [3]float32{0, 5, 0}),
		makeObject(5, common.GeometrySharp, 0.9, [3]float32{0, -5, 0}),
		makeObject(6, common.GeometrySmooth, 2.0, [3]float32{10, 0, 0}),
		makeObject(7, common.GeometrySmooth, 2.0, [3]float32{-10, 0, 0}),
		makeObject(8, common.GeometryRounded, 1.5, [3]float32{0, 10, 0}),
	}
	o.Update(vp, objects)

	plan := o.Plan()
	assert.Equal(t, 8, plan.Visible)
	require.Len(t, plan.Batches, 1)
	assert.Equal(t, BatchKey{Class: common.GeometrySharp, Bucket: 4}, plan.Batches[0].Key)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, plan.Batches[0].Members)
	assert.ElementsMatch(t, []uint64{6, 7, 8}, plan.Individual)
	assert.Equal(t, 4, plan.DrawCalls)
	assert.Equal(t, 5*320+2*960+480, plan.Triangles)
}

func TestPlanDeterminism(t *testing.T) {
	vp := testViewProj()
	build := func() DrawPlan {
		o := NewOptimizer(config.DefaultConfig())
		var objects []track_object.TrackObject
		for i := uint64(1); i <= 40; i++ {
			class := common.GeometryClass(i % 3)
			objects = append(objects, makeObject(i, class, 0.5+float32(i%6)*0.4, [3]float32{float32(i) - 20, 0, 0}))
		}
		o.Update(vp, objects)
		return o.Plan()
	}
	assert.Equal(t, build(), build())
}

func TestUpdateIsIncremental(t *testing.T) {
	o := NewOptimizer(config.DefaultConfig())
	vp := testViewProj()

	objects := []track_object.TrackObject{
		makeObject(1, common.GeometrySharp, 1, [3]float32{0, 0, 0}),
		makeObject(2, common.GeometrySharp, 1, [3]float32{5, 0, 0}),
		makeObject(3, common.GeometrySharp, 1, [3]float32{-5, 0, 0}),
	}
	o.Update(vp, objects)
	require.Len(t, o.Plan().Batches, 1)

	t.Run("object leaving the frustum leaves its batch", func(t *testing.T) {
		objects[2].SetEnabled(false)
		o.Update(vp, objects)

		plan := o.Plan()
		assert.Equal(t, 2, plan.Visible)
		assert.Empty(t, plan.Batches)
		assert.ElementsMatch(t, []uint64{1, 2}, plan.Individual)
	})

	t.Run("object returning rejoins its batch", func(t *testing.T) {
		objects[2].SetEnabled(true)
		o.Update(vp, objects)

		plan := o.Plan()
		require.Len(t, plan.Batches, 1)
		assert.Equal(t, []uint64{1, 2, 3}, plan.Batches[0].Members)
	})
}

func TestRemoveDropsBatchState(t *testing.T) {
	o := NewOptimizer(config.DefaultConfig())
	vp := testViewProj()

	objects := []track_object.TrackObject{
		makeObject(1, common.GeometrySharp, 1, [3]float32{0, 0, 0}),
		makeObject(2, common.GeometrySharp, 1, [3]float32{5, 0, 0}),
		makeObject(3, common.GeometrySharp, 1, [3]float32{-5, 0, 0}),
	}
	o.Update(vp, objects)

	o.Remove(3)
	o.Update(vp, objects[:2])

	plan := o.Plan()
	assert.Equal(t, 2, plan.Visible)
	assert.Empty(t, plan.Batches)
	assert.ElementsMatch(t, []uint64{1, 2}, plan.Individual)
}

func TestResourceCache(t *testing.T) {
	t.Run("geometry is shared per class", func(t *testing.T) {
		c := NewResourceCache()
		info := c.AcquireGeometry(common.GeometrySmooth)
		c.AcquireGeometry(common.GeometrySmooth)
		c.AcquireGeometry(common.GeometrySharp)

		assert.Equal(t, 960, info.TriangleCount)
		assert.Equal(t, 2, c.GeometryRefs(common.GeometrySmooth))
		assert.Equal(t, 2, c.GeometryCount())
	})

	t.Run("release at zero frees the resource", func(t *testing.T) {
		c := NewResourceCache()
		c.AcquireGeometry(common.GeometrySharp)
		c.AcquireGeometry(common.GeometrySharp)

		c.ReleaseGeometry(common.GeometrySharp)
		assert.Equal(t, 1, c.GeometryCount())
		c.ReleaseGeometry(common.GeometrySharp)
		assert.Equal(t, 0, c.GeometryCount())
		assert.Equal(t, 0, c.GeometryRefs(common.GeometrySharp))
	})

	t.Run("release imbalance panics", func(t *testing.T) {
		c := NewResourceCache()
		assert.Panics(t, func() { c.ReleaseGeometry(common.GeometrySharp) })
		assert.Panics(t, func() { c.ReleaseMaterial(common.GeometrySharp, "#ffffff") })
	})

	t.Run("materials key on class and color", func(t *testing.T) {
		c := NewResourceCache()
		c.AcquireMaterial(common.GeometrySharp, "#8c0d2a")
		c.AcquireMaterial(common.GeometrySharp, "#8c0d2a")
		c.AcquireMaterial(common.GeometrySharp, "#2e86c1")
		c.AcquireMaterial(common.GeometrySmooth, "#2e86c1")
		assert.Equal(t, 3, c.MaterialCount())

		c.ReleaseMaterial(common.GeometrySharp, "#8c0d2a")
		c.ReleaseMaterial(common.GeometrySharp, "#8c0d2a")
		assert.Equal(t, 2, c.MaterialCount())
	})

	t.Run("memory estimate tracks live resources", func(t *testing.T) {
		c := NewResourceCache()
		assert.Equal(t, 0, c.MemoryEstimate())

		c.AcquireGeometry(common.GeometrySharp)
		c.AcquireMaterial(common.GeometrySharp, "#8c0d2a")
		assert.Equal(t, 320*96+4096, c.MemoryEstimate())

		// A second reference creates nothing new.
		c.AcquireGeometry(common.GeometrySharp)
		assert.Equal(t, 320*96+4096, c.MemoryEstimate())
	})
}

func TestMonitorWarnings(t *testing.T) {
	cfg := config.DefaultConfig().Optimizer

	t.Run("frame budget warning needs a sustained streak", func(t *testing.T) {
		m := NewMonitor(cfg, nil)
		over := 25 * time.Millisecond

		for i := 0; i < cfg.SustainedFrames-1; i++ {
			m.RecordFrame(over, 10, 1000, 0)
		}
		assert.Empty(t, m.Warnings())

		m.RecordFrame(over, 10, 1000, 0)
		warnings := m.Warnings()
		require.Len(t, warnings, 1)
		assert.Equal(t, WarningFrameBudget, warnings[0].Name)

		// One frame back under budget clears the warning.
		m.RecordFrame(5*time.Millisecond, 10, 1000, 0)
		assert.Empty(t, m.Warnings())
	})

	t.Run("draw call and triangle ceilings", func(t *testing.T) {
		m := NewMonitor(cfg, nil)
		m.RecordFrame(5*time.Millisecond, cfg.MaxDrawCalls+1, cfg.MaxTriangles+1, 0)

		warnings := m.Warnings()
		require.Len(t, warnings, 2)
		assert.Equal(t, WarningDrawCalls, warnings[0].Name)
		assert.Equal(t, WarningTriangles, warnings[1].Name)

		m.RecordFrame(5*time.Millisecond, 10, 1000, 0)
		assert.Empty(t, m.Warnings())
	})

	t.Run("memory budget", func(t *testing.T) {
		m := NewMonitor(cfg, nil)
		m.RecordFrame(5*time.Millisecond, 10, 1000, int(cfg.MemoryBudgetMB+1)*1024*1024)
		warnings := m.Warnings()
		require.Len(t, warnings, 1)
		assert.Equal(t, WarningMemory, warnings[0].Name)
	})

	t.Run("snapshot averages the frame window", func(t *testing.T) {
		m := NewMonitor(cfg, nil)
		for i := 0; i < 10; i++ {
			m.RecordFrame(10*time.Millisecond, 42, 12345, 2*1024*1024)
		}
		snap := m.Snapshot()
		assert.InDelta(t, 10.0, snap.FrameTimeMillis, 1e-6)
		assert.InDelta(t, 100.0, snap.FPS, 1e-6)
		assert.Equal(t, 42, snap.DrawCalls)
		assert.Equal(t, 12345, snap.Triangles)
		assert.InDelta(t, 2.0, snap.MemoryMB, 1e-6)
	})
}

func TestNewOptimizerNilConfigPanics(t *testing.T) {
	assert.Panics(t, func() { NewOptimizer(nil) })
}
