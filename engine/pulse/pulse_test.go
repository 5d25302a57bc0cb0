package pulse

import (
	"fmt"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/config"
	"github.com/BUka228/musical-soul/engine/track_object"
)

func makeObject(id uint64, genre string, size float32) track_object.TrackObject {
	return track_object.NewTrackObject(
		track_object.WithID(id),
		track_object.WithRecord(common.TrackRecord{
			ID:         fmt.Sprintf("track-%03d", id),
			Title:      fmt.Sprintf("Track %d", id),
			Artist:     "Artist",
			Genre:      genre,
			Popularity: 50,
		}),
		track_object.WithAttributes(common.VisualAttributes{Size: size}),
	)
}

func TestRebuildGrouping(t *testing.T) {
	e := NewEngine(config.DefaultConfig())

	objects := []track_object.TrackObject{
		makeObject(1, "metal", 1),
		makeObject(2, "jazz", 1),
		makeObject(3, "metal", 1),
	}
	e.Rebuild(objects)

	// Metal clamps to the 3 Hz ceiling (180 BPM equivalent), jazz sits near
	// 66.5 BPM; the two clusters are far outside the tolerance band.
	assert.Equal(t, 2, e.GroupCount())

	g1, ok := e.GroupOf(1)
	require.True(t, ok)
	g2, ok := e.GroupOf(2)
	require.True(t, ok)
	g3, ok := e.GroupOf(3)
	require.True(t, ok)

	assert.Equal(t, g1, g3)
	assert.NotEqual(t, g1, g2)

	_, ok = e.GroupOf(99)
	assert.False(t, ok)
}

func TestRebuildIsIdempotent(t *testing.T) {
	e := NewEngine(config.DefaultConfig())
	objects := []track_object.TrackObject{
		makeObject(1, "metal", 1),
		makeObject(2, "jazz", 1),
	}

	e.Rebuild(objects)
	first := e.GroupCount()
	e.Rebuild(objects)
	assert.Equal(t, first, e.GroupCount())
}

func TestUpdateZeroDtIsStable(t *testing.T) {
	e := NewEngine(config.DefaultConfig())
	obj := makeObject(1, "metal", 1.5)
	e.Rebuild([]track_object.TrackObject{obj})

	e.Update(0)
	phase := obj.PulsePhase()
	scale := obj.CurrentScale()
	emissive := obj.Emissive()
	rotation := obj.Rotation()

	e.Update(0)
	assert.Equal(t, phase, obj.PulsePhase())
	assert.Equal(t, scale, obj.CurrentScale())
	assert.Equal(t, emissive, obj.Emissive())
	assert.Equal(t, rotation, obj.Rotation())
}

func TestUpdateScaleEnvelope(t *testing.T) {
	e := NewEngine(config.DefaultConfig())
	obj := makeObject(1, "metal", 2)
	e.Rebuild([]track_object.TrackObject{obj})

	// Metal's amplitude is 0.30, so the scale must stay inside base*(1±0.30)
	// across a few pulse periods.
	for i := 0; i < 600; i++ {
		e.Update(1.0 / 60.0)
		assert.GreaterOrEqual(t, obj.CurrentScale(), float32(2*0.7-1e-4))
		assert.LessOrEqual(t, obj.CurrentScale(), float32(2*1.3+1e-4))
		assert.GreaterOrEqual(t, obj.Emissive(), float32(0))
	}
}

func TestGroupMembersStayNearTheAnchor(t *testing.T) {
	cfg := config.DefaultConfig()
	e := NewEngine(cfg)

	objects := []track_object.TrackObject{
		makeObject(1, "metal", 1),
		makeObject(2, "metal", 1),
	}
	e.Rebuild(objects)
	e.Update(0.25)

	g1, _ := e.GroupOf(1)
	g2, _ := e.GroupOf(2)
	require.Equal(t, g1, g2)

	// Both members share one anchor; their phases can only differ by the
	// bounded per-member offsets. Phases live on a circle, so compare the
	// circular distance or an offset straddling the 2π wrap would read as
	// nearly a full turn.
	diff := math32.Abs(objects[0].PulsePhase() - objects[1].PulsePhase())
	if diff > math32.Pi {
		diff = 2*math32.Pi - diff
	}
	assert.LessOrEqual(t, diff, cfg.Pulse.MaxGroupOffset+1e-4)
}

func TestSpeedMultiplier(t *testing.T) {
	t.Run("scaled speed halves the time to the same phase", func(t *testing.T) {
		a := makeObject(1, "jazz", 1)
		ea := NewEngine(config.DefaultConfig())
		ea.Rebuild([]track_object.TrackObject{a})
		ea.Update(0.1)

		b := makeObject(1, "jazz", 1)
		eb := NewEngine(config.DefaultConfig())
		eb.Rebuild([]track_object.TrackObject{b})
		eb.SetSpeedMultiplier(2)
		eb.Update(0.05)

		assert.InDelta(t, a.PulsePhase(), b.PulsePhase(), 1e-4)
	})

	t.Run("non-positive values are ignored", func(t *testing.T) {
		e := NewEngine(config.DefaultConfig())
		e.SetSpeedMultiplier(0)
		assert.Equal(t, float32(1), e.SpeedMultiplier())
		e.SetSpeedMultiplier(-3)
		assert.Equal(t, float32(1), e.SpeedMultiplier())
		e.SetSpeedMultiplier(0.5)
		assert.Equal(t, float32(0.5), e.SpeedMultiplier())
	})
}

func TestAmplitudeMultiplier(t *testing.T) {
	t.Run("zero amplitude pins the scale to base", func(t *testing.T) {
		e := NewEngine(config.DefaultConfig())
		obj := makeObject(1, "metal", 1.75)
		e.Rebuild([]track_object.TrackObject{obj})
		e.SetAmplitudeMultiplier(0)

		for i := 0; i < 30; i++ {
			e.Update(1.0 / 60.0)
			assert.InDelta(t, 1.75, obj.CurrentScale(), 1e-5)
		}
	})

	t.Run("negative values are ignored", func(t *testing.T) {
		e := NewEngine(config.DefaultConfig())
		e.SetAmplitudeMultiplier(-1)
		assert.Equal(t, float32(1), e.AmplitudeMultiplier())
	})
}

func TestHoverAndSelectBoosts(t *testing.T) {
	cfg := config.DefaultConfig()

	// Zero amplitude isolates the boost factors from the pulse wave.
	newFixture := func() (Engine, track_object.TrackObject) {
		e := NewEngine(cfg)
		obj := makeObject(1, "metal", 2)
		e.Rebuild([]track_object.TrackObject{obj})
		e.SetAmplitudeMultiplier(0)
		return e, obj
	}

	t.Run("hover", func(t *testing.T) {
		e, obj := newFixture()
		obj.SetHovered(true)
		e.Update(1.0 / 60.0)
		assert.InDelta(t, 2*cfg.Pulse.HoverBoost, obj.CurrentScale(), 1e-5)
		assert.InDelta(t, cfg.Pulse.HoverEmissive, obj.Emissive(), 1e-5)
	})

	t.Run("selection wins over hover", func(t *testing.T) {
		e, obj := newFixture()
		obj.SetHovered(true)
		obj.SetSelected(true)
		e.Update(1.0 / 60.0)
		assert.InDelta(t, 2*cfg.Pulse.SelectBoost, obj.CurrentScale(), 1e-5)
		assert.InDelta(t, cfg.Pulse.SelectEmissive, obj.Emissive(), 1e-5)
	})

	t.Run("boost releases when flags clear", func(t *testing.T) {
		e, obj := newFixture()
		obj.SetSelected(true)
		e.Update(1.0 / 60.0)
		obj.SetSelected(false)
		e.Update(1.0 / 60.0)
		assert.InDelta(t, 2, obj.CurrentScale(), 1e-5)
	})
}

func TestSetEnabledFreezesState(t *testing.T) {
	e := NewEngine(config.DefaultConfig())
	obj := makeObject(1, "metal", 1)
	e.Rebuild([]track_object.TrackObject{obj})

	e.Update(0.1)
	phase := obj.PulsePhase()
	scale := obj.CurrentScale()
	rotation := obj.Rotation()

	e.SetEnabled(false)
	assert.False(t, e.Enabled())
	e.Update(0.5)
	assert.Equal(t, phase, obj.PulsePhase())
	assert.Equal(t, scale, obj.CurrentScale())
	assert.Equal(t, rotation, obj.Rotation())

	e.SetEnabled(true)
	e.Update(0.1)
	assert.NotEqual(t, phase, obj.PulsePhase())
}

func TestNewEngineNilConfigPanics(t *testing.T) {
	assert.Panics(t, func() { NewEngine(nil) })
}
