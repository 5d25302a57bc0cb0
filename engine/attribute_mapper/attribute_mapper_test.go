package attribute_mapper

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/config"
)

func testRecord(i int, genre string) common.TrackRecord {
	return common.TrackRecord{
		ID:              fmt.Sprintf("track-%03d", i),
		Title:           fmt.Sprintf("Track %d", i),
		Artist:          "Artist",
		Genre:           genre,
		DurationSeconds: 200,
		Popularity:      50,
		Available:       true,
	}
}

func TestMapDeterminism(t *testing.T) {
	m := NewMapper(config.DefaultConfig())

	records := make([]common.TrackRecord, 0, 60)
	genres := []string{"metal", "jazz", "pop", ""}
	for i := 0; i < 60; i++ {
		records = append(records, testRecord(i, genres[i%len(genres)]))
	}

	kept1, attrs1 := m.Map(records)
	kept2, attrs2 := m.Map(records)
	assert.Equal(t, kept1, kept2)
	assert.Equal(t, attrs1, attrs2)
}

func TestMapFiltersIncompleteRecords(t *testing.T) {
	m := NewMapper(config.DefaultConfig())

	records := []common.TrackRecord{
		testRecord(0, "rock"),
		{ID: "no-title", Artist: "Someone", Genre: "rock"},
		{ID: "no-artist", Title: "Something", Genre: "rock"},
		testRecord(1, "rock"),
	}

	kept, attrs := m.Map(records)
	require.Len(t, kept, 2)
	require.Len(t, attrs, 2)
	assert.Equal(t, "track-000", kept[0].ID)
	assert.Equal(t, "track-001", kept[1].ID)
}

func TestMapGenreStyling(t *testing.T) {
	cfg := config.DefaultConfig()
	m := NewMapper(cfg)

	records := []common.TrackRecord{
		testRecord(0, "metal"),
		testRecord(1, "jazz"),
		testRecord(2, "pop"),
		testRecord(3, ""),
	}
	_, attrs := m.Map(records)
	require.Len(t, attrs, 4)

	assert.Equal(t, common.GeometrySharp, attrs[0].Geometry)
	assert.Equal(t, cfg.Genres["metal"].Color, attrs[0].Color)
	assert.Equal(t, common.GeometrySmooth, attrs[1].Geometry)
	assert.Equal(t, common.GeometryRounded, attrs[2].Geometry)
	// Empty genre tag resolves to the default style.
	assert.Equal(t, cfg.DefaultGenre.Color, attrs[3].Color)
}

func TestMapSize(t *testing.T) {
	m := NewMapper(config.DefaultConfig())

	t.Run("popularity drives size inside the clamp range", func(t *testing.T) {
		records := []common.TrackRecord{testRecord(0, "pop"), testRecord(1, "pop"), testRecord(2, "pop")}
		records[0].Popularity = 0
		records[1].Popularity = 100
		records[2].Popularity = 50

		_, attrs := m.Map(records)
		assert.InDelta(t, 0.5, attrs[0].Size, 1e-5)
		assert.InDelta(t, 2.0, attrs[1].Size, 1e-5)
		assert.InDelta(t, 1.25, attrs[2].Size, 1e-5)
	})

	t.Run("out-of-range popularity clamps", func(t *testing.T) {
		records := []common.TrackRecord{testRecord(0, "pop"), testRecord(1, "pop")}
		records[0].Popularity = -40
		records[1].Popularity = 900

		_, attrs := m.Map(records)
		assert.InDelta(t, 0.5, attrs[0].Size, 1e-5)
		assert.InDelta(t, 2.0, attrs[1].Size, 1e-5)
	})

	t.Run("duration outliers bias the size", func(t *testing.T) {
		long := testRecord(0, "pop")
		long.DurationSeconds = 600
		short := testRecord(1, "pop")
		short.DurationSeconds = 45
		normal := testRecord(2, "pop")

		_, attrs := m.Map([]common.TrackRecord{long, short, normal})
		assert.InDelta(t, 1.45, attrs[0].Size, 1e-5)
		assert.InDelta(t, 1.10, attrs[1].Size, 1e-5)
		assert.InDelta(t, 1.25, attrs[2].Size, 1e-5)
	})

	t.Run("size never leaves its range", func(t *testing.T) {
		var records []common.TrackRecord
		for i := 0; i < 50; i++ {
			rec := testRecord(i, "pop")
			rec.Popularity = i*10 - 100
			rec.DurationSeconds = i * 30
			records = append(records, rec)
		}
		_, attrs := m.Map(records)
		for _, a := range attrs {
			assert.GreaterOrEqual(t, a.Size, float32(0.5))
			assert.LessOrEqual(t, a.Size, float32(3.0))
		}
	})
}

func TestMapPositions(t *testing.T) {
	cfg := config.DefaultConfig()
	m := NewMapper(cfg)

	records := make([]common.TrackRecord, 0, 200)
	genres := []string{"metal", "jazz", "pop", "electronic", "classical"}
	for i := 0; i < 200; i++ {
		records = append(records, testRecord(i, genres[i%len(genres)]))
	}
	_, attrs := m.Map(records)

	t.Run("all positions stay inside the radius band", func(t *testing.T) {
		for i, a := range attrs {
			r := common.Length3(a.Position)
			assert.GreaterOrEqual(t, r, cfg.Layout.MinRadius-1e-3, "record %d", i)
			assert.LessOrEqual(t, r, cfg.Layout.MaxRadius+1e-3, "record %d", i)
		}
	})

	t.Run("no two tracks share a position", func(t *testing.T) {
		seen := make(map[[3]float32]int)
		for i, a := range attrs {
			if prev, dup := seen[a.Position]; dup {
				t.Fatalf("records %d and %d collide at %v", prev, i, a.Position)
			}
			seen[a.Position] = i
		}
	})
}

func TestNewMapperNilConfigPanics(t *testing.T) {
	assert.Panics(t, func() { NewMapper(nil) })
}
