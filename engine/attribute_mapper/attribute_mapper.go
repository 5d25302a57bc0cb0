// package attribute_mapper derives the visual attributes of each track
// (color, size, spherical-shell position, geometry class) from its metadata.
// The mapping is a pure function: the same record sequence always produces
// the same attributes, with no unseeded randomness anywhere.
package attribute_mapper

import (
	"sort"
	"strings"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/config"
	"github.com/chewxy/math32"
)

const tau = 2 * math32.Pi

type mapper struct {
	cfg *config.Config
}

// Mapper maps track records to visual attributes.
type Mapper interface {
	// Map derives visual attributes for a record sequence. Records missing a
	// title or artist after upstream normalization are excluded (filtered,
	// never failed); all numeric inputs are clamped into range. The returned
	// slices are aligned: attrs[i] belongs to kept[i], and kept preserves the
	// input order.
	//
	// Parameters:
	//   - records: the track records to map
	//
	// Returns:
	//   - kept: the records that survived filtering, in input order
	//   - attrs: one VisualAttributes per kept record
	Map(records []common.TrackRecord) (kept []common.TrackRecord, attrs []common.VisualAttributes)
}

var _ Mapper = &mapper{}

// NewMapper creates a Mapper bound to a configuration. Panics if cfg is nil.
//
// Parameters:
//   - cfg: the scene configuration providing the genre table and layout
//
// Returns:
//   - Mapper: the newly created mapper
func NewMapper(cfg *config.Config) Mapper {
	if cfg == nil {
		panic("attribute_mapper: NewMapper requires a non-nil config")
	}
	return &mapper{cfg: cfg}
}

func (m *mapper) Map(records []common.TrackRecord) ([]common.TrackRecord, []common.VisualAttributes) {
	kept := make([]common.TrackRecord, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.Title) == "" || strings.TrimSpace(rec.Artist) == "" {
			continue
		}
		kept = append(kept, rec)
	}

	sectors := m.genreSectors(kept)
	attrs := make([]common.VisualAttributes, len(kept))
	ordinals := make(map[string]uint32, len(sectors))

	for i, rec := range kept {
		key := genreKey(rec.Genre)
		style := m.cfg.Style(rec.Genre)

		j := ordinals[key]
		ordinals[key] = j + 1

		attrs[i] = common.VisualAttributes{
			Color:    style.Color,
			Size:     m.size(rec),
			Position: m.position(sectors[key], j, uint32(i)),
			Geometry: style.GeometryClass(),
		}
	}
	return kept, attrs
}

// sector is one genre's azimuth range on the shell, sized proportionally to
// the genre's share of the catalogue.
type sector struct {
	start float32
	width float32
}

// genreSectors partitions the full azimuth circle into per-genre sectors.
// Genres are ordered alphabetically so the partition is independent of record
// order within a genre.
func (m *mapper) genreSectors(records []common.TrackRecord) map[string]sector {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[genreKey(rec.Genre)]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sectors := make(map[string]sector, len(keys))
	start := float32(0)
	total := float32(len(records))
	for _, k := range keys {
		width := tau * float32(counts[k]) / total
		sectors[k] = sector{start: start, width: width}
		start += width
	}
	return sectors
}

// size applies the popularity formula plus a duration-outlier bias, clamped
// into [0.5, 3.0] regardless of input extremes.
func (m *mapper) size(rec common.TrackRecord) float32 {
	pop := common.Clamp(float32(rec.Popularity), 0, 100)

	var bias float32
	layout := m.cfg.Layout
	switch {
	case rec.DurationSeconds > layout.LongTrackSeconds:
		bias = layout.DurationBonus
	case rec.DurationSeconds > 0 && rec.DurationSeconds < layout.ShortTrackSeconds:
		bias = -layout.DurationPenalty
	}

	return common.Clamp(0.5+pop/100*1.5+bias, 0.5, 3.0)
}

// position places the j-th member of a genre sector on the shell. Azimuth
// comes from the base-2 Halton sequence inside the sector, polar angle from
// the base-3 sequence (uniform in cos θ), and the radius jitters around the
// base radius by an index-seeded hash, clamped into the configured band.
// Halton values for index >= 1 are strictly inside (0, 1), so no object lands
// on a pole or a sector boundary and no two objects coincide.
func (m *mapper) position(sec sector, j, index uint32) [3]float32 {
	layout := m.cfg.Layout

	azimuth := sec.start + common.Halton(j+1, 2)*sec.width
	cosPolar := 1 - 2*common.Halton(j+1, 3)
	sinPolar := math32.Sqrt(1 - cosPolar*cosPolar)

	radius := layout.BaseRadius + (common.Hash01(index)*2-1)*layout.JitterAmplitude
	radius = common.Clamp(radius, layout.MinRadius, layout.MaxRadius)

	return [3]float32{
		radius * sinPolar * math32.Cos(azimuth),
		radius * cosPolar,
		radius * sinPolar * math32.Sin(azimuth),
	}
}

// genreKey normalizes a genre tag for sector grouping. Empty tags group under
// "unknown".
func genreKey(genre string) string {
	key := strings.ToLower(strings.TrimSpace(genre))
	if key == "" {
		return "unknown"
	}
	return key
}
