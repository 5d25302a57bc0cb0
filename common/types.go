// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "strings"

// TrackRecord is one normalized entry of the music catalogue. Records are
// produced by the external data collaborator (see engine/loader) and are
// read-only to the simulation core.
type TrackRecord struct {
	// ID is the catalogue-unique track identifier.
	ID string
	// Title is the track title.
	Title string
	// Artist is the primary artist name.
	Artist string
	// Album is the album title.
	Album string
	// Genre is the genre tag; "unknown" when the catalogue has no tag.
	Genre string
	// DurationSeconds is the track length in whole seconds (non-negative).
	DurationSeconds int
	// Popularity is the catalogue popularity score in [0, 100].
	Popularity int
	// Available reports whether the catalogue can actually play this track.
	Available bool
}

// GeometryClass is the discrete geometry bucket derived from a track's genre.
// It is a classification, not a continuous value, so the render optimizer can
// batch objects by key equality.
type GeometryClass int

const (
	// GeometryRounded is the default bucket for unknown or unclassified genres.
	GeometryRounded GeometryClass = iota
	// GeometrySharp is the angular, faceted form used for high-energy genres.
	GeometrySharp
	// GeometrySmooth is the soft, flowing form used for mellow genres.
	GeometrySmooth
)

// String returns the lowercase name of the geometry class.
func (g GeometryClass) String() string {
	switch g {
	case GeometrySharp:
		return "sharp"
	case GeometrySmooth:
		return "smooth"
	default:
		return "rounded"
	}
}

// ParseGeometryClass maps a config string to a GeometryClass.
// Unrecognized values resolve to GeometryRounded.
//
// Parameters:
//   - s: the class name ("sharp", "smooth", "rounded")
//
// Returns:
//   - GeometryClass: the parsed class
//   - bool: false if the value was not recognized
func ParseGeometryClass(s string) (GeometryClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sharp":
		return GeometrySharp, true
	case "smooth":
		return GeometrySmooth, true
	case "rounded", "":
		return GeometryRounded, true
	default:
		return GeometryRounded, false
	}
}

// VisualAttributes is the deterministic visual mapping of one TrackRecord.
// Attributes are computed once at scene-build time and never mutated; a data
// reload re-derives them from scratch.
type VisualAttributes struct {
	// Color is the genre color as an RGB hex string ("#RRGGBB").
	Color string
	// Size is the base object scale in [0.5, 3.0].
	Size float32
	// Position is the object's world-space placement on the spherical shell.
	Position [3]float32
	// Geometry is the discrete geometry bucket for this track's genre.
	Geometry GeometryClass
}

// PointerState is the per-frame pointer input snapshot consumed by the
// interaction controller. Clicked and Escape are edge-triggered: true only on
// the frame the event occurred.
type PointerState struct {
	// X, Y are the pointer position in screen pixels.
	X, Y float32
	// Clicked is true on the frame the primary button was pressed.
	Clicked bool
	// Escape is true on the frame the escape key was pressed.
	Escape bool
}
