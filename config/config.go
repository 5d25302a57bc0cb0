// package config holds the tunable product constants of the crystal scene:
// the genre table (color, geometry, pulse character), layout radii, pulse
// envelope bounds, optimizer thresholds, and camera transition timing.
// Values load from YAML over a complete set of defaults, so a config file only
// needs to name what it overrides.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BUka228/musical-soul/common"
	"gopkg.in/yaml.v3"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// GenreStyle describes how one genre bucket looks and pulses.
type GenreStyle struct {
	// Color is the genre's RGB hex color ("#RRGGBB").
	Color string `yaml:"color"`
	// Geometry is the geometry class name: "sharp", "smooth", or "rounded".
	Geometry string `yaml:"geometry"`
	// Sharpness multiplies the pulse angular speed. Higher = faster, snappier.
	Sharpness float32 `yaml:"sharpness"`
	// Amplitude is the scale/emissive excursion fraction in (0, 1).
	Amplitude float32 `yaml:"amplitude"`
	// BPM is the genre tempo estimate in beats per minute. 0 means unknown,
	// in which case the popularity fallback formula derives the pulse speed.
	BPM float32 `yaml:"bpm"`
}

// GeometryClass resolves the style's geometry name to its class.
//
// Returns:
//   - common.GeometryClass: the parsed class (GeometryRounded if unrecognized)
func (g GenreStyle) GeometryClass() common.GeometryClass {
	class, _ := common.ParseGeometryClass(g.Geometry)
	return class
}

// Layout configures the spherical-shell placement of crystals.
type Layout struct {
	// BaseRadius is the nominal shell radius.
	BaseRadius float32 `yaml:"base_radius"`
	// MinRadius and MaxRadius bound the distance from origin after jitter.
	MinRadius float32 `yaml:"min_radius"`
	MaxRadius float32 `yaml:"max_radius"`
	// JitterAmplitude is the maximum radial deviation from BaseRadius.
	JitterAmplitude float32 `yaml:"jitter_amplitude"`
	// LongTrackSeconds / ShortTrackSeconds classify duration outliers for the
	// size bonus/penalty.
	LongTrackSeconds  int `yaml:"long_track_seconds"`
	ShortTrackSeconds int `yaml:"short_track_seconds"`
	// DurationBonus / DurationPenalty are the size deltas applied to outliers.
	DurationBonus   float32 `yaml:"duration_bonus"`
	DurationPenalty float32 `yaml:"duration_penalty"`
}

// Pulse configures the pulsation engine envelope and synchronization.
type Pulse struct {
	// BaseFrequency is the fallback pulse frequency in Hz when no tempo
	// estimate exists for a genre.
	BaseFrequency float32 `yaml:"base_frequency"`
	// MinFrequency and MaxFrequency bound the effective pulse frequency in Hz
	// regardless of tempo or popularity extremes.
	MinFrequency float32 `yaml:"min_frequency"`
	MaxFrequency float32 `yaml:"max_frequency"`
	// TempoTolerance is the BPM band within which objects join one SyncGroup.
	TempoTolerance float32 `yaml:"tempo_tolerance"`
	// MaxGroupOffset bounds each member's phase offset from the group anchor,
	// in radians.
	MaxGroupOffset float32 `yaml:"max_group_offset"`
	// HoverBoost and SelectBoost multiply the rendered scale of hovered and
	// selected objects. Bounded so the effect never dwarfs the layout.
	HoverBoost  float32 `yaml:"hover_boost"`
	SelectBoost float32 `yaml:"select_boost"`
	// HoverEmissive and SelectEmissive are additive emissive intensity for
	// hovered and selected objects.
	HoverEmissive  float32 `yaml:"hover_emissive"`
	SelectEmissive float32 `yaml:"select_emissive"`
	// MaxRotationSpeed bounds the per-object idle spin in radians per second.
	MaxRotationSpeed float32 `yaml:"max_rotation_speed"`
}

// Optimizer configures culling, batching, and the advisory thresholds of the
// frame monitor. The monitor only reports; it never lowers fidelity itself.
type Optimizer struct {
	// SizeBucketWidth is the quantization step for the batching size bucket.
	SizeBucketWidth float32 `yaml:"size_bucket_width"`
	// MinBatchSize is the smallest member count rendered as one batched draw;
	// smaller groups fall back to individual draws.
	MinBatchSize int `yaml:"min_batch_size"`
	// FrameBudgetMillis is the advisory frame time budget.
	FrameBudgetMillis float32 `yaml:"frame_budget_millis"`
	// SustainedFrames is how many consecutive over-budget frames raise the
	// frame time warning.
	SustainedFrames int `yaml:"sustained_frames"`
	// MaxDrawCalls is the advisory draw call ceiling.
	MaxDrawCalls int `yaml:"max_draw_calls"`
	// MaxTriangles is the advisory triangle ceiling.
	MaxTriangles int `yaml:"max_triangles"`
	// MemoryBudgetMB is the advisory estimated-memory ceiling.
	MemoryBudgetMB float32 `yaml:"memory_budget_mb"`
}

// Camera configures the focus transition behavior of the camera director.
type Camera struct {
	// TransitionSeconds is the fixed duration of fly-to and return transitions.
	TransitionSeconds float32 `yaml:"transition_seconds"`
	// FocusDistanceFactor scales a target's size into the framing distance.
	FocusDistanceFactor float32 `yaml:"focus_distance_factor"`
	// MinFocusDistance keeps the framing pose outside the target's surface.
	MinFocusDistance float32 `yaml:"min_focus_distance"`
	// MaxBlur is the depth-of-field blur strength when fully focused.
	MaxBlur float32 `yaml:"max_blur"`
}

// Config is the complete scene configuration.
type Config struct {
	Layout    Layout    `yaml:"layout"`
	Pulse     Pulse     `yaml:"pulse"`
	Optimizer Optimizer `yaml:"optimizer"`
	Camera    Camera    `yaml:"camera"`

	// Genres maps lowercase genre tags to their style. Tags absent from the
	// map resolve to DefaultGenre.
	Genres map[string]GenreStyle `yaml:"genres"`
	// DefaultGenre is the style for unknown or unmapped genre tags.
	DefaultGenre GenreStyle `yaml:"default_genre"`
}

// DefaultConfig returns the built-in configuration. The genre table covers the
// tags the catalogue collector commonly emits; everything else falls through
// to the default style.
//
// Returns:
//   - *Config: a fresh config populated with defaults
func DefaultConfig() *Config {
	return &Config{
		Layout: Layout{
			BaseRadius:        60,
			MinRadius:         45,
			MaxRadius:         75,
			JitterAmplitude:   10,
			LongTrackSeconds:  420,
			ShortTrackSeconds: 90,
			DurationBonus:     0.2,
			DurationPenalty:   0.15,
		},
		Pulse: Pulse{
			BaseFrequency:    0.8,
			MinFrequency:     0.1,
			MaxFrequency:     3.0,
			TempoTolerance:   8,
			MaxGroupOffset:   0.1,
			HoverBoost:       1.15,
			SelectBoost:      1.3,
			HoverEmissive:    0.3,
			SelectEmissive:   0.6,
			MaxRotationSpeed: 0.4,
		},
		Optimizer: Optimizer{
			SizeBucketWidth:   0.25,
			MinBatchSize:      3,
			FrameBudgetMillis: 16.7,
			SustainedFrames:   30,
			MaxDrawCalls:      200,
			MaxTriangles:      1_500_000,
			MemoryBudgetMB:    256,
		},
		Camera: Camera{
			TransitionSeconds:   1.2,
			FocusDistanceFactor: 6,
			MinFocusDistance:    8,
			MaxBlur:             1.0,
		},
		Genres: map[string]GenreStyle{
			"metal":      {Color: "#8c0d2a", Geometry: "sharp", Sharpness: 1.5, Amplitude: 0.30, BPM: 140},
			"rock":       {Color: "#c0392b", Geometry: "sharp", Sharpness: 1.3, Amplitude: 0.25, BPM: 120},
			"punk":       {Color: "#e74c3c", Geometry: "sharp", Sharpness: 1.6, Amplitude: 0.30, BPM: 160},
			"electronic": {Color: "#00c8ff", Geometry: "sharp", Sharpness: 1.4, Amplitude: 0.28, BPM: 128},
			"dance":      {Color: "#ff00aa", Geometry: "sharp", Sharpness: 1.4, Amplitude: 0.28, BPM: 126},
			"pop":        {Color: "#f39c12", Geometry: "rounded", Sharpness: 1.1, Amplitude: 0.20, BPM: 112},
			"hiphop":     {Color: "#9b59b6", Geometry: "rounded", Sharpness: 1.0, Amplitude: 0.22, BPM: 92},
			"rap":        {Color: "#8e44ad", Geometry: "rounded", Sharpness: 1.0, Amplitude: 0.22, BPM: 92},
			"indie":      {Color: "#2ecc71", Geometry: "rounded", Sharpness: 0.9, Amplitude: 0.18, BPM: 105},
			"jazz":       {Color: "#2e86c1", Geometry: "smooth", Sharpness: 0.7, Amplitude: 0.15, BPM: 95},
			"blues":      {Color: "#1f618d", Geometry: "smooth", Sharpness: 0.6, Amplitude: 0.14, BPM: 80},
			"soul":       {Color: "#6c5ce7", Geometry: "smooth", Sharpness: 0.7, Amplitude: 0.15, BPM: 88},
			"classical":  {Color: "#d4ac6e", Geometry: "smooth", Sharpness: 0.5, Amplitude: 0.12, BPM: 0},
			"ambient":    {Color: "#48c9b0", Geometry: "smooth", Sharpness: 0.4, Amplitude: 0.10, BPM: 0},
			"folk":       {Color: "#7dcea0", Geometry: "smooth", Sharpness: 0.6, Amplitude: 0.14, BPM: 96},
		},
		DefaultGenre: GenreStyle{Color: "#95a5a6", Geometry: "rounded", Sharpness: 1.0, Amplitude: 0.18, BPM: 0},
	}
}

// Load reads a YAML config file and merges it over the defaults. Only keys
// present in the file override the built-in values.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - *Config: the merged, validated config
//   - error: error if the file cannot be read, parsed, or validated
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Style resolves the genre tag to its style. Lookup is case-insensitive and
// tolerant of surrounding whitespace and hyphens ("hip-hop" matches "hiphop").
// Unmapped tags resolve to DefaultGenre.
//
// Parameters:
//   - genre: the genre tag
//
// Returns:
//   - GenreStyle: the resolved style
func (c *Config) Style(genre string) GenreStyle {
	key := strings.ToLower(strings.TrimSpace(genre))
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")
	if style, ok := c.Genres[key]; ok {
		return style
	}
	return c.DefaultGenre
}

// Validate checks the config for internally inconsistent values.
//
// Returns:
//   - error: the first inconsistency found, or nil
func (c *Config) Validate() error {
	if c.Layout.MinRadius <= 0 || c.Layout.MaxRadius <= c.Layout.MinRadius {
		return fmt.Errorf("layout: radius band [%g, %g] is not a valid range", c.Layout.MinRadius, c.Layout.MaxRadius)
	}
	if c.Layout.BaseRadius < c.Layout.MinRadius || c.Layout.BaseRadius > c.Layout.MaxRadius {
		return fmt.Errorf("layout: base radius %g outside band [%g, %g]", c.Layout.BaseRadius, c.Layout.MinRadius, c.Layout.MaxRadius)
	}
	if c.Pulse.MinFrequency <= 0 || c.Pulse.MaxFrequency <= c.Pulse.MinFrequency {
		return fmt.Errorf("pulse: frequency envelope [%g, %g] is not a valid range", c.Pulse.MinFrequency, c.Pulse.MaxFrequency)
	}
	if c.Pulse.MaxGroupOffset < 0 {
		return fmt.Errorf("pulse: max group offset %g must be non-negative", c.Pulse.MaxGroupOffset)
	}
	if c.Optimizer.SizeBucketWidth <= 0 {
		return fmt.Errorf("optimizer: size bucket width %g must be positive", c.Optimizer.SizeBucketWidth)
	}
	if c.Optimizer.MinBatchSize < 2 {
		return fmt.Errorf("optimizer: min batch size %d must be at least 2", c.Optimizer.MinBatchSize)
	}
	if c.Camera.TransitionSeconds <= 0 {
		return fmt.Errorf("camera: transition duration %g must be positive", c.Camera.TransitionSeconds)
	}
	for tag, style := range c.Genres {
		if err := validateStyle(tag, style); err != nil {
			return err
		}
	}
	return validateStyle("default", c.DefaultGenre)
}

func validateStyle(tag string, style GenreStyle) error {
	if !hexColorPattern.MatchString(style.Color) {
		return fmt.Errorf("genre %q: color %q is not a #RRGGBB hex string", tag, style.Color)
	}
	if _, ok := common.ParseGeometryClass(style.Geometry); !ok {
		return fmt.Errorf("genre %q: unknown geometry class %q", tag, style.Geometry)
	}
	if style.Sharpness <= 0 {
		return fmt.Errorf("genre %q: sharpness %g must be positive", tag, style.Sharpness)
	}
	if style.Amplitude <= 0 || style.Amplitude >= 1 {
		return fmt.Errorf("genre %q: amplitude %g must be in (0, 1)", tag, style.Amplitude)
	}
	if style.BPM < 0 {
		return fmt.Errorf("genre %q: bpm %g must be non-negative", tag, style.BPM)
	}
	return nil
}
