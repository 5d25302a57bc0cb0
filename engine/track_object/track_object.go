package track_object

import (
	"sync/atomic"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/engine/graphics"
)

type trackObject struct {
	id      uint64
	record  common.TrackRecord
	attrs   common.VisualAttributes
	handle  graphics.Handle
	enabled atomic.Bool

	// Interaction-owned live state.
	hovered  bool
	selected bool

	// Pulse-owned live state.
	pulsePhase    float32
	baseScale     float32
	currentScale  float32
	emissive      float32
	rotation      [3]float32
	rotationSpeed [3]float32

	// Optimizer-owned live state.
	visible bool
}

// TrackObject is the scene entity representing one track: the immutable
// record and derived visual attributes, an opaque renderable handle, and the
// mutable live state. Live-state fields are partitioned by owner (the pulse
// engine writes pulsation fields, the interaction controller writes
// hover/select, the render optimizer writes visibility) so no locking is
// needed on the single-threaded frame path.
type TrackObject interface {
	// ID returns the object's scene-unique numeric identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// TrackID returns the catalogue track identifier.
	//
	// Returns:
	//   - string: the track ID
	TrackID() string

	// Record returns the immutable track record.
	//
	// Returns:
	//   - common.TrackRecord: the track record
	Record() common.TrackRecord

	// Attributes returns the immutable derived visual attributes.
	//
	// Returns:
	//   - common.VisualAttributes: the visual attributes
	Attributes() common.VisualAttributes

	// Handle returns the renderable handle, or graphics.NilHandle if the
	// renderable could not be created.
	//
	// Returns:
	//   - graphics.Handle: the renderable handle
	Handle() graphics.Handle

	// Position returns the object's fixed world-space position.
	//
	// Returns:
	//   - [3]float32: the position
	Position() [3]float32

	// BoundingSphere returns the object's bounding volume for culling and
	// picking, derived from position and current scale.
	//
	// Returns:
	//   - center: the sphere center
	//   - radius: the sphere radius
	BoundingSphere() (center [3]float32, radius float32)

	// Enabled reports whether the object participates in the frame at all.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Hovered reports the interaction-owned hover flag.
	Hovered() bool

	// Selected reports the interaction-owned selection flag.
	Selected() bool

	// PulsePhase returns the pulse-owned phase in [0, 2π) radians.
	PulsePhase() float32

	// BaseScale returns the resting scale derived from the track's size.
	BaseScale() float32

	// CurrentScale returns the pulse-owned rendered scale for this frame.
	CurrentScale() float32

	// Emissive returns the pulse-owned emissive intensity for this frame.
	Emissive() float32

	// Rotation returns the pulse-owned Euler rotation in radians.
	Rotation() [3]float32

	// RotationSpeed returns the per-object idle spin in radians per second.
	RotationSpeed() [3]float32

	// Visible reports the optimizer-owned visibility decision.
	Visible() bool

	// SetID sets the object's scene-unique identifier.
	SetID(id uint64)

	// SetHandle stores the renderable handle.
	SetHandle(h graphics.Handle)

	// SetEnabled toggles the object's participation in the frame.
	SetEnabled(enabled bool)

	// SetHovered writes the hover flag. Interaction controller only.
	SetHovered(hovered bool)

	// SetSelected writes the selection flag. Interaction controller only.
	SetSelected(selected bool)

	// SetPulsePhase writes the phase. Pulse engine only.
	SetPulsePhase(phase float32)

	// SetCurrentScale writes the rendered scale. Pulse engine only.
	SetCurrentScale(scale float32)

	// SetEmissive writes the emissive intensity. Pulse engine only.
	SetEmissive(emissive float32)

	// SetRotation writes the rotation. Pulse engine only.
	SetRotation(rotation [3]float32)

	// SetRotationSpeed writes the idle spin speed. Pulse engine only.
	SetRotationSpeed(speed [3]float32)

	// SetVisible writes the visibility decision. Render optimizer only.
	SetVisible(visible bool)
}

var _ TrackObject = &trackObject{}

// NewTrackObject creates a TrackObject configured with the given options.
// BaseScale and CurrentScale initialize from the attributes' size.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - TrackObject: the newly created object
func NewTrackObject(options ...TrackObjectBuilderOption) TrackObject {
	obj := &trackObject{
		baseScale:    1,
		currentScale: 1,
		visible:      true,
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (t *trackObject) ID() uint64 {
	return t.id
}

func (t *trackObject) TrackID() string {
	return t.record.ID
}

func (t *trackObject) Record() common.TrackRecord {
	return t.record
}

func (t *trackObject) Attributes() common.VisualAttributes {
	return t.attrs
}

func (t *trackObject) Handle() graphics.Handle {
	return t.handle
}

func (t *trackObject) Position() [3]float32 {
	return t.attrs.Position
}

func (t *trackObject) BoundingSphere() (center [3]float32, radius float32) {
	return t.attrs.Position, t.currentScale
}

func (t *trackObject) Enabled() bool {
	return t.enabled.Load()
}

func (t *trackObject) Hovered() bool {
	return t.hovered
}

func (t *trackObject) Selected() bool {
	return t.selected
}

func (t *trackObject) PulsePhase() float32 {
	return t.pulsePhase
}

func (t *trackObject) BaseScale() float32 {
	return t.baseScale
}

func (t *trackObject) CurrentScale() float32 {
	return t.currentScale
}

func (t *trackObject) Emissive() float32 {
	return t.emissive
}

func (t *trackObject) Rotation() [3]float32 {
	return t.rotation
}

func (t *trackObject) RotationSpeed() [3]float32 {
	return t.rotationSpeed
}

func (t *trackObject) Visible() bool {
	return t.visible
}

func (t *trackObject) SetID(id uint64) {
	t.id = id
}

func (t *trackObject) SetHandle(h graphics.Handle) {
	t.handle = h
}

func (t *trackObject) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

func (t *trackObject) SetHovered(hovered bool) {
	t.hovered = hovered
}

func (t *trackObject) SetSelected(selected bool) {
	t.selected = selected
}

func (t *trackObject) SetPulsePhase(phase float32) {
	t.pulsePhase = phase
}

func (t *trackObject) SetCurrentScale(scale float32) {
	t.currentScale = scale
}

func (t *trackObject) SetEmissive(emissive float32) {
	t.emissive = emissive
}

func (t *trackObject) SetRotation(rotation [3]float32) {
	t.rotation = rotation
}

func (t *trackObject) SetRotationSpeed(speed [3]float32) {
	t.rotationSpeed = speed
}

func (t *trackObject) SetVisible(visible bool) {
	t.visible = visible
}
