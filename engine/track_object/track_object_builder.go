package track_object

import (
	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/engine/graphics"
)

// TrackObjectBuilderOption is a functional option for configuring a TrackObject.
// Use the With* functions to create options.
type TrackObjectBuilderOption func(t *trackObject)

// WithRecord sets the immutable track record.
//
// Parameters:
//   - record: the track record
//
// Returns:
//   - TrackObjectBuilderOption: option function to apply
func WithRecord(record common.TrackRecord) TrackObjectBuilderOption {
	return func(t *trackObject) {
		t.record = record
	}
}

// WithAttributes sets the derived visual attributes and initializes the base
// and current scale from the attributes' size.
//
// Parameters:
//   - attrs: the visual attributes
//
// Returns:
//   - TrackObjectBuilderOption: option function to apply
func WithAttributes(attrs common.VisualAttributes) TrackObjectBuilderOption {
	return func(t *trackObject) {
		t.attrs = attrs
		t.baseScale = attrs.Size
		t.currentScale = attrs.Size
	}
}

// WithID sets the scene-unique object identifier.
//
// Parameters:
//   - id: the object ID
//
// Returns:
//   - TrackObjectBuilderOption: option function to apply
func WithID(id uint64) TrackObjectBuilderOption {
	return func(t *trackObject) {
		t.id = id
	}
}

// WithHandle sets the renderable handle.
//
// Parameters:
//   - h: the handle from the graphics device
//
// Returns:
//   - TrackObjectBuilderOption: option function to apply
func WithHandle(h graphics.Handle) TrackObjectBuilderOption {
	return func(t *trackObject) {
		t.handle = h
	}
}
