// package graphics defines the renderable-object capability boundary. The
// simulation core creates, updates, and disposes opaque handles through the
// Device interface; what a handle means on the other side (GPU mesh, software
// rasterizer, recording fake) is not the core's concern.
package graphics

import (
	"github.com/BUka228/musical-soul/common"
)

// Handle identifies one renderable object owned by a Device.
// NilHandle is never returned by a successful CreateObject.
type Handle uint64

// NilHandle is the zero handle, used for objects whose renderable could not
// be created (resource exhaustion) and which are therefore skipped at render
// time rather than failing the frame loop.
const NilHandle Handle = 0

// Device is the graphics capability the scene core renders through.
// Implementations must tolerate calls for any handle they issued until that
// handle is disposed; the core guarantees Dispose is called exactly once per
// created handle.
type Device interface {
	// CreateObject creates a renderable object of the given geometry class.
	//
	// Parameters:
	//   - class: the discrete geometry bucket for the object
	//
	// Returns:
	//   - Handle: the new object handle
	//   - error: error if the device cannot allocate another object
	CreateObject(class common.GeometryClass) (Handle, error)

	// SetTransform updates an object's position, scale, and rotation.
	//
	// Parameters:
	//   - h: the object handle
	//   - position: world-space position
	//   - scale: per-axis scale
	//   - rotation: Euler rotation in radians
	SetTransform(h Handle, position, scale, rotation [3]float32)

	// SetMaterialParams updates an object's color and emissive intensity.
	//
	// Parameters:
	//   - h: the object handle
	//   - color: RGB hex color ("#RRGGBB")
	//   - emissiveIntensity: emissive strength (>= 0)
	SetMaterialParams(h Handle, color string, emissiveIntensity float32)

	// SetVisible toggles whether the object is drawn.
	//
	// Parameters:
	//   - h: the object handle
	//   - visible: true to draw the object
	SetVisible(h Handle, visible bool)

	// Dispose releases the object's resources. Must be called exactly once
	// per handle; disposing an unknown or already-disposed handle is a
	// programming error.
	//
	// Parameters:
	//   - h: the object handle
	Dispose(h Handle)
}
