// package interaction owns the pointer state machine of the scene: Idle,
// Hovering(id), Selected(id). It picks by casting the pointer ray against the
// object bounding spheres (nearest hit wins), keeps selection exclusive, and
// notifies external consumers through hover/selection callbacks. Side effects
// are synchronous and idempotent: re-entering the current state changes
// nothing.
package interaction

import (
	"sync"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/engine/track_object"
)

// State is the controller's externally visible state.
type State int

const (
	// StateIdle means no object is hovered or selected.
	StateIdle State = iota
	// StateHovering means the pointer rests on an object.
	StateHovering
	// StateSelected means an object has been activated. Selection persists
	// until an explicit deselect or a different selection.
	StateSelected
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateHovering:
		return "hovering"
	case StateSelected:
		return "selected"
	default:
		return "idle"
	}
}

type controller struct {
	mu *sync.Mutex

	hovered  track_object.TrackObject
	selected track_object.TrackObject

	onHoverChanged     []func(id uint64, ok bool)
	onSelectionChanged []func(id uint64, ok bool)
}

// Controller is the pointer interaction state machine. Update runs once per
// frame after the render optimizer; its hover/select writes are visible to
// the camera director within the same frame.
type Controller interface {
	// Update advances the state machine for one frame of pointer input.
	// The ray is the pointer's world-space picking ray; rayOK is false when
	// no valid ray could be built (degenerate camera), in which case only
	// escape handling runs.
	//
	// Parameters:
	//   - pointer: the frame's pointer snapshot
	//   - ray: the world-space picking ray
	//   - rayOK: whether the ray is valid
	//   - objects: the live object set
	Update(pointer common.PointerState, ray common.Ray, rayOK bool, objects []track_object.TrackObject)

	// State returns the current machine state.
	State() State

	// HoveredID returns the hovered object's scene ID.
	//
	// Returns:
	//   - uint64: the hovered ID
	//   - bool: false when nothing is hovered
	HoveredID() (uint64, bool)

	// SelectedID returns the selected object's scene ID.
	//
	// Returns:
	//   - uint64: the selected ID
	//   - bool: false when nothing is selected
	SelectedID() (uint64, bool)

	// Deselect clears the current selection, reverting its visual state and
	// firing the selection callback. No-op when nothing is selected.
	Deselect()

	// Forget clears any hover/selection referencing the given object without
	// firing effects on it. Called by the scene when an object is removed.
	//
	// Parameters:
	//   - id: the removed object's scene ID
	Forget(id uint64)

	// OnHoverChanged registers a hover callback. Called with ok=false when
	// the hover clears. Multiple callbacks may be registered; every one
	// fires on each change, in registration order.
	//
	// Parameters:
	//   - fn: callback receiving the hovered ID (or ok=false)
	OnHoverChanged(fn func(id uint64, ok bool))

	// OnSelectionChanged registers a selection callback. Called with
	// ok=false when the selection clears. Multiple callbacks may be
	// registered; every one fires on each change, in registration order.
	//
	// Parameters:
	//   - fn: callback receiving the selected ID (or ok=false)
	OnSelectionChanged(fn func(id uint64, ok bool))
}

var _ Controller = &controller{}

// NewController creates an interaction Controller in the Idle state.
//
// Returns:
//   - Controller: the newly created controller
func NewController() Controller {
	return &controller{mu: &sync.Mutex{}}
}

func (c *controller) Update(pointer common.PointerState, ray common.Ray, rayOK bool, objects []track_object.TrackObject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hit track_object.TrackObject
	if rayOK {
		hit = pick(ray, objects)
	}

	c.setHovered(hit)

	if pointer.Escape {
		c.setSelected(nil)
		return
	}
	if pointer.Clicked {
		// Click on an object selects it; click on empty space deselects.
		c.setSelected(hit)
	}
}

func (c *controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.selected != nil:
		return StateSelected
	case c.hovered != nil:
		return StateHovering
	default:
		return StateIdle
	}
}

func (c *controller) HoveredID() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hovered == nil {
		return 0, false
	}
	return c.hovered.ID(), true
}

func (c *controller) SelectedID() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return 0, false
	}
	return c.selected.ID(), true
}

func (c *controller) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setSelected(nil)
}

func (c *controller) Forget(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hovered != nil && c.hovered.ID() == id {
		c.hovered = nil
		c.fireHover(0, false)
	}
	if c.selected != nil && c.selected.ID() == id {
		c.selected = nil
		c.fireSelection(0, false)
	}
}

func (c *controller) OnHoverChanged(fn func(id uint64, ok bool)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHoverChanged = append(c.onHoverChanged, fn)
}

func (c *controller) OnSelectionChanged(fn func(id uint64, ok bool)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSelectionChanged = append(c.onSelectionChanged, fn)
}

// setHovered moves the hover to obj (or clears it when obj is nil).
// Re-hovering the same object is a no-op. Caller must hold the mutex.
func (c *controller) setHovered(obj track_object.TrackObject) {
	if c.hovered == obj {
		return
	}
	if c.hovered != nil {
		c.hovered.SetHovered(false)
	}
	c.hovered = obj
	if obj != nil {
		obj.SetHovered(true)
		c.fireHover(obj.ID(), true)
	} else {
		c.fireHover(0, false)
	}
}

// setSelected moves the selection to obj (or clears it when obj is nil).
// The previous selection is always reverted first within the same call, so
// at most one object is ever selected. Re-selecting the current object is a
// no-op. Caller must hold the mutex.
func (c *controller) setSelected(obj track_object.TrackObject) {
	if c.selected == obj {
		return
	}
	if c.selected != nil {
		c.selected.SetSelected(false)
	}
	c.selected = obj
	if obj != nil {
		obj.SetSelected(true)
		c.fireSelection(obj.ID(), true)
	} else {
		c.fireSelection(0, false)
	}
}

func (c *controller) fireHover(id uint64, ok bool) {
	for _, fn := range c.onHoverChanged {
		fn(id, ok)
	}
}

func (c *controller) fireSelection(id uint64, ok bool) {
	for _, fn := range c.onSelectionChanged {
		fn(id, ok)
	}
}

// pick returns the nearest enabled, visible object hit by the ray, or nil.
// Ties resolve by distance; equidistant hits resolve to the lower scene ID
// for determinism.
func pick(ray common.Ray, objects []track_object.TrackObject) track_object.TrackObject {
	var best track_object.TrackObject
	var bestDist float32
	for _, obj := range objects {
		if !obj.Enabled() || !obj.Visible() {
			continue
		}
		center, radius := obj.BoundingSphere()
		dist, hit := ray.IntersectSphere(center, radius)
		if !hit {
			continue
		}
		if best == nil || dist < bestDist || (dist == bestDist && obj.ID() < best.ID()) {
			best = obj
			bestDist = dist
		}
	}
	return best
}
