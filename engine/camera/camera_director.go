package camera

import (
	"sync"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/config"
)

// DirectorState is the camera director's focus state.
type DirectorState int

const (
	// DirectorResting means the camera is under normal (orbit) control.
	DirectorResting DirectorState = iota
	// DirectorTransitioningTo means the camera is flying toward a focus target.
	DirectorTransitioningTo
	// DirectorFocused means the camera holds the framing pose on a target.
	DirectorFocused
	// DirectorTransitioningBack means the camera is returning to the pre-focus pose.
	DirectorTransitioningBack
)

// String returns the lowercase state name.
func (s DirectorState) String() string {
	switch s {
	case DirectorTransitioningTo:
		return "transitioning_to"
	case DirectorFocused:
		return "focused"
	case DirectorTransitioningBack:
		return "transitioning_back"
	default:
		return "resting"
	}
}

// pose is a camera position/target pair.
type pose struct {
	position [3]float32
	target   [3]float32
}

type director struct {
	mu *sync.Mutex

	ctrl CameraController
	cfg  config.Camera

	state     DirectorState
	targetID  uint64
	hasTarget bool

	start pose    // transition start pose
	end   pose    // transition end pose
	rest  pose    // pose to restore after defocus
	t     float32 // transition progress in [0, 1]

	blur float32 // current depth-of-field blur strength
}

// Director owns the camera's focus transition state machine. Selection drives
// fly-to transitions toward a framing pose computed from the target's
// position and size; deselection flies back to the pre-focus pose. A new
// selection arriving mid-transition retargets from the current interpolated
// pose, so the camera never snaps. Depth-of-field parameters track the same
// state continuously.
type Director interface {
	// Update advances the in-flight transition, writing the interpolated pose
	// to the camera controller. No-op while Resting or Focused.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// State returns the current focus state.
	State() DirectorState

	// TargetID returns the scene ID of the focus target.
	//
	// Returns:
	//   - uint64: the target ID
	//   - bool: false while Resting or TransitioningBack
	TargetID() (uint64, bool)

	// FocusOn starts (or retargets) a fly-to transition toward an object.
	// Re-focusing the current target is a no-op. A transition already in
	// flight is cancelled in place: the new one starts from the current
	// interpolated pose.
	//
	// Parameters:
	//   - id: the target object's scene ID
	//   - position: the target's world-space position
	//   - size: the target's scale, used to compute the framing distance
	FocusOn(id uint64, position [3]float32, size float32)

	// Defocus starts the return transition to the pre-focus pose. No-op while
	// Resting or already returning.
	Defocus()

	// DepthOfField returns the current post-effect parameters: the distance
	// the camera is focused at and the blur strength for everything else.
	// Both track transitions continuously.
	//
	// Returns:
	//   - focusDistance: current camera-to-target distance
	//   - blur: blur strength in [0, MaxBlur]
	DepthOfField() (focusDistance, blur float32)
}

var _ Director = &director{}

// NewDirector creates a camera Director driving the given controller.
// Panics if cfg or ctrl is nil.
//
// Parameters:
//   - cfg: the scene configuration providing transition timing
//   - ctrl: the camera controller to drive
//
// Returns:
//   - Director: the newly created director
func NewDirector(cfg *config.Config, ctrl CameraController) Director {
	if cfg == nil {
		panic("camera: NewDirector requires a non-nil config")
	}
	if ctrl == nil {
		panic("camera: NewDirector requires a non-nil CameraController")
	}
	return &director{
		mu:    &sync.Mutex{},
		ctrl:  ctrl,
		cfg:   cfg.Camera,
		state: DirectorResting,
	}
}

func (d *director) Update(dt float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case DirectorTransitioningTo, DirectorTransitioningBack:
		d.t += dt / d.cfg.TransitionSeconds
		done := d.t >= 1
		if done {
			d.t = 1
		}

		s := common.Smoothstep(d.t)
		pos := common.Lerp3(d.start.position, d.end.position, s)
		target := common.Lerp3(d.start.target, d.end.target, s)
		d.ctrl.SetTarget(target[0], target[1], target[2])
		d.ctrl.SetPosition(pos[0], pos[1], pos[2])

		if d.state == DirectorTransitioningTo {
			d.blur = d.cfg.MaxBlur * s
			if done {
				d.state = DirectorFocused
			}
		} else {
			d.blur = d.cfg.MaxBlur * (1 - s)
			if done {
				d.state = DirectorResting
				d.hasTarget = false
				// Re-sync the controller's spherical coordinates with the
				// restored pose so orbit input resumes without a jump.
				d.ctrl.SetTarget(d.rest.target[0], d.rest.target[1], d.rest.target[2])
			}
		}
	case DirectorFocused:
		d.blur = d.cfg.MaxBlur
	default:
		d.blur = 0
	}
}

func (d *director) State() DirectorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *director) TargetID() (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasTarget {
		return 0, false
	}
	return d.targetID, true
}

func (d *director) FocusOn(id uint64, position [3]float32, size float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hasTarget && d.targetID == id && (d.state == DirectorTransitioningTo || d.state == DirectorFocused) {
		return
	}

	current := d.currentPose()
	if d.state == DirectorResting {
		d.rest = current
	}

	distance := size * d.cfg.FocusDistanceFactor
	if distance < d.cfg.MinFocusDistance {
		distance = d.cfg.MinFocusDistance
	}
	dir := common.Normalize3(common.Sub3(current.position, position))
	if dir == [3]float32{} {
		dir = [3]float32{0, 0, 1}
	}

	d.start = current
	d.end = pose{
		position: [3]float32{
			position[0] + dir[0]*distance,
			position[1] + dir[1]*distance,
			position[2] + dir[2]*distance,
		},
		target: position,
	}
	d.t = 0
	d.state = DirectorTransitioningTo
	d.targetID = id
	d.hasTarget = true
}

func (d *director) Defocus() {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case DirectorFocused, DirectorTransitioningTo:
		d.start = d.currentPose()
		d.end = d.rest
		d.t = 0
		d.state = DirectorTransitioningBack
		d.hasTarget = false
	}
}

func (d *director) DepthOfField() (focusDistance, blur float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.currentPose()
	return common.Length3(common.Sub3(p.position, p.target)), d.blur
}

// currentPose reads the controller's live pose. Caller must hold the mutex.
func (d *director) currentPose() pose {
	px, py, pz := d.ctrl.Position()
	tx, ty, tz := d.ctrl.Target()
	return pose{
		position: [3]float32{px, py, pz},
		target:   [3]float32{tx, ty, tz},
	}
}
