// package engine runs the top-level frame loop: it polls window events,
// assembles the frame's pointer snapshot, routes orbit input to the camera
// while it is at rest, and drives the scene's Tick. All simulation runs on
// the window's event thread; there are no render or logic goroutines.
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/engine/camera"
	"github.com/BUka228/musical-soul/engine/profiler"
	"github.com/BUka228/musical-soul/engine/scene"
	"github.com/BUka228/musical-soul/engine/window"
)

// engine implements the Engine interface.
type engine struct {
	logger *zap.Logger

	window window.Window
	scene  scene.Scene

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrame  time.Time

	// Input accumulated between frames. GLFW callbacks and the frame loop
	// share the window's OS thread, so plain fields suffice.
	pointerX, pointerY float32
	clickPending       bool
	escapePending      bool
	zoomDelta          float32
	orbitLeft          bool
	orbitRight         bool
	orbitUp            bool
	orbitDown          bool

	frameCallback func(dt float32, report scene.FrameReport)
}

// Engine is the main entry point: it owns the window and the scene and runs
// the single-threaded frame loop until the window closes.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the attached scene.
	//
	// Returns:
	//   - scene.Scene: the scene instance
	Scene() scene.Scene

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetFrameCallback registers a function called after each frame with the
	// frame's delta time and the scene's report. Use this for HUD updates or
	// application logic layered on the scene.
	//
	// Parameters:
	//   - callback: function to call each frame
	SetFrameCallback(callback func(dt float32, report scene.FrameReport))

	// SetFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetFrameLimit(fps float64)

	// Run starts the main frame loop. Blocks until the window closes, then
	// disposes the scene.
	Run()

	// Quit closes the window, ending the frame loop.
	// Safe to call multiple times.
	Quit()
}

// NewEngine creates an Engine driving the given scene. Panics if s is nil.
// A default window is created unless one is supplied via WithWindow; input
// and resize events are wired to the scene automatically.
//
// Parameters:
//   - s: the scene to drive (must not be nil)
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(s scene.Scene, options ...EngineBuilderOption) Engine {
	if s == nil {
		panic("engine: NewEngine requires a non-nil Scene")
	}

	e := &engine{
		logger: zap.NewNop(),
		scene:  s,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		e.window = window.NewWindow(window.WithTitle("Musical Soul"))
	}
	e.profiler = profiler.NewProfiler(e.logger)

	e.scene.SetViewport(e.window.Width(), e.window.Height())
	e.wireInput()

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetFrameCallback(callback func(dt float32, report scene.FrameReport)) {
	e.frameCallback = callback
}

func (e *engine) SetFrameLimit(fps float64) {
	if fps <= 0 {
		e.frameLimit = 0
		return
	}
	e.frameLimit = time.Second / time.Duration(fps)
}

func (e *engine) Run() {
	e.lastFrame = time.Now()
	e.window.SetUpdateCallback(e.frame)
	e.window.ProcessMessages()
	e.scene.Dispose()
}

func (e *engine) Quit() {
	if err := e.window.Close(); err != nil {
		e.logger.Warn("window close failed", zap.Error(err))
	}
}

// wireInput registers the window callbacks that accumulate input for the
// next frame.
func (e *engine) wireInput() {
	e.window.SetResizeCallback(func(width, height int) {
		e.scene.SetViewport(width, height)
	})
	e.window.SetMouseMoveCallback(func(x, y int32) {
		e.pointerX = float32(x)
		e.pointerY = float32(y)
	})
	e.window.SetLeftMouseDownCallback(func(x, y int32) {
		e.pointerX = float32(x)
		e.pointerY = float32(y)
		e.clickPending = true
	})
	e.window.SetScrollCallback(func(delta float32) {
		e.zoomDelta += delta
	})
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyEsc:
			e.escapePending = true
		case common.KeyA:
			e.orbitLeft = true
		case common.KeyD:
			e.orbitRight = true
		case common.KeyW:
			e.orbitUp = true
		case common.KeyS:
			e.orbitDown = true
		}
	})
	e.window.SetKeyUpCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyA:
			e.orbitLeft = false
		case common.KeyD:
			e.orbitRight = false
		case common.KeyW:
			e.orbitUp = false
		case common.KeyS:
			e.orbitDown = false
		}
	})
}

// frame runs one iteration of the loop: apply orbit input, build the pointer
// snapshot, tick the scene, and enforce the optional frame cap.
func (e *engine) frame() {
	now := time.Now()
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now

	// Orbit and zoom input only applies while the camera is at rest; during
	// focus transitions the director owns the camera pose.
	if e.scene.Director().State() == camera.DirectorResting {
		if ctrl := e.scene.Camera().Controller(); ctrl != nil {
			if e.orbitLeft {
				ctrl.OrbitLeft()
			}
			if e.orbitRight {
				ctrl.OrbitRight()
			}
			if e.orbitUp {
				ctrl.OrbitUp()
			}
			if e.orbitDown {
				ctrl.OrbitDown()
			}
			if e.zoomDelta != 0 {
				ctrl.Zoom(e.zoomDelta)
			}
		}
	}
	e.zoomDelta = 0

	pointer := common.PointerState{
		X:       e.pointerX,
		Y:       e.pointerY,
		Clicked: e.clickPending,
		Escape:  e.escapePending,
	}
	e.clickPending = false
	e.escapePending = false

	report := e.scene.Tick(dt, pointer)

	if e.frameCallback != nil {
		e.frameCallback(dt, report)
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}

	// Frame rate limiting
	if e.frameLimit > 0 {
		if remaining := e.frameLimit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}
