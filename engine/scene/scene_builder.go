package scene

import (
	"go.uber.org/zap"

	"github.com/BUka228/musical-soul/engine/camera"
	"github.com/BUka228/musical-soul/engine/interaction"
	"github.com/BUka228/musical-soul/engine/pulse"
	"github.com/BUka228/musical-soul/engine/render_optimizer"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithLogger sets the structured logger used by the scene and its default
// subsystems. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoadWorkers sets the number of worker goroutines used to fan out
// renderable creation during Load. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of load workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLoadWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.loadWorkers = n
	}
}

// WithViewport sets the initial viewport dimensions in pixels.
// Defaults to 1280x720.
//
// Parameters:
//   - width: viewport width in pixels
//   - height: viewport height in pixels
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithViewport(width, height int) SceneBuilderOption {
	return func(s *scene) {
		if width > 0 && height > 0 {
			s.viewportWidth = width
			s.viewportHeight = height
		}
	}
}

// WithCamera attaches a pre-built camera instead of the default one.
// Combine with WithCameraController when the camera carries a custom
// controller, so the director drives the same controller.
//
// Parameters:
//   - cam: the camera to attach
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithCameraController attaches a pre-built camera controller instead of the
// default orbit controller.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCameraController(ctrl camera.CameraController) SceneBuilderOption {
	return func(s *scene) {
		s.ctrl = ctrl
	}
}

// WithPulseEngine attaches a pre-built pulse engine instead of the default.
//
// Parameters:
//   - engine: the pulse engine to attach
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPulseEngine(engine pulse.Engine) SceneBuilderOption {
	return func(s *scene) {
		s.pulse = engine
	}
}

// WithOptimizer attaches a pre-built render optimizer instead of the default.
//
// Parameters:
//   - opt: the optimizer to attach
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithOptimizer(opt render_optimizer.Optimizer) SceneBuilderOption {
	return func(s *scene) {
		s.opt = opt
	}
}

// WithInteraction attaches a pre-built interaction controller instead of the
// default.
//
// Parameters:
//   - ctrl: the interaction controller to attach
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithInteraction(ctrl interaction.Controller) SceneBuilderOption {
	return func(s *scene) {
		s.interact = ctrl
	}
}
