package render_optimizer

import (
	"go.uber.org/zap"
)

// OptimizerBuilderOption is a functional option for configuring an Optimizer.
// Use the With* functions to create options.
type OptimizerBuilderOption func(o *optimizer)

// WithLogger sets the structured logger used for advisory warning
// transitions. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the zap logger (nil is ignored)
//
// Returns:
//   - OptimizerBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) OptimizerBuilderOption {
	return func(o *optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithResourceCache replaces the optimizer's resource cache. Useful when a
// caller wants to share one cache across scenes.
//
// Parameters:
//   - cache: the cache to use (nil is ignored)
//
// Returns:
//   - OptimizerBuilderOption: option function to apply
func WithResourceCache(cache ResourceCache) OptimizerBuilderOption {
	return func(o *optimizer) {
		if cache != nil {
			o.cache = cache
		}
	}
}
