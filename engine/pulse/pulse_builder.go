package pulse

// EngineBuilderOption is a functional option for configuring a pulse Engine.
// Use the With* functions to create options.
type EngineBuilderOption func(e *engine)

// WithEnabled sets the initial enabled state. Default is enabled.
//
// Parameters:
//   - enabled: whether pulsation advances on Update
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEnabled(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.enabled = enabled
	}
}

// WithSpeedMultiplier sets the initial global speed multiplier. Values <= 0
// are ignored. Default is 1.
//
// Parameters:
//   - mul: the speed multiplier
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSpeedMultiplier(mul float32) EngineBuilderOption {
	return func(e *engine) {
		if mul > 0 {
			e.speedMul = mul
		}
	}
}

// WithAmplitudeMultiplier sets the initial global amplitude multiplier.
// Values < 0 are ignored. Default is 1.
//
// Parameters:
//   - mul: the amplitude multiplier
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAmplitudeMultiplier(mul float32) EngineBuilderOption {
	return func(e *engine) {
		if mul >= 0 {
			e.ampMul = mul
		}
	}
}
