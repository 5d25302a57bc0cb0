package render_optimizer

import (
	"time"

	"github.com/BUka228/musical-soul/config"
	"go.uber.org/zap"
)

// Warning names raised by the Monitor. Warnings are advisory: the monitor
// reports, the caller decides whether to reduce detail.
const (
	WarningFrameBudget = "frame_budget_exceeded"
	WarningDrawCalls   = "draw_calls_over_ceiling"
	WarningTriangles   = "triangles_over_ceiling"
	WarningMemory      = "memory_over_budget"
)

// Warning is one named advisory condition.
type Warning struct {
	// Name is one of the Warning* constants.
	Name string
	// Message is the human-readable detail.
	Message string
}

// Snapshot is the per-frame performance view polled by an external HUD or
// monitoring collaborator.
type Snapshot struct {
	// FPS is the frame rate averaged over the sample window.
	FPS float64
	// FrameTimeMillis is the frame time averaged over the sample window.
	FrameTimeMillis float64
	// DrawCalls is the draw call count of the last frame.
	DrawCalls int
	// Triangles is the triangle count of the last frame.
	Triangles int
	// MemoryMB is the estimated resident size of shared resources.
	MemoryMB float64
	// Warnings are the currently raised advisory conditions.
	Warnings []Warning
}

// frameWindow is the number of frames averaged for FPS and frame time.
const frameWindow = 120

// Monitor tracks frame time, draw calls, triangle count, and the memory
// estimate, and raises advisory warnings when configured thresholds are
// exceeded. Warnings are logged once on the transition to raised, not every
// frame.
type Monitor struct {
	cfg    config.Optimizer
	logger *zap.Logger

	frameTimes [frameWindow]time.Duration
	frameCount int
	cursor     int

	overBudgetStreak int

	lastDrawCalls int
	lastTriangles int
	lastMemory    int

	raised map[string]Warning
}

// NewMonitor creates a Monitor with the given thresholds. A nil logger
// defaults to a no-op logger.
//
// Parameters:
//   - cfg: the optimizer thresholds
//   - logger: structured logger for warning transitions (may be nil)
//
// Returns:
//   - *Monitor: the newly created monitor
func NewMonitor(cfg config.Optimizer, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		cfg:    cfg,
		logger: logger,
		raised: make(map[string]Warning),
	}
}

// RecordFrame ingests one frame's measurements and re-evaluates warnings.
//
// Parameters:
//   - frameTime: the measured frame duration
//   - drawCalls: the frame's draw call count
//   - triangles: the frame's triangle count
//   - memoryBytes: the current shared-resource memory estimate
func (m *Monitor) RecordFrame(frameTime time.Duration, drawCalls, triangles, memoryBytes int) {
	m.frameTimes[m.cursor] = frameTime
	m.cursor = (m.cursor + 1) % frameWindow
	if m.frameCount < frameWindow {
		m.frameCount++
	}

	m.lastDrawCalls = drawCalls
	m.lastTriangles = triangles
	m.lastMemory = memoryBytes

	budget := time.Duration(float64(m.cfg.FrameBudgetMillis) * float64(time.Millisecond))
	if budget > 0 && frameTime > budget {
		m.overBudgetStreak++
	} else {
		m.overBudgetStreak = 0
	}

	m.evaluate()
}

// Snapshot returns the current performance view.
//
// Returns:
//   - Snapshot: the averaged frame stats plus raised warnings
func (m *Monitor) Snapshot() Snapshot {
	var total time.Duration
	for i := 0; i < m.frameCount; i++ {
		total += m.frameTimes[i]
	}

	snap := Snapshot{
		DrawCalls: m.lastDrawCalls,
		Triangles: m.lastTriangles,
		MemoryMB:  float64(m.lastMemory) / 1024 / 1024,
		Warnings:  m.Warnings(),
	}
	if m.frameCount > 0 && total > 0 {
		avg := total / time.Duration(m.frameCount)
		snap.FrameTimeMillis = float64(avg) / float64(time.Millisecond)
		snap.FPS = float64(time.Second) / float64(avg)
	}
	return snap
}

// Warnings returns the currently raised advisory conditions.
//
// Returns:
//   - []Warning: the raised warnings (nil when none)
func (m *Monitor) Warnings() []Warning {
	if len(m.raised) == 0 {
		return nil
	}
	out := make([]Warning, 0, len(m.raised))
	for _, name := range []string{WarningFrameBudget, WarningDrawCalls, WarningTriangles, WarningMemory} {
		if w, ok := m.raised[name]; ok {
			out = append(out, w)
		}
	}
	return out
}

// evaluate recomputes the raised warning set from the latest measurements.
func (m *Monitor) evaluate() {
	m.setWarning(WarningFrameBudget,
		m.cfg.SustainedFrames > 0 && m.overBudgetStreak >= m.cfg.SustainedFrames,
		"sustained frame time above budget",
		zap.Float32("budget_ms", m.cfg.FrameBudgetMillis),
		zap.Int("streak", m.overBudgetStreak),
	)
	m.setWarning(WarningDrawCalls,
		m.cfg.MaxDrawCalls > 0 && m.lastDrawCalls > m.cfg.MaxDrawCalls,
		"draw calls above configured ceiling",
		zap.Int("draw_calls", m.lastDrawCalls),
		zap.Int("ceiling", m.cfg.MaxDrawCalls),
	)
	m.setWarning(WarningTriangles,
		m.cfg.MaxTriangles > 0 && m.lastTriangles > m.cfg.MaxTriangles,
		"triangle count above configured ceiling",
		zap.Int("triangles", m.lastTriangles),
		zap.Int("ceiling", m.cfg.MaxTriangles),
	)
	m.setWarning(WarningMemory,
		m.cfg.MemoryBudgetMB > 0 && float64(m.lastMemory)/1024/1024 > float64(m.cfg.MemoryBudgetMB),
		"estimated memory above budget",
		zap.Float64("memory_mb", float64(m.lastMemory)/1024/1024),
		zap.Float32("budget_mb", m.cfg.MemoryBudgetMB),
	)
}

// setWarning raises or clears one warning, logging only on the raise
// transition.
func (m *Monitor) setWarning(name string, active bool, message string, fields ...zap.Field) {
	_, wasRaised := m.raised[name]
	switch {
	case active && !wasRaised:
		m.raised[name] = Warning{Name: name, Message: message}
		m.logger.Warn(message, append([]zap.Field{zap.String("warning", name)}, fields...)...)
	case !active && wasRaised:
		delete(m.raised, name)
	}
}
