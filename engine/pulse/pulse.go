// package pulse advances the per-crystal pulsation state each frame: phase,
// rendered scale, emissive intensity, and idle rotation. Objects with similar
// derived tempo share a SyncGroup whose phase anchor is advanced once per
// group per tick, so a genre cluster visibly breathes together while bounded
// per-member offsets keep it from looking robotic.
package pulse

import (
	"sort"
	"sync"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/config"
	"github.com/BUka228/musical-soul/engine/track_object"
	"github.com/chewxy/math32"
)

const tau = 2 * math32.Pi

// member is the cached pulse state of one object. Angular speed and offset
// are derived once at Rebuild, not per tick.
type member struct {
	obj    track_object.TrackObject
	omega  float32 // angular speed in rad/s
	bpmEq  float32 // effective tempo in BPM, used only for group clustering
	amp    float32 // genre amplitude excursion
	offset float32 // bounded phase offset from the group anchor
	group  int
}

// group is one SyncGroup: a shared phase anchor advanced at the tempo of the
// group's first (slowest) member.
type group struct {
	anchor float32
	omega  float32
}

type engine struct {
	mu *sync.Mutex

	cfg *config.Config

	members []member
	groups  []group
	byID    map[uint64]int // object ID -> members index

	enabled  bool
	speedMul float32
	ampMul   float32
}

// Engine is the pulsation engine. Rebuild derives tempo and sync groups from
// the current object set (linear-log work, done only on membership change);
// Update advances all phases in linear time and writes scale, emissive, and
// rotation through the pulse-owned fields of each object. The engine never
// creates or destroys renderable resources.
type Engine interface {
	// Rebuild recomputes per-object tempo and re-clusters SyncGroups. Call
	// when the object set changes, never per tick.
	//
	// Parameters:
	//   - objects: the live object set
	Rebuild(objects []track_object.TrackObject)

	// Update advances all group anchors and member phases by dt and writes
	// each object's current scale, emissive intensity, and rotation.
	// A zero dt leaves all outputs unchanged. No-op while disabled.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// Enabled reports whether the engine advances state on Update.
	Enabled() bool

	// SetEnabled toggles pulsation. Disabling freezes current values.
	SetEnabled(enabled bool)

	// SpeedMultiplier returns the global speed multiplier.
	SpeedMultiplier() float32

	// SetSpeedMultiplier scales all pulse speeds uniformly without altering
	// per-object relative differences. Values <= 0 are ignored.
	SetSpeedMultiplier(mul float32)

	// AmplitudeMultiplier returns the global amplitude multiplier.
	AmplitudeMultiplier() float32

	// SetAmplitudeMultiplier scales all excursions uniformly. Values < 0 are
	// ignored.
	SetAmplitudeMultiplier(mul float32)

	// GroupCount returns the number of SyncGroups formed by the last Rebuild.
	GroupCount() int

	// GroupOf returns the SyncGroup index of an object.
	//
	// Parameters:
	//   - id: the object's scene ID
	//
	// Returns:
	//   - int: the group index
	//   - bool: false if the object is unknown to the engine
	GroupOf(id uint64) (int, bool)
}

var _ Engine = &engine{}

// NewEngine creates a pulse Engine bound to a configuration. Panics if cfg is
// nil.
//
// Parameters:
//   - cfg: the scene configuration providing genre pulse styles and envelope
//   - options: functional options to further configure the engine
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(cfg *config.Config, options ...EngineBuilderOption) Engine {
	if cfg == nil {
		panic("pulse: NewEngine requires a non-nil config")
	}
	e := &engine{
		mu:       &sync.Mutex{},
		cfg:      cfg,
		byID:     make(map[uint64]int),
		enabled:  true,
		speedMul: 1,
		ampMul:   1,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *engine) Rebuild(objects []track_object.TrackObject) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.members = e.members[:0]
	for _, obj := range objects {
		freq := e.frequency(obj.Record())
		e.members = append(e.members, member{
			obj:    obj,
			omega:  tau * freq,
			bpmEq:  freq * 60,
			amp:    e.cfg.Style(obj.Record().Genre).Amplitude,
			offset: common.HashString01(obj.TrackID()) * e.cfg.Pulse.MaxGroupOffset,
		})

		// Deterministic idle spin, strongest around the vertical axis.
		h := common.HashString01(obj.TrackID())
		maxSpin := e.cfg.Pulse.MaxRotationSpeed
		obj.SetRotationSpeed([3]float32{
			(common.Hash01(uint32(obj.ID())) - 0.5) * 0.3 * maxSpin,
			(0.5 + 0.5*h) * maxSpin,
			0,
		})
	}

	// Cluster members whose effective tempo falls within the tolerance band.
	// Sort by tempo (ID as tiebreaker for determinism), then sweep greedily.
	sort.Slice(e.members, func(i, j int) bool {
		if e.members[i].bpmEq != e.members[j].bpmEq {
			return e.members[i].bpmEq < e.members[j].bpmEq
		}
		return e.members[i].obj.ID() < e.members[j].obj.ID()
	})

	e.groups = e.groups[:0]
	e.byID = make(map[uint64]int, len(e.members))
	tolerance := e.cfg.Pulse.TempoTolerance
	var groupStart float32
	for i := range e.members {
		m := &e.members[i]
		if len(e.groups) == 0 || m.bpmEq-groupStart > tolerance {
			e.groups = append(e.groups, group{omega: m.omega})
			groupStart = m.bpmEq
		}
		m.group = len(e.groups) - 1
		e.byID[m.obj.ID()] = i
	}
}

func (e *engine) Update(dt float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled || len(e.members) == 0 {
		return
	}

	for i := range e.groups {
		e.groups[i].anchor = wrapPhase(e.groups[i].anchor + e.groups[i].omega*e.speedMul*dt)
	}

	pc := e.cfg.Pulse
	for i := range e.members {
		m := &e.members[i]
		obj := m.obj

		phase := wrapPhase(e.groups[m.group].anchor + m.offset)
		obj.SetPulsePhase(phase)

		// Amplitude stays below 1 so the scale never collapses through zero
		// even under an aggressive global multiplier.
		amp := common.Clamp(m.amp*e.ampMul, 0, 0.95)
		wave := math32.Sin(phase)

		boost := float32(1)
		emissiveBoost := float32(0)
		switch {
		case obj.Selected():
			boost = pc.SelectBoost
			emissiveBoost = pc.SelectEmissive
		case obj.Hovered():
			boost = pc.HoverBoost
			emissiveBoost = pc.HoverEmissive
		}

		obj.SetCurrentScale(obj.BaseScale() * (1 + amp*wave) * boost)
		obj.SetEmissive(amp*(0.5+0.5*wave) + emissiveBoost)

		spin := obj.RotationSpeed()
		rot := obj.Rotation()
		obj.SetRotation([3]float32{
			wrapPhase(rot[0] + spin[0]*dt),
			wrapPhase(rot[1] + spin[1]*dt),
			wrapPhase(rot[2] + spin[2]*dt),
		})
	}
}

func (e *engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

func (e *engine) SpeedMultiplier() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speedMul
}

func (e *engine) SetSpeedMultiplier(mul float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mul <= 0 {
		return
	}
	e.speedMul = mul
}

func (e *engine) AmplitudeMultiplier() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ampMul
}

func (e *engine) SetAmplitudeMultiplier(mul float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mul < 0 {
		return
	}
	e.ampMul = mul
}

func (e *engine) GroupCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.groups)
}

func (e *engine) GroupOf(id uint64) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.byID[id]
	if !ok {
		return 0, false
	}
	return e.members[i].group, true
}

// frequency derives the pulse frequency in Hz for a record: genre tempo when
// the table has an estimate, otherwise the popularity fallback. The result is
// clamped into the configured envelope regardless of input extremes.
func (e *engine) frequency(rec common.TrackRecord) float32 {
	style := e.cfg.Style(rec.Genre)
	pc := e.cfg.Pulse

	var freq float32
	if style.BPM > 0 {
		freq = style.BPM / 60 * style.Sharpness
	} else {
		pop := common.Clamp(float32(rec.Popularity), 0, 100)
		freq = pc.BaseFrequency * (0.5 + pop/200) * style.Sharpness
	}
	return common.Clamp(freq, pc.MinFrequency, pc.MaxFrequency)
}

// wrapPhase keeps a phase in [0, 2π).
func wrapPhase(p float32) float32 {
	p = math32.Mod(p, tau)
	if p < 0 {
		p += tau
	}
	return p
}
