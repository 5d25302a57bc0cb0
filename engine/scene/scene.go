// package scene is the frame coordinator: it owns the track object set and
// runs the fixed per-frame pipeline over the collaborating subsystems. All
// live-state updates happen on the single frame thread in a deterministic
// order; structural changes requested mid-frame are deferred to the next
// frame boundary.
package scene

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/config"
	"github.com/BUka228/musical-soul/engine/attribute_mapper"
	"github.com/BUka228/musical-soul/engine/camera"
	"github.com/BUka228/musical-soul/engine/graphics"
	"github.com/BUka228/musical-soul/engine/interaction"
	"github.com/BUka228/musical-soul/engine/pulse"
	"github.com/BUka228/musical-soul/engine/render_optimizer"
	"github.com/BUka228/musical-soul/engine/track_object"
)

// FrameReport summarizes one completed Tick for the caller (HUD, profiler,
// or tests).
type FrameReport struct {
	// Objects is the number of live track objects this frame.
	Objects int
	// Visible is the number of objects that passed culling.
	Visible int
	// DrawCalls is the draw call count of the frame's plan.
	DrawCalls int
	// Triangles is the triangle count of the frame's plan.
	Triangles int
	// FrameTime is the measured duration of the Tick.
	FrameTime time.Duration
}

// Scene coordinates the crystal scene: it maps track records to objects,
// owns object lifetime, and drives the per-frame update pipeline in a fixed
// order (structural changes, pulse, camera, culling/batching, picking,
// camera transitions, device writes, monitoring). Tick must be called from a
// single goroutine; the accessor methods are safe to call concurrently.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Load maps the given catalogue into the scene and creates all renderable
	// objects. Renderable creation is fanned out across the load worker pool.
	// Records missing a title or artist are dropped. Returns an error if the
	// scene already holds objects or has been disposed.
	//
	// Panics on a duplicate track ID within the catalogue.
	//
	// Parameters:
	//   - records: the track catalogue
	//
	// Returns:
	//   - error: error if the scene cannot be loaded
	Load(records []common.TrackRecord) error

	// Add queues track records for insertion at the next frame boundary.
	// Records whose track ID already exists in the scene are skipped.
	// Existing objects keep their placement; only the new records are
	// instantiated.
	//
	// Parameters:
	//   - records: the records to add
	Add(records ...common.TrackRecord)

	// Remove queues an object for removal at the next frame boundary. The
	// object's renderable is disposed, its shared resources released, and any
	// hover/selection referencing it cleared. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the object's scene ID
	Remove(id uint64)

	// Get retrieves a track object by its scene ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's scene ID
	//
	// Returns:
	//   - track_object.TrackObject: the object or nil
	Get(id uint64) track_object.TrackObject

	// ByTrackID retrieves the scene ID assigned to a catalogue track.
	//
	// Parameters:
	//   - trackID: the catalogue track identifier
	//
	// Returns:
	//   - uint64: the scene ID
	//   - bool: false if the track is not in the scene
	ByTrackID(trackID string) (uint64, bool)

	// Objects returns a snapshot of the live object set in insertion order.
	//
	// Returns:
	//   - []track_object.TrackObject: the object snapshot
	Objects() []track_object.TrackObject

	// Count returns the number of live track objects.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// Tick advances the scene by one frame: deferred structural changes are
	// applied, the pulse engine, camera, render optimizer, interaction
	// controller, and camera director update in that order, and the resulting
	// state is pushed to the graphics device. A zero dt applies structural
	// changes but advances no animation.
	//
	// Parameters:
	//   - dt: elapsed time since the last frame in seconds
	//   - pointer: the frame's pointer snapshot
	//
	// Returns:
	//   - FrameReport: the frame summary
	Tick(dt float32, pointer common.PointerState) FrameReport

	// SetViewport updates the pixel dimensions used for picking-ray
	// construction and the camera aspect ratio.
	//
	// Parameters:
	//   - width: viewport width in pixels
	//   - height: viewport height in pixels
	SetViewport(width, height int)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Director returns the camera focus director.
	Director() camera.Director

	// Pulse returns the pulsation engine.
	Pulse() pulse.Engine

	// Optimizer returns the render optimizer.
	Optimizer() render_optimizer.Optimizer

	// Interaction returns the pointer interaction controller.
	Interaction() interaction.Controller

	// Dispose releases every renderable exactly once and clears the object
	// set. The scene rejects further Loads afterwards. Safe to call more than
	// once.
	Dispose()
}

type scene struct {
	mu *sync.Mutex

	name   string
	cfg    *config.Config
	logger *zap.Logger

	device   graphics.Device
	mapper   attribute_mapper.Mapper
	pulse    pulse.Engine
	opt      render_optimizer.Optimizer
	interact interaction.Controller

	cam      camera.Camera
	ctrl     camera.CameraController
	director camera.Director

	registry map[uint64]track_object.TrackObject
	byTrack  map[string]uint64
	ordered  []track_object.TrackObject
	nextID   uint64

	pendingAdd    []common.TrackRecord
	pendingRemove []uint64

	viewportWidth  int
	viewportHeight int

	disposed bool

	// loadPool fans out renderable creation during Load. Workers persist
	// across loads, mirroring the per-frame compute pool pattern.
	loadPool    worker.DynamicWorkerPool
	loadWorkers int
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a Scene bound to a configuration and a graphics device.
// Both are required and NewScene panics if either is nil. The camera,
// controller, director, pulse engine, optimizer, and interaction controller
// are created with defaults unless overridden by options; selection changes
// are wired to the camera director automatically.
//
// Parameters:
//   - name: the name of the scene
//   - cfg: the scene configuration (must not be nil)
//   - device: the graphics device to render through (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cfg *config.Config, device graphics.Device, options ...SceneBuilderOption) Scene {
	if cfg == nil {
		panic("scene: NewScene requires a non-nil config")
	}
	if device == nil {
		panic("scene: NewScene requires a non-nil Device")
	}

	s := &scene{
		mu:             &sync.Mutex{},
		name:           name,
		cfg:            cfg,
		logger:         zap.NewNop(),
		device:         device,
		registry:       make(map[uint64]track_object.TrackObject),
		byTrack:        make(map[string]uint64),
		nextID:         1,
		viewportWidth:  1280,
		viewportHeight: 720,
		loadWorkers:    max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Fill in components not supplied via options.
	s.mapper = attribute_mapper.NewMapper(cfg)
	if s.pulse == nil {
		s.pulse = pulse.NewEngine(cfg)
	}
	if s.opt == nil {
		s.opt = render_optimizer.NewOptimizer(cfg, render_optimizer.WithLogger(s.logger))
	}
	if s.interact == nil {
		s.interact = interaction.NewController()
	}
	if s.ctrl == nil {
		s.ctrl = camera.NewCameraController()
	}
	if s.cam == nil {
		s.cam = camera.NewCamera(
			camera.WithController(s.ctrl),
			camera.WithAspect(float32(s.viewportWidth)/float32(s.viewportHeight)),
		)
	}
	s.director = camera.NewDirector(cfg, s.ctrl)

	// Initialize the load pool after options so WithLoadWorkers can override
	// the default. Queue size of 256 accommodates typical catalogue sizes
	// with headroom.
	s.loadPool = worker.NewDynamicWorkerPool(s.loadWorkers, 256, 1*time.Second)

	// Selection drives the camera: selecting a crystal flies the camera to
	// its framing pose, deselecting flies back.
	s.interact.OnSelectionChanged(func(id uint64, ok bool) {
		if !ok {
			s.director.Defocus()
			return
		}
		s.mu.Lock()
		obj, found := s.registry[id]
		s.mu.Unlock()
		if !found {
			return
		}
		s.director.FocusOn(id, obj.Position(), obj.BaseScale())
	})

	return s
}

func (s *scene) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *scene) Load(records []common.TrackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return fmt.Errorf("scene %q: Load after Dispose", s.name)
	}
	if len(s.registry) > 0 {
		return fmt.Errorf("scene %q: Load on a non-empty scene, use Add for incremental inserts", s.name)
	}

	kept, attrs := s.mapper.Map(records)
	seen := make(map[string]struct{}, len(kept))
	for _, rec := range kept {
		if _, dup := seen[rec.ID]; dup {
			panic(fmt.Sprintf("scene: duplicate track ID %q in catalogue", rec.ID))
		}
		seen[rec.ID] = struct{}{}
	}

	s.instantiateLocked(kept, attrs)
	s.pulse.Rebuild(s.snapshotLocked())

	s.logger.Info("scene loaded",
		zap.String("scene", s.name),
		zap.Int("records", len(records)),
		zap.Int("objects", len(s.ordered)),
	)
	return nil
}

func (s *scene) Add(records ...common.TrackRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingAdd = append(s.pendingAdd, records...)
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingRemove = append(s.pendingRemove, id)
}

func (s *scene) Get(id uint64) track_object.TrackObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry[id]
}

func (s *scene) ByTrackID(trackID string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byTrack[trackID]
	return id, ok
}

func (s *scene) Objects() []track_object.TrackObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *scene) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registry)
}

func (s *scene) Tick(dt float32, pointer common.PointerState) FrameReport {
	start := time.Now()

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return FrameReport{}
	}
	s.applyPendingLocked()
	objects := s.snapshotLocked()
	width, height := s.viewportWidth, s.viewportHeight
	s.mu.Unlock()

	s.pulse.Update(dt)
	s.cam.Update()
	viewProj := s.cam.ViewProjectionMatrix()
	s.opt.Update(viewProj, objects)

	ray, rayOK := common.RayFromScreen(pointer.X, pointer.Y, width, height, viewProj[:])
	s.interact.Update(pointer, ray, rayOK, objects)
	s.director.Update(dt)

	// Push the frame's resolved state to the device. Objects whose renderable
	// could not be created carry NilHandle and are skipped, not failed.
	for _, obj := range objects {
		h := obj.Handle()
		if h == graphics.NilHandle || !obj.Enabled() {
			continue
		}
		sc := obj.CurrentScale()
		s.device.SetTransform(h, obj.Position(), [3]float32{sc, sc, sc}, obj.Rotation())
		s.device.SetMaterialParams(h, obj.Attributes().Color, obj.Emissive())
		s.device.SetVisible(h, obj.Visible())
	}

	plan := s.opt.Plan()
	frameTime := time.Since(start)
	s.opt.Monitor().RecordFrame(frameTime, plan.DrawCalls, plan.Triangles, s.opt.Cache().MemoryEstimate())

	return FrameReport{
		Objects:   len(objects),
		Visible:   plan.Visible,
		DrawCalls: plan.DrawCalls,
		Triangles: plan.Triangles,
		FrameTime: frameTime,
	}
}

func (s *scene) SetViewport(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	s.viewportWidth = width
	s.viewportHeight = height
	s.cam.SetAspect(float32(width) / float32(height))
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Director() camera.Director {
	return s.director
}

func (s *scene) Pulse() pulse.Engine {
	return s.pulse
}

func (s *scene) Optimizer() render_optimizer.Optimizer {
	return s.opt
}

func (s *scene) Interaction() interaction.Controller {
	return s.interact
}

func (s *scene) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true

	for _, obj := range s.ordered {
		s.releaseLocked(obj)
	}
	s.registry = make(map[uint64]track_object.TrackObject)
	s.byTrack = make(map[string]uint64)
	s.ordered = nil
	s.pendingAdd = nil
	s.pendingRemove = nil

	s.logger.Info("scene disposed", zap.String("scene", s.name))
}

// snapshotLocked copies the ordered object list. Caller must hold the mutex.
func (s *scene) snapshotLocked() []track_object.TrackObject {
	return append([]track_object.TrackObject(nil), s.ordered...)
}

// applyPendingLocked applies deferred structural changes at the frame
// boundary: removals first, then insertions. Rebuilds pulse groups when the
// object set changed. Caller must hold the mutex.
func (s *scene) applyPendingLocked() {
	changed := false

	for _, id := range s.pendingRemove {
		obj, ok := s.registry[id]
		if !ok {
			continue
		}
		s.releaseLocked(obj)
		delete(s.registry, id)
		delete(s.byTrack, obj.TrackID())
		for i, o := range s.ordered {
			if o.ID() == id {
				s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
				break
			}
		}
		s.opt.Remove(id)
		s.interact.Forget(id)
		changed = true
	}
	s.pendingRemove = s.pendingRemove[:0]

	if len(s.pendingAdd) > 0 {
		// Re-map over the combined catalogue so new records land in their
		// genre sectors, but only instantiate the new ones: existing objects
		// keep the placement they were loaded with.
		all := make([]common.TrackRecord, 0, len(s.ordered)+len(s.pendingAdd))
		for _, obj := range s.ordered {
			all = append(all, obj.Record())
		}
		all = append(all, s.pendingAdd...)

		kept, attrs := s.mapper.Map(all)
		var newKept []common.TrackRecord
		var newAttrs []common.VisualAttributes
		newSeen := make(map[string]struct{})
		for i, rec := range kept {
			if _, exists := s.byTrack[rec.ID]; exists {
				continue
			}
			if _, dup := newSeen[rec.ID]; dup {
				s.logger.Warn("skipping duplicate track in Add", zap.String("track_id", rec.ID))
				continue
			}
			newSeen[rec.ID] = struct{}{}
			newKept = append(newKept, rec)
			newAttrs = append(newAttrs, attrs[i])
		}
		s.pendingAdd = s.pendingAdd[:0]

		if len(newKept) > 0 {
			s.instantiateLocked(newKept, newAttrs)
			changed = true
		}
	}

	if changed {
		s.pulse.Rebuild(s.snapshotLocked())
	}
}

// instantiateLocked creates track objects and their renderables for the given
// record/attribute pairs. Renderable creation is fanned out across the load
// pool with a WaitGroup barrier; registry insertion stays sequential so IDs
// and insertion order are deterministic. Caller must hold the mutex.
func (s *scene) instantiateLocked(records []common.TrackRecord, attrs []common.VisualAttributes) {
	type createResult struct {
		handle graphics.Handle
		err    error
	}
	results := make([]createResult, len(records))

	var wg sync.WaitGroup
	taskID := 0
	for i := range records {
		wg.Add(1)
		idx := i // capture for closure
		class := attrs[i].Geometry
		id := taskID
		taskID++
		s.loadPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				h, err := s.device.CreateObject(class)
				results[idx] = createResult{handle: h, err: err}
				return nil, nil
			},
		})
	}
	wg.Wait()

	cache := s.opt.Cache()
	for i, rec := range records {
		handle := results[i].handle
		if results[i].err != nil {
			s.logger.Warn("renderable creation failed, track will not be drawn",
				zap.String("track_id", rec.ID),
				zap.String("title", rec.Title),
				zap.Error(results[i].err),
			)
			handle = graphics.NilHandle
		}

		objID := s.nextID
		s.nextID++

		obj := track_object.NewTrackObject(
			track_object.WithID(objID),
			track_object.WithRecord(rec),
			track_object.WithAttributes(attrs[i]),
			track_object.WithHandle(handle),
		)

		cache.AcquireGeometry(attrs[i].Geometry)
		cache.AcquireMaterial(attrs[i].Geometry, attrs[i].Color)

		s.registry[objID] = obj
		s.byTrack[rec.ID] = objID
		s.ordered = append(s.ordered, obj)

		if handle != graphics.NilHandle {
			size := attrs[i].Size
			s.device.SetTransform(handle, attrs[i].Position, [3]float32{size, size, size}, [3]float32{})
			s.device.SetMaterialParams(handle, attrs[i].Color, 0)
			s.device.SetVisible(handle, true)
		}
	}
}

// releaseLocked disposes an object's renderable exactly once and drops its
// shared resource references. Caller must hold the mutex.
func (s *scene) releaseLocked(obj track_object.TrackObject) {
	if h := obj.Handle(); h != graphics.NilHandle {
		s.device.Dispose(h)
		obj.SetHandle(graphics.NilHandle)
	}
	attrs := obj.Attributes()
	cache := s.opt.Cache()
	cache.ReleaseGeometry(attrs.Geometry)
	cache.ReleaseMaterial(attrs.Geometry, attrs.Color)
	obj.SetEnabled(false)
}
