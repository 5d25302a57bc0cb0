// package render_optimizer keeps the per-frame rendering cost bounded as the
// scene grows: frustum culling over bounding spheres, draw-call batching by
// instancing key, refcounted reuse of shared geometry/material resources, and
// an advisory performance monitor. The optimizer only reports pressure; it
// never lowers visual fidelity on its own.
package render_optimizer

import (
	"sort"
	"sync"

	"github.com/BUka228/musical-soul/common"
	"github.com/BUka228/musical-soul/config"
	"github.com/BUka228/musical-soul/engine/track_object"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// BatchKey identifies one instance batch: objects sharing a geometry class
// and a quantized size bucket render as a single instanced draw.
type BatchKey struct {
	// Class is the geometry bucket.
	Class common.GeometryClass
	// Bucket is the quantized size index: round(size / bucketWidth).
	Bucket int32
}

// InstanceBatch is one batched draw: the key plus the member object IDs.
type InstanceBatch struct {
	Key     BatchKey
	Members []uint64
}

// DrawPlan is the per-frame batching decision: instance batches large enough
// to batch, individually drawn leftovers, and the resulting totals.
type DrawPlan struct {
	// Batches are the groups rendered as one instanced draw call each.
	Batches []InstanceBatch
	// Individual are visible objects whose group was below the batching
	// minimum; each costs one draw call.
	Individual []uint64
	// DrawCalls is len(Batches) + len(Individual).
	DrawCalls int
	// Triangles is the total triangle count of all visible objects.
	Triangles int
	// Visible is the number of objects that passed culling.
	Visible int
}

type optimizer struct {
	mu *sync.Mutex

	cfg     config.Optimizer
	cache   ResourceCache
	monitor *Monitor
	logger  *zap.Logger

	// Incremental batch membership: only objects whose visibility or bucket
	// key changed since the last frame are moved.
	assigned map[uint64]BatchKey
	batches  map[BatchKey]map[uint64]struct{}

	plan DrawPlan
}

// Optimizer is the rendering-cost optimization layer. Update runs once per
// frame after the pulse engine: it culls against the camera frustum (writing
// the optimizer-owned visibility field of each object) and maintains the
// instance batch partition. Culling is conservative: an object on screen is
// never marked not-visible.
type Optimizer interface {
	// Update culls the object set against the view volume and refreshes the
	// batching plan.
	//
	// Parameters:
	//   - viewProj: the camera's combined view-projection matrix
	//   - objects: the live object set
	Update(viewProj [16]float32, objects []track_object.TrackObject)

	// Plan returns the batching plan produced by the last Update.
	//
	// Returns:
	//   - DrawPlan: the current plan
	Plan() DrawPlan

	// Remove drops an object's batching state. Called on structural removal.
	//
	// Parameters:
	//   - id: the object's scene ID
	Remove(id uint64)

	// Cache returns the shared geometry/material resource cache.
	//
	// Returns:
	//   - ResourceCache: the cache
	Cache() ResourceCache

	// Monitor returns the performance monitor.
	//
	// Returns:
	//   - *Monitor: the monitor
	Monitor() *Monitor
}

var _ Optimizer = &optimizer{}

// NewOptimizer creates an Optimizer with the given thresholds. Panics if cfg
// is nil.
//
// Parameters:
//   - cfg: the scene configuration providing optimizer settings
//   - options: functional options to further configure the optimizer
//
// Returns:
//   - Optimizer: the newly created optimizer
func NewOptimizer(cfg *config.Config, options ...OptimizerBuilderOption) Optimizer {
	if cfg == nil {
		panic("render_optimizer: NewOptimizer requires a non-nil config")
	}
	o := &optimizer{
		mu:       &sync.Mutex{},
		cfg:      cfg.Optimizer,
		cache:    NewResourceCache(),
		logger:   zap.NewNop(),
		assigned: make(map[uint64]BatchKey),
		batches:  make(map[BatchKey]map[uint64]struct{}),
	}
	for _, option := range options {
		option(o)
	}
	o.monitor = NewMonitor(o.cfg, o.logger)
	return o
}

func (o *optimizer) Update(viewProj [16]float32, objects []track_object.TrackObject) {
	o.mu.Lock()
	defer o.mu.Unlock()

	frustum := common.ExtractFrustumFromMatrix(viewProj[:])

	for _, obj := range objects {
		id := obj.ID()
		visible := false
		if obj.Enabled() {
			center, radius := obj.BoundingSphere()
			visible = frustum.IntersectsSphere(center, radius)
		}
		obj.SetVisible(visible)

		prev, had := o.assigned[id]
		if !visible {
			if had {
				o.detach(id, prev)
			}
			continue
		}

		key := o.keyFor(obj)
		if had && prev == key {
			continue
		}
		if had {
			o.detach(id, prev)
		}
		members, ok := o.batches[key]
		if !ok {
			members = make(map[uint64]struct{})
			o.batches[key] = members
		}
		members[id] = struct{}{}
		o.assigned[id] = key
	}

	o.rebuildPlan()
}

func (o *optimizer) Plan() DrawPlan {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.plan
}

func (o *optimizer) Remove(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if key, ok := o.assigned[id]; ok {
		o.detach(id, key)
	}
}

func (o *optimizer) Cache() ResourceCache {
	return o.cache
}

func (o *optimizer) Monitor() *Monitor {
	return o.monitor
}

// keyFor derives the batching key from the object's immutable attributes.
// The base size is used, not the pulsating current scale, so pulsation never
// thrashes batch membership.
func (o *optimizer) keyFor(obj track_object.TrackObject) BatchKey {
	attrs := obj.Attributes()
	return BatchKey{
		Class:  attrs.Geometry,
		Bucket: int32(math32.Round(attrs.Size / o.cfg.SizeBucketWidth)),
	}
}

// detach removes an object from its batch. Caller must hold the mutex.
func (o *optimizer) detach(id uint64, key BatchKey) {
	if members, ok := o.batches[key]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(o.batches, key)
		}
	}
	delete(o.assigned, id)
}

// rebuildPlan derives the draw plan from the current batch partition.
// Iteration order is made deterministic by sorting keys and member IDs.
// Caller must hold the mutex.
func (o *optimizer) rebuildPlan() {
	keys := make([]BatchKey, 0, len(o.batches))
	for key := range o.batches {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Class != keys[j].Class {
			return keys[i].Class < keys[j].Class
		}
		return keys[i].Bucket < keys[j].Bucket
	})

	plan := DrawPlan{}
	for _, key := range keys {
		members := make([]uint64, 0, len(o.batches[key]))
		for id := range o.batches[key] {
			members = append(members, id)
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

		tris := geometryInfoFor(key.Class).TriangleCount * len(members)
		plan.Triangles += tris
		plan.Visible += len(members)

		if len(members) >= o.cfg.MinBatchSize {
			plan.Batches = append(plan.Batches, InstanceBatch{Key: key, Members: members})
			plan.DrawCalls++
		} else {
			plan.Individual = append(plan.Individual, members...)
			plan.DrawCalls += len(members)
		}
	}
	o.plan = plan
}
