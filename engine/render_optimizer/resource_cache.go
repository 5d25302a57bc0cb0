package render_optimizer

import (
	"sync"

	"github.com/BUka228/musical-soul/common"
)

// GeometryInfo describes the shared geometry resource for one geometry class.
// Geometry is keyed by classification, not object identity, so every crystal
// of a class shares one resource.
type GeometryInfo struct {
	// Class is the geometry bucket this resource serves.
	Class common.GeometryClass
	// TriangleCount is the triangle count of one instance of this geometry.
	TriangleCount int
	// MemoryBytes is the estimated resident size of the shared resource.
	MemoryBytes int
}

// geometryInfoFor is the fixed per-class geometry cost table. Smooth forms
// carry the most triangles (subdivision), sharp facets the fewest.
func geometryInfoFor(class common.GeometryClass) GeometryInfo {
	switch class {
	case common.GeometrySharp:
		return GeometryInfo{Class: class, TriangleCount: 320, MemoryBytes: 320 * 96}
	case common.GeometrySmooth:
		return GeometryInfo{Class: class, TriangleCount: 960, MemoryBytes: 960 * 96}
	default:
		return GeometryInfo{Class: class, TriangleCount: 480, MemoryBytes: 480 * 96}
	}
}

// materialMemoryBytes is the estimated resident size of one shared material.
const materialMemoryBytes = 4096

type materialKey struct {
	class common.GeometryClass
	color string
}

type refEntry struct {
	refs int
}

type resourceCache struct {
	mu *sync.Mutex

	geometries map[common.GeometryClass]*refEntry
	materials  map[materialKey]*refEntry
}

// ResourceCache is the refcounted registry of shared geometry and material
// resources. A resource is created at most once per distinct key, reused by
// every object sharing that key, and released only when its refcount reaches
// zero. This replaces the ambient global registries of a typical scene graph
// with an explicit, owned component.
type ResourceCache interface {
	// AcquireGeometry takes a reference on the class's shared geometry,
	// creating it on first use.
	//
	// Parameters:
	//   - class: the geometry bucket
	//
	// Returns:
	//   - GeometryInfo: the shared geometry description
	AcquireGeometry(class common.GeometryClass) GeometryInfo

	// ReleaseGeometry drops one reference; the resource is released at zero.
	// Panics if the class has no live references (a release/acquire imbalance
	// is a programming error).
	//
	// Parameters:
	//   - class: the geometry bucket
	ReleaseGeometry(class common.GeometryClass)

	// AcquireMaterial takes a reference on the (class, color) shared material,
	// creating it on first use.
	//
	// Parameters:
	//   - class: the geometry bucket
	//   - color: the material color key
	AcquireMaterial(class common.GeometryClass, color string)

	// ReleaseMaterial drops one reference; the resource is released at zero.
	// Panics on a release/acquire imbalance.
	//
	// Parameters:
	//   - class: the geometry bucket
	//   - color: the material color key
	ReleaseMaterial(class common.GeometryClass, color string)

	// GeometryRefs returns the live reference count for a class (0 if the
	// resource does not exist).
	GeometryRefs(class common.GeometryClass) int

	// GeometryCount returns the number of live shared geometries.
	GeometryCount() int

	// MaterialCount returns the number of live shared materials.
	MaterialCount() int

	// MemoryEstimate returns the estimated resident bytes of all live shared
	// resources.
	MemoryEstimate() int
}

var _ ResourceCache = &resourceCache{}

// NewResourceCache creates an empty resource cache.
//
// Returns:
//   - ResourceCache: the newly created cache
func NewResourceCache() ResourceCache {
	return &resourceCache{
		mu:         &sync.Mutex{},
		geometries: make(map[common.GeometryClass]*refEntry),
		materials:  make(map[materialKey]*refEntry),
	}
}

func (c *resourceCache) AcquireGeometry(class common.GeometryClass) GeometryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.geometries[class]
	if !ok {
		entry = &refEntry{}
		c.geometries[class] = entry
	}
	entry.refs++
	return geometryInfoFor(class)
}

func (c *resourceCache) ReleaseGeometry(class common.GeometryClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.geometries[class]
	if !ok || entry.refs <= 0 {
		panic("render_optimizer: ReleaseGeometry without matching AcquireGeometry")
	}
	entry.refs--
	if entry.refs == 0 {
		delete(c.geometries, class)
	}
}

func (c *resourceCache) AcquireMaterial(class common.GeometryClass, color string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := materialKey{class: class, color: color}
	entry, ok := c.materials[key]
	if !ok {
		entry = &refEntry{}
		c.materials[key] = entry
	}
	entry.refs++
}

func (c *resourceCache) ReleaseMaterial(class common.GeometryClass, color string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := materialKey{class: class, color: color}
	entry, ok := c.materials[key]
	if !ok || entry.refs <= 0 {
		panic("render_optimizer: ReleaseMaterial without matching AcquireMaterial")
	}
	entry.refs--
	if entry.refs == 0 {
		delete(c.materials, key)
	}
}

func (c *resourceCache) GeometryRefs(class common.GeometryClass) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.geometries[class]; ok {
		return entry.refs
	}
	return 0
}

func (c *resourceCache) GeometryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.geometries)
}

func (c *resourceCache) MaterialCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.materials)
}

func (c *resourceCache) MemoryEstimate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for class := range c.geometries {
		total += geometryInfoFor(class).MemoryBytes
	}
	total += len(c.materials) * materialMemoryBytes
	return total
}
