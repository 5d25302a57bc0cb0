package graphics

import (
	"fmt"
	"sync"

	"github.com/BUka228/musical-soul/common"
)

// ObjectState is the recorded state of one headless renderable object.
type ObjectState struct {
	// Class is the geometry bucket the object was created with.
	Class common.GeometryClass
	// Position, Scale, Rotation are the last transform written.
	Position, Scale, Rotation [3]float32
	// Color is the last material color written.
	Color string
	// Emissive is the last emissive intensity written.
	Emissive float32
	// Visible is the last visibility written. New objects start visible.
	Visible bool
}

type headlessDevice struct {
	mu *sync.Mutex

	objects  map[Handle]*ObjectState
	nextID   uint64
	created  int
	disposed int

	// budget caps the number of live objects; 0 = unlimited. Creating past the
	// budget fails with an error, modeling GPU resource exhaustion.
	budget int
}

// HeadlessDevice is a Device that records all calls in memory instead of
// talking to a GPU. It backs tests and headless demos, and can simulate
// resource exhaustion via an object budget.
type HeadlessDevice interface {
	Device

	// Live returns the number of objects created and not yet disposed.
	//
	// Returns:
	//   - int: the live object count
	Live() int

	// Created returns the total number of objects ever created.
	//
	// Returns:
	//   - int: the cumulative creation count
	Created() int

	// Disposed returns the total number of objects disposed.
	//
	// Returns:
	//   - int: the cumulative disposal count
	Disposed() int

	// State returns a copy of the recorded state for a live handle.
	//
	// Parameters:
	//   - h: the object handle
	//
	// Returns:
	//   - ObjectState: the recorded state
	//   - bool: false if the handle is unknown or disposed
	State(h Handle) (ObjectState, bool)
}

var _ HeadlessDevice = &headlessDevice{}

// NewHeadlessDevice creates a recording in-memory Device.
//
// Parameters:
//   - options: functional options to configure the device
//
// Returns:
//   - HeadlessDevice: the newly created device
func NewHeadlessDevice(options ...HeadlessDeviceOption) HeadlessDevice {
	d := &headlessDevice{
		mu:      &sync.Mutex{},
		objects: make(map[Handle]*ObjectState),
		nextID:  1,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

func (d *headlessDevice) CreateObject(class common.GeometryClass) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.budget > 0 && len(d.objects) >= d.budget {
		return NilHandle, fmt.Errorf("graphics: object budget of %d exhausted", d.budget)
	}

	h := Handle(d.nextID)
	d.nextID++
	d.created++
	d.objects[h] = &ObjectState{
		Class:   class,
		Scale:   [3]float32{1, 1, 1},
		Visible: true,
	}
	return h, nil
}

func (d *headlessDevice) SetTransform(h Handle, position, scale, rotation [3]float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	obj := d.lookup(h)
	obj.Position = position
	obj.Scale = scale
	obj.Rotation = rotation
}

func (d *headlessDevice) SetMaterialParams(h Handle, color string, emissiveIntensity float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	obj := d.lookup(h)
	obj.Color = color
	obj.Emissive = emissiveIntensity
}

func (d *headlessDevice) SetVisible(h Handle, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookup(h).Visible = visible
}

func (d *headlessDevice) Dispose(h Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.objects[h]; !ok {
		panic(fmt.Sprintf("graphics: Dispose of unknown or already-disposed handle %d", h))
	}
	delete(d.objects, h)
	d.disposed++
}

func (d *headlessDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.objects)
}

func (d *headlessDevice) Created() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created
}

func (d *headlessDevice) Disposed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

func (d *headlessDevice) State(h Handle) (ObjectState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	obj, ok := d.objects[h]
	if !ok {
		return ObjectState{}, false
	}
	return *obj, true
}

// lookup returns the live object for h, panicking on unknown handles.
// Caller must hold the mutex.
func (d *headlessDevice) lookup(h Handle) *ObjectState {
	obj, ok := d.objects[h]
	if !ok {
		panic(fmt.Sprintf("graphics: call on unknown or disposed handle %d", h))
	}
	return obj
}
