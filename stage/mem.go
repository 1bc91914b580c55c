// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stage

import (
	"io"
	"os"
	"slices"

	"cogentcore.org/core/math32"
	"gopkg.in/yaml.v3"
)

// Instance is one placed entity within a [Renderable], holding its
// local transform and editor-facing side-channel attributes.
type Instance struct {

	// Transform is the local-space transform, relative to the
	// renderable's world matrix.
	Transform math32.Matrix4 `yaml:"transform"`

	// Bounds is the geometry-space bounding box.
	Bounds math32.Box3 `yaml:"bounds"`

	// Kind is the display kind.
	Kind DisplayKinds `yaml:"kind"`

	// Pivot is the custom pivot point in local space, if HasPivot.
	Pivot math32.Vector3 `yaml:"pivot,omitempty"`

	// HasPivot indicates that Pivot has been explicitly set.
	HasPivot bool `yaml:"hasPivot,omitempty"`

	// Item is the composite item id for multi-part entities, 0 if none.
	Item int `yaml:"item,omitempty"`
}

// Renderable is one batched renderable: a world matrix and its instances.
type Renderable struct {
	World     math32.Matrix4 `yaml:"world"`
	Instances []*Instance    `yaml:"instances"`
}

// Mem is a complete in-memory [Source] implementation, used by tests
// and examples, and as the seam through which scene snapshots are
// handed to persistence opaquely (YAML encoding).
type Mem struct {

	// Order is the stable ordering of handles, in order added.
	Order []Handle `yaml:"order"`

	// Renderables is the handle to renderable map.
	Renderables map[Handle]*Renderable `yaml:"renderables"`

	// NextHandle is the next handle to allocate.
	NextHandle Handle `yaml:"nextHandle"`
}

// NewMem returns a new empty in-memory instance store.
func NewMem() *Mem {
	return &Mem{Renderables: make(map[Handle]*Renderable)}
}

// AddRenderable adds a new renderable with the given world matrix,
// returning its handle.
func (ms *Mem) AddRenderable(world math32.Matrix4) Handle {
	ms.NextHandle++
	h := ms.NextHandle
	ms.Renderables[h] = &Renderable{World: world}
	ms.Order = append(ms.Order, h)
	return h
}

// AddInstance adds a new instance of the given renderable and returns
// its ObjectRef.
func (ms *Mem) AddInstance(h Handle, tf math32.Matrix4, bounds math32.Box3, kind DisplayKinds) ObjectRef {
	rd, ok := ms.Renderables[h]
	if !ok {
		return ObjectRef{}
	}
	rd.Instances = append(rd.Instances, &Instance{Transform: tf, Bounds: bounds, Kind: kind})
	return Ref(h, len(rd.Instances)-1)
}

// Instance returns the instance record for the given ref, nil if unknown.
func (ms *Mem) Instance(h Handle, idx int) *Instance {
	rd, ok := ms.Renderables[h]
	if !ok || idx < 0 || idx >= len(rd.Instances) {
		return nil
	}
	return rd.Instances[idx]
}

func (ms *Mem) Handles() []Handle {
	return slices.Clone(ms.Order)
}

func (ms *Mem) InstanceCount(h Handle) int {
	rd, ok := ms.Renderables[h]
	if !ok {
		return 0
	}
	return len(rd.Instances)
}

func (ms *Mem) InstanceTransform(h Handle, idx int) math32.Matrix4 {
	in := ms.Instance(h, idx)
	if in == nil {
		return *math32.Identity4()
	}
	return in.Transform
}

func (ms *Mem) SetInstanceTransform(h Handle, idx int, m math32.Matrix4) {
	in := ms.Instance(h, idx)
	if in == nil {
		return
	}
	in.Transform = m
}

func (ms *Mem) WorldMatrix(h Handle) math32.Matrix4 {
	rd, ok := ms.Renderables[h]
	if !ok {
		return *math32.Identity4()
	}
	return rd.World
}

func (ms *Mem) LocalBoundingBox(h Handle, idx int) math32.Box3 {
	in := ms.Instance(h, idx)
	if in == nil {
		return math32.B3Empty()
	}
	if in.Kind == HeadNoHat { // fixed unit box override
		return math32.B3(0, 0, 0, 1, 1, 1)
	}
	return in.Bounds
}

func (ms *Mem) DisplayKind(h Handle, idx int) DisplayKinds {
	in := ms.Instance(h, idx)
	if in == nil {
		return Block
	}
	return in.Kind
}

func (ms *Mem) CustomPivot(h Handle, idx int) (math32.Vector3, bool) {
	in := ms.Instance(h, idx)
	if in == nil || !in.HasPivot {
		return math32.Vector3{}, false
	}
	return in.Pivot, true
}

func (ms *Mem) SetCustomPivot(h Handle, idx int, p math32.Vector3) {
	in := ms.Instance(h, idx)
	if in == nil {
		return
	}
	in.Pivot = p
	in.HasPivot = true
}

func (ms *Mem) ClearCustomPivot(h Handle, idx int) {
	in := ms.Instance(h, idx)
	if in == nil {
		return
	}
	in.Pivot = math32.Vector3{}
	in.HasPivot = false
}

func (ms *Mem) ItemID(h Handle, idx int) int {
	in := ms.Instance(h, idx)
	if in == nil {
		return 0
	}
	return in.Item
}

func (ms *Mem) SameItem(id int) []ObjectRef {
	if id == 0 {
		return nil
	}
	var refs []ObjectRef
	for _, h := range ms.Order {
		rd := ms.Renderables[h]
		for i, in := range rd.Instances {
			if in.Item == id {
				refs = append(refs, Ref(h, i))
			}
		}
	}
	return refs
}

// WriteYAML encodes the full scene snapshot to the given writer.
func (ms *Mem) WriteYAML(w io.Writer) error {
	e := yaml.NewEncoder(w)
	defer e.Close()
	return e.Encode(ms)
}

// ReadYAML decodes a scene snapshot from the given reader,
// replacing current contents.
func (ms *Mem) ReadYAML(r io.Reader) error {
	*ms = Mem{Renderables: make(map[Handle]*Renderable)}
	return yaml.NewDecoder(r).Decode(ms)
}

// SaveYAML saves the scene snapshot to the given filename.
func (ms *Mem) SaveYAML(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return ms.WriteYAML(f)
}

// OpenYAML loads a scene snapshot from the given filename.
func (ms *Mem) OpenYAML(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return ms.ReadYAML(f)
}

var _ Source = (*Mem)(nil)
