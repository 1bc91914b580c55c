// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stage defines the interface onto the instance / render layer
// that the xyzedit editing session operates on: batched renderables
// addressed by an opaque Handle, with per-instance local transforms,
// bounding boxes, display kinds, and custom-pivot side channels.
//
// The actual rendering, mesh construction, texture management, and
// instance pooling all live behind this interface; xyzedit only ever
// reads and writes transforms and pivot attributes through it.
// [Mem] provides a complete in-memory implementation, used in tests
// and examples, and as the seam for opaque persistence snapshots.
package stage

import "cogentcore.org/core/math32"

// Handle is an opaque identifier for one batched renderable
// (e.g., all instances sharing one block model and material).
type Handle int

// ObjectRef identifies one placed instance of a renderable:
// the renderable Handle and the instance index within it.
type ObjectRef struct {
	Handle Handle
	Index  int
}

// Ref returns an ObjectRef for the given handle and index.
func Ref(h Handle, idx int) ObjectRef {
	return ObjectRef{Handle: h, Index: idx}
}

// DisplayKinds are the kinds of display entities that instances render as.
// The kind determines default pivot behavior in the editor.
type DisplayKinds int32

const (
	// Block is a block-model entity, with unit-cube based geometry.
	// Its default origin pivot is the box-min corner of its local bounds.
	Block DisplayKinds = iota

	// Item is an item-model entity. Its default origin pivot is the
	// per-item average position.
	Item

	// Head is a player-head item with the hat overlay layer.
	// It receives a fixed vertical pivot bias in origin mode.
	Head

	// HeadNoHat is a head without the hat overlay; the instance layer
	// reports a fixed unit box for its local bounds.
	HeadNoHat
)

// HeadPivotBias is the fixed vertical offset applied to the per-item
// anchor of Head (hatted) display kinds in origin pivot mode.
const HeadPivotBias = float32(0.25)

func (dk DisplayKinds) String() string {
	switch dk {
	case Block:
		return "Block"
	case Item:
		return "Item"
	case Head:
		return "Head"
	case HeadNoHat:
		return "HeadNoHat"
	}
	return "DisplayKinds(invalid)"
}

// Source is the accessor interface exposed by the instance / render
// layer. All lookups on unknown handles or indices return neutral
// values (identity matrix, empty box, zero kind) rather than erroring:
// the editor treats missing references as benign per its recovery
// policy, because instances can be deleted by other entry points
// within the same frame.
type Source interface {
	// Handles returns all renderable handles currently in the scene,
	// in a stable order. Used by select-all.
	Handles() []Handle

	// InstanceCount returns the number of instances of the given
	// renderable, 0 for an unknown handle.
	InstanceCount(h Handle) int

	// InstanceTransform returns the local-space 4x4 transform of the
	// given instance (identity if unknown).
	InstanceTransform(h Handle, idx int) math32.Matrix4

	// SetInstanceTransform writes the local-space transform of the
	// given instance; no-op if unknown.
	SetInstanceTransform(h Handle, idx int, m math32.Matrix4)

	// WorldMatrix returns the world matrix of the owning renderable,
	// which instance transforms are relative to (identity if unknown).
	WorldMatrix(h Handle) math32.Matrix4

	// LocalBoundingBox returns the geometry-space axis-aligned bounds
	// of the given instance, including display-kind overrides such as
	// the fixed unit box for HeadNoHat. Empty box if unknown.
	LocalBoundingBox(h Handle, idx int) math32.Box3

	// DisplayKind returns the display kind of the given instance.
	DisplayKind(h Handle, idx int) DisplayKinds

	// CustomPivot returns the local-space custom pivot of the given
	// instance, and whether one has been set.
	CustomPivot(h Handle, idx int) (math32.Vector3, bool)

	// SetCustomPivot sets the local-space custom pivot of the instance.
	SetCustomPivot(h Handle, idx int, p math32.Vector3)

	// ClearCustomPivot removes any custom pivot from the instance.
	ClearCustomPivot(h Handle, idx int)

	// ItemID returns the composite item id shared by the parts of a
	// multi-part entity, or 0 if the instance is not part of one.
	// This is metadata only, not a parent / child relation.
	ItemID(h Handle, idx int) int

	// SameItem returns all instances sharing the given composite item
	// id, or nil if id is 0.
	SameItem(id int) []ObjectRef
}
