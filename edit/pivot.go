// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import (
	"cogentcore.org/core/math32"
	"cogentcore.org/xyzedit/stage"
)

// PivotModes are the pivot modes of the manipulation widget.
type PivotModes int32

const (
	// PivotOrigin anchors the widget at the per-item / per-group
	// anchor point, offset by the stored pivot offset.
	PivotOrigin PivotModes = iota

	// PivotCenter anchors the widget at the recomputed geometric
	// bounding-box center; any stored offset is ignored.
	PivotCenter
)

// PivotState is the selection-scoped pivot state of the session.
// It is reset on every selection replacement, partially preserved
// across additive (shift-click) changes, and explicitly invalidated
// by the pivot-reset command.
type PivotState struct {

	// Mode is the current pivot mode.
	Mode PivotModes

	// IsCustom indicates a custom pivot is active for the selection.
	IsCustom bool

	// Offset is the pivot offset, added to the resolved anchor in
	// origin mode only.
	Offset math32.Vector3

	// Anchor is the cached multi-selection origin anchor (world
	// space), used to keep the widget stable while the selection set
	// is being extended.
	Anchor math32.Vector3

	// AnchorInit is the snapshot of Anchor from when the cache was
	// seeded.
	AnchorInit math32.Vector3

	// HasAnchor indicates the multi-selection anchor cache is valid.
	HasAnchor bool
}

// Reset restores the zero pivot state, for a selection replacement.
func (pv *PivotState) Reset() {
	*pv = PivotState{Mode: pv.Mode}
}

// SeedAnchor seeds the multi-selection anchor cache from the given
// world point, if not already seeded.
func (pv *PivotState) SeedAnchor(p math32.Vector3) {
	if pv.HasAnchor {
		return
	}
	pv.Anchor = p
	pv.AnchorInit = p
	pv.HasAnchor = true
}

// InvalidateAnchor drops the multi-selection anchor cache, so the next
// resolve recomputes from geometry.
func (pv *PivotState) InvalidateAnchor() {
	pv.HasAnchor = false
}

// PivotResolver is the pure computation of the world-space anchor
// point the manipulation widget should occupy, from the current
// selection and pivot mode. It reads the group store, the selection,
// and the instance layer, and mutates nothing.
type PivotResolver struct {
	Store *GroupStore
	Sel   *SelectionModel
	Src   stage.Source
}

// ResolveCenter returns the world-space anchor point for the current
// selection under the given pivot mode. The pivot offset is added in
// origin mode only; center mode always recomputes from geometry.
// Empty selections and degenerate geometry resolve to deterministic
// defaults rather than propagating NaNs.
func (pr *PivotResolver) ResolveCenter(mode PivotModes, isCustom bool, offset math32.Vector3) math32.Vector3 {
	if pr.Sel.IsEmpty() {
		return math32.Vector3{}
	}
	if mode == PivotCenter {
		return pr.centerAnchor()
	}
	if g := pr.Sel.SoleGroup(); g != nil {
		return pr.soleGroupAnchor(g).Add(offset)
	}
	if ref, ok := pr.Sel.SoleObject(); ok {
		return pr.ObjectAnchor(ref).Add(offset)
	}
	return pr.multiAnchor().Add(offset)
}

// centerAnchor computes the center-mode anchor: the center of the
// world-space bounding box of all selected members. A single selected
// group uses its local-box center mapped through its own matrix, so
// the anchor stays aligned with the group's rotation rather than an
// axis-aligned world box.
func (pr *PivotResolver) centerAnchor() math32.Vector3 {
	if g := pr.Sel.SoleGroup(); g != nil {
		lb := pr.Store.LocalBBox(pr.Src, g.ID)
		if lb.IsEmpty() {
			return g.Pose.Pos
		}
		return lb.Center().MulMatrix4(&g.Pose.Matrix)
	}
	bb := pr.SelectionWorldBox()
	if bb.IsEmpty() {
		return math32.Vector3{}
	}
	return bb.Center()
}

// SelectionWorldBox returns the world-space bounding box spanning all
// selected members, as used by anchor-locked scaling.
func (pr *PivotResolver) SelectionWorldBox() math32.Box3 {
	bb := math32.B3Empty()
	for _, id := range pr.Sel.Groups {
		g := pr.Store.Group(id)
		if g == nil {
			continue
		}
		lb := pr.Store.LocalBBox(pr.Src, id)
		if lb.IsEmpty() {
			bb.ExpandByPoint(g.Pose.Pos)
			continue
		}
		bb.ExpandByBox(lb.MulMatrix4(&g.Pose.Matrix))
	}
	for _, ref := range pr.Sel.DirectObjects() {
		ob := pr.Src.LocalBoundingBox(ref.Handle, ref.Index)
		om := pr.objectWorldMatrix(ref)
		if ob.IsEmpty() {
			var pos math32.Vector3
			pos.SetFromMatrixPos(&om)
			bb.ExpandByPoint(pos)
			continue
		}
		bb.ExpandByBox(ob.MulMatrix4(&om))
	}
	return bb
}

// soleGroupAnchor computes the origin-mode anchor for a single
// selected group: the box-min corner of the group's local bounding box
// mapped through the group's matrix, unless the group declares a
// custom pivot, which is used instead (mapped to world space).
func (pr *PivotResolver) soleGroupAnchor(g *Group) math32.Vector3 {
	if groupHasCustomPivot(g) {
		return g.Pivot.MulMatrix4(&g.Pose.Matrix)
	}
	lb := pr.Store.LocalBBox(pr.Src, g.ID)
	if lb.IsEmpty() {
		return g.Pose.Pos
	}
	return lb.Min.MulMatrix4(&g.Pose.Matrix)
}

// ObjectAnchor computes the origin-mode anchor for one object
// instance: its custom pivot mapped to world space if set; the
// box-min corner of its local bounds for block displays; otherwise
// the per-item average position, with the fixed vertical bias for
// hatted head display kinds.
func (pr *PivotResolver) ObjectAnchor(ref stage.ObjectRef) math32.Vector3 {
	om := pr.objectWorldMatrix(ref)
	if p, ok := pr.Src.CustomPivot(ref.Handle, ref.Index); ok {
		return p.MulMatrix4(&om)
	}
	kind := pr.Src.DisplayKind(ref.Handle, ref.Index)
	if kind == stage.Block {
		ob := pr.Src.LocalBoundingBox(ref.Handle, ref.Index)
		if !ob.IsEmpty() {
			return ob.Min.MulMatrix4(&om)
		}
	}
	anchor := pr.itemAveragePos(ref)
	if kind == stage.Head {
		anchor.Y += stage.HeadPivotBias
	}
	return anchor
}

// itemAveragePos returns the average world position of all instances
// sharing the given instance's composite item id, or the instance's
// own world position if it is not part of a composite.
func (pr *PivotResolver) itemAveragePos(ref stage.ObjectRef) math32.Vector3 {
	parts := pr.Src.SameItem(pr.Src.ItemID(ref.Handle, ref.Index))
	if len(parts) == 0 {
		parts = []stage.ObjectRef{ref}
	}
	var sum math32.Vector3
	for _, p := range parts {
		om := pr.objectWorldMatrix(p)
		var pos math32.Vector3
		pos.SetFromMatrixPos(&om)
		sum.SetAdd(pos)
	}
	return sum.DivScalar(float32(len(parts)))
}

// multiAnchor computes the origin-mode anchor for a multi-selection:
// the arithmetic mean of every member's per-item anchor point. Groups
// here use their pivot or position, without the single-group box-min
// special-casing. This mean is what seeds the multi-selection anchor
// cache.
func (pr *PivotResolver) multiAnchor() math32.Vector3 {
	var sum math32.Vector3
	n := 0
	for _, id := range pr.Sel.Groups {
		g := pr.Store.Group(id)
		if g == nil {
			continue
		}
		if groupHasCustomPivot(g) {
			sum.SetAdd(g.Pivot.MulMatrix4(&g.Pose.Matrix))
		} else {
			sum.SetAdd(g.Pose.Pos)
		}
		n++
	}
	for _, ref := range pr.Sel.DirectObjects() {
		sum.SetAdd(pr.ObjectAnchor(ref))
		n++
	}
	if n == 0 {
		return math32.Vector3{}
	}
	return sum.DivScalar(float32(n))
}

// objectWorldMatrix returns the full world matrix of one instance:
// the owning renderable's world matrix times the instance transform.
func (pr *PivotResolver) objectWorldMatrix(ref stage.ObjectRef) math32.Matrix4 {
	world := pr.Src.WorldMatrix(ref.Handle)
	local := pr.Src.InstanceTransform(ref.Handle, ref.Index)
	var om math32.Matrix4
	om.MulMatrices(&world, &local)
	return om
}

// groupHasCustomPivot reports whether a group declares a custom pivot:
// explicitly flagged, or a pivot point distinct from the default.
func groupHasCustomPivot(g *Group) bool {
	return g.HasPivot || g.Pivot != (math32.Vector3{})
}
