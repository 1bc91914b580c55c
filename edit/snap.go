// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import (
	"cogentcore.org/core/math32"
	"cogentcore.org/xyzedit/stage"
)

// SnapKinds are the kinds of points a snap operation can mark.
type SnapKinds int32

const (
	// SnapAnchor is the main gizmo anchor of the active selection.
	SnapAnchor SnapKinds = iota

	// SnapPivotMarker is the gizmo anchor attached to one member's
	// stored custom pivot.
	SnapPivotMarker

	// SnapCorner is a geometry corner of a concrete object or group.
	SnapCorner
)

// SnapPoint is one operand of a two-point snap: a world position plus
// the member it belongs to, when any. For SnapPivotMarker and
// SnapCorner, exactly one of Group / Object identifies the owner,
// discriminated by IsGroup.
type SnapPoint struct {

	// Kind is the kind of point.
	Kind SnapKinds

	// Pos is the world position of the point.
	Pos math32.Vector3

	// IsGroup indicates the owner is a group rather than an object.
	IsGroup bool

	// Group is the owning group for group-owned points.
	Group GroupID

	// Object is the owning object for object-owned points.
	Object stage.ObjectRef
}

// AnchorPoint returns a SnapPoint for the main gizmo anchor at the
// given world position.
func AnchorPoint(pos math32.Vector3) SnapPoint {
	return SnapPoint{Kind: SnapAnchor, Pos: pos}
}

// GroupCorner returns a SnapPoint for a geometry corner owned by the
// given group.
func GroupCorner(pos math32.Vector3, id GroupID) SnapPoint {
	return SnapPoint{Kind: SnapCorner, Pos: pos, IsGroup: true, Group: id}
}

// ObjectCorner returns a SnapPoint for a geometry corner owned by the
// given object.
func ObjectCorner(pos math32.Vector3, ref stage.ObjectRef) SnapPoint {
	return SnapPoint{Kind: SnapCorner, Pos: pos, Object: ref}
}

// VertexSnapEngine is the two-point snap operation: mark a first
// point, mark a second, and the engine either re-targets a pivot or
// rigidly translates geometry so the first point lands on the second.
type VertexSnapEngine struct {
	Store *GroupStore
	Sel   *SelectionModel
	Src   stage.Source
	Gizmo *GizmoController

	// First is the marked first operand; nil when no snap is pending.
	First *SnapPoint
}

// NewVertexSnapEngine returns a new engine over the given components.
func NewVertexSnapEngine(store *GroupStore, sel *SelectionModel, src stage.Source, gz *GizmoController) *VertexSnapEngine {
	return &VertexSnapEngine{Store: store, Sel: sel, Src: src, Gizmo: gz}
}

// Pending reports whether a first point is marked.
func (sn *VertexSnapEngine) Pending() bool {
	return sn.First != nil
}

// Cancel discards any marked first point.
func (sn *VertexSnapEngine) Cancel() {
	sn.First = nil
}

// Mark marks a point. The first call records the point; the second
// executes the snap and returns true. What the snap does depends on
// the first point's kind: a pivot marker re-targets that member's
// stored custom pivot; the main anchor relocates the whole selection's
// pivot; a geometry corner rigidly translates geometry so it lands on
// the second point.
func (sn *VertexSnapEngine) Mark(p SnapPoint) bool {
	if sn.First == nil {
		fp := p
		sn.First = &fp
		return false
	}
	first := *sn.First
	sn.First = nil
	switch first.Kind {
	case SnapPivotMarker:
		sn.retargetPivot(first, p.Pos)
	case SnapAnchor:
		sn.relocateSelectionPivot(p.Pos)
	case SnapCorner:
		sn.translateToward(first, p.Pos)
	}
	return true
}

// retargetPivot moves one member's stored custom pivot to the target
// world position, propagating to composite sibling instances sharing
// the same item id.
func (sn *VertexSnapEngine) retargetPivot(first SnapPoint, target math32.Vector3) {
	if first.IsGroup {
		g := sn.Store.Group(first.Group)
		if g == nil {
			return
		}
		inv, err := g.Pose.Matrix.Inverse()
		if err != nil {
			return
		}
		g.Pivot = target.MulMatrix4(inv)
		g.HasPivot = true
	} else {
		refs := sn.Src.SameItem(sn.Src.ItemID(first.Object.Handle, first.Object.Index))
		if len(refs) == 0 {
			refs = []stage.ObjectRef{first.Object}
		}
		for _, pr := range refs {
			om := sn.objectWorldMatrix(pr)
			inv, err := om.Inverse()
			if err != nil {
				continue
			}
			sn.Src.SetCustomPivot(pr.Handle, pr.Index, target.MulMatrix4(inv))
		}
	}
	sn.Gizmo.SyncWidget()
}

// relocateSelectionPivot moves the whole selection's pivot to the
// target point: every selected member gets a persisted custom pivot
// there, the live offset is cleared, and the pivot mode is forced to
// origin so the relocated pivot is what the gizmo shows.
func (sn *VertexSnapEngine) relocateSelectionPivot(target math32.Vector3) {
	if sn.Sel.IsEmpty() {
		return
	}
	sn.Gizmo.writeMemberPivots(target)
	pv := sn.Gizmo.Pivot
	pv.Offset = math32.Vector3{}
	pv.IsCustom = true
	pv.Mode = PivotOrigin
	if sn.Sel.NumMembers() > 1 {
		pv.Anchor = target
		pv.AnchorInit = target
		pv.HasAnchor = true
	}
	sn.Gizmo.SyncWidget()
}

// translateToward rigidly translates the effective target of the
// first point by the world delta to the second point: the entire
// selection when the first point's owner is part of it, otherwise
// only the owner's own root group or, for a loose object, the object
// and its composite siblings.
func (sn *VertexSnapEngine) translateToward(first SnapPoint, target math32.Vector3) {
	d := target.Sub(first.Pos)
	delta := *math32.Identity4()
	delta[12], delta[13], delta[14] = d.X, d.Y, d.Z
	if sn.covers(first) {
		sn.Gizmo.applyDelta(&delta)
		sn.Gizmo.SyncWidget()
		return
	}
	if first.IsGroup {
		sn.translateGroupTree(sn.Store.RootOf(first.Group), &delta)
		return
	}
	if gid, ok := sn.Store.GroupOf(first.Object); ok {
		sn.translateGroupTree(sn.Store.RootOf(gid), &delta)
		return
	}
	refs := sn.Src.SameItem(sn.Src.ItemID(first.Object.Handle, first.Object.Index))
	if len(refs) == 0 {
		refs = []stage.ObjectRef{first.Object}
	}
	sn.translateObjects(refs, &delta)
}

// covers reports whether the first point's owner is part of the
// active selection: directly, through group ancestry, or through a
// shared composite item id.
func (sn *VertexSnapEngine) covers(p SnapPoint) bool {
	if p.Kind == SnapAnchor {
		return true
	}
	if p.IsGroup {
		for _, id := range append([]GroupID{p.Group}, sn.Store.AncestryChain(p.Group)...) {
			if sn.Sel.HasGroup(id) {
				return true
			}
		}
		return false
	}
	if sn.Sel.HasObject(p.Object) {
		return true
	}
	if gid, ok := sn.Store.GroupOf(p.Object); ok {
		for _, id := range append([]GroupID{gid}, sn.Store.AncestryChain(gid)...) {
			if sn.Sel.HasGroup(id) {
				return true
			}
		}
	}
	item := sn.Src.ItemID(p.Object.Handle, p.Object.Index)
	if item == 0 {
		return false
	}
	for _, ref := range sn.Sel.FlattenedItems() {
		if sn.Src.ItemID(ref.Handle, ref.Index) == item {
			return true
		}
	}
	return false
}

// translateGroupTree applies the delta to every object under the
// given group and premultiplies it into the group and all its
// descendants.
func (sn *VertexSnapEngine) translateGroupTree(id GroupID, delta *math32.Matrix4) {
	g := sn.Store.Group(id)
	if g == nil {
		return
	}
	sn.translateObjects(sn.Store.FlattenedObjects(id), delta)
	g.Pose.PreMulMatrix(delta)
	for _, did := range sn.Store.DescendantGroups(id) {
		if dg := sn.Store.Group(did); dg != nil {
			dg.Pose.PreMulMatrix(delta)
		}
	}
}

// translateObjects applies the world-space delta to each instance,
// conjugated into the owning renderable's local space.
func (sn *VertexSnapEngine) translateObjects(refs []stage.ObjectRef, delta *math32.Matrix4) {
	for _, ref := range refs {
		world := sn.Src.WorldMatrix(ref.Handle)
		winv, err := world.Inverse()
		if err != nil {
			continue
		}
		local := sn.Src.InstanceTransform(ref.Handle, ref.Index)
		var dw, ldw, nl math32.Matrix4
		dw.MulMatrices(delta, &world)
		ldw.MulMatrices(winv, &dw)
		nl.MulMatrices(&ldw, &local)
		sn.Src.SetInstanceTransform(ref.Handle, ref.Index, nl)
	}
}

func (sn *VertexSnapEngine) objectWorldMatrix(ref stage.ObjectRef) math32.Matrix4 {
	world := sn.Src.WorldMatrix(ref.Handle)
	local := sn.Src.InstanceTransform(ref.Handle, ref.Index)
	var m math32.Matrix4
	m.MulMatrices(&world, &local)
	return m
}
