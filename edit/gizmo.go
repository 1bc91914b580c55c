// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import (
	"cogentcore.org/core/math32"
	"cogentcore.org/xyzedit/stage"
)

// GizmoModes are the manipulation modes of the widget.
type GizmoModes int32

const (
	// GizmoTranslate moves the selection.
	GizmoTranslate GizmoModes = iota

	// GizmoRotate rotates the selection around the pivot.
	GizmoRotate

	// GizmoScale scales the selection relative to the pivot.
	GizmoScale
)

// GizmoSpaces are the reference spaces for the widget's displayed
// rotation.
type GizmoSpaces int32

const (
	// SpaceWorld aligns the widget with the world axes.
	SpaceWorld GizmoSpaces = iota

	// SpaceLocal aligns the widget with the primary selection
	// member's own (possibly sheared) transform basis.
	SpaceLocal
)

// DragStates are the states of the drag state machine.
type DragStates int32

const (
	// DragIdle means no drag is in progress.
	DragIdle DragStates = iota

	// DragActive means a drag is in progress in the current mode.
	DragActive
)

// DragStart carries the information available at drag begin for
// anchor-direction detection in anchor-locked scaling: the signed axis
// direction of the grabbed handle from the widget raycast hit-test,
// and the per-axis side of the pivot the pointer is on in screen
// space. The raycast result takes precedence when non-nil.
type DragStart struct {

	// HandleDir is the signed direction of the grabbed handle per
	// axis, from the raycast hit-test; nil when ambiguous.
	HandleDir *math32.Vector3

	// ScreenSide is the per-axis sign of the pointer position
	// relative to the pivot, in screen space.
	ScreenSide math32.Vector3
}

// GizmoController is the drag state machine of the manipulation
// widget: it tracks widget mode, space, pivot-edit mode, and the
// multi-selection anchor, and turns each drag update into a delta
// transform applied to every selected instance and affected group
// record. The UI layer is a thin adapter: it positions the on-screen
// widget from [GizmoController.Widget], and feeds manipulation back in
// through BeginDrag / UpdateDrag / EndDrag.
type GizmoController struct {
	Store    *GroupStore
	Sel      *SelectionModel
	Src      stage.Source
	Resolver *PivotResolver

	// Pivot is the selection-scoped pivot state.
	Pivot *PivotState

	// Mode is the current manipulation mode.
	Mode GizmoModes

	// Space is the current reference space for displayed rotation.
	Space GizmoSpaces

	// State is the drag state.
	State DragStates

	// PivotEdit indicates pivot-edit mode: drags move only the pivot,
	// and the widget displays as translate regardless of Mode.
	PivotEdit bool

	// AnchorLock enables anchor-locked scaling: one edge of the
	// pre-drag bounding box stays fixed instead of scaling around the
	// pivot.
	AnchorLock bool

	// Widget is the widget's world pose; the UI positions the
	// on-screen gizmo from it.
	Widget Pose

	prevMatrix math32.Matrix4 // last applied widget matrix during drag
	startPose  Pose           // widget snapshot at drag begin
	pivotBase  math32.Vector3 // origin-resolve baseline at pivot-edit drag begin
	frame      [3]math32.Vector3
	anchorBox  math32.Box3    // pre-drag box in frame coords, pivot-relative
	anchorDir  math32.Vector3 // per-axis anchor directions
	savedMode  GizmoModes     // restored when pivot edit ends

	ephemeralRestore func()
	ephemeralArmed   bool
}

// NewGizmoController returns a new controller over the given
// components.
func NewGizmoController(store *GroupStore, sel *SelectionModel, src stage.Source, res *PivotResolver, pivot *PivotState) *GizmoController {
	gz := &GizmoController{Store: store, Sel: sel, Src: src, Resolver: res, Pivot: pivot}
	gz.Widget.Defaults()
	gz.Widget.UpdateMatrix()
	return gz
}

// EffectiveMode is the mode the widget should display: translate while
// pivot-edit is active, the current mode otherwise.
func (gz *GizmoController) EffectiveMode() GizmoModes {
	if gz.PivotEdit {
		return GizmoTranslate
	}
	return gz.Mode
}

// SetMode sets the manipulation mode. No-op during a drag.
func (gz *GizmoController) SetMode(mode GizmoModes) {
	if gz.State == DragActive {
		return
	}
	gz.Mode = mode
}

// SetSpace sets the reference space and updates the widget rotation.
func (gz *GizmoController) SetSpace(space GizmoSpaces) {
	gz.Space = space
	gz.SyncWidget()
}

// SyncWidget recomputes the widget pose from the current selection and
// pivot state: the anchor position from the resolver (pinned to the
// cached multi-selection anchor in origin mode), and the rotation for
// the current space.
func (gz *GizmoController) SyncWidget() {
	if gz.Sel.IsEmpty() {
		gz.Widget = Pose{}
		gz.Widget.Defaults()
		gz.Widget.UpdateMatrix()
		return
	}
	pos := gz.Resolver.ResolveCenter(gz.Pivot.Mode, gz.Pivot.IsCustom, gz.Pivot.Offset)
	if gz.Pivot.Mode == PivotOrigin && gz.Sel.NumMembers() > 1 {
		// pinned: extending the selection must not visibly relocate
		// the widget
		gz.Pivot.SeedAnchor(pos)
		pos = gz.Pivot.Anchor
	}
	gz.Widget.Pos = pos
	gz.Widget.Quat = gz.SpaceRotation()
	gz.Widget.Scale.Set(1, 1, 1)
	gz.Widget.UpdateMatrix()
}

// SpaceRotation returns the widget's displayed rotation for the
// current space: identity in world space; in local space, the
// Gram-Schmidt orthogonalized basis of the primary member's transform,
// which tolerates sheared transforms without wobble.
func (gz *GizmoController) SpaceRotation() math32.Quat {
	var q math32.Quat
	q.SetIdentity()
	if gz.Space == SpaceWorld || !gz.Sel.HasPrimary {
		return q
	}
	m := gz.primaryMatrix()
	return OrthonormalBasis(&m)
}

// primaryMatrix returns the world matrix of the primary selection
// member (the single selected group, or the first selected item).
func (gz *GizmoController) primaryMatrix() math32.Matrix4 {
	pr := gz.Sel.Primary
	if pr.Kind == SelGroup {
		if g := gz.Store.Group(pr.Group); g != nil {
			return g.Pose.Matrix
		}
		return *math32.Identity4()
	}
	return gz.Resolver.objectWorldMatrix(pr.Object)
}

// BeginDrag enters the dragging state in the given mode, snapshotting
// the widget's pre-drag pose. For anchor-locked scaling it also
// snapshots a pivot-relative bounding box and the per-axis anchor
// directions from the DragStart information.
func (gz *GizmoController) BeginDrag(mode GizmoModes, start *DragStart) {
	if gz.Sel.IsEmpty() {
		return
	}
	if gz.PivotEdit {
		mode = GizmoTranslate
	}
	gz.State = DragActive
	if !gz.PivotEdit {
		gz.Mode = mode
	}
	gz.startPose = gz.Widget
	gz.prevMatrix = gz.Widget.Matrix
	if gz.PivotEdit {
		gz.pivotBase = gz.Resolver.ResolveCenter(PivotOrigin, gz.Pivot.IsCustom, math32.Vector3{})
		return
	}
	if gz.AnchorLock && mode == GizmoScale {
		gz.snapshotAnchorBox(start)
	}
}

// snapshotAnchorBox captures the drag reference frame, the per-axis
// anchor directions, and the selection bounding box in frame
// coordinates relative to the widget position.
func (gz *GizmoController) snapshotAnchorBox(start *DragStart) {
	gz.frame = gz.dragFrame()
	gz.anchorDir = math32.Vec3(1, 1, 1)
	if start != nil {
		if start.HandleDir != nil { // raycast takes precedence
			d := *start.HandleDir
			gz.anchorDir = math32.Vec3(signOr(d.X, 1), signOr(d.Y, 1), signOr(d.Z, 1))
		} else {
			s := start.ScreenSide
			gz.anchorDir = math32.Vec3(signOr(s.X, 1), signOr(s.Y, 1), signOr(s.Z, 1))
		}
	}
	wb := gz.Resolver.SelectionWorldBox()
	gz.anchorBox = math32.B3Empty()
	if wb.IsEmpty() {
		return
	}
	corners := boxCorners(wb)
	for _, c := range corners {
		rel := c.Sub(gz.startPose.Pos)
		gz.anchorBox.ExpandByPoint(math32.Vec3(
			gz.frame[0].Dot(rel), gz.frame[1].Dot(rel), gz.frame[2].Dot(rel)))
	}
}

// dragFrame returns the unit axes of the drag reference frame: the
// single selected group's own (shear-bearing) basis in local space,
// else the widget's rotation axes.
func (gz *GizmoController) dragFrame() [3]math32.Vector3 {
	m := gz.startPose.Matrix
	if gz.Space == SpaceLocal {
		if g := gz.Sel.SoleGroup(); g != nil {
			m = g.Pose.Matrix
		}
	}
	axes := [3]math32.Vector3{
		math32.Vec3(m[0], m[1], m[2]),
		math32.Vec3(m[4], m[5], m[6]),
		math32.Vec3(m[8], m[9], m[10]),
	}
	defaults := [3]math32.Vector3{
		math32.Vec3(1, 0, 0), math32.Vec3(0, 1, 0), math32.Vec3(0, 0, 1)}
	for i, ax := range axes {
		if ax.LengthSquared() < basisEpsilon {
			axes[i] = defaults[i]
		} else {
			axes[i] = ax.Normal()
		}
	}
	return axes
}

// UpdateDrag consumes the widget's new world matrix from the UI layer
// and applies the resulting delta transform. In pivot-edit mode only
// the pivot offset is recomputed and no instance is touched. With
// anchor-locked scaling the widget position is first shifted so the
// anchored edge of the pre-drag box stays fixed.
func (gz *GizmoController) UpdateDrag(widget math32.Matrix4) {
	if gz.State != DragActive {
		return
	}
	if gz.PivotEdit {
		gz.Widget.SetMatrix(&widget)
		gz.Pivot.Offset = gz.Widget.Pos.Sub(gz.pivotBase)
		gz.prevMatrix = widget
		return
	}
	if gz.AnchorLock && gz.Mode == GizmoScale {
		widget = gz.anchorLockAdjust(widget)
	}
	inv, err := gz.prevMatrix.Inverse()
	if err != nil {
		gz.prevMatrix = widget
		gz.Widget.SetMatrix(&widget)
		return
	}
	var delta math32.Matrix4
	delta.MulMatrices(&widget, inv)
	gz.applyDelta(&delta)
	gz.prevMatrix = widget
	gz.Widget.SetMatrix(&widget)
}

// anchorLockAdjust shifts the widget position so that the anchored
// edge of the pre-drag bounding box stays fixed while the opposite
// edge moves, proportional to the ratio of new to old scale per axis,
// in the drag's reference frame.
func (gz *GizmoController) anchorLockAdjust(widget math32.Matrix4) math32.Matrix4 {
	if gz.anchorBox.IsEmpty() {
		return widget
	}
	_, _, nsc := widget.Decompose()
	osc := gz.startPose.Scale
	var shift math32.Vector3
	for i := 0; i < 3; i++ {
		o := osc.Dim(math32.Dims(i))
		if math32.Abs(o) < 1.0e-7 {
			continue
		}
		r := nsc.Dim(math32.Dims(i)) / o
		fixed := gz.anchorBox.Min.Dim(math32.Dims(i))
		if gz.anchorDir.Dim(math32.Dims(i)) < 0 {
			fixed = gz.anchorBox.Max.Dim(math32.Dims(i))
		}
		shift.SetAdd(gz.frame[i].MulScalar(fixed * (1 - r)))
	}
	pos := gz.startPose.Pos.Add(shift)
	widget[12], widget[13], widget[14] = pos.X, pos.Y, pos.Z
	return widget
}

// applyDelta applies a world-space delta transform to every selected
// object instance (conjugated into the owning renderable's local
// space) and premultiplies it into every affected group record:
// the selected groups and all their descendants.
func (gz *GizmoController) applyDelta(delta *math32.Matrix4) {
	for _, ref := range gz.Sel.FlattenedItems() {
		world := gz.Src.WorldMatrix(ref.Handle)
		winv, err := world.Inverse()
		if err != nil {
			continue
		}
		local := gz.Src.InstanceTransform(ref.Handle, ref.Index)
		var dw, ldw, nl math32.Matrix4
		dw.MulMatrices(delta, &world)
		ldw.MulMatrices(winv, &dw)
		nl.MulMatrices(&ldw, &local)
		gz.Src.SetInstanceTransform(ref.Handle, ref.Index, nl)
	}
	for _, id := range gz.affectedGroups() {
		if g := gz.Store.Group(id); g != nil {
			g.Pose.PreMulMatrix(delta)
		}
	}
}

// affectedGroups returns the selected groups plus all their
// descendants, without duplicates.
func (gz *GizmoController) affectedGroups() []GroupID {
	seen := make(map[GroupID]bool)
	var ids []GroupID
	add := func(id GroupID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range gz.Sel.Groups {
		add(id)
		for _, d := range gz.Store.DescendantGroups(id) {
			add(d)
		}
	}
	return ids
}

// EndDrag leaves the dragging state. If pivot-edit was active, the
// edited pivot is persisted onto the selected group or onto every
// selected object's custom-pivot side channel (one entry per instance
// index for composite entities), the previous widget mode is restored,
// and the ephemeral-pivot undo record is armed when the edit happened
// under a multi-selection. Otherwise the pivot state is recomputed for
// the (possibly changed) selection.
func (gz *GizmoController) EndDrag() {
	if gz.State != DragActive {
		return
	}
	gz.State = DragIdle
	if gz.PivotEdit {
		gz.persistPivotEdit()
		gz.PivotEdit = false
		gz.Mode = gz.savedMode
		gz.SyncWidget()
		return
	}
	if gz.Pivot.Mode == PivotOrigin && gz.Sel.NumMembers() > 1 {
		// an explicit drag refreshes the pinned anchor
		gz.Pivot.Anchor = gz.Widget.Pos
		gz.Pivot.AnchorInit = gz.Widget.Pos
		gz.Pivot.HasAnchor = true
	}
	gz.SyncWidget()
}

// persistPivotEdit writes the widget's final position as the custom
// pivot of every selected member, bakes the live offset into the
// persisted pivots, and arms the ephemeral undo under multi-selection.
func (gz *GizmoController) persistPivotEdit() {
	pos := gz.Widget.Pos
	multi := gz.Sel.NumMembers() > 1
	gz.writeMemberPivots(pos)
	gz.Pivot.Offset = math32.Vector3{}
	gz.Pivot.IsCustom = true
	if gz.Pivot.Mode == PivotOrigin && multi {
		gz.Pivot.Anchor = pos
		gz.Pivot.AnchorInit = pos
		gz.Pivot.HasAnchor = true
	}
	gz.ephemeralArmed = multi && gz.ephemeralRestore != nil
}

// writeMemberPivots stores the given world position as the custom
// pivot of every selected group and object, including composite
// sibling instances sharing the same item id.
func (gz *GizmoController) writeMemberPivots(pos math32.Vector3) {
	for _, id := range gz.Sel.Groups {
		g := gz.Store.Group(id)
		if g == nil {
			continue
		}
		inv, err := g.Pose.Matrix.Inverse()
		if err != nil {
			continue
		}
		g.Pivot = pos.MulMatrix4(inv)
		g.HasPivot = true
	}
	for _, ref := range gz.Sel.DirectObjects() {
		refs := gz.Src.SameItem(gz.Src.ItemID(ref.Handle, ref.Index))
		if len(refs) == 0 {
			refs = []stage.ObjectRef{ref}
		}
		for _, pr := range refs {
			om := gz.Resolver.objectWorldMatrix(pr)
			inv, err := om.Inverse()
			if err != nil {
				continue
			}
			gz.Src.SetCustomPivot(pr.Handle, pr.Index, pos.MulMatrix4(inv))
		}
	}
}

// SetPivotEdit enters or leaves pivot-edit mode. Entering snapshots
// the prior pivot state of every selected member for the ephemeral
// undo record; leaving without a drag restores the previous mode and
// discards the snapshot.
func (gz *GizmoController) SetPivotEdit(on bool) {
	if on == gz.PivotEdit || gz.State == DragActive {
		return
	}
	if on {
		gz.savedMode = gz.Mode
		gz.PivotEdit = true
		gz.ephemeralRestore = gz.snapshotPivots()
		gz.ephemeralArmed = false
		return
	}
	gz.PivotEdit = false
	gz.Mode = gz.savedMode
	if !gz.ephemeralArmed {
		gz.ephemeralRestore = nil
	}
	gz.SyncWidget()
}

// snapshotPivots captures the current pivot state of every selected
// member and returns a closure restoring it.
func (gz *GizmoController) snapshotPivots() func() {
	type objPivot struct {
		ref stage.ObjectRef
		p   math32.Vector3
		has bool
	}
	type grpPivot struct {
		id  GroupID
		p   math32.Vector3
		has bool
	}
	var objs []objPivot
	var grps []grpPivot
	for _, id := range gz.Sel.Groups {
		if g := gz.Store.Group(id); g != nil {
			grps = append(grps, grpPivot{id: id, p: g.Pivot, has: g.HasPivot})
		}
	}
	for _, ref := range gz.Sel.DirectObjects() {
		refs := gz.Src.SameItem(gz.Src.ItemID(ref.Handle, ref.Index))
		if len(refs) == 0 {
			refs = []stage.ObjectRef{ref}
		}
		for _, pr := range refs {
			p, has := gz.Src.CustomPivot(pr.Handle, pr.Index)
			objs = append(objs, objPivot{ref: pr, p: p, has: has})
		}
	}
	return func() {
		for _, gp := range grps {
			if g := gz.Store.Group(gp.id); g != nil {
				g.Pivot = gp.p
				g.HasPivot = gp.has
			}
		}
		for _, op := range objs {
			if op.has {
				gz.Src.SetCustomPivot(op.ref.Handle, op.ref.Index, op.p)
			} else {
				gz.Src.ClearCustomPivot(op.ref.Handle, op.ref.Index)
			}
		}
	}
}

// InvalidateEphemeralPivot fires the ephemeral-pivot undo record if
// one is armed: a custom pivot created while pivot-editing a
// multi-selection reverts once that selection ends. Pivots created
// for single-item selections are persistent edits and unaffected.
func (gz *GizmoController) InvalidateEphemeralPivot() {
	if gz.ephemeralArmed && gz.ephemeralRestore != nil {
		gz.ephemeralRestore()
	}
	gz.ephemeralArmed = false
	gz.ephemeralRestore = nil
}

// TogglePivotMode toggles between origin and center pivot modes.
// The custom-pivot flag is always cleared; per-member stored pivots
// are untouched, so toggling back returns the widget to its pre-toggle
// position.
func (gz *GizmoController) TogglePivotMode() {
	if gz.Pivot.Mode == PivotOrigin {
		gz.Pivot.Mode = PivotCenter
	} else {
		gz.Pivot.Mode = PivotOrigin
	}
	gz.Pivot.IsCustom = false
	gz.SyncWidget()
}

// ResetPivot runs the explicit pivot-reset command: fires the
// ephemeral undo if armed, otherwise clears the stored custom pivots
// of every selected member, then resets the pivot state and recomputes
// the widget.
func (gz *GizmoController) ResetPivot() {
	if gz.ephemeralArmed {
		gz.InvalidateEphemeralPivot()
	} else {
		for _, id := range gz.Sel.Groups {
			if g := gz.Store.Group(id); g != nil {
				g.Pivot = math32.Vector3{}
				g.HasPivot = false
			}
		}
		for _, ref := range gz.Sel.FlattenedItems() {
			gz.Src.ClearCustomPivot(ref.Handle, ref.Index)
		}
	}
	mode := gz.Pivot.Mode
	*gz.Pivot = PivotState{Mode: mode}
	gz.SyncWidget()
}

// Abort forces the state machine back to idle, clearing pivot-edit
// mode without persisting anything: the focus / visibility loss path.
func (gz *GizmoController) Abort() {
	if gz.PivotEdit {
		gz.PivotEdit = false
		gz.Mode = gz.savedMode
		if !gz.ephemeralArmed {
			gz.ephemeralRestore = nil
		}
	}
	gz.State = DragIdle
	gz.SyncWidget()
}

// boxCorners returns the eight corners of the given box.
func boxCorners(b math32.Box3) [8]math32.Vector3 {
	return [8]math32.Vector3{
		b.Min,
		math32.Vec3(b.Max.X, b.Min.Y, b.Min.Z),
		math32.Vec3(b.Min.X, b.Max.Y, b.Min.Z),
		math32.Vec3(b.Min.X, b.Min.Y, b.Max.Z),
		math32.Vec3(b.Max.X, b.Max.Y, b.Min.Z),
		math32.Vec3(b.Max.X, b.Min.Y, b.Max.Z),
		math32.Vec3(b.Min.X, b.Max.Y, b.Max.Z),
		b.Max,
	}
}
