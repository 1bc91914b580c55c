// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import (
	"cogentcore.org/core/events/key"
	"cogentcore.org/core/math32"
	"cogentcore.org/xyzedit/stage"
)

// Session is the one explicit context object owning the instance
// source and every editing component: group store, selection, pivot
// state, resolver, gizmo, and snap engine. All mutation happens inside
// synchronous calls on the UI thread; there are no locks and no
// globals. The UI event layer is a thin adapter calling into the
// pointer and keyboard surfaces below.
type Session struct {
	Src      stage.Source
	Store    *GroupStore
	Sel      *SelectionModel
	Pivot    PivotState
	Resolver *PivotResolver
	Gizmo    *GizmoController
	Snap     *VertexSnapEngine
	Settings Settings

	// CameraNav is the camera navigation enablement flag: interactions
	// that capture the pointer clear it and restore it on completion
	// or abort.
	CameraNav bool

	marqueeActive  bool
	marqueeIgnore  bool
	marqueeMoved   bool
	marqueeStart   math32.Vector2
	cameraNavSaved bool
}

// NewSession returns a session over the given instance source with
// default settings and all components wired.
func NewSession(src stage.Source) *Session {
	se := &Session{Src: src, CameraNav: true}
	se.Settings.Defaults()
	se.Store = NewGroupStore()
	se.Sel = NewSelectionModel(se.Store)
	se.Resolver = &PivotResolver{Store: se.Store, Sel: se.Sel, Src: src}
	se.Gizmo = NewGizmoController(se.Store, se.Sel, src, se.Resolver, &se.Pivot)
	se.Gizmo.AnchorLock = se.Settings.AnchorLockScale
	se.Snap = NewVertexSnapEngine(se.Store, se.Sel, src, se.Gizmo)
	return se
}

// ResetSelection clears the selection and pivot state, firing any
// armed ephemeral-pivot undo first.
func (se *Session) ResetSelection() {
	se.Gizmo.InvalidateEphemeralPivot()
	se.Sel.Clear()
	se.Pivot.Reset()
	se.Gizmo.SyncWidget()
}

// ReplaceSelectionWithObjects replaces the selection with the given
// handle to instance-index mapping.
func (se *Session) ReplaceSelectionWithObjects(objects map[stage.Handle][]int, anchor AnchorModes) {
	se.Gizmo.InvalidateEphemeralPivot()
	se.Sel.Replace(nil, objects, anchor)
	se.Pivot.Reset()
	se.Gizmo.SyncWidget()
}

// ReplaceSelectionWithGroupsAndObjects replaces the selection with the
// given groups plus loose objects.
func (se *Session) ReplaceSelectionWithGroupsAndObjects(groups []GroupID, objects map[stage.Handle][]int, anchor AnchorModes) {
	se.Gizmo.InvalidateEphemeralPivot()
	se.Sel.Replace(groups, objects, anchor)
	se.Pivot.Reset()
	se.Gizmo.SyncWidget()
}

// CreateGroupFromSelection creates a new group containing the selected
// groups and objects, and selects it. Returns NilGroup when the
// selection is empty.
func (se *Session) CreateGroupFromSelection() GroupID {
	if se.Sel.IsEmpty() {
		return NilGroup
	}
	groups := make([]GroupID, len(se.Sel.Groups))
	copy(groups, se.Sel.Groups)
	id := se.Store.CreateGroup(groups, se.Sel.DirectObjects())
	if id == NilGroup {
		return NilGroup
	}
	se.ReplaceSelectionWithGroupsAndObjects([]GroupID{id}, nil, AnchorFirst)
	return id
}

// Ungroup dissolves the given group, splicing its children into the
// parent or promoting them to root, and selects the freed children.
func (se *Session) Ungroup(id GroupID) {
	g := se.Store.Group(id)
	if g == nil {
		return
	}
	var groups []GroupID
	objects := map[stage.Handle][]int{}
	for _, ch := range g.Children {
		switch ch.Kind {
		case ChildGroup:
			groups = append(groups, ch.Group)
		case ChildObject:
			objects[ch.Object.Handle] = append(objects[ch.Object.Handle], ch.Object.Index)
		}
	}
	se.Store.Ungroup(id)
	se.ReplaceSelectionWithGroupsAndObjects(groups, objects, AnchorFirst)
}

// SelectAll selects every root group and every loose object, with
// center anchoring.
func (se *Session) SelectAll() {
	groups := se.Store.RootIDs()
	objects := map[stage.Handle][]int{}
	for _, h := range se.Src.Handles() {
		for i := 0; i < se.Src.InstanceCount(h); i++ {
			ref := stage.Ref(h, i)
			if _, ok := se.Store.GroupOf(ref); ok {
				continue
			}
			objects[h] = append(objects[h], i)
		}
	}
	se.ReplaceSelectionWithGroupsAndObjects(groups, objects, AnchorCenter)
}

// SelectAllIgnoringGroups selects every object instance directly,
// bypassing the group hierarchy, with center anchoring.
func (se *Session) SelectAllIgnoringGroups() {
	objects := map[stage.Handle][]int{}
	for _, h := range se.Src.Handles() {
		for i := 0; i < se.Src.InstanceCount(h); i++ {
			objects[h] = append(objects[h], i)
		}
	}
	se.ReplaceSelectionWithObjects(objects, AnchorCenter)
}

// Click handles a plain click on the given object, cycling upward
// through the group ancestry: the first click selects the object's
// immediate group; when that group (or an ancestor) is already the
// primary selection, the click moves to its parent; at the root, the
// next click deselects. bypassGroups (ctrl / cmd held) selects the
// object itself regardless of grouping.
func (se *Session) Click(ref stage.ObjectRef, bypassGroups bool) {
	if bypassGroups {
		se.ReplaceSelectionWithObjects(map[stage.Handle][]int{ref.Handle: {ref.Index}}, AnchorFirst)
		return
	}
	gid, ok := se.Store.GroupOf(ref)
	if !ok {
		se.ReplaceSelectionWithObjects(map[stage.Handle][]int{ref.Handle: {ref.Index}}, AnchorFirst)
		return
	}
	target := gid
	if se.Sel.HasPrimary && se.Sel.Primary.Kind == SelGroup {
		cur := se.Sel.Primary.Group
		if cur == gid || se.inAncestry(cur, gid) {
			if cur == se.Store.RootOf(gid) {
				se.ResetSelection()
				return
			}
			if p, ok := se.Store.parentOfGroup(cur); ok {
				target = p
			}
		}
	}
	se.ReplaceSelectionWithGroupsAndObjects([]GroupID{target}, nil, AnchorFirst)
}

// inAncestry reports whether id is an ancestor of the group of.
func (se *Session) inAncestry(id, of GroupID) bool {
	for _, a := range se.Store.AncestryChain(of) {
		if a == id {
			return true
		}
	}
	return false
}

// ShiftClick toggles the clicked object's immediate group (or the
// object itself when loose) in the selection, preserving the original
// primary. Before a toggle that makes the selection multi, the current
// widget position is cached so the gizmo does not visibly relocate.
func (se *Session) ShiftClick(ref stage.ObjectRef) {
	if se.Sel.NumMembers() == 1 && se.Pivot.Mode == PivotOrigin {
		se.Pivot.SeedAnchor(se.Gizmo.Widget.Pos)
	}
	if gid, ok := se.Store.GroupOf(ref); ok {
		se.Sel.ToggleGroup(gid)
	} else {
		se.Sel.ToggleObjects(ref.Handle, []int{ref.Index})
	}
	if se.Sel.IsEmpty() {
		se.Gizmo.InvalidateEphemeralPivot()
		se.Pivot.Reset()
	}
	se.Gizmo.SyncWidget()
}

// BeginMarquee starts a marquee selection at the given pointer
// position, disabling camera navigation for the duration.
// ignoreGroups selects raw objects instead of their root groups.
func (se *Session) BeginMarquee(pos math32.Vector2, ignoreGroups bool) {
	se.marqueeActive = true
	se.marqueeIgnore = ignoreGroups
	se.marqueeMoved = false
	se.marqueeStart = pos
	se.cameraNavSaved = se.CameraNav
	se.CameraNav = false
}

// UpdateMarquee tracks pointer movement during a marquee. The gizmo's
// own drag takes priority: a pending marquee is aborted the instant
// the gizmo reports dragging. Movement beyond the click threshold
// marks this as a drag rather than a click.
func (se *Session) UpdateMarquee(pos math32.Vector2) {
	if !se.marqueeActive {
		return
	}
	if se.Gizmo.State == DragActive {
		se.CancelMarquee()
		return
	}
	if pos.Sub(se.marqueeStart).Length() > se.Settings.ClickThreshold {
		se.marqueeMoved = true
	}
}

// EndMarquee completes a marquee with the hit objects, replacing the
// selection with center anchoring, and restores camera navigation.
// It reports whether a marquee selection was actually made: a pointer
// that never moved past the click threshold is a click, not a
// marquee, and is left for the click handler.
func (se *Session) EndMarquee(hits map[stage.Handle][]int) bool {
	if !se.marqueeActive {
		return false
	}
	moved := se.marqueeMoved
	se.CancelMarquee()
	if !moved {
		return false
	}
	if se.marqueeIgnore {
		se.ReplaceSelectionWithObjects(hits, AnchorCenter)
		return true
	}
	groupSet := map[GroupID]bool{}
	var groups []GroupID
	objects := map[stage.Handle][]int{}
	for h, indices := range hits {
		for _, i := range indices {
			ref := stage.Ref(h, i)
			if gid, ok := se.Store.GroupOf(ref); ok {
				root := se.Store.RootOf(gid)
				if !groupSet[root] {
					groupSet[root] = true
					groups = append(groups, root)
				}
				continue
			}
			objects[h] = append(objects[h], i)
		}
	}
	se.ReplaceSelectionWithGroupsAndObjects(groups, objects, AnchorCenter)
	return true
}

// CancelMarquee aborts any in-progress marquee and restores the prior
// camera navigation enablement.
func (se *Session) CancelMarquee() {
	if !se.marqueeActive {
		return
	}
	se.marqueeActive = false
	se.CameraNav = se.cameraNavSaved
}

// AbortInteraction forces everything back to idle: drag state machine,
// pivot-edit mode, marquee, pending snap. The focus / visibility loss
// path.
func (se *Session) AbortInteraction() {
	se.Gizmo.Abort()
	se.CancelMarquee()
	se.Snap.Cancel()
}

// RemoveShearFromSelection rebuilds each selected member's transform
// from its Gram-Schmidt orthonormalized basis and axis lengths,
// discarding shear. Groups rebuild their pose matrix; objects rebuild
// their instance-local matrices.
func (se *Session) RemoveShearFromSelection() {
	for _, id := range se.Sel.Groups {
		g := se.Store.Group(id)
		if g == nil {
			continue
		}
		nm := RemoveShear(&g.Pose.Matrix)
		g.Pose.SetMatrix(&nm)
	}
	for _, ref := range se.Sel.DirectObjects() {
		local := se.Src.InstanceTransform(ref.Handle, ref.Index)
		nm := RemoveShear(&local)
		se.Src.SetInstanceTransform(ref.Handle, ref.Index, nm)
	}
	se.Gizmo.SyncWidget()
}

// HandleKey dispatches a key chord through the session's key map,
// reporting whether it was handled.
func (se *Session) HandleKey(ch key.Chord) bool {
	act := se.Settings.KeyMap.ActionFor(ch)
	switch act {
	case ModeTranslate:
		se.Gizmo.SetMode(GizmoTranslate)
	case ModeRotate:
		se.Gizmo.SetMode(GizmoRotate)
	case ModeScale:
		se.Gizmo.SetMode(GizmoScale)
	case ToggleSpace:
		if se.Gizmo.Space == SpaceWorld {
			se.Gizmo.SetSpace(SpaceLocal)
		} else {
			se.Gizmo.SetSpace(SpaceWorld)
		}
	case TogglePivotMode:
		se.Gizmo.TogglePivotMode()
	case TogglePivotEdit:
		se.Gizmo.SetPivotEdit(!se.Gizmo.PivotEdit)
	case ToggleAnchorLock:
		se.Gizmo.AnchorLock = !se.Gizmo.AnchorLock
	case ResetPivot:
		se.Gizmo.ResetPivot()
	case ClearShear:
		se.RemoveShearFromSelection()
	case GroupSelection:
		se.CreateGroupFromSelection()
	case UngroupSelection:
		if g := se.Sel.SoleGroup(); g != nil {
			se.Ungroup(g.ID)
		}
	case SelectAll:
		se.SelectAll()
	case SelectAllObjects:
		se.SelectAllIgnoringGroups()
	case Deselect:
		se.ResetSelection()
	case CancelAction:
		se.AbortInteraction()
	default:
		return false
	}
	return true
}
