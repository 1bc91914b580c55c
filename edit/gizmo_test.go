// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import (
	"testing"

	"cogentcore.org/core/math32"
	"cogentcore.org/xyzedit/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGizmo(ms *stage.Mem) (*GizmoController, *GroupStore, *SelectionModel) {
	gs := NewGroupStore()
	sm := NewSelectionModel(gs)
	pr := &PivotResolver{Store: gs, Sel: sm, Src: ms}
	pv := &PivotState{}
	return NewGizmoController(gs, sm, ms, pr, pv), gs, sm
}

func TestDragTranslatePropagation(t *testing.T) {
	ms, a, b := twoObjectScene()
	gz, gs, sm := newGizmo(ms)
	inner := gs.CreateGroup(nil, []stage.ObjectRef{b})
	outer := gs.CreateGroup([]GroupID{inner}, []stage.ObjectRef{a})
	sm.Replace([]GroupID{outer}, nil, AnchorFirst)
	gz.SyncWidget()

	startA := ms.InstanceTransform(a.Handle, a.Index)
	startB := ms.InstanceTransform(b.Handle, b.Index)

	gz.BeginDrag(GizmoTranslate, nil)
	assert.Equal(t, DragActive, gz.State)

	d := math32.Vec3(3, 1, -2)
	w := gz.Widget.Matrix
	w[12] += d.X
	w[13] += d.Y
	w[14] += d.Z
	gz.UpdateDrag(w)
	gz.EndDrag()
	assert.Equal(t, DragIdle, gz.State)

	// every object inside the group moved by the same world delta
	na := ms.InstanceTransform(a.Handle, a.Index)
	nb := ms.InstanceTransform(b.Handle, b.Index)
	assertVec3(t, math32.Vec3(startA[12]+d.X, startA[13]+d.Y, startA[14]+d.Z),
		math32.Vec3(na[12], na[13], na[14]))
	assertVec3(t, math32.Vec3(startB[12]+d.X, startB[13]+d.Y, startB[14]+d.Z),
		math32.Vec3(nb[12], nb[13], nb[14]))

	// selected group and its descendants carry the delta, with the
	// decomposed fields consistent with the matrix
	for _, id := range []GroupID{outer, inner} {
		g := gs.Group(id)
		require.NotNil(t, g)
		assertVec3(t, d, g.Pose.Pos)
		var m math32.Matrix4
		m.SetTransform(g.Pose.Pos, g.Pose.Quat, g.Pose.Scale)
		for i := range m {
			assert.InDelta(t, m[i], g.Pose.Matrix[i], 1.0e-4)
		}
	}
}

func TestDragConjugatesRenderableWorld(t *testing.T) {
	ms := stage.NewMem()
	h := ms.AddRenderable(translation(10, 0, 0))
	a := ms.AddInstance(h, *math32.Identity4(), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
	gz, _, sm := newGizmo(ms)
	sm.Replace(nil, map[stage.Handle][]int{a.Handle: {a.Index}}, AnchorFirst)
	gz.SyncWidget()

	gz.BeginDrag(GizmoTranslate, nil)
	w := gz.Widget.Matrix
	w[12] += 2
	gz.UpdateDrag(w)
	gz.EndDrag()

	// world delta +2 in x lands in the instance's local frame
	na := ms.InstanceTransform(a.Handle, a.Index)
	assert.InDelta(t, 2, na[12], 1.0e-4)
	// world position of instance went from 10 to 12
	wm := ms.WorldMatrix(h)
	var full math32.Matrix4
	full.MulMatrices(&wm, &na)
	assert.InDelta(t, 12, full[12], 1.0e-4)
}

func TestPivotModeToggleRoundTrip(t *testing.T) {
	ms, a, b := twoObjectScene()
	gz, _, sm := newGizmo(ms)
	sm.Replace(nil, map[stage.Handle][]int{a.Handle: {a.Index, b.Index}}, AnchorFirst)
	gz.SyncWidget()
	start := gz.Widget.Pos

	gz.TogglePivotMode()
	assert.Equal(t, PivotCenter, gz.Pivot.Mode)
	gz.TogglePivotMode()
	assert.Equal(t, PivotOrigin, gz.Pivot.Mode)
	assert.False(t, gz.Pivot.IsCustom)
	assertVec3(t, start, gz.Widget.Pos)
}

func TestPivotEditDrag(t *testing.T) {
	ms := stage.NewMem()
	h := ms.AddRenderable(*math32.Identity4())
	a := ms.AddInstance(h, translation(2, 0, 0), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
	gz, _, sm := newGizmo(ms)
	sm.Replace(nil, map[stage.Handle][]int{a.Handle: {a.Index}}, AnchorFirst)
	gz.SyncWidget()
	gz.Mode = GizmoRotate

	gz.SetPivotEdit(true)
	assert.Equal(t, GizmoTranslate, gz.EffectiveMode())

	startTf := ms.InstanceTransform(a.Handle, a.Index)
	gz.BeginDrag(GizmoRotate, nil) // forced to translate while pivot editing
	target := math32.Vec3(2.5, 0.5, 0.5)
	w := gz.Widget.Matrix
	w[12], w[13], w[14] = target.X, target.Y, target.Z
	gz.UpdateDrag(w)

	// no instance transforms are touched while editing the pivot
	assert.Equal(t, startTf, ms.InstanceTransform(a.Handle, a.Index))

	gz.EndDrag()
	assert.False(t, gz.PivotEdit)
	assert.Equal(t, GizmoRotate, gz.Mode) // prior mode restored
	assert.True(t, gz.Pivot.IsCustom)
	assert.Equal(t, math32.Vector3{}, gz.Pivot.Offset)

	// pivot persisted in the instance's local frame
	p, ok := ms.CustomPivot(a.Handle, a.Index)
	require.True(t, ok)
	assertVec3(t, math32.Vec3(0.5, 0.5, 0.5), p)

	// widget stays at the edited point
	assertVec3(t, target, gz.Widget.Pos)
}

func TestPivotEditCompositeSiblings(t *testing.T) {
	ms := stage.NewMem()
	h := ms.AddRenderable(*math32.Identity4())
	a := ms.AddInstance(h, translation(0, 0, 0), math32.B3(0, 0, 0, 1, 1, 1), stage.Item)
	b := ms.AddInstance(h, translation(2, 0, 0), math32.B3(0, 0, 0, 1, 1, 1), stage.Item)
	ms.Instance(a.Handle, a.Index).Item = 5
	ms.Instance(b.Handle, b.Index).Item = 5

	gz, _, sm := newGizmo(ms)
	sm.Replace(nil, map[stage.Handle][]int{a.Handle: {a.Index}}, AnchorFirst)
	gz.SyncWidget()

	gz.SetPivotEdit(true)
	gz.BeginDrag(GizmoTranslate, nil)
	w := gz.Widget.Matrix
	w[12], w[13], w[14] = 1, 0, 0
	gz.UpdateDrag(w)
	gz.EndDrag()

	// both composite parts got an entry, each in its own local frame
	pa, ok := ms.CustomPivot(a.Handle, a.Index)
	require.True(t, ok)
	assertVec3(t, math32.Vec3(1, 0, 0), pa)
	pb, ok := ms.CustomPivot(b.Handle, b.Index)
	require.True(t, ok)
	assertVec3(t, math32.Vec3(-1, 0, 0), pb)
}

func TestAnchorLockedScale(t *testing.T) {
	ms := stage.NewMem()
	h := ms.AddRenderable(*math32.Identity4())
	a := ms.AddInstance(h, *math32.Identity4(), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
	gz, _, sm := newGizmo(ms)
	gz.AnchorLock = true
	sm.Replace(nil, map[stage.Handle][]int{a.Handle: {a.Index}}, AnchorFirst)
	gz.SyncWidget()
	assertVec3(t, math32.Vec3(0, 0, 0), gz.Widget.Pos) // box-min anchor

	// handle grabbed on the negative side: the max edge stays fixed
	dir := math32.Vec3(-1, -1, -1)
	gz.BeginDrag(GizmoScale, &DragStart{HandleDir: &dir})

	var w math32.Matrix4
	var q math32.Quat
	q.SetIdentity()
	w.SetTransform(gz.Widget.Pos, q, math32.Vec3(2, 2, 2))
	gz.UpdateDrag(w)
	gz.EndDrag()

	na := ms.InstanceTransform(a.Handle, a.Index)
	assert.InDelta(t, 2, na[0], 1.0e-4) // scaled
	// box went from [0,1] to [-1,1]: max corner pinned
	bb := ms.LocalBoundingBox(a.Handle, a.Index).MulMatrix4(&na)
	assert.InDelta(t, -1, bb.Min.X, 1.0e-4)
	assert.InDelta(t, 1, bb.Max.X, 1.0e-4)
}

func TestAbortClearsState(t *testing.T) {
	ms, a, _ := twoObjectScene()
	gz, _, sm := newGizmo(ms)
	sm.Replace(nil, map[stage.Handle][]int{a.Handle: {a.Index}}, AnchorFirst)
	gz.SyncWidget()
	gz.Mode = GizmoScale

	gz.SetPivotEdit(true)
	gz.BeginDrag(GizmoTranslate, nil)
	gz.Abort()

	assert.Equal(t, DragIdle, gz.State)
	assert.False(t, gz.PivotEdit)
	assert.Equal(t, GizmoScale, gz.Mode)
}

func TestSetModeBlockedDuringDrag(t *testing.T) {
	ms, a, _ := twoObjectScene()
	gz, _, sm := newGizmo(ms)
	sm.Replace(nil, map[stage.Handle][]int{a.Handle: {a.Index}}, AnchorFirst)
	gz.SyncWidget()

	gz.BeginDrag(GizmoRotate, nil)
	gz.SetMode(GizmoScale)
	assert.Equal(t, GizmoRotate, gz.Mode)
	gz.EndDrag()
	gz.SetMode(GizmoScale)
	assert.Equal(t, GizmoScale, gz.Mode)
}

func TestSpaceRotationLocal(t *testing.T) {
	ms, a, b := twoObjectScene()
	gz, gs, sm := newGizmo(ms)
	id := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	gs.Group(id).Pose.SetEulerRotation(0, 90, 0)
	sm.Replace([]GroupID{id}, nil, AnchorFirst)

	gz.SetSpace(SpaceLocal)
	q := gz.SpaceRotation()
	var want math32.Quat
	want.SetFromEuler(math32.Vec3(0, math32.DegToRad(90), 0))
	assert.InDelta(t, math32.Abs(want.Dot(q)), 1, 1.0e-4)

	gz.SetSpace(SpaceWorld)
	q = gz.SpaceRotation()
	var id4 math32.Quat
	id4.SetIdentity()
	assert.InDelta(t, math32.Abs(id4.Dot(q)), 1, 1.0e-4)
}
