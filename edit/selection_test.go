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

func TestSelectionReplace(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	sm := NewSelectionModel(gs)

	assert.True(t, sm.IsEmpty())
	sm.Replace(nil, map[stage.Handle][]int{a.Handle: {a.Index, b.Index}}, AnchorFirst)
	assert.False(t, sm.IsEmpty())
	assert.Equal(t, 2, sm.NumMembers())
	assert.True(t, sm.HasObject(a))
	assert.True(t, sm.HasObject(b))

	require.True(t, sm.HasPrimary)
	assert.Equal(t, SelObject, sm.Primary.Kind)
	assert.Equal(t, a, sm.Primary.Object)

	sm.Clear()
	assert.True(t, sm.IsEmpty())
	assert.False(t, sm.HasPrimary)
}

func TestSelectionPrimaryPrefersGroup(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	id := gs.CreateGroup(nil, []stage.ObjectRef{a})
	sm := NewSelectionModel(gs)

	sm.Replace([]GroupID{id}, map[stage.Handle][]int{b.Handle: {b.Index}}, AnchorCenter)
	require.True(t, sm.HasPrimary)
	assert.Equal(t, SelGroup, sm.Primary.Kind)
	assert.Equal(t, id, sm.Primary.Group)
	assert.Equal(t, AnchorCenter, sm.Anchor)
}

func TestSelectionTogglePreservesPrimary(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	sm := NewSelectionModel(gs)

	sm.Replace(nil, map[stage.Handle][]int{a.Handle: {a.Index}}, AnchorFirst)
	sm.ToggleObjects(b.Handle, []int{b.Index})
	assert.Equal(t, 2, sm.NumMembers())
	assert.Equal(t, a, sm.Primary.Object) // original primary kept

	// removing the primary reassigns it
	sm.ToggleObjects(a.Handle, []int{a.Index})
	require.True(t, sm.HasPrimary)
	assert.Equal(t, b, sm.Primary.Object)

	// toggling the last member out empties the selection
	sm.ToggleObjects(b.Handle, []int{b.Index})
	assert.True(t, sm.IsEmpty())
	assert.False(t, sm.HasPrimary)
}

func TestSelectionToggleGroup(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	ga := gs.CreateGroup(nil, []stage.ObjectRef{a})
	gb := gs.CreateGroup(nil, []stage.ObjectRef{b})
	sm := NewSelectionModel(gs)

	sm.ToggleGroup(ga)
	sm.ToggleGroup(gb)
	assert.True(t, sm.HasGroup(ga))
	assert.True(t, sm.HasGroup(gb))
	assert.Equal(t, ga, sm.Primary.Group)

	sm.ToggleGroup(ga)
	assert.False(t, sm.HasGroup(ga))
	require.True(t, sm.HasPrimary)
	assert.Equal(t, gb, sm.Primary.Group)
}

func TestSoleGroupAndObject(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	id := gs.CreateGroup(nil, []stage.ObjectRef{a})
	sm := NewSelectionModel(gs)

	sm.Replace([]GroupID{id}, nil, AnchorFirst)
	require.NotNil(t, sm.SoleGroup())
	assert.Equal(t, id, sm.SoleGroup().ID)
	_, ok := sm.SoleObject()
	assert.False(t, ok)

	sm.Replace(nil, map[stage.Handle][]int{b.Handle: {b.Index}}, AnchorFirst)
	assert.Nil(t, sm.SoleGroup())
	ref, ok := sm.SoleObject()
	require.True(t, ok)
	assert.Equal(t, b, ref)

	sm.Replace([]GroupID{id}, map[stage.Handle][]int{b.Handle: {b.Index}}, AnchorFirst)
	assert.Nil(t, sm.SoleGroup())
	_, ok = sm.SoleObject()
	assert.False(t, ok)
}

func TestFlattenedItemsDedup(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	id := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	sm := NewSelectionModel(gs)

	// group already covers a: direct re-selection must not duplicate
	sm.Replace([]GroupID{id}, map[stage.Handle][]int{a.Handle: {a.Index}}, AnchorFirst)
	flat := sm.FlattenedItems()
	assert.Len(t, flat, 2)
	assert.Contains(t, flat, a)
	assert.Contains(t, flat, b)
}

func TestFlattenedItemsStableUnderChildReorder(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	id := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	sm := NewSelectionModel(gs)
	sm.Replace([]GroupID{id}, nil, AnchorFirst)

	before := sm.FlattenedItems()
	assert.ElementsMatch(t, []stage.ObjectRef{a, b}, before)

	// membership-preserving reorder of the underlying child list
	g := gs.Group(id)
	g.Children[0], g.Children[1] = g.Children[1], g.Children[0]
	sm.invalidate()
	assert.ElementsMatch(t, before, sm.FlattenedItems())
}

func TestFlattenedItemsMemoized(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	id := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	sm := NewSelectionModel(gs)
	sm.Replace([]GroupID{id}, nil, AnchorFirst)

	f1 := sm.FlattenedItems()
	f2 := sm.FlattenedItems()
	assert.Same(t, &f1[0], &f2[0]) // same backing array, no recompute

	sm.ToggleObjects(a.Handle, []int{a.Index})
	f3 := sm.FlattenedItems()
	assert.Len(t, f3, 2)
}

func TestDirectObjectsSorted(t *testing.T) {
	ms := stage.NewMem()
	h0 := ms.AddRenderable(*math32.Identity4())
	h1 := ms.AddRenderable(*math32.Identity4())
	for i := 0; i < 3; i++ {
		ms.AddInstance(h0, *math32.Identity4(), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
		ms.AddInstance(h1, *math32.Identity4(), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
	}
	gs := NewGroupStore()
	sm := NewSelectionModel(gs)
	sm.Replace(nil, map[stage.Handle][]int{h1: {2, 0}, h0: {1}}, AnchorFirst)

	want := []stage.ObjectRef{stage.Ref(h0, 1), stage.Ref(h1, 0), stage.Ref(h1, 2)}
	assert.Equal(t, want, sm.DirectObjects())
}
