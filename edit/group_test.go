// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import (
	"testing"

	"cogentcore.org/core/math32"
	"cogentcore.org/xyzedit/stage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translation(x, y, z float32) math32.Matrix4 {
	m := *math32.Identity4()
	m[12], m[13], m[14] = x, y, z
	return m
}

// twoObjectScene returns a Mem with one renderable holding two unit
// block instances at x = 0 and x = 2.
func twoObjectScene() (*stage.Mem, stage.ObjectRef, stage.ObjectRef) {
	ms := stage.NewMem()
	h := ms.AddRenderable(*math32.Identity4())
	a := ms.AddInstance(h, *math32.Identity4(), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
	b := ms.AddInstance(h, translation(2, 0, 0), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
	return ms, a, b
}

func TestCreateGroup(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()

	id := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	g := gs.Group(id)
	require.NotNil(t, g)
	assert.True(t, g.Parent.IsNil())
	assert.Len(t, g.Children, 2)

	owner, ok := gs.GroupOf(a)
	require.True(t, ok)
	assert.Equal(t, id, owner)

	assert.Equal(t, []stage.ObjectRef{a, b}, gs.FlattenedObjects(id))
	assert.Equal(t, []GroupID{id}, gs.RootIDs())
}

func TestCreateGroupCommonParent(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	outer := gs.CreateGroup(nil, []stage.ObjectRef{a, b})

	// both members share outer as parent: new group nests under it
	inner := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	ig := gs.Group(inner)
	require.NotNil(t, ig)
	assert.Equal(t, outer, ig.Parent)

	og := gs.Group(outer)
	assert.Equal(t, []Child{GroupChild(inner)}, og.Children)
}

func TestCreateGroupAmbiguousParent(t *testing.T) {
	ms := stage.NewMem()
	h := ms.AddRenderable(*math32.Identity4())
	a := ms.AddInstance(h, *math32.Identity4(), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
	b := ms.AddInstance(h, translation(2, 0, 0), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
	c := ms.AddInstance(h, translation(4, 0, 0), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)

	gs := NewGroupStore()
	ga := gs.CreateGroup(nil, []stage.ObjectRef{a})
	gb := gs.CreateGroup(nil, []stage.ObjectRef{b})
	wrap := gs.CreateGroup([]GroupID{ga}, nil)

	// members come from disagreeing parents (wrap vs root): no silent
	// guess, the new group goes to root level
	mix := gs.CreateGroup([]GroupID{ga, gb}, []stage.ObjectRef{c})
	mg := gs.Group(mix)
	require.NotNil(t, mg)
	assert.True(t, mg.Parent.IsNil())
	assert.Equal(t, mix, gs.Group(ga).Parent)
	assert.Equal(t, mix, gs.Group(gb).Parent)
	assert.Empty(t, gs.Group(wrap).Children)
}

func TestUngroupRoundTrip(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	outer := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	inner := gs.CreateGroup(nil, []stage.ObjectRef{a, b})

	before := gs.FlattenedObjects(outer)
	gs.Ungroup(inner)

	assert.Nil(t, gs.Group(inner))
	assert.Equal(t, before, gs.FlattenedObjects(outer))
	for _, ref := range []stage.ObjectRef{a, b} {
		owner, ok := gs.GroupOf(ref)
		require.True(t, ok)
		assert.Equal(t, outer, owner)
	}
	// children spliced into the slot inner occupied
	og := gs.Group(outer)
	assert.Equal(t, []Child{ObjectChild(a), ObjectChild(b)}, og.Children)
}

func TestUngroupRootPromotesLoose(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	id := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	gs.Ungroup(id)

	_, ok := gs.GroupOf(a)
	assert.False(t, ok)
	_, ok = gs.GroupOf(b)
	assert.False(t, ok)
	assert.Empty(t, gs.RootIDs())
}

func TestUngroupSplicesChildGroups(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	ga := gs.CreateGroup(nil, []stage.ObjectRef{a})
	outer := gs.CreateGroup([]GroupID{ga}, []stage.ObjectRef{b})
	wrap := gs.CreateGroup([]GroupID{outer}, nil)

	gs.Ungroup(outer)
	assert.Equal(t, wrap, gs.Group(ga).Parent)
	owner, ok := gs.GroupOf(b)
	require.True(t, ok)
	assert.Equal(t, wrap, owner)
	wg := gs.Group(wrap)
	assert.Equal(t, []Child{GroupChild(ga), ObjectChild(b)}, wg.Children)
}

func TestCloneSubtree(t *testing.T) {
	ms, a, b := twoObjectScene()
	gs := NewGroupStore()
	ga := gs.CreateGroup(nil, []stage.ObjectRef{a})
	outer := gs.CreateGroup([]GroupID{ga}, []stage.ObjectRef{b})
	gs.Group(outer).Name = "room"
	gs.Group(outer).Pose.SetPos(1, 2, 3)

	remap := map[GroupID]GroupID{}
	clone := gs.CloneSubtree(outer, NilGroup, remap)
	require.False(t, clone.IsNil())
	assert.Equal(t, clone, remap[outer])
	assert.False(t, remap[ga].IsNil())
	assert.NotEqual(t, ga, remap[ga])

	cg := gs.Group(clone)
	require.NotNil(t, cg)
	assert.Equal(t, "room", cg.Name)
	assert.Equal(t, math32.Vec3(1, 2, 3), cg.Pose.Pos)
	assert.True(t, cg.Parent.IsNil())

	// mutation of the clone does not leak into the original
	cg.Pose.SetPos(9, 9, 9)
	assert.Equal(t, math32.Vec3(1, 2, 3), gs.Group(outer).Pose.Pos)

	// duplication collaborator swaps in cloned instances
	h2 := ms.AddRenderable(*math32.Identity4())
	nb := ms.AddInstance(h2, translation(2, 0, 0), math32.B3(0, 0, 0, 1, 1, 1), stage.Block)
	gs.BindClonedObject(clone, b, nb)
	owner, ok := gs.GroupOf(nb)
	require.True(t, ok)
	assert.Equal(t, clone, owner)
	owner, ok = gs.GroupOf(b)
	require.True(t, ok)
	assert.Equal(t, outer, owner)
	assert.Contains(t, gs.FlattenedObjects(clone), nb)
	assert.NotContains(t, gs.FlattenedObjects(clone), b)
}

func TestFlattenedObjectsSkipsDangling(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	ga := gs.CreateGroup(nil, []stage.ObjectRef{a})
	outer := gs.CreateGroup([]GroupID{ga}, []stage.ObjectRef{b})

	// simulate a dangling child link
	og := gs.Group(outer)
	og.Children = append(og.Children, GroupChild(GroupID(uuid.New())))
	assert.Equal(t, []stage.ObjectRef{a, b}, gs.FlattenedObjects(outer))
}

func TestAncestryChainAndRoot(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	ga := gs.CreateGroup(nil, []stage.ObjectRef{a})
	mid := gs.CreateGroup([]GroupID{ga}, []stage.ObjectRef{b})
	top := gs.CreateGroup([]GroupID{mid}, nil)

	assert.Equal(t, []GroupID{top, mid}, gs.AncestryChain(ga))
	assert.Equal(t, top, gs.RootOf(ga))
	assert.Equal(t, top, gs.RootOf(top))
	assert.Equal(t, []GroupID{mid, ga}, gs.DescendantGroups(top))
}

func TestLocalBBox(t *testing.T) {
	ms, a, b := twoObjectScene()
	gs := NewGroupStore()
	id := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	g := gs.Group(id)
	g.Pose.SetPos(5, 0, 0)

	// instances at [0..1] and [2..3] in world; group frame offset by -5
	bb := gs.LocalBBox(ms, id)
	require.False(t, bb.IsEmpty())
	assert.InDelta(t, -5, bb.Min.X, 1.0e-5)
	assert.InDelta(t, -2, bb.Max.X, 1.0e-5)
	assert.InDelta(t, 0, bb.Min.Y, 1.0e-5)
	assert.InDelta(t, 1, bb.Max.Y, 1.0e-5)
}

func TestRemoveObject(t *testing.T) {
	_, a, b := twoObjectScene()
	gs := NewGroupStore()
	id := gs.CreateGroup(nil, []stage.ObjectRef{a, b})
	gs.RemoveObject(a)

	_, ok := gs.GroupOf(a)
	assert.False(t, ok)
	assert.Equal(t, []stage.ObjectRef{b}, gs.FlattenedObjects(id))
}
