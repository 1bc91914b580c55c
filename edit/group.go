// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import (
	"log/slog"

	"cogentcore.org/core/base/ordmap"
	"cogentcore.org/core/math32"
	"cogentcore.org/xyzedit/stage"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// GroupID is the opaque, unique, stable identifier of a group record.
type GroupID uuid.UUID

// NilGroup is the zero GroupID, meaning no group (e.g., a root parent).
var NilGroup GroupID

func (id GroupID) String() string {
	return uuid.UUID(id).String()
}

// IsNil returns true if this is the nil (no group) id.
func (id GroupID) IsNil() bool {
	return id == NilGroup
}

// ChildKinds is the kind tag of a [Child] entry in a group's
// children list.
type ChildKinds int32

const (
	// ChildGroup is a reference to a nested group.
	ChildGroup ChildKinds = iota

	// ChildObject is a reference to a placed object instance.
	ChildObject
)

// Child is one entry in a group's ordered children list: either a
// nested group or an object instance, per Kind.
type Child struct {
	Kind   ChildKinds
	Group  GroupID
	Object stage.ObjectRef
}

// GroupChild returns a Child entry referencing the given group.
func GroupChild(id GroupID) Child {
	return Child{Kind: ChildGroup, Group: id}
}

// ObjectChild returns a Child entry referencing the given object.
func ObjectChild(ref stage.ObjectRef) Child {
	return Child{Kind: ChildObject, Object: ref}
}

// Group is a named, ordered bundle of child groups and object
// instances, with its own transform and optional custom pivot.
type Group struct {

	// ID is the opaque stable id of this group.
	ID GroupID

	// Name is the user-visible name.
	Name string

	// Parent is the owning group, NilGroup for root-level groups.
	Parent GroupID

	// Children is the ordered list of child groups and objects.
	Children []Child

	// Pose is the transform of the group, in scene-root space.
	Pose Pose

	// Pivot is the custom pivot point in group-local space, if HasPivot.
	Pivot math32.Vector3

	// HasPivot indicates that Pivot was explicitly set by the user.
	HasPivot bool
}

// GroupStore owns the group hierarchy: an ordered id-keyed arena of
// group records, and a reverse index from object instances to their
// owning group. Children and parents are always addressed by id, never
// by direct reference, so records can be cloned and deleted without
// ownership cycles. All lookups on unknown ids return empty / neutral
// results, and malformed child entries are skipped silently: the tree
// is shared mutable state edited through several entry points.
type GroupStore struct {

	// Groups is the group arena, in order of creation.
	Groups ordmap.Map[GroupID, *Group]

	// ObjectGroup is the reverse index from object instance to its
	// owning group.
	ObjectGroup map[stage.ObjectRef]GroupID
}

// NewGroupStore returns a new empty group store.
func NewGroupStore() *GroupStore {
	gs := &GroupStore{ObjectGroup: make(map[stage.ObjectRef]GroupID)}
	gs.Groups.Init()
	return gs
}

// Group returns the group record for the given id, nil if unknown.
func (gs *GroupStore) Group(id GroupID) *Group {
	g, ok := gs.Groups.ValueByKeyTry(id)
	if !ok {
		return nil
	}
	return g
}

// GroupOf returns the id of the group owning the given object instance,
// and whether the object belongs to any group.
func (gs *GroupStore) GroupOf(ref stage.ObjectRef) (GroupID, bool) {
	id, ok := gs.ObjectGroup[ref]
	return id, ok
}

// RootIDs returns the ids of all root-level groups, in creation order.
func (gs *GroupStore) RootIDs() []GroupID {
	var ids []GroupID
	for _, kv := range gs.Groups.Order {
		if kv.Value.Parent.IsNil() {
			ids = append(ids, kv.Key)
		}
	}
	return ids
}

// parentOf returns the current parent id of a selected item:
// for groups the group's parent, for objects the owning group
// (NilGroup if loose). ok is false for unknown groups.
func (gs *GroupStore) parentOfGroup(id GroupID) (GroupID, bool) {
	g := gs.Group(id)
	if g == nil {
		return NilGroup, false
	}
	return g.Parent, true
}

// CreateGroup makes a new group wrapping the given groups and objects,
// detaching each from its previous parent and appending it to the new
// group's children in the given order. If all items share one common
// parent, the new group is inserted under it; if the roots disagree,
// the new group is root-level (no silent guess). Returns the new id.
func (gs *GroupStore) CreateGroup(groupIDs []GroupID, objects []stage.ObjectRef) GroupID {
	ng := &Group{ID: GroupID(uuid.New())}
	ng.Pose.Defaults()
	ng.Pose.UpdateMatrix()

	common := NilGroup
	haveCommon := false
	ambiguous := false
	note := func(parent GroupID) {
		if !haveCommon {
			common = parent
			haveCommon = true
		} else if common != parent {
			ambiguous = true
		}
	}
	for _, id := range groupIDs {
		if p, ok := gs.parentOfGroup(id); ok {
			note(p)
		}
	}
	for _, ref := range objects {
		p, _ := gs.GroupOf(ref) // loose objects note NilGroup
		note(p)
	}
	if ambiguous {
		common = NilGroup
	}

	for _, id := range groupIDs {
		g := gs.Group(id)
		if g == nil {
			continue
		}
		gs.detachChild(g.Parent, GroupChild(id))
		g.Parent = ng.ID
		ng.Children = append(ng.Children, GroupChild(id))
	}
	for _, ref := range objects {
		if owner, ok := gs.GroupOf(ref); ok {
			gs.detachChild(owner, ObjectChild(ref))
		}
		gs.ObjectGroup[ref] = ng.ID
		ng.Children = append(ng.Children, ObjectChild(ref))
	}

	gs.Groups.Add(ng.ID, ng)
	if !common.IsNil() {
		if cp := gs.Group(common); cp != nil {
			ng.Parent = common
			cp.Children = append(cp.Children, GroupChild(ng.ID))
		}
	}
	return ng.ID
}

// Ungroup dissolves the given group: every child is re-parented to the
// group's parent, splicing into the slot the group occupied in the
// parent's children list, or promoted to root level if there is no
// parent (object children then become loose). The record is deleted.
func (gs *GroupStore) Ungroup(id GroupID) {
	g := gs.Group(id)
	if g == nil {
		return
	}
	parent := gs.Group(g.Parent)
	for _, ch := range g.Children {
		switch ch.Kind {
		case ChildGroup:
			if cg := gs.Group(ch.Group); cg != nil {
				if parent != nil {
					cg.Parent = parent.ID
				} else {
					cg.Parent = NilGroup
				}
			}
		case ChildObject:
			if parent != nil {
				gs.ObjectGroup[ch.Object] = parent.ID
			} else {
				delete(gs.ObjectGroup, ch.Object)
			}
		}
	}
	if parent != nil {
		at := childIndex(parent.Children, GroupChild(id))
		if at < 0 {
			slog.Error("edit.GroupStore.Ungroup: group missing from parent children", "group", id.String())
			parent.Children = append(parent.Children, g.Children...)
		} else {
			nc := make([]Child, 0, len(parent.Children)-1+len(g.Children))
			nc = append(nc, parent.Children[:at]...)
			nc = append(nc, g.Children...)
			nc = append(nc, parent.Children[at+1:]...)
			parent.Children = nc
		}
	}
	gs.Groups.DeleteKey(id)
}

// CloneSubtree deep-copies the given group and all descendant groups,
// parenting the copy under newParent (NilGroup for root level). Object
// child entries are copied verbatim: cloning the instances themselves
// is the duplication collaborator's job, which consults the idRemap
// (old id to new id, filled in here) and then calls [GroupStore.RebindObject]
// to swap in the clones. Returns the new root id, NilGroup if unknown.
func (gs *GroupStore) CloneSubtree(id, newParent GroupID, idRemap map[GroupID]GroupID) GroupID {
	nid := gs.cloneSubtree(id, newParent, idRemap)
	if nid.IsNil() {
		return nid
	}
	if np := gs.Group(newParent); np != nil {
		np.Children = append(np.Children, GroupChild(nid))
	}
	return nid
}

func (gs *GroupStore) cloneSubtree(id, newParent GroupID, idRemap map[GroupID]GroupID) GroupID {
	g := gs.Group(id)
	if g == nil {
		return NilGroup
	}
	ng := &Group{}
	if err := copier.CopyWithOption(ng, g, copier.Option{DeepCopy: true}); err != nil {
		slog.Error("edit.GroupStore.CloneSubtree: copy failed", "err", err)
		return NilGroup
	}
	ng.ID = GroupID(uuid.New())
	ng.Parent = newParent
	if idRemap != nil {
		idRemap[id] = ng.ID
	}
	gs.Groups.Add(ng.ID, ng)
	for i, ch := range ng.Children {
		if ch.Kind != ChildGroup {
			continue
		}
		ng.Children[i].Group = gs.cloneSubtree(ch.Group, ng.ID, idRemap)
	}
	return ng.ID
}

// BindClonedObject replaces a verbatim object entry in a cloned group
// with the duplicated instance and registers its reverse-index entry.
// Called by the duplication collaborator for every object it clones,
// using the id remap from [GroupStore.CloneSubtree].
func (gs *GroupStore) BindClonedObject(clone GroupID, old, new stage.ObjectRef) {
	g := gs.Group(clone)
	if g == nil {
		return
	}
	if at := childIndex(g.Children, ObjectChild(old)); at >= 0 {
		g.Children[at].Object = new
		gs.ObjectGroup[new] = clone
	}
}

// RebindObject replaces an object reference in its owning group's
// children list with a new reference, updating the reverse index.
// Used by the duplication collaborator after cloning instances, and by
// the instance layer when batched storage compacts indices.
func (gs *GroupStore) RebindObject(old, new stage.ObjectRef) {
	id, ok := gs.GroupOf(old)
	if !ok {
		return
	}
	g := gs.Group(id)
	if g == nil {
		delete(gs.ObjectGroup, old)
		return
	}
	if at := childIndex(g.Children, ObjectChild(old)); at >= 0 {
		g.Children[at].Object = new
	}
	delete(gs.ObjectGroup, old)
	gs.ObjectGroup[new] = id
}

// RemoveObject detaches an object reference from its owning group, if
// any, removing the children entry and the reverse index entry.
func (gs *GroupStore) RemoveObject(ref stage.ObjectRef) {
	id, ok := gs.GroupOf(ref)
	if !ok {
		return
	}
	gs.detachChild(id, ObjectChild(ref))
	delete(gs.ObjectGroup, ref)
}

// FlattenedObjects lazily walks nested groups and returns the flat
// ordered list of contained object references, depth-first with group
// insertion order preserved, skipping dangling links.
func (gs *GroupStore) FlattenedObjects(id GroupID) []stage.ObjectRef {
	var refs []stage.ObjectRef
	gs.flattenInto(id, &refs, make(map[GroupID]bool))
	return refs
}

func (gs *GroupStore) flattenInto(id GroupID, refs *[]stage.ObjectRef, visited map[GroupID]bool) {
	if visited[id] { // tolerate corrupted links
		return
	}
	visited[id] = true
	g := gs.Group(id)
	if g == nil {
		return
	}
	for _, ch := range g.Children {
		switch ch.Kind {
		case ChildGroup:
			gs.flattenInto(ch.Group, refs, visited)
		case ChildObject:
			*refs = append(*refs, ch.Object)
		}
	}
}

// DescendantGroups returns the ids of all groups nested under the
// given group, depth-first, not including the group itself.
func (gs *GroupStore) DescendantGroups(id GroupID) []GroupID {
	var ids []GroupID
	g := gs.Group(id)
	if g == nil {
		return ids
	}
	for _, ch := range g.Children {
		if ch.Kind != ChildGroup || gs.Group(ch.Group) == nil {
			continue
		}
		ids = append(ids, ch.Group)
		ids = append(ids, gs.DescendantGroups(ch.Group)...)
	}
	return ids
}

// AncestryChain returns the chain of ancestor group ids of the given
// group, ordered from the root down to the immediate parent. Empty for
// root-level or unknown groups.
func (gs *GroupStore) AncestryChain(id GroupID) []GroupID {
	var chain []GroupID
	g := gs.Group(id)
	for g != nil && !g.Parent.IsNil() {
		pg := gs.Group(g.Parent)
		if pg == nil {
			break
		}
		chain = append([]GroupID{pg.ID}, chain...)
		g = pg
	}
	return chain
}

// RootOf returns the topmost ancestor of the given group, which is the
// group itself when root-level. NilGroup if unknown.
func (gs *GroupStore) RootOf(id GroupID) GroupID {
	if gs.Group(id) == nil {
		return NilGroup
	}
	if chain := gs.AncestryChain(id); len(chain) > 0 {
		return chain[0]
	}
	return id
}

// LocalBBox returns the bounding box of everything inside the given
// group, expressed in the group's own frame, so that it stays aligned
// with the group's rotation rather than being a world axis-aligned
// box. Empty box for unknown or empty groups.
func (gs *GroupStore) LocalBBox(src stage.Source, id GroupID) math32.Box3 {
	bb := math32.B3Empty()
	g := gs.Group(id)
	if g == nil {
		return bb
	}
	inv, err := g.Pose.Matrix.Inverse()
	if err != nil {
		inv = math32.Identity4()
	}
	for _, ref := range gs.FlattenedObjects(id) {
		world := src.WorldMatrix(ref.Handle)
		local := src.InstanceTransform(ref.Handle, ref.Index)
		var objWorld, toGroup math32.Matrix4
		objWorld.MulMatrices(&world, &local)
		toGroup.MulMatrices(inv, &objWorld)
		ob := src.LocalBoundingBox(ref.Handle, ref.Index)
		if ob.IsEmpty() {
			continue
		}
		bb.ExpandByBox(ob.MulMatrix4(&toGroup))
	}
	return bb
}

// childIndex returns the index of the given child entry in the list,
// matching by kind and target, or -1.
func childIndex(children []Child, ch Child) int {
	for i, c := range children {
		if c.Kind != ch.Kind {
			continue
		}
		if ch.Kind == ChildGroup && c.Group == ch.Group {
			return i
		}
		if ch.Kind == ChildObject && c.Object == ch.Object {
			return i
		}
	}
	return -1
}

// detachChild removes the given child entry from the given parent's
// children list, if both exist.
func (gs *GroupStore) detachChild(parent GroupID, ch Child) {
	pg := gs.Group(parent)
	if pg == nil {
		return
	}
	if at := childIndex(pg.Children, ch); at >= 0 {
		pg.Children = append(pg.Children[:at], pg.Children[at+1:]...)
	}
}
