// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import (
	"fmt"
	"sort"
	"strings"

	"cogentcore.org/xyzedit/stage"
)

// SelectedKinds is the kind tag of a [Primary] selection reference.
type SelectedKinds int32

const (
	// SelGroup means the primary selection member is a group.
	SelGroup SelectedKinds = iota

	// SelObject means the primary selection member is an object.
	SelObject
)

// Primary is a discriminated reference to the designated primary
// selection member: the first-selected (or designated) group or
// object, used as the reference frame for local-space display and
// as the rotation source.
type Primary struct {
	Kind   SelectedKinds
	Group  GroupID
	Object stage.ObjectRef
}

// AnchorModes is how a selection replacement asks the gizmo to be
// anchored.
type AnchorModes int32

const (
	// AnchorFirst anchors the gizmo per-item, from the first clicked
	// item (normal click semantics).
	AnchorFirst AnchorModes = iota

	// AnchorCenter requests center-anchored gizmo placement,
	// bypassing first-clicked-item semantics (marquee, select-all).
	AnchorCenter
)

// SelectionModel owns what is currently selected: a set of group ids,
// a mapping of renderable handle to selected instance indices, and the
// designated primary member. It depends on [GroupStore] (read-only)
// for resolving group membership when flattening.
type SelectionModel struct {

	// Store is the group hierarchy, for membership expansion.
	Store *GroupStore

	// Groups is the ordered list of selected group ids.
	Groups []GroupID

	// Objects maps each renderable handle to its set of selected
	// instance indices.
	Objects map[stage.Handle]map[int]bool

	// Primary is the designated primary member; only valid if
	// HasPrimary. Always refers to a current member.
	Primary Primary

	// HasPrimary indicates that Primary is set.
	HasPrimary bool

	// Anchor is the anchoring mode requested by the last replacement.
	Anchor AnchorModes

	flat    []stage.ObjectRef
	flatSig string
}

// NewSelectionModel returns a new empty selection on the given store.
func NewSelectionModel(store *GroupStore) *SelectionModel {
	return &SelectionModel{Store: store, Objects: make(map[stage.Handle]map[int]bool)}
}

// IsEmpty returns true if nothing is selected.
func (sm *SelectionModel) IsEmpty() bool {
	if len(sm.Groups) > 0 {
		return false
	}
	for _, idxs := range sm.Objects {
		if len(idxs) > 0 {
			return false
		}
	}
	return true
}

// HasGroup returns whether the given group id is selected.
func (sm *SelectionModel) HasGroup(id GroupID) bool {
	for _, g := range sm.Groups {
		if g == id {
			return true
		}
	}
	return false
}

// HasObject returns whether the given object is directly selected.
func (sm *SelectionModel) HasObject(ref stage.ObjectRef) bool {
	return sm.Objects[ref.Handle][ref.Index]
}

// NumMembers returns the number of direct selection members:
// selected groups plus directly selected objects (groups count as one
// member regardless of contents).
func (sm *SelectionModel) NumMembers() int {
	n := len(sm.Groups)
	for _, idxs := range sm.Objects {
		n += len(idxs)
	}
	return n
}

// SoleGroup returns the selected group if the selection is exactly one
// group and nothing else, nil otherwise.
func (sm *SelectionModel) SoleGroup() *Group {
	if len(sm.Groups) != 1 || sm.NumMembers() != 1 {
		return nil
	}
	return sm.Store.Group(sm.Groups[0])
}

// SoleObject returns the selected object if the selection is exactly
// one directly selected object and nothing else.
func (sm *SelectionModel) SoleObject() (stage.ObjectRef, bool) {
	if len(sm.Groups) != 0 || sm.NumMembers() != 1 {
		return stage.ObjectRef{}, false
	}
	for h, idxs := range sm.Objects {
		for i := range idxs {
			return stage.Ref(h, i), true
		}
	}
	return stage.ObjectRef{}, false
}

// Replace replaces the whole selection with the given groups and
// objects, with the given anchoring mode. The primary becomes the
// first group, or else the first object in sorted order.
func (sm *SelectionModel) Replace(groups []GroupID, objects map[stage.Handle][]int, anchor AnchorModes) {
	sm.Groups = nil
	sm.Objects = make(map[stage.Handle]map[int]bool)
	for _, id := range groups {
		if sm.Store.Group(id) == nil || sm.HasGroup(id) {
			continue
		}
		sm.Groups = append(sm.Groups, id)
	}
	for h, idxs := range objects {
		for _, i := range idxs {
			sm.addObject(stage.Ref(h, i))
		}
	}
	sm.Anchor = anchor
	sm.HasPrimary = false
	if len(sm.Groups) > 0 {
		sm.Primary = Primary{Kind: SelGroup, Group: sm.Groups[0]}
		sm.HasPrimary = true
	} else if refs := sm.DirectObjects(); len(refs) > 0 {
		sm.Primary = Primary{Kind: SelObject, Object: refs[0]}
		sm.HasPrimary = true
	}
	sm.invalidate()
}

// ToggleGroup toggles the given group in or out of the selection
// without touching the rest. The original primary is preserved unless
// it was the removed group.
func (sm *SelectionModel) ToggleGroup(id GroupID) {
	if sm.HasGroup(id) {
		for i, g := range sm.Groups {
			if g == id {
				sm.Groups = append(sm.Groups[:i], sm.Groups[i+1:]...)
				break
			}
		}
		if sm.HasPrimary && sm.Primary.Kind == SelGroup && sm.Primary.Group == id {
			sm.reassignPrimary()
		}
	} else {
		if sm.Store.Group(id) == nil {
			return
		}
		sm.Groups = append(sm.Groups, id)
		if !sm.HasPrimary {
			sm.Primary = Primary{Kind: SelGroup, Group: id}
			sm.HasPrimary = true
		}
	}
	sm.checkEmpty()
	sm.invalidate()
}

// ToggleObjects toggles the given instances of a renderable in or out
// of the selection without touching the rest. The original primary is
// preserved unless it was one of the removed objects.
func (sm *SelectionModel) ToggleObjects(h stage.Handle, indices []int) {
	for _, i := range indices {
		ref := stage.Ref(h, i)
		if sm.HasObject(ref) {
			delete(sm.Objects[h], i)
			if len(sm.Objects[h]) == 0 {
				delete(sm.Objects, h)
			}
			if sm.HasPrimary && sm.Primary.Kind == SelObject && sm.Primary.Object == ref {
				sm.reassignPrimary()
			}
		} else {
			sm.addObject(ref)
			if !sm.HasPrimary {
				sm.Primary = Primary{Kind: SelObject, Object: ref}
				sm.HasPrimary = true
			}
		}
	}
	sm.checkEmpty()
	sm.invalidate()
}

// Clear empties the selection, clearing the primary and invalidating
// all selection-derived caches.
func (sm *SelectionModel) Clear() {
	sm.Groups = nil
	sm.Objects = make(map[stage.Handle]map[int]bool)
	sm.HasPrimary = false
	sm.invalidate()
}

// DirectObjects returns the directly selected objects (not expanding
// groups), sorted by handle then index for determinism.
func (sm *SelectionModel) DirectObjects() []stage.ObjectRef {
	var refs []stage.ObjectRef
	for h, idxs := range sm.Objects {
		for i := range idxs {
			refs = append(refs, stage.Ref(h, i))
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Handle != refs[j].Handle {
			return refs[i].Handle < refs[j].Handle
		}
		return refs[i].Index < refs[j].Index
	})
	return refs
}

// FlattenedItems enumerates every concrete object reference covered by
// the selection, expanding group membership depth-first. The result is
// duplicate-free, and memoized by a signature built from the sorted
// group ids and sorted object refs; any selection mutation invalidates
// the memo.
func (sm *SelectionModel) FlattenedItems() []stage.ObjectRef {
	sig := sm.signature()
	if sig == sm.flatSig && sm.flat != nil {
		return sm.flat
	}
	seen := make(map[stage.ObjectRef]bool)
	var flat []stage.ObjectRef
	add := func(ref stage.ObjectRef) {
		if !seen[ref] {
			seen[ref] = true
			flat = append(flat, ref)
		}
	}
	for _, id := range sm.Groups {
		for _, ref := range sm.Store.FlattenedObjects(id) {
			add(ref)
		}
	}
	for _, ref := range sm.DirectObjects() {
		add(ref)
	}
	sm.flat = flat
	sm.flatSig = sig
	return flat
}

// signature builds the memoization key: sorted group ids plus sorted
// (handle, index) pairs.
func (sm *SelectionModel) signature() string {
	ids := make([]string, len(sm.Groups))
	for i, id := range sm.Groups {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte(';')
	}
	for _, ref := range sm.DirectObjects() {
		fmt.Fprintf(&b, "%d:%d;", ref.Handle, ref.Index)
	}
	return b.String()
}

func (sm *SelectionModel) addObject(ref stage.ObjectRef) {
	idxs := sm.Objects[ref.Handle]
	if idxs == nil {
		idxs = make(map[int]bool)
		sm.Objects[ref.Handle] = idxs
	}
	idxs[ref.Index] = true
}

// reassignPrimary picks a new primary after the old one was removed:
// the first remaining group, else the first remaining object.
func (sm *SelectionModel) reassignPrimary() {
	if len(sm.Groups) > 0 {
		sm.Primary = Primary{Kind: SelGroup, Group: sm.Groups[0]}
		sm.HasPrimary = true
		return
	}
	if refs := sm.DirectObjects(); len(refs) > 0 {
		sm.Primary = Primary{Kind: SelObject, Object: refs[0]}
		sm.HasPrimary = true
		return
	}
	sm.HasPrimary = false
}

func (sm *SelectionModel) checkEmpty() {
	if sm.IsEmpty() {
		sm.HasPrimary = false
	}
}

func (sm *SelectionModel) invalidate() {
	sm.flat = nil
	sm.flatSig = ""
}
