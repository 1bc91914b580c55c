// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package edit implements the interactive selection and transform core of
a 3D scene editor for hierarchical arrangements of display entities
(block-shaped and item-shaped renderables, managed by an external
instance layer behind the [stage.Source] interface).

The pieces fit together as follows, leaves first:

  - [GroupStore] owns the group hierarchy: group records in an id-keyed
    arena, parent / child links, and a reverse index from placed object
    instances to their owning group.
  - [SelectionModel] owns what is currently selected: group ids, object
    instances, and the designated primary member.
  - [PivotResolver] is pure computation: the world-space anchor point
    the manipulation widget should occupy for the current selection and
    pivot mode.
  - [GizmoController] is the drag state machine: it turns widget
    manipulation into per-instance transform deltas, and tracks
    pivot-edit mode, anchor-locked scaling, and the ephemeral-pivot
    undo record.
  - [VertexSnapEngine] is the two-point vertex / pivot snap operation
    layered on the same primitives.
  - [Session] ties everything to one explicit context object and
    exposes the pointer and keyboard command surface.

Everything runs single-threaded in synchronous event handlers; there is
no locking and no suspension point inside any operation. Lookups on
missing references return empty / neutral values rather than erroring,
because the hierarchy is edited through several entry points within the
same frame.
*/
package edit
