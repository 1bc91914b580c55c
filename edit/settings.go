// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import (
	"image/color"

	"cogentcore.org/core/base/iox/tomlx"
	"cogentcore.org/core/colors"
	"cogentcore.org/core/events/key"
)

// WidgetParams are display parameters for the manipulation widget and
// the selection box.
type WidgetParams struct {

	// color for the selection box
	BoxColor color.RGBA

	// width of the selection box lines, scaled by view distance
	BoxWidth float32 `default:"0.001"`

	// radius of the widget handle spheres, scaled by view distance
	HandleRadius float32 `default:"0.005"`

	// length of the widget axis arms in scene units
	AxisLength float32 `default:"1"`
}

func (wp *WidgetParams) Defaults() {
	wp.BoxColor = colors.Yellow
	wp.BoxWidth = .001
	wp.HandleRadius = .005
	wp.AxisLength = 1
}

// Settings are the editor settings: widget display parameters,
// interaction thresholds, and the key bindings. Saved and opened as
// TOML.
type Settings struct {

	// display parameters for widget and selection box
	Widget WidgetParams

	// pointer movement in pixels distinguishing a click from a drag
	ClickThreshold float32 `default:"4"`

	// anchor-locked scaling: one edge of the pre-drag box stays fixed
	AnchorLockScale bool

	// key bindings; zero value means [DefaultKeyMap]
	KeyMap KeyMap
}

func (se *Settings) Defaults() {
	se.Widget.Defaults()
	se.ClickThreshold = 4
	se.AnchorLockScale = false
	se.KeyMap = DefaultKeyMap()
}

// Open reads the settings from the given TOML file.
func (se *Settings) Open(filename string) error {
	return tomlx.Open(se, filename)
}

// Save writes the settings to the given TOML file.
func (se *Settings) Save(filename string) error {
	return tomlx.Save(se, filename)
}

// Actions are the editor keyboard commands.
type Actions int32

const (
	// NoAction is the zero action for unbound chords.
	NoAction Actions = iota

	// ModeTranslate switches the widget to translate mode.
	ModeTranslate

	// ModeRotate switches the widget to rotate mode.
	ModeRotate

	// ModeScale switches the widget to scale mode.
	ModeScale

	// ToggleSpace toggles between world and local widget space.
	ToggleSpace

	// TogglePivotMode toggles between origin and center pivot modes.
	TogglePivotMode

	// TogglePivotEdit enters or leaves pivot-edit mode.
	TogglePivotEdit

	// ToggleAnchorLock toggles anchor-locked scaling.
	ToggleAnchorLock

	// ResetPivot clears custom pivots on the selection.
	ResetPivot

	// ClearShear re-orthogonalizes the selected members' transforms.
	ClearShear

	// GroupSelection creates a group from the current selection.
	GroupSelection

	// UngroupSelection dissolves the selected group.
	UngroupSelection

	// SelectAll selects everything, group-aware.
	SelectAll

	// SelectAllObjects selects every object, ignoring groups.
	SelectAllObjects

	// Deselect clears the selection.
	Deselect

	// CancelAction aborts the current drag, marquee, or pending snap.
	CancelAction

	// ActionsN is the number of actions.
	ActionsN
)

// KeyMap maps a key chord to an editor action. Each chord has one
// action; multiple chords can trigger the same action.
type KeyMap map[key.Chord]Actions

// DefaultKeyMap returns the standard key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		"T":               ModeTranslate,
		"R":               ModeRotate,
		"S":               ModeScale,
		"X":               ToggleSpace,
		"P":               TogglePivotMode,
		"Shift+P":         TogglePivotEdit,
		"Alt+S":           ToggleAnchorLock,
		"Alt+P":           ResetPivot,
		"Alt+R":           ClearShear,
		"Control+G":       GroupSelection,
		"Shift+Control+G": UngroupSelection,
		"Control+A":       SelectAll,
		"Shift+Control+A": SelectAllObjects,
		"Escape":          CancelAction,
	}
}

// ActionFor returns the action bound to the given chord, or NoAction.
func (km KeyMap) ActionFor(ch key.Chord) Actions {
	return km[ch]
}
