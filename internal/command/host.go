/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package command implements the editor operations (text styling, align,
// distribute, resize, grouping, grid and zoom) on top of a host canvas, plus
// the registry that maps stable ids and hotkeys to them.
//
// Commands never reach for global state: everything they touch arrives in a
// Context.
package command

import (
	"widgetboard/internal/geom"
	"widgetboard/internal/state"
	"widgetboard/internal/viewport"
)

// Object is a selectable scene object as seen by the geometry commands.
type Object interface {
	// BoundingRect is the axis-aligned box in content coordinates, including
	// the object's own scale.
	BoundingRect() geom.Rect
	Position() geom.Point
	SetPosition(geom.Point)
	// SetCoords recomputes cached control coordinates after a mutation.
	SetCoords()
}

// Scaler is implemented by objects that can be scaled so their bounding box
// reaches a given width or height. Each axis scales independently.
type Scaler interface {
	ScaleToWidth(w float64)
	ScaleToHeight(h float64)
}

// TextAlign values for TextStyle.Align.
const (
	TextAlignLeft   = "left"
	TextAlignCenter = "center"
	TextAlignRight  = "right"
)

type TextStyle struct {
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Align     string `json:"align,omitempty"`
}

// TextObject is implemented by objects carrying text.
type TextObject interface {
	Object
	TextStyle() TextStyle
	SetTextStyle(TextStyle)
}

// Lockable objects can be pinned against interactive move/scale/rotate.
type Lockable interface {
	Locked() bool
	SetLocked(bool)
}

// Canvas is the host scene the commands operate on.
type Canvas interface {
	// Selection returns the selected objects in selection order.
	Selection() []Object
	// Objects returns every visible top-level object.
	Objects() []Object
	Viewport() viewport.Transform
	SetViewport(viewport.Transform)
	// ViewportSize is the canvas element size in screen pixels.
	ViewportSize() geom.Size
	RequestRender()
	// CommitChange tells the host a change is complete (history bookkeeping).
	CommitChange(label string)
}

// Grouper is an optional Canvas capability.
type Grouper interface {
	// GroupSelection turns a multi-selection into one group and selects it.
	GroupSelection() bool
	// UngroupActive dissolves the selected group into a multi-selection.
	UngroupActive() bool
	ActiveIsGroup() bool
}

// Settings are the user-tunable editor parameters the commands read.
// Zero fields fall back to the defaults.
type Settings struct {
	Limits     viewport.Limits
	ZoomStep   float64
	FitPadding float64
}

const (
	DefaultZoomStep   = 1.2
	DefaultFitPadding = 40
)

func DefaultSettings() Settings {
	return Settings{Limits: viewport.DefaultLimits(), ZoomStep: DefaultZoomStep, FitPadding: DefaultFitPadding}
}

func (s Settings) zoomStep() float64 {
	if s.ZoomStep <= 1 {
		return DefaultZoomStep
	}
	return s.ZoomStep
}

func (s Settings) fitPadding() float64 {
	if s.FitPadding <= 0 {
		return DefaultFitPadding
	}
	return s.FitPadding
}

// Context is handed to every run and predicate. Canvas may be nil, in which
// case canvas commands report false. Store must be set.
type Context struct {
	Canvas   Canvas
	Store    *state.Store
	Settings Settings
}

func (ctx Context) selection() []Object {
	if ctx.Canvas == nil {
		return nil
	}
	return ctx.Canvas.Selection()
}

func (ctx Context) selectionCount() int { return len(ctx.selection()) }

// commit finishes a mutating command.
func (ctx Context) commit(label string) {
	ctx.Canvas.CommitChange(label)
	ctx.Canvas.RequestRender()
}
