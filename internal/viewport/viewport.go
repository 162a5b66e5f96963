/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport computes zoom/pan transforms over an infinite canvas.
// All functions are pure and total: NaN or Inf inputs propagate to the output
// and callers must guard before displaying the result.
package viewport

import (
	"math"

	"widgetboard/internal/geom"
)

const (
	DefaultMinZoom = 0.25
	DefaultMaxZoom = 4
	// DefaultFitPadding is the screen padding kept around fitted content.
	DefaultFitPadding = 32
)

// Transform maps content space to screen space: screen = content*Zoom + Offset.
type Transform struct {
	Zoom    float64 `json:"zoom" yaml:"zoom"`
	OffsetX float64 `json:"offsetX" yaml:"offset_x"`
	OffsetY float64 `json:"offsetY" yaml:"offset_y"`
}

// Identity is the 1:1 view with no pan.
func Identity() Transform { return Transform{Zoom: 1} }

// Limits bounds the zoom factor. Zero fields fall back to the defaults.
type Limits struct {
	Min float64 `yaml:"min_zoom"`
	Max float64 `yaml:"max_zoom"`
}

// DefaultLimits returns the 0.25..4 zoom range.
func DefaultLimits() Limits { return Limits{Min: DefaultMinZoom, Max: DefaultMaxZoom} }

func (l Limits) resolved() (float64, float64) {
	lo, hi := l.Min, l.Max
	if lo == 0 {
		lo = DefaultMinZoom
	}
	if hi == 0 {
		hi = DefaultMaxZoom
	}
	return lo, hi
}

// Clamp clamps zoom into the limits.
func (l Limits) Clamp(zoom float64) float64 {
	lo, hi := l.resolved()
	return ClampZoom(zoom, lo, hi)
}

// ClampZoom clamps zoom to [min, max].
func ClampZoom(zoom, min, max float64) float64 {
	return math.Min(max, math.Max(min, zoom))
}

// ZoomToPoint returns the transform with zoom set to the clamped newZoom while
// the content under point (screen coordinates) stays under point.
func ZoomToPoint(current Transform, point geom.Point, newZoom float64) Transform {
	return ZoomToPointWithin(current, point, newZoom, DefaultLimits())
}

// ZoomToPointWithin is ZoomToPoint with caller supplied zoom limits.
func ZoomToPointWithin(current Transform, point geom.Point, newZoom float64, limits Limits) Transform {
	next := limits.Clamp(newZoom)
	cur := current.Zoom
	if cur == 0 {
		cur = 1
	}
	scale := next / cur
	return Transform{
		Zoom:    next,
		OffsetX: point.X - scale*(point.X-current.OffsetX),
		OffsetY: point.Y - scale*(point.Y-current.OffsetY),
	}
}

// FitRect computes the transform that fits content inside size shrunk by
// padding on every side, preserving aspect ratio, and centers it.
// Degenerate content and viewport dimensions are floored to 1.
func FitRect(content geom.Rect, size geom.Size, padding float64, limits Limits) Transform {
	w := math.Max(content.Width, 1)
	h := math.Max(content.Height, 1)

	availW := math.Max(size.Width-padding*2, 1)
	availH := math.Max(size.Height-padding*2, 1)

	zoom := limits.Clamp(math.Min(availW/w, availH/h))

	return Transform{
		Zoom:    zoom,
		OffsetX: (size.Width-content.Width*zoom)/2 - content.Left*zoom,
		OffsetY: (size.Height-content.Height*zoom)/2 - content.Top*zoom,
	}
}

// ToScreen maps a content point to screen space.
func (t Transform) ToScreen(p geom.Point) geom.Point {
	return geom.Point{X: p.X*t.Zoom + t.OffsetX, Y: p.Y*t.Zoom + t.OffsetY}
}

// ToContent maps a screen point back to content space. A zero zoom is treated as 1.
func (t Transform) ToContent(p geom.Point) geom.Point {
	z := t.Zoom
	if z == 0 {
		z = 1
	}
	return geom.Point{X: (p.X - t.OffsetX) / z, Y: (p.Y - t.OffsetY) / z}
}

// Matrix returns the affine form [a b c d e f] used by canvas hosts.
func (t Transform) Matrix() [6]float64 {
	return [6]float64{t.Zoom, 0, 0, t.Zoom, t.OffsetX, t.OffsetY}
}

// IsActualSize reports whether the view is at 1:1 within a small tolerance.
func (t Transform) IsActualSize() bool { return math.Abs(t.Zoom-1) < 0.01 }

// IsReset reports whether the view is at 1:1 with no visible pan.
func (t Transform) IsReset() bool {
	return t.IsActualSize() && math.Abs(t.OffsetX) < 1 && math.Abs(t.OffsetY) < 1
}
