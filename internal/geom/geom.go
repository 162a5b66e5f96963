/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom holds the plain 2D values shared by the viewport and
// arrangement engines. Content-space rectangles use left/top/width/height;
// float64 is used throughout so viewport math stays exact for typical sizes.
package geom

import "math"

// Point is a 2D coordinate. Screen or content space depends on the caller.
type Point struct{ X, Y float64 }

// Pt is a short constructor for Point.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// IsZero reports whether both components are exactly zero.
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Size is a width/height pair (e.g. a viewport in screen pixels).
type Size struct{ Width, Height float64 }

// Rect is an axis-aligned box in content coordinates.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

func R(left, top, width, height float64) Rect {
	return Rect{Left: left, Top: top, Width: width, Height: height}
}

func (r Rect) Right() float64   { return r.Left + r.Width }
func (r Rect) Bottom() float64  { return r.Top + r.Height }
func (r Rect) CenterX() float64 { return r.Left + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Top + r.Height/2 }
func (r Rect) Center() Point    { return Point{r.CenterX(), r.CenterY()} }
func (r Rect) Min() Point       { return Point{r.Left, r.Top} }
func (r Rect) Max() Point       { return Point{r.Right(), r.Bottom()} }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.Y >= r.Top && p.X <= r.Right() && p.Y <= r.Bottom()
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Width: r.Width - 2*dx, Height: r.Height - 2*dy}
}

// Translate moves the rectangle by d.
func (r Rect) Translate(d Point) Rect {
	r.Left += d.X
	r.Top += d.Y
	return r
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.Left, o.Left)
	minY := math.Min(r.Top, o.Top)
	maxX := math.Max(r.Right(), o.Right())
	maxY := math.Max(r.Bottom(), o.Bottom())
	return Rect{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}
}

// Bounds returns the union of all rects, or the zero rect when rects is empty.
func Bounds(rects ...Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	b := rects[0]
	for _, r := range rects[1:] {
		b = b.Union(r)
	}
	return b
}

// Round rounds v to n decimal places deterministically.
func Round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
