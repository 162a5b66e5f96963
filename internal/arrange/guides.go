/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package arrange

// Snapping helpers used while an object is dragged: grid snapping and smart
// guides against the other objects on the board.

import (
	"math"

	"widgetboard/internal/geom"
)

// SnapToGrid moves r so its top-left corner sits on the nearest grid line.
// A non-positive size disables snapping.
func SnapToGrid(r geom.Rect, size float64) geom.Rect {
	if size <= 0 {
		return r
	}
	r.Left = math.Round(r.Left/size) * size
	r.Top = math.Round(r.Top/size) * size
	return r
}

// GuideOptions controls which guide candidates are considered and the threshold.
type GuideOptions struct {
	// Threshold is the maximum content-space distance at which snapping
	// occurs. Defaults to 6.
	Threshold float64
	Edges     bool
	Centers   bool
}

// Anchor is a static reference rect. Higher Weight wins ties.
type Anchor struct {
	Rect   geom.Rect
	Weight float64
}

// Orientation of a guide line.
type Orientation string

const (
	GuideVertical   Orientation = "vertical"
	GuideHorizontal Orientation = "horizontal"
)

// Guide describes a visual guide produced by a snap. Kind is "edge" or
// "center". Position is the x (vertical) or y (horizontal) coordinate,
// rounded to 3 decimal places.
type Guide struct {
	Orientation Orientation
	Kind        string
	Position    float64
	From, To    geom.Point
}

type candidate struct {
	delta, dist float64
	guide       Guide
	found       bool
}

func (c *candidate) consider(delta, threshold, weight float64, g Guide) {
	dist := math.Abs(delta)
	if dist > threshold {
		return
	}
	score := dist / math.Max(1, weight)
	if !c.found || score < c.dist {
		c.dist = score
		c.delta = delta
		c.guide = g
		c.found = true
	}
}

// SmartGuides snaps moving against anchors independently in X and Y and
// returns the snapped rect plus the guides to draw.
func SmartGuides(moving geom.Rect, anchors []Anchor, opts GuideOptions) (geom.Rect, []Guide) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	var bx, by candidate

	for _, a := range anchors {
		ar := a.Rect
		if opts.Edges {
			bx.consider(moving.Left-ar.Left, opts.Threshold, a.Weight, vertical(ar.Left, moving, ar, "edge"))
			bx.consider(moving.Right()-ar.Right(), opts.Threshold, a.Weight, vertical(ar.Right(), moving, ar, "edge"))
			bx.consider(moving.Left-ar.Right(), opts.Threshold, a.Weight, vertical(ar.Right(), moving, ar, "edge"))
			bx.consider(moving.Right()-ar.Left, opts.Threshold, a.Weight, vertical(ar.Left, moving, ar, "edge"))

			by.consider(moving.Top-ar.Top, opts.Threshold, a.Weight, horizontal(ar.Top, moving, ar, "edge"))
			by.consider(moving.Bottom()-ar.Bottom(), opts.Threshold, a.Weight, horizontal(ar.Bottom(), moving, ar, "edge"))
			by.consider(moving.Top-ar.Bottom(), opts.Threshold, a.Weight, horizontal(ar.Bottom(), moving, ar, "edge"))
			by.consider(moving.Bottom()-ar.Top, opts.Threshold, a.Weight, horizontal(ar.Top, moving, ar, "edge"))
		}
		if opts.Centers {
			bx.consider(moving.CenterX()-ar.CenterX(), opts.Threshold, a.Weight, vertical(ar.CenterX(), moving, ar, "center"))
			by.consider(moving.CenterY()-ar.CenterY(), opts.Threshold, a.Weight, horizontal(ar.CenterY(), moving, ar, "center"))
		}
	}

	snapped := moving
	var guides []Guide
	if bx.found {
		snapped.Left = geom.Round(moving.Left-bx.delta, 3)
		guides = append(guides, bx.guide)
	}
	if by.found {
		snapped.Top = geom.Round(moving.Top-by.delta, 3)
		guides = append(guides, by.guide)
	}
	return snapped, guides
}

func vertical(x float64, a, b geom.Rect, kind string) Guide {
	x = geom.Round(x, 3)
	return Guide{
		Orientation: GuideVertical,
		Kind:        kind,
		Position:    x,
		From:        geom.Point{X: x, Y: math.Min(a.Top, b.Top)},
		To:          geom.Point{X: x, Y: math.Max(a.Bottom(), b.Bottom())},
	}
}

func horizontal(y float64, a, b geom.Rect, kind string) Guide {
	y = geom.Round(y, 3)
	return Guide{
		Orientation: GuideHorizontal,
		Kind:        kind,
		Position:    y,
		From:        geom.Point{X: math.Min(a.Left, b.Left), Y: y},
		To:          geom.Point{X: math.Max(a.Right(), b.Right()), Y: y},
	}
}
