/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package arrange computes positional deltas for aligning, distributing and
// size-matching a selection. Inputs are bounding rectangles snapshotted once
// in selection order, outputs are per-object values in the same order.
// The functions never touch host objects and are deterministic.
package arrange

import (
	"fmt"
	"math"

	"widgetboard/internal/geom"
)

// Minimum selection sizes per directive family.
const (
	MinAlign      = 2
	MinDistribute = 3
	MinMatch      = 2
)

// AlignMode selects the edge or center that all objects are aligned to.
type AlignMode string

const (
	AlignLeft   AlignMode = "left"
	AlignRight  AlignMode = "right"
	AlignCenter AlignMode = "center"
	AlignTop    AlignMode = "top"
	AlignBottom AlignMode = "bottom"
	AlignMiddle AlignMode = "middle"
)

// ParseAlignMode maps a mode name to an AlignMode.
func ParseAlignMode(s string) (AlignMode, error) {
	switch m := AlignMode(s); m {
	case AlignLeft, AlignRight, AlignCenter, AlignTop, AlignBottom, AlignMiddle:
		return m, nil
	}
	return "", fmt.Errorf("unknown align mode %q", s)
}

// Align returns the delta that moves each rect onto the requested edge or
// center of the selection's overall bounds. Only the axis of the mode changes.
// ok is false when fewer than MinAlign rects are given.
func Align(rects []geom.Rect, mode AlignMode) (deltas []geom.Point, ok bool) {
	if len(rects) < MinAlign {
		return nil, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, r := range rects {
		minX = math.Min(minX, r.Left)
		minY = math.Min(minY, r.Top)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}
	centerX := (minX + maxX) / 2
	centerY := (minY + maxY) / 2

	deltas = make([]geom.Point, len(rects))
	for i, r := range rects {
		var d geom.Point
		switch mode {
		case AlignLeft:
			d.X = minX - r.Left
		case AlignRight:
			d.X = maxX - r.Right()
		case AlignCenter:
			d.X = centerX - r.CenterX()
		case AlignTop:
			d.Y = minY - r.Top
		case AlignBottom:
			d.Y = maxY - r.Bottom()
		case AlignMiddle:
			d.Y = centerY - r.CenterY()
		}
		deltas[i] = d
	}
	return deltas, true
}
