/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package arrange

import (
	"sort"

	"widgetboard/internal/geom"
)

// Axis is the direction along which objects are distributed.
type Axis string

const (
	Horizontal Axis = "horizontal"
	Vertical   Axis = "vertical"
)

// Strategy selects how interior objects are spread between the outer two.
type Strategy string

const (
	// SpreadCenters places centers at equal steps.
	SpreadCenters Strategy = "center"
	// EqualGaps makes the empty space between neighbours equal.
	EqualGaps Strategy = "space"
)

// span projects a rect onto one axis.
type span struct{ lead, size float64 }

func (s span) trail() float64  { return s.lead + s.size }
func (s span) center() float64 { return s.lead + s.size/2 }

func project(r geom.Rect, axis Axis) span {
	if axis == Vertical {
		return span{lead: r.Top, size: r.Height}
	}
	return span{lead: r.Left, size: r.Width}
}

func along(axis Axis, v float64) geom.Point {
	if axis == Vertical {
		return geom.Point{Y: v}
	}
	return geom.Point{X: v}
}

// Distribute returns per-rect deltas (in input order) spreading the selection
// along axis. Rects are ordered by leading edge with ties kept in selection
// order; the first and last in that order never move.
// ok is false when fewer than MinDistribute rects are given.
func Distribute(rects []geom.Rect, axis Axis, strategy Strategy) (deltas []geom.Point, ok bool) {
	n := len(rects)
	if n < MinDistribute {
		return nil, false
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return project(rects[order[a]], axis).lead < project(rects[order[b]], axis).lead
	})

	first := project(rects[order[0]], axis)
	last := project(rects[order[n-1]], axis)
	deltas = make([]geom.Point, n)

	switch strategy {
	case EqualGaps:
		total := 0.0
		for _, r := range rects {
			total += project(r, axis).size
		}
		gap := (last.trail() - first.lead - total) / float64(n-1)
		cursor := first.trail() + gap
		for _, idx := range order[1 : n-1] {
			s := project(rects[idx], axis)
			deltas[idx] = along(axis, cursor-s.lead)
			cursor += s.size + gap
		}
	default:
		step := (last.center() - first.center()) / float64(n-1)
		for pos, idx := range order {
			if pos == 0 || pos == n-1 {
				continue
			}
			target := first.center() + step*float64(pos)
			deltas[idx] = along(axis, target-project(rects[idx], axis).center())
		}
	}
	return deltas, true
}
