/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package arrange

import "widgetboard/internal/geom"

// MatchMode selects which dimensions are copied from the reference.
type MatchMode string

const (
	MatchWidth  MatchMode = "width"
	MatchHeight MatchMode = "height"
	MatchBoth   MatchMode = "both"
)

// SizeTarget is the bounding size an object should be scaled to. An axis
// whose Has flag is false is left alone.
type SizeTarget struct {
	Width, Height       float64
	HasWidth, HasHeight bool
}

// MatchSize uses rects[0] as the immutable reference and returns one target
// per remaining rect (len(rects)-1 entries, selection order). A zero-sized
// reference axis is skipped. ok is false when fewer than MinMatch rects are given.
func MatchSize(rects []geom.Rect, mode MatchMode) (targets []SizeTarget, ok bool) {
	if len(rects) < MinMatch {
		return nil, false
	}
	ref := rects[0]
	t := SizeTarget{Width: ref.Width, Height: ref.Height}
	t.HasWidth = (mode == MatchWidth || mode == MatchBoth) && ref.Width > 0
	t.HasHeight = (mode == MatchHeight || mode == MatchBoth) && ref.Height > 0

	targets = make([]SizeTarget, len(rects)-1)
	for i := range targets {
		targets[i] = t
	}
	return targets, true
}
