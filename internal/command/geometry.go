/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"widgetboard/internal/arrange"
	"widgetboard/internal/geom"
	"widgetboard/internal/state"
)

// snapshot captures every bounding rect before anything moves.
func snapshot(objs []Object) []geom.Rect {
	rects := make([]geom.Rect, len(objs))
	for i, o := range objs {
		rects[i] = o.BoundingRect()
	}
	return rects
}

func applyDeltas(objs []Object, deltas []geom.Point) {
	for i, o := range objs {
		if d := deltas[i]; !d.IsZero() {
			o.SetPosition(o.Position().Add(d))
		}
		o.SetCoords()
	}
}

func alignRun(id string, mode arrange.AlignMode) func(Context) bool {
	return func(ctx Context) bool {
		objs := ctx.selection()
		deltas, ok := arrange.Align(snapshot(objs), mode)
		if !ok {
			return false
		}
		applyDeltas(objs, deltas)
		ctx.commit(id)
		return true
	}
}

func distributeRun(id string, axis arrange.Axis, strategy arrange.Strategy) func(Context) bool {
	return func(ctx Context) bool {
		objs := ctx.selection()
		deltas, ok := arrange.Distribute(snapshot(objs), axis, strategy)
		if !ok {
			return false
		}
		applyDeltas(objs, deltas)
		ctx.commit(id)
		return true
	}
}

// resizeRun scales every object after the first to the first one's size.
// Objects that cannot scale are left as they are.
func resizeRun(id string, mode arrange.MatchMode) func(Context) bool {
	return func(ctx Context) bool {
		objs := ctx.selection()
		targets, ok := arrange.MatchSize(snapshot(objs), mode)
		if !ok {
			return false
		}
		for i, t := range targets {
			o := objs[i+1]
			if s, ok := o.(Scaler); ok {
				if t.HasWidth {
					s.ScaleToWidth(t.Width)
				}
				if t.HasHeight {
					s.ScaleToHeight(t.Height)
				}
			}
			o.SetCoords()
		}
		ctx.commit(id)
		return true
	}
}

func alignCommands() []Command {
	enabled := minSelection(arrange.MinAlign)
	mk := func(id, label, key string, mode arrange.AlignMode) Command {
		return Command{ID: id, Section: state.SectionAlign, Label: label, Hotkey: key, Run: alignRun(id, mode), Enabled: enabled}
	}
	return []Command{
		mk("align:left", "Align Left", "alt+left", arrange.AlignLeft),
		mk("align:center", "Align Center", "alt+c", arrange.AlignCenter),
		mk("align:right", "Align Right", "alt+right", arrange.AlignRight),
		mk("align:top", "Align Top", "alt+up", arrange.AlignTop),
		mk("align:middle", "Align Middle", "alt+m", arrange.AlignMiddle),
		mk("align:bottom", "Align Bottom", "alt+down", arrange.AlignBottom),
	}
}

func distributeCommands() []Command {
	enabled := minSelection(arrange.MinDistribute)
	mk := func(id, label, key string, axis arrange.Axis, s arrange.Strategy) Command {
		return Command{ID: id, Section: state.SectionDistribute, Label: label, Hotkey: key, Run: distributeRun(id, axis, s), Enabled: enabled}
	}
	return []Command{
		mk("distribute:horizontal", "Distribute Centers (H)", "alt+shift+h", arrange.Horizontal, arrange.SpreadCenters),
		mk("distribute:vertical", "Distribute Centers (V)", "alt+shift+v", arrange.Vertical, arrange.SpreadCenters),
		mk("distribute:space-horizontal", "Equal Gaps (H)", "alt+h", arrange.Horizontal, arrange.EqualGaps),
		mk("distribute:space-vertical", "Equal Gaps (V)", "alt+v", arrange.Vertical, arrange.EqualGaps),
	}
}

func resizeCommands() []Command {
	enabled := minSelection(arrange.MinMatch)
	mk := func(id, label, key string, mode arrange.MatchMode) Command {
		return Command{ID: id, Section: state.SectionResize, Label: label, Hotkey: key, Run: resizeRun(id, mode), Enabled: enabled}
	}
	return []Command{
		mk("resize:match-width", "Match Width", "ctrl+shift+w", arrange.MatchWidth),
		mk("resize:match-height", "Match Height", "ctrl+shift+h", arrange.MatchHeight),
		mk("resize:match-both", "Match Size", "ctrl+shift+b", arrange.MatchBoth),
	}
}
