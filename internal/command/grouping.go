/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import "widgetboard/internal/state"

func grouper(ctx Context) (Grouper, bool) {
	if ctx.Canvas == nil {
		return nil, false
	}
	g, ok := ctx.Canvas.(Grouper)
	return g, ok
}

func setLocked(id string, locked bool) func(Context) bool {
	return func(ctx Context) bool {
		changed := false
		for _, o := range ctx.selection() {
			if l, ok := o.(Lockable); ok {
				l.SetLocked(locked)
				changed = true
			}
		}
		if !changed {
			return false
		}
		ctx.commit(id)
		return true
	}
}

func allLocked(ctx Context) bool {
	n := 0
	for _, o := range ctx.selection() {
		if l, ok := o.(Lockable); ok {
			if !l.Locked() {
				return false
			}
			n++
		}
	}
	return n > 0
}

func groupingCommands() []Command {
	return []Command{
		{
			ID: "grouping:group", Section: state.SectionGrouping, Label: "Group", Hotkey: "ctrl+g",
			Run: func(ctx Context) bool {
				g, ok := grouper(ctx)
				if !ok || ctx.selectionCount() < 2 || !g.GroupSelection() {
					return false
				}
				ctx.commit("grouping:group")
				return true
			},
			Enabled: minSelection(2),
		},
		{
			ID: "grouping:ungroup", Section: state.SectionGrouping, Label: "Ungroup", Hotkey: "ctrl+shift+g",
			Run: func(ctx Context) bool {
				g, ok := grouper(ctx)
				if !ok || !g.ActiveIsGroup() || !g.UngroupActive() {
					return false
				}
				ctx.commit("grouping:ungroup")
				return true
			},
			Enabled: func(ctx Context) bool {
				g, ok := grouper(ctx)
				return ok && g.ActiveIsGroup()
			},
		},
		{
			ID: "grouping:lock", Section: state.SectionGrouping, Label: "Lock", Hotkey: "ctrl+alt+l",
			Run: setLocked("grouping:lock", true), Enabled: minSelection(1), Active: allLocked,
		},
		{
			ID: "grouping:unlock", Section: state.SectionGrouping, Label: "Unlock", Hotkey: "ctrl+alt+shift+l",
			Run: setLocked("grouping:unlock", false), Enabled: minSelection(1),
		},
	}
}
