/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import "widgetboard/internal/state"

// Grid commands only flip store flags; they work without a canvas.
func toggle(fn func(*state.Store)) func(Context) bool {
	return func(ctx Context) bool {
		if ctx.Store == nil {
			return false
		}
		fn(ctx.Store)
		if ctx.Canvas != nil {
			ctx.Canvas.RequestRender()
		}
		return true
	}
}

func gridFlag(get func(state.Grid) bool) func(Context) bool {
	return func(ctx Context) bool { return ctx.Store != nil && get(ctx.Store.Grid()) }
}

func gridCommands() []Command {
	return []Command{
		{
			ID: "grid:toggle", Section: state.SectionGrid, Label: "Toggle Grid", Hotkey: "ctrl+`",
			Run:    toggle((*state.Store).ToggleGrid),
			Active: gridFlag(func(g state.Grid) bool { return g.Show }),
		},
		{
			ID: "grid:snap", Section: state.SectionGrid, Label: "Snap to Grid", Hotkey: "ctrl+alt+`",
			Run:     toggle((*state.Store).ToggleSnap),
			Enabled: gridFlag(func(g state.Grid) bool { return g.Show }),
			Active:  gridFlag(func(g state.Grid) bool { return g.Snap }),
		},
		{
			ID: "grid:guides", Section: state.SectionGrid, Label: "Show Guides", Hotkey: "ctrl+;",
			Run:    toggle((*state.Store).ToggleGuides),
			Active: gridFlag(func(g state.Grid) bool { return g.Guides }),
		},
	}
}
