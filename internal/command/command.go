/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"errors"

	"widgetboard/internal/state"
)

// ErrUnknownCommand is returned for ids that are not registered.
var ErrUnknownCommand = errors.New("unknown command")

// Command is one registered operation. Run returns false when it was a no-op.
// Enabled and Active are optional and must not have side effects.
type Command struct {
	ID      string
	Section state.Section
	Label   string
	Hotkey  string
	Run     func(Context) bool
	Enabled func(Context) bool
	Active  func(Context) bool
}

// IsEnabled reports whether the command can run; commands without a
// predicate are always enabled.
func (c *Command) IsEnabled(ctx Context) bool {
	if c.Enabled == nil {
		return true
	}
	return c.Enabled(ctx)
}

// IsActive reports the toggle/indicator state shown in the sidebar.
func (c *Command) IsActive(ctx Context) bool {
	if c.Active == nil {
		return false
	}
	return c.Active(ctx)
}

// SectionInfo names a sidebar section.
type SectionInfo struct {
	ID    state.Section
	Title string
}

// Sections in sidebar order.
var sections = []SectionInfo{
	{ID: state.SectionText, Title: "Text Settings"},
	{ID: state.SectionAlign, Title: "Align"},
	{ID: state.SectionDistribute, Title: "Distribute"},
	{ID: state.SectionResize, Title: "Resize"},
	{ID: state.SectionGrouping, Title: "Grouping"},
	{ID: state.SectionGrid, Title: "Grid & Guides"},
	{ID: state.SectionZoom, Title: "Zoom"},
}

// Builtin returns fresh definitions of every editor command in sidebar order.
func Builtin() []Command {
	var all []Command
	all = append(all, textCommands()...)
	all = append(all, alignCommands()...)
	all = append(all, distributeCommands()...)
	all = append(all, resizeCommands()...)
	all = append(all, groupingCommands()...)
	all = append(all, gridCommands()...)
	all = append(all, zoomCommands()...)
	return all
}

func minSelection(n int) func(Context) bool {
	return func(ctx Context) bool { return ctx.selectionCount() >= n }
}
