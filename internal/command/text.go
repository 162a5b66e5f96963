/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import "widgetboard/internal/state"

func selectedTexts(ctx Context) []TextObject {
	var out []TextObject
	for _, o := range ctx.selection() {
		if t, ok := o.(TextObject); ok {
			out = append(out, t)
		}
	}
	return out
}

func applyToTexts(id string, fn func(*TextStyle)) func(Context) bool {
	return func(ctx Context) bool {
		texts := selectedTexts(ctx)
		if len(texts) == 0 {
			return false
		}
		for _, t := range texts {
			st := t.TextStyle()
			fn(&st)
			t.SetTextStyle(st)
			t.SetCoords()
		}
		ctx.commit(id)
		return true
	}
}

// everyText is false when no text is selected.
func everyText(pred func(TextStyle) bool) func(Context) bool {
	return func(ctx Context) bool {
		texts := selectedTexts(ctx)
		if len(texts) == 0 {
			return false
		}
		for _, t := range texts {
			if !pred(t.TextStyle()) {
				return false
			}
		}
		return true
	}
}

func hasText(ctx Context) bool { return len(selectedTexts(ctx)) > 0 }

func textCommands() []Command {
	mk := func(id, label, key string, fn func(*TextStyle), active func(TextStyle) bool) Command {
		return Command{ID: id, Section: state.SectionText, Label: label, Hotkey: key,
			Run: applyToTexts(id, fn), Enabled: hasText, Active: everyText(active)}
	}
	align := func(a string) (func(*TextStyle), func(TextStyle) bool) {
		return func(s *TextStyle) { s.Align = a }, func(s TextStyle) bool { return s.Align == a }
	}
	leftSet, leftIs := align(TextAlignLeft)
	centerSet, centerIs := align(TextAlignCenter)
	rightSet, rightIs := align(TextAlignRight)
	return []Command{
		// toggles flip each object on its own
		mk("text:bold", "Bold", "ctrl+b", func(s *TextStyle) { s.Bold = !s.Bold }, func(s TextStyle) bool { return s.Bold }),
		mk("text:italic", "Italic", "ctrl+i", func(s *TextStyle) { s.Italic = !s.Italic }, func(s TextStyle) bool { return s.Italic }),
		mk("text:underline", "Underline", "ctrl+u", func(s *TextStyle) { s.Underline = !s.Underline }, func(s TextStyle) bool { return s.Underline }),
		mk("text:align-left", "Align Left", "ctrl+shift+l", leftSet, leftIs),
		mk("text:align-center", "Align Center", "ctrl+shift+c", centerSet, centerIs),
		mk("text:align-right", "Align Right", "ctrl+shift+r", rightSet, rightIs),
	}
}
