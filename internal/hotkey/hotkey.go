/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package hotkey normalizes key-combination strings such as "Shift+Ctrl+G"
// and dispatches keyboard events to registered handlers.
//
// Grammar: modifier+modifier+key, modifiers from {ctrl, alt, shift, meta}.
// Normalized combos are lower-case with modifiers in the order
// ctrl, meta, alt, shift.
package hotkey

import (
	"slices"
	"strings"
	"sync"
)

var modifierOrder = []string{"ctrl", "meta", "alt", "shift"}

var specialKeys = map[string]string{
	"ArrowLeft":  "left",
	"ArrowRight": "right",
	"ArrowUp":    "up",
	"ArrowDown":  "down",
	" ":          "space",
	"Escape":     "escape",
	"Enter":      "enter",
}

func isModifier(s string) bool { return slices.Contains(modifierOrder, s) }

// Normalize returns the canonical form of combo. A combo without a key
// normalizes to its modifiers only.
func Normalize(combo string) string {
	var mods []string
	key := ""
	for _, part := range strings.Split(combo, "+") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if isModifier(p) {
			if !slices.Contains(mods, p) {
				mods = append(mods, p)
			}
			continue
		}
		key = p
	}
	slices.SortFunc(mods, func(a, b string) int {
		return slices.Index(modifierOrder, a) - slices.Index(modifierOrder, b)
	})
	if key == "" {
		return strings.Join(mods, "+")
	}
	return strings.Join(append(mods, key), "+")
}

// KeyEvent is the modifier state and key name reported by the host.
// Key uses DOM-style names ("ArrowLeft", "g", "Escape").
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Alt   bool
	Shift bool
}

func normalizeKey(key string) string {
	if k, ok := specialKeys[key]; ok {
		return k
	}
	return strings.ToLower(key)
}

// Combo converts an event to its normalized combo. Meta counts as ctrl so
// the same bindings work on macOS.
func (ev KeyEvent) Combo() string {
	var mods []string
	if ev.Ctrl || ev.Meta {
		mods = append(mods, "ctrl")
	}
	if ev.Alt {
		mods = append(mods, "alt")
	}
	if ev.Shift {
		mods = append(mods, "shift")
	}
	return Normalize(strings.Join(append(mods, normalizeKey(ev.Key)), "+"))
}

// Parse turns a combo string such as "ctrl+shift+g" into the key event that
// produces it. A combo without a key yields an event with an empty Key.
func Parse(combo string) KeyEvent {
	var ev KeyEvent
	for _, part := range strings.Split(Normalize(combo), "+") {
		switch part {
		case "ctrl":
			ev.Ctrl = true
		case "meta":
			ev.Meta = true
		case "alt":
			ev.Alt = true
		case "shift":
			ev.Shift = true
		default:
			ev.Key = part
		}
	}
	return ev
}

// Handler reacts to a matched key event. It returns true when the event was
// consumed so the host can suppress its default action.
type Handler func(ev KeyEvent) bool

// Dispatcher maps normalized combos to handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Register adds h for combo. Multiple handlers per combo run in registration order.
func (d *Dispatcher) Register(combo string, h Handler) {
	n := Normalize(combo)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[n] = append(d.handlers[n], h)
}

// Bound reports whether any handler is registered for combo.
func (d *Dispatcher) Bound(combo string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[Normalize(combo)]) > 0
}

// Dispatch runs every handler bound to the event's combo and reports whether
// any of them consumed it.
func (d *Dispatcher) Dispatch(ev KeyEvent) bool {
	d.mu.RLock()
	list := append([]Handler(nil), d.handlers[ev.Combo()]...)
	d.mu.RUnlock()
	consumed := false
	for _, h := range list {
		if h(ev) {
			consumed = true
		}
	}
	return consumed
}
