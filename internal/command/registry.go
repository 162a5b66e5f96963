/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"widgetboard/internal/hotkey"
	applog "widgetboard/internal/log"
	"widgetboard/internal/state"
)

// Executed describes a successful command run; passed to observers.
type Executed struct {
	ID      string
	Section state.Section
}

// Registry maps command ids to commands. Registration order is kept for
// listings.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	entries   map[string]*Command
	observers []func(Executed)
	bound     map[*hotkey.Dispatcher]bool
	log       *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Command),
		bound:   make(map[*hotkey.Dispatcher]bool),
		log:     applog.WithComponent("command"),
	}
}

// New returns a registry holding the builtin editor commands.
func New() *Registry {
	r := NewRegistry()
	for _, c := range Builtin() {
		if err := r.Register(c); err != nil {
			// builtin ids are unique
			panic(err)
		}
	}
	return r
}

// Register adds c. Ids must be unique and Run must be set.
func (r *Registry) Register(c Command) error {
	if c.ID == "" || c.Run == nil {
		return fmt.Errorf("register command %q: id and run are required", c.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[c.ID]; dup {
		return fmt.Errorf("register command %q: duplicate id", c.ID)
	}
	cmd := c
	r.entries[c.ID] = &cmd
	r.order = append(r.order, c.ID)
	return nil
}

// Get returns the command registered under id.
func (r *Registry) Get(id string) (*Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	return c, nil
}

// MustGet is Get for ids known at compile time; it panics on unknown ids.
func (r *Registry) MustGet(id string) *Command {
	c, err := r.Get(id)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns every command in registration order.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// BySection returns the commands of one section in registration order.
func (r *Registry) BySection(section state.Section) []*Command {
	var out []*Command
	for _, c := range r.All() {
		if c.Section == section {
			out = append(out, c)
		}
	}
	return out
}

// Sections lists the sidebar sections in display order.
func (r *Registry) Sections() []SectionInfo { return slices.Clone(sections) }

// OnExecute registers fn to be called after every successful Execute.
func (r *Registry) OnExecute(fn func(Executed)) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Execute runs id if it is enabled. It reports whether the command changed
// anything; unknown ids are the only error. On success the command is
// recorded as the last one of its section.
func (r *Registry) Execute(ctx Context, id string) (bool, error) {
	c, err := r.Get(id)
	if err != nil {
		return false, err
	}
	l := applog.WithCommand(applog.WithOperation(r.log, "execute"), c.ID, string(c.Section))
	if !c.IsEnabled(ctx) {
		l.Debug("command disabled")
		return false, nil
	}
	if !c.Run(ctx) {
		l.Debug("command was a no-op")
		return false, nil
	}
	if ctx.Store != nil {
		ctx.Store.SetLastCommand(c.Section, c.ID)
	}
	l.Debug("command executed")

	r.mu.RLock()
	obs := slices.Clone(r.observers)
	r.mu.RUnlock()
	for _, fn := range obs {
		fn(Executed{ID: c.ID, Section: c.Section})
	}
	return true, nil
}

// BindHotkeys registers every command hotkey on d. ctxFn supplies a fresh
// context per key press. Binding the same dispatcher twice is a no-op; the
// number of newly bound hotkeys is returned.
func (r *Registry) BindHotkeys(d *hotkey.Dispatcher, ctxFn func() Context) int {
	r.mu.Lock()
	if r.bound[d] {
		r.mu.Unlock()
		return 0
	}
	r.bound[d] = true
	r.mu.Unlock()

	n := 0
	for _, c := range r.All() {
		if c.Hotkey == "" {
			continue
		}
		id := c.ID
		d.Register(c.Hotkey, func(hotkey.KeyEvent) bool {
			ok, err := r.Execute(ctxFn(), id)
			if err != nil {
				r.log.Error("hotkey command failed", slog.String("cmd", id), slog.Any("err", err))
			}
			return ok
		})
		n++
	}
	return n
}

// Hotkeys returns the normalized combo of every command that has one.
func (r *Registry) Hotkeys() map[string]string {
	out := make(map[string]string)
	for _, c := range r.All() {
		if c.Hotkey != "" {
			out[hotkey.Normalize(c.Hotkey)] = c.ID
		}
	}
	return out
}
