/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package state is the editor's UI-state store: the current viewport
// transform, viewport size, selection summary, grid flags and the operations
// sidebar state (open sections, last command per section).
//
// Only the operations state outlives a session; it is written through a
// Persister on every change.
package state

import (
	"log/slog"
	"slices"
	"sync"

	applog "widgetboard/internal/log"
	"widgetboard/internal/viewport"
)

// Section identifies a command group in the operations sidebar.
type Section string

const (
	SectionText       Section = "text"
	SectionAlign      Section = "align"
	SectionDistribute Section = "distribute"
	SectionResize     Section = "resize"
	SectionGrouping   Section = "grouping"
	SectionGrid       Section = "grid"
	SectionZoom       Section = "zoom"
)

// DefaultSections lists all sections in sidebar order.
var DefaultSections = []Section{SectionText, SectionAlign, SectionDistribute, SectionResize, SectionGrouping, SectionGrid, SectionZoom}

// Operations is the persisted sidebar state.
type Operations struct {
	OpenSections []Section          `json:"openSections"`
	LastCommand  map[Section]string `json:"lastCommand"`
}

// DefaultOperations has every section open and no history.
func DefaultOperations() Operations {
	return Operations{OpenSections: slices.Clone(DefaultSections), LastCommand: map[Section]string{}}
}

func (o Operations) clone() Operations {
	c := Operations{OpenSections: slices.Clone(o.OpenSections), LastCommand: make(map[Section]string, len(o.LastCommand))}
	for k, v := range o.LastCommand {
		c.LastCommand[k] = v
	}
	return c
}

// Grid holds the grid and guide toggles.
type Grid struct {
	Show   bool    `json:"show"`
	Snap   bool    `json:"snap"`
	Guides bool    `json:"guides"`
	Size   float64 `json:"size"`
}

// DefaultGridSize is the grid pitch in content units.
const DefaultGridSize = 20

// Selection summarizes the host selection for UI reflection.
type Selection struct {
	Count       int
	HasText     bool
	HasMultiple bool
	ActiveType  string
}

// Size is the on-screen viewport size; zero means "unknown, ask the canvas".
type Size struct{ Width, Height float64 }

// Persister saves and restores the operations state.
type Persister interface {
	LoadOperations() (Operations, error)
	SaveOperations(Operations) error
}

// Store is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	view      viewport.Transform
	size      Size
	selection Selection
	ops       Operations
	grid      Grid
	persist   Persister
	log       *slog.Logger
}

// New creates a store. p may be nil; when set, operations state is loaded
// from it and falls back to defaults on error.
func New(p Persister) *Store {
	s := &Store{
		view:    viewport.Identity(),
		ops:     DefaultOperations(),
		grid:    Grid{Size: DefaultGridSize},
		persist: p,
		log:     applog.WithComponent("state"),
	}
	if p != nil {
		if ops, err := p.LoadOperations(); err != nil {
			s.log.Warn("load operations state failed, using defaults", slog.Any("err", err))
		} else {
			if ops.OpenSections == nil {
				ops.OpenSections = slices.Clone(DefaultSections)
			}
			if ops.LastCommand == nil {
				ops.LastCommand = map[Section]string{}
			}
			s.ops = ops
		}
	}
	return s
}

func (s *Store) View() viewport.Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView updates only the given fields of the view.
func (s *Store) SetView(zoom, offsetX, offsetY *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if zoom != nil {
		s.view.Zoom = *zoom
	}
	if offsetX != nil {
		s.view.OffsetX = *offsetX
	}
	if offsetY != nil {
		s.view.OffsetY = *offsetY
	}
}

// SetViewportTransform replaces the view.
func (s *Store) SetViewportTransform(t viewport.Transform) {
	s.mu.Lock()
	s.view = t
	s.mu.Unlock()
}

func (s *Store) ViewportSize() Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

func (s *Store) SetViewportSize(width, height float64) {
	s.mu.Lock()
	s.size = Size{Width: width, Height: height}
	s.mu.Unlock()
}

func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// SetSelection records a summary of the current selection. types holds the
// element kind of each selected object in selection order.
func (s *Store) SetSelection(types []string, isText func(string) bool) {
	sel := Selection{Count: len(types), HasMultiple: len(types) > 1}
	if len(types) > 0 {
		sel.ActiveType = types[0]
	}
	if isText != nil {
		sel.HasText = slices.ContainsFunc(types, isText)
	}
	s.mu.Lock()
	s.selection = sel
	s.mu.Unlock()
}

// Operations returns a copy of the sidebar state.
func (s *Store) Operations() Operations {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ops.clone()
}

// IsSectionOpen reports whether id is expanded in the sidebar.
func (s *Store) IsSectionOpen(id Section) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.ops.OpenSections, id)
}

func (s *Store) SetSectionOpen(id Section, open bool) {
	s.mu.Lock()
	idx := slices.Index(s.ops.OpenSections, id)
	switch {
	case open && idx < 0:
		s.ops.OpenSections = append(s.ops.OpenSections, id)
	case !open && idx >= 0:
		s.ops.OpenSections = slices.Delete(s.ops.OpenSections, idx, idx+1)
	}
	snapshot := s.ops.clone()
	s.mu.Unlock()
	s.save(snapshot)
}

func (s *Store) ToggleSection(id Section) { s.SetSectionOpen(id, !s.IsSectionOpen(id)) }

// LastCommand returns the most recent command run from section.
func (s *Store) LastCommand(section Section) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ops.LastCommand[section]
	return id, ok
}

func (s *Store) SetLastCommand(section Section, id string) {
	s.mu.Lock()
	s.ops.LastCommand[section] = id
	snapshot := s.ops.clone()
	s.mu.Unlock()
	s.save(snapshot)
}

func (s *Store) save(ops Operations) {
	if s.persist == nil {
		return
	}
	if err := s.persist.SaveOperations(ops); err != nil {
		s.log.Warn("persist operations state failed", slog.Any("err", err))
	}
}

func (s *Store) Grid() Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid
}

func (s *Store) ToggleGrid()   { s.updateGrid(func(g *Grid) { g.Show = !g.Show }) }
func (s *Store) ToggleSnap()   { s.updateGrid(func(g *Grid) { g.Snap = !g.Snap }) }
func (s *Store) ToggleGuides() { s.updateGrid(func(g *Grid) { g.Guides = !g.Guides }) }

// SetGrid replaces the grid state. A non-positive size keeps the current one.
func (s *Store) SetGrid(g Grid) {
	s.updateGrid(func(cur *Grid) {
		size := cur.Size
		*cur = g
		if cur.Size <= 0 {
			cur.Size = size
		}
	})
}

func (s *Store) updateGrid(fn func(*Grid)) {
	s.mu.Lock()
	fn(&s.grid)
	s.mu.Unlock()
}
