/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"widgetboard/internal/arrange"
	"widgetboard/internal/command"
	"widgetboard/internal/geom"
	applog "widgetboard/internal/log"
	"widgetboard/internal/state"
	"widgetboard/internal/undo"
	"widgetboard/internal/viewport"

	"github.com/google/uuid"
)

// ErrLocked is returned when moving a locked element.
var ErrLocked = errors.New("element is locked")

// Options tune a Canvas. Zero values select defaults.
type Options struct {
	Size geom.Size
	// GuideThreshold is the smart-guide snap distance in content units.
	GuideThreshold float64
	Now            func() time.Time
}

// Canvas hosts one document for the editor commands. It implements
// command.Canvas and command.Grouper. Not safe for concurrent use.
type Canvas struct {
	doc       *Document
	store     *state.Store
	history   *undo.Manager
	selection []string
	size      geom.Size
	opts      Options
	renders   int
	dirty     bool
	log       *slog.Logger
}

// NewCanvas wraps doc. The current document becomes the history baseline
// unless the history already tracks it.
func NewCanvas(doc *Document, store *state.Store, history *undo.Manager, opts Options) *Canvas {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Size.Width <= 0 || opts.Size.Height <= 0 {
		opts.Size = geom.Size{Width: 1280, Height: 800}
	}
	c := &Canvas{doc: doc, store: store, history: history, size: opts.Size, opts: opts,
		log: applog.WithBoard(applog.WithComponent("scene"), doc.ID)}
	if doc.View.Zoom == 0 {
		doc.View = viewport.Identity()
	}
	if store != nil {
		store.SetViewportTransform(doc.View)
	}
	if history != nil {
		if _, ok := history.Current(doc.ID); !ok {
			if blob, err := json.Marshal(doc.Elements); err == nil {
				history.Baseline(undo.Snapshot{Key: doc.ID, Blob: blob, TS: opts.Now()})
			}
		}
	}
	return c
}

func (c *Canvas) Document() *Document { return c.doc }

// Dirty reports whether a change was committed since the last MarkSaved.
func (c *Canvas) Dirty() bool { return c.dirty }
func (c *Canvas) MarkSaved()  { c.dirty = false }

// Renders counts RequestRender calls.
func (c *Canvas) Renders() int { return c.renders }

// Select replaces the selection with the given top-level elements, in order.
func (c *Canvas) Select(ids ...string) error {
	sel := make([]string, 0, len(ids))
	for _, id := range ids {
		if e, _ := c.doc.Find(id); e == nil {
			if c.doc.Lookup(id) != nil {
				return fmt.Errorf("element %s is inside a group; select the group", id)
			}
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if !slices.Contains(sel, id) {
			sel = append(sel, id)
		}
	}
	c.selection = sel
	c.syncSelection()
	return nil
}

// SelectAll selects every visible top-level element in z-order.
func (c *Canvas) SelectAll() {
	c.selection = c.selection[:0]
	for _, e := range c.doc.Elements {
		if !e.Hidden {
			c.selection = append(c.selection, e.ID)
		}
	}
	c.syncSelection()
}

func (c *Canvas) SelectedIDs() []string { return slices.Clone(c.selection) }

func (c *Canvas) syncSelection() {
	if c.store == nil {
		return
	}
	types := make([]string, 0, len(c.selection))
	for _, id := range c.selection {
		if e, _ := c.doc.Find(id); e != nil {
			types = append(types, string(e.Kind))
		}
	}
	c.store.SetSelection(types, func(k string) bool { return Kind(k) == KindText })
}

func (c *Canvas) Selection() []command.Object {
	out := make([]command.Object, 0, len(c.selection))
	for _, id := range c.selection {
		if e, _ := c.doc.Find(id); e != nil {
			out = append(out, c.wrap(e))
		}
	}
	return out
}

func (c *Canvas) Objects() []command.Object {
	var out []command.Object
	for i := range c.doc.Elements {
		if e := &c.doc.Elements[i]; !e.Hidden {
			out = append(out, c.wrap(e))
		}
	}
	return out
}

func (c *Canvas) Viewport() viewport.Transform     { return c.doc.View }
func (c *Canvas) SetViewport(t viewport.Transform) { c.doc.View = t; c.dirty = true }
func (c *Canvas) ViewportSize() geom.Size          { return c.size }
func (c *Canvas) SetViewportSize(s geom.Size)      { c.size = s }
func (c *Canvas) RequestRender()                   { c.renders++ }

// CommitChange records the element state in the history.
func (c *Canvas) CommitChange(label string) {
	c.dirty = true
	if c.history == nil {
		return
	}
	blob, err := json.Marshal(c.doc.Elements)
	if err != nil {
		c.log.Error("snapshot failed", slog.String("label", label), slog.Any("err", err))
		return
	}
	c.history.PushSnapshot(undo.Snapshot{Key: c.doc.ID, Label: label, Blob: blob, TS: c.opts.Now()})
	c.log.Debug("change committed", slog.String("label", label), slog.Int("bytes", len(blob)))
}

// Undo restores the elements before the latest change. The view is kept.
func (c *Canvas) Undo() (bool, error) {
	if c.history == nil {
		return false, nil
	}
	s, ok := c.history.Undo(c.doc.ID)
	if !ok {
		return false, nil
	}
	return true, c.restore(s)
}

// Redo reapplies the latest undone change.
func (c *Canvas) Redo() (bool, error) {
	if c.history == nil {
		return false, nil
	}
	s, ok := c.history.Redo(c.doc.ID)
	if !ok {
		return false, nil
	}
	return true, c.restore(s)
}

func (c *Canvas) restore(s undo.Snapshot) error {
	var els []Element
	if err := json.Unmarshal(s.Blob, &els); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	c.doc.Elements = els
	// drop selected ids that no longer exist
	c.selection = slices.DeleteFunc(c.selection, func(id string) bool {
		e, _ := c.doc.Find(id)
		return e == nil
	})
	c.syncSelection()
	c.dirty = true
	c.RequestRender()
	return nil
}

// Move drags a top-level element by (dx, dy). With grid snapping on, the
// result is snapped to the grid; with guides on, it is snapped to the other
// visible elements and the matching guides are returned.
func (c *Canvas) Move(id string, dx, dy float64) ([]arrange.Guide, error) {
	e, _ := c.doc.Find(id)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if e.Locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, id)
	}
	from := e.Bounds()
	target := from.Translate(geom.Pt(dx, dy))

	var guides []arrange.Guide
	if c.store != nil {
		g := c.store.Grid()
		if g.Snap {
			target = arrange.SnapToGrid(target, g.Size)
		}
		if g.Guides {
			var anchors []arrange.Anchor
			for i := range c.doc.Elements {
				o := &c.doc.Elements[i]
				if o.ID != id && !o.Hidden {
					anchors = append(anchors, arrange.Anchor{Rect: o.Bounds(), Weight: 1})
				}
			}
			target, guides = arrange.SmartGuides(target, anchors, arrange.GuideOptions{
				Threshold: c.opts.GuideThreshold, Edges: true, Centers: true,
			})
		}
	}
	e.translate(target.Left-from.Left, target.Top-from.Top)
	e.refresh()
	c.CommitChange("move")
	c.RequestRender()
	return guides, nil
}

// GroupSelection replaces the selected elements with a group holding them
// in z-order. The group takes the z-position of the lowest member.
func (c *Canvas) GroupSelection() bool {
	if len(c.selection) < 2 {
		return false
	}
	var members []Element
	at := -1
	kept := c.doc.Elements[:0:0]
	for _, e := range c.doc.Elements {
		if slices.Contains(c.selection, e.ID) {
			if at < 0 {
				at = len(kept)
			}
			members = append(members, e)
			continue
		}
		kept = append(kept, e)
	}
	if len(members) < 2 {
		return false
	}
	g := Element{ID: uuid.NewString(), Kind: KindGroup, Label: "group", Children: members,
		Bindings: Bindings{Inputs: map[string]string{}, Outputs: map[string]string{}}}
	g.refresh()
	c.doc.Elements = slices.Insert(kept, at, g)
	c.selection = []string{g.ID}
	c.syncSelection()
	return true
}

// UngroupActive dissolves the selected group in place and selects its members.
func (c *Canvas) UngroupActive() bool {
	if !c.ActiveIsGroup() {
		return false
	}
	g, i := c.doc.Find(c.selection[0])
	members := g.Children
	c.doc.Elements = slices.Replace(c.doc.Elements, i, i+1, members...)
	c.selection = c.selection[:0]
	for _, m := range members {
		c.selection = append(c.selection, m.ID)
	}
	c.syncSelection()
	return true
}

// ActiveIsGroup reports whether exactly one group is selected.
func (c *Canvas) ActiveIsGroup() bool {
	if len(c.selection) != 1 {
		return false
	}
	e, _ := c.doc.Find(c.selection[0])
	return e != nil && e.Kind == KindGroup
}

var (
	_ command.Canvas  = (*Canvas)(nil)
	_ command.Grouper = (*Canvas)(nil)
)
