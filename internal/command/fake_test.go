/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"widgetboard/internal/geom"
	"widgetboard/internal/state"
	"widgetboard/internal/viewport"
)

// box is a plain object whose position is its bounding box corner.
type box struct {
	rect   geom.Rect
	coords int
}

func newBox(l, t, w, h float64) *box { return &box{rect: geom.R(l, t, w, h)} }

func (b *box) BoundingRect() geom.Rect  { return b.rect }
func (b *box) Position() geom.Point     { return geom.Pt(b.rect.Left, b.rect.Top) }
func (b *box) SetPosition(p geom.Point) { b.rect.Left, b.rect.Top = p.X, p.Y }
func (b *box) SetCoords()               { b.coords++ }

type scalableBox struct{ box }

func newScalable(l, t, w, h float64) *scalableBox { return &scalableBox{box{rect: geom.R(l, t, w, h)}} }

func (s *scalableBox) ScaleToWidth(w float64)  { s.rect.Width = w }
func (s *scalableBox) ScaleToHeight(h float64) { s.rect.Height = h }

type textBox struct {
	box
	style TextStyle
}

func (t *textBox) TextStyle() TextStyle     { return t.style }
func (t *textBox) SetTextStyle(s TextStyle) { t.style = s }

type lockBox struct {
	box
	locked bool
}

func (l *lockBox) Locked() bool     { return l.locked }
func (l *lockBox) SetLocked(v bool) { l.locked = v }

type fakeCanvas struct {
	sel     []Object
	all     []Object
	vt      viewport.Transform
	size    geom.Size
	renders int
	commits []string
}

func (c *fakeCanvas) Selection() []Object              { return c.sel }
func (c *fakeCanvas) Objects() []Object                { return c.all }
func (c *fakeCanvas) Viewport() viewport.Transform     { return c.vt }
func (c *fakeCanvas) SetViewport(t viewport.Transform) { c.vt = t }
func (c *fakeCanvas) ViewportSize() geom.Size          { return c.size }
func (c *fakeCanvas) RequestRender()                   { c.renders++ }
func (c *fakeCanvas) CommitChange(label string)        { c.commits = append(c.commits, label) }

// groupCanvas adds the Grouper capability.
type groupCanvas struct {
	fakeCanvas
	grouped bool
}

func (g *groupCanvas) GroupSelection() bool {
	g.grouped = true
	g.sel = []Object{newBox(0, 0, 1, 1)}
	return true
}

func (g *groupCanvas) UngroupActive() bool {
	g.grouped = false
	return true
}

func (g *groupCanvas) ActiveIsGroup() bool { return g.grouped }

func newContext(c Canvas) Context {
	return Context{Canvas: c, Store: state.New(nil), Settings: DefaultSettings()}
}

func selected(objs ...Object) *fakeCanvas {
	return &fakeCanvas{sel: objs, all: objs, vt: viewport.Identity(), size: geom.Size{Width: 800, Height: 600}}
}
