/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"widgetboard/internal/command"
	"widgetboard/internal/geom"
)

// object adapts a top-level element to command.Object. It resolves the
// element by id on every call so it survives slice reallocation.
type object struct {
	c  *Canvas
	id string
}

// scalable adds per-axis scaling.
type scalable struct{ object }

// group scales its members about its top-left corner.
type group struct{ object }

// textual is a scalable text element.
type textual struct{ scalable }

func (c *Canvas) wrap(e *Element) command.Object {
	o := object{c: c, id: e.ID}
	switch e.Kind {
	case KindGroup:
		return &group{o}
	case KindText:
		return &textual{scalable{o}}
	default:
		return &scalable{o}
	}
}

func (o *object) el() *Element {
	e, _ := o.c.doc.Find(o.id)
	if e == nil {
		// objects are only handed out for existing elements
		panic("scene: element " + o.id + " vanished")
	}
	return e
}

func (o *object) ID() string              { return o.id }
func (o *object) BoundingRect() geom.Rect { return o.el().Bounds() }

func (o *object) Position() geom.Point {
	b := o.el().Bounds()
	return geom.Pt(b.Left, b.Top)
}

func (o *object) SetPosition(p geom.Point) {
	e := o.el()
	b := e.Bounds()
	e.translate(p.X-b.Left, p.Y-b.Top)
}

func (o *object) SetCoords()       { o.el().refresh() }
func (o *object) Locked() bool     { return o.el().Locked }
func (o *object) SetLocked(v bool) { o.el().Locked = v }
func (o *object) Kind() Kind       { return o.el().Kind }

// ScaleToWidth scales horizontally so the box is w wide. Zero-width
// elements cannot be scaled on that axis.
func (s *scalable) ScaleToWidth(w float64) {
	if e := s.el(); e.Width > 0 {
		e.ScaleX = w / e.Width
	}
}

func (s *scalable) ScaleToHeight(h float64) {
	if e := s.el(); e.Height > 0 {
		e.ScaleY = h / e.Height
	}
}

func (g *group) ScaleToWidth(w float64) {
	e := g.el()
	if b := e.Bounds(); b.Width > 0 {
		e.scaleFrom(b.Left, b.Top, w/b.Width, 1)
	}
}

func (g *group) ScaleToHeight(h float64) {
	e := g.el()
	if b := e.Bounds(); b.Height > 0 {
		e.scaleFrom(b.Left, b.Top, 1, h/b.Height)
	}
}

func (t *textual) TextStyle() command.TextStyle      { return t.el().Style }
func (t *textual) SetTextStyle(st command.TextStyle) { t.el().Style = st }

var (
	_ command.Lockable   = (*object)(nil)
	_ command.Scaler     = (*scalable)(nil)
	_ command.Scaler     = (*group)(nil)
	_ command.TextObject = (*textual)(nil)
)
