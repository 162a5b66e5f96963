/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene is the board document and the canvas host the editor
// commands run against. A board is a flat list of top-level elements; groups
// hold their members as children with absolute coordinates.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"widgetboard/internal/command"
	"widgetboard/internal/geom"
	"widgetboard/internal/viewport"

	"github.com/google/uuid"
)

// DocumentVersion is the current board format version.
const DocumentVersion = 1

// Kind is the closed set of element types.
type Kind string

const (
	KindToggle     Kind = "toggle"
	KindLED        Kind = "led"
	KindNumDisplay Kind = "numDisplay"
	KindNumInput   Kind = "numInput"
	KindLine       Kind = "line"
	KindImage      Kind = "image"
	KindText       Kind = "text"
	KindGroup      Kind = "group"
)

// Ports are the binding points an element kind declares.
type Ports struct {
	Inputs  []string
	Outputs []string
}

type kindInfo struct {
	ports         Ports
	width, height float64
}

var kinds = map[Kind]kindInfo{
	KindToggle:     {ports: Ports{Outputs: []string{"state"}}, width: 60, height: 30},
	KindLED:        {ports: Ports{Inputs: []string{"value"}, Outputs: []string{"value"}}, width: 30, height: 30},
	KindNumDisplay: {ports: Ports{Inputs: []string{"value"}}, width: 80, height: 30},
	KindNumInput:   {ports: Ports{Outputs: []string{"value"}}, width: 80, height: 30},
	KindLine:       {width: 100, height: 0},
	KindImage:      {width: 100, height: 100},
	KindText:       {width: 120, height: 24},
	KindGroup:      {},
}

// Kinds lists the element kinds that can be created directly.
func Kinds() []Kind {
	return []Kind{KindToggle, KindLED, KindNumDisplay, KindNumInput, KindLine, KindImage, KindText}
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

func (k Kind) Ports() Ports { return kinds[k].ports }

// ParseKind validates a kind name; "group" is not creatable.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() || k == KindGroup {
		return "", fmt.Errorf("unknown element kind %q", s)
	}
	return k, nil
}

// Bindings map a port to a signal name.
type Bindings struct {
	Inputs  map[string]string `json:"inputs"`
	Outputs map[string]string `json:"outputs"`
}

// Element is one widget on the board. Width and Height are the unscaled
// size; the bounding box is Width*ScaleX by Height*ScaleY.
type Element struct {
	ID       string            `json:"id"`
	Kind     Kind              `json:"kind"`
	Label    string            `json:"label,omitempty"`
	Left     float64           `json:"left"`
	Top      float64           `json:"top"`
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	ScaleX   float64           `json:"scaleX"`
	ScaleY   float64           `json:"scaleY"`
	Text     string            `json:"text,omitempty"`
	Style    command.TextStyle `json:"style,omitzero"`
	Locked   bool              `json:"locked,omitempty"`
	Hidden   bool              `json:"hidden,omitempty"`
	Bindings Bindings          `json:"bindings"`
	Children []Element         `json:"children,omitempty"`
}

// Document is the content of a board file.
type Document struct {
	Version  int                `json:"version"`
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Elements []Element          `json:"elements"`
	View     viewport.Transform `json:"view"`
}

func NewDocument(name string) Document {
	return Document{Version: DocumentVersion, ID: uuid.NewString(), Name: name, Elements: []Element{}, View: viewport.Identity()}
}

// NewElement creates an element of kind k with the kind's default size.
func NewElement(k Kind, left, top float64) (Element, error) {
	if _, err := ParseKind(string(k)); err != nil {
		return Element{}, err
	}
	info := kinds[k]
	e := Element{
		ID:       uuid.NewString(),
		Kind:     k,
		Label:    string(k),
		Left:     left,
		Top:      top,
		Width:    info.width,
		Height:   info.height,
		ScaleX:   1,
		ScaleY:   1,
		Bindings: Bindings{Inputs: map[string]string{}, Outputs: map[string]string{}},
	}
	if k == KindText {
		e.Text = "Text"
		e.Style.Align = command.TextAlignLeft
	}
	return e, nil
}

// Bounds is the element's bounding box in content coordinates. A group
// spans its children.
func (e *Element) Bounds() geom.Rect {
	if e.Kind == KindGroup {
		rects := make([]geom.Rect, len(e.Children))
		for i := range e.Children {
			rects[i] = e.Children[i].Bounds()
		}
		return geom.Bounds(rects...)
	}
	return geom.R(e.Left, e.Top, e.Width*scale(e.ScaleX), e.Height*scale(e.ScaleY))
}

// a missing scale in hand-written files means 1
func scale(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}

func (e *Element) translate(dx, dy float64) {
	e.Left += dx
	e.Top += dy
	for i := range e.Children {
		e.Children[i].translate(dx, dy)
	}
}

// scaleFrom scales e about (ox, oy). Group members are scaled in place so
// the group keeps its origin.
func (e *Element) scaleFrom(ox, oy, fx, fy float64) {
	e.Left = ox + (e.Left-ox)*fx
	e.Top = oy + (e.Top-oy)*fy
	if e.Kind == KindGroup {
		for i := range e.Children {
			e.Children[i].scaleFrom(ox, oy, fx, fy)
		}
		e.refresh()
		return
	}
	e.ScaleX = scale(e.ScaleX) * fx
	e.ScaleY = scale(e.ScaleY) * fy
}

// refresh recomputes a group's cached box from its children.
func (e *Element) refresh() {
	if e.Kind != KindGroup {
		return
	}
	b := e.Bounds()
	e.Left, e.Top, e.Width, e.Height = b.Left, b.Top, b.Width, b.Height
	e.ScaleX, e.ScaleY = 1, 1
}

var (
	ErrUnknownPort = errors.New("unknown port")
	ErrNotFound    = errors.New("element not found")
)

// Bind connects an input or output port to a signal. An empty signal removes
// the binding.
func (e *Element) Bind(output bool, port, signal string) error {
	ports := e.Kind.Ports()
	list, m := ports.Inputs, &e.Bindings.Inputs
	if output {
		list, m = ports.Outputs, &e.Bindings.Outputs
	}
	if !slices.Contains(list, port) {
		return fmt.Errorf("%w: %s has no %s port %q", ErrUnknownPort, e.Kind, direction(output), port)
	}
	if *m == nil {
		*m = map[string]string{}
	}
	if signal == "" {
		delete(*m, port)
		return nil
	}
	(*m)[port] = signal
	return nil
}

func direction(output bool) string {
	if output {
		return "output"
	}
	return "input"
}

// Find returns the top-level element with id.
func (d *Document) Find(id string) (*Element, int) {
	for i := range d.Elements {
		if d.Elements[i].ID == id {
			return &d.Elements[i], i
		}
	}
	return nil, -1
}

// Lookup searches the whole tree, group members included.
func (d *Document) Lookup(id string) *Element {
	var walk func(els []Element) *Element
	walk = func(els []Element) *Element {
		for i := range els {
			if els[i].ID == id {
				return &els[i]
			}
			if e := walk(els[i].Children); e != nil {
				return e
			}
		}
		return nil
	}
	return walk(d.Elements)
}

// Add appends e as a top-level element.
func (d *Document) Add(e Element) error {
	if d.Lookup(e.ID) != nil {
		return fmt.Errorf("duplicate element id %s", e.ID)
	}
	d.Elements = append(d.Elements, e)
	return nil
}

// Remove deletes a top-level element.
func (d *Document) Remove(id string) error {
	_, i := d.Find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	d.Elements = slices.Delete(d.Elements, i, i+1)
	return nil
}

// Signals lists every signal name and the element ports bound to it.
func (d *Document) Signals() map[string][]string {
	out := map[string][]string{}
	var walk func(els []Element)
	walk = func(els []Element) {
		for _, e := range els {
			for p, s := range e.Bindings.Inputs {
				out[s] = append(out[s], e.ID+".in."+p)
			}
			for p, s := range e.Bindings.Outputs {
				out[s] = append(out[s], e.ID+".out."+p)
			}
			walk(e.Children)
		}
	}
	walk(d.Elements)
	for _, v := range out {
		slices.Sort(v)
	}
	return out
}

// Validate checks structural invariants that the JSON schema cannot express:
// unique ids, known kinds, bindings on declared ports and non-empty groups.
func (d *Document) Validate() error {
	seen := map[string]bool{}
	var check func(els []Element) error
	check = func(els []Element) error {
		for i := range els {
			e := &els[i]
			if e.ID == "" {
				return errors.New("element without id")
			}
			if seen[e.ID] {
				return fmt.Errorf("duplicate element id %s", e.ID)
			}
			seen[e.ID] = true
			if !e.Kind.Valid() {
				return fmt.Errorf("element %s: unknown kind %q", e.ID, e.Kind)
			}
			ports := e.Kind.Ports()
			for p := range e.Bindings.Inputs {
				if !slices.Contains(ports.Inputs, p) {
					return fmt.Errorf("element %s: %w: input %q", e.ID, ErrUnknownPort, p)
				}
			}
			for p := range e.Bindings.Outputs {
				if !slices.Contains(ports.Outputs, p) {
					return fmt.Errorf("element %s: %w: output %q", e.ID, ErrUnknownPort, p)
				}
			}
			if e.Kind == KindGroup {
				if len(e.Children) == 0 {
					return fmt.Errorf("group %s has no members", e.ID)
				}
				if err := check(e.Children); err != nil {
					return err
				}
			} else if len(e.Children) > 0 {
				return fmt.Errorf("element %s: only groups have children", e.ID)
			}
		}
		return nil
	}
	return check(d.Elements)
}
