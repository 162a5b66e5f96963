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
	"testing"

	"widgetboard/internal/geom"
	"widgetboard/internal/hotkey"
	"widgetboard/internal/state"
	"widgetboard/internal/viewport"
)

func TestBuiltinRegistryListing(t *testing.T) {
	r := New()
	if n := len(r.All()); n != 31 {
		t.Fatalf("expected 31 builtin commands, got %d", n)
	}
	secs := r.Sections()
	if len(secs) != 7 || secs[0].ID != state.SectionText || secs[6].Title != "Zoom" {
		t.Fatalf("unexpected sections: %+v", secs)
	}
	counts := map[state.Section]int{}
	for _, s := range secs {
		counts[s.ID] = len(r.BySection(s.ID))
	}
	want := map[state.Section]int{state.SectionText: 6, state.SectionAlign: 6, state.SectionDistribute: 4,
		state.SectionResize: 3, state.SectionGrouping: 4, state.SectionGrid: 3, state.SectionZoom: 5}
	for sec, n := range want {
		if counts[sec] != n {
			t.Fatalf("section %s has %d commands, want %d", sec, counts[sec], n)
		}
	}
	// every hotkey is distinct after normalization
	if keys := r.Hotkeys(); len(keys) != 31 {
		t.Fatalf("expected 31 distinct hotkeys, got %d", len(keys))
	}
	if id := r.Hotkeys()["ctrl+alt+shift+l"]; id != "grouping:unlock" {
		t.Fatalf("unlock hotkey maps to %q", id)
	}
}

func TestUnknownCommand(t *testing.T) {
	r := New()
	if _, err := r.Get("align:diagonal"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if _, err := r.Execute(newContext(selected()), "nope"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("Execute should surface ErrUnknownCommand, got %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("MustGet should panic on unknown ids")
		}
	}()
	r.MustGet("nope")
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Command{ID: "x:y"}); err == nil {
		t.Fatalf("a command without Run must be rejected")
	}
	run := func(Context) bool { return true }
	if err := r.Register(Command{ID: "x:y", Run: run}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(Command{ID: "x:y", Run: run}); err == nil {
		t.Fatalf("duplicate ids must be rejected")
	}
}

func TestObserversSeeOnlySuccessfulRuns(t *testing.T) {
	r := New()
	var seen []Executed
	r.OnExecute(func(e Executed) { seen = append(seen, e) })
	ctx := newContext(selected(newBox(0, 0, 1, 1)))
	mustExec(t, r, ctx, "align:left") // disabled
	mustExec(t, r, ctx, "grid:toggle")
	if len(seen) != 1 || seen[0].ID != "grid:toggle" || seen[0].Section != state.SectionGrid {
		t.Fatalf("unexpected observations: %+v", seen)
	}
}

func TestBindHotkeys(t *testing.T) {
	r := New()
	d := hotkey.NewDispatcher()
	a, b := newBox(10, 0, 5, 5), newBox(50, 0, 5, 5)
	c := selected(a, b)
	ctx := newContext(c)

	if n := r.BindHotkeys(d, func() Context { return ctx }); n != 31 {
		t.Fatalf("bound %d hotkeys", n)
	}
	if n := r.BindHotkeys(d, func() Context { return ctx }); n != 0 {
		t.Fatalf("second bind must be a no-op, bound %d", n)
	}
	if !d.Dispatch(hotkey.KeyEvent{Key: "ArrowRight", Alt: true}) {
		t.Fatalf("alt+right should be consumed")
	}
	if a.rect.Right() != 55 || b.rect.Right() != 55 {
		t.Fatalf("align:right not applied via hotkey: %+v %+v", a.rect, b.rect)
	}
	// meta counts as ctrl
	if d.Dispatch(hotkey.KeyEvent{Key: "g", Meta: true, Shift: true}) {
		t.Fatalf("ungroup without a group must not be consumed")
	}
}

func TestTextCommands(t *testing.T) {
	r := New()
	t1 := &textBox{box: box{rect: geom.R(0, 0, 10, 10)}}
	t2 := &textBox{box: box{rect: geom.R(0, 0, 10, 10)}, style: TextStyle{Bold: true}}
	plain := newBox(0, 0, 1, 1)

	none := newContext(selected(plain))
	if r.MustGet("text:bold").IsEnabled(none) || r.MustGet("text:bold").IsActive(none) {
		t.Fatalf("text commands need a text object")
	}

	ctx := newContext(selected(plain, t1, t2))
	if r.MustGet("text:bold").IsActive(ctx) {
		t.Fatalf("bold is active only when every text is bold")
	}
	mustExec(t, r, ctx, "text:bold")
	if !t1.style.Bold || t2.style.Bold {
		t.Fatalf("bold should flip per object: %+v %+v", t1.style, t2.style)
	}
	mustExec(t, r, ctx, "text:align-center")
	if !r.MustGet("text:align-center").IsActive(ctx) || r.MustGet("text:align-left").IsActive(ctx) {
		t.Fatalf("text align active state wrong")
	}
	mustExec(t, r, ctx, "text:underline")
	mustExec(t, r, ctx, "text:italic")
	if !t1.style.Underline || !t2.style.Italic {
		t.Fatalf("styles not applied: %+v %+v", t1.style, t2.style)
	}
}

func TestGroupingCommands(t *testing.T) {
	r := New()
	g := &groupCanvas{fakeCanvas: *selected(newBox(0, 0, 1, 1), newBox(5, 5, 1, 1))}
	ctx := newContext(g)
	if r.MustGet("grouping:ungroup").IsEnabled(ctx) {
		t.Fatalf("ungroup needs an active group")
	}
	if !mustExec(t, r, ctx, "grouping:group") || !g.grouped {
		t.Fatalf("group failed")
	}
	if !mustExec(t, r, ctx, "grouping:ungroup") || g.grouped {
		t.Fatalf("ungroup failed")
	}
	if len(g.commits) != 2 {
		t.Fatalf("commits = %v", g.commits)
	}

	// a canvas without the capability cannot group
	if mustExec(t, r, newContext(selected(newBox(0, 0, 1, 1), newBox(1, 1, 1, 1))), "grouping:group") {
		t.Fatalf("group must be a no-op without Grouper")
	}
}

func TestLockCommands(t *testing.T) {
	r := New()
	l := &lockBox{box: box{rect: geom.R(0, 0, 1, 1)}}
	ctx := newContext(selected(l, newBox(0, 0, 1, 1)))
	mustExec(t, r, ctx, "grouping:lock")
	if !l.locked || !r.MustGet("grouping:lock").IsActive(ctx) {
		t.Fatalf("lock not applied")
	}
	mustExec(t, r, ctx, "grouping:unlock")
	if l.locked {
		t.Fatalf("unlock not applied")
	}
	if mustExec(t, r, newContext(selected(newBox(0, 0, 1, 1))), "grouping:lock") {
		t.Fatalf("nothing lockable selected: lock must be a no-op")
	}
}

func TestGridCommands(t *testing.T) {
	r := New()
	ctx := newContext(nil)
	if r.MustGet("grid:snap").IsEnabled(ctx) {
		t.Fatalf("snap needs a visible grid")
	}
	mustExec(t, r, ctx, "grid:toggle")
	mustExec(t, r, ctx, "grid:snap")
	mustExec(t, r, ctx, "grid:guides")
	g := ctx.Store.Grid()
	if !g.Show || !g.Snap || !g.Guides {
		t.Fatalf("grid flags not toggled: %+v", g)
	}
	for _, id := range []string{"grid:toggle", "grid:snap", "grid:guides"} {
		if !r.MustGet(id).IsActive(ctx) {
			t.Fatalf("%s should be active", id)
		}
	}
}

func TestZoomCommands(t *testing.T) {
	r := New()
	c := selected()
	c.size = geom.Size{Width: 1000, Height: 1000}
	ctx := newContext(c)
	ctx.Store.SetViewportSize(800, 600) // store size wins

	mustExec(t, r, ctx, "zoom:in")
	want := viewport.Transform{Zoom: 1.2, OffsetX: 400 - 1.2*400, OffsetY: 300 - 1.2*300}
	if !near(c.vt, want) || !near(ctx.Store.View(), want) {
		t.Fatalf("zoom:in = %+v, want %+v", c.vt, want)
	}
	if r.MustGet("zoom:actual").IsActive(ctx) {
		t.Fatalf("not at 1:1")
	}
	mustExec(t, r, ctx, "zoom:out")
	if !near(c.vt, viewport.Identity()) {
		t.Fatalf("zoom:out should undo zoom:in, got %+v", c.vt)
	}

	for i := 0; i < 20; i++ {
		mustExec(t, r, ctx, "zoom:out")
	}
	if c.vt.Zoom != viewport.DefaultMinZoom {
		t.Fatalf("zoom should clamp to %v, got %v", viewport.DefaultMinZoom, c.vt.Zoom)
	}

	mustExec(t, r, ctx, "zoom:actual")
	if !r.MustGet("zoom:actual").IsActive(ctx) {
		t.Fatalf("zoom:actual should be active after running it")
	}
	mustExec(t, r, ctx, "zoom:reset")
	if c.vt != viewport.Identity() || !r.MustGet("zoom:reset").IsActive(ctx) {
		t.Fatalf("reset view failed: %+v", c.vt)
	}
	if id, _ := ctx.Store.LastCommand(state.SectionZoom); id != "zoom:reset" {
		t.Fatalf("last zoom command = %q", id)
	}
}

func TestZoomFit(t *testing.T) {
	r := New()
	c := selected(newBox(0, 0, 60, 50), newBox(60, 0, 40, 20))
	c.size = geom.Size{Width: 400, Height: 200}
	ctx := newContext(c)
	ctx.Settings.FitPadding = 20

	mustExec(t, r, ctx, "zoom:fit")
	if !near(c.vt, viewport.Transform{Zoom: 3.2, OffsetX: 40, OffsetY: 20}) {
		t.Fatalf("fit = %+v", c.vt)
	}

	empty := selected()
	empty.vt = viewport.Transform{Zoom: 2, OffsetX: 7}
	mustExec(t, r, newContext(empty), "zoom:fit")
	if empty.vt != viewport.Identity() {
		t.Fatalf("fit on an empty board should reset, got %+v", empty.vt)
	}
}

func TestZoomWithoutCanvas(t *testing.T) {
	if mustExec(t, New(), newContext(nil), "zoom:in") {
		t.Fatalf("zoom needs a canvas")
	}
}

func near(a, b viewport.Transform) bool {
	const eps = 1e-9
	d := func(x, y float64) bool { return x-y < eps && y-x < eps }
	return d(a.Zoom, b.Zoom) && d(a.OffsetX, b.OffsetX) && d(a.OffsetY, b.OffsetY)
}
