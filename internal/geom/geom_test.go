/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "testing"

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt(10, 20)) || !r.Contains(Pt(110, 70)) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.Left != 15 || in.Top != 25 || in.Width != 90 || in.Height != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestRectEdgesAndCenter(t *testing.T) {
	r := R(10, 20, 30, 40)
	if r.Right() != 40 || r.Bottom() != 60 {
		t.Fatalf("unexpected edges: right=%v bottom=%v", r.Right(), r.Bottom())
	}
	if c := r.Center(); c.X != 25 || c.Y != 40 {
		t.Fatalf("unexpected center: %+v", c)
	}
	moved := r.Translate(Pt(-10, 5))
	if moved.Left != 0 || moved.Top != 25 || moved.Width != 30 {
		t.Fatalf("unexpected translate: %+v", moved)
	}
}

func TestBounds(t *testing.T) {
	if b := Bounds(); b != (Rect{}) {
		t.Fatalf("expected zero rect for no input, got %+v", b)
	}
	b := Bounds(R(0, 0, 10, 10), R(50, -5, 10, 10), R(20, 30, 5, 5))
	if b.Left != 0 || b.Top != -5 || b.Width != 60 || b.Height != 40 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
}

func TestRound(t *testing.T) {
	if got := Round(1.23456, 3); got != 1.235 {
		t.Fatalf("Round = %v", got)
	}
	if got := Round(1.5, -1); got != 1.5 {
		t.Fatalf("negative places should be a no-op, got %v", got)
	}
}
