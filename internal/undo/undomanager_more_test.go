/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestClearAndStats(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MinInterval: time.Millisecond})
	m.Baseline(snap("b", "", "abcdef", time.Now()))
	tb, keys, total := m.Stats()
	if tb != 6 || keys != 1 || total != 1 {
		t.Fatalf("unexpected stats before clear: tb=%d keys=%d total=%d", tb, keys, total)
	}
	m.Clear("b")
	tb, keys, total = m.Stats()
	if tb != 0 || keys != 0 || total != 0 {
		t.Fatalf("expected cleared stats to be zero, got tb=%d keys=%d total=%d", tb, keys, total)
	}
}

func TestGlobalPruneKeepsCurrentState(t *testing.T) {
	m := NewManager(Config{MaxBytes: 8, MinInterval: -1})
	t0 := time.Now()
	m.Baseline(snap("one", "", "xxxx", t0))
	m.Baseline(snap("two", "", "yyyy", t0.Add(time.Second)))
	m.PushSnapshot(snap("two", "move", "zzzz", t0.Add(2*time.Second)))

	// "one" only holds its current state, so the baseline of "two" goes
	if cur, ok := m.Current("one"); !ok || string(cur.Blob) != "xxxx" {
		t.Fatalf("current state of 'one' was pruned")
	}
	if m.CanUndo("two") {
		t.Fatalf("expected the older state of 'two' to be pruned")
	}
	if tb, _, _ := m.Stats(); tb != 8 {
		t.Fatalf("total bytes = %d", tb)
	}
}

func TestExportImport(t *testing.T) {
	m := NewManager(Config{MinInterval: -1})
	t0 := time.Now()
	m.Baseline(snap("b", "", "0", t0))
	m.PushSnapshot(snap("b", "grouping:group", "1", t0))
	m.PushSnapshot(snap("b", "align:left", "2", t0))
	m.Undo("b")

	h := m.Export("b")
	if len(h.Undo) != 2 || len(h.Redo) != 1 {
		t.Fatalf("unexpected export: %+v", h)
	}

	n := NewManager(Config{MinInterval: -1})
	n.Import("b", h)
	s, ok := n.Redo("b")
	if !ok || s.Label != "align:left" {
		t.Fatalf("redo after import: ok=%v label=%q", ok, s.Label)
	}
	if tb, _, total := n.Stats(); tb != 3 || total != 3 {
		t.Fatalf("accounting after import: tb=%d total=%d", tb, total)
	}
}
