/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps per-board state histories for undo/redo.
//
// Each key (usually a board id) owns a stack of full state snapshots whose top
// is the current state. Undo moves the top onto the redo stack and hands back
// the state below it.
package undo

import (
	"sync"
	"time"
)

// Snapshot is an opaque state blob for one board. Size is estimated as len(Blob).
// Label names the change that produced it (a command id, "move", ...).
type Snapshot struct {
	Key   string    `json:"key"`
	Label string    `json:"label,omitempty"`
	Blob  []byte    `json:"blob"`
	TS    time.Time `json:"ts"`
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerKey limits the number of snapshots per key (0 means unlimited).
	MaxPerKey int
	// MinInterval coalesces snapshots with the same label captured within the
	// interval, replacing the previous one. Zero selects the default, a
	// negative value disables coalescing.
	MinInterval time.Duration
}

// History is the exported stack pair for one key.
type History struct {
	Undo []Snapshot `json:"undo"`
	Redo []Snapshot `json:"redo"`
}

// Manager provides in-memory undo/redo stacks per key with memory safeguards.
// It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting covers undo stacks only
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	if cfg.MaxPerKey < 0 {
		cfg.MaxPerKey = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Baseline drops any history for s.Key and makes s its only state.
func (m *Manager) Baseline(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(s.Key)
	m.undo[s.Key] = []Snapshot{s}
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(s.Key)
}

// PushSnapshot records the state after a change. A snapshot with the same
// label within MinInterval of the previous one replaces it; the baseline is
// never replaced. Any push clears the redo stack of the key.
func (m *Manager) PushSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.Key]
	if n := len(stack); n > 1 && m.cfg.MinInterval > 0 {
		last := stack[n-1]
		if last.Label == s.Label && s.TS.Sub(last.TS) < m.cfg.MinInterval {
			m.totalBytes += len(s.Blob) - len(last.Blob)
			stack[n-1] = s
			m.redo[s.Key] = nil
			m.enforceCapsLocked(s.Key)
			return
		}
	}
	m.undo[s.Key] = append(stack, s)
	m.totalBytes += len(s.Blob)
	m.redo[s.Key] = nil
	m.enforceCapsLocked(s.Key)
}

// Current returns the top state of key.
func (m *Manager) Current(key string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[key]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	return stack[len(stack)-1], true
}

// Undo reverts the latest change of key and returns the state to restore.
// The reverted snapshot moves to the redo stack.
func (m *Manager) Undo(key string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[key]
	if len(stack) < 2 {
		return Snapshot{}, false
	}
	top := stack[len(stack)-1]
	m.undo[key] = stack[:len(stack)-1]
	m.totalBytes -= len(top.Blob)
	m.redo[key] = append(m.redo[key], top)
	return stack[len(stack)-2], true
}

// Redo reapplies the most recently undone change and returns its state.
func (m *Manager) Redo(key string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[key]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[key] = r[:len(r)-1]
	m.undo[key] = append(m.undo[key], s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(key)
	return s, true
}

func (m *Manager) CanUndo(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[key]) > 1
}

func (m *Manager) CanRedo(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[key]) > 0
}

// Export copies the stacks of key for persistence.
func (m *Manager) Export(key string) History {
	m.mu.Lock()
	defer m.mu.Unlock()
	return History{
		Undo: append([]Snapshot(nil), m.undo[key]...),
		Redo: append([]Snapshot(nil), m.redo[key]...),
	}
}

// Import replaces the stacks of key, applying the configured caps.
func (m *Manager) Import(key string, h History) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(key)
	if len(h.Undo) > 0 {
		m.undo[key] = append([]Snapshot(nil), h.Undo...)
		for _, s := range h.Undo {
			m.totalBytes += len(s.Blob)
		}
	}
	if len(h.Redo) > 0 {
		m.redo[key] = append([]Snapshot(nil), h.Redo...)
	}
	m.enforceCapsLocked(key)
}

// Clear drops the undo/redo stacks of key to free memory.
func (m *Manager) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(key)
}

func (m *Manager) clearLocked(key string) {
	for _, s := range m.undo[key] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, key)
	delete(m.redo, key)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, keys int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, keys, totalSnapshots
}

func (m *Manager) enforceCapsLocked(key string) {
	if m.cfg.MaxPerKey > 0 {
		stack := m.undo[key]
		if len(stack) > m.cfg.MaxPerKey {
			toDrop := len(stack) - m.cfg.MaxPerKey
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[key] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune the oldest snapshot across keys. The current
	// state of a key is never pruned.
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestKey := ""
		found := false
		var oldestTS time.Time
		for k, stack := range m.undo {
			if len(stack) < 2 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestKey, oldestTS, found = k, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestKey]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestKey] = stack[1:]
	}
}
