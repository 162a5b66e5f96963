/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor wires a board, its canvas, the UI-state store, the state
// DB and the command registry into one editing session. The CLI opens a
// session per invocation and closes it to persist the board, the undo
// history and the grid toggles.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"widgetboard/internal/command"
	"widgetboard/internal/config"
	"widgetboard/internal/geom"
	"widgetboard/internal/hotkey"
	applog "widgetboard/internal/log"
	"widgetboard/internal/scene"
	"widgetboard/internal/state"
	"widgetboard/internal/storage"
	"widgetboard/internal/telemetry"
	"widgetboard/internal/undo"
)

// Options configure a session. Zero values select defaults.
type Options struct {
	Config config.AppConfig
	// Telemetry receives command events; nil disables them.
	Telemetry *telemetry.Client
	// ViewportSize is the screen size used by zoom commands.
	ViewportSize geom.Size
	Now          func() time.Time
}

// Session is one open board. Not safe for concurrent use.
type Session struct {
	handle   *storage.BoardHandle
	db       *storage.StateDB
	store    *state.Store
	history  *undo.Manager
	canvas   *scene.Canvas
	registry *command.Registry
	keys     *hotkey.Dispatcher
	settings command.Settings
	log      *slog.Logger
}

// ErrUnboundKey is returned by Press for combos no command is bound to.
var ErrUnboundKey = errors.New("no command bound to key")

// Open loads the board in root together with its persisted state.
func Open(ctx context.Context, root string, opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg.ConfigVersion == 0 {
		cfg = config.Defaults()
	}
	l := applog.WithComponent("editor").With(slog.String("root", root))

	h, err := storage.Open(root)
	if err != nil {
		return nil, err
	}
	if h.Recovered {
		l.Warn("board recovered from backup; save to keep it")
	}

	dsn := cfg.State.DSN
	if dsn == "" && (cfg.State.Driver == "" || cfg.State.Driver == storage.DriverSQLite) {
		dsn = storage.StatePath(root)
	}
	db, err := storage.OpenStateDB(ctx, cfg.State.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	store := state.New(db)
	grid := state.Grid{Size: cfg.Editor.GridSize}
	if g, ok, err := db.LoadGrid(ctx); err != nil {
		l.Warn("load grid failed, using defaults", slog.Any("err", err))
	} else if ok {
		grid = g
	}
	if cfg.Editor.GridSize > 0 {
		grid.Size = cfg.Editor.GridSize
	}
	store.SetGrid(grid)

	history := undo.NewManager(undo.Config{MaxPerKey: 100, MinInterval: -1})
	if hist, ok, err := db.LoadHistory(ctx, h.Board.ID); err != nil {
		l.Warn("load history failed, starting fresh", slog.Any("err", err))
	} else if ok {
		history.Import(h.Board.ID, hist)
	}
	// history recorded against a different file content is stale
	if cur, ok := history.Current(h.Board.ID); ok {
		if blob, err := json.Marshal(h.Board.Elements); err == nil && !bytes.Equal(cur.Blob, blob) {
			l.Info("board changed outside the editor, history reset")
			history.Clear(h.Board.ID)
		}
	}

	canvas := scene.NewCanvas(&h.Board, store, history, scene.Options{
		Size:           opts.ViewportSize,
		GuideThreshold: cfg.Editor.GuideThreshold,
		Now:            opts.Now,
	})

	reg := command.New()
	if opts.Telemetry != nil {
		reg.OnExecute(opts.Telemetry.CommandObserver())
	}

	return &Session{
		handle:   h,
		db:       db,
		store:    store,
		history:  history,
		canvas:   canvas,
		registry: reg,
		settings: command.Settings{Limits: cfg.Editor.Limits(), ZoomStep: cfg.Editor.ZoomStep, FitPadding: cfg.Editor.FitPadding},
		log:      l,
	}, nil
}

func (s *Session) Handle() *storage.BoardHandle { return s.handle }
func (s *Session) Board() *scene.Document       { return s.canvas.Document() }
func (s *Session) Canvas() *scene.Canvas        { return s.canvas }
func (s *Session) Store() *state.Store          { return s.store }
func (s *Session) Registry() *command.Registry  { return s.registry }
func (s *Session) History() *undo.Manager       { return s.history }
func (s *Session) Settings() command.Settings   { return s.settings }
func (s *Session) Context() command.Context {
	return command.Context{Canvas: s.canvas, Store: s.store, Settings: s.settings}
}

// Select replaces the selection; no ids selects every visible element.
func (s *Session) Select(ids ...string) error {
	if len(ids) == 0 {
		s.canvas.SelectAll()
		return nil
	}
	return s.canvas.Select(ids...)
}

// Execute runs the commands in order and reports, per command, whether it
// changed anything. It stops at the first unknown id.
func (s *Session) Execute(ids ...string) ([]bool, error) {
	out := make([]bool, 0, len(ids))
	for _, id := range ids {
		ok, err := s.registry.Execute(s.Context(), id)
		if err != nil {
			return out, err
		}
		out = append(out, ok)
	}
	return out, nil
}

// Add places a new element and selects it.
func (s *Session) Add(kind scene.Kind, left, top float64, label string) (scene.Element, error) {
	e, err := scene.NewElement(kind, left, top)
	if err != nil {
		return e, err
	}
	if label != "" {
		e.Label = label
	}
	if err := s.Board().Add(e); err != nil {
		return e, err
	}
	s.canvas.CommitChange("add")
	s.canvas.RequestRender()
	return e, s.canvas.Select(e.ID)
}

// Remove deletes a top-level element.
func (s *Session) Remove(id string) error {
	if err := s.Board().Remove(id); err != nil {
		return err
	}
	s.canvas.CommitChange("remove")
	s.canvas.RequestRender()
	return nil
}

// Bind connects an element port to a signal; an empty signal unbinds.
func (s *Session) Bind(id string, output bool, port, signal string) error {
	e := s.Board().Lookup(id)
	if e == nil {
		return fmt.Errorf("%w: %s", scene.ErrNotFound, id)
	}
	if err := e.Bind(output, port, signal); err != nil {
		return err
	}
	s.canvas.CommitChange("bind")
	return nil
}

// Press dispatches a key combo through the command hotkeys. It reports whether
// a bound command ran and changed something; unbound combos are an error.
func (s *Session) Press(combo string) (bool, error) {
	if s.keys == nil {
		s.keys = hotkey.NewDispatcher()
		s.registry.BindHotkeys(s.keys, s.Context)
	}
	ev := hotkey.Parse(combo)
	// meta folds into ctrl, the same as for real key events
	if c := ev.Combo(); !s.keys.Bound(c) {
		return false, fmt.Errorf("%w: %s", ErrUnboundKey, c)
	}
	return s.keys.Dispatch(ev), nil
}

// SetView changes the given view fields. Zoom is clamped to the configured
// limits.
func (s *Session) SetView(zoom, offsetX, offsetY *float64) {
	if zoom != nil {
		z := s.settings.Limits.Clamp(*zoom)
		zoom = &z
	}
	s.store.SetView(zoom, offsetX, offsetY)
	s.canvas.SetViewport(s.store.View())
	s.canvas.RequestRender()
}

// SaveAs writes the board into root, which becomes the board's location.
// History and grid stay in the original state DB.
func (s *Session) SaveAs(root string) error {
	if err := storage.SaveAs(s.handle, root); err != nil {
		return err
	}
	s.canvas.MarkSaved()
	s.handle.Recovered = false
	s.log.Info("board saved as", slog.String("to", root))
	return nil
}

// StateDriver names the state DB driver in use.
func (s *Session) StateDriver() string { return s.db.Driver() }

func (s *Session) Undo() (bool, error) { return s.canvas.Undo() }
func (s *Session) Redo() (bool, error) { return s.canvas.Redo() }

// Close saves a changed board, then the history and grid, and closes the
// state DB. Every step runs and all failures are returned.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if s.canvas.Dirty() || s.handle.Recovered {
		if err := storage.Save(s.handle); err != nil {
			errs = append(errs, fmt.Errorf("save board: %w", err))
		} else {
			s.canvas.MarkSaved()
			s.log.Debug("board saved", slog.String("path", s.handle.Path))
		}
	}
	if err := s.db.SaveHistory(ctx, s.handle.Board.ID, s.history.Export(s.handle.Board.ID)); err != nil {
		errs = append(errs, err)
	}
	if err := s.db.SaveGrid(ctx, s.store.Grid()); err != nil {
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close state db: %w", err))
	}
	return errors.Join(errs...)
}

// Abort closes the state DB without saving anything.
func (s *Session) Abort() error { return s.db.Close() }
