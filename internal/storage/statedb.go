/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	applog "widgetboard/internal/log"
	"widgetboard/internal/state"
	"widgetboard/internal/undo"
	"widgetboard/internal/version"

	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	// StateDirName holds per-board local state under the board root.
	StateDirName  = ".wbd"
	StateFileName = "state.sqlite"

	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	operationsKey = "sidebar"
	gridKey       = "grid"
	opTimeout     = 5 * time.Second
)

// StatePath returns the default SQLite state DB path for a board root.
func StatePath(root string) string {
	return filepath.Join(root, StateDirName, StateFileName)
}

// StateDB stores the operations sidebar state and undo histories. It
// implements state.Persister.
type StateDB struct {
	db     *sql.DB
	driver string
	log    *slog.Logger
}

var _ state.Persister = (*StateDB)(nil)

// OpenStateDB opens (creating if needed) the state DB and brings its schema
// up to date. driver is "sqlite" (dsn is a file path) or "pgx" (dsn is a
// Postgres URL); an empty driver means sqlite.
func OpenStateDB(ctx context.Context, driver, dsn string) (*StateDB, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "state_open").With(slog.String("driver", driver))
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("state dsn is required")
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		uri := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(dsn))
		db, err = sql.Open("sqlite", uri)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown state driver %q", driver)
	}

	s := &StateDB{db: db, driver: driver, log: l}
	if err := s.ensureVersion(ctx); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		l.Error("apply migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("state db ready")
	return s, nil
}

func (s *StateDB) Close() error   { return s.db.Close() }
func (s *StateDB) Driver() string { return s.driver }

// rebind rewrites ? placeholders to $n for Postgres.
func (s *StateDB) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *StateDB) exec(ctx context.Context, q string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.rebind(q), args...)
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func (s *StateDB) ensureVersion(ctx context.Context) error {
	if err := s.exec(ctx, `CREATE TABLE IF NOT EXISTS version (
		id         INTEGER PRIMARY KEY CHECK(id=1),
		schema     INTEGER NOT NULL,
		app        TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	ts := now()
	var cur int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := s.exec(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 0, ?, ?, ?)`, version.String(), ts, ts); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if err := s.exec(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), ts); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the number of the last applied migration.
func (s *StateDB) SchemaVersion(ctx context.Context) (int, error) {
	var cur int
	if err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return cur, nil
}

// applyMigrations runs the embedded NNN_name.sql files newer than the
// recorded schema version, each in its own transaction.
func (s *StateDB) applyMigrations(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	cur, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	for _, fname := range files {
		v, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if v <= cur {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), v, now()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", v, err)
		}
		s.log.Info("migration applied", slog.String("file", fname))
		cur = v
	}
	return nil
}

func parseVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(path.Base(name), "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

func (s *StateDB) upsert(ctx context.Context, table, keyCol, valCol, key, value string) error {
	q := fmt.Sprintf(`INSERT INTO %[1]s (%[2]s, %[3]s, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(%[2]s) DO UPDATE SET %[3]s=excluded.%[3]s, updated_at=excluded.updated_at`, table, keyCol, valCol)
	return s.exec(ctx, q, key, value, now())
}

// LoadOperations returns the stored sidebar state, or the defaults when
// nothing was stored yet.
func (s *StateDB) LoadOperations() (state.Operations, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM operations WHERE key=?`), operationsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return state.DefaultOperations(), nil
	}
	if err != nil {
		return state.Operations{}, fmt.Errorf("load operations: %w", err)
	}
	var ops state.Operations
	if err := json.Unmarshal([]byte(raw), &ops); err != nil {
		return state.Operations{}, fmt.Errorf("parse operations: %w", err)
	}
	return ops, nil
}

func (s *StateDB) SaveOperations(ops state.Operations) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	b, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("marshal operations: %w", err)
	}
	if err := s.upsert(ctx, "operations", "key", "value", operationsKey, string(b)); err != nil {
		return fmt.Errorf("save operations: %w", err)
	}
	return nil
}

// LoadGrid returns the stored grid toggles; ok is false when none were stored.
func (s *StateDB) LoadGrid(ctx context.Context) (g state.Grid, ok bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM operations WHERE key=?`), gridKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return g, false, nil
	}
	if err != nil {
		return g, false, fmt.Errorf("load grid: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return g, false, fmt.Errorf("parse grid: %w", err)
	}
	return g, true, nil
}

func (s *StateDB) SaveGrid(ctx context.Context, g state.Grid) error {
	b, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal grid: %w", err)
	}
	if err := s.upsert(ctx, "operations", "key", "value", gridKey, string(b)); err != nil {
		return fmt.Errorf("save grid: %w", err)
	}
	return nil
}

// LoadHistory returns the undo/redo stacks stored for a board. ok is false
// when none were stored.
func (s *StateDB) LoadHistory(ctx context.Context, boardID string) (h undo.History, ok bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT stacks FROM history WHERE board_id=?`), boardID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return h, false, nil
	}
	if err != nil {
		return h, false, fmt.Errorf("load history: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return h, false, fmt.Errorf("parse history: %w", err)
	}
	return h, true, nil
}

func (s *StateDB) SaveHistory(ctx context.Context, boardID string, h undo.History) error {
	b, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.upsert(ctx, "history", "board_id", "stacks", boardID, string(b)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *StateDB) DeleteHistory(ctx context.Context, boardID string) error {
	if err := s.exec(ctx, `DELETE FROM history WHERE board_id=?`, boardID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}
