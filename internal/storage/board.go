/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "widgetboard/internal/log"
	"widgetboard/internal/scene"
)

const (
	BoardFileName  = "board.json"
	BackupsDirName = "backups"
	AssetsDirName  = "assets"
	// MaxBackups is how many timestamped backups Save keeps.
	MaxBackups = 20
)

var standardSubDirs = []string{AssetsDirName, BackupsDirName}

// BoardHandle is a board loaded from or saved to a board directory.
type BoardHandle struct {
	Root  string
	Path  string
	Board scene.Document
	// Recovered is set when Open fell back to a backup.
	Recovered bool
}

// InitBoard creates root (if needed) with its standard subfolders and
// writes doc as the board file.
func InitBoard(root string, doc scene.Document) (*BoardHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if _, err := os.Stat(filepath.Join(root, BoardFileName)); err == nil {
		return nil, fmt.Errorf("board already exists in %s", root)
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	h := &BoardHandle{Root: root, Path: filepath.Join(root, BoardFileName), Board: doc}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create board root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// Open loads the board in root. A board file that cannot be read, parsed or
// validated is replaced in memory by the latest backup.
func Open(root string) (*BoardHandle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("root", root))
	path := filepath.Join(root, BoardFileName)
	doc, err := readBoard(path)
	if err == nil {
		return &BoardHandle{Root: root, Path: path, Board: doc}, nil
	}
	bdoc, berr := openFromLatestBackup(root)
	if berr != nil {
		return nil, fmt.Errorf("open board: %w; backup attempt: %v", err, berr)
	}
	l.Warn("board file unusable, recovered from backup", slog.Any("err", err))
	return &BoardHandle{Root: root, Path: path, Board: *bdoc, Recovered: true}, nil
}

func readBoard(path string) (scene.Document, error) {
	var doc scene.Document
	b, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := ValidateBoardJSON(b); err != nil {
		return doc, err
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("parse board: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return doc, fmt.Errorf("invalid board: %w", err)
	}
	return doc, nil
}

// Save validates the board and writes it with transactional semantics,
// keeping a timestamped backup of the previous file.
func Save(h *BoardHandle) error {
	if h == nil {
		return errors.New("nil BoardHandle")
	}
	if h.Root == "" || h.Path == "" {
		return errors.New("invalid BoardHandle: missing paths")
	}
	if h.Board.Elements == nil {
		h.Board.Elements = []scene.Element{}
	}
	if err := h.Board.Validate(); err != nil {
		return fmt.Errorf("invalid board: %w", err)
	}
	data, err := json.MarshalIndent(h.Board, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	data = append(data, '\n')
	if err := ValidateBoardJSON(data); err != nil {
		return err
	}

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(h.Path); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", BoardFileName, stamp))
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current board: %w", cerr)
		}
		pruneBackups(bdir)
	}

	dir := filepath.Dir(h.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", BoardFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp board: %w", werr)
	}
	// Windows cannot rename over an existing file
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace board: %w", rerr)
	}
	h.Recovered = false
	return nil
}

// SaveAs writes the board into newRoot and points the handle there.
func SaveAs(h *BoardHandle, newRoot string) error {
	if h == nil {
		return errors.New("nil BoardHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := scaffold(newRoot); err != nil {
		return err
	}
	h.Root = newRoot
	h.Path = filepath.Join(newRoot, BoardFileName)
	return Save(h)
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// listBackups returns backup paths oldest first; the timestamp in the name
// sorts lexicographically.
func listBackups(bdir string) ([]string, error) {
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, BoardFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

func pruneBackups(bdir string) {
	list, err := listBackups(bdir)
	if err != nil || len(list) <= MaxBackups {
		return
	}
	for _, p := range list[:len(list)-MaxBackups] {
		_ = os.Remove(p)
	}
}

// openFromLatestBackup tries backups newest first and returns the first
// usable one.
func openFromLatestBackup(root string) (*scene.Document, error) {
	list, err := listBackups(filepath.Join(root, BackupsDirName))
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	if len(list) == 0 {
		return nil, errors.New("no backups found")
	}
	var lastErr error
	for i := len(list) - 1; i >= 0; i-- {
		doc, err := readBoard(list[i])
		if err == nil {
			return &doc, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no usable backup: %w", lastErr)
}

// AutosaveCrashSnapshot writes the in-memory board next to the backups
// without touching board.json. Schema problems do not block the snapshot.
func AutosaveCrashSnapshot(h *BoardHandle) (string, error) {
	if h == nil || h.Root == "" {
		return "", errors.New("invalid BoardHandle")
	}
	data, err := json.MarshalIndent(h.Board, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal board: %w", err)
	}
	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", BoardFileName, time.Now().Format("20060102-150405")))
	if err := writeFileSync(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}
