/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func lastLine(t *testing.T, b []byte) string {
	t.Helper()
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	return last
}

func TestRotatedFileSinkWritesJSON(t *testing.T) {
	// temp dir cleanup races the open lumberjack handle on Windows
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("wbd_log_%d.json", time.Now().UnixNano()))
	var console bytes.Buffer
	Init(Options{Level: "debug", File: fpath, Writer: &console})

	l := WithOperation(WithComponent("command"), "execute")
	l.Info("command executed", slog.String("id", "align:left"), slog.Bool("changed", true))
	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lastLine(t, b)), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["app"] != "widgetboard" {
		t.Fatalf("app attr = %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "command" || m["op"] != "execute" || m["id"] != "align:left" {
		t.Fatalf("context attrs mismatch: %v", m)
	}

	// the console handler receives the same record
	if !strings.Contains(console.String(), "command executed") || !strings.Contains(console.String(), "changed=true") {
		t.Fatalf("console output missing record: %q", console.String())
	}
}

func TestJSONConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Format: "JSON", Writer: &buf})
	L().Info("dropped")
	L().Warn("kept", slog.Float64("zoom", 1.2))

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record should be filtered at warn: %q", out)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lastLine(t, buf.Bytes())), &m); err != nil {
		t.Fatalf("console output is not JSON: %v", err)
	}
	if m["msg"] != "kept" || m["zoom"] != 1.2 {
		t.Fatalf("unexpected record: %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
