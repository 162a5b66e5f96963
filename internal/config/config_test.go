/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

type memTokens map[string]string

func (m memTokens) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memTokens) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memTokens) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

// isolate points the config at a temp file and stubs the keyring.
func isolate(t *testing.T) (string, memTokens) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)
	mem := memTokens{}
	prev := SetTokenStore(mem)
	t.Cleanup(func() { SetTokenStore(prev) })
	return path, mem
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "" {
		t.Fatalf("unexpected token %q", tok)
	}
	if cfg.Editor != Defaults().Editor {
		t.Fatalf("editor defaults mismatch: %+v", cfg.Editor)
	}
	if l := cfg.Editor.Limits(); l.Min != 0.25 || l.Max != 4 {
		t.Fatalf("limits = %+v", l)
	}
}

func TestSaveLoadRoundTripAndToken(t *testing.T) {
	_, mem := isolate(t)
	cfg := Defaults()
	cfg.Editor.ZoomStep = 1.5
	cfg.Editor.GridSize = 10
	cfg.Telemetry.OptIn = true
	cfg.State.Driver = "pgx"
	if err := Save(cfg, "secret"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if mem[keyringService+"/"+keyringToken] != "secret" {
		t.Fatalf("token not stored in keyring: %v", mem)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "secret" || got.Editor.ZoomStep != 1.5 || got.Editor.GridSize != 10 || !got.Telemetry.OptIn || got.State.Driver != "pgx" {
		t.Fatalf("round trip mismatch: %+v token=%q", got, tok)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, tok, _ := Load(); tok != "" {
		t.Fatalf("token should be cleared, got %q", tok)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path, _ := isolate(t)
	if err := os.WriteFile(path, []byte("editor:\n  max_zoom: 8\nlogging:\n  level: DEBUG\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.MaxZoom != 8 || cfg.Editor.MinZoom != 0.25 || cfg.Editor.FitPadding != 40 {
		t.Fatalf("editor merge wrong: %+v", cfg.Editor)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("logging merge wrong: %+v", cfg.Logging)
	}
}

func TestMalformedFileIsAnError(t *testing.T) {
	path, _ := isolate(t)
	if err := os.WriteFile(path, []byte("editor: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvZoomStep, "2")
	t.Setenv(EnvMinZoom, "-1") // ignored
	t.Setenv(EnvTelemetryOptIn, "yes")
	t.Setenv(EnvStateDSN, "postgres://localhost/wbd")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/wbd.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.ZoomStep != 2 || cfg.Editor.MinZoom != 0.25 {
		t.Fatalf("editor env overrides wrong: %+v", cfg.Editor)
	}
	if !cfg.Telemetry.OptIn || cfg.State.DSN != "postgres://localhost/wbd" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if !cfg.Logging.Source || cfg.Logging.File != "/tmp/wbd.log" {
		t.Fatalf("logging env overrides wrong: %+v", cfg.Logging)
	}
	if env, ok := EnvOverrideFor("editor.zoom_step"); !ok || env != EnvZoomStep {
		t.Fatalf("EnvOverrideFor zoom_step = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("editor.grid_size"); ok {
		t.Fatalf("grid_size is not overridden")
	}
}
