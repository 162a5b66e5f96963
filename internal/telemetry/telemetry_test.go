/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"widgetboard/internal/command"
	"widgetboard/internal/config"
	"widgetboard/internal/state"
)

type recorder struct {
	mu      sync.Mutex
	events  []map[string]any
	crashes [][]byte
	auth    []string
}

func (r *recorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		r.mu.Lock()
		r.events = append(r.events, m)
		r.auth = append(r.auth, req.Header.Get("Authorization"))
		r.mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.crashes = append(r.crashes, b)
		r.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (r *recorder) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestClientEventAndUploadCrash(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Token: "s3cret", Timeout: 2 * time.Second})
	defer c.Close()
	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}

	c.Event("started", map[string]any{"k": "v"})
	c.Flush(context.Background())
	if rec.eventCount() != 1 {
		t.Fatalf("expected one event, got %d", rec.eventCount())
	}
	rec.mu.Lock()
	ev, auth := rec.events[0], rec.auth[0]
	rec.mu.Unlock()
	if ev["name"] != "started" || ev["k"] != "v" {
		t.Fatalf("unexpected event: %v", ev)
	}
	if _, ok := ev["ts"].(string); !ok {
		t.Fatalf("missing ts field")
	}
	if auth != "Bearer s3cret" {
		t.Fatalf("authorization header = %q", auth)
	}

	c.UploadCrash([]byte("STACKTRACE"))
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec.mu.Lock()
		n := len(rec.crashes)
		rec.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected crash upload to be sent")
}

func TestCommandObserverReportsExecutedCommands(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", Timeout: time.Second})
	defer c.Close()

	reg := command.New()
	reg.OnExecute(c.CommandObserver())
	store := state.New(nil)
	if ok, err := reg.Execute(command.Context{Store: store}, "grid:toggle"); !ok || err != nil {
		t.Fatalf("execute: %v %v", ok, err)
	}
	// a no-op is not reported
	if ok, _ := reg.Execute(command.Context{Store: store}, "align:left"); ok {
		t.Fatalf("align without canvas should be a no-op")
	}
	c.Flush(context.Background())

	if rec.eventCount() != 1 {
		t.Fatalf("expected one command event, got %d", rec.eventCount())
	}
	rec.mu.Lock()
	ev := rec.events[0]
	rec.mu.Unlock()
	if ev["name"] != "command" || ev["cmd"] != "grid:toggle" || ev["section"] != "grid" {
		t.Fatalf("unexpected command event: %v", ev)
	}
}

func TestClientDisabledAndEmptyEventName(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	if c.Enabled() {
		t.Fatalf("expected disabled client")
	}
	c.Event("ignored", nil)
	c.UploadCrash([]byte("ignored"))

	c2 := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	defer c2.Close()
	c2.Event("", nil)
	c2.Flush(nil)
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client must be disabled")
	}
}

func TestFromEnvAndAppConfig(t *testing.T) {
	t.Setenv(config.EnvTelemetryOptIn, "yes")
	t.Setenv(config.EnvTelemetryURL, " http://127.0.0.1:0/events ")
	t.Setenv(EnvCrashURL, "http://127.0.0.1:0/crash")
	t.Setenv(EnvTimeoutMS, "100")

	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "http://127.0.0.1:0/events" || cfg.Timeout != 100*time.Millisecond || cfg.CrashURL == "" {
		t.Fatalf("FromEnv did not parse correctly: %+v", cfg)
	}

	ac := FromAppConfig(config.TelemetryConfig{OptIn: true, Endpoint: "https://t.example/e"}, "tok")
	if !ac.OptIn || ac.EventsURL != "https://t.example/e" || ac.Token != "tok" || ac.Timeout != 100*time.Millisecond {
		t.Fatalf("FromAppConfig = %+v", ac)
	}

	c := New(cfg)
	prev := SetDefault(c)
	defer func() {
		SetDefault(prev)
		c.Close()
	}()
	if Default() != c || !Default().Enabled() {
		t.Fatalf("default client not installed")
	}
}

// an unroutable address drives the send error paths
func TestFlushDrainsFailedSends(t *testing.T) {
	c := New(Config{
		OptIn:        true,
		EventsURL:    "http://127.0.0.1:1/events",
		CrashURL:     "http://127.0.0.1:1/crash",
		Timeout:      50 * time.Millisecond,
		DebugLogging: true,
	})
	defer c.Close()

	c.Event("err", map[string]any{"a": 1})
	start := time.Now()
	c.Flush(context.Background())
	if el := time.Since(start); el >= 450*time.Millisecond {
		t.Fatalf("flush waited %v for a failed send", el)
	}
	c.UploadCrash([]byte("oops"))
}

func TestFlushIsBoundedWhenSendsStall(t *testing.T) {
	release := make(chan struct{})
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", Timeout: 5 * time.Second})
	defer c.Close()
	c.Event("stall", nil)

	start := time.Now()
	c.Flush(context.Background())
	el := time.Since(start)
	if el < 400*time.Millisecond || el > 2*time.Second {
		t.Fatalf("flush returned after %v, want about 500ms", el)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("stalled request not in flight: hits=%d", n)
	}
}
