/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry is an opt-in event sender for anonymous command usage
// and optional crash uploads. Nothing is sent unless the user opted in and
// an endpoint is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"widgetboard/internal/command"
	"widgetboard/internal/config"
	applog "widgetboard/internal/log"
	"widgetboard/internal/version"
)

// Environment variables read by FromEnv in addition to the config ones.
const (
	EnvCrashURL  = "WBD_CRASH_UPLOAD_URL"
	EnvTimeoutMS = "WBD_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "WBD_TELEMETRY_DEBUG"
)

// Config holds runtime configuration for telemetry and crash uploads.
type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	// Token is sent as a bearer token when set.
	Token        string
	Timeout      time.Duration
	DebugLogging bool
}

// FromEnv reads WBD_TELEMETRY_OPT_IN, WBD_TELEMETRY_URL and the variables above.
func FromEnv() Config {
	cfg := Config{
		OptIn:     parseBool(os.Getenv(config.EnvTelemetryOptIn)),
		EventsURL: strings.TrimSpace(os.Getenv(config.EnvTelemetryURL)),
	}
	applyEnv(&cfg)
	return cfg
}

// FromAppConfig builds a Config from the loaded user config and keyring
// token; crash URL, timeout and debug still come from the environment.
func FromAppConfig(tc config.TelemetryConfig, token string) Config {
	cfg := Config{OptIn: tc.OptIn, EventsURL: strings.TrimSpace(tc.Endpoint), Token: token}
	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	cfg.CrashURL = strings.TrimSpace(os.Getenv(EnvCrashURL))
	cfg.Timeout = 1500 * time.Millisecond
	cfg.DebugLogging = os.Getenv(EnvDebug) != ""
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMS)); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client is an async sender with a bounded queue; events are dropped when
// the queue is full or a send fails.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	q       chan any
	pending sync.WaitGroup
	once    sync.Once
	closed  chan struct{}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the package client, created from env on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault installs c as the package client and returns the previous one.
func SetDefault(c *Client) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultClient
	defaultClient = c
	return prev
}

func New(cfg Config) *Client {
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events are sent at all.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues a small JSON event. props must not carry personal data.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	c.pending.Add(1)
	select {
	case c.q <- payload:
	default:
		c.pending.Done()
	}
}

// CommandObserver returns a callback for command.Registry.OnExecute that
// reports each executed command id and section.
func (c *Client) CommandObserver() func(command.Executed) {
	return func(e command.Executed) {
		c.Event("command", map[string]any{"cmd": e.ID, "section": string(e.Section)})
	}
}

// Flush waits until queued events are sent or ctx is done, at most 500ms.
func (c *Client) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close stops the background sender.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.send(item)
			c.pending.Done()
		}
	}
}

func (c *Client) post(url, contentType string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) send(item any) {
	buf, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := c.post(c.cfg.EventsURL, "application/json", buf); err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.Any("err", err))
		}
		return
	}
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry event sent")
	}
}

// UploadCrash posts a crash report to the crash URL when opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	go func(b []byte) {
		if err := c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b); err != nil {
			if c.cfg.DebugLogging {
				c.log.Debug("crash upload failed", slog.Any("err", err))
			}
			return
		}
		if c.cfg.DebugLogging {
			c.log.Debug("crash report uploaded")
		}
	}(append([]byte(nil), report...))
}

// UploadCrash uses the default client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }
