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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"widgetboard/internal/viewport"

	"gopkg.in/yaml.v3"
)

type EditorConfig struct {
	MinZoom    float64 `yaml:"min_zoom"`
	MaxZoom    float64 `yaml:"max_zoom"`
	ZoomStep   float64 `yaml:"zoom_step"`
	FitPadding float64 `yaml:"fit_padding"`
	GridSize   float64 `yaml:"grid_size"`
	// GuideThreshold is the smart-guide snap distance in content units.
	GuideThreshold float64 `yaml:"guide_threshold"`
}

type TelemetryConfig struct {
	OptIn    bool   `yaml:"opt_in"`
	Endpoint string `yaml:"endpoint"`
	// The bearer token is not stored on disk; it lives in the OS keychain.
}

type StateConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "pgx"
	DSN    string `yaml:"dsn"`    // empty means <board root>/.wbd/state.sqlite
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
	// rotation limits for File
	MaxSizeMB  int `yaml:"max_size_mb,omitempty"`
	MaxBackups int `yaml:"max_backups,omitempty"`
}

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	Editor        EditorConfig    `yaml:"editor"`
	State         StateConfig     `yaml:"state"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor: EditorConfig{
			MinZoom:        viewport.DefaultMinZoom,
			MaxZoom:        viewport.DefaultMaxZoom,
			ZoomStep:       1.2,
			FitPadding:     40,
			GridSize:       20,
			GuideThreshold: 6,
		},
		State:     StateConfig{Driver: "sqlite"},
		Telemetry: TelemetryConfig{OptIn: false},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
	}
}

// Limits returns the configured zoom limits.
func (e EditorConfig) Limits() viewport.Limits {
	return viewport.Limits{Min: e.MinZoom, Max: e.MaxZoom}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "WBD_CONFIG"
	EnvMinZoom        = "WBD_MIN_ZOOM"
	EnvMaxZoom        = "WBD_MAX_ZOOM"
	EnvZoomStep       = "WBD_ZOOM_STEP"
	EnvFitPadding     = "WBD_FIT_PADDING"
	EnvGridSize       = "WBD_GRID_SIZE"
	EnvStateDriver    = "WBD_STATE_DRIVER"
	EnvStateDSN       = "WBD_STATE_DSN"
	EnvTelemetryOptIn = "WBD_TELEMETRY_OPT_IN"
	EnvTelemetryURL   = "WBD_TELEMETRY_URL"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "WBD_LOG_LEVEL"
	EnvLogFormat = "WBD_LOG_FORMAT"
	EnvLogSource = "WBD_LOG_SOURCE"
	EnvLogFile   = "WBD_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "WidgetBoard"
	keyringToken   = "telemetry_token"
)

// tokenStore abstracts the keyring so tests can stub it.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SetTokenStore replaces the keyring backend and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// ConfigPath returns the per-user config file path. WBD_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "WidgetBoard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "WidgetBoard")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "widgetboard")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and merges
// environment overrides. The telemetry token comes from the keyring and is
// returned separately. A malformed file is an error; a missing one is not.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		return SetToken(token)
	}
	return nil
}

// SetToken stores the telemetry token in the OS keyring.
func SetToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("empty telemetry token")
	}
	if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
		return fmt.Errorf("store telemetry token: %w", err)
	}
	return nil
}

// ClearToken removes the telemetry token from the keyring.
func ClearToken() error { return tokenStore.Delete(keyringService, keyringToken) }

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// editor: zero means "not set in file"
	setPositive(&dst.Editor.MinZoom, src.Editor.MinZoom)
	setPositive(&dst.Editor.MaxZoom, src.Editor.MaxZoom)
	setPositive(&dst.Editor.ZoomStep, src.Editor.ZoomStep)
	setPositive(&dst.Editor.FitPadding, src.Editor.FitPadding)
	setPositive(&dst.Editor.GridSize, src.Editor.GridSize)
	setPositive(&dst.Editor.GuideThreshold, src.Editor.GuideThreshold)
	if d := strings.ToLower(strings.TrimSpace(src.State.Driver)); d != "" {
		dst.State.Driver = d
	}
	if s := strings.TrimSpace(src.State.DSN); s != "" {
		dst.State.DSN = s
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Telemetry.OptIn = src.Telemetry.OptIn
	if s := strings.TrimSpace(src.Telemetry.Endpoint); s != "" {
		dst.Telemetry.Endpoint = s
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	if src.Logging.MaxSizeMB > 0 {
		dst.Logging.MaxSizeMB = src.Logging.MaxSizeMB
	}
	if src.Logging.MaxBackups > 0 {
		dst.Logging.MaxBackups = src.Logging.MaxBackups
	}
}

func setPositive(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func envFloat(key string, dst *float64) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		*dst = f
	}
}

func envBool(key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	lv := strings.ToLower(v)
	*dst = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	envFloat(EnvMinZoom, &cfg.Editor.MinZoom)
	envFloat(EnvMaxZoom, &cfg.Editor.MaxZoom)
	envFloat(EnvZoomStep, &cfg.Editor.ZoomStep)
	envFloat(EnvFitPadding, &cfg.Editor.FitPadding)
	envFloat(EnvGridSize, &cfg.Editor.GridSize)
	if v := strings.TrimSpace(os.Getenv(EnvStateDriver)); v != "" {
		cfg.State.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStateDSN)); v != "" {
		cfg.State.DSN = v
	}
	envBool(EnvTelemetryOptIn, &cfg.Telemetry.OptIn)
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryURL)); v != "" {
		cfg.Telemetry.Endpoint = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	envBool(EnvLogSource, &cfg.Logging.Source)
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"editor.min_zoom":    EnvMinZoom,
	"editor.max_zoom":    EnvMaxZoom,
	"editor.zoom_step":   EnvZoomStep,
	"editor.fit_padding": EnvFitPadding,
	"editor.grid_size":   EnvGridSize,
	"state.driver":       EnvStateDriver,
	"state.dsn":          EnvStateDSN,
	"telemetry.opt_in":   EnvTelemetryOptIn,
	"telemetry.endpoint": EnvTelemetryURL,
	"logging.level":      EnvLogLevel,
	"logging.format":     EnvLogFormat,
	"logging.source":     EnvLogSource,
	"logging.file":       EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
