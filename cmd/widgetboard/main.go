/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"

	"widgetboard/internal/config"
	"widgetboard/internal/crash"
	applog "widgetboard/internal/log"
	"widgetboard/internal/storage"
	"widgetboard/internal/telemetry"
)

func main() {
	cfg, token, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		AddSource:  cfg.Logging.Source,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}

	tc := telemetry.New(telemetry.FromAppConfig(cfg.Telemetry, token))
	telemetry.SetDefault(tc)
	defer tc.Close()

	a := &app{cfg: cfg, telemetry: tc}
	defer crash.Recover(func() *storage.BoardHandle { return a.handle() })

	if err := newRootCommand(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		l.Debug("command failed", slog.Any("err", err))
		os.Exit(1)
	}
}
