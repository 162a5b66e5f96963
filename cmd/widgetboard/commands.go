/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"widgetboard/internal/command"
	"widgetboard/internal/config"
	"widgetboard/internal/editor"
	"widgetboard/internal/geom"
	"widgetboard/internal/scene"
	"widgetboard/internal/state"
	"widgetboard/internal/storage"
	"widgetboard/internal/telemetry"
	"widgetboard/internal/version"
)

// app carries what every subcommand needs.
type app struct {
	cfg       config.AppConfig
	telemetry *telemetry.Client
	size      geom.Size
	session   *editor.Session
}

func (a *app) handle() *storage.BoardHandle {
	if a.session == nil {
		return nil
	}
	return a.session.Handle()
}

// withSession opens the board in dir, runs fn and closes the session,
// saving whatever fn changed. A failing fn discards its changes.
func (a *app) withSession(cmd *cobra.Command, dir string, fn func(s *editor.Session) error) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := editor.Open(ctx, root, editor.Options{Config: a.cfg, Telemetry: a.telemetry, ViewportSize: a.size})
	if err != nil {
		return err
	}
	// left set while fn runs so a panic can autosave the board
	a.session = s
	if err := fn(s); err != nil {
		a.session = nil
		_ = s.Abort()
		return err
	}
	a.session = nil
	return s.Close(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "widgetboard",
		Short:         "WidgetBoard - headless editor for dashboard boards",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.telemetry != nil {
				a.telemetry.Flush(cmd.Context())
			}
		},
	}
	root.PersistentFlags().Float64Var(&a.size.Width, "width", 1280, "viewport width used by zoom commands")
	root.PersistentFlags().Float64Var(&a.size.Height, "height", 800, "viewport height used by zoom commands")

	root.AddCommand(
		newVersionCommand(),
		newInitCommand(),
		newInfoCommand(a),
		newAddCommand(a),
		newRemoveCommand(a),
		newBindCommand(a),
		newMoveCommand(a),
		newRunCommand(a),
		newKeyCommand(a),
		newViewCommand(a),
		newSectionsCommand(a),
		newSaveAsCommand(a),
		newCommandsCommand(),
		newZoomCommand(a),
		newFitCommand(a),
		newUndoCommand(a, false),
		newUndoCommand(a, true),
		newConfigCommand(a),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "WidgetBoard")
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newInitCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a new empty board in <dir>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(root)
			}
			h, err := storage.InitBoard(root, scene.NewDocument(name))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created board %q at %s\n", h.Board.Name, root)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "board name (defaults to the directory name)")
	return cmd
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <dir>",
		Short: "Print a board summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				printInfo(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
}

func printInfo(w io.Writer, s *editor.Session) {
	b := s.Board()
	fmt.Fprintf(w, "Board: %s (%s)\n", b.Name, b.ID)
	if s.Handle().Recovered {
		fmt.Fprintln(w, "Recovered from backup")
	}
	v := b.View
	fmt.Fprintf(w, "View: zoom=%s offset=%s,%s\n", num(v.Zoom), num(v.OffsetX), num(v.OffsetY))
	g := s.Store().Grid()
	fmt.Fprintf(w, "Grid: show=%t snap=%t guides=%t size=%s\n", g.Show, g.Snap, g.Guides, num(g.Size))
	fmt.Fprintf(w, "Elements: %d\n", len(b.Elements))
	for _, e := range b.Elements {
		printElement(w, e, "  ")
	}
	sig := b.Signals()
	if len(sig) > 0 {
		names := make([]string, 0, len(sig))
		for n := range sig {
			names = append(names, n)
		}
		slices.Sort(names)
		fmt.Fprintln(w, "Signals:")
		for _, n := range names {
			fmt.Fprintf(w, "  %s: %s\n", n, strings.Join(sig[n], ", "))
		}
	}
	fmt.Fprintf(w, "Undo: %t  Redo: %t\n", s.History().CanUndo(b.ID), s.History().CanRedo(b.ID))
	fmt.Fprintf(w, "State: %s\n", s.StateDriver())
}

func printElement(w io.Writer, e scene.Element, indent string) {
	r := e.Bounds()
	flags := ""
	if e.Locked {
		flags += " locked"
	}
	if e.Hidden {
		flags += " hidden"
	}
	fmt.Fprintf(w, "%s%s %-10s %-12q %s,%s %sx%s%s\n", indent, e.ID, e.Kind, e.Label,
		num(r.Left), num(r.Top), num(r.Width), num(r.Height), flags)
	for _, c := range e.Children {
		printElement(w, c, indent+"  ")
	}
}

func num(f float64) string { return strconv.FormatFloat(geom.Round(f, 3), 'f', -1, 64) }

func newAddCommand(a *app) *cobra.Command {
	var at, label string
	cmd := &cobra.Command{
		Use:   "add <dir> <kind>",
		Short: "Add an element (" + strings.Join(kindNames(), ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := scene.ParseKind(args[1])
			if err != nil {
				return err
			}
			x, y, err := parsePair(at)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				e, err := s.Add(k, x, y, label)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), e.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "0,0", "position as x,y in content units")
	cmd.Flags().StringVar(&label, "label", "", "element label")
	return cmd
}

func kindNames() []string {
	var out []string
	for _, k := range scene.Kinds() {
		out = append(out, string(k))
	}
	return out
}

func parsePair(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <dir> <id>",
		Short: "Remove a top-level element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *editor.Session) error { return s.Remove(args[1]) })
		},
	}
}

func newBindCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bind <dir> <id> <in|out> <port> [signal]",
		Short: "Bind an element port to a signal; omit the signal to unbind",
		Args:  cobra.RangeArgs(4, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			var output bool
			switch args[2] {
			case "in", "input":
			case "out", "output":
				output = true
			default:
				return fmt.Errorf("direction must be in or out, got %q", args[2])
			}
			signal := ""
			if len(args) == 5 {
				signal = args[4]
			}
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				return s.Bind(args[1], output, args[3], signal)
			})
		},
	}
}

func newMoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <dir> <id> <dx,dy>",
		Short: "Drag an element, honouring grid snap and smart guides",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dx, dy, err := parsePair(args[2])
			if err != nil {
				return err
			}
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				guides, err := s.Canvas().Move(args[1], dx, dy)
				if err != nil {
					return err
				}
				for _, g := range guides {
					fmt.Fprintf(cmd.OutOrStdout(), "guide %s %s at %s\n", g.Orientation, g.Kind, num(g.Position))
				}
				return nil
			})
		},
	}
}

func newRunCommand(a *app) *cobra.Command {
	var sel []string
	cmd := &cobra.Command{
		Use:   "run <dir> <command-id>...",
		Short: "Run editor commands against a selection",
		Long: `Runs one or more command ids (see "widgetboard commands") in order.
The selection is given with --select in selection order; without it every
visible element is selected.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				if err := s.Select(sel...); err != nil {
					return err
				}
				return execute(cmd.OutOrStdout(), s, args[1:]...)
			})
		},
	}
	cmd.Flags().StringSliceVar(&sel, "select", nil, "element ids to select, in order")
	return cmd
}

func newKeyCommand(a *app) *cobra.Command {
	var sel []string
	cmd := &cobra.Command{
		Use:   "key <dir> <combo>...",
		Short: "Press command hotkeys, e.g. alt+left or ctrl+shift+g",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				if err := s.Select(sel...); err != nil {
					return err
				}
				for _, combo := range args[1:] {
					ok, err := s.Press(combo)
					if err != nil {
						return err
					}
					state := "ok"
					if !ok {
						state = "no-op"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", combo, state)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&sel, "select", nil, "element ids to select, in order")
	return cmd
}

func execute(w io.Writer, s *editor.Session, ids ...string) error {
	res, err := s.Execute(ids...)
	for i, ok := range res {
		state := "ok"
		if !ok {
			state = "no-op"
		}
		fmt.Fprintf(w, "%s: %s\n", ids[i], state)
	}
	return err
}

func newCommandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List editor commands by section",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			reg := command.New()
			for _, sec := range reg.Sections() {
				fmt.Fprintf(w, "%s\n", sec.Title)
				for _, c := range reg.BySection(sec.ID) {
					fmt.Fprintf(w, "  %-24s %-18s %s\n", c.ID, c.Hotkey, c.Label)
				}
			}
		},
	}
}

func newZoomCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "zoom <dir> <in|out|actual|reset|fit>",
		Short:     "Change the board view",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"in", "out", "actual", "reset", "fit"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id := "zoom:" + args[1]
			if _, err := command.New().Get(id); err != nil {
				return fmt.Errorf("unknown zoom mode %q", args[1])
			}
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				if err := execute(cmd.OutOrStdout(), s, id); err != nil {
					return err
				}
				v := s.Board().View
				fmt.Fprintf(cmd.OutOrStdout(), "zoom=%s offset=%s,%s\n", num(v.Zoom), num(v.OffsetX), num(v.OffsetY))
				return nil
			})
		},
	}
}

func newFitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fit <dir>",
		Short: "Fit the view to the board content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				return execute(cmd.OutOrStdout(), s, "zoom:fit")
			})
		},
	}
}

func newUndoCommand(a *app, redo bool) *cobra.Command {
	use, short := "undo <dir>", "Undo the latest change"
	if redo {
		use, short = "redo <dir>", "Redo the latest undone change"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				step := s.Undo
				if redo {
					step = s.Redo
				}
				ok, err := step()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to "+strings.Fields(use)[0])
				}
				return nil
			})
		},
	}
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if p, err := config.ConfigPath(); err == nil {
				fmt.Fprintf(w, "# file: %s\n", p)
			}
			for _, key := range []string{"editor.min_zoom", "editor.max_zoom", "editor.zoom_step", "editor.fit_padding",
				"editor.grid_size", "state.driver", "state.dsn", "telemetry.opt_in", "telemetry.endpoint",
				"logging.level", "logging.format", "logging.source", "logging.file"} {
				if env, ok := config.EnvOverrideFor(key); ok {
					fmt.Fprintf(w, "# %s overridden by %s\n", key, env)
				}
			}
			out, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = w.Write(out)
			return err
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save",
			Short: "Write the effective configuration to the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.Save(a.cfg, ""); err != nil {
					return err
				}
				p, _ := config.ConfigPath()
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", p)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-token <token>",
			Short: "Store the telemetry token in the OS keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return config.SetToken(args[0])
			},
		},
		&cobra.Command{
			Use:   "clear-token",
			Short: "Remove the telemetry token from the OS keyring",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return config.ClearToken()
			},
		},
	)
	return cmd
}

func newViewCommand(a *app) *cobra.Command {
	var zoom, x, y float64
	cmd := &cobra.Command{
		Use:   "view <dir>",
		Short: "Set the view zoom and offset directly",
		Long:  `Only the given flags change; zoom is clamped to the configured limits.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flag := func(name string, v *float64) *float64 {
				if cmd.Flags().Changed(name) {
					return v
				}
				return nil
			}
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				s.SetView(flag("zoom", &zoom), flag("x", &x), flag("y", &y))
				v := s.Board().View
				fmt.Fprintf(cmd.OutOrStdout(), "zoom=%s offset=%s,%s\n", num(v.Zoom), num(v.OffsetX), num(v.OffsetY))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&zoom, "zoom", 1, "zoom factor")
	cmd.Flags().Float64Var(&x, "x", 0, "horizontal offset in screen pixels")
	cmd.Flags().Float64Var(&y, "y", 0, "vertical offset in screen pixels")
	return cmd
}

func newSectionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sections <dir> [section...]",
		Short: "Toggle sidebar sections and list their state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			known := command.New().Sections()
			for _, id := range args[1:] {
				if !slices.ContainsFunc(known, func(si command.SectionInfo) bool { return string(si.ID) == id }) {
					return fmt.Errorf("unknown section %q", id)
				}
			}
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				st := s.Store()
				for _, id := range args[1:] {
					st.ToggleSection(state.Section(id))
				}
				w := cmd.OutOrStdout()
				for _, si := range known {
					mark := " "
					if st.IsSectionOpen(si.ID) {
						mark = "x"
					}
					last, _ := st.LastCommand(si.ID)
					fmt.Fprintf(w, "[%s] %-10s %-14s %s\n", mark, si.ID, si.Title, last)
				}
				return nil
			})
		},
	}
}

func newSaveAsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save-as <dir> <new-dir>",
		Short: "Copy the board into a new directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *editor.Session) error {
				if err := s.SaveAs(args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", s.Handle().Path)
				return nil
			})
		},
	}
}
