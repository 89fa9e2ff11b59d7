// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/tracescope/pkg/validation"
	"github.com/AleutianAI/tracescope/services/trace"
	"github.com/AleutianAI/tracescope/services/trace/itf"
	"github.com/AleutianAI/tracescope/services/trace/tui"
)

var (
	viewAutoExpand bool
	viewWatch      bool
	viewFilter     string
	viewVars       string

	viewCmd = &cobra.Command{
		Use:   "view [trace file]",
		Short: "Open a trace in the interactive inspector",
		Long: `Opens an ITF trace file in a terminal UI. Navigate states with
left/right, move the cursor with up/down, expand values with enter,
and press / to filter states with a query like "msgBuffer changed".`,
		Args: cobra.ExactArgs(1),
		RunE: runView,
	}
)

func init() {
	viewCmd.Flags().BoolVar(&viewAutoExpand, "auto-expand", false, "Expand changed paths on every state change")
	viewCmd.Flags().BoolVar(&viewWatch, "watch", false, "Reload the trace when the file changes")
	viewCmd.Flags().StringVar(&viewFilter, "filter", "", `Initial filter query, e.g. "clock > 3"`)
	viewCmd.Flags().StringVar(&viewVars, "vars", "", "Comma-separated variables to show (default all)")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	tracePath := args[0]
	if err := validation.ValidateTraceFile(tracePath); err != nil {
		return err
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("view requires an interactive terminal; use 'tracescope diff' for scripted output")
	}

	var visibleVars []string
	if viewVars != "" {
		names, err := validation.SplitVarNames(viewVars)
		if err != nil {
			return err
		}
		visibleVars = names
	}

	tr, err := itf.Load(tracePath)
	if err != nil {
		return fmt.Errorf("loading trace: %w", err)
	}
	for _, name := range visibleVars {
		if !tr.HasVar(name) {
			return fmt.Errorf("trace has no variable %q (declared: %v)", name, tr.Vars)
		}
	}

	// File logging only: the TUI owns the terminal.
	root := newLogger("view", true)
	defer root.Close()
	logger := root.With("session_id", uuid.NewString()[:8])
	logger.Info("trace loaded",
		"path", tracePath,
		"states", tr.Len(),
		"vars", len(tr.Vars))

	session := trace.NewSession(tr, trace.SessionConfig{
		AutoExpand:  viewAutoExpand || config.AutoExpand,
		VisibleVars: visibleVars,
	})

	model := tui.NewModel(session, tracePath, tui.Config{
		Watch:         viewWatch || config.Watch,
		InitialFilter: viewFilter,
		WheelStep:     config.MouseWheelStep,
	}, logger)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running inspector: %w", err)
	}
	return nil
}
