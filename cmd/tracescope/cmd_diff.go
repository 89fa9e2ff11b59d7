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
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/tracescope/pkg/validation"
	"github.com/AleutianAI/tracescope/services/trace/diff"
	"github.com/AleutianAI/tracescope/services/trace/itf"
)

var (
	diffFrom int
	diffTo   int

	diffCmd = &cobra.Command{
		Use:   "diff [trace file]",
		Short: "Print the changes between two states of a trace",
		Long: `Computes the structural diff between two states and prints one
line per added, removed, or modified path. Suitable for scripts and CI:
color is disabled automatically when stdout is not a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: runDiff,
	}
)

func init() {
	diffCmd.Flags().IntVar(&diffFrom, "from", 0, "Index of the earlier state")
	diffCmd.Flags().IntVar(&diffTo, "to", -1, "Index of the later state (default from+1)")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	tracePath := args[0]
	if err := validation.ValidateTraceFile(tracePath); err != nil {
		return err
	}

	logger := newLogger("diff", false)
	defer logger.Close()

	tr, err := itf.Load(tracePath)
	if err != nil {
		return fmt.Errorf("loading trace: %w", err)
	}

	to := diffTo
	if to < 0 {
		to = diffFrom + 1
	}
	if diffFrom < 0 || diffFrom >= tr.Len() {
		return fmt.Errorf("--from %d out of range (trace has %d states)", diffFrom, tr.Len())
	}
	if to >= tr.Len() {
		return fmt.Errorf("--to %d out of range (trace has %d states)", to, tr.Len())
	}
	if to <= diffFrom {
		return fmt.Errorf("--to %d must be greater than --from %d", to, diffFrom)
	}

	logger.Debug("computing diff", "from", diffFrom, "to", to)
	idx := diff.ComputeState(tr.Vars, tr.State(diffFrom).Values, tr.State(to).Values)

	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	fmt.Print(formatDiff(idx, diffFrom, to, color))
	return nil
}

var (
	diffAddedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	diffRemovedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	diffModifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
)

// formatDiff renders a diff index as one line per changed path, in the
// diff engine's traversal order. Unchanged paths are omitted.
func formatDiff(idx *diff.Index, from, to int, color bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "state %d -> state %d\n", from, to)

	count := 0
	for _, p := range idx.Paths() {
		node, ok := idx.Lookup(p)
		if !ok || !node.Changed() {
			continue
		}
		count++

		var symbol string
		var style lipgloss.Style
		switch node.Kind {
		case diff.Added:
			symbol, style = "+", diffAddedStyle
		case diff.Removed:
			symbol, style = "-", diffRemovedStyle
		default:
			symbol, style = "~", diffModifiedStyle
		}

		line := fmt.Sprintf("%s %s", symbol, p.String())
		if color {
			line = style.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if count == 0 {
		b.WriteString("no changes\n")
	} else {
		fmt.Fprintf(&b, "%d changed path(s)\n", count)
	}
	return b.String()
}
