// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tracescope/pkg/validation"
	"github.com/AleutianAI/tracescope/services/trace/diff"
	"github.com/AleutianAI/tracescope/services/trace/itf"
	"github.com/AleutianAI/tracescope/services/trace/value"
)

var infoCmd = &cobra.Command{
	Use:   "info [trace file]",
	Short: "Print a summary of a trace file",
	Long: `Prints the state count, declared variables with a preview of their
initial values, and which variables change at each step.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	tracePath := args[0]
	if err := validation.ValidateTraceFile(tracePath); err != nil {
		return err
	}

	tr, err := itf.Load(tracePath)
	if err != nil {
		return fmt.Errorf("loading trace: %w", err)
	}

	fmt.Print(formatInfo(tr))
	return nil
}

// formatInfo renders the info summary for a loaded trace.
func formatInfo(tr *itf.Trace) string {
	var b strings.Builder

	fmt.Fprintf(&b, "source: %s\n", tr.Source)
	if tr.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", tr.Description)
	}
	fmt.Fprintf(&b, "states: %d\n", tr.Len())
	fmt.Fprintf(&b, "variables: %d\n", len(tr.Vars))

	if tr.Len() > 0 {
		first := tr.State(0)
		for _, name := range tr.Vars {
			fmt.Fprintf(&b, "  %s = %s\n", name, value.Preview(first.Values[name]))
		}
	}

	cache := diff.NewCache(tr)
	for i := 1; i < tr.Len(); i++ {
		changed := cache.ChangedVars(i)
		if len(changed) == 0 {
			fmt.Fprintf(&b, "step %d -> %d: stuttering (no changes)\n", i-1, i)
			continue
		}
		fmt.Fprintf(&b, "step %d -> %d: %s\n", i-1, i, strings.Join(changed, ", "))
	}

	return b.String()
}
