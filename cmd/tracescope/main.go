// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command tracescope inspects ITF (Informal Trace Format) traces produced
// by model checkers such as Apalache and Quint.
//
// Usage:
//
//	tracescope view counterexample.itf.json
//	tracescope view --filter "msgBuffer changed" --watch run.itf.json
//	tracescope diff --from 3 --to 4 run.itf.json
//	tracescope info run.itf.json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tracescope/pkg/logging"
)

var config Config

var rootCmd = &cobra.Command{
	Use:   "tracescope",
	Short: "An interactive inspector for model-checker traces",
	Long: `tracescope loads ITF trace files and lets you step through states,
expand nested values, and see exactly what changed between steps.`,
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
	logDir     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tracescope/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for log files (empty disables file logging)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		config = loaded

		// CLI flags win over the config file.
		if logLevel != "" {
			config.LogLevel = logLevel
		}
		if logDir != "" {
			config.LogDir = logDir
		}
		return nil
	}
}

// newLogger builds the logger for a subcommand. TUI commands pass
// quiet=true so log output never corrupts the alternate screen.
func newLogger(service string, quiet bool) *logging.Logger {
	return logging.New(logging.Config{
		Level:   logging.ParseLevel(config.LogLevel),
		LogDir:  config.LogDir,
		Service: service,
		Quiet:   quiet,
	})
}
