// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for user-provided
// identifiers and file arguments.
//
// This package contains validators for CLI inputs that are used to select
// trace variables or open files. Validating up front produces clear error
// messages instead of silent empty views.
package validation

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// varNamePattern matches valid trace variable names.
// Allows: letters, digits, underscores; must not start with a digit.
// Matches the identifier rules of TLA+ and Quint specifications.
var varNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,127}$`)

// ValidateVarName validates a trace variable name supplied on the
// command line.
//
// Valid names:
//   - 1-128 characters
//   - Letters, digits, underscores
//   - First character is a letter or underscore
//
// Returns an error if the name is invalid.
//
// Example:
//
//	if err := validation.ValidateVarName(name); err != nil {
//	    return fmt.Errorf("invalid variable: %w", err)
//	}
func ValidateVarName(name string) error {
	if name == "" {
		return fmt.Errorf("variable name cannot be empty")
	}

	if !varNamePattern.MatchString(name) {
		return fmt.Errorf("invalid variable name: %q (must be a letter or underscore followed by letters, digits, or underscores)", name)
	}

	return nil
}

// ValidateVarNames validates multiple variable names.
// Returns an error listing all invalid names if any fail validation.
func ValidateVarNames(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateVarName(n); err != nil {
			invalid = append(invalid, n)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid variable names: %v", invalid)
	}
	return nil
}

// SplitVarNames parses a comma-separated --vars flag value into a
// validated, whitespace-trimmed list. Empty segments are rejected.
//
//	vars, err := validation.SplitVarNames("clock, msgBuffer")
func SplitVarNames(csv string) ([]string, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, fmt.Errorf("variable list cannot be empty")
	}

	parts := strings.Split(csv, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, strings.TrimSpace(p))
	}
	if err := ValidateVarNames(names); err != nil {
		return nil, err
	}
	return names, nil
}

// ValidateTraceFile checks that a trace file argument points at a
// readable regular file with a plausible extension.
//
// Accepted extensions: .itf.json, .json
func ValidateTraceFile(path string) error {
	if path == "" {
		return fmt.Errorf("trace file path cannot be empty")
	}

	if !strings.HasSuffix(path, ".json") {
		return fmt.Errorf("trace file must be a .json or .itf.json file: %q", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("trace file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("trace file is a directory: %q", path)
	}

	return nil
}
