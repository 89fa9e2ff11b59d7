// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package itf

import (
	"errors"
	"fmt"
)

// Sentinel errors for trace loading.
var (
	// ErrEmptyTrace indicates the trace document contains no states.
	ErrEmptyTrace = errors.New("trace contains no states")

	// ErrNotAnObject indicates the document root is not a JSON object.
	ErrNotAnObject = errors.New("trace document is not a JSON object")
)

// MalformedValueError reports a JSON shape the ITF value decoder does not
// recognize. It is fatal to loading and names the offending location.
type MalformedValueError struct {
	// Path locates the bad value inside the document, e.g.
	// "states[3].msgBuffer.#map[1]".
	Path string

	// Reason describes what was wrong with the shape.
	Reason string
}

// Error implements error.
func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed value at %s: %s", e.Path, e.Reason)
}

// InconsistentVariablesError reports a state whose variable set differs
// from the trace's declared variable set. It is fatal to loading.
type InconsistentVariablesError struct {
	// StateIndex is the position of the offending state.
	StateIndex int

	// Missing lists declared variables absent from the state.
	Missing []string

	// Extra lists undeclared variables present in the state.
	Extra []string
}

// Error implements error.
func (e *InconsistentVariablesError) Error() string {
	return fmt.Sprintf("state %d has an inconsistent variable set (missing %v, extra %v)",
		e.StateIndex, e.Missing, e.Extra)
}
