// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package filter

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery indicates the query text was blank.
var ErrEmptyQuery = errors.New("empty query")

// InvalidQueryError reports a query that failed to compile. It names the
// offending token and its byte position so the UI can surface an inline
// message; the prior filter state is retained by the caller.
type InvalidQueryError struct {
	// Position is the byte offset of the offending token.
	Position int

	// Token is the offending token text, or "" at end of input.
	Token string

	// Reason describes what was expected.
	Reason string
}

// Error implements error.
func (e *InvalidQueryError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("invalid query at position %d: %s", e.Position, e.Reason)
	}
	return fmt.Sprintf("invalid query at position %d near %q: %s", e.Position, e.Token, e.Reason)
}
