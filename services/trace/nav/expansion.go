// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package nav holds the view-independent navigation state of a trace
// session: which tree paths are expanded, the flattened visible-node
// sequence, and the cursor within it.
package nav

import (
	"github.com/AleutianAI/tracescope/services/trace/value"
)

// ExpansionStore records which tree paths are currently expanded.
//
// # Description
//
// The store is global to the trace, not per-state: navigating states never
// mutates it. Unseen paths are collapsed by default, which pairs with the
// auto-collapse-unchanged display strategy. All operations are O(1)
// amortized and never fail.
type ExpansionStore struct {
	expanded map[string]struct{}
}

// NewExpansionStore returns an empty store: everything collapsed.
func NewExpansionStore() *ExpansionStore {
	return &ExpansionStore{expanded: make(map[string]struct{})}
}

// IsExpanded reports whether p is expanded. Unseen paths are collapsed.
func (s *ExpansionStore) IsExpanded(p value.Path) bool {
	_, ok := s.expanded[p.Key()]
	return ok
}

// Expand marks p expanded.
func (s *ExpansionStore) Expand(p value.Path) {
	s.expanded[p.Key()] = struct{}{}
}

// Collapse marks p collapsed.
func (s *ExpansionStore) Collapse(p value.Path) {
	delete(s.expanded, p.Key())
}

// Toggle flips p's expansion.
func (s *ExpansionStore) Toggle(p value.Path) {
	if s.IsExpanded(p) {
		s.Collapse(p)
	} else {
		s.Expand(p)
	}
}

// Clear collapses everything.
func (s *ExpansionStore) Clear() {
	s.expanded = make(map[string]struct{})
}

// Len is the number of expanded paths.
func (s *ExpansionStore) Len() int { return len(s.expanded) }

// ExpandPaths expands every given path.
func (s *ExpansionStore) ExpandPaths(paths []value.Path) {
	for _, p := range paths {
		s.Expand(p)
	}
}

// ExpandToReveal expands every prefix of every given path, so that each
// path's node is visible in the tree. Used by auto-expand to reveal all
// changes after state navigation.
func (s *ExpansionStore) ExpandToReveal(paths []value.Path) {
	for _, p := range paths {
		for n := 1; n <= p.Len(); n++ {
			s.Expand(p.Prefix(n))
		}
	}
}
