// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diff

import (
	"sort"

	"github.com/AleutianAI/tracescope/services/trace/itf"
)

// Cache holds one precomputed Index per state transition plus the derived
// per-state changed-variable sets.
//
// # Description
//
// Built once at load time, read-only afterwards. Step(0) is always the
// empty index: the first state has no predecessor, every node is initial
// rather than diffed. The changed-variable sets give the filter engine an
// O(1) membership test for its changed predicate; the full-depth indexes
// stay available for deep-path queries.
type Cache struct {
	steps       []*Index
	changedVars []map[string]struct{}
}

// NewCache computes the diff of every consecutive state pair of tr.
func NewCache(tr *itf.Trace) *Cache {
	c := &Cache{
		steps:       make([]*Index, tr.Len()),
		changedVars: make([]map[string]struct{}, tr.Len()),
	}
	c.steps[0] = NewIndex()
	c.changedVars[0] = map[string]struct{}{}
	for i := 1; i < tr.Len(); i++ {
		idx := ComputeState(tr.Vars, tr.States[i-1].Values, tr.States[i].Values)
		c.steps[i] = idx
		c.changedVars[i] = topLevelChanged(idx)
	}
	return c
}

// Len is the number of states covered.
func (c *Cache) Len() int { return len(c.steps) }

// Step returns the index for the transition into state i.
func (c *Cache) Step(i int) *Index { return c.steps[i] }

// VarChanged reports whether the named top-level variable changed anywhere
// in the transition into state i.
func (c *Cache) VarChanged(i int, name string) bool {
	if i < 0 || i >= len(c.changedVars) {
		return false
	}
	_, ok := c.changedVars[i][name]
	return ok
}

// ChangedVars returns the sorted names of variables that changed in the
// transition into state i.
func (c *Cache) ChangedVars(i int) []string {
	if i < 0 || i >= len(c.changedVars) {
		return nil
	}
	names := make([]string, 0, len(c.changedVars[i]))
	for name := range c.changedVars[i] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AnyChanged reports whether the transition into state i changed anything.
func (c *Cache) AnyChanged(i int) bool {
	return i >= 0 && i < len(c.changedVars) && len(c.changedVars[i]) > 0
}

// topLevelChanged truncates every changed path to its top-level variable.
func topLevelChanged(idx *Index) map[string]struct{} {
	vars := make(map[string]struct{})
	for _, p := range idx.Paths() {
		n, _ := idx.Lookup(p)
		if n.Changed() {
			vars[p.VarName()] = struct{}{}
		}
	}
	return vars
}
