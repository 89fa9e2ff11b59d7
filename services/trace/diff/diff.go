// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diff computes structural diffs between trace states.
//
// # Description
//
// The engine is a pure function from two values of the same variable to a
// path-indexed classification (Added, Removed, Modified, Unchanged). It is
// total: kind mismatches are valid output (Modified), never errors. The
// Cache precomputes one Index per consecutive state pair at load time so
// no downstream component ever re-derives a diff.
//
// # Dispatch Policy
//
// Sequences and tuples diff positionally: element i against element i, the
// tail of the longer side reported as pure adds or removes. A mid-sequence
// insertion therefore marks every shifted position Modified. This is the
// intended cheap, deterministic policy, not an alignment diff. Sets diff by
// content: a changed member surfaces as remove-old plus add-new. Variants
// with different tags are a single Modified node; equal tags recurse into
// the payload at the same path.
//
// # Thread Safety
//
// Indexes and Caches are immutable once built; concurrent reads are safe.
package diff

import (
	"github.com/AleutianAI/tracescope/services/trace/value"
)

// =============================================================================
// Diff Nodes
// =============================================================================

// Kind classifies how one path changed across a state transition.
type Kind int

const (
	// Unchanged means the value at this path is structurally equal across
	// the transition.
	Unchanged Kind = iota

	// Added means the path exists only in the current state.
	Added

	// Removed means the path exists only in the previous state.
	Removed

	// Modified means the path exists on both sides with different content.
	Modified
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Node is the per-path diff classification.
//
// ChangedWithin is set only on Unchanged nodes: it means the node's own
// representation did not change but some descendant did, which drives the
// "contains changes" marker on a collapsed ancestor.
type Node struct {
	Kind          Kind
	ChangedWithin bool
}

// Changed reports whether this node or anything beneath it differs.
func (n Node) Changed() bool {
	return n.Kind != Unchanged || n.ChangedWithin
}

// =============================================================================
// Index
// =============================================================================

// Index maps every path present in either side's traversal to exactly one
// Node, for a single state transition.
type Index struct {
	nodes map[string]Node
	paths map[string]value.Path
	order []value.Path
}

// NewIndex returns an empty index. The first state of a trace uses an empty
// index: it has no predecessor, so nothing is classified.
func NewIndex() *Index {
	return &Index{
		nodes: make(map[string]Node),
		paths: make(map[string]value.Path),
	}
}

// Lookup returns the node recorded for p, if any.
func (x *Index) Lookup(p value.Path) (Node, bool) {
	n, ok := x.nodes[p.Key()]
	return n, ok
}

// Len is the number of recorded paths.
func (x *Index) Len() int { return len(x.nodes) }

// Paths returns every recorded path in insertion (pre-order) order. The
// slice must not be mutated by callers.
func (x *Index) Paths() []value.Path { return x.order }

// Touches reports whether p, an ancestor of p, or a descendant of p changed
// in this transition. Paths absent from the index resolve through their
// nearest recorded ancestor, which covers locations inside Modified
// subtrees that the engine does not recurse into.
func (x *Index) Touches(p value.Path) bool {
	if n, ok := x.nodes[p.Key()]; ok {
		return n.Changed()
	}
	for parent, ok := p.Parent(); ok; parent, ok = parent.Parent() {
		if n, found := x.nodes[parent.Key()]; found {
			return n.Kind != Unchanged
		}
	}
	return false
}

func (x *Index) set(p value.Path, n Node) {
	key := p.Key()
	if _, seen := x.nodes[key]; !seen {
		x.order = append(x.order, p)
		x.paths[key] = p
	}
	x.nodes[key] = n
}

// =============================================================================
// Engine
// =============================================================================

// Compute diffs one variable's value across a state transition, rooted at
// prefix. Pure and total: it never fails for well-formed values.
func Compute(prev, curr value.Value, prefix value.Path) *Index {
	idx := NewIndex()
	diffValue(idx, prev, curr, prefix)
	return idx
}

// ComputeState diffs every variable of a state pair into one Index, in
// declaration order.
func ComputeState(vars []string, prev, curr map[string]value.Value) *Index {
	idx := NewIndex()
	for _, name := range vars {
		diffValue(idx, prev[name], curr[name], value.VarPath(name))
	}
	return idx
}

// diffValue classifies the subtree at path and reports whether any node in
// it (itself included) is non-Unchanged.
func diffValue(idx *Index, prev, curr value.Value, path value.Path) bool {
	if prev == nil && curr == nil {
		return false
	}
	if prev == nil {
		markSubtree(idx, curr, path, Added)
		return true
	}
	if curr == nil {
		markSubtree(idx, prev, path, Removed)
		return true
	}

	if prev.Kind() != curr.Kind() {
		// A kind change is itself a modification, not removal plus addition.
		idx.set(path, Node{Kind: Modified})
		return true
	}

	switch pv := prev.(type) {
	case value.Integer, value.Boolean, value.String:
		if value.Equal(prev, curr) {
			idx.set(path, Node{Kind: Unchanged})
			return false
		}
		idx.set(path, Node{Kind: Modified})
		return true

	case value.Sequence:
		return diffPositional(idx, pv, curr.(value.Sequence), path)

	case value.Tuple:
		return diffPositional(idx, pv, curr.(value.Tuple), path)

	case value.Set:
		return diffSet(idx, pv, curr.(value.Set), path)

	case value.Map:
		return diffMap(idx, pv, curr.(value.Map), path)

	case value.Record:
		return diffRecord(idx, pv, curr.(value.Record), path)

	case value.Variant:
		cv := curr.(value.Variant)
		if pv.Tag != cv.Tag {
			idx.set(path, Node{Kind: Modified})
			return true
		}
		// Equal tags: the payload lives at the variant's own path.
		return diffValue(idx, pv.Payload, cv.Payload, path)

	default:
		idx.set(path, Node{Kind: Modified})
		return true
	}
}

// diffPositional compares sequences and tuples index-wise: shared positions
// recurse, the longer side's tail is a pure add or remove.
func diffPositional(idx *Index, prev, curr []value.Value, path value.Path) bool {
	changed := false
	shared := len(prev)
	if len(curr) < shared {
		shared = len(curr)
	}
	idx.set(path, Node{Kind: Unchanged})
	for i := 0; i < shared; i++ {
		if diffValue(idx, prev[i], curr[i], path.Append(value.IndexSegment(i))) {
			changed = true
		}
	}
	for i := shared; i < len(prev); i++ {
		markSubtree(idx, prev[i], path.Append(value.IndexSegment(i)), Removed)
		changed = true
	}
	for i := shared; i < len(curr); i++ {
		markSubtree(idx, curr[i], path.Append(value.IndexSegment(i)), Added)
		changed = true
	}
	idx.set(path, Node{Kind: Unchanged, ChangedWithin: changed})
	return changed
}

// diffSet computes prev\curr as removes, curr\prev as adds, and the
// intersection as unchanged subtrees. Both sides are already in canonical
// order, so a single merge pass suffices.
func diffSet(idx *Index, prev, curr value.Set, path value.Path) bool {
	changed := false
	idx.set(path, Node{Kind: Unchanged})
	pe, ce := prev.Elems(), curr.Elems()
	i, j := 0, 0
	for i < len(pe) && j < len(ce) {
		switch c := value.Compare(pe[i], ce[j]); {
		case c == 0:
			markSubtree(idx, ce[j], path.Append(value.KeySegment(ce[j])), Unchanged)
			i++
			j++
		case c < 0:
			markSubtree(idx, pe[i], path.Append(value.KeySegment(pe[i])), Removed)
			changed = true
			i++
		default:
			markSubtree(idx, ce[j], path.Append(value.KeySegment(ce[j])), Added)
			changed = true
			j++
		}
	}
	for ; i < len(pe); i++ {
		markSubtree(idx, pe[i], path.Append(value.KeySegment(pe[i])), Removed)
		changed = true
	}
	for ; j < len(ce); j++ {
		markSubtree(idx, ce[j], path.Append(value.KeySegment(ce[j])), Added)
		changed = true
	}
	idx.set(path, Node{Kind: Unchanged, ChangedWithin: changed})
	return changed
}

// diffMap recurses by key over the union of both key sets, exactly as
// records do by field name. Duplicate keys resolve to first occurrence.
func diffMap(idx *Index, prev, curr value.Map, path value.Path) bool {
	changed := false
	idx.set(path, Node{Kind: Unchanged})
	pe, ce := prev.EffectiveEntries(), curr.EffectiveEntries()
	i, j := 0, 0
	for i < len(pe) && j < len(ce) {
		switch c := value.Compare(pe[i].Key, ce[j].Key); {
		case c == 0:
			if diffValue(idx, pe[i].Val, ce[j].Val, path.Append(value.KeySegment(ce[j].Key))) {
				changed = true
			}
			i++
			j++
		case c < 0:
			markSubtree(idx, pe[i].Val, path.Append(value.KeySegment(pe[i].Key)), Removed)
			changed = true
			i++
		default:
			markSubtree(idx, ce[j].Val, path.Append(value.KeySegment(ce[j].Key)), Added)
			changed = true
			j++
		}
	}
	for ; i < len(pe); i++ {
		markSubtree(idx, pe[i].Val, path.Append(value.KeySegment(pe[i].Key)), Removed)
		changed = true
	}
	for ; j < len(ce); j++ {
		markSubtree(idx, ce[j].Val, path.Append(value.KeySegment(ce[j].Key)), Added)
		changed = true
	}
	idx.set(path, Node{Kind: Unchanged, ChangedWithin: changed})
	return changed
}

func diffRecord(idx *Index, prev, curr value.Record, path value.Path) bool {
	changed := false
	idx.set(path, Node{Kind: Unchanged})
	seen := make(map[string]struct{}, len(prev))
	for _, name := range prev.FieldNames() {
		seen[name] = struct{}{}
		child := path.Append(value.FieldSegment(name))
		if cv, ok := curr[name]; ok {
			if diffValue(idx, prev[name], cv, child) {
				changed = true
			}
		} else {
			markSubtree(idx, prev[name], child, Removed)
			changed = true
		}
	}
	for _, name := range curr.FieldNames() {
		if _, ok := seen[name]; ok {
			continue
		}
		markSubtree(idx, curr[name], path.Append(value.FieldSegment(name)), Added)
		changed = true
	}
	idx.set(path, Node{Kind: Unchanged, ChangedWithin: changed})
	return changed
}

// markSubtree records kind for every path in v's traversal. Used for whole
// added or removed subtrees and for unchanged set members, so that the index
// covers the full traversal of both sides.
func markSubtree(idx *Index, v value.Value, path value.Path, kind Kind) {
	value.Walk(v, path, func(p value.Path, _ value.Value) bool {
		idx.set(p, Node{Kind: kind})
		return true
	})
}
