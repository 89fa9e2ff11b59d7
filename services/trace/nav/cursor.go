// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package nav

import (
	"github.com/AleutianAI/tracescope/services/trace/diff"
	"github.com/AleutianAI/tracescope/services/trace/itf"
	"github.com/AleutianAI/tracescope/services/trace/value"
)

// =============================================================================
// Visible Nodes
// =============================================================================

// VisibleNode is one currently-rendered tree line: everything the renderer
// needs to choose glyphs, colors, and markers. The renderer never computes
// diffs or equality itself.
type VisibleNode struct {
	// Path addresses this node in the value tree.
	Path value.Path

	// Depth is the nesting level, 0 for top-level variables.
	Depth int

	// Label is the display name: variable name, field name, index, or key
	// preview.
	Label string

	// Value is the node's value in the current state.
	Value value.Value

	// Expandable reports whether the node has children.
	Expandable bool

	// Expanded reports whether the node is currently expanded.
	Expanded bool

	// Diff classifies the node for the transition into the current state.
	Diff diff.Node
}

// VisibleNodes computes the flattened node sequence for one state:
// depth-first pre-order over every visible variable's value tree, pruned at
// collapsed paths. Hidden variables are omitted entirely. idx may be the
// empty index (state 0).
//
// visible is the visible-variable set; nil means every variable is visible.
func VisibleNodes(st itf.State, vars []string, visible map[string]struct{},
	exp *ExpansionStore, idx *diff.Index) []VisibleNode {

	var out []VisibleNode
	for _, name := range vars {
		if visible != nil {
			if _, ok := visible[name]; !ok {
				continue
			}
		}
		v, ok := st.Values[name]
		if !ok {
			continue
		}
		out = appendVisible(out, value.VarPath(name), name, v, 0, exp, idx)
	}
	return out
}

func appendVisible(out []VisibleNode, p value.Path, label string, v value.Value,
	depth int, exp *ExpansionStore, idx *diff.Index) []VisibleNode {

	children := value.Children(v)
	node := VisibleNode{
		Path:       p,
		Depth:      depth,
		Label:      label,
		Value:      v,
		Expandable: len(children) > 0,
		Expanded:   len(children) > 0 && exp.IsExpanded(p),
	}
	if n, ok := idx.Lookup(p); ok {
		node.Diff = n
	}
	out = append(out, node)
	if !node.Expanded {
		return out
	}
	for _, c := range children {
		out = appendVisible(out, p.Append(c.Segment), c.Label, c.Value, depth+1, exp, idx)
	}
	return out
}

// =============================================================================
// Cursor
// =============================================================================

// Cursor is an index into the visible-node sequence. Movement clamps at the
// bounds; there is no wraparound. Across expansion-store mutations the
// cursor re-resolves by path, not by index.
type Cursor struct {
	pos int
}

// Pos is the cursor's index into the visible sequence.
func (c *Cursor) Pos() int { return c.pos }

// MoveUp moves the cursor up by n lines, clamped at 0.
func (c *Cursor) MoveUp(n int) {
	c.pos -= n
	if c.pos < 0 {
		c.pos = 0
	}
}

// MoveDown moves the cursor down by n lines, clamped at total-1.
func (c *Cursor) MoveDown(n, total int) {
	c.pos += n
	c.Clamp(total)
}

// Home moves the cursor to the first line.
func (c *Cursor) Home() { c.pos = 0 }

// End moves the cursor to the last line.
func (c *Cursor) End(total int) {
	c.pos = total - 1
	if c.pos < 0 {
		c.pos = 0
	}
}

// Clamp forces the cursor inside [0, total).
func (c *Cursor) Clamp(total int) {
	if c.pos >= total {
		c.pos = total - 1
	}
	if c.pos < 0 {
		c.pos = 0
	}
}

// ResolveByPath repositions the cursor at the node with the given path, or
// at its deepest visible ancestor when the exact path is no longer visible
// (for example after collapsing the cursor's parent). Reports whether any
// position was found.
func (c *Cursor) ResolveByPath(nodes []VisibleNode, p value.Path) bool {
	best := -1
	bestLen := -1
	for i, n := range nodes {
		if n.Path.Equal(p) {
			c.pos = i
			return true
		}
		if p.HasPrefix(n.Path) && n.Path.Len() > bestLen {
			best = i
			bestLen = n.Path.Len()
		}
	}
	if best >= 0 {
		c.pos = best
		return true
	}
	c.Clamp(len(nodes))
	return false
}
