// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package trace owns the application state of one trace-inspection session:
// the loaded trace, the precomputed diff cache, the expansion store, the
// filter, and the cursor. The TUI and the batch commands sit on top of this
// package and never re-derive diffs or equality themselves.
//
// # Concurrency
//
// Sessions are single-threaded by design. The diff cache is fully built in
// NewSession before any navigation or filter operation can run; every
// subsequent access is read-only. There are no locks because there is no
// concurrent mutation path.
package trace

import (
	"github.com/AleutianAI/tracescope/services/trace/diff"
	"github.com/AleutianAI/tracescope/services/trace/filter"
	"github.com/AleutianAI/tracescope/services/trace/itf"
	"github.com/AleutianAI/tracescope/services/trace/nav"
	"github.com/AleutianAI/tracescope/services/trace/value"
)

// SessionConfig controls initial session behavior.
type SessionConfig struct {
	// AutoExpand expands all changed paths after every state navigation.
	AutoExpand bool

	// VisibleVars restricts the tree to the named variables. Empty means
	// all variables are visible.
	VisibleVars []string
}

// Session is the top-level application state for one loaded trace.
type Session struct {
	trace     *itf.Trace
	cache     *diff.Cache
	expansion *nav.ExpansionStore
	cursor    nav.Cursor

	current    int
	autoExpand bool
	visible    map[string]struct{}

	filterText    string
	filterQuery   *filter.Query
	filterMatches []int
}

// NewSession builds the session for a loaded trace, computing the diff
// cache for every consecutive state pair up front.
func NewSession(tr *itf.Trace, cfg SessionConfig) *Session {
	s := &Session{
		trace:      tr,
		cache:      diff.NewCache(tr),
		expansion:  nav.NewExpansionStore(),
		autoExpand: cfg.AutoExpand,
		visible:    visibleSet(cfg.VisibleVars),
	}
	if s.autoExpand {
		s.expandChanges()
	}
	return s
}

func visibleSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// =============================================================================
// Accessors
// =============================================================================

// Trace returns the loaded trace.
func (s *Session) Trace() *itf.Trace { return s.trace }

// Cache returns the precomputed diff cache.
func (s *Session) Cache() *diff.Cache { return s.cache }

// Expansion returns the expansion store.
func (s *Session) Expansion() *nav.ExpansionStore { return s.expansion }

// Current is the current state index.
func (s *Session) Current() int { return s.current }

// StateCount is the number of states in the trace.
func (s *Session) StateCount() int { return s.trace.Len() }

// AutoExpand reports whether auto-expand mode is on.
func (s *Session) AutoExpand() bool { return s.autoExpand }

// SetAutoExpand toggles auto-expand mode. Turning it on applies it to the
// current state immediately.
func (s *Session) SetAutoExpand(on bool) {
	s.autoExpand = on
	if on {
		s.expandChanges()
	}
}

// VisibleNodes computes the flattened, currently-visible node sequence for
// the current state.
func (s *Session) VisibleNodes() []nav.VisibleNode {
	st := s.trace.State(s.current)
	return nav.VisibleNodes(st, s.trace.Vars, s.visible, s.expansion, s.cache.Step(s.current))
}

// CursorPos is the cursor's index into VisibleNodes.
func (s *Session) CursorPos() int { return s.cursor.Pos() }

// =============================================================================
// State Navigation
// =============================================================================

// NextState advances to the next state: the next filter match when a filter
// is active, otherwise current+1. Clamps at the end of the timeline.
func (s *Session) NextState() {
	if s.filterQuery != nil {
		for _, m := range s.filterMatches {
			if m > s.current {
				s.gotoState(m)
				return
			}
		}
		return
	}
	if s.current+1 < s.trace.Len() {
		s.gotoState(s.current + 1)
	}
}

// PrevState steps back one state (or one filter match). Clamps at 0.
func (s *Session) PrevState() {
	if s.filterQuery != nil {
		prev := -1
		for _, m := range s.filterMatches {
			if m >= s.current {
				break
			}
			prev = m
		}
		if prev >= 0 {
			s.gotoState(prev)
		}
		return
	}
	if s.current > 0 {
		s.gotoState(s.current - 1)
	}
}

// GotoState jumps to an arbitrary state index, clamped to the trace bounds.
func (s *Session) GotoState(i int) {
	if i < 0 {
		i = 0
	}
	if i >= s.trace.Len() {
		i = s.trace.Len() - 1
	}
	s.gotoState(i)
}

func (s *Session) gotoState(i int) {
	s.current = i
	s.cursor.Home()
	if s.autoExpand {
		s.expandChanges()
	}
}

// expandChanges clears the expansion store and reveals every changed path
// of the current transition.
func (s *Session) expandChanges() {
	s.expansion.Clear()
	idx := s.cache.Step(s.current)
	var changed []value.Path
	for _, p := range idx.Paths() {
		if n, ok := idx.Lookup(p); ok && n.Kind != diff.Unchanged {
			changed = append(changed, p)
		}
	}
	s.expansion.ExpandToReveal(changed)
}

// =============================================================================
// Cursor and Expansion
// =============================================================================

// MoveUp moves the cursor up n lines.
func (s *Session) MoveUp(n int) { s.cursor.MoveUp(n) }

// MoveDown moves the cursor down n lines.
func (s *Session) MoveDown(n int) {
	s.cursor.MoveDown(n, len(s.VisibleNodes()))
}

// CursorHome moves the cursor to the first line.
func (s *Session) CursorHome() { s.cursor.Home() }

// CursorEnd moves the cursor to the last line.
func (s *Session) CursorEnd() { s.cursor.End(len(s.VisibleNodes())) }

// ToggleAtCursor toggles expansion of the node under the cursor. The cursor
// stays on the same path: expanding inserts new lines below it, collapsing
// keeps it on the collapsed node.
func (s *Session) ToggleAtCursor() {
	nodes := s.VisibleNodes()
	s.cursor.Clamp(len(nodes))
	if len(nodes) == 0 {
		return
	}
	node := nodes[s.cursor.Pos()]
	if !node.Expandable {
		return
	}
	s.expansion.Toggle(node.Path)
	s.cursor.ResolveByPath(s.VisibleNodes(), node.Path)
}

// CollapseAtCursor collapses the node under the cursor; on an already
// collapsed or atomic node it collapses the parent and moves the cursor to
// it, so the cursor never points at a now-absent path.
func (s *Session) CollapseAtCursor() {
	nodes := s.VisibleNodes()
	s.cursor.Clamp(len(nodes))
	if len(nodes) == 0 {
		return
	}
	node := nodes[s.cursor.Pos()]
	target := node.Path
	if !node.Expanded {
		parent, ok := node.Path.Parent()
		if !ok || parent.Len() == 0 {
			return
		}
		target = parent
	}
	s.expansion.Collapse(target)
	s.cursor.ResolveByPath(s.VisibleNodes(), target)
}

// ExpandAll expands every expandable node reachable in the current state.
func (s *Session) ExpandAll() {
	st := s.trace.State(s.current)
	for _, name := range s.trace.Vars {
		if s.visible != nil {
			if _, ok := s.visible[name]; !ok {
				continue
			}
		}
		v, ok := st.Values[name]
		if !ok {
			continue
		}
		value.Walk(v, value.VarPath(name), func(p value.Path, pv value.Value) bool {
			if len(value.Children(pv)) > 0 {
				s.expansion.Expand(p)
			}
			return true
		})
	}
	s.cursor.Clamp(len(s.VisibleNodes()))
}

// CollapseAll collapses everything and resolves the cursor to the nearest
// surviving ancestor of its previous path.
func (s *Session) CollapseAll() {
	nodes := s.VisibleNodes()
	s.cursor.Clamp(len(nodes))
	var at value.Path
	if len(nodes) > 0 {
		at = nodes[s.cursor.Pos()].Path
	}
	s.expansion.Clear()
	s.cursor.ResolveByPath(s.VisibleNodes(), at)
}

// =============================================================================
// Filtering
// =============================================================================

// ApplyFilter compiles and applies a filter query. On compile failure the
// previous filter state is retained unchanged and the error is returned for
// inline display. On success the current state is clamped onto the filtered
// timeline: nearest preceding match, else the first match.
func (s *Session) ApplyFilter(text string) error {
	q, err := filter.Compile(text)
	if err != nil {
		return err
	}
	s.filterQuery = q
	s.filterText = text
	s.filterMatches = q.Matches(s.trace, s.cache)
	if len(s.filterMatches) > 0 && !s.matchesFilter(s.current) {
		s.gotoState(filter.ClampToMatch(s.filterMatches, s.current))
	}
	return nil
}

// ClearFilter removes the active filter.
func (s *Session) ClearFilter() {
	s.filterQuery = nil
	s.filterText = ""
	s.filterMatches = nil
}

// FilterActive reports whether a filter is applied.
func (s *Session) FilterActive() bool { return s.filterQuery != nil }

// FilterText returns the active filter's source text.
func (s *Session) FilterText() string { return s.filterText }

// FilterMatches returns the ordered matching state indices. The slice must
// not be mutated by callers.
func (s *Session) FilterMatches() []int { return s.filterMatches }

func (s *Session) matchesFilter(i int) bool {
	for _, m := range s.filterMatches {
		if m == i {
			return true
		}
	}
	return false
}

// =============================================================================
// Reload
// =============================================================================

// Reload swaps in a newly loaded trace (watch mode), rebuilding the diff
// cache behind the load barrier. Expansion state survives; the current
// state, cursor, and filter matches are re-clamped against the new trace.
func (s *Session) Reload(tr *itf.Trace) {
	s.trace = tr
	s.cache = diff.NewCache(tr)
	if s.current >= tr.Len() {
		s.current = tr.Len() - 1
	}
	if s.filterQuery != nil {
		s.filterMatches = s.filterQuery.Matches(tr, s.cache)
	}
	s.cursor.Clamp(len(s.VisibleNodes()))
}
