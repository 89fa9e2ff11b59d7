// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tracescope/services/trace/itf"
	"github.com/AleutianAI/tracescope/services/trace/value"
)

func sessionFixture(t *testing.T, cfg SessionConfig) *Session {
	t.Helper()
	tr, err := itf.Parse([]byte(`{
		"vars": ["clock", "msgs"],
		"states": [
			{"clock": 0, "msgs": {"#set": []}},
			{"clock": 1, "msgs": {"#set": []}},
			{"clock": 1, "msgs": {"#set": [{"to": "n1"}]}},
			{"clock": 2, "msgs": {"#set": [{"to": "n1"}]}},
			{"clock": 2, "msgs": {"#set": []}}
		]
	}`))
	require.NoError(t, err)
	return NewSession(tr, cfg)
}

// =============================================================================
// Navigation Tests
// =============================================================================

func TestSession_NextPrevClamp(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})

	assert.Zero(t, s.Current())
	s.PrevState()
	assert.Zero(t, s.Current(), "clamped at the first state")

	for i := 0; i < 10; i++ {
		s.NextState()
	}
	assert.Equal(t, s.StateCount()-1, s.Current(), "clamped at the last state")
}

func TestSession_GotoStateClamps(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})

	s.GotoState(99)
	assert.Equal(t, 4, s.Current())
	s.GotoState(-3)
	assert.Zero(t, s.Current())
}

func TestSession_NavigationResetsCursor(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	s.MoveDown(1)
	require.Equal(t, 1, s.CursorPos())

	s.NextState()
	assert.Zero(t, s.CursorPos())
}

func TestSession_ExpansionSurvivesNavigation(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	s.GotoState(2) // msgs is non-empty here, so it is expandable
	s.MoveDown(1)  // msgs
	s.ToggleAtCursor()
	require.True(t, s.Expansion().IsExpanded(value.VarPath("msgs")))

	s.NextState()
	s.PrevState()
	assert.True(t, s.Expansion().IsExpanded(value.VarPath("msgs")),
		"expansion store is state-independent")
}

// =============================================================================
// Expansion and Cursor Tests
// =============================================================================

func TestSession_ToggleKeepsCursorOnPath(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	s.GotoState(2)
	s.MoveDown(1) // msgs

	nodes := s.VisibleNodes()
	path := nodes[s.CursorPos()].Path

	s.ToggleAtCursor() // expand
	nodes = s.VisibleNodes()
	assert.True(t, nodes[s.CursorPos()].Path.Equal(path))
	assert.Greater(t, len(nodes), 2, "children inserted below")

	s.ToggleAtCursor() // collapse
	nodes = s.VisibleNodes()
	assert.True(t, nodes[s.CursorPos()].Path.Equal(path))
}

func TestSession_ToggleOnAtomIsNoOp(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	// Cursor on clock, an integer.
	before := len(s.VisibleNodes())
	s.ToggleAtCursor()
	assert.Equal(t, before, len(s.VisibleNodes()))
}

func TestSession_CollapseAtCursorMovesToParent(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	s.GotoState(2)
	s.ExpandAll()

	// Move onto the set member under msgs.
	nodes := s.VisibleNodes()
	memberPos := -1
	for i, n := range nodes {
		if n.Path.Len() == 2 && n.Path.VarName() == "msgs" {
			memberPos = i
			break
		}
	}
	require.GreaterOrEqual(t, memberPos, 0)
	s.CursorHome()
	s.MoveDown(memberPos)

	// The member record is expanded: first collapse targets it.
	s.CollapseAtCursor()
	nodes = s.VisibleNodes()
	assert.Equal(t, 2, nodes[s.CursorPos()].Path.Len())

	// Second collapse on the now-collapsed member collapses the parent set
	// and moves the cursor to it.
	s.CollapseAtCursor()
	nodes = s.VisibleNodes()
	assert.Equal(t, "msgs", nodes[s.CursorPos()].Label)
	assert.Equal(t, 1, nodes[s.CursorPos()].Path.Len())
}

func TestSession_CollapseAtTopLevelIsNoOp(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	before := len(s.VisibleNodes())
	s.CollapseAtCursor()
	assert.Equal(t, before, len(s.VisibleNodes()))
	assert.Zero(t, s.CursorPos())
}

func TestSession_ExpandAllCollapseAll(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	s.GotoState(2)

	collapsed := len(s.VisibleNodes())
	s.ExpandAll()
	expanded := len(s.VisibleNodes())
	assert.Greater(t, expanded, collapsed)

	s.CollapseAll()
	assert.Equal(t, collapsed, len(s.VisibleNodes()))
	assert.Less(t, s.CursorPos(), collapsed)
}

func TestSession_VisibleVarsRestrictTree(t *testing.T) {
	s := sessionFixture(t, SessionConfig{VisibleVars: []string{"clock"}})
	nodes := s.VisibleNodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "clock", nodes[0].Label)
}

// =============================================================================
// Auto-Expand Tests
// =============================================================================

func TestSession_AutoExpandRevealsChanges(t *testing.T) {
	s := sessionFixture(t, SessionConfig{AutoExpand: true})

	s.GotoState(2) // msgs gains a member
	assert.True(t, s.Expansion().IsExpanded(value.VarPath("msgs")))

	// The changed subtree is visible without manual expansion.
	found := false
	for _, n := range s.VisibleNodes() {
		if n.Path.Len() == 2 && n.Path.VarName() == "msgs" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSession_AutoExpandReplacesPerStateExpansion(t *testing.T) {
	s := sessionFixture(t, SessionConfig{AutoExpand: true})
	s.GotoState(2)
	require.True(t, s.Expansion().IsExpanded(value.VarPath("msgs")))

	// Step 3 changes only clock: msgs is no longer auto-expanded.
	s.NextState()
	assert.False(t, s.Expansion().IsExpanded(value.VarPath("msgs")))
}

func TestSession_SetAutoExpandAppliesImmediately(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	s.GotoState(2)
	require.False(t, s.Expansion().IsExpanded(value.VarPath("msgs")))

	s.SetAutoExpand(true)
	assert.True(t, s.AutoExpand())
	assert.True(t, s.Expansion().IsExpanded(value.VarPath("msgs")))
}

// =============================================================================
// Filter Tests
// =============================================================================

func TestSession_ApplyFilterNavigatesMatchesOnly(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})

	require.NoError(t, s.ApplyFilter("msgs changed"))
	assert.True(t, s.FilterActive())
	assert.Equal(t, []int{2, 4}, s.FilterMatches())

	// State 0 is not a match: clamping jumps to the first match.
	assert.Equal(t, 2, s.Current())

	s.NextState()
	assert.Equal(t, 4, s.Current())
	s.NextState()
	assert.Equal(t, 4, s.Current(), "clamped at the last match")
	s.PrevState()
	assert.Equal(t, 2, s.Current())
	s.PrevState()
	assert.Equal(t, 2, s.Current(), "clamped at the first match")
}

func TestSession_ApplyFilterClampsDownward(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	s.GotoState(3)

	require.NoError(t, s.ApplyFilter("msgs changed"))
	assert.Equal(t, 2, s.Current(), "rounds down to the nearest preceding match")
}

func TestSession_ApplyFilterInvalidRetainsState(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	require.NoError(t, s.ApplyFilter("clock changed"))
	prevMatches := s.FilterMatches()

	err := s.ApplyFilter("clock ???")
	require.Error(t, err)
	assert.True(t, s.FilterActive())
	assert.Equal(t, "clock changed", s.FilterText())
	assert.Equal(t, prevMatches, s.FilterMatches())
}

func TestSession_ApplyFilterNoMatchesKeepsCurrent(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	s.GotoState(1)

	require.NoError(t, s.ApplyFilter("clock > 999"))
	assert.Empty(t, s.FilterMatches())
	assert.Equal(t, 1, s.Current())

	// Navigation is pinned while nothing matches.
	s.NextState()
	assert.Equal(t, 1, s.Current())
}

func TestSession_ClearFilterRestoresLinearNavigation(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	require.NoError(t, s.ApplyFilter("msgs changed"))
	require.Equal(t, 2, s.Current())

	s.ClearFilter()
	assert.False(t, s.FilterActive())
	s.NextState()
	assert.Equal(t, 3, s.Current())
}

// =============================================================================
// Reload Tests
// =============================================================================

func TestSession_ReloadKeepsExpansionAndClamps(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	s.GotoState(3)
	s.MoveDown(1)
	s.ToggleAtCursor()
	require.True(t, s.Expansion().IsExpanded(value.VarPath("msgs")))

	shorter, err := itf.Parse([]byte(`{
		"vars": ["clock", "msgs"],
		"states": [
			{"clock": 0, "msgs": {"#set": []}},
			{"clock": 7, "msgs": {"#set": []}}
		]
	}`))
	require.NoError(t, err)

	s.Reload(shorter)
	assert.Equal(t, 1, s.Current(), "current clamped into the new trace")
	assert.True(t, s.Expansion().IsExpanded(value.VarPath("msgs")), "expansion survives reload")
	assert.Equal(t, 2, s.StateCount())
}

func TestSession_ReloadRecomputesFilterMatches(t *testing.T) {
	s := sessionFixture(t, SessionConfig{})
	require.NoError(t, s.ApplyFilter("clock changed"))
	require.Equal(t, []int{1, 3}, s.FilterMatches())

	longer, err := itf.Parse([]byte(`{
		"vars": ["clock", "msgs"],
		"states": [
			{"clock": 0, "msgs": {"#set": []}},
			{"clock": 0, "msgs": {"#set": []}},
			{"clock": 5, "msgs": {"#set": []}}
		]
	}`))
	require.NoError(t, err)

	s.Reload(longer)
	assert.Equal(t, []int{2}, s.FilterMatches())
}
