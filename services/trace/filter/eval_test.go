// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tracescope/services/trace/diff"
	"github.com/AleutianAI/tracescope/services/trace/itf"
)

// evalFixture is a small consensus-flavored trace: a clock, a message
// set that grows and shrinks, and a leader that is elected mid-trace.
func evalFixture(t *testing.T) (*itf.Trace, *diff.Cache) {
	t.Helper()
	tr, err := itf.Parse([]byte(`{
		"vars": ["clock", "msgBuffer", "leader"],
		"states": [
			{"clock": 0, "msgBuffer": {"#set": []},            "leader": {"tag": "None", "value": {"#tup": []}}},
			{"clock": 1, "msgBuffer": {"#set": ["m1"]},        "leader": {"tag": "None", "value": {"#tup": []}}},
			{"clock": 2, "msgBuffer": {"#set": ["m1"]},        "leader": {"tag": "Some", "value": "n2"}},
			{"clock": 2, "msgBuffer": {"#set": []},            "leader": {"tag": "Some", "value": "n2"}},
			{"clock": 3, "msgBuffer": {"#set": ["m2", "m3"]},  "leader": {"tag": "Some", "value": "n2"}}
		]
	}`))
	require.NoError(t, err)
	return tr, diff.NewCache(tr)
}

func matchesOf(t *testing.T, text string) []int {
	t.Helper()
	tr, cache := evalFixture(t)
	q, err := Compile(text)
	require.NoError(t, err)
	return q.Matches(tr, cache)
}

// =============================================================================
// Changed Predicate Tests
// =============================================================================

func TestMatches_ChangedTopLevel(t *testing.T) {
	// State 0 never matches: there is no arrival transition.
	assert.Equal(t, []int{1, 3, 4}, matchesOf(t, "msgBuffer changed"))
	assert.Equal(t, []int{1, 2, 4}, matchesOf(t, "clock changed"))
	assert.Equal(t, []int{2}, matchesOf(t, "leader changed"))
}

func TestMatches_BarePathSugar(t *testing.T) {
	assert.Equal(t, matchesOf(t, "msgBuffer changed"), matchesOf(t, "msgBuffer"))
}

func TestMatches_ChangedUnknownVariable(t *testing.T) {
	assert.Empty(t, matchesOf(t, "ghost changed"))
}

// =============================================================================
// Comparison Tests
// =============================================================================

func TestMatches_IntegerComparisons(t *testing.T) {
	assert.Equal(t, []int{2, 3}, matchesOf(t, "clock = 2"))
	assert.Equal(t, []int{0, 1, 4}, matchesOf(t, "clock != 2"))
	assert.Equal(t, []int{0, 1}, matchesOf(t, "clock < 2"))
	assert.Equal(t, []int{0, 1, 2, 3}, matchesOf(t, "clock <= 2"))
	assert.Equal(t, []int{4}, matchesOf(t, "clock > 2"))
	assert.Equal(t, []int{2, 3, 4}, matchesOf(t, "clock >= 2"))
}

func TestMatches_LengthAccessor(t *testing.T) {
	// Cardinalities across states: 0, 1, 1, 0, 2.
	assert.Equal(t, []int{1, 2, 4}, matchesOf(t, "msgBuffer.length > 0"))
	assert.Equal(t, []int{0, 3}, matchesOf(t, "msgBuffer.length = 0"))
	assert.Equal(t, []int{4}, matchesOf(t, "msgBuffer.length >= 2"))
}

func TestMatches_VariantTagAccessor(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4}, matchesOf(t, `leader.tag = "Some"`))
	assert.Equal(t, []int{0, 1}, matchesOf(t, `leader.tag = "None"`))
}

func TestMatches_KindMismatch(t *testing.T) {
	// clock is an integer; comparing against a string is false for =,
	// true for !=, and false for ordered operators.
	assert.Empty(t, matchesOf(t, `clock = "2"`))
	assert.Len(t, matchesOf(t, `clock != "2"`), 5)
	assert.Empty(t, matchesOf(t, `clock < "9"`))
}

func TestMatches_PathMissIsFalse(t *testing.T) {
	assert.Empty(t, matchesOf(t, "ghost = 1"))
	assert.Empty(t, matchesOf(t, "clock.subfield = 1"))
	assert.Empty(t, matchesOf(t, "clock[0] = 1"))
	// .length on a non-collection is a soft miss, not an error.
	assert.Empty(t, matchesOf(t, "clock.length > 0"))
}

func TestMatches_IndexIntoSequence(t *testing.T) {
	tr, err := itf.Parse([]byte(`{
		"vars": ["xs"],
		"states": [{"xs": [10, 20]}, {"xs": [10, 30]}, {"xs": [10]}]
	}`))
	require.NoError(t, err)
	cache := diff.NewCache(tr)

	q, err := Compile("xs[1] = 30")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, q.Matches(tr, cache))

	// Out-of-range index in state 2 is a soft miss.
	q, err = Compile("xs[1] >= 20")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, q.Matches(tr, cache))
}

func TestMatches_RealLengthFieldShadowsCardinality(t *testing.T) {
	tr, err := itf.Parse([]byte(`{
		"vars": ["buf"],
		"states": [{"buf": {"length": 99, "data": [1]}}]
	}`))
	require.NoError(t, err)
	cache := diff.NewCache(tr)

	// The record has a real "length" field; it wins over cardinality.
	q, err := Compile("buf.length = 99")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, q.Matches(tr, cache))
}

func TestMatches_BooleanEquality(t *testing.T) {
	tr, err := itf.Parse([]byte(`{
		"vars": ["ready"],
		"states": [{"ready": false}, {"ready": true}]
	}`))
	require.NoError(t, err)
	cache := diff.NewCache(tr)

	q, err := Compile("ready = true")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, q.Matches(tr, cache))
}

// =============================================================================
// Deep Changed Tests
// =============================================================================

func TestMatches_ChangedDeepPath(t *testing.T) {
	tr, err := itf.Parse([]byte(`{
		"vars": ["node"],
		"states": [
			{"node": {"status": "idle",   "term": 1}},
			{"node": {"status": "leader", "term": 1}},
			{"node": {"status": "leader", "term": 1}}
		]
	}`))
	require.NoError(t, err)
	cache := diff.NewCache(tr)

	q, err := Compile("node.status changed")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, q.Matches(tr, cache))

	q, err = Compile("node.term changed")
	require.NoError(t, err)
	assert.Empty(t, q.Matches(tr, cache))
}

// =============================================================================
// ClampToMatch Tests
// =============================================================================

func TestClampToMatch(t *testing.T) {
	tests := []struct {
		name    string
		matches []int
		current int
		want    int
	}{
		{"current is a match", []int{1, 3, 5}, 3, 3},
		{"round down", []int{1, 3, 5}, 4, 3},
		{"before first match", []int{3, 5}, 1, 3},
		{"after last match", []int{1, 3}, 9, 3},
		{"empty keeps current", nil, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampToMatch(tt.matches, tt.current))
		})
	}
}
