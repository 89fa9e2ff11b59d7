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
	"github.com/AleutianAI/tracescope/services/trace/diff"
	"github.com/AleutianAI/tracescope/services/trace/itf"
	"github.com/AleutianAI/tracescope/services/trace/value"
)

// Matches evaluates the query against every state and returns the ordered
// list of matching state indices. Evaluation never fails: path-resolution
// misses make the predicate false for that state.
func (q *Query) Matches(tr *itf.Trace, cache *diff.Cache) []int {
	matches := make([]int, 0, tr.Len())
	for i := range tr.States {
		if q.EvalState(tr.States[i], cache, i) {
			matches = append(matches, i)
		}
	}
	return matches
}

// EvalState evaluates the query against state i.
//
// A "changed" query is keyed to the arrival state: it matches state i when
// the transition from i-1 into i touched the path, so state 0 never matches.
func (q *Query) EvalState(st itf.State, cache *diff.Cache, i int) bool {
	if q.changed {
		if i == 0 {
			return false
		}
		p := q.Path()
		// Fast path for the common top-level case.
		if p.Len() == 1 {
			return cache.VarChanged(i, p.VarName())
		}
		return cache.Step(i).Touches(p)
	}

	v, ok := q.resolve(st)
	if !ok {
		return false
	}
	return compare(q.op, v, q.lit)
}

// resolve walks the query path through the state's value tree. A trailing
// "length" field that does not exist as a real field resolves to the
// parent collection's cardinality.
func (q *Query) resolve(st itf.State) (value.Value, bool) {
	root, ok := st.Values[q.steps[0].field]
	if !ok || q.steps[0].isIndex {
		return nil, false
	}
	v := root
	for i := 1; i < len(q.steps); i++ {
		next, ok := resolveStep(v, q.steps[i])
		if !ok {
			last := i == len(q.steps)-1
			if last && !q.steps[i].isIndex && q.steps[i].field == "length" {
				if n, has := value.Cardinality(v); has {
					return value.NewInt(int64(n)), true
				}
			}
			return nil, false
		}
		v = next
	}
	return v, true
}

func resolveStep(v value.Value, s step) (value.Value, bool) {
	// Variants are transparent: "tag" reads the tag, anything else descends
	// into the payload.
	if vv, ok := v.(value.Variant); ok {
		if !s.isIndex && s.field == "tag" {
			return value.String(vv.Tag), true
		}
		return resolveStep(vv.Payload, s)
	}

	if s.isIndex {
		switch av := v.(type) {
		case value.Sequence:
			if s.index >= 0 && s.index < len(av) {
				return av[s.index], true
			}
		case value.Tuple:
			if s.index >= 0 && s.index < len(av) {
				return av[s.index], true
			}
		case value.Map:
			return av.Get(value.NewInt(int64(s.index)))
		}
		return nil, false
	}

	switch av := v.(type) {
	case value.Record:
		fv, ok := av[s.field]
		return fv, ok
	case value.Map:
		return av.Get(value.String(s.field))
	}
	return nil, false
}

// compare applies op with value-kind-aware semantics: numeric for integers,
// lexicographic for strings, identity only for booleans. Kind mismatches
// make = false and != true; ordered operators on incomparable kinds are
// false.
func compare(op Op, v, lit value.Value) bool {
	if v.Kind() != lit.Kind() {
		return op == OpNe
	}
	switch op {
	case OpEq:
		return value.Equal(v, lit)
	case OpNe:
		return !value.Equal(v, lit)
	}
	// Ordered comparison only for integers and strings.
	switch v.Kind() {
	case value.KindInteger, value.KindString:
		c := value.Compare(v, lit)
		switch op {
		case OpLt:
			return c < 0
		case OpLe:
			return c <= 0
		case OpGt:
			return c > 0
		case OpGe:
			return c >= 0
		}
	}
	return false
}

// ClampToMatch maps the current state index onto the filtered timeline:
// round down to the nearest preceding match, else the first match. An empty
// match list leaves current unchanged.
func ClampToMatch(matches []int, current int) int {
	if len(matches) == 0 {
		return current
	}
	clamped := matches[0]
	for _, m := range matches {
		if m > current {
			break
		}
		clamped = m
	}
	return clamped
}
