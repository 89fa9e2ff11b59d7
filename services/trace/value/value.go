// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package value implements the trace value model: a recursive tagged union
// over the nine ITF value kinds, structural equality, a canonical total
// order, and the Path type used to address locations inside a value tree.
//
// # Description
//
// Every value in a loaded trace is one of nine kinds (Integer, Boolean,
// String, Sequence, Tuple, Set, Map, Record, Variant). Structural equality
// is the single primitive the diff engine builds on; the canonical order
// derived from it makes Set/Map difference operations O(n log n) instead
// of O(n^2) pairwise comparison.
//
// # Thread Safety
//
// Values are immutable after construction and safe for concurrent reads.
// Constructors must not be handed slices that the caller later mutates.
package value

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// Kind
// =============================================================================

// Kind identifies which of the nine value shapes a Value carries.
type Kind int

const (
	// KindInteger is an arbitrary-precision signed integer.
	KindInteger Kind = iota

	// KindBoolean is true or false.
	KindBoolean

	// KindString is an immutable UTF-8 string.
	KindString

	// KindSequence is an ordered, variable-length list.
	KindSequence

	// KindTuple is an ordered, fixed-arity list. Arity is part of identity.
	KindTuple

	// KindSet is an unordered, deduplicated collection. Members have no
	// positional index and are addressed by content.
	KindSet

	// KindMap is an ordered list of key/value pairs. Key equality is
	// structural; the first occurrence of a duplicate key is authoritative.
	KindMap

	// KindRecord maps field names to values. Field order carries no meaning.
	KindRecord

	// KindVariant is a tag string plus exactly one payload value.
	KindVariant
)

// String returns the lower-case kind name used in previews and errors.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindTuple:
		return "tuple"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	case KindVariant:
		return "variant"
	default:
		return "unknown"
	}
}

// =============================================================================
// Value
// =============================================================================

// Value is a node in the recursive trace value model.
//
// Implementations are the nine concrete kinds in this package and nothing
// else; the diff engine dispatches exhaustively on Kind().
type Value interface {
	// Kind reports which shape this value carries.
	Kind() Kind
}

// Integer is an arbitrary-precision signed integer.
type Integer struct {
	n *big.Int
}

// NewInt builds an Integer from a machine integer.
func NewInt(n int64) Integer {
	return Integer{n: big.NewInt(n)}
}

// NewInteger builds an Integer from a big.Int. The argument is copied so
// later mutation by the caller cannot alias into the value model.
func NewInteger(n *big.Int) Integer {
	return Integer{n: new(big.Int).Set(n)}
}

// ParseInteger parses a base-10 integer of unbounded size.
func ParseInteger(s string) (Integer, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Integer{}, fmt.Errorf("not a base-10 integer: %q", s)
	}
	return Integer{n: n}, nil
}

// Kind implements Value.
func (Integer) Kind() Kind { return KindInteger }

// Big returns a copy of the underlying integer.
func (v Integer) Big() *big.Int {
	if v.n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.n)
}

// String renders the integer in base 10.
func (v Integer) String() string {
	if v.n == nil {
		return "0"
	}
	return v.n.String()
}

func (v Integer) cmp(o Integer) int {
	a, b := v.n, o.n
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b)
}

// Boolean is true or false.
type Boolean bool

// Kind implements Value.
func (Boolean) Kind() Kind { return KindBoolean }

// String is an immutable text value.
type String string

// Kind implements Value.
func (String) Kind() Kind { return KindString }

// Sequence is an ordered list of values. Order is significant.
type Sequence []Value

// Kind implements Value.
func (Sequence) Kind() Kind { return KindSequence }

// Tuple is a fixed-arity ordered list of values.
type Tuple []Value

// Kind implements Value.
func (Tuple) Kind() Kind { return KindTuple }

// Set is an unordered collection deduplicated by structural equality.
//
// Members are held in canonical order so equality and set difference are
// linear scans over aligned slices.
type Set struct {
	elems []Value
}

// NewSet builds a Set from arbitrary members. Input order does not matter;
// duplicates (under structural equality) collapse to one member.
func NewSet(elems ...Value) Set {
	sorted := make([]Value, len(elems))
	copy(sorted, elems)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Compare(sorted[i], sorted[j]) < 0
	})
	dedup := sorted[:0]
	for _, e := range sorted {
		if len(dedup) == 0 || Compare(dedup[len(dedup)-1], e) != 0 {
			dedup = append(dedup, e)
		}
	}
	return Set{elems: dedup}
}

// Kind implements Value.
func (Set) Kind() Kind { return KindSet }

// Len is the set cardinality.
func (v Set) Len() int { return len(v.elems) }

// Elems returns the members in canonical order. The slice must not be
// mutated by callers.
func (v Set) Elems() []Value { return v.elems }

// Contains reports structural membership.
func (v Set) Contains(e Value) bool {
	i := sort.Search(len(v.elems), func(i int) bool {
		return Compare(v.elems[i], e) >= 0
	})
	return i < len(v.elems) && Compare(v.elems[i], e) == 0
}

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key Value
	Val Value
}

// Map is an ordered list of key/value pairs.
//
// Entry order is preserved from the source encoding. Duplicate keys are not
// eliminated, but Get resolves to the first occurrence.
type Map struct {
	entries []MapEntry
}

// NewMap builds a Map preserving entry order.
func NewMap(entries ...MapEntry) Map {
	return Map{entries: entries}
}

// Kind implements Value.
func (Map) Kind() Kind { return KindMap }

// Len is the raw entry count, duplicates included.
func (v Map) Len() int { return len(v.entries) }

// Entries returns the entries in source order. The slice must not be
// mutated by callers.
func (v Map) Entries() []MapEntry { return v.entries }

// Get returns the value for the first entry whose key is structurally
// equal to key.
func (v Map) Get(key Value) (Value, bool) {
	for _, e := range v.entries {
		if Equal(e.Key, key) {
			return e.Val, true
		}
	}
	return nil, false
}

// EffectiveEntries returns one entry per distinct key, first occurrence
// winning, sorted canonically by key. This is the view equality and the
// diff engine use.
func (v Map) EffectiveEntries() []MapEntry {
	out := make([]MapEntry, 0, len(v.entries))
	for _, e := range v.entries {
		dup := false
		for _, seen := range out {
			if Equal(seen.Key, e.Key) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Compare(out[i].Key, out[j].Key) < 0
	})
	return out
}

// Record maps field names to values.
type Record map[string]Value

// Kind implements Value.
func (Record) Kind() Kind { return KindRecord }

// FieldNames returns the field names in sorted order.
func (v Record) FieldNames() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variant is a tag plus one payload value.
type Variant struct {
	Tag     string
	Payload Value
}

// Kind implements Value.
func (Variant) Kind() Kind { return KindVariant }

// =============================================================================
// Structural Equality and Canonical Order
// =============================================================================

// Equal reports structural equality as defined by the value model:
// atoms by content, Sequence/Tuple pairwise in order, Record by field set,
// Set by bijection, Map by effective key set, Variant by tag and payload.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// Compare imposes a canonical total order over all values: kind ordinal
// first, then kind-specific content. The order is consistent with Equal
// (Compare(a, b) == 0 iff Equal(a, b)) and exists so sets can be held
// sorted and maps compared without quadratic scans.
func Compare(a, b Value) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if ka, kb := a.Kind(), b.Kind(); ka != kb {
		return int(ka) - int(kb)
	}
	switch av := a.(type) {
	case Integer:
		return av.cmp(b.(Integer))
	case Boolean:
		bv := b.(Boolean)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case String:
		return strings.Compare(string(av), string(b.(String)))
	case Sequence:
		return compareSlices(av, b.(Sequence))
	case Tuple:
		return compareSlices(av, b.(Tuple))
	case Set:
		return compareSlices(av.elems, b.(Set).elems)
	case Map:
		return compareEntries(av.EffectiveEntries(), b.(Map).EffectiveEntries())
	case Record:
		return compareRecords(av, b.(Record))
	case Variant:
		bv := b.(Variant)
		if c := strings.Compare(av.Tag, bv.Tag); c != 0 {
			return c
		}
		return Compare(av.Payload, bv.Payload)
	default:
		return 0
	}
}

func compareSlices(a, b []Value) int {
	if c := len(a) - len(b); c != 0 {
		return c
	}
	for i := range a {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareEntries(a, b []MapEntry) int {
	if c := len(a) - len(b); c != 0 {
		return c
	}
	for i := range a {
		if c := Compare(a[i].Key, b[i].Key); c != 0 {
			return c
		}
		if c := Compare(a[i].Val, b[i].Val); c != 0 {
			return c
		}
	}
	return 0
}

func compareRecords(a, b Record) int {
	an, bn := a.FieldNames(), b.FieldNames()
	if c := len(an) - len(bn); c != 0 {
		return c
	}
	for i := range an {
		if c := strings.Compare(an[i], bn[i]); c != 0 {
			return c
		}
	}
	for _, name := range an {
		if c := Compare(a[name], b[name]); c != 0 {
			return c
		}
	}
	return 0
}

// CanonicalKey renders a value into a deterministic string usable as an
// associative-store key. Equal values always produce equal keys.
func CanonicalKey(v Value) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v Value) {
	if v == nil {
		b.WriteString("nil")
		return
	}
	switch av := v.(type) {
	case Integer:
		b.WriteString("i(")
		b.WriteString(av.String())
		b.WriteByte(')')
	case Boolean:
		b.WriteString("b(")
		b.WriteString(strconv.FormatBool(bool(av)))
		b.WriteByte(')')
	case String:
		b.WriteString("s(")
		b.WriteString(strconv.Quote(string(av)))
		b.WriteByte(')')
	case Sequence:
		writeCanonicalSlice(b, "q", av)
	case Tuple:
		writeCanonicalSlice(b, "t", av)
	case Set:
		writeCanonicalSlice(b, "z", av.elems)
	case Map:
		b.WriteString("m(")
		for i, e := range av.EffectiveEntries() {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, e.Key)
			b.WriteByte(':')
			writeCanonical(b, e.Val)
		}
		b.WriteByte(')')
	case Record:
		b.WriteString("r(")
		for i, name := range av.FieldNames() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(name))
			b.WriteByte(':')
			writeCanonical(b, av[name])
		}
		b.WriteByte(')')
	case Variant:
		b.WriteString("v(")
		b.WriteString(strconv.Quote(av.Tag))
		b.WriteByte(':')
		writeCanonical(b, av.Payload)
		b.WriteByte(')')
	}
}

func writeCanonicalSlice(b *strings.Builder, tag string, elems []Value) {
	b.WriteString(tag)
	b.WriteByte('(')
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCanonical(b, e)
	}
	b.WriteByte(')')
}

// Cardinality returns the member count of a collection value, or false if
// the kind has no cardinality. This backs the query language's .length
// accessor.
func Cardinality(v Value) (int, bool) {
	switch av := v.(type) {
	case Sequence:
		return len(av), true
	case Tuple:
		return len(av), true
	case Set:
		return av.Len(), true
	case Map:
		return len(av.EffectiveEntries()), true
	case Record:
		return len(av), true
	default:
		return 0, false
	}
}
