// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package value

import (
	"strconv"
	"strings"
)

// =============================================================================
// Path Segments
// =============================================================================

// SegmentKind distinguishes the three ways a child is addressed.
type SegmentKind int

const (
	// SegmentField addresses a record field or a top-level variable by name.
	SegmentField SegmentKind = iota

	// SegmentIndex addresses a sequence or tuple element by position.
	SegmentIndex

	// SegmentKey addresses a set member or map entry by its key value,
	// since neither has a positional index.
	SegmentKey
)

// Segment is one step of a Path.
//
// Segments are immutable value types; construct them with FieldSegment,
// IndexSegment, or KeySegment.
type Segment struct {
	kind  SegmentKind
	field string
	index int
	key   Value
}

// FieldSegment addresses a named field or top-level variable.
func FieldSegment(name string) Segment {
	return Segment{kind: SegmentField, field: name}
}

// IndexSegment addresses a positional element.
func IndexSegment(i int) Segment {
	return Segment{kind: SegmentIndex, index: i}
}

// KeySegment addresses a set member or map entry by key value.
func KeySegment(key Value) Segment {
	return Segment{kind: SegmentKey, key: key}
}

// Kind reports how this segment addresses its child.
func (s Segment) Kind() SegmentKind { return s.kind }

// Field returns the field name for SegmentField segments.
func (s Segment) Field() string { return s.field }

// Index returns the position for SegmentIndex segments.
func (s Segment) Index() int { return s.index }

// Key returns the key value for SegmentKey segments.
func (s Segment) Key() Value { return s.key }

// compare orders segments by kind ordinal, then content.
func (s Segment) compare(o Segment) int {
	if s.kind != o.kind {
		return int(s.kind) - int(o.kind)
	}
	switch s.kind {
	case SegmentField:
		return strings.Compare(s.field, o.field)
	case SegmentIndex:
		return s.index - o.index
	default:
		return Compare(s.key, o.key)
	}
}

func (s Segment) writeTo(b *strings.Builder, first bool) {
	switch s.kind {
	case SegmentField:
		if !first {
			b.WriteByte('.')
		}
		b.WriteString(s.field)
	case SegmentIndex:
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(s.index))
		b.WriteByte(']')
	case SegmentKey:
		b.WriteByte('[')
		b.WriteString(Preview(s.key))
		b.WriteByte(']')
	}
}

// =============================================================================
// Path
// =============================================================================

// Path addresses a location inside a value tree: the first segment names a
// top-level variable, subsequent segments descend through containers.
//
// Paths are immutable. Append copies; callers never observe shared segment
// storage being mutated. Paths order totally (lexicographic over segments,
// prefix before extension) and serve as keys into the diff index and the
// expansion store via Key().
type Path struct {
	segs []Segment
}

// NewPath builds a path from segments.
func NewPath(segs ...Segment) Path {
	own := make([]Segment, len(segs))
	copy(own, segs)
	return Path{segs: own}
}

// VarPath is the root path of a top-level variable.
func VarPath(name string) Path {
	return Path{segs: []Segment{FieldSegment(name)}}
}

// Append returns a new path with one more segment. The receiver is unchanged.
func (p Path) Append(s Segment) Path {
	segs := make([]Segment, len(p.segs)+1)
	copy(segs, p.segs)
	segs[len(p.segs)] = s
	return Path{segs: segs}
}

// Len is the number of segments.
func (p Path) Len() int { return len(p.segs) }

// Segment returns the i-th segment.
func (p Path) Segment(i int) Segment { return p.segs[i] }

// VarName returns the top-level variable this path addresses, or "" for the
// empty path.
func (p Path) VarName() string {
	if len(p.segs) == 0 {
		return ""
	}
	return p.segs[0].field
}

// Parent returns the path with the last segment removed. ok is false for
// the empty path.
func (p Path) Parent() (Path, bool) {
	if len(p.segs) == 0 {
		return Path{}, false
	}
	return NewPath(p.segs[:len(p.segs)-1]...), true
}

// Prefix returns the leading n segments as a path.
func (p Path) Prefix(n int) Path {
	return NewPath(p.segs[:n]...)
}

// HasPrefix reports whether prefix addresses this path or an ancestor of it.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segs) > len(p.segs) {
		return false
	}
	for i, s := range prefix.segs {
		if s.compare(p.segs[i]) != 0 {
			return false
		}
	}
	return true
}

// Equal reports segment-wise equality.
func (p Path) Equal(o Path) bool {
	return p.Compare(o) == 0
}

// Compare orders paths lexicographically over segments; a proper prefix
// sorts before any extension of it.
func (p Path) Compare(o Path) int {
	n := len(p.segs)
	if len(o.segs) < n {
		n = len(o.segs)
	}
	for i := 0; i < n; i++ {
		if c := p.segs[i].compare(o.segs[i]); c != 0 {
			return c
		}
	}
	return len(p.segs) - len(o.segs)
}

// Key renders a deterministic, collision-free string for use as a map key.
// Two paths share a Key iff they are Equal.
func (p Path) Key() string {
	var b strings.Builder
	for i, s := range p.segs {
		if i > 0 {
			b.WriteByte('/')
		}
		switch s.kind {
		case SegmentField:
			// Quoted so a field name containing the separator cannot
			// collide with a multi-segment path.
			b.WriteString("f:")
			b.WriteString(strconv.Quote(s.field))
		case SegmentIndex:
			b.WriteString("i:")
			b.WriteString(strconv.Itoa(s.index))
		case SegmentKey:
			b.WriteString("k:")
			b.WriteString(CanonicalKey(s.key))
		}
	}
	return b.String()
}

// String renders the path in display form, e.g. msgBuffer[2].sender.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p.segs {
		s.writeTo(&b, i == 0)
	}
	return b.String()
}
