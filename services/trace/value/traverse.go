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
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// Children
// =============================================================================

// Child is one traversable sub-value: the segment addressing it, a display
// label, and the value itself.
type Child struct {
	Segment Segment
	Label   string
	Value   Value
}

// Children returns the ordered sub-values of v for traversal.
//
// Order is positional for Sequence/Tuple, source order for Map entries,
// canonical for Set members, and sorted field name for Record. Atoms have
// no children. A Variant is transparent: its children are the children of
// its payload, because the payload lives at the variant's own path.
func Children(v Value) []Child {
	switch av := v.(type) {
	case Sequence:
		return indexChildren(av)
	case Tuple:
		return indexChildren(av)
	case Set:
		out := make([]Child, len(av.elems))
		for i, e := range av.elems {
			out[i] = Child{Segment: KeySegment(e), Label: Preview(e), Value: e}
		}
		return out
	case Map:
		out := make([]Child, len(av.entries))
		for i, e := range av.entries {
			out[i] = Child{Segment: KeySegment(e.Key), Label: Preview(e.Key), Value: e.Val}
		}
		return out
	case Record:
		names := av.FieldNames()
		out := make([]Child, len(names))
		for i, name := range names {
			out[i] = Child{Segment: FieldSegment(name), Label: name, Value: av[name]}
		}
		return out
	case Variant:
		return Children(av.Payload)
	default:
		return nil
	}
}

func indexChildren(elems []Value) []Child {
	out := make([]Child, len(elems))
	for i, e := range elems {
		out[i] = Child{Segment: IndexSegment(i), Label: "[" + strconv.Itoa(i) + "]", Value: e}
	}
	return out
}

// =============================================================================
// Preview
// =============================================================================

// maxPreviewString caps quoted string previews so one long value cannot
// blow out a tree line.
const maxPreviewString = 40

// Preview renders a one-line summary of v for collapsed display: atoms
// render their literal, containers render kind plus cardinality, variants
// render the tag around a payload preview.
func Preview(v Value) string {
	switch av := v.(type) {
	case Integer:
		return av.String()
	case Boolean:
		return strconv.FormatBool(bool(av))
	case String:
		s := string(av)
		if len(s) > maxPreviewString {
			// Cut on a rune boundary so the preview stays valid UTF-8.
			cut := maxPreviewString
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
			s = s[:cut] + "…"
		}
		return strconv.Quote(s)
	case Sequence:
		return fmt.Sprintf("[%d elements]", len(av))
	case Tuple:
		return fmt.Sprintf("(%d elements)", len(av))
	case Set:
		return fmt.Sprintf("{%d elements}", av.Len())
	case Map:
		return fmt.Sprintf("{%d entries}", len(av.entries))
	case Record:
		return fmt.Sprintf("{%d fields}", len(av))
	case Variant:
		var b strings.Builder
		b.WriteString(av.Tag)
		b.WriteByte('(')
		b.WriteString(Preview(av.Payload))
		b.WriteByte(')')
		return b.String()
	default:
		return "?"
	}
}

// Walk visits every reachable path in v in depth-first pre-order, starting
// at path. The visit callback receives each path/value pair; returning
// false prunes the subtree below that node.
func Walk(v Value, path Path, visit func(Path, Value) bool) {
	if !visit(path, v) {
		return
	}
	for _, c := range Children(v) {
		Walk(c.Value, path.Append(c.Segment), visit)
	}
}
