// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package itf loads model-checker execution traces encoded in the Informal
// Trace Format (ITF): a JSON document with a fixed variable-name set and an
// ordered list of states, each mapping variable names to encoded values.
//
// # Description
//
// The loader is the only component allowed to fail on trace content. It
// decodes every ITF value shape into the value package's nine kinds with
// no information loss: integers of any size survive via json.Number, and
// any unrecognized shape fails with a MalformedValueError naming the
// offending path. Once Load returns a Trace, every downstream operation
// (diffing, filtering, navigation) is total.
//
// # ITF Value Encodings
//
//	123 or {"#bigint": "123"}   -> Integer (arbitrary precision)
//	true / false                -> Boolean
//	"text"                      -> String
//	[v1, v2]                    -> Sequence
//	{"#tup": [v1, v2]}          -> Tuple
//	{"#set": [v1, v2]}          -> Set
//	{"#map": [[k1, v1], ...]}   -> Map
//	{"field": v, ...}           -> Record
//	{"tag": "T", "value": v}    -> Variant
package itf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/AleutianAI/tracescope/services/trace/value"
)

// State is one snapshot of the trace: every declared variable bound to a
// value.
type State struct {
	// Index is the state's position in the trace, starting at 0.
	Index int

	// Values maps each declared variable name to its value in this state.
	Values map[string]value.Value
}

// Trace is an ordered sequence of states over a fixed variable-name set.
//
// The variable set never changes across states; Load rejects documents
// that violate this.
type Trace struct {
	// Vars lists the variable names in declaration order.
	Vars []string

	// States holds the ordered state sequence. Never empty after Load.
	States []State

	// Source is the file the trace was loaded from, if any.
	Source string

	// Description is the optional #meta description of the trace.
	Description string
}

// Len is the number of states.
func (t *Trace) Len() int { return len(t.States) }

// State returns the i-th state.
func (t *Trace) State(i int) State { return t.States[i] }

// HasVar reports whether name is a declared variable.
func (t *Trace) HasVar(name string) bool {
	for _, v := range t.Vars {
		if v == name {
			return true
		}
	}
	return false
}

// Load reads and decodes an ITF trace file.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace file: %w", err)
	}
	tr, err := Parse(data)
	if err != nil {
		return nil, err
	}
	tr.Source = path
	return tr, nil
}

// Parse decodes an ITF trace document.
//
// Fails with MalformedValueError for unrecognized value shapes, with
// InconsistentVariablesError if any state's variable set differs from the
// declared set, and with ErrEmptyTrace for a stateless document.
func Parse(data []byte) (*Trace, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc struct {
		Meta   map[string]json.RawMessage   `json:"#meta"`
		Vars   []string                     `json:"vars"`
		States []map[string]json.RawMessage `json:"states"`
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}
	if len(doc.States) == 0 {
		return nil, ErrEmptyTrace
	}

	tr := &Trace{Vars: doc.Vars}
	if raw, ok := doc.Meta["description"]; ok {
		_ = json.Unmarshal(raw, &tr.Description)
	}

	// A document without a vars declaration inherits the first state's
	// variable set.
	if len(tr.Vars) == 0 {
		for name := range doc.States[0] {
			if !strings.HasPrefix(name, "#") {
				tr.Vars = append(tr.Vars, name)
			}
		}
		sort.Strings(tr.Vars)
	}

	declared := make(map[string]struct{}, len(tr.Vars))
	for _, name := range tr.Vars {
		declared[name] = struct{}{}
	}

	for i, raw := range doc.States {
		st := State{Index: i, Values: make(map[string]value.Value, len(tr.Vars))}
		var extra []string
		for name, rawVal := range raw {
			if strings.HasPrefix(name, "#") {
				continue
			}
			if _, ok := declared[name]; !ok {
				extra = append(extra, name)
				continue
			}
			v, err := decodeValue(rawVal, fmt.Sprintf("states[%d].%s", i, name))
			if err != nil {
				return nil, err
			}
			st.Values[name] = v
		}
		var missing []string
		for _, name := range tr.Vars {
			if _, ok := st.Values[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 || len(extra) > 0 {
			sort.Strings(missing)
			sort.Strings(extra)
			return nil, &InconsistentVariablesError{StateIndex: i, Missing: missing, Extra: extra}
		}
		tr.States = append(tr.States, st)
	}
	return tr, nil
}

// =============================================================================
// Value Decoding
// =============================================================================

// decodeValue converts one raw JSON value into the value model. path is the
// document location used in error messages.
func decodeValue(raw json.RawMessage, path string) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &MalformedValueError{Path: path, Reason: err.Error()}
	}
	return convert(v, path)
}

func convert(v any, path string) (value.Value, error) {
	switch jv := v.(type) {
	case bool:
		return value.Boolean(jv), nil
	case string:
		return value.String(jv), nil
	case json.Number:
		return convertNumber(jv, path)
	case []any:
		elems, err := convertSlice(jv, path)
		if err != nil {
			return nil, err
		}
		return value.Sequence(elems), nil
	case map[string]any:
		return convertObject(jv, path)
	case nil:
		return nil, &MalformedValueError{Path: path, Reason: "null is not an ITF value"}
	default:
		return nil, &MalformedValueError{Path: path, Reason: fmt.Sprintf("unsupported JSON type %T", v)}
	}
}

func convertNumber(n json.Number, path string) (value.Value, error) {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return nil, &MalformedValueError{Path: path, Reason: fmt.Sprintf("non-integer number %s", s)}
	}
	iv, err := value.ParseInteger(s)
	if err != nil {
		return nil, &MalformedValueError{Path: path, Reason: err.Error()}
	}
	return iv, nil
}

func convertSlice(elems []any, path string) ([]value.Value, error) {
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		v, err := convert(e, path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func convertObject(obj map[string]any, path string) (value.Value, error) {
	// The #-keyed wrappers are mutually exclusive with record fields.
	if raw, ok := obj["#bigint"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, &MalformedValueError{Path: path + ".#bigint", Reason: "#bigint payload must be a string"}
		}
		iv, err := value.ParseInteger(s)
		if err != nil {
			return nil, &MalformedValueError{Path: path + ".#bigint", Reason: err.Error()}
		}
		return iv, nil
	}
	if raw, ok := obj["#tup"]; ok {
		elems, err := wrapperSlice(raw, path+".#tup")
		if err != nil {
			return nil, err
		}
		return value.Tuple(elems), nil
	}
	if raw, ok := obj["#set"]; ok {
		elems, err := wrapperSlice(raw, path+".#set")
		if err != nil {
			return nil, err
		}
		return value.NewSet(elems...), nil
	}
	if raw, ok := obj["#map"]; ok {
		return convertMap(raw, path+".#map")
	}
	if _, ok := obj["#unserializable"]; ok {
		return nil, &MalformedValueError{Path: path, Reason: "value was not serializable by the model checker"}
	}
	for key := range obj {
		if strings.HasPrefix(key, "#") {
			return nil, &MalformedValueError{Path: path, Reason: fmt.Sprintf("unknown wrapper key %q", key)}
		}
	}

	// An object carrying exactly a string "tag" and a "value" is a variant;
	// anything else is a plain record.
	if len(obj) == 2 {
		if tag, ok := obj["tag"].(string); ok {
			if payload, ok := obj["value"]; ok {
				pv, err := convert(payload, path+".value")
				if err != nil {
					return nil, err
				}
				return value.Variant{Tag: tag, Payload: pv}, nil
			}
		}
	}

	rec := make(value.Record, len(obj))
	for name, raw := range obj {
		v, err := convert(raw, path+"."+name)
		if err != nil {
			return nil, err
		}
		rec[name] = v
	}
	return rec, nil
}

func wrapperSlice(raw any, path string) ([]value.Value, error) {
	elems, ok := raw.([]any)
	if !ok {
		return nil, &MalformedValueError{Path: path, Reason: "wrapper payload must be an array"}
	}
	return convertSlice(elems, path)
}

func convertMap(raw any, path string) (value.Value, error) {
	pairs, ok := raw.([]any)
	if !ok {
		return nil, &MalformedValueError{Path: path, Reason: "#map payload must be an array of pairs"}
	}
	entries := make([]value.MapEntry, 0, len(pairs))
	for i, rawPair := range pairs {
		pair, ok := rawPair.([]any)
		if !ok || len(pair) != 2 {
			return nil, &MalformedValueError{
				Path:   fmt.Sprintf("%s[%d]", path, i),
				Reason: "map entry must be a two-element array",
			}
		}
		k, err := convert(pair[0], fmt.Sprintf("%s[%d][0]", path, i))
		if err != nil {
			return nil, err
		}
		v, err := convert(pair[1], fmt.Sprintf("%s[%d][1]", path, i))
		if err != nil {
			return nil, err
		}
		entries = append(entries, value.MapEntry{Key: k, Val: v})
	}
	return value.NewMap(entries...), nil
}
