// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package filter compiles and evaluates the small query language used to
// restrict the timeline to matching states.
//
// # Grammar
//
//	query   := path                       (sugar for "path changed")
//	         | path "changed"
//	         | path op literal
//	path    := ident ( "." ident | "[" int "]" )*
//	op      := "=" | "!=" | "<" | "<=" | ">" | ">="
//	literal := int | quoted string | "true" | "false"
//
// A trailing ".length" resolves to a collection's cardinality when the
// path has no real field of that name. Path-resolution misses during
// evaluation are not errors: the predicate is simply false for that state,
// since nested shapes may differ across variants.
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/AleutianAI/tracescope/services/trace/value"
)

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// String returns the operator's source spelling.
func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// step is one compiled path segment.
type step struct {
	field   string
	index   int
	isIndex bool
}

// Query is a compiled filter expression. Compile once per query text; a
// Query is immutable and safe for repeated evaluation.
type Query struct {
	text    string
	steps   []step
	changed bool
	op      Op
	lit     value.Value
}

// Text returns the original query source.
func (q *Query) Text() string { return q.text }

// Path returns the addressed path as a display string.
func (q *Query) Path() value.Path {
	p := value.NewPath()
	for _, s := range q.steps {
		if s.isIndex {
			p = p.Append(value.IndexSegment(s.index))
		} else {
			p = p.Append(value.FieldSegment(s.field))
		}
	}
	return p
}

// =============================================================================
// Compilation
// =============================================================================

// Compile parses query text. It either fully succeeds or fails with an
// InvalidQueryError; there is no partial match.
func Compile(text string) (*Query, error) {
	lx := &lexer{src: text}
	toks, err := lx.run()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, text: text}
	return p.parse()
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokInt
	tokString
	tokOp
	tokLBracket
	tokRBracket
	tokDot
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	src string
	pos int
}

func (lx *lexer) run() ([]token, error) {
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.src) && lx.src[lx.pos] == ' ' {
		lx.pos++
	}
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, pos: lx.pos}, nil
	}
	start := lx.pos
	c := lx.src[lx.pos]
	switch {
	case c == '.':
		lx.pos++
		return token{kind: tokDot, text: ".", pos: start}, nil
	case c == '[':
		lx.pos++
		return token{kind: tokLBracket, text: "[", pos: start}, nil
	case c == ']':
		lx.pos++
		return token{kind: tokRBracket, text: "]", pos: start}, nil
	case c == '=':
		lx.pos++
		return token{kind: tokOp, text: "=", pos: start}, nil
	case c == '!':
		if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '=' {
			lx.pos += 2
			return token{kind: tokOp, text: "!=", pos: start}, nil
		}
		return token{}, &InvalidQueryError{Position: start, Token: "!", Reason: "expected != operator"}
	case c == '<' || c == '>':
		lx.pos++
		text := string(c)
		if lx.pos < len(lx.src) && lx.src[lx.pos] == '=' {
			text += "="
			lx.pos++
		}
		return token{kind: tokOp, text: text, pos: start}, nil
	case c == '"' || c == '\'':
		return lx.scanString(c)
	case c == '-' || unicode.IsDigit(rune(c)):
		return lx.scanInt()
	case isIdentStart(rune(c)):
		return lx.scanIdent()
	default:
		return token{}, &InvalidQueryError{Position: start, Token: string(c), Reason: "unexpected character"}
	}
}

func (lx *lexer) scanString(quote byte) (token, error) {
	start := lx.pos
	lx.pos++
	var b strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == quote {
			lx.pos++
			return token{kind: tokString, text: b.String(), pos: start}, nil
		}
		b.WriteByte(c)
		lx.pos++
	}
	return token{}, &InvalidQueryError{Position: start, Token: lx.src[start:], Reason: "unterminated string literal"}
}

func (lx *lexer) scanInt() (token, error) {
	start := lx.pos
	if lx.src[lx.pos] == '-' {
		lx.pos++
	}
	for lx.pos < len(lx.src) && unicode.IsDigit(rune(lx.src[lx.pos])) {
		lx.pos++
	}
	text := lx.src[start:lx.pos]
	if text == "-" {
		return token{}, &InvalidQueryError{Position: start, Token: "-", Reason: "expected digits after minus sign"}
	}
	return token{kind: tokInt, text: text, pos: start}, nil
}

func (lx *lexer) scanIdent() (token, error) {
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentPart(rune(lx.src[lx.pos])) {
		lx.pos++
	}
	return token{kind: tokIdent, text: lx.src[start:lx.pos], pos: start}, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// =============================================================================
// Parser
// =============================================================================

type parser struct {
	toks []token
	text string
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) take() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) fail(tok token, reason string) error {
	return &InvalidQueryError{Position: tok.pos, Token: tok.text, Reason: reason}
}

func (p *parser) parse() (*Query, error) {
	if strings.TrimSpace(p.text) == "" {
		return nil, ErrEmptyQuery
	}
	q := &Query{text: p.text}

	head := p.take()
	if head.kind != tokIdent {
		return nil, p.fail(head, "query must start with a variable name")
	}
	q.steps = append(q.steps, step{field: head.text})

	for {
		switch p.peek().kind {
		case tokDot:
			p.take()
			tok := p.take()
			if tok.kind != tokIdent {
				return nil, p.fail(tok, "expected a field name after '.'")
			}
			q.steps = append(q.steps, step{field: tok.text})
		case tokLBracket:
			p.take()
			tok := p.take()
			if tok.kind != tokInt {
				return nil, p.fail(tok, "expected an integer index inside brackets")
			}
			idx, err := strconv.Atoi(tok.text)
			if err != nil {
				return nil, p.fail(tok, "index out of range")
			}
			if closing := p.take(); closing.kind != tokRBracket {
				return nil, p.fail(closing, "expected closing bracket")
			}
			q.steps = append(q.steps, step{index: idx, isIndex: true})
		default:
			return p.parseTail(q)
		}
	}
}

func (p *parser) parseTail(q *Query) (*Query, error) {
	switch tok := p.take(); tok.kind {
	case tokEOF:
		// Bare path is sugar for "path changed".
		q.changed = true
		return q, nil
	case tokIdent:
		if tok.text != "changed" {
			return nil, p.fail(tok, "expected 'changed' or a comparison operator")
		}
		q.changed = true
	case tokOp:
		op, err := parseOp(tok)
		if err != nil {
			return nil, err
		}
		q.op = op
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		q.lit = lit
	default:
		return nil, p.fail(tok, "expected 'changed' or a comparison operator")
	}
	if end := p.take(); end.kind != tokEOF {
		return nil, p.fail(end, "unexpected trailing input")
	}
	return q, nil
}

func parseOp(tok token) (Op, error) {
	switch tok.text {
	case "=":
		return OpEq, nil
	case "!=":
		return OpNe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	default:
		return 0, &InvalidQueryError{Position: tok.pos, Token: tok.text, Reason: "unknown operator"}
	}
}

func (p *parser) parseLiteral() (value.Value, error) {
	switch tok := p.take(); tok.kind {
	case tokInt:
		iv, err := value.ParseInteger(tok.text)
		if err != nil {
			return nil, p.fail(tok, fmt.Sprintf("bad integer literal: %v", err))
		}
		return iv, nil
	case tokString:
		return value.String(tok.text), nil
	case tokIdent:
		switch tok.text {
		case "true":
			return value.Boolean(true), nil
		case "false":
			return value.Boolean(false), nil
		}
		return nil, p.fail(tok, "expected an integer, string, or boolean literal")
	default:
		return nil, p.fail(tok, "expected an integer, string, or boolean literal")
	}
}
