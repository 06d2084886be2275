// Copyright (c) 2014 Square, Inc

// Package nodes expands compact node range patterns such as node[01-10,15]
// into the node names they denote, and collapses lists of node names back
// into patterns.
//
// A pattern is a comma separated list of sections. A section is a name,
// optionally followed by a bracketed range list and a suffix:
//
//	login,node[01-03,7]-ib
//
// expands to login, node01-ib, node02-ib, node03-ib and node7-ib. Continuous
// ranges are zero padded to the width of their lower bound. Discrete indices
// are copied as written.
package nodes

import (
	"fmt"
	"strconv"
)

// SyntaxError reports a pattern that can not be expanded. Pattern holds the
// whole input for grammar errors, or the offending range (e.g. "2-1") when
// the bounds of a range are reversed.
type SyntaxError struct {
	Pattern string
	Offset  int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("nodes: %q %s", e.Pattern, e.Msg)
}

const (
	msgGrammar  = "does not represent a range of nodes"
	msgReversed = "the minimum index can not be greater than the maximum"
)

type section struct {
	name   string
	suffix string
	items  []item // nil when the section has no brackets
}

type item struct {
	text     string
	span     bool
	min, max uint64
	width    int
	offset   int
}

// Expand returns the node names denoted by pattern, in pattern order. An
// empty pattern yields no names. Either the whole pattern expands or a
// *SyntaxError is returned with no names.
func Expand(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, nil
	}
	sections, err := parse(pattern)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, sec := range sections {
		names = sec.appendNames(names)
	}
	return names, nil
}

// MustExpand is like Expand but panics if the pattern is invalid.
func MustExpand(pattern string) []string {
	names, err := Expand(pattern)
	if err != nil {
		panic(err)
	}
	return names
}

func (sec section) appendNames(dst []string) []string {
	if sec.items == nil {
		return append(dst, sec.name)
	}
	for _, it := range sec.items {
		if !it.span {
			dst = append(dst, sec.name+it.text+sec.suffix)
			continue
		}
		for i := it.min; ; i++ {
			dst = append(dst, fmt.Sprintf("%s%0*d%s", sec.name, it.width, i, sec.suffix))
			if i == it.max {
				break
			}
		}
	}
	return dst
}

// parser is a single pass scanner over the whole pattern. Nothing is
// generated until it has accepted every section.
type parser struct {
	s   string
	pos int
}

func parse(pattern string) ([]section, error) {
	p := &parser{s: pattern}

	var sections []section
	for {
		sec, err := p.section()
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)

		if p.pos == len(p.s) {
			break
		}
		if p.s[p.pos] != ',' {
			return nil, p.fail()
		}
		p.pos++
	}

	for _, sec := range sections {
		for _, it := range sec.items {
			if it.span && it.min > it.max {
				return nil, &SyntaxError{
					Pattern: p.s[it.offset : it.offset+len(it.text)],
					Offset:  it.offset,
					Msg:     msgReversed,
				}
			}
		}
	}
	return sections, nil
}

func (p *parser) section() (section, error) {
	sec := section{name: p.word()}
	if sec.name == "" {
		return sec, p.fail()
	}
	if p.peek() != '[' {
		return sec, nil
	}
	p.pos++

	items, err := p.rangeList()
	if err != nil {
		return sec, err
	}
	sec.items = items
	sec.suffix = p.word()
	return sec, nil
}

func (p *parser) rangeList() ([]item, error) {
	var items []item
	for {
		it, err := p.rangeItem()
		if err != nil {
			return nil, err
		}
		items = append(items, it)

		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return items, nil
		default:
			return nil, p.fail()
		}
	}
}

func (p *parser) rangeItem() (item, error) {
	start := p.pos
	lo := p.digits()
	if lo == "" {
		return item{}, p.fail()
	}
	if p.peek() != '-' {
		return item{text: lo, offset: start}, nil
	}
	p.pos++
	hi := p.digits()
	if hi == "" {
		return item{}, p.fail()
	}

	first, err := strconv.ParseUint(lo, 10, 64)
	if err != nil {
		return item{}, p.failAt(start)
	}
	last, err := strconv.ParseUint(hi, 10, 64)
	if err != nil {
		return item{}, p.failAt(start + len(lo) + 1)
	}
	return item{
		text:   p.s[start:p.pos],
		span:   true,
		min:    first,
		max:    last,
		width:  len(lo),
		offset: start,
	}, nil
}

func (p *parser) word() string {
	start := p.pos
	for p.pos < len(p.s) && isNameByte(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) digits() string {
	start := p.pos
	for p.pos < len(p.s) && '0' <= p.s[p.pos] && p.s[p.pos] <= '9' {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) peek() byte {
	if p.pos < len(p.s) {
		return p.s[p.pos]
	}
	return 0
}

func (p *parser) fail() error {
	return p.failAt(p.pos)
}

func (p *parser) failAt(offset int) error {
	return &SyntaxError{Pattern: p.s, Offset: offset, Msg: msgGrammar}
}

// isNameByte reports whether b may appear in a name or suffix. Bytes of
// multi-byte UTF-8 sequences are all accepted.
func isNameByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r', '=', ',', '[':
		return false
	}
	return true
}
