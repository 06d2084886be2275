// Copyright (c) 2014 Square, Inc

package nodes

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var indexed = regexp.MustCompile(`^(.*?)(\d+)$`)

// Collapse folds names into a pattern. Adjacent names sharing a prefix whose
// trailing indices count up by one become a single prefix[first-last]
// section; every other name is kept as is. Input order is preserved and runs
// are never merged across positions, so Collapse(Expand(p)) == p for any
// single continuous range p.
//
// A run takes the digit width of its first index and only extends to names
// padded the same way, e.g. node9,node10 collapses to node[9-10] but
// node09,node10 to node[09-10] and node9,node010 does not collapse.
func Collapse(names ...string) string {
	tokens := make([]string, 0, len(names))

	var cur *run
	flush := func() {
		if cur != nil {
			tokens = append(tokens, cur.String())
			cur = nil
		}
	}

	for _, name := range names {
		m := indexed.FindStringSubmatch(name)
		if m == nil || m[1] == "" {
			flush()
			tokens = append(tokens, name)
			continue
		}
		prefix, digits := m[1], m[2]
		n, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			flush()
			tokens = append(tokens, name)
			continue
		}

		if cur != nil && cur.extends(prefix, digits, n) {
			cur.last, cur.n = digits, n
			continue
		}
		flush()
		cur = &run{prefix: prefix, first: digits, last: digits, n: n}
	}
	flush()

	return strings.Join(tokens, ",")
}

type run struct {
	prefix      string
	first, last string
	n           uint64
}

func (r *run) extends(prefix, digits string, n uint64) bool {
	if prefix != r.prefix || r.n == math.MaxUint64 || n != r.n+1 {
		return false
	}
	return digits == fmt.Sprintf("%0*d", len(r.first), n)
}

func (r *run) String() string {
	if r.first == r.last {
		return r.prefix + r.first
	}
	return r.prefix + "[" + r.first + "-" + r.last + "]"
}
