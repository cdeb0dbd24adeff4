package dn

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Pattern matches DNs against a DN pattern. A pattern component may be:
//
//   - "*"  any single RDN
//   - "**" any sequence of one or more RDNs
//   - "type=value" where value may contain "*" substring wildcards and type
//     may be "*"
//   - a bare value without "=", shorthand for "*=value"
//
// Without "**" the pattern and the DN must have the same number of RDNs.
type Pattern struct {
	// equality is set when the pattern has no "**" components.
	equality []rdnPattern

	initial []rdnPattern
	any     [][]rdnPattern
	final   []rdnPattern

	suffix bool
	raw    string
}

type rdnPattern struct {
	avas []avaPattern
}

type avaPattern struct {
	typ string // lower-cased, "*" for any type
	// value is nil for the whole-RDN wildcard "*".
	value *valuePattern
}

type valuePattern struct {
	exact   string
	initial string
	any     []string
	final   string
	wild    bool
}

// IsPattern reports whether s contains an unescaped wildcard and so must be
// handled by ParsePattern rather than Parse.
func IsPattern(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '*':
			return true
		}
	}
	return false
}

// ParsePattern parses a DN pattern.
func ParsePattern(s string) (*Pattern, error) {
	raw := s
	comps, err := splitUnescaped(strings.TrimSpace(s), ',')
	if err != nil {
		return nil, err
	}
	if len(comps) == 1 && strings.TrimSpace(comps[0]) == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidDN)
	}

	var groups [][]rdnPattern
	var current []rdnPattern
	sawMulti := false
	for _, c := range comps {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("%w: %q: empty component", ErrInvalidRDN, raw)
		}
		if c == "**" {
			groups = append(groups, current)
			current = nil
			sawMulti = true
			continue
		}
		rp, err := parseRDNPattern(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRDN, raw, err)
		}
		current = append(current, rp)
	}
	groups = append(groups, current)

	p := &Pattern{raw: raw}
	if !sawMulti {
		p.equality = groups[0]
		return p, nil
	}
	p.initial = groups[0]
	for _, g := range groups[1 : len(groups)-1] {
		if len(g) > 0 {
			p.any = append(p.any, g)
		}
	}
	p.final = groups[len(groups)-1]
	return p, nil
}

// ParseSuffixPattern parses a pattern that matches any DN ending with it.
func ParseSuffixPattern(s string) (*Pattern, error) {
	p, err := ParsePattern(s)
	if err != nil {
		return nil, err
	}
	return p.Suffix(), nil
}

// Suffix returns a copy of p re-anchored to match any DN that ends with the
// pattern. An exact pattern becomes the final fragment; an initial fragment
// moves to the head of the any list.
func (p *Pattern) Suffix() *Pattern {
	s := &Pattern{raw: p.raw, suffix: true}
	if p.equality != nil {
		s.final = p.equality
		return s
	}
	if len(p.initial) > 0 {
		s.any = append(s.any, p.initial)
	}
	s.any = append(s.any, p.any...)
	s.final = p.final
	return s
}

// String returns the pattern as written.
func (p *Pattern) String() string {
	return p.raw
}

// Matches reports whether d matches the pattern.
func (p *Pattern) Matches(d DN) bool {
	n := d.NumRDNs()
	if p.equality != nil && !p.suffix {
		if len(p.equality) != n {
			return false
		}
		for i, rp := range p.equality {
			if !rp.matches(d.RDN(i)) {
				return false
			}
		}
		return true
	}

	pos := 0
	if len(p.initial) > 0 {
		if len(p.initial) > n {
			return false
		}
		for ; pos < len(p.initial); pos++ {
			if !p.initial[pos].matches(d.RDN(pos)) {
				return false
			}
		}
		// The following "**" consumes at least one RDN.
		pos++
	} else if !p.suffix {
		pos++
	}

	for _, element := range p.any {
		end := n - len(element)
		found := false
		for ; pos < end; pos++ {
			if matchRun(element, d, pos) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		pos += len(element) + 1
	}

	if len(p.final) > 0 {
		if n-len(p.final) < pos {
			return false
		}
		pos = n - len(p.final)
		for i, rp := range p.final {
			if !rp.matches(d.RDN(pos + i)) {
				return false
			}
		}
		pos = n
	}
	return pos <= n
}

func matchRun(element []rdnPattern, d DN, pos int) bool {
	for i, rp := range element {
		if !rp.matches(d.RDN(pos + i)) {
			return false
		}
	}
	return true
}

func (rp rdnPattern) matches(r RDN) bool {
	if len(rp.avas) == 1 {
		a := rp.avas[0]
		if a.typ == "*" && a.value == nil {
			return true
		}
		if len(r) != 1 {
			return false
		}
		if a.typ != "*" && a.typ != r[0].Type {
			return false
		}
		return a.value.matches(r[0].Value)
	}

	if len(rp.avas) != len(r) {
		return false
	}
	used := make([]bool, len(r))
	for _, a := range rp.avas {
		if a.typ == "*" {
			return false
		}
		matched := false
		for i, v := range r {
			if !used[i] && v.Type == a.typ && a.value.matches(v.Value) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (vp *valuePattern) matches(v string) bool {
	v = strings.ToLower(v)
	if !vp.wild {
		return v == vp.exact
	}
	if !strings.HasPrefix(v, vp.initial) {
		return false
	}
	pos := len(vp.initial)
	for _, sub := range vp.any {
		idx := strings.Index(v[pos:], sub)
		if idx < 0 {
			return false
		}
		pos += idx + len(sub)
	}
	return len(v)-pos >= len(vp.final) && strings.HasSuffix(v, vp.final)
}

func parseRDNPattern(s string) (rdnPattern, error) {
	if s == "*" {
		return rdnPattern{avas: []avaPattern{{typ: "*"}}}, nil
	}
	parts, err := splitUnescaped(s, '+')
	if err != nil {
		return rdnPattern{}, err
	}
	var rp rdnPattern
	for _, part := range parts {
		part = strings.TrimSpace(part)
		eq := indexUnescaped(part, '=')
		typ, val := "*", part
		if eq >= 0 {
			typ = strings.ToLower(strings.TrimSpace(part[:eq]))
			val = strings.TrimSpace(part[eq+1:])
			if typ != "*" && !ValidAttributeType(typ) {
				return rdnPattern{}, fmt.Errorf("bad attribute type %q", typ)
			}
		} else if len(parts) > 1 {
			return rdnPattern{}, fmt.Errorf("missing '=' in multi-valued RDN %q", s)
		}
		if val == "" {
			return rdnPattern{}, fmt.Errorf("empty value in %q", part)
		}
		vp, err := parseValuePattern(val)
		if err != nil {
			return rdnPattern{}, err
		}
		rp.avas = append(rp.avas, avaPattern{typ: typ, value: vp})
	}
	return rp, nil
}

func parseValuePattern(s string) (*valuePattern, error) {
	var pieces []string
	var b strings.Builder
	wild := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			r, n, err := unescapeAt(s, i)
			if err != nil {
				return nil, err
			}
			b.WriteByte(r)
			i += n - 1
		case '*':
			wild = true
			pieces = append(pieces, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	pieces = append(pieces, b.String())

	if !wild {
		return &valuePattern{exact: strings.ToLower(pieces[0])}, nil
	}
	vp := &valuePattern{wild: true}
	vp.initial = strings.ToLower(pieces[0])
	vp.final = strings.ToLower(pieces[len(pieces)-1])
	for _, mid := range pieces[1 : len(pieces)-1] {
		if mid != "" {
			vp.any = append(vp.any, strings.ToLower(mid))
		}
	}
	return vp, nil
}

// unescapeAt decodes the escape sequence starting at s[i] == '\\' and
// returns the byte and the number of input bytes used.
func unescapeAt(s string, i int) (byte, int, error) {
	if i+1 >= len(s) {
		return 0, 0, fmt.Errorf("dangling escape in %q", s)
	}
	if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
		b, err := hex.DecodeString(s[i+1 : i+3])
		if err != nil {
			return 0, 0, err
		}
		return b[0], 3, nil
	}
	return s[i+1], 2, nil
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func splitUnescaped(s string, sep byte) ([]string, error) {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return nil, fmt.Errorf("%w: dangling escape in %q", ErrInvalidDN, s)
			}
			i++
		case sep:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:]), nil
}

func indexUnescaped(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == c {
			return i
		}
	}
	return -1
}
