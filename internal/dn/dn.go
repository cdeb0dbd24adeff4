// Package dn provides distinguished name values for access control
// evaluation: parsing, normalized comparison, ancestry tests and the keys
// used to index rules by holder entry.
package dn

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrInvalidDN is returned when a string is not a valid DN.
	ErrInvalidDN = errors.New("dn: invalid DN")
	// ErrInvalidRDN is returned for a malformed RDN component.
	ErrInvalidRDN = errors.New("dn: invalid RDN")
)

// AVA is one attribute type and value assertion inside an RDN. Type is
// lower-cased; Value holds the unescaped value as written.
type AVA struct {
	Type  string
	Value string
}

// RDN is a relative distinguished name with one or more AVAs.
type RDN []AVA

// DN is an immutable distinguished name. RDN 0 is the leftmost, most
// specific component. The zero value is the root DN.
type DN struct {
	rdns []RDN
	norm string
}

// Root returns the root (empty) DN.
func Root() DN {
	return DN{}
}

// Parse parses an RFC 4514 string. Surrounding whitespace is ignored and an
// empty string yields the root DN.
func Parse(s string) (DN, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DN{}, nil
	}
	parsed, err := ldap.ParseDN(s)
	if err != nil {
		return DN{}, fmt.Errorf("%w: %q: %v", ErrInvalidDN, s, err)
	}
	if len(parsed.RDNs) == 0 {
		return DN{}, fmt.Errorf("%w: %q", ErrInvalidDN, s)
	}

	rdns := make([]RDN, 0, len(parsed.RDNs))
	for _, r := range parsed.RDNs {
		if len(r.Attributes) == 0 {
			return DN{}, fmt.Errorf("%w: %q: empty RDN", ErrInvalidRDN, s)
		}
		rdn := make(RDN, 0, len(r.Attributes))
		for _, a := range r.Attributes {
			typ := strings.ToLower(strings.TrimSpace(a.Type))
			val := strings.TrimSpace(a.Value)
			if !ValidAttributeType(typ) {
				return DN{}, fmt.Errorf("%w: %q: bad attribute type %q", ErrInvalidRDN, s, a.Type)
			}
			if val == "" {
				return DN{}, fmt.Errorf("%w: %q: empty value for %q", ErrInvalidRDN, s, typ)
			}
			rdn = append(rdn, AVA{Type: typ, Value: val})
		}
		rdns = append(rdns, rdn)
	}
	return newDN(rdns), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constants.
func MustParse(s string) DN {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newDN(rdns []RDN) DN {
	d := DN{rdns: rdns}
	parts := make([]string, len(rdns))
	for i, r := range rdns {
		parts[i] = r.normalized()
	}
	d.norm = strings.Join(parts, ",")
	return d
}

// IsRoot reports whether d is the root DN.
func (d DN) IsRoot() bool {
	return len(d.rdns) == 0
}

// NumRDNs returns the number of RDN components.
func (d DN) NumRDNs() int {
	return len(d.rdns)
}

// RDN returns component i, counted from the left.
func (d DN) RDN(i int) RDN {
	return d.rdns[i]
}

// Parent returns the immediate superior. The parent of the root DN is the
// root DN.
func (d DN) Parent() DN {
	if len(d.rdns) <= 1 {
		return DN{}
	}
	return newDN(d.rdns[1:])
}

// Child returns the DN formed by prepending rdn to d.
func (d DN) Child(rdn RDN) DN {
	rdns := make([]RDN, 0, len(d.rdns)+1)
	rdns = append(rdns, rdn)
	rdns = append(rdns, d.rdns...)
	return newDN(rdns)
}

// Rename returns d with the prefix old replaced by newBase. d must be a
// descendant of old.
func (d DN) Rename(old, newBase DN) DN {
	keep := len(d.rdns) - len(old.rdns)
	rdns := make([]RDN, 0, keep+len(newBase.rdns))
	rdns = append(rdns, d.rdns[:keep]...)
	rdns = append(rdns, newBase.rdns...)
	return newDN(rdns)
}

// Equal compares two DNs case-insensitively.
func (d DN) Equal(o DN) bool {
	return d.norm == o.norm
}

// IsDescendantOf reports whether d equals ancestor or lies below it.
func (d DN) IsDescendantOf(ancestor DN) bool {
	n, m := len(d.rdns), len(ancestor.rdns)
	if m > n {
		return false
	}
	for i := 0; i < m; i++ {
		if !d.rdns[n-m+i].Equal(ancestor.rdns[i]) {
			return false
		}
	}
	return true
}

// IsStrictDescendantOf reports whether d lies below ancestor.
func (d DN) IsStrictDescendantOf(ancestor DN) bool {
	return len(d.rdns) > len(ancestor.rdns) && d.IsDescendantOf(ancestor)
}

// Normalized returns the lower-cased, escaped string form used for
// comparison.
func (d DN) Normalized() string {
	return d.norm
}

// Key returns the RDNs from root to leaf, each followed by a comma, so that
// the key of every ancestor is a string prefix of the key of its descendants.
// The root DN has the empty key.
func (d DN) Key() string {
	var b strings.Builder
	for i := len(d.rdns) - 1; i >= 0; i-- {
		b.WriteString(d.rdns[i].normalized())
		b.WriteByte(',')
	}
	return b.String()
}

// String returns the DN in RFC 4514 form, preserving value case.
func (d DN) String() string {
	parts := make([]string, len(d.rdns))
	for i, r := range d.rdns {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

// String returns the RDN in RFC 4514 form.
func (r RDN) String() string {
	parts := make([]string, len(r))
	for i, a := range r {
		parts[i] = a.Type + "=" + EscapeValue(a.Value)
	}
	return strings.Join(parts, "+")
}

// Equal compares two RDNs, ignoring AVA order and case.
func (r RDN) Equal(o RDN) bool {
	return r.normalized() == o.normalized()
}

func (r RDN) normalized() string {
	parts := make([]string, len(r))
	for i, a := range r {
		parts[i] = a.Type + "=" + EscapeValue(strings.ToLower(a.Value))
	}
	if len(parts) > 1 {
		sort.Strings(parts)
	}
	return strings.Join(parts, "+")
}

// EscapeValue escapes the RFC 4514 special characters in an AVA value.
func EscapeValue(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == ',' || c == '+' || c == '"' || c == '\\' || c == '<' || c == '>' || c == ';' || c == '=':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '#' && i == 0, c == ' ' && (i == 0 || i == len(v)-1):
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20:
			fmt.Fprintf(&b, "\\%02x", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ValidAttributeType reports whether s can name an attribute type: an
// alphanumeric first character followed by letters, digits, hyphens,
// underscores or dots. Numeric OIDs satisfy the same rule.
func ValidAttributeType(s string) bool {
	if s == "" || !(isAlpha(s[0]) || isDigit(s[0])) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(isAlpha(c) || isDigit(c) || c == '-' || c == '_' || c == '.') {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
