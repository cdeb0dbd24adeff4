// Package filter provides LDAP search filters: the filter model, text
// parsing, RFC 4511 BER encoding and evaluation against entries.
package filter

import "strings"

// FilterType represents the type of LDAP filter operation. Values equal the
// RFC 4511 context tag numbers of the Filter CHOICE.
type FilterType int

const (
	FilterAnd             FilterType = 0
	FilterOr              FilterType = 1
	FilterNot             FilterType = 2
	FilterEquality        FilterType = 3
	FilterSubstring       FilterType = 4
	FilterGreaterOrEqual  FilterType = 5
	FilterLessOrEqual     FilterType = 6
	FilterPresent         FilterType = 7
	FilterApproxMatch     FilterType = 8
	FilterExtensibleMatch FilterType = 9
)

// String returns the string representation of the FilterType.
func (ft FilterType) String() string {
	switch ft {
	case FilterAnd:
		return "AND"
	case FilterOr:
		return "OR"
	case FilterNot:
		return "NOT"
	case FilterEquality:
		return "EQUALITY"
	case FilterSubstring:
		return "SUBSTRING"
	case FilterGreaterOrEqual:
		return "GREATER_OR_EQUAL"
	case FilterLessOrEqual:
		return "LESS_OR_EQUAL"
	case FilterPresent:
		return "PRESENT"
	case FilterApproxMatch:
		return "APPROX_MATCH"
	case FilterExtensibleMatch:
		return "EXTENSIBLE_MATCH"
	default:
		return "UNKNOWN"
	}
}

// Filter represents an LDAP search filter.
type Filter struct {
	Type       FilterType
	Attribute  string
	Value      []byte
	Children   []*Filter        // AND, OR
	Child      *Filter          // NOT
	Substring  *SubstringFilter // SUBSTRING
	Extensible *ExtensibleMatch // EXTENSIBLE_MATCH
}

// SubstringFilter holds the components of a substring assertion.
type SubstringFilter struct {
	Attribute string
	Initial   []byte
	Any       [][]byte
	Final     []byte
}

// ExtensibleMatch is an RFC 4511 MatchingRuleAssertion. Attribute and
// MatchingRule are both optional but not both empty.
type ExtensibleMatch struct {
	MatchingRule string
	Attribute    string
	Value        []byte
	DNAttributes bool
}

// NewAndFilter creates a new AND filter with the given children.
func NewAndFilter(children ...*Filter) *Filter {
	return &Filter{Type: FilterAnd, Children: children}
}

// NewOrFilter creates a new OR filter with the given children.
func NewOrFilter(children ...*Filter) *Filter {
	return &Filter{Type: FilterOr, Children: children}
}

// NewNotFilter creates a new NOT filter with the given child.
func NewNotFilter(child *Filter) *Filter {
	return &Filter{Type: FilterNot, Child: child}
}

// NewEqualityFilter creates a new equality filter.
func NewEqualityFilter(attribute string, value []byte) *Filter {
	return &Filter{Type: FilterEquality, Attribute: attribute, Value: value}
}

// NewSubstringFilter creates a new substring filter.
func NewSubstringFilter(sf *SubstringFilter) *Filter {
	return &Filter{Type: FilterSubstring, Attribute: sf.Attribute, Substring: sf}
}

// NewPresentFilter creates a new presence filter.
func NewPresentFilter(attribute string) *Filter {
	return &Filter{Type: FilterPresent, Attribute: attribute}
}

// NewGreaterOrEqualFilter creates a new greater-or-equal filter.
func NewGreaterOrEqualFilter(attribute string, value []byte) *Filter {
	return &Filter{Type: FilterGreaterOrEqual, Attribute: attribute, Value: value}
}

// NewLessOrEqualFilter creates a new less-or-equal filter.
func NewLessOrEqualFilter(attribute string, value []byte) *Filter {
	return &Filter{Type: FilterLessOrEqual, Attribute: attribute, Value: value}
}

// NewApproxMatchFilter creates a new approximate match filter.
func NewApproxMatchFilter(attribute string, value []byte) *Filter {
	return &Filter{Type: FilterApproxMatch, Attribute: attribute, Value: value}
}

// NewExtensibleMatchFilter creates a new extensible match filter.
func NewExtensibleMatchFilter(em *ExtensibleMatch) *Filter {
	return &Filter{Type: FilterExtensibleMatch, Attribute: em.Attribute, Extensible: em}
}

// Attributes returns the distinct lower-cased attribute types the filter
// asserts on, in first-seen order. Extensible matches without a type
// contribute nothing.
func (f *Filter) Attributes() []string {
	var out []string
	seen := make(map[string]struct{})
	f.Walk(func(leaf *Filter) {
		if leaf.Attribute == "" {
			return
		}
		a := strings.ToLower(leaf.Attribute)
		if _, ok := seen[a]; !ok {
			seen[a] = struct{}{}
			out = append(out, a)
		}
	})
	return out
}

// Walk calls fn for every leaf (non AND/OR/NOT) filter, depth first.
func (f *Filter) Walk(fn func(*Filter)) {
	if f == nil {
		return
	}
	switch f.Type {
	case FilterAnd, FilterOr:
		for _, c := range f.Children {
			c.Walk(fn)
		}
	case FilterNot:
		f.Child.Walk(fn)
	default:
		fn(f)
	}
}
