package filter

import (
	"github.com/KilimcininKorOglu/oba-aci/internal/schema"
)

// Evaluator evaluates LDAP search filters against entries.
type Evaluator struct {
	schema *schema.Schema
}

// NewEvaluator creates a new filter evaluator. The schema selects the
// equality rule per attribute; with a nil schema every attribute compares
// case-insensitively.
func NewEvaluator(s *schema.Schema) *Evaluator {
	return &Evaluator{schema: s}
}

// Evaluate tests whether an entry matches a filter. Undefined results, such
// as an ordering assertion on a non-integer value of an integer attribute,
// do not match.
func (e *Evaluator) Evaluate(f *Filter, entry *Entry) bool {
	if f == nil || entry == nil {
		return false
	}

	switch f.Type {
	case FilterAnd:
		for _, child := range f.Children {
			if !e.Evaluate(child, entry) {
				return false
			}
		}
		return true
	case FilterOr:
		for _, child := range f.Children {
			if e.Evaluate(child, entry) {
				return true
			}
		}
		return false
	case FilterNot:
		return f.Child != nil && !e.Evaluate(f.Child, entry)
	case FilterEquality:
		k := e.kind(f.Attribute)
		return anyValue(entry.GetAttribute(f.Attribute), func(v []byte) bool {
			return k.equal(v, f.Value)
		})
	case FilterSubstring:
		sf := f.Substring
		if sf == nil {
			return false
		}
		k := e.kind(sf.Attribute)
		return anyValue(entry.GetAttribute(sf.Attribute), func(v []byte) bool {
			return k.matchSubstring(v, sf.Initial, sf.Any, sf.Final)
		})
	case FilterPresent:
		return len(entry.GetAttribute(f.Attribute)) > 0
	case FilterGreaterOrEqual, FilterLessOrEqual:
		k := e.kind(f.Attribute)
		return anyValue(entry.GetAttribute(f.Attribute), func(v []byte) bool {
			c, ok := k.compare(v, f.Value)
			if !ok {
				return false
			}
			if f.Type == FilterGreaterOrEqual {
				return c >= 0
			}
			return c <= 0
		})
	case FilterApproxMatch:
		return anyValue(entry.GetAttribute(f.Attribute), func(v []byte) bool {
			return matchApprox(v, f.Value)
		})
	case FilterExtensibleMatch:
		return e.evaluateExtensible(f.Extensible, entry)
	default:
		return false
	}
}

func (e *Evaluator) evaluateExtensible(em *ExtensibleMatch, entry *Entry) bool {
	if em == nil {
		return false
	}
	kindFor := func(attr string) (matchKind, bool) {
		if em.MatchingRule != "" {
			return kindForRule(em.MatchingRule)
		}
		return e.kind(attr), true
	}

	if em.Attribute != "" {
		k, ok := kindFor(em.Attribute)
		if !ok {
			return false
		}
		if anyValue(entry.GetAttribute(em.Attribute), func(v []byte) bool { return k.equal(v, em.Value) }) {
			return true
		}
	} else {
		k, ok := kindFor("")
		if !ok {
			return false
		}
		for _, values := range entry.Attributes {
			if anyValue(values, func(v []byte) bool { return k.equal(v, em.Value) }) {
				return true
			}
		}
	}

	if !em.DNAttributes {
		return false
	}
	for i := 0; i < entry.DN.NumRDNs(); i++ {
		for _, ava := range entry.DN.RDN(i) {
			if em.Attribute != "" && e.canonical(em.Attribute) != e.canonical(ava.Type) {
				continue
			}
			k, ok := kindFor(ava.Type)
			if ok && k.equal([]byte(ava.Value), em.Value) {
				return true
			}
		}
	}
	return false
}

// kind returns the comparison used for attr.
func (e *Evaluator) kind(attr string) matchKind {
	if e.schema == nil || attr == "" {
		return matchCaseIgnore
	}
	at := e.schema.Lookup(attr)
	if at == nil {
		return matchCaseIgnore
	}
	if at.HasDNSyntax() {
		return matchDN
	}
	if k, ok := kindForRule(at.Equality); ok {
		return k
	}
	if at.Syntax == schema.SyntaxInteger {
		return matchInteger
	}
	return matchCaseIgnore
}

// canonical maps aliases such as "commonName" to one name.
func (e *Evaluator) canonical(attr string) string {
	if e.schema != nil {
		if at := e.schema.Lookup(attr); at != nil {
			return at.OID
		}
	}
	return normalizeAttributeName(attr)
}

// Schema returns the evaluator's schema.
func (e *Evaluator) Schema() *schema.Schema {
	return e.schema
}

func anyValue(values [][]byte, fn func([]byte) bool) bool {
	for _, v := range values {
		if fn(v) {
			return true
		}
	}
	return false
}
