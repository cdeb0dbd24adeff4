package acl

import (
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/schema"
)

// Targets are the optional clauses restricting which entries and
// attributes an ACI governs.
type Targets struct {
	Target          *TargetDN
	TargetAttr      *TargetAttr
	TargetFilter    *TargetFilter
	TargAttrFilters *TargAttrFilters
	Scope           Scope
}

// TargetDN is a target clause. Pattern is set for wildcard targets, which
// match any DN ending with the pattern.
type TargetDN struct {
	Op      Operator
	DN      dn.DN
	Pattern *dn.Pattern
}

// TargetFilter is a targetfilter clause.
type TargetFilter struct {
	Op     Operator
	Filter *filter.Filter
}

// TargetAttr is a targetattr clause. Attrs holds lower-cased names with
// attribute options removed.
type TargetAttr struct {
	Op      Operator
	AllUser bool
	AllOp   bool
	Attrs   []string
}

func (t *TargetAttr) inSet(at *schema.AttributeType) bool {
	op := at.IsOperational()
	if (t.AllUser && !op) || (t.AllOp && op) {
		return true
	}
	for _, name := range t.Attrs {
		if at.HasName(name) {
			return true
		}
	}
	return false
}

const (
	kwTarget          = "target"
	kwTargetAttr      = "targetattr"
	kwTargetFilter    = "targetfilter"
	kwTargetScope     = "targetscope"
	kwTargAttrFilters = "targattrfilters"
)

// decodeTargets parses the text preceding the ACI body.
func decodeTargets(text string, holder dn.DN) (*Targets, error) {
	t := &Targets{Scope: ScopeSubtree}
	seen := make(map[string]bool)
	sc := &scanner{s: text}
	for {
		sc.skipSpace()
		if sc.eof() {
			return t, nil
		}
		start := sc.pos
		if !sc.consume('(') {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargetSyntax, sc.rest(), "expected '(' to open a target")
		}
		sc.skipSpace()
		kw := strings.ToLower(sc.word())
		sc.skipSpace()
		op, ok := sc.operator()
		if !ok || op > OpNotEqual {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargetSyntax, sc.s[start:], "expected = or != after target keyword")
		}
		sc.skipSpace()
		value, ok := sc.quoted()
		if !ok {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargetSyntax, sc.s[start:], "target value must be quoted")
		}
		sc.skipSpace()
		if !sc.consume(')') {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargetSyntax, sc.s[start:], "expected ')' to close a target")
		}
		clause := sc.s[start:sc.pos]

		switch kw {
		case kwTarget, kwTargetAttr, kwTargetFilter, kwTargetScope, kwTargAttrFilters:
		default:
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargetKeyword, clause, "unknown target keyword %q", kw)
		}
		if seen[kw] {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargetDuplicate, clause, "target keyword %q appears more than once", kw)
		}
		seen[kw] = true
		if op == OpNotEqual && (kw == kwTargetScope || kw == kwTargAttrFilters) {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargetOperator, clause, "%s does not allow the != operator", kw)
		}

		var err error
		switch kw {
		case kwTarget:
			t.Target, err = decodeTargetDN(op, value, holder)
		case kwTargetAttr:
			t.TargetAttr, err = decodeTargetAttr(op, value)
		case kwTargetFilter:
			t.TargetFilter, err = decodeTargetFilter(op, value)
		case kwTargetScope:
			t.Scope, err = parseScope(value)
			if err != nil {
				err = newSyntaxError(ErrInvalidTarget, MsgTargetScope, value, "invalid targetscope").wrap(err)
			}
		case kwTargAttrFilters:
			t.TargAttrFilters, err = decodeTargAttrFilters(value)
		}
		if err != nil {
			return nil, err
		}
	}
}

func decodeTargetDN(op Operator, value string, holder dn.DN) (*TargetDN, error) {
	value = strings.TrimSpace(value)
	if !hasLDAPPrefix(value) {
		return nil, newSyntaxError(ErrInvalidTarget, MsgTargetDN, value, "target must start with %q", ldapURLPrefix)
	}
	text := strings.TrimSpace(value[len(ldapURLPrefix):])
	if text == "" {
		return nil, newSyntaxError(ErrInvalidTarget, MsgTargetDN, value, "target DN is empty")
	}

	if dn.IsPattern(text) {
		p, err := dn.ParseSuffixPattern(text)
		if err != nil {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargetDN, value, "invalid target DN pattern").wrap(err)
		}
		return &TargetDN{Op: op, Pattern: p}, nil
	}

	d, err := dn.Parse(text)
	if err != nil {
		return nil, newSyntaxError(ErrInvalidTarget, MsgTargetDN, value, "invalid target DN").wrap(err)
	}
	if !d.IsDescendantOf(holder) {
		return nil, newSyntaxError(ErrInvalidTarget, MsgTargetNotDescendant, value,
			"target DN is not a descendant of the ACI entry %q", holder.String())
	}
	return &TargetDN{Op: op, DN: d}, nil
}

func decodeTargetAttr(op Operator, value string) (*TargetAttr, error) {
	t := &TargetAttr{Op: op}
	for _, part := range strings.Split(value, "||") {
		name := strings.TrimSpace(part)
		switch name {
		case "*":
			t.AllUser = true
			continue
		case "+":
			t.AllOp = true
			continue
		}
		base, ok := splitAttributeOptions(name)
		if !ok {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargetAttr, value, "invalid attribute name %q", name)
		}
		t.Attrs = append(t.Attrs, strings.ToLower(base))
	}
	return t, nil
}

// splitAttributeOptions validates name[;option]* and returns the name.
func splitAttributeOptions(s string) (string, bool) {
	parts := strings.Split(s, ";")
	if !dn.ValidAttributeType(parts[0]) {
		return "", false
	}
	for _, opt := range parts[1:] {
		if opt == "" {
			return "", false
		}
		for i := 0; i < len(opt); i++ {
			c := opt[i]
			if !(c == '-' || c == '_' || c == '.' || (c >= '0' && c <= '9') || (c|0x20 >= 'a' && c|0x20 <= 'z')) {
				return "", false
			}
		}
	}
	return parts[0], true
}

func decodeTargetFilter(op Operator, value string) (*TargetFilter, error) {
	f, err := filter.Parse(strings.TrimSpace(value))
	if err != nil {
		return nil, newSyntaxError(ErrInvalidTarget, MsgTargetFilter, value, "invalid targetfilter").wrap(err)
	}
	return &TargetFilter{Op: op, Filter: f}, nil
}
