package acl

import (
	"strconv"
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
)

type userAttrKind int

const (
	userAttrValue userAttrKind = iota
	userAttrUserDN
	userAttrGroupDN
	userAttrRoleDN
	userAttrLDAPURL
)

// maxInheritanceLevels bounds parent[...] lists.
const maxInheritanceLevels = 10

// userAttrRule is a decoded userattr value.
type userAttrRule struct {
	kind   userAttrKind
	attr   string
	value  string
	levels []int
	base   *dn.DN
}

// decodeUserAttr parses attr#TYPE, attr#value, parent[levels].attr#TYPE
// and ldap:///base?attr#TYPE.
func decodeUserAttr(value string) (*userAttrRule, error) {
	hash := strings.LastIndexByte(value, '#')
	if hash <= 0 || hash == len(value)-1 {
		return nil, newSyntaxError(ErrInvalidBindRule, MsgUserAttr, value, "userattr must be attribute#type")
	}
	left, right := strings.TrimSpace(value[:hash]), strings.TrimSpace(value[hash+1:])

	r := &userAttrRule{levels: []int{0}}
	switch strings.ToUpper(right) {
	case "USERDN":
		r.kind = userAttrUserDN
	case "GROUPDN":
		r.kind = userAttrGroupDN
	case "ROLEDN":
		r.kind = userAttrRoleDN
	case "LDAPURL":
		r.kind = userAttrLDAPURL
	default:
		r.kind, r.value = userAttrValue, right
	}
	inheritable := r.kind == userAttrUserDN || r.kind == userAttrGroupDN

	switch {
	case len(left) >= len("parent[") && strings.EqualFold(left[:len("parent[")], "parent["):
		if !inheritable {
			return nil, newSyntaxError(ErrInvalidBindRule, MsgUserAttrInheritance, value,
				"parent inheritance requires USERDN or GROUPDN")
		}
		end := strings.Index(left, "].")
		if end < 0 {
			return nil, newSyntaxError(ErrInvalidBindRule, MsgUserAttrInheritance, value, "expected parent[levels].attribute")
		}
		levels, err := parseLevels(left[len("parent["):end])
		if err != nil {
			return nil, newSyntaxError(ErrInvalidBindRule, MsgUserAttrInheritance, value, "invalid inheritance levels").wrap(err)
		}
		r.levels = levels
		left = left[end+2:]
	case hasLDAPPrefix(left):
		if !inheritable {
			return nil, newSyntaxError(ErrInvalidBindRule, MsgUserAttrInheritance, value,
				"an LDAP URL base requires USERDN or GROUPDN")
		}
		u, err := parseLDAPURL(left)
		if err != nil || len(u.attrs) != 1 {
			return nil, newSyntaxError(ErrInvalidBindRule, MsgUserAttr, value, "expected ldap:///base?attribute")
		}
		r.base = &u.base
		left = u.attrs[0]
	}

	name, ok := splitAttributeOptions(left)
	if !ok {
		return nil, newSyntaxError(ErrInvalidBindRule, MsgUserAttr, value, "invalid attribute name %q", left)
	}
	r.attr = name
	return r, nil
}

func parseLevels(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) > maxInheritanceLevels {
		return nil, strconv.ErrRange
	}
	levels := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		if n < 0 || n >= maxInheritanceLevels {
			return nil, strconv.ErrRange
		}
		levels = append(levels, n)
	}
	return levels, nil
}

func (l *BindLeaf) evalUserAttr(ctx *EvalContext) Result {
	r := l.userAttr
	if ctx.isAnonymous() {
		return ResultFalse.withType(l.Type, false)
	}
	switch r.kind {
	case userAttrValue:
		return boolResult(r.evalValue(ctx)).withType(l.Type, false)
	case userAttrLDAPURL:
		return boolResult(r.evalURL(ctx)).withType(l.Type, false)
	}

	matched, undefined := false, false
	for _, level := range r.levels {
		entry := ctx.ancestor(level)
		if entry == nil {
			continue
		}
		for _, v := range entry.GetStrings(r.attr) {
			d, err := dn.Parse(trimUID(v))
			if err != nil {
				continue
			}
			if r.base != nil && !d.IsDescendantOf(*r.base) {
				continue
			}
			if r.kind == userAttrUserDN {
				matched = d.Equal(ctx.clientDN())
			} else {
				ok, err := ctx.isMember(d)
				if err != nil {
					undefined = true
				}
				matched = ok
			}
			if matched {
				return ResultTrue.withType(l.Type, false)
			}
		}
	}
	return ResultFalse.withType(l.Type, undefined)
}

// evalValue requires both the client entry and the resource entry to hold
// attr=value.
func (r *userAttrRule) evalValue(ctx *EvalContext) bool {
	client := ctx.clientEntry()
	if client == nil || ctx.Resource == nil {
		return false
	}
	v := []byte(r.value)
	return client.HasValue(r.attr, v) && ctx.Resource.HasValue(r.attr, v)
}

func (r *userAttrRule) evalURL(ctx *EvalContext) bool {
	if ctx.Resource == nil {
		return false
	}
	for _, v := range ctx.Resource.GetStrings(r.attr) {
		u, err := parseLDAPURL(v)
		if err != nil {
			continue
		}
		if ctx.clientMatchesURL(u) {
			return true
		}
	}
	return false
}
