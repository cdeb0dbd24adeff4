package acl

import (
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
)

type userDNKind int

const (
	userDNLiteral userDNKind = iota
	userDNPattern
	userDNURL
	userDNSelf
	userDNAnyone
	userDNParent
	userDNAll
)

type userDNValue struct {
	kind    userDNKind
	dn      dn.DN
	pattern *dn.Pattern
	url     *ldapURL
}

// decodeUserDN parses "ldap:///dn || ldap:///dn ...". Each value is a DN,
// a DN pattern, a full LDAP URL or one of self, anyone, parent and all.
func decodeUserDN(value string) ([]userDNValue, error) {
	var out []userDNValue
	for _, part := range strings.Split(value, "||") {
		part = strings.TrimSpace(part)
		if !hasLDAPPrefix(part) {
			return nil, newSyntaxError(ErrInvalidBindRule, MsgUserDN, part, "userdn value must start with %q", ldapURLPrefix)
		}
		rest := strings.TrimSpace(part[len(ldapURLPrefix):])

		switch strings.ToLower(rest) {
		case "self":
			out = append(out, userDNValue{kind: userDNSelf})
			continue
		case "anyone":
			out = append(out, userDNValue{kind: userDNAnyone})
			continue
		case "parent":
			out = append(out, userDNValue{kind: userDNParent})
			continue
		case "all":
			out = append(out, userDNValue{kind: userDNAll})
			continue
		case "":
			return nil, newSyntaxError(ErrInvalidBindRule, MsgUserDN, part, "userdn DN is empty")
		}

		switch {
		case strings.Contains(rest, "?"):
			u, err := parseLDAPURL(part)
			if err != nil {
				return nil, newSyntaxError(ErrInvalidBindRule, MsgUserDN, part, "invalid userdn URL").wrap(err)
			}
			out = append(out, userDNValue{kind: userDNURL, url: u})
		case dn.IsPattern(rest):
			p, err := dn.ParsePattern(rest)
			if err != nil {
				return nil, newSyntaxError(ErrInvalidBindRule, MsgUserDN, part, "invalid userdn pattern").wrap(err)
			}
			out = append(out, userDNValue{kind: userDNPattern, pattern: p})
		default:
			d, err := dn.Parse(rest)
			if err != nil {
				return nil, newSyntaxError(ErrInvalidBindRule, MsgUserDN, part, "invalid userdn DN").wrap(err)
			}
			out = append(out, userDNValue{kind: userDNLiteral, dn: d})
		}
	}
	return out, nil
}

func (l *BindLeaf) evalUserDN(ctx *EvalContext) Result {
	anonymous := ctx.isAnonymous()
	client := ctx.clientDN()
	matched := false
	for _, v := range l.userDNs {
		if anonymous {
			matched = v.kind == userDNAnyone
		} else {
			matched = v.matches(ctx, client)
		}
		if matched {
			break
		}
	}
	return boolResult(matched).withType(l.Type, false)
}

func (v userDNValue) matches(ctx *EvalContext, client dn.DN) bool {
	switch v.kind {
	case userDNLiteral:
		return client.Equal(v.dn)
	case userDNPattern:
		return v.pattern.Matches(client)
	case userDNURL:
		return ctx.clientMatchesURL(v.url)
	case userDNSelf:
		return client.Equal(ctx.resourceDN())
	case userDNParent:
		res := ctx.resourceDN()
		return !res.IsRoot() && res.Parent().Equal(client)
	case userDNAnyone, userDNAll:
		return true
	}
	return false
}

// groupRef is one groupdn or roledn value.
type groupRef struct {
	dn dn.DN
}

func decodeGroupDNs(value string, id MessageID) ([]groupRef, error) {
	var out []groupRef
	for _, part := range strings.Split(value, "||") {
		part = strings.TrimSpace(part)
		if !hasLDAPPrefix(part) {
			return nil, newSyntaxError(ErrInvalidBindRule, id, part, "value must start with %q", ldapURLPrefix)
		}
		d, err := dn.Parse(part[len(ldapURLPrefix):])
		if err != nil {
			return nil, newSyntaxError(ErrInvalidBindRule, id, part, "invalid group DN").wrap(err)
		}
		if d.IsRoot() {
			return nil, newSyntaxError(ErrInvalidBindRule, id, part, "group DN is empty")
		}
		out = append(out, groupRef{dn: d})
	}
	return out, nil
}

func (l *BindLeaf) evalGroupDN(ctx *EvalContext) Result {
	matched, undefined := false, false
	for _, g := range l.groupDNs {
		ok, err := ctx.isMember(g.dn)
		if err != nil {
			undefined = true
			break
		}
		if ok {
			matched = true
			break
		}
	}
	return boolResult(matched).withType(l.Type, undefined)
}
