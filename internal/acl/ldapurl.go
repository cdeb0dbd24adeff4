package acl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
)

const ldapURLPrefix = "ldap:///"

// ldapURL is an RFC 4516 URL without host: ldap:///base?attrs?scope?filter.
type ldapURL struct {
	base   dn.DN
	attrs  []string
	scope  Scope
	filter *filter.Filter
	raw    string
}

func hasLDAPPrefix(s string) bool {
	return len(s) >= len(ldapURLPrefix) && strings.EqualFold(s[:len(ldapURLPrefix)], ldapURLPrefix)
}

// parseLDAPURL parses s. The scope defaults to base and a missing filter
// matches every entry.
func parseLDAPURL(s string) (*ldapURL, error) {
	s = strings.TrimSpace(s)
	if !hasLDAPPrefix(s) {
		return nil, fmt.Errorf("URL %q does not start with %q", s, ldapURLPrefix)
	}
	parts := strings.SplitN(s[len(ldapURLPrefix):], "?", 5)

	base, err := url.PathUnescape(parts[0])
	if err != nil {
		return nil, err
	}
	u := &ldapURL{scope: ScopeBase, raw: s}
	if u.base, err = dn.Parse(base); err != nil {
		return nil, err
	}

	if len(parts) > 1 && parts[1] != "" {
		for _, a := range strings.Split(parts[1], ",") {
			if a = strings.TrimSpace(a); a != "" {
				u.attrs = append(u.attrs, a)
			}
		}
	}

	if len(parts) > 2 {
		switch strings.ToLower(strings.TrimSpace(parts[2])) {
		case "", "base":
			u.scope = ScopeBase
		case "one", "onelevel":
			u.scope = ScopeOneLevel
		case "sub", "subtree":
			u.scope = ScopeSubtree
		case "subordinate", "subordinates":
			u.scope = ScopeSubordinate
		default:
			return nil, fmt.Errorf("bad scope %q in URL %q", parts[2], s)
		}
	}

	if len(parts) > 3 && strings.TrimSpace(parts[3]) != "" {
		text, err := url.PathUnescape(parts[3])
		if err != nil {
			return nil, err
		}
		if u.filter, err = filter.Parse(strings.TrimSpace(text)); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// inScope reports whether d lies within scope of base.
func inScope(scope Scope, base, d dn.DN) bool {
	switch scope {
	case ScopeBase:
		return d.Equal(base)
	case ScopeOneLevel:
		return !d.IsRoot() && d.Parent().Equal(base)
	case ScopeSubordinate:
		return d.IsStrictDescendantOf(base)
	default:
		return d.IsDescendantOf(base)
	}
}
