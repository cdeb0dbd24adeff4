package acl

import (
	"context"
	"strings"
)

// decodeDNS parses a comma separated list of host name patterns. Only the
// leftmost label may be the wildcard "*".
func decodeDNS(value string, o *decodeOptions) ([]string, error) {
	var hosts []string
	for _, part := range strings.Split(value, ",") {
		host := strings.ToLower(strings.TrimSpace(part))
		if !validHostPattern(host) {
			return nil, newSyntaxError(ErrInvalidBindRule, MsgDNS, part, "invalid dns host name pattern")
		}
		hosts = append(hosts, host)
		if o != nil && o.resolver != nil && !strings.Contains(host, "*") {
			hosts = append(hosts, o.canonicalAliases(host)...)
		}
	}
	return hosts, nil
}

func validHostPattern(host string) bool {
	if host == "*" {
		return true
	}
	if host == "" {
		return false
	}
	for i, label := range strings.Split(host, ".") {
		if label == "*" && i == 0 {
			continue
		}
		if label == "" {
			return false
		}
		for j := 0; j < len(label); j++ {
			c := label[j]
			if !(c == '-' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
				return false
			}
		}
	}
	return true
}

// canonicalAliases resolves host and compares it with its canonical name.
// A mismatch only produces a warning. For localhost the canonical name is
// returned so that rules written for localhost keep matching.
func (o *decodeOptions) canonicalAliases(host string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), o.resolveTimeout)
	defer cancel()

	addrs, err := o.resolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		o.logger.Warn("dns bind rule host does not resolve", "host", host, "error", err)
		return nil
	}
	names, err := o.resolver.LookupAddr(ctx, addrs[0])
	if err != nil || len(names) == 0 {
		o.logger.Warn("dns bind rule host has no canonical name", "host", host, "address", addrs[0], "error", err)
		return nil
	}
	canonical := strings.ToLower(strings.TrimSuffix(names[0], "."))
	if canonical == host {
		return nil
	}
	if host == "localhost" {
		return []string{canonical}
	}
	o.logger.Warn("dns bind rule host differs from its canonical name",
		"message_id", MsgDNS, "host", host, "canonical", canonical)
	return nil
}

func (l *BindLeaf) evalDNS(ctx *EvalContext) Result {
	host, ok := ctx.hostname()
	if !ok {
		return ResultFalse.withType(l.Type, true)
	}
	remote := strings.Split(host, ".")
	matched := false
	for _, pattern := range l.hosts {
		if pattern == "*" || matchHostName(remote, strings.Split(pattern, ".")) {
			matched = true
			break
		}
	}
	return boolResult(matched).withType(l.Type, false)
}

// matchHostName compares labels from the right. A leading "*" label in the
// pattern absorbs one or more remote labels.
func matchHostName(remote, pattern []string) bool {
	wildcard := pattern[0] == "*"
	if wildcard {
		pattern = pattern[1:]
		if len(remote) <= len(pattern) {
			return false
		}
	} else if len(remote) != len(pattern) {
		return false
	}
	offset := len(remote) - len(pattern)
	for i, label := range pattern {
		if !strings.EqualFold(remote[offset+i], label) {
			return false
		}
	}
	return true
}
