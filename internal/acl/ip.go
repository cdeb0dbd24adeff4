package acl

import (
	"net/netip"
	"strconv"
	"strings"
)

// ipPattern is an address with a bit mask. Wildcard octets and CIDR
// prefixes both reduce to a mask.
type ipPattern struct {
	value []byte
	mask  []byte
}

func (p ipPattern) matches(addr netip.Addr) bool {
	addr = addr.Unmap()
	b := addr.AsSlice()
	if len(b) != len(p.value) {
		return false
	}
	for i := range b {
		if b[i]&p.mask[i] != p.value[i]&p.mask[i] {
			return false
		}
	}
	return true
}

// decodeIP parses a comma separated list of address patterns: 10.0.*.*,
// 10.0.0.0+255.255.0.0, 10.0.0.0/8, 2001:db8::/32 and [::1].
func decodeIP(value string) ([]ipPattern, error) {
	var out []ipPattern
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		p, ok := parseIPPattern(part)
		if !ok {
			return nil, newSyntaxError(ErrInvalidBindRule, MsgIP, part, "invalid ip address pattern")
		}
		out = append(out, p)
	}
	return out, nil
}

func parseIPPattern(s string) (ipPattern, bool) {
	if s == "" {
		return ipPattern{}, false
	}
	prefixLen := -1
	if addr, bits, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.Atoi(bits)
		if err != nil || n < 0 {
			return ipPattern{}, false
		}
		s, prefixLen = addr, n
	}
	var netmask string
	if addr, m, ok := strings.Cut(s, "+"); ok {
		if prefixLen >= 0 {
			return ipPattern{}, false
		}
		s, netmask = addr, m
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")

	var p ipPattern
	if strings.Contains(s, ":") {
		addr, err := netip.ParseAddr(s)
		if err != nil || !addr.Is6() {
			return ipPattern{}, false
		}
		p.value = addr.AsSlice()
		p.mask = fullMask(16)
	} else {
		var ok bool
		if p.value, p.mask, ok = parseIPv4Wildcard(s); !ok {
			return ipPattern{}, false
		}
	}

	if prefixLen >= 0 {
		if prefixLen > len(p.value)*8 {
			return ipPattern{}, false
		}
		p.mask = prefixMask(prefixLen, len(p.value))
	}
	if netmask != "" {
		m, err := netip.ParseAddr(netmask)
		if err != nil || m.BitLen() != len(p.value)*8 {
			return ipPattern{}, false
		}
		p.mask = m.AsSlice()
	}
	return p, true
}

// parseIPv4Wildcard parses a dotted quad where any octet may be '*'.
// Trailing octets may be omitted and are treated as wildcards.
func parseIPv4Wildcard(s string) ([]byte, []byte, bool) {
	octets := strings.Split(s, ".")
	if len(octets) > 4 {
		return nil, nil, false
	}
	value, mask := make([]byte, 4), make([]byte, 4)
	for i, o := range octets {
		if o == "*" {
			continue
		}
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 || n > 255 || len(o) > 3 {
			return nil, nil, false
		}
		value[i], mask[i] = byte(n), 0xff
	}
	return value, mask, true
}

func fullMask(n int) []byte {
	m := make([]byte, n)
	for i := range m {
		m[i] = 0xff
	}
	return m
}

func prefixMask(bits, size int) []byte {
	m := make([]byte, size)
	for i := 0; i < size && bits > 0; i++ {
		if bits >= 8 {
			m[i] = 0xff
			bits -= 8
			continue
		}
		m[i] = byte(0xff << (8 - bits))
		bits = 0
	}
	return m
}

func (l *BindLeaf) evalIP(ctx *EvalContext) Result {
	if ctx.Client == nil || !ctx.Client.RemoteAddr.IsValid() {
		return ResultFalse.withType(l.Type, true)
	}
	matched := false
	for _, p := range l.ips {
		if p.matches(ctx.Client.RemoteAddr) {
			matched = true
			break
		}
	}
	return boolResult(matched).withType(l.Type, false)
}
