package acl

import (
	"strings"
	"time"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/logging"
)

// Version is the only ACI version accepted.
const Version = "3.0"

// ACI is a decoded access control instruction. It is immutable; a changed
// aci value produces a new ACI.
type ACI struct {
	raw      string
	HolderDN dn.DN
	Targets  *Targets
	Version  string
	Name     string
	Pairs    []PermBindRulePair
}

// Permission is the access type and rights of one pair.
type Permission struct {
	Type   AccessType
	Rights Right
}

// PermBindRulePair is one "allow|deny (rights) bindrule;" clause.
type PermBindRulePair struct {
	Permission
	BindRule *BindRule
}

// String returns the ACI text exactly as it was decoded.
func (a *ACI) String() string {
	return a.raw
}

// hasRights reports whether any pair covers one of rights.
func (a *ACI) hasRights(rights Right) bool {
	for _, p := range a.Pairs {
		if p.Rights&rights != 0 {
			return true
		}
	}
	return false
}

// hasAccessType reports whether any pair has the access type.
func (a *ACI) hasAccessType(t AccessType) bool {
	for _, p := range a.Pairs {
		if p.Type == t {
			return true
		}
	}
	return false
}

// evaluate runs the bind rules of the pairs matching the list being
// evaluated and the requested rights. The first non-false result wins.
func (a *ACI) evaluate(ctx *EvalContext) Result {
	want := Allow
	if ctx.Scratch.DenyEval {
		want = Deny
	}
	res := ResultFalse
	for _, p := range a.Pairs {
		if p.Type != want || p.Rights&ctx.Rights == 0 {
			continue
		}
		res = p.BindRule.Evaluate(ctx)
		if res != ResultFalse {
			break
		}
	}
	return res
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	resolver       Resolver
	resolveTimeout time.Duration
	logger         logging.Logger
}

// WithResolver enables the canonical hostname check for literal dns
// values. Mismatches are logged, never rejected.
func WithResolver(r Resolver) DecodeOption {
	return func(o *decodeOptions) {
		o.resolver = r
	}
}

// WithResolveTimeout bounds each lookup made by the canonical hostname check.
func WithResolveTimeout(d time.Duration) DecodeOption {
	return func(o *decodeOptions) {
		o.resolveTimeout = d
	}
}

// WithDecodeLogger sets the logger used for decode warnings.
func WithDecodeLogger(l logging.Logger) DecodeOption {
	return func(o *decodeOptions) {
		o.logger = l
	}
}

func newDecodeOptions(opts []DecodeOption) *decodeOptions {
	o := &decodeOptions{resolveTimeout: 2 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	return o
}

// Decode parses an aci attribute value held by the entry holder. Global
// ACIs use the root DN as holder. Decoding is all-or-nothing: any malformed
// part returns a *SyntaxError.
func Decode(value string, holder dn.DN, opts ...DecodeOption) (*ACI, error) {
	o := newDecodeOptions(opts)
	text := strings.TrimSpace(value)
	if text == "" {
		return nil, newSyntaxError(ErrInvalidACI, MsgSyntax, value, "empty ACI")
	}

	bodyStart := findBody(text)
	if bodyStart < 0 {
		return nil, newSyntaxError(ErrInvalidACI, MsgSyntax, value, "missing (version 3.0; acl \"name\"; ...) body")
	}

	a := &ACI{raw: value, HolderDN: holder}
	if err := decodeBody(text[bodyStart:], a, o); err != nil {
		return nil, err
	}
	targets, err := decodeTargets(text[:bodyStart], holder)
	if err != nil {
		return nil, err
	}
	a.Targets = targets
	return a, nil
}

// findBody returns the index of the '(' that opens "(version", ignoring
// quoted text, or -1.
func findBody(s string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if inQuote {
				continue
			}
			sc := &scanner{s: s, pos: i + 1}
			sc.skipSpace()
			if sc.consumeFold("version") {
				return i
			}
		}
	}
	return -1
}

func decodeBody(s string, a *ACI, o *decodeOptions) error {
	sc := &scanner{s: s}
	sc.consume('(')
	sc.skipSpace()
	sc.consumeFold("version")
	sc.skipSpace()

	semi := strings.IndexByte(sc.rest(), ';')
	if semi < 0 {
		return newSyntaxError(ErrInvalidACI, MsgSyntax, s, "expected ';' after version")
	}
	a.Version = strings.TrimSpace(sc.rest()[:semi])
	if a.Version != Version {
		return newSyntaxError(ErrInvalidACI, MsgVersion, a.Version, "version must be %s", Version)
	}
	sc.pos += semi + 1

	sc.skipSpace()
	if !sc.consumeFold("acl") {
		return newSyntaxError(ErrInvalidACI, MsgName, sc.rest(), "expected acl \"name\"")
	}
	sc.skipSpace()
	name, ok := sc.quoted()
	if !ok {
		return newSyntaxError(ErrInvalidACI, MsgName, sc.rest(), "ACI name must be quoted")
	}
	a.Name = name
	sc.skipSpace()
	if !sc.consume(';') {
		return newSyntaxError(ErrInvalidACI, MsgName, sc.rest(), "expected ';' after ACI name")
	}

	for {
		sc.skipSpace()
		if sc.eof() {
			return newSyntaxError(ErrInvalidACI, MsgSyntax, s, "missing ')' at end of ACI body")
		}
		if sc.peek() == ')' {
			break
		}
		pair, err := decodePair(sc, o)
		if err != nil {
			return err
		}
		a.Pairs = append(a.Pairs, pair)
	}
	sc.consume(')')
	sc.skipSpace()
	if !sc.eof() {
		return newSyntaxError(ErrInvalidACI, MsgSyntax, sc.rest(), "unexpected text after ACI body")
	}
	if len(a.Pairs) == 0 {
		return newSyntaxError(ErrInvalidACI, MsgNoPermissions, s, "ACI has no permission and bind rule pairs")
	}
	return nil
}

func decodePair(sc *scanner, o *decodeOptions) (PermBindRulePair, error) {
	var pair PermBindRulePair
	start := sc.pos

	switch strings.ToLower(sc.word()) {
	case "allow":
		pair.Type = Allow
	case "deny":
		pair.Type = Deny
	default:
		return pair, newSyntaxError(ErrInvalidACI, MsgAccessType, sc.s[start:], "access type must be allow or deny")
	}

	sc.skipSpace()
	if !sc.consume('(') {
		return pair, newSyntaxError(ErrInvalidRight, MsgRights, sc.s[start:], "expected '(' before rights")
	}
	end := strings.IndexByte(sc.rest(), ')')
	if end < 0 {
		return pair, newSyntaxError(ErrInvalidRight, MsgRights, sc.s[start:], "expected ')' after rights")
	}
	rights, err := decodeRights(sc.rest()[:end])
	if err != nil {
		return pair, err
	}
	pair.Rights = rights
	sc.pos += end + 1

	ruleEnd := indexOutsideQuotes(sc.rest(), ';')
	if ruleEnd < 0 {
		return pair, newSyntaxError(ErrInvalidBindRule, MsgBindRuleSyntax, sc.s[start:], "bind rule must end with ';'")
	}
	rule, err := parseBindRule(sc.rest()[:ruleEnd], o)
	if err != nil {
		return pair, err
	}
	pair.BindRule = rule
	sc.pos += ruleEnd + 1
	return pair, nil
}

func decodeRights(s string) (Right, error) {
	var rights Right
	for _, tok := range strings.Split(s, ",") {
		r, ok := parseRight(strings.TrimSpace(tok))
		if !ok {
			return None, newSyntaxError(ErrInvalidRight, MsgRights, s, "unknown right %q", strings.TrimSpace(tok))
		}
		rights |= r
	}
	return rights, nil
}
