package acl

import (
	"strings"
)

// BoolOp is the node type of a bind rule expression.
type BoolOp int

const (
	BoolLeaf BoolOp = iota
	BoolAnd
	BoolOr
	BoolNot
)

// BindRule is a bind rule expression tree. A NOT node keeps its operand in
// Left.
type BindRule struct {
	Op    BoolOp
	Left  *BindRule
	Right *BindRule
	Leaf  *BindLeaf
}

// Evaluate evaluates the expression. Both operands of AND and OR are always
// evaluated so that a failure anywhere fails the whole expression.
func (r *BindRule) Evaluate(ctx *EvalContext) Result {
	switch r.Op {
	case BoolLeaf:
		return r.Leaf.evaluate(ctx)
	case BoolNot:
		switch r.Left.Evaluate(ctx) {
		case ResultTrue:
			return ResultFalse
		case ResultFalse:
			return ResultTrue
		default:
			return ResultFail
		}
	}

	left, right := r.Left.Evaluate(ctx), r.Right.Evaluate(ctx)
	if left == ResultFail || right == ResultFail {
		return ResultFail
	}
	if r.Op == BoolAnd {
		return boolResult(left == ResultTrue && right == ResultTrue)
	}
	return boolResult(left == ResultTrue || right == ResultTrue)
}

// Keyword names a bind rule predicate.
type Keyword int

const (
	KeywordUserDN Keyword = iota
	KeywordGroupDN
	KeywordRoleDN
	KeywordIP
	KeywordDNS
	KeywordDayOfWeek
	KeywordTimeOfDay
	KeywordUserAttr
	KeywordAuthMethod
)

var keywords = map[string]Keyword{
	"userdn":     KeywordUserDN,
	"groupdn":    KeywordGroupDN,
	"roledn":     KeywordRoleDN,
	"ip":         KeywordIP,
	"dns":        KeywordDNS,
	"dayofweek":  KeywordDayOfWeek,
	"timeofday":  KeywordTimeOfDay,
	"userattr":   KeywordUserAttr,
	"authmethod": KeywordAuthMethod,
}

// String returns the keyword as written in an ACI.
func (k Keyword) String() string {
	for name, kw := range keywords {
		if kw == k {
			return name
		}
	}
	return "unknown"
}

// BindLeaf is one keyword predicate. Exactly one of the keyword-specific
// fields is populated, according to Keyword.
type BindLeaf struct {
	Keyword Keyword
	Type    Operator
	Value   string

	userDNs   []userDNValue
	groupDNs  []groupRef
	ips       []ipPattern
	hosts     []string
	days      weekdays
	timeOfDay int
	userAttr  *userAttrRule
	auth      authMethodRule
}

func (l *BindLeaf) evaluate(ctx *EvalContext) Result {
	switch l.Keyword {
	case KeywordUserDN:
		return l.evalUserDN(ctx)
	case KeywordGroupDN, KeywordRoleDN:
		return l.evalGroupDN(ctx)
	case KeywordIP:
		return l.evalIP(ctx)
	case KeywordDNS:
		return l.evalDNS(ctx)
	case KeywordDayOfWeek:
		return l.evalDayOfWeek(ctx)
	case KeywordTimeOfDay:
		return l.evalTimeOfDay(ctx)
	case KeywordUserAttr:
		return l.evalUserAttr(ctx)
	case KeywordAuthMethod:
		return l.evalAuthMethod(ctx)
	}
	return ResultFail
}

// bindRuleParser is a recursive descent parser with the precedence
// not > and > or.
type bindRuleParser struct {
	scanner
	opts *decodeOptions
}

func parseBindRule(s string, o *decodeOptions) (*BindRule, error) {
	p := &bindRuleParser{scanner: scanner{s: s}, opts: o}
	p.skipSpace()
	if p.eof() {
		return nil, newSyntaxError(ErrInvalidBindRule, MsgBindRuleSyntax, s, "empty bind rule")
	}
	r, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, newSyntaxError(ErrInvalidBindRule, MsgBindRuleSyntax, p.rest(), "unexpected text in bind rule")
	}
	return r, nil
}

func (p *bindRuleParser) parseOr() (*BindRule, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.connective("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BindRule{Op: BoolOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *bindRuleParser) parseAnd() (*BindRule, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.connective("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BindRule{Op: BoolAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *bindRuleParser) parseNot() (*BindRule, error) {
	if p.connective("not") {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &BindRule{Op: BoolNot, Left: operand}, nil
	}
	return p.parsePrimary()
}

func (p *bindRuleParser) parsePrimary() (*BindRule, error) {
	p.skipSpace()
	if p.consume('(') {
		r, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(')') {
			return nil, newSyntaxError(ErrInvalidBindRule, MsgBindRuleParens, p.s, "missing ')' in bind rule")
		}
		return r, nil
	}
	leaf, err := p.parseLeaf()
	if err != nil {
		return nil, err
	}
	return &BindRule{Op: BoolLeaf, Leaf: leaf}, nil
}

// connective consumes the boolean keyword w when it is followed by
// whitespace or '('.
func (p *bindRuleParser) connective(w string) bool {
	save := p.pos
	p.skipSpace()
	if p.consumeFold(w) && !p.eof() && (isSpace(p.peek()) || p.peek() == '(') {
		return true
	}
	p.pos = save
	return false
}

func (p *bindRuleParser) parseLeaf() (*BindLeaf, error) {
	start := p.pos
	name := strings.ToLower(p.word())
	kw, ok := keywords[name]
	if !ok {
		return nil, newSyntaxError(ErrInvalidBindRule, MsgBindRuleKeyword, p.s[start:], "unknown bind rule keyword %q", name)
	}
	p.skipSpace()
	op, ok := p.operator()
	if !ok {
		return nil, newSyntaxError(ErrInvalidBindRule, MsgBindRuleOperator, p.s[start:], "expected an operator after %q", name)
	}
	if op > OpNotEqual && kw != KeywordTimeOfDay {
		return nil, newSyntaxError(ErrInvalidBindRule, MsgBindRuleOperator, p.s[start:],
			"operator %s is only valid for timeofday", op)
	}
	p.skipSpace()
	value, ok := p.quoted()
	if !ok {
		return nil, newSyntaxError(ErrInvalidBindRule, MsgBindRuleSyntax, p.s[start:], "bind rule value must be quoted")
	}
	if strings.TrimSpace(value) == "" {
		return nil, newSyntaxError(ErrInvalidBindRule, MsgBindRuleSyntax, p.s[start:], "empty bind rule value")
	}

	leaf := &BindLeaf{Keyword: kw, Type: op, Value: value}
	var err error
	switch kw {
	case KeywordUserDN:
		leaf.userDNs, err = decodeUserDN(value)
	case KeywordGroupDN:
		leaf.groupDNs, err = decodeGroupDNs(value, MsgGroupDN)
	case KeywordRoleDN:
		leaf.groupDNs, err = decodeGroupDNs(value, MsgRoleDN)
	case KeywordIP:
		leaf.ips, err = decodeIP(value)
	case KeywordDNS:
		leaf.hosts, err = decodeDNS(value, p.opts)
	case KeywordDayOfWeek:
		leaf.days, err = decodeDayOfWeek(value)
	case KeywordTimeOfDay:
		leaf.timeOfDay, err = decodeTimeOfDay(value)
	case KeywordUserAttr:
		leaf.userAttr, err = decodeUserAttr(value)
	case KeywordAuthMethod:
		leaf.auth, err = decodeAuthMethod(value)
	}
	if err != nil {
		return nil, err
	}
	return leaf, nil
}
