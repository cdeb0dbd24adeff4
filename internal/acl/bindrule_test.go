package acl

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
)

func mustBindRule(t *testing.T, s string) *BindRule {
	t.Helper()
	r, err := parseBindRule(s, newDecodeOptions(nil))
	require.NoError(t, err)
	return r
}

func evalRule(t *testing.T, s string, ctx *EvalContext) Result {
	t.Helper()
	return mustBindRule(t, s).Evaluate(ctx)
}

func clientCtx(client string, resource string) *EvalContext {
	ctx := &EvalContext{Client: &Client{}}
	if client != "" {
		ctx.Client.DN = dn.MustParse(client)
	}
	if resource != "" {
		ctx.Resource = filter.NewEntry(dn.MustParse(resource))
	}
	return ctx
}

func TestBindRulePrecedence(t *testing.T) {
	r := mustBindRule(t, `userdn="ldap:///anyone" or userdn="ldap:///self" and ip="10.0.0.1"`)
	require.Equal(t, BoolOr, r.Op)
	assert.Equal(t, BoolLeaf, r.Left.Op)
	require.Equal(t, BoolAnd, r.Right.Op)

	r = mustBindRule(t, `not userdn="ldap:///anyone" and ip="10.0.0.1"`)
	require.Equal(t, BoolAnd, r.Op)
	assert.Equal(t, BoolNot, r.Left.Op)

	r = mustBindRule(t, `(userdn="ldap:///anyone" or userdn="ldap:///self") and ip="10.0.0.1"`)
	require.Equal(t, BoolAnd, r.Op)
	assert.Equal(t, BoolOr, r.Left.Op)

	r = mustBindRule(t, `NOT(userdn="ldap:///anyone")`)
	assert.Equal(t, BoolNot, r.Op)
}

func TestBindRuleConnectiveNeedsSeparator(t *testing.T) {
	_, err := parseBindRule(`userdn="ldap:///anyone" oruserdn="ldap:///self"`, newDecodeOptions(nil))
	assert.Error(t, err)
}

func TestBindRuleEvaluate(t *testing.T) {
	const bob = "uid=bob,ou=people,dc=example,dc=com"
	const alice = "uid=alice,ou=people,dc=example,dc=com"

	tests := []struct {
		name   string
		rule   string
		client string
		want   Result
	}{
		{"anyone matches anonymous", `userdn="ldap:///anyone"`, "", ResultTrue},
		{"all needs a bind", `userdn="ldap:///all"`, "", ResultFalse},
		{"all matches bound", `userdn="ldap:///all"`, bob, ResultTrue},
		{"literal", `userdn="ldap:///uid=BOB,ou=people,dc=example,dc=com"`, bob, ResultTrue},
		{"literal mismatch", `userdn="ldap:///` + alice + `"`, bob, ResultFalse},
		{"pattern", `userdn="ldap:///uid=*,ou=people,dc=example,dc=com"`, bob, ResultTrue},
		{"alternatives", `userdn="ldap:///uid=x,dc=com || ldap:///self"`, alice, ResultTrue},
		{"self", `userdn="ldap:///self"`, alice, ResultTrue},
		{"parent", `userdn="ldap:///parent"`, "ou=people,dc=example,dc=com", ResultTrue},
		{"not equal", `userdn!="ldap:///anyone"`, "", ResultFalse},
		{"not equal literal", `userdn!="ldap:///` + alice + `"`, bob, ResultTrue},
		{"and", `userdn="ldap:///all" and userdn="ldap:///self"`, bob, ResultFalse},
		{"or", `userdn="ldap:///all" or userdn="ldap:///self"`, bob, ResultTrue},
		{"not", `not userdn="ldap:///self"`, bob, ResultTrue},
		{"fail wins over true in or", `userdn="ldap:///anyone" or dns="*.example.com"`, bob, ResultFail},
		{"fail wins over false in and", `userdn="ldap:///self" and dns="*.example.com"`, bob, ResultFail},
		{"not keeps fail", `not dns="*.example.com"`, bob, ResultFail},
		{"undefined not equal fails", `dns!="ldap.example.com"`, bob, ResultFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := clientCtx(tt.client, alice)
			assert.Equal(t, tt.want, evalRule(t, tt.rule, ctx))
		})
	}
}

func TestUserDNURL(t *testing.T) {
	rule := `userdn="ldap:///ou=people,dc=example,dc=com??sub?(employeeType=contractor)"`

	ctx := clientCtx("uid=bob,ou=people,dc=example,dc=com", "dc=example,dc=com")
	ctx.Client.Entry = filter.NewEntry(ctx.Client.DN)
	ctx.Client.Entry.SetStringAttribute("employeeType", "contractor")
	assert.Equal(t, ResultTrue, evalRule(t, rule, ctx))

	ctx.Client.Entry.SetStringAttribute("employeeType", "staff")
	assert.Equal(t, ResultFalse, evalRule(t, rule, ctx))

	outside := clientCtx("uid=bob,ou=admins,dc=example,dc=com", "dc=example,dc=com")
	outside.Client.Entry = filter.NewEntry(outside.Client.DN)
	outside.Client.Entry.SetStringAttribute("employeeType", "contractor")
	assert.Equal(t, ResultFalse, evalRule(t, rule, outside))
}

type fakeGroups struct {
	members map[string][]string
	err     error
}

func (g fakeGroups) IsMember(client, group dn.DN) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	for _, m := range g.members[group.Normalized()] {
		if dn.MustParse(m).Equal(client) {
			return true, nil
		}
	}
	return false, nil
}

func TestGroupDN(t *testing.T) {
	const admins = "cn=admins,ou=groups,dc=example,dc=com"
	groups := fakeGroups{members: map[string][]string{
		admins: {"uid=bob,ou=people,dc=example,dc=com"},
	}}
	h := NewHandler(HandlerConfig{Groups: groups})

	tests := []struct {
		name   string
		rule   string
		client string
		want   Result
	}{
		{"member", `groupdn="ldap:///` + admins + `"`, "uid=bob,ou=people,dc=example,dc=com", ResultTrue},
		{"not a member", `groupdn="ldap:///` + admins + `"`, "uid=alice,ou=people,dc=example,dc=com", ResultFalse},
		{"anonymous", `groupdn="ldap:///` + admins + `"`, "", ResultFalse},
		{"second group", `groupdn="ldap:///cn=x,dc=example,dc=com || ldap:///` + admins + `"`, "uid=bob,ou=people,dc=example,dc=com", ResultTrue},
		{"not equal", `groupdn!="ldap:///` + admins + `"`, "uid=alice,ou=people,dc=example,dc=com", ResultTrue},
		{"roledn", `roledn="ldap:///` + admins + `"`, "uid=bob,ou=people,dc=example,dc=com", ResultTrue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := clientCtx(tt.client, "dc=example,dc=com")
			ctx.h = h
			assert.Equal(t, tt.want, evalRule(t, tt.rule, ctx))
		})
	}

	t.Run("membership error is undefined", func(t *testing.T) {
		ctx := clientCtx("uid=bob,ou=people,dc=example,dc=com", "dc=example,dc=com")
		ctx.h = NewHandler(HandlerConfig{Groups: fakeGroups{err: assert.AnError}})
		assert.Equal(t, ResultFail, evalRule(t, `groupdn="ldap:///`+admins+`"`, ctx))
		assert.Equal(t, ResultFail, evalRule(t, `groupdn!="ldap:///`+admins+`"`, ctx))
	})
}

func TestIPBindRule(t *testing.T) {
	tests := []struct {
		rule string
		addr string
		want Result
	}{
		{`ip="10.0.*.*"`, "10.0.1.5", ResultTrue},
		{`ip="10.0"`, "10.0.1.5", ResultTrue},
		{`ip="10.1.*"`, "10.0.1.5", ResultFalse},
		{`ip="10.0.0.0/16"`, "10.0.1.5", ResultTrue},
		{`ip="10.0.0.0/24"`, "10.0.1.5", ResultFalse},
		{`ip="10.0.0.0+255.255.0.0"`, "10.0.1.5", ResultTrue},
		{`ip="192.168.1.1, 10.0.1.5"`, "10.0.1.5", ResultTrue},
		{`ip!="10.0.*.*"`, "10.0.1.5", ResultFalse},
		{`ip!="192.168.*"`, "10.0.1.5", ResultTrue},
		{`ip="*"`, "10.0.1.5", ResultTrue},
		{`ip="10.0.*.*"`, "::ffff:10.0.1.5", ResultTrue},
		{`ip="2001:db8::/32"`, "10.0.1.5", ResultFalse},
		{`ip="2001:db8::/32"`, "2001:db8::1", ResultTrue},
		{`ip="[::1]"`, "::1", ResultTrue},
		{`ip="[::1]"`, "2001:db8::1", ResultFalse},
	}
	for _, tt := range tests {
		t.Run(tt.rule+" "+tt.addr, func(t *testing.T) {
			ctx := clientCtx("", "")
			ctx.Client.RemoteAddr = netip.MustParseAddr(tt.addr)
			assert.Equal(t, tt.want, evalRule(t, tt.rule, ctx))
		})
	}

	t.Run("unknown address is undefined", func(t *testing.T) {
		ctx := clientCtx("", "")
		assert.Equal(t, ResultFail, evalRule(t, `ip="10.0.*.*"`, ctx))
		assert.Equal(t, ResultFail, evalRule(t, `ip!="10.0.*.*"`, ctx))
	})
}

func TestDecodeIPErrors(t *testing.T) {
	for _, v := range []string{"256.1.1.1", "1.2.3.4.5", "10.0.0.0/33", "10.0.0.0/8+255.0.0.0", "10.0.0.0+ffff::", "fe80::zz", "a.b.c.d"} {
		t.Run(v, func(t *testing.T) {
			_, err := decodeIP(v)
			assert.Error(t, err)
		})
	}
}

func TestResultWithType(t *testing.T) {
	tests := []struct {
		in        Result
		op        Operator
		undefined bool
		want      Result
	}{
		{ResultFail, OpEqual, false, ResultFail},
		{ResultFail, OpNotEqual, false, ResultFail},
		{ResultTrue, OpEqual, false, ResultTrue},
		{ResultTrue, OpNotEqual, false, ResultFalse},
		{ResultTrue, OpNotEqual, true, ResultFalse},
		{ResultFalse, OpEqual, false, ResultFalse},
		{ResultFalse, OpNotEqual, false, ResultTrue},
		{ResultFalse, OpEqual, true, ResultFail},
		{ResultFalse, OpNotEqual, true, ResultFail},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.withType(tt.op, tt.undefined), "%s %s undefined=%v", tt.in, tt.op, tt.undefined)
	}
}
