package acl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
)

func entry(d string, attrs ...string) *filter.Entry {
	e := filter.NewEntry(dn.MustParse(d))
	for i := 0; i+1 < len(attrs); i += 2 {
		e.AddValues(attrs[i], []byte(attrs[i+1]))
	}
	return e
}

func TestUserAttrBindRule(t *testing.T) {
	const (
		alice  = "uid=alice,ou=people,dc=example,dc=com"
		bob    = "uid=bob,ou=people,dc=example,dc=com"
		carol  = "uid=carol,ou=people,dc=example,dc=com"
		admins = "cn=admins,ou=groups,dc=example,dc=com"
	)

	dir := MapEntries{}
	dir.Put(
		entry("ou=people,dc=example,dc=com", "objectClass", "organizationalUnit", "owner", carol),
		entry(admins, "objectClass", "groupOfNames", "member", bob),
		entry(bob, "objectClass", "person", "employeeType", "contractor"),
		entry(carol, "objectClass", "person", "employeeType", "staff"),
	)
	h := NewHandler(HandlerConfig{Entries: dir})

	resource := entry(alice,
		"objectClass", "person",
		"manager", bob,
		"seeAlso", admins,
		"employeeType", "contractor",
		"memberURL", "ldap:///ou=people,dc=example,dc=com??sub?(employeeType=staff)",
	)

	tests := []struct {
		name   string
		rule   string
		client string
		want   Result
	}{
		{"userdn attribute", `userattr="manager#USERDN"`, bob, ResultTrue},
		{"userdn attribute mismatch", `userattr="manager#USERDN"`, carol, ResultFalse},
		{"userdn attribute not equal", `userattr!="manager#USERDN"`, carol, ResultTrue},
		{"groupdn attribute", `userattr="seeAlso#GROUPDN"`, bob, ResultTrue},
		{"groupdn attribute mismatch", `userattr="seeAlso#GROUPDN"`, carol, ResultFalse},
		{"value", `userattr="employeeType#contractor"`, bob, ResultTrue},
		{"value mismatch", `userattr="employeeType#contractor"`, carol, ResultFalse},
		{"ldap url", `userattr="memberURL#LDAPURL"`, carol, ResultTrue},
		{"ldap url mismatch", `userattr="memberURL#LDAPURL"`, bob, ResultFalse},
		{"parent level", `userattr="parent[1].owner#USERDN"`, carol, ResultTrue},
		{"parent level zero", `userattr="parent[0].owner#USERDN"`, carol, ResultFalse},
		{"parent levels", `userattr="parent[0,1].manager#USERDN"`, bob, ResultTrue},
		{"url base", `userattr="ldap:///ou=people,dc=example,dc=com?manager#USERDN"`, bob, ResultTrue},
		{"url base excludes", `userattr="ldap:///ou=groups,dc=example,dc=com?manager#USERDN"`, bob, ResultFalse},
		{"anonymous", `userattr="manager#USERDN"`, "", ResultFalse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := clientCtx(tt.client, "")
			ctx.Resource = resource
			ctx.h = h
			assert.Equal(t, tt.want, evalRule(t, tt.rule, ctx))
		})
	}
}

func TestDecodeUserAttr(t *testing.T) {
	r, err := decodeUserAttr("parent[0,2].manager#GROUPDN")
	require.NoError(t, err)
	assert.Equal(t, userAttrGroupDN, r.kind)
	assert.Equal(t, []int{0, 2}, r.levels)
	assert.Equal(t, "manager", r.attr)

	r, err = decodeUserAttr("employeeType#contractor")
	require.NoError(t, err)
	assert.Equal(t, userAttrValue, r.kind)
	assert.Equal(t, "contractor", r.value)

	for _, v := range []string{
		"manager",
		"manager#",
		"#USERDN",
		"parent[1].manager#ROLEDN",
		"parent[1].manager#LDAPURL",
		"parent[10].manager#USERDN",
		"parent[0,1,2,3,4,5,6,7,8,9,0].manager#USERDN",
		"parent[x].manager#USERDN",
		"parent[1]manager#USERDN",
		"ldap:///dc=example,dc=com?manager#ROLEDN",
		"bad name#USERDN",
	} {
		_, err := decodeUserAttr(v)
		assert.Error(t, err, v)
	}
}
