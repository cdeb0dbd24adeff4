package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/schema"
)

func testEntry() *Entry {
	e := NewEntry(dn.MustParse("uid=bjensen,ou=People,dc=example,dc=com"))
	e.SetStringAttribute("objectClass", "top", "person", "inetOrgPerson")
	e.SetStringAttribute("uid", "bjensen")
	e.SetStringAttribute("cn", "Barbara  Jensen", "Babs Jensen")
	e.SetStringAttribute("mail", "bjensen@example.com")
	e.SetStringAttribute("manager", "uid=KVaughan, ou=People, dc=example,dc=com")
	e.SetStringAttribute("labeledURI", "http://Example.com/~bjensen")
	e.SetStringAttribute("employeeNumber", "0042")
	return e
}

func TestEvaluate(t *testing.T) {
	withSchema := NewEvaluator(schema.Default())
	plain := NewEvaluator(nil)
	entry := testEntry()

	tests := []struct {
		filter     string
		want       bool
		wantPlain  bool
		schemaOnly bool
	}{
		{filter: "(uid=BJENSEN)", want: true},
		{filter: "(uid=other)", want: false},
		{filter: "(UID=bjensen)", want: true},
		{filter: "(mail=*)", want: true},
		{filter: "(telephoneNumber=*)", want: false},
		{filter: "(cn=bab*)", want: true},
		{filter: "(cn=*jen*)", want: true},
		{filter: "(cn=*jensen)", want: true},
		{filter: "(cn=b*x*n)", want: false},
		{filter: "(cn~=barbara jensen)", want: true},
		{filter: "(uid>=a)", want: true},
		{filter: "(uid<=a)", want: false},
		{filter: "(&(objectClass=person)(uid=bjensen))", want: true},
		{filter: "(&(objectClass=person)(uid=x))", want: false},
		{filter: "(|(uid=x)(mail=bjensen@example.com))", want: true},
		{filter: "(!(uid=x))", want: true},
		{filter: "(!(uid=bjensen))", want: false},
		{filter: "(&)", want: true},
		{filter: "(|)", want: false},
		{filter: "(manager=uid=kvaughan,ou=people,dc=example,dc=com)", want: true, wantPlain: false, schemaOnly: true},
		{filter: "(labeledURI=http://example.com/~bjensen)", want: false, wantPlain: true, schemaOnly: true},
		{filter: "(employeeNumber=42)", want: false},
		{filter: "(uid:caseExactMatch:=BJENSEN)", want: false},
		{filter: "(uid:caseIgnoreMatch:=BJENSEN)", want: true},
		{filter: "(uid:=bjensen)", want: true},
		{filter: "(ou:dn:=people)", want: true},
		{filter: "(ou:=people)", want: false},
		{filter: "(:dn:2.5.13.2:=example)", want: true},
		{filter: "(uid:1.2.3.4:=bjensen)", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			f, err := Parse(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, withSchema.Evaluate(f, entry))
			if tt.schemaOnly {
				assert.Equal(t, tt.wantPlain, plain.Evaluate(f, entry))
			}
		})
	}
}

func TestEvaluateIntegerOrdering(t *testing.T) {
	s := schema.Default()
	require.NoError(t, s.Register(`( 1.3.6.1.4.1.99999.2 NAME 'loginCount' EQUALITY integerMatch SYNTAX 1.3.6.1.4.1.1466.115.121.1.27 )`))
	e := NewEvaluator(s)

	entry := NewEntry(dn.MustParse("cn=x,dc=com"))
	entry.SetStringAttribute("loginCount", "9")

	assert.False(t, e.Evaluate(MustParse("(loginCount>=10)"), entry))
	assert.True(t, e.Evaluate(MustParse("(loginCount<=10)"), entry))
	assert.True(t, e.Evaluate(MustParse("(loginCount=09)"), entry))
	assert.False(t, e.Evaluate(MustParse("(loginCount>=abc)"), entry))
}

func TestEvaluateNilInputs(t *testing.T) {
	e := NewEvaluator(nil)
	assert.False(t, e.Evaluate(nil, testEntry()))
	assert.False(t, e.Evaluate(MustParse("(uid=*)"), nil))
	assert.False(t, e.Evaluate(&Filter{Type: FilterType(42)}, testEntry()))
	assert.False(t, e.Evaluate(&Filter{Type: FilterNot}, testEntry()))
	assert.False(t, e.Evaluate(&Filter{Type: FilterSubstring, Attribute: "cn"}, testEntry()))
	assert.Nil(t, e.Schema())
}

func TestFilterTypeString(t *testing.T) {
	assert.Equal(t, "AND", FilterAnd.String())
	assert.Equal(t, "EXTENSIBLE_MATCH", FilterExtensibleMatch.String())
	assert.Equal(t, "UNKNOWN", FilterType(99).String())
}
