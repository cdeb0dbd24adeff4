package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributeType(t *testing.T) {
	at, err := parseAttributeType(`( 2.5.18.1 NAME 'createTimestamp' DESC 'Creation time' EQUALITY generalizedTimeMatch SYNTAX 1.3.6.1.4.1.1466.115.121.1.24{64} SINGLE-VALUE NO-USER-MODIFICATION USAGE directoryOperation )`)
	require.NoError(t, err)
	assert.Equal(t, "2.5.18.1", at.OID)
	assert.Equal(t, "createTimestamp", at.Name)
	assert.Equal(t, "Creation time", at.Desc)
	assert.Equal(t, SyntaxGeneralizedTime, at.Syntax)
	assert.True(t, at.SingleValue)
	assert.True(t, at.NoUserMod)
	assert.Equal(t, DirectoryOperation, at.Usage)
}

func TestParseAttributeTypeErrors(t *testing.T) {
	tests := []struct {
		def  string
		want error
	}{
		{"2.5.4.3 NAME 'cn'", ErrInvalidAttributeType},
		{"( )", ErrMissingOID},
		{"( 'cn' )", ErrMissingOID},
		{"( 2.5.4.3 NAME 'cn )", ErrUnterminatedString},
		{"( 2.5.4.3 NAME ( 'cn' 'commonName' )", ErrUnterminatedParens},
		{"( 2.5.4.3 NAME ( 'cn' 'commonName' ) SUP ( name )", ErrUnterminatedParens},
		{"( 2.5.4.3 NAME )", ErrInvalidAttributeType},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			_, err := parseAttributeType(tt.def)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAttributeUsage(t *testing.T) {
	assert.Equal(t, "dSAOperation", DSAOperation.String())
	assert.Equal(t, "unknown", AttributeUsage(42).String())
	assert.False(t, UserApplications.IsOperational())
	assert.True(t, DistributedOperation.IsOperational())
	assert.Equal(t, DistributedOperation, parseUsage("distributedOperation"))
	assert.Equal(t, UserApplications, parseUsage("bogus"))
}

func TestSyntaxName(t *testing.T) {
	assert.Equal(t, "DN", SyntaxName(SyntaxDN))
	assert.Equal(t, "1.2.3", SyntaxName("1.2.3"))
}
