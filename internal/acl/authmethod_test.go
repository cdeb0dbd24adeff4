package acl

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMethodBindRule(t *testing.T) {
	simple := &Client{AuthMethod: AuthSimple}
	external := &Client{AuthMethod: AuthSASL, SASLMechanism: "EXTERNAL", Secure: true, ClientCertificate: &x509.Certificate{}}
	externalPlain := &Client{AuthMethod: AuthSASL, SASLMechanism: "EXTERNAL"}
	digest := &Client{AuthMethod: AuthSASL, SASLMechanism: "digest-md5"}

	tests := []struct {
		name   string
		rule   string
		client *Client
		want   Result
	}{
		{"none matches anyone", `authmethod="none"`, digest, ResultTrue},
		{"simple", `authmethod="simple"`, simple, ResultTrue},
		{"simple mismatch", `authmethod="simple"`, digest, ResultFalse},
		{"ssl", `authmethod="ssl"`, external, ResultTrue},
		{"ssl needs a secure connection", `authmethod="ssl"`, externalPlain, ResultFalse},
		{"sasl mechanism", `authmethod="sasl DIGEST-MD5"`, digest, ResultTrue},
		{"sasl mechanism mismatch", `authmethod="sasl GSSAPI"`, digest, ResultFalse},
		{"not equal", `authmethod!="simple"`, digest, ResultTrue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &EvalContext{Client: tt.client}
			assert.Equal(t, tt.want, evalRule(t, tt.rule, ctx))
		})
	}
}

func TestDecodeAuthMethodErrors(t *testing.T) {
	for _, v := range []string{"kerberos", "sasl", "simple extra", "ssl EXTERNAL"} {
		_, err := decodeAuthMethod(v)
		assert.Error(t, err, v)
	}
}
