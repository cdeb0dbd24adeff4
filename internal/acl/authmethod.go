package acl

import "strings"

// AuthMethod is how the client authenticated.
type AuthMethod int

const (
	AuthNone AuthMethod = iota
	AuthSimple
	AuthSASL
)

// String returns the authmethod keyword for the method.
func (m AuthMethod) String() string {
	switch m {
	case AuthSimple:
		return "simple"
	case AuthSASL:
		return "sasl"
	default:
		return "none"
	}
}

const saslExternal = "EXTERNAL"

type authMethodRule struct {
	method    AuthMethod
	ssl       bool
	mechanism string
}

// decodeAuthMethod parses none, simple, ssl or "sasl MECHANISM".
func decodeAuthMethod(value string) (authMethodRule, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return authMethodRule{}, newSyntaxError(ErrInvalidBindRule, MsgAuthMethod, value, "empty authmethod")
	}
	switch strings.ToLower(fields[0]) {
	case "none":
		if len(fields) == 1 {
			return authMethodRule{method: AuthNone}, nil
		}
	case "simple":
		if len(fields) == 1 {
			return authMethodRule{method: AuthSimple}, nil
		}
	case "ssl":
		if len(fields) == 1 {
			return authMethodRule{method: AuthSASL, ssl: true, mechanism: saslExternal}, nil
		}
	case "sasl":
		if len(fields) == 2 {
			return authMethodRule{method: AuthSASL, mechanism: strings.ToUpper(fields[1])}, nil
		}
	}
	return authMethodRule{}, newSyntaxError(ErrInvalidBindRule, MsgAuthMethod, value, "authmethod must be none, simple, ssl or sasl MECHANISM")
}

func (l *BindLeaf) evalAuthMethod(ctx *EvalContext) Result {
	c := ctx.Client
	if c == nil {
		c = &Client{}
	}
	var ok bool
	switch {
	case l.auth.method == AuthNone:
		ok = true
	case l.auth.method == AuthSimple:
		ok = c.AuthMethod == AuthSimple
	case l.auth.ssl:
		ok = c.AuthMethod == AuthSASL && strings.EqualFold(c.SASLMechanism, saslExternal) &&
			c.Secure && c.ClientCertificate != nil
	default:
		ok = c.AuthMethod == AuthSASL && strings.EqualFold(c.SASLMechanism, l.auth.mechanism)
	}
	return boolResult(ok).withType(l.Type, false)
}
