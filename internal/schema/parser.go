package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAttributeType = errors.New("schema: invalid attribute type definition")
	ErrMissingOID           = errors.New("schema: missing OID in definition")
	ErrUnterminatedString   = errors.New("schema: unterminated quoted string")
	ErrUnterminatedParens   = errors.New("schema: unterminated parentheses")
)

// keywords that take an argument; the rest are flags.
var attributeTypeArgs = map[string]bool{
	"NAME": true, "DESC": true, "SUP": true, "EQUALITY": true,
	"ORDERING": true, "SUBSTR": true, "SYNTAX": true, "USAGE": true,
}

// parseAttributeType parses an attribute type description:
// ( OID NAME 'name' SUP sup SYNTAX oid SINGLE-VALUE USAGE usage ... )
func parseAttributeType(s string) (*AttributeType, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, ErrInvalidAttributeType
	}
	tokens, err := tokenize(strings.TrimSpace(s[1 : len(s)-1]))
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 || strings.HasPrefix(tokens[0], "'") {
		return nil, ErrMissingOID
	}

	at := &AttributeType{OID: tokens[0], Usage: UserApplications}
	for i := 1; i < len(tokens); i++ {
		keyword := strings.ToUpper(tokens[i])
		var arg string
		if attributeTypeArgs[keyword] {
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("%w: %s without value", ErrInvalidAttributeType, keyword)
			}
			i++
			arg = tokens[i]
		}
		switch keyword {
		case "NAME":
			at.Names = parseNames(arg)
			if len(at.Names) > 0 {
				at.Name = at.Names[0]
			}
		case "DESC":
			at.Desc = unquote(arg)
		case "SUP":
			at.Superior = unquote(arg)
		case "EQUALITY":
			at.Equality = unquote(arg)
		case "SYNTAX":
			at.Syntax = parseSyntaxOID(arg)
		case "SINGLE-VALUE":
			at.SingleValue = true
		case "NO-USER-MODIFICATION":
			at.NoUserMod = true
		case "USAGE":
			at.Usage = parseUsage(arg)
		}
	}
	return at, nil
}

// tokenize splits a definition into tokens. A parenthesized group becomes one
// token with its "$" separators removed.
func tokenize(s string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inQuote := false
	depth := 0

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inQuote {
			current.WriteByte(ch)
			if ch == '\'' {
				inQuote = false
			}
			continue
		}
		switch ch {
		case '\'':
			inQuote = true
			current.WriteByte(ch)
		case '(':
			if depth > 0 {
				current.WriteByte(ch)
			}
			depth++
		case ')':
			depth--
			if depth > 0 {
				current.WriteByte(ch)
			} else if depth == 0 {
				flush()
			}
		case ' ', '\t', '\n', '\r':
			if depth > 0 {
				current.WriteByte(ch)
			} else {
				flush()
			}
		case '$':
			if depth > 0 {
				current.WriteByte(' ')
			}
		default:
			current.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, ErrUnterminatedString
	}
	if depth != 0 {
		return nil, ErrUnterminatedParens
	}
	flush()
	return tokens, nil
}

// parseNames parses 'cn' or ( 'cn' 'commonName' ).
func parseNames(s string) []string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "'") {
		return []string{s}
	}
	var names []string
	for _, part := range strings.Split(s, "'") {
		if p := strings.TrimSpace(part); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

// parseSyntaxOID drops a length bound such as "{256}".
func parseSyntaxOID(s string) string {
	s = unquote(s)
	if idx := strings.IndexByte(s, '{'); idx != -1 {
		return s[:idx]
	}
	return s
}

func parseUsage(s string) AttributeUsage {
	switch strings.ToLower(unquote(s)) {
	case "directoryoperation":
		return DirectoryOperation
	case "distributedoperation":
		return DistributedOperation
	case "dsaoperation":
		return DSAOperation
	default:
		return UserApplications
	}
}
