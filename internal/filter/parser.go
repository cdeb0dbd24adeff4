package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

var (
	ErrEmptyFilter      = errors.New("filter: empty filter")
	ErrInvalidFilter    = errors.New("filter: invalid filter syntax")
	ErrMissingAttribute = errors.New("filter: missing attribute name")
)

// Parse parses an RFC 4515 filter string. The text is compiled to its RFC 4511
// BER form by go-ldap and then decoded, so value escapes such as "\2a" are
// resolved exactly as a client library would send them. The outer
// parentheses are required.
func Parse(s string) (*Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyFilter
	}
	packet, err := ldap.CompileFilter(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFilter, s, err)
	}
	f, err := FromPacket(packet)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFilter, s, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %q", err, s)
	}
	return f, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Filter {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Filter) validate() error {
	switch f.Type {
	case FilterAnd, FilterOr:
		for _, c := range f.Children {
			if err := c.validate(); err != nil {
				return err
			}
		}
		return nil
	case FilterNot:
		if f.Child == nil {
			return ErrInvalidFilter
		}
		return f.Child.validate()
	case FilterExtensibleMatch:
		if f.Extensible == nil || (f.Extensible.Attribute == "" && f.Extensible.MatchingRule == "") {
			return ErrMissingAttribute
		}
		return nil
	default:
		if strings.TrimSpace(f.Attribute) == "" {
			return ErrMissingAttribute
		}
		return nil
	}
}
