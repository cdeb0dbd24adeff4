package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrInheritanceCycle is returned when SUP references form a loop.
var ErrInheritanceCycle = errors.New("schema: attribute type inheritance cycle")

// Schema is a registry of attribute types keyed by lower-cased name and OID.
// It is safe for concurrent use.
type Schema struct {
	mu    sync.RWMutex
	types map[string]*AttributeType
}

// New creates an empty Schema.
func New() *Schema {
	return &Schema{types: make(map[string]*AttributeType)}
}

// Default returns a Schema loaded with the built-in definitions.
func Default() *Schema {
	s := New()
	for _, def := range defaultAttributeTypes {
		at, err := parseAttributeType(def)
		if err != nil {
			panic(fmt.Sprintf("schema: bad built-in definition %q: %v", def, err))
		}
		s.add(at)
	}
	if err := s.resolveInheritance(); err != nil {
		panic(err)
	}
	return s
}

// Register parses an RFC 4512 attribute type description and adds it.
func (s *Schema) Register(def string) error {
	at, err := parseAttributeType(def)
	if err != nil {
		return err
	}
	s.AddAttributeType(at)
	return s.resolveInheritance()
}

// AddAttributeType adds at under its OID and every name. An existing type
// with the same name is replaced.
func (s *Schema) AddAttributeType(at *AttributeType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(at)
}

func (s *Schema) add(at *AttributeType) {
	if at.OID != "" {
		s.types[at.OID] = at
	}
	for _, n := range at.Names {
		s.types[strings.ToLower(n)] = at
	}
}

// Lookup returns the attribute type for name or OID, or nil. Attribute
// options such as ";binary" are ignored.
func (s *Schema) Lookup(name string) *AttributeType {
	key := baseName(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.types[key]
}

// GetAttributeType returns the attribute type for name, or a placeholder
// user attribute with Directory String syntax when the name is unknown.
func (s *Schema) GetAttributeType(name string) *AttributeType {
	if at := s.Lookup(name); at != nil {
		return at
	}
	return Placeholder(name)
}

// Placeholder returns a synthetic user attribute type for name.
func Placeholder(name string) *AttributeType {
	n := name
	if i := strings.IndexByte(n, ';'); i >= 0 {
		n = n[:i]
	}
	return &AttributeType{
		OID:         strings.ToLower(n) + "-oid",
		Name:        n,
		Names:       []string{n},
		Syntax:      SyntaxDirectoryString,
		Usage:       UserApplications,
		placeholder: true,
	}
}

// Len returns the number of distinct attribute types.
func (s *Schema) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[*AttributeType]struct{}, len(s.types))
	for _, at := range s.types {
		seen[at] = struct{}{}
	}
	return len(seen)
}

// resolveInheritance copies syntax and equality rules down from superiors.
func (s *Schema) resolveInheritance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := make(map[*AttributeType]bool)
	var resolve func(at *AttributeType, visiting map[*AttributeType]bool) error
	resolve = func(at *AttributeType, visiting map[*AttributeType]bool) error {
		if resolved[at] {
			return nil
		}
		if visiting[at] {
			return fmt.Errorf("%w at %q", ErrInheritanceCycle, at.Name)
		}
		visiting[at] = true
		if at.Superior != "" {
			if sup := s.types[baseName(at.Superior)]; sup != nil {
				if err := resolve(sup, visiting); err != nil {
					return err
				}
				if at.Syntax == "" {
					at.Syntax = sup.Syntax
				}
				if at.Equality == "" {
					at.Equality = sup.Equality
				}
			}
		}
		resolved[at] = true
		return nil
	}

	for _, at := range s.types {
		if err := resolve(at, make(map[*AttributeType]bool)); err != nil {
			return err
		}
	}
	return nil
}

func baseName(name string) string {
	if i := strings.IndexByte(name, ';'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(strings.TrimSpace(name))
}
