package filter

import (
	"bytes"
	"sort"
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
)

// Entry is the attribute view of a directory entry used for filter
// evaluation and access checks. Attribute names are matched
// case-insensitively; values keep their stored form.
type Entry struct {
	DN         dn.DN
	Attributes map[string][][]byte
}

// NewEntry creates a new Entry with the given DN.
func NewEntry(d dn.DN) *Entry {
	return &Entry{
		DN:         d,
		Attributes: make(map[string][][]byte),
	}
}

// key returns the stored map key for name, or "" when absent.
func (e *Entry) key(name string) (string, bool) {
	if _, ok := e.Attributes[name]; ok {
		return name, true
	}
	for k := range e.Attributes {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

// SetAttribute replaces the values of an attribute.
func (e *Entry) SetAttribute(name string, values ...[]byte) {
	if k, ok := e.key(name); ok {
		delete(e.Attributes, k)
	}
	e.Attributes[name] = values
}

// SetStringAttribute replaces the values of an attribute with strings.
func (e *Entry) SetStringAttribute(name string, values ...string) {
	e.SetAttribute(name, toBytes(values)...)
}

// AddValues appends values to an attribute, creating it if needed.
func (e *Entry) AddValues(name string, values ...[]byte) {
	if k, ok := e.key(name); ok {
		e.Attributes[k] = append(e.Attributes[k], values...)
		return
	}
	e.Attributes[name] = values
}

// RemoveAttribute deletes an attribute and all its values.
func (e *Entry) RemoveAttribute(name string) {
	if k, ok := e.key(name); ok {
		delete(e.Attributes, k)
	}
}

// GetAttribute returns the values for an attribute.
func (e *Entry) GetAttribute(name string) [][]byte {
	if k, ok := e.key(name); ok {
		return e.Attributes[k]
	}
	return nil
}

// GetStrings returns the values for an attribute as strings.
func (e *Entry) GetStrings(name string) []string {
	values := e.GetAttribute(name)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// HasAttribute checks if the entry has the given attribute.
func (e *Entry) HasAttribute(name string) bool {
	_, ok := e.key(name)
	return ok
}

// HasValue reports whether the attribute holds value, ignoring case.
func (e *Entry) HasValue(name string, value []byte) bool {
	for _, v := range e.GetAttribute(name) {
		if bytes.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// AttributeNames returns the attribute names in sorted order.
func (e *Entry) AttributeNames() []string {
	names := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone creates a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := &Entry{
		DN:         e.DN,
		Attributes: make(map[string][][]byte, len(e.Attributes)),
	}
	for k, v := range e.Attributes {
		values := make([][]byte, len(v))
		for i, val := range v {
			values[i] = append([]byte(nil), val...)
		}
		clone.Attributes[k] = values
	}
	return clone
}

func toBytes(values []string) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}
