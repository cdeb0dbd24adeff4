package schema

import "strings"

// AttributeUsage defines how an attribute is used in the directory.
type AttributeUsage int

const (
	// UserApplications is the usage of ordinary user attributes.
	UserApplications AttributeUsage = iota
	// DirectoryOperation marks operational attributes maintained by the server.
	DirectoryOperation
	// DistributedOperation marks operational attributes shared between servers.
	DistributedOperation
	// DSAOperation marks operational attributes local to one server.
	DSAOperation
)

// String returns the RFC 4512 keyword for the usage.
func (u AttributeUsage) String() string {
	switch u {
	case UserApplications:
		return "userApplications"
	case DirectoryOperation:
		return "directoryOperation"
	case DistributedOperation:
		return "distributedOperation"
	case DSAOperation:
		return "dSAOperation"
	default:
		return "unknown"
	}
}

// IsOperational returns true if this usage indicates an operational attribute.
func (u AttributeUsage) IsOperational() bool {
	return u != UserApplications
}

// AttributeType is an LDAP attribute type definition.
type AttributeType struct {
	OID         string
	Name        string   // primary name as defined
	Names       []string // all names including the primary one
	Desc        string
	Superior    string
	Equality    string
	Syntax      string // effective syntax OID once inheritance is resolved
	SingleValue bool
	NoUserMod   bool
	Usage       AttributeUsage

	// placeholder is set on types synthesized for unknown names.
	placeholder bool
}

// NewAttributeType creates a user attribute type with the given OID and name.
func NewAttributeType(oid, name string) *AttributeType {
	return &AttributeType{
		OID:   oid,
		Name:  name,
		Names: []string{name},
		Usage: UserApplications,
	}
}

// IsOperational returns true if this is an operational attribute.
func (at *AttributeType) IsOperational() bool {
	return at.Usage.IsOperational()
}

// IsUser returns true for user attributes.
func (at *AttributeType) IsUser() bool {
	return !at.Usage.IsOperational()
}

// IsPlaceholder reports whether the type was synthesized for a name the
// registry does not define.
func (at *AttributeType) IsPlaceholder() bool {
	return at.placeholder
}

// HasDNSyntax reports whether values of this type are distinguished names.
func (at *AttributeType) HasDNSyntax() bool {
	return at.Syntax == SyntaxDN
}

// NormalizedName returns the lower-cased primary name, or the OID when the
// type has no name.
func (at *AttributeType) NormalizedName() string {
	if at.Name != "" {
		return strings.ToLower(at.Name)
	}
	return at.OID
}

// HasName reports whether name (case-insensitive) or the OID identifies this
// type.
func (at *AttributeType) HasName(name string) bool {
	if name == at.OID {
		return true
	}
	for _, n := range at.Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
