// Package schema provides the attribute-type registry consulted during access
// control evaluation.
//
// Only the parts of an LDAP schema that change an access decision are kept:
// whether an attribute type is operational or a user attribute, its syntax
// (DN-valued attributes drive the selfwrite right and userattr lookups) and
// its names and aliases.
//
// # Usage
//
//	s := schema.Default()
//	at := s.GetAttributeType("member")
//	if at.HasDNSyntax() {
//	    // values name entries
//	}
//
// Unknown names resolve to a synthetic user attribute with Directory String
// syntax, so callers never receive nil from a Schema built by New or Default.
//
// Additional definitions use the RFC 4512 attribute type description format:
//
//	err := s.Register(`( 1.3.6.1.4.1.99999.1 NAME 'teamLead' SUP distinguishedName )`)
package schema
