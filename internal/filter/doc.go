// Package filter provides LDAP search filter data structures and evaluation.
//
// # Parsing
//
// Parse accepts RFC 4515 text. The string is compiled to the RFC 4511 BER
// Filter by go-ldap and decoded back into a *Filter:
//
//	f, err := filter.Parse("(&(objectClass=person)(uid=bjen*))")
//
// Decode and Encode convert between *Filter and the BER form carried in
// search requests; String renders the text form again.
//
// # Evaluation
//
//	e := filter.NewEvaluator(schema.Default())
//
//	entry := filter.NewEntry(dn.MustParse("uid=alice,ou=users,dc=example,dc=com"))
//	entry.SetStringAttribute("objectClass", "person", "top")
//	entry.SetStringAttribute("uid", "alice")
//
//	if e.Evaluate(f, entry) {
//	    // entry matches
//	}
//
// With a schema, equality follows the attribute's matching rule: DN-valued
// attributes compare as normalized DNs, caseExactMatch and octetStringMatch
// attributes compare byte for byte, integer attributes compare numerically.
// Everything else is case-insensitive.
//
// Extensible match filters honor the caseIgnoreMatch, caseExactMatch,
// distinguishedNameMatch and integerMatch rules (by name or OID) and the
// ":dn" flag, which also tests the AVAs of the entry DN. An unknown matching
// rule never matches.
package filter
