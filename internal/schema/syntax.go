package schema

// Syntax OIDs referenced by the default definitions.
const (
	SyntaxDirectoryString = "1.3.6.1.4.1.1466.115.121.1.15"
	SyntaxDN              = "1.3.6.1.4.1.1466.115.121.1.12"
	SyntaxInteger         = "1.3.6.1.4.1.1466.115.121.1.27"
	SyntaxBoolean         = "1.3.6.1.4.1.1466.115.121.1.7"
	SyntaxOctetString     = "1.3.6.1.4.1.1466.115.121.1.40"
	SyntaxGeneralizedTime = "1.3.6.1.4.1.1466.115.121.1.24"
	SyntaxOID             = "1.3.6.1.4.1.1466.115.121.1.38"
	SyntaxIA5String       = "1.3.6.1.4.1.1466.115.121.1.26"
	SyntaxNameAndUID      = "1.3.6.1.4.1.1466.115.121.1.34"
	SyntaxUUID            = "1.3.6.1.1.16.1"

	// SyntaxACI is the syntax of aci and ds-cfg-global-aci values.
	SyntaxACI = "1.3.6.1.4.1.26027.1.3.4"
)

var syntaxNames = map[string]string{
	SyntaxDirectoryString: "Directory String",
	SyntaxDN:              "DN",
	SyntaxInteger:         "INTEGER",
	SyntaxBoolean:         "Boolean",
	SyntaxOctetString:     "Octet String",
	SyntaxGeneralizedTime: "Generalized Time",
	SyntaxOID:             "OID",
	SyntaxIA5String:       "IA5 String",
	SyntaxNameAndUID:      "Name And Optional UID",
	SyntaxUUID:            "UUID",
	SyntaxACI:             "Sun-defined Access Control Information",
}

// SyntaxName returns the description of a known syntax OID, or the OID
// itself.
func SyntaxName(oid string) string {
	if n, ok := syntaxNames[oid]; ok {
		return n
	}
	return oid
}
