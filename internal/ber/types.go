package ber

// Tag class constants (bits 7-8 of the identifier octet)
const (
	ClassUniversal       = 0x00
	ClassApplication     = 0x40
	ClassContextSpecific = 0x80
	ClassPrivate         = 0xC0
)

// Constructed flag (bit 6 of the identifier octet)
const (
	TypePrimitive   = 0x00
	TypeConstructed = 0x20
)

// Universal tag numbers
const (
	TagBoolean     = 0x01
	TagInteger     = 0x02
	TagOctetString = 0x04
	TagNull        = 0x05
	TagEnumerated  = 0x0A
	TagSequence    = 0x10
	TagSet         = 0x11
)

// Single-octet identifiers for the universal types handled by Reader, Writer
// and Element.
const (
	TypeBoolean     byte = ClassUniversal | TypePrimitive | TagBoolean
	TypeInteger     byte = ClassUniversal | TypePrimitive | TagInteger
	TypeOctetString byte = ClassUniversal | TypePrimitive | TagOctetString
	TypeNull        byte = ClassUniversal | TypePrimitive | TagNull
	TypeEnumerated  byte = ClassUniversal | TypePrimitive | TagEnumerated
	TypeSequence    byte = ClassUniversal | TypeConstructed | TagSequence
	TypeSet         byte = ClassUniversal | TypeConstructed | TagSet
)

// Length encoding constants
const (
	// LengthLongFormBit marks a long form length octet.
	LengthLongFormBit = 0x80
	// MaxShortFormLength is the largest length encodable in one octet.
	MaxShortFormLength = 127
	// MaxLengthOctets bounds the number of long form length octets.
	MaxLengthOctets = 4
)

// DefaultMaxElementSize is the element size limit applied when a reader is
// created without an explicit limit. Zero disables the check.
const DefaultMaxElementSize = 0

// IsConstructed reports whether the identifier octet has the constructed bit.
func IsConstructed(t byte) bool {
	return t&TypeConstructed != 0
}
