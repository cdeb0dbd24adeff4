// Package ber implements the subset of ASN.1 BER (ITU-T X.690) used by
// directory protocols: BOOLEAN, INTEGER, ENUMERATED, NULL, OCTET STRING,
// SEQUENCE and SET, plus context-specific tagging.
//
// # In-memory encoding and decoding
//
// BEREncoder builds an encoding in a byte slice; constructed elements are
// closed with back-patched lengths:
//
//	enc := ber.NewBEREncoder(256)
//	pos := enc.BeginSequence()
//	enc.WriteInteger(1)
//	enc.WriteOctetString([]byte("cn"))
//	enc.EndSequence(pos)
//
// BERDecoder reads tagged values from a byte slice and checks identifiers.
//
// # Streaming
//
// Reader pulls elements from a byte slice, an io.Reader or a byte channel
// through a need-type, need-length, need-value state machine. A maximum
// element size guards against oversized length declarations. Writer emits
// elements to an io.Writer, buffering open sequences and sets.
//
// # Lengths
//
// Lengths below 128 use the one octet short form. Longer values use the long
// form 0x80|n followed by n big-endian octets, with n between 1 and 4.
// Indefinite lengths are rejected.
package ber
