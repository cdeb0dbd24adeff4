package filter

import (
	"errors"
	"fmt"
	"strings"

	asn1 "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"

	"github.com/KilimcininKorOglu/oba-aci/internal/ber"
)

// Substring and MatchingRuleAssertion component tags.
const (
	substringInitial = 0
	substringAny     = 1
	substringFinal   = 2

	extMatchingRule = 1
	extType         = 2
	extMatchValue   = 3
	extDNAttributes = 4
)

var ErrInvalidSubstring = errors.New("filter: invalid substring filter")

// Decode decodes one BER-encoded RFC 4511 Filter. Trailing bytes are an
// error.
func Decode(data []byte) (*Filter, error) {
	d := ber.NewBERDecoder(data)
	f, err := decodeFilter(d)
	if err != nil {
		return nil, err
	}
	if d.Remaining() > 0 {
		return nil, ber.NewDecodeError(d.Offset(), "data after filter", ber.ErrTrailingData)
	}
	return f, nil
}

// FromPacket decodes a filter held in a go-asn1-ber packet, such as the one
// returned by ldap.CompileFilter.
func FromPacket(p *asn1.Packet) (*Filter, error) {
	if p == nil {
		return nil, ErrEmptyFilter
	}
	return Decode(p.Bytes())
}

// Packet returns f as a go-asn1-ber packet.
func (f *Filter) Packet() (*asn1.Packet, error) {
	return asn1.DecodePacketErr(f.Encode())
}

func decodeFilter(d *ber.BERDecoder) (*Filter, error) {
	start := d.Offset()
	tag, constructed, data, err := d.ReadTaggedValue()
	if err != nil {
		return nil, err
	}
	f := &Filter{Type: FilterType(tag)}
	mustBe := func(want bool, what string) error {
		if constructed != want {
			return ber.NewDecodeError(start, what, ErrInvalidFilter)
		}
		return nil
	}

	switch f.Type {
	case FilterAnd, FilterOr:
		if err := mustBe(true, "AND/OR filter must be constructed"); err != nil {
			return nil, err
		}
		sub := ber.NewBERDecoder(data)
		for sub.Remaining() > 0 {
			child, err := decodeFilter(sub)
			if err != nil {
				return nil, err
			}
			f.Children = append(f.Children, child)
		}

	case FilterNot:
		if err := mustBe(true, "NOT filter must be constructed"); err != nil {
			return nil, err
		}
		sub := ber.NewBERDecoder(data)
		child, err := decodeFilter(sub)
		if err != nil {
			return nil, err
		}
		if sub.Remaining() > 0 {
			return nil, ber.NewDecodeError(start, "NOT filter has more than one child", ErrInvalidFilter)
		}
		f.Child = child

	case FilterEquality, FilterGreaterOrEqual, FilterLessOrEqual, FilterApproxMatch:
		if err := mustBe(true, "comparison filter must be constructed"); err != nil {
			return nil, err
		}
		sub := ber.NewBERDecoder(data)
		attr, err := sub.ReadOctetString()
		if err != nil {
			return nil, err
		}
		value, err := sub.ReadOctetString()
		if err != nil {
			return nil, err
		}
		f.Attribute, f.Value = string(attr), value

	case FilterSubstring:
		if err := mustBe(true, "substring filter must be constructed"); err != nil {
			return nil, err
		}
		sf, err := decodeSubstrings(ber.NewBERDecoder(data))
		if err != nil {
			return nil, err
		}
		f.Attribute, f.Substring = sf.Attribute, sf

	case FilterPresent:
		if err := mustBe(false, "present filter must be primitive"); err != nil {
			return nil, err
		}
		f.Attribute = string(data)

	case FilterExtensibleMatch:
		if err := mustBe(true, "extensible match filter must be constructed"); err != nil {
			return nil, err
		}
		em, err := decodeExtensible(ber.NewBERDecoder(data))
		if err != nil {
			return nil, err
		}
		f.Attribute, f.Extensible = em.Attribute, em

	default:
		return nil, ber.NewDecodeError(start, fmt.Sprintf("unknown filter tag %d", tag), ErrInvalidFilter)
	}
	return f, nil
}

func decodeSubstrings(d *ber.BERDecoder) (*SubstringFilter, error) {
	attr, err := d.ReadOctetString()
	if err != nil {
		return nil, err
	}
	length, err := d.ExpectSequence()
	if err != nil {
		return nil, err
	}
	sf := &SubstringFilter{Attribute: string(attr)}
	end := d.Offset() + length
	for d.Offset() < end {
		tag, _, value, err := d.ReadTaggedValue()
		if err != nil {
			return nil, err
		}
		switch tag {
		case substringInitial:
			if sf.Initial != nil || len(sf.Any) > 0 || sf.Final != nil {
				return nil, ErrInvalidSubstring
			}
			sf.Initial = value
		case substringAny:
			if sf.Final != nil {
				return nil, ErrInvalidSubstring
			}
			sf.Any = append(sf.Any, value)
		case substringFinal:
			if sf.Final != nil {
				return nil, ErrInvalidSubstring
			}
			sf.Final = value
		default:
			return nil, fmt.Errorf("%w: component tag %d", ErrInvalidSubstring, tag)
		}
	}
	if sf.Initial == nil && len(sf.Any) == 0 && sf.Final == nil {
		return nil, fmt.Errorf("%w: no components", ErrInvalidSubstring)
	}
	return sf, nil
}

func decodeExtensible(d *ber.BERDecoder) (*ExtensibleMatch, error) {
	em := &ExtensibleMatch{}
	sawValue := false
	for d.Remaining() > 0 {
		tag, _, value, err := d.ReadTaggedValue()
		if err != nil {
			return nil, err
		}
		switch tag {
		case extMatchingRule:
			em.MatchingRule = string(value)
		case extType:
			em.Attribute = string(value)
		case extMatchValue:
			em.Value = value
			sawValue = true
		case extDNAttributes:
			em.DNAttributes = len(value) > 0 && value[0] != 0
		}
	}
	if !sawValue {
		return nil, fmt.Errorf("%w: extensible match without value", ErrInvalidFilter)
	}
	return em, nil
}

// Encode returns the RFC 4511 BER encoding of f.
func (f *Filter) Encode() []byte {
	e := ber.NewBEREncoder(64)
	f.encode(e)
	return e.Bytes()
}

func (f *Filter) encode(e *ber.BEREncoder) {
	switch f.Type {
	case FilterAnd, FilterOr:
		pos := e.BeginContextTag(int(f.Type))
		for _, c := range f.Children {
			c.encode(e)
		}
		_ = e.EndContextTag(pos)

	case FilterNot:
		pos := e.BeginContextTag(int(f.Type))
		if f.Child != nil {
			f.Child.encode(e)
		}
		_ = e.EndContextTag(pos)

	case FilterEquality, FilterGreaterOrEqual, FilterLessOrEqual, FilterApproxMatch:
		pos := e.BeginContextTag(int(f.Type))
		_ = e.WriteOctetString([]byte(f.Attribute))
		_ = e.WriteOctetString(f.Value)
		_ = e.EndContextTag(pos)

	case FilterSubstring:
		sf := f.Substring
		pos := e.BeginContextTag(int(f.Type))
		_ = e.WriteOctetString([]byte(f.Attribute))
		seq := e.BeginSequence()
		if sf != nil {
			if sf.Initial != nil {
				_ = e.WriteTaggedValue(substringInitial, false, sf.Initial)
			}
			for _, a := range sf.Any {
				_ = e.WriteTaggedValue(substringAny, false, a)
			}
			if sf.Final != nil {
				_ = e.WriteTaggedValue(substringFinal, false, sf.Final)
			}
		}
		_ = e.EndSequence(seq)
		_ = e.EndContextTag(pos)

	case FilterPresent:
		_ = e.WriteTaggedValue(int(f.Type), false, []byte(f.Attribute))

	case FilterExtensibleMatch:
		em := f.Extensible
		pos := e.BeginContextTag(int(f.Type))
		if em != nil {
			if em.MatchingRule != "" {
				_ = e.WriteTaggedValue(extMatchingRule, false, []byte(em.MatchingRule))
			}
			if em.Attribute != "" {
				_ = e.WriteTaggedValue(extType, false, []byte(em.Attribute))
			}
			_ = e.WriteTaggedValue(extMatchValue, false, em.Value)
			if em.DNAttributes {
				_ = e.WriteTaggedValue(extDNAttributes, false, []byte{0xFF})
			}
		}
		_ = e.EndContextTag(pos)
	}
}

// String returns the RFC 4515 text form.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	f.writeString(&b)
	return b.String()
}

func (f *Filter) writeString(b *strings.Builder) {
	b.WriteByte('(')
	switch f.Type {
	case FilterAnd, FilterOr:
		if f.Type == FilterAnd {
			b.WriteByte('&')
		} else {
			b.WriteByte('|')
		}
		for _, c := range f.Children {
			c.writeString(b)
		}
	case FilterNot:
		b.WriteByte('!')
		if f.Child != nil {
			f.Child.writeString(b)
		}
	case FilterEquality:
		b.WriteString(f.Attribute + "=" + ldap.EscapeFilter(string(f.Value)))
	case FilterGreaterOrEqual:
		b.WriteString(f.Attribute + ">=" + ldap.EscapeFilter(string(f.Value)))
	case FilterLessOrEqual:
		b.WriteString(f.Attribute + "<=" + ldap.EscapeFilter(string(f.Value)))
	case FilterApproxMatch:
		b.WriteString(f.Attribute + "~=" + ldap.EscapeFilter(string(f.Value)))
	case FilterPresent:
		b.WriteString(f.Attribute + "=*")
	case FilterSubstring:
		b.WriteString(f.Attribute + "=")
		if sf := f.Substring; sf != nil {
			b.WriteString(ldap.EscapeFilter(string(sf.Initial)))
			b.WriteByte('*')
			for _, a := range sf.Any {
				b.WriteString(ldap.EscapeFilter(string(a)))
				b.WriteByte('*')
			}
			b.WriteString(ldap.EscapeFilter(string(sf.Final)))
		}
	case FilterExtensibleMatch:
		if em := f.Extensible; em != nil {
			b.WriteString(em.Attribute)
			if em.DNAttributes {
				b.WriteString(":dn")
			}
			if em.MatchingRule != "" {
				b.WriteString(":" + em.MatchingRule)
			}
			b.WriteString(":=" + ldap.EscapeFilter(string(em.Value)))
		}
	}
	b.WriteByte(')')
}
