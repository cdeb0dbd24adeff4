package ber

// BERDecoder decodes BER values from an in-memory buffer.
type BERDecoder struct {
	data   []byte
	offset int
}

// NewBERDecoder creates a new BER decoder for the given data.
func NewBERDecoder(data []byte) *BERDecoder {
	return &BERDecoder{data: data}
}

// Offset returns the current read position in the data.
func (d *BERDecoder) Offset() int {
	return d.offset
}

// Remaining returns the number of bytes remaining to be read.
func (d *BERDecoder) Remaining() int {
	return len(d.data) - d.offset
}

// ReadTag reads an identifier and returns its class, constructed flag and
// tag number.
func (d *BERDecoder) ReadTag() (class, constructed, number int, err error) {
	start := d.offset
	if d.offset >= len(d.data) {
		return 0, 0, 0, NewDecodeError(start, "cannot read tag", ErrTruncatedType)
	}
	first := d.data[d.offset]
	d.offset++

	class = int(first & 0xC0)
	constructed = int(first & TypeConstructed)
	number = int(first & 0x1F)
	if number != 0x1F {
		return class, constructed, number, nil
	}

	number = 0
	for {
		if d.offset >= len(d.data) {
			return 0, 0, 0, NewDecodeError(start, "cannot read long form tag number", ErrTruncatedType)
		}
		b := d.data[d.offset]
		d.offset++
		if number > 1<<24 {
			return 0, 0, 0, NewDecodeError(start, "tag number overflow", ErrInvalidLength)
		}
		number = number<<7 | int(b&0x7F)
		if b&0x80 == 0 {
			return class, constructed, number, nil
		}
	}
}

// ReadLength reads a definite length. The indefinite form is rejected.
func (d *BERDecoder) ReadLength() (int, error) {
	start := d.offset
	if d.offset >= len(d.data) {
		return 0, NewDecodeError(start, "cannot read length", ErrTruncatedLength)
	}
	first := d.data[d.offset]
	d.offset++
	n, err := longFormOctets(first, start)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return int(first), nil
	}
	if d.offset+n > len(d.data) {
		return 0, NewDecodeError(start, "truncated length encoding", ErrTruncatedLength)
	}
	octets := d.data[d.offset : d.offset+n]
	d.offset += n
	return parseLongLength(octets, start)
}

// readValue reads the identifier and length, checks the identifier against
// the expected class and number (number < 0 accepts any), and returns the
// value octets.
func (d *BERDecoder) readValue(class, number int) (constructed bool, value []byte, err error) {
	start := d.offset
	c, cons, num, err := d.ReadTag()
	if err != nil {
		return false, nil, err
	}
	if c != class || (number >= 0 && num != number) {
		return false, nil, &TagMismatchError{
			Offset:         start,
			ExpectedClass:  class,
			ExpectedNumber: number,
			ActualClass:    c,
			ActualNumber:   num,
			Constructed:    cons == TypeConstructed,
		}
	}
	length, err := d.ReadLength()
	if err != nil {
		return false, nil, err
	}
	if d.offset+length > len(d.data) {
		return false, nil, NewDecodeError(d.offset, "truncated value", ErrValueLength)
	}
	value = d.data[d.offset : d.offset+length]
	d.offset += length
	return cons == TypeConstructed, value, nil
}

// ReadBoolean reads a universal BOOLEAN.
func (d *BERDecoder) ReadBoolean() (bool, error) {
	start := d.offset
	_, v, err := d.readValue(ClassUniversal, TagBoolean)
	if err != nil {
		return false, err
	}
	if len(v) != 1 {
		return false, NewDecodeError(start, "boolean must have length 1", ErrInvalidBoolean)
	}
	return v[0] != 0x00, nil
}

// ReadInteger reads a universal INTEGER of at most eight octets.
func (d *BERDecoder) ReadInteger() (int64, error) {
	return d.readIntegerTagged(ClassUniversal, TagInteger)
}

// ReadEnumerated reads a universal ENUMERATED.
func (d *BERDecoder) ReadEnumerated() (int64, error) {
	return d.readIntegerTagged(ClassUniversal, TagEnumerated)
}

func (d *BERDecoder) readIntegerTagged(class, number int) (int64, error) {
	start := d.offset
	_, v, err := d.readValue(class, number)
	if err != nil {
		return 0, err
	}
	n, err := decodeInteger(v)
	if err != nil {
		return 0, NewDecodeError(start, "integer must have 1 to 8 octets", err)
	}
	return n, nil
}

// ReadOctetString reads a universal OCTET STRING and returns a copy of it.
func (d *BERDecoder) ReadOctetString() ([]byte, error) {
	start := d.offset
	constructed, v, err := d.readValue(ClassUniversal, TagOctetString)
	if err != nil {
		return nil, err
	}
	if constructed {
		return nil, NewDecodeError(start, "constructed octet string not supported", nil)
	}
	return append([]byte(nil), v...), nil
}

// ReadNull reads a universal NULL.
func (d *BERDecoder) ReadNull() error {
	start := d.offset
	_, v, err := d.readValue(ClassUniversal, TagNull)
	if err != nil {
		return err
	}
	if len(v) != 0 {
		return NewDecodeError(start, "null must have length 0", ErrInvalidNull)
	}
	return nil
}

// PeekTag returns the next identifier without consuming it.
func (d *BERDecoder) PeekTag() (class, constructed, number int, err error) {
	saved := d.offset
	class, constructed, number, err = d.ReadTag()
	d.offset = saved
	return
}

// Skip consumes the next element.
func (d *BERDecoder) Skip() error {
	start := d.offset
	if _, _, _, err := d.ReadTag(); err != nil {
		return err
	}
	length, err := d.ReadLength()
	if err != nil {
		return err
	}
	if d.offset+length > len(d.data) {
		return NewDecodeError(start, "truncated value", ErrValueLength)
	}
	d.offset += length
	return nil
}

// ReadTaggedValue reads a context-specific element of any number and returns
// a copy of its content octets.
func (d *BERDecoder) ReadTaggedValue() (tagNumber int, constructed bool, value []byte, err error) {
	start := d.offset
	class, _, number, err := d.PeekTag()
	if err != nil {
		return 0, false, nil, err
	}
	if class != ClassContextSpecific {
		return 0, false, nil, &TagMismatchError{
			Offset:         start,
			ExpectedClass:  ClassContextSpecific,
			ExpectedNumber: -1,
			ActualClass:    class,
			ActualNumber:   number,
		}
	}
	constructed, v, err := d.readValue(ClassContextSpecific, -1)
	if err != nil {
		return 0, false, nil, err
	}
	return number, constructed, append([]byte(nil), v...), nil
}

// ExpectSequence reads a SEQUENCE header and returns the content length.
func (d *BERDecoder) ExpectSequence() (int, error) {
	return d.expectConstructed(TagSequence)
}

// ExpectSet reads a SET header and returns the content length.
func (d *BERDecoder) ExpectSet() (int, error) {
	return d.expectConstructed(TagSet)
}

func (d *BERDecoder) expectConstructed(number int) (int, error) {
	start := d.offset
	class, constructed, num, err := d.ReadTag()
	if err != nil {
		return 0, err
	}
	if class != ClassUniversal || constructed != TypeConstructed || num != number {
		return 0, &TagMismatchError{
			Offset:         start,
			ExpectedClass:  ClassUniversal,
			ExpectedNumber: number,
			ActualClass:    class,
			ActualNumber:   num,
			Constructed:    constructed == TypeConstructed,
		}
	}
	length, err := d.ReadLength()
	if err != nil {
		return 0, err
	}
	if d.offset+length > len(d.data) {
		return 0, NewDecodeError(start, "truncated constructed content", ErrValueLength)
	}
	return length, nil
}
