package ber

// BEREncoder builds BER encoded data in memory.
type BEREncoder struct {
	buf []byte
}

// NewBEREncoder creates an encoder with the given initial capacity.
func NewBEREncoder(capacity int) *BEREncoder {
	if capacity <= 0 {
		capacity = 64
	}
	return &BEREncoder{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded data.
func (e *BEREncoder) Bytes() []byte {
	return e.buf
}

// Reset clears the encoder, keeping the allocated buffer.
func (e *BEREncoder) Reset() {
	e.buf = e.buf[:0]
}

// Len returns the number of encoded bytes.
func (e *BEREncoder) Len() int {
	return len(e.buf)
}

// WriteTag writes an identifier, using the long form for numbers above 30.
func (e *BEREncoder) WriteTag(class, constructed, number int) error {
	switch class {
	case ClassUniversal, ClassApplication, ClassContextSpecific, ClassPrivate:
	default:
		return ErrInvalidTagClass
	}
	if number < 0 {
		return ErrInvalidTagNumber
	}
	if number <= 30 {
		e.buf = append(e.buf, byte(class|constructed|number))
		return nil
	}
	e.buf = append(e.buf, byte(class|constructed|0x1F))
	var groups []byte
	for v := number; ; v >>= 7 {
		groups = append(groups, byte(v&0x7F))
		if v < 0x80 {
			break
		}
	}
	for i := len(groups) - 1; i >= 0; i-- {
		b := groups[i]
		if i > 0 {
			b |= 0x80
		}
		e.buf = append(e.buf, b)
	}
	return nil
}

// WriteLength writes a definite length in the shortest form.
func (e *BEREncoder) WriteLength(length int) error {
	out, err := appendLength(e.buf, length)
	if err != nil {
		return err
	}
	e.buf = out
	return nil
}

// appendLength appends the short or long form of length to buf.
func appendLength(buf []byte, length int) ([]byte, error) {
	if length < 0 {
		return buf, ErrNegativeLength
	}
	if length <= MaxShortFormLength {
		return append(buf, byte(length)), nil
	}
	n := 0
	for v := length; v > 0; v >>= 8 {
		n++
	}
	if n > MaxLengthOctets {
		return buf, ErrLengthOverflow
	}
	buf = append(buf, byte(LengthLongFormBit|n))
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, byte(length>>(uint(i)*8)))
	}
	return buf, nil
}

func (e *BEREncoder) writePrimitive(class, number int, value []byte) error {
	if err := e.WriteTag(class, TypePrimitive, number); err != nil {
		return err
	}
	if err := e.WriteLength(len(value)); err != nil {
		return err
	}
	e.buf = append(e.buf, value...)
	return nil
}

// WriteBoolean writes a universal BOOLEAN. TRUE is encoded as 0xFF.
func (e *BEREncoder) WriteBoolean(v bool) error {
	b := byte(0x00)
	if v {
		b = 0xFF
	}
	return e.writePrimitive(ClassUniversal, TagBoolean, []byte{b})
}

// WriteInteger writes a universal INTEGER in minimal two's complement.
func (e *BEREncoder) WriteInteger(v int64) error {
	return e.writePrimitive(ClassUniversal, TagInteger, encodeInteger(v))
}

// WriteEnumerated writes a universal ENUMERATED.
func (e *BEREncoder) WriteEnumerated(v int64) error {
	return e.writePrimitive(ClassUniversal, TagEnumerated, encodeInteger(v))
}

// WriteOctetString writes a universal OCTET STRING.
func (e *BEREncoder) WriteOctetString(v []byte) error {
	return e.writePrimitive(ClassUniversal, TagOctetString, v)
}

// WriteNull writes a universal NULL.
func (e *BEREncoder) WriteNull() error {
	return e.writePrimitive(ClassUniversal, TagNull, nil)
}

// WriteRaw appends already encoded bytes.
func (e *BEREncoder) WriteRaw(data []byte) {
	e.buf = append(e.buf, data...)
}

// WriteTaggedValue writes a context-specific element with the given content.
func (e *BEREncoder) WriteTaggedValue(tagNumber int, constructed bool, value []byte) error {
	flag := TypePrimitive
	if constructed {
		flag = TypeConstructed
	}
	if err := e.WriteTag(ClassContextSpecific, flag, tagNumber); err != nil {
		return err
	}
	if err := e.WriteLength(len(value)); err != nil {
		return err
	}
	e.buf = append(e.buf, value...)
	return nil
}

// BeginSequence starts a SEQUENCE and returns the position to pass to
// EndSequence once the contents are written.
func (e *BEREncoder) BeginSequence() int {
	return e.beginConstructed(ClassUniversal, TagSequence)
}

// EndSequence closes the SEQUENCE started at pos.
func (e *BEREncoder) EndSequence(pos int) error {
	return e.endConstructed(pos)
}

// BeginSet starts a SET.
func (e *BEREncoder) BeginSet() int {
	return e.beginConstructed(ClassUniversal, TagSet)
}

// EndSet closes the SET started at pos.
func (e *BEREncoder) EndSet(pos int) error {
	return e.endConstructed(pos)
}

// BeginContextTag starts a constructed context-specific element.
func (e *BEREncoder) BeginContextTag(number int) int {
	return e.beginConstructed(ClassContextSpecific, number)
}

// EndContextTag closes the element started at pos.
func (e *BEREncoder) EndContextTag(pos int) error {
	return e.endConstructed(pos)
}

// beginConstructed writes the identifier and a one octet placeholder length.
// The returned position is the first content offset.
func (e *BEREncoder) beginConstructed(class, number int) int {
	_ = e.WriteTag(class, TypeConstructed, number)
	e.buf = append(e.buf, 0)
	return len(e.buf)
}

func (e *BEREncoder) endConstructed(pos int) error {
	if pos <= 0 || pos > len(e.buf) {
		return ErrInvalidLength
	}
	lenBytes, err := appendLength(nil, len(e.buf)-pos)
	if err != nil {
		return err
	}
	if extra := len(lenBytes) - 1; extra > 0 {
		e.buf = append(e.buf, make([]byte, extra)...)
		copy(e.buf[pos+extra:], e.buf[pos:len(e.buf)-extra])
	}
	copy(e.buf[pos-1:], lenBytes)
	return nil
}

// encodeInteger returns the minimal two's complement form of v.
func encodeInteger(v int64) []byte {
	n := 1
	for i := v; i > 127 || i < -128; i >>= 8 {
		n++
	}
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// decodeInteger sign-extends a 1 to 8 octet two's complement value.
func decodeInteger(b []byte) (int64, error) {
	if len(b) == 0 || len(b) > 8 {
		return 0, ErrInvalidInteger
	}
	var v int64
	if b[0]&0x80 != 0 {
		v = -1
	}
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v, nil
}
