package ber

import "fmt"

// Element is one decoded BER element. Primitive elements carry Value;
// constructed elements carry Children.
type Element struct {
	Type     byte
	Value    []byte
	Children []*Element
}

// NewBoolean returns a universal boolean element.
func NewBoolean(v bool) *Element {
	b := byte(0x00)
	if v {
		b = 0xFF
	}
	return &Element{Type: TypeBoolean, Value: []byte{b}}
}

// NewInteger returns a universal integer element.
func NewInteger(v int64) *Element {
	return &Element{Type: TypeInteger, Value: encodeInteger(v)}
}

// NewEnumerated returns a universal enumerated element.
func NewEnumerated(v int64) *Element {
	return &Element{Type: TypeEnumerated, Value: encodeInteger(v)}
}

// NewNull returns a universal null element.
func NewNull() *Element {
	return &Element{Type: TypeNull, Value: []byte{}}
}

// NewOctetString returns a universal octet string element.
func NewOctetString(v []byte) *Element {
	return &Element{Type: TypeOctetString, Value: append([]byte{}, v...)}
}

// NewSequence returns a universal sequence element.
func NewSequence(children ...*Element) *Element {
	return &Element{Type: TypeSequence, Children: children}
}

// NewSet returns a universal set element.
func NewSet(children ...*Element) *Element {
	return &Element{Type: TypeSet, Children: children}
}

// Constructed reports whether the element has the constructed bit set.
func (e *Element) Constructed() bool {
	return IsConstructed(e.Type)
}

// Boolean interprets the value as a boolean.
func (e *Element) Boolean() (bool, error) {
	if len(e.Value) != 1 {
		return false, ErrInvalidBoolean
	}
	return e.Value[0] != 0, nil
}

// Integer interprets the value as an integer or enumerated value.
func (e *Element) Integer() (int64, error) {
	return decodeInteger(e.Value)
}

// String returns a short description for debugging.
func (e *Element) String() string {
	if e.Constructed() {
		return fmt.Sprintf("element(type=%#02x, children=%d)", e.Type, len(e.Children))
	}
	return fmt.Sprintf("element(type=%#02x, length=%d)", e.Type, len(e.Value))
}

// Encode returns the BER encoding of e. It fails when a length does not fit
// in four octets.
func (e *Element) Encode() ([]byte, error) {
	enc := NewBEREncoder(64)
	if err := e.encodeTo(enc); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

func (e *Element) encodeTo(enc *BEREncoder) error {
	if !e.Constructed() {
		enc.WriteRaw([]byte{e.Type})
		if err := enc.WriteLength(len(e.Value)); err != nil {
			return err
		}
		enc.WriteRaw(e.Value)
		return nil
	}
	enc.WriteRaw([]byte{e.Type, 0})
	pos := enc.Len()
	for _, c := range e.Children {
		if err := c.encodeTo(enc); err != nil {
			return err
		}
	}
	return enc.endConstructed(pos)
}

// Decode decodes exactly one element from data. A maxElementSize above zero
// bounds every declared length, including nested ones.
func Decode(data []byte, maxElementSize int) (*Element, error) {
	r := NewReader(data, WithMaxElementSize(maxElementSize))
	el, err := ReadElement(r)
	if err != nil {
		return nil, err
	}
	more, err := r.HasNextElement()
	if err != nil {
		return nil, err
	}
	if more {
		return nil, NewDecodeError(r.Offset(), "data after element", ErrTrailingData)
	}
	return el, nil
}

// ReadElement reads the next complete element from r.
func ReadElement(r *Reader) (*Element, error) {
	typ, err := r.PeekType()
	if err != nil {
		return nil, err
	}
	if !IsConstructed(typ) {
		v, err := r.ReadOctetString()
		if err != nil {
			return nil, err
		}
		return &Element{Type: typ, Value: v}, nil
	}

	if err := r.startContainer(); err != nil {
		return nil, err
	}
	el := &Element{Type: typ}
	for {
		more, err := r.HasNextElement()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		child, err := ReadElement(r)
		if err != nil {
			return nil, err
		}
		el.Children = append(el.Children, child)
	}
	if err := r.endContainer(); err != nil {
		return nil, err
	}
	return el, nil
}
