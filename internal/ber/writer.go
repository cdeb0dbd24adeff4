package ber

import (
	"bufio"
	"io"
)

// Writer streams BER elements to an io.Writer. Elements inside an open
// sequence or set are buffered until the matching end call, when the
// container header and contents are emitted to the enclosing level.
type Writer struct {
	out   *bufio.Writer
	stack []*containerBuf
}

type containerBuf struct {
	typ byte
	enc *BEREncoder
}

// NewWriter returns a Writer that writes to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(w)}
}

// emit appends one complete element to the innermost open container, or to
// the output when none is open.
func (w *Writer) emit(typ byte, value []byte) error {
	buf := make([]byte, 0, len(value)+6)
	buf = append(buf, typ)
	buf, err := appendLength(buf, len(value))
	if err != nil {
		return err
	}
	buf = append(buf, value...)

	if n := len(w.stack); n > 0 {
		w.stack[n-1].enc.WriteRaw(buf)
		return nil
	}
	_, err = w.out.Write(buf)
	return err
}

// WriteBoolean writes a universal boolean.
func (w *Writer) WriteBoolean(v bool) error {
	return w.WriteBooleanType(TypeBoolean, v)
}

// WriteBooleanType writes a boolean with an explicit identifier octet.
func (w *Writer) WriteBooleanType(typ byte, v bool) error {
	b := byte(0x00)
	if v {
		b = 0xFF
	}
	return w.emit(typ, []byte{b})
}

// WriteInteger writes a universal integer.
func (w *Writer) WriteInteger(v int64) error {
	return w.emit(TypeInteger, encodeInteger(v))
}

// WriteEnumerated writes a universal enumerated value.
func (w *Writer) WriteEnumerated(v int64) error {
	return w.emit(TypeEnumerated, encodeInteger(v))
}

// WriteNull writes a universal null.
func (w *Writer) WriteNull() error {
	return w.emit(TypeNull, nil)
}

// WriteOctetString writes a universal octet string.
func (w *Writer) WriteOctetString(v []byte) error {
	return w.emit(TypeOctetString, v)
}

// WriteOctetStringType writes an octet string with an explicit identifier.
func (w *Writer) WriteOctetStringType(typ byte, v []byte) error {
	return w.emit(typ, v)
}

// WriteOctetStringString writes s as a universal octet string.
func (w *Writer) WriteOctetStringString(s string) error {
	return w.emit(TypeOctetString, []byte(s))
}

// WriteStartSequence opens a universal sequence.
func (w *Writer) WriteStartSequence() {
	w.WriteStartContainer(TypeSequence)
}

// WriteEndSequence closes the innermost open container.
func (w *Writer) WriteEndSequence() error {
	return w.endContainer()
}

// WriteStartSet opens a universal set.
func (w *Writer) WriteStartSet() {
	w.WriteStartContainer(TypeSet)
}

// WriteEndSet closes the innermost open container.
func (w *Writer) WriteEndSet() error {
	return w.endContainer()
}

// WriteStartContainer opens a constructed element with the given identifier.
func (w *Writer) WriteStartContainer(typ byte) {
	w.stack = append(w.stack, &containerBuf{typ: typ | TypeConstructed, enc: NewBEREncoder(64)})
}

func (w *Writer) endContainer() error {
	n := len(w.stack)
	if n == 0 {
		return ErrNoContainer
	}
	top := w.stack[n-1]
	w.stack = w.stack[:n-1]
	return w.emit(top.typ, top.enc.Bytes())
}

// Flush writes buffered output. It fails if a container is still open.
func (w *Writer) Flush() error {
	if len(w.stack) > 0 {
		return ErrOpenContainer
	}
	return w.out.Flush()
}
