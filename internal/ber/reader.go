package ber

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

type readerState int

const (
	stateNeedType readerState = iota
	stateNeedLength
	stateNeedValue
)

// byteSource is the input a Reader pulls octets from.
type byteSource interface {
	// next returns the next octet or io.EOF.
	next() (byte, error)
	// read returns exactly n octets, or an error when the input ends first.
	// Stream buffers grow with the data received, not the declared length.
	read(n int) ([]byte, error)
}

type sliceSource struct {
	data []byte
	pos  int
}

func (s *sliceSource) next() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

func (s *sliceSource) read(n int) ([]byte, error) {
	if len(s.data)-s.pos < n {
		s.pos = len(s.data)
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]byte, n)
	s.pos += copy(out, s.data[s.pos:])
	return out, nil
}

type streamSource struct {
	r *bufio.Reader
}

func (s *streamSource) next() (byte, error) {
	return s.r.ReadByte()
}

func (s *streamSource) read(n int) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, s.r, int64(n)); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return buf.Bytes(), nil
}

type channelSource struct {
	ch <-chan byte
}

func (s *channelSource) next() (byte, error) {
	b, ok := <-s.ch
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

func (s *channelSource) read(n int) ([]byte, error) {
	var out []byte
	for i := 0; i < n; i++ {
		b, ok := <-s.ch
		if !ok {
			return nil, io.ErrUnexpectedEOF
		}
		out = append(out, b)
	}
	return out, nil
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxElementSize limits the declared length of any element. A value of
// zero or less disables the limit.
func WithMaxElementSize(n int) ReaderOption {
	return func(r *Reader) {
		r.maxElementSize = n
	}
}

// Reader reads BER elements one at a time from a byte slice, an io.Reader or
// a byte channel. Each element passes through the states need-type,
// need-length and need-value. Sequences and sets push a frame bounded by the
// declared container length.
//
// Element reads do not check the identifier octet; callers that care use
// PeekType first. A Reader is not safe for concurrent use.
type Reader struct {
	src            byteSource
	maxElementSize int

	state      readerState
	peekType   byte
	peekLength int

	// consumed counts octets pulled from src. Frames store the absolute
	// offset at which their container ends.
	consumed int
	frames   []int
}

// NewReader returns a Reader over data.
func NewReader(data []byte, opts ...ReaderOption) *Reader {
	return newReader(&sliceSource{data: data}, opts)
}

// NewStreamReader returns a Reader over r.
func NewStreamReader(r io.Reader, opts ...ReaderOption) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return newReader(&streamSource{r: br}, opts)
}

// NewChannelReader returns a Reader over ch. A closed channel is end of input.
func NewChannelReader(ch <-chan byte, opts ...ReaderOption) *Reader {
	return newReader(&channelSource{ch: ch}, opts)
}

func newReader(src byteSource, opts []ReaderOption) *Reader {
	r := &Reader{src: src, maxElementSize: DefaultMaxElementSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Offset returns the number of octets consumed so far.
func (r *Reader) Offset() int {
	return r.consumed
}

func (r *Reader) frameEnd() (int, bool) {
	if len(r.frames) == 0 {
		return 0, false
	}
	return r.frames[len(r.frames)-1], true
}

// HasNextElement reports whether another element can be read at the current
// nesting level. Inside a container it returns false once the container is
// exhausted; at top level it returns false at end of input.
func (r *Reader) HasNextElement() (bool, error) {
	if r.state != stateNeedType {
		return true, nil
	}
	if end, ok := r.frameEnd(); ok {
		return r.consumed < end, nil
	}
	err := r.readType(true)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// readType moves need-type to need-length. When eofOK is set a clean end of
// input is returned as io.EOF instead of a DecodeError.
func (r *Reader) readType(eofOK bool) error {
	if end, ok := r.frameEnd(); ok && r.consumed >= end {
		return NewDecodeError(r.consumed, "no more elements in container", ErrContainerOverrun)
	}
	b, err := r.src.next()
	if err != nil {
		if eofOK && errors.Is(err, io.EOF) {
			return io.EOF
		}
		return NewDecodeError(r.consumed, "cannot read type octet", ErrTruncatedType)
	}
	r.consumed++
	r.peekType = b
	r.state = stateNeedLength
	return nil
}

func (r *Reader) readLength() error {
	start := r.consumed
	first, err := r.src.next()
	if err != nil {
		return NewDecodeError(start, "cannot read length", ErrTruncatedLength)
	}
	r.consumed++

	length := int(first)
	n, err := longFormOctets(first, start)
	if err != nil {
		return err
	}
	if n > 0 {
		octets, err := r.src.read(n)
		if err != nil {
			return NewDecodeError(start, "truncated length encoding", ErrTruncatedLength)
		}
		r.consumed += n
		if length, err = parseLongLength(octets, start); err != nil {
			return err
		}
	}

	if r.maxElementSize > 0 && length > r.maxElementSize {
		return NewDecodeError(start, "declared length exceeds limit", ErrElementTooLarge)
	}
	if end, ok := r.frameEnd(); ok && r.consumed+length > end {
		return NewDecodeError(start, "element extends past container", ErrContainerOverrun)
	}
	r.peekLength = length
	r.state = stateNeedValue
	return nil
}

// longFormOctets returns the number of length octets announced by first, or
// zero for the short form.
func longFormOctets(first byte, start int) (int, error) {
	if first&LengthLongFormBit == 0 {
		return 0, nil
	}
	n := int(first & 0x7F)
	switch {
	case n == 0:
		return 0, NewDecodeError(start, "indefinite length encoding", ErrIndefiniteLength)
	case n > MaxLengthOctets:
		return 0, NewDecodeError(start, "too many length octets", ErrInvalidLength)
	}
	return n, nil
}

// parseLongLength combines big-endian long form length octets.
func parseLongLength(octets []byte, start int) (int, error) {
	length := 0
	for _, b := range octets {
		length = length<<8 | int(b)
	}
	if length < 0 {
		return 0, NewDecodeError(start, "length value overflow", ErrInvalidLength)
	}
	return length, nil
}

// PeekType returns the identifier octet of the next element without
// consuming the element.
func (r *Reader) PeekType() (byte, error) {
	if r.state == stateNeedType {
		if err := r.readType(false); err != nil {
			return 0, err
		}
	}
	return r.peekType, nil
}

// PeekLength returns the declared length of the next element.
func (r *Reader) PeekLength() (int, error) {
	if _, err := r.PeekType(); err != nil {
		return 0, err
	}
	if r.state == stateNeedLength {
		if err := r.readLength(); err != nil {
			return 0, err
		}
	}
	return r.peekLength, nil
}

// readValue returns the value octets of the next element and resets the
// state machine.
func (r *Reader) readValue() ([]byte, error) {
	length, err := r.PeekLength()
	if err != nil {
		return nil, err
	}
	value := []byte{}
	if length > 0 {
		if value, err = r.src.read(length); err != nil {
			return nil, NewDecodeError(r.consumed, "truncated value", ErrValueLength)
		}
	}
	r.consumed += length
	r.state = stateNeedType
	return value, nil
}

// ReadBoolean reads a one octet boolean value.
func (r *Reader) ReadBoolean() (bool, error) {
	start := r.consumed
	length, err := r.PeekLength()
	if err != nil {
		return false, err
	}
	if length != 1 {
		return false, NewDecodeError(start, "boolean must have length 1", ErrInvalidBoolean)
	}
	v, err := r.readValue()
	if err != nil {
		return false, err
	}
	return v[0] != 0x00, nil
}

// ReadInteger reads a 1 to 8 octet integer value.
func (r *Reader) ReadInteger() (int64, error) {
	start := r.consumed
	length, err := r.PeekLength()
	if err != nil {
		return 0, err
	}
	if length < 1 || length > 8 {
		return 0, NewDecodeError(start, "integer must have 1 to 8 octets", ErrInvalidInteger)
	}
	v, err := r.readValue()
	if err != nil {
		return 0, err
	}
	return decodeInteger(v)
}

// ReadEnumerated reads an enumerated value.
func (r *Reader) ReadEnumerated() (int64, error) {
	return r.ReadInteger()
}

// ReadNull reads a zero length null value.
func (r *Reader) ReadNull() error {
	start := r.consumed
	length, err := r.PeekLength()
	if err != nil {
		return err
	}
	if length != 0 {
		return NewDecodeError(start, "null must have length 0", ErrInvalidNull)
	}
	r.state = stateNeedType
	return nil
}

// ReadOctetString reads an octet string value.
func (r *Reader) ReadOctetString() ([]byte, error) {
	return r.readValue()
}

// ReadOctetStringAsString reads an octet string as text. Octets that are not
// valid UTF-8 are kept as they are.
func (r *Reader) ReadOctetStringAsString() (string, error) {
	v, err := r.readValue()
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// ReadOctetStringInto appends an octet string value to buf.
func (r *Reader) ReadOctetStringInto(buf *bytes.Buffer) error {
	v, err := r.readValue()
	if err != nil {
		return err
	}
	buf.Write(v)
	return nil
}

// ReadStartSequence enters a sequence. Elements read until the matching
// ReadEndSequence must lie inside it.
func (r *Reader) ReadStartSequence() error {
	return r.startContainer()
}

// ReadEndSequence leaves the current sequence, skipping unread elements.
func (r *Reader) ReadEndSequence() error {
	return r.endContainer()
}

// ReadStartSet enters a set.
func (r *Reader) ReadStartSet() error {
	return r.startContainer()
}

// ReadEndSet leaves the current set, skipping unread elements.
func (r *Reader) ReadEndSet() error {
	return r.endContainer()
}

func (r *Reader) startContainer() error {
	length, err := r.PeekLength()
	if err != nil {
		return err
	}
	r.frames = append(r.frames, r.consumed+length)
	r.state = stateNeedType
	return nil
}

func (r *Reader) endContainer() error {
	end, ok := r.frameEnd()
	if !ok {
		return ErrNoContainer
	}
	if r.state != stateNeedType {
		// A peeked element is abandoned along with the rest of the container.
		r.state = stateNeedType
	}
	if remaining := end - r.consumed; remaining > 0 {
		if err := r.discard(remaining); err != nil {
			return err
		}
	}
	r.frames = r.frames[:len(r.frames)-1]
	return nil
}

// SkipElement consumes the next element without decoding it.
func (r *Reader) SkipElement() error {
	length, err := r.PeekLength()
	if err != nil {
		return err
	}
	if err := r.discard(length); err != nil {
		return err
	}
	r.state = stateNeedType
	return nil
}

func (r *Reader) discard(n int) error {
	for n > 0 {
		chunk := n
		if chunk > 512 {
			chunk = 512
		}
		if _, err := r.src.read(chunk); err != nil {
			return NewDecodeError(r.consumed, "truncated value", ErrValueLength)
		}
		r.consumed += chunk
		n -= chunk
	}
	return nil
}
