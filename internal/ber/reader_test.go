package ber

import (
	"bytes"
	"testing"

	asn1ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encoded(tb testing.TB, el *Element) []byte {
	tb.Helper()
	data, err := el.Encode()
	require.NoError(tb, err)
	return data
}

// readers returns one Reader per input kind over the same data.
func readers(data []byte, opts ...ReaderOption) map[string]*Reader {
	ch := make(chan byte, len(data))
	for _, b := range data {
		ch <- b
	}
	close(ch)
	return map[string]*Reader{
		"slice":   NewReader(data, opts...),
		"stream":  NewStreamReader(bytes.NewReader(data), opts...),
		"channel": NewChannelReader(ch, opts...),
	}
}

func TestReaderOctetStringSizes(t *testing.T) {
	for _, size := range []int{0, 1, 127, 128, 65536} {
		value := bytes.Repeat([]byte{0xA5}, size)
		data := encoded(t, NewOctetString(value))
		for name, r := range readers(data) {
			length, err := r.PeekLength()
			require.NoError(t, err, "%s/%d", name, size)
			assert.Equal(t, size, length)

			got, err := r.ReadOctetString()
			require.NoError(t, err, "%s/%d", name, size)
			assert.Equal(t, value, got, "%s/%d", name, size)

			more, err := r.HasNextElement()
			require.NoError(t, err)
			assert.False(t, more)
		}
	}
}

func TestReaderPrimitives(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteBoolean(false))
	require.NoError(t, w.WriteInteger(-2))
	require.NoError(t, w.WriteEnumerated(10))
	require.NoError(t, w.WriteNull())
	require.NoError(t, w.WriteOctetStringString("uid=bjensen"))
	require.NoError(t, w.Flush())

	for name, r := range readers(buf.Bytes()) {
		typ, err := r.PeekType()
		require.NoError(t, err, name)
		assert.Equal(t, TypeBoolean, typ)
		b, err := r.ReadBoolean()
		require.NoError(t, err, name)
		assert.False(t, b)

		i, err := r.ReadInteger()
		require.NoError(t, err, name)
		assert.Equal(t, int64(-2), i)

		e, err := r.ReadEnumerated()
		require.NoError(t, err, name)
		assert.Equal(t, int64(10), e)

		require.NoError(t, r.ReadNull(), name)

		var sb bytes.Buffer
		sb.WriteString("prefix:")
		require.NoError(t, r.ReadOctetStringInto(&sb), name)
		assert.Equal(t, "prefix:uid=bjensen", sb.String())
	}
}

func TestReaderSequences(t *testing.T) {
	data := encoded(t, NewSequence(
		NewInteger(1),
		NewSet(NewOctetString([]byte("a")), NewOctetString([]byte("b"))),
		NewOctetString([]byte("unread")),
	))
	data = append(data, encoded(t, NewInteger(7))...)

	for name, r := range readers(data) {
		require.NoError(t, r.ReadStartSequence(), name)
		v, err := r.ReadInteger()
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		require.NoError(t, r.ReadStartSet())
		var got []string
		for {
			more, err := r.HasNextElement()
			require.NoError(t, err)
			if !more {
				break
			}
			s, err := r.ReadOctetStringAsString()
			require.NoError(t, err)
			got = append(got, s)
		}
		assert.Equal(t, []string{"a", "b"}, got)
		require.NoError(t, r.ReadEndSet())

		// The trailing octet string is skipped by the end call.
		require.NoError(t, r.ReadEndSequence(), name)

		v, err = r.ReadInteger()
		require.NoError(t, err, name)
		assert.Equal(t, int64(7), v)
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		opts []ReaderOption
		read func(r *Reader) error
		want error
	}{
		{
			name: "truncated type",
			data: nil,
			read: func(r *Reader) error { _, err := r.ReadInteger(); return err },
			want: ErrTruncatedType,
		},
		{
			name: "truncated length",
			data: []byte{0x04, 0x83, 0x01},
			read: func(r *Reader) error { _, err := r.ReadOctetString(); return err },
			want: ErrTruncatedLength,
		},
		{
			name: "too many length octets",
			data: []byte{0x04, 0x85, 0, 0, 0, 0, 1, 0},
			read: func(r *Reader) error { _, err := r.ReadOctetString(); return err },
			want: ErrInvalidLength,
		},
		{
			name: "value shorter than length",
			data: []byte{0x04, 0x84, 0x7F, 0xFF, 0xFF, 0xFF, 'x'},
			read: func(r *Reader) error { _, err := r.ReadOctetString(); return err },
			want: ErrValueLength,
		},
		{
			name: "oversized element",
			data: encoded(t, NewOctetString(make([]byte, 200))),
			opts: []ReaderOption{WithMaxElementSize(100)},
			read: func(r *Reader) error { _, err := r.ReadOctetString(); return err },
			want: ErrElementTooLarge,
		},
		{
			name: "boolean length",
			data: []byte{0x01, 0x00},
			read: func(r *Reader) error { _, err := r.ReadBoolean(); return err },
			want: ErrInvalidBoolean,
		},
		{
			name: "integer length",
			data: []byte{0x02, 0x00},
			read: func(r *Reader) error { _, err := r.ReadInteger(); return err },
			want: ErrInvalidInteger,
		},
		{
			name: "element crosses container",
			data: []byte{0x30, 0x03, 0x04, 0x05, 'a', 'b', 'c', 'd', 'e'},
			read: func(r *Reader) error {
				if err := r.ReadStartSequence(); err != nil {
					return err
				}
				_, err := r.ReadOctetString()
				return err
			},
			want: ErrContainerOverrun,
		},
		{
			name: "read past container end",
			data: []byte{0x30, 0x00, 0x02, 0x01, 0x01},
			read: func(r *Reader) error {
				if err := r.ReadStartSequence(); err != nil {
					return err
				}
				_, err := r.ReadInteger()
				return err
			},
			want: ErrContainerOverrun,
		},
		{
			name: "end without start",
			data: []byte{0x05, 0x00},
			read: func(r *Reader) error { return r.ReadEndSequence() },
			want: ErrNoContainer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for name, r := range readers(tt.data, tt.opts...) {
				err := tt.read(r)
				require.Error(t, err, name)
				assert.ErrorIs(t, err, tt.want, name)
			}
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	elements := []*Element{
		NewBoolean(true),
		NewBoolean(false),
		NewInteger(0),
		NewInteger(-129),
		NewInteger(65536),
		NewEnumerated(3),
		NewNull(),
		NewOctetString(nil),
		NewOctetString(bytes.Repeat([]byte{1}, 128)),
		NewSequence(),
		NewSequence(NewInteger(1), NewSet(NewOctetString([]byte("x")), NewNull())),
	}
	for _, el := range elements {
		got, err := Decode(encoded(t, el), 0)
		require.NoError(t, err, el.String())
		assert.Equal(t, el, got, el.String())
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	full := encoded(t, NewSequence(NewOctetString(bytes.Repeat([]byte{'v'}, 300))))
	for cut := 0; cut < len(full); cut += 37 {
		_, err := Decode(full[:cut], 0)
		assert.Error(t, err, "cut at %d", cut)
	}

	_, err := Decode(full, 100)
	assert.ErrorIs(t, err, ErrElementTooLarge)

	_, err = Decode(append(full, 0x05, 0x00), 0)
	assert.ErrorIs(t, err, ErrTrailingData)
}

func TestInteropWithASN1BER(t *testing.T) {
	long := string(bytes.Repeat([]byte{'z'}, 300))

	packet := asn1ber.Encode(asn1ber.ClassUniversal, asn1ber.TypeConstructed, asn1ber.TagSequence, nil, "seq")
	packet.AppendChild(asn1ber.NewInteger(asn1ber.ClassUniversal, asn1ber.TypePrimitive, asn1ber.TagInteger, int64(42), "int"))
	packet.AppendChild(asn1ber.NewString(asn1ber.ClassUniversal, asn1ber.TypePrimitive, asn1ber.TagOctetString, "hello", "str"))
	packet.AppendChild(asn1ber.NewInteger(asn1ber.ClassUniversal, asn1ber.TypePrimitive, asn1ber.TagInteger, int64(-129), "neg"))
	packet.AppendChild(asn1ber.NewString(asn1ber.ClassUniversal, asn1ber.TypePrimitive, asn1ber.TagOctetString, long, "long"))

	ours := NewSequence(
		NewInteger(42),
		NewOctetString([]byte("hello")),
		NewInteger(-129),
		NewOctetString([]byte(long)),
	)

	t.Run("same encoding", func(t *testing.T) {
		assert.Equal(t, packet.Bytes(), encoded(t, ours))
	})

	t.Run("they decode ours", func(t *testing.T) {
		p, err := asn1ber.DecodePacketErr(encoded(t, ours))
		require.NoError(t, err)
		require.Len(t, p.Children, 4)
		assert.Equal(t, int64(42), p.Children[0].Value)
		assert.Equal(t, "hello", p.Children[1].Value)
		assert.Equal(t, int64(-129), p.Children[2].Value)
		assert.Equal(t, long, p.Children[3].Value)
	})

	t.Run("we decode theirs", func(t *testing.T) {
		el, err := Decode(packet.Bytes(), 0)
		require.NoError(t, err)
		require.Len(t, el.Children, 4)
		n, err := el.Children[0].Integer()
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
		assert.Equal(t, []byte("hello"), el.Children[1].Value)
	})

	t.Run("boolean", func(t *testing.T) {
		p := asn1ber.NewBoolean(asn1ber.ClassUniversal, asn1ber.TypePrimitive, asn1ber.TagBoolean, true, "b")
		el, err := Decode(p.Bytes(), 0)
		require.NoError(t, err)
		b, err := el.Boolean()
		require.NoError(t, err)
		assert.True(t, b)
	})
}

func TestWriterMatchesElementEncoding(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteStartSequence()
	require.NoError(t, w.WriteInteger(5))
	w.WriteStartSet()
	require.NoError(t, w.WriteOctetString(bytes.Repeat([]byte{'q'}, 200)))
	require.NoError(t, w.WriteEndSet())
	require.NoError(t, w.WriteBoolean(true))
	require.NoError(t, w.WriteEndSequence())
	require.NoError(t, w.Flush())

	want := encoded(t, NewSequence(
		NewInteger(5),
		NewSet(NewOctetString(bytes.Repeat([]byte{'q'}, 200))),
		NewBoolean(true),
	))
	assert.Equal(t, want, buf.Bytes())

	assert.ErrorIs(t, w.WriteEndSequence(), ErrNoContainer)

	w.WriteStartSet()
	assert.ErrorIs(t, w.Flush(), ErrOpenContainer)
}
