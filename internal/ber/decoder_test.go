package ber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBERDecoderPrimitives(t *testing.T) {
	enc := NewBEREncoder(0)
	require.NoError(t, enc.WriteBoolean(true))
	require.NoError(t, enc.WriteInteger(-300))
	require.NoError(t, enc.WriteEnumerated(2))
	require.NoError(t, enc.WriteOctetString([]byte("dc=example,dc=com")))
	require.NoError(t, enc.WriteNull())
	require.NoError(t, enc.WriteTaggedValue(7, false, []byte("cn")))

	d := NewBERDecoder(enc.Bytes())

	b, err := d.ReadBoolean()
	require.NoError(t, err)
	assert.True(t, b)

	i, err := d.ReadInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(-300), i)

	e, err := d.ReadEnumerated()
	require.NoError(t, err)
	assert.Equal(t, int64(2), e)

	s, err := d.ReadOctetString()
	require.NoError(t, err)
	assert.Equal(t, "dc=example,dc=com", string(s))

	require.NoError(t, d.ReadNull())

	num, constructed, v, err := d.ReadTaggedValue()
	require.NoError(t, err)
	assert.Equal(t, 7, num)
	assert.False(t, constructed)
	assert.Equal(t, []byte("cn"), v)

	assert.Equal(t, 0, d.Remaining())
}

func TestBERDecoderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(d *BERDecoder) error
		want error
	}{
		{
			name: "empty input",
			data: nil,
			read: func(d *BERDecoder) error { _, err := d.ReadInteger(); return err },
			want: ErrTruncatedType,
		},
		{
			name: "missing length",
			data: []byte{0x02},
			read: func(d *BERDecoder) error { _, err := d.ReadInteger(); return err },
			want: ErrTruncatedLength,
		},
		{
			name: "truncated long length",
			data: []byte{0x04, 0x82, 0x01},
			read: func(d *BERDecoder) error { _, err := d.ReadOctetString(); return err },
			want: ErrTruncatedLength,
		},
		{
			name: "five length octets",
			data: []byte{0x04, 0x85, 0, 0, 0, 0, 1, 'a'},
			read: func(d *BERDecoder) error { _, err := d.ReadOctetString(); return err },
			want: ErrInvalidLength,
		},
		{
			name: "indefinite length",
			data: []byte{0x30, 0x80, 0x00, 0x00},
			read: func(d *BERDecoder) error { _, err := d.ExpectSequence(); return err },
			want: ErrIndefiniteLength,
		},
		{
			name: "value shorter than length",
			data: []byte{0x04, 0x05, 'a', 'b'},
			read: func(d *BERDecoder) error { _, err := d.ReadOctetString(); return err },
			want: ErrValueLength,
		},
		{
			name: "boolean with two octets",
			data: []byte{0x01, 0x02, 0x00, 0x00},
			read: func(d *BERDecoder) error { _, err := d.ReadBoolean(); return err },
			want: ErrInvalidBoolean,
		},
		{
			name: "integer with nine octets",
			data: []byte{0x02, 0x09, 1, 2, 3, 4, 5, 6, 7, 8, 9},
			read: func(d *BERDecoder) error { _, err := d.ReadInteger(); return err },
			want: ErrInvalidInteger,
		},
		{
			name: "empty integer",
			data: []byte{0x02, 0x00},
			read: func(d *BERDecoder) error { _, err := d.ReadInteger(); return err },
			want: ErrInvalidInteger,
		},
		{
			name: "null with content",
			data: []byte{0x05, 0x01, 0x00},
			read: func(d *BERDecoder) error { return d.ReadNull() },
			want: ErrInvalidNull,
		},
		{
			name: "tag mismatch",
			data: []byte{0x04, 0x01, 0x00},
			read: func(d *BERDecoder) error { _, err := d.ReadInteger(); return err },
			want: ErrTagMismatch,
		},
		{
			name: "tagged value with universal class",
			data: []byte{0x04, 0x00},
			read: func(d *BERDecoder) error { _, _, _, err := d.ReadTaggedValue(); return err },
			want: ErrTagMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewBERDecoder(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBERDecoderSkipAndPeek(t *testing.T) {
	enc := NewBEREncoder(0)
	pos := enc.BeginSequence()
	require.NoError(t, enc.WriteOctetString([]byte("skipped")))
	require.NoError(t, enc.EndSequence(pos))
	require.NoError(t, enc.WriteInteger(9))

	d := NewBERDecoder(enc.Bytes())
	class, constructed, number, err := d.PeekTag()
	require.NoError(t, err)
	assert.Equal(t, ClassUniversal, class)
	assert.Equal(t, TypeConstructed, constructed)
	assert.Equal(t, TagSequence, number)
	assert.Equal(t, 0, d.Offset())

	require.NoError(t, d.Skip())
	v, err := d.ReadInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(9), v)
}
