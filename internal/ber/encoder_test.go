package ber

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeInteger(t *testing.T) {
	tests := []struct {
		value int64
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x00, 0x80}},
		{256, []byte{0x01, 0x00}},
		{-1, []byte{0xFF}},
		{-128, []byte{0x80}},
		{-129, []byte{0xFF, 0x7F}},
		{1<<63 - 1, []byte{0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{-1 << 63, []byte{0x80, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		got := encodeInteger(tt.value)
		assert.Equal(t, tt.want, got, "encodeInteger(%d)", tt.value)

		back, err := decodeInteger(got)
		require.NoError(t, err)
		assert.Equal(t, tt.value, back)
	}
}

func TestWriteLength(t *testing.T) {
	tests := []struct {
		length int
		want   []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x81, 0x80}},
		{255, []byte{0x81, 0xFF}},
		{256, []byte{0x82, 0x01, 0x00}},
		{65536, []byte{0x83, 0x01, 0x00, 0x00}},
	}
	for _, tt := range tests {
		enc := NewBEREncoder(0)
		require.NoError(t, enc.WriteLength(tt.length))
		assert.Equal(t, tt.want, enc.Bytes(), "length %d", tt.length)
	}

	t.Run("negative", func(t *testing.T) {
		enc := NewBEREncoder(0)
		assert.ErrorIs(t, enc.WriteLength(-1), ErrNegativeLength)
	})
}

func TestWriteTag(t *testing.T) {
	enc := NewBEREncoder(0)
	require.NoError(t, enc.WriteTag(ClassContextSpecific, TypeConstructed, 3))
	require.NoError(t, enc.WriteTag(ClassApplication, TypePrimitive, 31))
	require.NoError(t, enc.WriteTag(ClassUniversal, TypePrimitive, 200))
	assert.Equal(t, []byte{0xA3, 0x5F, 0x1F, 0x1F, 0x81, 0x48}, enc.Bytes())

	assert.ErrorIs(t, enc.WriteTag(0x13, TypePrimitive, 1), ErrInvalidTagClass)
	assert.ErrorIs(t, enc.WriteTag(ClassUniversal, TypePrimitive, -1), ErrInvalidTagNumber)
}

func TestConstructed(t *testing.T) {
	t.Run("empty sequence", func(t *testing.T) {
		enc := NewBEREncoder(0)
		pos := enc.BeginSequence()
		require.NoError(t, enc.EndSequence(pos))
		assert.Equal(t, []byte{0x30, 0x00}, enc.Bytes())
	})

	t.Run("sequence with integer", func(t *testing.T) {
		enc := NewBEREncoder(0)
		pos := enc.BeginSequence()
		require.NoError(t, enc.WriteInteger(42))
		require.NoError(t, enc.EndSequence(pos))
		assert.Equal(t, []byte{0x30, 0x03, 0x02, 0x01, 0x2A}, enc.Bytes())
	})

	t.Run("long form length is back-patched", func(t *testing.T) {
		payload := bytes.Repeat([]byte{'x'}, 300)
		enc := NewBEREncoder(0)
		outer := enc.BeginSet()
		inner := enc.BeginSequence()
		require.NoError(t, enc.WriteOctetString(payload))
		require.NoError(t, enc.EndSequence(inner))
		require.NoError(t, enc.EndSet(outer))

		out := enc.Bytes()
		assert.Equal(t, []byte{0x31, 0x82, 0x01, 0x34, 0x30, 0x82, 0x01, 0x30, 0x04, 0x82, 0x01, 0x2C}, out[:12])
		assert.Equal(t, payload, out[12:])
	})

	t.Run("context tag", func(t *testing.T) {
		enc := NewBEREncoder(0)
		pos := enc.BeginContextTag(0)
		require.NoError(t, enc.WriteBoolean(true))
		require.NoError(t, enc.EndContextTag(pos))
		assert.Equal(t, []byte{0xA0, 0x03, 0x01, 0x01, 0xFF}, enc.Bytes())
	})

	t.Run("bad position", func(t *testing.T) {
		enc := NewBEREncoder(0)
		assert.ErrorIs(t, enc.EndSequence(5), ErrInvalidLength)
	})
}

func TestElementEncode(t *testing.T) {
	data, err := NewSequence(NewOctetString(bytes.Repeat([]byte{'x'}, 300)), NewNull()).Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x82, 0x01, 0x32, 0x04, 0x82, 0x01, 0x2C}, data[:8])
	assert.Equal(t, []byte{0x05, 0x00}, data[len(data)-2:])

	// A length past four octets cannot be written, so neither can the
	// element that holds it.
	_, err = appendLength(nil, 1<<32)
	assert.ErrorIs(t, err, ErrLengthOverflow)
}
