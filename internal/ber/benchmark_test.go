package ber

import (
	"bytes"
	"io"
	"testing"
)

// benchmarkMessage is a search-request sized sequence.
func benchmarkMessage() []byte {
	data, err := NewSequence(
		NewInteger(42),
		NewSequence(
			NewOctetString([]byte("ou=people,dc=example,dc=com")),
			NewEnumerated(2),
			NewEnumerated(0),
			NewInteger(0),
			NewInteger(0),
			NewBoolean(false),
			NewOctetString([]byte("(uid=alice)")),
		),
	).Encode()
	if err != nil {
		panic(err)
	}
	return data
}

// BenchmarkBEREncodeInteger benchmarks integer encoding.
func BenchmarkBEREncodeInteger(b *testing.B) {
	enc := NewBEREncoder(64)
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		enc.Reset()
		_ = enc.WriteInteger(int64(i))
	}
}

// BenchmarkReaderSequence benchmarks walking a message with the streaming
// reader over a byte slice.
func BenchmarkReaderSequence(b *testing.B) {
	data := benchmarkMessage()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		r := NewReader(data)
		if err := r.ReadStartSequence(); err != nil {
			b.Fatal(err)
		}
		if _, err := r.ReadInteger(); err != nil {
			b.Fatal(err)
		}
		if err := r.SkipElement(); err != nil {
			b.Fatal(err)
		}
		if err := r.ReadEndSequence(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkStreamReader benchmarks the io.Reader source.
func BenchmarkStreamReader(b *testing.B) {
	data := benchmarkMessage()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		r := NewStreamReader(bytes.NewReader(data))
		if err := r.SkipElement(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkWriterSequence benchmarks nested container buffering.
func BenchmarkWriterSequence(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := NewWriter(io.Discard)
		w.WriteStartSequence()
		_ = w.WriteInteger(42)
		w.WriteStartSequence()
		_ = w.WriteOctetStringString("ou=people,dc=example,dc=com")
		_ = w.WriteEnumerated(2)
		_ = w.WriteBoolean(false)
		_ = w.WriteEndSequence()
		_ = w.WriteEndSequence()
		if err := w.Flush(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDecodeElement benchmarks decoding a message into an element tree.
func BenchmarkDecodeElement(b *testing.B) {
	data := benchmarkMessage()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := Decode(data, 0); err != nil {
			b.Fatal(err)
		}
	}
}
