package audiotag

import (
	"bytes"
	"context"
	"io"
	"testing"
)

// BenchmarkRead measures locating and decoding a four-tag chain.
func BenchmarkRead(b *testing.B) {
	data, _ := fullStream(b)
	b.ReportAllocs()

	for b.Loop() {
		f, err := Read(bytes.NewReader(data))
		if err != nil {
			b.Fatal(err)
		}
		if len(f.Tags) != 4 {
			b.Fatalf("got %d tags", len(f.Tags))
		}
	}
}

// BenchmarkOpenMany measures concurrent opening of many files.
func BenchmarkOpenMany(b *testing.B) {
	data, _ := fullStream(b)
	paths := make([]string, 32)
	for i := range paths {
		paths[i] = writeTemp(b, "bench.mp3", data)
	}
	b.ReportAllocs()

	for b.Loop() {
		files, err := OpenMany(context.Background(), paths)
		if err != nil {
			b.Fatal(err)
		}
		for _, f := range files {
			f.Close()
		}
	}
}

// BenchmarkWriteTo measures re-encoding an edited tag and copying the rest.
func BenchmarkWriteTo(b *testing.B) {
	data, _ := fullStream(b)
	f, err := Read(bytes.NewReader(data))
	if err != nil {
		b.Fatal(err)
	}
	if err := f.SetTag(apeTag("Bench")); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()

	for b.Loop() {
		if _, err := f.WriteTo(io.Discard); err != nil {
			b.Fatal(err)
		}
	}
}
