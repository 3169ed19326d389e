// Package registry manages format-specific tag readers and writers.
package registry

import (
	"cmp"
	"slices"
	"sync"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// TagReader locates and parses one tag format from one origin.
type TagReader interface {
	// Format returns the tag format this reader produces.
	Format() types.Format

	// Origin returns the side of the anchor the reader scans.
	Origin() types.Origin

	// Read looks for a tag adjacent to anchor. A missing tag is reported
	// as found == false with a nil error.
	Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (offset types.TagOffset, found bool, err error)
}

// TagWriter encodes a tag value of one format.
type TagWriter interface {
	// Format returns the tag format this writer encodes.
	Format() types.Format

	// Origin returns where the encoded tag belongs relative to the audio.
	Origin() types.Origin

	// Encode serializes tag, which must be the format's tag type.
	Encode(tag any, opts EncodeOptions) ([]byte, error)
}

// EncodeOptions carries writer settings that apply across formats.
type EncodeOptions struct {
	Padding       int
	Unsynchronize bool
}

type readerKey struct {
	origin types.Origin
	format types.Format
}

var (
	mu      sync.RWMutex
	readers = make(map[readerKey]TagReader)
	writers = make(map[types.Format]TagWriter)
)

// Register registers a reader for its format and origin.
// This is called by format packages during initialization (init functions).
func Register(r TagReader) {
	mu.Lock()
	defer mu.Unlock()
	readers[readerKey{origin: r.Origin(), format: r.Format()}] = r
}

// Get returns the reader for a format and origin, or nil.
func Get(format types.Format, origin types.Origin) TagReader {
	mu.RLock()
	defer mu.RUnlock()
	return readers[readerKey{origin: origin, format: format}]
}

// Readers returns the readers for origin ordered by format priority.
func Readers(origin types.Origin) []TagReader {
	mu.RLock()
	defer mu.RUnlock()

	var out []TagReader
	for key, r := range readers {
		if key.origin == origin {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b TagReader) int {
		return cmp.Compare(a.Format(), b.Format())
	})
	return out
}

// RegisterWriter registers a writer for a format.
// This is called by format packages during initialization (init functions).
func RegisterWriter(w TagWriter) {
	mu.Lock()
	defer mu.Unlock()
	writers[w.Format()] = w
}

// GetWriter returns the writer for a given format.
// Returns nil if no writer is registered for the format.
func GetWriter(format types.Format) TagWriter {
	mu.RLock()
	defer mu.RUnlock()
	return writers[format]
}
