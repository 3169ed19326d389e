package audiotag

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
)

// File is a stream with its located tags.
//
// Tags lists every tag found, in stream order. Edits made with SetTag and
// RemoveTag are applied by Save and SaveAs; until then Tags still
// describes the stream as read.
//
// Always call Close() when done to release file resources:
//
//	file, err := audiotag.Open("song.mp3")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
type File struct {
	// Path to the file; empty for streams passed to Read
	Path string

	// Stream length in bytes
	Size int64

	// Located tags in stream order
	Tags []TagOffset

	// Warnings encountered during parsing (non-fatal issues)
	Warnings []Warning

	r         io.ReadSeeker
	options   *openOptions
	edits     map[Format]edit
	prepended int // leading Tags before the audio
}

// edit is a pending change to one format; a nil tag removes it.
type edit struct {
	tag any
}

// Read locates and decodes every tag in r.
//
// Damaged tags are skipped or partially decoded and reported in
// File.Warnings unless WithStrictParsing is given. The returned File keeps
// r for SaveAs; Close closes r when it is an io.Closer.
func Read(r io.ReadSeeker, opts ...Option) (*File, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return read(r, "", options)
}

func read(r io.ReadSeeker, path string, options *openOptions) (*File, error) {
	c, err := binary.NewCursor(r, path)
	if err != nil {
		return nil, err
	}

	ro := options.readOptions()
	tags, prepended, err := locate(c, ro)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}

	f := &File{
		Path:      path,
		Size:      c.Length(),
		Tags:      tags,
		Warnings:  ro.Warnings,
		r:         r,
		options:   options,
		prepended: prepended,
	}
	if options.ignoreWarnings {
		f.Warnings = nil
	}
	return f, nil
}

// Open opens a file and reads its tags.
//
// Example:
//
//	file, err := audiotag.Open("song.mp3")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
//	fmt.Println(file.Fields().GetBest("Title", "TIT2"))
func Open(path string, opts ...Option) (*File, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return open(path, options)
}

func open(path string, options *openOptions) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	file, err := read(fh, path, options)
	if err != nil {
		_ = fh.Close() //nolint:errcheck // Already returning an error
		return nil, err
	}
	return file, nil
}

// OpenContext opens a file with context support for cancellation.
//
// The context is checked before any I/O starts.
func OpenContext(ctx context.Context, path string, opts ...Option) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// OpenMany opens multiple files concurrently.
//
// Files are parsed in parallel using up to runtime.NumCPU() goroutines,
// each with its own handle. Results are returned in the same order as the
// input paths.
//
// If any file fails to open, all successfully opened files are closed
// and an error is returned.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	files, err := audiotag.OpenMany(ctx, paths)
//	if err != nil {
//		log.Fatal(err)
//	}
func OpenMany(ctx context.Context, paths []string, opts ...Option) ([]*File, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*File, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, err := Open(path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, file := range results {
			if file != nil {
				_ = file.Close() //nolint:errcheck // Already returning an error
			}
		}
		return nil, err
	}
	return results, nil
}

// Close releases resources held by the file.
func (f *File) Close() error {
	if closer, ok := f.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Find returns the first located tag of format.
func (f *File) Find(format Format) (TagOffset, bool) {
	for _, t := range f.Tags {
		if t.Format == format {
			return t, true
		}
	}
	return TagOffset{}, false
}

// AudioRange returns the byte range between the tags prepended to the
// stream and the tags appended to it. Container tags such as a FLAC
// VORBIS_COMMENT block lie inside this range.
func (f *File) AudioRange() (start, end int64) {
	start, end = 0, f.Size
	if f.prepended > 0 {
		start = f.Tags[f.prepended-1].End
	}
	for _, t := range f.Tags[f.prepended:] {
		if t.Format.Appended() {
			end = t.Start
			break
		}
	}
	return start, end
}

// appendedAt reports whether Tags[i] lies after the audio.
func (f *File) appendedAt(i int) bool {
	return i >= f.prepended && f.Tags[i].Format.Appended()
}

// SetTag stages tag to replace the tag of its format, or to be added when
// the file has none. tag must be one of the format tag types (*APETag,
// *ID3v1Tag, *ID3v2Tag, *Lyrics3Tag, *FLACTag). The change is written by
// Save or SaveAs.
func (f *File) SetTag(tag any) error {
	format := formatOf(tag)
	if format == FormatUnknown {
		return fmt.Errorf("audiotag: unsupported tag type %T", tag)
	}
	if registry.GetWriter(format) == nil {
		return &UnsupportedWriteError{Format: format, Reason: "no writer registered"}
	}
	f.stage(format, edit{tag: tag})

	// A stream carries one Lyrics3 block; the new one replaces either kind.
	if other, ok := lyricsSibling(format); ok {
		if _, staged := f.edits[other]; !staged {
			f.stage(other, edit{})
		}
	}
	return nil
}

func lyricsSibling(format Format) (Format, bool) {
	switch format {
	case FormatLyrics3:
		return FormatLyrics3v2, true
	case FormatLyrics3v2:
		return FormatLyrics3, true
	}
	return FormatUnknown, false
}

// RemoveTag stages the removal of every tag of format.
func (f *File) RemoveTag(format Format) {
	f.stage(format, edit{})
}

func (f *File) stage(format Format, e edit) {
	if f.edits == nil {
		f.edits = make(map[Format]edit)
	}
	f.edits[format] = e
}

// formatOf maps a tag value to its format.
func formatOf(tag any) Format {
	switch t := tag.(type) {
	case *APETag:
		return FormatAPE
	case *ID3v1Tag:
		return FormatID3v1
	case *ID3v2Tag:
		return FormatID3v2
	case *Lyrics3Tag:
		if t.Version == 1 {
			return FormatLyrics3
		}
		return FormatLyrics3v2
	case *MusicMatchTag:
		return FormatMusicMatch
	case *FLACTag, *OggTag:
		return FormatVorbis
	}
	return FormatUnknown
}
