package audiotag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/simonhull/audiotag/internal/registry"
)

// Save writes the staged tag edits back to the file's path.
//
// This is an atomic operation: writes to a temporary file first, then renames
// to the original path. If any step fails, the original file remains unchanged.
// On success the File is re-read from the new contents.
//
// Options can be provided to customize save behavior:
//
//	err := file.Save(
//	    audiotag.WithBackup(".bak"),
//	    audiotag.WithValidation(),
//	)
func (f *File) Save(opts ...SaveOption) error {
	if f.Path == "" {
		return errors.New("audiotag: file has no path; use SaveAs")
	}
	return f.SaveAs(f.Path, opts...)
}

// SaveAs writes the stream with the staged tag edits applied to
// outputPath.
//
// Unedited tags and the audio are copied byte for byte. An edited tag is
// re-encoded where its format's writer places it: ID3v2 before the audio;
// APE, Lyrics3 and ID3v1 after it, with ID3v1 last; FLAC comment blocks in
// place. Returns UnsupportedWriteError when an edit cannot be encoded.
func (f *File) SaveAs(outputPath string, opts ...SaveOption) error { //nolint:gocyclo // Atomic file operations require sequential steps
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}
	if f.r == nil {
		return errors.New("audiotag: file not open")
	}

	plan, err := f.layout(options)
	if err != nil {
		return err
	}

	var origInfo os.FileInfo
	if options.preserveModTime {
		if info, err := os.Stat(outputPath); err == nil {
			origInfo = info
		}
	}

	// Create temp file in same directory as output (for atomic rename)
	tempFile, err := os.CreateTemp(filepath.Dir(outputPath), ".audiotag-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()    //nolint:errcheck // Best effort cleanup
			_ = os.Remove(tempPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if err := f.writeSegments(tempFile, plan); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if options.backupSuffix != "" {
		if _, err := os.Stat(outputPath); err == nil {
			if err := os.Rename(outputPath, outputPath+options.backupSuffix); err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
		}
	}
	if err := os.Rename(tempPath, outputPath); err != nil {
		return fmt.Errorf("rename temp to output: %w", err)
	}
	success = true

	if origInfo != nil {
		_ = os.Chtimes(outputPath, origInfo.ModTime(), origInfo.ModTime()) //nolint:errcheck // Non-fatal: file was written successfully
	}

	if options.validate {
		if err := f.validateWrittenFile(outputPath); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	if outputPath == f.Path {
		return f.reload()
	}
	return nil
}

// WriteTo writes the stream with the staged edits applied to w, using
// default save options.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	plan, err := f.layout(defaultSaveOptions())
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: w}
	err = f.writeSegments(cw, plan)
	return cw.n, err
}

// segment is either encoded bytes or a source range to copy.
type segment struct {
	data       []byte
	start, end int64
}

// tailRank orders tags after the audio: ID3v1 last, Lyrics3 directly
// before it.
func tailRank(format Format) int {
	switch format {
	case FormatID3v1:
		return 3
	case FormatLyrics3v2, FormatLyrics3:
		return 2
	case FormatAPE:
		return 1
	}
	return 0
}

// layout plans the output stream.
func (f *File) layout(options *saveOptions) ([]segment, error) { //nolint:gocyclo // One pass per stream region
	audioStart, audioEnd := f.AudioRange()
	encOpts := registry.EncodeOptions{Padding: options.padding, Unsynchronize: options.unsynchronize}

	encode := func(format Format, tag any) ([]byte, error) {
		w := registry.GetWriter(format)
		if w == nil {
			return nil, &UnsupportedWriteError{Format: format, Reason: "no writer registered"}
		}
		return w.Encode(tag, encOpts)
	}

	type placed struct {
		format Format
		seg    segment
	}
	var head, tail []placed
	var inner *TagOffset
	applied := make(map[Format]bool)

	// place emits tag t of a region, keeping the gap before it, and
	// reports a relocated edit.
	place := func(region *[]placed, side Origin, t TagOffset, gapFrom int64) ([]placed, error) {
		var relocated []placed
		if t.Start > gapFrom {
			*region = append(*region, placed{FormatUnknown, segment{start: gapFrom, end: t.Start}})
		}
		e, edited := f.edits[t.Format]
		if !edited {
			*region = append(*region, placed{t.Format, segment{start: t.Start, end: t.End}})
			return nil, nil
		}
		if e.tag == nil || applied[t.Format] {
			return nil, nil
		}
		applied[t.Format] = true
		data, err := encode(t.Format, e.tag)
		if err != nil {
			return nil, err
		}
		p := placed{t.Format, segment{data: data}}
		if registry.GetWriter(t.Format).Origin() != side {
			relocated = append(relocated, p)
		} else {
			*region = append(*region, p)
		}
		return relocated, nil
	}

	var moveToHead, moveToTail []placed
	var pos int64
	for i, t := range f.Tags {
		switch {
		case !t.Format.Appended():
			inner = &f.Tags[i]
		case i < f.prepended:
			moved, err := place(&head, OriginStart, t, pos)
			if err != nil {
				return nil, err
			}
			moveToTail = append(moveToTail, moved...)
			pos = t.End
		}
	}
	pos = audioEnd
	for i, t := range f.Tags {
		if f.appendedAt(i) {
			moved, err := place(&tail, OriginEnd, t, pos)
			if err != nil {
				return nil, err
			}
			moveToHead = append(moveToHead, moved...)
			pos = t.End
		}
	}
	if pos < f.Size {
		tail = append(tail, placed{FormatUnknown, segment{start: pos, end: f.Size}})
	}

	// Edits for formats the stream does not hold yet.
	for _, format := range []Format{FormatID3v2, FormatMusicMatch, FormatAPE, FormatLyrics3v2, FormatLyrics3, FormatID3v1, FormatVorbis} {
		e, ok := f.edits[format]
		if !ok || e.tag == nil || applied[format] {
			continue
		}
		if format == FormatVorbis {
			if inner == nil {
				return nil, &UnsupportedWriteError{Format: format, Reason: "adding a Vorbis comment to a stream without one"}
			}
			continue
		}
		data, err := encode(format, e.tag)
		if err != nil {
			return nil, err
		}
		applied[format] = true
		p := placed{format, segment{data: data}}
		if registry.GetWriter(format).Origin() == OriginStart {
			moveToHead = append(moveToHead, p)
		} else {
			moveToTail = append(moveToTail, p)
		}
	}

	head = append(moveToHead, head...)
	for _, p := range moveToTail {
		i := slices.IndexFunc(tail, func(q placed) bool {
			return q.format != FormatUnknown && tailRank(q.format) > tailRank(p.format)
		})
		if i < 0 {
			i = len(tail)
			// Keep trailing garbage after the tags.
			if i > 0 && tail[i-1].format == FormatUnknown && tail[i-1].seg.data == nil && tail[i-1].seg.end == f.Size && tail[i-1].seg.start > audioEnd {
				i--
			}
		}
		tail = slices.Insert(tail, i, p)
	}

	var plan []segment
	for _, p := range head {
		plan = append(plan, p.seg)
	}

	audio, err := f.audioSegments(inner, audioStart, audioEnd, encode)
	if err != nil {
		return nil, err
	}
	plan = append(plan, audio...)

	for _, p := range tail {
		plan = append(plan, p.seg)
	}
	return plan, nil
}

// audioSegments copies the audio range, splicing an edited container tag.
func (f *File) audioSegments(inner *TagOffset, start, end int64, encode func(Format, any) ([]byte, error)) ([]segment, error) {
	if inner == nil {
		return []segment{{start: start, end: end}}, nil
	}
	e, ok := f.edits[inner.Format]
	if !ok {
		return []segment{{start: start, end: end}}, nil
	}
	if e.tag == nil {
		return nil, &UnsupportedWriteError{Format: inner.Format, Reason: "removing a container tag"}
	}
	data, err := encode(inner.Format, e.tag)
	if err != nil {
		return nil, err
	}
	return []segment{
		{start: start, end: inner.Start},
		{data: data},
		{start: inner.End, end: end},
	}, nil
}

func (f *File) writeSegments(w io.Writer, plan []segment) error {
	for _, s := range plan {
		if s.data != nil {
			if _, err := w.Write(s.data); err != nil {
				return err
			}
			continue
		}
		if s.end <= s.start {
			continue
		}
		if _, err := f.r.Seek(s.start, io.SeekStart); err != nil {
			return fmt.Errorf("seek to %d: %w", s.start, err)
		}
		if _, err := io.CopyN(w, f.r, s.end-s.start); err != nil {
			return fmt.Errorf("copy [%d, %d): %w", s.start, s.end, err)
		}
	}
	return nil
}

// validateWrittenFile re-opens the file and compares the edited tags.
func (f *File) validateWrittenFile(path string) error {
	written, err := open(path, f.options)
	if err != nil {
		return fmt.Errorf("re-open: %w", err)
	}
	defer written.Close() //nolint:errcheck // Best effort close

	for format, e := range f.edits {
		got, found := written.Find(format)
		if e.tag == nil {
			if found {
				return fmt.Errorf("%s tag still present", format)
			}
			continue
		}
		if !found {
			return fmt.Errorf("%s tag missing", format)
		}
		want := FieldsOf(e.tag)
		have := FieldsOf(got.Tag)
		if want == nil {
			continue
		}
		if have == nil {
			have = &Tags{}
		}
		for key, values := range want.All() {
			if !slices.Equal(have.Get(key), values) {
				return fmt.Errorf("%s %s mismatch: got %q, want %q", format, key, have.Get(key), values)
			}
		}
	}
	return nil
}

// reload re-reads the file after it was replaced on disk.
func (f *File) reload() error {
	_ = f.Close() //nolint:errcheck // The old handle refers to the replaced file
	fresh, err := open(f.Path, f.options)
	if err != nil {
		return fmt.Errorf("re-read: %w", err)
	}
	*f = *fresh
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
