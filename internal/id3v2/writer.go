package id3v2

import (
	"bytes"
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/synchsafe"
	"github.com/simonhull/audiotag/internal/types"
)

type writer struct{}

func (w *writer) Format() types.Format { return types.FormatID3v2 }
func (w *writer) Origin() types.Origin { return types.OriginStart }

func (w *writer) Encode(tag any, opts registry.EncodeOptions) ([]byte, error) {
	t, ok := tag.(*Tag)
	if !ok {
		return nil, fmt.Errorf("id3v2: cannot encode %T", tag)
	}
	return Encode(t, EncodeOptions{Padding: opts.Padding, Unsynchronize: opts.Unsynchronize})
}

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// Padding is the number of zero bytes appended after the frames.
	Padding int
	// Unsynchronize applies the unsynchronisation scheme: to the whole
	// body in ID3v2.3, per frame in ID3v2.4.
	Unsynchronize bool
}

// Encode serializes t as an ID3v2.3 or ID3v2.4 tag. Frames flagged
// FrameCompressed are zlib-compressed; the frame list must satisfy the
// dependency rules.
func Encode(t *Tag, opts EncodeOptions) ([]byte, error) {
	major := t.Major()
	if major != 3 && major != 4 {
		return nil, &types.UnsupportedWriteError{Format: types.FormatID3v2, Reason: fmt.Sprintf("version 2.%d", major)}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var frames bytes.Buffer
	sw := binary.NewSafeWriter(&frames)
	for _, f := range t.frames {
		raw, err := encodeFrame(f, major, opts.Unsynchronize)
		if err != nil {
			return nil, err
		}
		_ = sw.WriteBytes(raw)
	}
	if err := sw.Err(); err != nil {
		return nil, err
	}

	body := frames.Bytes()
	flags := byte(0)
	if opts.Unsynchronize {
		flags |= FlagUnsynchronisation
		if major == 3 {
			body = synchsafe.Unsynchronize(body)
		}
	}

	size := uint64(len(body) + max(opts.Padding, 0))
	if !synchsafe.Fits(size, 4) {
		return nil, fmt.Errorf("id3v2: tag size %d exceeds the 28-bit limit", size)
	}

	var out bytes.Buffer
	ow := binary.NewSafeWriter(&out)
	_ = ow.WriteBytes(headerMagic)
	_ = ow.WriteBytes([]byte{major, 0, flags})
	_ = ow.WriteBytes(synchsafe.Bytes(size, 4))
	_ = ow.WriteBytes(body)
	_ = ow.Pad(opts.Padding)
	if err := ow.Err(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func encodeFrame(f Frame, major byte, unsync bool) ([]byte, error) {
	if !validFrameID(f.ID, major) {
		return nil, &types.MalformedError{
			Format: types.FormatID3v2,
			Reason: fmt.Sprintf("invalid frame ID %q for ID3v2.%d", f.ID, major),
		}
	}

	data := f.Data
	flags := f.Flags &^ (FrameUnsynchronised | FrameDataLength)
	plainLen := len(data)

	if flags&FrameCompressed != 0 && flags&FrameEncrypted == 0 {
		z, err := deflate(data)
		if err != nil {
			return nil, fmt.Errorf("id3v2: compress frame %s: %w", f.ID, err)
		}
		data = z
	}

	var prefix []byte
	switch major {
	case 3:
		if flags&FrameCompressed != 0 {
			prefix = binary.AppendBE(prefix, uint32(plainLen))
		}
		if flags&FrameEncrypted != 0 {
			prefix = append(prefix, f.EncryptionMethod)
		}
		if flags&FrameGrouping != 0 {
			prefix = append(prefix, f.GroupID)
		}
	case 4:
		if flags&FrameGrouping != 0 {
			prefix = append(prefix, f.GroupID)
		}
		if flags&FrameEncrypted != 0 {
			prefix = append(prefix, f.EncryptionMethod)
		}
		if unsync && synchsafe.NeedsUnsynchronization(data) {
			data = synchsafe.Unsynchronize(data)
			flags |= FrameUnsynchronised
		}
		if flags&(FrameCompressed|FrameUnsynchronised) != 0 {
			flags |= FrameDataLength
			prefix = append(prefix, synchsafe.Bytes(uint64(plainLen), 4)...)
		}
	}

	payload := append(prefix, data...)
	size := uint64(len(payload))

	var out bytes.Buffer
	sw := binary.NewSafeWriter(&out)
	_ = sw.WriteString(f.ID)
	if major == 4 {
		if !synchsafe.Fits(size, 4) {
			return nil, fmt.Errorf("id3v2: frame %s size %d exceeds the 28-bit limit", f.ID, size)
		}
		_ = sw.WriteBytes(synchsafe.Bytes(size, 4))
		_ = binary.Write(sw, uint16(flags))
	} else {
		_ = binary.Write(sw, uint32(size))
		_ = binary.Write(sw, flagsToV23(flags))
	}
	_ = sw.WriteBytes(payload)
	return out.Bytes(), sw.Err()
}
