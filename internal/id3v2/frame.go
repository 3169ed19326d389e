package id3v2

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/synchsafe"
	"github.com/simonhull/audiotag/internal/types"
)

// FrameFlags are frame status and format flags in the ID3v2.4 bit layout.
// ID3v2.3 flags are translated on read and write.
type FrameFlags uint16

// Frame flags.
const (
	FrameTagAlterPreserve  FrameFlags = 0x4000
	FrameFileAlterPreserve FrameFlags = 0x2000
	FrameReadOnly          FrameFlags = 0x1000
	FrameGrouping          FrameFlags = 0x0040
	FrameCompressed        FrameFlags = 0x0008
	FrameEncrypted         FrameFlags = 0x0004
	FrameUnsynchronised    FrameFlags = 0x0002
	FrameDataLength        FrameFlags = 0x0001

	frameFlags24 = 0x7000 | 0x004F
	frameFlags23 = 0xE000 | 0x00E0
)

// v23Flags maps ID3v2.3 flag bits to their ID3v2.4 equivalents.
var v23Flags = [...]struct{ v23, v24 uint16 }{
	{0x8000, uint16(FrameTagAlterPreserve)},
	{0x4000, uint16(FrameFileAlterPreserve)},
	{0x2000, uint16(FrameReadOnly)},
	{0x0080, uint16(FrameCompressed)},
	{0x0040, uint16(FrameEncrypted)},
	{0x0020, uint16(FrameGrouping)},
}

func flagsFromV23(raw uint16) FrameFlags {
	var f FrameFlags
	for _, m := range v23Flags {
		if raw&m.v23 != 0 {
			f |= FrameFlags(m.v24)
		}
	}
	return f
}

func flagsToV23(f FrameFlags) uint16 {
	var raw uint16
	for _, m := range v23Flags {
		if uint16(f)&m.v24 != 0 {
			raw |= m.v23
		}
	}
	return raw
}

// Frame is one decoded frame. Data is the payload after removal of
// unsynchronisation and compression.
type Frame struct {
	ID   string
	Data []byte
	// Flags keeps the status flags plus FrameGrouping and FrameEncrypted;
	// the transport flags are consumed while decoding.
	Flags            FrameFlags
	GroupID          byte
	EncryptionMethod byte
}

func (f Frame) String() string {
	return fmt.Sprintf("%s (%d bytes)", f.ID, len(f.Data))
}

// frameHeaderSize returns the frame header length for major.
func frameHeaderSize(major byte) int {
	if major == 2 {
		return 6
	}
	return 10
}

// frameReader walks the frames of one decoded tag body.
type frameReader struct {
	opts  *types.ReadOptions
	path  string
	body  []byte
	base  int64
	major byte
	// unsyncAll is set for v2.4 tags whose header declares every frame
	// unsynchronised.
	unsyncAll bool
}

// next decodes the frame at pos. done is true at padding or at the end of
// the body.
func (fr *frameReader) next(pos int) (f Frame, end int, done bool, err error) {
	hs := frameHeaderSize(fr.major)
	if pos+hs > len(fr.body) || fr.body[pos] == 0 {
		return Frame{}, pos, true, nil
	}

	hdr := fr.body[pos : pos+hs]
	idLen := 4
	if fr.major == 2 {
		idLen = 3
	}
	id := string(hdr[:idLen])
	if !validFrameID(id, fr.major) {
		return Frame{}, pos, true, fr.malformed(pos, "invalid frame ID %q", id)
	}

	var size int
	var rawFlags uint16
	switch fr.major {
	case 2:
		size = int(hdr[3])<<16 | int(hdr[4])<<8 | int(hdr[5])
	case 3:
		size = int(binary.Decode[uint32](hdr[4:], binary.BigEndian))
		rawFlags = binary.Decode[uint16](hdr[8:], binary.BigEndian)
	default:
		size = fr.frameSize24(pos, id, hdr[4:8])
		rawFlags = binary.Decode[uint16](hdr[8:], binary.BigEndian)
	}

	start := pos + hs
	end = start + size
	if size > len(fr.body)-start {
		terr := &types.TruncatedError{
			Path:   fr.path,
			What:   fmt.Sprintf("frame %s", id),
			Offset: fr.base + int64(start),
			Length: size,
			Size:   fr.base + int64(len(fr.body)),
		}
		if ferr := fr.opts.Fail("frames", fr.base+int64(pos), terr); ferr != nil {
			return Frame{}, pos, true, ferr
		}
		end = len(fr.body)
	}

	f, err = fr.decodePayload(pos, id, rawFlags, fr.body[start:end])
	return f, end, false, err
}

// frameSize24 decodes a v2.4 frame size. Some encoders write plain
// big-endian sizes; the big-endian reading is used when only it lands on
// another frame, padding or the end of the body.
func (fr *frameReader) frameSize24(pos int, id string, raw []byte) int {
	plain := int(binary.Decode[uint32](raw, binary.BigEndian))
	if !synchsafe.Valid(raw) {
		fr.opts.Warn("frames", fr.base+int64(pos), "frame %s size is not synchsafe", id)
		return plain
	}
	safe := int(synchsafe.DecodeBytes(raw))
	if safe == plain || fr.landsOnFrame(pos+HeaderSize+safe) {
		return safe
	}
	if fr.landsOnFrame(pos + HeaderSize + plain) {
		fr.opts.Warn("frames", fr.base+int64(pos), "frame %s size is not synchsafe", id)
		return plain
	}
	return safe
}

func (fr *frameReader) landsOnFrame(at int) bool {
	switch {
	case at == len(fr.body):
		return true
	case at > len(fr.body):
		return false
	case fr.body[at] == 0:
		return true
	case at+4 <= len(fr.body):
		return validFrameID(string(fr.body[at:at+4]), 4)
	}
	return false
}

func (fr *frameReader) decodePayload(pos int, id string, rawFlags uint16, data []byte) (Frame, error) {
	f := Frame{ID: id}
	var flags FrameFlags
	switch fr.major {
	case 3:
		if rawFlags&^frameFlags23 != 0 {
			fr.opts.Warn("frames", fr.base+int64(pos), "frame %s has undefined flags %#04x", id, rawFlags)
		}
		flags = flagsFromV23(rawFlags)
	case 4:
		if rawFlags&^frameFlags24 != 0 {
			fr.opts.Warn("frames", fr.base+int64(pos), "frame %s has undefined flags %#04x", id, rawFlags)
		}
		flags = FrameFlags(rawFlags)
		if fr.unsyncAll {
			flags |= FrameUnsynchronised
		}
	}

	take := func(n int, what string) ([]byte, error) {
		if len(data) < n {
			return nil, fr.malformed(pos, "frame %s too short for %s", id, what)
		}
		b := data[:n]
		data = data[n:]
		return b, nil
	}

	var decompressedSize int
	if fr.major == 3 && flags&FrameCompressed != 0 {
		b, err := take(4, "decompressed size")
		if err != nil {
			return f, err
		}
		decompressedSize = int(binary.Decode[uint32](b, binary.BigEndian))
	}
	// v2.3 stores the encryption byte before the group byte; v2.4 the
	// reverse.
	if fr.major == 3 && flags&FrameEncrypted != 0 {
		b, err := take(1, "encryption method")
		if err != nil {
			return f, err
		}
		f.EncryptionMethod = b[0]
	}
	if flags&FrameGrouping != 0 {
		b, err := take(1, "group ID")
		if err != nil {
			return f, err
		}
		f.GroupID = b[0]
	}
	if fr.major == 4 && flags&FrameEncrypted != 0 {
		b, err := take(1, "encryption method")
		if err != nil {
			return f, err
		}
		f.EncryptionMethod = b[0]
	}
	if fr.major == 4 && flags&FrameDataLength != 0 {
		b, err := take(4, "data length indicator")
		if err != nil {
			return f, err
		}
		decompressedSize = int(synchsafe.DecodeBytes(b))
	}

	if flags&FrameUnsynchronised != 0 {
		data = synchsafe.Resynchronize(data)
	}

	if flags&FrameCompressed != 0 && flags&FrameEncrypted == 0 {
		inflated, err := inflate(data, decompressedSize, fr.opts.Cap())
		if err != nil {
			return f, fr.malformed(pos, "frame %s: %v", id, err)
		}
		data = inflated
		flags &^= FrameCompressed
	}

	f.Flags = flags &^ (FrameUnsynchronised | FrameDataLength)
	f.Data = bytes.Clone(data)
	return f, nil
}

func (fr *frameReader) malformed(pos int, format string, args ...any) error {
	return &types.MalformedError{
		Path:   fr.path,
		Format: types.FormatID3v2,
		Offset: fr.base + int64(pos),
		Reason: fmt.Sprintf(format, args...),
	}
}

// inflate decompresses a zlib frame payload of at most limit bytes.
// sizeHint is the declared decompressed size, or 0.
func inflate(data []byte, sizeHint int, limit int64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out bytes.Buffer
	if sizeHint > 0 && int64(sizeHint) <= limit {
		out.Grow(sizeHint)
	}
	if _, err := io.Copy(&out, io.LimitReader(zr, limit+1)); err != nil {
		return nil, err
	}
	if int64(out.Len()) > limit {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", limit)
	}
	return out.Bytes(), nil
}

// deflate compresses a frame payload.
func deflate(data []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
