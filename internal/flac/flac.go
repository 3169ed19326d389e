// Package flac walks FLAC metadata blocks to locate the VORBIS_COMMENT
// block and the PICTURE blocks.
package flac

import (
	"fmt"
	"slices"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

// Magic starts every FLAC stream.
const Magic = "fLaC"

// Metadata block types
const (
	BlockStreamInfo    = 0
	BlockPadding       = 1
	BlockApplication   = 2
	BlockSeekTable     = 3
	BlockVorbisComment = 4
	BlockCueSheet      = 5
	BlockPicture       = 6
	blockInvalid       = 127

	blockHeaderSize = 4
	maxBlockLength  = 1<<24 - 1
)

// Block is a metadata block header.
type Block struct {
	// Offset is the stream position of the 4-byte block header.
	Offset int64
	Length int64
	Type   byte
	Last   bool
}

// End returns the offset just past the block data.
func (b Block) End() int64 {
	return b.Offset + blockHeaderSize + b.Length
}

// Tag is the Vorbis comment of a FLAC stream together with its PICTURE
// blocks.
type Tag struct {
	*vorbis.Comment
	Pictures []types.Artwork
	// Last reports whether the comment block ends the metadata.
	Last bool
}

// Artwork returns the PICTURE blocks followed by pictures stored in the
// comment.
func (t *Tag) Artwork() []types.Artwork {
	return append(slices.Clone(t.Pictures), t.Comment.Artwork()...)
}

// Blocks returns the metadata block headers of a FLAC stream starting at
// anchor. found is false when anchor does not hold the FLAC magic.
func Blocks(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (blocks []Block, found bool, err error) {
	magic := make([]byte, len(Magic))
	if c.ReadAt(magic, anchor, "FLAC magic") != nil || string(magic) != Magic {
		return nil, false, nil
	}

	offset := anchor + int64(len(Magic))
	for offset < c.Length() {
		header, err := binary.ReadBE[uint32](c, offset, "metadata block header")
		if err != nil {
			return blocks, true, opts.Fail("blocks", offset, err)
		}
		b := Block{
			Offset: offset,
			Type:   byte(header>>24) & 0x7F,
			Last:   header>>31 == 1,
			Length: int64(header & maxBlockLength),
		}
		if b.Type == blockInvalid {
			merr := &types.MalformedError{Path: c.Path(), Format: types.FormatVorbis, Offset: offset, Reason: "invalid metadata block type"}
			return blocks, true, opts.Fail("blocks", offset, merr)
		}
		if b.End() > c.Length() {
			terr := &types.TruncatedError{Path: c.Path(), What: "FLAC metadata block", Offset: offset, Length: int(b.Length) + blockHeaderSize, Size: c.Length()}
			return blocks, true, opts.Fail("blocks", offset, terr)
		}
		blocks = append(blocks, b)
		if b.Last {
			break
		}
		offset = b.End()
	}
	return blocks, true, nil
}

// Read locates the VORBIS_COMMENT block of a FLAC stream starting at
// anchor. The returned range covers that block including its header.
func Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	blocks, ok, err := Blocks(c, anchor, opts)
	if err != nil || !ok {
		return types.TagOffset{}, false, err
	}

	var (
		comment *Block
		tag     = &Tag{}
	)
	for i, b := range blocks {
		switch b.Type {
		case BlockVorbisComment:
			if comment != nil {
				opts.Warn("blocks", b.Offset, "extra VORBIS_COMMENT block ignored")
				continue
			}
			comment = &blocks[i]
		case BlockPicture:
			data, err := readBlock(c, b, opts)
			if err != nil {
				opts.Warn("blocks", b.Offset, "PICTURE block: %v", err)
				continue
			}
			art, err := vorbis.ParsePicture(data)
			if err != nil {
				opts.Warn("blocks", b.Offset, "PICTURE block: %v", err)
				continue
			}
			tag.Pictures = append(tag.Pictures, art)
		}
	}
	if comment == nil {
		return types.TagOffset{}, false, nil
	}

	data, err := readBlock(c, *comment, opts)
	if err != nil {
		return types.TagOffset{}, false, opts.Fail("blocks", comment.Offset, err)
	}
	vc, err := vorbis.Parse(data, c.Path(), comment.Offset+blockHeaderSize, opts)
	if err != nil {
		return types.TagOffset{}, false, err
	}
	tag.Comment = vc
	tag.Last = comment.Last

	return types.TagOffset{
		Tag:    tag,
		Origin: types.OriginStart,
		Format: types.FormatVorbis,
		Start:  comment.Offset,
		End:    comment.End(),
	}, true, nil
}

func readBlock(c *binary.Cursor, b Block, opts *types.ReadOptions) ([]byte, error) {
	if b.Length > opts.Cap() {
		return nil, &types.MalformedError{
			Path:   c.Path(),
			Format: types.FormatVorbis,
			Offset: b.Offset,
			Reason: fmt.Sprintf("block length %d exceeds limit %d", b.Length, opts.Cap()),
		}
	}
	data := make([]byte, b.Length)
	if err := c.ReadAt(data, b.Offset+blockHeaderSize, "FLAC metadata block"); err != nil {
		return nil, err
	}
	return data, nil
}

// EncodeBlock serializes t as a VORBIS_COMMENT metadata block, keeping
// its last-block flag.
func EncodeBlock(t *Tag) ([]byte, error) {
	data, err := vorbis.Encode(t.Comment, false)
	if err != nil {
		return nil, err
	}
	if len(data) > maxBlockLength {
		return nil, fmt.Errorf("flac: comment block is %d bytes, limit %d", len(data), maxBlockLength)
	}
	header := uint32(BlockVorbisComment)<<24 | uint32(len(data))
	if t.Last {
		header |= 1 << 31
	}
	return append(binary.AppendBE(make([]byte, 0, blockHeaderSize+len(data)), header), data...), nil
}
