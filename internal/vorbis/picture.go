package vorbis

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// ParsePicture decodes a FLAC picture block, as stored in a FLAC PICTURE
// metadata block or base64-encoded in METADATA_BLOCK_PICTURE:
//
//	type(4) mimeLen(4) mime descLen(4) desc width(4) height(4)
//	depth(4) colors(4) dataLen(4) data
//
// All integers are big-endian.
func ParsePicture(data []byte) (types.Artwork, error) {
	offset := 0
	next := func(what string) (uint32, error) {
		if offset+4 > len(data) {
			return 0, fmt.Errorf("picture block truncated at %s", what)
		}
		v := binary.Decode[uint32](data[offset:], binary.BigEndian)
		offset += 4
		return v, nil
	}
	str := func(n uint32, what string) ([]byte, error) {
		if uint64(offset)+uint64(n) > uint64(len(data)) {
			return nil, fmt.Errorf("%s length %d exceeds picture block", what, n)
		}
		b := data[offset : offset+int(n)]
		offset += int(n)
		return b, nil
	}

	pictureType, err := next("picture type")
	if err != nil {
		return types.Artwork{}, err
	}
	mimeLen, err := next("MIME type length")
	if err != nil {
		return types.Artwork{}, err
	}
	mime, err := str(mimeLen, "MIME type")
	if err != nil {
		return types.Artwork{}, err
	}
	descLen, err := next("description length")
	if err != nil {
		return types.Artwork{}, err
	}
	desc, err := str(descLen, "description")
	if err != nil {
		return types.Artwork{}, err
	}
	// Width, height, colour depth and palette size.
	if _, err := str(16, "dimensions"); err != nil {
		return types.Artwork{}, err
	}
	dataLen, err := next("picture data length")
	if err != nil {
		return types.Artwork{}, err
	}
	pic, err := str(dataLen, "picture data")
	if err != nil {
		return types.Artwork{}, err
	}

	artType := types.ArtworkType(pictureType)
	if pictureType > uint32(types.ArtworkPublisherLogotype) {
		artType = types.ArtworkOther
	}
	return types.Artwork{
		MIMEType:    string(mime),
		Description: string(desc),
		Data:        pic,
		Type:        artType,
		Source:      types.FormatVorbis,
	}, nil
}

// EncodePicture serializes art as a FLAC picture block. Dimensions are
// written as zero.
func EncodePicture(art types.Artwork) []byte {
	b := make([]byte, 0, 32+len(art.MIMEType)+len(art.Description)+len(art.Data))
	b = binary.AppendBE(b, uint32(art.Type))
	b = binary.AppendBE(b, uint32(len(art.MIMEType)))
	b = append(b, art.MIMEType...)
	b = binary.AppendBE(b, uint32(len(art.Description)))
	b = append(b, art.Description...)
	b = append(b, make([]byte, 16)...)
	b = binary.AppendBE(b, uint32(len(art.Data)))
	return append(b, art.Data...)
}
