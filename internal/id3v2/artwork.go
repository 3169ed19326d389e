package id3v2

import (
	"bytes"
	"errors"
	"strings"

	"github.com/simonhull/audiotag/internal/types"
)

var (
	errPictureTooShort    = errors.New("picture frame too short")
	errPictureNoMIMETerm  = errors.New("picture MIME type not null-terminated")
	errPictureNoDescTerm  = errors.New("picture description not terminated")
	errPictureNoImageData = errors.New("picture frame has no image data")
)

// pictureFormats maps ID3v2.2 PIC image formats to MIME types.
var pictureFormats = map[string]string{
	"JPG": "image/jpeg",
	"PNG": "image/png",
	"GIF": "image/gif",
	"BMP": "image/bmp",
}

// parsePicture decodes an APIC payload or, for ID3v2.2, a PIC payload.
//
//	APIC: encoding, MIME type 0x00, picture type, description, data
//	PIC:  encoding, format(3), picture type, description, data
func parsePicture(data []byte, major byte) (types.Artwork, error) {
	if len(data) < 2 {
		return types.Artwork{}, errPictureTooShort
	}
	enc := data[0]
	rest := data[1:]

	var mime string
	if major == 2 {
		if len(rest) < 4 {
			return types.Artwork{}, errPictureTooShort
		}
		format := strings.ToUpper(string(rest[:3]))
		mime = pictureFormats[format]
		if mime == "" {
			mime = types.MIMEFromExtension(strings.ToLower(format))
		}
		rest = rest[3:]
	} else {
		m, tail, ok := bytes.Cut(rest, []byte{0})
		if !ok {
			return types.Artwork{}, errPictureNoMIMETerm
		}
		mime = string(m)
		rest = tail
	}

	if len(rest) < 1 {
		return types.Artwork{}, errPictureTooShort
	}
	picType := types.ArtworkType(rest[0])
	desc, img, ok := cutTerminated(rest[1:], enc)
	if !ok {
		return types.Artwork{}, errPictureNoDescTerm
	}
	if len(img) == 0 {
		return types.Artwork{}, errPictureNoImageData
	}

	if mime == "" || !strings.Contains(mime, "/") {
		mime = sniffMIME(img)
	}
	return types.Artwork{
		MIMEType:    mime,
		Description: decodeText(desc, enc),
		Data:        bytes.Clone(img),
		Type:        picType,
		Source:      types.FormatID3v2,
	}, nil
}

// sniffMIME guesses the image type from its magic bytes.
func sniffMIME(img []byte) string {
	switch {
	case bytes.HasPrefix(img, []byte{0x89, 'P', 'N', 'G'}):
		return "image/png"
	case bytes.HasPrefix(img, []byte("GIF8")):
		return "image/gif"
	case bytes.HasPrefix(img, []byte("BM")):
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

// Artwork returns every picture frame that decodes cleanly.
func (t *Tag) Artwork() []types.Artwork {
	id, _ := IDOf(KindPicture, t.Major())
	var out []types.Artwork
	for _, f := range t.FramesByID(id) {
		if f.Flags&FrameEncrypted != 0 {
			continue
		}
		if art, err := parsePicture(f.Data, t.Major()); err == nil {
			out = append(out, art)
		}
	}
	return out
}

// AddArtwork appends a picture frame for art.
func (t *Tag) AddArtwork(art types.Artwork) error {
	major := t.Major()
	id, _ := IDOf(KindPicture, major)
	enc := preferredEncoding(art.Description, major)
	desc, err := encodeText(art.Description, enc)
	if err != nil {
		return err
	}

	data := []byte{enc}
	if major == 2 {
		format := "JPG"
		for k, v := range pictureFormats {
			if v == art.MIMEType {
				format = k
			}
		}
		data = append(data, format...)
	} else {
		mime := art.MIMEType
		if mime == "" {
			mime = sniffMIME(art.Data)
		}
		data = append(data, mime...)
		data = append(data, 0)
	}
	data = append(data, byte(art.Type))
	data = append(data, desc...)
	data = append(data, terminator(enc)...)
	data = append(data, art.Data...)

	return t.Add(Frame{ID: id, Data: data})
}
