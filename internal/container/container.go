// Package container registers the Vorbis comment reader and writer for
// streams that embed comments inside their own framing: FLAC metadata
// blocks and Ogg header packets.
package container

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/flac"
	"github.com/simonhull/audiotag/internal/ogg"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

func init() {
	registry.Register(&reader{})
	registry.RegisterWriter(&writer{})
}

type reader struct{}

func (r *reader) Format() types.Format { return types.FormatVorbis }
func (r *reader) Origin() types.Origin { return types.OriginStart }

func (r *reader) Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	return Read(c, anchor, opts)
}

// Read dispatches on the magic at anchor.
func Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	magic := make([]byte, 4)
	if err := c.ReadAt(magic, anchor, "container magic"); err != nil {
		return types.TagOffset{}, false, nil
	}
	switch string(magic) {
	case flac.Magic:
		return flac.Read(c, anchor, opts)
	case ogg.Magic:
		return ogg.Read(c, anchor, opts)
	}
	return types.TagOffset{}, false, nil
}

type writer struct{}

func (w *writer) Format() types.Format { return types.FormatVorbis }
func (w *writer) Origin() types.Origin { return types.OriginStart }

// Encode serializes a FLAC comment block in place. Rewriting Ogg pages
// needs re-lacing and new checksums for every following page, which is not
// supported.
func (w *writer) Encode(tag any, _ registry.EncodeOptions) ([]byte, error) {
	switch t := tag.(type) {
	case *flac.Tag:
		return flac.EncodeBlock(t)
	case *ogg.Tag:
		return nil, &types.UnsupportedWriteError{Format: types.FormatVorbis, Reason: "Ogg " + t.Codec + " streams"}
	}
	return nil, fmt.Errorf("container: cannot encode %T", tag)
}
