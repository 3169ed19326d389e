package ape

import (
	"bytes"
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

type writer struct{}

func (w *writer) Format() types.Format { return types.FormatAPE }
func (w *writer) Origin() types.Origin { return types.OriginEnd }

func (w *writer) Encode(tag any, _ registry.EncodeOptions) ([]byte, error) {
	t, ok := tag.(*Tag)
	if !ok {
		return nil, fmt.Errorf("ape: cannot encode %T", tag)
	}
	return Encode(t)
}

// Encode serializes t. Version 2 tags get both a header and a footer;
// version 1 tags get a footer only and may hold text items only.
func Encode(t *Tag) ([]byte, error) {
	version := t.Version
	if version == 0 {
		version = Version2
	}
	if version != Version1 && version != Version2 {
		return nil, &types.UnsupportedWriteError{Format: types.FormatAPE, Reason: fmt.Sprintf("version %d", version)}
	}

	var items bytes.Buffer
	sw := binary.NewSafeWriter(&items)
	for _, it := range t.Items {
		if err := ValidKey([]byte(it.Key)); err != nil {
			return nil, err
		}
		flags := it.Flags
		if version == Version1 {
			if it.Type() != ItemText {
				return nil, &types.UnsupportedWriteError{Format: types.FormatAPE, Reason: "APEv1 holds text items only"}
			}
			flags = 0
		}
		_ = binary.WriteLE(sw, uint32(len(it.Value)))
		_ = binary.WriteLE(sw, uint32(flags&^(FlagIsHeader|FlagHasNoFooter|FlagHasHeader)))
		_ = sw.WriteString(it.Key)
		_ = sw.Pad(1)
		_ = sw.WriteBytes(it.Value)
	}
	if err := sw.Err(); err != nil {
		return nil, err
	}

	size := uint32(items.Len() + HeaderSize)
	count := uint32(len(t.Items))

	var out bytes.Buffer
	ow := binary.NewSafeWriter(&out)
	tagFlags := t.Flags & FlagReadOnly
	if version == Version2 {
		writeRecord(ow, Header{Version: version, Size: size, ItemCount: count, Flags: tagFlags | FlagHasHeader | FlagIsHeader})
		tagFlags |= FlagHasHeader
	} else {
		tagFlags = 0
	}
	_ = ow.WriteBytes(items.Bytes())
	writeRecord(ow, Header{Version: version, Size: size, ItemCount: count, Flags: tagFlags})
	if err := ow.Err(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeRecord(sw *binary.SafeWriter, h Header) {
	_ = sw.WriteBytes(Magic)
	_ = binary.WriteLE(sw, h.Version)
	_ = binary.WriteLE(sw, h.Size)
	_ = binary.WriteLE(sw, h.ItemCount)
	_ = binary.WriteLE(sw, uint32(h.Flags))
	_ = sw.Pad(8)
}
