package ape

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

func init() {
	registry.Register(&reader{origin: types.OriginEnd})
	registry.Register(&reader{origin: types.OriginStart})
	registry.RegisterWriter(&writer{})
}

type reader struct {
	origin types.Origin
}

func (r *reader) Format() types.Format { return types.FormatAPE }
func (r *reader) Origin() types.Origin { return r.origin }

func (r *reader) Read(c *binary.Cursor, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	return Read(c, r.origin, anchor, opts)
}

// Read locates an APE tag adjacent to anchor and decodes its items.
func Read(c *binary.Cursor, origin types.Origin, anchor int64, opts *types.ReadOptions) (types.TagOffset, bool, error) {
	b, ok, err := Locate(c, origin, anchor, opts)
	if err != nil || !ok {
		return types.TagOffset{}, false, err
	}

	tag, err := ReadItems(c, b, opts)
	if err != nil {
		return types.TagOffset{}, false, err
	}

	return types.TagOffset{
		Tag:    tag,
		Origin: origin,
		Format: types.FormatAPE,
		Start:  b.Start,
		End:    b.End,
	}, true, nil
}

// ReadItems decodes the items in b.
//
// Some writers declare value sizes that are too short. After every item the
// bytes up to the next valid record are appended to the item's value; for
// the last declared item the footer is the next record. Items that fail
// validation are skipped by resynchronizing on the next valid record
// unless opts is strict.
func ReadItems(c *binary.Cursor, b Bounds, opts *types.ReadOptions) (*Tag, error) {
	origPos := c.Position()
	defer func() { _ = c.Seek(origPos) }() //nolint:errcheck // origPos was valid when read

	tag := &Tag{Version: b.Version(), Flags: b.Flags() & FlagReadOnly}
	count := int(b.ItemCount())
	maxSize := opts.Cap()

	pos := b.ItemsStart
	i := 0
	for ; i < count && pos < b.ItemsEnd; i++ {
		item, next, err := readItem(c, pos, b.ItemsEnd, maxSize, opts)
		if err != nil {
			if ferr := opts.Fail("items", pos, err); ferr != nil {
				return nil, ferr
			}
			if err := c.Seek(pos + 1); err != nil {
				return nil, err
			}
			extra, found, rerr := FindNextRecordOffset(c, b.ItemsEnd, maxSize)
			if rerr != nil {
				return nil, rerr
			}
			if !found {
				break
			}
			opts.Debug("APE item resynchronized", "from", pos, "to", pos+1+extra)
			pos += 1 + extra
			continue
		}

		var extra int64
		if i == count-1 {
			extra = b.ItemsEnd - next
		} else {
			if err := c.Seek(next); err != nil {
				return nil, err
			}
			k, found, rerr := FindNextRecordOffset(c, b.ItemsEnd, maxSize)
			if rerr != nil {
				return nil, rerr
			}
			if found {
				extra = k
			} else {
				extra = b.ItemsEnd - next
			}
		}

		if extra > 0 {
			more := make([]byte, extra)
			if err := c.ReadAt(more, next, "APE item value"); err != nil {
				return nil, err
			}
			opts.Warn("items", pos, "item %q value size corrected from %d to %d",
				item.Key, len(item.Value), int64(len(item.Value))+extra)
			item.Value = append(item.Value, more...)
		}

		tag.Items = append(tag.Items, item)
		pos = next + extra
	}

	if len(tag.Items) < count {
		opts.Warn("items", b.ItemsStart, "found %d of %d declared items", len(tag.Items), count)
	}
	return tag, nil
}

// readItem decodes the record at pos. next is the offset after its value.
func readItem(c *binary.Cursor, pos, itemsEnd, maxSize int64, opts *types.ReadOptions) (Item, int64, error) {
	malformed := func(format string, args ...any) error {
		return &types.MalformedError{
			Path:   c.Path(),
			Format: types.FormatAPE,
			Offset: pos,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	if err := c.Seek(pos); err != nil {
		return Item{}, 0, err
	}
	cr := binary.NewChainReader(c, binary.LittleEndian)
	size := binary.ReadChained[uint32](cr, "APE item value size")
	flags := Flags(binary.ReadChained[uint32](cr, "APE item flags"))
	if err := cr.Error(); err != nil {
		return Item{}, 0, err
	}

	var key []byte
	for {
		if c.Position() >= itemsEnd {
			return Item{}, 0, malformed("unterminated item key")
		}
		b, err := c.ReadByte()
		if err != nil {
			return Item{}, 0, err
		}
		if b == 0 {
			break
		}
		key = append(key, b)
		if len(key) > MaxKeyLen {
			return Item{}, 0, malformed("item key longer than %d bytes", MaxKeyLen)
		}
	}
	if err := ValidKey(key); err != nil {
		return Item{}, 0, malformed("%v", err)
	}
	if !validItemFlags(flags) {
		return Item{}, 0, malformed("item %q has invalid flags %#08x", key, uint32(flags))
	}
	if int64(size) > maxSize {
		return Item{}, 0, malformed("item %q value size %d exceeds limit %d", key, size, maxSize)
	}

	valueStart := c.Position()
	valueEnd := valueStart + int64(size)
	if valueEnd > itemsEnd {
		terr := &types.TruncatedError{
			Path:   c.Path(),
			What:   fmt.Sprintf("APE item %q value", key),
			Offset: valueStart,
			Length: int(size),
			Size:   itemsEnd,
		}
		if err := opts.Fail("items", valueStart, terr); err != nil {
			return Item{}, 0, err
		}
		valueEnd = itemsEnd
	}

	value, err := c.Bytes(int(valueEnd-valueStart), "APE item value")
	if err != nil {
		return Item{}, 0, err
	}
	return Item{Key: string(key), Value: value, Flags: flags}, valueEnd, nil
}
