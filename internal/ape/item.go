package ape

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/simonhull/audiotag/internal/types"
)

// Key length limits.
const (
	MinKeyLen = 2
	MaxKeyLen = 255
)

// reservedKeys may not be used as item keys in any letter case.
var reservedKeys = []string{"ID3", "TAG", "OggS", "MP+"}

// Item is one key/value pair.
type Item struct {
	Key   string
	Value []byte
	Flags Flags
}

// NewTextItem returns a UTF-8 text item. Multiple values are joined with
// 0x00 separators.
func NewTextItem(key string, values ...string) Item {
	return Item{Key: key, Value: []byte(strings.Join(values, "\x00"))}
}

// NewBinaryItem returns a binary item.
func NewBinaryItem(key string, data []byte) Item {
	return Item{Key: key, Value: data, Flags: Flags(0).WithType(ItemBinary)}
}

// Type returns the item type.
func (i Item) Type() ItemType {
	return i.Flags.Type()
}

// ReadOnly reports whether the item is flagged read-only.
func (i Item) ReadOnly() bool {
	return i.Flags&FlagReadOnly != 0
}

// Text returns the values of a text or locator item.
func (i Item) Text() []string {
	if i.Type() == ItemBinary || len(i.Value) == 0 {
		return nil
	}
	return strings.Split(string(i.Value), "\x00")
}

func (i Item) String() string {
	if i.Type() == ItemBinary {
		return fmt.Sprintf("%s: <%d bytes>", i.Key, len(i.Value))
	}
	return fmt.Sprintf("%s: %s", i.Key, strings.Join(i.Text(), "; "))
}

// ValidKey reports why key cannot be used as an item key, or nil.
func ValidKey(key []byte) error {
	if len(key) < MinKeyLen || len(key) > MaxKeyLen {
		return fmt.Errorf("key length %d outside [%d, %d]", len(key), MinKeyLen, MaxKeyLen)
	}
	if !utf8.Valid(key) {
		return fmt.Errorf("key %q is not valid UTF-8", key)
	}
	for _, r := range reservedKeys {
		if strings.EqualFold(string(key), r) {
			return fmt.Errorf("key %q is reserved", key)
		}
	}
	return nil
}

// Tag is a decoded APE tag.
type Tag struct {
	Items   []Item
	Version uint32
	// Flags are the tag-level flags; only FlagReadOnly is kept on write.
	Flags Flags
}

// NewTag returns an empty APEv2 tag.
func NewTag() *Tag {
	return &Tag{Version: Version2}
}

// Get returns the item whose key matches case-insensitively.
func (t *Tag) Get(key string) (Item, bool) {
	if i := t.index(key); i >= 0 {
		return t.Items[i], true
	}
	return Item{}, false
}

// Text returns the first value of a text item, or "".
func (t *Tag) Text(key string) string {
	it, ok := t.Get(key)
	if !ok {
		return ""
	}
	if v := it.Text(); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Set replaces the item with the same key or appends it.
func (t *Tag) Set(item Item) error {
	if err := ValidKey([]byte(item.Key)); err != nil {
		return err
	}
	if i := t.index(item.Key); i >= 0 {
		t.Items[i] = item
		return nil
	}
	t.Items = append(t.Items, item)
	return nil
}

// Delete removes the item with key. It reports whether one existed.
func (t *Tag) Delete(key string) bool {
	i := t.index(key)
	if i < 0 {
		return false
	}
	t.Items = append(t.Items[:i], t.Items[i+1:]...)
	return true
}

func (t *Tag) index(key string) int {
	for i, it := range t.Items {
		if strings.EqualFold(it.Key, key) {
			return i
		}
	}
	return -1
}

// Fields returns the text items as a tag map.
func (t *Tag) Fields() *types.Tags {
	out := &types.Tags{}
	for _, it := range t.Items {
		if it.Type() == ItemBinary {
			continue
		}
		for _, v := range it.Text() {
			out.Add(it.Key, v)
		}
	}
	return out
}

// Artwork returns the binary "Cover Art (...)" items. Their value is a
// file name, a 0x00 separator, then the image bytes.
func (t *Tag) Artwork() []types.Artwork {
	var out []types.Artwork
	for _, it := range t.Items {
		if it.Type() != ItemBinary || !strings.HasPrefix(strings.ToLower(it.Key), "cover art") {
			continue
		}
		name, data, ok := bytes.Cut(it.Value, []byte{0})
		if !ok {
			name, data = nil, it.Value
		}
		out = append(out, types.Artwork{
			Data:        data,
			Description: string(name),
			MIMEType:    types.MIMEFromExtension(path.Ext(string(name))),
			Type:        coverType(it.Key),
			Source:      types.FormatAPE,
		})
	}
	return out
}

// SetArtwork stores a cover image under "Cover Art (Front)" or
// "Cover Art (Back)".
func (t *Tag) SetArtwork(art types.Artwork, name string) error {
	key := "Cover Art (Front)"
	if art.Type == types.ArtworkBackCover {
		key = "Cover Art (Back)"
	}
	value := append([]byte(name+"\x00"), art.Data...)
	return t.Set(NewBinaryItem(key, value))
}

func coverType(key string) types.ArtworkType {
	switch strings.ToLower(key) {
	case "cover art (front)":
		return types.ArtworkFrontCover
	case "cover art (back)":
		return types.ArtworkBackCover
	default:
		return types.ArtworkOther
	}
}
