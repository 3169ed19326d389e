package id3v2

import (
	"fmt"
	"slices"

	"github.com/simonhull/audiotag/internal/types"
)

// Tag is an ordered frame collection.
//
// Add, Insert, Replace, Remove and RemoveKind keep the dependency rules of
// the tag's version: a frame that requires another kind cannot be added
// without it, and a required frame cannot be removed while a dependent
// frame remains. A rejected mutation leaves the tag unchanged. Tags read
// from a stream are loaded as found; Validate reports any rule they break.
type Tag struct {
	Header Header
	frames []Frame
}

// NewTag returns an empty tag of the given major version (2, 3 or 4).
func NewTag(major byte) *Tag {
	return &Tag{Header: Header{Major: major}}
}

// Major returns the tag's major version.
func (t *Tag) Major() byte {
	return t.Header.Major
}

// Len returns the number of frames.
func (t *Tag) Len() int {
	return len(t.frames)
}

// Frames returns a copy of the frame list.
func (t *Tag) Frames() []Frame {
	return slices.Clone(t.frames)
}

// Frame returns the first frame with id.
func (t *Tag) Frame(id string) (Frame, bool) {
	if i := t.Index(id); i >= 0 {
		return t.frames[i], true
	}
	return Frame{}, false
}

// Index returns the position of the first frame with id, or -1.
func (t *Tag) Index(id string) int {
	return slices.IndexFunc(t.frames, func(f Frame) bool { return f.ID == id })
}

// FramesByID returns every frame with id in order.
func (t *Tag) FramesByID(id string) []Frame {
	var out []Frame
	for _, f := range t.frames {
		if f.ID == id {
			out = append(out, f)
		}
	}
	return out
}

// KindOf returns the kind of f in this tag's version.
func (t *Tag) KindOf(f Frame) Kind {
	return KindOf(f.ID, t.Major())
}

// Has reports whether a frame of kind is present.
func (t *Tag) Has(kind Kind) bool {
	return hasKind(t.frames, kind, t.Major())
}

// Add appends f.
func (t *Tag) Add(f Frame) error {
	return t.Insert(len(t.frames), f)
}

// Insert places f at index i, shifting later frames.
func (t *Tag) Insert(i int, f Frame) error {
	if i < 0 || i > len(t.frames) {
		return fmt.Errorf("id3v2: insert index %d out of range [0, %d]", i, len(t.frames))
	}
	if err := t.checkID(f); err != nil {
		return err
	}
	after := slices.Insert(slices.Clone(t.frames), i, f)
	if err := t.checkAdd(after, t.KindOf(f), "add"); err != nil {
		return err
	}
	t.frames = after
	return nil
}

// Replace swaps the frame at index i for f. When the kind changes the
// removal and addition rules both apply.
func (t *Tag) Replace(i int, f Frame) error {
	if i < 0 || i >= len(t.frames) {
		return fmt.Errorf("id3v2: replace index %d out of range [0, %d)", i, len(t.frames))
	}
	if err := t.checkID(f); err != nil {
		return err
	}
	oldKind, newKind := t.KindOf(t.frames[i]), t.KindOf(f)
	after := slices.Clone(t.frames)
	after[i] = f
	if oldKind != newKind {
		if err := t.checkRemove(after, oldKind); err != nil {
			return err
		}
		if err := t.checkAdd(after, newKind, "replace"); err != nil {
			return err
		}
	}
	t.frames = after
	return nil
}

// Remove deletes the frame at index i.
func (t *Tag) Remove(i int) error {
	if i < 0 || i >= len(t.frames) {
		return fmt.Errorf("id3v2: remove index %d out of range [0, %d)", i, len(t.frames))
	}
	after := slices.Delete(slices.Clone(t.frames), i, i+1)
	if err := t.checkRemove(after, t.KindOf(t.frames[i])); err != nil {
		return err
	}
	t.frames = after
	return nil
}

// RemoveKind deletes every frame of kind and returns how many were removed.
func (t *Tag) RemoveKind(kind Kind) (int, error) {
	major := t.Major()
	after := slices.DeleteFunc(slices.Clone(t.frames), func(f Frame) bool {
		return KindOf(f.ID, major) == kind
	})
	n := len(t.frames) - len(after)
	if n == 0 {
		return 0, nil
	}
	if err := t.checkRemove(after, kind); err != nil {
		return 0, err
	}
	t.frames = after
	return n, nil
}

// RemoveID deletes every frame with id and returns how many were removed.
func (t *Tag) RemoveID(id string) (int, error) {
	if kind := KindOf(id, t.Major()); kind != KindUnknown {
		return t.RemoveKind(kind)
	}
	before := len(t.frames)
	t.frames = slices.DeleteFunc(t.frames, func(f Frame) bool { return f.ID == id })
	return before - len(t.frames), nil
}

// Validate reports the first dependency rule the frame list breaks.
func (t *Tag) Validate() error {
	major := t.Major()
	for _, d := range dependencies(major) {
		if hasKind(t.frames, d.dependent, major) && !hasKind(t.frames, d.required, major) {
			return t.violation("add", d)
		}
	}
	return nil
}

// load appends a decoded frame without rule checks.
func (t *Tag) load(f Frame) {
	t.frames = append(t.frames, f)
}

func (t *Tag) checkID(f Frame) error {
	if !validFrameID(f.ID, t.Major()) {
		return &types.MalformedError{
			Format: types.FormatID3v2,
			Reason: fmt.Sprintf("invalid frame ID %q for ID3v2.%d", f.ID, t.Major()),
		}
	}
	return nil
}

// checkAdd verifies that after still holds every kind that added requires.
func (t *Tag) checkAdd(after []Frame, added Kind, op string) error {
	major := t.Major()
	for _, d := range dependencies(major) {
		if d.dependent == added && !hasKind(after, d.required, major) {
			return t.violation(op, d)
		}
	}
	return nil
}

// checkRemove verifies that no dependent of removed is left without it.
func (t *Tag) checkRemove(after []Frame, removed Kind) error {
	major := t.Major()
	if removed == KindUnknown || hasKind(after, removed, major) {
		return nil
	}
	for _, d := range dependencies(major) {
		if d.required == removed && hasKind(after, d.dependent, major) {
			return t.violation("remove", d)
		}
	}
	return nil
}

func (t *Tag) violation(op string, d dependency) error {
	dep, _ := IDOf(d.dependent, t.Major())
	req, _ := IDOf(d.required, t.Major())
	return &types.DependencyViolationError{Op: op, Dependent: dep, Required: req}
}

func hasKind(frames []Frame, kind Kind, major byte) bool {
	if kind == KindUnknown {
		return false
	}
	return slices.ContainsFunc(frames, func(f Frame) bool { return KindOf(f.ID, major) == kind })
}
