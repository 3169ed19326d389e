package binary

// FindIdentifier returns the offset of the first occurrence of magic whose
// first byte lies in [lo, hi).
//
// The match is brute force: after any partial mismatch the comparison
// restarts at the byte following the attempt's start. Identifiers are 3 to
// 19 bytes long, so this costs little and yields the leftmost match exactly.
// Matched bytes may extend past hi but never past the end of the stream.
//
// On success the cursor is left at the match offset; otherwise its position
// is restored.
func FindIdentifier(c *Cursor, magic []byte, lo, hi int64) (int64, bool, error) {
	origin := c.Position()
	n := int64(len(magic))
	if n == 0 {
		return 0, false, nil
	}

	if lo < 0 {
		lo = 0
	}
	if last := c.Length() - n + 1; hi > last {
		hi = last
	}
	if lo >= hi {
		return 0, false, nil
	}

	window := make([]byte, hi-lo+n-1)
	if err := c.ReadAt(window, lo, "identifier window"); err != nil {
		return 0, false, err
	}

	for start := int64(0); start < hi-lo; start++ {
		matched := int64(0)
		for matched < n && window[start+matched] == magic[matched] {
			matched++
		}
		if matched == n {
			if err := c.Seek(lo + start); err != nil {
				return 0, false, err
			}
			return lo + start, true, nil
		}
	}

	return 0, false, c.Seek(origin)
}
