// Package synchsafe implements the ID3v2 synchsafe integer codec and the
// unsynchronization byte transform.
//
// Both exist so that tag data never contains an MPEG audio frame sync
// (0xFF followed by a byte >= 0xE0) that a decoder could lock onto.
package synchsafe

// Encode spreads n over the low 7 bits of each byte of T.
//
// Each step folds the low 7 bits of the remaining value into the next byte
// position and shifts the rest one extra bit left per byte boundary. Bits
// that do not fit into 7*sizeof(T) bits are dropped; use Fits to check.
func Encode[T uint16 | uint32 | uint64](n T) T {
	var out T
	bits := uint(sizeOf[T]() * 8)
	for shift := uint(0); n != 0 && shift < bits; shift += 8 {
		out |= (n & 0x7F) << shift
		n >>= 7
	}
	return out
}

// Decode is the inverse of Encode. The top bit of every byte is ignored.
func Decode[T uint16 | uint32 | uint64](v T) T {
	var out T
	for i := sizeOf[T]() - 1; i >= 0; i-- {
		out = out<<7 | (v>>(uint(i)*8))&0x7F
	}
	return out
}

// Bytes returns n as width big-endian synchsafe bytes.
func Bytes(n uint64, width int) []byte {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(n & 0x7F)
		n >>= 7
	}
	return out
}

// DecodeBytes combines acc = acc<<7 | b&0x7F across b from first to last.
func DecodeBytes(b []byte) uint64 {
	var acc uint64
	for _, v := range b {
		acc = acc<<7 | uint64(v&0x7F)
	}
	return acc
}

// Fits reports whether n is representable in width synchsafe bytes.
func Fits(n uint64, width int) bool {
	if width >= 10 {
		return true
	}
	return n>>(7*uint(width)) == 0
}

// Valid reports whether every byte of b has its top bit clear.
func Valid(b []byte) bool {
	for _, v := range b {
		if v&0x80 != 0 {
			return false
		}
	}
	return true
}

// Unsynchronize inserts 0x00 after every 0xFF that is followed by a byte
// >= 0xE0 or by 0x00, or that is the last byte of data.
func Unsynchronize(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/16)
	for i, b := range data {
		out = append(out, b)
		if b != 0xFF {
			continue
		}
		if i == len(data)-1 || data[i+1] >= 0xE0 || data[i+1] == 0x00 {
			out = append(out, 0x00)
		}
	}
	return out
}

// Resynchronize removes every 0x00 that immediately follows a 0xFF.
//
// Resynchronize(Unsynchronize(x)) == x for all x.
func Resynchronize(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		out = append(out, data[i])
		if data[i] == 0xFF && i+1 < len(data) && data[i+1] == 0x00 {
			i++
		}
	}
	return out
}

// NeedsUnsynchronization reports whether data contains a false sync or a
// trailing 0xFF.
func NeedsUnsynchronization(data []byte) bool {
	for i, b := range data {
		if b != 0xFF {
			continue
		}
		if i == len(data)-1 || data[i+1] >= 0xE0 || data[i+1] == 0x00 {
			return true
		}
	}
	return false
}

func sizeOf[T uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}
