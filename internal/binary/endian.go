package binary

import "encoding/binary"

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// BigEndian uses big-endian byte order.
	// Used by: ID3v2.3 frame headers, FLAC metadata block headers.
	BigEndian Endianness = iota

	// LittleEndian uses little-endian byte order.
	// Used by: APE headers and items, Vorbis comments, MusicMatch offsets.
	LittleEndian
)

func sizeOf[T uint8 | uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// ReadLE reads a numeric value of type T at the given offset using little-endian byte order.
//
// Example:
//
//	size, err := binary.ReadLE[uint32](c, offset, "APE tag size")
func ReadLE[T uint8 | uint16 | uint32 | uint64](c *Cursor, off int64, what string) (T, error) {
	return ReadEndian[T](c, off, what, LittleEndian)
}

// ReadBE reads a numeric value of type T at the given offset using big-endian byte order.
//
// Example:
//
//	header, err := binary.ReadBE[uint32](c, offset, "metadata block header")
func ReadBE[T uint8 | uint16 | uint32 | uint64](c *Cursor, off int64, what string) (T, error) {
	return ReadEndian[T](c, off, what, BigEndian)
}

// ReadEndian reads a numeric value of type T at the given offset with the
// specified byte order. The cursor position is not changed.
func ReadEndian[T uint8 | uint16 | uint32 | uint64](c *Cursor, off int64, what string, endian Endianness) (T, error) {
	buf := make([]byte, sizeOf[T]())
	if err := c.ReadAt(buf, off, what); err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](buf, endian), nil
}

// Decode converts the leading bytes of buf to T with the given byte order.
func Decode[T uint8 | uint16 | uint32 | uint64](buf []byte, endian Endianness) T {
	var zero T
	var order binary.ByteOrder = binary.BigEndian
	if endian == LittleEndian {
		order = binary.LittleEndian
	}

	switch any(zero).(type) {
	case uint8:
		return T(buf[0])
	case uint16:
		return T(order.Uint16(buf))
	case uint32:
		return T(order.Uint32(buf))
	default:
		return T(order.Uint64(buf))
	}
}

// AppendBE appends val to b in big-endian byte order.
func AppendBE[T uint8 | uint16 | uint32 | uint64](b []byte, val T) []byte {
	return AppendEndian(b, val, BigEndian)
}

// AppendLE appends val to b in little-endian byte order.
func AppendLE[T uint8 | uint16 | uint32 | uint64](b []byte, val T) []byte {
	return AppendEndian(b, val, LittleEndian)
}

// AppendEndian appends val to b with the given byte order.
func AppendEndian[T uint8 | uint16 | uint32 | uint64](b []byte, val T, endian Endianness) []byte {
	var order binary.AppendByteOrder = binary.BigEndian
	if endian == LittleEndian {
		order = binary.LittleEndian
	}

	switch sizeOf[T]() {
	case 1:
		return append(b, byte(val))
	case 2:
		return order.AppendUint16(b, uint16(val))
	case 4:
		return order.AppendUint32(b, uint32(val))
	default:
		return order.AppendUint64(b, uint64(val))
	}
}
