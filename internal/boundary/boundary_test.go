package boundary

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

func cursor(t *testing.T, data []byte) *binary.Cursor {
	t.Helper()
	c, err := binary.NewCursor(bytes.NewReader(data), "test")
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	return c
}

var errRejected = errors.New("rejected")

// spec is an 8-byte record "HDR" + version byte + 4 payload bytes. The
// probe accepts version 1 only.
var spec = Spec{Magic: []byte("HDR"), Size: 8}

func probe(c *binary.Cursor, off int64) (byte, error) {
	v, err := binary.Read[uint8](c, off+3, "version")
	if err != nil {
		return 0, err
	}
	if v != 1 {
		return 0, errRejected
	}
	return v, nil
}

func record(version byte) []byte {
	return append([]byte("HDR"), version, 'p', 'p', 'p', 'p')
}

func TestFind_Start(t *testing.T) {
	pad := bytes.Repeat([]byte{0}, 8)
	tests := []struct {
		name         string
		data         []byte
		anchor       int64
		want         int64
		wantFound    bool
		wantRejected int
	}{
		{"at anchor", append(record(1), pad...), 0, 0, true, 0},
		{"second window", append(append([]byte("xxxxxxxxxx"), record(1)...), pad...), 0, 10, true, 0},
		{"rejected then accepted", append(append(record(2), 'x', 'x'), record(1)...), 0, 10, true, 1},
		{"past both windows", append(bytes.Repeat([]byte{'x'}, 16), record(1)...), 0, 0, false, 0},
		{"only rejected", append(record(2), pad...), 0, 0, false, 1},
		{"record past stream", []byte("xxHDR\x01"), 0, 0, false, 1},
		{"anchor offset", append([]byte("ID3"), record(1)...), 3, 3, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cursor(t, tt.data)
			_ = c.Seek(1)
			m, found, err := Find(c, spec, types.OriginStart, tt.anchor, probe)
			if err != nil {
				t.Fatalf("err = %v, want nil", err)
			}
			if found != tt.wantFound || (found && m.Offset != tt.want) {
				t.Fatalf("Find = %d, %v; want %d, %v", m.Offset, found, tt.want, tt.wantFound)
			}
			if len(m.Rejected) != tt.wantRejected {
				t.Errorf("rejected = %v, want %d", m.Rejected, tt.wantRejected)
			}
			if found && m.Record != 1 {
				t.Errorf("record = %d", m.Record)
			}
			if c.Position() != 1 {
				t.Errorf("cursor position = %d, want 1", c.Position())
			}
		})
	}
}

func TestFind_RejectionIsNotAnError(t *testing.T) {
	// The identifier sits four bytes before the anchor, so its record
	// would run into the trailer.
	data := append(bytes.Repeat([]byte{0xFF}, 20), "xxxxHDR\x01"...)
	anchor := int64(len(data))
	data = append(data, "TRAILER1"...)

	m, found, err := Find(cursor(t, data), spec, types.OriginEnd, anchor, probe)
	if err != nil || found {
		t.Fatalf("found=%v err=%v, want not found", found, err)
	}
	if len(m.Rejected) != 1 || m.Rejected[0].Offset != 24 || !errors.Is(m.Rejected[0].Reason, errPastAnchor) {
		t.Errorf("rejected = %v", m.Rejected)
	}
}

func TestMatch_Log(t *testing.T) {
	var buf bytes.Buffer
	opts := types.NewReadOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m, _, _ := Find(cursor(t, append(record(2), 0, 0, 0, 0, 0, 0, 0, 0)), spec, types.OriginStart, 0, probe)
	m.Log(opts, "HDR")

	if !strings.Contains(buf.String(), "candidate rejected") || !strings.Contains(buf.String(), "record=HDR") {
		t.Errorf("log = %q", buf.String())
	}
	if len(opts.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", opts.Warnings)
	}
}

func TestFind_End(t *testing.T) {
	audio := bytes.Repeat([]byte{0xFF}, 20)
	tests := []struct {
		name      string
		data      []byte
		anchor    int64
		want      int64
		wantFound bool
	}{
		{"ends at anchor", append(bytes.Clone(audio), record(1)...), 28, 20, true},
		{"before trailer", append(append(bytes.Clone(audio), record(1)...), "TRAILER"...), 28, 20, true},
		{"one block early", append(append(bytes.Clone(audio), record(1)...), "12345678"...), 36, 20, true},
		{"overlaps anchor", append(bytes.Clone(audio), record(1)...), 26, 0, false},
		{"short stream", record(1)[:5], 5, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, found, _ := Find(cursor(t, tt.data), spec, types.OriginEnd, tt.anchor, probe)
			if found != tt.wantFound || (found && m.Offset != tt.want) {
				t.Errorf("Find = %d, %v; want %d, %v", m.Offset, found, tt.want, tt.wantFound)
			}
		})
	}
}

func TestFind_MagicOffset(t *testing.T) {
	// Lyrics3v2-style footer: 6 digits then the identifier.
	footer := Spec{Magic: []byte("LYRICS200"), MagicOffset: 6, Size: 15}
	data := append([]byte("audio"), "000042LYRICS200"...)

	m, found, err := Find(cursor(t, data), footer, types.OriginEnd, int64(len(data)),
		func(c *binary.Cursor, off int64) (string, error) {
			b := make([]byte, 6)
			err := c.ReadAt(b, off, "size")
			return string(b), err
		})
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if m.Offset != 5 || m.Record != "000042" {
		t.Errorf("match = %+v", m)
	}
}

func TestWindows(t *testing.T) {
	w := Windows(spec, types.OriginEnd, 100)
	if w != [2][2]int64{{92, 100}, {84, 92}} {
		t.Errorf("end windows = %v", w)
	}
	w = Windows(spec, types.OriginStart, 10)
	if w != [2][2]int64{{10, 18}, {18, 26}} {
		t.Errorf("start windows = %v", w)
	}
}
