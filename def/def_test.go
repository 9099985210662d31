package def

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"badc0de.net/pkg/go-heroes3/ttesting"
)

// pattern returns w*h indices that exercise long runs, short runs, the
// 0xFF literal marker and values on both sides of the packed-row cutoff.
func pattern(w, h int) []byte {
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case x < w/4:
				pix[y*w+x] = 0
			case x < w/2:
				pix[y*w+x] = byte(x*7 + y)
			case x < 3*w/4:
				pix[y*w+x] = 0xFF
			default:
				pix[y*w+x] = byte(1 + y%6)
			}
		}
	}
	return pix
}

func TestDecodeCompressions(t *testing.T) {
	for _, c := range []Compression{CompressionRaw, CompressionRLE, CompressionPackedRows, CompressionSegmented} {
		t.Run(c.String(), func(t *testing.T) {
			pix := pattern(64, 9)
			b := ttesting.NewDEFBuilder(0x43, 96, 64).AddGroup(0, ttesting.DEFFrame{
				Name:        "AvXTest0.pcx",
				FullWidth:   96,
				FullHeight:  64,
				Width:       64,
				Height:      9,
				X:           16,
				Y:           40,
				Compression: uint32(c),
				Pixels:      pix,
			}).Bytes()

			s, err := Decode(b)
			if err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if len(s.Groups) != 1 || len(s.Groups[0].Frames) != 1 {
				t.Fatalf("got %d groups; want 1 group with 1 frame", len(s.Groups))
			}
			f := s.Groups[0].Frames[0]
			ttesting.AssertEqualString(t, "name", f.Name, "AvXTest0.pcx")
			ttesting.AssertEqualInt(t, "width", f.Width, 64)
			ttesting.AssertEqualInt(t, "height", f.Height, 9)
			ttesting.AssertEqualInt(t, "x", f.X, 16)
			ttesting.AssertEqualInt(t, "y", f.Y, 40)
			ttesting.AssertEqualInt(t, "full width", f.FullWidth, 96)
			ttesting.AssertEqualInt(t, "full height", f.FullHeight, 64)
			ttesting.AssertEqualInt(t, "pixel count", len(f.Pixels), 64*9)
			ttesting.AssertEqualBytes(t, "pixels", f.Pixels, pix)
		})
	}
}

func TestDecodeHeader(t *testing.T) {
	builder := ttesting.NewDEFBuilder(0x45, 32, 32)
	builder.Palette[200] = [3]byte{1, 2, 3}
	frame := ttesting.DEFFrame{Name: "a.pcx", FullWidth: 32, FullHeight: 32, Width: 2, Height: 2, Pixels: []byte{1, 2, 3, 4}}
	frame2 := frame
	frame2.Name = "b.pcx"
	builder.AddGroup(7, frame, frame2).AddGroup(9, frame)

	s, err := Decode(builder.Bytes())
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	ttesting.AssertEqualUint32(t, "type", s.Type, 0x45)
	ttesting.AssertEqualInt(t, "width", s.Width, 32)
	ttesting.AssertEqualInt(t, "groups", len(s.Groups), 2)
	ttesting.AssertEqualUint32(t, "group id", s.Groups[1].ID, 9)
	ttesting.AssertEqualString(t, "second name", s.Groups[0].Names[1], "b.pcx")
	ttesting.AssertEqualInt(t, "all frames", len(s.Frames()), 3)
	if got, want := s.Palette[200], (RGB{1, 2, 3}); got != want {
		t.Errorf("palette[200]: got %v; want %v", got, want)
	}

	c, err := DecodeConfig(builder.Bytes())
	if err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	ttesting.AssertEqualInt(t, "config groups", len(c.Groups), 2)
	ttesting.AssertEqualInt(t, "config frames in group 0", c.Groups[0].FrameCount, 2)
}

func TestDecodeGeometryViolation(t *testing.T) {
	tests := []struct {
		name string
		f    ttesting.DEFFrame
	}{
		{"x overflows", ttesting.DEFFrame{FullWidth: 10, FullHeight: 10, Width: 4, Height: 4, X: 7}},
		{"y overflows", ttesting.DEFFrame{FullWidth: 10, FullHeight: 10, Width: 4, Height: 4, Y: 7}},
		{"negative x", ttesting.DEFFrame{FullWidth: 10, FullHeight: 10, Width: 4, Height: 4, X: -1}},
		{"crop wider than canvas", ttesting.DEFFrame{FullWidth: 3, FullHeight: 10, Width: 4, Height: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.f.Name = "x.pcx"
			tt.f.Pixels = ttesting.Fill(tt.f.Width*tt.f.Height, 9)
			b := ttesting.NewDEFBuilder(0x43, 10, 10).AddGroup(0, tt.f).Bytes()
			_, err := Decode(b)
			ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
		})
	}
}

// frameOffset returns where the only frame of a one-group, one-frame DEF
// starts.
func frameOffset(b []byte) int {
	return 16 + 768 + 16 + 13 + 4
}

func TestDecodeCorruptPayload(t *testing.T) {
	build := func(c Compression) []byte {
		return ttesting.NewDEFBuilder(0x43, 8, 8).AddGroup(0, ttesting.DEFFrame{
			Name: "x.pcx", FullWidth: 8, FullHeight: 2, Width: 8, Height: 2,
			Compression: uint32(c), Pixels: ttesting.Fill(16, 3),
		}).Bytes()
	}

	t.Run("unknown compression", func(t *testing.T) {
		b := build(CompressionRaw)
		binary.LittleEndian.PutUint32(b[frameOffset(b)+4:], 9)
		_, err := Decode(b)
		ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
	})

	t.Run("raw payload too short", func(t *testing.T) {
		b := build(CompressionRaw)
		binary.LittleEndian.PutUint32(b[frameOffset(b):], 15)
		_, err := Decode(b)
		ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
	})

	t.Run("payload past end", func(t *testing.T) {
		b := build(CompressionRaw)
		binary.LittleEndian.PutUint32(b[frameOffset(b):], 1000)
		_, err := Decode(b)
		ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
	})

	t.Run("rle run overflows row", func(t *testing.T) {
		b := build(CompressionRLE)
		// First pair of row 0 follows the 2-entry uint32 table.
		b[frameOffset(b)+32+8+1] = 8
		_, err := Decode(b)
		ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
	})

	t.Run("packed run overflows row", func(t *testing.T) {
		b := build(CompressionPackedRows)
		b[frameOffset(b)+32+4] = 3<<5 | 31
		_, err := Decode(b)
		ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
	})

	t.Run("rle row offset out of range", func(t *testing.T) {
		b := build(CompressionRLE)
		binary.LittleEndian.PutUint32(b[frameOffset(b)+32+4:], 0xFFFF)
		_, err := Decode(b)
		ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
	})
}

func TestDecodeTruncated(t *testing.T) {
	b := ttesting.NewDEFBuilder(0x43, 8, 8).AddGroup(0, ttesting.DEFFrame{
		Name: "x.pcx", FullWidth: 8, FullHeight: 8, Width: 8, Height: 8, Pixels: pattern(8, 8),
	}).Bytes()
	for _, n := range []int{0, 10, 784, 790, frameOffset(b) + 10, len(b) - 1} {
		t.Run(fmt.Sprintf("%d bytes", n), func(t *testing.T) {
			_, err := Decode(b[:n])
			ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
		})
	}
}

func TestDecodeGroupCountOverrun(t *testing.T) {
	b := ttesting.NewDEFBuilder(0x43, 8, 8).Bytes()
	binary.LittleEndian.PutUint32(b[12:], 1<<30)
	_, err := Decode(b)
	ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
}

func TestDecodeEmptyFrame(t *testing.T) {
	b := ttesting.NewDEFBuilder(0x43, 8, 8).AddGroup(0, ttesting.DEFFrame{
		Name: "empty.pcx", FullWidth: 8, FullHeight: 8, Compression: 1,
	}).Bytes()
	s, err := Decode(b)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	ttesting.AssertEqualInt(t, "pixels", len(s.Groups[0].Frames[0].Pixels), 0)
}

func TestWithReservedDoesNotMutate(t *testing.T) {
	var p Palette
	for i := range p {
		p[i] = RGB{byte(i), 1, 2}
	}
	q := p.WithReserved()
	if p[5] != (RGB{5, 1, 2}) {
		t.Errorf("original palette changed: %v", p[5])
	}
	if q[5] != (RGB{0x80, 0x80, 0x80}) {
		t.Errorf("reserved slot 5: got %v; want gray", q[5])
	}
	if q[8] != p[8] {
		t.Errorf("slot 8 changed: got %v; want %v", q[8], p[8])
	}
	if !bytes.Equal([]byte{q[0].R, q[0].G, q[0].B}, []byte{0, 0, 0}) {
		t.Errorf("reserved slot 0: got %v; want black", q[0])
	}
}

func TestDecompressFixtures(t *testing.T) {
	tests := []struct {
		name    string
		c       Compression
		w, h    int
		payload []byte
		want    []byte
	}{
		{
			name: "rle",
			c:    CompressionRLE,
			w:    4, h: 2,
			payload: []byte{
				8, 0, 0, 0, 10, 0, 0, 0, // row offsets
				0x05, 3, // four 5s
				0xFF, 1, 0x10, 0x11, // literal of two
				0x00, 1, // two 0s
			},
			want: []byte{5, 5, 5, 5, 0x10, 0x11, 0, 0},
		},
		{
			name: "packed rows",
			c:    CompressionPackedRows,
			w:    4, h: 2,
			payload: []byte{
				4, 0, 5, 0, // row offsets
				1<<5 | 3,             // four 1s
				7<<5 | 1, 0x40, 0x41, // literal of two
				0<<5 | 1, // two 0s
			},
			want: []byte{1, 1, 1, 1, 0x40, 0x41, 0, 0},
		},
		{
			name: "segmented",
			c:    CompressionSegmented,
			w:    64, h: 1,
			payload: []byte{
				4, 0, 5, 0, // segment offsets
				2<<5 | 31,      // thirty-two 2s
				7<<5 | 0, 0x99, // literal of one
				3<<5 | 30, // thirty-one 3s
			},
			want: append(append(ttesting.Fill(32, 2), 0x99), ttesting.Fill(31, 3)...),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decompress(tt.c, tt.payload, tt.w, tt.h)
			if err != nil {
				t.Fatalf("failed to decompress: %v", err)
			}
			ttesting.AssertEqualBytes(t, "pixels", got, tt.want)
		})
	}
}

func TestDecompressMalformed(t *testing.T) {
	tests := []struct {
		name    string
		c       Compression
		w, h    int
		payload []byte
	}{
		{"rle ends early", CompressionRLE, 4, 1, []byte{4, 0, 0, 0, 0x05, 1}},
		{"rle literal past end", CompressionRLE, 4, 1, []byte{4, 0, 0, 0, 0xFF, 3, 1, 2}},
		{"rle offset table short", CompressionRLE, 4, 2, []byte{8, 0, 0, 0, 0x05, 3}},
		{"packed ends early", CompressionPackedRows, 4, 1, []byte{2, 0, 0<<5 | 1}},
		{"packed literal past end", CompressionPackedRows, 4, 1, []byte{2, 0, 7<<5 | 3, 1}},
		{"packed run too long", CompressionPackedRows, 4, 1, []byte{2, 0, 0<<5 | 1, 1<<5 | 2}},
		{"segmented run crosses segment", CompressionSegmented, 64, 1, []byte{4, 0, 6, 0, 0<<5 | 16, 0<<5 | 31, 0<<5 | 31}},
		{"segmented ends early", CompressionSegmented, 32, 1, []byte{2, 0, 0<<5 | 15}},
		{"segmented offset table short", CompressionSegmented, 64, 1, []byte{4, 0, 0<<5 | 31}},
		{"segmented width not a multiple of 32", CompressionSegmented, 40, 1, []byte{2, 0, 0<<5 | 31, 0<<5 | 7}},
		{"more pixels than payload can hold", CompressionRLE, 1 << 14, 1 << 14, make([]byte, 64)},
		{"raw more pixels than payload", CompressionRaw, 1 << 14, 1 << 14, make([]byte, 16)},
		{"unknown compression", Compression(4), 4, 1, []byte{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decompress(tt.c, tt.payload, tt.w, tt.h)
			ttesting.AssertErrorIs(t, "format error", err, ErrFormat)
		})
	}
}

// TestDecodeHandAssembled pins the whole resource layout without going
// through the test encoder.
func TestDecodeHandAssembled(t *testing.T) {
	b := &bytes.Buffer{}
	le := func(v ...interface{}) {
		for _, x := range v {
			binary.Write(b, binary.LittleEndian, x)
		}
	}
	le(uint32(0x43), uint32(16), uint32(8), uint32(1)) // type, canvas, groups
	b.Write(make([]byte, 768))                          // palette
	le(uint32(3), uint32(1), uint32(0), uint32(0))      // group id, frames, reserved
	b.Write([]byte("AvXHand0.pcx\x00"))                 // 13-byte name
	le(uint32(16 + 768 + 16 + 13 + 4))                  // frame offset
	payload := []byte{
		4, 0, 5, 0,
		5<<5 | 1,
		7<<5 | 1, 0x80, 0x81,
	}
	le(uint32(len(payload)), uint32(CompressionPackedRows),
		uint32(16), uint32(8), uint32(2), uint32(2), int32(7), int32(3))
	b.Write(payload)

	s, err := Decode(b.Bytes())
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	ttesting.AssertEqualUint32(t, "group id", s.Groups[0].ID, 3)
	f := s.Groups[0].Frames[0]
	ttesting.AssertEqualString(t, "frame", f.String(), "AvXHand0.pcx 2x2@(7,3)/16x8")
	ttesting.AssertEqualBytes(t, "pixels", f.Pixels, []byte{5, 5, 0x80, 0x81})
}
