package ttesting

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bradfitz/iter"

	"badc0de.net/pkg/go-heroes3/internal/cstring"
)

// DEFFrame is one frame to encode. Pixels holds Width*Height palette
// indices, row-major.
type DEFFrame struct {
	Name                  string
	FullWidth, FullHeight int
	Width, Height         int
	X, Y                  int
	Compression           uint32
	Pixels                []byte
}

// DEFGroup is an animation group.
type DEFGroup struct {
	ID     uint32
	Frames []DEFFrame
}

// DEFBuilder assembles a .def resource in memory.
type DEFBuilder struct {
	Type          uint32
	Width, Height int
	Palette       [256][3]byte
	Groups        []DEFGroup
}

// NewDEFBuilder returns a builder whose palette maps index i to (i, i, i).
func NewDEFBuilder(typ uint32, w, h int) *DEFBuilder {
	b := &DEFBuilder{Type: typ, Width: w, Height: h}
	for i := range iter.N(256) {
		b.Palette[i] = [3]byte{byte(i), byte(i), byte(i)}
	}
	return b
}

// AddGroup appends a group and returns the builder.
func (b *DEFBuilder) AddGroup(id uint32, frames ...DEFFrame) *DEFBuilder {
	b.Groups = append(b.Groups, DEFGroup{ID: id, Frames: frames})
	return b
}

// Bytes encodes the resource. It panics if a frame cannot be expressed in
// its requested compression, which only happens with a broken test.
func (b *DEFBuilder) Bytes() []byte {
	out := &bytes.Buffer{}
	binary.Write(out, binary.LittleEndian, b.Type)
	binary.Write(out, binary.LittleEndian, uint32(b.Width))
	binary.Write(out, binary.LittleEndian, uint32(b.Height))
	binary.Write(out, binary.LittleEndian, uint32(len(b.Groups)))
	for _, c := range b.Palette {
		out.Write(c[:])
	}

	// Group tables come first, frames after; frame offsets are known once
	// every table has been sized.
	tables := 0
	for _, g := range b.Groups {
		tables += 16 + len(g.Frames)*(13+4)
	}
	frameOffset := uint32(out.Len() + tables)

	var frames bytes.Buffer
	for _, g := range b.Groups {
		binary.Write(out, binary.LittleEndian, g.ID)
		binary.Write(out, binary.LittleEndian, uint32(len(g.Frames)))
		binary.Write(out, binary.LittleEndian, [2]uint32{})
		for _, f := range g.Frames {
			out.Write(cstring.Encode(f.Name, 13))
		}
		for _, f := range g.Frames {
			binary.Write(out, binary.LittleEndian, frameOffset+uint32(frames.Len()))
			frames.Write(EncodeDEFFrame(f))
		}
	}
	out.Write(frames.Bytes())
	return out.Bytes()
}

// EncodeDEFFrame encodes a single frame: its 32-byte header and payload.
func EncodeDEFFrame(f DEFFrame) []byte {
	if len(f.Pixels) != f.Width*f.Height {
		panic(fmt.Sprintf("frame %q: %d pixels for %dx%d", f.Name, len(f.Pixels), f.Width, f.Height))
	}
	var payload []byte
	switch f.Compression {
	case 0:
		payload = f.Pixels
	case 1:
		payload = encodeRowRLE(f)
	case 2:
		payload = encodePackedRows(f)
	case 3:
		payload = encodeSegmented(f)
	default:
		panic(fmt.Sprintf("frame %q: unknown compression %d", f.Name, f.Compression))
	}

	out := &bytes.Buffer{}
	for _, v := range []uint32{uint32(len(payload)), f.Compression, uint32(f.FullWidth), uint32(f.FullHeight), uint32(f.Width), uint32(f.Height)} {
		binary.Write(out, binary.LittleEndian, v)
	}
	binary.Write(out, binary.LittleEndian, int32(f.X))
	binary.Write(out, binary.LittleEndian, int32(f.Y))
	out.Write(payload)
	return out.Bytes()
}

// runs splits row into maximal runs of equal bytes no longer than max.
func runs(row []byte, max int) [][]byte {
	var out [][]byte
	for start := 0; start < len(row); {
		end := start + 1
		for end < len(row) && end-start < max && row[end] == row[start] {
			end++
		}
		out = append(out, row[start:end])
		start = end
	}
	return out
}

func encodeRowRLE(f DEFFrame) []byte {
	table := &bytes.Buffer{}
	data := &bytes.Buffer{}
	base := 4 * f.Height
	for y := range iter.N(f.Height) {
		binary.Write(table, binary.LittleEndian, uint32(base+data.Len()))
		row := f.Pixels[y*f.Width : (y+1)*f.Width]
		for _, run := range runs(row, 256) {
			if run[0] == 0xFF {
				// 0xFF is the literal marker; a run of it has to be a literal.
				data.WriteByte(0xFF)
				data.WriteByte(byte(len(run) - 1))
				data.Write(run)
				continue
			}
			data.WriteByte(run[0])
			data.WriteByte(byte(len(run) - 1))
		}
	}
	return append(table.Bytes(), data.Bytes()...)
}

// packRuns encodes row with 3-bit codes: indices below 7 as repeated runs,
// everything else as literal runs.
func packRuns(data *bytes.Buffer, row []byte) {
	for _, run := range runs(row, 32) {
		if run[0] < 7 {
			data.WriteByte(run[0]<<5 | byte(len(run)-1))
			continue
		}
		data.WriteByte(7<<5 | byte(len(run)-1))
		data.Write(run)
	}
}

func encodePackedRows(f DEFFrame) []byte {
	table := &bytes.Buffer{}
	data := &bytes.Buffer{}
	base := 2 * f.Height
	for y := range iter.N(f.Height) {
		binary.Write(table, binary.LittleEndian, uint16(base+data.Len()))
		packRuns(data, f.Pixels[y*f.Width:(y+1)*f.Width])
	}
	return append(table.Bytes(), data.Bytes()...)
}

func encodeSegmented(f DEFFrame) []byte {
	if f.Width%32 != 0 {
		panic(fmt.Sprintf("frame %q: segmented frames need a width that is a multiple of 32, got %d", f.Name, f.Width))
	}
	segs := f.Width / 32
	table := &bytes.Buffer{}
	data := &bytes.Buffer{}
	base := 2 * segs * f.Height
	for y := range iter.N(f.Height) {
		for s := range iter.N(segs) {
			binary.Write(table, binary.LittleEndian, uint16(base+data.Len()))
			start := y*f.Width + s*32
			packRuns(data, f.Pixels[start:start+32])
		}
	}
	return append(table.Bytes(), data.Bytes()...)
}

// Fill returns n copies of v.
func Fill(n int, v byte) []byte {
	return bytes.Repeat([]byte{v}, n)
}
