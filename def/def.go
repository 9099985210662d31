package def

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-heroes3/internal/cstring"
)

// ErrFormat is returned for any structural inconsistency in a DEF.
var ErrFormat = errors.New("def: malformed resource")

const (
	frameNameSize   = 13
	frameHeaderSize = 32
)

type header struct {
	Type       uint32
	Width      uint32
	Height     uint32
	GroupCount uint32
	Palette    Palette
}

type groupHeader struct {
	ID         uint32
	FrameCount uint32
	Reserved   [2]uint32
}

type frameHeader struct {
	Size        uint32
	Compression uint32
	FullWidth   uint32
	FullHeight  uint32
	Width       uint32
	Height      uint32
	X           int32
	Y           int32
}

// Sprite is one decoded DEF resource.
type Sprite struct {
	Type          uint32 // same values as the archive's lod.Kind
	Width, Height int
	Palette       Palette
	Groups        []Group
}

// Group is an animation sequence.
type Group struct {
	ID     uint32
	Names  []string
	Frames []Frame
}

// Frame is one cropped, palette-indexed bitmap.
//
// X+Width <= FullWidth and Y+Height <= FullHeight always hold, and Pixels
// holds exactly Width*Height indices.
type Frame struct {
	Name                  string
	Width, Height         int
	FullWidth, FullHeight int
	X, Y                  int
	Compression           Compression
	Pixels                []byte
}

// Frames returns every frame in group order.
func (s *Sprite) Frames() []Frame {
	var out []Frame
	for _, g := range s.Groups {
		out = append(out, g.Frames...)
	}
	return out
}

// Config describes a DEF without decoding any frame payload.
type Config struct {
	Type          uint32
	Width, Height int
	Groups        []GroupConfig
}

// GroupConfig is the frame count of one group.
type GroupConfig struct {
	ID         uint32
	FrameCount int
}

func formatErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrFormat, format, args...)
}

// DecodeConfig reads the header and group tables of b.
func DecodeConfig(b []byte) (Config, error) {
	h, groups, err := decodeTables(b)
	if err != nil {
		return Config{}, err
	}
	c := Config{Type: h.Type, Width: int(h.Width), Height: int(h.Height)}
	for _, g := range groups {
		c.Groups = append(c.Groups, GroupConfig{ID: g.ID, FrameCount: len(g.offsets)})
	}
	return c, nil
}

type groupTable struct {
	ID      uint32
	names   []string
	offsets []uint32
}

func decodeTables(b []byte) (header, []groupTable, error) {
	r := bytes.NewReader(b)
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, nil, formatErrorf("reading header: %v", err)
	}
	// Every group needs at least its 16-byte header.
	if int64(h.GroupCount) > int64(r.Len())/16 {
		return h, nil, formatErrorf("%d groups do not fit in %d bytes", h.GroupCount, r.Len())
	}

	groups := make([]groupTable, 0, h.GroupCount)
	for i := 0; i < int(h.GroupCount); i++ {
		var gh groupHeader
		if err := binary.Read(r, binary.LittleEndian, &gh); err != nil {
			return h, nil, formatErrorf("reading group %d header: %v", i, err)
		}
		if int64(gh.FrameCount) > int64(r.Len())/(frameNameSize+4) {
			return h, nil, formatErrorf("group %d: %d frames do not fit in %d bytes", i, gh.FrameCount, r.Len())
		}
		g := groupTable{ID: gh.ID}
		name := make([]byte, frameNameSize)
		for j := 0; j < int(gh.FrameCount); j++ {
			if _, err := io.ReadFull(r, name); err != nil {
				return h, nil, formatErrorf("group %d: reading frame name %d: %v", i, j, err)
			}
			g.names = append(g.names, cstring.CString(name).String())
		}
		g.offsets = make([]uint32, gh.FrameCount)
		if err := binary.Read(r, binary.LittleEndian, g.offsets); err != nil {
			return h, nil, formatErrorf("group %d: reading frame offsets: %v", i, err)
		}
		groups = append(groups, g)
	}
	return h, groups, nil
}

// Decode parses a whole DEF resource, including every frame's pixels.
func Decode(b []byte) (*Sprite, error) {
	h, groups, err := decodeTables(b)
	if err != nil {
		return nil, err
	}
	s := &Sprite{
		Type:    h.Type,
		Width:   int(h.Width),
		Height:  int(h.Height),
		Palette: h.Palette,
		Groups:  make([]Group, 0, len(groups)),
	}
	for gi, gt := range groups {
		g := Group{ID: gt.ID, Names: gt.names, Frames: make([]Frame, 0, len(gt.offsets))}
		for fi, off := range gt.offsets {
			f, err := decodeFrame(b, int64(off))
			if err != nil {
				return nil, errors.Wrapf(err, "group %d frame %d (%q)", gi, fi, gt.names[fi])
			}
			f.Name = gt.names[fi]
			g.Frames = append(g.Frames, f)
		}
		s.Groups = append(s.Groups, g)
	}
	return s, nil
}

func decodeFrame(b []byte, off int64) (Frame, error) {
	if off < 0 || off+frameHeaderSize > int64(len(b)) {
		return Frame{}, formatErrorf("frame header at %d outside of %d byte resource", off, len(b))
	}
	var fh frameHeader
	if err := binary.Read(bytes.NewReader(b[off:off+frameHeaderSize]), binary.LittleEndian, &fh); err != nil {
		return Frame{}, formatErrorf("reading frame header: %v", err)
	}

	f := Frame{
		Width:       int(fh.Width),
		Height:      int(fh.Height),
		FullWidth:   int(fh.FullWidth),
		FullHeight:  int(fh.FullHeight),
		X:           int(fh.X),
		Y:           int(fh.Y),
		Compression: Compression(fh.Compression),
	}
	if err := f.checkGeometry(); err != nil {
		return Frame{}, err
	}

	start := off + frameHeaderSize
	end := start + int64(fh.Size)
	if end > int64(len(b)) {
		return Frame{}, formatErrorf("payload of %d bytes at %d overruns %d byte resource", fh.Size, start, len(b))
	}

	pix, err := decompress(f.Compression, b[start:end], f.Width, f.Height)
	if err != nil {
		return Frame{}, err
	}
	f.Pixels = pix
	return f, nil
}

func (f Frame) checkGeometry() error {
	// Guard against absurd sizes before anything is allocated.
	const maxSide = 1 << 14
	if f.Width > maxSide || f.Height > maxSide || f.FullWidth > maxSide || f.FullHeight > maxSide {
		return formatErrorf("frame too large: %dx%d of %dx%d", f.Width, f.Height, f.FullWidth, f.FullHeight)
	}
	if f.X < 0 || f.Y < 0 {
		return formatErrorf("negative crop offset (%d,%d)", f.X, f.Y)
	}
	if f.X+f.Width > f.FullWidth || f.Y+f.Height > f.FullHeight {
		return formatErrorf("crop %dx%d at (%d,%d) exceeds canvas %dx%d", f.Width, f.Height, f.X, f.Y, f.FullWidth, f.FullHeight)
	}
	return nil
}

func (f Frame) String() string {
	return fmt.Sprintf("%s %dx%d@(%d,%d)/%dx%d", f.Name, f.Width, f.Height, f.X, f.Y, f.FullWidth, f.FullHeight)
}
