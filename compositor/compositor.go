// Package compositor turns decoded, palette-indexed DEF frames into
// true-color bitmaps.
//
// The first eight palette slots of every sprite are reserved by the engine
// for shadows and selection highlights. Their colors are replaced by a
// TransparencyKey, which also supplies the alpha each slot renders with.
//
// Shadow slots are painted with a flat translucent black. The game blends
// shadows against what is already on screen, so this is an approximation.
package compositor

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"badc0de.net/pkg/go-heroes3/def"
)

// ReservedIndex names the engine-reserved palette slots.
type ReservedIndex uint8

const (
	Transparent ReservedIndex = iota
	ShadowBorder
	ShadowBorderAlt
	ShadowBodyAlt
	ShadowBody
	Selection
	SelectionShadowBody
	SelectionShadowBorder

	// ReservedCount is the number of reserved slots.
	ReservedCount = 8
)

var reservedNames = [ReservedCount]string{
	"transparent",
	"shadow-border",
	"shadow-border-alt",
	"shadow-body-alt",
	"shadow-body",
	"selection",
	"selection-shadow-body",
	"selection-shadow-border",
}

func (r ReservedIndex) String() string {
	if int(r) < ReservedCount {
		return reservedNames[r]
	}
	return fmt.Sprintf("index(%d)", uint8(r))
}

// TransparencyKey maps reserved slots to the color they render as. Slots
// missing from the key fall back to the palette, fully opaque.
type TransparencyKey map[ReservedIndex]color.NRGBA

var defaultAlpha = [ReservedCount]uint8{0x00, 0x40, 0x00, 0x00, 0x80, 0xFF, 0x80, 0x40}

// DefaultTransparencyKey returns the key the game itself uses. Each call
// returns a fresh map.
func DefaultTransparencyKey() TransparencyKey {
	k := make(TransparencyKey, ReservedCount)
	for i, c := range def.ReservedColors {
		k[ReservedIndex(i)] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: defaultAlpha[i]}
	}
	return k
}

// Composite paints f through palette p into a new Width x Height bitmap.
//
// It cannot fail: each pixel is a byte and the palette has 256 entries.
// Decoded frames always carry Width*Height pixels; if a hand-built frame
// carries fewer, the missing pixels stay transparent.
func Composite(f def.Frame, p def.Palette, key TransparencyKey) *image.NRGBA {
	var lut [256]color.NRGBA
	for i := range lut {
		lut[i] = p.Color(uint8(i))
	}
	for idx, c := range key {
		if int(idx) < ReservedCount {
			lut[idx] = c
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		start := y * f.Width
		if start >= len(f.Pixels) {
			break
		}
		row := f.Pixels[start:min(start+f.Width, len(f.Pixels))]
		o := img.PixOffset(0, y)
		for _, v := range row {
			c := lut[v]
			img.Pix[o+0] = c.R
			img.Pix[o+1] = c.G
			img.Pix[o+2] = c.B
			img.Pix[o+3] = c.A
			o += 4
		}
	}
	return img
}

// Expand places bmp at the frame's crop offset on a transparent canvas of
// the frame's full size. It returns the matching frame: offset (0,0), size
// equal to the full size and indices padded with Transparent. Neither f nor
// bmp is modified.
func Expand(f def.Frame, bmp *image.NRGBA) (def.Frame, *image.NRGBA) {
	canvas := image.NewNRGBA(image.Rect(0, 0, f.FullWidth, f.FullHeight))
	at := image.Rect(f.X, f.Y, f.X+f.Width, f.Y+f.Height)
	draw.Draw(canvas, at, bmp, bmp.Bounds().Min, draw.Src)

	out := f
	out.X, out.Y = 0, 0
	out.Width, out.Height = f.FullWidth, f.FullHeight
	out.Pixels = make([]byte, f.FullWidth*f.FullHeight)
	for y := 0; y < f.Height && len(f.Pixels) >= (y+1)*f.Width; y++ {
		copy(out.Pixels[(f.Y+y)*f.FullWidth+f.X:], f.Pixels[y*f.Width:(y+1)*f.Width])
	}
	return out, canvas
}
