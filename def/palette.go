package def

import "image/color"

// RGB is one palette entry. DEF palettes carry no alpha.
type RGB struct {
	R, G, B uint8
}

// Palette is the 256-entry color table of a sprite.
type Palette [256]RGB

// ReservedColors are the colors the engine substitutes for the first
// palette slots of every sprite. Those slots encode shadows and selection
// highlights; the colors stored in the file are never used.
var ReservedColors = [8]RGB{
	{0, 0, 0},
	{0, 0, 0},
	{0, 0, 0},
	{0, 0, 0},
	{0, 0, 0},
	{0x80, 0x80, 0x80},
	{0, 0, 0},
	{0, 0, 0},
}

// WithReserved returns a copy of p with the reserved prefix overwritten by
// ReservedColors. p itself is left alone.
func (p Palette) WithReserved() Palette {
	copy(p[:], ReservedColors[:])
	return p
}

// Color returns entry i as an opaque color.
func (p Palette) Color(i uint8) color.NRGBA {
	c := p[i]
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
}
