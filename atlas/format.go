package atlas

import (
	"fmt"
	"image/color"
	"strings"
)

// Format is the pixel format a page is stored in. It is recorded in the
// descriptor header and decides how pixels are quantized when blitted.
type Format int

const (
	RGBA4444 Format = iota
	RGBA8888
)

func (f Format) String() string {
	switch f {
	case RGBA4444:
		return "RGBA4444"
	case RGBA8888:
		return "RGBA8888"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat accepts the names String returns, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(s) {
	case "RGBA4444":
		return RGBA4444, nil
	case "RGBA8888":
		return RGBA8888, nil
	}
	return 0, fmt.Errorf("unknown page format %q", s)
}

// Set implements flag.Value.
func (f *Format) Set(s string) error {
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Quantize rounds c to what the format can store.
func (f Format) Quantize(c color.NRGBA) color.NRGBA {
	if f != RGBA4444 {
		return c
	}
	return color.NRGBA{R: q4(c.R), G: q4(c.G), B: q4(c.B), A: q4(c.A)}
}

// q4 keeps the top nibble and replicates it, so 0xF maps back to 0xFF.
func q4(v uint8) uint8 {
	return (v >> 4) * 0x11
}
