// Package imageprint prints images on a terminal. It is meant for quick
// looks at decoded sprites and packed pages, not for faithful reproduction.
//
// This package has an API with no stability guarantees.
package imageprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	ic "image/color"
	"image/png"
	"io"
	"os"

	"github.com/gookit/color"
)

// Printer writes images as colored character cells, two cells per pixel.
type Printer struct {
	W io.Writer
	// Blanks paints solid cells instead of shading characters.
	Blanks bool
}

func stdout(blanks bool) Printer {
	return Printer{W: os.Stdout, Blanks: blanks}
}

const reset = "\x1b[0m"

// cell returns the two characters for a pixel of the given brightness.
func (p Printer) cell(r, g, b uint8) string {
	if p.Blanks {
		return "  "
	}
	switch a := (int(r) + int(g) + int(b)) / 3; {
	case a < 32:
		return ".."
	case a < 64:
		return "--"
	case a < 128:
		return "=="
	}
	return "##"
}

// rgb8 returns c blended over black as 8-bit channels, and whether the
// pixel is fully transparent.
func rgb8(c ic.Color) (r, g, b uint8, transparent bool) {
	cr, cg, cb, ca := c.RGBA()
	return uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8), ca == 0
}

func (p Printer) each(i image.Image, pixel func(c ic.Color) string, lineEnd string) {
	for y := i.Bounds().Min.Y; y < i.Bounds().Max.Y; y++ {
		for x := i.Bounds().Min.X; x < i.Bounds().Max.X; x++ {
			fmt.Fprint(p.W, pixel(i.At(x, y)))
		}
		fmt.Fprint(p.W, lineEnd+"\n")
	}
}

// Print256Color draws an image using the terminal's 256 color palette.
func (p Printer) Print256Color(i image.Image) {
	p.each(i, func(c ic.Color) string {
		r, g, b, transparent := rgb8(c)
		if transparent {
			return reset + "  "
		}
		return color.C256(xterm256(r, g, b), true).Sprint(p.cell(r, g, b))
	}, reset)
}

// xterm256 maps a color to the nearest entry of the 6x6x6 cube or the
// gray ramp of the xterm 256 color palette.
func xterm256(r, g, b uint8) uint8 {
	cube := func(v uint8) int {
		if v < 48 {
			return 0
		}
		if v < 115 {
			return 1
		}
		return (int(v) - 35) / 40
	}
	if r == g && g == b {
		switch {
		case r < 8:
			return 16
		case r > 238:
			return 231
		}
		return uint8(232 + (int(r)-8)/10)
	}
	return uint8(16 + 36*cube(r) + 6*cube(g) + cube(b))
}

// Print24bit draws an image using 24bit color escape sequences by changing
// the background.
func (p Printer) Print24bit(i image.Image) {
	p.each(i, func(c ic.Color) string {
		r, g, b, transparent := rgb8(c)
		if transparent {
			return reset + "  "
		}
		return fmt.Sprintf("\x1b[48;2;%d;%d;%dm%s", r, g, b, p.cell(r, g, b))
	}, reset)
}

// PrintNoColor draws an image without color escape sequences. Transparent
// pixels are blank, everything else is shaded by brightness.
func (p Printer) PrintNoColor(i image.Image) {
	shaded := p
	shaded.Blanks = false
	p.each(i, func(c ic.Color) string {
		r, g, b, transparent := rgb8(c)
		if transparent {
			return "  "
		}
		return shaded.cell(r, g, b)
	}, "")
}

// Print256Color draws an image on stdout; see Printer.Print256Color.
func Print256Color(i image.Image, blanks bool) {
	stdout(blanks).Print256Color(i)
}

// Print24bit draws an image on stdout; see Printer.Print24bit.
func Print24bit(i image.Image, blanks bool) {
	stdout(blanks).Print24bit(i)
}

// PrintNoColor draws an image on stdout; see Printer.PrintNoColor.
func PrintNoColor(i image.Image) {
	stdout(false).PrintNoColor(i)
}

// PrintITerm draws an image using iTerm2's escape sequences, if the
// terminal looks like it understands them.
//
// https://www.iterm2.com/documentation-images.html
func PrintITerm(i image.Image, fn string) {
	if !isTermItermWez() {
		return
	}
	WriteITerm(os.Stdout, i, fn)
}

// WriteITerm writes the iTerm2 inline image sequence for i to w without
// checking the terminal.
func WriteITerm(w io.Writer, i image.Image, fn string) error {
	name := base64.StdEncoding.EncodeToString([]byte(fn))
	b := &bytes.Buffer{}
	bEnc := base64.NewEncoder(base64.StdEncoding, b)
	if err := png.Encode(bEnc, i); err != nil {
		return err
	}
	bEnc.Close()
	_, err := fmt.Fprintf(w, "\n\033]1337;File=name=%s;inline=1;size=%d,width=%dpx;height=%dpx:%s\a\n", name, b.Len(), i.Bounds().Size().X, i.Bounds().Size().Y, b.String())
	return err
}
