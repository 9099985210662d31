package atlas

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// WriteIndexedPNG encodes img as a paletted PNG of at most 256 colors.
// Palette entry 0 is reserved for full transparency. The result is much
// smaller than a true-color page but loses the graded shadow alphas.
func WriteIndexedPNG(w io.Writer, img image.Image) error {
	pal := make(color.Palette, 0, 256)
	pal = append(pal, color.NRGBA{})
	q := quantize.MedianCutQuantizer{AddTransparent: false}
	pal = q.Quantize(pal, img)

	pm := image.NewPaletted(img.Bounds(), pal)
	draw.Draw(pm, pm.Bounds(), img, img.Bounds().Min, draw.Src)

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, pm); err != nil {
		return errors.Wrap(err, "encoding indexed png")
	}
	return nil
}
