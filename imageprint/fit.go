package imageprint

import (
	"image"

	"github.com/nfnt/resize"
)

// Fit shrinks img to fit the terminal. Character cell output spends two
// columns per pixel; graphics output uses the terminal's pixel size when
// it is known. Images that already fit are returned unchanged.
func Fit(img image.Image, sz TermSize, graphics bool) image.Image {
	var maxW, maxH uint
	switch {
	case graphics && sz.WSXPixel != 0 && sz.WSYPixel != 0:
		maxW, maxH = sz.WSXPixel/2, sz.WSYPixel/2
	case sz.WSCol != 0 && sz.WSRow != 0:
		maxW, maxH = sz.WSCol/2, sz.WSRow-1
	default:
		maxW, maxH = 40, 24
	}
	b := img.Bounds()
	if uint(b.Dx()) <= maxW && uint(b.Dy()) <= maxH {
		return img
	}
	// Nearest neighbour keeps palette sprites crisp.
	return resize.Thumbnail(maxW, maxH, img, resize.NearestNeighbor)
}
