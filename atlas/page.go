package atlas

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// ErrPageFull is returned by Pack when a bitmap does not fit in the space
// left on the page.
var ErrPageFull = errors.New("atlas: page full")

// Page is a fixed-size canvas plus the placement of every region packed
// into it. It is not safe for concurrent use.
type Page struct {
	width, height int
	format        Format
	strategy      Strategy

	img   *image.NRGBA
	rects map[string]image.Rectangle
	names []string
	used  int

	dedup     bool
	byContent map[uint64][]image.Rectangle
	shared    int
}

// PageOption configures a Page.
type PageOption func(*Page)

// WithStrategy replaces the default GuillotineStrategy.
func WithStrategy(s Strategy) PageOption {
	return func(p *Page) {
		p.strategy = s
	}
}

// WithContentDedup makes bitmaps that are pixel-identical, after
// quantization, share one rectangle regardless of their names.
func WithContentDedup() PageOption {
	return func(p *Page) {
		p.dedup = true
		p.byContent = map[uint64][]image.Rectangle{}
	}
}

// NewPage returns an empty, fully transparent w x h page.
func NewPage(w, h int, f Format, opts ...PageOption) *Page {
	p := &Page{
		width:    w,
		height:   h,
		format:   f,
		strategy: NewGuillotineStrategy(),
		img:      image.NewNRGBA(image.Rect(0, 0, w, h)),
		rects:    map[string]image.Rectangle{},
	}
	for _, o := range opts {
		o(p)
	}
	p.strategy.Reset(w, h)
	return p
}

// Pack places bmp on the page under name and returns where it went.
//
// Packing a name a second time returns the first rectangle and touches
// nothing. A bitmap with no pixels gets an empty rectangle at the origin.
// Padding between regions is zero.
func (p *Page) Pack(name string, bmp image.Image) (image.Rectangle, error) {
	if r, ok := p.rects[name]; ok {
		return r, nil
	}
	size := bmp.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		p.remember(name, image.Rectangle{})
		return image.Rectangle{}, nil
	}

	q := p.quantize(bmp)

	var key uint64
	if p.dedup {
		key = contentKey(q)
		for _, r := range p.byContent[key] {
			if p.sameContent(r, q) {
				glog.V(2).Infof("atlas: %s shares %v", name, r)
				p.shared++
				p.remember(name, r)
				return r, nil
			}
		}
	}

	at, ok := p.strategy.Place(size)
	if !ok {
		return image.Rectangle{}, errors.Wrapf(ErrPageFull, "no room for %q (%dx%d) on %dx%d page with %d regions", name, size.X, size.Y, p.width, p.height, len(p.names))
	}
	r := image.Rectangle{Min: at, Max: at.Add(size)}
	copyRows(p.img, r.Min, q)
	p.used += size.X * size.Y
	if p.dedup {
		p.byContent[key] = append(p.byContent[key], r)
	}
	p.remember(name, r)
	glog.V(2).Infof("atlas: packed %s at %v", name, r)
	return r, nil
}

func (p *Page) remember(name string, r image.Rectangle) {
	p.rects[name] = r
	p.names = append(p.names, name)
}

// quantize returns a copy of bmp, rebased to the origin, holding only
// colors the page format can represent.
func (p *Page) quantize(bmp image.Image) *image.NRGBA {
	b := bmp.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := bmp.(*image.NRGBA); ok {
		copyRows(out, image.Point{}, src)
	} else {
		draw.Draw(out, out.Bounds(), bmp, b.Min, draw.Src)
	}
	if p.format == RGBA8888 {
		return out
	}
	for i := 0; i < len(out.Pix); i += 4 {
		c := p.format.Quantize(color.NRGBA{out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3]})
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return out
}

// copyRows copies src onto dst at the given point. Unlike draw.Src it
// does not round-trip through premultiplied alpha, so translucent pixels
// keep their exact straight-alpha values.
func copyRows(dst *image.NRGBA, at image.Point, src *image.NRGBA) {
	b := src.Bounds()
	rowLen := 4 * b.Dx()
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[dst.PixOffset(at.X, at.Y+y):][:rowLen], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):][:rowLen])
	}
}

func contentKey(img *image.NRGBA) uint64 {
	d := xxhash.New()
	size := img.Bounds().Size()
	d.Write([]byte{byte(size.X), byte(size.X >> 8), byte(size.Y), byte(size.Y >> 8)})
	d.Write(img.Pix)
	return d.Sum64()
}

// sameContent compares img with what is already drawn at r.
func (p *Page) sameContent(r image.Rectangle, img *image.NRGBA) bool {
	if r.Size() != img.Bounds().Size() {
		return false
	}
	rowLen := 4 * r.Dx()
	for y := 0; y < r.Dy(); y++ {
		have := p.img.Pix[p.img.PixOffset(r.Min.X, r.Min.Y+y):][:rowLen]
		want := img.Pix[img.PixOffset(0, y):][:rowLen]
		if !bytes.Equal(have, want) {
			return false
		}
	}
	return true
}

// Rect returns the rectangle packed under name.
func (p *Page) Rect(name string) (image.Rectangle, bool) {
	r, ok := p.rects[name]
	return r, ok
}

// Len is the number of distinct names packed.
func (p *Page) Len() int {
	return len(p.names)
}

// Names returns packed names in the order they were first packed.
func (p *Page) Names() []string {
	return append([]string(nil), p.names...)
}

// UsedArea is the number of pixels covered by placed regions. Regions
// shared through content dedup are counted once.
func (p *Page) UsedArea() int {
	return p.used
}

// Shared is the number of names that reuse another name's region.
func (p *Page) Shared() int {
	return p.shared
}

// Image returns the page canvas. The caller must not modify it.
func (p *Page) Image() *image.NRGBA {
	return p.img
}

func (p *Page) Format() Format {
	return p.format
}

// Size returns the page dimensions.
func (p *Page) Size() image.Point {
	return image.Pt(p.width, p.height)
}

// WritePNG encodes the page as a true-color PNG.
func (p *Page) WritePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, p.img); err != nil {
		return errors.Wrap(err, "encoding page png")
	}
	return nil
}
