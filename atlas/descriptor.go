package atlas

import (
	"bufio"
	"fmt"
	"image"
	"io"

	"github.com/pkg/errors"
)

// ErrSequence is returned when descriptor records are written out of
// order: a frame before the page header, or a second header.
var ErrSequence = errors.New("atlas: descriptor written out of sequence")

// FrameGeometry is the placement of a region within its original,
// uncropped canvas.
type FrameGeometry struct {
	Width, Height         int
	FullWidth, FullHeight int
	OffsetX, OffsetY      int
}

// DescriptorWriter streams a libGDX atlas descriptor for a single page.
type DescriptorWriter struct {
	w      *bufio.Writer
	header bool
}

func NewDescriptorWriter(w io.Writer) *DescriptorWriter {
	return &DescriptorWriter{w: bufio.NewWriter(w)}
}

// WriteHeader starts the page block. It must be called exactly once,
// before any WriteFrame.
func (d *DescriptorWriter) WriteHeader(pageImageName string, w, h int, f Format) error {
	if d.header {
		return errors.Wrap(ErrSequence, "page header already written")
	}
	d.header = true
	_, err := fmt.Fprintf(d.w, "\n%s\nsize: %d,%d\nformat: %s\nfilter: Nearest,Nearest\nrepeat: none\n", pageImageName, w, h, f)
	return err
}

// WriteFrame appends one region record. Records are written in call
// order; nothing is sorted or validated beyond the header check.
func (d *DescriptorWriter) WriteFrame(baseName string, index int, rect image.Rectangle, g FrameGeometry) error {
	if !d.header {
		return errors.Wrapf(ErrSequence, "frame %s/%d before page header", baseName, index)
	}
	_, err := fmt.Fprintf(d.w, "%s\n  rotate: false\n  xy: %d, %d\n  size: %d, %d\n  orig: %d, %d\n  offset: %d, %d\n  index: %d\n",
		baseName,
		rect.Min.X, rect.Min.Y,
		g.Width, g.Height,
		g.FullWidth, g.FullHeight,
		g.OffsetX, g.OffsetY,
		index)
	return err
}

// Flush writes any buffered records to the underlying writer.
func (d *DescriptorWriter) Flush() error {
	return d.w.Flush()
}
