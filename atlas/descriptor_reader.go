package atlas

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Descriptor is a parsed single-page atlas descriptor.
type Descriptor struct {
	Image   string
	Size    image.Point
	Format  Format
	Filter  string
	Repeat  string
	Regions []Region
}

// Region is one frame record of a descriptor.
type Region struct {
	Name   string
	Index  int
	Rotate bool
	XY     image.Point
	FrameGeometry
}

// Rect is the region's rectangle on the page.
func (r Region) Rect() image.Rectangle {
	return image.Rectangle{Min: r.XY, Max: r.XY.Add(image.Pt(r.Width, r.Height))}
}

// Lookup returns the region with the given name and index.
func (d *Descriptor) Lookup(name string, index int) (Region, bool) {
	for _, r := range d.Regions {
		if r.Name == name && r.Index == index {
			return r, true
		}
	}
	return Region{}, false
}

// ReadDescriptor parses what DescriptorWriter produces. Only the first
// page block is read; unknown keys are ignored.
func ReadDescriptor(r io.Reader) (*Descriptor, error) {
	d := &Descriptor{}
	s := bufio.NewScanner(r)
	lineNo := 0
	var cur *Region
	for s.Scan() {
		lineNo++
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			if d.Image != "" {
				// A blank line after the page block starts the next page.
				break
			}
			continue
		}
		key, value, isField := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case d.Image == "":
			d.Image = line
		case !isField:
			d.Regions = append(d.Regions, Region{Name: line, Index: -1})
			cur = &d.Regions[len(d.Regions)-1]
		case cur == nil:
			if err := d.parseHeaderField(key, value); err != nil {
				return nil, errors.Wrapf(err, "descriptor line %d", lineNo)
			}
		default:
			if err := cur.parseField(key, value); err != nil {
				return nil, errors.Wrapf(err, "descriptor line %d", lineNo)
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "reading descriptor")
	}
	if d.Image == "" {
		return nil, errors.New("descriptor has no page")
	}
	return d, nil
}

func (d *Descriptor) parseHeaderField(key, value string) error {
	var err error
	switch key {
	case "size":
		d.Size, err = parsePair(value)
	case "format":
		d.Format, err = ParseFormat(value)
	case "filter":
		d.Filter = value
	case "repeat":
		d.Repeat = value
	}
	return err
}

func (r *Region) parseField(key, value string) error {
	var (
		p   image.Point
		err error
	)
	switch key {
	case "rotate":
		r.Rotate, err = strconv.ParseBool(value)
	case "xy":
		r.XY, err = parsePair(value)
	case "size":
		p, err = parsePair(value)
		r.Width, r.Height = p.X, p.Y
	case "orig":
		p, err = parsePair(value)
		r.FullWidth, r.FullHeight = p.X, p.Y
	case "offset":
		p, err = parsePair(value)
		r.OffsetX, r.OffsetY = p.X, p.Y
	case "index":
		r.Index, err = strconv.Atoi(value)
	}
	return err
}

func parsePair(s string) (image.Point, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return image.Point{}, fmt.Errorf("want two comma separated numbers, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return image.Point{}, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}
