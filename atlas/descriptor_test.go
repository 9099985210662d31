package atlas

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"badc0de.net/pkg/go-heroes3/ttesting"
)

func TestDescriptorWriter(t *testing.T) {
	var buf bytes.Buffer
	d := NewDescriptorWriter(&buf)
	if err := d.WriteHeader("sprites.png", 8192, 8192, RGBA4444); err != nil {
		t.Fatalf("failed to write header: %s", err)
	}
	if err := d.WriteFrame("crtrain", 0, image.Rect(32, 64, 64, 96), FrameGeometry{
		Width: 32, Height: 32, FullWidth: 32, FullHeight: 32,
	}); err != nil {
		t.Fatalf("failed to write frame: %s", err)
	}
	if err := d.WriteFrame("avwattack", 3, image.Rect(0, 0, 10, 12), FrameGeometry{
		Width: 10, Height: 12, FullWidth: 64, FullHeight: 32, OffsetX: 7, OffsetY: 9,
	}); err != nil {
		t.Fatalf("failed to write frame: %s", err)
	}
	if err := d.Flush(); err != nil {
		t.Fatalf("failed to flush: %s", err)
	}

	want := strings.Join([]string{
		"",
		"sprites.png",
		"size: 8192,8192",
		"format: RGBA4444",
		"filter: Nearest,Nearest",
		"repeat: none",
		"crtrain",
		"  rotate: false",
		"  xy: 32, 64",
		"  size: 32, 32",
		"  orig: 32, 32",
		"  offset: 0, 0",
		"  index: 0",
		"avwattack",
		"  rotate: false",
		"  xy: 0, 0",
		"  size: 10, 12",
		"  orig: 64, 32",
		"  offset: 7, 9",
		"  index: 3",
		"",
	}, "\n")
	ttesting.AssertEqualString(t, "descriptor", buf.String(), want)
}

func TestDescriptorSequence(t *testing.T) {
	var buf bytes.Buffer
	d := NewDescriptorWriter(&buf)
	err := d.WriteFrame("early", 0, image.Rect(0, 0, 1, 1), FrameGeometry{Width: 1, Height: 1})
	ttesting.AssertErrorIs(t, "frame before header", err, ErrSequence)

	if err := d.WriteHeader("a.png", 1, 1, RGBA8888); err != nil {
		t.Fatalf("failed to write header: %s", err)
	}
	err = d.WriteHeader("b.png", 1, 1, RGBA8888)
	ttesting.AssertErrorIs(t, "second header", err, ErrSequence)

	d.Flush()
	if strings.Contains(buf.String(), "early") || strings.Contains(buf.String(), "b.png") {
		t.Errorf("rejected records were written: %q", buf.String())
	}
}

func TestReadDescriptor(t *testing.T) {
	var buf bytes.Buffer
	d := NewDescriptorWriter(&buf)
	d.WriteHeader("sprites.png", 512, 256, RGBA8888)
	d.WriteFrame("tgrs", 0, image.Rect(0, 0, 32, 32), FrameGeometry{Width: 32, Height: 32, FullWidth: 32, FullHeight: 32})
	d.WriteFrame("avwattack", 1, image.Rect(32, 0, 42, 12), FrameGeometry{Width: 10, Height: 12, FullWidth: 64, FullHeight: 32, OffsetX: 7, OffsetY: 9})
	d.Flush()

	got, err := ReadDescriptor(&buf)
	if err != nil {
		t.Fatalf("failed to read descriptor: %s", err)
	}
	ttesting.AssertEqualString(t, "image", got.Image, "sprites.png")
	ttesting.AssertEqualInt(t, "width", got.Size.X, 512)
	ttesting.AssertEqualInt(t, "height", got.Size.Y, 256)
	ttesting.AssertEqualString(t, "format", got.Format.String(), "RGBA8888")
	ttesting.AssertEqualString(t, "filter", got.Filter, "Nearest,Nearest")
	ttesting.AssertEqualInt(t, "regions", len(got.Regions), 2)

	r, ok := got.Lookup("avwattack", 1)
	if !ok {
		t.Fatalf("avwattack/1 not found")
	}
	ttesting.AssertEqualRect(t, "rect", r.Rect(), image.Rect(32, 0, 42, 12))
	ttesting.AssertEqualInt(t, "orig width", r.FullWidth, 64)
	ttesting.AssertEqualInt(t, "offset y", r.OffsetY, 9)
	if r.Rotate {
		t.Errorf("rotate: got true; want false")
	}
	if _, ok := got.Lookup("avwattack", 0); ok {
		t.Errorf("avwattack/0 found")
	}
}

func TestReadDescriptorErrors(t *testing.T) {
	for _, tt := range []struct {
		name, in string
	}{
		{"empty", "\n\n"},
		{"bad size", "\na.png\nsize: 1\n"},
		{"bad index", "\na.png\nsize: 1,1\nx\n  index: one\n"},
		{"bad format", "\na.png\nformat: RGB565\n"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadDescriptor(strings.NewReader(tt.in)); err == nil {
				t.Errorf("got no error")
			}
		})
	}
}
