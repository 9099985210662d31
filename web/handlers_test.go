package web

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"badc0de.net/pkg/go-heroes3/atlas"
	"badc0de.net/pkg/go-heroes3/ttesting"
)

// writeAtlas packs two small regions and writes the page and descriptor
// into a temporary directory.
func writeAtlas(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	page := atlas.NewPage(64, 64, atlas.RGBA8888)

	red := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := 0; i < len(red.Pix); i += 4 {
		copy(red.Pix[i:], []byte{255, 0, 0, 255})
	}
	blue := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(blue.Pix); i += 4 {
		copy(blue.Pix[i:], []byte{0, 0, 255, 255})
	}

	var desc bytes.Buffer
	d := atlas.NewDescriptorWriter(&desc)
	d.WriteHeader("sprites.png", 64, 64, atlas.RGBA8888)
	r, _ := page.Pack("red.pcx", red)
	d.WriteFrame("avxred", 0, r, atlas.FrameGeometry{Width: 4, Height: 3, FullWidth: 8, FullHeight: 8, OffsetX: 2, OffsetY: 1})
	r, _ = page.Pack("blue.pcx", blue)
	d.WriteFrame("tgrs", 5, r, atlas.FrameGeometry{Width: 2, Height: 2, FullWidth: 2, FullHeight: 2})
	d.Flush()

	descPath := filepath.Join(dir, "sprites.atlas")
	if err := os.WriteFile(descPath, desc.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write descriptor: %s", err)
	}
	f, err := os.Create(filepath.Join(dir, "sprites.png"))
	if err != nil {
		t.Fatalf("failed to create page: %s", err)
	}
	defer f.Close()
	if err := page.WritePNG(f); err != nil {
		t.Fatalf("failed to write page: %s", err)
	}
	return descPath
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	h, err := NewHandler(writeAtlas(t))
	if err != nil {
		t.Fatalf("failed to create handler: %s", err)
	}
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	s := httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func get(t *testing.T, s *httptest.Server, path string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest("GET", s.URL+path, nil)
	if err != nil {
		t.Fatalf("failed to create request: %s", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to get %s: %s", path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func TestRegion(t *testing.T) {
	s := newServer(t)

	resp, body := get(t, s, "/region/avxred/0.png", nil)
	ttesting.AssertEqualInt(t, "status", resp.StatusCode, http.StatusOK)
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to decode region: %s", err)
	}
	ttesting.AssertEqualInt(t, "width", img.Bounds().Dx(), 4)
	ttesting.AssertEqualInt(t, "height", img.Bounds().Dy(), 3)
	if got := color.NRGBAModel.Convert(img.At(img.Bounds().Min.X, img.Bounds().Min.Y)); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("pixel: got %v; want red", got)
	}

	etag := resp.Header.Get("ETag")
	resp, _ = get(t, s, "/region/avxred/0.png", http.Header{"If-None-Match": {etag}})
	ttesting.AssertEqualInt(t, "conditional status", resp.StatusCode, http.StatusNotModified)

	resp, body = get(t, s, "/region/avxred/0.png?orig=1", nil)
	ttesting.AssertEqualInt(t, "orig status", resp.StatusCode, http.StatusOK)
	img, err = png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to decode region: %s", err)
	}
	ttesting.AssertEqualRect(t, "orig bounds", img.Bounds(), image.Rect(0, 0, 8, 8))
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Errorf("outside the crop: got alpha %d; want 0", a)
	}
	if r, _, _, _ := img.At(2, 1).RGBA(); r != 0xFFFF {
		t.Errorf("at the crop offset: got red %d; want 65535", r)
	}

	resp, _ = get(t, s, "/region/avxred/1.png", nil)
	ttesting.AssertEqualInt(t, "missing status", resp.StatusCode, http.StatusNotFound)
}

func TestPageAndDescriptor(t *testing.T) {
	s := newServer(t)

	resp, body := get(t, s, "/atlas.png", nil)
	ttesting.AssertEqualString(t, "page type", resp.Header.Get("Content-Type"), "image/png")
	if _, err := png.Decode(bytes.NewReader(body)); err != nil {
		t.Errorf("failed to decode page: %s", err)
	}

	resp, body = get(t, s, "/atlas.txt", nil)
	ttesting.AssertEqualInt(t, "descriptor status", resp.StatusCode, http.StatusOK)
	if !strings.Contains(string(body), "tgrs\n  rotate: false") {
		t.Errorf("descriptor: got %q", body)
	}
}

func TestIndex(t *testing.T) {
	s := newServer(t)

	_, body := get(t, s, "/", nil)
	page := string(body)
	ttesting.AssertEqualInt(t, "thumbnails", strings.Count(page, `src="data:image/png;base64,`), 2)
	if !strings.Contains(page, "/region/tgrs/5.png") {
		t.Errorf("index does not link tgrs/5")
	}

	_, body = get(t, s, "/?name=tg", nil)
	ttesting.AssertEqualInt(t, "filtered thumbnails", strings.Count(string(body), "<figure>"), 1)
}

func TestAnim(t *testing.T) {
	s := newServer(t)

	resp, body := get(t, s, "/anim/avxred.gif", nil)
	ttesting.AssertEqualString(t, "type", resp.Header.Get("Content-Type"), "image/gif")
	g, err := gif.DecodeAll(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to decode animation: %s", err)
	}
	ttesting.AssertEqualInt(t, "frames", len(g.Image), 1)
	ttesting.AssertEqualRect(t, "frame bounds", g.Image[0].Bounds(), image.Rect(0, 0, 8, 8))
	if _, _, _, a := g.Image[0].At(0, 0).RGBA(); a != 0 {
		t.Errorf("outside the crop: got alpha %d; want 0", a)
	}

	resp, _ = get(t, s, "/anim/nothing.gif", nil)
	ttesting.AssertEqualInt(t, "missing status", resp.StatusCode, http.StatusNotFound)
}
