// Package web serves a packed atlas over HTTP: the page image, the
// descriptor, single regions as PNGs and an index page with thumbnails.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andybons/gogif"
	"github.com/cespare/xxhash/v2"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
	"golang.org/x/net/trace"

	"badc0de.net/pkg/go-heroes3/atlas"
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Handler serves one atlas loaded at construction time.
type Handler struct {
	desc     *atlas.Descriptor
	descText []byte
	pagePNG  []byte
	page     subImager
	modTime  time.Time

	// signature identifies the loaded atlas in ETags.
	signature uint64
}

// NewHandler loads the descriptor at descriptorPath and the page image it
// names, which is looked up next to the descriptor.
func NewHandler(descriptorPath string) (*Handler, error) {
	descText, err := os.ReadFile(descriptorPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading descriptor")
	}
	desc, err := atlas.ReadDescriptor(bytes.NewReader(descText))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", descriptorPath)
	}
	pagePath := filepath.Join(filepath.Dir(descriptorPath), desc.Image)
	pagePNG, err := os.ReadFile(pagePath)
	if err != nil {
		return nil, errors.Wrap(err, "reading page image")
	}
	img, err := png.Decode(bytes.NewReader(pagePNG))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", pagePath)
	}
	page, ok := img.(subImager)
	if !ok {
		return nil, fmt.Errorf("page image %s of type %T cannot be cropped", pagePath, img)
	}

	h := &Handler{
		desc:      desc,
		descText:  descText,
		pagePNG:   pagePNG,
		page:      page,
		modTime:   time.Now(),
		signature: xxhash.Sum64(descText) ^ xxhash.Sum64(pagePNG),
	}
	if st, err := os.Stat(pagePath); err == nil {
		h.modTime = st.ModTime()
	}
	glog.Infof("web: serving %s with %d regions", pagePath, len(desc.Regions))
	return h, nil
}

func (h *Handler) etag(kind string, parts ...interface{}) string {
	return fmt.Sprintf(`W/"%s:%016x:%s"`, kind, h.signature, fmt.Sprint(parts...))
}

// notModified answers conditional requests and sets caching headers.
func (h *Handler) notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("Cache-Control", "public; max-age=36000") // 36000 = 10h
	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", h.modTime.UTC().Format(http.TimeFormat))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func (h *Handler) pageHandler(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r, h.etag("page")) {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(h.pagePNG)
}

func (h *Handler) descriptorHandler(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r, h.etag("descriptor")) {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(h.descText)
}

func (h *Handler) region(name, index string) (atlas.Region, bool) {
	idx, err := strconv.Atoi(index)
	if err != nil {
		return atlas.Region{}, false
	}
	return h.desc.Lookup(name, idx)
}

func (h *Handler) regionImage(reg atlas.Region, orig bool) image.Image {
	img := h.page.SubImage(reg.Rect())
	if !orig {
		return img
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, reg.FullWidth, reg.FullHeight))
	for y := 0; y < reg.Height; y++ {
		for x := 0; x < reg.Width; x++ {
			canvas.Set(reg.OffsetX+x, reg.OffsetY+y, img.At(reg.XY.X+x, reg.XY.Y+y))
		}
	}
	return canvas
}

func (h *Handler) regionHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.region", r.URL.Path)
	defer tr.Finish()

	vars := mux.Vars(r)
	reg, ok := h.region(vars["name"], vars["index"])
	if !ok {
		tr.LazyPrintf("no region %s/%s", vars["name"], vars["index"])
		tr.SetError()
		http.Error(w, "no such region", http.StatusNotFound)
		return
	}
	orig := r.URL.Query().Get("orig") != ""

	generation := 1 // bump if the way we generate it changes
	if h.notModified(w, r, h.etag("region", generation, ":", reg.Name, ":", reg.Index, ":", orig)) {
		tr.LazyPrintf("not modified")
		return
	}

	if reg.Width == 0 || reg.Height == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	tr.LazyPrintf("region %s/%d at %v", reg.Name, reg.Index, reg.Rect())
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, h.regionImage(reg, orig)); err != nil {
		glog.Errorf("web: encoding region %s/%d: %v", reg.Name, reg.Index, err)
	}
}

// animHandler serves every region of a base name, in index order, as an
// animated GIF on the regions' original canvas.
func (h *Handler) animHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var regs []atlas.Region
	for _, reg := range h.desc.Regions {
		if reg.Name == name {
			regs = append(regs, reg)
		}
	}
	if len(regs) == 0 {
		http.Error(w, "no such region", http.StatusNotFound)
		return
	}
	delay := 10
	if d, err := strconv.Atoi(r.URL.Query().Get("delay")); err == nil && d > 0 {
		delay = d
	}

	generation := 1 // bump if the way we generate it changes
	if h.notModified(w, r, h.etag("anim", generation, ":", name, ":", delay)) {
		return
	}

	var g gif.GIF
	quantizer := gogif.MedianCutQuantizer{NumColor: 255} // Up to 255 colors plus 1 space for transparency.
	for _, reg := range regs {
		bounds := image.Rect(0, 0, reg.FullWidth, reg.FullHeight)
		if bounds.Empty() {
			continue
		}
		img := h.regionImage(reg, true)
		pal := image.NewPaletted(bounds, nil)
		quantizer.Quantize(pal, bounds, img, image.Point{})

		// Index 0 is transparent so that the background of each frame stays clear.
		frame := image.NewPaletted(bounds, append(color.Palette{color.Transparent}, pal.Palette...))
		draw.Draw(frame, bounds, img, image.Point{}, draw.Over)

		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	if len(g.Image) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/gif")
	w.WriteHeader(http.StatusOK)
	if err := gif.EncodeAll(w, &g); err != nil {
		glog.Errorf("web: encoding animation %s: %v", name, err)
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><title>{{.Image}}</title>
<style>body{font-family:sans-serif;background:#333;color:#eee} figure{display:inline-block;margin:4px;text-align:center} img{image-rendering:pixelated;background:#555}</style>
</head><body>
<h1><a href="/atlas.png">{{.Image}}</a></h1>
<p>{{.Width}}x{{.Height}} {{.Format}}, {{.Total}} regions{{if .Shown}}, showing {{.Shown}}{{end}}. <a href="/atlas.txt">descriptor</a></p>
<form><input name="name" value="{{.Filter}}" placeholder="name prefix"> <input type="submit" value="filter"></form>
{{range .Regions}}<figure><a href="/region/{{.Name}}/{{.Index}}.png?orig=1"><img src="{{.Thumb}}" alt="{{.Name}}/{{.Index}}"></a><figcaption>{{.Name}}/{{.Index}}<br>{{.Width}}x{{.Height}}</figcaption></figure>
{{end}}</body></html>
`))

type indexRegion struct {
	Name          string
	Index         int
	Width, Height int
	Thumb         template.URL
}

const defaultIndexLimit = 200

func (h *Handler) indexHandler(w http.ResponseWriter, r *http.Request) {
	filter := strings.ToLower(r.URL.Query().Get("name"))
	limit := defaultIndexLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	data := struct {
		Image         string
		Width, Height int
		Format        atlas.Format
		Total, Shown  int
		Filter        string
		Regions       []indexRegion
	}{
		Image:  h.desc.Image,
		Width:  h.desc.Size.X,
		Height: h.desc.Size.Y,
		Format: h.desc.Format,
		Total:  len(h.desc.Regions),
		Filter: filter,
	}
	for _, reg := range h.desc.Regions {
		if !strings.HasPrefix(reg.Name, filter) {
			continue
		}
		if len(data.Regions) == limit {
			data.Shown = limit
			break
		}
		ir := indexRegion{Name: reg.Name, Index: reg.Index, Width: reg.Width, Height: reg.Height}
		if reg.Width > 0 && reg.Height > 0 {
			buf := &bytes.Buffer{}
			if err := png.Encode(buf, h.regionImage(reg, false)); err != nil {
				http.Error(w, "failed to encode thumbnail", http.StatusInternalServerError)
				return
			}
			ir.Thumb = template.URL(dataurl.New(buf.Bytes(), "image/png").String())
		}
		data.Regions = append(data.Regions, ir)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		glog.Errorf("web: rendering index: %v", err)
	}
}

// RegisterRoutes adds the atlas routes to r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.indexHandler)
	r.HandleFunc("/atlas.png", h.pageHandler)
	r.HandleFunc("/atlas.txt", h.descriptorHandler)
	r.HandleFunc("/region/{name}/{index:[0-9]+}.png", h.regionHandler)
	r.HandleFunc("/anim/{name}.gif", h.animHandler)
}
