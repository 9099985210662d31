package pipeline

import (
	"path/filepath"
	"runtime"
	"strings"

	"badc0de.net/pkg/go-heroes3/atlas"
	"badc0de.net/pkg/go-heroes3/lod"
)

// DefaultDeny lists sprites that match the selection rules but break the
// atlas: arrows and attack cursors that are not map objects, and the
// random-monster, random-artifact and random-town placeholders.
var DefaultDeny = []string{
	"arrow.def", "avwattack.def", "adag.def",
	"avwmon1.def", "avwmon2.def", "avwmon3.def", "avwmon4.def", "avwmon5.def", "avwmon6.def",
	"avarnd1.def", "avarnd2.def", "avarnd3.def", "avarnd4.def", "avarnd5.def", "avtrndm0.def",
}

const (
	DefaultPageWidth  = 8192
	DefaultPageHeight = 8192
)

// Config describes one conversion.
type Config struct {
	// ArchivePath is the .lod to read.
	ArchivePath string
	// DescriptorPath is where the .atlas text goes. The page image is
	// written next to it with a .png extension.
	DescriptorPath string

	PageWidth, PageHeight int
	Format                atlas.Format

	// Strategy overrides the packing strategy. Nil means the default
	// guillotine packer.
	Strategy atlas.Strategy

	// Workers is the number of entries decoded in parallel. Zero means
	// runtime.NumCPU().
	Workers int

	// Deny lists entry names, matched ignoring case, that are never
	// converted. Nil means DefaultDeny; use an empty non-nil slice to
	// convert everything.
	Deny []string

	// DedupContent lets identical bitmaps with different names share a
	// region on the page.
	DedupContent bool

	// IndexedPNG writes a 256-color page instead of a true-color one.
	IndexedPNG bool

	// Progress, if set, is called on the consuming goroutine after each
	// selected entry has been handled.
	Progress func(done, total int)
}

func (c Config) withDefaults() Config {
	if c.PageWidth == 0 {
		c.PageWidth = DefaultPageWidth
	}
	if c.PageHeight == 0 {
		c.PageHeight = DefaultPageHeight
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Deny == nil {
		c.Deny = DefaultDeny
	}
	return c
}

// PagePath is the page image written alongside the descriptor.
func (c Config) PagePath() string {
	return strings.TrimSuffix(c.DescriptorPath, filepath.Ext(c.DescriptorPath)) + ".png"
}

func (c Config) pageOptions() []atlas.PageOption {
	var opts []atlas.PageOption
	if c.Strategy != nil {
		opts = append(opts, atlas.WithStrategy(c.Strategy))
	}
	if c.DedupContent {
		opts = append(opts, atlas.WithContentDedup())
	}
	return opts
}

// Select reports whether e is a sprite that belongs in the atlas: a .def
// that is not denied and is either an adventure-map sprite ("av" prefix),
// a map object or a terrain tile.
func Select(e lod.Entry, deny []string) bool {
	name := strings.ToLower(e.Name)
	if !strings.HasSuffix(name, ".def") {
		return false
	}
	for _, d := range deny {
		if strings.EqualFold(d, name) {
			return false
		}
	}
	switch e.Kind {
	case lod.KindSprite:
		return strings.HasPrefix(name, "av")
	case lod.KindMapObject, lod.KindTerrain:
		return true
	}
	return false
}

// BaseName is the region name used in the descriptor for frames of e:
// the entry name, lower-cased, without its .def extension.
func BaseName(e lod.Entry) string {
	name := strings.ToLower(e.Name)
	return strings.TrimSuffix(name, ".def")
}
