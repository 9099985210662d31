// Binary lod2atlas converts the adventure map sprites of a Heroes III
// H3sprite.lod into a single libGDX texture atlas page.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"os/signal"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/schollz/progressbar/v3"

	"badc0de.net/pkg/go-heroes3/atlas"
	"badc0de.net/pkg/go-heroes3/imageprint"
	"badc0de.net/pkg/go-heroes3/paths"
	"badc0de.net/pkg/go-heroes3/pipeline"
)

var (
	lodPath string

	atlasPath    = flag.String("atlas_path", "sprites.atlas", "where to write the atlas descriptor; the page image goes next to it as .png")
	pageWidth    = flag.Int("page_width", pipeline.DefaultPageWidth, "page width in pixels")
	pageHeight   = flag.Int("page_height", pipeline.DefaultPageHeight, "page height in pixels")
	workers      = flag.Int("workers", 0, "sprites decoded in parallel; 0 uses every CPU")
	strategy     = flag.String("strategy", "guillotine", "packing strategy: guillotine or shelf")
	dedupContent = flag.Bool("dedup_content", false, "let pixel-identical frames with different names share a region")
	indexedPNG   = flag.Bool("indexed_png", false, "write a 256 color page instead of a true color one")
	progress     = flag.Bool("progress", true, "show a progress bar")
	preview      = flag.Bool("preview", false, "print the finished page on the terminal")
	noDeny       = flag.Bool("no_deny", false, "also convert sprites known to break the atlas")

	format = atlas.RGBA4444
)

func init() {
	paths.SetupFilePathFlag("H3sprite.lod", "lod_path", &lodPath)
	flag.Var(&format, "format", "page pixel format: RGBA4444 or RGBA8888")
}

func main() {
	flagutil.Parse()

	if lodPath == "" {
		glog.Exitf("no archive given and H3sprite.lod not found; pass -lod_path")
	}

	cfg := pipeline.Config{
		ArchivePath:    lodPath,
		DescriptorPath: *atlasPath,
		PageWidth:      *pageWidth,
		PageHeight:     *pageHeight,
		Format:         format,
		Workers:        *workers,
		DedupContent:   *dedupContent,
		IndexedPNG:     *indexedPNG,
	}
	switch *strategy {
	case "guillotine":
	case "shelf":
		cfg.Strategy = atlas.NewShelfStrategy()
	default:
		glog.Exitf("unknown -strategy %q", *strategy)
	}
	if *noDeny {
		cfg.Deny = []string{}
	}
	if *progress {
		var bar *progressbar.ProgressBar
		cfg.Progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "packing")
			}
			bar.Set(done)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := pipeline.Run(ctx, cfg)
	if err != nil {
		glog.Exitf("converting %s: %v", lodPath, err)
	}
	fmt.Printf("%d frames from %d sprites packed into %s (%d skipped, %d duplicate names, %d shared)\n",
		stats.Packed, stats.Decoded, cfg.PagePath(), stats.Skipped, stats.Duplicates, stats.Shared)
	for _, s := range stats.Skips {
		fmt.Printf("  skipped %s: %v\n", s.Name, s.Err)
	}

	if *preview {
		if err := printPage(cfg.PagePath()); err != nil {
			glog.Errorf("preview: %v", err)
		}
	}
}

func printPage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return err
	}
	sz, _ := imageprint.GetTermSize()
	if imageprint.PrintRasTerm(imageprint.Fit(img, sz, true)) {
		return nil
	}
	imageprint.Print24bit(imageprint.Fit(img, sz, false), true)
	return nil
}
