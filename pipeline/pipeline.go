// Package pipeline converts the sprites of a .lod archive into a single
// texture atlas page and its descriptor.
//
// Entries are fetched, decoded and composited by a pool of workers. Packing
// and descriptor output happen on one goroutine, strictly in archive order,
// so the same archive always produces byte-identical output regardless of
// how many workers run.
package pipeline

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-heroes3/atlas"
	"badc0de.net/pkg/go-heroes3/compositor"
	"badc0de.net/pkg/go-heroes3/def"
	"badc0de.net/pkg/go-heroes3/lod"
)

// Skip records an entry that was left out because it could not be decoded.
type Skip struct {
	Name string
	Err  error
}

// Stats summarizes a conversion.
type Stats struct {
	Entries    int // entries in the archive
	Selected   int // entries that passed Select, repeated names excluded
	Decoded    int // selected entries decoded successfully
	Skipped    int // selected entries dropped; see Skips
	Frames     int // frames seen in decoded entries
	Packed     int // frames that got a descriptor record
	Duplicates int // frames dropped because their name was already packed
	Shared     int // packed frames reusing another frame's pixels
	UsedArea   int // page pixels covered by regions

	// DuplicateEntries counts entries dropped because an earlier entry had
	// the same name, ignoring case.
	DuplicateEntries int

	Skips []Skip
}

// frame is one composited frame, ready to pack.
type frame struct {
	name     string
	bmp      *image.NRGBA
	geometry atlas.FrameGeometry
}

type result struct {
	entry  lod.Entry
	frames []frame
	err    error
}

// Run performs the conversion described by cfg.
//
// Entries that fail to decompress or decode are logged, counted and
// skipped. Failing to open the archive, to read it, to write output or to
// fit a frame on the page aborts the run.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = cfg.withDefaults()

	a, err := lod.Open(cfg.ArchivePath)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	stats := &Stats{}
	entries := a.Entries()
	stats.Entries = len(entries)
	var selected []lod.Entry
	seen := map[string]bool{}
	for _, e := range entries {
		if !Select(e, cfg.Deny) {
			continue
		}
		// Names are keys: a later entry with the same name, ignoring case,
		// would repeat the first one's descriptor records.
		key := strings.ToLower(e.Name)
		if seen[key] {
			glog.V(1).Infof("%s: dropping repeated entry %s", cfg.ArchivePath, e.Name)
			stats.DuplicateEntries++
			continue
		}
		seen[key] = true
		selected = append(selected, e)
	}
	stats.Selected = len(selected)
	glog.Infof("%s: %d of %d entries selected", cfg.ArchivePath, len(selected), len(entries))

	df, err := os.Create(cfg.DescriptorPath)
	if err != nil {
		return nil, errors.Wrap(err, "creating descriptor")
	}
	defer df.Close()

	page := atlas.NewPage(cfg.PageWidth, cfg.PageHeight, cfg.Format, cfg.pageOptions()...)
	desc := atlas.NewDescriptorWriter(df)
	if err := desc.WriteHeader(filepath.Base(cfg.PagePath()), cfg.PageWidth, cfg.PageHeight, cfg.Format); err != nil {
		return nil, errors.Wrap(err, "writing descriptor header")
	}

	if err := convert(ctx, cfg, a, selected, page, desc, stats); err != nil {
		return stats, err
	}

	if err := desc.Flush(); err != nil {
		return stats, errors.Wrap(err, "writing descriptor")
	}
	if err := df.Close(); err != nil {
		return stats, errors.Wrap(err, "closing descriptor")
	}
	if err := writePage(cfg, page); err != nil {
		return stats, err
	}

	stats.Shared = page.Shared()
	stats.UsedArea = page.UsedArea()
	total := cfg.PageWidth * cfg.PageHeight
	glog.Infof("packed %d frames from %d sprites (%d skipped, %d duplicate names); %s of %s pixels used (%.1f%%)",
		stats.Packed, stats.Decoded, stats.Skipped, stats.Duplicates,
		humanize.Comma(int64(stats.UsedArea)), humanize.Comma(int64(total)),
		100*float64(stats.UsedArea)/float64(total))
	return stats, nil
}

// convert decodes selected on a worker pool and packs the results in
// order. At most 2*Workers entries are decoded ahead of the one being
// packed.
func convert(ctx context.Context, cfg Config, a *lod.Archive, selected []lod.Entry, page *atlas.Page, desc *atlas.DescriptorWriter, stats *Stats) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	results := make([]chan result, len(selected))
	for i := range results {
		results[i] = make(chan result, 1)
	}
	tokens := make(chan struct{}, 2*cfg.Workers)
	jobs := make(chan int)

	g.Go(func() error {
		defer close(jobs)
		for i := range selected {
			select {
			case tokens <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				results[i] <- decodeEntry(a, selected[i])
			}
			return nil
		})
	}

	err := consume(gctx, cfg, selected, results, tokens, page, desc, stats)
	if err != nil {
		cancel()
	}
	if werr := g.Wait(); err == nil && werr != nil && !errors.Is(werr, context.Canceled) {
		err = werr
	}
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func consume(ctx context.Context, cfg Config, selected []lod.Entry, results []chan result, tokens <-chan struct{}, page *atlas.Page, desc *atlas.DescriptorWriter, stats *Stats) error {
	for i := range selected {
		var r result
		select {
		case r = <-results[i]:
		case <-ctx.Done():
			return ctx.Err()
		}
		<-tokens

		if err := handle(r, page, desc, stats); err != nil {
			return err
		}
		if cfg.Progress != nil {
			cfg.Progress(i+1, len(selected))
		}
	}
	return nil
}

func handle(r result, page *atlas.Page, desc *atlas.DescriptorWriter, stats *Stats) error {
	if r.err != nil {
		if !skippable(r.err) {
			return errors.Wrapf(r.err, "entry %s", r.entry.Name)
		}
		glog.Warningf("skipping %s: %v", r.entry.Name, r.err)
		stats.Skipped++
		stats.Skips = append(stats.Skips, Skip{Name: r.entry.Name, Err: r.err})
		return nil
	}
	stats.Decoded++

	base := BaseName(r.entry)
	for index, f := range r.frames {
		stats.Frames++
		if _, ok := page.Rect(f.name); ok {
			glog.V(2).Infof("%s: frame %s already packed", r.entry.Name, f.name)
			stats.Duplicates++
			continue
		}
		rect, err := page.Pack(f.name, f.bmp)
		if err != nil {
			return errors.Wrapf(err, "packing %s frame %s", r.entry.Name, f.name)
		}
		if err := desc.WriteFrame(base, index, rect, f.geometry); err != nil {
			return errors.Wrap(err, "writing descriptor")
		}
		stats.Packed++
	}
	glog.V(1).Infof("%s: %d frames, %s", r.entry.Name, len(r.frames), humanize.Bytes(uint64(r.entry.Size)))
	return nil
}

// skippable reports whether err only concerns one entry's contents.
func skippable(err error) bool {
	return errors.Is(err, lod.ErrDecompress) || errors.Is(err, def.ErrFormat)
}

// decodeEntry fetches, decodes and composites every frame of e.
func decodeEntry(a *lod.Archive, e lod.Entry) result {
	b, err := a.Fetch(e)
	if err != nil {
		return result{entry: e, err: err}
	}
	s, err := def.Decode(b)
	if err != nil {
		return result{entry: e, err: err}
	}

	palette := s.Palette.WithReserved()
	key := compositor.DefaultTransparencyKey()
	var frames []frame
	for _, f := range s.Frames() {
		bmp := compositor.Composite(f, palette, key)
		if e.Kind == lod.KindTerrain {
			f, bmp = compositor.Expand(f, bmp)
		}
		frames = append(frames, frame{
			name: f.Name,
			bmp:  bmp,
			geometry: atlas.FrameGeometry{
				Width:      f.Width,
				Height:     f.Height,
				FullWidth:  f.FullWidth,
				FullHeight: f.FullHeight,
				OffsetX:    f.X,
				OffsetY:    f.Y,
			},
		})
	}
	return result{entry: e, frames: frames}
}

func writePage(cfg Config, page *atlas.Page) error {
	path := cfg.PagePath()
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating page image")
	}
	if cfg.IndexedPNG {
		err = atlas.WriteIndexedPNG(f, page.Image())
	} else {
		err = page.WritePNG(f)
	}
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing page image")
	}
	glog.Infof("wrote %s and %s", cfg.DescriptorPath, path)
	return nil
}
