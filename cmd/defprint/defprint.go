// Binary defprint prints one frame of a DEF sprite from a .lod archive on
// the terminal.
package main

import (
	"flag"
	"fmt"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"

	"badc0de.net/pkg/go-heroes3/compositor"
	"badc0de.net/pkg/go-heroes3/def"
	"badc0de.net/pkg/go-heroes3/lod"
	"badc0de.net/pkg/go-heroes3/paths"
)

var (
	lodPath string

	defName = flag.String("def", "", "name of the DEF entry to print, e.g. avwmrnd0.def")
	group   = flag.Int("group", 0, "group to print from, by position")
	frame   = flag.Int("frame", 0, "frame within the group, by position")
	list    = flag.Bool("list", false, "list groups and frames instead of printing")
	expand  = flag.Bool("expand", false, "place the frame on its full canvas")
)

func init() {
	paths.SetupFilePathFlag("H3sprite.lod", "lod_path", &lodPath)
}

func main() {
	flagutil.Parse()

	a, err := lod.Open(lodPath)
	if err != nil {
		glog.Exitf("opening archive: %v", err)
	}
	defer a.Close()

	e, ok := a.Lookup(*defName)
	if !ok {
		glog.Exitf("%q not found in %s", *defName, lodPath)
	}
	b, err := a.Fetch(e)
	if err != nil {
		glog.Exitf("fetching %s: %v", e.Name, err)
	}
	s, err := def.Decode(b)
	if err != nil {
		glog.Exitf("decoding %s: %v", e.Name, err)
	}

	if *list {
		printList(e, s)
		return
	}

	if *group < 0 || *group >= len(s.Groups) {
		glog.Exitf("%s has %d groups", e.Name, len(s.Groups))
	}
	g := s.Groups[*group]
	if *frame < 0 || *frame >= len(g.Frames) {
		glog.Exitf("group %d of %s has %d frames", *group, e.Name, len(g.Frames))
	}
	f := g.Frames[*frame]
	img := compositor.Composite(f, s.Palette.WithReserved(), compositor.DefaultTransparencyKey())
	if *expand {
		f, img = compositor.Expand(f, img)
	}
	fmt.Fprintf(os.Stderr, "%s\n", f)
	out(img)
}

func printList(e lod.Entry, s *def.Sprite) {
	fmt.Printf("%s: %v, %dx%d, %d groups\n", e.Name, lod.Kind(s.Type), s.Width, s.Height, len(s.Groups))
	for gi, g := range s.Groups {
		fmt.Printf("  group %d (id %d): %d frames\n", gi, g.ID, len(g.Frames))
		for fi, f := range g.Frames {
			fmt.Printf("    %3d %v %v\n", fi, f, f.Compression)
		}
	}
}
