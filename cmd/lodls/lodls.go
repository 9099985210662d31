// Binary lodls lists the entries of a .lod archive.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/dustin/go-humanize"
	"github.com/golang/glog"

	"badc0de.net/pkg/go-heroes3/def"
	"badc0de.net/pkg/go-heroes3/lod"
	"badc0de.net/pkg/go-heroes3/paths"
	"badc0de.net/pkg/go-heroes3/pipeline"
)

var (
	lodPath string

	kind     = flag.String("kind", "", "only list entries of this kind, e.g. terrain or map-object")
	selected = flag.Bool("selected", false, "only list entries lod2atlas would convert")
	frames   = flag.Bool("frames", false, "decode DEF headers and show group and frame counts")
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

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	var total, stored uint64
	n := 0
	for _, e := range a.Entries() {
		if *kind != "" && !strings.EqualFold(e.Kind.String(), *kind) {
			continue
		}
		if *selected && !pipeline.Select(e, pipeline.DefaultDeny) {
			continue
		}
		n++
		total += uint64(e.Size)
		packed := "stored"
		if e.Compressed() {
			stored += uint64(e.CompressedSize)
			packed = humanize.Bytes(uint64(e.CompressedSize))
		} else {
			stored += uint64(e.Size)
		}
		extra := ""
		if *frames && e.Kind.IsDef() {
			extra = describe(a, e)
		}
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\n", e.Name, e.Kind, humanize.Bytes(uint64(e.Size)), packed, extra)
	}
	w.Flush()
	fmt.Printf("%s entries, %s (%s stored)\n", humanize.Comma(int64(n)), humanize.Bytes(total), humanize.Bytes(stored))
}

func describe(a *lod.Archive, e lod.Entry) string {
	b, err := a.Fetch(e)
	if err != nil {
		return "error: " + err.Error()
	}
	c, err := def.DecodeConfig(b)
	if err != nil {
		return "error: " + err.Error()
	}
	n := 0
	for _, g := range c.Groups {
		n += g.FrameCount
	}
	return fmt.Sprintf("%dx%d, %d groups, %d frames", c.Width, c.Height, len(c.Groups), n)
}
