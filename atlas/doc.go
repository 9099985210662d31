// Package atlas packs bitmaps into a single fixed-size texture page and
// writes the libGDX text descriptor that maps region names to their place
// on the page.
//
// A Page never grows and never spills onto a second page. When a bitmap no
// longer fits, Pack fails with ErrPageFull.
package atlas
