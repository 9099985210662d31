package atlas

import "image"

// Strategy decides where on a page the next rectangle goes.
//
// Reset is called once by NewPage with the page size. Place returns the
// top-left corner for a size x size rectangle, or false if there is no room
// left. A Strategy is used by one Page and needs no locking.
type Strategy interface {
	Reset(w, h int)
	Place(size image.Point) (image.Point, bool)
}
