package atlas

import "image"

type shelf struct {
	y, height, used int
}

// ShelfStrategy fills the page in horizontal shelves. A rectangle goes on
// the first shelf that is tall enough and has room left; otherwise a new
// shelf as tall as the rectangle is opened below the last one.
//
// It wastes more space than GuillotineStrategy on mixed sizes but is
// faster and keeps rows of equally sized tiles tightly together.
type ShelfStrategy struct {
	width, height int
	shelves       []shelf
	top           int
}

// NewShelfStrategy returns an empty shelf packer.
func NewShelfStrategy() *ShelfStrategy {
	return &ShelfStrategy{}
}

func (s *ShelfStrategy) Reset(w, h int) {
	s.width, s.height = w, h
	s.shelves = nil
	s.top = 0
}

func (s *ShelfStrategy) Place(size image.Point) (image.Point, bool) {
	if size.X > s.width {
		return image.Point{}, false
	}
	for i := range s.shelves {
		sh := &s.shelves[i]
		if size.Y <= sh.height && sh.used+size.X <= s.width {
			at := image.Pt(sh.used, sh.y)
			sh.used += size.X
			return at, true
		}
	}
	if s.top+size.Y > s.height {
		return image.Point{}, false
	}
	s.shelves = append(s.shelves, shelf{y: s.top, height: size.Y, used: size.X})
	at := image.Pt(0, s.top)
	s.top += size.Y
	return at, true
}
