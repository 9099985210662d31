package atlas

import "image"

// guillotineNode is a node of the binary split tree. Leaves are either
// free or hold exactly one placed rectangle.
type guillotineNode struct {
	rect        image.Rectangle
	full        bool
	left, right *guillotineNode
}

// GuillotineStrategy packs by recursively splitting free space in two,
// cutting along the axis with the larger leftover. It places rectangles in
// the same spots as libGDX's PixmapPacker with its default strategy, which
// keeps atlases comparable with ones built by the game's own tooling.
type GuillotineStrategy struct {
	root *guillotineNode
}

// NewGuillotineStrategy returns the default strategy.
func NewGuillotineStrategy() *GuillotineStrategy {
	return &GuillotineStrategy{}
}

func (g *GuillotineStrategy) Reset(w, h int) {
	g.root = &guillotineNode{rect: image.Rect(0, 0, w, h)}
}

func (g *GuillotineStrategy) Place(size image.Point) (image.Point, bool) {
	n := g.root.insert(size)
	if n == nil {
		return image.Point{}, false
	}
	n.full = true
	return n.rect.Min, true
}

func (n *guillotineNode) insert(size image.Point) *guillotineNode {
	if !n.full && n.left != nil && n.right != nil {
		if found := n.left.insert(size); found != nil {
			return found
		}
		return n.right.insert(size)
	}
	if n.full {
		return nil
	}
	have := n.rect.Size()
	if have == size {
		return n
	}
	if have.X < size.X || have.Y < size.Y {
		return nil
	}

	dw, dh := have.X-size.X, have.Y-size.Y
	r := n.rect
	if dw > dh {
		n.left = &guillotineNode{rect: image.Rect(r.Min.X, r.Min.Y, r.Min.X+size.X, r.Max.Y)}
		n.right = &guillotineNode{rect: image.Rect(r.Min.X+size.X, r.Min.Y, r.Max.X, r.Max.Y)}
	} else {
		n.left = &guillotineNode{rect: image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+size.Y)}
		n.right = &guillotineNode{rect: image.Rect(r.Min.X, r.Min.Y+size.Y, r.Max.X, r.Max.Y)}
	}
	return n.left.insert(size)
}
