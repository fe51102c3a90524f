package geom

// Region is a set of pixels represented as non-overlapping rectangles.
// The zero value is an empty region.
type Region struct {
	rects []Rect
}

// NewRegion returns a region covering the given rects.
func NewRegion(rects ...Rect) Region {
	var r Region
	for _, rc := range rects {
		r.Union(rc)
	}
	return r
}

// IsEmpty reports whether the region covers no pixels.
func (r *Region) IsEmpty() bool {
	return len(r.rects) == 0
}

// Clear empties the region.
func (r *Region) Clear() {
	r.rects = r.rects[:0]
}

// Rects returns the rectangles of the region. The slice must not be modified.
func (r *Region) Rects() []Rect {
	return r.rects
}

// Clone returns an independent copy of r.
func (r *Region) Clone() Region {
	return Region{rects: append([]Rect(nil), r.rects...)}
}

// Bounds returns the bounding box of the region.
func (r *Region) Bounds() Rect {
	var b Rect
	for _, rc := range r.rects {
		b = b.Union(rc)
	}
	return b
}

// Area returns the number of pixels covered.
func (r *Region) Area() int {
	a := 0
	for _, rc := range r.rects {
		a += rc.Area()
	}
	return a
}

// Union adds rc to the region.
func (r *Region) Union(rc Rect) {
	if rc.IsEmpty() {
		return
	}
	pieces := []Rect{rc}
	for _, existing := range r.rects {
		next := pieces[:0:0]
		for _, p := range pieces {
			next = appendSubtract(next, p, existing)
		}
		pieces = next
		if len(pieces) == 0 {
			return
		}
	}
	r.rects = append(r.rects, pieces...)
}

// UnionRegion adds every rect of o to the region.
func (r *Region) UnionRegion(o *Region) {
	for _, rc := range o.rects {
		r.Union(rc)
	}
}

// Subtract removes rc from the region.
func (r *Region) Subtract(rc Rect) {
	if rc.IsEmpty() || len(r.rects) == 0 {
		return
	}
	out := make([]Rect, 0, len(r.rects))
	for _, existing := range r.rects {
		out = appendSubtract(out, existing, rc)
	}
	r.rects = out
}

// SubtractRegion removes every rect of o from the region.
func (r *Region) SubtractRegion(o *Region) {
	for _, rc := range o.rects {
		r.Subtract(rc)
	}
}

// Intersect clips the region to rc.
func (r *Region) Intersect(rc Rect) {
	out := r.rects[:0]
	for _, existing := range r.rects {
		if i := existing.Intersect(rc); !i.IsEmpty() {
			out = append(out, i)
		}
	}
	r.rects = out
}

// Intersects reports whether any pixel of rc is in the region.
func (r *Region) Intersects(rc Rect) bool {
	for _, existing := range r.rects {
		if existing.Intersects(rc) {
			return true
		}
	}
	return false
}

// ContainsPoint reports whether p is in the region.
func (r *Region) ContainsPoint(p Point) bool {
	for _, existing := range r.rects {
		if existing.Contains(p) {
			return true
		}
	}
	return false
}

// ContainsRect reports whether every pixel of rc is in the region.
func (r *Region) ContainsRect(rc Rect) bool {
	if rc.IsEmpty() {
		return true
	}
	rest := []Rect{rc}
	for _, existing := range r.rects {
		next := rest[:0:0]
		for _, p := range rest {
			next = appendSubtract(next, p, existing)
		}
		rest = next
		if len(rest) == 0 {
			return true
		}
	}
	return false
}

// appendSubtract appends the parts of a not covered by b to dst.
// At most four rects are produced: top and bottom bands at full width,
// then left and right pieces of the middle band.
func appendSubtract(dst []Rect, a, b Rect) []Rect {
	i := a.Intersect(b)
	if i.IsEmpty() {
		return append(dst, a)
	}
	if i.Y > a.Y {
		dst = append(dst, Rect{X: a.X, Y: a.Y, W: a.W, H: i.Y - a.Y})
	}
	if i.Bottom() < a.Bottom() {
		dst = append(dst, Rect{X: a.X, Y: i.Bottom(), W: a.W, H: a.Bottom() - i.Bottom()})
	}
	if i.X > a.X {
		dst = append(dst, Rect{X: a.X, Y: i.Y, W: i.X - a.X, H: i.H})
	}
	if i.Right() < a.Right() {
		dst = append(dst, Rect{X: i.Right(), Y: i.Y, W: a.Right() - i.Right(), H: i.H})
	}
	return dst
}
