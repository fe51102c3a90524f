package geom

import "math"

// Size is an integer width and height.
type Size struct {
	W, H int
}

// IsEmpty reports whether the size has no area.
func (s Size) IsEmpty() bool {
	return s.W <= 0 || s.H <= 0
}

// SizeF is a floating point width and height.
type SizeF struct {
	W, H float64
}

// IsEmpty reports whether the size has no area.
func (s SizeF) IsEmpty() bool {
	return s.W <= 0 || s.H <= 0
}

// Rect is an integer rectangle with origin (X, Y) and size (W, H).
// A rectangle with non-positive width or height is empty.
type Rect struct {
	X, Y, W, H int
}

// R is a convenience function to create a Rect.
func R(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectFromSize returns a rect at the origin with the given size.
func RectFromSize(s Size) Rect {
	return Rect{W: s.W, H: s.H}
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// Size returns the rectangle size.
func (r Rect) Size() Size { return Size{W: r.W, H: r.H} }

// Area returns the rectangle area, 0 if empty.
func (r Rect) Area() int {
	if r.IsEmpty() {
		return 0
	}
	return r.W * r.H
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= float64(r.X) && p.X < float64(r.Right()) &&
		p.Y >= float64(r.Y) && p.Y < float64(r.Bottom())
}

// ContainsRect reports whether o lies entirely inside r.
// An empty o is contained by any rect.
func (r Rect) ContainsRect(o Rect) bool {
	if o.IsEmpty() {
		return true
	}
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersect(o).IsEmpty()
}

// Intersect returns the overlap of r and o, or an empty rect.
func (r Rect) Intersect(o Rect) Rect {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.Right(), o.Right())
	y1 := min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Union returns the smallest rect containing r and o.
// Empty operands are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x0 := min(r.X, o.X)
	y0 := min(r.Y, o.Y)
	x1 := max(r.Right(), o.Right())
	y1 := max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// ToRectF converts r to a float rect.
func (r Rect) ToRectF() RectF {
	return RectF{X: float64(r.X), Y: float64(r.Y), W: float64(r.W), H: float64(r.H)}
}

// RectF is a floating point rectangle.
type RectF struct {
	X, Y, W, H float64
}

// IsEmpty reports whether the rectangle has no area.
func (r RectF) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Right returns the right edge.
func (r RectF) Right() float64 { return r.X + r.W }

// Bottom returns the bottom edge.
func (r RectF) Bottom() float64 { return r.Y + r.H }

// Contains reports whether the point lies inside r.
func (r RectF) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Enclosing returns the smallest integer rect containing r.
func (r RectF) Enclosing() Rect {
	if r.IsEmpty() {
		return Rect{}
	}
	x0 := int(math.Floor(r.X))
	y0 := int(math.Floor(r.Y))
	x1 := int(math.Ceil(r.Right()))
	y1 := int(math.Ceil(r.Bottom()))
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Enclosed returns the largest integer rect contained in r.
func (r RectF) Enclosed() Rect {
	if r.IsEmpty() {
		return Rect{}
	}
	x0 := int(math.Ceil(r.X))
	y0 := int(math.Ceil(r.Y))
	x1 := int(math.Floor(r.Right()))
	y1 := int(math.Floor(r.Bottom()))
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
