package geom

import "math"

// invertEpsilon is the determinant magnitude below which a transform is
// treated as singular.
const invertEpsilon = 1e-10

// Transform represents a 2D affine transformation matrix.
// It uses a 2x3 matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// This represents the transformation:
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Transform struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, E: 1}
}

// Translate creates a translation transform.
func Translate(x, y float64) Transform {
	return Transform{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling transform.
func Scale(x, y float64) Transform {
	return Transform{A: x, E: y}
}

// Rotate creates a rotation transform (angle in radians).
func Rotate(angle float64) Transform {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Transform{A: cos, B: -sin, D: sin, E: cos}
}

// Multiply returns t * other (other is applied first).
func (t Transform) Multiply(other Transform) Transform {
	return Transform{
		A: t.A*other.A + t.B*other.D,
		B: t.A*other.B + t.B*other.E,
		C: t.A*other.C + t.B*other.F + t.C,
		D: t.D*other.A + t.E*other.D,
		E: t.D*other.B + t.E*other.E,
		F: t.D*other.C + t.E*other.F + t.F,
	}
}

// TransformPoint applies the transformation to a point.
func (t Transform) TransformPoint(p Point) Point {
	return Point{
		X: t.A*p.X + t.B*p.Y + t.C,
		Y: t.D*p.X + t.E*p.Y + t.F,
	}
}

// TransformVector applies the transformation to a vector (no translation).
func (t Transform) TransformVector(v Vector) Vector {
	return Vector{
		X: t.A*v.X + t.B*v.Y,
		Y: t.D*v.X + t.E*v.Y,
	}
}

// IsInvertible reports whether the transform has a usable inverse.
func (t Transform) IsInvertible() bool {
	return math.Abs(t.A*t.E-t.B*t.D) >= invertEpsilon
}

// Invert returns the inverse transform and true, or the identity and
// false if t is singular.
func (t Transform) Invert() (Transform, bool) {
	det := t.A*t.E - t.B*t.D
	if math.Abs(det) < invertEpsilon {
		return Identity(), false
	}

	invDet := 1.0 / det
	return Transform{
		A: t.E * invDet,
		B: -t.B * invDet,
		C: (t.B*t.F - t.C*t.E) * invDet,
		D: -t.D * invDet,
		E: t.A * invDet,
		F: (t.C*t.D - t.A*t.F) * invDet,
	}, true
}

// IsIdentity returns true if the transform is the identity.
func (t Transform) IsIdentity() bool {
	return t.A == 1 && t.B == 0 && t.C == 0 &&
		t.D == 0 && t.E == 1 && t.F == 0
}

// IsTranslation returns true if the transform is only a translation.
func (t Transform) IsTranslation() bool {
	return t.A == 1 && t.B == 0 && t.D == 0 && t.E == 1
}

// IsAxisAligned reports whether t maps axis-aligned rects to axis-aligned rects.
func (t Transform) IsAxisAligned() bool {
	return (t.B == 0 && t.D == 0) || (t.A == 0 && t.E == 0)
}

// MapRectF returns the bounding box of r after transformation.
func (t Transform) MapRectF(r RectF) RectF {
	if r.IsEmpty() {
		return RectF{}
	}
	p0 := t.TransformPoint(Pt(r.X, r.Y))
	p1 := t.TransformPoint(Pt(r.Right(), r.Y))
	p2 := t.TransformPoint(Pt(r.X, r.Bottom()))
	p3 := t.TransformPoint(Pt(r.Right(), r.Bottom()))
	lo := p0.Min(p1).Min(p2).Min(p3)
	hi := p0.Max(p1).Max(p2).Max(p3)
	return RectF{X: lo.X, Y: lo.Y, W: hi.X - lo.X, H: hi.Y - lo.Y}
}

// MapRect returns the smallest integer rect enclosing r after transformation.
func (t Transform) MapRect(r Rect) Rect {
	return t.MapRectF(r.ToRectF()).Enclosing()
}

// MapEnclosedRect returns the largest integer rect inside the transformed r.
// Only meaningful for axis-aligned transforms; returns an empty rect otherwise.
func (t Transform) MapEnclosedRect(r Rect) Rect {
	if !t.IsAxisAligned() {
		return Rect{}
	}
	return t.MapRectF(r.ToRectF()).Enclosed()
}
