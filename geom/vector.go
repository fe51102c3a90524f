package geom

import "math"

// AngleBetween returns the smallest angle between a and b in degrees.
// Returns 0 if either vector has zero length.
func AngleBetween(a, b Vector) float64 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	// Rounding can push the cosine just outside [-1, 1].
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}

// Project returns the projection of v onto the direction of onto.
// Returns the zero vector if onto has zero length.
func Project(v, onto Vector) Vector {
	l2 := onto.LengthSquared()
	if l2 == 0 {
		return Vector{}
	}
	return onto.Mul(v.Dot(onto) / l2)
}
