// Package geom provides the 2D geometry used by the compositor pipeline:
// points and vectors, integer and float rectangles, affine transforms,
// and rectilinear regions for damage and occlusion tracking.
//
// All types are small values and are safe to copy. None of them are
// safe for concurrent mutation.
package geom
