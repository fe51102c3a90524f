// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/compositor/geom"

// Material selects the kind of a Quad.
type Material uint8

const (
	// MaterialSolidColor fills Rect with Color.
	MaterialSolidColor Material = iota

	// MaterialTile draws one rasterized content tile identified by ResourceID.
	MaterialTile

	// MaterialRenderPass composites the output of the pass PassID.
	MaterialRenderPass

	// MaterialTexture draws a UI resource or overlay texture.
	MaterialTexture

	// MaterialCheckerboard marks content whose tile is not ready.
	MaterialCheckerboard
)

// String returns the material name.
func (m Material) String() string {
	switch m {
	case MaterialSolidColor:
		return "SolidColor"
	case MaterialTile:
		return "Tile"
	case MaterialRenderPass:
		return "RenderPass"
	case MaterialTexture:
		return "Texture"
	case MaterialCheckerboard:
		return "Checkerboard"
	default:
		return "Unknown"
	}
}

// SharedQuadState holds the properties shared by every quad a layer emits.
type SharedQuadState struct {
	// LayerID is the emitting layer, 0 for synthesized quads.
	LayerID int

	// QuadToTarget maps quad content space into the pass's target space.
	QuadToTarget geom.Transform

	// ContentBounds is the layer bounds in content space.
	ContentBounds geom.Rect

	// VisibleContentRect is the part of ContentBounds that is visible.
	VisibleContentRect geom.Rect

	// ClipRect is in target space and only applies when IsClipped.
	ClipRect  geom.Rect
	IsClipped bool

	// Opacity is in [0, 1].
	Opacity float64
}

// Quad is one drawing primitive in a render pass.
// Only the fields relevant for Material are meaningful.
type Quad struct {
	Material Material

	// Rect is the quad geometry in content space.
	Rect geom.Rect

	// VisibleRect is the unoccluded part of Rect.
	VisibleRect geom.Rect

	// NeedsBlending is false when the quad fully covers its pixels.
	NeedsBlending bool

	Shared *SharedQuadState

	// Color is used by MaterialSolidColor and MaterialCheckerboard.
	Color Color

	// ResourceID is used by MaterialTile and MaterialTexture.
	ResourceID uint64

	// PassID is used by MaterialRenderPass.
	PassID PassID
}

// TargetRect returns the quad's visible rect mapped to target space.
func (q *Quad) TargetRect() geom.Rect {
	if q.Shared == nil {
		return q.VisibleRect
	}
	return q.Shared.QuadToTarget.MapRect(q.VisibleRect)
}
