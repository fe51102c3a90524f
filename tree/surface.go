package tree

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/render"
)

// RenderSurface is an intermediate drawing target owned by a layer.
//
// Every surface lives in screen space: its content rect is in screen
// coordinates and its pass needs no transform to the root.
type RenderSurface struct {
	owner  *Layer
	parent *RenderSurface

	contentRect geom.Rect
	drawOpacity float64
	clipRect    geom.Rect
	isClipped   bool

	// layerList holds drawing layers and the owners of contributing child
	// surfaces, back to front.
	layerList []*Layer

	contributesToDrawn bool
	propertyChanged    bool
}

func (s *RenderSurface) reset(parent *RenderSurface) {
	s.parent = parent
	s.layerList = s.layerList[:0]
	s.contentRect = geom.Rect{}
	s.contributesToDrawn = false
}

func (s *RenderSurface) Owner() *Layer          { return s.owner }
func (s *RenderSurface) Parent() *RenderSurface { return s.parent }
func (s *RenderSurface) ContentRect() geom.Rect { return s.contentRect }
func (s *RenderSurface) DrawOpacity() float64   { return s.drawOpacity }
func (s *RenderSurface) LayerList() []*Layer    { return s.layerList }
func (s *RenderSurface) PassID() render.PassID  { return render.PassID(s.owner.id) }
func (s *RenderSurface) HasCopyRequest() bool   { return s.owner.HasCopyRequest() }
func (s *RenderSurface) PropertyChanged() bool  { return s.propertyChanged }

// ContributesToDrawnSurface reports whether the surface's output reaches the
// root surface.
func (s *RenderSurface) ContributesToDrawnSurface() bool {
	for p := s; p != nil; p = p.parent {
		if p.parent == nil {
			return true
		}
		if !p.contributesToDrawn {
			return false
		}
	}
	return true
}

// DamageTracker returns the tracker of the surface, creating it if needed.
func (s *RenderSurface) DamageTracker() *DamageTracker {
	if s.owner.damage == nil {
		s.owner.damage = NewDamageTracker()
	}
	return s.owner.damage
}

// CurrentDamage returns the accumulated damage clipped to the content rect.
func (s *RenderSurface) CurrentDamage() geom.Rect {
	return s.DamageTracker().CurrentDamage(s.contentRect)
}

// NewRenderPass creates the pass the surface draws into.
func (s *RenderSurface) NewRenderPass() *render.Pass {
	return render.NewPass(s.PassID(), s.contentRect, s.CurrentDamage(), geom.Identity())
}

// AppendQuads emits the quad that composites the surface into its target.
func (s *RenderSurface) AppendQuads(target *render.Pass, occlusion *geom.Region, data *AppendQuadsData) {
	r := s.contentRect
	if s.isClipped {
		r = r.Intersect(s.clipRect)
	}
	if r.IsEmpty() || (occlusion != nil && occlusion.ContainsRect(r)) {
		return
	}
	sqs := target.CreateSharedQuadState()
	sqs.LayerID = s.owner.id
	sqs.ContentBounds = s.contentRect
	sqs.VisibleContentRect = r
	sqs.ClipRect, sqs.IsClipped = s.clipRect, s.isClipped
	sqs.Opacity = s.drawOpacity
	target.AppendQuad(render.Quad{
		Material:      render.MaterialRenderPass,
		Rect:          s.contentRect,
		VisibleRect:   r,
		NeedsBlending: true,
		Shared:        sqs,
		PassID:        s.PassID(),
	})
	data.VisibleLayerArea += r.Area()
}
