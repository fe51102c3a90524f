package tree

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/render"
)

// DrawProperties are derived by UpdateDrawProperties.
type DrawProperties struct {
	// ScreenSpaceTransform maps layer content space to screen space.
	ScreenSpaceTransform geom.Transform

	// Opacity is relative to the render target.
	Opacity float64

	// ScreenOpacity is the product of all ancestor opacities.
	ScreenOpacity float64

	// VisibleRect is the visible part of the layer in content space.
	VisibleRect geom.Rect

	// VisibleScreenRect is VisibleRect in screen space.
	VisibleScreenRect geom.Rect

	ClipRect  geom.Rect
	IsClipped bool

	// Target is the layer owning the render surface this layer draws into.
	Target *Layer

	// ScreenSpaceTransformIsAnimating is set if the layer or an ancestor
	// has a running transform animation.
	ScreenSpaceTransformIsAnimating bool

	// PropertyChanged is set if the layer or an ancestor changed since the
	// last draw.
	PropertyChanged bool
}

// Layer is one node of a LayerTree.
type Layer struct {
	id       int
	tree     *LayerTree
	parent   *Layer
	children []*Layer

	position       geom.Point
	bounds         geom.Size
	transform      geom.Transform
	opacity        float64
	content        Content
	spec           ContentSpec
	contentsOpaque bool
	forceSurface   bool
	masksToBounds  bool

	scroll    *ScrollNode
	scrollbar *ScrollbarProperties

	// scrollbarThickness scales the thumb of scrollbar layers.
	scrollbarThickness float64

	copyRequests []*render.CopyRequest
	updateRect   geom.Rect

	// propertyChanged tracks layer-level changes. nodeChanged tracks changes
	// made through the property trees: impl-side scrolling and animation.
	propertyChanged bool
	nodeChanged     bool

	transformAnimating bool
	wasEverReady       bool

	draw    DrawProperties
	surface *RenderSurface
	damage  *DamageTracker
}

func newLayer(t *LayerTree, id int) *Layer {
	return &Layer{
		id:                 id,
		tree:               t,
		opacity:            1,
		transform:          geom.Identity(),
		scrollbarThickness: 1,
		wasEverReady:       true,
	}
}

func (l *Layer) ID() int                   { return l.id }
func (l *Layer) Tree() *LayerTree          { return l.tree }
func (l *Layer) Parent() *Layer            { return l.parent }
func (l *Layer) Children() []*Layer        { return l.children }
func (l *Layer) Position() geom.Point      { return l.position }
func (l *Layer) Bounds() geom.Size         { return l.bounds }
func (l *Layer) Opacity() float64          { return l.opacity }
func (l *Layer) Content() Content          { return l.content }
func (l *Layer) ContentsOpaque() bool      { return l.contentsOpaque }
func (l *Layer) MasksToBounds() bool       { return l.masksToBounds }
func (l *Layer) DrawsContent() bool        { return l.content != nil }
func (l *Layer) Transform() geom.Transform { return l.transform }

// Draw returns the computed draw properties.
func (l *Layer) Draw() *DrawProperties { return &l.draw }

// RenderSurface returns the surface owned by the layer, or nil.
func (l *Layer) RenderSurface() *RenderSurface { return l.surface }

// ScrollNode returns the layer's own scroll node, or nil if it does not scroll.
func (l *Layer) ScrollNode() *ScrollNode { return l.scroll }

// Scrollbar returns the scrollbar properties of scrollbar layers.
func (l *Layer) Scrollbar() *ScrollbarProperties { return l.scrollbar }

// ScrollAncestor returns the scroll node of the nearest scrollable layer
// containing l, including l itself.
func (l *Layer) ScrollAncestor() *ScrollNode {
	for p := l; p != nil; p = p.parent {
		if p.scroll != nil {
			return p.scroll
		}
	}
	return nil
}

// IsScrolledBy reports whether node scrolls l.
func (l *Layer) IsScrolledBy(node *ScrollNode) bool {
	if node == nil {
		return false
	}
	for n := l.ScrollAncestor(); n != nil; n = n.Parent() {
		if n == node {
			return true
		}
	}
	return false
}

// SetOpacity changes the opacity from the compositor thread.
func (l *Layer) SetOpacity(v float64) {
	if v == l.opacity {
		return
	}
	l.opacity = v
	l.noteNodeChanged()
}

// SetTransform changes the transform from the compositor thread.
func (l *Layer) SetTransform(tr geom.Transform) {
	if tr == l.transform {
		return
	}
	l.transform = tr
	l.noteNodeChanged()
}

// SetTransformAnimating marks a running transform animation. Ending one
// requires the layer to be fully drawn again before it counts as ready.
func (l *Layer) SetTransformAnimating(animating bool) {
	if animating && !l.transformAnimating {
		l.wasEverReady = false
	}
	l.transformAnimating = animating
}

func (l *Layer) TransformAnimating() bool { return l.transformAnimating }

// WasEverReadySinceLastTransformAnimation reports whether the layer drew
// without missing tiles since its last transform animation started.
func (l *Layer) WasEverReadySinceLastTransformAnimation() bool { return l.wasEverReady }

func (l *Layer) SetWasEverReadySinceLastTransformAnimation(v bool) { l.wasEverReady = v }

// SetScrollbarThickness scales the thumb of a scrollbar layer.
func (l *Layer) SetScrollbarThickness(s float64) {
	if s == l.scrollbarThickness {
		return
	}
	l.scrollbarThickness = s
	l.noteNodeChanged()
}

func (l *Layer) ScrollbarThickness() float64 { return l.scrollbarThickness }

// AddUpdateRect invalidates part of the layer's content.
func (l *Layer) AddUpdateRect(r geom.Rect) {
	l.updateRect = l.updateRect.Union(r.Intersect(geom.RectFromSize(l.bounds)))
	if tc, ok := l.content.(*TiledContent); ok {
		tc.tiling.Invalidate(r)
	}
	l.tree.SetNeedsUpdateDrawProperties()
}

func (l *Layer) UpdateRect() geom.Rect { return l.updateRect }

// LayerPropertyChanged reports a layer-level change since the last draw.
func (l *Layer) LayerPropertyChanged() bool { return l.propertyChanged }

// NoteLayerPropertyChanged marks the layer as changed.
func (l *Layer) NoteLayerPropertyChanged() {
	l.propertyChanged = true
	l.tree.SetNeedsUpdateDrawProperties()
}

func (l *Layer) noteNodeChanged() {
	l.nodeChanged = true
	l.tree.propertyTreesChanged = true
	l.tree.SetNeedsUpdateDrawProperties()
}

// CopyRequests returns the pending copy requests.
func (l *Layer) CopyRequests() []*render.CopyRequest { return l.copyRequests }

// HasCopyRequest reports whether the layer has pending copy requests.
func (l *Layer) HasCopyRequest() bool { return len(l.copyRequests) > 0 }

// TakeCopyRequests returns and clears the pending copy requests.
func (l *Layer) TakeCopyRequests() []*render.CopyRequest {
	reqs := l.copyRequests
	l.copyRequests = nil
	if len(reqs) > 0 {
		l.tree.SetNeedsUpdateDrawProperties()
	}
	return reqs
}

// AddCopyRequest queues a copy of the layer's surface output.
func (l *Layer) AddCopyRequest(r *render.CopyRequest) {
	l.copyRequests = append(l.copyRequests, r)
	l.tree.SetNeedsUpdateDrawProperties()
}

// WillDraw reports whether the content can draw in mode.
func (l *Layer) WillDraw(mode DrawMode, res UIResourceLookup) bool {
	return l.content != nil && l.content.WillDraw(mode, res)
}

// PopulateSharedQuadState fills s from the draw properties.
func (l *Layer) PopulateSharedQuadState(s *render.SharedQuadState) {
	s.LayerID = l.id
	s.QuadToTarget = l.draw.ScreenSpaceTransform
	s.ContentBounds = geom.RectFromSize(l.bounds)
	s.VisibleContentRect = l.draw.VisibleRect
	s.ClipRect = l.draw.ClipRect
	s.IsClipped = l.draw.IsClipped
	s.Opacity = l.draw.Opacity
}

// AppendQuads emits the layer's quads through its content.
func (l *Layer) AppendQuads(ctx *QuadContext, data *AppendQuadsData) {
	if l.content == nil {
		return
	}
	ctx.Layer = l
	l.content.AppendQuads(ctx, data)
}

// resetChangeTracking clears per-draw change state.
func (l *Layer) resetChangeTracking() {
	l.propertyChanged = false
	l.nodeChanged = false
	l.updateRect = geom.Rect{}
	l.draw.PropertyChanged = false
}

// detach releases resources held by the layer's content.
func (l *Layer) detach() {
	if tc, ok := l.content.(*TiledContent); ok && l.tree.release != nil {
		l.tree.release(tc.tiling)
	}
	l.content = nil
	l.damage = nil
	l.surface = nil
	for _, r := range l.copyRequests {
		r.SendEmptyResult()
	}
	l.copyRequests = nil
}
