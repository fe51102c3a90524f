package tree

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/render"
)

// interestMargin grows the visible rect into the prepaint region.
const interestMargin = 512

// LayerTree is one instance of the scene tree: active, pending or recycled.
type LayerTree struct {
	active  bool
	synced  *SyncedState
	release func(*raster.Tiling)

	sourceFrame int
	root        *Layer
	layers      map[int]*Layer
	order       []*Layer

	scroll  ScrollTree
	innerID int
	outerID int

	deviceViewport geom.Rect
	deviceScale    float64
	minPageScale   float64
	maxPageScale   float64

	background            render.Color
	transparentBackground bool
	controls              BrowserControls

	propertyTreesSequence int
	propertyTreesChanged  bool

	needsFullTreeSync         bool
	needsUpdateDrawProperties bool
	needsFullDamage           bool
	viewportSizeInvalid       bool
	hasEverBeenDrawn          bool

	gpuTrigger  bool
	gpuSuitable bool

	surfaceList []*Layer
	unoccluded  geom.Region

	uiRequests         []UIResourceRequest
	pageScaleAnimation *PageScaleAnimationRequest
}

// NewLayerTree returns an empty tree sharing synced state with the other
// trees of the pipeline. release is called for every tiling the tree stops
// using; it may be nil.
func NewLayerTree(synced *SyncedState, release func(*raster.Tiling)) *LayerTree {
	if synced == nil {
		synced = NewSyncedState()
	}
	t := &LayerTree{
		synced:       synced,
		release:      release,
		layers:       make(map[int]*Layer),
		deviceScale:  1,
		minPageScale: 1,
		maxPageScale: 1,
	}
	t.scroll.reset()
	return t
}

// IsActive reports whether the tree reads active scroll and scale values.
func (t *LayerTree) IsActive() bool { return t.active }

// SetActive switches between active and pending views of the synced state.
func (t *LayerTree) SetActive(active bool) {
	if t.active == active {
		return
	}
	t.active = active
	t.SetNeedsUpdateDrawProperties()
}

func (t *LayerTree) Synced() *SyncedState { return t.synced }
func (t *LayerTree) SourceFrame() int     { return t.sourceFrame }
func (t *LayerTree) Root() *Layer         { return t.root }

// LayerByID returns the layer with id, or nil.
func (t *LayerTree) LayerByID(id int) *Layer { return t.layers[id] }

// Layers returns every layer in draw order, back to front.
func (t *LayerTree) Layers() []*Layer { return t.order }

// LayerListIsEmpty reports whether the tree has no layers.
func (t *LayerTree) LayerListIsEmpty() bool { return t.root == nil }

func (t *LayerTree) ScrollTree() *ScrollTree { return &t.scroll }

func (t *LayerTree) InnerViewportScrollNode() *ScrollNode { return t.scroll.Node(t.innerID) }
func (t *LayerTree) OuterViewportScrollNode() *ScrollNode { return t.scroll.Node(t.outerID) }

// ScrollNode returns the scroll node of a layer, or nil.
func (t *LayerTree) ScrollNode(layerID int) *ScrollNode { return t.scroll.Node(layerID) }

// DeviceViewport returns the output rect in device pixels.
func (t *LayerTree) DeviceViewport() geom.Rect { return t.deviceViewport }

// SetDeviceViewport changes the output rect and damages the whole root.
func (t *LayerTree) SetDeviceViewport(r geom.Rect) {
	if r == t.deviceViewport {
		return
	}
	t.deviceViewport = r
	t.needsFullDamage = true
	t.SetNeedsUpdateDrawProperties()
}

func (t *LayerTree) DeviceScale() float64 { return t.deviceScale }

// SetDeviceScale changes the device scale factor.
func (t *LayerTree) SetDeviceScale(s float64) {
	if s <= 0 || s == t.deviceScale {
		return
	}
	t.deviceScale = s
	t.needsFullDamage = true
	t.SetNeedsUpdateDrawProperties()
}

// PageScale returns the current page scale factor of the tree.
func (t *LayerTree) PageScale() float64 {
	if t.active {
		return t.synced.PageScale.Active()
	}
	return t.synced.PageScale.Pending()
}

// SetPageScale sets the active page scale, clamped to the allowed range.
// It reports whether the scale changed.
func (t *LayerTree) SetPageScale(s float64) bool {
	if !t.active {
		return false
	}
	s = min(max(s, t.minPageScale), t.maxPageScale)
	if !t.synced.PageScale.SetActive(s) {
		return false
	}
	t.noteViewportChanged()
	// Clamp offsets into the new range.
	if n := t.InnerViewportScrollNode(); n != nil {
		n.SetOffset(n.CurrentOffset())
	}
	return true
}

func (t *LayerTree) MinPageScale() float64 { return t.minPageScale }
func (t *LayerTree) MaxPageScale() float64 { return t.maxPageScale }

func (t *LayerTree) BackgroundColor() render.Color    { return t.background }
func (t *LayerTree) HasTransparentBackground() bool   { return t.transparentBackground }
func (t *LayerTree) BrowserControls() BrowserControls { return t.controls }

// ControlsShownRatio returns the shown fraction of the browser controls.
func (t *LayerTree) ControlsShownRatio() float64 {
	if t.active {
		return t.synced.ControlsRatio.Active()
	}
	return t.synced.ControlsRatio.Pending()
}

// SetControlsShownRatio sets the active shown ratio, clamped to [0, 1].
func (t *LayerTree) SetControlsShownRatio(r float64) bool {
	if !t.active {
		return false
	}
	r = min(max(r, 0), 1)
	if !t.synced.ControlsRatio.SetActive(r) {
		return false
	}
	t.UpdateViewportContainerSizes()
	t.noteViewportChanged()
	return true
}

// ElasticOverscroll returns the rubber-band overscroll of the viewport.
func (t *LayerTree) ElasticOverscroll() geom.Vector {
	if t.active {
		return t.synced.Elastic.Active()
	}
	return t.synced.Elastic.Pending()
}

// SetElasticOverscroll sets the active elastic overscroll.
func (t *LayerTree) SetElasticOverscroll(v geom.Vector) bool {
	if !t.active || !t.synced.Elastic.SetActive(v) {
		return false
	}
	t.noteViewportChanged()
	return true
}

func (t *LayerTree) noteViewportChanged() {
	if n := t.InnerViewportScrollNode(); n != nil {
		n.layer.noteNodeChanged()
		return
	}
	t.needsFullDamage = true
	t.SetNeedsUpdateDrawProperties()
}

// UpdateViewportContainerSizes grows the viewport containers by the height
// the browser controls no longer cover.
func (t *LayerTree) UpdateViewportContainerSizes() {
	inner := t.InnerViewportScrollNode()
	if inner == nil {
		return
	}
	var delta float64
	if t.controls.ShrinkViewport {
		hidden := 1 - t.ControlsShownRatio()
		delta = (t.controls.TopHeight + t.controls.BottomHeight) * hidden
	}
	inner.boundsDelta = geom.SizeF{H: delta}
	if outer := t.OuterViewportScrollNode(); outer != nil {
		// The outer viewport is in page space.
		outerDelta := delta
		if t.minPageScale > 0 {
			outerDelta /= t.minPageScale
		}
		outer.boundsDelta = geom.SizeF{H: outerDelta}
	}
	t.SetNeedsUpdateDrawProperties()
}

// NeedsUpdateDrawProperties reports whether draw properties are stale.
func (t *LayerTree) NeedsUpdateDrawProperties() bool { return t.needsUpdateDrawProperties }

// SetNeedsUpdateDrawProperties marks draw properties stale.
func (t *LayerTree) SetNeedsUpdateDrawProperties() { t.needsUpdateDrawProperties = true }

// NeedsFullTreeSync reports whether the last commit changed the hierarchy.
func (t *LayerTree) NeedsFullTreeSync() bool { return t.needsFullTreeSync }

// SetNeedsFullDamage damages the whole root surface on the next frame.
func (t *LayerTree) SetNeedsFullDamage() { t.needsFullDamage = true }

func (t *LayerTree) NeedsFullDamage() bool { return t.needsFullDamage }

func (t *LayerTree) ViewportSizeInvalid() bool { return t.viewportSizeInvalid }
func (t *LayerTree) SetViewportSizeInvalid()   { t.viewportSizeInvalid = true }
func (t *LayerTree) ResetViewportSizeInvalid() { t.viewportSizeInvalid = false }

func (t *LayerTree) HasEverBeenDrawn() bool     { return t.hasEverBeenDrawn }
func (t *LayerTree) SetHasEverBeenDrawn(v bool) { t.hasEverBeenDrawn = v }

// GPURasterizationTrigger and ContentSuitableForGPU are the committed
// content heuristics.
func (t *LayerTree) GPURasterizationTrigger() bool { return t.gpuTrigger }
func (t *LayerTree) ContentSuitableForGPU() bool   { return t.gpuSuitable }

// PropertyTreesSequence identifies the producer's property tree build.
func (t *LayerTree) PropertyTreesSequence() int { return t.propertyTreesSequence }

// PropertyTreesChanged reports compositor-side property changes not yet drawn.
func (t *LayerTree) PropertyTreesChanged() bool { return t.propertyTreesChanged }

// PushChangeTrackingTo copies undrawn property changes to the matching
// layers of other. Valid only when both trees share a property tree build.
func (t *LayerTree) PushChangeTrackingTo(other *LayerTree) {
	for id, l := range t.layers {
		if !l.nodeChanged {
			continue
		}
		if o := other.layers[id]; o != nil {
			o.nodeChanged = true
			other.propertyTreesChanged = true
		}
	}
	other.SetNeedsUpdateDrawProperties()
}

// MoveChangeTrackingToLayers turns property changes into layer damage
// flags, which survive a change of property tree build.
func (t *LayerTree) MoveChangeTrackingToLayers() {
	for _, l := range t.layers {
		if l.nodeChanged {
			l.propertyChanged = true
			l.nodeChanged = false
		}
	}
	t.propertyTreesChanged = false
}

// ResetAllChangeTracking clears damage state after a draw.
func (t *LayerTree) ResetAllChangeTracking() {
	for _, l := range t.order {
		l.resetChangeTracking()
		if l.surface != nil {
			l.surface.propertyChanged = false
		}
	}
	t.propertyTreesChanged = false
	t.needsFullDamage = false
}

// RenderSurfaceList returns the owners of every render surface, root first,
// each surface before its descendants.
func (t *LayerTree) RenderSurfaceList() []*Layer { return t.surfaceList }

// RootRenderSurface returns the root surface, or nil before draw properties
// are computed.
func (t *LayerTree) RootRenderSurface() *RenderSurface {
	if t.root == nil {
		return nil
	}
	return t.root.surface
}

// UnoccludedScreenSpaceRegion is the viewport minus opaque content.
func (t *LayerTree) UnoccludedScreenSpaceRegion() *geom.Region { return &t.unoccluded }

// HasCopyRequests reports whether any layer has a pending copy request.
func (t *LayerTree) HasCopyRequests() bool {
	for _, l := range t.order {
		if l.HasCopyRequest() {
			return true
		}
	}
	return false
}

// RequeueCopyRequests returns unserviced copy requests to the layer owning
// pass id so they are retried on the next draw.
func (t *LayerTree) RequeueCopyRequests(id render.PassID, reqs []*render.CopyRequest) {
	if len(reqs) == 0 {
		return
	}
	l := t.layers[int(id)]
	if l == nil {
		for _, r := range reqs {
			r.SendEmptyResult()
		}
		return
	}
	l.copyRequests = append(l.copyRequests, reqs...)
	t.SetNeedsUpdateDrawProperties()
}

// TakePendingPageScaleAnimation returns and clears the committed request.
func (t *LayerTree) TakePendingPageScaleAnimation() *PageScaleAnimationRequest {
	a := t.pageScaleAnimation
	t.pageScaleAnimation = nil
	return a
}

// ScrollbarLayersFor returns the scrollbar layers of a scroll layer.
func (t *LayerTree) ScrollbarLayersFor(scrollLayerID int) []*Layer {
	var out []*Layer
	for _, l := range t.order {
		if l.scrollbar != nil && l.scrollbar.ScrollLayerID == scrollLayerID {
			out = append(out, l)
		}
	}
	return out
}

// DidBecomeActive is called after the tree was activated.
func (t *LayerTree) DidBecomeActive() {
	t.SetActive(true)
	t.SetNeedsUpdateDrawProperties()
}

// TiledLayers returns the layers with tiled content.
func (t *LayerTree) TiledLayers() []*Layer {
	var out []*Layer
	for _, l := range t.order {
		if _, ok := l.content.(*TiledContent); ok {
			out = append(out, l)
		}
	}
	return out
}

// TilingRequests describes the tilings of the tree for the raster scheduler.
func (t *LayerTree) TilingRequests(which raster.WhichTree) []raster.TilingRequest {
	var reqs []raster.TilingRequest
	for _, l := range t.TiledLayers() {
		tc := l.content.(*TiledContent)
		vis := l.draw.VisibleRect
		interest := vis
		if !vis.IsEmpty() {
			interest = geom.R(vis.X-interestMargin, vis.Y-interestMargin,
				vis.W+2*interestMargin, vis.H+2*interestMargin).Intersect(geom.RectFromSize(l.bounds))
		}
		reqs = append(reqs, raster.TilingRequest{
			Tiling:   tc.tiling,
			Tree:     which,
			Visible:  vis,
			Interest: interest,
			Required: true,
		})
	}
	return reqs
}

// RequiredTilesReady reports whether every visible tile is rastered.
func (t *LayerTree) RequiredTilesReady() bool {
	for _, l := range t.TiledLayers() {
		tc := l.content.(*TiledContent)
		if !tc.tiling.AllReadyIn(l.draw.VisibleRect) {
			return false
		}
	}
	return true
}

// DetachResources releases the tilings and copy requests held by the
// tree's layers. The layers stay in place for reuse by the next commit.
func (t *LayerTree) DetachResources() {
	for _, l := range t.order {
		l.detach()
		l.surface = nil
	}
	t.surfaceList = t.surfaceList[:0]
}
