package tree

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/render"
)

// PushScene replaces the tree's content with s.
//
// ref is the tree currently on screen. Layer changes are detected against
// it and its rastered tiles are reused. ref may be t itself when committing
// directly to the active tree, or nil.
func (t *LayerTree) PushScene(s *Scene, ref *LayerTree) {
	old := t.layers
	t.layers = make(map[int]*Layer, len(old))
	t.order = t.order[:0]
	t.scroll.reset()
	t.root = nil
	var prevs map[int]*Layer
	switch {
	case ref == t:
		prevs = old
	case ref != nil:
		prevs = ref.layers
	}
	if s.Root != nil {
		t.root = t.pushLayer(s.Root, nil, old, prevs)
	}
	for id, l := range old {
		if t.layers[id] == l {
			continue
		}
		if ref == t {
			// Direct commits own the only copy of the removed layer.
			if l.scroll != nil {
				t.synced.Remove(id)
			}
			l.detach()
		}
	}

	if ref != nil && (ref.background != s.BackgroundColor ||
		ref.transparentBackground != s.HasTransparentBackground) {
		t.needsFullDamage = true
	}
	t.sourceFrame = s.SourceFrame
	t.innerID = s.InnerViewportScrollID
	t.outerID = s.OuterViewportScrollID
	if n := t.scroll.Node(t.innerID); n != nil {
		n.innerViewport = true
	}
	if n := t.scroll.Node(t.outerID); n != nil {
		n.outerViewport = true
	}

	pageScale := s.PageScale
	if pageScale <= 0 {
		pageScale = 1
	}
	t.minPageScale, t.maxPageScale = s.MinPageScale, s.MaxPageScale
	if t.minPageScale <= 0 {
		t.minPageScale = pageScale
	}
	if t.maxPageScale < t.minPageScale {
		t.maxPageScale = max(t.minPageScale, pageScale)
	}
	t.synced.PageScale.PushFromMainThread(pageScale)
	t.synced.ControlsRatio.PushFromMainThread(s.BrowserControls.ShownRatio)
	t.synced.Elastic.PushFromMainThread(s.ElasticOverscroll)

	t.background = s.BackgroundColor
	t.transparentBackground = s.HasTransparentBackground
	t.controls = s.BrowserControls
	t.propertyTreesSequence = s.PropertyTreesSequence
	t.needsFullTreeSync = s.NeedsFullTreeSync
	t.gpuTrigger = s.GPURasterizationTrigger
	t.gpuSuitable = s.ContentSuitableForGPU
	t.uiRequests = append(t.uiRequests, s.UIResourceRequests...)
	if s.PageScaleAnimation != nil {
		t.pageScaleAnimation = s.PageScaleAnimation
	}
	t.viewportSizeInvalid = false

	if t.active {
		t.synced.PushPendingToActive()
	}
	t.UpdateViewportContainerSizes()
	t.SetNeedsUpdateDrawProperties()
}

func (t *LayerTree) pushLayer(sl *SceneLayer, parent *Layer, old, prevs map[int]*Layer) *Layer {
	l := old[sl.ID]
	if l == nil || t.layers[sl.ID] != nil {
		l = newLayer(t, sl.ID)
	}
	prev := prevs[sl.ID]

	changed := prev == nil || layerChanged(prev, sl, parent)
	direct := prev != nil && prev == l

	l.parent = parent
	l.children = l.children[:0]
	l.position = sl.Position
	l.bounds = sl.Bounds
	l.transform = sl.Transform
	l.opacity = sl.Opacity
	l.contentsOpaque = sl.ContentsOpaque
	l.forceSurface = sl.ForceRenderSurface
	l.masksToBounds = sl.MasksToBounds
	l.scrollbar = sl.Scrollbar

	update := sl.UpdateRect.Intersect(geom.RectFromSize(sl.Bounds))
	if direct {
		l.propertyChanged = l.propertyChanged || changed
		l.updateRect = l.updateRect.Union(update)
		l.copyRequests = append(l.copyRequests, sl.CopyRequests...)
	} else {
		l.propertyChanged = changed
		l.nodeChanged = false
		l.updateRect = update
		l.copyRequests = append([]*render.CopyRequest(nil), sl.CopyRequests...)
		l.wasEverReady = true
		l.transformAnimating = false
		l.scrollbarThickness = 1
	}
	t.setContent(l, sl, prev, direct)

	l.scroll = nil
	if sp := sl.Scroll; sp != nil {
		n := &ScrollNode{
			layer:             l,
			containerBounds:   sp.ContainerBounds,
			userScrollableH:   sp.UserScrollableHorizontal,
			userScrollableV:   sp.UserScrollableVertical,
			mainThreadReasons: sp.MainThreadReasons,
			nonFastRegion:     sp.NonFastScrollableRegion.Clone(),
		}
		if parent != nil {
			n.parent = parent.ScrollAncestor()
		}
		l.scroll = n
		t.scroll.nodes[sl.ID] = n
		t.synced.Offset(sl.ID).PushFromMainThread(sp.Offset)
	}

	t.layers[sl.ID] = l
	t.order = append(t.order, l)
	for _, c := range sl.Children {
		l.children = append(l.children, t.pushLayer(c, l, old, prevs))
	}
	return l
}

func layerChanged(prev *Layer, sl *SceneLayer, parent *Layer) bool {
	parentID := 0
	if parent != nil {
		parentID = parent.id
	}
	prevParentID := 0
	if prev.parent != nil {
		prevParentID = prev.parent.id
	}
	return prevParentID != parentID ||
		prev.position != sl.Position ||
		prev.bounds != sl.Bounds ||
		prev.transform != sl.Transform ||
		prev.opacity != sl.Opacity ||
		prev.contentsOpaque != sl.ContentsOpaque ||
		prev.masksToBounds != sl.MasksToBounds ||
		prev.forceSurface != sl.ForceRenderSurface ||
		!sameSpec(prev.spec, sl.Content)
}

func sameSpec(a, b ContentSpec) bool {
	return a.Kind == b.Kind && a.Color == b.Color && a.UIResource == b.UIResource
}

func (t *LayerTree) setContent(l *Layer, sl *SceneLayer, prev *Layer, direct bool) {
	oldTiled, _ := l.content.(*TiledContent)
	l.spec = sl.Content

	if sl.Scrollbar != nil {
		t.dropTiling(oldTiled, direct)
		l.content = ScrollbarContent{}
		return
	}

	switch sl.Content.Kind {
	case ContentSolidColor:
		t.dropTiling(oldTiled, direct)
		l.content = &SolidColorContent{Color: sl.Content.Color}
	case ContentUIResource:
		t.dropTiling(oldTiled, direct)
		l.content = &UIResourceContent{ID: sl.Content.UIResource}
	case ContentTiled:
		var tc *TiledContent
		switch {
		case direct && oldTiled != nil:
			tc = oldTiled
		case prev != nil:
			if pt, ok := prev.content.(*TiledContent); ok {
				tc = &TiledContent{tiling: pt.tiling.Clone(), Checkerboard: pt.Checkerboard}
			}
		}
		if tc == nil {
			tc = NewTiledContent(l.bounds)
		}
		tc.tiling.Resize(l.bounds)
		tc.tiling.Invalidate(l.updateRect)
		tc.tiling.SetImages(sl.Content.Images)
		l.content = tc
	default:
		t.dropTiling(oldTiled, direct)
		l.content = nil
	}
}

func (t *LayerTree) dropTiling(tc *TiledContent, direct bool) {
	if tc != nil && direct && t.release != nil {
		t.release(tc.tiling)
	}
}

// SynchronizeTrees detaches the layers of active that pending no longer
// has. It is called on activation when the hierarchy changed.
func SynchronizeTrees(active, pending *LayerTree) {
	for id, l := range active.layers {
		if pending.layers[id] != nil {
			continue
		}
		if l.scroll != nil {
			active.synced.Remove(id)
		}
		l.detach()
	}
	pending.needsFullTreeSync = false
}

// PushLayerProperties carries compositor-side layer state from the active
// tree into the pending tree that is about to replace it: damage history,
// undrawn changes, unserviced copy requests, animation and readiness state.
func PushLayerProperties(active, pending *LayerTree) {
	for id, p := range pending.layers {
		a := active.layers[id]
		if a == nil || a == p {
			continue
		}
		p.damage, a.damage = a.damage, nil
		p.wasEverReady = a.wasEverReady
		p.transformAnimating = a.transformAnimating
		p.propertyChanged = p.propertyChanged || a.propertyChanged
		p.nodeChanged = p.nodeChanged || a.nodeChanged
		p.updateRect = p.updateRect.Union(a.updateRect)
		if len(a.copyRequests) > 0 {
			p.copyRequests = append(a.copyRequests, p.copyRequests...)
			a.copyRequests = nil
		}
		if p.scrollbar != nil {
			p.opacity = a.opacity
			p.scrollbarThickness = a.scrollbarThickness
		}
	}
	pending.deviceViewport = active.deviceViewport
	pending.deviceScale = active.deviceScale
	pending.needsFullDamage = pending.needsFullDamage || active.needsFullDamage
	pending.SetNeedsUpdateDrawProperties()
}
