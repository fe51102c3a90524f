package tree

import "github.com/gogpu/compositor/geom"

type walkState struct {
	toScreen      geom.Transform
	targetOpacity float64
	screenOpacity float64
	target        *RenderSurface
	clip          geom.Rect
	clipped       bool
	changed       bool
	animating     bool
}

// UpdateDrawProperties recomputes transforms, visible rects and render
// surfaces if they are stale. It reports whether anything was computed.
func (t *LayerTree) UpdateDrawProperties() bool {
	if !t.needsUpdateDrawProperties {
		return false
	}
	t.needsUpdateDrawProperties = false
	t.surfaceList = t.surfaceList[:0]
	t.unoccluded.Clear()
	if t.root == nil {
		return true
	}

	counts := make(map[*Layer]int, len(t.order))
	countDrawing(t.root, counts)

	var opaque geom.Region
	st := walkState{
		toScreen:      geom.Scale(t.deviceScale, t.deviceScale),
		targetOpacity: 1,
		screenOpacity: 1,
		clip:          t.deviceViewport,
		clipped:       true,
	}
	t.calcLayer(t.root, st, counts, &opaque)

	t.unoccluded = geom.NewRegion(t.deviceViewport)
	t.unoccluded.SubtractRegion(&opaque)
	return true
}

// countDrawing records, for each layer, how many layers in its subtree draw
// content, including itself.
func countDrawing(l *Layer, counts map[*Layer]int) int {
	n := 0
	if l.DrawsContent() {
		n = 1
	}
	for _, c := range l.children {
		n += countDrawing(c, counts)
	}
	counts[l] = n
	return n
}

func (t *LayerTree) needsRenderSurface(l *Layer, counts map[*Layer]int) bool {
	if l == t.root || l.forceSurface || l.HasCopyRequest() {
		return true
	}
	// Group opacity needs an intermediate target once two layers overlap.
	return l.opacity < 1 && counts[l] > 1
}

func intersectClip(clip geom.Rect, clipped bool, r geom.Rect) geom.Rect {
	if !clipped {
		return r
	}
	return clip.Intersect(r)
}

func (t *LayerTree) calcLayer(l *Layer, st walkState, counts map[*Layer]int, opaque *geom.Region) {
	d := &l.draw

	containerToParent := geom.Translate(l.position.X, l.position.Y).Multiply(l.transform)
	local := containerToParent
	if n := l.scroll; n != nil {
		if n.innerViewport {
			s := t.PageScale()
			e := t.ElasticOverscroll()
			local = local.Multiply(geom.Scale(s, s)).Multiply(geom.Translate(-e.X, -e.Y))
		}
		off := n.CurrentOffset()
		local = local.Multiply(geom.Translate(-off.X, -off.Y))
	}
	toScreen := st.toScreen.Multiply(local)

	d.ScreenSpaceTransform = toScreen
	d.PropertyChanged = st.changed || l.propertyChanged || l.nodeChanged
	d.ScreenSpaceTransformIsAnimating = st.animating || l.transformAnimating

	clip, clipped := st.clip, st.clipped
	if n := l.scroll; n != nil {
		cb := n.ContainerBounds()
		cr := st.toScreen.Multiply(containerToParent).MapRectF(geom.RectF{W: cb.W, H: cb.H}).Enclosing()
		clip, clipped = intersectClip(clip, clipped, cr), true
	} else if l.masksToBounds {
		cr := toScreen.MapRect(geom.RectFromSize(l.bounds))
		clip, clipped = intersectClip(clip, clipped, cr), true
	}

	screenOpacity := st.screenOpacity * l.opacity
	targetOpacity := st.targetOpacity * l.opacity

	target := st.target
	contributorIndex := -1
	if t.needsRenderSurface(l, counts) {
		s := l.surface
		if s == nil {
			s = &RenderSurface{owner: l}
			l.surface = s
		}
		s.reset(target)
		s.drawOpacity = targetOpacity
		s.clipRect, s.isClipped = st.clip, st.clipped
		if l == t.root {
			s.isClipped = false
		}
		s.propertyChanged = d.PropertyChanged
		if target != nil {
			contributorIndex = len(target.layerList)
			target.layerList = append(target.layerList, l)
		}
		t.surfaceList = append(t.surfaceList, l)
		target = s
		targetOpacity = 1
	} else {
		l.surface = nil
	}

	d.Target = target.owner
	d.Opacity = targetOpacity
	d.ScreenOpacity = screenOpacity
	d.ClipRect, d.IsClipped = clip, clipped

	bounds := geom.RectFromSize(l.bounds)
	vis := toScreen.MapRect(bounds)
	if clipped {
		vis = vis.Intersect(clip)
	}
	d.VisibleScreenRect = vis
	d.VisibleRect = geom.Rect{}
	if inv, ok := toScreen.Invert(); ok && !vis.IsEmpty() {
		d.VisibleRect = inv.MapRect(vis).Intersect(bounds)
	}
	if d.VisibleRect.IsEmpty() {
		d.VisibleScreenRect = geom.Rect{}
	}

	if l.DrawsContent() && !d.VisibleRect.IsEmpty() && screenOpacity > 0 {
		target.layerList = append(target.layerList, l)
		if l.contentsOpaque && screenOpacity == 1 && toScreen.IsAxisAligned() {
			opaque.Union(toScreen.MapEnclosedRect(d.VisibleRect).Intersect(vis))
		}
	}

	child := walkState{
		toScreen:      toScreen,
		targetOpacity: targetOpacity,
		screenOpacity: screenOpacity,
		target:        target,
		clip:          clip,
		clipped:       clipped,
		changed:       d.PropertyChanged,
		animating:     d.ScreenSpaceTransformIsAnimating,
	}
	for _, c := range l.children {
		t.calcLayer(c, child, counts, opaque)
	}

	s := l.surface
	if s == nil {
		return
	}
	if l == t.root {
		s.contentRect = t.deviceViewport
		s.contributesToDrawn = true
		return
	}
	var r geom.Rect
	for _, m := range s.layerList {
		if m.surface != nil && m != l {
			r = r.Union(m.surface.contentRect)
		} else {
			r = r.Union(m.draw.VisibleScreenRect)
		}
	}
	if s.isClipped {
		r = r.Intersect(s.clipRect)
	}
	s.contentRect = r
	s.contributesToDrawn = !r.IsEmpty() && s.drawOpacity > 0

	if r.IsEmpty() && !l.HasCopyRequest() {
		t.dropSurface(l, st.target, contributorIndex)
	}
}

// dropSurface removes an empty surface from its parent and the surface list.
func (t *LayerTree) dropSurface(l *Layer, parent *RenderSurface, index int) {
	if parent != nil && index >= 0 && index < len(parent.layerList) && parent.layerList[index] == l {
		parent.layerList = append(parent.layerList[:index], parent.layerList[index+1:]...)
	}
	for i, o := range t.surfaceList {
		if o == l {
			t.surfaceList = append(t.surfaceList[:i], t.surfaceList[i+1:]...)
			break
		}
	}
	l.surface = nil
}
