package tree

import "github.com/gogpu/compositor/geom"

// pointHitsLayer reports whether a screen point lands inside l's bounds and
// its clip.
func pointHitsLayer(l *Layer, p geom.Point) bool {
	d := &l.draw
	if d.IsClipped && !d.ClipRect.Contains(p) {
		return false
	}
	inv, ok := d.ScreenSpaceTransform.Invert()
	if !ok {
		return false
	}
	return geom.RectFromSize(l.bounds).Contains(inv.TransformPoint(p))
}

// FindLayerThatIsHitByPoint returns the front-most drawing layer under a
// screen point, or nil.
func (t *LayerTree) FindLayerThatIsHitByPoint(p geom.Point) *Layer {
	t.UpdateDrawProperties()
	for i := len(t.order) - 1; i >= 0; i-- {
		l := t.order[i]
		if l.DrawsContent() && pointHitsLayer(l, p) {
			return l
		}
	}
	return nil
}

// FindScrollingLayerOrScrollbarThatIsHitByPoint returns the front-most
// scroll layer or scrollbar layer under a screen point, or nil.
func (t *LayerTree) FindScrollingLayerOrScrollbarThatIsHitByPoint(p geom.Point) *Layer {
	t.UpdateDrawProperties()
	for i := len(t.order) - 1; i >= 0; i-- {
		l := t.order[i]
		if (l.scroll != nil || l.scrollbar != nil) && pointHitsLayer(l, p) {
			return l
		}
	}
	return nil
}

// ScrollNodeForLayerOrScrollbar maps a hit layer to the node it scrolls.
func (t *LayerTree) ScrollNodeForLayerOrScrollbar(l *Layer) *ScrollNode {
	if l == nil {
		return nil
	}
	if l.scrollbar != nil {
		return t.scroll.Node(l.scrollbar.ScrollLayerID)
	}
	return l.ScrollAncestor()
}
