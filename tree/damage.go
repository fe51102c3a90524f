package tree

import "github.com/gogpu/compositor/geom"

// maxDirtyRects is the threshold after which a surface switches to full
// damage. Past this many rects a full redraw is cheaper to track.
const maxDirtyRects = 16

// DamageTracker accumulates the damage of one render surface until it is
// drawn.
type DamageTracker struct {
	prevLayers   map[int]geom.Rect
	prevSurfaces map[int]geom.Rect

	rects []geom.Rect
	full  bool

	nextLayers   map[int]geom.Rect
	nextSurfaces map[int]geom.Rect
}

// NewDamageTracker returns a tracker that has not seen any layer, so the
// first update damages everything it sees.
func NewDamageTracker() *DamageTracker {
	return &DamageTracker{
		prevLayers:   make(map[int]geom.Rect),
		prevSurfaces: make(map[int]geom.Rect),
		nextLayers:   make(map[int]geom.Rect),
		nextSurfaces: make(map[int]geom.Rect),
	}
}

// Invalidate adds r to the damage.
func (d *DamageTracker) Invalidate(r geom.Rect) {
	if d.full || r.IsEmpty() {
		return
	}
	for _, e := range d.rects {
		if e.ContainsRect(r) {
			return
		}
	}
	d.rects = append(d.rects, r)
	if len(d.rects) > maxDirtyRects {
		d.InvalidateAll()
	}
}

// InvalidateAll damages the whole surface.
func (d *DamageTracker) InvalidateAll() {
	d.full = true
	d.rects = d.rects[:0]
}

// IsFull reports whether the whole surface is damaged.
func (d *DamageTracker) IsFull() bool { return d.full }

// CurrentDamage returns the accumulated damage clipped to content.
func (d *DamageTracker) CurrentDamage(content geom.Rect) geom.Rect {
	if d.full {
		return content
	}
	var u geom.Rect
	for _, r := range d.rects {
		u = u.Union(r)
	}
	return u.Intersect(content)
}

// DidDrawDamagedArea clears the accumulated damage after a draw.
func (d *DamageTracker) DidDrawDamagedArea() {
	d.full = false
	d.rects = d.rects[:0]
}

// UpdateDamage accumulates the damage caused by changes of the surface's
// layers and child surfaces since the previous update. Child surfaces must
// be updated first.
func (d *DamageTracker) UpdateDamage(s *RenderSurface, forceFull bool) {
	clear(d.nextLayers)
	clear(d.nextSurfaces)

	if forceFull {
		d.InvalidateAll()
	}

	for _, l := range s.layerList {
		if cs := l.surface; cs != nil && l != s.owner {
			cur := cs.contentRect
			prev, seen := d.prevSurfaces[l.id]
			if !seen || cs.propertyChanged {
				d.Invalidate(prev.Union(cur))
			} else {
				d.Invalidate(cs.CurrentDamage())
			}
			d.nextSurfaces[l.id] = cur
			continue
		}

		cur := l.draw.VisibleScreenRect
		prev, seen := d.prevLayers[l.id]
		switch {
		case !seen || l.draw.PropertyChanged:
			d.Invalidate(prev.Union(cur))
		case !l.updateRect.IsEmpty():
			d.Invalidate(l.draw.ScreenSpaceTransform.MapRect(l.updateRect).Intersect(cur))
		}
		d.nextLayers[l.id] = cur
	}

	for id, r := range d.prevLayers {
		if _, ok := d.nextLayers[id]; !ok {
			d.Invalidate(r)
		}
	}
	for id, r := range d.prevSurfaces {
		if _, ok := d.nextSurfaces[id]; !ok {
			d.Invalidate(r)
		}
	}

	d.prevLayers, d.nextLayers = d.nextLayers, d.prevLayers
	d.prevSurfaces, d.nextSurfaces = d.nextSurfaces, d.prevSurfaces
}

// TrackDamageForAllSurfaces updates every surface's damage, children first.
func (t *LayerTree) TrackDamageForAllSurfaces() {
	for i := len(t.surfaceList) - 1; i >= 0; i-- {
		s := t.surfaceList[i].surface
		s.DamageTracker().UpdateDamage(s, t.surfaceList[i] == t.root && t.needsFullDamage)
	}
}
