package scroll

import (
	"math"
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/tree"
)

// pinchSnapMargin is the distance, in viewport pixels, within which a pinch
// anchor snaps to the edge of the viewport.
const pinchSnapMargin = 100

// Viewport scrolls the inner and outer viewport nodes as one unit.
type Viewport struct {
	r *Router

	pinchActive bool
	pinchAdjust geom.Vector
}

// ViewportResult is the outcome of Viewport.ScrollBy in viewport space.
type ViewportResult struct {
	// Consumed counts tiny leftovers as consumed.
	Consumed geom.Vector
	// ContentScrolled excludes the part taken by the browser controls.
	ContentScrolled geom.Vector
}

func (v *Viewport) tree() *tree.LayerTree { return v.r.active() }

// Inner returns the inner viewport node, or nil.
func (v *Viewport) Inner() *tree.ScrollNode { return v.tree().InnerViewportScrollNode() }

// Outer returns the outer viewport node, or nil.
func (v *Viewport) Outer() *tree.ScrollNode { return v.tree().OuterViewportScrollNode() }

// MainScrollNode returns the node gestures on the viewport latch to: the
// outer viewport if present, else the inner one.
func (v *Viewport) MainScrollNode() *tree.ScrollNode {
	if o := v.Outer(); o != nil {
		return o
	}
	return v.Inner()
}

// TotalScrollOffset returns the sum of the inner and outer offsets.
func (v *Viewport) TotalScrollOffset() geom.Vector {
	var off geom.Vector
	if n := v.Inner(); n != nil {
		off = off.Add(n.CurrentOffset())
	}
	if n := v.Outer(); n != nil {
		off = off.Add(n.CurrentOffset())
	}
	return off
}

// MaxTotalScrollOffset returns the sum of the inner and outer maxima.
func (v *Viewport) MaxTotalScrollOffset() geom.Vector {
	var m geom.Vector
	if n := v.Inner(); n != nil {
		m = m.Add(n.MaxOffset())
	}
	if n := v.Outer(); n != nil {
		m = m.Add(n.MaxOffset())
	}
	return m
}

func (v *Viewport) controlsConsume(delta geom.Vector) bool {
	if delta.Y < 0 {
		return true
	}
	return v.TotalScrollOffset().Y < v.MaxTotalScrollOffset().Y
}

// ScrollBy scrolls the browser controls, then the inner viewport, then the
// outer viewport if scrollOuter is set.
func (v *Viewport) ScrollBy(delta geom.Vector, p geom.Point, direct, affectControls, scrollOuter bool) ViewportResult {
	inner := v.Inner()
	if inner == nil {
		return ViewportResult{}
	}
	content := delta
	if affectControls && v.controlsConsume(delta) {
		excess := v.r.controls.ScrollBy(delta)
		content = content.Sub(delta.Sub(excess))
	}

	pending := content.Sub(v.r.scrollSingleNode(inner, content, p, direct))
	if outer := v.Outer(); scrollOuter && outer != nil {
		pending = pending.Sub(v.r.scrollSingleNode(outer, pending, p, direct))
	}

	res := ViewportResult{Consumed: delta, ContentScrolled: content.Sub(pending)}
	if math.Round(pending.X) != 0 || math.Round(pending.Y) != 0 {
		res.Consumed = delta.Sub(dropTinyOverscroll(pending))
	}
	return res
}

func dropTinyOverscroll(v geom.Vector) geom.Vector {
	if math.Abs(v.X) < scrollEpsilon {
		v.X = 0
	}
	if math.Abs(v.Y) < scrollEpsilon {
		v.Y = 0
	}
	return v
}

// ScrollAnimated splits delta between the viewport nodes and animates the
// one taking the larger share. The other is scrolled immediately. It
// returns the part of delta that was used.
func (v *Viewport) ScrollAnimated(delta geom.Vector, delay time.Duration) geom.Vector {
	inner := v.Inner()
	if inner == nil {
		return geom.Vector{}
	}
	outer := v.Outer()
	ps := v.tree().PageScale()

	scaled := delta.Mul(1 / ps)
	innerDelta := v.r.computeScrollDelta(inner, delta)
	var outerDelta geom.Vector
	if outer != nil {
		outerDelta = v.r.computeScrollDelta(outer, scaled.Sub(innerDelta).Mul(ps))
	}
	if innerDelta.IsZero() && outerDelta.IsZero() {
		return geom.Vector{}
	}

	animated := false
	if outer == nil || manhattan(innerDelta) > manhattan(outerDelta) {
		animated = v.r.scrollAnimationCreate(inner, innerDelta, delay)
		if outer != nil {
			outer.ScrollBy(outerDelta)
		}
	} else {
		animated = v.r.scrollAnimationCreate(outer, outerDelta, delay)
		inner.ScrollBy(innerDelta)
	}
	if animated {
		return delta
	}
	return scaled.Sub(innerDelta).Sub(outerDelta).Mul(ps)
}

func manhattan(v geom.Vector) float64 { return math.Abs(v.X) + math.Abs(v.Y) }

// ScrollByInnerFirst scrolls the inner viewport and gives the rest to the
// outer viewport. Layer-space deltas ignore the user-scrollable axes. It
// returns the consumed delta.
func (v *Viewport) ScrollByInnerFirst(delta geom.Vector) geom.Vector {
	inner := v.Inner()
	if inner == nil {
		return geom.Vector{}
	}
	unused := delta.Sub(moveBy(inner, delta))
	if outer := v.Outer(); outer != nil && !unused.IsZero() {
		unused = unused.Sub(moveBy(outer, unused))
	}
	return delta.Sub(unused)
}

func moveBy(n *tree.ScrollNode, d geom.Vector) geom.Vector {
	old := n.CurrentOffset()
	n.SetOffset(old.Add(d))
	return n.CurrentOffset().Sub(old)
}

// PinchUpdate multiplies the page scale by magnify and pans the inner
// viewport so the content under anchor stays put. Anchors near an edge of
// the viewport snap to that edge for the whole gesture.
func (v *Viewport) PinchUpdate(magnify float64, anchor geom.Point) {
	inner := v.Inner()
	if inner == nil {
		return
	}
	t := v.tree()
	if !v.pinchActive {
		v.pinchActive = true
		v.pinchAdjust = geom.Vector{}
		c := inner.ContainerBounds()
		switch {
		case anchor.X < pinchSnapMargin:
			v.pinchAdjust.X = -anchor.X
		case anchor.X > c.W-pinchSnapMargin:
			v.pinchAdjust.X = c.W - anchor.X
		}
		switch {
		case anchor.Y < pinchSnapMargin:
			v.pinchAdjust.Y = -anchor.Y
		case anchor.Y > c.H-pinchSnapMargin:
			v.pinchAdjust.Y = c.H - anchor.Y
		}
	}

	a := anchor.Add(v.pinchAdjust)
	before := inner.CurrentOffset()
	prev := a.Mul(1 / t.PageScale())
	t.SetPageScale(t.PageScale() * magnify)
	next := a.Mul(1 / t.PageScale())

	// Zooming out may already have clamped the offset.
	clamped := inner.CurrentOffset().Sub(before)
	moveBy(inner, prev.Sub(next).Sub(clamped))
}

// PinchEnd resets the anchor snapping of the gesture.
func (v *Viewport) PinchEnd() {
	v.pinchActive = false
	v.pinchAdjust = geom.Vector{}
}
