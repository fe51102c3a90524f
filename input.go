package compositor

import (
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/scroll"
)

// ScrollBegin latches a scroll gesture on the active tree. Scrollbars of
// the latched layer are shown.
func (p *Pipeline) ScrollBegin(state *scroll.State, typ scroll.InputType) scroll.Status {
	st := p.router.ScrollBegin(state, typ)
	p.didScrollBegin(st)
	return st
}

// RootScrollBegin latches a scroll gesture on the viewport.
func (p *Pipeline) RootScrollBegin(state *scroll.State, typ scroll.InputType) scroll.Status {
	st := p.router.RootScrollBegin(state, typ)
	p.didScrollBegin(st)
	return st
}

func (p *Pipeline) didScrollBegin(st scroll.Status) {
	p.metrics.observeScrollBegin(st)
	if n := p.router.CurrentlyScrollingNode(); n != nil {
		p.ticker.DidScrollBegin(n.LayerID())
	}
	p.renewTreePriority()
}

// ScrollBy scrolls the latched chain.
func (p *Pipeline) ScrollBy(state *scroll.State) scroll.Result {
	res := p.router.ScrollBy(state)
	if !res.DidScroll {
		return res
	}
	if n := p.router.CurrentlyScrollingNode(); n != nil {
		p.ticker.DidScrollUpdate(n.LayerID(), p.now())
	}
	p.tilePrioritiesDirty = true
	return res
}

// ScrollEnd ends the gesture. The latched node is cleared before the next
// event is handled.
func (p *Pipeline) ScrollEnd(state *scroll.State) {
	id := -1
	if n := p.router.CurrentlyScrollingNode(); n != nil {
		id = n.LayerID()
	}
	p.router.ScrollEnd(state)
	if id >= 0 {
		p.ticker.DidScrollEnd(id, p.now())
	}
	p.renewTreePriority()
}

// FlingScrollBegin continues the latched gesture as a fling.
func (p *Pipeline) FlingScrollBegin() scroll.Status {
	return p.router.FlingScrollBegin()
}

// ScrollAnimated scrolls the node under pt by delta with an animation.
func (p *Pipeline) ScrollAnimated(pt geom.Point, delta geom.Vector, delay time.Duration) scroll.Status {
	st := p.router.ScrollAnimated(pt, delta, delay)
	p.metrics.observeScrollBegin(st)
	return st
}

// PinchBegin starts a pinch gesture on the viewport.
func (p *Pipeline) PinchBegin() {
	p.router.PinchBegin()
	p.renewTreePriority()
}

// PinchUpdate scales the page by magnify around anchor.
func (p *Pipeline) PinchUpdate(magnify float64, anchor geom.Point) {
	p.router.PinchUpdate(magnify, anchor)
	p.tilePrioritiesDirty = true
}

// PinchEnd finishes the pinch gesture.
func (p *Pipeline) PinchEnd() {
	p.router.PinchEnd()
	p.renewTreePriority()
}
