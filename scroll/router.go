package scroll

import (
	"math"
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/tree"
)

// DefaultSnapAngleDegrees is the default tie-break threshold between the
// requested delta and the delta a node consumed.
const DefaultSnapAngleDegrees = 45

// scrollEpsilon is the smallest per-axis delta that counts as movement.
const scrollEpsilon = 0.1

// TreeSource returns the tree input is routed to.
type TreeSource interface {
	ActiveTree() *tree.LayerTree
}

// Client is notified of the work caused by scrolling.
type Client interface {
	SetNeedsCommit()
	SetNeedsRedraw()
	SetNeedsOneBeginFrame()
}

// Animator runs scroll offset animations on the compositor thread.
type Animator interface {
	CreateScrollOffsetAnimation(layerID int, target, current geom.Vector, delay time.Duration)

	// UpdateScrollOffsetAnimationTarget moves the target of the running
	// animation of layerID by delta. It reports false if no animation runs.
	UpdateScrollOffsetAnimationTarget(layerID int, delta, maxOffset geom.Vector, delay time.Duration) bool

	AbortScrollOffsetAnimation()
}

// ControlsScroller moves the browser controls with scroll gestures.
type ControlsScroller interface {
	ScrollBegin()

	// ScrollBy applies delta to the controls and returns the excess.
	ScrollBy(delta geom.Vector) geom.Vector

	ScrollEnd()
	PinchBegin()
	PinchEnd()
}

type nopClient struct{}

func (nopClient) SetNeedsCommit()        {}
func (nopClient) SetNeedsRedraw()        {}
func (nopClient) SetNeedsOneBeginFrame() {}

type nopAnimator struct{}

func (nopAnimator) CreateScrollOffsetAnimation(int, geom.Vector, geom.Vector, time.Duration) {}
func (nopAnimator) UpdateScrollOffsetAnimationTarget(int, geom.Vector, geom.Vector, time.Duration) bool {
	return false
}
func (nopAnimator) AbortScrollOffsetAnimation() {}

type nopControls struct{}

func (nopControls) ScrollBegin()                           {}
func (nopControls) ScrollBy(delta geom.Vector) geom.Vector { return delta }
func (nopControls) ScrollEnd()                             {}
func (nopControls) PinchBegin()                            {}
func (nopControls) PinchEnd()                              {}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithClient sets the receiver of commit and redraw requests.
func WithClient(c Client) RouterOption {
	return func(r *Router) { r.client = c }
}

// WithAnimator sets the scroll offset animator used by ScrollAnimated.
func WithAnimator(a Animator) RouterOption {
	return func(r *Router) { r.animator = a }
}

// WithControls sets the browser controls the viewport scrolls.
func WithControls(c ControlsScroller) RouterOption {
	return func(r *Router) { r.controls = c }
}

// WithSnapAngle sets SnapAngleDegrees.
func WithSnapAngle(deg float64) RouterOption {
	return func(r *Router) { r.SnapAngleDegrees = deg }
}

// Router latches scroll gestures to a scroll node and distributes their
// deltas along the scroll chain.
type Router struct {
	src      TreeSource
	client   Client
	animator Animator
	controls ControlsScroller
	viewport *Viewport

	// SnapAngleDegrees is the angle below which a non-viewport node that
	// consumed part of a delta is treated as having consumed all of it.
	SnapAngleDegrees float64

	// The latched node is kept by layer ID so it survives activation.
	currentID  int
	hasCurrent bool

	wheelScrolling bool
	didLock        bool
	accumulated    geom.Vector

	pinchActive         bool
	pinchEndShouldClear bool
}

// NewRouter creates a router for the trees of src.
func NewRouter(src TreeSource, opts ...RouterOption) *Router {
	r := &Router{
		src:              src,
		client:           nopClient{},
		animator:         nopAnimator{},
		controls:         nopControls{},
		SnapAngleDegrees: DefaultSnapAngleDegrees,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = nopClient{}
	}
	if r.animator == nil {
		r.animator = nopAnimator{}
	}
	if r.controls == nil {
		r.controls = nopControls{}
	}
	r.viewport = &Viewport{r: r}
	return r
}

// Viewport returns the viewport of the active tree.
func (r *Router) Viewport() *Viewport { return r.viewport }

func (r *Router) active() *tree.LayerTree { return r.src.ActiveTree() }

// CurrentlyScrollingNode returns the latched node, or nil.
func (r *Router) CurrentlyScrollingNode() *tree.ScrollNode {
	if !r.hasCurrent {
		return nil
	}
	return r.active().ScrollNode(r.currentID)
}

func (r *Router) setCurrent(n *tree.ScrollNode) {
	r.currentID, r.hasCurrent = n.LayerID(), true
}

// ClearCurrentlyScrolling releases the latched node and resets the
// gesture's overscroll.
func (r *Router) ClearCurrentlyScrolling() {
	r.hasCurrent = false
	r.didLock = false
	r.accumulated = geom.Vector{}
}

// PinchActive reports whether a pinch gesture is in progress.
func (r *Router) PinchActive() bool { return r.pinchActive }

// AccumulatedRootOverscroll returns the overscroll of the current gesture.
func (r *Router) AccumulatedRootOverscroll() geom.Vector { return r.accumulated }

// tryScroll decides whether n can scroll on the compositor thread for a
// gesture starting at screen point p.
func (r *Router) tryScroll(p geom.Point, n *tree.ScrollNode) Status {
	if reasons := n.MainThreadScrollingReasons(); reasons != tree.NotScrollingOnMain {
		return Status{Thread: OnMainThread, Reasons: reasons}
	}
	sst := n.Layer().Draw().ScreenSpaceTransform
	inv, ok := sst.Invert()
	if !ok {
		return Status{Thread: Ignored, Reasons: tree.NonInvertibleTransform}
	}
	if region := n.NonFastScrollableRegion(); !region.IsEmpty() {
		lp := inv.TransformPoint(p)
		if region.ContainsPoint(geom.Pt(math.Round(lp.X), math.Round(lp.Y))) {
			return Status{Thread: OnMainThread, Reasons: tree.NonFastScrollableRegion}
		}
	}
	if !n.Scrollable() {
		return Status{Thread: Ignored, Reasons: tree.NotScrollable}
	}
	if m := n.MaxOffset(); m.X <= 0 && m.Y <= 0 {
		return Status{Thread: Ignored, Reasons: tree.NotScrollable}
	}
	return implStatus()
}

// findScrollNode walks up from the hit layer to the first node that can
// scroll on the compositor thread. Any ancestor that needs the main thread
// wins. The viewport stands in for its own nodes and for a failed search.
func (r *Router) findScrollNode(p geom.Point, hit *tree.Layer) (*tree.ScrollNode, Status) {
	var candidate *tree.ScrollNode
	if hit != nil {
		for n := hit.ScrollAncestor(); n != nil; n = n.Parent() {
			st := r.tryScroll(p, n)
			if st.Thread == OnMainThread {
				return nil, st
			}
			if st.Thread == OnImplThread && candidate == nil {
				candidate = n
			}
		}
	}
	if candidate == nil || candidate.IsInnerViewport() || candidate.IsOuterViewport() {
		candidate = r.viewport.MainScrollNode()
	}
	if candidate != nil {
		if st := r.tryScroll(p, candidate); st.Thread == OnMainThread {
			return nil, st
		}
	}
	return candidate, implStatus()
}

// hasScrollAncestor reports whether the first scrollable node above child
// is target.
func hasScrollAncestor(child *tree.Layer, target *tree.ScrollNode) bool {
	if target == nil {
		return false
	}
	for n := child.ScrollAncestor(); n != nil; n = n.Parent() {
		if n.Scrollable() {
			return n == target
		}
	}
	return false
}

// ScrollBegin hit-tests state.Position and latches the gesture to a node.
func (r *Router) ScrollBegin(state *State, typ InputType) Status {
	r.ClearCurrentlyScrolling()

	t := r.active()
	p := state.Position.Mul(t.DeviceScale())
	hit := t.FindLayerThatIsHitByPoint(p)
	if hit != nil {
		sl := t.FindScrollingLayerOrScrollbarThatIsHitByPoint(p)
		if sl != nil && !hasScrollAncestor(hit, t.ScrollNodeForLayerOrScrollbar(sl)) {
			return logBegin(Status{Thread: Unknown, Reasons: tree.FailedHitTest}, typ)
		}
	}

	n, st := r.findScrollNode(p, hit)
	if st.Thread == OnMainThread {
		return logBegin(st, typ)
	}
	return logBegin(r.scrollBegin(state, n, typ), typ)
}

// RootScrollBegin latches the gesture to the viewport without hit testing.
func (r *Router) RootScrollBegin(state *State, typ InputType) Status {
	r.ClearCurrentlyScrolling()
	return logBegin(r.scrollBegin(state, r.viewport.MainScrollNode(), typ), typ)
}

func logBegin(st Status, typ InputType) Status {
	logx.L().Debug("scroll: begin", "input", typ, "status", st)
	return st
}

func (r *Router) scrollBegin(state *State, n *tree.ScrollNode, typ InputType) Status {
	if n == nil {
		return Status{Thread: Ignored, Reasons: tree.NoScrollingLayer}
	}
	r.animator.AbortScrollOffsetAnimation()
	r.controls.ScrollBegin()
	r.setCurrent(n)
	r.wheelScrolling = typ == InputWheel
	state.directManipulation = !r.wheelScrolling
	// Distribute even a zero delta so the chain sees the gesture start.
	r.distribute(state)
	return implStatus()
}

// ScrollBy scrolls the latched chain by state.Delta.
func (r *Router) ScrollBy(state *State) Result {
	n := r.CurrentlyScrollingNode()
	if n == nil {
		return Result{}
	}
	t := r.active()
	t.UpdateDrawProperties()
	initialRatio := t.ControlsShownRatio()

	state.consumedInSequence = r.didLock
	state.directManipulation = !r.wheelScrolling
	state.current = n

	r.distribute(state)

	if state.current != nil {
		r.setCurrent(state.current)
	}
	r.didLock = state.consumedInSequence

	dx, dy := state.causedScrollX, state.causedScrollY
	if dx || dy {
		r.client.SetNeedsCommit()
		r.client.SetNeedsRedraw()
	}
	// Scrolling along an axis resets the overscroll collected on it.
	if dx {
		r.accumulated.X = 0
	}
	if dy {
		r.accumulated.Y = 0
	}

	unused := state.Delta
	if inner := t.InnerViewportScrollNode(); inner != nil {
		if !inner.UserScrollableHorizontal() {
			unused.X = 0
		}
		if !inner.UserScrollableVertical() {
			unused.Y = 0
		}
	}
	r.accumulated = r.accumulated.Add(unused)

	didControls := initialRatio != t.ControlsShownRatio()
	if didControls {
		r.client.SetNeedsRedraw()
	}
	return Result{
		DidScroll:                 dx || dy || didControls,
		DidOverscrollRoot:         !unused.IsZero(),
		AccumulatedRootOverscroll: r.accumulated,
		UnusedScrollDelta:         unused,
	}
}

// ScrollEnd finishes the gesture and releases the latched node.
func (r *Router) ScrollEnd(state *State) {
	r.distribute(state)
	r.controls.ScrollEnd()
	r.ClearCurrentlyScrolling()
}

// FlingScrollBegin continues the latched gesture as a fling.
func (r *Router) FlingScrollBegin() Status {
	if r.CurrentlyScrollingNode() == nil {
		return Status{Thread: Ignored, Reasons: tree.NoScrollingLayer}
	}
	return implStatus()
}

// distribute applies state to the scroll chain of the latched node,
// innermost node first, stopping at the viewport.
func (r *Router) distribute(state *State) {
	vp := r.viewport.MainScrollNode()
	var chain []*tree.ScrollNode
	for n := r.CurrentlyScrollingNode(); n != nil; n = n.Parent() {
		if n == vp {
			chain = append(chain, vp)
			break
		}
		if !n.Scrollable() {
			continue
		}
		chain = append(chain, n)
	}
	for _, n := range chain {
		if state.PreventPropagation && state.consumedInSequence && state.current != nil && state.current != n {
			continue
		}
		r.applyScroll(n, state)
	}
}

func (r *Router) applyScroll(n *tree.ScrollNode, state *State) {
	delta := state.Delta
	isViewport := n == r.viewport.MainScrollNode()
	isInner := n.IsInnerViewport()

	var applied, content geom.Vector
	if isViewport || isInner {
		res := r.viewport.ScrollBy(delta, state.Position, state.directManipulation, !r.wheelScrolling, isViewport)
		applied, content = res.Consumed, res.ContentScrolled
	} else {
		applied = r.scrollSingleNode(n, delta, state.Position, state.directManipulation)
	}

	if math.Abs(applied.X) <= scrollEpsilon && math.Abs(applied.Y) <= scrollEpsilon {
		if isViewport {
			state.ConsumeDelta(applied)
		}
		return
	}

	if !isViewport && !isInner {
		// Close enough to the requested direction: keep the parent still.
		// Otherwise only the perpendicular part chains up.
		if geom.AngleBetween(applied, delta) < r.SnapAngleDegrees {
			applied = delta
		} else {
			applied = geom.Project(delta, applied)
		}
		content = applied
	}

	state.setCausedScroll(math.Abs(content.X) > scrollEpsilon, math.Abs(content.Y) > scrollEpsilon)
	state.ConsumeDelta(applied)
	state.current = n
}

func (r *Router) scrollSingleNode(n *tree.ScrollNode, delta geom.Vector, p geom.Point, direct bool) geom.Vector {
	if direct {
		return r.scrollInViewportSpace(n, p, delta)
	}
	return scrollInLayerSpace(n, delta, r.active().PageScale())
}

// scrollInViewportSpace projects the start and end of the gesture into the
// node's layer space and returns the movement mapped back to the viewport.
func (r *Router) scrollInViewportSpace(n *tree.ScrollNode, p geom.Point, delta geom.Vector) geom.Vector {
	sst := n.Layer().Draw().ScreenSpaceTransform
	inv, ok := sst.Invert()
	if !ok {
		return geom.Vector{}
	}
	s := r.active().DeviceScale()
	start := p.Mul(s)
	localStart := inv.TransformPoint(start)
	localEnd := inv.TransformPoint(start.Add(delta.Mul(s)))

	prev := n.CurrentOffset()
	n.ScrollBy(localEnd.Sub(localStart))
	scrolled := n.CurrentOffset().Sub(prev)

	end := sst.TransformPoint(localStart.Add(scrolled))
	return end.Mul(1 / s).Sub(p)
}

func scrollInLayerSpace(n *tree.ScrollNode, delta geom.Vector, pageScale float64) geom.Vector {
	prev := n.CurrentOffset()
	n.ScrollBy(delta.Mul(1 / pageScale))
	return n.CurrentOffset().Sub(prev).Mul(pageScale)
}

// computeScrollDelta returns the layer-space delta n would consume.
func (r *Router) computeScrollDelta(n *tree.ScrollNode, delta geom.Vector) geom.Vector {
	adj := delta.Mul(1 / r.active().PageScale())
	if !n.UserScrollableHorizontal() {
		adj.X = 0
	}
	if !n.UserScrollableVertical() {
		adj.Y = 0
	}
	old := n.CurrentOffset()
	return n.ClampOffset(old.Add(adj)).Sub(old)
}

// scrollAnimationCreate starts an offset animation on n. Deltas too small
// to animate are applied directly and false is returned.
func (r *Router) scrollAnimationCreate(n *tree.ScrollNode, delta geom.Vector, delay time.Duration) bool {
	if math.Abs(delta.X) <= scrollEpsilon && math.Abs(delta.Y) <= scrollEpsilon {
		n.ScrollBy(delta)
		return false
	}
	r.setCurrent(n)
	cur := n.CurrentOffset()
	target := n.ClampOffset(cur.Add(delta))
	r.animator.CreateScrollOffsetAnimation(n.LayerID(), target, cur, delay)
	r.client.SetNeedsOneBeginFrame()
	return true
}

func (r *Router) scrollAnimationUpdateTarget(n *tree.ScrollNode, delta geom.Vector, delay time.Duration) bool {
	if !r.animator.UpdateScrollOffsetAnimationTarget(n.LayerID(), delta, n.MaxOffset(), delay) {
		return false
	}
	r.client.SetNeedsOneBeginFrame()
	return true
}

// ScrollAnimatedBegin latches an animated wheel gesture to the node under
// p without scrolling.
func (r *Router) ScrollAnimatedBegin(p geom.Point) Status {
	if n := r.CurrentlyScrollingNode(); n != nil {
		if r.scrollAnimationUpdateTarget(n, geom.Vector{}, 0) {
			return implStatus()
		}
		return Status{Thread: Ignored, Reasons: tree.NotScrollable}
	}
	st := r.ScrollBegin(NewState(p, geom.Vector{}), InputWheel)
	if st.Thread == OnImplThread {
		end := NewState(p, geom.Vector{})
		end.IsEnding = true
		r.ScrollEnd(end)
	}
	return st
}

// ScrollAnimated scrolls by delta with an animation. A running animation
// has its target moved instead. Otherwise the first node of the chain under
// p that can consume part of delta is animated, and only that node.
func (r *Router) ScrollAnimated(p geom.Point, delta geom.Vector, delay time.Duration) Status {
	if n := r.CurrentlyScrollingNode(); n != nil {
		d := delta
		if !n.UserScrollableHorizontal() {
			d.X = 0
		}
		if !n.UserScrollableVertical() {
			d.Y = 0
		}
		if r.scrollAnimationUpdateTarget(n, d, delay) {
			return implStatus()
		}
		return Status{Thread: Ignored, Reasons: tree.NotScrollable}
	}

	state := NewState(p, geom.Vector{})
	state.IsInInertialPhase = true
	st := r.ScrollBegin(state, InputWheel)
	if st.Thread == OnImplThread {
		pending := delta
		vp := r.viewport.MainScrollNode()
		for n := r.CurrentlyScrollingNode(); n != nil; n = n.Parent() {
			if !n.Scrollable() {
				continue
			}
			if n == vp {
				// The viewport consumes the whole delta once it animates.
				if r.viewport.ScrollAnimated(pending, delay) == pending {
					return st
				}
				break
			}
			d := r.computeScrollDelta(n, pending)
			if r.scrollAnimationCreate(n, d, delay) {
				return st
			}
			pending = pending.Sub(d)
		}
	}
	state.IsEnding = true
	r.ScrollEnd(state)
	return st
}

// ScrollOffsetAnimationFinished ends the gesture of a completed animation.
func (r *Router) ScrollOffsetAnimationFinished() {
	end := &State{IsEnding: true}
	r.ScrollEnd(end)
}

// PinchBegin latches the viewport for a pinch gesture.
func (r *Router) PinchBegin() {
	r.pinchActive = true
	r.pinchEndShouldClear = r.CurrentlyScrollingNode() == nil
	if n := r.viewport.MainScrollNode(); n != nil {
		r.setCurrent(n)
	}
	r.controls.PinchBegin()
}

// PinchUpdate scales the page by magnify, keeping anchor (in viewport
// coordinates) fixed on screen.
func (r *Router) PinchUpdate(magnify float64, anchor geom.Point) {
	if r.active().InnerViewportScrollNode() == nil {
		return
	}
	r.viewport.PinchUpdate(magnify, anchor)
	r.client.SetNeedsCommit()
	r.client.SetNeedsRedraw()
}

// PinchEnd finishes the pinch gesture.
func (r *Router) PinchEnd() {
	r.pinchActive = false
	if r.pinchEndShouldClear {
		r.pinchEndShouldClear = false
		r.ClearCurrentlyScrolling()
	}
	r.viewport.PinchEnd()
	r.controls.PinchEnd()
	r.client.SetNeedsCommit()
	// Content may have been drawn at a scale picked during the pinch.
	r.active().SetNeedsUpdateDrawProperties()
	r.client.SetNeedsRedraw()
}
