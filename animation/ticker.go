package animation

import (
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/scroll"
	"github.com/gogpu/compositor/tree"
)

// Client receives the frame requests of running animations.
type Client interface {
	SetNeedsOneBeginFrame()
	SetNeedsRedraw()
	SetNeedsCommit()

	// RequestAnimationAfter asks for a frame once d has passed.
	RequestAnimationAfter(d time.Duration)

	DidCompletePageScaleAnimation()
}

type nopClient struct{}

func (nopClient) SetNeedsOneBeginFrame()              {}
func (nopClient) SetNeedsRedraw()                     {}
func (nopClient) SetNeedsCommit()                     {}
func (nopClient) RequestAnimationAfter(time.Duration) {}
func (nopClient) DidCompletePageScaleAnimation()      {}

// TickerOption configures a Ticker.
type TickerOption func(*Ticker)

// WithClient sets the receiver of frame requests.
func WithClient(c Client) TickerOption {
	return func(t *Ticker) { t.client = c }
}

// WithHost sets the layer animation host.
func WithHost(h Host) TickerOption {
	return func(t *Ticker) { t.host = h }
}

// WithControls sets the browser controls manager whose show and hide
// animations the ticker drives.
func WithControls(m *BrowserControlsOffsetManager) TickerOption {
	return func(t *Ticker) { t.controls = m }
}

// WithScrollbarSettings sets the timings of new scrollbar controllers.
func WithScrollbarSettings(s ScrollbarSettings) TickerOption {
	return func(t *Ticker) { t.scrollbarSettings = s }
}

// Ticker advances every impl-side animation once per frame: the page scale
// animation, layer animations, scrollbar fades and browser controls.
type Ticker struct {
	src      scroll.TreeSource
	viewport *scroll.Viewport
	client   Client
	host     Host
	controls *BrowserControlsOffsetManager

	scrollbarSettings ScrollbarSettings
	scrollbars        map[int]*ScrollbarAnimationController

	pageScale *PageScaleAnimation
}

// NewTicker creates a ticker for the active tree of src, scrolling through
// viewport.
func NewTicker(src scroll.TreeSource, viewport *scroll.Viewport, opts ...TickerOption) *Ticker {
	t := &Ticker{
		src:               src,
		viewport:          viewport,
		client:            nopClient{},
		scrollbarSettings: DefaultScrollbarSettings(),
		scrollbars:        make(map[int]*ScrollbarAnimationController),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Host returns the layer animation host, or nil.
func (t *Ticker) Host() Host { return t.host }

// Tick advances every animation to now. It reports whether anything
// animated, in which case a redraw is requested when active is set.
// Animations still running request exactly one more frame.
func (t *Ticker) Tick(now time.Time, active bool) bool {
	did := t.animatePageScale(now)
	if t.animateLayers(now) {
		did = true
	}
	if t.animateScrollbars(now) {
		did = true
	}
	if t.animateControls(now) {
		did = true
	}
	if active && did {
		t.client.SetNeedsRedraw()
	}
	return did
}

// ActivateAnimations starts the layer animations that waited for
// activation.
func (t *Ticker) ActivateAnimations() {
	if t.host != nil {
		t.host.ActivateAnimations()
	}
}

// StartPageScaleAnimation replaces any running page scale animation with
// the one described by req.
func (t *Ticker) StartPageScaleAnimation(req *tree.PageScaleAnimationRequest) {
	if req == nil || t.viewport.Inner() == nil {
		return
	}
	active := t.src.ActiveTree()
	scale := active.PageScale()
	vp := t.viewport.Inner().ContainerBounds()
	limit := t.viewport.MaxTotalScrollOffset()
	content := geom.SizeF{W: limit.X + vp.W/scale, H: limit.Y + vp.H/scale}

	a := NewPageScaleAnimation(t.viewport.TotalScrollOffset(), scale, vp, content)
	d := time.Duration(req.DurationMS) * time.Millisecond
	if req.UseAnchor {
		a.ZoomWithAnchor(req.TargetOffset, req.Scale, d)
	} else {
		a.ZoomTo(req.TargetOffset, req.Scale, d)
	}
	t.pageScale = a
	logx.L().Debug("animation: page scale", "target", req.Scale, "anchor", req.UseAnchor, "duration", d)
	t.client.SetNeedsOneBeginFrame()
}

// PageScaleAnimationActive reports whether a page scale animation runs.
func (t *Ticker) PageScaleAnimationActive() bool { return t.pageScale != nil }

func (t *Ticker) animatePageScale(now time.Time) bool {
	a := t.pageScale
	if a == nil {
		return false
	}
	if !a.IsStarted() {
		a.Start(now)
	}
	t.src.ActiveTree().SetPageScale(a.PageScaleAt(now))
	t.viewport.ScrollByInnerFirst(a.ScrollOffsetAt(now).Sub(t.viewport.TotalScrollOffset()))

	if a.IsCompleteAt(now) {
		t.pageScale = nil
		t.client.SetNeedsCommit()
		t.client.DidCompletePageScaleAnimation()
	} else {
		t.client.SetNeedsOneBeginFrame()
	}
	return true
}

func (t *Ticker) animateLayers(now time.Time) bool {
	if t.host == nil {
		return false
	}
	animated := t.host.Animate(now)
	if t.host.HasActiveAnimations() {
		t.client.SetNeedsOneBeginFrame()
	}
	return animated
}

func (t *Ticker) animateControls(now time.Time) bool {
	if t.controls == nil || !t.controls.HasAnimation() {
		return false
	}
	before := t.controls.ShownRatio()
	d := t.controls.Animate(now)
	if t.controls.HasAnimation() {
		t.client.SetNeedsOneBeginFrame()
	}
	if t.controls.ShownRatio() != before {
		t.client.SetNeedsRedraw()
	}
	if t.viewport.TotalScrollOffset().Y == 0 || d.IsZero() {
		return false
	}
	t.viewport.ScrollBy(d, geom.Point{}, false, false, true)
	t.client.SetNeedsCommit()
	return true
}

// SyncScrollbarControllers creates a controller for every scroll layer of
// the active tree that has scrollbars and drops the others.
func (t *Ticker) SyncScrollbarControllers() {
	seen := make(map[int]bool)
	for _, l := range t.src.ActiveTree().Layers() {
		if sb := l.Scrollbar(); sb != nil {
			seen[sb.ScrollLayerID] = true
		}
	}
	for id := range t.scrollbars {
		if !seen[id] {
			delete(t.scrollbars, id)
		}
	}
	for id := range seen {
		if _, ok := t.scrollbars[id]; !ok {
			t.scrollbars[id] = newScrollbarAnimationController(id, t.src, t.client, t.scrollbarSettings)
		}
	}
}

// ScrollbarController returns the controller of scrollLayerID, or nil.
func (t *Ticker) ScrollbarController(scrollLayerID int) *ScrollbarAnimationController {
	return t.scrollbars[scrollLayerID]
}

// DidScrollBegin forwards to the controller of scrollLayerID, if any.
func (t *Ticker) DidScrollBegin(scrollLayerID int) {
	if c := t.scrollbars[scrollLayerID]; c != nil {
		c.DidScrollBegin()
	}
}

// DidScrollUpdate forwards to the controller of scrollLayerID, if any.
func (t *Ticker) DidScrollUpdate(scrollLayerID int, now time.Time) {
	if c := t.scrollbars[scrollLayerID]; c != nil {
		c.DidScrollUpdate(now)
	}
}

// DidScrollEnd forwards to the controller of scrollLayerID, if any.
func (t *Ticker) DidScrollEnd(scrollLayerID int, now time.Time) {
	if c := t.scrollbars[scrollLayerID]; c != nil {
		c.DidScrollEnd(now)
	}
}

func (t *Ticker) animateScrollbars(now time.Time) bool {
	did := false
	for _, c := range t.scrollbars {
		if c.Animate(now) {
			did = true
		}
	}
	return did
}
