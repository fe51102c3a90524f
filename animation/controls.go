package animation

import (
	"math"
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/scroll"
)

// ControlsState constrains the browser controls.
type ControlsState int

const (
	ControlsBoth ControlsState = iota
	ControlsShown
	ControlsHidden
)

func (s ControlsState) String() string {
	switch s {
	case ControlsBoth:
		return "Both"
	case ControlsShown:
		return "Shown"
	case ControlsHidden:
		return "Hidden"
	default:
		return "Unknown"
	}
}

// DefaultControlsAnimationDuration is the time a full show or hide takes.
const DefaultControlsAnimationDuration = 200 * time.Millisecond

// ControlsOption configures a BrowserControlsOffsetManager.
type ControlsOption func(*BrowserControlsOffsetManager)

// WithControlsAnimationDuration sets the duration of a full show or hide.
func WithControlsAnimationDuration(d time.Duration) ControlsOption {
	return func(m *BrowserControlsOffsetManager) { m.maxDuration = d }
}

// WithControlsThresholds sets the shown ratios at which released controls
// snap. Controls shown at least 1-hide snap to shown, those shown at most
// show snap to hidden.
func WithControlsThresholds(show, hide float64) ControlsOption {
	return func(m *BrowserControlsOffsetManager) {
		m.showThreshold, m.hideThreshold = show, hide
	}
}

type controlsAnimation struct {
	from, to float64
	duration time.Duration
	start    time.Time
	started  bool
}

// BrowserControlsOffsetManager moves the top browser controls with scroll
// gestures and animates them to fully shown or hidden when a gesture ends.
// It implements scroll.ControlsScroller.
type BrowserControlsOffsetManager struct {
	src scroll.TreeSource

	constraint    ControlsState
	maxDuration   time.Duration
	showThreshold float64
	hideThreshold float64

	// accumulated is the scroll since baseline was taken.
	accumulated float64
	baseline    float64
	pinchActive bool

	anim *controlsAnimation
}

var _ scroll.ControlsScroller = (*BrowserControlsOffsetManager)(nil)

// NewBrowserControlsOffsetManager creates a manager for the controls of the
// active tree of src.
func NewBrowserControlsOffsetManager(src scroll.TreeSource, opts ...ControlsOption) *BrowserControlsOffsetManager {
	m := &BrowserControlsOffsetManager{
		src:           src,
		maxDuration:   DefaultControlsAnimationDuration,
		showThreshold: 0.5,
		hideThreshold: 0.5,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *BrowserControlsOffsetManager) height() float64 {
	return m.src.ActiveTree().BrowserControls().TopHeight
}

// ShownRatio returns the shown fraction of the controls.
func (m *BrowserControlsOffsetManager) ShownRatio() float64 {
	return m.src.ActiveTree().ControlsShownRatio()
}

// ContentTopOffset returns the height the shown controls cover.
func (m *BrowserControlsOffsetManager) ContentTopOffset() float64 {
	return m.ShownRatio() * m.height()
}

// HasAnimation reports whether a show or hide animation is running.
func (m *BrowserControlsOffsetManager) HasAnimation() bool { return m.anim != nil }

func (m *BrowserControlsOffsetManager) setShownRatio(r float64) {
	m.src.ActiveTree().SetControlsShownRatio(r)
}

func (m *BrowserControlsOffsetManager) resetBaseline() {
	m.accumulated = 0
	m.baseline = m.ContentTopOffset()
}

// ScrollBegin takes a new baseline and cancels any animation.
func (m *BrowserControlsOffsetManager) ScrollBegin() {
	if m.pinchActive {
		return
	}
	m.anim = nil
	m.resetBaseline()
}

// ScrollBy moves the controls by delta.Y and returns the excess delta.
func (m *BrowserControlsOffsetManager) ScrollBy(delta geom.Vector) geom.Vector {
	h := m.height()
	if h == 0 || m.pinchActive {
		return delta
	}
	if (m.constraint == ControlsShown && delta.Y > 0) || (m.constraint == ControlsHidden && delta.Y < 0) {
		return delta
	}

	m.accumulated += delta.Y
	old := m.ContentTopOffset()
	m.setShownRatio((m.baseline - m.accumulated) / h)

	// Fully shown controls start hiding again on the next downward scroll.
	if m.ShownRatio() == 1 {
		m.resetBaseline()
	}
	applied := old - m.ContentTopOffset()
	return geom.Vector{X: delta.X, Y: delta.Y - applied}
}

// ScrollEnd snaps partially shown controls.
func (m *BrowserControlsOffsetManager) ScrollEnd() {
	if m.pinchActive {
		return
	}
	m.startAnimationIfNecessary()
}

func (m *BrowserControlsOffsetManager) PinchBegin() {
	m.pinchActive = true
	m.startAnimationIfNecessary()
}

func (m *BrowserControlsOffsetManager) PinchEnd() {
	m.pinchActive = false
	m.ScrollBegin()
}

// UpdateState applies a constraint from the producer. current forces a
// state within the constraint.
func (m *BrowserControlsOffsetManager) UpdateState(constraint, current ControlsState, animate bool) {
	m.constraint = constraint
	if constraint == ControlsBoth && current == ControlsBoth {
		return
	}
	target := 0.0
	if constraint == ControlsShown || current == ControlsShown {
		target = 1
	}
	if m.ShownRatio() == target {
		m.anim = nil
		return
	}
	if animate {
		m.setupAnimation(target)
		return
	}
	m.anim = nil
	m.setShownRatio(target)
}

func (m *BrowserControlsOffsetManager) startAnimationIfNecessary() {
	r := m.ShownRatio()
	switch {
	case r == 0 || r == 1:
		return
	case r >= 1-m.hideThreshold:
		m.setupAnimation(1)
	case r <= m.showThreshold:
		m.setupAnimation(0)
	case m.accumulated <= 0:
		m.setupAnimation(1)
	default:
		m.setupAnimation(0)
	}
}

func (m *BrowserControlsOffsetManager) setupAnimation(to float64) {
	if m.anim != nil && m.anim.to == to {
		return
	}
	from := m.ShownRatio()
	m.anim = &controlsAnimation{
		from:     from,
		to:       to,
		duration: time.Duration(float64(m.maxDuration) * math.Abs(to-from)),
	}
}

// Animate advances the show or hide animation and returns the scroll delta
// that keeps content in place as the controls move.
func (m *BrowserControlsOffsetManager) Animate(now time.Time) geom.Vector {
	a := m.anim
	if a == nil {
		return geom.Vector{}
	}
	if !a.started {
		a.start, a.started = now, true
	}
	old := m.ContentTopOffset()
	p := progress(a.start, now, a.duration)
	m.setShownRatio(lerp(a.from, a.to, p))
	if p >= 1 {
		m.anim = nil
	}
	return geom.Vector{Y: m.ContentTopOffset() - old}
}
