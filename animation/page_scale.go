package animation

import (
	"time"

	"github.com/gogpu/compositor/geom"
)

// PageScaleAnimation interpolates the page scale and the total viewport
// scroll offset along a cubic ease-in-out curve.
//
// The clock starts on the first Start call, normally the first frame after
// the animation was created.
type PageScaleAnimation struct {
	startOffset  geom.Vector
	targetOffset geom.Vector
	startScale   float64
	targetScale  float64

	// viewport and content are in layer space at unit scale.
	viewport geom.SizeF
	content  geom.SizeF

	useAnchor bool
	anchor    geom.Point
	// anchorInViewport is the anchor position on screen at the start.
	anchorInViewport geom.Vector

	duration time.Duration
	start    time.Time
	started  bool
}

// NewPageScaleAnimation starts from the given offset and scale. viewport is
// the visible size at unit scale and content the scrollable content size.
func NewPageScaleAnimation(offset geom.Vector, scale float64, viewport, content geom.SizeF) *PageScaleAnimation {
	return &PageScaleAnimation{
		startOffset:  offset,
		targetOffset: offset,
		startScale:   scale,
		targetScale:  scale,
		viewport:     viewport,
		content:      content,
	}
}

// ZoomTo animates to target scale with the top-left corner at offset.
func (a *PageScaleAnimation) ZoomTo(offset geom.Vector, scale float64, d time.Duration) {
	a.targetScale = scale
	a.targetOffset = a.clamp(offset, scale)
	a.useAnchor = false
	a.duration = d
}

// ZoomWithAnchor animates to target scale keeping anchor, in content
// coordinates, fixed on screen.
func (a *PageScaleAnimation) ZoomWithAnchor(anchor geom.Point, scale float64, d time.Duration) {
	a.targetScale = scale
	a.useAnchor = true
	a.anchor = anchor
	a.anchorInViewport = anchor.Sub(a.startOffset).Mul(a.startScale)
	a.targetOffset = a.anchoredOffset(scale)
	a.duration = d
}

func (a *PageScaleAnimation) anchoredOffset(scale float64) geom.Vector {
	return a.clamp(a.anchor.Sub(a.anchorInViewport.Mul(1/scale)), scale)
}

func (a *PageScaleAnimation) clamp(offset geom.Vector, scale float64) geom.Vector {
	limit := geom.Vector{
		X: a.content.W - a.viewport.W/scale,
		Y: a.content.H - a.viewport.H/scale,
	}
	return offset.Clamp(geom.Vector{}, limit.Max(geom.Vector{}))
}

// IsStarted reports whether Start was called.
func (a *PageScaleAnimation) IsStarted() bool { return a.started }

// Start fixes the animation's start time.
func (a *PageScaleAnimation) Start(now time.Time) {
	a.start, a.started = now, true
}

// IsCompleteAt reports whether the animation has ended at now.
func (a *PageScaleAnimation) IsCompleteAt(now time.Time) bool {
	return a.started && !now.Before(a.start.Add(a.duration))
}

// TargetPageScale returns the final scale.
func (a *PageScaleAnimation) TargetPageScale() float64 { return a.targetScale }

func (a *PageScaleAnimation) eased(now time.Time) float64 {
	if !a.started {
		return 0
	}
	return EaseInOut(progress(a.start, now, a.duration))
}

// PageScaleAt returns the interpolated page scale.
func (a *PageScaleAnimation) PageScaleAt(now time.Time) float64 {
	return lerp(a.startScale, a.targetScale, a.eased(now))
}

// ScrollOffsetAt returns the interpolated total scroll offset.
func (a *PageScaleAnimation) ScrollOffsetAt(now time.Time) geom.Vector {
	p := a.eased(now)
	if p >= 1 {
		return a.targetOffset
	}
	if a.useAnchor {
		return a.anchoredOffset(lerp(a.startScale, a.targetScale, p))
	}
	return geom.Vector{
		X: lerp(a.startOffset.X, a.targetOffset.X, p),
		Y: lerp(a.startOffset.Y, a.targetOffset.Y, p),
	}
}
