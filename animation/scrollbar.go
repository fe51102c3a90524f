package animation

import (
	"time"

	"github.com/gogpu/compositor/scroll"
)

// Scrollbar animation defaults.
const (
	DefaultScrollbarFadeDelay    = 300 * time.Millisecond
	DefaultScrollbarFadeDuration = 300 * time.Millisecond
	DefaultScrollbarThinDuration = 200 * time.Millisecond

	// idleThickness is the thumb scale while the pointer is away.
	idleThickness = 0.4
	// thinningZone is the pointer distance, in pixels, that widens the thumb.
	thinningZone = 25.0
)

// ScrollbarSettings configure every ScrollbarAnimationController.
type ScrollbarSettings struct {
	FadeDelay    time.Duration
	FadeDuration time.Duration
	ThinDuration time.Duration
}

// DefaultScrollbarSettings returns the default fade and thinning timings.
func DefaultScrollbarSettings() ScrollbarSettings {
	return ScrollbarSettings{
		FadeDelay:    DefaultScrollbarFadeDelay,
		FadeDuration: DefaultScrollbarFadeDuration,
		ThinDuration: DefaultScrollbarThinDuration,
	}
}

// ScrollbarAnimationController fades out the scrollbars of one scroll layer
// after scrolling stops and thins them while the pointer is away.
type ScrollbarAnimationController struct {
	layerID  int
	src      scroll.TreeSource
	client   Client
	settings ScrollbarSettings

	inGesture bool

	// fadeAt is non-zero while a fade is scheduled.
	fadeAt    time.Time
	fading    bool
	fadeStart time.Time

	thickFrom, thickTo float64
	thinning           bool
	thinStarted        bool
	thinStart          time.Time
}

func newScrollbarAnimationController(layerID int, src scroll.TreeSource, client Client, s ScrollbarSettings) *ScrollbarAnimationController {
	return &ScrollbarAnimationController{
		layerID:  layerID,
		src:      src,
		client:   client,
		settings: s,
		thickTo:  1,
	}
}

// LayerID returns the scroll layer whose scrollbars are animated.
func (c *ScrollbarAnimationController) LayerID() int { return c.layerID }

// IsFadeScheduled reports whether a fade waits for its delay.
func (c *ScrollbarAnimationController) IsFadeScheduled() bool { return !c.fadeAt.IsZero() }

func (c *ScrollbarAnimationController) setOpacity(v float64) {
	for _, l := range c.src.ActiveTree().ScrollbarLayersFor(c.layerID) {
		l.SetOpacity(v)
	}
}

func (c *ScrollbarAnimationController) setThickness(v float64) {
	for _, l := range c.src.ActiveTree().ScrollbarLayersFor(c.layerID) {
		l.SetScrollbarThickness(v)
	}
}

func (c *ScrollbarAnimationController) show() {
	c.fadeAt = time.Time{}
	c.fading = false
	c.setOpacity(1)
}

func (c *ScrollbarAnimationController) scheduleFade(now time.Time) {
	c.fadeAt = now.Add(c.settings.FadeDelay)
	c.client.RequestAnimationAfter(c.settings.FadeDelay)
}

// DidScrollBegin shows the scrollbars for the duration of a gesture.
func (c *ScrollbarAnimationController) DidScrollBegin() {
	c.inGesture = true
	c.show()
}

// DidScrollUpdate shows the scrollbars. Outside a gesture, such as during
// an offset animation, a fade is scheduled right away.
func (c *ScrollbarAnimationController) DidScrollUpdate(now time.Time) {
	c.show()
	if !c.inGesture {
		c.scheduleFade(now)
	}
}

// DidScrollEnd schedules the fade.
func (c *ScrollbarAnimationController) DidScrollEnd(now time.Time) {
	c.inGesture = false
	c.scheduleFade(now)
}

// DidMouseMoveNear widens the thumb when the pointer is within the thinning
// zone and thins it otherwise.
func (c *ScrollbarAnimationController) DidMouseMoveNear(distance float64) {
	target := idleThickness
	if distance <= thinningZone {
		target = 1
	}
	if target == c.thickTo {
		return
	}
	c.thickFrom, c.thickTo = c.currentThickness(), target
	c.thinning, c.thinStarted = true, false
	c.client.SetNeedsOneBeginFrame()
}

func (c *ScrollbarAnimationController) currentThickness() float64 {
	if ls := c.src.ActiveTree().ScrollbarLayersFor(c.layerID); len(ls) > 0 {
		return ls[0].ScrollbarThickness()
	}
	return 1
}

// Animate advances the fade and thinning animations.
func (c *ScrollbarAnimationController) Animate(now time.Time) bool {
	animated := false
	if !c.fadeAt.IsZero() && !now.Before(c.fadeAt) {
		c.fadeAt = time.Time{}
		c.fading, c.fadeStart = true, now
	}
	if c.fading {
		p := progress(c.fadeStart, now, c.settings.FadeDuration)
		c.setOpacity(1 - p)
		if p >= 1 {
			c.fading = false
		} else {
			c.client.SetNeedsOneBeginFrame()
		}
		animated = true
	}
	if c.thinning {
		if !c.thinStarted {
			c.thinStart, c.thinStarted = now, true
		}
		p := progress(c.thinStart, now, c.settings.ThinDuration)
		c.setThickness(lerp(c.thickFrom, c.thickTo, p))
		if p >= 1 {
			c.thinning = false
		} else {
			c.client.SetNeedsOneBeginFrame()
		}
		animated = true
	}
	return animated
}
