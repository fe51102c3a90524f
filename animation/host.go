package animation

import (
	"math"
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/scroll"
)

// Host runs property animations on the layers of the active tree.
type Host interface {
	// Animate ticks every running animation and reports whether any
	// property changed.
	Animate(now time.Time) bool

	// ActivateAnimations starts the animations that waited for the pending
	// tree to activate.
	ActivateAnimations()

	// HasActiveAnimations reports whether another tick would change anything.
	HasActiveAnimations() bool
}

// Property is the layer property an Animation drives.
type Property int

const (
	PropertyOpacity Property = iota
	PropertyTransform
	PropertyScrollOffset
)

func (p Property) String() string {
	switch p {
	case PropertyOpacity:
		return "Opacity"
	case PropertyTransform:
		return "Transform"
	case PropertyScrollOffset:
		return "ScrollOffset"
	default:
		return "Unknown"
	}
}

// Animation interpolates one layer property with EaseInOut.
type Animation struct {
	LayerID  int
	Property Property
	Duration time.Duration

	FromOpacity, ToOpacity     float64
	FromTransform, ToTransform geom.Transform
	FromOffset, ToOffset       geom.Vector
}

type running struct {
	Animation

	// delay is subtracted from the start time.
	delay    time.Duration
	start    time.Time
	started  bool
	waiting  bool
	retarget bool
}

// Scroll offset animations take one 60Hz frame per square-root pixel of
// distance, up to maxScrollFrames.
const (
	scrollFrame     = time.Second / 60
	maxScrollFrames = 12
)

func scrollDuration(distance float64) time.Duration {
	frames := math.Min(math.Sqrt(distance), maxScrollFrames)
	return time.Duration(frames * float64(scrollFrame))
}

// HostOption configures an AnimationHost.
type HostOption func(*AnimationHost)

// WithScrollFinished sets the callback run when a scroll offset animation
// reaches its target.
func WithScrollFinished(fn func()) HostOption {
	return func(h *AnimationHost) { h.scrollFinished = fn }
}

// AnimationHost animates opacity, transform and scroll offset of the layers
// of the active tree. It implements Host and scroll.Animator.
type AnimationHost struct {
	src            scroll.TreeSource
	anims          []*running
	scrollFinished func()
}

var (
	_ Host            = (*AnimationHost)(nil)
	_ scroll.Animator = (*AnimationHost)(nil)
)

// NewAnimationHost creates a host animating the active tree of src.
func NewAnimationHost(src scroll.TreeSource, opts ...HostOption) *AnimationHost {
	h := &AnimationHost{src: src}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddAnimation queues a until the next ActivateAnimations. An animation of
// the same layer and property is replaced.
func (h *AnimationHost) AddAnimation(a Animation) {
	h.remove(a.LayerID, a.Property)
	h.anims = append(h.anims, &running{Animation: a, waiting: true})
}

func (h *AnimationHost) remove(layerID int, p Property) {
	keep := h.anims[:0]
	for _, r := range h.anims {
		if r.LayerID != layerID || r.Property != p {
			keep = append(keep, r)
		}
	}
	h.anims = keep
}

func (h *AnimationHost) find(layerID int, p Property) *running {
	for _, r := range h.anims {
		if r.LayerID == layerID && r.Property == p {
			return r
		}
	}
	return nil
}

// ActivateAnimations starts every waiting animation on the next tick.
func (h *AnimationHost) ActivateAnimations() {
	for _, r := range h.anims {
		r.waiting = false
	}
}

// HasActiveAnimations reports whether a started or startable animation
// exists.
func (h *AnimationHost) HasActiveAnimations() bool {
	for _, r := range h.anims {
		if !r.waiting {
			return true
		}
	}
	return false
}

// IsScrollAnimating reports whether layerID runs a scroll offset animation.
func (h *AnimationHost) IsScrollAnimating(layerID int) bool {
	return h.find(layerID, PropertyScrollOffset) != nil
}

// CreateScrollOffsetAnimation replaces any scroll offset animation with one
// from current to target.
func (h *AnimationHost) CreateScrollOffsetAnimation(layerID int, target, current geom.Vector, delay time.Duration) {
	h.AbortScrollOffsetAnimation()
	h.anims = append(h.anims, &running{
		Animation: Animation{
			LayerID:    layerID,
			Property:   PropertyScrollOffset,
			Duration:   scrollDuration(target.Sub(current).Length()),
			FromOffset: current,
			ToOffset:   target,
		},
		delay: delay,
	})
}

// UpdateScrollOffsetAnimationTarget moves the target of the scroll offset
// animation of layerID by delta, clamped to [0, maxOffset]. The animation
// restarts from its current value on the next tick.
func (h *AnimationHost) UpdateScrollOffsetAnimationTarget(layerID int, delta, maxOffset geom.Vector, delay time.Duration) bool {
	r := h.find(layerID, PropertyScrollOffset)
	if r == nil {
		return false
	}
	r.ToOffset = r.ToOffset.Add(delta).Clamp(geom.Vector{}, maxOffset)
	r.retarget = true
	r.delay = delay
	return true
}

// AbortScrollOffsetAnimation drops the scroll offset animation without
// reporting it finished.
func (h *AnimationHost) AbortScrollOffsetAnimation() {
	keep := h.anims[:0]
	for _, r := range h.anims {
		if r.Property != PropertyScrollOffset {
			keep = append(keep, r)
		}
	}
	h.anims = keep
}

// Animate ticks every started animation at now.
func (h *AnimationHost) Animate(now time.Time) bool {
	t := h.src.ActiveTree()
	changed := false
	scrollDone := false
	keep := h.anims[:0]
	for _, r := range h.anims {
		if r.waiting {
			keep = append(keep, r)
			continue
		}
		l := t.LayerByID(r.LayerID)
		if l == nil {
			continue
		}
		if r.retarget && r.started {
			if n := t.ScrollNode(r.LayerID); n != nil {
				r.FromOffset = n.CurrentOffset()
			}
			r.Duration = scrollDuration(r.ToOffset.Sub(r.FromOffset).Length())
			r.started = false
		}
		r.retarget = false
		if !r.started {
			r.start, r.started = now.Add(-r.delay), true
			if r.Property == PropertyTransform {
				l.SetTransformAnimating(true)
			}
		}

		p := EaseInOut(progress(r.start, now, r.Duration))
		switch r.Property {
		case PropertyOpacity:
			l.SetOpacity(lerp(r.FromOpacity, r.ToOpacity, p))
		case PropertyTransform:
			l.SetTransform(lerpTransform(r.FromTransform, r.ToTransform, p))
		case PropertyScrollOffset:
			if n := t.ScrollNode(r.LayerID); n != nil {
				n.SetOffset(geom.Vector{
					X: lerp(r.FromOffset.X, r.ToOffset.X, p),
					Y: lerp(r.FromOffset.Y, r.ToOffset.Y, p),
				})
			}
		}
		changed = true

		if p < 1 {
			keep = append(keep, r)
			continue
		}
		switch r.Property {
		case PropertyTransform:
			l.SetTransformAnimating(false)
		case PropertyScrollOffset:
			scrollDone = true
		}
	}
	h.anims = keep
	if scrollDone && h.scrollFinished != nil {
		h.scrollFinished()
	}
	return changed
}

func lerpTransform(a, b geom.Transform, p float64) geom.Transform {
	return geom.Transform{
		A: lerp(a.A, b.A, p), B: lerp(a.B, b.B, p), C: lerp(a.C, b.C, p),
		D: lerp(a.D, b.D, p), E: lerp(a.E, b.E, p), F: lerp(a.F, b.F, p),
	}
}
