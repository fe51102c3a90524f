package animation

import (
	"testing"
	"time"

	"github.com/gogpu/compositor/geom"
)

func newTestControls(opts ...ControlsOption) *BrowserControlsOffsetManager {
	return NewBrowserControlsOffsetManager(treeSource{activeTree(pageScene())}, opts...)
}

func TestControlsStateString(t *testing.T) {
	tests := []struct {
		s    ControlsState
		want string
	}{
		{ControlsBoth, "Both"},
		{ControlsShown, "Shown"},
		{ControlsHidden, "Hidden"},
		{ControlsState(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestControlsScrollBy(t *testing.T) {
	m := newTestControls()
	m.ScrollBegin()

	if got := m.ScrollBy(geom.Vector{Y: 20}); got != (geom.Vector{}) {
		t.Errorf("ScrollBy(0,20) excess = %v, want zero", got)
	}
	if got := m.ShownRatio(); !near(got, 0.6) {
		t.Errorf("ShownRatio() = %v, want 0.6", got)
	}
	if got := m.ContentTopOffset(); !near(got, 30) {
		t.Errorf("ContentTopOffset() = %v, want 30", got)
	}

	// Only 30px of controls remain.
	if got := m.ScrollBy(geom.Vector{X: 5, Y: 40}); !nearVec(got, geom.Vector{X: 5, Y: 10}) {
		t.Errorf("ScrollBy(5,40) excess = %v, want (5,10)", got)
	}
	if got := m.ShownRatio(); got != 0 {
		t.Errorf("ShownRatio() = %v, want 0", got)
	}

	m.ScrollBegin()
	m.ScrollBy(geom.Vector{Y: -10})
	if got := m.ShownRatio(); !near(got, 0.2) {
		t.Errorf("ShownRatio() after scrolling up = %v, want 0.2", got)
	}
}

func TestControlsScrollEndAnimates(t *testing.T) {
	tests := []struct {
		name   string
		delta  float64
		target float64
	}{
		{"mostly shown", 20, 1},
		{"mostly hidden", 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestControls()
			m.ScrollBegin()
			m.ScrollBy(geom.Vector{Y: tt.delta})
			m.ScrollEnd()
			if !m.HasAnimation() {
				t.Fatal("HasAnimation() = false after ScrollEnd")
			}
			m.Animate(t0)
			m.Animate(at(int(DefaultControlsAnimationDuration / time.Millisecond)))
			if got := m.ShownRatio(); got != tt.target {
				t.Errorf("ShownRatio() = %v, want %v", got, tt.target)
			}
			if m.HasAnimation() {
				t.Error("HasAnimation() = true after the animation ended")
			}
		})
	}
}

func TestControlsHideAnimationDelta(t *testing.T) {
	m := newTestControls()
	m.ScrollBegin()
	m.ScrollBy(geom.Vector{Y: 50})
	m.ScrollBegin()
	m.ScrollBy(geom.Vector{Y: -10})
	m.ScrollEnd()

	// 0.2 of the way back takes 0.2 of the maximum duration.
	if got := m.Animate(t0); got != (geom.Vector{}) {
		t.Errorf("first Animate() = %v, want zero", got)
	}
	if got := m.Animate(at(40)); !nearVec(got, geom.Vector{Y: -10}) {
		t.Errorf("Animate(40ms) = %v, want (0,-10)", got)
	}
	if m.HasAnimation() {
		t.Error("animation still running after 40ms")
	}
}

func TestControlsFullyShownResetsBaseline(t *testing.T) {
	m := newTestControls()
	m.ScrollBegin()
	// Scrolling up with the controls fully shown leaves everything to content.
	if got := m.ScrollBy(geom.Vector{Y: -30}); !nearVec(got, geom.Vector{Y: -30}) {
		t.Errorf("ScrollBy(0,-30) excess = %v, want (0,-30)", got)
	}
	if got := m.ScrollBy(geom.Vector{Y: 10}); got != (geom.Vector{}) {
		t.Errorf("ScrollBy(0,10) excess = %v, want zero", got)
	}
	if got := m.ShownRatio(); !near(got, 0.8) {
		t.Errorf("ShownRatio() = %v, want 0.8", got)
	}
}

func TestControlsConstraint(t *testing.T) {
	m := newTestControls()
	m.UpdateState(ControlsShown, ControlsBoth, false)
	if got := m.ScrollBy(geom.Vector{Y: 20}); got != (geom.Vector{Y: 20}) {
		t.Errorf("ScrollBy with controls locked shown = %v, want (0,20)", got)
	}

	m.UpdateState(ControlsHidden, ControlsHidden, false)
	if got := m.ShownRatio(); got != 0 {
		t.Errorf("ShownRatio() = %v, want 0", got)
	}

	m.UpdateState(ControlsBoth, ControlsShown, true)
	if !m.HasAnimation() {
		t.Fatal("animated state change did not start an animation")
	}
	m.Animate(t0)
	m.Animate(at(200))
	if got := m.ShownRatio(); got != 1 {
		t.Errorf("ShownRatio() = %v, want 1", got)
	}
}

func TestControlsPinchIgnoresScroll(t *testing.T) {
	m := newTestControls()
	m.PinchBegin()
	if got := m.ScrollBy(geom.Vector{Y: 20}); got != (geom.Vector{Y: 20}) {
		t.Errorf("ScrollBy during pinch = %v, want (0,20)", got)
	}
	m.PinchEnd()
	m.ScrollBy(geom.Vector{Y: 20})
	if got := m.ShownRatio(); !near(got, 0.6) {
		t.Errorf("ShownRatio() after pinch = %v, want 0.6", got)
	}
}

func TestControlsAnimationDurationOption(t *testing.T) {
	m := newTestControls(WithControlsAnimationDuration(100 * time.Millisecond))
	m.ScrollBegin()
	m.ScrollBy(geom.Vector{Y: 40})
	m.ScrollEnd()
	m.Animate(t0)
	// 0.2 of 100ms.
	m.Animate(at(20))
	if m.HasAnimation() {
		t.Error("animation still running after 20ms")
	}
}
