package animation

import (
	"math"
	"testing"
	"time"

	"github.com/gogpu/compositor/geom"
)

var t0 = time.Unix(1000, 0)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func nearVec(a, b geom.Vector) bool { return near(a.X, b.X) && near(a.Y, b.Y) }

// =============================================================================
// Easing
// =============================================================================

func TestEaseInOut(t *testing.T) {
	tests := []struct {
		p, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.0625},
		{0.5, 0.5},
		{0.75, 0.9375},
		{1, 1},
		{2, 1},
	}
	for _, tt := range tests {
		if got := EaseInOut(tt.p); !near(got, tt.want) {
			t.Errorf("EaseInOut(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestProgressZeroDuration(t *testing.T) {
	if got := progress(t0, t0, 0); got != 1 {
		t.Errorf("progress with zero duration = %v, want 1", got)
	}
	if got := progress(t0, at(-10), time.Second); got != 0 {
		t.Errorf("progress before start = %v, want 0", got)
	}
}

// =============================================================================
// PageScaleAnimation
// =============================================================================

func newPageScale() *PageScaleAnimation {
	return NewPageScaleAnimation(geom.Vector{}, 1, geom.SizeF{W: 100, H: 100}, geom.SizeF{W: 400, H: 400})
}

func TestPageScaleZoomTo(t *testing.T) {
	a := newPageScale()
	a.ZoomTo(geom.Vector{X: 50, Y: 60}, 2, 100*time.Millisecond)

	if a.IsStarted() || a.IsCompleteAt(at(1000)) {
		t.Fatal("animation should not run before Start")
	}
	if got := a.PageScaleAt(t0); got != 1 {
		t.Errorf("PageScaleAt() before Start = %v, want 1", got)
	}

	a.Start(t0)
	if got := a.PageScaleAt(at(50)); !near(got, 1.5) {
		t.Errorf("PageScaleAt(50ms) = %v, want 1.5", got)
	}
	if got := a.ScrollOffsetAt(at(50)); !nearVec(got, geom.Vector{X: 25, Y: 30}) {
		t.Errorf("ScrollOffsetAt(50ms) = %v, want (25,30)", got)
	}
	if a.IsCompleteAt(at(99)) {
		t.Error("IsCompleteAt(99ms) = true, want false")
	}
	if !a.IsCompleteAt(at(100)) {
		t.Error("IsCompleteAt(100ms) = false, want true")
	}
	if got := a.PageScaleAt(at(150)); got != 2 {
		t.Errorf("PageScaleAt(150ms) = %v, want 2", got)
	}
	if got := a.ScrollOffsetAt(at(150)); got != (geom.Vector{X: 50, Y: 60}) {
		t.Errorf("ScrollOffsetAt(150ms) = %v, want (50,60)", got)
	}
}

func TestPageScaleZoomToClampsTarget(t *testing.T) {
	a := newPageScale()
	a.ZoomTo(geom.Vector{X: 390, Y: -5}, 2, 0)
	a.Start(t0)
	// At scale 2 the 100x100 viewport shows 50x50 of the 400x400 content.
	if got := a.ScrollOffsetAt(t0); got != (geom.Vector{X: 350, Y: 0}) {
		t.Errorf("ScrollOffsetAt() = %v, want (350,0)", got)
	}
}

func TestPageScaleZoomWithAnchor(t *testing.T) {
	a := newPageScale()
	a.ZoomWithAnchor(geom.Pt(50, 50), 2, 100*time.Millisecond)
	a.Start(t0)

	if got := a.ScrollOffsetAt(at(100)); !nearVec(got, geom.Vector{X: 25, Y: 25}) {
		t.Errorf("final offset = %v, want (25,25)", got)
	}
	// Midway the scale is 1.5 and the anchor stays 50px from the origin.
	want := 50 - 50/1.5
	if got := a.ScrollOffsetAt(at(50)); !nearVec(got, geom.Vector{X: want, Y: want}) {
		t.Errorf("midway offset = %v, want (%v,%v)", got, want, want)
	}
	if got := a.TargetPageScale(); got != 2 {
		t.Errorf("TargetPageScale() = %v, want 2", got)
	}
}
