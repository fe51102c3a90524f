package tree

import (
	"testing"

	"github.com/gogpu/compositor/geom"
)

// =============================================================================
// Hit testing
// =============================================================================

func TestFindLayerThatIsHitByPoint(t *testing.T) {
	tree := newActiveTree(&Scene{Root: solidLayer(1, 0, 0, 100, 100).Add(solidLayer(2, 10, 10, 20, 20))})

	tests := []struct {
		p    geom.Point
		want int
	}{
		{geom.Pt(15, 15), 2},
		{geom.Pt(50, 50), 1},
		{geom.Pt(150, 150), 0},
	}
	for _, tt := range tests {
		got := 0
		if l := tree.FindLayerThatIsHitByPoint(tt.p); l != nil {
			got = l.ID()
		}
		if got != tt.want {
			t.Errorf("FindLayerThatIsHitByPoint(%v) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestHitTestHonorsClipAndTransform(t *testing.T) {
	clip := containerLayer(2, 0, 0, 50, 50)
	clip.MasksToBounds = true
	collapsed := solidLayer(4, 0, 0, 100, 100)
	collapsed.Transform = geom.Scale(0, 0)

	tree := newActiveTree(&Scene{Root: solidLayer(1, 0, 0, 100, 100).Add(
		clip.Add(solidLayer(3, 0, 0, 100, 100)),
		collapsed,
	)})

	tests := []struct {
		p    geom.Point
		want int
	}{
		{geom.Pt(25, 25), 3},
		// Layer 3 extends here but its parent clips it away.
		{geom.Pt(75, 75), 1},
	}
	for _, tt := range tests {
		got := 0
		if l := tree.FindLayerThatIsHitByPoint(tt.p); l != nil {
			got = l.ID()
		}
		if got != tt.want {
			t.Errorf("FindLayerThatIsHitByPoint(%v) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestFindScrollingLayerOrScrollbar(t *testing.T) {
	bar := NewSceneLayer(3)
	bar.Position = geom.Pt(90, 0)
	bar.Bounds = geom.Size{W: 10, H: 100}
	bar.Scrollbar = &ScrollbarProperties{ScrollLayerID: 2, Orientation: Vertical}

	tree := newActiveTree(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(scrollLayer(2, 100, 400, 100, 100), bar)})

	l := tree.FindScrollingLayerOrScrollbarThatIsHitByPoint(geom.Pt(95, 50))
	if l == nil || l.ID() != 3 {
		t.Fatalf("hit = %v, want scrollbar layer 3", l)
	}
	if n := tree.ScrollNodeForLayerOrScrollbar(l); n == nil || n.LayerID() != 2 {
		t.Errorf("ScrollNodeForLayerOrScrollbar() = %v, want node 2", n)
	}

	l = tree.FindScrollingLayerOrScrollbarThatIsHitByPoint(geom.Pt(50, 50))
	if l == nil || l.ID() != 2 {
		t.Errorf("hit = %v, want scroll layer 2", l)
	}
	if n := tree.ScrollNodeForLayerOrScrollbar(l); n == nil || n.LayerID() != 2 {
		t.Errorf("ScrollNodeForLayerOrScrollbar(scroll layer) = %v, want node 2", n)
	}
	if got := len(tree.ScrollbarLayersFor(2)); got != 1 {
		t.Errorf("len(ScrollbarLayersFor(2)) = %d, want 1", got)
	}

	if l := tree.FindScrollingLayerOrScrollbarThatIsHitByPoint(geom.Pt(150, 50)); l != nil {
		t.Errorf("hit outside viewport = %d, want nil", l.ID())
	}
	if n := tree.ScrollNodeForLayerOrScrollbar(nil); n != nil {
		t.Errorf("ScrollNodeForLayerOrScrollbar(nil) = %v, want nil", n)
	}
}
