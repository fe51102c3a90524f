package animation

import (
	"testing"
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/scroll"
	"github.com/gogpu/compositor/tree"
)

type treeSource struct{ t *tree.LayerTree }

func (s treeSource) ActiveTree() *tree.LayerTree { return s.t }

type recordingClient struct {
	beginFrames, redraws, commits, completed int
	after                                    []time.Duration
}

func (c *recordingClient) SetNeedsOneBeginFrame()                { c.beginFrames++ }
func (c *recordingClient) SetNeedsRedraw()                       { c.redraws++ }
func (c *recordingClient) SetNeedsCommit()                       { c.commits++ }
func (c *recordingClient) RequestAnimationAfter(d time.Duration) { c.after = append(c.after, d) }
func (c *recordingClient) DidCompletePageScaleAnimation()        { c.completed++ }

func scroller(id, w, h, cw, ch int) *tree.SceneLayer {
	l := tree.NewSceneLayer(id)
	l.Bounds = geom.Size{W: w, H: h}
	l.Content = tree.ContentSpec{Kind: tree.ContentSolidColor}
	l.Scroll = &tree.ScrollProperties{
		ContainerBounds:          geom.Size{W: cw, H: ch},
		UserScrollableHorizontal: true,
		UserScrollableVertical:   true,
	}
	return l
}

// pageScene is a 100x100 viewport over a 200x300 inner viewport with
// 50px browser controls and a vertical scrollbar (layer 3).
func pageScene() *tree.Scene {
	root := tree.NewSceneLayer(1)
	root.Bounds = geom.Size{W: 100, H: 100}
	bar := tree.NewSceneLayer(3)
	bar.Bounds = geom.Size{W: 10, H: 100}
	bar.Scrollbar = &tree.ScrollbarProperties{ScrollLayerID: 2, Orientation: tree.Vertical, ThumbThickness: 10}
	return &tree.Scene{
		Root:                  root.Add(scroller(2, 200, 300, 100, 100), bar),
		InnerViewportScrollID: 2,
		PageScale:             1,
		MinPageScale:          1,
		MaxPageScale:          4,
		BrowserControls:       tree.BrowserControls{TopHeight: 50, ShownRatio: 1},
	}
}

func activeTree(s *tree.Scene) *tree.LayerTree {
	t := tree.NewLayerTree(nil, nil)
	t.SetActive(true)
	t.SetDeviceViewport(geom.R(0, 0, 100, 100))
	t.PushScene(s, t)
	t.UpdateDrawProperties()
	return t
}

func newTestTicker(lt *tree.LayerTree, opts ...TickerOption) (*Ticker, *scroll.Viewport) {
	vp := scroll.NewRouter(treeSource{lt}).Viewport()
	return NewTicker(treeSource{lt}, vp, opts...), vp
}

// =============================================================================
// Tick
// =============================================================================

func TestTickIdle(t *testing.T) {
	c := &recordingClient{}
	tk, _ := newTestTicker(activeTree(pageScene()), WithClient(c))
	if tk.Tick(t0, true) {
		t.Error("Tick() with no animations = true, want false")
	}
	if c.redraws != 0 || c.beginFrames != 0 {
		t.Errorf("redraws=%d beginFrames=%d, want 0 0", c.redraws, c.beginFrames)
	}
}

func TestTickPageScaleAnimation(t *testing.T) {
	lt := activeTree(pageScene())
	c := &recordingClient{}
	tk, vp := newTestTicker(lt, WithClient(c))

	tk.StartPageScaleAnimation(&tree.PageScaleAnimationRequest{Scale: 2, DurationMS: 100})
	if !tk.PageScaleAnimationActive() {
		t.Fatal("PageScaleAnimationActive() = false after start")
	}

	if !tk.Tick(t0, true) {
		t.Fatal("first Tick() = false, want true")
	}
	if got := lt.PageScale(); got != 1 {
		t.Errorf("PageScale() at start = %v, want 1", got)
	}
	if c.redraws != 1 {
		t.Errorf("redraws = %d, want 1", c.redraws)
	}

	frames := c.beginFrames
	tk.Tick(at(100), true)
	if got := lt.PageScale(); got != 2 {
		t.Errorf("PageScale() at end = %v, want 2", got)
	}
	if tk.PageScaleAnimationActive() {
		t.Error("PageScaleAnimationActive() = true after the last frame")
	}
	if c.commits != 1 || c.completed != 1 {
		t.Errorf("commits=%d completed=%d, want 1 1", c.commits, c.completed)
	}
	if c.beginFrames != frames {
		t.Errorf("finished animation requested %d more frames", c.beginFrames-frames)
	}
	if got := vp.TotalScrollOffset(); got != (geom.Vector{}) {
		t.Errorf("TotalScrollOffset() = %v, want zero", got)
	}
}

func TestTickPageScaleAnchored(t *testing.T) {
	lt := activeTree(pageScene())
	tk, vp := newTestTicker(lt)

	tk.StartPageScaleAnimation(&tree.PageScaleAnimationRequest{
		TargetOffset: geom.Vector{X: 100, Y: 50},
		UseAnchor:    true,
		Scale:        2,
		DurationMS:   100,
	})
	tk.Tick(t0, true)
	tk.Tick(at(100), true)

	if got := vp.TotalScrollOffset(); !nearVec(got, geom.Vector{X: 50, Y: 25}) {
		t.Errorf("TotalScrollOffset() = %v, want (50,25)", got)
	}
}

func TestTickInactiveDoesNotRedraw(t *testing.T) {
	c := &recordingClient{}
	tk, _ := newTestTicker(activeTree(pageScene()), WithClient(c))
	tk.StartPageScaleAnimation(&tree.PageScaleAnimationRequest{Scale: 2, DurationMS: 100})
	if !tk.Tick(t0, false) {
		t.Fatal("Tick() = false, want true")
	}
	if c.redraws != 0 {
		t.Errorf("redraws = %d, want 0", c.redraws)
	}
}

func TestTickControlsAnimationScrollsContent(t *testing.T) {
	lt := activeTree(pageScene())
	lt.ScrollNode(2).SetOffset(geom.Vector{Y: 50})
	c := &recordingClient{}
	src := treeSource{lt}
	controls := NewBrowserControlsOffsetManager(src)
	tk, vp := newTestTicker(lt, WithClient(c), WithControls(controls))

	controls.ScrollBegin()
	controls.ScrollBy(geom.Vector{Y: 20})
	controls.ScrollEnd()
	if !controls.HasAnimation() {
		t.Fatal("ScrollEnd() at ratio 0.6 should animate")
	}

	if tk.Tick(t0, true) {
		t.Error("first Tick() moved nothing and should return false")
	}
	if c.beginFrames == 0 {
		t.Error("running controls animation did not request a frame")
	}

	// 0.4 of the 200ms default duration.
	if !tk.Tick(at(80), true) {
		t.Fatal("final Tick() = false, want true")
	}
	if got := controls.ShownRatio(); got != 1 {
		t.Errorf("ShownRatio() = %v, want 1", got)
	}
	if got := vp.TotalScrollOffset(); !nearVec(got, geom.Vector{Y: 70}) {
		t.Errorf("TotalScrollOffset() = %v, want (0,70)", got)
	}
	if c.commits != 1 {
		t.Errorf("commits = %d, want 1", c.commits)
	}
}

func TestTickLayerAnimations(t *testing.T) {
	lt := activeTree(pageScene())
	c := &recordingClient{}
	host := NewAnimationHost(treeSource{lt})
	tk, _ := newTestTicker(lt, WithClient(c), WithHost(host))

	host.AddAnimation(Animation{LayerID: 2, Property: PropertyOpacity, Duration: 100 * time.Millisecond, FromOpacity: 1, ToOpacity: 0})
	if tk.Tick(t0, true) {
		t.Error("Tick() before activation = true, want false")
	}
	tk.ActivateAnimations()

	if !tk.Tick(t0, true) {
		t.Fatal("Tick() after activation = false, want true")
	}
	if c.beginFrames != 1 {
		t.Errorf("beginFrames = %d, want 1", c.beginFrames)
	}
	tk.Tick(at(100), true)
	if c.beginFrames != 1 {
		t.Errorf("finished animation requested another frame: beginFrames = %d", c.beginFrames)
	}
	if got := lt.LayerByID(2).Opacity(); got != 0 {
		t.Errorf("Opacity() = %v, want 0", got)
	}
}

// =============================================================================
// Scrollbar controllers
// =============================================================================

func TestSyncScrollbarControllers(t *testing.T) {
	lt := activeTree(pageScene())
	tk, _ := newTestTicker(lt)

	tk.SyncScrollbarControllers()
	c := tk.ScrollbarController(2)
	if c == nil {
		t.Fatal("no controller for scroll layer 2")
	}
	tk.SyncScrollbarControllers()
	if tk.ScrollbarController(2) != c {
		t.Error("resync replaced an existing controller")
	}

	s := pageScene()
	s.Root.Children = s.Root.Children[:1]
	lt.PushScene(s, lt)
	tk.SyncScrollbarControllers()
	if tk.ScrollbarController(2) != nil {
		t.Error("controller kept after its scrollbar was removed")
	}
}

func TestTickerForwardsScrollEvents(t *testing.T) {
	lt := activeTree(pageScene())
	c := &recordingClient{}
	tk, _ := newTestTicker(lt, WithClient(c), WithScrollbarSettings(ScrollbarSettings{
		FadeDelay:    50 * time.Millisecond,
		FadeDuration: 100 * time.Millisecond,
	}))
	tk.SyncScrollbarControllers()

	tk.DidScrollBegin(2)
	tk.DidScrollEnd(2, t0)
	if len(c.after) != 1 || c.after[0] != 50*time.Millisecond {
		t.Fatalf("RequestAnimationAfter calls = %v, want [50ms]", c.after)
	}
	// Unknown layers are ignored.
	tk.DidScrollEnd(9, t0)
	if len(c.after) != 1 {
		t.Errorf("event for a layer without scrollbars requested a frame")
	}

	tk.Tick(at(50), true)
	tk.Tick(at(150), true)
	if got := lt.LayerByID(3).Opacity(); got != 0 {
		t.Errorf("scrollbar Opacity() = %v, want 0", got)
	}
}
