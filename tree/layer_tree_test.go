package tree

import (
	"fmt"
	"testing"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/render"
)

func solidLayer(id int, x, y float64, w, h int) *SceneLayer {
	l := NewSceneLayer(id)
	l.Position = geom.Pt(x, y)
	l.Bounds = geom.Size{W: w, H: h}
	l.Content = ContentSpec{Kind: ContentSolidColor, Color: render.White}
	return l
}

func containerLayer(id int, x, y float64, w, h int) *SceneLayer {
	l := NewSceneLayer(id)
	l.Position = geom.Pt(x, y)
	l.Bounds = geom.Size{W: w, H: h}
	return l
}

func scrollLayer(id int, w, h, cw, ch int) *SceneLayer {
	l := solidLayer(id, 0, 0, w, h)
	l.Scroll = &ScrollProperties{
		ContainerBounds:          geom.Size{W: cw, H: ch},
		UserScrollableHorizontal: true,
		UserScrollableVertical:   true,
	}
	return l
}

// newActiveTree commits s directly to a new active tree with a 100x100
// viewport and computes draw properties.
func newActiveTree(s *Scene) *LayerTree {
	t := NewLayerTree(nil, nil)
	t.SetActive(true)
	t.SetDeviceViewport(geom.R(0, 0, 100, 100))
	t.PushScene(s, t)
	t.UpdateDrawProperties()
	return t
}

func entryNames(t *LayerTree) []string {
	var out []string
	t.ForEachFrontToBack(func(e Entry) {
		out = append(out, fmt.Sprintf("%s:%d", e.Kind, e.Layer.ID()))
	})
	return out
}

// =============================================================================
// Synced state
// =============================================================================

func TestSyncedOffsetRoundTrip(t *testing.T) {
	var o SyncedOffset
	o.PushFromMainThread(geom.Pt(10, 0))
	o.PushPendingToActive()
	if got := o.Active(); got != geom.Pt(10, 0) {
		t.Fatalf("Active() = %v, want (10,0)", got)
	}

	o.SetActive(geom.Pt(15, 0))
	if got := o.Pending(); got != geom.Pt(15, 0) {
		t.Errorf("Pending() = %v, want (15,0)", got)
	}
	if got := o.PullDeltaForMainThread(); got != geom.Pt(5, 0) {
		t.Errorf("PullDeltaForMainThread() = %v, want (5,0)", got)
	}
	if got := o.UnsentDelta(); got != (geom.Vector{}) {
		t.Errorf("UnsentDelta() after pull = %v, want zero", got)
	}

	// More scrolling while the main frame is in flight.
	o.SetActive(geom.Pt(17, 0))
	o.PushFromMainThread(geom.Pt(15, 0))
	if got := o.Pending(); got != geom.Pt(17, 0) {
		t.Errorf("Pending() after commit = %v, want (17,0)", got)
	}
	o.PushPendingToActive()
	if got := o.Active(); got != geom.Pt(17, 0) {
		t.Errorf("Active() after activation = %v, want (17,0)", got)
	}
	if got := o.UnsentDelta(); got != geom.Pt(2, 0) {
		t.Errorf("UnsentDelta() after activation = %v, want (2,0)", got)
	}
}

func TestSyncedOffsetAbortCommit(t *testing.T) {
	tests := []struct {
		name       string
		applied    bool
		wantUnsent geom.Vector
	}{
		{"applied", true, geom.Vector{}},
		{"not applied", false, geom.Pt(5, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o SyncedOffset
			o.PushFromMainThread(geom.Pt(10, 0))
			o.PushPendingToActive()
			o.SetActive(geom.Pt(15, 0))
			o.PullDeltaForMainThread()

			o.AbortCommit(tt.applied)
			if got := o.Active(); got != geom.Pt(15, 0) {
				t.Errorf("Active() = %v, want (15,0)", got)
			}
			if got := o.UnsentDelta(); got != tt.wantUnsent {
				t.Errorf("UnsentDelta() = %v, want %v", got, tt.wantUnsent)
			}
		})
	}
}

func TestSyncedScale(t *testing.T) {
	s := NewSyncedScale(1)
	s.PushFromMainThread(2)
	s.PushPendingToActive()
	if got := s.Active(); got != 2 {
		t.Fatalf("Active() = %v, want 2", got)
	}
	s.SetActive(3)
	if got := s.PullDeltaForMainThread(); got != 1.5 {
		t.Errorf("PullDeltaForMainThread() = %v, want 1.5", got)
	}
	s.PushFromMainThread(3)
	if got := s.Pending(); got != 3 {
		t.Errorf("Pending() = %v, want 3", got)
	}
	s.PushPendingToActive()
	if got := s.Active(); got != 3 {
		t.Errorf("Active() = %v, want 3", got)
	}
	if got := s.UnsentDelta(); got != 1 {
		t.Errorf("UnsentDelta() = %v, want 1", got)
	}
}

func TestSyncedStateDefaults(t *testing.T) {
	s := NewSyncedState()
	if got := s.PageScale.Active(); got != 1 {
		t.Errorf("PageScale = %v, want 1", got)
	}
	if got := s.ControlsRatio.Active(); got != 1 {
		t.Errorf("ControlsRatio = %v, want 1", got)
	}
	if s.Offset(7) != s.Offset(7) {
		t.Error("Offset() should return the same value for one layer")
	}
	s.Remove(7)
	n := 0
	s.ForEachOffset(func(int, *SyncedOffset) { n++ })
	if n != 0 {
		t.Errorf("ForEachOffset visited %d offsets after Remove, want 0", n)
	}
}

// =============================================================================
// Scroll nodes
// =============================================================================

func TestScrollNodeScrollBy(t *testing.T) {
	root := containerLayer(1, 0, 0, 100, 100)
	root.Add(scrollLayer(2, 200, 100, 100, 100))
	tree := newActiveTree(&Scene{Root: root})

	n := tree.ScrollNode(2)
	if n == nil {
		t.Fatal("ScrollNode(2) = nil")
	}
	if got := n.MaxOffset(); got != geom.Pt(100, 0) {
		t.Errorf("MaxOffset() = %v, want (100,0)", got)
	}

	consumed := n.ScrollBy(geom.Pt(150, 0))
	if consumed != geom.Pt(100, 0) {
		t.Errorf("consumed = %v, want (100,0)", consumed)
	}
	if got := n.CurrentOffset(); got != geom.Pt(100, 0) {
		t.Errorf("CurrentOffset() = %v, want (100,0)", got)
	}

	consumed = n.ScrollBy(geom.Pt(-250, -10))
	if consumed != geom.Pt(-100, 0) {
		t.Errorf("consumed = %v, want (-100,0)", consumed)
	}
}

func TestScrollNodeUserScrollableAxes(t *testing.T) {
	sl := scrollLayer(2, 300, 300, 100, 100)
	sl.Scroll.UserScrollableVertical = false
	tree := newActiveTree(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(sl)})

	n := tree.ScrollNode(2)
	if got := n.ScrollBy(geom.Pt(10, 10)); got != geom.Pt(10, 0) {
		t.Errorf("ScrollBy() = %v, want (10,0)", got)
	}
	if !n.Scrollable() {
		t.Error("Scrollable() = false, want true")
	}
}

func TestScrollNodeInnerViewportMaxOffset(t *testing.T) {
	s := &Scene{
		Root:                  containerLayer(1, 0, 0, 100, 100).Add(scrollLayer(2, 300, 300, 100, 100)),
		InnerViewportScrollID: 2,
		PageScale:             2,
		MinPageScale:          1,
		MaxPageScale:          4,
	}
	tree := newActiveTree(s)

	n := tree.InnerViewportScrollNode()
	if n == nil || !n.IsInnerViewport() {
		t.Fatal("inner viewport node not marked")
	}
	if got := n.MaxOffset(); got != geom.Pt(250, 250) {
		t.Errorf("MaxOffset() = %v, want (250,250)", got)
	}

	n.SetOffset(geom.Pt(250, 250))
	tree.SetPageScale(1)
	if got := n.CurrentOffset(); got != geom.Pt(200, 200) {
		t.Errorf("offset after zoom out = %v, want (200,200)", got)
	}
	tree.SetPageScale(10)
	if got := tree.PageScale(); got != 4 {
		t.Errorf("PageScale() = %v, want max 4", got)
	}
}

func TestScrollNodeOffsetOnPendingTree(t *testing.T) {
	synced := NewSyncedState()
	pending := NewLayerTree(synced, nil)
	pending.PushScene(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(scrollLayer(2, 300, 300, 100, 100))}, nil)

	if pending.ScrollNode(2).SetOffset(geom.Pt(10, 10)) {
		t.Error("SetOffset() on a pending tree should not apply")
	}
}

func TestBrowserControlsGrowViewport(t *testing.T) {
	s := &Scene{
		Root:                  containerLayer(1, 0, 0, 100, 100).Add(scrollLayer(2, 300, 300, 100, 100)),
		InnerViewportScrollID: 2,
		BrowserControls:       BrowserControls{TopHeight: 20, ShownRatio: 0.5, ShrinkViewport: true},
	}
	tree := newActiveTree(s)

	if got := tree.InnerViewportScrollNode().ContainerBounds(); got != (geom.SizeF{W: 100, H: 110}) {
		t.Errorf("ContainerBounds() = %v, want 100x110", got)
	}
	tree.SetControlsShownRatio(1)
	if got := tree.InnerViewportScrollNode().ContainerBounds(); got != (geom.SizeF{W: 100, H: 100}) {
		t.Errorf("ContainerBounds() = %v, want 100x100", got)
	}
}

// =============================================================================
// Draw properties and render surfaces
// =============================================================================

func groupScene() *Scene {
	group := containerLayer(3, 50, 50, 50, 50)
	group.Opacity = 0.5
	group.Add(solidLayer(4, 0, 0, 10, 10), solidLayer(5, 20, 0, 10, 10))
	return &Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(solidLayer(2, 10, 10, 20, 20), group)}
}

func TestUpdateDrawPropertiesSurfaces(t *testing.T) {
	tree := newActiveTree(groupScene())

	var owners []int
	for _, l := range tree.RenderSurfaceList() {
		owners = append(owners, l.ID())
	}
	if fmt.Sprint(owners) != "[1 3]" {
		t.Fatalf("RenderSurfaceList() = %v, want [1 3]", owners)
	}

	rs := tree.RootRenderSurface()
	if rs.ContentRect() != geom.R(0, 0, 100, 100) {
		t.Errorf("root ContentRect() = %v, want viewport", rs.ContentRect())
	}

	group := tree.LayerByID(3).RenderSurface()
	if group.ContentRect() != geom.R(50, 50, 30, 10) {
		t.Errorf("group ContentRect() = %v, want (50,50,30,10)", group.ContentRect())
	}
	if group.DrawOpacity() != 0.5 {
		t.Errorf("group DrawOpacity() = %v, want 0.5", group.DrawOpacity())
	}
	child := tree.LayerByID(4).Draw()
	if child.Opacity != 1 || child.ScreenOpacity != 0.5 {
		t.Errorf("child opacity = %v/%v, want 1/0.5", child.Opacity, child.ScreenOpacity)
	}
	if child.Target != tree.LayerByID(3) {
		t.Errorf("child target = %v, want layer 3", child.Target.ID())
	}
}

func TestSingleDrawingLayerNeedsNoSurface(t *testing.T) {
	fading := solidLayer(2, 0, 0, 10, 10)
	fading.Opacity = 0.5
	tree := newActiveTree(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(fading)})

	if tree.LayerByID(2).RenderSurface() != nil {
		t.Error("single layer with opacity should draw without a surface")
	}
	if got := tree.LayerByID(2).Draw().Opacity; got != 0.5 {
		t.Errorf("Opacity = %v, want 0.5", got)
	}
}

func TestEmptySurfaceDropped(t *testing.T) {
	offscreen := containerLayer(2, 200, 200, 10, 10)
	offscreen.ForceRenderSurface = true
	offscreen.Add(solidLayer(3, 0, 0, 10, 10))

	copied := containerLayer(4, 300, 300, 10, 10)
	copied.ForceRenderSurface = true
	copied.CopyRequests = []*render.CopyRequest{render.NewCopyRequest("test", nil)}

	tree := newActiveTree(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(offscreen, copied)})

	if tree.LayerByID(2).RenderSurface() != nil {
		t.Error("empty surface should be dropped")
	}
	if tree.LayerByID(4).RenderSurface() == nil {
		t.Error("surface with a copy request should be kept")
	}
	if got := len(tree.RenderSurfaceList()); got != 2 {
		t.Errorf("len(RenderSurfaceList()) = %d, want 2", got)
	}
}

func TestVisibleRect(t *testing.T) {
	tests := []struct {
		name       string
		scale      float64
		layer      *SceneLayer
		wantVis    geom.Rect
		wantScreen geom.Rect
	}{
		{
			name:       "inside",
			scale:      1,
			layer:      solidLayer(2, 10, 10, 20, 20),
			wantVis:    geom.R(0, 0, 20, 20),
			wantScreen: geom.R(10, 10, 20, 20),
		},
		{
			name:       "partially offscreen",
			scale:      1,
			layer:      solidLayer(2, 90, 90, 20, 20),
			wantVis:    geom.R(0, 0, 10, 10),
			wantScreen: geom.R(90, 90, 10, 10),
		},
		{
			name:       "device scale",
			scale:      2,
			layer:      solidLayer(2, 10, 10, 20, 20),
			wantVis:    geom.R(0, 0, 20, 20),
			wantScreen: geom.R(20, 20, 40, 40),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewLayerTree(nil, nil)
			tree.SetActive(true)
			tree.SetDeviceViewport(geom.R(0, 0, 100*int(tt.scale), 100*int(tt.scale)))
			tree.SetDeviceScale(tt.scale)
			tree.PushScene(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(tt.layer)}, tree)
			tree.UpdateDrawProperties()

			d := tree.LayerByID(2).Draw()
			if d.VisibleRect != tt.wantVis {
				t.Errorf("VisibleRect = %v, want %v", d.VisibleRect, tt.wantVis)
			}
			if d.VisibleScreenRect != tt.wantScreen {
				t.Errorf("VisibleScreenRect = %v, want %v", d.VisibleScreenRect, tt.wantScreen)
			}
		})
	}
}

func TestScrolledVisibleRect(t *testing.T) {
	tree := newActiveTree(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(scrollLayer(2, 300, 300, 100, 100))})
	tree.ScrollNode(2).SetOffset(geom.Pt(50, 20))
	if !tree.UpdateDrawProperties() {
		t.Fatal("scrolling should invalidate draw properties")
	}

	d := tree.LayerByID(2).Draw()
	if d.VisibleRect != geom.R(50, 20, 100, 100) {
		t.Errorf("VisibleRect = %v, want (50,20,100,100)", d.VisibleRect)
	}
	if d.VisibleScreenRect != geom.R(0, 0, 100, 100) {
		t.Errorf("VisibleScreenRect = %v, want (0,0,100,100)", d.VisibleScreenRect)
	}
	if !d.PropertyChanged {
		t.Error("scrolled layer should report a property change")
	}
}

func TestUnoccludedScreenSpaceRegion(t *testing.T) {
	opaque := solidLayer(2, 0, 0, 50, 100)
	opaque.ContentsOpaque = true
	tree := newActiveTree(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(opaque)})

	r := tree.UnoccludedScreenSpaceRegion()
	if got := r.Area(); got != 5000 {
		t.Errorf("unoccluded area = %d, want 5000", got)
	}
	if r.ContainsPoint(geom.Pt(10, 10)) {
		t.Error("opaque area should not be unoccluded")
	}
}

func TestForEachFrontToBack(t *testing.T) {
	tree := newActiveTree(groupScene())

	want := []string{
		"TargetSurface:1",
		"TargetSurface:3",
		"Layer:5",
		"Layer:4",
		"ContributingSurface:3",
		"Layer:2",
	}
	got := entryNames(tree)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("ForEachFrontToBack() = %v, want %v", got, want)
	}
}

func TestEntryKindString(t *testing.T) {
	tests := []struct {
		kind EntryKind
		want string
	}{
		{EntryTargetSurface, "TargetSurface"},
		{EntryContributingSurface, "ContributingSurface"},
		{EntryLayer, "Layer"},
		{EntryKind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EntryKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

// =============================================================================
// Damage
// =============================================================================

func drawRoot(tree *LayerTree) geom.Rect {
	tree.UpdateDrawProperties()
	tree.TrackDamageForAllSurfaces()
	rs := tree.RootRenderSurface()
	d := rs.CurrentDamage()
	rs.DamageTracker().DidDrawDamagedArea()
	tree.ResetAllChangeTracking()
	return d
}

func TestDamageTracking(t *testing.T) {
	root := solidLayer(1, 0, 0, 100, 100)
	tree := newActiveTree(&Scene{Root: root.Add(solidLayer(2, 10, 10, 10, 10))})

	if got := drawRoot(tree); got != geom.R(0, 0, 100, 100) {
		t.Errorf("first damage = %v, want full viewport", got)
	}
	if got := drawRoot(tree); !got.IsEmpty() {
		t.Errorf("damage with no changes = %v, want empty", got)
	}

	tree.LayerByID(2).AddUpdateRect(geom.R(0, 0, 1, 1))
	if got := drawRoot(tree); got != geom.R(10, 10, 1, 1) {
		t.Errorf("update rect damage = %v, want (10,10,1,1)", got)
	}

	tree.LayerByID(2).SetOpacity(0.5)
	if got := drawRoot(tree); got != geom.R(10, 10, 10, 10) {
		t.Errorf("opacity damage = %v, want (10,10,10,10)", got)
	}
}

func TestDamageForRemovedLayer(t *testing.T) {
	scene := func(withChild bool) *Scene {
		root := solidLayer(1, 0, 0, 100, 100)
		if withChild {
			root.Add(solidLayer(2, 10, 10, 10, 10))
		}
		return &Scene{Root: root}
	}
	tree := newActiveTree(scene(true))
	drawRoot(tree)

	tree.PushScene(scene(false), tree)
	if got := drawRoot(tree); got != geom.R(10, 10, 10, 10) {
		t.Errorf("damage = %v, want (10,10,10,10)", got)
	}
}

func TestDamageTrackerInvalidate(t *testing.T) {
	d := NewDamageTracker()
	d.Invalidate(geom.R(0, 0, 10, 10))
	d.Invalidate(geom.R(1, 1, 2, 2))
	if got := d.CurrentDamage(geom.R(0, 0, 100, 100)); got != geom.R(0, 0, 10, 10) {
		t.Errorf("CurrentDamage() = %v, want (0,0,10,10)", got)
	}

	for i := 0; i <= maxDirtyRects; i++ {
		d.Invalidate(geom.R(i*20, 50, 5, 5))
	}
	if !d.IsFull() {
		t.Error("tracker should switch to full damage past the rect limit")
	}
	d.DidDrawDamagedArea()
	if got := d.CurrentDamage(geom.R(0, 0, 100, 100)); !got.IsEmpty() {
		t.Errorf("CurrentDamage() after draw = %v, want empty", got)
	}
}

// =============================================================================
// Scrollbars
// =============================================================================

func TestThumbRect(t *testing.T) {
	tree := newActiveTree(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(scrollLayer(2, 100, 400, 100, 100))})
	n := tree.ScrollNode(2)
	track := geom.Size{W: 10, H: 100}

	tests := []struct {
		name      string
		offset    geom.Vector
		props     ScrollbarProperties
		thickness float64
		want      geom.Rect
	}{
		{"top", geom.Pt(0, 0), ScrollbarProperties{Orientation: Vertical}, 1, geom.R(0, 0, 10, 25)},
		{"bottom", geom.Pt(0, 300), ScrollbarProperties{Orientation: Vertical}, 1, geom.R(0, 75, 10, 25)},
		{"thin", geom.Pt(0, 0), ScrollbarProperties{Orientation: Vertical, ThumbThickness: 8}, 0.5, geom.R(6, 0, 4, 25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n.SetOffset(tt.offset)
			if got := ThumbRect(n, &tt.props, track, tt.thickness); got != tt.want {
				t.Errorf("ThumbRect() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Commits
// =============================================================================

func TestPushSceneReusesLayers(t *testing.T) {
	scene := func(x float64) *Scene {
		return &Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(solidLayer(2, x, 0, 10, 10))}
	}
	tree := newActiveTree(scene(0))
	l := tree.LayerByID(2)
	if !l.LayerPropertyChanged() {
		t.Error("new layer should report a property change")
	}
	tree.ResetAllChangeTracking()

	tree.PushScene(scene(0), tree)
	if tree.LayerByID(2) != l {
		t.Fatal("direct commit should reuse the layer")
	}
	if l.LayerPropertyChanged() {
		t.Error("unchanged layer reports a property change")
	}

	tree.PushScene(scene(5), tree)
	if !l.LayerPropertyChanged() {
		t.Error("moved layer should report a property change")
	}
}

func TestPushSceneRemovesLayers(t *testing.T) {
	var released []*raster.Tiling
	tree := NewLayerTree(nil, func(tl *raster.Tiling) { released = append(released, tl) })
	tree.SetActive(true)

	var result render.CopyResult
	tiled := containerLayer(2, 0, 0, 128, 128)
	tiled.Content = ContentSpec{Kind: ContentTiled}
	tiled.CopyRequests = []*render.CopyRequest{render.NewCopyRequest("test", func(r render.CopyResult) { result = r })}
	tiled.Scroll = &ScrollProperties{ContainerBounds: geom.Size{W: 64, H: 64}}
	tree.PushScene(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(tiled)}, tree)

	tree.PushScene(&Scene{Root: containerLayer(1, 0, 0, 100, 100)}, tree)
	if tree.LayerByID(2) != nil {
		t.Error("removed layer still in the tree")
	}
	if len(released) != 1 {
		t.Errorf("released %d tilings, want 1", len(released))
	}
	if !result.Empty {
		t.Error("copy request of removed layer should get an empty result")
	}
	n := 0
	tree.Synced().ForEachOffset(func(int, *SyncedOffset) { n++ })
	if n != 0 {
		t.Errorf("%d synced offsets left, want 0", n)
	}
}

func TestPushSceneClonesTiling(t *testing.T) {
	scene := func(update geom.Rect) *Scene {
		tiled := containerLayer(2, 0, 0, 128, 128)
		tiled.Content = ContentSpec{Kind: ContentTiled}
		tiled.UpdateRect = update
		return &Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(tiled)}
	}
	active := newActiveTree(scene(geom.Rect{}))
	at := active.LayerByID(2).Content().(*TiledContent).Tiling()
	at.MarkAllReady()

	pending := NewLayerTree(active.Synced(), nil)
	pending.PushScene(scene(geom.R(0, 0, 1, 1)), active)

	pt := pending.LayerByID(2).Content().(*TiledContent).Tiling()
	if pt == at {
		t.Fatal("pending tree should not share the active tiling")
	}
	if got := pt.ReadyCount(); got != 3 {
		t.Errorf("pending ReadyCount() = %d, want 3", got)
	}
	if got := at.ReadyCount(); got != 4 {
		t.Errorf("active ReadyCount() = %d, want 4", got)
	}
}

func TestSynchronizeTrees(t *testing.T) {
	active := newActiveTree(&Scene{Root: containerLayer(1, 0, 0, 100, 100).Add(scrollLayer(2, 300, 300, 100, 100))})
	removed := active.LayerByID(2)

	pending := NewLayerTree(active.Synced(), nil)
	pending.PushScene(&Scene{Root: containerLayer(1, 0, 0, 100, 100), NeedsFullTreeSync: true}, active)
	if !pending.NeedsFullTreeSync() {
		t.Fatal("NeedsFullTreeSync() = false, want true")
	}

	SynchronizeTrees(active, pending)
	if removed.DrawsContent() {
		t.Error("layer missing from pending tree should be detached")
	}
	if pending.NeedsFullTreeSync() {
		t.Error("NeedsFullTreeSync() should be cleared")
	}
	n := 0
	active.Synced().ForEachOffset(func(int, *SyncedOffset) { n++ })
	if n != 0 {
		t.Errorf("%d synced offsets left, want 0", n)
	}
}

func TestPushLayerProperties(t *testing.T) {
	scene := func() *Scene {
		return &Scene{Root: solidLayer(1, 0, 0, 100, 100).Add(solidLayer(2, 10, 10, 10, 10))}
	}
	active := newActiveTree(scene())
	damage := active.RootRenderSurface().DamageTracker()
	req := render.NewCopyRequest("test", nil)
	active.LayerByID(2).AddCopyRequest(req)
	active.LayerByID(2).SetTransformAnimating(true)

	pending := NewLayerTree(active.Synced(), nil)
	pending.PushScene(scene(), active)
	PushLayerProperties(active, pending)

	if pending.LayerByID(1).damage != damage {
		t.Error("damage tracker should move to the pending layer")
	}
	if active.LayerByID(1).damage != nil {
		t.Error("active layer should give up its damage tracker")
	}
	p := pending.LayerByID(2)
	if !p.HasCopyRequest() || active.LayerByID(2).HasCopyRequest() {
		t.Error("copy request should move to the pending layer")
	}
	if !p.TransformAnimating() {
		t.Error("TransformAnimating() should carry over")
	}
	if pending.DeviceViewport() != active.DeviceViewport() {
		t.Errorf("DeviceViewport() = %v, want %v", pending.DeviceViewport(), active.DeviceViewport())
	}
}

type recordingUIResources struct {
	created []UIResourceID
	deleted []UIResourceID
}

func (r *recordingUIResources) CreateUIResource(id UIResourceID, _ UIResourceBitmap) {
	r.created = append(r.created, id)
}

func (r *recordingUIResources) DeleteUIResource(id UIResourceID) {
	r.deleted = append(r.deleted, id)
}

func TestUIResourceRequestQueue(t *testing.T) {
	tree := NewLayerTree(nil, nil)
	tree.PushScene(&Scene{
		Root: containerLayer(1, 0, 0, 100, 100),
		UIResourceRequests: []UIResourceRequest{
			{Kind: UIResourceCreate, ID: 1},
			{Kind: UIResourceDelete, ID: 2},
		},
	}, nil)
	if got := tree.PendingUIResourceRequests(); got != 2 {
		t.Fatalf("PendingUIResourceRequests() = %d, want 2", got)
	}

	rec := &recordingUIResources{}
	tree.ProcessUIResourceRequestQueue(rec)
	if fmt.Sprint(rec.created, rec.deleted) != "[1] [2]" {
		t.Errorf("created/deleted = %v/%v, want [1]/[2]", rec.created, rec.deleted)
	}
	if got := tree.PendingUIResourceRequests(); got != 0 {
		t.Errorf("PendingUIResourceRequests() = %d, want 0", got)
	}
}

func TestTakePendingPageScaleAnimation(t *testing.T) {
	tree := NewLayerTree(nil, nil)
	req := &PageScaleAnimationRequest{Scale: 2, DurationMS: 100}
	tree.PushScene(&Scene{Root: containerLayer(1, 0, 0, 100, 100), PageScaleAnimation: req}, nil)

	if got := tree.TakePendingPageScaleAnimation(); got != req {
		t.Errorf("TakePendingPageScaleAnimation() = %v, want %v", got, req)
	}
	if got := tree.TakePendingPageScaleAnimation(); got != nil {
		t.Errorf("second TakePendingPageScaleAnimation() = %v, want nil", got)
	}
}

func TestMainThreadScrollingReasonsString(t *testing.T) {
	tests := []struct {
		r    MainThreadScrollingReasons
		want string
	}{
		{NotScrollingOnMain, "None"},
		{ThreadedScrollingDisabled | ScrollbarScrolling, "ThreadedScrollingDisabled|ScrollbarScrolling"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
