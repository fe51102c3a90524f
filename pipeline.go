package compositor

import (
	"fmt"
	"time"

	"github.com/gogpu/compositor/animation"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/hud"
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/output"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/scroll"
	"github.com/gogpu/compositor/tree"
)

// Pipeline is the compositor-thread side of a compositor. It owns the
// active, pending and recycle trees, routes input to the active tree and
// turns vsync ticks into frames.
//
// A Pipeline is not safe for concurrent use. Loop serializes access to it
// from other goroutines.
type Pipeline struct {
	settings Settings
	now      func() time.Time
	observer func()

	synced  *tree.SyncedState
	active  *tree.LayerTree
	pending *tree.LayerTree
	recycle *tree.LayerTree

	tiles       raster.TileScheduler
	closeTiles  func()
	decodeCache *raster.ImageDecodeCache
	budget      *raster.BudgetController
	assembler   *frame.Assembler
	submitter   *output.Submitter
	router      *scroll.Router
	host        *animation.AnimationHost
	controls    *animation.BrowserControlsOffsetManager
	ticker      *animation.Ticker
	hud         *hud.HUD
	metrics     *Metrics
	ui          uiResourceTable

	visible       bool
	activating    bool
	commitStart   time.Time
	lastFrameTime time.Time
	lastCanDraw   bool
	frameNumber   int
	bmfNumber     int

	needsRedraw         bool
	needsCommit         bool
	needsOneBeginFrame  bool
	commitInFlight      bool
	readyToActivate     bool
	readyToDraw         bool
	tilePrioritiesDirty bool
	forceResend         bool

	// schedule arms a timer that ends in SetNeedsOneBeginFrame. Loop
	// installs one; without it delayed animations wait for the next tick.
	schedule func(d time.Duration)
}

// NewPipeline creates a visible pipeline with an empty active tree.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := o.settings
	if err := s.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		settings: s,
		now:      o.now,
		observer: o.observer,
		metrics:  NewMetrics(o.registerer),
		ui:       newUIResourceTable(),
		visible:  true,
	}

	p.tiles = o.tiles
	if p.tiles == nil {
		p.decodeCache = raster.NewImageDecodeCache(o.decodeBudget, o.decoder)
		tm := raster.NewTileManager(
			raster.DecodingRasterizer{Cache: p.decodeCache, Next: o.rasterizer},
			raster.WithWorkers(s.RasterWorkers),
		)
		p.tiles = tm
		p.closeTiles = tm.Close
	}

	p.synced = tree.NewSyncedState()
	p.active = tree.NewLayerTree(p.synced, p.releaseTiling)
	p.active.SetActive(true)
	p.active.SetDeviceScale(o.deviceScale)
	p.active.SetDeviceViewport(o.viewport)

	p.budget = raster.NewBudgetController(rasterBackend{p},
		raster.WithPrepaintPercentage(s.MaxMemoryForPrepaintPercentage))
	p.assembler = frame.NewAssembler()
	p.submitter = output.NewSubmitter(o.sink)

	p.host = animation.NewAnimationHost(p, animation.WithScrollFinished(func() {
		p.router.ScrollOffsetAnimationFinished()
	}))
	p.controls = animation.NewBrowserControlsOffsetManager(p)
	p.router = scroll.NewRouter(p,
		scroll.WithClient(p),
		scroll.WithAnimator(p.host),
		scroll.WithControls(p.controls),
		scroll.WithSnapAngle(s.SnapAngleDegrees),
	)
	p.ticker = animation.NewTicker(p, p.router.Viewport(),
		animation.WithClient(p),
		animation.WithHost(p.host),
		animation.WithControls(p.controls),
		animation.WithScrollbarSettings(s.scrollbarSettings()),
	)

	p.hud = o.hud
	if p.hud == nil && s.ShowFPSCounter {
		h, err := hud.New()
		if err != nil {
			return nil, fmt.Errorf("compositor: create hud: %w", err)
		}
		p.hud = h
	}
	if p.hud != nil {
		p.hud.SetVisible(true)
	}

	p.applyTileState(p.budget.ApplyMemoryPolicy(s.MemoryPolicy, p.visible))
	p.lastCanDraw = p.CanDraw()
	return p, nil
}

// Close releases every tile and stops the built-in tile manager.
func (p *Pipeline) Close() {
	if p.pending != nil {
		p.pending.DetachResources()
	}
	p.active.DetachResources()
	p.tiles.ReleaseTileResources()
	if p.closeTiles != nil {
		p.closeTiles()
	}
}

// ActiveTree returns the tree being drawn and scrolled.
func (p *Pipeline) ActiveTree() *tree.LayerTree { return p.active }

// PendingTree returns the tree waiting for activation, or nil.
func (p *Pipeline) PendingTree() *tree.LayerTree { return p.pending }

// RecycleTree returns the spare tree reused by the next commit, or nil.
func (p *Pipeline) RecycleTree() *tree.LayerTree { return p.recycle }

// SyncTree returns the tree commits go into: the pending tree, or the
// active tree when committing directly.
func (p *Pipeline) SyncTree() *tree.LayerTree {
	if p.pending != nil {
		return p.pending
	}
	return p.active
}

func (p *Pipeline) Settings() Settings                  { return p.settings }
func (p *Pipeline) Router() *scroll.Router              { return p.router }
func (p *Pipeline) Ticker() *animation.Ticker           { return p.ticker }
func (p *Pipeline) Budget() *raster.BudgetController    { return p.budget }
func (p *Pipeline) Submitter() *output.Submitter        { return p.submitter }
func (p *Pipeline) TileScheduler() raster.TileScheduler { return p.tiles }
func (p *Pipeline) HUD() *hud.HUD                       { return p.hud }
func (p *Pipeline) Visible() bool                       { return p.visible }

// CommitInFlight reports whether a BeginMainFrame is waiting for its commit
// or abort.
func (p *Pipeline) CommitInFlight() bool { return p.commitInFlight }

func (p *Pipeline) releaseTiling(t *raster.Tiling) {
	p.tiles.Forget(t)
}

// =============================================================================
// Commit and activation
// =============================================================================

// BeginCommit prepares the sync tree for a commit. Without commit-to-active
// mode a pending tree is created, reusing the recycle tree if there is one.
// A pending tree still waiting for activation is activated first.
func (p *Pipeline) BeginCommit() {
	if p.settings.CommitToActiveTree {
		return
	}
	if p.pending != nil {
		logx.L().Warn("compositor: commit over unactivated pending tree")
		p.ActivateSyncTree()
	}
	if p.recycle != nil {
		p.pending, p.recycle = p.recycle, nil
	} else {
		p.pending = tree.NewLayerTree(p.synced, p.releaseTiling)
	}
	p.pending.SetActive(false)
	p.pending.SetDeviceScale(p.active.DeviceScale())
	p.pending.SetDeviceViewport(p.active.DeviceViewport())
	p.readyToActivate = false
	p.commitStart = p.now()
}

// CommitScene commits s: BeginCommit, push s into the sync tree, then
// CommitComplete. The pipeline owns s afterwards.
func (p *Pipeline) CommitScene(s *tree.Scene) {
	p.BeginCommit()
	p.SyncTree().PushScene(s, p.active)
	p.CommitComplete()
}

// CommitComplete finishes a commit into the sync tree. Draw properties are
// recomputed and tiles prepared; when no raster work is needed the tree is
// ready to activate at once.
func (p *Pipeline) CommitComplete() {
	direct := p.settings.CommitToActiveTree
	if direct {
		p.ticker.ActivateAnimations()
		if !p.lastFrameTime.IsZero() {
			p.ticker.Tick(p.lastFrameTime, true)
		}
		p.commitInFlight = false
	}

	p.budget.SetNeedsGPURasterizationUpdate()
	p.updateGPURasterizationStatus()

	sync := p.SyncTree()
	sync.SetNeedsUpdateDrawProperties()
	sync.UpdateDrawProperties()
	p.tilePrioritiesDirty = true
	if !p.prepareTiles() {
		p.NotifyReadyToActivate()
		if direct {
			p.NotifyReadyToDraw()
		}
	}
	logx.L().Debug("compositor: commit complete",
		"source_frame", sync.SourceFrame(), "direct", direct)
}

// ActivateSyncTree makes the pending tree active. The previous active tree
// becomes the recycle tree. Without a pending tree only the active tree's
// queued UI resource requests are processed.
//
// Calling ActivateSyncTree from an activation observer panics with
// ErrReentrantActivation.
func (p *Pipeline) ActivateSyncTree() {
	if p.activating {
		panic(ErrReentrantActivation)
	}
	p.activating = true
	defer func() { p.activating = false }()
	p.readyToActivate = false

	if pending := p.pending; pending != nil {
		active := p.active
		pending.ProcessUIResourceRequestQueue(p)
		if pending.NeedsFullTreeSync() {
			tree.SynchronizeTrees(active, pending)
		}
		if active.PropertyTreesChanged() {
			if pending.PropertyTreesSequence() == active.PropertyTreesSequence() {
				active.PushChangeTrackingTo(pending)
			} else {
				active.MoveChangeTrackingToLayers()
			}
		}
		tree.PushLayerProperties(active, pending)
		p.synced.PushPendingToActive()

		active.SetActive(false)
		active.DetachResources()
		active.ResetAllChangeTracking()
		p.active, p.pending, p.recycle = pending, nil, active

		p.ticker.ActivateAnimations()
		p.commitInFlight = false
		p.metrics.observeActivation(p.now().Sub(p.commitStart).Seconds())
	} else {
		p.active.ProcessUIResourceRequestQueue(p)
	}

	p.active.UpdateViewportContainerSizes()
	p.active.DidBecomeActive()
	p.ticker.SyncScrollbarControllers()
	p.renewTreePriority()
	if len(p.active.TiledLayers()) > 0 {
		p.tilePrioritiesDirty = true
	}
	p.onCanDrawStateChanged()
	p.SetNeedsRedraw()
	logx.L().Info("compositor: activated", "source_frame", p.active.SourceFrame())

	if p.observer != nil {
		p.observer()
	}
	if req := p.active.TakePendingPageScaleAnimation(); req != nil {
		p.ticker.StartPageScaleAnimation(req)
	}
}

// ActivatePendingTree activates the pending tree, returning
// ErrNoPendingTree if there is none.
func (p *Pipeline) ActivatePendingTree() error {
	if p.pending == nil {
		return ErrNoPendingTree
	}
	p.ActivateSyncTree()
	return nil
}

// NotifyReadyToActivate marks the sync tree ready; the next OnVsync
// activates it.
func (p *Pipeline) NotifyReadyToActivate() {
	p.readyToActivate = true
	p.SetNeedsOneBeginFrame()
}

// NotifyReadyToDraw marks the active tree's required tiles as ready.
func (p *Pipeline) NotifyReadyToDraw() {
	p.readyToDraw = true
	p.SetNeedsRedraw()
}

// ReadyToActivate reports whether the next OnVsync will activate.
func (p *Pipeline) ReadyToActivate() bool { return p.readyToActivate }

// BeginMainFrameAborted ends a BeginMainFrame that produced no commit.
// mainFrameApplied reports whether the producer applied the sent deltas.
func (p *Pipeline) BeginMainFrameAborted(mainFrameApplied bool) {
	p.commitInFlight = false
	p.synced.AbortCommit(mainFrameApplied)
	if mainFrameApplied {
		p.SetNeedsRedraw()
	}
	logx.L().Debug("compositor: main frame aborted", "applied", mainFrameApplied)
}

// =============================================================================
// Scheduling requests
// =============================================================================

// SetNeedsRedraw requests a draw on the next vsync.
func (p *Pipeline) SetNeedsRedraw() {
	p.needsRedraw = true
	p.needsOneBeginFrame = true
}

// SetNeedsCommit requests a BeginMainFrame on the next vsync.
func (p *Pipeline) SetNeedsCommit() {
	p.needsCommit = true
	p.needsOneBeginFrame = true
}

// SetNeedsOneBeginFrame requests one more vsync tick.
func (p *Pipeline) SetNeedsOneBeginFrame() { p.needsOneBeginFrame = true }

// RequestAnimationAfter requests a tick after d, for delayed animations
// such as scrollbar fades.
func (p *Pipeline) RequestAnimationAfter(d time.Duration) {
	if p.schedule != nil {
		p.schedule(d)
		return
	}
	p.needsOneBeginFrame = true
}

// DidCompletePageScaleAnimation is called when a page scale animation ends.
func (p *Pipeline) DidCompletePageScaleAnimation() {
	p.renewTreePriority()
	logx.L().Debug("compositor: page scale animation complete", "scale", p.active.PageScale())
}

// SetForceResend makes the next frame carry every resource even without
// damage, for an output that lost its resources.
func (p *Pipeline) SetForceResend() {
	p.forceResend = true
	p.SetNeedsRedraw()
}

func (p *Pipeline) NeedsRedraw() bool        { return p.needsRedraw }
func (p *Pipeline) NeedsCommit() bool        { return p.needsCommit }
func (p *Pipeline) NeedsOneBeginFrame() bool { return p.needsOneBeginFrame }

// =============================================================================
// Raster budget
// =============================================================================

// SetVisible shows or hides the pipeline. Hiding evicts UI resources and
// releases every tile; showing requires full resolution on the next draw.
func (p *Pipeline) SetVisible(visible bool) {
	if p.visible == visible {
		return
	}
	p.visible = visible
	p.applyTileState(p.budget.ApplyMemoryPolicy(p.budget.Policy(), visible))
	logx.L().Info("compositor: visibility changed", "visible", visible)

	if visible {
		p.budget.SetRequiresHighResToDraw()
		p.SetNeedsRedraw()
		return
	}
	p.EvictAllUIResources()
	p.prepareTiles()
}

// SetMemoryPolicy installs a new memory policy. A commit is requested
// unless the old and new limits both cover the memory needed.
func (p *Pipeline) SetMemoryPolicy(policy raster.MemoryPolicy) {
	needsCommit := p.budget.SetManagedMemoryPolicy(policy)
	p.applyTileState(p.budget.State())
	if needsCommit {
		p.SetNeedsCommit()
	}
}

func (p *Pipeline) applyTileState(s raster.GlobalTileState) {
	p.tiles.SetGlobalState(s)
	p.metrics.observeTileState(s)
	p.tilePrioritiesDirty = true
	p.SetNeedsOneBeginFrame()
}

func (p *Pipeline) renewTreePriority() {
	prio := raster.SamePriorityForBothTrees
	if p.router.CurrentlyScrollingNode() != nil || p.router.PinchActive() || p.ticker.PageScaleAnimationActive() {
		prio = raster.SmoothnessTakesPriority
	}
	if p.budget.State().TreePriority == prio {
		return
	}
	p.applyTileState(p.budget.SetTreePriority(prio))
}

// prepareTiles hands the tilings of both trees to the tile scheduler. It
// reports whether raster work was scheduled.
func (p *Pipeline) prepareTiles() bool {
	if !p.tilePrioritiesDirty {
		return false
	}
	p.tilePrioritiesDirty = false

	reqs := p.active.TilingRequests(raster.ActiveTree)
	if p.pending != nil {
		reqs = append(reqs, p.pending.TilingRequests(raster.PendingTree)...)
	}
	n := p.tiles.PrepareTiles(reqs)
	p.budget.SetMaxMemoryNeeded(p.tiles.MemoryNeededBytes())
	return n > 0
}

func (p *Pipeline) updateGPURasterizationStatus() {
	caps := p.submitter.Capabilities()
	hasDevice := p.submitter.Sink() != nil && !caps.ResourcelessSoftwareDraw
	sync := p.SyncTree()
	samples := raster.RequestedMSAASampleCount(p.settings.GPURasterizationMSAASampleCount, sync.DeviceScale())
	changed := p.budget.UpdateGPURasterizationStatus(raster.GPURasterInputs{
		Forced:           p.settings.GPURasterizationForced,
		DeviceEnabled:    p.settings.GPURasterizationEnabled && hasDevice,
		HasTrigger:       sync.GPURasterizationTrigger(),
		ContentSuitable:  sync.ContentSuitableForGPU(),
		RequestedSamples: samples,
		MaxSamples:       p.settings.MaxMSAASamples,
		CanUseGPU:        hasDevice,
	})
	if !changed {
		return
	}
	d := p.budget.GPUDecision()
	p.tiles.SetRasterMode(d.UseGPU, d.UseMSAA)
	// Every tile is re-rastered in the new mode.
	p.tiles.ReleaseTileResources()
	p.tilePrioritiesDirty = true
}

// HandleTileEvents applies the raster scheduler's notifications.
func (p *Pipeline) HandleTileEvents(ev raster.Events) {
	if ev.TileStateChanged {
		p.SetNeedsRedraw()
		if p.pending != nil && p.pending.RequiredTilesReady() {
			p.NotifyReadyToActivate()
		}
		if p.active.RequiredTilesReady() {
			p.readyToDraw = true
		}
	}
	if ev.AllTileTasksCompleted {
		p.budget.AllTileTasksCompleted()
		if p.pending != nil {
			p.NotifyReadyToActivate()
		}
		p.readyToDraw = true
	}
}

// rasterBackend receives the visibility side effects of the budget.
type rasterBackend struct{ p *Pipeline }

func (b rasterBackend) SetContextVisibility(visible bool) {
	if !visible {
		b.p.submitter.ReclaimResources()
	}
}

func (b rasterBackend) SetShouldAggressivelyFreeResources(aggressive bool) {
	if b.p.decodeCache != nil {
		b.p.decodeCache.SetShouldAggressivelyFreeResources(aggressive)
	}
}

var (
	_ scroll.TreeSource      = (*Pipeline)(nil)
	_ scroll.Client          = (*Pipeline)(nil)
	_ animation.Client       = (*Pipeline)(nil)
	_ tree.UIResourceManager = (*Pipeline)(nil)
	_ tree.UIResourceLookup  = (*Pipeline)(nil)
	_ raster.Backend         = rasterBackend{}
)
