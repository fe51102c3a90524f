package raster

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/internal/parallel"
)

// WhichTree identifies the tree a tiling belongs to.
type WhichTree int

const (
	ActiveTree WhichTree = iota
	PendingTree
)

// Bin orders tiles by urgency.
type Bin int

const (
	// BinNow holds visible tiles.
	BinNow Bin = iota

	// BinEventually holds prepaint tiles outside the viewport.
	BinEventually
)

// Task is one tile handed to a Rasterizer.
type Task struct {
	Tiling  *Tiling
	X, Y    int
	Rect    geom.Rect
	Bin     Bin
	Tree    WhichTree
	UseGPU  bool
	UseMSAA bool
	Images  []ImageRef
}

// Rasterizer produces the pixels for a tile.
type Rasterizer interface {
	RasterizeTile(ctx context.Context, task Task) error
}

// RasterizerFunc adapts a function to the Rasterizer interface.
type RasterizerFunc func(ctx context.Context, task Task) error

// RasterizeTile calls f(ctx, task).
func (f RasterizerFunc) RasterizeTile(ctx context.Context, task Task) error {
	return f(ctx, task)
}

// NopRasterizer completes every tile immediately.
var NopRasterizer = RasterizerFunc(func(context.Context, Task) error { return nil })

// TilingRequest describes one tiling to prepare.
type TilingRequest struct {
	Tiling *Tiling
	Tree   WhichTree

	// Visible is the part of the content on screen.
	Visible geom.Rect

	// Interest is the prepaint region, a superset of Visible.
	Interest geom.Rect

	// Required marks the visible tiles as needed to activate or draw.
	Required bool
}

// Events are the notifications accumulated since the last TakeEvents.
type Events struct {
	TileStateChanged      bool
	AllTileTasksCompleted bool
}

// TileScheduler is the raster scheduler consumed by the pipeline.
type TileScheduler interface {
	SetGlobalState(GlobalTileState)
	SetRasterMode(useGPU, useMSAA bool)
	PrepareTiles(reqs []TilingRequest) int
	ReleaseTileResources()
	Forget(*Tiling)
	MemoryNeededBytes() uint64
	Notify() <-chan struct{}
	TakeEvents() Events
}

// ManagerOption configures a TileManager.
type ManagerOption func(*TileManager)

// WithWorkers sets the raster worker count. 0 uses GOMAXPROCS.
func WithWorkers(n int) ManagerOption {
	return func(m *TileManager) { m.workers = n }
}

// TileManager rasterizes tiles on a worker pool within the global tile state.
//
// PrepareTiles, SetGlobalState and ReleaseTileResources must be called from
// the compositor thread. Completion is reported through Notify / TakeEvents.
type TileManager struct {
	raster  Rasterizer
	workers int
	pool    *parallel.Pool
	ctx     context.Context
	cancel  context.CancelFunc

	state   GlobalTileState
	useGPU  bool
	useMSAA bool

	mu      sync.Mutex
	tilings map[*Tiling]struct{}

	outstanding  atomic.Int64
	stateChanged atomic.Bool
	allDone      atomic.Bool
	notify       chan struct{}

	memoryNeeded uint64
}

var _ TileScheduler = (*TileManager)(nil)

// NewTileManager creates a tile manager. A nil rasterizer uses NopRasterizer.
func NewTileManager(r Rasterizer, opts ...ManagerOption) *TileManager {
	if r == nil {
		r = NopRasterizer
	}
	m := &TileManager{
		raster:  r,
		tilings: make(map[*Tiling]struct{}),
		notify:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.pool = parallel.NewPool(m.workers)
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// SetGlobalState installs a new budget.
func (m *TileManager) SetGlobalState(s GlobalTileState) {
	m.state = s
}

// SetRasterMode selects GPU or software raster for future tasks.
func (m *TileManager) SetRasterMode(useGPU, useMSAA bool) {
	m.useGPU, m.useMSAA = useGPU, useMSAA
}

type candidate struct {
	req      *TilingRequest
	tx, ty   int
	bin      Bin
	required bool
	rank     int
}

// PrepareTiles schedules raster work for the given tilings and evicts
// tiles the budget no longer allows. It returns the number of tasks
// scheduled; with zero and nothing in flight, AllTileTasksCompleted is
// signaled immediately.
func (m *TileManager) PrepareTiles(reqs []TilingRequest) int {
	m.mu.Lock()
	for i := range reqs {
		m.tilings[reqs[i].Tiling] = struct{}{}
	}
	m.mu.Unlock()

	if m.state.MemoryLimit == AllowNothing || m.state.HardLimitBytes == 0 {
		m.releaseAll()
		m.memoryNeeded = 0
		if m.outstanding.Load() == 0 {
			m.signal(&m.allDone)
		}
		return 0
	}

	m.evictOutsideInterest(reqs)

	var cands []candidate
	var needed uint64
	for i := range reqs {
		req := &reqs[i]
		t := req.Tiling
		t.ForEachTile(req.Interest.Union(req.Visible), func(tx, ty int) {
			needed += tileBytes
			if t.ready.IsSet(tx, ty) || t.scheduled.IsSet(tx, ty) {
				return
			}
			bin := BinEventually
			if t.TileRect(tx, ty).Intersects(req.Visible) {
				bin = BinNow
			}
			cands = append(cands, candidate{
				req:      req,
				tx:       tx,
				ty:       ty,
				bin:      bin,
				required: req.Required && bin == BinNow,
				rank:     m.treeRank(req.Tree),
			})
		})
	}
	m.memoryNeeded = needed

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.required != b.required {
			return a.required
		}
		if a.bin != b.bin {
			return a.bin < b.bin
		}
		return a.rank < b.rank
	})

	used, resources := m.residentUsage()
	scheduled := 0
	for _, c := range cands {
		if !m.allowed(c) {
			continue
		}
		limit := m.state.HardLimitBytes
		if c.bin == BinEventually && m.state.MemoryLimit == AllowPrepaintOnly {
			limit = m.state.SoftLimitBytes
		}
		if used+tileBytes > limit {
			continue
		}
		if m.state.NumResourcesLimit > 0 && resources >= m.state.NumResourcesLimit {
			break
		}
		if m.schedule(c) {
			used += tileBytes
			resources++
			scheduled++
		}
	}

	if scheduled == 0 && m.outstanding.Load() == 0 {
		m.signal(&m.allDone)
	}
	logx.L().Debug("raster: prepare tiles",
		"requests", len(reqs), "candidates", len(cands), "scheduled", scheduled, "used", used)
	return scheduled
}

const tileBytes = uint64(parallel.TileBytes)

func (m *TileManager) allowed(c candidate) bool {
	switch m.state.MemoryLimit {
	case AllowAbsoluteMinimum:
		return c.required
	case AllowPrepaintOnly, AllowAnything:
		return true
	default:
		return false
	}
}

func (m *TileManager) treeRank(tree WhichTree) int {
	switch m.state.TreePriority {
	case SmoothnessTakesPriority:
		if tree == ActiveTree {
			return 0
		}
		return 1
	case NewContentTakesPriority:
		if tree == PendingTree {
			return 0
		}
		return 1
	default:
		return 0
	}
}

func (m *TileManager) schedule(c candidate) bool {
	t := c.req.Tiling
	if !t.scheduled.Set(c.tx, c.ty) {
		return false
	}
	rect := t.TileRect(c.tx, c.ty)
	task := Task{
		Tiling:  t,
		X:       c.tx,
		Y:       c.ty,
		Rect:    rect,
		Bin:     c.bin,
		Tree:    c.req.Tree,
		UseGPU:  m.useGPU,
		UseMSAA: m.useMSAA,
		Images:  t.ImagesIn(rect),
	}
	gen := t.generation.Load()

	m.outstanding.Add(1)
	m.allDone.Store(false)
	ok := m.pool.Submit(func() { m.run(task, gen) })
	if !ok {
		t.scheduled.Unset(c.tx, c.ty)
		m.outstanding.Add(-1)
	}
	return ok
}

func (m *TileManager) run(task Task, gen uint64) {
	defer func() {
		if m.outstanding.Add(-1) == 0 {
			m.signal(&m.allDone)
		}
	}()

	err := m.raster.RasterizeTile(m.ctx, task)
	t := task.Tiling
	if t.generation.Load() != gen {
		return
	}
	t.scheduled.Unset(task.X, task.Y)
	if err != nil {
		logx.L().Warn("raster: tile failed", "tiling", t.ID(), "x", task.X, "y", task.Y, "err", err)
		return
	}
	t.ready.Set(task.X, task.Y)
	m.signal(&m.stateChanged)
}

func (m *TileManager) signal(flag *atomic.Bool) {
	flag.Store(true)
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// residentUsage returns the bytes and tile count held by known tilings.
func (m *TileManager) residentUsage() (uint64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var bytes uint64
	n := 0
	for t := range m.tilings {
		c := t.residentCount()
		n += c
		bytes += uint64(c) * tileBytes
	}
	return bytes, n
}

// evictOutsideInterest frees ready tiles outside every interest rect while
// resident memory is above the hard limit.
func (m *TileManager) evictOutsideInterest(reqs []TilingRequest) {
	used, _ := m.residentUsage()
	if used <= m.state.HardLimitBytes {
		return
	}
	for i := range reqs {
		req := &reqs[i]
		t := req.Tiling
		if t.ready == nil {
			continue
		}
		keep := req.Interest.Union(req.Visible)
		t.ready.ForEach(func(tx, ty int) {
			if used <= m.state.HardLimitBytes {
				return
			}
			if t.TileRect(tx, ty).Intersects(keep) {
				return
			}
			if t.ready.Unset(tx, ty) {
				used -= tileBytes
			}
		})
	}
}

func (m *TileManager) releaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t := range m.tilings {
		t.Release()
	}
}

// ReleaseTileResources drops every tile of every known tiling.
func (m *TileManager) ReleaseTileResources() {
	m.releaseAll()
	m.signal(&m.stateChanged)
}

// Forget stops tracking a tiling, for example when its layer is destroyed.
func (m *TileManager) Forget(t *Tiling) {
	m.mu.Lock()
	delete(m.tilings, t)
	m.mu.Unlock()
	t.Release()
}

// MemoryNeededBytes returns the memory the last PrepareTiles call would
// need to raster every interesting tile.
func (m *TileManager) MemoryNeededBytes() uint64 {
	return m.memoryNeeded
}

// Outstanding returns the number of raster tasks in flight.
func (m *TileManager) Outstanding() int {
	return int(m.outstanding.Load())
}

// Notify returns a channel that receives a value whenever new events are
// available through TakeEvents.
func (m *TileManager) Notify() <-chan struct{} {
	return m.notify
}

// TakeEvents returns and clears the pending events.
func (m *TileManager) TakeEvents() Events {
	return Events{
		TileStateChanged:      m.stateChanged.Swap(false),
		AllTileTasksCompleted: m.allDone.Swap(false),
	}
}

// Flush blocks until all scheduled raster work has finished.
func (m *TileManager) Flush() {
	m.pool.Wait()
}

// Close cancels in-flight raster work and stops the workers.
func (m *TileManager) Close() {
	m.cancel()
	m.pool.Close()
}
