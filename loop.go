package compositor

import (
	"context"
	"sync"
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/scroll"
	"github.com/gogpu/compositor/tree"
)

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithVsyncInterval makes Run tick the pipeline every d while it asks for
// frames. Without it ticks come only from OnVsync.
func WithVsyncInterval(d time.Duration) LoopOption {
	return func(l *Loop) { l.interval = d }
}

// WithVsyncObserver calls fn on the loop goroutine after every tick.
func WithVsyncObserver(fn func(VsyncResult)) LoopOption {
	return func(l *Loop) { l.observe = fn }
}

// WithQueueSize sets the task queue capacity. The default is 64.
func WithQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// Loop is the single execution context of a Pipeline. Every method posts a
// task and returns without waiting for it; tasks run in order on the
// goroutine that calls Run.
//
// BeginMainFrame requests leave through MainFrames. Raster completion is
// picked up from the tile scheduler and handled as a task.
type Loop struct {
	p         *Pipeline
	interval  time.Duration
	observe   func(VsyncResult)
	queueSize int

	tasks chan func(*Pipeline)

	// mainFrames holds the one BeginMainFrame in flight.
	mainFrames chan *BeginMainFrame
	done       chan struct{}
	closeOnce  sync.Once

	timersMu sync.Mutex
	timers   []*time.Timer
}

// NewLoop creates a loop serving p. p must not be used directly once Run
// has started.
func NewLoop(p *Pipeline, opts ...LoopOption) *Loop {
	l := &Loop{
		p:          p,
		queueSize:  64,
		done:       make(chan struct{}),
		mainFrames: make(chan *BeginMainFrame, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.tasks = make(chan func(*Pipeline), l.queueSize)
	p.schedule = l.scheduleTick
	return l
}

// MainFrames returns the channel of BeginMainFrame requests. The producer
// answers each with Commit or AbortMainFrame.
func (l *Loop) MainFrames() <-chan *BeginMainFrame { return l.mainFrames }

// Run serves tasks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	notify := l.p.tiles.Notify()

	var tick <-chan time.Time
	if l.interval > 0 {
		t := time.NewTicker(l.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			fn(l.p)
		case <-notify:
			l.p.HandleTileEvents(l.p.tiles.TakeEvents())
		case now := <-tick:
			if l.p.NeedsOneBeginFrame() {
				l.vsync(now)
			}
		}
	}
}

// Close stops Run and pending timers. Posting after Close returns
// ErrLoopClosed.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
		l.timersMu.Lock()
		for _, t := range l.timers {
			t.Stop()
		}
		l.timers = nil
		l.timersMu.Unlock()
	})
}

func (l *Loop) post(fn func(*Pipeline)) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Do runs fn on the loop and waits for it. It must not be called from the
// loop goroutine.
func (l *Loop) Do(fn func(*Pipeline)) error {
	finished := make(chan struct{})
	if err := l.post(func(p *Pipeline) {
		defer close(finished)
		fn(p)
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

func (l *Loop) vsync(now time.Time) {
	res := l.p.OnVsync(now)
	if res.BeginMainFrame != nil {
		// Never blocks: the buffer holds the only request in flight.
		select {
		case l.mainFrames <- res.BeginMainFrame:
		default:
			logx.L().Warn("compositor: dropped BeginMainFrame", "number", res.BeginMainFrame.Number)
			l.p.BeginMainFrameAborted(false)
		}
	}
	if l.observe != nil {
		l.observe(res)
	}
}

func (l *Loop) scheduleTick(d time.Duration) {
	l.timersMu.Lock()
	defer l.timersMu.Unlock()
	select {
	case <-l.done:
		return
	default:
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		l.timersMu.Lock()
		l.dropTimerLocked(t)
		l.timersMu.Unlock()
		_ = l.post(func(p *Pipeline) { p.SetNeedsOneBeginFrame() })
	})
	l.timers = append(l.timers, t)
}

func (l *Loop) dropTimerLocked(t *time.Timer) {
	for i, x := range l.timers {
		if x == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return
		}
	}
}

// OnVsync ticks the pipeline at now.
func (l *Loop) OnVsync(now time.Time) error {
	return l.post(func(*Pipeline) { l.vsync(now) })
}

// ScrollBegin starts a gesture. state belongs to the loop afterwards.
func (l *Loop) ScrollBegin(state *scroll.State, typ scroll.InputType) error {
	return l.post(func(p *Pipeline) { p.ScrollBegin(state, typ) })
}

// ScrollBy scrolls the latched gesture. state belongs to the loop
// afterwards.
func (l *Loop) ScrollBy(state *scroll.State) error {
	return l.post(func(p *Pipeline) { p.ScrollBy(state) })
}

func (l *Loop) ScrollEnd(state *scroll.State) error {
	return l.post(func(p *Pipeline) { p.ScrollEnd(state) })
}

func (l *Loop) PinchBegin() error {
	return l.post(func(p *Pipeline) { p.PinchBegin() })
}

func (l *Loop) PinchUpdate(magnify float64, anchor geom.Point) error {
	return l.post(func(p *Pipeline) { p.PinchUpdate(magnify, anchor) })
}

func (l *Loop) PinchEnd() error {
	return l.post(func(p *Pipeline) { p.PinchEnd() })
}

func (l *Loop) SetMemoryPolicy(policy raster.MemoryPolicy) error {
	return l.post(func(p *Pipeline) { p.SetMemoryPolicy(policy) })
}

func (l *Loop) SetVisible(visible bool) error {
	return l.post(func(p *Pipeline) { p.SetVisible(visible) })
}

// Commit hands s to the pipeline. The producer must not touch s afterwards.
func (l *Loop) Commit(s *tree.Scene) error {
	return l.post(func(p *Pipeline) { p.CommitScene(s) })
}

// AbortMainFrame answers a BeginMainFrame without a commit.
func (l *Loop) AbortMainFrame(mainFrameApplied bool) error {
	return l.post(func(p *Pipeline) { p.BeginMainFrameAborted(mainFrameApplied) })
}

func (l *Loop) NotifyReadyToActivate() error {
	return l.post(func(p *Pipeline) { p.NotifyReadyToActivate() })
}
