package compositor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/compositor/tree"
)

// startLoop runs l until the test ends.
func startLoop(t *testing.T, l *Loop) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		l.Close()
	})
}

func TestLoopCommitAndDraw(t *testing.T) {
	p, sink := newTestPipeline(t)
	var results []VsyncResult
	l := NewLoop(p, WithVsyncObserver(func(r VsyncResult) { results = append(results, r) }))
	startLoop(t, l)

	require.NoError(t, l.Commit(pageScene(1)))
	require.NoError(t, l.OnVsync(vsyncAt(1)))

	var source, frames int
	require.NoError(t, l.Do(func(p *Pipeline) {
		source = p.ActiveTree().SourceFrame()
		frames = p.FrameNumber()
	}))
	assert.Equal(t, 1, source)
	assert.Equal(t, 1, frames)
	assert.Equal(t, 1, sink.Len())

	require.NoError(t, l.Do(func(*Pipeline) {}))
	require.Len(t, results, 1)
	assert.True(t, results[0].Activated)
	assert.True(t, results[0].Drew)
}

func TestLoopSendsBeginMainFrame(t *testing.T) {
	p, _ := newTestPipeline(t)
	l := NewLoop(p)
	startLoop(t, l)

	require.NoError(t, l.Do(func(p *Pipeline) { p.SetNeedsCommit() }))
	require.NoError(t, l.OnVsync(vsyncAt(1)))

	select {
	case req := <-l.MainFrames():
		assert.Equal(t, 1, req.Number)
		assert.Equal(t, vsyncAt(1), req.FrameTime)
		assert.True(t, req.Visible)
		assert.NotNil(t, req.Deltas)
	case <-time.After(5 * time.Second):
		t.Fatal("no BeginMainFrame")
	}

	var inFlight bool
	require.NoError(t, l.AbortMainFrame(false))
	require.NoError(t, l.Do(func(p *Pipeline) { inFlight = p.CommitInFlight() }))
	assert.False(t, inFlight)
}

func TestLoopClose(t *testing.T) {
	p, _ := newTestPipeline(t)
	l := NewLoop(p)
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	l.Close()
	l.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	assert.ErrorIs(t, l.Commit(pageScene(1)), ErrLoopClosed)
	assert.ErrorIs(t, l.Do(func(*Pipeline) {}), ErrLoopClosed)
}

func TestLoopRunContextCanceled(t *testing.T) {
	p, _ := newTestPipeline(t)
	l := NewLoop(p)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
}

func TestLoopDelayedAnimationTick(t *testing.T) {
	p, _ := newTestPipeline(t)
	l := NewLoop(p)
	startLoop(t, l)

	var needs bool
	require.NoError(t, l.OnVsync(vsyncAt(1)))
	require.NoError(t, l.Do(func(p *Pipeline) {
		needs = p.NeedsOneBeginFrame()
		p.RequestAnimationAfter(time.Millisecond)
	}))
	require.False(t, needs)

	assert.Eventually(t, func() bool {
		var got bool
		_ = l.Do(func(p *Pipeline) { got = p.NeedsOneBeginFrame() })
		return got
	}, 5*time.Second, time.Millisecond)
}

func TestServeProducer(t *testing.T) {
	p, sink := newTestPipeline(t)
	l := NewLoop(p, WithVsyncInterval(time.Millisecond))
	startLoop(t, l)

	var calls atomic.Int32
	prod := ProducerFunc(func(_ context.Context, req *BeginMainFrame) (*tree.Scene, error) {
		calls.Add(1)
		return pageScene(req.Number), nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- ServeProducer(ctx, l, prod) }()

	require.NoError(t, l.Do(func(p *Pipeline) { p.SetNeedsCommit() }))
	assert.Eventually(t, func() bool { return sink.Len() > 0 }, 5*time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	var source int
	require.NoError(t, l.Do(func(p *Pipeline) { source = p.ActiveTree().SourceFrame() }))
	assert.Equal(t, 1, source)

	cancel()
	assert.ErrorIs(t, <-served, context.Canceled)
}

func TestServeProducerAbortsOnError(t *testing.T) {
	p, _ := newTestPipeline(t)
	l := NewLoop(p)
	startLoop(t, l)

	var calls atomic.Int32
	prod := ProducerFunc(func(context.Context, *BeginMainFrame) (*tree.Scene, error) {
		calls.Add(1)
		return nil, errors.New("producer busy")
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ServeProducer(ctx, l, prod) }()

	require.NoError(t, l.Do(func(p *Pipeline) { p.SetNeedsCommit() }))
	require.NoError(t, l.OnVsync(vsyncAt(1)))

	assert.Eventually(t, func() bool {
		var inFlight bool
		_ = l.Do(func(p *Pipeline) { inFlight = p.CommitInFlight() })
		return calls.Load() == 1 && !inFlight
	}, 5*time.Second, time.Millisecond)
}
