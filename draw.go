package compositor

import (
	"errors"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/output"
	"github.com/gogpu/compositor/tree"
)

// VsyncResult summarizes one OnVsync tick.
type VsyncResult struct {
	Animated  bool
	Activated bool

	// Drew is set when a frame was submitted.
	Drew bool

	// Frame is the prepared frame, nil when no draw was attempted.
	Frame *frame.FrameData

	// BeginMainFrame is non-nil when a commit was requested from the
	// producer during this tick.
	BeginMainFrame *BeginMainFrame
}

// OnVsync runs one compositor frame at now: animate, activate a ready
// pending tree, draw when a redraw is needed, and ask the producer for a
// commit when one is needed and none is in flight.
func (p *Pipeline) OnVsync(now time.Time) VsyncResult {
	var res VsyncResult
	p.lastFrameTime = now
	p.needsOneBeginFrame = false
	p.submitter.ReclaimResources()

	res.Animated = p.ticker.Tick(now, true)
	if p.readyToActivate {
		p.ActivateSyncTree()
		res.Activated = true
	}

	if p.needsRedraw && p.CanDraw() {
		res.Frame, res.Drew = p.draw(now)
	}

	if p.needsCommit && !p.commitInFlight && p.visible {
		res.BeginMainFrame = p.beginMainFrame(now)
	}
	p.prepareTiles()
	return res
}

// draw prepares and submits one frame. Aborted frames keep the redraw
// request so the next vsync tries again.
func (p *Pipeline) draw(now time.Time) (*frame.FrameData, bool) {
	caps := p.submitter.Capabilities()
	opts := frame.AssembleOptions{
		Mode:                     drawMode(caps),
		CommitToActiveTree:       p.settings.CommitToActiveTree,
		RequiresHighResToDraw:    p.budget.RequiresHighResToDraw(),
		ResourcelessSoftwareDraw: caps.ResourcelessSoftwareDraw,
		ForceResend:              p.forceResend,
		CullToDamage:             caps.PartialSwap,
		Resources:                p,
	}
	if p.hud != nil {
		opts.HUD = p.hud
	}

	f := p.assembler.PrepareFrame(p.active, opts)
	p.metrics.observeFrame(f)
	if f.Result.Aborted() {
		logx.L().Debug("compositor: draw aborted", "result", f.Result.String(),
			"missing_tiles", f.NumMissingTiles)
		p.SetNeedsOneBeginFrame()
		return f, false
	}

	p.needsRedraw = false
	p.forceResend = false
	if f.NeedsCommit {
		p.SetNeedsCommit()
	}

	drew, err := p.submitter.Submit(f, p.active)
	if err != nil {
		if errors.Is(err, output.ErrNoSink) {
			err = ErrNoOutputSink
		}
		logx.L().Warn("compositor: submit failed", "error", err)
		p.SetNeedsRedraw()
		return f, false
	}
	p.budget.ResetRequiresHighResToDraw()
	if drew {
		p.frameNumber++
		if p.hud != nil {
			p.hud.CountFrame(now, false)
		}
	}
	return f, drew
}

func drawMode(caps output.Capabilities) tree.DrawMode {
	switch {
	case caps.ResourcelessSoftwareDraw:
		return tree.DrawModeResourcelessSoftware
	case caps.Format != gputypes.TextureFormatUndefined:
		return tree.DrawModeHardware
	default:
		return tree.DrawModeSoftware
	}
}

// FrameNumber returns the number of frames submitted.
func (p *Pipeline) FrameNumber() int { return p.frameNumber }

// CanDraw reports whether a frame can be drawn now. It is false without an
// output sink, without layers, with an empty or invalid viewport, or while
// evicted UI resources wait to be recreated. A resourceless software
// output skips the viewport checks.
func (p *Pipeline) CanDraw() bool {
	if p.active.LayerListIsEmpty() {
		return false
	}
	if p.submitter.Sink() == nil {
		return false
	}
	if p.submitter.Capabilities().ResourcelessSoftwareDraw {
		return true
	}
	if p.active.DeviceViewport().IsEmpty() {
		return false
	}
	if p.active.ViewportSizeInvalid() {
		return false
	}
	if p.EvictedUIResourcesExist() {
		return false
	}
	return true
}

func (p *Pipeline) onCanDrawStateChanged() {
	can := p.CanDraw()
	if can == p.lastCanDraw {
		return
	}
	p.lastCanDraw = can
	logx.L().Info("compositor: can draw changed", "can_draw", can)
	if can {
		p.SetNeedsRedraw()
	}
}

// SetSink replaces the output. Resources of the previous output are
// gone; evicted UI resources must be recreated and the next frame resends
// everything.
func (p *Pipeline) SetSink(s output.Sink) {
	p.submitter.SetSink(s)
	if s == nil {
		p.EvictAllUIResources()
	} else {
		p.SetForceResend()
	}
	p.budget.SetNeedsGPURasterizationUpdate()
	p.updateGPURasterizationStatus()
	p.onCanDrawStateChanged()
}

// SetDeviceViewport resizes the output and damages the whole frame.
func (p *Pipeline) SetDeviceViewport(r geom.Rect, deviceScale float64) {
	p.active.SetDeviceViewport(r)
	if deviceScale > 0 {
		p.active.SetDeviceScale(deviceScale)
	}
	if p.pending != nil {
		p.pending.SetDeviceViewport(r)
		if deviceScale > 0 {
			p.pending.SetDeviceScale(deviceScale)
		}
	}
	p.active.UpdateViewportContainerSizes()
	p.tilePrioritiesDirty = true
	p.SetNeedsRedraw()
	p.onCanDrawStateChanged()
}
