// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/tree"
)

var (
	// ErrNoSink is returned when a frame is submitted without a sink.
	ErrNoSink = errors.New("output: no sink")

	// ErrFrameAborted is returned when an aborted frame is submitted.
	ErrFrameAborted = errors.New("output: frame was aborted")
)

// Submitter sends assembled frames to a Sink.
type Submitter struct {
	sink       Sink
	frameToken uint64

	// inFlight are the resources referenced by submitted frames that the
	// sink has not reclaimed yet.
	inFlight map[uint64]struct{}
}

// NewSubmitter returns a Submitter for sink. sink may be nil and set later.
func NewSubmitter(sink Sink) *Submitter {
	return &Submitter{sink: sink, inFlight: make(map[uint64]struct{})}
}

// Sink returns the current sink, or nil.
func (s *Submitter) Sink() Sink { return s.sink }

// SetSink replaces the sink. Resources of the old sink are forgotten.
func (s *Submitter) SetSink(sink Sink) {
	s.sink = sink
	clear(s.inFlight)
}

// Capabilities returns the sink capabilities, or the zero value without
// a sink.
func (s *Submitter) Capabilities() Capabilities {
	if s.sink == nil {
		return Capabilities{}
	}
	return s.sink.Capabilities()
}

// FrameToken returns the token of the last submitted frame.
func (s *Submitter) FrameToken() uint64 { return s.frameToken }

// InFlightResources returns the number of resources the display may still
// reference.
func (s *Submitter) InFlightResources() int { return len(s.inFlight) }

// Submit sends f, assembled from t, to the sink. It reports whether a frame
// was submitted: a frame without damage is not.
//
// On success the damage of every render surface of t is consumed and its
// change tracking reset.
func (s *Submitter) Submit(f *frame.FrameData, t *tree.LayerTree) (bool, error) {
	if f.HasNoDamage {
		return false, nil
	}
	if f.Result.Aborted() {
		return false, fmt.Errorf("%w: %v", ErrFrameAborted, f.Result)
	}
	if s.sink == nil {
		return false, ErrNoSink
	}

	root := f.RootPass()
	if f.HUD != nil && root != nil {
		prependOverlay(root, f.HUD)
	}

	s.frameToken++
	cf := &CompositorFrame{
		Metadata:   MakeMetadata(t),
		Passes:     f.Passes,
		DamageRect: f.RootDamageRect,
		Resources:  collectResources(f.Passes),
	}
	cf.Metadata.FrameToken = s.frameToken

	if err := s.sink.SubmitFrame(cf); err != nil {
		logx.L().Warn("output: submit failed", "frame_token", s.frameToken, "error", err)
		return false, fmt.Errorf("output: submit frame %d: %w", s.frameToken, err)
	}
	for _, id := range cf.Resources {
		s.inFlight[id] = struct{}{}
	}

	for _, l := range t.RenderSurfaceList() {
		l.RenderSurface().DamageTracker().DidDrawDamagedArea()
	}
	t.ResetAllChangeTracking()
	t.SetHasEverBeenDrawn(true)

	logx.L().Debug("output: submitted",
		"frame_token", s.frameToken,
		"passes", len(cf.Passes),
		"resources", len(cf.Resources),
		"damage", cf.DamageRect)
	return true, nil
}

// ReclaimResources drains the resources the sink released and returns
// them.
func (s *Submitter) ReclaimResources() []uint64 {
	if s.sink == nil {
		return nil
	}
	ids := s.sink.ReclaimedResources()
	for _, id := range ids {
		delete(s.inFlight, id)
	}
	return ids
}

// prependOverlay puts the overlay quads in front of root's content.
func prependOverlay(root *render.Pass, o frame.Overlay) {
	tmp := render.NewPass(root.ID, root.OutputRect, root.DamageRect, root.TransformToRoot)
	o.AppendQuads(tmp)
	if len(tmp.Quads) == 0 {
		return
	}
	root.Quads = append(tmp.Quads, root.Quads...)
	root.SharedStates = append(root.SharedStates, tmp.SharedStates...)
}

// MakeMetadata describes the page state of t.
func MakeMetadata(t *tree.LayerTree) Metadata {
	bc := t.BrowserControls()
	ratio := t.ControlsShownRatio()
	md := Metadata{
		SourceFrame:              t.SourceFrame(),
		DeviceScale:              t.DeviceScale(),
		PageScale:                t.PageScale(),
		MinPageScale:             t.MinPageScale(),
		MaxPageScale:             t.MaxPageScale(),
		TopControlsHeight:        bc.TopHeight,
		TopControlsShownRatio:    ratio,
		BottomControlsHeight:     bc.BottomHeight,
		BottomControlsShownRatio: ratio,
		RootBackgroundColor:      t.BackgroundColor(),
	}

	inner := t.InnerViewportScrollNode()
	if inner == nil {
		if r := t.Root(); r != nil {
			md.RootLayerSize = sizeF(r.Bounds())
		}
		return md
	}
	c := inner.ContainerBounds()
	md.ScrollableViewportSize = geom.SizeF{W: c.W / md.PageScale, H: c.H / md.PageScale}
	md.RootScrollOffset = inner.CurrentOffset()

	main := inner
	if outer := t.OuterViewportScrollNode(); outer != nil {
		md.RootScrollOffset = md.RootScrollOffset.Add(outer.CurrentOffset())
		main = outer
	}
	md.RootLayerSize = sizeF(main.Layer().Bounds())
	md.RootOverflowXHidden = !main.UserScrollableHorizontal()
	md.RootOverflowYHidden = !main.UserScrollableVertical()
	return md
}

func sizeF(s geom.Size) geom.SizeF {
	return geom.SizeF{W: float64(s.W), H: float64(s.H)}
}
