// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"errors"
	"testing"

	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/tree"
)

var red = render.RGBA(0xff, 0, 0, 0xff)

// pageScene is a 100x100 viewport over a 200x300 page at page scale 2.
func pageScene() *tree.Scene {
	root := tree.NewSceneLayer(1)
	root.Bounds = geom.Size{W: 100, H: 100}

	page := tree.NewSceneLayer(2)
	page.Bounds = geom.Size{W: 200, H: 300}
	page.Content = tree.ContentSpec{Kind: tree.ContentSolidColor, Color: red}
	page.ContentsOpaque = true
	page.Scroll = &tree.ScrollProperties{
		ContainerBounds:        geom.Size{W: 100, H: 100},
		UserScrollableVertical: true,
	}
	return &tree.Scene{
		SourceFrame:           7,
		Root:                  root.Add(page),
		InnerViewportScrollID: 2,
		PageScale:             2,
		MinPageScale:          1,
		MaxPageScale:          4,
		BackgroundColor:       render.White,
		BrowserControls:       tree.BrowserControls{TopHeight: 50, BottomHeight: 20, ShownRatio: 1},
	}
}

func activeTree(s *tree.Scene) *tree.LayerTree {
	t := tree.NewLayerTree(nil, nil)
	t.SetActive(true)
	t.SetDeviceViewport(geom.R(0, 0, 100, 100))
	t.PushScene(s, t)
	return t
}

type hudOverlay struct{ quads int }

func (h hudOverlay) IsAnimating() bool { return true }

func (h hudOverlay) AppendQuads(root *render.Pass) {
	sqs := root.CreateSharedQuadState()
	for i := 0; i < h.quads; i++ {
		root.AppendQuad(render.Quad{
			Material:    render.MaterialTexture,
			Rect:        geom.R(0, 0, 10, 10),
			VisibleRect: geom.R(0, 0, 10, 10),
			Shared:      sqs,
			ResourceID:  uint64(1000 + i),
		})
	}
}

// =============================================================================
// Submit
// =============================================================================

func TestSubmitNoDamage(t *testing.T) {
	sink := NewRecordingSink()
	ok, err := NewSubmitter(sink).Submit(&frame.FrameData{HasNoDamage: true}, activeTree(pageScene()))
	if ok || err != nil {
		t.Errorf("Submit() = %v, %v, want false, nil", ok, err)
	}
	if sink.Len() != 0 {
		t.Errorf("sink received %d frames", sink.Len())
	}
}

func TestSubmitErrors(t *testing.T) {
	lt := activeTree(pageScene())
	f := frame.NewAssembler().PrepareFrame(lt, frame.AssembleOptions{})

	if _, err := NewSubmitter(nil).Submit(f, lt); !errors.Is(err, ErrNoSink) {
		t.Errorf("Submit() without sink error = %v, want ErrNoSink", err)
	}

	aborted := &frame.FrameData{Result: frame.DrawAbortedMissingHighResContent}
	if _, err := NewSubmitter(NewRecordingSink()).Submit(aborted, lt); !errors.Is(err, ErrFrameAborted) {
		t.Errorf("Submit() aborted error = %v, want ErrFrameAborted", err)
	}

	sink := NewRecordingSink()
	boom := errors.New("boom")
	sink.FailNext(boom)
	s := NewSubmitter(sink)
	ok, err := s.Submit(f, lt)
	if ok || !errors.Is(err, boom) {
		t.Errorf("Submit() = %v, %v, want false, boom", ok, err)
	}
	if lt.HasEverBeenDrawn() {
		t.Error("HasEverBeenDrawn() = true after a failed submit")
	}
}

func TestSubmitConsumesDamage(t *testing.T) {
	lt := activeTree(pageScene())
	a := frame.NewAssembler()
	sink := NewRecordingSink()
	s := NewSubmitter(sink)

	ok, err := s.Submit(a.PrepareFrame(lt, frame.AssembleOptions{}), lt)
	if !ok || err != nil {
		t.Fatalf("Submit() = %v, %v, want true, nil", ok, err)
	}
	if !lt.HasEverBeenDrawn() {
		t.Error("HasEverBeenDrawn() = false after submit")
	}
	if sink.Len() != 1 {
		t.Fatalf("sink.Len() = %d, want 1", sink.Len())
	}

	f := a.PrepareFrame(lt, frame.AssembleOptions{})
	if !f.HasNoDamage {
		t.Error("second frame has damage after a submit")
	}
	if ok, _ := s.Submit(f, lt); ok {
		t.Error("Submit() of an undamaged frame = true")
	}
	if s.FrameToken() != 1 {
		t.Errorf("FrameToken() = %d, want 1", s.FrameToken())
	}
}

func TestSubmitMetadata(t *testing.T) {
	lt := activeTree(pageScene())
	lt.ScrollNode(2).SetOffset(geom.Pt(0, 40))
	sink := NewRecordingSink()
	if _, err := NewSubmitter(sink).Submit(frame.NewAssembler().PrepareFrame(lt, frame.AssembleOptions{}), lt); err != nil {
		t.Fatal(err)
	}

	md := sink.Last().Metadata
	tests := []struct {
		name      string
		got, want any
	}{
		{"FrameToken", md.FrameToken, uint64(1)},
		{"SourceFrame", md.SourceFrame, 7},
		{"DeviceScale", md.DeviceScale, 1.0},
		{"PageScale", md.PageScale, 2.0},
		{"MinPageScale", md.MinPageScale, 1.0},
		{"MaxPageScale", md.MaxPageScale, 4.0},
		{"ScrollableViewportSize", md.ScrollableViewportSize, geom.SizeF{W: 50, H: 50}},
		{"RootLayerSize", md.RootLayerSize, geom.SizeF{W: 200, H: 300}},
		{"RootScrollOffset", md.RootScrollOffset, geom.Pt(0, 40)},
		{"RootOverflowXHidden", md.RootOverflowXHidden, true},
		{"RootOverflowYHidden", md.RootOverflowYHidden, false},
		{"TopControlsHeight", md.TopControlsHeight, 50.0},
		{"TopControlsShownRatio", md.TopControlsShownRatio, 1.0},
		{"BottomControlsHeight", md.BottomControlsHeight, 20.0},
		{"RootBackgroundColor", md.RootBackgroundColor, render.White},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestSubmitPrependsHUD(t *testing.T) {
	lt := activeTree(pageScene())
	f := frame.NewAssembler().PrepareFrame(lt, frame.AssembleOptions{HUD: hudOverlay{quads: 2}})
	before := len(f.RootPass().Quads)

	sink := NewRecordingSink()
	if _, err := NewSubmitter(sink).Submit(f, lt); err != nil {
		t.Fatal(err)
	}
	root := sink.Last().RootPass()
	if len(root.Quads) != before+2 {
		t.Fatalf("len(Quads) = %d, want %d", len(root.Quads), before+2)
	}
	for i := 0; i < 2; i++ {
		if root.Quads[i].Material != render.MaterialTexture {
			t.Errorf("Quads[%d].Material = %v, want Texture", i, root.Quads[i].Material)
		}
	}
	if got := sink.Last().Resources; len(got) != 2 {
		t.Errorf("Resources = %v, want the two HUD textures", got)
	}
}

func TestSubmitAnswersCopyRequests(t *testing.T) {
	lt := activeTree(pageScene())
	var got []render.CopyResult
	lt.LayerByID(2).AddCopyRequest(render.NewCopyRequest("test", func(r render.CopyResult) {
		got = append(got, r)
	}))
	f := frame.NewAssembler().PrepareFrame(lt, frame.AssembleOptions{})
	if _, err := NewSubmitter(NewRecordingSink()).Submit(f, lt); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Empty {
		t.Fatalf("copy results = %v, want one non-empty result", got)
	}
	if got[0].Rect.IsEmpty() {
		t.Error("copy result has an empty rect")
	}
}

// =============================================================================
// Resources
// =============================================================================

func TestReclaimResources(t *testing.T) {
	sink := NewRecordingSink()
	s := NewSubmitter(sink)
	lt := activeTree(pageScene())
	a := frame.NewAssembler()

	if _, err := s.Submit(a.PrepareFrame(lt, frame.AssembleOptions{HUD: hudOverlay{quads: 3}}), lt); err != nil {
		t.Fatal(err)
	}
	if s.InFlightResources() != 3 {
		t.Fatalf("InFlightResources() = %d, want 3", s.InFlightResources())
	}
	if _, err := s.Submit(a.PrepareFrame(lt, frame.AssembleOptions{HUD: hudOverlay{quads: 1}}), lt); err != nil {
		t.Fatal(err)
	}
	ids := s.ReclaimResources()
	if len(ids) != 2 {
		t.Errorf("ReclaimResources() = %v, want 2 ids", ids)
	}
	if s.InFlightResources() != 1 {
		t.Errorf("InFlightResources() = %d, want 1", s.InFlightResources())
	}
	if again := s.ReclaimResources(); len(again) != 0 {
		t.Errorf("second ReclaimResources() = %v, want none", again)
	}
}
