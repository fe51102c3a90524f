// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"errors"
	"testing"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

type mockQueue struct{}

type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct {
	device gpucontext.Device
	format gputypes.TextureFormat
}

func newMockProvider() *mockProvider {
	return &mockProvider{device: &mockDevice{}, format: gputypes.TextureFormatBGRA8Unorm}
}

func (m *mockProvider) Device() gpucontext.Device             { return m.device }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }

func testFrame(resources ...uint64) *CompositorFrame {
	p := render.NewPass(1, geom.R(0, 0, 10, 10), geom.R(0, 0, 10, 10), geom.Identity())
	return &CompositorFrame{Passes: render.PassList{p}, Resources: resources}
}

// =============================================================================
// RecordingSink
// =============================================================================

func TestRecordingSinkHistory(t *testing.T) {
	s := NewRecordingSink(WithHistory(2))
	for i := 0; i < 3; i++ {
		f := testFrame()
		f.Metadata.FrameToken = uint64(i + 1)
		if err := s.SubmitFrame(f); err != nil {
			t.Fatal(err)
		}
	}
	frames := s.Frames()
	if len(frames) != 2 {
		t.Fatalf("len(Frames()) = %d, want 2", len(frames))
	}
	if frames[0].Metadata.FrameToken != 2 || s.Last().Metadata.FrameToken != 3 {
		t.Errorf("kept tokens %d..%d, want 2..3", frames[0].Metadata.FrameToken, s.Last().Metadata.FrameToken)
	}
	s.Reset()
	if s.Len() != 0 || s.Last() != nil {
		t.Error("Reset() kept frames")
	}
}

func TestRecordingSinkCopyRequestArea(t *testing.T) {
	f := testFrame()
	var got render.CopyResult
	req := render.NewCopyRequest("test", func(r render.CopyResult) { got = r })
	req.Area = geom.R(5, 5, 20, 20)
	f.Passes[0].CopyRequests = []*render.CopyRequest{req}

	if err := NewRecordingSink().SubmitFrame(f); err != nil {
		t.Fatal(err)
	}
	if got.Empty || got.Rect != geom.R(5, 5, 5, 5) {
		t.Errorf("result = %+v, want rect (5,5,5,5)", got)
	}
}

func TestRecordingSinkFailureAnswersCopyRequestsEmpty(t *testing.T) {
	f := testFrame()
	var got render.CopyResult
	f.Passes[0].CopyRequests = []*render.CopyRequest{render.NewCopyRequest("test", func(r render.CopyResult) { got = r })}

	s := NewRecordingSink()
	s.FailNext(errors.New("lost"))
	if err := s.SubmitFrame(f); err == nil {
		t.Fatal("SubmitFrame() error = nil, want failure")
	}
	if !got.Empty {
		t.Error("copy request not answered empty on failure")
	}
	if err := s.SubmitFrame(testFrame()); err != nil {
		t.Errorf("failure was not cleared: %v", err)
	}
}

func TestRecordingSinkCapabilities(t *testing.T) {
	s := NewRecordingSink()
	if got := s.Capabilities().Format; got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("default Format = %v, want RGBA8Unorm", got)
	}
	s.SetCapabilities(Capabilities{ResourcelessSoftwareDraw: true})
	if !s.Capabilities().ResourcelessSoftwareDraw {
		t.Error("SetCapabilities() not applied")
	}
}

// =============================================================================
// DeviceSink
// =============================================================================

func TestDeviceSinkWithoutDevice(t *testing.T) {
	presented := 0
	s, err := NewDeviceSink(nil, PresenterFunc(func(render.DeviceHandle, *CompositorFrame) error {
		presented++
		return nil
	}), true)
	if err != nil {
		t.Fatal(err)
	}
	caps := s.Capabilities()
	if !caps.ResourcelessSoftwareDraw || caps.PartialSwap {
		t.Errorf("caps = %+v, want resourceless without partial swap", caps)
	}
	if err := s.SubmitFrame(testFrame()); !errors.Is(err, ErrNoDevice) {
		t.Errorf("SubmitFrame() error = %v, want ErrNoDevice", err)
	}
	if presented != 0 {
		t.Errorf("presented %d frames without a device", presented)
	}
}

func TestDeviceSinkHeadlessFormat(t *testing.T) {
	s, err := NewDeviceSink(render.Headless{Format: gputypes.TextureFormatRGBA8Unorm}, PresenterFunc(func(render.DeviceHandle, *CompositorFrame) error {
		return nil
	}), false)
	if err != nil {
		t.Fatal(err)
	}
	caps := s.Capabilities()
	if !caps.ResourcelessSoftwareDraw || caps.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("caps = %+v, want resourceless RGBA8 readback", caps)
	}
	if err := s.SubmitFrame(testFrame()); !errors.Is(err, ErrNoDevice) {
		t.Errorf("SubmitFrame() error = %v, want ErrNoDevice", err)
	}
}

func TestDeviceSinkPresents(t *testing.T) {
	dev := newMockProvider()
	var gotDev render.DeviceHandle
	s, err := NewDeviceSink(dev, PresenterFunc(func(d render.DeviceHandle, f *CompositorFrame) error {
		gotDev = d
		return nil
	}), true)
	if err != nil {
		t.Fatal(err)
	}

	caps := s.Capabilities()
	if caps.ResourcelessSoftwareDraw || !caps.PartialSwap || caps.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("caps = %+v, want GPU output with partial swap in BGRA8", caps)
	}

	var copied render.CopyResult
	f := testFrame(1, 2)
	f.Passes[0].CopyRequests = []*render.CopyRequest{render.NewCopyRequest("test", func(r render.CopyResult) { copied = r })}
	if err := s.SubmitFrame(f); err != nil {
		t.Fatal(err)
	}
	if gotDev != dev {
		t.Error("presenter did not receive the device")
	}
	if !copied.Empty {
		t.Error("copy request not answered")
	}

	if err := s.SubmitFrame(testFrame(2)); err != nil {
		t.Fatal(err)
	}
	if ids := s.ReclaimedResources(); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("ReclaimedResources() = %v, want [1]", ids)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if ids := s.ReclaimedResources(); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("ReclaimedResources() after Close = %v, want [2]", ids)
	}
	if err := s.SubmitFrame(testFrame()); err == nil {
		t.Error("SubmitFrame() after Close succeeded")
	}
}

func TestNewDeviceSinkNilPresenter(t *testing.T) {
	if _, err := NewDeviceSink(newMockProvider(), nil, false); err == nil {
		t.Error("NewDeviceSink(nil presenter) error = nil")
	}
}

// =============================================================================
// Registry
// =============================================================================

func TestRegistryPriority(t *testing.T) {
	r := NewRegistry()
	low := NewRecordingSink()
	high := NewRecordingSink()
	r.Register("low", 10, func(Options) (Sink, error) { return low, nil }, nil)
	r.Register("high", 100, func(Options) (Sink, error) { return high, nil }, nil)
	r.Register("gone", 200, func(Options) (Sink, error) { return nil, errors.New("unreachable") }, func() bool { return false })

	if got := r.List(); len(got) != 3 || got[0] != "gone" || got[1] != "high" {
		t.Errorf("List() = %v, want [gone high low]", got)
	}
	s, err := r.NewSink(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s != high {
		t.Error("NewSink() did not pick the highest available backend")
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.NewSink(Options{}); !errors.Is(err, ErrNoBackendAvailable) {
		t.Errorf("NewSink() on empty registry error = %v, want ErrNoBackendAvailable", err)
	}

	var notFound *BackendNotFoundError
	if _, err := r.NewSinkByName("missing", Options{}); !errors.As(err, &notFound) {
		t.Errorf("NewSinkByName(missing) error = %v, want BackendNotFoundError", err)
	}

	r.Register("off", 1, func(Options) (Sink, error) { return NewRecordingSink(), nil }, func() bool { return false })
	var unavailable *BackendUnavailableError
	if _, err := r.NewSinkByName("off", Options{}); !errors.As(err, &unavailable) {
		t.Errorf("NewSinkByName(off) error = %v, want BackendUnavailableError", err)
	}

	r.Unregister("off")
	if _, ok := r.Get("off"); ok {
		t.Error("backend exists after Unregister")
	}
}

func TestBuiltinRecordingBackend(t *testing.T) {
	s, err := NewSinkByName("recording", Options{PartialSwap: true})
	if err != nil {
		t.Fatal(err)
	}
	caps := s.Capabilities()
	if !caps.ResourcelessSoftwareDraw || !caps.PartialSwap {
		t.Errorf("caps = %+v, want resourceless with partial swap", caps)
	}

	s, err = NewSinkByName("recording", Options{Device: newMockProvider()})
	if err != nil {
		t.Fatal(err)
	}
	if caps := s.Capabilities(); caps.ResourcelessSoftwareDraw || caps.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("caps = %+v, want GPU capabilities in BGRA8", caps)
	}
}
