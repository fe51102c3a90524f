// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"sync"

	"github.com/gogpu/compositor/render"
	"github.com/gogpu/gputypes"
)

// RecordingSink keeps submitted frames in memory.
//
// Copy requests are answered with the requested area of their pass. The
// resources of a frame are reclaimed once the next frame no longer
// references them. RecordingSink is safe for concurrent use.
type RecordingSink struct {
	mu     sync.Mutex
	caps   Capabilities
	frames []*CompositorFrame
	limit  int
	err    error

	reclaimed []uint64
}

// RecordingOption configures a RecordingSink.
type RecordingOption func(*RecordingSink)

// WithCapabilities sets the capabilities reported by the sink.
func WithCapabilities(c Capabilities) RecordingOption {
	return func(s *RecordingSink) {
		s.caps = c
	}
}

// WithHistory keeps at most n frames (0 = unlimited).
func WithHistory(n int) RecordingOption {
	return func(s *RecordingSink) {
		if n >= 0 {
			s.limit = n
		}
	}
}

// NewRecordingSink creates a sink with RGBA8 output and no partial swap.
func NewRecordingSink(opts ...RecordingOption) *RecordingSink {
	s := &RecordingSink{
		caps: Capabilities{Format: gputypes.TextureFormatRGBA8Unorm},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitFrame records f and answers its copy requests.
func (s *RecordingSink) SubmitFrame(f *CompositorFrame) error {
	s.mu.Lock()
	if err := s.err; err != nil {
		s.err = nil
		s.mu.Unlock()
		for _, r := range f.copyRequests() {
			r.SendEmptyResult()
		}
		return err
	}

	if n := len(s.frames); n > 0 {
		s.reclaimed = append(s.reclaimed, released(s.frames[n-1].Resources, f.Resources)...)
	}
	s.frames = append(s.frames, f)
	if s.limit > 0 && len(s.frames) > s.limit {
		clear(s.frames[:len(s.frames)-s.limit])
		s.frames = s.frames[len(s.frames)-s.limit:]
	}
	s.mu.Unlock()

	// Callbacks run unlocked so they may inspect the sink.
	for _, p := range f.Passes {
		for _, r := range p.CopyRequests {
			area := p.OutputRect
			if !r.Area.IsEmpty() {
				area = area.Intersect(r.Area)
			}
			r.SendResult(render.CopyResult{Rect: area})
		}
	}
	return nil
}

// released returns the IDs of prev that next no longer references.
func released(prev, next []uint64) []uint64 {
	keep := make(map[uint64]struct{}, len(next))
	for _, id := range next {
		keep[id] = struct{}{}
	}
	var out []uint64
	for _, id := range prev {
		if _, ok := keep[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Capabilities returns the configured capabilities.
func (s *RecordingSink) Capabilities() Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

// SetCapabilities changes the capabilities reported from now on.
func (s *RecordingSink) SetCapabilities(c Capabilities) {
	s.mu.Lock()
	s.caps = c
	s.mu.Unlock()
}

// ReclaimedResources drains the released resource IDs.
func (s *RecordingSink) ReclaimedResources() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.reclaimed
	s.reclaimed = nil
	return ids
}

// FailNext makes the next SubmitFrame return err.
func (s *RecordingSink) FailNext(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Frames returns the recorded frames, oldest first.
func (s *RecordingSink) Frames() []*CompositorFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*CompositorFrame(nil), s.frames...)
}

// Last returns the most recent frame, or nil.
func (s *RecordingSink) Last() *CompositorFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Len returns the number of recorded frames.
func (s *RecordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Reset drops all recorded frames.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	s.frames = nil
	s.reclaimed = nil
	s.mu.Unlock()
}

var _ Sink = (*RecordingSink)(nil)
