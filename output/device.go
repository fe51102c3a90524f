// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor/render"
)

// ErrNoDevice is returned by DeviceSink when the host provides no GPU
// device.
var ErrNoDevice = errors.New("output: no GPU device")

// Presenter draws a frame with the host's GPU device. It is implemented by
// the host, which owns command encoding and presentation.
type Presenter interface {
	Present(dev render.DeviceHandle, f *CompositorFrame) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(dev render.DeviceHandle, f *CompositorFrame) error

// Present calls fn.
func (fn PresenterFunc) Present(dev render.DeviceHandle, f *CompositorFrame) error {
	return fn(dev, f)
}

// DeviceSink presents frames through a host GPU device.
//
// Without a device the sink reports ResourcelessSoftwareDraw, so frames
// never abort on missing content, and SubmitFrame fails with ErrNoDevice.
// Copy requests are answered empty: readback is up to the presenter, which
// may answer them first.
type DeviceSink struct {
	dev       render.DeviceHandle
	presenter Presenter
	partial   bool
	closed    bool

	prev      []uint64
	reclaimed []uint64
}

// NewDeviceSink creates a sink presenting through p with device dev.
// Returns an error if p is nil.
func NewDeviceSink(dev render.DeviceHandle, p Presenter, partialSwap bool) (*DeviceSink, error) {
	if p == nil {
		return nil, errors.New("output: Presenter cannot be nil")
	}
	if dev == nil {
		dev = render.Headless{}
	}
	return &DeviceSink{dev: dev, presenter: p, partial: partialSwap}, nil
}

// Device returns the device handle.
func (s *DeviceSink) Device() render.DeviceHandle { return s.dev }

// SubmitFrame presents f.
func (s *DeviceSink) SubmitFrame(f *CompositorFrame) error {
	var err error
	switch {
	case s.closed:
		err = errors.New("output: sink is closed")
	case !render.HasDevice(s.dev):
		err = ErrNoDevice
	default:
		err = s.presenter.Present(s.dev, f)
	}
	for _, r := range f.copyRequests() {
		r.SendEmptyResult()
	}
	if err != nil {
		return fmt.Errorf("output: present: %w", err)
	}
	s.reclaimed = append(s.reclaimed, released(s.prev, f.Resources)...)
	s.prev = f.Resources
	return nil
}

// Capabilities reports the device surface format.
func (s *DeviceSink) Capabilities() Capabilities {
	hasDevice := render.HasDevice(s.dev)
	return Capabilities{
		ResourcelessSoftwareDraw: !hasDevice,
		PartialSwap:              s.partial && hasDevice,
		Format:                   s.dev.SurfaceFormat(),
		MaxTextureSize:           16384,
	}
}

// ReclaimedResources drains the released resource IDs.
func (s *DeviceSink) ReclaimedResources() []uint64 {
	ids := s.reclaimed
	s.reclaimed = nil
	return ids
}

// Close releases every resource still referenced. Close is idempotent.
func (s *DeviceSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.reclaimed = append(s.reclaimed, s.prev...)
	s.prev = nil
	return nil
}

var _ Closer = (*DeviceSink)(nil)
