// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// The output sink that presents compositor frames is handed the host's
// device through this interface. DeviceHandle is an alias for
// gpucontext.DeviceProvider so any gpucontext host can be passed directly.
type DeviceHandle = gpucontext.DeviceProvider

// Headless is the DeviceHandle of a host that composites without a GPU.
// Sinks holding it draw resourcelessly: quads are consumed as recorded and
// no device resources are allocated for tiles or UI resources.
//
// Format is reported as the surface format so a host that reads frames back
// into a buffer can still name its pixel layout. The zero value reports
// TextureFormatUndefined.
type Headless struct {
	Format gputypes.TextureFormat
}

func (Headless) Device() gpucontext.Device   { return nil }
func (Headless) Queue() gpucontext.Queue     { return nil }
func (Headless) Adapter() gpucontext.Adapter { return nil }

func (h Headless) SurfaceFormat() gputypes.TextureFormat { return h.Format }

var _ DeviceHandle = Headless{}

// HasDevice reports whether h provides a real GPU device. Nil and Headless
// handles do not.
func HasDevice(h DeviceHandle) bool {
	return h != nil && h.Device() != nil
}
