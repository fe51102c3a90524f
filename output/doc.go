// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package output hands assembled frames to the display.
//
// A Submitter turns a frame.FrameData that survived assembly into a
// CompositorFrame, attaches the metadata the display needs to position
// browser UI, and passes it to a Sink. After a successful submit the
// damage and change tracking of the drawn tree are reset.
//
// # Sinks
//
// Sink is the display abstraction. Two implementations are provided:
//
//   - RecordingSink keeps submitted frames in memory and answers copy
//     requests. It is used by tests and the compositord simulator.
//   - DeviceSink forwards frames to a host presenter together with the
//     host's GPU device (render.DeviceHandle).
//
// Sinks can be registered by name so hosts select one at runtime:
//
//	output.Register("vulkan", 100, func(opts output.Options) (output.Sink, error) {
//	    return newVulkanSink(opts.Device)
//	}, vulkanAvailable)
//
//	s, err := output.NewSinkByName("vulkan", output.Options{Device: dev})
//
// # Capabilities
//
// Capabilities drive frame assembly. ResourcelessSoftwareDraw makes every
// frame succeed regardless of missing content, and PartialSwap lets the
// assembler cull root quads outside the damaged area.
package output
