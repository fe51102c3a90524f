// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines the output vocabulary of the compositor: render
// passes, the quads drawn into them, and pixel copy requests.
//
// # Passes
//
// A frame is an ordered list of passes. Passes reference each other through
// [MaterialRenderPass] quads, forming a DAG. The last pass in a [PassList]
// is the root and is drawn to the output surface.
//
// # Quads
//
// [Quad] is a closed tagged union selected by [Material]. Each quad points at
// a [SharedQuadState] carrying the per-layer transform, clip and opacity.
//
// # Device Integration
//
// [DeviceHandle] is the GPU device supplied by the host. The compositor
// RECEIVES the device, it does NOT create one. [Headless] stands in for
// hosts that composite without a GPU.
package render
