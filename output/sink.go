// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import "github.com/gogpu/gputypes"

// Sink receives compositor frames.
//
// Sinks are called from the pipeline goroutine only. Implementations that
// are inspected from other goroutines must synchronize themselves.
type Sink interface {
	// SubmitFrame presents f. The sink owns f afterwards and answers the
	// copy requests attached to its passes.
	SubmitFrame(f *CompositorFrame) error

	// Capabilities returns the sink's features. The result may change
	// between frames, for example when a device is lost.
	Capabilities() Capabilities

	// ReclaimedResources returns the resource IDs the display no longer
	// references. Each ID is returned once.
	ReclaimedResources() []uint64
}

// Capabilities describes what a Sink supports.
type Capabilities struct {
	// ResourcelessSoftwareDraw is set when frames are drawn into a buffer
	// the compositor does not own, so no GPU resources can be referenced.
	ResourcelessSoftwareDraw bool

	// PartialSwap is set when only the damaged area of the root pass needs
	// to be redrawn.
	PartialSwap bool

	// Format is the presentation texture format.
	Format gputypes.TextureFormat

	// MaxTextureSize is the largest texture edge the display accepts
	// (0 = unlimited).
	MaxTextureSize int
}

// Closer is an optional interface for sinks holding resources.
type Closer interface {
	Sink

	// Close releases the sink. Close is idempotent.
	Close() error
}
