// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/render"
)

// Metadata describes the page state a frame was drawn with.
type Metadata struct {
	// FrameToken increases with every submitted frame.
	FrameToken uint64

	// SourceFrame is the producer frame number of the drawn tree.
	SourceFrame int

	DeviceScale  float64
	PageScale    float64
	MinPageScale float64
	MaxPageScale float64

	// ScrollableViewportSize is the inner viewport in content space.
	ScrollableViewportSize geom.SizeF

	// RootLayerSize is the size of the scrolled page content.
	RootLayerSize geom.SizeF

	// RootScrollOffset is the combined inner and outer viewport offset.
	RootScrollOffset geom.Vector

	RootOverflowXHidden bool
	RootOverflowYHidden bool

	TopControlsHeight        float64
	TopControlsShownRatio    float64
	BottomControlsHeight     float64
	BottomControlsShownRatio float64

	RootBackgroundColor render.Color
}

// CompositorFrame is one frame handed to a Sink.
type CompositorFrame struct {
	Metadata Metadata

	// Passes are in draw order; the root pass is last.
	Passes render.PassList

	// DamageRect is the root damage in screen space.
	DamageRect geom.Rect

	// Resources are the tile and texture resources the quads reference.
	Resources []uint64
}

// RootPass returns the root pass, or nil.
func (f *CompositorFrame) RootPass() *render.Pass { return f.Passes.Root() }

// copyRequests returns every copy request attached to the frame.
func (f *CompositorFrame) copyRequests() []*render.CopyRequest {
	var out []*render.CopyRequest
	for _, p := range f.Passes {
		out = append(out, p.CopyRequests...)
	}
	return out
}

// collectResources lists the distinct resources referenced by quads.
func collectResources(passes render.PassList) []uint64 {
	seen := make(map[uint64]struct{})
	var out []uint64
	for _, p := range passes {
		for i := range p.Quads {
			q := &p.Quads[i]
			if q.Material != render.MaterialTile && q.Material != render.MaterialTexture {
				continue
			}
			if _, ok := seen[q.ResourceID]; ok {
				continue
			}
			seen[q.ResourceID] = struct{}{}
			out = append(out, q.ResourceID)
		}
	}
	return out
}
