// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/compositor/geom"

// PassID identifies a render pass within one frame.
type PassID uint64

// Pass is an offscreen or onscreen drawing target.
type Pass struct {
	ID PassID

	// OutputRect is the pass size in its own space.
	OutputRect geom.Rect

	// DamageRect is the part of OutputRect that changed.
	DamageRect geom.Rect

	// TransformToRoot maps pass space into root target space.
	TransformToRoot geom.Transform

	// HasTransparentBackground is false when every pixel is covered by quads.
	HasTransparentBackground bool

	Quads        []Quad
	SharedStates []*SharedQuadState
	CopyRequests []*CopyRequest
}

// NewPass creates an empty pass.
func NewPass(id PassID, output, damage geom.Rect, toRoot geom.Transform) *Pass {
	return &Pass{
		ID:              id,
		OutputRect:      output,
		DamageRect:      damage,
		TransformToRoot: toRoot,
	}
}

// CreateSharedQuadState appends a new shared state to the pass.
func (p *Pass) CreateSharedQuadState() *SharedQuadState {
	s := &SharedQuadState{Opacity: 1, QuadToTarget: geom.Identity()}
	p.SharedStates = append(p.SharedStates, s)
	return s
}

// AppendQuad appends q to the pass.
func (p *Pass) AppendQuad(q Quad) {
	p.Quads = append(p.Quads, q)
}

// CountMaterial returns the number of quads with material m.
func (p *Pass) CountMaterial(m Material) int {
	n := 0
	for i := range p.Quads {
		if p.Quads[i].Material == m {
			n++
		}
	}
	return n
}

// PassList is a frame's passes in draw order. The root is last.
type PassList []*Pass

// Root returns the root pass or nil if the list is empty.
func (l PassList) Root() *Pass {
	if len(l) == 0 {
		return nil
	}
	return l[len(l)-1]
}

// Find returns the index of the pass with the given id, or -1.
func (l PassList) Find(id PassID) int {
	for i, p := range l {
		if p.ID == id {
			return i
		}
	}
	return -1
}
