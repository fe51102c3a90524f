// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/gogpu/compositor/geom"
)

func TestPassListRootAndFind(t *testing.T) {
	var empty PassList
	if empty.Root() != nil {
		t.Error("Root() of empty list should be nil")
	}

	child := NewPass(2, geom.R(0, 0, 10, 10), geom.R(0, 0, 10, 10), geom.Identity())
	root := NewPass(1, geom.R(0, 0, 100, 100), geom.Rect{}, geom.Identity())
	list := PassList{child, root}

	if list.Root() != root {
		t.Errorf("Root() = %v, want pass 1", list.Root().ID)
	}
	if got := list.Find(2); got != 0 {
		t.Errorf("Find(2) = %d, want 0", got)
	}
	if got := list.Find(9); got != -1 {
		t.Errorf("Find(9) = %d, want -1", got)
	}
}

func TestPassCountMaterial(t *testing.T) {
	p := NewPass(1, geom.R(0, 0, 10, 10), geom.Rect{}, geom.Identity())
	sqs := p.CreateSharedQuadState()
	p.AppendQuad(Quad{Material: MaterialSolidColor, Shared: sqs})
	p.AppendQuad(Quad{Material: MaterialRenderPass, PassID: 3, Shared: sqs})
	p.AppendQuad(Quad{Material: MaterialSolidColor, Shared: sqs})

	if got := p.CountMaterial(MaterialSolidColor); got != 2 {
		t.Errorf("CountMaterial(SolidColor) = %d, want 2", got)
	}
	if sqs.Opacity != 1 {
		t.Errorf("default Opacity = %v, want 1", sqs.Opacity)
	}
}

func TestQuadTargetRect(t *testing.T) {
	sqs := &SharedQuadState{QuadToTarget: geom.Translate(5, 10)}
	q := Quad{VisibleRect: geom.R(0, 0, 4, 4), Shared: sqs}
	if got := q.TargetRect(); got != geom.R(5, 10, 4, 4) {
		t.Errorf("TargetRect() = %v, want (5,10,4,4)", got)
	}
}

func TestCopyRequestSendsOnce(t *testing.T) {
	calls := 0
	var last CopyResult
	req := NewCopyRequest("test", func(r CopyResult) {
		calls++
		last = r
	})

	req.SendEmptyResult()
	req.SendResult(CopyResult{Rect: geom.R(0, 0, 1, 1)})

	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
	if !last.Empty {
		t.Error("first result should be empty")
	}
	if !req.IsDone() {
		t.Error("IsDone() = false after SendResult")
	}
}

func TestMaterialString(t *testing.T) {
	tests := []struct {
		m    Material
		want string
	}{
		{MaterialSolidColor, "SolidColor"},
		{MaterialTile, "Tile"},
		{MaterialRenderPass, "RenderPass"},
		{MaterialTexture, "Texture"},
		{MaterialCheckerboard, "Checkerboard"},
		{Material(99), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.m.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
