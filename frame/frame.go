package frame

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/tree"
)

// Overlay is drawn on top of the root pass, such as a heads-up display.
type Overlay interface {
	// IsAnimating reports whether the overlay changes every frame. An
	// animating overlay forces a frame even without damage.
	IsAnimating() bool

	// AppendQuads adds the overlay quads in front of root's content.
	AppendQuads(root *render.Pass)
}

// AssembleOptions are the per-frame inputs of PrepareFrame.
type AssembleOptions struct {
	Mode tree.DrawMode

	// CommitToActiveTree disables the checkerboard animation abort: a tree
	// committed in place has no previous frame to fall back to.
	CommitToActiveTree bool

	// RequiresHighResToDraw aborts frames with missing tiles.
	RequiresHighResToDraw bool

	// ResourcelessSoftwareDraw draws into a surface the compositor does not
	// own. Such frames never abort.
	ResourcelessSoftwareDraw bool

	// ForceResend produces a frame even without damage so the output can
	// receive every resource again.
	ForceResend bool

	// CullToDamage drops root pass quads outside the root damage rect, for
	// outputs that only swap the damaged area.
	CullToDamage bool

	Resources tree.UIResourceLookup
	HUD       Overlay
}

// FrameData is the result of PrepareFrame. It is consumed by one submit and
// then discarded.
type FrameData struct {
	Result DrawResult

	// HasNoDamage is set when nothing visible changed. No passes are built.
	HasNoDamage bool

	Passes         render.PassList
	WillDrawLayers []*tree.Layer

	// RootDamageRect is the root pass damage in screen space.
	RootDamageRect geom.Rect

	// NeedsCommit asks the producer for a new commit, because copy
	// requests may have forced extra render surfaces.
	NeedsCommit bool

	HUD Overlay

	NumMissingTiles    int
	NumIncompleteTiles int
	CheckerboardedArea int
	VisibleLayerArea   int
	LayersDrawn        int
}

// RootPass returns the root pass, or nil.
func (f *FrameData) RootPass() *render.Pass { return f.Passes.Root() }
