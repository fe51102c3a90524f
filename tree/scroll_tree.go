package tree

import (
	"math"

	"github.com/gogpu/compositor/geom"
)

// ScrollNode is the scroll state of one scrollable layer.
type ScrollNode struct {
	layer  *Layer
	parent *ScrollNode

	containerBounds geom.Size
	// boundsDelta grows the container when browser controls hide.
	boundsDelta geom.SizeF

	userScrollableH bool
	userScrollableV bool

	mainThreadReasons MainThreadScrollingReasons
	nonFastRegion     geom.Region

	innerViewport bool
	outerViewport bool
}

func (n *ScrollNode) Layer() *Layer       { return n.layer }
func (n *ScrollNode) LayerID() int        { return n.layer.id }
func (n *ScrollNode) Parent() *ScrollNode { return n.parent }

func (n *ScrollNode) UserScrollableHorizontal() bool { return n.userScrollableH }
func (n *ScrollNode) UserScrollableVertical() bool   { return n.userScrollableV }

func (n *ScrollNode) MainThreadScrollingReasons() MainThreadScrollingReasons {
	return n.mainThreadReasons
}

// NonFastScrollableRegion is in layer space.
func (n *ScrollNode) NonFastScrollableRegion() *geom.Region { return &n.nonFastRegion }

func (n *ScrollNode) IsInnerViewport() bool { return n.innerViewport }
func (n *ScrollNode) IsOuterViewport() bool { return n.outerViewport }

// ContainerBounds returns the scroll viewport size including the browser
// controls adjustment.
func (n *ScrollNode) ContainerBounds() geom.SizeF {
	return geom.SizeF{
		W: float64(n.containerBounds.W) + n.boundsDelta.W,
		H: float64(n.containerBounds.H) + n.boundsDelta.H,
	}
}

// Scrollable reports whether either axis is user scrollable.
func (n *ScrollNode) Scrollable() bool {
	return n.userScrollableH || n.userScrollableV
}

// ContainerScreenTransform maps the scroll container's space to screen
// space. It does not include the node's own scroll offset.
func (n *ScrollNode) ContainerScreenTransform() geom.Transform {
	return n.layer.draw.ScreenSpaceTransform.Multiply(geom.Translate(n.CurrentOffset().X, n.CurrentOffset().Y))
}

// MaxOffset returns the largest offset on each axis. The inner viewport
// shrinks its container by the page scale.
func (n *ScrollNode) MaxOffset() geom.Vector {
	c := n.ContainerBounds()
	if n.innerViewport {
		s := n.layer.tree.PageScale()
		if s > 0 {
			c.W /= s
			c.H /= s
		}
	}
	b := n.layer.bounds
	return geom.Vector{
		X: math.Max(0, float64(b.W)-c.W),
		Y: math.Max(0, float64(b.H)-c.H),
	}
}

// CurrentOffset returns the offset seen by the node's tree.
func (n *ScrollNode) CurrentOffset() geom.Vector {
	o := n.layer.tree.synced.Offset(n.layer.id)
	if n.layer.tree.active {
		return o.Active()
	}
	return o.Pending()
}

// ClampOffset clamps v to [0, MaxOffset].
func (n *ScrollNode) ClampOffset(v geom.Vector) geom.Vector {
	return v.Clamp(geom.Vector{}, n.MaxOffset())
}

// SetOffset sets the active offset, clamped to the scroll range. It
// reports whether the offset changed.
func (n *ScrollNode) SetOffset(v geom.Vector) bool {
	if !n.layer.tree.active {
		return false
	}
	if !n.layer.tree.synced.Offset(n.layer.id).SetActive(n.ClampOffset(v)) {
		return false
	}
	n.layer.noteNodeChanged()
	return true
}

// ScrollBy applies delta in layer space, honoring the user-scrollable axes,
// and returns the part that was consumed.
func (n *ScrollNode) ScrollBy(delta geom.Vector) geom.Vector {
	if !n.userScrollableH {
		delta.X = 0
	}
	if !n.userScrollableV {
		delta.Y = 0
	}
	old := n.CurrentOffset()
	n.SetOffset(old.Add(delta))
	return n.CurrentOffset().Sub(old)
}

// ScrollTree indexes the scroll nodes of a tree by layer ID.
type ScrollTree struct {
	nodes map[int]*ScrollNode
}

// Node returns the scroll node of a layer, or nil.
func (s *ScrollTree) Node(layerID int) *ScrollNode {
	return s.nodes[layerID]
}

// Len returns the number of scroll nodes.
func (s *ScrollTree) Len() int { return len(s.nodes) }

func (s *ScrollTree) reset() {
	if s.nodes == nil {
		s.nodes = make(map[int]*ScrollNode)
		return
	}
	clear(s.nodes)
}
