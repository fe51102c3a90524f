package scroll

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/tree"
)

// State carries one scroll event through the scroll chain. Nodes consume
// from Delta as they scroll; what is left is chained to the next node.
type State struct {
	// Position is the event location in viewport coordinates.
	Position geom.Point

	// Delta is the unconsumed scroll delta in viewport coordinates.
	Delta geom.Vector

	IsEnding          bool
	IsInInertialPhase bool

	// PreventPropagation keeps the delta on the latched node once it has
	// consumed some of it during the gesture.
	PreventPropagation bool

	directManipulation bool
	consumedInSequence bool
	causedScrollX      bool
	causedScrollY      bool
	current            *tree.ScrollNode
}

// NewState returns a state for an event at p with delta d.
func NewState(p geom.Point, d geom.Vector) *State {
	return &State{Position: p, Delta: d}
}

// ConsumeDelta removes d from the remaining delta.
func (s *State) ConsumeDelta(d geom.Vector) {
	s.Delta = s.Delta.Sub(d)
	if !d.IsZero() {
		s.consumedInSequence = true
	}
}

func (s *State) setCausedScroll(x, y bool) {
	s.causedScrollX = s.causedScrollX || x
	s.causedScrollY = s.causedScrollY || y
}

// CausedScrollX and CausedScrollY report whether content moved on an axis.
func (s *State) CausedScrollX() bool { return s.causedScrollX }
func (s *State) CausedScrollY() bool { return s.causedScrollY }

// IsDirectManipulation reports whether the event tracks a finger.
func (s *State) IsDirectManipulation() bool { return s.directManipulation }

// CurrentNativeScrollingNode is the last node that scrolled.
func (s *State) CurrentNativeScrollingNode() *tree.ScrollNode { return s.current }

// Result is returned by Router.ScrollBy.
type Result struct {
	DidScroll         bool
	DidOverscrollRoot bool

	// AccumulatedRootOverscroll sums the unused delta of the gesture. An
	// axis is reset when content scrolls along it.
	AccumulatedRootOverscroll geom.Vector

	UnusedScrollDelta geom.Vector
}
