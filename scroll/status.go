package scroll

import (
	"fmt"

	"github.com/gogpu/compositor/tree"
)

// Thread is where a scroll gesture is handled.
type Thread int

const (
	// OnMainThread means the producer must handle the gesture.
	OnMainThread Thread = iota

	// OnImplThread means the router scrolls without a commit round trip.
	OnImplThread

	// Ignored means nothing under the point can scroll.
	Ignored

	// Unknown means the hit test was ambiguous.
	Unknown
)

func (t Thread) String() string {
	switch t {
	case OnMainThread:
		return "OnMainThread"
	case OnImplThread:
		return "OnImplThread"
	case Ignored:
		return "Ignored"
	default:
		return "Unknown"
	}
}

// Status is the outcome of a scroll begin.
type Status struct {
	Thread  Thread
	Reasons tree.MainThreadScrollingReasons
}

func (s Status) String() string {
	if s.Reasons == tree.NotScrollingOnMain {
		return s.Thread.String()
	}
	return fmt.Sprintf("%s(%s)", s.Thread, s.Reasons)
}

func implStatus() Status { return Status{Thread: OnImplThread} }

// InputType is the device a gesture comes from.
type InputType int

const (
	// InputTouchscreen is direct manipulation: content follows the finger.
	InputTouchscreen InputType = iota

	// InputWheel scrolls by a fixed amount in layer space.
	InputWheel
)

func (t InputType) String() string {
	switch t {
	case InputTouchscreen:
		return "Touchscreen"
	case InputWheel:
		return "Wheel"
	default:
		return "Unknown"
	}
}
