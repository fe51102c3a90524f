package tree

import "strings"

// MainThreadScrollingReasons is a bit set of reasons a scroll cannot be
// handled on the compositor thread.
type MainThreadScrollingReasons uint32

const (
	NotScrollingOnMain MainThreadScrollingReasons = 0

	HasBackgroundAttachmentFixed MainThreadScrollingReasons = 1 << iota
	ThreadedScrollingDisabled
	ScrollbarScrolling
	PageOverlay

	// Reasons below are set by the compositor, not the producer.
	NonFastScrollableRegion
	FailedHitTest
	NoScrollingLayer
	NotScrollable
	ContinuingMainThreadScroll
	NonInvertibleTransform
	PageBasedScrolling
)

var reasonNames = []struct {
	r    MainThreadScrollingReasons
	name string
}{
	{HasBackgroundAttachmentFixed, "HasBackgroundAttachmentFixed"},
	{ThreadedScrollingDisabled, "ThreadedScrollingDisabled"},
	{ScrollbarScrolling, "ScrollbarScrolling"},
	{PageOverlay, "PageOverlay"},
	{NonFastScrollableRegion, "NonFastScrollableRegion"},
	{FailedHitTest, "FailedHitTest"},
	{NoScrollingLayer, "NoScrollingLayer"},
	{NotScrollable, "NotScrollable"},
	{ContinuingMainThreadScroll, "ContinuingMainThreadScroll"},
	{NonInvertibleTransform, "NonInvertibleTransform"},
	{PageBasedScrolling, "PageBasedScrolling"},
}

// Has reports whether every bit of o is set in r.
func (r MainThreadScrollingReasons) Has(o MainThreadScrollingReasons) bool {
	return r&o == o
}

func (r MainThreadScrollingReasons) String() string {
	if r == NotScrollingOnMain {
		return "None"
	}
	var parts []string
	for _, n := range reasonNames {
		if r&n.r != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "Unknown"
	}
	return strings.Join(parts, "|")
}
