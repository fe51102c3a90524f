// Package scroll routes scroll and pinch input to the scroll nodes of the
// active tree.
//
// A [Router] hit-tests the start of a gesture, decides whether the
// compositor thread can handle it, and then distributes deltas along the
// scroll chain of the latched node, innermost node first. The viewport
// ([Viewport]) is special-cased: it composes the inner and outer viewport
// scroll nodes, feeds the browser controls, and reports the delta nothing
// could consume as root overscroll.
//
// Deltas from direct manipulation (touch) are resolved in viewport space so
// content tracks the finger under any transform. Wheel deltas are applied in
// layer space, divided by the page scale.
//
// Router and Viewport are not safe for concurrent use.
package scroll
