// Package hud draws a heads-up display over the compositor output.
//
// The display shows the frame rate measured from the submitted frames. It
// is an animating overlay: while it is shown every vsync produces a frame,
// even when no layer changed.
package hud
