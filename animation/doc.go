// Package animation advances the compositor-side animations of the active
// tree: page scale zooms, browser controls show/hide, scrollbar fading and
// thinning, and property animations run by a Host.
//
// Ticker.Tick drives all of them for one frame time and reports whether
// anything changed. Animations that need another frame ask for exactly one
// through the ticker's Client.
//
// Nothing in this package is safe for concurrent use; it runs on the
// compositor loop.
package animation
