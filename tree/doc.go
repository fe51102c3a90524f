// Package tree is the compositor's scene tree.
//
// A [LayerTree] holds a hierarchy of [Layer] values together with the scroll
// tree, synced scroll and scale state, and per-surface damage trackers. The
// producing thread describes each commit as a [Scene]; [LayerTree.PushScene]
// turns it into layers, reusing layer objects by ID so a recycled tree needs
// no new allocation for unchanged structure.
//
// Draw properties (screen transforms, visible rects, render surfaces) are
// computed lazily by [LayerTree.UpdateDrawProperties]. Frame assembly walks
// the result front to back with [LayerTree.ForEachFrontToBack].
//
// Trees are not safe for concurrent use. All methods are called from the
// compositor thread.
package tree
