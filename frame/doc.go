// Package frame assembles the render passes of one frame from the active
// tree.
//
// [Assembler.PrepareFrame] tracks damage for every render surface, returns
// early when nothing visible changed, then walks the tree front to back and
// asks each layer for its quads. Occluded layers are skipped. Missing tiles
// may abort the draw: a frame is either fully assembled or not submitted at
// all.
//
// A prepared frame moves through these states:
//
//	Idle -> DamageComputed -> NoDamage
//	                       -> PassesBuilt -> Aborted(reason)
//	                                      -> Ready -> Submitted
//
// Aborted frames return their copy requests to the tree so they are retried.
package frame
