// Package raster implements the raster budget controller and a tile manager.
//
// [BudgetController] turns a [MemoryPolicy] and the pipeline's visibility
// into a [GlobalTileState] and decides between GPU and software
// rasterization ([DecideGPURasterization]). [TileManager] is a [TileScheduler]
// that rasterizes [Tiling] tiles on a worker pool within that budget and
// reports progress back to the compositor thread as coalesced events.
package raster
