// Package parallel provides the worker pool and atomic tile bitmaps used by
// the tile manager.
//
// Content is divided into 64x64 pixel tiles. A [Bitmap] records one bit per
// tile (ready, scheduled) and is safe to update from raster workers while the
// compositor thread reads it. [Pool] runs raster tasks on a fixed set of
// goroutines with per-worker queues and work stealing.
package parallel

// Tile size constants.
const (
	// TileWidth is the width of a tile in pixels.
	TileWidth = 64

	// TileHeight is the height of a tile in pixels.
	TileHeight = 64

	// TilePixels is the total number of pixels in a full tile.
	TilePixels = TileWidth * TileHeight

	// TileBytes is the memory cost of one full tile (RGBA = 4 bytes per pixel).
	TileBytes = TilePixels * 4
)
