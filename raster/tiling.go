package raster

import (
	"sync/atomic"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/parallel"
)

var nextTilingID atomic.Uint64

// ImageRef is an encoded image referenced by layer content.
type ImageRef struct {
	ID   uint64
	Rect geom.Rect
}

// Tiling is the grid of raster tiles covering one layer's content.
//
// Readiness bits are updated by raster workers; every other method is
// expected to be called from the compositor thread.
type Tiling struct {
	id     uint64
	size   geom.Size
	tilesX int
	tilesY int

	ready     *parallel.Bitmap
	scheduled *parallel.Bitmap

	// generation is bumped on Release so stale raster results are dropped.
	generation atomic.Uint64

	images []ImageRef
}

// NewTiling creates a tiling for content of the given size with no tiles ready.
func NewTiling(size geom.Size) *Tiling {
	t := &Tiling{id: nextTilingID.Add(1)}
	t.Resize(size)
	return t
}

// Resize changes the content size. All tiles become missing if the grid
// dimensions change.
func (t *Tiling) Resize(size geom.Size) {
	tx, ty := 0, 0
	if !size.IsEmpty() {
		tx = (size.W + parallel.TileWidth - 1) / parallel.TileWidth
		ty = (size.H + parallel.TileHeight - 1) / parallel.TileHeight
	}
	t.size = size
	if tx == t.tilesX && ty == t.tilesY && t.ready != nil {
		return
	}
	t.tilesX, t.tilesY = tx, ty
	t.ready = parallel.NewBitmap(tx, ty)
	t.scheduled = parallel.NewBitmap(tx, ty)
	t.generation.Add(1)
}

// Clone returns a new tiling with the same size, images and ready tiles.
// In-flight raster work is not carried over.
func (t *Tiling) Clone() *Tiling {
	c := NewTiling(t.size)
	if t.ready != nil {
		t.ready.ForEach(func(tx, ty int) { c.ready.Set(tx, ty) })
	}
	c.images = t.images
	return c
}

// ID returns the tiling's unique identifier.
func (t *Tiling) ID() uint64 { return t.id }

// Size returns the content size.
func (t *Tiling) Size() geom.Size { return t.size }

// TileCount returns the number of tiles in the grid.
func (t *Tiling) TileCount() int { return t.tilesX * t.tilesY }

// TileRect returns the content rect of tile (tx, ty), clipped to the content.
func (t *Tiling) TileRect(tx, ty int) geom.Rect {
	r := geom.R(tx*parallel.TileWidth, ty*parallel.TileHeight, parallel.TileWidth, parallel.TileHeight)
	return r.Intersect(geom.RectFromSize(t.size))
}

// ForEachTile calls fn for each tile intersecting r.
func (t *Tiling) ForEachTile(r geom.Rect, fn func(tx, ty int)) {
	r = r.Intersect(geom.RectFromSize(t.size))
	if r.IsEmpty() {
		return
	}
	x0 := r.X / parallel.TileWidth
	y0 := r.Y / parallel.TileHeight
	x1 := (r.Right() - 1) / parallel.TileWidth
	y1 := (r.Bottom() - 1) / parallel.TileHeight
	for ty := y0; ty <= y1; ty++ {
		for tx := x0; tx <= x1; tx++ {
			fn(tx, ty)
		}
	}
}

// IsReady reports whether tile (tx, ty) has rastered content.
func (t *Tiling) IsReady(tx, ty int) bool {
	return t.ready != nil && t.ready.IsSet(tx, ty)
}

// MarkReady marks tile (tx, ty) as rastered.
func (t *Tiling) MarkReady(tx, ty int) {
	if t.ready != nil {
		t.ready.Set(tx, ty)
	}
}

// MarkAllReady marks every tile as rastered.
func (t *Tiling) MarkAllReady() {
	if t.ready != nil {
		t.ready.SetAll()
	}
}

// Invalidate drops the rastered content of tiles intersecting r.
func (t *Tiling) Invalidate(r geom.Rect) {
	if t.ready == nil {
		return
	}
	t.ForEachTile(r, func(tx, ty int) { t.ready.Unset(tx, ty) })
}

// Release drops every tile and discards in-flight raster results.
func (t *Tiling) Release() {
	if t.ready == nil {
		return
	}
	t.generation.Add(1)
	t.ready.Clear()
	t.scheduled.Clear()
}

// ReadyCount returns the number of rastered tiles.
func (t *Tiling) ReadyCount() int {
	if t.ready == nil {
		return 0
	}
	return t.ready.Count()
}

// MissingIn returns the number of tiles intersecting r that are not ready.
func (t *Tiling) MissingIn(r geom.Rect) int {
	missing := 0
	t.ForEachTile(r, func(tx, ty int) {
		if !t.IsReady(tx, ty) {
			missing++
		}
	})
	return missing
}

// AllReadyIn reports whether every tile intersecting r is ready.
func (t *Tiling) AllReadyIn(r geom.Rect) bool {
	return t.MissingIn(r) == 0
}

// ResourceID returns a frame-stable identifier for tile (tx, ty).
func (t *Tiling) ResourceID(tx, ty int) uint64 {
	return t.id<<32 | uint64(ty*t.tilesX+tx)
}

// MemoryBytes returns the memory held by ready and scheduled tiles.
func (t *Tiling) MemoryBytes() uint64 {
	return uint64(t.residentCount()) * parallel.TileBytes
}

func (t *Tiling) residentCount() int {
	if t.ready == nil {
		return 0
	}
	n := 0
	for ty := 0; ty < t.tilesY; ty++ {
		for tx := 0; tx < t.tilesX; tx++ {
			if t.ready.IsSet(tx, ty) || t.scheduled.IsSet(tx, ty) {
				n++
			}
		}
	}
	return n
}

// SetImages records the encoded images drawn by the content.
func (t *Tiling) SetImages(images []ImageRef) {
	t.images = images
}

// ImagesIn returns the images intersecting r.
func (t *Tiling) ImagesIn(r geom.Rect) []ImageRef {
	var out []ImageRef
	for _, img := range t.images {
		if img.Rect.Intersects(r) {
			out = append(out, img)
		}
	}
	return out
}
