package parallel

import (
	"math/bits"
	"sync/atomic"
)

// Bitmap holds one atomic bit per tile of a tilesX by tilesY grid.
//
// The bitmap uses one bit per tile, packed into uint64 words (64 tiles per word).
// All methods are safe for concurrent use without external synchronization.
type Bitmap struct {
	// Bit index = ty * tilesX + tx
	words  []atomic.Uint64
	tilesX int
	tilesY int
}

// NewBitmap creates a cleared bitmap for the given tile grid dimensions.
// Returns nil if dimensions are invalid (zero or negative).
func NewBitmap(tilesX, tilesY int) *Bitmap {
	if tilesX <= 0 || tilesY <= 0 {
		return nil
	}
	total := tilesX * tilesY
	return &Bitmap{
		words:  make([]atomic.Uint64, (total+63)/64),
		tilesX: tilesX,
		tilesY: tilesY,
	}
}

func (b *Bitmap) index(tx, ty int) (word int, mask uint64, ok bool) {
	if tx < 0 || tx >= b.tilesX || ty < 0 || ty >= b.tilesY {
		return 0, 0, false
	}
	idx := ty*b.tilesX + tx
	return idx / 64, 1 << (idx & 63), true
}

// Set sets the bit for tile (tx, ty). Returns true if it was previously clear.
// Out of range coordinates are ignored.
func (b *Bitmap) Set(tx, ty int) bool {
	w, m, ok := b.index(tx, ty)
	if !ok {
		return false
	}
	return b.words[w].Or(m)&m == 0
}

// Unset clears the bit for tile (tx, ty). Returns true if it was previously set.
func (b *Bitmap) Unset(tx, ty int) bool {
	w, m, ok := b.index(tx, ty)
	if !ok {
		return false
	}
	return b.words[w].And(^m)&m != 0
}

// IsSet reports whether the bit for tile (tx, ty) is set.
// Returns false for out-of-bounds coordinates.
func (b *Bitmap) IsSet(tx, ty int) bool {
	w, m, ok := b.index(tx, ty)
	if !ok {
		return false
	}
	return b.words[w].Load()&m != 0
}

// SetAll sets every bit.
func (b *Bitmap) SetAll() {
	total := b.tilesX * b.tilesY
	full := total / 64
	for i := 0; i < full; i++ {
		b.words[i].Store(^uint64(0))
	}
	if rem := total % 64; rem > 0 {
		b.words[full].Store((uint64(1) << rem) - 1)
	}
}

// Clear clears every bit.
func (b *Bitmap) Clear() {
	for i := range b.words {
		b.words[i].Store(0)
	}
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	n := 0
	for i := range b.words {
		n += bits.OnesCount64(b.words[i].Load())
	}
	return n
}

// IsEmpty reports whether no bit is set.
func (b *Bitmap) IsEmpty() bool {
	for i := range b.words {
		if b.words[i].Load() != 0 {
			return false
		}
	}
	return true
}

// ForEach calls fn for each set bit in row-major order.
func (b *Bitmap) ForEach(fn func(tx, ty int)) {
	total := b.tilesX * b.tilesY
	for wi := range b.words {
		word := b.words[wi].Load()
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			idx := wi*64 + bit
			if idx >= total {
				break
			}
			fn(idx%b.tilesX, idx/b.tilesX)
			word &^= 1 << bit
		}
	}
}

// TilesX returns the number of tiles horizontally.
func (b *Bitmap) TilesX() int { return b.tilesX }

// TilesY returns the number of tiles vertically.
func (b *Bitmap) TilesY() int { return b.tilesY }
