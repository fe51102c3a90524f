package raster

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/compositor/internal/cache"
)

// DecodedImage is the decoded form of an ImageRef.
type DecodedImage struct {
	ID     uint64
	Pixels []byte
}

// Decoder decodes an encoded image.
type Decoder func(ctx context.Context, ref ImageRef) (DecodedImage, error)

// ImageDecodeCache caches decoded images used by raster tasks.
//
// When aggressive freeing is on (the pipeline is hidden), the cache is
// emptied and decoded images are not retained after use.
type ImageDecodeCache struct {
	decode     Decoder
	entries    *cache.Cache[uint64, DecodedImage]
	aggressive atomic.Bool
	budget     int
}

// NewImageDecodeCache creates a cache holding at most budget bytes.
func NewImageDecodeCache(budget int, decode Decoder) *ImageDecodeCache {
	return &ImageDecodeCache{
		decode:  decode,
		entries: cache.New[uint64, DecodedImage](budget),
		budget:  budget,
	}
}

// Get returns the decoded image for ref, decoding on a miss.
func (c *ImageDecodeCache) Get(ctx context.Context, ref ImageRef) (DecodedImage, error) {
	if img, ok := c.entries.Get(ref.ID); ok {
		return img, nil
	}
	img, err := c.decode(ctx, ref)
	if err != nil {
		return DecodedImage{}, fmt.Errorf("raster: decode image %d: %w", ref.ID, err)
	}
	if !c.aggressive.Load() {
		c.entries.Set(ref.ID, img, len(img.Pixels))
	}
	return img, nil
}

// SetShouldAggressivelyFreeResources implements part of Backend.
func (c *ImageDecodeCache) SetShouldAggressivelyFreeResources(aggressive bool) {
	c.aggressive.Store(aggressive)
	if aggressive {
		c.entries.Trim(0)
	}
}

// Aggressive reports whether aggressive freeing is on.
func (c *ImageDecodeCache) Aggressive() bool {
	return c.aggressive.Load()
}

// Bytes returns the memory held by decoded images.
func (c *ImageDecodeCache) Bytes() int {
	return c.entries.Bytes()
}

// Stats returns cache statistics.
func (c *ImageDecodeCache) Stats() cache.Stats {
	return c.entries.Stats()
}

// DecodingRasterizer decodes a task's images through a cache before
// handing the task to the wrapped rasterizer.
type DecodingRasterizer struct {
	Cache *ImageDecodeCache
	Next  Rasterizer
}

// RasterizeTile implements Rasterizer.
func (r DecodingRasterizer) RasterizeTile(ctx context.Context, task Task) error {
	for _, ref := range task.Images {
		if _, err := r.Cache.Get(ctx, ref); err != nil {
			return err
		}
	}
	if r.Next == nil {
		return nil
	}
	return r.Next.RasterizeTile(ctx, task)
}
