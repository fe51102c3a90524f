package tree

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/render"
)

// DrawMode is the kind of output a frame is drawn for.
type DrawMode int

const (
	DrawModeHardware DrawMode = iota
	DrawModeSoftware

	// DrawModeResourcelessSoftware draws into a surface the compositor
	// does not own; content needing resources cannot draw.
	DrawModeResourcelessSoftware
)

func (m DrawMode) String() string {
	switch m {
	case DrawModeHardware:
		return "Hardware"
	case DrawModeSoftware:
		return "Software"
	case DrawModeResourcelessSoftware:
		return "ResourcelessSoftware"
	default:
		return "Unknown"
	}
}

// AppendQuadsData collects statistics while a layer emits quads.
type AppendQuadsData struct {
	NumMissingTiles    int
	NumIncompleteTiles int

	// CheckerboardedArea is the visible area drawn as checkerboard.
	CheckerboardedArea int

	VisibleLayerArea int
}

// QuadContext is handed to Content.AppendQuads.
type QuadContext struct {
	Pass   *render.Pass
	Layer  *Layer
	Shared *render.SharedQuadState

	// Occlusion is the region of the target already covered by opaque
	// content in front of the layer. May be nil.
	Occlusion *geom.Region

	Mode      DrawMode
	Resources UIResourceLookup
}

// IsOccluded reports whether a layer content rect is completely hidden.
func (c *QuadContext) IsOccluded(r geom.Rect) bool {
	if c.Occlusion == nil || c.Occlusion.IsEmpty() {
		return false
	}
	tr := c.Layer.draw.ScreenSpaceTransform
	if !tr.IsAxisAligned() {
		return false
	}
	return c.Occlusion.ContainsRect(tr.MapRect(r))
}

// AppendQuad appends q to the pass with the context's shared state.
func (c *QuadContext) AppendQuad(q render.Quad) {
	q.Shared = c.Shared
	if q.VisibleRect.IsEmpty() {
		q.VisibleRect = q.Rect.Intersect(c.Layer.draw.VisibleRect)
	}
	if !q.NeedsBlending {
		q.NeedsBlending = !c.Layer.contentsOpaque || c.Shared.Opacity < 1
	}
	c.Pass.AppendQuad(q)
}

// Content emits the quads of one layer.
type Content interface {
	// WillDraw reports whether the content can draw in mode.
	WillDraw(mode DrawMode, res UIResourceLookup) bool

	// AppendQuads emits quads for the layer's visible rect.
	AppendQuads(ctx *QuadContext, data *AppendQuadsData)
}

// solidQuadTileSize splits large solid color layers so occlusion and
// damage culling can drop parts of them.
const solidQuadTileSize = 256

// SolidColorContent fills the layer with one color.
type SolidColorContent struct {
	Color render.Color
}

func (c *SolidColorContent) WillDraw(DrawMode, UIResourceLookup) bool { return true }

func (c *SolidColorContent) AppendQuads(ctx *QuadContext, data *AppendQuadsData) {
	vis := ctx.Layer.draw.VisibleRect
	bounds := geom.RectFromSize(ctx.Layer.bounds)
	for y := 0; y < bounds.H; y += solidQuadTileSize {
		for x := 0; x < bounds.W; x += solidQuadTileSize {
			r := geom.R(x, y, solidQuadTileSize, solidQuadTileSize).Intersect(bounds).Intersect(vis)
			if r.IsEmpty() || ctx.IsOccluded(r) {
				continue
			}
			data.VisibleLayerArea += r.Area()
			ctx.AppendQuad(render.Quad{
				Material:      render.MaterialSolidColor,
				Rect:          r,
				VisibleRect:   r,
				NeedsBlending: !c.Color.IsOpaque(),
				Color:         c.Color,
			})
		}
	}
}

// TiledContent draws rastered tiles, with checkerboard quads for tiles
// that are not ready yet.
type TiledContent struct {
	tiling *raster.Tiling

	// Checkerboard is the color of missing tiles.
	Checkerboard render.Color
}

// NewTiledContent returns content backed by a new tiling of size.
func NewTiledContent(size geom.Size) *TiledContent {
	return &TiledContent{tiling: raster.NewTiling(size), Checkerboard: render.White}
}

// Tiling returns the backing tiling.
func (c *TiledContent) Tiling() *raster.Tiling { return c.tiling }

func (c *TiledContent) WillDraw(DrawMode, UIResourceLookup) bool { return true }

func (c *TiledContent) AppendQuads(ctx *QuadContext, data *AppendQuadsData) {
	vis := ctx.Layer.draw.VisibleRect
	c.tiling.ForEachTile(vis, func(tx, ty int) {
		r := c.tiling.TileRect(tx, ty).Intersect(vis)
		if r.IsEmpty() || ctx.IsOccluded(r) {
			return
		}
		data.VisibleLayerArea += r.Area()
		if c.tiling.IsReady(tx, ty) {
			ctx.AppendQuad(render.Quad{
				Material:    render.MaterialTile,
				Rect:        c.tiling.TileRect(tx, ty),
				VisibleRect: r,
				ResourceID:  c.tiling.ResourceID(tx, ty),
			})
			return
		}
		data.NumMissingTiles++
		data.CheckerboardedArea += r.Area()
		ctx.AppendQuad(render.Quad{
			Material:    render.MaterialCheckerboard,
			Rect:        r,
			VisibleRect: r,
			Color:       c.Checkerboard,
		})
	})
}

// UIResourceContent draws an uploaded UI resource stretched over the layer.
type UIResourceContent struct {
	ID UIResourceID
}

func (c *UIResourceContent) WillDraw(mode DrawMode, res UIResourceLookup) bool {
	if mode == DrawModeResourcelessSoftware || res == nil {
		return false
	}
	_, ok := res.ResourceIDForUIResource(c.ID)
	return ok
}

func (c *UIResourceContent) AppendQuads(ctx *QuadContext, data *AppendQuadsData) {
	vis := ctx.Layer.draw.VisibleRect
	if vis.IsEmpty() || ctx.IsOccluded(vis) {
		return
	}
	rid, ok := ctx.Resources.ResourceIDForUIResource(c.ID)
	if !ok {
		return
	}
	data.VisibleLayerArea += vis.Area()
	ctx.AppendQuad(render.Quad{
		Material:    render.MaterialTexture,
		Rect:        geom.RectFromSize(ctx.Layer.bounds),
		VisibleRect: vis,
		ResourceID:  rid,
	})
}

// ScrollbarContent draws the thumb of a scrollbar layer at the position
// given by its scroll layer's offset.
type ScrollbarContent struct{}

func (ScrollbarContent) WillDraw(DrawMode, UIResourceLookup) bool { return true }

func (ScrollbarContent) AppendQuads(ctx *QuadContext, data *AppendQuadsData) {
	l := ctx.Layer
	props := l.scrollbar
	if props == nil {
		return
	}
	node := l.tree.scroll.Node(props.ScrollLayerID)
	if node == nil {
		return
	}
	thumb := ThumbRect(node, props, l.bounds, l.scrollbarThickness)
	r := thumb.Intersect(l.draw.VisibleRect)
	if r.IsEmpty() || ctx.IsOccluded(r) {
		return
	}
	data.VisibleLayerArea += r.Area()
	ctx.AppendQuad(render.Quad{
		Material:      render.MaterialSolidColor,
		Rect:          thumb,
		VisibleRect:   r,
		NeedsBlending: true,
		Color:         props.ThumbColor,
	})
}

// minThumbLength keeps the thumb grabbable on very long content.
const minThumbLength = 8

// ThumbRect returns the thumb rect in scrollbar layer space.
func ThumbRect(node *ScrollNode, props *ScrollbarProperties, track geom.Size, thickness float64) geom.Rect {
	maxOff := node.MaxOffset()
	off := node.CurrentOffset()
	c := node.ContainerBounds()
	b := node.layer.bounds

	trackLen, content, viewport, pos, maxPos := track.W, float64(b.W), c.W, off.X, maxOff.X
	cross := track.H
	if props.Orientation == Vertical {
		trackLen, content, viewport, pos, maxPos = track.H, float64(b.H), c.H, off.Y, maxOff.Y
		cross = track.W
	}
	if trackLen <= 0 || content <= 0 {
		return geom.Rect{}
	}

	length := int(float64(trackLen) * min(1, viewport/content))
	length = max(min(trackLen, minThumbLength), length)
	start := 0
	if maxPos > 0 {
		start = int(float64(trackLen-length) * pos / maxPos)
	}
	thick := props.ThumbThickness
	if thick <= 0 || thick > cross {
		thick = cross
	}
	thick = max(1, int(float64(thick)*thickness))

	if props.Orientation == Vertical {
		return geom.R(cross-thick, start, thick, length)
	}
	return geom.R(start, cross-thick, length, thick)
}
