package hud

import (
	"math"
	"time"

	"github.com/go-text/typesetting/font"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/cache"
	"github.com/gogpu/compositor/render"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultTextSize = 12
	padding         = 4

	// glyphResourceBase keeps glyph texture IDs apart from tile resources.
	glyphResourceBase uint64 = 1 << 48

	// defaultAtlasBudget is in glyphs.
	defaultAtlasBudget = 256
)

var (
	panelColor = render.RGBA(0, 0, 0, 0xa0)
	textColor  = render.RGBA(0x40, 0xff, 0x40, 0xff)
)

// Option configures a HUD.
type Option func(*HUD)

// WithTextSize sets the label size in pixels.
func WithTextSize(px float64) Option {
	return func(h *HUD) {
		if px > 0 {
			h.textSize = px
		}
	}
}

// WithLanguage sets the language used to format numbers.
func WithLanguage(tag language.Tag) Option {
	return func(h *HUD) {
		h.printer = message.NewPrinter(tag)
	}
}

// WithAtlasBudget sets the number of glyph textures kept.
func WithAtlasBudget(glyphs int) Option {
	return func(h *HUD) {
		if glyphs > 0 {
			h.atlas.SetBudget(glyphs)
		}
	}
}

// HUD is a frame.Overlay showing the frame rate in the top left corner.
type HUD struct {
	counter  *FrameRateCounter
	shaper   *shaper
	printer  *message.Printer
	textSize float64
	visible  bool

	// atlas maps glyphs to the texture resource holding them.
	atlas   *cache.Cache[font.GID, uint64]
	nextRes uint64
}

var _ frame.Overlay = (*HUD)(nil)

// New creates a visible HUD.
func New(opts ...Option) (*HUD, error) {
	s, err := newShaper()
	if err != nil {
		return nil, err
	}
	h := &HUD{
		counter:  NewFrameRateCounter(),
		shaper:   s,
		printer:  message.NewPrinter(language.English),
		textSize: defaultTextSize,
		visible:  true,
		atlas:    cache.New[font.GID, uint64](defaultAtlasBudget),
		nextRes:  glyphResourceBase,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Counter returns the frame rate counter fed by the pipeline.
func (h *HUD) Counter() *FrameRateCounter { return h.counter }

// SetVisible shows or hides the display.
func (h *HUD) SetVisible(v bool) { h.visible = v }

// Visible reports whether the display is shown.
func (h *HUD) Visible() bool { return h.visible }

// IsAnimating reports whether the HUD redraws every frame.
func (h *HUD) IsAnimating() bool { return h.visible }

// Label returns the text drawn for the current counter state.
func (h *HUD) Label() string {
	avg, lo, hi := h.counter.FrameRate()
	return h.printer.Sprintf("%.1f fps (%.0f-%.0f) %d dropped", avg, lo, hi, h.counter.DroppedFrameCount())
}

// AppendQuads adds a translucent panel and one texture quad per glyph.
func (h *HUD) AppendQuads(root *render.Pass) {
	if !h.visible {
		return
	}
	glyphs, width := h.shaper.shape(h.Label(), h.textSize)
	panel := geom.R(0, 0, int(math.Ceil(width))+2*padding, int(math.Ceil(h.textSize))+2*padding)
	panel = panel.Intersect(root.OutputRect)
	if panel.IsEmpty() {
		return
	}

	sqs := root.CreateSharedQuadState()
	sqs.ContentBounds = panel
	sqs.VisibleContentRect = panel

	// Quads are front to back: text first, then the panel behind it.
	size := int(math.Ceil(h.textSize))
	for _, g := range glyphs {
		r := geom.R(padding+int(math.Round(g.x)), padding, max(1, int(math.Ceil(g.advance))), size)
		vis := r.Intersect(panel)
		if vis.IsEmpty() {
			continue
		}
		root.AppendQuad(render.Quad{
			Material:      render.MaterialTexture,
			Rect:          r,
			VisibleRect:   vis,
			NeedsBlending: true,
			Shared:        sqs,
			Color:         textColor,
			ResourceID:    h.glyphResource(g.id),
		})
	}
	root.AppendQuad(render.Quad{
		Material:      render.MaterialSolidColor,
		Rect:          panel,
		VisibleRect:   panel,
		NeedsBlending: true,
		Shared:        sqs,
		Color:         panelColor,
	})
}

// glyphResource returns the texture resource of a glyph, allocating a new
// one when the glyph is not cached.
func (h *HUD) glyphResource(id font.GID) uint64 {
	if res, ok := h.atlas.Get(id); ok {
		return res
	}
	res := h.nextRes
	h.nextRes++
	h.atlas.Set(id, res, 1)
	return res
}

// AtlasSize returns the number of cached glyph textures.
func (h *HUD) AtlasSize() int { return h.atlas.Len() }

// CountFrame records a submitted frame.
func (h *HUD) CountFrame(t time.Time, dropped bool) { h.counter.SaveTimeStamp(t, dropped) }
