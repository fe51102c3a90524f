package compositor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/hud"
	"github.com/gogpu/compositor/output"
	"github.com/gogpu/compositor/raster"
)

// Option configures a Pipeline during creation.
//
// Example:
//
//	p, err := compositor.NewPipeline(
//	    compositor.WithSink(output.NewRecordingSink()),
//	    compositor.WithViewport(geom.R(0, 0, 800, 600), 1),
//	)
type Option func(*options)

type options struct {
	settings   Settings
	sink       output.Sink
	tiles      raster.TileScheduler
	rasterizer raster.Rasterizer
	decoder    raster.Decoder
	hud        *hud.HUD
	registerer prometheus.Registerer
	now        func() time.Time
	observer   func()

	viewport    geom.Rect
	deviceScale float64

	decodeBudget int
}

func defaultOptions() options {
	return options{
		settings:     DefaultSettings(),
		now:          time.Now,
		deviceScale:  1,
		decodeBudget: 32 << 20,
		decoder: func(_ context.Context, ref raster.ImageRef) (raster.DecodedImage, error) {
			return raster.DecodedImage{ID: ref.ID}, nil
		},
	}
}

// WithSettings replaces DefaultSettings.
func WithSettings(s Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithSink sets the output the pipeline draws into. Without a sink the
// pipeline never draws; see Pipeline.SetSink.
func WithSink(s output.Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithTileScheduler replaces the built-in tile manager. The pipeline does
// not close a scheduler it did not create.
func WithTileScheduler(ts raster.TileScheduler) Option {
	return func(o *options) {
		o.tiles = ts
	}
}

// WithRasterizer sets the rasterizer of the built-in tile manager.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(o *options) {
		o.rasterizer = r
	}
}

// WithImageDecoder sets the decoder behind the image decode cache used by
// the built-in tile manager.
func WithImageDecoder(d raster.Decoder, budgetBytes int) Option {
	return func(o *options) {
		if d != nil {
			o.decoder = d
		}
		if budgetBytes > 0 {
			o.decodeBudget = budgetBytes
		}
	}
}

// WithHUD draws h over every frame. Settings.ShowFPSCounter creates one
// when none is given.
func WithHUD(h *hud.HUD) Option {
	return func(o *options) {
		o.hud = h
	}
}

// WithMetrics registers the pipeline collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithClock sets the time source used for commit latency and scrollbar
// fades.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithActivationObserver calls fn after every activation.
func WithActivationObserver(fn func()) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithViewport sets the initial device viewport and device scale factor.
func WithViewport(r geom.Rect, deviceScale float64) Option {
	return func(o *options) {
		o.viewport = r
		if deviceScale > 0 {
			o.deviceScale = deviceScale
		}
	}
}
