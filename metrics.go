package compositor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/scroll"
)

// Metrics are the Prometheus collectors updated by a Pipeline.
type Metrics struct {
	frames           *prometheus.CounterVec
	activations      prometheus.Counter
	commitToActivate prometheus.Histogram
	scrollBegins     *prometheus.CounterVec
	tileLimitBytes   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compositor_frames_total",
			Help: "Frames prepared, by draw result.",
		}, []string{"result"}),
		activations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compositor_activations_total",
			Help: "Pending trees activated.",
		}),
		commitToActivate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "compositor_commit_to_activate_seconds",
			Help:    "Time from the start of a commit to its activation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		scrollBegins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compositor_scroll_begins_total",
			Help: "Scroll gestures started, by handling thread.",
		}, []string{"thread"}),
		tileLimitBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "compositor_tile_memory_limit_bytes",
			Help: "Raster memory limits of the global tile state.",
		}, []string{"limit"}),
	}
	if reg != nil {
		reg.MustRegister(m.frames, m.activations, m.commitToActivate, m.scrollBegins, m.tileLimitBytes)
	}
	return m
}

func (m *Metrics) observeFrame(f *frame.FrameData) {
	result := f.Result.String()
	if f.HasNoDamage {
		result = "NoDamage"
	}
	m.frames.WithLabelValues(result).Inc()
}

func (m *Metrics) observeActivation(seconds float64) {
	m.activations.Inc()
	if seconds >= 0 {
		m.commitToActivate.Observe(seconds)
	}
}

func (m *Metrics) observeScrollBegin(st scroll.Status) {
	m.scrollBegins.WithLabelValues(st.Thread.String()).Inc()
}

func (m *Metrics) observeTileState(s raster.GlobalTileState) {
	m.tileLimitBytes.WithLabelValues("hard").Set(float64(s.HardLimitBytes))
	m.tileLimitBytes.WithLabelValues("soft").Set(float64(s.SoftLimitBytes))
}
