package compositor

import (
	"slices"
	"time"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/tree"
)

// ScrollUpdate is the compositor-side scroll of one layer since the last
// BeginMainFrame.
type ScrollUpdate struct {
	LayerID int
	Delta   geom.Vector
}

// ScrollAndScaleSet is the delta bundle sent to the producer with each
// BeginMainFrame. The producer applies it before building the next commit.
type ScrollAndScaleSet struct {
	Scrolls []ScrollUpdate

	// PageScaleDelta is multiplicative; 1 means unchanged.
	PageScaleDelta float64

	// TopControlsDelta is the change of the controls shown ratio.
	TopControlsDelta float64

	ElasticOverscrollDelta geom.Vector
}

// IsEmpty reports whether the bundle changes nothing.
func (s *ScrollAndScaleSet) IsEmpty() bool {
	return len(s.Scrolls) == 0 && s.PageScaleDelta == 1 &&
		s.TopControlsDelta == 0 && s.ElasticOverscrollDelta.IsZero()
}

// ProcessScrollDeltas collects every compositor-side change the producer
// has not been told about. The collected deltas count as sent until the
// next activation or BeginMainFrameAborted.
func (p *Pipeline) ProcessScrollDeltas() *ScrollAndScaleSet {
	s := &ScrollAndScaleSet{}
	p.synced.ForEachOffset(func(id int, o *tree.SyncedOffset) {
		if d := o.PullDeltaForMainThread(); !d.IsZero() {
			s.Scrolls = append(s.Scrolls, ScrollUpdate{LayerID: id, Delta: d})
		}
	})
	slices.SortFunc(s.Scrolls, func(a, b ScrollUpdate) int { return a.LayerID - b.LayerID })
	s.PageScaleDelta = p.synced.PageScale.PullDeltaForMainThread()
	s.TopControlsDelta = p.synced.ControlsRatio.PullDeltaForMainThread()
	s.ElasticOverscrollDelta = p.synced.Elastic.PullDeltaForMainThread()
	return s
}

// BeginMainFrame asks the producer for the next commit.
type BeginMainFrame struct {
	// Number increases with every request.
	Number    int
	FrameTime time.Time

	// Deltas are moved to the producer; the pipeline keeps no reference.
	Deltas *ScrollAndScaleSet

	MemoryPolicy raster.MemoryPolicy
	Visible      bool
}

func (p *Pipeline) beginMainFrame(now time.Time) *BeginMainFrame {
	p.needsCommit = false
	p.commitInFlight = true
	p.bmfNumber++
	return &BeginMainFrame{
		Number:       p.bmfNumber,
		FrameTime:    now,
		Deltas:       p.ProcessScrollDeltas(),
		MemoryPolicy: p.budget.Policy(),
		Visible:      p.visible,
	}
}
