package tree

import "github.com/gogpu/compositor/geom"

// SyncedOffset is a scroll offset shared by the pending and active trees.
//
// The main thread owns the base values; the compositor thread accumulates a
// delta on top of the active base. Sent delta is the part of the delta the
// main thread has been told about but not yet committed back.
type SyncedOffset struct {
	activeBase  geom.Vector
	activeDelta geom.Vector
	pendingBase geom.Vector
	sentDelta   geom.Vector
}

// Active returns the offset seen by the active tree.
func (s *SyncedOffset) Active() geom.Vector {
	return s.activeBase.Add(s.activeDelta)
}

// Pending returns the offset seen by the pending tree.
func (s *SyncedOffset) Pending() geom.Vector {
	return s.pendingBase.Add(s.activeDelta.Sub(s.sentDelta))
}

// SetActive sets the active offset by adjusting the delta.
func (s *SyncedOffset) SetActive(v geom.Vector) bool {
	d := v.Sub(s.activeBase)
	if d == s.activeDelta {
		return false
	}
	s.activeDelta = d
	return true
}

// UnsentDelta returns the delta not yet sent to the main thread.
func (s *SyncedOffset) UnsentDelta() geom.Vector {
	return s.activeDelta.Sub(s.sentDelta)
}

// PullDeltaForMainThread marks the whole active delta as sent and returns
// the part that was not sent before.
func (s *SyncedOffset) PullDeltaForMainThread() geom.Vector {
	d := s.UnsentDelta()
	s.sentDelta = s.activeDelta
	return d
}

// PushFromMainThread records the main thread's committed value.
func (s *SyncedOffset) PushFromMainThread(v geom.Vector) {
	s.pendingBase = v
}

// PushPendingToActive makes the pending base active. The sent delta is
// assumed to be contained in the new base.
func (s *SyncedOffset) PushPendingToActive() {
	s.activeDelta = s.activeDelta.Sub(s.sentDelta)
	s.activeBase = s.pendingBase
	s.sentDelta = geom.Vector{}
}

// AbortCommit handles a main frame that finished without a commit. If the
// main thread applied the sent delta, it moves into the active base.
func (s *SyncedOffset) AbortCommit(mainFrameApplied bool) {
	if mainFrameApplied {
		s.activeBase = s.activeBase.Add(s.sentDelta)
		s.activeDelta = s.activeDelta.Sub(s.sentDelta)
		s.pendingBase = s.activeBase
	}
	s.sentDelta = geom.Vector{}
}

// SyncedScale is a multiplicative value shared by the pending and active
// trees, used for the page scale factor.
type SyncedScale struct {
	activeBase  float64
	activeDelta float64
	pendingBase float64
	sentDelta   float64
}

// NewSyncedScale returns a scale with base v and no delta.
func NewSyncedScale(v float64) SyncedScale {
	return SyncedScale{activeBase: v, activeDelta: 1, pendingBase: v, sentDelta: 1}
}

func (s *SyncedScale) Active() float64 { return s.activeBase * s.activeDelta }

func (s *SyncedScale) Pending() float64 {
	return s.pendingBase * s.activeDelta / s.sentDelta
}

// SetActive sets the active scale by adjusting the delta.
func (s *SyncedScale) SetActive(v float64) bool {
	if s.activeBase == 0 {
		return false
	}
	d := v / s.activeBase
	if d == s.activeDelta {
		return false
	}
	s.activeDelta = d
	return true
}

func (s *SyncedScale) UnsentDelta() float64 { return s.activeDelta / s.sentDelta }

func (s *SyncedScale) PullDeltaForMainThread() float64 {
	d := s.UnsentDelta()
	s.sentDelta = s.activeDelta
	return d
}

func (s *SyncedScale) PushFromMainThread(v float64) { s.pendingBase = v }

func (s *SyncedScale) PushPendingToActive() {
	s.activeDelta /= s.sentDelta
	s.activeBase = s.pendingBase
	s.sentDelta = 1
}

func (s *SyncedScale) AbortCommit(mainFrameApplied bool) {
	if mainFrameApplied {
		s.activeBase *= s.sentDelta
		s.activeDelta /= s.sentDelta
		s.pendingBase = s.activeBase
	}
	s.sentDelta = 1
}

// SyncedRatio is an additive scalar shared by the pending and active trees,
// used for the browser controls shown ratio.
type SyncedRatio struct {
	activeBase  float64
	activeDelta float64
	pendingBase float64
	sentDelta   float64
}

func (s *SyncedRatio) Active() float64 { return s.activeBase + s.activeDelta }

func (s *SyncedRatio) Pending() float64 {
	return s.pendingBase + s.activeDelta - s.sentDelta
}

func (s *SyncedRatio) SetActive(v float64) bool {
	d := v - s.activeBase
	if d == s.activeDelta {
		return false
	}
	s.activeDelta = d
	return true
}

func (s *SyncedRatio) UnsentDelta() float64 { return s.activeDelta - s.sentDelta }

func (s *SyncedRatio) PullDeltaForMainThread() float64 {
	d := s.UnsentDelta()
	s.sentDelta = s.activeDelta
	return d
}

func (s *SyncedRatio) PushFromMainThread(v float64) { s.pendingBase = v }

func (s *SyncedRatio) PushPendingToActive() {
	s.activeDelta -= s.sentDelta
	s.activeBase = s.pendingBase
	s.sentDelta = 0
}

func (s *SyncedRatio) AbortCommit(mainFrameApplied bool) {
	if mainFrameApplied {
		s.activeBase += s.sentDelta
		s.activeDelta -= s.sentDelta
		s.pendingBase = s.activeBase
	}
	s.sentDelta = 0
}

// SyncedState is the compositor-thread state shared by every tree of one
// pipeline: scroll offsets by layer ID, page scale, browser controls shown
// ratio and elastic overscroll.
type SyncedState struct {
	offsets       map[int]*SyncedOffset
	PageScale     SyncedScale
	ControlsRatio SyncedRatio
	Elastic       SyncedOffset
}

// NewSyncedState returns state with unit page scale and fully shown controls.
func NewSyncedState() *SyncedState {
	s := &SyncedState{
		offsets:   make(map[int]*SyncedOffset),
		PageScale: NewSyncedScale(1),
	}
	s.ControlsRatio.activeBase = 1
	s.ControlsRatio.pendingBase = 1
	return s
}

// Offset returns the synced offset for a scroll layer, creating it if needed.
func (s *SyncedState) Offset(layerID int) *SyncedOffset {
	o, ok := s.offsets[layerID]
	if !ok {
		o = &SyncedOffset{}
		s.offsets[layerID] = o
	}
	return o
}

// Remove forgets the offset of a destroyed scroll layer.
func (s *SyncedState) Remove(layerID int) {
	delete(s.offsets, layerID)
}

// ForEachOffset calls fn for every tracked scroll layer.
func (s *SyncedState) ForEachOffset(fn func(layerID int, o *SyncedOffset)) {
	for id, o := range s.offsets {
		fn(id, o)
	}
}

// PushPendingToActive activates every pending base.
func (s *SyncedState) PushPendingToActive() {
	for _, o := range s.offsets {
		o.PushPendingToActive()
	}
	s.PageScale.PushPendingToActive()
	s.ControlsRatio.PushPendingToActive()
	s.Elastic.PushPendingToActive()
}

// AbortCommit resolves sent deltas after an aborted main frame.
func (s *SyncedState) AbortCommit(mainFrameApplied bool) {
	for _, o := range s.offsets {
		o.AbortCommit(mainFrameApplied)
	}
	s.PageScale.AbortCommit(mainFrameApplied)
	s.ControlsRatio.AbortCommit(mainFrameApplied)
	s.Elastic.AbortCommit(mainFrameApplied)
}
