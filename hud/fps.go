package hud

import (
	"math"
	"time"
)

const (
	// frameHistory is the number of frame times averaged.
	frameHistory = 120

	// Intervals outside these bounds are pauses or duplicate timestamps
	// and are not averaged.
	minFrameInterval = time.Millisecond
	maxFrameInterval = time.Second
)

// FrameRateCounter measures the rate of submitted frames.
type FrameRateCounter struct {
	times   [frameHistory]time.Time
	next    int
	count   int
	dropped int
	frames  int
}

// NewFrameRateCounter returns an empty counter.
func NewFrameRateCounter() *FrameRateCounter { return &FrameRateCounter{} }

// SaveTimeStamp records a frame drawn at t. dropped marks a frame that
// missed its deadline.
func (c *FrameRateCounter) SaveTimeStamp(t time.Time, dropped bool) {
	c.times[c.next] = t
	c.next = (c.next + 1) % frameHistory
	if c.count < frameHistory {
		c.count++
	}
	c.frames++
	if dropped {
		c.dropped++
	}
}

// CurrentFrameNumber returns the number of frames recorded so far.
func (c *FrameRateCounter) CurrentFrameNumber() int { return c.frames }

// DroppedFrameCount returns the number of frames marked dropped.
func (c *FrameRateCounter) DroppedFrameCount() int { return c.dropped }

// at returns the i-th recorded time, oldest first.
func (c *FrameRateCounter) at(i int) time.Time {
	start := (c.next - c.count + frameHistory) % frameHistory
	return c.times[(start+i)%frameHistory]
}

// FrameRate returns the average frames per second over the history, and
// the minimum and maximum instantaneous rates. It returns zeros until two
// usable intervals exist.
func (c *FrameRateCounter) FrameRate() (avg, lo, hi float64) {
	var total time.Duration
	n := 0
	lo = math.Inf(1)
	for i := 1; i < c.count; i++ {
		d := c.at(i).Sub(c.at(i - 1))
		if d < minFrameInterval || d > maxFrameInterval {
			continue
		}
		total += d
		n++
		fps := float64(time.Second) / float64(d)
		lo = min(lo, fps)
		hi = max(hi, fps)
	}
	if n == 0 {
		return 0, 0, 0
	}
	return float64(n) * float64(time.Second) / float64(total), lo, hi
}
