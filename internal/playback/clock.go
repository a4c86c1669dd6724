// Package playback paces decoded frames against the wall clock and
// exposes the playback session surface.
package playback

import (
	"time"

	"github.com/zsiec/lens/internal/decode/worker"
	"github.com/zsiec/lens/internal/media"
)

// Clock decides when the front frame of the decode queue is due for
// presentation. The first frame anchors the timeline; subsequent frames
// are released when the wall-clock interval since the last release
// reaches the PTS interval between them. Positions are reported
// relative to the anchor so streams starting at a nonzero PTS still
// play from zero.
//
// Clock is not safe for concurrent use; the owning Player serializes
// access.
type Clock struct {
	initialized   bool
	basePTS       float64
	lastPTS       float64
	lastRender    time.Time
	lastDisplayed float64

	fallbackFPS float64
	slack       time.Duration

	now func() time.Time // injectable for tests
}

// NewClock creates a clock. fallbackFPS covers non-increasing
// timestamps; slack tolerates releasing a frame slightly early so a
// caller polling near the frame interval does not consistently miss it.
func NewClock(fallbackFPS float64, slack time.Duration) *Clock {
	if fallbackFPS <= 0 {
		fallbackFPS = 30
	}
	if slack < 0 {
		slack = 0
	}
	return &Clock{
		fallbackFPS: fallbackFPS,
		slack:       slack,
		now:         time.Now,
	}
}

// Advance releases the front frame of the queue if it is due, returning
// the current position and the released frame, or nil when no frame was
// due. Paused playback holds the position without consuming frames.
// At most one frame is released per call.
func (c *Clock) Advance(q *worker.FrameQueue, playing bool) (float64, *media.Frame) {
	if !playing {
		return c.lastDisplayed, nil
	}

	front, ok := q.Peek()
	if !ok {
		return c.lastDisplayed, nil
	}

	now := c.now()

	if !c.initialized {
		c.initialized = true
		c.basePTS = front.PTS
		return c.release(q, front, now)
	}

	interval := front.PTS - c.lastPTS
	if interval <= 0 {
		interval = 1 / c.fallbackFPS
	}
	target := c.lastRender.Add(secondsToDuration(interval))
	if now.Add(c.slack).Before(target) {
		return c.lastDisplayed, nil
	}

	return c.release(q, front, now)
}

// Position returns the last displayed position in seconds, relative to
// the anchor frame.
func (c *Clock) Position() float64 {
	return c.lastDisplayed
}

// Reset discards the anchor so the next frame restarts the timeline.
// Called after a seek, where the queue is rebuilt from the new target.
func (c *Clock) Reset() {
	c.initialized = false
	c.basePTS = 0
	c.lastPTS = 0
	c.lastRender = time.Time{}
	c.lastDisplayed = 0
}

func (c *Clock) release(q *worker.FrameQueue, front *media.Frame, now time.Time) (float64, *media.Frame) {
	q.Pop()
	c.lastPTS = front.PTS
	c.lastRender = now
	pos := front.PTS - c.basePTS
	if pos < 0 {
		pos = 0
	}
	c.lastDisplayed = pos
	return pos, front
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
