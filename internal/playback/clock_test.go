package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/lens/internal/decode/worker"
	"github.com/zsiec/lens/internal/media"
)

// fakeNow gives the test manual control of the clock's time source.
type fakeNow struct {
	t time.Time
}

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestClock(fps float64, slack time.Duration) (*Clock, *fakeNow) {
	fn := &fakeNow{t: time.Unix(1000, 0)}
	c := NewClock(fps, slack)
	c.now = fn.now
	return c, fn
}

func queueWithPTS(t *testing.T, pts ...float64) *worker.FrameQueue {
	t.Helper()
	q := worker.NewFrameQueue(len(pts))
	for _, p := range pts {
		require.NoError(t, q.Push(&media.Frame{PTS: p}))
	}
	return q
}

func TestClock_FirstFrameReleasedImmediately(t *testing.T) {
	c, _ := newTestClock(30, 0)
	q := queueWithPTS(t, 0, 1.0/30)

	pos, f := c.Advance(q, true)
	require.NotNil(t, f)
	assert.Equal(t, 0.0, pos)
	assert.Equal(t, 1, q.Len())
}

func TestClock_SecondFrameWaitsForInterval(t *testing.T) {
	c, fn := newTestClock(30, 0)
	q := queueWithPTS(t, 0, 1.0/30)

	_, f := c.Advance(q, true)
	require.NotNil(t, f)

	// Not yet due.
	fn.advance(10 * time.Millisecond)
	pos, f := c.Advance(q, true)
	assert.Nil(t, f)
	assert.Equal(t, 0.0, pos)

	// Past the 33.3ms interval.
	fn.advance(25 * time.Millisecond)
	pos, f = c.Advance(q, true)
	require.NotNil(t, f)
	assert.InDelta(t, 1.0/30, pos, 1e-9)
}

func TestClock_SlackReleasesSlightlyEarly(t *testing.T) {
	c, fn := newTestClock(30, 2*time.Millisecond)
	q := queueWithPTS(t, 0, 1.0/30)

	_, f := c.Advance(q, true)
	require.NotNil(t, f)

	// 32ms elapsed against a 33.3ms interval; within the 2ms slack.
	fn.advance(32 * time.Millisecond)
	_, f = c.Advance(q, true)
	assert.NotNil(t, f)
}

func TestClock_PausedHoldsPositionAndQueue(t *testing.T) {
	c, fn := newTestClock(30, 0)
	q := queueWithPTS(t, 0, 1.0/30)

	_, f := c.Advance(q, true)
	require.NotNil(t, f)
	depth := q.Len()

	fn.advance(time.Second)
	pos, f := c.Advance(q, false)
	assert.Nil(t, f)
	assert.Equal(t, 0.0, pos)
	assert.Equal(t, depth, q.Len())
}

func TestClock_PositionRelativeToNonzeroAnchor(t *testing.T) {
	c, fn := newTestClock(30, 0)
	q := queueWithPTS(t, 100.0, 100.0+1.0/30)

	pos, f := c.Advance(q, true)
	require.NotNil(t, f)
	assert.Equal(t, 0.0, pos)

	fn.advance(40 * time.Millisecond)
	pos, f = c.Advance(q, true)
	require.NotNil(t, f)
	assert.InDelta(t, 1.0/30, pos, 1e-9)
}

func TestClock_NonIncreasingPTSUsesFallbackInterval(t *testing.T) {
	c, fn := newTestClock(30, 0)
	q := queueWithPTS(t, 1.0, 1.0, 0.5)

	_, f := c.Advance(q, true)
	require.NotNil(t, f)

	// Duplicate PTS: fallback interval applies, frame not due yet.
	fn.advance(10 * time.Millisecond)
	_, f = c.Advance(q, true)
	assert.Nil(t, f)

	fn.advance(30 * time.Millisecond)
	_, f = c.Advance(q, true)
	require.NotNil(t, f)

	// Backwards PTS still paced, and position never goes negative.
	fn.advance(40 * time.Millisecond)
	pos, f := c.Advance(q, true)
	require.NotNil(t, f)
	assert.GreaterOrEqual(t, pos, 0.0)
}

func TestClock_PositionMonotonicUnderNormalPacing(t *testing.T) {
	c, fn := newTestClock(30, time.Millisecond)
	q := worker.NewFrameQueue(64)
	for i := 0; i < 60; i++ {
		require.NoError(t, q.Push(&media.Frame{PTS: float64(i) / 30}))
	}

	last := -1.0
	released := 0
	for q.Len() > 0 {
		pos, f := c.Advance(q, true)
		if f != nil {
			released++
			assert.GreaterOrEqual(t, pos, last)
			last = pos
		}
		fn.advance(5 * time.Millisecond)
	}
	assert.Equal(t, 60, released)
}

func TestClock_EmptyQueueReturnsCurrentPosition(t *testing.T) {
	c, _ := newTestClock(30, 0)
	q := worker.NewFrameQueue(1)

	pos, f := c.Advance(q, true)
	assert.Nil(t, f)
	assert.Equal(t, 0.0, pos)
}

func TestClock_ResetReanchors(t *testing.T) {
	c, fn := newTestClock(30, 0)
	q := queueWithPTS(t, 0, 1.0/30)

	_, f := c.Advance(q, true)
	require.NotNil(t, f)
	fn.advance(40 * time.Millisecond)
	pos, f := c.Advance(q, true)
	require.NotNil(t, f)
	assert.Greater(t, pos, 0.0)

	c.Reset()
	assert.Equal(t, 0.0, c.Position())

	// Post-seek frame anchors a new timeline and releases immediately.
	q2 := queueWithPTS(t, 5.0)
	pos, f = c.Advance(q2, true)
	require.NotNil(t, f)
	assert.Equal(t, 0.0, pos)
}
