// Package worker owns the background decode thread and the bounded
// frame queue it shares with the playback clock.
package worker

import (
	"errors"
	"sync"

	"github.com/zsiec/lens/internal/media"
)

// ErrQueueClosed indicates the queue was closed by a stop request.
var ErrQueueClosed = errors.New("frame queue closed")

// FrameQueue is a bounded single-producer/single-consumer FIFO of
// decoded frames. The producer blocks while the queue is full; the
// consumer never blocks. The mutex + condvar wake contracts live here
// rather than at each call site.
type FrameQueue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	frames   []*media.Frame
	capacity int
	closed   bool
}

// NewFrameQueue creates a queue with a fixed capacity.
func NewFrameQueue(capacity int) *FrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	q := &FrameQueue{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push appends a frame, blocking while the queue is at capacity. It
// returns ErrQueueClosed when the queue was closed, including while
// blocked waiting for room.
func (q *FrameQueue) Push(f *media.Frame) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.frames) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrQueueClosed
	}

	q.frames = append(q.frames, f)
	return nil
}

// Peek returns the front frame without removing it.
func (q *FrameQueue) Peek() (*media.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) == 0 {
		return nil, false
	}
	return q.frames[0], true
}

// Pop removes and returns the front frame without blocking.
func (q *FrameQueue) Pop() (*media.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) == 0 {
		return nil, false
	}
	f := q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]
	q.notFull.Signal()
	return f, true
}

// Len returns the current depth.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Cap returns the fixed capacity.
func (q *FrameQueue) Cap() int {
	return q.capacity
}

// Clear drops all queued frames, waking a blocked producer.
func (q *FrameQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.frames = nil
	q.notFull.Broadcast()
}

// Close marks the queue closed and wakes any blocked producer. Pops of
// frames queued before the close still succeed.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.notFull.Broadcast()
}
