package worker

import (
	"sync"

	"github.com/zsiec/lens/internal/decode"
	"github.com/zsiec/lens/internal/logger"
	"github.com/zsiec/lens/internal/metrics"
)

// Worker runs the decode loop on one background goroutine, pushing
// frames into a bounded queue until the stream ends or Stop is called.
type Worker struct {
	sessionID string
	decoder   *decode.Decoder
	log       logger.Logger

	mu      sync.Mutex
	running bool
	queue   *FrameQueue
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a stopped worker over a decoder.
func New(sessionID string, decoder *decode.Decoder, log logger.Logger) *Worker {
	return &Worker{
		sessionID: sessionID,
		decoder:   decoder,
		log:       log.WithField("component", "decode_worker"),
	}
}

// Start spawns the decode goroutine with a fresh queue of the given
// capacity. Calling Start while running is a no-op returning success.
func (w *Worker) Start(queueCapacity int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.queue = NewFrameQueue(queueCapacity)
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true
	metrics.SetQueueCapacity(w.sessionID, w.queue.Cap())

	go w.loop(w.queue, w.stopCh, w.done)

	w.log.WithField("queue_capacity", queueCapacity).Debug("Decode worker started")
	return nil
}

// Stop signals the loop, wakes any blocked queue wait, and joins the
// goroutine. After Stop returns no further queue mutation occurs.
// Stopping a stopped worker is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	queue, stopCh, done := w.queue, w.stopCh, w.done
	w.mu.Unlock()

	close(stopCh)
	queue.Close()
	<-done

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.log.Debug("Decode worker stopped")
}

// Running reports whether the decode goroutine is alive.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Queue returns the queue of the current run, or nil before the first
// Start.
func (w *Worker) Queue() *FrameQueue {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue
}

// maxConsecutiveFailures bounds how long the loop retries a decoder
// that fails on every call before treating the stream as unrecoverable.
const maxConsecutiveFailures = 100

func (w *Worker) loop(queue *FrameQueue, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	failures := 0
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		frame, err := w.decoder.DecodeNext()
		if err != nil {
			// Decoder already logged and classified it; transient
			// failures skip the frame, the loop continues.
			failures++
			if failures >= maxConsecutiveFailures {
				w.log.WithError(err).Error("Decode failing persistently, treating stream as unrecoverable")
				return
			}
			continue
		}
		failures = 0
		if frame == nil {
			w.log.Debug("Stream exhausted, decode worker exiting")
			return
		}

		if err := queue.Push(frame); err != nil {
			// Queue closed by a stop request.
			return
		}
		metrics.SetQueueDepth(w.sessionID, queue.Len())
	}
}
