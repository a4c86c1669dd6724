package metrics

import "time"

// Decode pipeline wrappers.

// IncFramesDecoded increments the decoded frame counter.
func IncFramesDecoded(sessionID string) {
	framesDecodedTotal.WithLabelValues(sessionID).Inc()
}

// IncDecodeError increments the decode error counter.
func IncDecodeError(sessionID, errorType string) {
	decodeErrorsTotal.WithLabelValues(sessionID, errorType).Inc()
}

// IncFormatRenegotiation counts a mid-stream format change.
func IncFormatRenegotiation(sessionID string) {
	formatRenegotiationsTotal.WithLabelValues(sessionID).Inc()
}

// SetQueueDepth records the current frame queue depth.
func SetQueueDepth(sessionID string, depth int) {
	decodeQueueDepth.WithLabelValues(sessionID).Set(float64(depth))
}

// SetQueueCapacity records the frame queue capacity.
func SetQueueCapacity(sessionID string, capacity int) {
	decodeQueueCapacity.WithLabelValues(sessionID).Set(float64(capacity))
}

// Playback wrappers.

// IncFramesPresented counts a frame released to presentation.
func IncFramesPresented(sessionID string) {
	framesPresentedTotal.WithLabelValues(sessionID).Inc()
}

// SetPlaybackPosition records the current relative playback time.
func SetPlaybackPosition(sessionID string, seconds float64) {
	playbackPositionSeconds.WithLabelValues(sessionID).Set(seconds)
}

// IncSeek counts a seek operation with its outcome.
func IncSeek(sessionID, result string) {
	seeksTotal.WithLabelValues(sessionID, result).Inc()
}

// Encode wrappers.

// IncEncodeSubmission counts an encode submission.
func IncEncodeSubmission(sessionID string) {
	encodeSubmissionsTotal.WithLabelValues(sessionID).Inc()
}

// ObserveFenceWait records time spent waiting on an encode fence.
func ObserveFenceWait(sessionID string, d time.Duration) {
	encodeFenceWaitSeconds.WithLabelValues(sessionID).Observe(d.Seconds())
}

// IncFenceTimeout counts a fence wait timeout.
func IncFenceTimeout(sessionID string) {
	encodeFenceTimeoutsTotal.WithLabelValues(sessionID).Inc()
}

// AddBitstreamBytes counts extracted bitstream bytes.
func AddBitstreamBytes(sessionID string, n int) {
	bitstreamBytesTotal.WithLabelValues(sessionID).Add(float64(n))
}

// IncFeedbackFallback counts a trailing-zero-trim extraction.
func IncFeedbackFallback(sessionID string) {
	feedbackFallbackTotal.WithLabelValues(sessionID).Inc()
}

// Session lifecycle wrappers.

// IncSessionsActive increments the active session gauge for a kind
// ("playback" or "encode").
func IncSessionsActive(kind string) {
	sessionsActive.WithLabelValues(kind).Inc()
}

// DecSessionsActive decrements the active session gauge.
func DecSessionsActive(kind string) {
	sessionsActive.WithLabelValues(kind).Dec()
}
