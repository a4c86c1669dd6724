package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decode pipeline metrics
	framesDecodedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decode_frames_total",
		Help: "Total frames decoded per session",
	}, []string{"session_id"})

	decodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decode_errors_total",
		Help: "Total decode errors per session",
	}, []string{"session_id", "error_type"})

	formatRenegotiationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decode_format_renegotiations_total",
		Help: "Mid-stream pixel format or resolution changes",
	}, []string{"session_id"})

	decodeQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "decode_queue_depth",
		Help: "Current decoded frame queue depth",
	}, []string{"session_id"})

	decodeQueueCapacity = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "decode_queue_capacity",
		Help: "Decoded frame queue capacity",
	}, []string{"session_id"})

	// Playback metrics
	framesPresentedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_frames_presented_total",
		Help: "Frames released to the presentation collaborator",
	}, []string{"session_id"})

	playbackPositionSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "playback_position_seconds",
		Help: "Current playback position relative to stream start",
	}, []string{"session_id"})

	seeksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_seeks_total",
		Help: "Seek operations per session",
	}, []string{"session_id", "result"})

	// Encode metrics
	encodeSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "encode_submissions_total",
		Help: "Encode operations submitted per session",
	}, []string{"session_id"})

	encodeFenceWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "encode_fence_wait_seconds",
		Help:    "Time spent waiting on encode completion fences",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
	}, []string{"session_id"})

	encodeFenceTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "encode_fence_timeouts_total",
		Help: "Fence wait timeouts during encode",
	}, []string{"session_id"})

	bitstreamBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "encode_bitstream_bytes_total",
		Help: "Encoded bytes extracted per session",
	}, []string{"session_id"})

	feedbackFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "encode_feedback_fallback_total",
		Help: "Bitstream extractions that fell back to trailing-zero trimming",
	}, []string{"session_id"})

	sessionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sessions_active_total",
		Help: "Number of active sessions",
	}, []string{"kind"})
)
