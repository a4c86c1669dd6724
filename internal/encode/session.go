// Package encode owns hardware encode sessions: resource lifecycle,
// per-frame command building, and bitstream extraction.
package encode

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zsiec/lens/internal/config"
	lenserrors "github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/gpu"
	"github.com/zsiec/lens/internal/logger"
	"github.com/zsiec/lens/internal/media"
	"github.com/zsiec/lens/internal/metrics"
)

// commandState tracks the submission context through its legal
// Begin/record/End/Submit sequence. A submission whose fence never
// signaled stays in cmdSubmitted; the next EncodeFrame re-enters the
// bounded wait on it before recording anything new.
type commandState int

const (
	cmdIdle commandState = iota
	cmdRecording
	cmdSubmitted
)

// dpbSlot is one reference picture with its codec-facing view.
type dpbSlot struct {
	image gpu.Image
	view  gpu.ImageView
}

// Session is one hardware encode session. It owns the video session,
// parameter object, DPB images, bitstream destination buffer, and the
// reusable submission context. Methods are not safe for concurrent use.
type Session struct {
	id     string
	dev    gpu.Device
	cfg    config.EncodeConfig
	codec  media.CodecType
	extent gpu.Extent
	log    logger.Logger

	session gpu.VideoSession
	params  gpu.SessionParameters
	dpb     []dpbSlot
	ring    dpbRing

	bitstream gpu.Buffer
	cmd       gpu.CommandContext
	fence     gpu.Fence
	query     gpu.QueryPool

	state     commandState
	frameNum  uint32
	feedback  gpu.FeedbackResult
	encoded   bool // at least one frame submitted
	finalized bool
}

// NewSession creates an encode session for frames of the given extent.
// Resource creation is all-or-nothing: on failure everything already
// created is destroyed before returning.
func NewSession(dev gpu.Device, cfg config.EncodeConfig, extent gpu.Extent, log logger.Logger) (*Session, error) {
	codec, err := media.ParseCodec(cfg.Codec)
	if err != nil {
		return nil, lenserrors.NewValidationError(fmt.Sprintf("encode codec: %v", err))
	}
	if extent.Width == 0 || extent.Height == 0 {
		return nil, lenserrors.NewValidationError("encode extent must be nonzero")
	}

	id := uuid.New().String()
	s := &Session{
		id:     id,
		dev:    dev,
		cfg:    cfg,
		codec:  codec,
		extent: extent,
		ring:   newDPBRing(cfg.DPBSlots),
		log:    log.WithField("component", "encode").WithField("session_id", id),
	}

	sessionCfg := gpu.SessionConfig{Codec: codec, Extent: extent, DPBSlots: cfg.DPBSlots}

	s.session, err = dev.CreateVideoSession(sessionCfg)
	if err != nil {
		return nil, lenserrors.WrapInternalError(err, "create video session")
	}
	s.params, err = dev.CreateSessionParameters(s.session, sessionCfg)
	if err != nil {
		s.destroyResources()
		return nil, lenserrors.WrapInternalError(err, "create session parameters")
	}

	for i := 0; i < cfg.DPBSlots; i++ {
		img, err := dev.CreateImage(gpu.ImageSpec{
			Extent: extent,
			Format: media.PixelFormatNV12,
			Usage:  gpu.UsageEncodeDPB,
		})
		if err != nil {
			s.destroyResources()
			return nil, lenserrors.WrapInternalError(err, fmt.Sprintf("create dpb image %d", i))
		}
		view, err := dev.CreateImageView(img)
		if err != nil {
			img.Destroy()
			s.destroyResources()
			return nil, lenserrors.WrapInternalError(err, fmt.Sprintf("create dpb view %d", i))
		}
		s.dpb = append(s.dpb, dpbSlot{image: img, view: view})
	}

	s.bitstream, err = dev.CreateBuffer(uint64(cfg.BitstreamCapacity), gpu.BufferUsageBitstream)
	if err != nil {
		s.destroyResources()
		return nil, lenserrors.WrapInternalError(err, "create bitstream buffer")
	}

	s.cmd, err = dev.CreateCommandContext(dev.EncodeQueueFamily())
	if err != nil {
		s.destroyResources()
		return nil, lenserrors.WrapInternalError(err, "create command context")
	}
	s.fence, err = dev.CreateFence()
	if err != nil {
		s.destroyResources()
		return nil, lenserrors.WrapInternalError(err, "create fence")
	}
	s.query, err = dev.CreateQueryPool()
	if err != nil {
		s.destroyResources()
		return nil, lenserrors.WrapInternalError(err, "create query pool")
	}

	metrics.IncSessionsActive("encode")
	s.log.WithFields(map[string]interface{}{
		"codec":     codec.String(),
		"width":     extent.Width,
		"height":    extent.Height,
		"dpb_slots": cfg.DPBSlots,
	}).Info("Encode session created")

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// FrameCount returns how many frames have been submitted.
func (s *Session) FrameCount() uint32 { return s.frameNum }

// Finalize destroys every session resource. It is idempotent. Resources
// are released in reverse dependency order so nothing is destroyed
// while something referencing it still exists.
func (s *Session) Finalize() {
	if s.finalized {
		return
	}
	s.finalized = true

	// A submission that never completed leaves the GPU owning the
	// resources; give it one last bounded wait before teardown.
	if s.state == cmdSubmitted {
		s.fence.Wait(s.cfg.FenceTimeout)
	}

	s.destroyResources()
	metrics.DecSessionsActive("encode")
	s.log.WithField("frames_encoded", s.frameNum).Info("Encode session finalized")
}

func (s *Session) destroyResources() {
	if s.query != nil {
		s.query.Destroy()
		s.query = nil
	}
	if s.fence != nil {
		s.fence.Destroy()
		s.fence = nil
	}
	if s.cmd != nil {
		s.cmd.Destroy()
		s.cmd = nil
	}
	if s.bitstream != nil {
		s.bitstream.Destroy()
		s.bitstream = nil
	}
	for i := len(s.dpb) - 1; i >= 0; i-- {
		s.dpb[i].view.Destroy()
		s.dpb[i].image.Destroy()
	}
	s.dpb = nil
	if s.params != nil {
		s.params.Destroy()
		s.params = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
}
