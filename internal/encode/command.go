package encode

import (
	"fmt"
	"time"

	lenserrors "github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/gpu"
	"github.com/zsiec/lens/internal/metrics"
)

// EncodeFrame records and submits one encode operation for a source
// image, waits for its completion, and captures the feedback query. It
// returns the DPB slot used as the setup reference. Every frame is
// encoded independently decodable.
//
// The source image arrives in srcLayout, owned by srcQueueFamily; the
// recorded barrier acquires it for the encode queue. The caller gets it
// back in the encode-source layout.
//
// A GPU_SYNC failure is fatal for that frame only. The submission stays
// pending; the next call re-enters the bounded fence wait on it, so the
// caller decides whether a hung device warrants abandoning the session.
func (s *Session) EncodeFrame(source gpu.Image, srcLayout gpu.ImageLayout, srcQueueFamily uint32) (int, error) {
	if s.finalized {
		return 0, lenserrors.NewValidationError("encode session already finalized")
	}
	switch s.state {
	case cmdRecording:
		return 0, lenserrors.NewInternalError("encode submission in illegal state")
	case cmdSubmitted:
		if err := s.waitSubmission(); err != nil {
			return 0, err
		}
		// The previous frame completed late; finish its bookkeeping
		// before recording the new one.
		s.captureFeedback()
		s.frameNum++
		s.encoded = true
	}
	if source == nil {
		return 0, lenserrors.NewValidationError("encode source image is nil")
	}
	if ext := source.Extent(); ext != s.extent {
		return 0, lenserrors.NewValidationError(fmt.Sprintf(
			"source extent %dx%d does not match session %dx%d",
			ext.Width, ext.Height, s.extent.Width, s.extent.Height))
	}

	// Stale output from the previous frame must never masquerade as this
	// frame's bitstream, so the destination is cleared first. This also
	// makes the trailing-zero extraction fallback well defined.
	if err := s.zeroBitstream(); err != nil {
		return 0, err
	}

	slot := s.ring.next()
	ref := s.dpb[slot]

	if err := s.cmd.Begin(); err != nil {
		return 0, lenserrors.WrapInternalError(err, "begin command recording")
	}
	s.state = cmdRecording

	s.cmd.ResetQuery(s.query)

	s.cmd.ImageBarrier(gpu.ImageBarrier{
		Image:          source,
		OldLayout:      srcLayout,
		NewLayout:      gpu.LayoutEncodeSrc,
		SrcQueueFamily: srcQueueFamily,
		DstQueueFamily: s.dev.EncodeQueueFamily(),
	})
	s.cmd.ImageBarrier(gpu.ImageBarrier{
		Image:          ref.image,
		OldLayout:      gpu.LayoutUndefined,
		NewLayout:      gpu.LayoutEncodeDPB,
		SrcQueueFamily: s.dev.EncodeQueueFamily(),
		DstQueueFamily: s.dev.EncodeQueueFamily(),
	})

	s.cmd.Encode(gpu.EncodeOp{
		Session:      s.session,
		Parameters:   s.params,
		Source:       source,
		SourceExtent: s.extent,
		Dst:          s.bitstream,
		DstOffset:    0,
		Query:        s.query,
		Picture: gpu.PictureInfo{
			Codec:     s.codec,
			FrameNum:  s.frameNum,
			IDR:       s.frameNum == 0,
			IntraOnly: true,
		},
		Setup: gpu.ReferenceSlot{
			Index: int32(slot),
			Image: ref.image,
			View:  ref.view,
		},
	})

	s.cmd.BufferBarrier(gpu.BufferBarrier{
		Buffer:    s.bitstream,
		SrcAccess: gpu.AccessEncodeWrite,
		DstAccess: gpu.AccessHostRead,
	})

	if err := s.cmd.End(); err != nil {
		s.state = cmdIdle
		return 0, lenserrors.WrapInternalError(err, "end command recording")
	}
	if err := s.cmd.Submit(s.fence); err != nil {
		s.state = cmdIdle
		return 0, lenserrors.WrapInternalError(err, "submit encode commands")
	}
	s.state = cmdSubmitted
	metrics.IncEncodeSubmission(s.id)

	if err := s.waitSubmission(); err != nil {
		return 0, err
	}

	s.captureFeedback()
	s.frameNum++
	s.encoded = true

	return slot, nil
}

// zeroBitstream clears the host-visible destination buffer.
func (s *Session) zeroBitstream() error {
	mem, err := s.bitstream.Map()
	if err != nil {
		return lenserrors.WrapInternalError(err, "map bitstream buffer")
	}
	for i := range mem {
		mem[i] = 0
	}
	s.bitstream.Unmap()
	return nil
}

// waitSubmission blocks on the fence with a bounded number of timeout
// retries. On failure the state stays cmdSubmitted and the fence stays
// pending, so a later call can wait on it again once the device makes
// progress.
func (s *Session) waitSubmission() error {
	start := time.Now()
	var err error
	for attempt := 0; attempt <= s.cfg.FenceRetries; attempt++ {
		err = s.fence.Wait(s.cfg.FenceTimeout)
		if err == nil {
			break
		}
		if err != gpu.ErrFenceTimeout {
			return lenserrors.NewGPUSyncError(err, "fence wait")
		}
		metrics.IncFenceTimeout(s.id)
		s.log.WithField("attempt", attempt+1).Warn("Encode fence wait timed out")
	}
	if err != nil {
		return lenserrors.NewGPUSyncError(err, fmt.Sprintf("fence not signaled after %d waits", s.cfg.FenceRetries+1))
	}
	metrics.ObserveFenceWait(s.id, time.Since(start))

	if err := s.fence.Reset(); err != nil {
		return lenserrors.NewGPUSyncError(err, "fence reset")
	}
	s.state = cmdIdle
	return nil
}

// captureFeedback reads the encode feedback query. Missing results are
// recorded as zeros; extraction then falls back to trailing-zero
// trimming.
func (s *Session) captureFeedback() {
	result, err := s.query.Results()
	if err != nil {
		if err != gpu.ErrNotReady {
			s.log.WithError(err).Warn("Encode feedback query failed")
		}
		s.feedback = gpu.FeedbackResult{}
		return
	}
	s.feedback = result
}
