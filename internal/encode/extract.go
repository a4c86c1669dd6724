package encode

import (
	lenserrors "github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/metrics"
)

// RetrieveBitstream copies the encoded bytes of the most recent frame
// out of the destination buffer. With valid feedback it returns exactly
// the reported range, clamped to the buffer. Without feedback it falls
// back to trimming trailing zeros, which is correct only because the
// buffer is cleared before each encode; a bitstream legitimately ending
// in zero bytes would be trimmed short, so the fallback is counted in
// metrics rather than silent.
func (s *Session) RetrieveBitstream() ([]byte, error) {
	if s.finalized {
		return nil, lenserrors.NewValidationError("encode session already finalized")
	}
	if s.state == cmdSubmitted || s.state == cmdRecording {
		return nil, lenserrors.NewInternalError("retrieve with a submission in flight")
	}
	if !s.encoded {
		return nil, lenserrors.NewValidationError("no frame encoded yet")
	}

	mem, err := s.bitstream.Map()
	if err != nil {
		return nil, lenserrors.WrapInternalError(err, "map bitstream buffer")
	}
	defer s.bitstream.Unmap()

	if err := s.bitstream.Invalidate(0, s.bitstream.Size()); err != nil {
		return nil, lenserrors.WrapInternalError(err, "invalidate bitstream memory")
	}

	var start, end int
	if s.feedback.BytesWritten > 0 {
		// Clamp offset and length separately; summing first could wrap
		// on hostile feedback values and leave end before start.
		start = clamp(s.feedback.Offset, len(mem))
		end = start + clamp(s.feedback.BytesWritten, len(mem)-start)
	} else {
		end = lastNonZero(mem) + 1
		metrics.IncFeedbackFallback(s.id)
		s.log.WithField("bytes", end).Debug("No encode feedback, trimmed trailing zeros")
	}

	out := make([]byte, end-start)
	copy(out, mem[start:end])
	metrics.AddBitstreamBytes(s.id, len(out))
	return out, nil
}

func clamp(v uint64, limit int) int {
	if v > uint64(limit) {
		return limit
	}
	return int(v)
}

// lastNonZero returns the index of the last nonzero byte, or -1.
func lastNonZero(b []byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0 {
			return i
		}
	}
	return -1
}
