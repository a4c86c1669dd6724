package decode

import (
	"io"
	"time"

	"github.com/zsiec/lens/internal/demux"
	lenserrors "github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/gpu"
	"github.com/zsiec/lens/internal/logger"
	"github.com/zsiec/lens/internal/media"
	"github.com/zsiec/lens/internal/media/format"
	"github.com/zsiec/lens/internal/metrics"
)

// state tracks the decoder lifecycle. Finished is terminal; seeking is
// modeled as building a fresh decoder, not as a transition.
type state int

const (
	stateActive state = iota
	stateDraining
	stateFinished
)

// Decoder pulls packets from a source, drives the engine, and produces
// one decoded frame per DecodeNext call.
type Decoder struct {
	sessionID string
	src       demux.Source
	engine    Engine
	dev       gpu.Device // used to download device-resident frames
	store     *format.Store

	state       state
	lastPTS     float64
	havePTS     bool
	fallbackFPS float64

	log       logger.Logger
	throttled *logger.ThrottledLogger
}

// NewDecoder creates a decoder over an open source and engine. The
// format store is shared with downstream consumers; dev may be nil when
// the engine is not hardware accelerated.
func NewDecoder(sessionID string, src demux.Source, engine Engine, dev gpu.Device, store *format.Store, fallbackFPS float64, log logger.Logger) *Decoder {
	if fallbackFPS <= 0 {
		fallbackFPS = 30
	}
	if fps := src.Params().FrameRate.Float64(); fps > 0 {
		fallbackFPS = fps
	}

	return &Decoder{
		sessionID:   sessionID,
		src:         src,
		engine:      engine,
		dev:         dev,
		store:       store,
		fallbackFPS: fallbackFPS,
		log:         log.WithField("component", "decoder"),
		throttled: logger.NewThrottledLogger(log).
			WithCategory("decode_error", 5*time.Second, 1),
	}
}

// Finished reports whether the decoder reached end of stream.
func (d *Decoder) Finished() bool {
	return d.state == stateFinished
}

// DecodeNext produces the next decoded frame. It returns (nil, nil)
// once the stream is exhausted; after that the decoder stays finished.
// Transient failures return a typed DECODE_ERROR and the caller may
// call again.
func (d *Decoder) DecodeNext() (*media.Frame, error) {
	if d.state == stateFinished {
		return nil, nil
	}

	for {
		if d.state == stateActive {
			if err := d.feed(); err != nil {
				return nil, err
			}
		}

		nf, err := d.engine.ReceiveFrame()
		switch {
		case err == ErrAgain:
			// Active: loop to feed more input. Draining: the engine is
			// still flushing, keep pulling.
			continue
		case err == ErrEndOfStream:
			d.state = stateFinished
			return nil, nil
		case err != nil:
			d.throttled.ErrorThrottled("decode_error", err, "transient decode failure", map[string]interface{}{
				"session_id": d.sessionID,
			})
			metrics.IncDecodeError(d.sessionID, string(lenserrors.ErrorTypeDecode))
			return nil, lenserrors.NewDecodeError(err, "receive frame")
		}

		frame, err := d.materialize(nf)
		if err != nil {
			return nil, err
		}
		metrics.IncFramesDecoded(d.sessionID)
		return frame, nil
	}
}

// feed pushes the next packet into the engine, or switches to draining
// at end of input. A full engine is not an error.
func (d *Decoder) feed() error {
	pkt, err := d.src.NextPacket()
	if err == io.EOF {
		if derr := d.engine.Drain(); derr != nil {
			return lenserrors.NewDecodeError(derr, "drain engine")
		}
		d.state = stateDraining
		return nil
	}
	if err != nil {
		d.throttled.ErrorThrottled("decode_error", err, "reading packet", map[string]interface{}{
			"session_id": d.sessionID,
		})
		metrics.IncDecodeError(d.sessionID, string(lenserrors.ErrorTypeDecode))
		return lenserrors.NewDecodeError(err, "next packet")
	}

	if err := d.engine.SendPacket(pkt); err != nil && err != ErrAgain {
		d.throttled.ErrorThrottled("decode_error", err, "sending packet", map[string]interface{}{
			"session_id": d.sessionID,
		})
		metrics.IncDecodeError(d.sessionID, string(lenserrors.ErrorTypeDecode))
		return lenserrors.NewDecodeError(err, "send packet")
	}
	return nil
}

// materialize downloads device frames, renegotiates the descriptor on a
// format change, copies planes into an owned buffer, and stamps the
// presentation time.
func (d *Decoder) materialize(nf *NativeFrame) (*media.Frame, error) {
	planes := nf.Planes
	if nf.Image != nil {
		if d.dev == nil {
			return nil, lenserrors.NewInternalError("device frame produced without a device")
		}
		downloaded, err := d.dev.DownloadImage(nf.Image)
		if err != nil {
			metrics.IncDecodeError(d.sessionID, string(lenserrors.ErrorTypeDecode))
			return nil, lenserrors.NewDecodeError(err, "download device frame")
		}
		planes = downloaded
	}

	desc := d.store.Load()
	if desc == nil || !desc.Matches(nf.Format, nf.Width, nf.Height) {
		fresh, err := format.Negotiate(nf.Format, nf.Width, nf.Height)
		if err != nil {
			// Unsupported format is fatal for the stream.
			return nil, err
		}
		if desc != nil {
			d.log.WithFields(map[string]interface{}{
				"old_format": desc.PixelFormat.String(),
				"new_format": fresh.PixelFormat.String(),
				"width":      fresh.Width,
				"height":     fresh.Height,
			}).Info("Stream format changed, renegotiated descriptor")
			metrics.IncFormatRenegotiation(d.sessionID)
		}
		d.store.Swap(fresh)
		desc = fresh
	}

	data, err := copyPlanes(desc, planes, nf.Strides)
	if err != nil {
		metrics.IncDecodeError(d.sessionID, string(lenserrors.ErrorTypeDecode))
		return nil, lenserrors.NewDecodeError(err, "copy planes")
	}

	return &media.Frame{
		Data:   data,
		PTS:    d.stampPTS(nf),
		Width:  desc.Width,
		Height: desc.Height,
	}, nil
}

// stampPTS prefers the engine-provided timestamp converted through the
// stream time base, synthesizing one frame interval otherwise.
func (d *Decoder) stampPTS(nf *NativeFrame) float64 {
	var pts float64
	if nf.HasPTS && d.src.Params().TimeBase.IsValid() {
		pts = d.src.Params().TimeBase.Seconds(nf.PTS)
	} else if d.havePTS {
		pts = d.lastPTS + 1/d.fallbackFPS
	}
	d.lastPTS = pts
	d.havePTS = true
	return pts
}
