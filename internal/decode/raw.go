package decode

import (
	"fmt"

	"github.com/zsiec/lens/internal/demux"
	"github.com/zsiec/lens/internal/media"
	"github.com/zsiec/lens/internal/media/format"
)

// rawEngine passes uncompressed planar frames through unchanged. It
// holds at most one pending packet, so it exercises the same ErrAgain
// backpressure a real codec does.
type rawEngine struct {
	params   demux.VideoParams
	desc     *format.Descriptor
	pending  *media.Packet
	draining bool
	closed   bool
}

func newRawEngine(params demux.VideoParams) (Engine, error) {
	desc, err := format.Negotiate(params.PixelFormat, params.Width, params.Height)
	if err != nil {
		return nil, err
	}
	return &rawEngine{params: params, desc: desc}, nil
}

// SendPacket implements Engine.
func (e *rawEngine) SendPacket(pkt *media.Packet) error {
	if e.closed {
		return fmt.Errorf("engine closed")
	}
	if e.draining {
		return fmt.Errorf("send after drain")
	}
	if e.pending != nil {
		return ErrAgain
	}
	e.pending = pkt
	return nil
}

// Drain implements Engine.
func (e *rawEngine) Drain() error {
	e.draining = true
	return nil
}

// ReceiveFrame implements Engine.
func (e *rawEngine) ReceiveFrame() (*NativeFrame, error) {
	if e.closed {
		return nil, fmt.Errorf("engine closed")
	}
	if e.pending == nil {
		if e.draining {
			return nil, ErrEndOfStream
		}
		return nil, ErrAgain
	}

	pkt := e.pending
	e.pending = nil

	if len(pkt.Data) < e.desc.TotalBytes {
		return nil, fmt.Errorf("short raw frame: %d bytes, want %d", len(pkt.Data), e.desc.TotalBytes)
	}

	// Split the packet into planes without copying; the decoder owns
	// the copy into the output frame.
	sizes := e.desc.PlaneSizes()
	planes := make([][]byte, len(sizes))
	offset := 0
	for i, size := range sizes {
		planes[i] = pkt.Data[offset : offset+size]
		offset += size
	}

	return &NativeFrame{
		Format: e.params.PixelFormat,
		Width:  e.params.Width,
		Height: e.params.Height,
		Planes: planes,
		PTS:    pkt.PTS,
		HasPTS: pkt.HasPTS,
	}, nil
}

// HardwareAccelerated implements Engine.
func (e *rawEngine) HardwareAccelerated() bool {
	return false
}

// Close implements Engine.
func (e *rawEngine) Close() error {
	e.closed = true
	e.pending = nil
	return nil
}
