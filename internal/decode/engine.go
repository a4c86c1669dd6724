// Package decode drives an underlying decode engine and materializes
// decoded frames laid out per the negotiated format descriptor.
package decode

import (
	"errors"
	"sync"

	"github.com/zsiec/lens/internal/demux"
	lenserrors "github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/gpu"
	"github.com/zsiec/lens/internal/media"
)

var (
	// ErrAgain means the engine needs more input (ReceiveFrame) or has
	// no room for more input (SendPacket).
	ErrAgain = errors.New("resource temporarily unavailable")

	// ErrEndOfStream means the engine has flushed its last frame.
	ErrEndOfStream = errors.New("end of stream")
)

// NativeFrame is one frame as the engine produced it, before plane copy.
type NativeFrame struct {
	Format media.PixelFormat
	Width  int
	Height int

	// Planes hold host-resident plane data when Image is nil.
	Planes  [][]byte
	Strides []int // bytes per row for each plane; 0 means tightly packed

	PTS    int64 // in the stream's time base
	HasPTS bool

	// Image is set instead of Planes when the engine decodes into
	// device-resident memory; the decoder downloads it before copying.
	Image gpu.Image
}

// Engine is the underlying decode engine, software or hardware. The
// send/receive contract mirrors the usual codec API: feed packets until
// ErrAgain, then pull frames until ErrAgain; after Drain, pull until
// ErrEndOfStream.
type Engine interface {
	SendPacket(pkt *media.Packet) error
	// Drain signals that no more input will arrive.
	Drain() error
	ReceiveFrame() (*NativeFrame, error)
	HardwareAccelerated() bool
	Close() error
}

// EngineFactory builds an engine for a stream. dev may be nil for
// software engines.
type EngineFactory func(params demux.VideoParams, dev gpu.Device) (Engine, error)

// Registry maps codecs to engine factories. It is an explicit
// dependency of the player rather than package-global state so tests
// can install fakes.
type Registry struct {
	mu        sync.RWMutex
	factories map[media.CodecType]EngineFactory
}

// NewRegistry creates a registry with the built-in raw engine installed.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[media.CodecType]EngineFactory)}
	r.Register(media.CodecRaw, func(params demux.VideoParams, _ gpu.Device) (Engine, error) {
		return newRawEngine(params)
	})
	return r
}

// Register installs a factory for a codec, replacing any previous one.
func (r *Registry) Register(codec media.CodecType, factory EngineFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[codec] = factory
}

// NewEngine builds an engine for the stream, or a typed UNAVAILABLE
// error when no factory handles the codec.
func (r *Registry) NewEngine(params demux.VideoParams, dev gpu.Device) (Engine, error) {
	r.mu.RLock()
	factory, ok := r.factories[params.Codec]
	r.mu.RUnlock()

	if !ok {
		return nil, lenserrors.NewUnavailableError("no decoder available for codec " + params.Codec.String())
	}
	return factory(params, dev)
}
