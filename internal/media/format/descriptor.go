// Package format derives the internal frame layout used by the decode
// pipeline from a stream's native pixel format.
package format

import (
	"sync/atomic"

	"github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/media"
)

// ChromaLayout tags how chroma samples are stored.
type ChromaLayout int

const (
	// ChromaInterleaved stores both chroma components in one plane (NV12/P010).
	ChromaInterleaved ChromaLayout = iota
	// ChromaPlanar stores the two chroma components in separate planes.
	ChromaPlanar
)

// String returns the layout name.
func (c ChromaLayout) String() string {
	if c == ChromaInterleaved {
		return "interleaved"
	}
	return "planar"
}

// Descriptor is the negotiated frame layout. It is an immutable value:
// on a mid-stream format change a fresh Descriptor is built and swapped
// into the Store, so no reader ever observes a partial update.
type Descriptor struct {
	Width  int
	Height int

	PixelFormat       media.PixelFormat
	BitDepth          int
	BytesPerComponent int // 1 or 2
	ChromaDivX        int
	ChromaDivY        int
	Layout            ChromaLayout

	// Derived plane byte sizes, always computed together.
	LumaBytes        int
	ChromaPlaneBytes int // size of one stored chroma plane
	ChromaPlanes     int // stored chroma plane count (1 interleaved, 2 planar)
	TotalBytes       int
}

// Negotiate builds a Descriptor for the given native format and frame
// size. Unsupported formats produce a typed FORMAT_ERROR naming the tag;
// callers must treat that as fatal for the stream.
func Negotiate(native media.PixelFormat, width, height int) (*Descriptor, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.NewValidationError("frame dimensions must be positive")
	}

	d := &Descriptor{
		Width:       width,
		Height:      height,
		PixelFormat: native,
	}

	switch native {
	case media.PixelFormatNV12:
		d.BitDepth = 8
		d.ChromaDivX, d.ChromaDivY = 2, 2
		d.Layout = ChromaInterleaved
	case media.PixelFormatP010:
		d.BitDepth = 10
		d.ChromaDivX, d.ChromaDivY = 2, 2
		d.Layout = ChromaInterleaved
	case media.PixelFormatYUV420P:
		d.BitDepth = 8
		d.ChromaDivX, d.ChromaDivY = 2, 2
		d.Layout = ChromaPlanar
	case media.PixelFormatYUV420P10:
		d.BitDepth = 10
		d.ChromaDivX, d.ChromaDivY = 2, 2
		d.Layout = ChromaPlanar
	default:
		return nil, errors.NewFormatError("unsupported native pixel format: " + native.String()).
			WithDetails(map[string]interface{}{
				"native_format": native.String(),
				"width":         width,
				"height":        height,
			})
	}

	// Components wider than 8 bits are stored as 16 bits each.
	d.BytesPerComponent = 1
	if d.BitDepth > 8 {
		d.BytesPerComponent = 2
	}

	d.recomputePlaneSizes()
	return d, nil
}

// recomputePlaneSizes fills all derived sizes in one step.
func (d *Descriptor) recomputePlaneSizes() {
	cw := ceilDiv(d.Width, d.ChromaDivX)
	ch := ceilDiv(d.Height, d.ChromaDivY)

	d.LumaBytes = d.Width * d.Height * d.BytesPerComponent

	if d.Layout == ChromaInterleaved {
		d.ChromaPlanes = 1
		d.ChromaPlaneBytes = cw * ch * d.BytesPerComponent * 2
	} else {
		d.ChromaPlanes = 2
		d.ChromaPlaneBytes = cw * ch * d.BytesPerComponent
	}

	d.TotalBytes = d.LumaBytes + d.ChromaPlanes*d.ChromaPlaneBytes
}

// PlaneSizes returns the byte size of each stored plane, luma first.
func (d *Descriptor) PlaneSizes() []int {
	sizes := make([]int, 1+d.ChromaPlanes)
	sizes[0] = d.LumaBytes
	for i := 1; i < len(sizes); i++ {
		sizes[i] = d.ChromaPlaneBytes
	}
	return sizes
}

// ChromaWidth returns the chroma plane width in samples.
func (d *Descriptor) ChromaWidth() int {
	return ceilDiv(d.Width, d.ChromaDivX)
}

// ChromaHeight returns the chroma plane height in samples.
func (d *Descriptor) ChromaHeight() int {
	return ceilDiv(d.Height, d.ChromaDivY)
}

// Matches reports whether a frame with the given geometry and native
// format still fits this descriptor.
func (d *Descriptor) Matches(native media.PixelFormat, width, height int) bool {
	return d.PixelFormat == native && d.Width == width && d.Height == height
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Store holds the current Descriptor behind an atomic pointer. Writers
// swap whole values; readers always see a complete descriptor.
type Store struct {
	ptr atomic.Pointer[Descriptor]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Load returns the current descriptor, or nil before first negotiation.
func (s *Store) Load() *Descriptor {
	return s.ptr.Load()
}

// Swap replaces the current descriptor.
func (s *Store) Swap(d *Descriptor) {
	s.ptr.Store(d)
}
