// Package gpu defines the device capability surface the decode/encode
// core consumes from the rendering collaborator. It is constructed once
// at startup and passed by reference to every component that needs it,
// so there is no hidden global entry-point state and tests can
// substitute a counting fake.
package gpu

import (
	"errors"
	"time"

	"github.com/zsiec/lens/internal/media"
)

var (
	// ErrFenceTimeout indicates a fence wait expired before the GPU
	// signaled completion.
	ErrFenceTimeout = errors.New("fence wait timed out")

	// ErrNotReady indicates query results are not yet available.
	ErrNotReady = errors.New("query results not ready")
)

// Extent is a 2D image size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// ImageLayout identifies an image's current layout.
type ImageLayout int

const (
	LayoutUndefined ImageLayout = iota
	LayoutGeneral
	LayoutTransferSrc
	LayoutTransferDst
	LayoutEncodeSrc // hardware-encode source
	LayoutEncodeDPB // reference picture
	LayoutDecodeDst
)

// ImageUsage is a bitmask of intended image uses.
type ImageUsage uint32

const (
	UsageTransferSrc ImageUsage = 1 << iota
	UsageTransferDst
	UsageEncodeSrc
	UsageEncodeDPB
	UsageDecodeDst
)

// BufferUsage is a bitmask of intended buffer uses.
type BufferUsage uint32

const (
	BufferUsageBitstream BufferUsage = 1 << iota
	BufferUsageTransfer
)

// Access identifies the access scope of a buffer barrier.
type Access int

const (
	AccessEncodeWrite Access = iota
	AccessHostRead
)

// ImageSpec describes an image to allocate.
type ImageSpec struct {
	Extent Extent
	Format media.PixelFormat
	Usage  ImageUsage
}

// SessionConfig describes a hardware video-coding session.
type SessionConfig struct {
	Codec    media.CodecType
	Extent   Extent
	DPBSlots int
}

// Image is a device image together with its backing memory.
type Image interface {
	Extent() Extent
	Destroy()
}

// ImageView is a view over an image, used for per-plane access where the
// codec requires it.
type ImageView interface {
	Destroy()
}

// Buffer is a device buffer. Bitstream destination buffers are
// host-visible and support mapping.
type Buffer interface {
	Size() uint64
	// Map exposes the buffer's host-visible memory. The returned slice
	// stays valid until Unmap.
	Map() ([]byte, error)
	Unmap()
	// Invalidate makes device writes in the given range visible to the
	// host. Must be called between the fence wait and the host read.
	Invalidate(offset, size uint64) error
	Destroy()
}

// Fence is a GPU completion fence.
type Fence interface {
	// Wait blocks until the fence signals or the timeout expires, in
	// which case it returns ErrFenceTimeout.
	Wait(timeout time.Duration) error
	Reset() error
	Destroy()
}

// FeedbackResult is the hardware-reported location of encoded bytes in
// the destination buffer.
type FeedbackResult struct {
	Offset       uint64
	BytesWritten uint64
}

// QueryPool holds the encode feedback query.
type QueryPool interface {
	// Results returns the most recent feedback, or ErrNotReady when the
	// query has not completed.
	Results() (FeedbackResult, error)
	Destroy()
}

// VideoSession is a hardware video-coding session handle.
type VideoSession interface {
	Destroy()
}

// SessionParameters is the codec parameter object bound to a session.
type SessionParameters interface {
	Destroy()
}

// ImageBarrier describes a layout and, when the queue families differ,
// ownership transition for an image.
type ImageBarrier struct {
	Image          Image
	OldLayout      ImageLayout
	NewLayout      ImageLayout
	SrcQueueFamily uint32
	DstQueueFamily uint32
}

// BufferBarrier orders encode writes against host reads.
type BufferBarrier struct {
	Buffer    Buffer
	SrcAccess Access
	DstAccess Access
}

// ReferenceSlot names one DPB slot used by an encode operation.
type ReferenceSlot struct {
	Index int32
	Image Image
	View  ImageView
}

// PictureInfo is the codec-specific picture description for one encode
// operation. Frames are always marked independently decodable.
type PictureInfo struct {
	Codec     media.CodecType
	FrameNum  uint32
	IDR       bool
	IntraOnly bool
}

// EncodeOp records one video encode operation.
type EncodeOp struct {
	Session    VideoSession
	Parameters SessionParameters

	Source       Image
	SourceExtent Extent

	Dst       Buffer
	DstOffset uint64

	// Query, when non-nil, tags the operation with the feedback query.
	Query QueryPool

	Picture PictureInfo
	Setup   ReferenceSlot
}

// CommandContext is a reusable command-recording context. Callers must
// follow Begin, record, End, Submit; the encode command builder guards
// this with an explicit state machine.
type CommandContext interface {
	Begin() error
	ImageBarrier(b ImageBarrier)
	BufferBarrier(b BufferBarrier)
	ResetQuery(q QueryPool)
	Encode(op EncodeOp)
	End() error
	// Submit enqueues the recorded commands and associates fence with
	// their completion.
	Submit(fence Fence) error
	Destroy()
}

// Device is the capability object the rendering collaborator provides.
type Device interface {
	DecodeQueueFamily() uint32
	EncodeQueueFamily() uint32

	CreateImage(spec ImageSpec) (Image, error)
	CreateImageView(img Image) (ImageView, error)
	CreateBuffer(size uint64, usage BufferUsage) (Buffer, error)
	CreateFence() (Fence, error)
	CreateQueryPool() (QueryPool, error)
	CreateCommandContext(queueFamily uint32) (CommandContext, error)

	CreateVideoSession(cfg SessionConfig) (VideoSession, error)
	CreateSessionParameters(s VideoSession, cfg SessionConfig) (SessionParameters, error)

	// DownloadImage copies a device-resident decoded image into
	// host-accessible plane buffers.
	DownloadImage(img Image) ([][]byte, error)
}
