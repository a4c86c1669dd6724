package media

// PixelFormat is the native pixel format tag reported by a decode engine.
type PixelFormat string

const (
	PixelFormatUnknown   PixelFormat = ""
	PixelFormatYUV420P   PixelFormat = "yuv420p"   // 8-bit planar, separate chroma planes
	PixelFormatYUV420P10 PixelFormat = "yuv420p10" // 10-bit planar, 16 bits per component
	PixelFormatNV12      PixelFormat = "nv12"      // 8-bit, interleaved chroma plane
	PixelFormatP010      PixelFormat = "p010"      // 10-bit, interleaved chroma plane
)

// String returns the format tag.
func (p PixelFormat) String() string {
	if p == PixelFormatUnknown {
		return "unknown"
	}
	return string(p)
}

// BitDepth returns the per-component bit depth of the format, or 0 for
// unknown formats.
func (p PixelFormat) BitDepth() int {
	switch p {
	case PixelFormatYUV420P, PixelFormatNV12:
		return 8
	case PixelFormatYUV420P10, PixelFormatP010:
		return 10
	default:
		return 0
	}
}

// InterleavedChroma reports whether the format stores both chroma
// components in a single plane.
func (p PixelFormat) InterleavedChroma() bool {
	return p == PixelFormatNV12 || p == PixelFormatP010
}
