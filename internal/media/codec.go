package media

import "fmt"

// CodecType identifies a video codec.
type CodecType string

const (
	CodecUnknown CodecType = ""
	CodecH264    CodecType = "h264"
	CodecHEVC    CodecType = "hevc"
	CodecAV1     CodecType = "av1"
	CodecRaw     CodecType = "rawvideo" // uncompressed planar frames (y4m)
)

// String returns the codec name.
func (c CodecType) String() string {
	if c == CodecUnknown {
		return "unknown"
	}
	return string(c)
}

// ParseCodec parses a codec name.
func ParseCodec(s string) (CodecType, error) {
	switch s {
	case "h264", "avc":
		return CodecH264, nil
	case "hevc", "h265":
		return CodecHEVC, nil
	case "av1":
		return CodecAV1, nil
	case "rawvideo", "raw":
		return CodecRaw, nil
	default:
		return CodecUnknown, fmt.Errorf("unknown codec: %s", s)
	}
}
