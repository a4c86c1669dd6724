// Package demux turns container files into ordered compressed packets
// for the decode pipeline.
package demux

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/media"
)

// VideoParams describes the video stream a source produces.
type VideoParams struct {
	Codec       media.CodecType
	PixelFormat media.PixelFormat
	Width       int
	Height      int
	BitDepth    int
	FrameRate   media.Rational
	TimeBase    media.Rational
}

// Source produces compressed packets in decode order.
type Source interface {
	Params() VideoParams
	// Duration returns the stream duration in seconds, or 0 if unknown.
	Duration() float64
	// NextPacket returns the next packet, or io.EOF at end of stream.
	NextPacket() (*media.Packet, error)
	// Seek repositions the source near the given time. On failure the
	// source keeps its pre-seek position.
	Seek(seconds float64) error
	Close() error
}

// Open opens a container file and returns a packet source. It fails with
// a typed error when the file is missing, holds no video stream, or no
// demuxer handles the container.
func Open(path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("video file " + path)
		}
		return nil, errors.WrapInternalError(err, "stat "+path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".y4m":
		return openY4M(path)
	default:
		return nil, errors.NewUnavailableError("no demuxer for container: " + filepath.Ext(path))
	}
}
