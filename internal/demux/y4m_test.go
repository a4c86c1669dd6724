package demux

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/media"
)

// writeY4M writes a synthetic y4m file where every luma byte of frame i
// equals i, making frames distinguishable in assertions.
func writeY4M(t *testing.T, dir string, width, height, frames int, header string) string {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString(header)

	frameSize := width*height + 2*((width+1)/2)*((height+1)/2)
	for i := 0; i < frames; i++ {
		buf.WriteString("FRAME\n")
		payload := bytes.Repeat([]byte{byte(i)}, frameSize)
		buf.Write(payload)
	}

	path := filepath.Join(dir, "test.y4m")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open("/nonexistent/clip.y4m")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestOpen_UnknownContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mkv")
	require.NoError(t, os.WriteFile(path, []byte("not a real mkv"), 0644))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnavailable))
}

func TestOpen_NoVideoStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.y4m")
	require.NoError(t, os.WriteFile(path, []byte("GARBAGE HEADER\n"), 0644))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestY4M_HeaderParsing(t *testing.T) {
	path := writeY4M(t, t.TempDir(), 64, 48, 1, "YUV4MPEG2 W64 H48 F30:1 Ip A1:1 C420jpeg\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	p := src.Params()
	assert.Equal(t, media.CodecRaw, p.Codec)
	assert.Equal(t, media.PixelFormatYUV420P, p.PixelFormat)
	assert.Equal(t, 64, p.Width)
	assert.Equal(t, 48, p.Height)
	assert.Equal(t, 8, p.BitDepth)
	assert.Equal(t, media.Rational{Num: 30, Den: 1}, p.FrameRate)
	assert.Equal(t, media.Rational{Num: 1, Den: 30}, p.TimeBase)
}

func TestY4M_HeaderDefaults(t *testing.T) {
	// No C tag: 420jpeg is the default. No F tag: fall back to 30fps.
	path := writeY4M(t, t.TempDir(), 16, 16, 1, "YUV4MPEG2 W16 H16\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	p := src.Params()
	assert.Equal(t, media.PixelFormatYUV420P, p.PixelFormat)
	assert.Equal(t, media.FrameRate30, p.FrameRate)
}

func TestY4M_MissingDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodim.y4m")
	require.NoError(t, os.WriteFile(path, []byte("YUV4MPEG2 F30:1\n"), 0644))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestY4M_NextPacket(t *testing.T) {
	path := writeY4M(t, t.TempDir(), 16, 16, 3, "YUV4MPEG2 W16 H16 F25:1 C420\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	frameSize := 16*16 + 2*8*8
	for i := 0; i < 3; i++ {
		pkt, err := src.NextPacket()
		require.NoError(t, err)
		assert.Len(t, pkt.Data, frameSize)
		assert.Equal(t, int64(i), pkt.PTS)
		assert.True(t, pkt.HasPTS)
		assert.True(t, pkt.Keyframe)
		assert.Equal(t, byte(i), pkt.Data[0])
	}

	_, err = src.NextPacket()
	assert.Equal(t, io.EOF, err)
}

func TestY4M_Duration(t *testing.T) {
	path := writeY4M(t, t.TempDir(), 16, 16, 10, "YUV4MPEG2 W16 H16 F10:1 C420\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.InDelta(t, 1.0, src.Duration(), 1e-9)
}

func TestY4M_Seek(t *testing.T) {
	path := writeY4M(t, t.TempDir(), 16, 16, 10, "YUV4MPEG2 W16 H16 F10:1 C420\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	// Consume two packets, then jump to 0.5s = frame 5.
	_, err = src.NextPacket()
	require.NoError(t, err)
	_, err = src.NextPacket()
	require.NoError(t, err)

	require.NoError(t, src.Seek(0.5))

	pkt, err := src.NextPacket()
	require.NoError(t, err)
	assert.Equal(t, int64(5), pkt.PTS)
	assert.Equal(t, byte(5), pkt.Data[0])
}

func TestY4M_SeekPastEndClamps(t *testing.T) {
	path := writeY4M(t, t.TempDir(), 16, 16, 4, "YUV4MPEG2 W16 H16 F10:1 C420\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.Seek(100))

	pkt, err := src.NextPacket()
	require.NoError(t, err)
	assert.Equal(t, int64(3), pkt.PTS)
}

func TestY4M_SeekToZero(t *testing.T) {
	path := writeY4M(t, t.TempDir(), 16, 16, 4, "YUV4MPEG2 W16 H16 F10:1 C420\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	for i := 0; i < 4; i++ {
		_, err := src.NextPacket()
		require.NoError(t, err)
	}
	require.NoError(t, src.Seek(-1))

	pkt, err := src.NextPacket()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pkt.PTS)
}

func TestY4M_TenBit(t *testing.T) {
	width, height := 8, 8
	frameSize := (width*height + 2*4*4) * 2

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "YUV4MPEG2 W%d H%d F30:1 C420p10\n", width, height)
	buf.WriteString("FRAME\n")
	buf.Write(make([]byte, frameSize))

	path := filepath.Join(t.TempDir(), "ten.y4m")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	p := src.Params()
	assert.Equal(t, media.PixelFormatYUV420P10, p.PixelFormat)
	assert.Equal(t, 10, p.BitDepth)

	pkt, err := src.NextPacket()
	require.NoError(t, err)
	assert.Len(t, pkt.Data, frameSize)
}

func TestY4M_UnknownColorspaceDeferred(t *testing.T) {
	width, height := 8, 8
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "YUV4MPEG2 W%d H%d F30:1 C422\n", width, height)

	path := filepath.Join(t.TempDir(), "c422.y4m")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	// Opening succeeds; the format negotiator rejects the tag later.
	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, media.PixelFormat("422"), src.Params().PixelFormat)
}
