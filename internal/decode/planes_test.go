package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/lens/internal/media"
	"github.com/zsiec/lens/internal/media/format"
)

func TestCopyPlanes_TightlyPacked(t *testing.T) {
	desc, err := format.Negotiate(media.PixelFormatYUV420P, 4, 4)
	require.NoError(t, err)

	y := []byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	u := []byte{2, 2, 2, 2}
	v := []byte{3, 3, 3, 3}

	out, err := copyPlanes(desc, [][]byte{y, u, v}, nil)
	require.NoError(t, err)
	require.Len(t, out, desc.TotalBytes)

	assert.Equal(t, byte(1), out[0])
	assert.Equal(t, byte(2), out[16])
	assert.Equal(t, byte(3), out[20])
}

func TestCopyPlanes_Strided(t *testing.T) {
	desc, err := format.Negotiate(media.PixelFormatYUV420P, 4, 2)
	require.NoError(t, err)

	// Luma rows padded to stride 8; padding bytes must not leak.
	y := []byte{
		1, 2, 3, 4, 0xFF, 0xFF, 0xFF, 0xFF,
		5, 6, 7, 8, 0xFF, 0xFF, 0xFF, 0xFF,
	}
	u := []byte{9, 10}
	v := []byte{11, 12}

	out, err := copyPlanes(desc, [][]byte{y, u, v}, []int{8, 0, 0})
	require.NoError(t, err)

	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, out[:8])
	assert.Equal(t, []byte{9, 10, 11, 12}, out[8:])
}

func TestCopyPlanes_InterleavedChroma(t *testing.T) {
	desc, err := format.Negotiate(media.PixelFormatNV12, 4, 4)
	require.NoError(t, err)

	y := make([]byte, 16)
	uv := []byte{1, 2, 3, 4, 5, 6, 7, 8} // 2x2 chroma samples, 2 components each

	out, err := copyPlanes(desc, [][]byte{y, uv}, nil)
	require.NoError(t, err)
	assert.Equal(t, uv, out[16:])
}

func TestCopyPlanes_PlaneCountMismatch(t *testing.T) {
	desc, err := format.Negotiate(media.PixelFormatNV12, 4, 4)
	require.NoError(t, err)

	_, err = copyPlanes(desc, [][]byte{make([]byte, 16)}, nil)
	assert.Error(t, err)
}

func TestCopyPlanes_ShortPlane(t *testing.T) {
	desc, err := format.Negotiate(media.PixelFormatYUV420P, 4, 4)
	require.NoError(t, err)

	_, err = copyPlanes(desc, [][]byte{make([]byte, 4), make([]byte, 4), make([]byte, 4)}, nil)
	assert.Error(t, err)
}

func TestCopyPlanes_StrideShorterThanRow(t *testing.T) {
	desc, err := format.Negotiate(media.PixelFormatYUV420P, 4, 4)
	require.NoError(t, err)

	planes := [][]byte{make([]byte, 16), make([]byte, 4), make([]byte, 4)}
	_, err = copyPlanes(desc, planes, []int{2, 0, 0})
	assert.Error(t, err)
}
