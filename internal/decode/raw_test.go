package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/lens/internal/demux"
	"github.com/zsiec/lens/internal/gpu"
	"github.com/zsiec/lens/internal/media"
)

func TestRawEngine_SendReceive(t *testing.T) {
	engine, err := newRawEngine(rawParams(16, 16))
	require.NoError(t, err)

	pkts := rawPackets(16, 16, 1)
	require.NoError(t, engine.SendPacket(pkts[0]))

	// Engine holds one packet; a second send must push back.
	assert.Equal(t, ErrAgain, engine.SendPacket(pkts[0]))

	nf, err := engine.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, media.PixelFormatYUV420P, nf.Format)
	assert.Len(t, nf.Planes, 3)
	assert.True(t, nf.HasPTS)

	// Empty again.
	_, err = engine.ReceiveFrame()
	assert.Equal(t, ErrAgain, err)
}

func TestRawEngine_DrainThenEndOfStream(t *testing.T) {
	engine, err := newRawEngine(rawParams(16, 16))
	require.NoError(t, err)

	require.NoError(t, engine.SendPacket(rawPackets(16, 16, 1)[0]))
	require.NoError(t, engine.Drain())

	// The buffered frame still comes out during draining.
	_, err = engine.ReceiveFrame()
	require.NoError(t, err)

	_, err = engine.ReceiveFrame()
	assert.Equal(t, ErrEndOfStream, err)
}

func TestRawEngine_ShortFrame(t *testing.T) {
	engine, err := newRawEngine(rawParams(16, 16))
	require.NoError(t, err)

	require.NoError(t, engine.SendPacket(&media.Packet{Data: make([]byte, 10)}))
	_, err = engine.ReceiveFrame()
	assert.Error(t, err)
}

func TestRawEngine_UnsupportedFormat(t *testing.T) {
	params := rawParams(16, 16)
	params.PixelFormat = media.PixelFormat("422")

	_, err := newRawEngine(params)
	assert.Error(t, err)
}

func TestRegistry_UnknownCodec(t *testing.T) {
	params := rawParams(16, 16)
	params.Codec = media.CodecAV1

	_, err := NewRegistry().NewEngine(params, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no decoder available")
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	reg := NewRegistry()
	called := false
	reg.Register(media.CodecH264, func(params demux.VideoParams, _ gpu.Device) (Engine, error) {
		called = true
		return &scriptedEngine{}, nil
	})

	params := rawParams(16, 16)
	params.Codec = media.CodecH264
	_, err := reg.NewEngine(params, nil)
	require.NoError(t, err)
	assert.True(t, called)
}
