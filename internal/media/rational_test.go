package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRational_Seconds(t *testing.T) {
	tests := []struct {
		name     string
		tb       Rational
		ts       int64
		expected float64
	}{
		{"90kHz one second", TimeBase90kHz, 90000, 1.0},
		{"90kHz one frame at 30fps", TimeBase90kHz, 3000, 1.0 / 30.0},
		{"millisecond base", TimeBase1kHz, 500, 0.5},
		{"zero timestamp", TimeBase90kHz, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.tb.Seconds(tt.ts), 1e-9)
		})
	}
}

func TestRational_Invert(t *testing.T) {
	r := Rational{Num: 30, Den: 1}
	assert.Equal(t, Rational{Num: 1, Den: 30}, r.Invert())
}

func TestRational_IsValid(t *testing.T) {
	assert.True(t, TimeBase90kHz.IsValid())
	assert.False(t, Rational{}.IsValid())
	assert.False(t, Rational{Num: 1, Den: 0}.IsValid())
}

func TestNewRational_ZeroDenominator(t *testing.T) {
	assert.Equal(t, Rational{Num: 5, Den: 1}, NewRational(5, 0))
}

func TestParseCodec(t *testing.T) {
	tests := []struct {
		input    string
		expected CodecType
		wantErr  bool
	}{
		{"h264", CodecH264, false},
		{"avc", CodecH264, false},
		{"hevc", CodecHEVC, false},
		{"h265", CodecHEVC, false},
		{"av1", CodecAV1, false},
		{"rawvideo", CodecRaw, false},
		{"mpeg2", CodecUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseCodec(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestPixelFormat_BitDepth(t *testing.T) {
	assert.Equal(t, 8, PixelFormatYUV420P.BitDepth())
	assert.Equal(t, 8, PixelFormatNV12.BitDepth())
	assert.Equal(t, 10, PixelFormatYUV420P10.BitDepth())
	assert.Equal(t, 10, PixelFormatP010.BitDepth())
	assert.Equal(t, 0, PixelFormatUnknown.BitDepth())
}

func TestPixelFormat_InterleavedChroma(t *testing.T) {
	assert.True(t, PixelFormatNV12.InterleavedChroma())
	assert.True(t, PixelFormatP010.InterleavedChroma())
	assert.False(t, PixelFormatYUV420P.InterleavedChroma())
	assert.False(t, PixelFormatYUV420P10.InterleavedChroma())
}
