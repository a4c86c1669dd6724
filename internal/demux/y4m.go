package demux

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/media"
)

const y4mMagic = "YUV4MPEG2"

// y4mSource reads uncompressed planar frames from a YUV4MPEG2 file.
// Every frame is its own packet, timestamped by frame index in a
// 1/frame-rate time base.
type y4mSource struct {
	file *os.File
	rd   *bufio.Reader

	params    VideoParams
	frameSize int   // payload bytes per frame
	headerEnd int64 // file offset of the first FRAME line

	frameIndex int64
	frameCount int64
}

func openY4M(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapInternalError(err, "open "+path)
	}

	s := &y4mSource{
		file: f,
		rd:   bufio.NewReaderSize(f, 1<<20),
	}

	if err := s.parseHeader(); err != nil {
		f.Close()
		return nil, err
	}

	// Frame count estimated from file size, assuming bare FRAME markers.
	// Frames with per-frame parameters make this an overcount of at most
	// a frame; duration is advisory only.
	if info, err := f.Stat(); err == nil {
		per := int64(len("FRAME\n") + s.frameSize)
		s.frameCount = (info.Size() - s.headerEnd) / per
	}

	return s, nil
}

func (s *y4mSource) parseHeader() error {
	line, err := s.rd.ReadString('\n')
	if err != nil {
		return errors.NewNotFoundError("video stream")
	}
	line = strings.TrimSuffix(line, "\n")

	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != y4mMagic {
		return errors.NewNotFoundError("video stream")
	}

	p := VideoParams{
		Codec: media.CodecRaw,
		// C420jpeg is the y4m default when no C tag is present.
		PixelFormat: media.PixelFormatYUV420P,
		BitDepth:    8,
	}

	for _, field := range fields[1:] {
		if len(field) < 2 {
			continue
		}
		tag, val := field[0], field[1:]
		switch tag {
		case 'W':
			if p.Width, err = strconv.Atoi(val); err != nil {
				return errors.NewValidationError("bad y4m width: " + val)
			}
		case 'H':
			if p.Height, err = strconv.Atoi(val); err != nil {
				return errors.NewValidationError("bad y4m height: " + val)
			}
		case 'F':
			num, den, ok := parseRatio(val)
			if !ok {
				return errors.NewValidationError("bad y4m frame rate: " + val)
			}
			p.FrameRate = media.NewRational(num, den)
		case 'C':
			switch val {
			case "420", "420jpeg", "420mpeg2", "420paldv":
				p.PixelFormat = media.PixelFormatYUV420P
				p.BitDepth = 8
			case "420p10":
				p.PixelFormat = media.PixelFormatYUV420P10
				p.BitDepth = 10
			default:
				// Unknown colorspaces surface as a format error when
				// the pipeline negotiates the frame layout.
				p.PixelFormat = media.PixelFormat(val)
			}
		case 'I', 'A', 'X':
			// interlacing, aspect and comments are irrelevant here
		}
	}

	if p.Width <= 0 || p.Height <= 0 {
		return errors.NewValidationError("y4m header missing frame dimensions")
	}
	if !p.FrameRate.IsValid() {
		p.FrameRate = media.FrameRate30
	}
	p.TimeBase = p.FrameRate.Invert()

	bpc := 1
	if p.BitDepth > 8 {
		bpc = 2
	}
	cw, ch := (p.Width+1)/2, (p.Height+1)/2
	s.frameSize = (p.Width*p.Height + 2*cw*ch) * bpc

	pos, err := s.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.WrapInternalError(err, "y4m header offset")
	}
	s.headerEnd = pos - int64(s.rd.Buffered())
	s.params = p
	return nil
}

func parseRatio(s string) (int, int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	num, err1 := strconv.Atoi(parts[0])
	den, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || num <= 0 || den <= 0 {
		return 0, 0, false
	}
	return num, den, true
}

// Params implements Source.
func (s *y4mSource) Params() VideoParams {
	return s.params
}

// Duration implements Source.
func (s *y4mSource) Duration() float64 {
	fps := s.params.FrameRate.Float64()
	if fps <= 0 || s.frameCount <= 0 {
		return 0
	}
	return float64(s.frameCount) / fps
}

// NextPacket implements Source.
func (s *y4mSource) NextPacket() (*media.Packet, error) {
	line, err := s.rd.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.NewDecodeError(err, "reading y4m frame marker")
	}
	if !strings.HasPrefix(line, "FRAME") {
		return nil, errors.NewDecodeError(fmt.Errorf("unexpected marker %q", strings.TrimSpace(line)), "corrupt y4m frame boundary")
	}

	data := make([]byte, s.frameSize)
	if _, err := io.ReadFull(s.rd, data); err != nil {
		return nil, errors.NewDecodeError(err, "truncated y4m frame")
	}

	pkt := &media.Packet{
		Data:     data,
		PTS:      s.frameIndex,
		HasPTS:   true,
		Keyframe: true, // every uncompressed frame stands alone
	}
	s.frameIndex++
	return pkt, nil
}

// Seek implements Source. Frames are fixed-size, so the target frame is
// found by skipping from the header end.
func (s *y4mSource) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	target := int64(seconds*s.params.FrameRate.Float64() + 0.5)
	if s.frameCount > 0 && target >= s.frameCount {
		target = s.frameCount - 1
	}

	if _, err := s.file.Seek(s.headerEnd, io.SeekStart); err != nil {
		return errors.WrapInternalError(err, "y4m seek")
	}
	rd := bufio.NewReaderSize(s.file, 1<<20)

	for i := int64(0); i < target; i++ {
		line, err := rd.ReadString('\n')
		if err != nil || !strings.HasPrefix(line, "FRAME") {
			// Leave the previous reader state untouched on failure.
			if _, serr := s.file.Seek(s.headerEnd, io.SeekStart); serr == nil {
				restore := bufio.NewReaderSize(s.file, 1<<20)
				for j := int64(0); j < s.frameIndex; j++ {
					if l, rerr := restore.ReadString('\n'); rerr != nil || !strings.HasPrefix(l, "FRAME") {
						break
					}
					if _, rerr := restore.Discard(s.frameSize); rerr != nil {
						break
					}
				}
				s.rd = restore
			}
			return errors.WrapInternalError(err, "y4m seek past end")
		}
		if _, err := rd.Discard(s.frameSize); err != nil {
			return errors.WrapInternalError(err, "y4m seek discard")
		}
	}

	s.rd = rd
	s.frameIndex = target
	return nil
}

// Close implements Source.
func (s *y4mSource) Close() error {
	return s.file.Close()
}
