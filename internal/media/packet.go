package media

// Packet is one compressed unit pulled from a container, in decode order.
type Packet struct {
	Data     []byte
	PTS      int64 // in the stream's time base
	HasPTS   bool
	Keyframe bool
}

// Frame is one decoded frame: an owned buffer holding the image planes
// back to back in descriptor order, plus the presentation timestamp in
// seconds. Created by the decoder, moved through the frame queue, and
// consumed by the presentation collaborator.
type Frame struct {
	Data   []byte
	PTS    float64 // seconds, relative to stream start
	Width  int
	Height int
}
