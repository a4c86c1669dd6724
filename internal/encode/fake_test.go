package encode

import (
	"errors"
	"time"

	"github.com/zsiec/lens/internal/gpu"
)

// fakeDevice implements gpu.Device with a live-resource counter so
// tests can prove that every creation is balanced by a destroy, on both
// the success and failure paths.
type fakeDevice struct {
	live    int      // resources created minus resources destroyed
	created []string // creation order, for inspection

	failOn string // creation method name that should fail

	fenceWaits []error // scripted Wait results, consumed in order

	feedback    gpu.FeedbackResult
	feedbackErr error

	// encodeOutput is copied into the destination buffer on Submit,
	// standing in for the hardware writing the bitstream.
	encodeOutput []byte

	lastBuffer *fakeBuffer
	lastCmd    *fakeCmd
}

var errFakeCreate = errors.New("scripted creation failure")

func (d *fakeDevice) track(kind string) error {
	if d.failOn == kind {
		return errFakeCreate
	}
	d.live++
	d.created = append(d.created, kind)
	return nil
}

func (d *fakeDevice) DecodeQueueFamily() uint32 { return 1 }
func (d *fakeDevice) EncodeQueueFamily() uint32 { return 2 }

func (d *fakeDevice) CreateImage(spec gpu.ImageSpec) (gpu.Image, error) {
	if err := d.track("image"); err != nil {
		return nil, err
	}
	return &fakeImage{dev: d, extent: spec.Extent}, nil
}

func (d *fakeDevice) CreateImageView(img gpu.Image) (gpu.ImageView, error) {
	if err := d.track("view"); err != nil {
		return nil, err
	}
	return &fakeView{dev: d}, nil
}

func (d *fakeDevice) CreateBuffer(size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	if err := d.track("buffer"); err != nil {
		return nil, err
	}
	b := &fakeBuffer{dev: d, data: make([]byte, size)}
	d.lastBuffer = b
	return b, nil
}

func (d *fakeDevice) CreateFence() (gpu.Fence, error) {
	if err := d.track("fence"); err != nil {
		return nil, err
	}
	return &fakeFence{dev: d}, nil
}

func (d *fakeDevice) CreateQueryPool() (gpu.QueryPool, error) {
	if err := d.track("query"); err != nil {
		return nil, err
	}
	return &fakeQuery{dev: d}, nil
}

func (d *fakeDevice) CreateCommandContext(queueFamily uint32) (gpu.CommandContext, error) {
	if err := d.track("cmd"); err != nil {
		return nil, err
	}
	c := &fakeCmd{dev: d}
	d.lastCmd = c
	return c, nil
}

func (d *fakeDevice) CreateVideoSession(cfg gpu.SessionConfig) (gpu.VideoSession, error) {
	if err := d.track("session"); err != nil {
		return nil, err
	}
	return &fakeSession{dev: d}, nil
}

func (d *fakeDevice) CreateSessionParameters(s gpu.VideoSession, cfg gpu.SessionConfig) (gpu.SessionParameters, error) {
	if err := d.track("params"); err != nil {
		return nil, err
	}
	return &fakeParams{dev: d}, nil
}

func (d *fakeDevice) DownloadImage(img gpu.Image) ([][]byte, error) {
	return nil, errors.New("not supported by fake device")
}

type fakeImage struct {
	dev    *fakeDevice
	extent gpu.Extent
}

func (i *fakeImage) Extent() gpu.Extent { return i.extent }
func (i *fakeImage) Destroy()           { i.dev.live-- }

type fakeView struct{ dev *fakeDevice }

func (v *fakeView) Destroy() { v.dev.live-- }

type fakeBuffer struct {
	dev    *fakeDevice
	data   []byte
	mapped bool
}

func (b *fakeBuffer) Size() uint64 { return uint64(len(b.data)) }

func (b *fakeBuffer) Map() ([]byte, error) {
	b.mapped = true
	return b.data, nil
}

func (b *fakeBuffer) Unmap()                               { b.mapped = false }
func (b *fakeBuffer) Invalidate(offset, size uint64) error { return nil }
func (b *fakeBuffer) Destroy()                             { b.dev.live-- }

type fakeFence struct{ dev *fakeDevice }

func (f *fakeFence) Wait(timeout time.Duration) error {
	d := f.dev
	if len(d.fenceWaits) == 0 {
		return nil
	}
	err := d.fenceWaits[0]
	d.fenceWaits = d.fenceWaits[1:]
	return err
}

func (f *fakeFence) Reset() error { return nil }
func (f *fakeFence) Destroy()     { f.dev.live-- }

type fakeQuery struct{ dev *fakeDevice }

func (q *fakeQuery) Results() (gpu.FeedbackResult, error) {
	if q.dev.feedbackErr != nil {
		return gpu.FeedbackResult{}, q.dev.feedbackErr
	}
	return q.dev.feedback, nil
}

func (q *fakeQuery) Destroy() { q.dev.live-- }

type fakeSession struct{ dev *fakeDevice }

func (s *fakeSession) Destroy() { s.dev.live-- }

type fakeParams struct{ dev *fakeDevice }

func (p *fakeParams) Destroy() { p.dev.live-- }

// cmdOp is one recorded call on the fake command context.
type cmdOp struct {
	kind    string
	image   gpu.ImageBarrier
	buffer  gpu.BufferBarrier
	encode  gpu.EncodeOp
}

type fakeCmd struct {
	dev *fakeDevice
	ops []cmdOp
}

func (c *fakeCmd) Begin() error { c.ops = append(c.ops, cmdOp{kind: "begin"}); return nil }

func (c *fakeCmd) ImageBarrier(b gpu.ImageBarrier) {
	c.ops = append(c.ops, cmdOp{kind: "image_barrier", image: b})
}

func (c *fakeCmd) BufferBarrier(b gpu.BufferBarrier) {
	c.ops = append(c.ops, cmdOp{kind: "buffer_barrier", buffer: b})
}

func (c *fakeCmd) ResetQuery(q gpu.QueryPool) { c.ops = append(c.ops, cmdOp{kind: "reset_query"}) }

func (c *fakeCmd) Encode(op gpu.EncodeOp) {
	c.ops = append(c.ops, cmdOp{kind: "encode", encode: op})
}

func (c *fakeCmd) End() error { c.ops = append(c.ops, cmdOp{kind: "end"}); return nil }

func (c *fakeCmd) Submit(fence gpu.Fence) error {
	c.ops = append(c.ops, cmdOp{kind: "submit"})
	// Replay the scripted hardware output into the destination buffer.
	if out := c.dev.encodeOutput; out != nil {
		for i := len(c.ops) - 1; i >= 0; i-- {
			if c.ops[i].kind == "encode" {
				dst := c.ops[i].encode.Dst.(*fakeBuffer)
				copy(dst.data[c.ops[i].encode.DstOffset:], out)
				break
			}
		}
	}
	return nil
}

func (c *fakeCmd) Destroy() { c.dev.live-- }

// opKinds flattens the recorded op sequence for order assertions.
func (c *fakeCmd) opKinds() []string {
	kinds := make([]string, len(c.ops))
	for i, op := range c.ops {
		kinds[i] = op.kind
	}
	return kinds
}

// encodeOps returns just the recorded encode operations.
func (c *fakeCmd) encodeOps() []gpu.EncodeOp {
	var out []gpu.EncodeOp
	for _, op := range c.ops {
		if op.kind == "encode" {
			out = append(out, op.encode)
		}
	}
	return out
}
