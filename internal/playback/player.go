package playback

import (
	"sync"

	"github.com/google/uuid"

	"github.com/zsiec/lens/internal/config"
	"github.com/zsiec/lens/internal/decode"
	"github.com/zsiec/lens/internal/decode/worker"
	"github.com/zsiec/lens/internal/demux"
	lenserrors "github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/gpu"
	"github.com/zsiec/lens/internal/logger"
	"github.com/zsiec/lens/internal/media"
	"github.com/zsiec/lens/internal/media/format"
	"github.com/zsiec/lens/internal/metrics"
)

// Player is one playback session over a container file. A background
// worker decodes ahead into a bounded queue; Advance paces frames out
// of it. Control methods (Play, Pause, Advance, Seek, Close) belong to
// a single goroutine; ID, Duration, Descriptor, Playing, Position and
// Finished may be called from any goroutine, so the status server can
// read them while playback runs.
type Player struct {
	id       string
	src      demux.Source
	registry *decode.Registry
	dev      gpu.Device
	store    *format.Store
	engine   decode.Engine
	clock    *Clock
	cfg      config.PlaybackConfig
	log      logger.Logger

	mu      sync.Mutex
	worker  *worker.Worker
	playing bool
	lastPos float64
	closed  bool
}

// Open opens a playback session over the file at path. It fails with a
// typed error when the file is missing, the container is unsupported,
// the pixel format cannot be negotiated, or no decoder handles the
// codec. On failure nothing is left open.
func Open(path string, registry *decode.Registry, dev gpu.Device, cfg config.PlaybackConfig, log logger.Logger) (*Player, error) {
	src, err := demux.Open(path)
	if err != nil {
		return nil, err
	}

	params := src.Params()

	// Negotiate up front so an unsupported stream fails at open, not on
	// the first decoded frame.
	store := format.NewStore()
	desc, err := format.Negotiate(params.PixelFormat, params.Width, params.Height)
	if err != nil {
		src.Close()
		return nil, err
	}
	store.Swap(desc)

	engine, err := registry.NewEngine(params, dev)
	if err != nil {
		src.Close()
		return nil, err
	}

	id := uuid.New().String()
	plog := log.WithField("component", "playback").WithField("session_id", id)

	dec := decode.NewDecoder(id, src, engine, dev, store, cfg.FallbackFPS, plog)
	w := worker.New(id, dec, plog)

	fps := params.FrameRate.Float64()
	if fps <= 0 {
		fps = cfg.FallbackFPS
	}

	p := &Player{
		id:       id,
		src:      src,
		registry: registry,
		dev:      dev,
		store:    store,
		engine:   engine,
		worker:   w,
		clock:    NewClock(fps, cfg.PacingSlack),
		cfg:      cfg,
		log:      plog,
	}

	if err := w.Start(cfg.QueueCapacity); err != nil {
		engine.Close()
		src.Close()
		return nil, err
	}

	metrics.IncSessionsActive("playback")
	plog.WithFields(map[string]interface{}{
		"path":   path,
		"codec":  params.Codec.String(),
		"format": params.PixelFormat.String(),
		"width":  params.Width,
		"height": params.Height,
	}).Info("Playback session opened")

	return p, nil
}

// ID returns the session identifier.
func (p *Player) ID() string { return p.id }

// Duration returns the stream duration in seconds, or 0 if unknown.
func (p *Player) Duration() float64 { return p.src.Duration() }

// Descriptor returns the current negotiated format descriptor.
func (p *Player) Descriptor() *format.Descriptor { return p.store.Load() }

// Play resumes pacing.
func (p *Player) Play() {
	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()
}

// Pause holds the position; the decode worker keeps filling the queue
// until it blocks at capacity.
func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

// Playing reports whether the session is pacing frames.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Position returns the position of the last displayed frame in seconds.
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPos
}

// Finished reports whether the stream is exhausted and every decoded
// frame has been presented.
func (p *Player) Finished() bool {
	w := p.currentWorker()
	return !w.Running() && w.Queue().Len() == 0
}

// Advance returns the current playback position and, when one is due,
// the next frame. With no frame due it returns a nil frame and the
// position of the last displayed frame.
func (p *Player) Advance() (float64, *media.Frame) {
	p.mu.Lock()
	w, playing := p.worker, p.playing
	p.mu.Unlock()

	pos, frame := p.clock.Advance(w.Queue(), playing)

	p.mu.Lock()
	p.lastPos = pos
	p.mu.Unlock()

	metrics.SetPlaybackPosition(p.id, pos)
	if frame != nil {
		metrics.IncFramesPresented(p.id)
	}
	return pos, frame
}

func (p *Player) currentWorker() *worker.Worker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.worker
}

// Seek repositions playback near the given time. The decode worker is
// stopped, the source repositioned, and a fresh engine built, since
// seeking invalidates in-flight decoder state. On source seek failure
// the session resumes from its pre-seek position and a typed error is
// returned.
func (p *Player) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	if d := p.src.Duration(); d > 0 && seconds > d {
		seconds = d
	}

	p.currentWorker().Stop()

	if err := p.src.Seek(seconds); err != nil {
		p.log.WithError(err).WithField("target_seconds", seconds).Warn("Seek failed, resuming from previous position")
		metrics.IncSeek(p.id, "failed")
		if rerr := p.rebuildWorker(); rerr != nil {
			return rerr
		}
		return lenserrors.NewInternalError("seek failed, playback resumed at previous position")
	}

	if err := p.rebuildWorker(); err != nil {
		metrics.IncSeek(p.id, "failed")
		return err
	}

	p.clock.Reset()
	metrics.IncSeek(p.id, "ok")
	p.log.WithField("target_seconds", seconds).Info("Seek completed")
	return nil
}

// rebuildWorker replaces the decoder and engine and restarts the decode
// goroutine against the source's current position. The worker pointer
// is swapped under the lock so concurrent status reads never see a
// half-replaced worker.
func (p *Player) rebuildWorker() error {
	engine, err := p.registry.NewEngine(p.src.Params(), p.dev)
	if err != nil {
		return err
	}
	p.engine.Close()
	p.engine = engine
	dec := decode.NewDecoder(p.id, p.src, engine, p.dev, p.store, p.cfg.FallbackFPS, p.log)
	w := worker.New(p.id, dec, p.log)
	if err := w.Start(p.cfg.QueueCapacity); err != nil {
		return err
	}

	p.mu.Lock()
	p.worker = w
	p.mu.Unlock()
	return nil
}

// Close stops the worker and releases the source. Closing twice is a
// no-op.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	w := p.worker
	p.mu.Unlock()

	w.Stop()
	p.engine.Close()
	err := p.src.Close()
	metrics.DecSessionsActive("playback")
	p.log.Info("Playback session closed")
	return err
}
