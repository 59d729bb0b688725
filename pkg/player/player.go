// Package player drives the real-time playback loop: it spawns the decode
// worker, paces frames against a monotonic clock, drops what cannot be
// presented in time and coordinates graceful shutdown.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/user/termplay/pkg/cell"
	"github.com/user/termplay/pkg/crashlog"
	"github.com/user/termplay/pkg/framebuf"
	"github.com/user/termplay/pkg/pipeline"
	"github.com/user/termplay/pkg/ports"
	"github.com/user/termplay/pkg/rasterize"
	"github.com/user/termplay/pkg/source"
	"github.com/user/termplay/pkg/termsink"
)

var (
	// ErrDecodeFailed is returned when the decoder hit a mid-stream error.
	ErrDecodeFailed = errors.New("player: decode failed")

	// ErrRenderFailed is returned when the terminal sink failed to write.
	ErrRenderFailed = errors.New("player: render failed")
)

// sleepSlice bounds every sleep so cancellation is observed promptly.
const sleepSlice = 5 * time.Millisecond

// Stats summarizes a finished playback.
type Stats struct {
	FramesPresented int
	FramesDropped   int
	MeanFrameMs     float64
	MaxFrameMs      float64
	Cancelled       bool
}

// Options wires a Player from its collaborators.
type Options struct {
	Source     *source.Source
	Sink       *termsink.Sink
	Queue      *framebuf.Queue[*pipeline.Frame]
	Pool       *pipeline.FramePool
	Rasterizer *rasterize.Rasterizer
	Audio      ports.AudioSidecar // optional
	Logger     ports.Logger
	TargetFPS  int
	Keys       io.Reader // optional non-blocking key source (raw-mode stdin)
}

// Player owns the render half of the pipeline.
type Player struct {
	src    *source.Source
	sink   *termsink.Sink
	queue  *framebuf.Queue[*pipeline.Frame]
	pool   *pipeline.FramePool
	raster *rasterize.Rasterizer
	audio  ports.AudioSidecar
	logger ports.Logger
	keys   io.Reader

	frameWindow time.Duration
	next        *cell.Grid

	stats       Stats
	frameTotal  time.Duration
	frameMax    time.Duration
}

// New validates the wiring and builds a player.
func New(opts Options) (*Player, error) {
	if opts.Source == nil || opts.Sink == nil || opts.Queue == nil || opts.Pool == nil || opts.Rasterizer == nil {
		return nil, fmt.Errorf("player: missing required component")
	}
	if opts.TargetFPS < 1 {
		return nil, fmt.Errorf("player: target fps %d must be >= 1", opts.TargetFPS)
	}
	log := opts.Logger
	if log == nil {
		return nil, fmt.Errorf("player: logger is required")
	}
	return &Player{
		src:         opts.Source,
		sink:        opts.Sink,
		queue:       opts.Queue,
		pool:        opts.Pool,
		raster:      opts.Rasterizer,
		audio:       opts.Audio,
		logger:      log.WithComponent("player"),
		keys:        opts.Keys,
		frameWindow: time.Second / time.Duration(opts.TargetFPS),
		next:        cell.NewGrid(opts.Sink.Cols(), opts.Sink.Rows()),
	}, nil
}

// Run plays the source to completion, user stop or failure. The terminal is
// restored on every exit path, including panic.
func (p *Player) Run(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Registered before the panic guard so it runs during unwinding after
	// the guard re-panics: the terminal is restored no matter what.
	defer p.sink.Close()
	defer func() {
		if v := recover(); v != nil {
			cancel()
			crashlog.Append("player", v, debug.Stack())
			panic(v)
		}
	}()
	if p.audio != nil {
		defer p.audio.Stop()
	}

	// Starting: spawn the decode worker and prebuffer.
	var decoderPanic any
	decoderDone := make(chan struct{})
	go func() {
		defer close(decoderDone)
		defer crashlog.Recover(cancel, "decoder", &decoderPanic)
		p.src.DecodeLoop(ctx, p.queue)
	}()
	if p.keys != nil {
		go p.watchKeys(ctx, cancel)
	}

	p.logger.Debug("Prebuffering frames")
	for p.queue.FillRatio() < 0.5 && !p.src.Done() && ctx.Err() == nil {
		p.sleep(ctx, sleepSlice)
	}

	if p.audio != nil && ctx.Err() == nil {
		if err := p.audio.Start(); err != nil {
			p.logger.Warn("Audio sidecar failed: %s", err)
		}
	}
	t0 := time.Now()
	p.logger.Debug("Starting playback")

	// Playing.
	runErr := p.play(ctx, t0)

	// Draining: the decoder observes cancellation within one frame time.
	cancel()
	<-decoderDone
	p.drainQueue()
	if p.audio != nil {
		p.audio.Stop()
	}
	p.logger.Debug("Draining pipeline")

	if runErr != nil {
		return p.finish(), runErr
	}
	if decoderPanic != nil {
		return p.finish(), fmt.Errorf("%w: decoder panic: %v", ErrDecodeFailed, decoderPanic)
	}
	if err := p.src.Err(); err != nil {
		return p.finish(), fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return p.finish(), nil
}

// play runs the Playing state until end of stream, cancellation or render
// failure.
func (p *Player) play(ctx context.Context, t0 time.Time) error {
	var lookahead *pipeline.Frame
	pop := func() (*pipeline.Frame, bool) {
		if lookahead != nil {
			f := lookahead
			lookahead = nil
			return f, true
		}
		return p.queue.TryPop()
	}
	defer func() {
		if lookahead != nil {
			p.pool.Put(lookahead)
		}
	}()

	for {
		if ctx.Err() != nil {
			p.stats.Cancelled = true
			p.logger.Debug("Playback cancelled by user")
			return nil
		}
		now := time.Since(t0)

		frame, ok := pop()
		if !ok {
			if p.src.Done() && p.queue.Len() == 0 {
				return nil
			}
			p.sleep(ctx, sleepSlice)
			continue
		}

		// Drop policy: drops are contiguous from the head of the queue.
		// A frame more than one window late is discarded outright; a due
		// frame is discarded only in favor of a newer frame that is also
		// due.
		for frame != nil {
			if frame.PTS+p.frameWindow < now {
				next, more := pop()
				p.drop(frame)
				frame = nil
				if more {
					frame = next
				}
				continue
			}
			next, more := pop()
			if !more {
				break
			}
			if frame.PTS <= now && next.PTS <= now {
				p.drop(frame)
				frame = next
				continue
			}
			lookahead = next
			break
		}
		if frame == nil {
			continue
		}

		pts := frame.PTS
		renderStart := time.Now()
		p.raster.RenderInto(frame.Pixels, p.next)
		err := p.sink.Draw(p.next)
		renderTime := time.Since(renderStart)
		p.pool.Put(frame)
		if err != nil {
			p.logger.Error("Render error: %s", err)
			return fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}

		p.stats.FramesPresented++
		p.frameTotal += renderTime
		if renderTime > p.frameMax {
			p.frameMax = renderTime
		}

		p.sleepUntil(ctx, t0.Add(pts+p.frameWindow))
	}
}

// drop returns a frame to the pool and counts it.
func (p *Player) drop(f *pipeline.Frame) {
	p.pool.Put(f)
	p.stats.FramesDropped++
}

// drainQueue releases frames the decoder published after the last present.
func (p *Player) drainQueue() {
	for {
		f, ok := p.queue.TryPop()
		if !ok {
			return
		}
		p.pool.Put(f)
	}
}

// finish folds the timing accumulators into the stats.
func (p *Player) finish() Stats {
	if p.stats.FramesPresented > 0 {
		p.stats.MeanFrameMs = float64(p.frameTotal.Microseconds()) / float64(p.stats.FramesPresented) / 1000
	}
	p.stats.MaxFrameMs = float64(p.frameMax.Microseconds()) / 1000
	return p.stats
}

// sleep pauses for d or until cancellation.
func (p *Player) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// sleepUntil sleeps to the deadline in bounded slices so cancellation is
// observed within one slice even if the timer misbehaves.
func (p *Player) sleepUntil(ctx context.Context, deadline time.Time) {
	for {
		if ctx.Err() != nil {
			return
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		if remaining > sleepSlice {
			remaining = sleepSlice
		}
		p.sleep(ctx, remaining)
	}
}

// watchKeys cancels playback on q, Esc or Ctrl-C. The reader is raw-mode
// stdin during interactive playback, so keys arrive as single bytes.
func (p *Player) watchKeys(ctx context.Context, cancel context.CancelFunc) {
	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := p.keys.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		switch buf[0] {
		case 'q', 'Q', 0x03, 0x1b: // q, Q, Ctrl-C, Esc
			cancel()
			return
		}
	}
}
