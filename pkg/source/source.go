// Package source turns a raw frame reader into a stream of frames sized for
// the terminal cell grid, resampling and letterboxing each decoded frame
// before publishing it to the frame queue.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/image/draw"

	"github.com/user/termplay/pkg/framebuf"
	"github.com/user/termplay/pkg/pipeline"
	"github.com/user/termplay/pkg/ports"
)

// ErrDecodeFailed is returned by Err after a mid-stream decode error.
var ErrDecodeFailed = errors.New("source: decode failed")

// Quality selects the resampling kernel.
type Quality int

const (
	// QualityFast uses bilinear resampling. The steady-state default.
	QualityFast Quality = iota
	// QualityHigh uses Catmull-Rom resampling for sharper downscales at
	// higher CPU cost.
	QualityHigh
)

// fullRetryDelay is how long the decoder parks when the queue is full.
// Dropping is the renderer's job; the decoder only idles.
const fullRetryDelay = time.Millisecond

// Source decodes, resamples and publishes frames. All scratch buffers are
// preallocated at Open so the steady path does not allocate.
type Source struct {
	reader  ports.FrameReader
	meta    ports.SourceMeta
	pool    *pipeline.FramePool
	logger  ports.Logger
	scaler  draw.Scaler
	content pipeline.Rect
	visible image.Rectangle

	planeW int
	planeH int

	raw    []byte      // one RGBA frame at source resolution
	srcImg *image.RGBA // view over raw
	scaled *image.RGBA // resampled plane, RGBA

	frames atomic.Uint64
	done   atomic.Bool

	mu  sync.Mutex
	err error
}

// Open prepares a source producing frames of exactly (cols, 2*rows) pixels.
// The content rectangle is computed once from the reader's native dimensions
// and the fit mode.
func Open(reader ports.FrameReader, cols, rows int, fit pipeline.FitMode, quality Quality, pool *pipeline.FramePool, logger ports.Logger) (*Source, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("source: invalid target %dx%d cells", cols, rows)
	}
	meta := reader.Meta()
	if meta.Width < 1 || meta.Height < 1 {
		return nil, fmt.Errorf("source: reader reports empty dimensions %dx%d", meta.Width, meta.Height)
	}

	planeW, planeH := cols, 2*rows
	content := pipeline.ContentRect(meta.Width, meta.Height, planeW, planeH, fit)
	visible := image.Rect(content.X, content.Y, content.X+content.Width, content.Y+content.Height).
		Intersect(image.Rect(0, 0, planeW, planeH))

	scaler := draw.Scaler(draw.ApproxBiLinear)
	if quality == QualityHigh {
		scaler = draw.CatmullRom
	}

	raw := make([]byte, 4*meta.Width*meta.Height)
	return &Source{
		reader:  reader,
		meta:    meta,
		pool:    pool,
		logger:  logger.WithComponent("source"),
		scaler:  scaler,
		content: content,
		visible: visible,
		planeW:  planeW,
		planeH:  planeH,
		raw:     raw,
		srcImg: &image.RGBA{
			Pix:    raw,
			Stride: 4 * meta.Width,
			Rect:   image.Rect(0, 0, meta.Width, meta.Height),
		},
		scaled: image.NewRGBA(image.Rect(0, 0, planeW, planeH)),
	}, nil
}

// Meta returns the source's native format.
func (s *Source) Meta() ports.SourceMeta {
	return s.meta
}

// ContentRect returns the rectangle of the output plane the video occupies;
// the remainder is black padding.
func (s *Source) ContentRect() pipeline.Rect {
	return s.content
}

// Done reports whether the decode loop has exited.
func (s *Source) Done() bool {
	return s.done.Load()
}

// Err returns the terminal decode error, or nil after a clean end of stream.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Frames returns the number of frames published so far.
func (s *Source) Frames() uint64 {
	return s.frames.Load()
}

// DecodeLoop reads, converts and publishes frames until the source is
// exhausted or ctx is cancelled. It runs on its own goroutine; the player
// observes completion through Done and Err.
func (s *Source) DecodeLoop(ctx context.Context, out *framebuf.Queue[*pipeline.Frame]) {
	defer s.done.Store(true)
	defer s.reader.Close()

	fps := s.meta.FPS
	if fps <= 0 {
		fps = 30
	}

	for idx := uint64(0); ; idx++ {
		if ctx.Err() != nil {
			return
		}

		err := s.reader.ReadFrame(s.raw)
		if err == io.EOF {
			s.logger.Debug("Decoder reached end of stream")
			return
		}
		if err != nil {
			s.setErr(fmt.Errorf("%w: %v", ErrDecodeFailed, err))
			s.logger.Error("Decode error: %s", err)
			return
		}

		frame := s.pool.Get()
		s.compose(frame)
		frame.PTS = time.Duration(float64(idx) / fps * float64(time.Second))

		if !s.publish(ctx, out, frame) {
			return
		}
		s.frames.Add(1)
	}
}

// compose resamples the raw frame into the content rectangle and packs the
// visible pixels into the frame's RGB plane. Padding stays black: pooled
// frame buffers are zero-initialized and the padding region is never
// written.
func (s *Source) compose(frame *pipeline.Frame) {
	dr := image.Rect(s.content.X, s.content.Y, s.content.X+s.content.Width, s.content.Y+s.content.Height)
	s.scaler.Scale(s.scaled, dr, s.srcImg, s.srcImg.Rect, draw.Src, nil)

	for y := s.visible.Min.Y; y < s.visible.Max.Y; y++ {
		srcRow := s.scaled.Pix[y*s.scaled.Stride:]
		dstRow := frame.Pixels[y*s.planeW*3:]
		for x := s.visible.Min.X; x < s.visible.Max.X; x++ {
			si := x * 4
			di := x * 3
			dstRow[di] = srcRow[si]
			dstRow[di+1] = srcRow[si+1]
			dstRow[di+2] = srcRow[si+2]
		}
	}
}

// publish busy-waits with a short sleep while the queue is full. Returns
// false when cancelled; the frame is returned to the pool in that case.
func (s *Source) publish(ctx context.Context, out *framebuf.Queue[*pipeline.Frame], frame *pipeline.Frame) bool {
	for !out.TryPush(frame) {
		select {
		case <-ctx.Done():
			s.pool.Put(frame)
			return false
		case <-time.After(fullRetryDelay):
		}
	}
	return true
}

func (s *Source) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
