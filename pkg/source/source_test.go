package source

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/user/termplay/pkg/adapters/logger"
	"github.com/user/termplay/pkg/adapters/testpattern"
	"github.com/user/termplay/pkg/framebuf"
	"github.com/user/termplay/pkg/pipeline"
	"github.com/user/termplay/pkg/ports"
)

// stubReader yields a fixed number of solid white frames, then an optional
// error instead of EOF.
type stubReader struct {
	meta     ports.SourceMeta
	frames   int
	failWith error
	reads    int
	closed   bool
}

func (r *stubReader) Meta() ports.SourceMeta { return r.meta }

func (r *stubReader) ReadFrame(dst []byte) error {
	if r.reads >= r.frames {
		if r.failWith != nil {
			return r.failWith
		}
		return io.EOF
	}
	r.reads++
	for i := range dst {
		dst[i] = 0xFF
	}
	return nil
}

func (r *stubReader) Close() error {
	r.closed = true
	return nil
}

func newQueue(t *testing.T, capacity int) *framebuf.Queue[*pipeline.Frame] {
	t.Helper()
	q, err := framebuf.New[*pipeline.Frame](capacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return q
}

func TestDecodeLoop_PublishesAllFramesWithPTS(t *testing.T) {
	const cols, rows = 16, 8
	reader := &stubReader{
		meta:   ports.SourceMeta{Width: 32, Height: 32, FPS: 60},
		frames: 5,
	}
	pool := pipeline.NewFramePool(cols, 2*rows)
	src, err := Open(reader, cols, rows, pipeline.FitLetterbox, QualityFast, pool, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := newQueue(t, 8)
	src.DecodeLoop(context.Background(), q)

	if !src.Done() {
		t.Error("source not done after loop returned")
	}
	if err := src.Err(); err != nil {
		t.Errorf("unexpected error after clean EOF: %v", err)
	}
	if !reader.closed {
		t.Error("reader not closed")
	}
	if got := src.Frames(); got != 5 {
		t.Errorf("expected 5 published frames, got %d", got)
	}

	for i := 0; i < 5; i++ {
		f, ok := q.TryPop()
		if !ok {
			t.Fatalf("frame %d missing from queue", i)
		}
		want := time.Duration(float64(i) / 60 * float64(time.Second))
		if f.PTS != want {
			t.Errorf("frame %d: expected pts %v, got %v", i, want, f.PTS)
		}
		if f.Width != cols || f.Height != 2*rows {
			t.Errorf("frame %d: expected %dx%d plane, got %dx%d", i, cols, 2*rows, f.Width, f.Height)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("queue not drained after expected frames")
	}
}

func TestDecodeLoop_LetterboxPaddingIsBlack(t *testing.T) {
	const cols, rows = 80, 24
	pattern, err := testpattern.New(testpattern.Config{
		Pattern: testpattern.PatternGradient,
		Width:   320, Height: 180,
		FPS: 30, Frames: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pool := pipeline.NewFramePool(cols, 2*rows)
	src, err := Open(pattern, cols, rows, pipeline.FitLetterbox, QualityFast, pool, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 320x180 into 80x48 is width-bound: one padding row above, two below.
	content := src.ContentRect()
	if content.Width != 80 || content.Height != 45 {
		t.Fatalf("unexpected content rect %+v", content)
	}

	q := newQueue(t, 2)
	src.DecodeLoop(context.Background(), q)

	f, ok := q.TryPop()
	if !ok {
		t.Fatal("no frame published")
	}
	for _, y := range []int{0, 46, 47} {
		row := f.Pixels[y*cols*3 : (y+1)*cols*3]
		for i, b := range row {
			if b != 0 {
				t.Fatalf("padding row %d byte %d not black: %d", y, i, b)
			}
		}
	}
	// Content rows must not be all black for a gradient.
	row := f.Pixels[40*cols*3 : 41*cols*3]
	allBlack := true
	for _, b := range row {
		if b != 0 {
			allBlack = false
			break
		}
	}
	if allBlack {
		t.Error("content row 40 is black; gradient not composed")
	}
}

func TestDecodeLoop_FillCoversWholePlane(t *testing.T) {
	const cols, rows = 20, 20
	reader := &stubReader{
		meta:   ports.SourceMeta{Width: 640, Height: 480, FPS: 30},
		frames: 1,
	}
	pool := pipeline.NewFramePool(cols, 2*rows)
	src, err := Open(reader, cols, rows, pipeline.FitFill, QualityFast, pool, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := newQueue(t, 2)
	src.DecodeLoop(context.Background(), q)

	f, ok := q.TryPop()
	if !ok {
		t.Fatal("no frame published")
	}
	// A solid white source must cover every pixel in fill mode.
	for i, b := range f.Pixels {
		if b != 0xFF {
			t.Fatalf("pixel byte %d not white: %d", i, b)
		}
	}
}

func TestDecodeLoop_MidStreamErrorSetsErr(t *testing.T) {
	reader := &stubReader{
		meta:     ports.SourceMeta{Width: 8, Height: 8, FPS: 30},
		frames:   2,
		failWith: errors.New("pipe burst"),
	}
	pool := pipeline.NewFramePool(4, 8)
	src, err := Open(reader, 4, 4, pipeline.FitLetterbox, QualityFast, pool, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := newQueue(t, 8)
	src.DecodeLoop(context.Background(), q)

	if !src.Done() {
		t.Error("source not done after error")
	}
	if !errors.Is(src.Err(), ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed, got %v", src.Err())
	}
	if got := src.Frames(); got != 2 {
		t.Errorf("expected 2 frames before the error, got %d", got)
	}
}

func TestDecodeLoop_CancelWhileQueueFull(t *testing.T) {
	reader := &stubReader{
		meta:   ports.SourceMeta{Width: 8, Height: 8, FPS: 30},
		frames: 100,
	}
	pool := pipeline.NewFramePool(4, 8)
	src, err := Open(reader, 4, 4, pipeline.FitLetterbox, QualityFast, pool, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := newQueue(t, 1)

	done := make(chan struct{})
	go func() {
		src.DecodeLoop(ctx, q)
		close(done)
	}()

	// Let the decoder fill the queue and park, then cancel.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("decode loop did not exit after cancellation")
	}
	if !src.Done() {
		t.Error("source not done after cancellation")
	}
	if src.Err() != nil {
		t.Errorf("cancellation must not be recorded as error, got %v", src.Err())
	}
}

func TestOpen_RejectsBadDimensions(t *testing.T) {
	reader := &stubReader{meta: ports.SourceMeta{Width: 8, Height: 8, FPS: 30}}
	pool := pipeline.NewFramePool(4, 8)
	if _, err := Open(reader, 0, 4, pipeline.FitLetterbox, QualityFast, pool, logger.NewNoop()); err == nil {
		t.Error("expected error for zero cols")
	}
	if _, err := Open(&stubReader{meta: ports.SourceMeta{}}, 4, 4, pipeline.FitLetterbox, QualityFast, pool, logger.NewNoop()); err == nil {
		t.Error("expected error for empty reader dimensions")
	}
}
