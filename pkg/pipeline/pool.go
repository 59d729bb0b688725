package pipeline

import "sync"

// FramePool recycles frame pixel buffers so the steady playback path does not
// allocate per frame. The decoder gets a frame, the player puts it back once
// the rasterizer has consumed it.
type FramePool struct {
	size int
	pool sync.Pool
}

// NewFramePool creates a pool of frames with 3*width*height pixel bytes.
func NewFramePool(width, height int) *FramePool {
	size := 3 * width * height
	return &FramePool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				return &Frame{
					Pixels: make([]byte, size),
					Width:  width,
					Height: height,
				}
			},
		},
	}
}

// Get returns a frame with an uninitialized pixel plane of the pool's size.
func (p *FramePool) Get() *Frame {
	return p.pool.Get().(*Frame)
}

// Put returns a frame to the pool. Frames of a different size are discarded.
func (p *FramePool) Put(f *Frame) {
	if f == nil || len(f.Pixels) != p.size {
		return
	}
	p.pool.Put(f)
}
