// Package rasterize converts RGB pixel planes into terminal cell grids using
// the half-block encoding.
package rasterize

import (
	"runtime"
	"sync"

	"github.com/user/termplay/pkg/cell"
)

// Rasterizer turns an RGB plane of shape (cols, 2*rows) into a cell grid of
// shape (cols, rows). Each cell is the upper-half-block glyph: the even pixel
// row becomes the foreground color, the odd row beneath it the background.
type Rasterizer struct {
	cols    int
	rows    int
	workers int
}

// New creates a rasterizer for a cols x rows cell grid (pixel plane height
// 2*rows). workers <= 0 selects one worker per CPU.
func New(cols, rows, workers int) *Rasterizer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > rows && rows > 0 {
		workers = rows
	}
	return &Rasterizer{
		cols:    cols,
		rows:    rows,
		workers: workers,
	}
}

// RenderInto overwrites grid from pixels. pixels must hold at least
// 3*cols*2*rows bytes; grid must have the rasterizer's shape.
//
// The work splits into bands of whole cell rows. Bands are disjoint slices
// of the output, so the workers share nothing and the result is byte
// identical for any worker count.
func (r *Rasterizer) RenderInto(pixels []byte, grid *cell.Grid) {
	if grid.Cols != r.cols || grid.Rows != r.rows {
		return
	}
	if len(pixels) < 3*r.cols*2*r.rows {
		return
	}

	if r.workers <= 1 || r.rows < 2 {
		r.renderBand(pixels, grid, 0, r.rows)
		return
	}

	band := (r.rows + r.workers - 1) / r.workers
	var wg sync.WaitGroup
	for start := 0; start < r.rows; start += band {
		end := start + band
		if end > r.rows {
			end = r.rows
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			r.renderBand(pixels, grid, start, end)
		}(start, end)
	}
	wg.Wait()
}

// renderBand rasterizes cell rows [startRow, endRow).
func (r *Rasterizer) renderBand(pixels []byte, grid *cell.Grid, startRow, endRow int) {
	w := r.cols
	for cy := startRow; cy < endRow; cy++ {
		top := pixels[cy*2*w*3:]
		bottom := pixels[(cy*2+1)*w*3:]
		out := grid.Cells[cy*w : (cy+1)*w]
		for cx := 0; cx < w; cx++ {
			t := top[cx*3 : cx*3+3]
			b := bottom[cx*3 : cx*3+3]
			out[cx] = cell.Cell{
				Glyph: cell.HalfBlock,
				FG:    cell.RGB{R: t[0], G: t[1], B: t[2]},
				BG:    cell.RGB{R: b[0], G: b[1], B: b[2]},
			}
		}
	}
}
