package rasterize

import (
	"math/rand"
	"testing"

	"github.com/user/termplay/pkg/cell"
)

func TestRenderInto_HalfBlockPairing(t *testing.T) {
	// 2x4 pixel plane: red/green over blue/yellow pairs.
	pixels := []byte{
		255, 0, 0, 255, 0, 0, // row 0: red
		0, 255, 0, 0, 255, 0, // row 1: green
		0, 0, 255, 0, 0, 255, // row 2: blue
		255, 255, 0, 255, 255, 0, // row 3: yellow
	}

	r := New(2, 2, 1)
	grid := cell.NewGrid(2, 2)
	r.RenderInto(pixels, grid)

	for col := 0; col < 2; col++ {
		c := grid.At(col, 0)
		if c.Glyph != cell.HalfBlock {
			t.Errorf("col %d row 0: expected half block glyph, got %q", col, c.Glyph)
		}
		if c.FG != (cell.RGB{R: 255}) {
			t.Errorf("col %d row 0: expected red fg, got %+v", col, c.FG)
		}
		if c.BG != (cell.RGB{G: 255}) {
			t.Errorf("col %d row 0: expected green bg, got %+v", col, c.BG)
		}

		c = grid.At(col, 1)
		if c.FG != (cell.RGB{B: 255}) {
			t.Errorf("col %d row 1: expected blue fg, got %+v", col, c.FG)
		}
		if c.BG != (cell.RGB{R: 255, G: 255}) {
			t.Errorf("col %d row 1: expected yellow bg, got %+v", col, c.BG)
		}
	}
}

func TestRenderInto_Bijection(t *testing.T) {
	// Every even/odd pixel row pair must map exactly to fg/bg of the cell row.
	const cols, rows = 7, 5
	rng := rand.New(rand.NewSource(1))
	pixels := make([]byte, 3*cols*2*rows)
	rng.Read(pixels)

	r := New(cols, rows, 1)
	grid := cell.NewGrid(cols, rows)
	r.RenderInto(pixels, grid)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			top := pixels[(row*2*cols+col)*3:]
			bottom := pixels[((row*2+1)*cols+col)*3:]
			c := grid.At(col, row)
			if c.FG != (cell.RGB{R: top[0], G: top[1], B: top[2]}) {
				t.Fatalf("cell (%d,%d): fg does not match even pixel row", col, row)
			}
			if c.BG != (cell.RGB{R: bottom[0], G: bottom[1], B: bottom[2]}) {
				t.Fatalf("cell (%d,%d): bg does not match odd pixel row", col, row)
			}
		}
	}
}

func TestRenderInto_DeterministicAcrossWorkerCounts(t *testing.T) {
	const cols, rows = 33, 17
	rng := rand.New(rand.NewSource(42))
	pixels := make([]byte, 3*cols*2*rows)
	rng.Read(pixels)

	reference := cell.NewGrid(cols, rows)
	New(cols, rows, 1).RenderInto(pixels, reference)

	for _, workers := range []int{2, 3, 8, 64} {
		grid := cell.NewGrid(cols, rows)
		New(cols, rows, workers).RenderInto(pixels, grid)
		if !grid.Equal(reference) {
			t.Errorf("workers=%d: output differs from single-worker render", workers)
		}
	}
}

func TestRenderInto_ShapeMismatchLeavesGridUntouched(t *testing.T) {
	r := New(4, 4, 1)
	grid := cell.NewGrid(3, 3)
	pixels := make([]byte, 3*4*8)
	r.RenderInto(pixels, grid)
	for i, c := range grid.Cells {
		if c != (cell.Cell{}) {
			t.Fatalf("cell %d modified on shape mismatch", i)
		}
	}
}
