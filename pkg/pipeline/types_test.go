package pipeline

import "testing"

func TestContentRect_Letterbox(t *testing.T) {
	tests := []struct {
		name                   string
		srcW, srcH, dstW, dstH int
		want                   Rect
	}{
		{
			// 320x180 into 80x48: width-bound, 80x45, vertically centered.
			name: "wide source pads top and bottom",
			srcW: 320, srcH: 180, dstW: 80, dstH: 48,
			want: Rect{X: 0, Y: 1, Width: 80, Height: 45},
		},
		{
			// 180x320 into 80x48: height-bound, 27x48, horizontally centered.
			name: "tall source pads left and right",
			srcW: 180, srcH: 320, dstW: 80, dstH: 48,
			want: Rect{X: 26, Y: 0, Width: 27, Height: 48},
		},
		{
			name: "exact aspect fills the plane",
			srcW: 160, srcH: 96, dstW: 80, dstH: 48,
			want: Rect{X: 0, Y: 0, Width: 80, Height: 48},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContentRect(tt.srcW, tt.srcH, tt.dstW, tt.dstH, FitLetterbox)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestContentRect_Fill(t *testing.T) {
	// 640x480 into 40x40: fill scales to cover, so the wider dimension
	// overhangs and is centered with a negative offset.
	got := ContentRect(640, 480, 40, 40, FitFill)
	if got.Height != 40 {
		t.Errorf("expected height 40, got %d", got.Height)
	}
	if got.Width <= 40 {
		t.Errorf("expected width > 40 for cover scaling, got %d", got.Width)
	}
	if got.X >= 0 {
		t.Errorf("expected negative x offset for cropped content, got %d", got.X)
	}
	if got.Y != 0 {
		t.Errorf("expected y offset 0, got %d", got.Y)
	}
}

func TestContentRect_DegenerateInput(t *testing.T) {
	if got := ContentRect(0, 0, 80, 48, FitLetterbox); got != (Rect{}) {
		t.Errorf("expected zero rect for empty source, got %+v", got)
	}
}

func TestParseFitMode(t *testing.T) {
	tests := []struct {
		in      string
		want    FitMode
		wantErr bool
	}{
		{"letterbox", FitLetterbox, false},
		{"fill", FitFill, false},
		{"", FitLetterbox, false},
		{"stretch", FitLetterbox, true},
	}
	for _, tt := range tests {
		got, err := ParseFitMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFitMode(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFitMode(%q): unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFitMode(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestFramePool_Reuse(t *testing.T) {
	pool := NewFramePool(4, 6)
	f := pool.Get()
	if len(f.Pixels) != 3*4*6 {
		t.Fatalf("expected %d pixel bytes, got %d", 3*4*6, len(f.Pixels))
	}
	if f.Width != 4 || f.Height != 6 {
		t.Errorf("expected 4x6 frame, got %dx%d", f.Width, f.Height)
	}
	pool.Put(f)

	// A foreign-sized frame must not poison the pool.
	pool.Put(&Frame{Pixels: make([]byte, 10)})
	g := pool.Get()
	if len(g.Pixels) != 3*4*6 {
		t.Errorf("pool returned frame with %d pixel bytes", len(g.Pixels))
	}
}
