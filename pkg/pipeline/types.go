// Package pipeline defines the types shared across the playback pipeline.
package pipeline

import (
	"fmt"
	"time"
)

// Frame is one decoded video frame sized for the terminal cell grid.
//
// Pixels is a dense RGB24 plane, row-major, top-to-bottom, of exactly
// 3*Width*Height bytes. Height is always even so the rasterizer can pair
// rows into half-block cells. A frame is owned by exactly one goroutine at a
// time: the decoder fills it, hands it to the queue, and the player releases
// it back to the pool after rasterizing.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
	PTS    time.Duration
}

// FitMode selects how source video is mapped onto the output plane.
type FitMode int

const (
	// FitLetterbox scales to fit inside the target, centers the content and
	// pads the remainder with black.
	FitLetterbox FitMode = iota
	// FitFill scales to cover the target and center-crops the excess.
	FitFill
)

// String returns the flag/YAML form of the fit mode.
func (m FitMode) String() string {
	switch m {
	case FitFill:
		return "fill"
	default:
		return "letterbox"
	}
}

// ParseFitMode parses the flag/YAML form of a fit mode.
func ParseFitMode(s string) (FitMode, error) {
	switch s {
	case "letterbox", "":
		return FitLetterbox, nil
	case "fill":
		return FitFill, nil
	default:
		return FitLetterbox, fmt.Errorf("pipeline: unknown fit mode %q", s)
	}
}

// Rect is a rectangle in pixel coordinates of the output plane.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// ContentRect computes the sub-rectangle of the dstW x dstH output plane that
// the resampled video occupies. The rectangle is computed once per source and
// never changes between frames.
//
// Letterbox keeps the whole source visible inside the plane; Fill covers the
// whole plane and lets the compose step crop the overhang. Either way the
// content is centered, so X or Y may be negative in fill mode.
func ContentRect(srcW, srcH, dstW, dstH int, mode FitMode) Rect {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Rect{}
	}

	scaleW := float64(dstW) / float64(srcW)
	scaleH := float64(dstH) / float64(srcH)
	scale := scaleW
	if mode == FitFill {
		if scaleH > scale {
			scale = scaleH
		}
	} else {
		if scaleH < scale {
			scale = scaleH
		}
	}

	w := int(float64(srcW)*scale + 0.5)
	h := int(float64(srcH)*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if mode == FitLetterbox {
		if w > dstW {
			w = dstW
		}
		if h > dstH {
			h = dstH
		}
	}

	return Rect{
		X:      (dstW - w) / 2,
		Y:      (dstH - h) / 2,
		Width:  w,
		Height: h,
	}
}
