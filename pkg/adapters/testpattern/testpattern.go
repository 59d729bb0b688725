// Package testpattern generates synthetic video sources. They stand in for
// real files in tests and demos where no decoder binary is available.
package testpattern

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"

	"github.com/user/termplay/pkg/ports"
)

// Pattern selects the generated content.
type Pattern string

const (
	// PatternSolid renders every frame as a single color (black by
	// default).
	PatternSolid Pattern = "solid"
	// PatternGradient renders a vertical gradient that brightens over
	// time.
	PatternGradient Pattern = "gradient"
	// PatternCheckerboard renders a checkerboard that inverts every frame.
	PatternCheckerboard Pattern = "checkerboard"
)

// ErrUnknownPattern is returned for an unrecognized pattern name.
var ErrUnknownPattern = errors.New("testpattern: unknown pattern")

// Config sizes and paces a synthetic source.
type Config struct {
	Pattern Pattern
	Width   int
	Height  int
	FPS     float64
	Frames  int
}

// Defaults returns a small 30 fps source of 90 frames.
func Defaults(p Pattern) Config {
	return Config{
		Pattern: p,
		Width:   320,
		Height:  180,
		FPS:     30,
		Frames:  90,
	}
}

// Source is a deterministic synthetic FrameReader.
type Source struct {
	cfg  Config
	idx  int
	ctx  *gg.Context
	cell int
}

// New creates a synthetic source from config.
func New(cfg Config) (*Source, error) {
	switch cfg.Pattern {
	case PatternSolid, PatternGradient, PatternCheckerboard:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, cfg.Pattern)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 || cfg.Frames <= 0 {
		return nil, fmt.Errorf("testpattern: invalid config %+v", cfg)
	}
	cellSize := cfg.Width / 8
	if cellSize < 1 {
		cellSize = 1
	}
	return &Source{
		cfg:  cfg,
		ctx:  gg.NewContext(cfg.Width, cfg.Height),
		cell: cellSize,
	}, nil
}

// ParseSpec parses a "test:" source spec of the form
// test:<pattern>[:<width>x<height>@<fps>#<frames>]. Each trailing part is
// optional.
func ParseSpec(spec string) (*Source, error) {
	rest := strings.TrimPrefix(spec, "test:")
	parts := strings.SplitN(rest, ":", 2)
	cfg := Defaults(Pattern(parts[0]))

	if len(parts) == 2 {
		format := parts[1]
		if i := strings.IndexByte(format, '#'); i >= 0 {
			n, err := strconv.Atoi(format[i+1:])
			if err != nil {
				return nil, fmt.Errorf("testpattern: bad frame count in %q", spec)
			}
			cfg.Frames = n
			format = format[:i]
		}
		if i := strings.IndexByte(format, '@'); i >= 0 {
			fps, err := strconv.ParseFloat(format[i+1:], 64)
			if err != nil {
				return nil, fmt.Errorf("testpattern: bad fps in %q", spec)
			}
			cfg.FPS = fps
			format = format[:i]
		}
		if format != "" {
			dims := strings.SplitN(format, "x", 2)
			if len(dims) != 2 {
				return nil, fmt.Errorf("testpattern: bad dimensions in %q", spec)
			}
			w, errW := strconv.Atoi(dims[0])
			h, errH := strconv.Atoi(dims[1])
			if errW != nil || errH != nil {
				return nil, fmt.Errorf("testpattern: bad dimensions in %q", spec)
			}
			cfg.Width, cfg.Height = w, h
		}
	}

	return New(cfg)
}

// IsSpec reports whether the given source string names a synthetic pattern.
func IsSpec(spec string) bool {
	return strings.HasPrefix(spec, "test:")
}

// Meta implements ports.FrameReader.
func (s *Source) Meta() ports.SourceMeta {
	return ports.SourceMeta{
		Width:    s.cfg.Width,
		Height:   s.cfg.Height,
		FPS:      s.cfg.FPS,
		Duration: time.Duration(float64(s.cfg.Frames) / s.cfg.FPS * float64(time.Second)),
		Codec:    "test/" + string(s.cfg.Pattern),
	}
}

// ReadFrame implements ports.FrameReader.
func (s *Source) ReadFrame(dst []byte) error {
	if s.idx >= s.cfg.Frames {
		return io.EOF
	}
	need := 4 * s.cfg.Width * s.cfg.Height
	if len(dst) < need {
		return fmt.Errorf("testpattern: frame buffer too small: %d < %d", len(dst), need)
	}

	s.draw()
	img, ok := s.ctx.Image().(*image.RGBA)
	if !ok {
		return fmt.Errorf("testpattern: unexpected canvas image type")
	}
	copy(dst[:need], img.Pix)

	s.idx++
	return nil
}

// draw renders the current frame onto the gg canvas.
func (s *Source) draw() {
	w := float64(s.cfg.Width)
	h := float64(s.cfg.Height)

	switch s.cfg.Pattern {
	case PatternSolid:
		s.ctx.SetRGB(0, 0, 0)
		s.ctx.Clear()

	case PatternGradient:
		// Vertical gradient: brightness grows with y, shifted per frame so
		// consecutive frames differ.
		shift := float64(s.idx) / float64(s.cfg.Frames)
		for y := 0; y < s.cfg.Height; y++ {
			v := (float64(y)/h)*(1-shift) + shift
			s.ctx.SetRGB(v, v, v)
			s.ctx.DrawRectangle(0, float64(y), w, 1)
			s.ctx.Fill()
		}

	case PatternCheckerboard:
		invert := s.idx%2 == 1
		s.ctx.SetRGB(0, 0, 0)
		s.ctx.Clear()
		s.ctx.SetRGB(1, 1, 1)
		for y := 0; y*s.cell < s.cfg.Height; y++ {
			for x := 0; x*s.cell < s.cfg.Width; x++ {
				on := (x+y)%2 == 0
				if invert {
					on = !on
				}
				if on {
					s.ctx.DrawRectangle(float64(x*s.cell), float64(y*s.cell), float64(s.cell), float64(s.cell))
				}
			}
		}
		s.ctx.Fill()
	}
}

// Close implements ports.FrameReader.
func (s *Source) Close() error {
	return nil
}
