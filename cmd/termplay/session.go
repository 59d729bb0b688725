package main

import (
	"fmt"
	"io"
	"os"

	"github.com/user/termplay/pkg/adapters/ffplayaudio"
	"github.com/user/termplay/pkg/adapters/termprobe"
	"github.com/user/termplay/pkg/config"
	"github.com/user/termplay/pkg/framebuf"
	"github.com/user/termplay/pkg/pipeline"
	"github.com/user/termplay/pkg/player"
	"github.com/user/termplay/pkg/ports"
	"github.com/user/termplay/pkg/rasterize"
	"github.com/user/termplay/pkg/source"
	"github.com/user/termplay/pkg/termsink"
)

// session holds the wired playback pipeline.
type session struct {
	player *player.Player
}

// buildSession constructs the full pipeline from a validated config.
func buildSession(cfg config.Config, log ports.Logger) (*session, error) {
	cols, rows := cfg.Cols, cfg.Rows
	interactive := termprobe.IsTerminal()
	if cols == 0 || rows == 0 {
		info, err := termprobe.New().Probe()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot determine terminal size: %v", config.ErrInvalid, err)
		}
		cols, rows = info.Cols, info.Rows
		if !info.Truecolor {
			log.Warn("Terminal does not advertise truecolor; colors may degrade")
		}
	}

	reader, err := openReader(cfg, log)
	if err != nil {
		return nil, err
	}

	fit, err := cfg.FitMode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	quality := source.QualityFast
	if cfg.Quality == "high" {
		quality = source.QualityHigh
	}

	pool := pipeline.NewFramePool(cols, 2*rows)
	src, err := source.Open(reader, cols, rows, fit, quality, pool, log)
	if err != nil {
		reader.Close()
		return nil, err
	}

	queue, err := framebuf.New[*pipeline.Frame](cfg.QueueCapacity)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	var audio ports.AudioSidecar
	if cfg.AudioPath != "" {
		sidecar, err := ffplayaudio.New(cfg.AudioPath, cfg.AudioPlayer, log)
		if err != nil {
			log.Warn("Audio sidecar failed: %s", err)
		} else {
			audio = sidecar
		}
	}

	sink, err := termsink.New(cols, rows, termsink.Options{Interactive: interactive})
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("%w: %v", player.ErrRenderFailed, err)
	}

	var keys io.Reader
	if interactive {
		keys = os.Stdin
	}

	p, err := player.New(player.Options{
		Source:     src,
		Sink:       sink,
		Queue:      queue,
		Pool:       pool,
		Rasterizer: rasterize.New(cols, rows, cfg.Workers),
		Audio:      audio,
		Logger:     log,
		TargetFPS:  cfg.TargetFPS,
		Keys:       keys,
	})
	if err != nil {
		sink.Close()
		reader.Close()
		return nil, err
	}

	return &session{player: p}, nil
}
