// Package main provides the CLI entry point for termplay.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/termplay/pkg/adapters/ffmpegsource"
	"github.com/user/termplay/pkg/adapters/logger"
	"github.com/user/termplay/pkg/adapters/mp4probe"
	"github.com/user/termplay/pkg/adapters/testpattern"
	"github.com/user/termplay/pkg/config"
	"github.com/user/termplay/pkg/crashlog"
	"github.com/user/termplay/pkg/player"
	"github.com/user/termplay/pkg/ports"
)

var version = "dev"

// Exit codes per the playback error taxonomy.
const (
	exitOK     = 0
	exitConfig = 1
	exitDecode = 2
	exitRender = 3
)

func main() {
	app := &cli.App{
		Name:    "termplay",
		Usage:   "Play video files as truecolor animation in the terminal",
		Version: version,
		Commands: []*cli.Command{
			playCommand(),
			probeCommand(),
			menuCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the error taxonomy onto process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalid):
		return exitConfig
	case errors.Is(err, ffmpegsource.ErrOpenFailed),
		errors.Is(err, ffmpegsource.ErrFFmpegNotFound),
		errors.Is(err, player.ErrDecodeFailed):
		return exitDecode
	case errors.Is(err, player.ErrRenderFailed):
		return exitRender
	default:
		return exitConfig
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play a video file",
		ArgsUsage: "<video>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "audio", Aliases: []string{"a"}, Usage: "Audio file to play alongside the video."},
			&cli.IntFlag{Name: "cols", Aliases: []string{"W"}, Usage: "Terminal columns (default: probe)."},
			&cli.IntFlag{Name: "rows", Aliases: []string{"H"}, Usage: "Terminal rows (default: probe)."},
			&cli.StringFlag{Name: "fit", Value: "letterbox", Usage: "Fit mode: letterbox or fill."},
			&cli.IntFlag{Name: "fps", Value: 60, Usage: "Target frames per second."},
			&cli.IntFlag{Name: "queue", Value: 120, Usage: "Frame queue capacity."},
			&cli.StringFlag{Name: "quality", Value: "fast", Usage: "Resampling quality: fast or high."},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file."},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: "Log level (debug, info, warn, error)."},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: "Suppress all log output."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}
			return runPlay(cfg)
		},
	}
}

// buildConfig layers CLI flags over the config file and defaults.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
		cfg = loaded
	}

	if c.Args().Len() > 0 {
		cfg.VideoPath = c.Args().First()
	}
	if c.IsSet("audio") {
		cfg.AudioPath = c.String("audio")
	}
	if c.IsSet("cols") {
		cfg.Cols = c.Int("cols")
	}
	if c.IsSet("rows") {
		cfg.Rows = c.Int("rows")
	}
	if c.IsSet("fit") {
		cfg.Fit = c.String("fit")
	}
	if c.IsSet("fps") {
		cfg.TargetFPS = c.Int("fps")
	}
	if c.IsSet("queue") {
		cfg.QueueCapacity = c.Int("queue")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.String("quality")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("quiet") {
		cfg.Quiet = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) ports.Logger {
	if cfg.Quiet {
		return logger.NewNoop()
	}
	return logger.NewConsoleStderr(ports.ParseLogLevel(cfg.LogLevel))
}

// openReader builds a frame reader for the configured source, consulting the
// native MP4 probe for a frame rate before the ffmpeg header parse.
func openReader(cfg config.Config, log ports.Logger) (ports.FrameReader, error) {
	if testpattern.IsSpec(cfg.VideoPath) {
		return testpattern.ParseSpec(cfg.VideoPath)
	}

	var opts ffmpegsource.Options
	if strings.HasSuffix(strings.ToLower(cfg.VideoPath), ".mp4") {
		if meta, err := mp4probe.ProbeFile(cfg.VideoPath); err == nil && meta.FPS > 0 {
			opts.FPSOverride = meta.FPS
			log.Debug("Source: %dx%d at %.2f fps", meta.Width, meta.Height, meta.FPS)
		}
	}
	return ffmpegsource.Open(cfg.VideoPath, opts)
}

func runPlay(cfg config.Config) error {
	log := newLogger(cfg)
	if err := crashlog.Open(cfg.CrashLog); err != nil {
		log.Warn("Crash log unavailable: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	session, err := buildSession(cfg, log)
	if err != nil {
		return err
	}

	log.Info("Opening video %s", cfg.VideoPath)
	stats, err := session.player.Run(ctx)
	if err != nil {
		return err
	}

	if stats.Cancelled {
		log.Info(l10n.T("Playback cancelled by user"))
	} else {
		log.Info(l10n.T("Playback complete"))
	}
	reportStats(stats)
	return nil
}

// reportStats prints the playback summary on stderr; stdout may still be
// settling back from the alternate screen.
func reportStats(stats player.Stats) {
	fmt.Fprintf(os.Stderr, "\n=== Playback Complete ===\n")
	fmt.Fprintf(os.Stderr, "Frames presented: %d\n", stats.FramesPresented)
	fmt.Fprintf(os.Stderr, "Frames dropped:   %d\n", stats.FramesDropped)
	fmt.Fprintf(os.Stderr, "Mean frame time:  %.2f ms\n", stats.MeanFrameMs)
	fmt.Fprintf(os.Stderr, "Max frame time:   %.2f ms\n", stats.MaxFrameMs)
}
