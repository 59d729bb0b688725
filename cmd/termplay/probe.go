package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/user/termplay/pkg/adapters/ffmpegsource"
	"github.com/user/termplay/pkg/adapters/mp4probe"
	"github.com/user/termplay/pkg/adapters/termprobe"
	"github.com/user/termplay/pkg/ports"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Show video metadata and terminal capabilities",
		ArgsUsage: "[video]",
		Action: func(c *cli.Context) error {
			if c.Args().Len() > 0 {
				if err := probeVideo(c.Args().First()); err != nil {
					return err
				}
				fmt.Println()
			}
			return probeTerminal()
		},
	}
}

func probeVideo(path string) error {
	var meta ports.SourceMeta
	var via string

	if strings.HasSuffix(strings.ToLower(path), ".mp4") {
		if m, err := mp4probe.ProbeFile(path); err == nil {
			meta, via = m, "mp4 container"
		}
	}
	if via == "" {
		reader, err := ffmpegsource.Open(path, ffmpegsource.Options{})
		if err != nil {
			return err
		}
		meta, via = reader.Meta(), "ffmpeg"
		reader.Close()
	}

	fmt.Printf("Video:      %s\n", path)
	fmt.Printf("Probe:      %s\n", via)
	fmt.Printf("Dimensions: %dx%d\n", meta.Width, meta.Height)
	fmt.Printf("FPS:        %.2f\n", meta.FPS)
	if meta.Codec != "" {
		fmt.Printf("Codec:      %s\n", meta.Codec)
	}
	if meta.Duration > 0 {
		fmt.Printf("Duration:   %s\n", meta.Duration.Round(10*time.Millisecond))
	}
	return nil
}

func probeTerminal() error {
	info, err := termprobe.New().Probe()
	if err != nil {
		fmt.Printf("Terminal:   not attached (%v)\n", err)
		return nil
	}
	fmt.Printf("Terminal:   %dx%d cells (%dx%d half-block pixels)\n",
		info.Cols, info.Rows, info.Cols, info.Rows*2)
	fmt.Printf("Truecolor:  %v\n", info.Truecolor)
	fmt.Printf("FFmpeg:     %v\n", ffmpegsource.Available())
	return nil
}
