package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/termplay/pkg/config"
)

// videoExtensions are the container types offered by the menu.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
}

// audioExtensions are the sidecar formats paired with a selected video.
var audioExtensions = []string{".mp3", ".wav", ".ogg", ".flac", ".m4a"}

func menuCommand() *cli.Command {
	return &cli.Command{
		Name:      "menu",
		Usage:     "Pick a video from a directory and play it",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "fps", Value: 60, Usage: "Target frames per second."},
			&cli.StringFlag{Name: "fit", Value: "letterbox", Usage: "Fit mode: letterbox or fill."},
		},
		Action: func(c *cli.Context) error {
			dir := "."
			if c.Args().Len() > 0 {
				dir = c.Args().First()
			}

			videoPath, err := selectVideo(dir)
			if err != nil {
				return err
			}

			cfg := config.Defaults()
			cfg.VideoPath = videoPath
			cfg.AudioPath = findAudioSidecar(videoPath)
			cfg.TargetFPS = c.Int("fps")
			cfg.Fit = c.String("fit")
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runPlay(cfg)
		},
	}
}

// selectVideo lists the directory's video files on stderr and reads a
// numeric choice. The prompt stays off stdout so the terminal content
// survives until playback takes over.
func selectVideo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	var videos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			videos = append(videos, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(videos)

	if len(videos) == 0 {
		return "", fmt.Errorf("%w: %s", config.ErrInvalid, l10n.F("No video files found in %s", dir))
	}

	fmt.Fprintln(os.Stderr, "Select a video:")
	for i, path := range videos {
		fmt.Fprintf(os.Stderr, "  %2d) %s\n", i+1, filepath.Base(path))
	}
	fmt.Fprint(os.Stderr, "> ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return "", fmt.Errorf("%w: no selection", config.ErrInvalid)
	}
	choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || choice < 1 || choice > len(videos) {
		return "", fmt.Errorf("%w: invalid selection %q", config.ErrInvalid, scanner.Text())
	}
	return videos[choice-1], nil
}

// findAudioSidecar looks for an audio file sharing the video's stem, first
// next to the video, then in a sibling audio/ directory.
func findAudioSidecar(videoPath string) string {
	stem := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	candidates := make([]string, 0, 2*len(audioExtensions))
	for _, ext := range audioExtensions {
		candidates = append(candidates, stem+ext)
	}
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	audioDir := filepath.Join(filepath.Dir(videoPath), "..", "audio")
	for _, ext := range audioExtensions {
		candidates = append(candidates, filepath.Join(audioDir, base+ext))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
