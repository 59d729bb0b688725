package ffmpegsource

import (
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/user/termplay/pkg/ports"
)

// defaultFPS is assumed when the container does not declare a frame rate.
const defaultFPS = 30.0

var (
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+(?:\.\d+)?)`)
	streamRe   = regexp.MustCompile(`Stream #\d+:\d+.*?: Video: ([^,\s(]+).*?, (\d{2,})x(\d{2,})`)
	fpsRe      = regexp.MustCompile(`(\d+(?:\.\d+)?) fps`)
	tbrRe      = regexp.MustCompile(`(\d+(?:\.\d+)?) tbr`)
)

// probe runs `ffmpeg -i path` with no output and parses the stream header it
// prints on stderr. ffmpeg exits non-zero because no output is given; only
// an unparseable header is treated as failure.
func probe(ffmpegPath, path string) (ports.SourceMeta, error) {
	cmd := exec.Command(ffmpegPath, "-hide_banner", "-i", path)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return ports.SourceMeta{}, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	if err := cmd.Start(); err != nil {
		return ports.SourceMeta{}, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	header, _ := io.ReadAll(io.LimitReader(stderr, 1<<16))
	cmd.Wait()

	meta, err := parseHeader(string(header))
	if err != nil {
		return ports.SourceMeta{}, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}
	return meta, nil
}

// parseHeader extracts dimensions, fps, duration and codec from ffmpeg's
// banner output.
func parseHeader(header string) (ports.SourceMeta, error) {
	var meta ports.SourceMeta

	m := streamRe.FindStringSubmatch(header)
	if m == nil {
		if strings.Contains(header, "No such file") ||
			strings.Contains(header, "Invalid data found") {
			return meta, fmt.Errorf("unreadable input")
		}
		return meta, fmt.Errorf("no video stream")
	}
	meta.Codec = m[1]
	meta.Width, _ = strconv.Atoi(m[2])
	meta.Height, _ = strconv.Atoi(m[3])
	if meta.Width <= 0 || meta.Height <= 0 {
		return meta, fmt.Errorf("bad dimensions %dx%d", meta.Width, meta.Height)
	}

	if m := fpsRe.FindStringSubmatch(header); m != nil {
		meta.FPS, _ = strconv.ParseFloat(m[1], 64)
	} else if m := tbrRe.FindStringSubmatch(header); m != nil {
		meta.FPS, _ = strconv.ParseFloat(m[1], 64)
	}
	if meta.FPS <= 0 {
		meta.FPS = defaultFPS
	}

	if m := durationRe.FindStringSubmatch(header); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.ParseFloat(m[3], 64)
		meta.Duration = time.Duration((float64(hours*3600+minutes*60) + seconds) * float64(time.Second))
	}

	return meta, nil
}
