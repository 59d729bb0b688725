package ffmpegsource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/user/termplay/pkg/ports"
)

// Options configures a Reader.
type Options struct {
	// FPSOverride replaces the frame rate discovered from the container.
	// Used when a more reliable probe (e.g. the MP4 track parser) already
	// ran.
	FPSOverride float64
}

// Reader streams raw RGBA frames from an ffmpeg child process. It implements
// ports.FrameReader.
type Reader struct {
	meta   ports.SourceMeta
	cmd    *exec.Cmd
	pipe   io.ReadCloser
	stderr bytes.Buffer
	closed bool
}

// Open probes path and starts the decode pipe. It returns ErrOpenFailed when
// the file is missing or carries no video stream.
func Open(path string, opts Options) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	ffmpegPath, err := findFFmpeg()
	if err != nil {
		return nil, err
	}

	meta, err := probe(ffmpegPath, path)
	if err != nil {
		return nil, err
	}
	if opts.FPSOverride > 0 {
		meta.FPS = opts.FPSOverride
	}

	cmd := exec.Command(ffmpegPath,
		"-loglevel", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
	r := &Reader{meta: meta, cmd: cmd}
	cmd.Stderr = &r.stderr

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	r.pipe = pipe

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	return r, nil
}

// Meta returns the probed source format.
func (r *Reader) Meta() ports.SourceMeta {
	return r.meta
}

// FrameSize returns the byte size of one RGBA frame.
func (r *Reader) FrameSize() int {
	return 4 * r.meta.Width * r.meta.Height
}

// ReadFrame fills dst with the next RGBA frame. It returns io.EOF once the
// stream ends on a frame boundary and ErrDecodeFailed on a short read.
func (r *Reader) ReadFrame(dst []byte) error {
	if len(dst) < r.FrameSize() {
		return fmt.Errorf("%w: frame buffer too small: %d < %d", ErrDecodeFailed, len(dst), r.FrameSize())
	}
	n, err := io.ReadFull(r.pipe, dst[:r.FrameSize()])
	if err == io.EOF && n == 0 {
		return io.EOF
	}
	if err != nil {
		msg := r.stderr.String()
		if msg != "" {
			return fmt.Errorf("%w: %v: %s", ErrDecodeFailed, err, msg)
		}
		return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return nil
}

// Close terminates the ffmpeg process and releases the pipe.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.pipe.Close()
	if r.cmd.Process != nil {
		r.cmd.Process.Kill()
	}
	r.cmd.Wait()
	return nil
}
