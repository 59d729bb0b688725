// Package ffplayaudio launches an external audio player as a fire-and-forget
// sidecar process. The core starts it at playback t0 and kills it on
// shutdown; no synchronization happens in between.
package ffplayaudio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/user/termplay/pkg/ports"
)

// ErrPlayerNotFound is returned when no audio player binary can be located.
var ErrPlayerNotFound = errors.New("ffplayaudio: no audio player found in PATH")

// Sidecar runs an audio player child process. Implements ports.AudioSidecar.
type Sidecar struct {
	playerPath string
	audioPath  string
	logger     ports.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

// New locates the player binary and prepares a sidecar for the given audio
// file. playerOverride may name a specific binary; otherwise ffplay is
// searched in PATH.
func New(audioPath, playerOverride string, logger ports.Logger) (*Sidecar, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("ffplayaudio: %w", err)
	}

	playerPath, err := findPlayer(playerOverride)
	if err != nil {
		return nil, err
	}

	return &Sidecar{
		playerPath: playerPath,
		audioPath:  audioPath,
		logger:     logger.WithComponent("audio"),
	}, nil
}

func findPlayer(override string) (string, error) {
	if override != "" {
		if path, err := exec.LookPath(override); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s", ErrPlayerNotFound, override)
	}
	if path, err := exec.LookPath("ffplay"); err == nil {
		return path, nil
	}
	return "", ErrPlayerNotFound
}

// Start launches the player. Any audio drift relative to video is tolerated.
func (s *Sidecar) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return nil
	}

	cmd := exec.Command(s.playerPath, "-nodisp", "-autoexit", "-loglevel", "quiet", s.audioPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	configureProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffplayaudio: start: %w", err)
	}
	s.cmd = cmd
	s.logger.Debug("Starting audio sidecar %s", s.audioPath)

	// Reap the child so a naturally finished player does not linger as a
	// zombie until Stop.
	go cmd.Wait()
	return nil
}

// Stop terminates the player. Safe to call multiple times.
func (s *Sidecar) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return
	}
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd = nil
	s.logger.Debug("Audio sidecar stopped")
}
