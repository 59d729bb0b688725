// Package config provides playback configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/termplay/pkg/pipeline"
)

// ErrInvalid wraps all configuration validation failures.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full playback configuration. Zero fields for Cols/Rows mean
// "probe the terminal".
type Config struct {
	// Input
	VideoPath string `yaml:"video"`
	AudioPath string `yaml:"audio"`

	// Output geometry
	Cols int    `yaml:"cols"`
	Rows int    `yaml:"rows"`
	Fit  string `yaml:"fit"` // letterbox or fill

	// Timing
	TargetFPS     int `yaml:"target_fps"`
	QueueCapacity int `yaml:"queue_capacity"`

	// Rendering
	Quality string `yaml:"quality"` // fast or high
	Workers int    `yaml:"workers"` // rasterizer workers, 0 = NumCPU

	// Audio sidecar
	AudioPlayer string `yaml:"audio_player"` // binary override, default ffplay

	// Diagnostics
	LogLevel string `yaml:"log_level"`
	Quiet    bool   `yaml:"quiet"`
	CrashLog string `yaml:"crash_log"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Fit:           "letterbox",
		TargetFPS:     60,
		QueueCapacity: 120,
		Quality:       "fast",
		LogLevel:      "info",
		CrashLog:      "termplay-crash.log",
	}
}

// LoadFile reads a YAML config file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// FitMode returns the parsed fit mode.
func (c Config) FitMode() (pipeline.FitMode, error) {
	return pipeline.ParseFitMode(c.Fit)
}

// Validate checks the configuration for impossible values. The video path is
// checked for existence unless it names a synthetic test source.
func (c Config) Validate() error {
	var problems []string

	if c.VideoPath == "" {
		problems = append(problems, "video path is required")
	} else if !strings.HasPrefix(c.VideoPath, "test:") {
		if _, err := os.Stat(c.VideoPath); err != nil {
			problems = append(problems, fmt.Sprintf("video file: %v", err))
		}
	}
	if c.AudioPath != "" {
		if _, err := os.Stat(c.AudioPath); err != nil {
			problems = append(problems, fmt.Sprintf("audio file: %v", err))
		}
	}
	if c.Cols < 0 || c.Rows < 0 {
		problems = append(problems, "cols and rows must not be negative")
	}
	if (c.Cols > 0) != (c.Rows > 0) {
		problems = append(problems, "cols and rows must be set together")
	}
	if c.TargetFPS < 1 || c.TargetFPS > 240 {
		problems = append(problems, fmt.Sprintf("target fps %d out of range 1-240", c.TargetFPS))
	}
	if c.QueueCapacity < 2 {
		problems = append(problems, fmt.Sprintf("queue capacity %d must be >= 2", c.QueueCapacity))
	}
	if _, err := pipeline.ParseFitMode(c.Fit); err != nil {
		problems = append(problems, fmt.Sprintf("fit mode %q unknown", c.Fit))
	}
	if c.Quality != "" && c.Quality != "fast" && c.Quality != "high" {
		problems = append(problems, fmt.Sprintf("quality %q unknown (fast or high)", c.Quality))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
