package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	cfg := Defaults()
	cfg.VideoPath = "test:solid"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults with test source", mutate: func(c *Config) {}},
		{name: "missing video path", mutate: func(c *Config) { c.VideoPath = "" }, wantErr: true},
		{name: "nonexistent video file", mutate: func(c *Config) { c.VideoPath = "/no/such/file.mp4" }, wantErr: true},
		{name: "fps too low", mutate: func(c *Config) { c.TargetFPS = 0 }, wantErr: true},
		{name: "fps too high", mutate: func(c *Config) { c.TargetFPS = 500 }, wantErr: true},
		{name: "queue too small", mutate: func(c *Config) { c.QueueCapacity = 1 }, wantErr: true},
		{name: "cols without rows", mutate: func(c *Config) { c.Cols = 80 }, wantErr: true},
		{name: "explicit dimensions", mutate: func(c *Config) { c.Cols = 80; c.Rows = 24 }},
		{name: "bad fit mode", mutate: func(c *Config) { c.Fit = "stretch" }, wantErr: true},
		{name: "fill fit mode", mutate: func(c *Config) { c.Fit = "fill" }},
		{name: "bad quality", mutate: func(c *Config) { c.Quality = "ultra" }, wantErr: true},
		{name: "high quality", mutate: func(c *Config) { c.Quality = "high" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("expected ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termplay.yaml")
	data := `
video: test:gradient
cols: 100
rows: 30
fit: fill
target_fps: 30
quality: high
quiet: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.VideoPath != "test:gradient" {
		t.Errorf("expected video test:gradient, got %q", cfg.VideoPath)
	}
	if cfg.Cols != 100 || cfg.Rows != 30 {
		t.Errorf("expected 100x30, got %dx%d", cfg.Cols, cfg.Rows)
	}
	if cfg.Fit != "fill" {
		t.Errorf("expected fit fill, got %q", cfg.Fit)
	}
	if cfg.TargetFPS != 30 {
		t.Errorf("expected target fps 30, got %d", cfg.TargetFPS)
	}
	// Unset fields keep defaults.
	if cfg.QueueCapacity != 120 {
		t.Errorf("expected default queue capacity 120, got %d", cfg.QueueCapacity)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile("/no/such/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
