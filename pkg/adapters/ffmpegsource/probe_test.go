package ffmpegsource

import (
	"testing"
	"time"
)

const sampleHeader = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'clip.mp4':
  Metadata:
    major_brand     : isom
  Duration: 00:01:30.50, start: 0.000000, bitrate: 1205 kb/s
  Stream #0:0[0x1](und): Video: h264 (High) (avc1 / 0x31637661), yuv420p(progressive), 1280x720 [SAR 1:1 DAR 16:9], 1071 kb/s, 29.97 fps, 29.97 tbr, 30k tbn (default)
  Stream #0:1[0x2](und): Audio: aac (LC) (mp4a / 0x6134706D), 44100 Hz, stereo, fltp, 128 kb/s (default)
`

const tbrOnlyHeader = `Input #0, matroska,webm, from 'clip.mkv':
  Duration: 00:00:10.00, start: 0.000000, bitrate: 500 kb/s
  Stream #0:0: Video: vp9, yuv420p, 640x480, 24 tbr, 1k tbn
`

const audioOnlyHeader = `Input #0, mp3, from 'song.mp3':
  Duration: 00:03:00.00, start: 0.000000, bitrate: 192 kb/s
  Stream #0:0: Audio: mp3, 44100 Hz, stereo, fltp, 192 kb/s
`

func TestParseHeader(t *testing.T) {
	meta, err := parseHeader(sampleHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Width != 1280 || meta.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", meta.Width, meta.Height)
	}
	if meta.FPS != 29.97 {
		t.Errorf("expected 29.97 fps, got %v", meta.FPS)
	}
	if meta.Codec != "h264" {
		t.Errorf("expected codec h264, got %q", meta.Codec)
	}
	want := 90*time.Second + 500*time.Millisecond
	if meta.Duration != want {
		t.Errorf("expected duration %v, got %v", want, meta.Duration)
	}
}

func TestParseHeader_TBRFallback(t *testing.T) {
	meta, err := parseHeader(tbrOnlyHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.FPS != 24 {
		t.Errorf("expected tbr fallback 24 fps, got %v", meta.FPS)
	}
	if meta.Codec != "vp9" {
		t.Errorf("expected codec vp9, got %q", meta.Codec)
	}
}

func TestParseHeader_NoVideoStream(t *testing.T) {
	if _, err := parseHeader(audioOnlyHeader); err == nil {
		t.Error("expected error for audio-only input")
	}
}

func TestParseHeader_DefaultFPS(t *testing.T) {
	header := `Input #0, gif, from 'anim.gif':
  Duration: N/A, bitrate: N/A
  Stream #0:0: Video: gif, bgra, 320x200
`
	meta, err := parseHeader(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.FPS != defaultFPS {
		t.Errorf("expected default fps %v, got %v", defaultFPS, meta.FPS)
	}
}
