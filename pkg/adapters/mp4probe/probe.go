// Package mp4probe inspects MP4 containers natively to discover the video
// track's codec, dimensions, frame rate and duration without spawning a
// decoder process.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/termplay/pkg/ports"
)

var (
	// ErrNotMP4 is returned when the file cannot be parsed as an MP4
	// container.
	ErrNotMP4 = errors.New("mp4probe: not an MP4 container")

	// ErrNoVideoTrack is returned when the container has no video track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track")
)

// ProbeFile probes an MP4 file on disk.
func ProbeFile(path string) (ports.SourceMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.SourceMeta{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Probe parses an MP4 container and returns the video track metadata. The
// frame rate is derived from the sample table: sampleCount / trackDuration.
func Probe(reader io.ReadSeeker) (ports.SourceMeta, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return ports.SourceMeta{}, fmt.Errorf("%w: %v", ErrNotMP4, err)
	}

	moov := mp4File.Moov
	if moov == nil && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return ports.SourceMeta{}, ErrNoVideoTrack
	}

	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		return trackMeta(trak)
	}
	return ports.SourceMeta{}, ErrNoVideoTrack
}

func trackMeta(trak *mp4.TrakBox) (ports.SourceMeta, error) {
	var meta ports.SourceMeta

	if trak.Tkhd != nil {
		// Tkhd width/height are 16.16 fixed point.
		meta.Width = int(trak.Tkhd.Width >> 16)
		meta.Height = int(trak.Tkhd.Height >> 16)
	}

	var timescale uint32 = 1000
	var duration uint64
	if trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
		duration = trak.Mdia.Mdhd.Duration
	}
	if timescale == 0 {
		timescale = 1000
	}
	if duration > 0 {
		meta.Duration = time.Duration(float64(duration) / float64(timescale) * float64(time.Second))
	}

	if stbl := sampleTable(trak); stbl != nil {
		if stbl.Stsd != nil && len(stbl.Stsd.Children) > 0 {
			meta.Codec = stbl.Stsd.Children[0].Type()
		}
		if stbl.Stts != nil && duration > 0 {
			var samples uint64
			for _, count := range stbl.Stts.SampleCount {
				samples += uint64(count)
			}
			if samples > 0 {
				meta.FPS = float64(samples) * float64(timescale) / float64(duration)
			}
		}
	}

	return meta, nil
}

func sampleTable(trak *mp4.TrakBox) *mp4.StblBox {
	if trak.Mdia == nil || trak.Mdia.Minf == nil {
		return nil
	}
	return trak.Mdia.Minf.Stbl
}
