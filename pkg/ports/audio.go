package ports

// AudioSidecar plays an audio file alongside video playback. The core starts
// it at t0 and stops it on shutdown; there is no feedback channel and no
// synchronization beyond the start.
type AudioSidecar interface {
	// Start begins playback of the configured audio file.
	Start() error

	// Stop terminates playback. Safe to call multiple times and before
	// Start.
	Stop()
}
