// Package audiocapture provides microphone capture.
//
// On macOS it taps the default input device through AVAudioEngine and
// delivers mono float32 PCM at the requested sample rate. Other platforms
// return ErrUnsupported.
package audiocapture

import "errors"

// ErrUnsupported is returned on platforms without a capture backend.
var ErrUnsupported = errors.New("audiocapture: unsupported platform")

// ErrRunning is returned when starting a capture that is already running.
var ErrRunning = errors.New("audiocapture: already running")

// AudioHandler receives capture callbacks. Samples are mono float32 in
// [-1, 1] and are only valid for the duration of the call.
type AudioHandler func(samples []float32)

// Capturer captures microphone audio. Implementations allow at most one
// running capture at a time.
type Capturer interface {
	Start(handler AudioHandler) error
	Stop() error
	SampleRate() int
}
