// Package recorder captures one audio artifact per dictation session and
// produces a live telemetry stream for the UI and the session controller.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/whispermate/whispermate/audiocapture"
	"github.com/whispermate/whispermate/internal/types"
)

// ErrNotRecording is returned by Stop when no recording is in progress.
var ErrNotRecording = errors.New("recorder: not recording")

// telemetryBuffer bounds the telemetry channel. Slow consumers lose samples
// rather than stalling the capture callback.
const telemetryBuffer = 32

// numBands is the size of the frequency band sketch sent with telemetry.
const numBands = 16

// Mic records microphone audio into a WAV artifact.
//
// One recording at a time: Start resets all per-session state, Stop ends the
// recording and writes the artifact. Telemetry is owned by the active
// recording and the channel is closed when it ends.
type Mic struct {
	capture audiocapture.Capturer

	mu        sync.Mutex
	recording bool
	samples   []float32
	detector  *silenceDetector
	telemetry chan types.Telemetry
}

// NewMic creates a recorder over the given capture backend.
func NewMic(capture audiocapture.Capturer) *Mic {
	return &Mic{capture: capture}
}

// Start begins a new recording. It fails when capture cannot start, e.g. on
// missing microphone permission.
func (m *Mic) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recording {
		return audiocapture.ErrRunning
	}

	m.samples = m.samples[:0]
	m.detector = newSilenceDetector(m.capture.SampleRate())
	m.telemetry = make(chan types.Telemetry, telemetryBuffer)

	if err := m.capture.Start(m.handleAudio); err != nil {
		close(m.telemetry)
		m.telemetry = nil
		return fmt.Errorf("start capture: %w", err)
	}

	m.recording = true
	return nil
}

// Telemetry returns the stream for the active recording. Nil before the
// first Start.
func (m *Mic) Telemetry() <-chan types.Telemetry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.telemetry
}

// Stop ends the recording, writes the artifact as a 16-bit mono WAV temp
// file and returns its path together with the measured duration. The caller
// owns the artifact file.
func (m *Mic) Stop() (artifactPath string, durationMs int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.recording {
		return "", 0, ErrNotRecording
	}
	m.recording = false

	if err := m.capture.Stop(); err != nil {
		slog.Error("stop capture", "error", err)
	}
	close(m.telemetry)

	sampleRate := m.capture.SampleRate()
	durationMs = int64(len(m.samples)) * 1000 / int64(sampleRate)

	f, err := os.CreateTemp("", "whispermate-*.wav")
	if err != nil {
		return "", 0, fmt.Errorf("create artifact: %w", err)
	}
	if _, err := f.Write(encodeWAV(m.samples, sampleRate)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("close artifact: %w", err)
	}

	return f.Name(), durationMs, nil
}

// Release cancels an in-progress recording and drops its buffers. Safe to
// call in any state.
func (m *Mic) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recording {
		if err := m.capture.Stop(); err != nil {
			slog.Error("stop capture", "error", err)
		}
		close(m.telemetry)
		m.recording = false
	}
	m.samples = nil
}

// handleAudio runs on the capture callback. It must copy the samples before
// returning.
func (m *Mic) handleAudio(samples []float32) {
	m.mu.Lock()
	if !m.recording {
		m.mu.Unlock()
		return
	}
	m.samples = append(m.samples, samples...)
	detector := m.detector
	m.mu.Unlock()

	t := types.Telemetry{
		Level:    rms(samples),
		Bands:    bands(samples, numBands),
		AutoStop: detector.feed(samples),
	}

	// Stop or Release may have closed the channel while the metrics were
	// computed, so re-check under the lock before sending. The send is
	// non-blocking: drop the sample when the consumer lags.
	m.mu.Lock()
	if m.recording {
		select {
		case m.telemetry <- t:
		default:
		}
	}
	m.mu.Unlock()
}

// rms computes the root mean square level of the samples, clamped to [0,1].
func rms(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	level := float32(math.Sqrt(sum / float64(len(samples))))
	if level > 1 {
		level = 1
	}
	return level
}

// bands produces a coarse n-bucket energy sketch of the chunk for the
// waveform display. Buckets are time slices, not a true spectrum.
func bands(samples []float32, n int) []float32 {
	if len(samples) < n {
		return nil
	}
	out := make([]float32, n)
	step := len(samples) / n
	for i := 0; i < n; i++ {
		out[i] = rms(samples[i*step : (i+1)*step])
	}
	return out
}

// silenceDetector raises the auto-stop edge once speech has been heard and
// is followed by sustained silence. Adapted thresholds: speech above the RMS
// threshold for minSpeech, then silence for silenceDur.
type silenceDetector struct {
	threshold  float32
	minSpeech  time.Duration
	silenceDur time.Duration

	sampleRate   int
	speechTotal  time.Duration
	silenceTotal time.Duration
	fired        bool
}

func newSilenceDetector(sampleRate int) *silenceDetector {
	return &silenceDetector{
		threshold:  0.015,
		minSpeech:  300 * time.Millisecond,
		silenceDur: 1500 * time.Millisecond,
		sampleRate: sampleRate,
	}
}

// feed consumes a chunk and reports whether the auto-stop edge fires on it.
// The edge fires at most once per recording.
func (d *silenceDetector) feed(samples []float32) bool {
	if d.fired {
		return false
	}

	chunk := time.Duration(len(samples)) * time.Second / time.Duration(d.sampleRate)
	if rms(samples) > d.threshold {
		d.speechTotal += chunk
		d.silenceTotal = 0
		return false
	}

	if d.speechTotal < d.minSpeech {
		return false
	}
	d.silenceTotal += chunk
	if d.silenceTotal >= d.silenceDur {
		d.fired = true
		return true
	}
	return false
}
