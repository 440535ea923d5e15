//go:build !darwin

package audiocapture

// New is unavailable on this platform.
func New(sampleRate int) (Capturer, error) {
	return nil, ErrUnsupported
}
